package gateway

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/utils/ptr"
)

// ReplicaStatusFromPod flattens the placement-relevant parts of a pod's status.
func ReplicaStatusFromPod(pod *corev1.Pod) ReplicaStatus {
	status := ReplicaStatus{
		Name:  pod.Name,
		Phase: phaseOf(pod.Status.Phase),
	}

	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodScheduled && cond.Status == corev1.ConditionFalse {
			status.SchedulingMessage = ptr.To(cond.Message)
			break
		}
	}

	// init containers block regular containers, so check them first
	if reason, ok := firstWaitingReason(pod.Status.InitContainerStatuses); ok {
		status.WaitingReason = ptr.To(reason)
	} else if reason, ok := firstWaitingReason(pod.Status.ContainerStatuses); ok {
		status.WaitingReason = ptr.To(reason)
	}

	return status
}

func phaseOf(phase corev1.PodPhase) Phase {
	switch phase {
	case corev1.PodRunning:
		return PhaseRunning
	case corev1.PodPending:
		return PhasePending
	default:
		return PhaseOther
	}
}

func firstWaitingReason(statuses []corev1.ContainerStatus) (string, bool) {
	for _, cs := range statuses {
		if cs.State.Waiting != nil {
			return cs.State.Waiting.Reason, true
		}
	}
	return "", false
}
