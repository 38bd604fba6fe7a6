package workload

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/utils/ptr"

	"github.com/llm-d/llm-d-capacity-probe/internal/constants"
)

// Labels returns the pod labels of a workload. The Deployment selector matches
// exactly this set.
func Labels(spec Spec) map[string]string {
	l := map[string]string{
		constants.AppLabel:       spec.Name,
		constants.ManagedByLabel: constants.ManagedByValue,
	}
	if spec.Role != "" {
		l[constants.RoleLabel] = string(spec.Role)
	}
	if spec.RunID != "" {
		l[constants.RunLabel] = spec.RunID
	}
	return l
}

// Selector returns the label selector correlating observed pods back to the workload.
func Selector(spec Spec) labels.Selector {
	return labels.SelectorFromSet(Labels(spec))
}

// BuildDeployment renders spec as a Deployment with spec.Replicas replicas.
func BuildDeployment(spec Spec) *appsv1.Deployment {
	podLabels := Labels(spec)

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "apps/v1",
			Kind:       "Deployment",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: spec.Namespace,
			Labels:    copyLabels(podLabels),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(spec.Replicas),
			Selector: &metav1.LabelSelector{MatchLabels: copyLabels(podLabels)},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: copyLabels(podLabels)},
				Spec:       podSpec(spec),
			},
		},
	}
}

// BuildPod renders spec as a single bare Pod.
func BuildPod(spec Spec) *corev1.Pod {
	return &corev1.Pod{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Pod",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      spec.Name,
			Namespace: spec.Namespace,
			Labels:    Labels(spec),
		},
		Spec: podSpec(spec),
	}
}

func podSpec(spec Spec) corev1.PodSpec {
	return corev1.PodSpec{
		Containers: []corev1.Container{{
			Name:            containerName(spec),
			Image:           spec.Image,
			ImagePullPolicy: corev1.PullIfNotPresent,
			Resources:       resources(spec),
		}},
		PriorityClassName: spec.PriorityClassName,
	}
}

// resources sets request == limit for both CPU and memory.
func resources(spec Spec) corev1.ResourceRequirements {
	list := func() corev1.ResourceList {
		return corev1.ResourceList{
			corev1.ResourceCPU:    spec.CPU.DeepCopy(),
			corev1.ResourceMemory: spec.Memory.DeepCopy(),
		}
	}
	return corev1.ResourceRequirements{
		Requests: list(),
		Limits:   list(),
	}
}

func containerName(spec Spec) string {
	switch spec.Role {
	case RoleFiller:
		return constants.FillerContainerName
	case RoleEvictor:
		return constants.EvictorContainerName
	default:
		return constants.ProbeContainerName
	}
}

func copyLabels(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
