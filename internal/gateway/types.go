// Package gateway is the narrow surface capacity-probe uses to talk to the cluster.
//
// Every call is a single API request: no retries, no caching. Failures are
// returned as typed errors (CreateError, ScaleError, DeleteError, ListError)
// so callers can tell which operation failed with errors.As.
package gateway

import (
	"context"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/labels"
)

// Phase is the coarse placement phase of one replica.
type Phase string

const (
	PhaseRunning Phase = "Running"
	PhasePending Phase = "Pending"
	// PhaseOther covers Succeeded, Failed and Unknown pods.
	PhaseOther Phase = "Other"
)

// ReplicaStatus is a point-in-time view of one replica's placement.
type ReplicaStatus struct {
	Name  string
	Phase Phase
	// SchedulingMessage is the message of a PodScheduled=False condition, if any.
	SchedulingMessage *string
	// WaitingReason is the reason of the first waiting container, if any.
	WaitingReason *string
}

// Gateway creates, scales, deletes and observes capacity-probe workloads.
type Gateway interface {
	CreateWorkload(ctx context.Context, deploy *appsv1.Deployment) error
	ScaleWorkload(ctx context.Context, namespace, name string, replicas int32) error
	DeleteWorkload(ctx context.Context, namespace, name string) error
	ListUnits(ctx context.Context, namespace string, selector labels.Selector) ([]ReplicaStatus, error)
	CreateUnit(ctx context.Context, pod *corev1.Pod) error
}
