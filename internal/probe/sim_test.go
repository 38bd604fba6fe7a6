package probe

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/utils/ptr"

	"github.com/llm-d/llm-d-capacity-probe/internal/gateway"
)

// simGateway simulates a cluster that can run at most capacity replicas of the
// probe workload. Replicas beyond capacity are unschedulable.
type simGateway struct {
	capacity int32
	replicas int32
	created  *appsv1.Deployment

	// creatingPolls makes the newest replica report ContainerCreating for this
	// many listings after every create or scale.
	creatingPolls   int
	creatingLeft    int
	ambiguousAt     int32
	unknownAt       int32
	scaleErr        error
	createErr       error
	deleteErr       error
	listErr         error
	scaleCalls      []int32
	deleteCalls     int
	listCalls       int
	createUnitCalls int
}

var _ gateway.Gateway = &simGateway{}

func (g *simGateway) CreateWorkload(_ context.Context, deploy *appsv1.Deployment) error {
	if g.createErr != nil {
		return &gateway.CreateError{Kind: "Deployment", Namespace: deploy.Namespace, Name: deploy.Name, Err: g.createErr}
	}
	g.created = deploy
	g.replicas = ptr.Deref(deploy.Spec.Replicas, 0)
	g.creatingLeft = g.creatingPolls
	return nil
}

func (g *simGateway) ScaleWorkload(_ context.Context, namespace, name string, replicas int32) error {
	if g.scaleErr != nil {
		return &gateway.ScaleError{Namespace: namespace, Name: name, Replicas: replicas, Err: g.scaleErr}
	}
	g.scaleCalls = append(g.scaleCalls, replicas)
	g.replicas = replicas
	g.creatingLeft = g.creatingPolls
	return nil
}

func (g *simGateway) DeleteWorkload(_ context.Context, _, _ string) error {
	g.deleteCalls++
	return g.deleteErr
}

func (g *simGateway) ListUnits(_ context.Context, _ string, _ labels.Selector) ([]gateway.ReplicaStatus, error) {
	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}

	units := make([]gateway.ReplicaStatus, 0, g.replicas)
	for i := int32(0); i < g.replicas; i++ {
		name := fmt.Sprintf("probe-%03d", i)
		switch {
		case g.ambiguousAt > 0 && g.replicas >= g.ambiguousAt && i == g.replicas-1:
			units = append(units, gateway.ReplicaStatus{Name: name, Phase: gateway.PhasePending})
		case g.unknownAt > 0 && g.replicas >= g.unknownAt && i == g.replicas-1:
			units = append(units, gateway.ReplicaStatus{Name: name, Phase: gateway.PhasePending,
				WaitingReason: ptr.To("ErrImagePull")})
		case i >= g.capacity:
			units = append(units, gateway.ReplicaStatus{Name: name, Phase: gateway.PhasePending,
				SchedulingMessage: ptr.To("0/3 nodes are available: 3 Insufficient cpu.")})
		case i == g.replicas-1 && g.creatingLeft > 0:
			units = append(units, gateway.ReplicaStatus{Name: name, Phase: gateway.PhasePending,
				WaitingReason: ptr.To("ContainerCreating")})
		default:
			units = append(units, gateway.ReplicaStatus{Name: name, Phase: gateway.PhaseRunning})
		}
	}
	if g.creatingLeft > 0 {
		g.creatingLeft--
	}
	return units, nil
}

func (g *simGateway) CreateUnit(_ context.Context, _ *corev1.Pod) error {
	g.createUnitCalls++
	return nil
}
