// Package eviction stages a preemption scenario: it fills a namespace with a
// Deployment, waits, then submits one pod that competes for the same resources.
//
// The driver only creates objects. Whether the evictor preempts anything is
// left for an operator to verify, and so is deleting the objects afterwards.
package eviction

import (
	"context"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/utils/clock"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/llm-d/llm-d-capacity-probe/internal/workload"
)

// Creator is the part of the gateway the driver needs.
type Creator interface {
	CreateWorkload(ctx context.Context, deploy *appsv1.Deployment) error
	CreateUnit(ctx context.Context, pod *corev1.Pod) error
}

// Request configures one scenario.
type Request struct {
	// Filler is the Deployment stuffing the namespace; Filler.Replicas is fixed.
	Filler workload.Spec
	// Evictor is the single pod created after Settle.
	Evictor workload.Spec
	// Settle is the fixed delay between the two creates.
	Settle time.Duration
}

// Scenario describes the objects a run created.
type Scenario struct {
	Namespace      string
	FillerName     string
	FillerReplicas int32
	EvictorName    string
}

// CleanupCommands returns the kubectl commands that remove the objects the
// scenario created, filler first.
func (s Scenario) CleanupCommands() []string {
	var commands []string
	if s.FillerName != "" {
		commands = append(commands, fmt.Sprintf("kubectl -n %s delete deployment %s", s.Namespace, s.FillerName))
	}
	if s.EvictorName != "" {
		commands = append(commands, fmt.Sprintf("kubectl -n %s delete pod %s", s.Namespace, s.EvictorName))
	}
	return commands
}

// Driver runs eviction scenarios.
type Driver struct {
	creator Creator
	clock   clock.Clock
}

// NewDriver returns a Driver creating objects through creator.
func NewDriver(creator Creator, clk clock.Clock) *Driver {
	return &Driver{creator: creator, clock: clk}
}

// Run creates the filler, sleeps req.Settle and creates the evictor. The
// returned Scenario is partially filled when the evictor create fails.
func (d *Driver) Run(ctx context.Context, req Request) (Scenario, error) {
	if req.Filler.Replicas <= 0 {
		return Scenario{}, fmt.Errorf("filler replicas must be > 0, got %d", req.Filler.Replicas)
	}
	if req.Filler.Namespace != req.Evictor.Namespace {
		return Scenario{}, fmt.Errorf("filler namespace %q and evictor namespace %q differ",
			req.Filler.Namespace, req.Evictor.Namespace)
	}
	logger := ctrl.LoggerFrom(ctx).WithValues("namespace", req.Filler.Namespace)

	if err := d.creator.CreateWorkload(ctx, workload.BuildDeployment(req.Filler)); err != nil {
		return Scenario{}, err
	}
	scenario := Scenario{
		Namespace:      req.Filler.Namespace,
		FillerName:     req.Filler.Name,
		FillerReplicas: req.Filler.Replicas,
	}
	logger.Info("Filler deployment created",
		"deployment", req.Filler.Name,
		"replicas", req.Filler.Replicas,
		"priorityClass", req.Filler.PriorityClassName)

	d.clock.Sleep(req.Settle)

	if err := d.creator.CreateUnit(ctx, workload.BuildPod(req.Evictor)); err != nil {
		return scenario, err
	}
	scenario.EvictorName = req.Evictor.Name
	logger.Info("Evictor pod created",
		"pod", req.Evictor.Name,
		"priorityClass", req.Evictor.PriorityClassName)

	return scenario, nil
}
