package config

import (
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/llm-d/llm-d-capacity-probe/internal/constants"
	"github.com/llm-d/llm-d-capacity-probe/internal/eviction"
	"github.com/llm-d/llm-d-capacity-probe/internal/probe"
	"github.com/llm-d/llm-d-capacity-probe/internal/workload"
)

// spec renders the shared options into a workload.Spec. The options must
// have been validated.
func (w Workload) spec(role workload.Role, runID, name, prefix string) workload.Spec {
	if name == "" {
		name = workload.GenerateName(prefix, runID)
	}
	return workload.Spec{
		Name:      name,
		Namespace: w.Namespace,
		RunID:     runID,
		Role:      role,
		Replicas:  int32(w.Replicas),
		CPU:       resource.MustParse(w.CPU),
		Memory:    resource.MustParse(w.Memory),
		Image:     w.Image,
	}
}

// ProbeRequest returns the probe.Request described by o.
func (o EstimateOptions) ProbeRequest(runID string) (probe.Request, error) {
	if err := o.Validate(); err != nil {
		return probe.Request{}, err
	}
	spec := o.spec(workload.RoleProbe, runID, o.Name, constants.ProbeNamePrefix)
	spec.PriorityClassName = o.PriorityClass
	return probe.Request{
		Workload:     spec,
		Increment:    int32(o.Increment),
		Settle:       o.Settle(),
		MaxReplicas:  int32(o.MaxReplicas),
		Floor:        probe.FloorPolicy(o.OutcomePolicy),
		KeepWorkload: o.NoDeletion,
	}, nil
}

// EvictionRequest returns the eviction.Request described by o. The filler and
// the evictor share the namespace, resources, image and priority class.
func (o EvictOptions) EvictionRequest(runID string) (eviction.Request, error) {
	if err := o.Validate(); err != nil {
		return eviction.Request{}, err
	}
	filler := o.spec(workload.RoleFiller, runID, o.Name, constants.FillerNamePrefix)
	filler.PriorityClassName = o.PriorityClass

	evictor := o.spec(workload.RoleEvictor, runID, o.EvictorName, constants.EvictorNamePrefix)
	evictor.PriorityClassName = o.PriorityClass
	evictor.Replicas = 1

	return eviction.Request{
		Filler:  filler,
		Evictor: evictor,
		Settle:  o.Settle(),
	}, nil
}
