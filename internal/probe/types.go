// Package probe estimates spare schedulable capacity with a linear scale-up search.
//
// The probe creates a Deployment, then repeatedly waits for the settle
// interval, classifies replica placement and, while every replica runs, scales
// the Deployment up by a fixed increment. The first level that cannot be fully
// placed ends the search; the estimate is the level before it.
package probe

import (
	"errors"
	"time"

	"github.com/llm-d/llm-d-capacity-probe/internal/observer"
	"github.com/llm-d/llm-d-capacity-probe/internal/workload"
)

var (
	// ErrInvalidRequest is returned for a request that cannot start a probe.
	ErrInvalidRequest = errors.New("invalid probe request")
	// ErrIndeterminatePlacement is returned when a replica is stuck for a
	// reason that says nothing about capacity.
	ErrIndeterminatePlacement = errors.New("placement failure is not a capacity signal")
	// ErrCeilingReached is returned when MaxReplicas was fully placed without
	// exhausting the cluster.
	ErrCeilingReached = errors.New("replica ceiling reached before resources were exhausted")
)

// FloorPolicy decides what to report when the estimate drops below zero,
// which happens when the very first level is already exhausted.
type FloorPolicy string

const (
	// FloorClamp reports zero instead of a negative estimate.
	FloorClamp FloorPolicy = "clamp"
	// FloorRaw reports start - increment unchanged.
	FloorRaw FloorPolicy = "raw"
)

// Confidence tells whether an outcome rests on an observed exhaustion signal.
type Confidence string

const (
	// Confirmed outcomes ended on an insufficient-resource scheduling condition.
	Confirmed Confidence = "Confirmed"
	// Inferred outcomes ended on an ambiguous or never-settling replica.
	Inferred Confidence = "Inferred"
)

// Request configures one probe run.
type Request struct {
	// Workload is the probe Deployment; Workload.Replicas is the start level.
	Workload workload.Spec
	// Increment is added to the replica count at each step.
	Increment int32
	// Settle is the wait before every classification.
	Settle time.Duration
	// MaxReplicas stops the search at this level; zero means the int32 limit.
	MaxReplicas int32
	// Floor defaults to FloorClamp.
	Floor FloorPolicy
	// KeepWorkload skips deleting the Deployment at the end of the run.
	KeepWorkload bool
}

// Outcome is the result of a probe run.
type Outcome struct {
	// Replicas is the reported estimate after applying the floor policy.
	Replicas int32 `json:"replicas" yaml:"replicas"`
	// Raw is the last attempted level minus the increment, never clamped.
	Raw int32 `json:"raw" yaml:"raw"`
	// LastAttempted is the level that could not be fully placed, or the
	// highest placed level when the search stopped at a ceiling.
	LastAttempted int32 `json:"lastAttempted" yaml:"lastAttempted"`
	// Iterations is the number of classifications performed.
	Iterations int                     `json:"iterations" yaml:"iterations"`
	Confidence Confidence              `json:"confidence" yaml:"confidence"`
	Reason     observer.Classification `json:"reason" yaml:"reason"`
	// Detail explains the final classification.
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Clamped bool   `json:"clamped" yaml:"clamped"`

	Namespace string `json:"namespace" yaml:"namespace"`
	Workload  string `json:"workload" yaml:"workload"`
}
