// Package observer classifies the placement state of a probe workload's replicas.
//
// One classification is computed from exactly one pod listing. When the
// listing shows containers that are still being created, the observer waits
// for the settle interval and lists again, up to a bounded number of times.
package observer

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/labels"

	"github.com/llm-d/llm-d-capacity-probe/internal/constants"
	"github.com/llm-d/llm-d-capacity-probe/internal/gateway"
)

// Classification is the aggregate placement state of one poll.
type Classification string

const (
	// AllRunning means every expected replica is running.
	AllRunning Classification = "AllRunning"
	// ResourceExhausted means a replica is unschedulable for lack of resources.
	ResourceExhausted Classification = "ResourceExhausted"
	// InferredExhausted means a replica is stuck with no condition and no
	// container status. It is treated as exhaustion but was not confirmed.
	InferredExhausted Classification = "InferredExhausted"
	// TransientlyPending means replicas were still being created when the
	// re-poll budget ran out.
	TransientlyPending Classification = "TransientlyPending"
	// Unknown means a replica is stuck for a reason that says nothing about capacity.
	Unknown Classification = "Unknown"
)

// Exhausted reports whether c ends a probe as a capacity limit.
func (c Classification) Exhausted() bool {
	return c == ResourceExhausted || c == InferredExhausted
}

// Result is the outcome of Classify.
type Result struct {
	Classification Classification
	// Unit is the replica that decided the classification, empty for AllRunning.
	Unit string
	// Detail is a human-readable explanation.
	Detail string
	// Polls is the number of listings performed.
	Polls int
}

// UnitLister lists the placement status of the replicas matching a selector.
type UnitLister interface {
	ListUnits(ctx context.Context, namespace string, selector labels.Selector) ([]gateway.ReplicaStatus, error)
}

// Config tunes classification.
type Config struct {
	// Settle is the wait before re-polling a transient state.
	Settle time.Duration
	// MaxRepolls bounds the number of re-polls after the first listing.
	MaxRepolls int
	// InsufficientMarkers are substrings of a scheduling message that signal
	// resource exhaustion.
	InsufficientMarkers []string
	// TransientReasons are container waiting reasons that mean creation is in progress.
	TransientReasons []string
}

// DefaultConfig returns the classification defaults for the given settle interval.
func DefaultConfig(settle time.Duration) Config {
	return Config{
		Settle:              settle,
		MaxRepolls:          constants.DefaultMaxRepolls,
		InsufficientMarkers: []string{"Insufficient "},
		TransientReasons:    []string{"ContainerCreating", "PodInitializing"},
	}
}
