package observer

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/utils/clock"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/llm-d/llm-d-capacity-probe/internal/gateway"
	"github.com/llm-d/llm-d-capacity-probe/internal/logging"
)

// Observer classifies replica placement through a UnitLister.
type Observer struct {
	lister UnitLister
	clock  clock.Clock
	config Config
}

// New returns an Observer. A zero-value Config falls back to DefaultConfig
// markers and reasons.
func New(lister UnitLister, clk clock.Clock, config Config) *Observer {
	defaults := DefaultConfig(config.Settle)
	if len(config.InsufficientMarkers) == 0 {
		config.InsufficientMarkers = defaults.InsufficientMarkers
	}
	if len(config.TransientReasons) == 0 {
		config.TransientReasons = defaults.TransientReasons
	}
	if config.MaxRepolls < 0 {
		config.MaxRepolls = 0
	}
	return &Observer{lister: lister, clock: clk, config: config}
}

// Classify lists the replicas matching selector and classifies their placement.
// expected is the replica count the workload was last scaled to; fewer
// observed replicas means the controller has not caught up yet.
//
// Transient states are re-polled after config.Settle, at most
// config.MaxRepolls times. A listing failure is returned as an error.
func (o *Observer) Classify(ctx context.Context, namespace string, selector labels.Selector, expected int32) (Result, error) {
	logger := ctrl.LoggerFrom(ctx).WithValues("namespace", namespace, "selector", selector.String())

	for poll := 1; ; poll++ {
		units, err := o.lister.ListUnits(ctx, namespace, selector)
		if err != nil {
			return Result{Polls: poll}, err
		}

		result, transient := o.assess(units, expected)
		result.Polls = poll

		if !transient {
			if result.Classification == InferredExhausted {
				logger.Info("Replica is not running and reports neither a scheduling condition nor a container status; "+
					"treating it as resource exhaustion, confirm the root cause manually",
					"unit", result.Unit)
			}
			logger.V(logging.DEBUG).Info("Classified placement",
				"classification", result.Classification,
				"unit", result.Unit,
				"detail", result.Detail,
				"polls", poll)
			return result, nil
		}

		if poll > o.config.MaxRepolls {
			logger.Info("Replicas still pending after the re-poll budget",
				"unit", result.Unit,
				"detail", result.Detail,
				"polls", poll)
			result.Classification = TransientlyPending
			return result, nil
		}

		logger.V(logging.DEBUG).Info("Placement still converging, re-polling",
			"unit", result.Unit,
			"detail", result.Detail,
			"wait", o.config.Settle)
		o.clock.Sleep(o.config.Settle)
	}
}

// assess classifies a single listing. The boolean is true when the state is
// transient and worth re-polling.
func (o *Observer) assess(units []gateway.ReplicaStatus, expected int32) (Result, bool) {
	if int32(len(units)) < expected {
		return Result{
			Classification: TransientlyPending,
			Detail:         fmt.Sprintf("%d of %d replicas observed", len(units), expected),
		}, true
	}

	for _, unit := range units {
		if unit.Phase == gateway.PhaseRunning {
			continue
		}
		// first non-running replica decides
		return o.assessUnit(unit)
	}

	return Result{Classification: AllRunning}, false
}

func (o *Observer) assessUnit(unit gateway.ReplicaStatus) (Result, bool) {
	result := Result{Unit: unit.Name}

	switch {
	case unit.SchedulingMessage != nil && o.isInsufficient(*unit.SchedulingMessage):
		result.Classification = ResourceExhausted
		result.Detail = *unit.SchedulingMessage
		return result, false

	case unit.WaitingReason != nil && slices.Contains(o.config.TransientReasons, *unit.WaitingReason):
		result.Classification = TransientlyPending
		result.Detail = fmt.Sprintf("container waiting: %s", *unit.WaitingReason)
		return result, true

	case unit.SchedulingMessage == nil && unit.WaitingReason == nil:
		result.Classification = InferredExhausted
		result.Detail = fmt.Sprintf("phase %s with no scheduling condition and no container status", unit.Phase)
		return result, false
	}

	result.Classification = Unknown
	switch {
	case unit.SchedulingMessage != nil:
		result.Detail = fmt.Sprintf("unschedulable: %s", *unit.SchedulingMessage)
	default:
		result.Detail = fmt.Sprintf("phase %s, container waiting: %s", unit.Phase, *unit.WaitingReason)
	}
	return result, false
}

func (o *Observer) isInsufficient(message string) bool {
	for _, marker := range o.config.InsufficientMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}
