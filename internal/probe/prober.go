package probe

import (
	"context"
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/llm-d/llm-d-capacity-probe/internal/gateway"
	"github.com/llm-d/llm-d-capacity-probe/internal/logging"
	"github.com/llm-d/llm-d-capacity-probe/internal/metrics"
	"github.com/llm-d/llm-d-capacity-probe/internal/observer"
	"github.com/llm-d/llm-d-capacity-probe/internal/workload"
)

// Prober runs capacity probes. All mutations of a run's Deployment go through
// a single goroutine.
type Prober struct {
	gateway        gateway.Gateway
	clock          clock.Clock
	observerConfig observer.Config
	recorder       *metrics.Recorder
}

// NewProber returns a Prober. observerConfig.Settle is overridden per run by
// Request.Settle. recorder may be nil.
func NewProber(gw gateway.Gateway, clk clock.Clock, observerConfig observer.Config, recorder *metrics.Recorder) *Prober {
	return &Prober{
		gateway:        gw,
		clock:          clk,
		observerConfig: observerConfig,
		recorder:       recorder,
	}
}

// Run creates the probe workload, searches for the breaking point and, unless
// req.KeepWorkload is set, deletes the workload again. Delete failures are
// logged and never change the result.
func (p *Prober) Run(ctx context.Context, req Request) (Outcome, error) {
	if err := req.validate(); err != nil {
		return Outcome{}, err
	}
	spec := req.Workload
	logger := ctrl.LoggerFrom(ctx).WithValues("namespace", spec.Namespace, "workload", spec.Name)
	ctx = ctrl.LoggerInto(ctx, logger)

	if err := p.gateway.CreateWorkload(ctx, workload.BuildDeployment(spec)); err != nil {
		return Outcome{}, err
	}
	logger.Info("Probe workload created", "replicas", spec.Replicas, "cpu", spec.CPU.String())
	p.recorder.ObserveTarget(spec.Replicas)

	if !req.KeepWorkload {
		defer p.cleanup(ctx, logger, spec)
	}

	outcome, err := p.search(ctx, logger, req)
	if err != nil {
		return outcome, err
	}
	p.recorder.ObserveEstimate(outcome.Replicas)
	return outcome, nil
}

// search is the Scaling state: wait, classify, scale up on AllRunning, stop otherwise.
func (p *Prober) search(ctx context.Context, logger logr.Logger, req Request) (Outcome, error) {
	spec := req.Workload
	obsConfig := p.observerConfig
	obsConfig.Settle = req.Settle
	obs := observer.New(p.gateway, p.clock, obsConfig)
	selector := workload.Selector(spec)

	current := spec.Replicas
	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		p.clock.Sleep(req.Settle)

		result, err := obs.Classify(ctx, spec.Namespace, selector, current)
		if err != nil {
			return Outcome{}, fmt.Errorf("classifying placement at %d replicas: %w", current, err)
		}
		p.recorder.ObserveClassification(string(result.Classification), result.Polls)

		switch result.Classification {
		case observer.AllRunning:
			ceiling := req.MaxReplicas
			if ceiling == 0 {
				ceiling = math.MaxInt32
			}
			if current > ceiling-req.Increment {
				outcome := req.conclude(current, iteration, result, Inferred)
				outcome.Replicas, outcome.Raw, outcome.Clamped = current, current, false
				return outcome, fmt.Errorf("%w: %d replicas placed", ErrCeilingReached, current)
			}

			next := current + req.Increment
			if err := p.gateway.ScaleWorkload(ctx, spec.Namespace, spec.Name, next); err != nil {
				return Outcome{}, err
			}
			current = next
			p.recorder.ObserveScale(current)
			logger.Info("Scaled probe workload", "replicas", current)

		case observer.ResourceExhausted:
			logger.Info("Resources exhausted",
				"replicas", current,
				"unit", result.Unit,
				"detail", result.Detail)
			return req.conclude(current, iteration, result, Confirmed), nil

		case observer.InferredExhausted, observer.TransientlyPending:
			logger.Info("Ending probe on an unconfirmed signal; verify the pending replica manually",
				"replicas", current,
				"classification", result.Classification,
				"unit", result.Unit,
				"detail", result.Detail)
			return req.conclude(current, iteration, result, Inferred), nil

		default:
			return Outcome{}, fmt.Errorf("%w: replica %s at %d replicas: %s",
				ErrIndeterminatePlacement, result.Unit, current, result.Detail)
		}
	}
}

func (p *Prober) cleanup(ctx context.Context, logger logr.Logger, spec workload.Spec) {
	// the run may have been cancelled; teardown still has to reach the API
	ctx = context.WithoutCancel(ctx)
	if err := p.gateway.DeleteWorkload(ctx, spec.Namespace, spec.Name); err != nil {
		logger.Error(err, "Failed to delete probe workload, delete it manually")
		return
	}
	logger.V(logging.DEBUG).Info("Probe workload deleted")
}

func (r Request) validate() error {
	switch {
	case r.Workload.Name == "" || r.Workload.Namespace == "":
		return fmt.Errorf("%w: workload name and namespace are required", ErrInvalidRequest)
	case r.Workload.Replicas <= 0:
		return fmt.Errorf("%w: start replicas must be > 0, got %d", ErrInvalidRequest, r.Workload.Replicas)
	case r.Increment <= 0:
		return fmt.Errorf("%w: increment must be > 0, got %d", ErrInvalidRequest, r.Increment)
	case r.Settle < 0:
		return fmt.Errorf("%w: settle must be >= 0, got %s", ErrInvalidRequest, r.Settle)
	case r.MaxReplicas != 0 && r.MaxReplicas < r.Workload.Replicas:
		return fmt.Errorf("%w: max replicas %d is below start replicas %d", ErrInvalidRequest, r.MaxReplicas, r.Workload.Replicas)
	case r.Floor != "" && r.Floor != FloorClamp && r.Floor != FloorRaw:
		return fmt.Errorf("%w: unknown floor policy %q", ErrInvalidRequest, r.Floor)
	}
	return nil
}

// conclude builds the outcome for a search that stopped at level attempted.
func (r Request) conclude(attempted int32, iterations int, result observer.Result, confidence Confidence) Outcome {
	raw := attempted - r.Increment
	outcome := Outcome{
		Replicas:      raw,
		Raw:           raw,
		LastAttempted: attempted,
		Iterations:    iterations,
		Confidence:    confidence,
		Reason:        result.Classification,
		Detail:        result.Detail,
		Namespace:     r.Workload.Namespace,
		Workload:      r.Workload.Name,
	}
	if raw < 0 && r.Floor != FloorRaw {
		outcome.Replicas = 0
		outcome.Clamped = true
	}
	return outcome
}
