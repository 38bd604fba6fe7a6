// Package metrics records probe progress as Prometheus metrics.
//
// capacity-probe is a short-lived command, so metrics are not scraped; they
// are written once at the end of a run in the text exposition format, ready
// for the node-exporter textfile collector.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Recorder holds the metrics of one run. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	targetReplicas    prometheus.Gauge
	estimatedReplicas prometheus.Gauge
	scaleOperations   prometheus.Counter
	polls             prometheus.Counter
	classifications   *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry, labelled with the
// namespace and workload name of the run.
func NewRecorder(namespace, workload string) *Recorder {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"namespace": namespace, "workload": workload}

	r := &Recorder{
		registry: registry,
		targetReplicas: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "capacity_probe_target_replicas",
			Help:        "Replica count the probe workload was last scaled to.",
			ConstLabels: constLabels,
		}),
		estimatedReplicas: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "capacity_probe_estimated_replicas",
			Help:        "Reported capacity estimate in replicas.",
			ConstLabels: constLabels,
		}),
		scaleOperations: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "capacity_probe_scale_operations_total",
			Help:        "Number of scale operations issued.",
			ConstLabels: constLabels,
		}),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "capacity_probe_polls_total",
			Help:        "Number of pod listings performed while classifying placement.",
			ConstLabels: constLabels,
		}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "capacity_probe_classifications_total",
			Help:        "Placement classifications by result.",
			ConstLabels: constLabels,
		}, []string{"classification"}),
	}

	registry.MustRegister(
		r.targetReplicas,
		r.estimatedReplicas,
		r.scaleOperations,
		r.polls,
		r.classifications,
	)
	return r
}

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveTarget records the current desired replica count.
func (r *Recorder) ObserveTarget(replicas int32) {
	if r == nil {
		return
	}
	r.targetReplicas.Set(float64(replicas))
}

// ObserveScale records one scale operation to replicas.
func (r *Recorder) ObserveScale(replicas int32) {
	if r == nil {
		return
	}
	r.scaleOperations.Inc()
	r.targetReplicas.Set(float64(replicas))
}

// ObserveClassification records one classification and the listings it took.
func (r *Recorder) ObserveClassification(classification string, polls int) {
	if r == nil {
		return
	}
	r.classifications.WithLabelValues(classification).Inc()
	r.polls.Add(float64(polls))
}

// ObserveEstimate records the final estimate.
func (r *Recorder) ObserveEstimate(replicas int32) {
	if r == nil {
		return
	}
	r.estimatedReplicas.Set(float64(replicas))
}

// WriteTo writes every metric in the text exposition format.
func (r *Recorder) WriteTo(w io.Writer) error {
	if r == nil {
		return nil
	}
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encoding metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile writes the metrics to path atomically. A path of "-" writes to
// stream instead, usually the command's stderr.
func (r *Recorder) WriteFile(path string, stream io.Writer) error {
	if r == nil || path == "" {
		return nil
	}
	if path == "-" {
		return r.WriteTo(stream)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
