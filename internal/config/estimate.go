package config

import (
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/llm-d/llm-d-capacity-probe/internal/constants"
)

// Output formats of the estimate command.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Outcome policies, mirroring probe.FloorPolicy.
const (
	OutcomePolicyClamp = "clamp"
	OutcomePolicyRaw   = "raw"
)

// EstimateOptions configures the estimate command.
type EstimateOptions struct {
	Workload

	Increment     int
	NoDeletion    bool
	PriorityClass string
	MaxRepolls    int
	MaxReplicas   int
	OutcomePolicy string
	Output        string
	MetricsFile   string
}

// AddEstimateFlags registers the estimate command flags.
func AddEstimateFlags(flags *pflag.FlagSet) {
	AddWorkloadFlags(flags)
	flags.IntP(KeyIncrement, "i", 1, "increment replica number by this value at each step")
	flags.BoolP(KeyNoDeletion, "k", false, "keep the deployment when the command exits")
	flags.String(KeyPriorityClass, "", "priorityClass name of the probe pods")
	flags.Int(KeyMaxRepolls, constants.DefaultMaxRepolls, "re-polls allowed while containers are still being created")
	flags.Int(KeyMaxReplicas, 0, "stop probing at this replica count (0 means no limit)")
	flags.String(KeyOutcomePolicy, OutcomePolicyClamp, "estimate below zero: clamp reports 0, raw reports the negative value")
	flags.StringP(KeyOutput, "o", OutputText, "output format: text, json or yaml")
	flags.String(KeyMetricsFile, "", "write run metrics in Prometheus text format to this file (- for stderr)")
}

// LoadEstimate reads EstimateOptions from v.
func LoadEstimate(v *viper.Viper) EstimateOptions {
	return EstimateOptions{
		Workload:      loadWorkload(v),
		Increment:     v.GetInt(KeyIncrement),
		NoDeletion:    v.GetBool(KeyNoDeletion),
		PriorityClass: v.GetString(KeyPriorityClass),
		MaxRepolls:    v.GetInt(KeyMaxRepolls),
		MaxReplicas:   v.GetInt(KeyMaxReplicas),
		OutcomePolicy: v.GetString(KeyOutcomePolicy),
		Output:        v.GetString(KeyOutput),
		MetricsFile:   v.GetString(KeyMetricsFile),
	}
}

// Validate reports every invalid option at once.
func (o EstimateOptions) Validate() error {
	errs := o.Workload.validate()
	errs = append(errs, validateCount(KeyIncrement, o.Increment, 1)...)
	if o.MaxRepolls < 0 {
		errs = append(errs, fmt.Errorf("max-repolls must be >= 0, got %d", o.MaxRepolls))
	}
	if countErrs := validateCount(KeyMaxReplicas, o.MaxReplicas, 0); len(countErrs) > 0 {
		errs = append(errs, countErrs...)
	} else if o.MaxReplicas > 0 && o.MaxReplicas < o.Replicas {
		errs = append(errs, fmt.Errorf("max-replicas %d is below replicas %d", o.MaxReplicas, o.Replicas))
	}
	if !slices.Contains([]string{OutcomePolicyClamp, OutcomePolicyRaw}, o.OutcomePolicy) {
		errs = append(errs, fmt.Errorf("outcome-policy must be %q or %q, got %q", OutcomePolicyClamp, OutcomePolicyRaw, o.OutcomePolicy))
	}
	if !slices.Contains([]string{OutputText, OutputJSON, OutputYAML}, o.Output) {
		errs = append(errs, fmt.Errorf("output must be one of text, json, yaml, got %q", o.Output))
	}
	errs = append(errs, validatePriorityClass(o.PriorityClass)...)
	return combine(errs)
}
