package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/llm-d/llm-d-capacity-probe/internal/constants"
)

// EvictOptions configures the evict command.
type EvictOptions struct {
	Workload

	PriorityClass string
	// EvictorName is generated per run when empty.
	EvictorName string
}

// AddEvictFlags registers the evict command flags.
func AddEvictFlags(flags *pflag.FlagSet) {
	AddWorkloadFlags(flags)
	flags.StringP(KeyPriority, "p", constants.DefaultPriorityClass, "priorityClass name of the filler and evictor pods")
	flags.String(KeyEvictorName, "", "name of the evictor pod (generated per run when empty)")
}

// LoadEvict reads EvictOptions from v.
func LoadEvict(v *viper.Viper) EvictOptions {
	return EvictOptions{
		Workload:      loadWorkload(v),
		PriorityClass: v.GetString(KeyPriority),
		EvictorName:   v.GetString(KeyEvictorName),
	}
}

// Validate reports every invalid option at once.
func (o EvictOptions) Validate() error {
	errs := o.Workload.validate()
	errs = append(errs, validatePriorityClass(o.PriorityClass)...)
	errs = append(errs, validateObjectName(KeyEvictorName, o.EvictorName)...)
	return combine(errs)
}
