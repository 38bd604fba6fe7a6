// Package config loads and validates the options of the capacity-probe commands.
//
// Values are resolved by viper with the precedence flags > CAPACITY_PROBE_*
// environment variables > config file > flag defaults. Keys are the flag
// names, so a config file uses the same spelling as the command line:
//
//	namespace: bad-tenant
//	cpu: 500m
//	increment: 2
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/llm-d/llm-d-capacity-probe/internal/constants"
)

// ErrInvalidOptions wraps every validation failure.
var ErrInvalidOptions = errors.New("invalid options")

// Flag and config keys.
const (
	KeyNamespace     = "namespace"
	KeyReplicas      = "replicas"
	KeyIncrement     = "increment"
	KeyCPU           = "cpu"
	KeyMemory        = "memory"
	KeyImage         = "image"
	KeyTimeout       = "timeout"
	KeyNoDeletion    = "no-deletion"
	KeyPriorityClass = "priority-class"
	KeyPriority      = "priority"
	KeyName          = "name"
	KeyEvictorName   = "evictor-name"
	KeyMaxRepolls    = "max-repolls"
	KeyMaxReplicas   = "max-replicas"
	KeyOutcomePolicy = "outcome-policy"
	KeyOutput        = "output"
	KeyMetricsFile   = "metrics-file"
)

// NewViper returns a viper instance reading CAPACITY_PROBE_* variables and,
// when configFile is set, that file.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Bind makes flags the highest-precedence source of v.
func Bind(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// Workload holds the options shared by every command that creates pods.
type Workload struct {
	Namespace string
	Replicas  int
	CPU       string
	Memory    string
	Image     string
	// Name is generated per run when empty.
	Name string
	// TimeoutSeconds is the settle interval.
	TimeoutSeconds int
}

// Settle returns the settle interval as a duration.
func (w Workload) Settle() time.Duration {
	return time.Duration(w.TimeoutSeconds) * time.Second
}

func loadWorkload(v *viper.Viper) Workload {
	return Workload{
		Namespace:      v.GetString(KeyNamespace),
		Replicas:       v.GetInt(KeyReplicas),
		CPU:            v.GetString(KeyCPU),
		Memory:         v.GetString(KeyMemory),
		Image:          v.GetString(KeyImage),
		Name:           v.GetString(KeyName),
		TimeoutSeconds: v.GetInt(KeyTimeout),
	}
}

// AddWorkloadFlags registers the shared workload flags.
func AddWorkloadFlags(flags *pflag.FlagSet) {
	flags.StringP(KeyNamespace, "n", constants.DefaultNamespace, "namespace the workload is created in")
	flags.IntP(KeyReplicas, "r", 1, "initial number of replica pods (must be > 0)")
	flags.String(KeyCPU, constants.DefaultCPU, "cpu request and limit of each pod")
	flags.String(KeyMemory, constants.DefaultMemory, "memory request and limit of each pod")
	flags.String(KeyImage, constants.DefaultImage, "container image of each pod")
	flags.String(KeyName, "", "name of the deployment (generated per run when empty)")
	flags.IntP(KeyTimeout, "t", constants.DefaultSettleSeconds, "seconds to wait before checking pod statuses")
}
