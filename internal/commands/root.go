// Package commands implements the capacity-probe command line.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"k8s.io/utils/clock"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/llm-d/llm-d-capacity-probe/internal/config"
	"github.com/llm-d/llm-d-capacity-probe/internal/gateway"
	"github.com/llm-d/llm-d-capacity-probe/internal/logging"
	"github.com/llm-d/llm-d-capacity-probe/internal/workload"
)

// Deps are the collaborators shared by all commands.
type Deps struct {
	// NewClient connects to the cluster selected by the kubeconfig flags.
	NewClient func(kubeconfig, kubeContext string) (client.Client, error)
	Clock     clock.Clock
	NewRunID  func() string
	// Out receives results only; ErrOut receives logs and hints.
	Out    io.Writer
	ErrOut io.Writer
}

// DefaultDeps returns Deps talking to a real cluster.
func DefaultDeps() Deps {
	return Deps{
		NewClient: gateway.NewClient,
		Clock:     clock.RealClock{},
		NewRunID:  workload.NewRunID,
		Out:       os.Stdout,
		ErrOut:    os.Stderr,
	}
}

func (d Deps) connect(g *globalOptions) (client.Client, error) {
	k8sClient, err := d.NewClient(g.kubeconfig, g.kubeContext)
	if err != nil {
		return nil, fmt.Errorf("connecting to the cluster: %w", err)
	}
	return k8sClient, nil
}

type globalOptions struct {
	kubeconfig  string
	kubeContext string
	configFile  string
	verbosity   int
	development bool
}

// viper returns a viper instance bound to the flags of cmd.
func (g *globalOptions) viper(cmd *cobra.Command) (*viper.Viper, error) {
	v, err := config.NewViper(g.configFile)
	if err != nil {
		return nil, err
	}
	if err := config.Bind(v, cmd.Flags()); err != nil {
		return nil, err
	}
	return v, nil
}

// NewRootCommand builds the capacity-probe command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "capacity-probe",
		Short: "Estimate spare schedulable capacity of a Kubernetes namespace",
		Long: `capacity-probe scales a throwaway Deployment up step by step until the
scheduler reports insufficient resources, then prints the last replica count
that was fully placed. The evict subcommand stages a preemption scenario.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			logger := logging.Setup(logging.Options{
				Verbosity:   g.verbosity,
				Development: g.development,
				Output:      deps.ErrOut,
			})
			cmd.SetContext(ctrl.LoggerInto(cmd.Context(), logger))
		},
	}
	cmd.SetOut(deps.Out)
	cmd.SetErr(deps.ErrOut)

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.kubeconfig, "kubeconfig", "", "path to the kubeconfig file (defaults to KUBECONFIG or ~/.kube/config)")
	flags.StringVar(&g.kubeContext, "context", "", "kubeconfig context to use")
	flags.StringVar(&g.configFile, "config", "", "yaml file with default values for command flags")
	flags.IntVarP(&g.verbosity, "verbosity", "v", logging.INFO, "log verbosity (0 info, 1 debug, 2 trace)")
	flags.BoolVar(&g.development, "log-development", false, "human-readable console logs")

	cmd.AddCommand(newEstimateCommand(deps, g))
	cmd.AddCommand(newEvictCommand(deps, g))
	cmd.AddCommand(newLeftoversCommand(deps, g))
	return cmd
}
