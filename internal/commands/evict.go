package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/llm-d/llm-d-capacity-probe/internal/config"
	"github.com/llm-d/llm-d-capacity-probe/internal/eviction"
	"github.com/llm-d/llm-d-capacity-probe/internal/gateway"
)

func newEvictCommand(deps Deps, g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evict",
		Short: "Fill the namespace with a deployment, then submit one competing pod",
		Long: `evict creates a filler Deployment, waits for the timeout and creates a single
evictor pod with the same resources and priority class. Nothing is deleted
afterwards; the commands to clean up are printed when the run ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := g.viper(cmd)
			if err != nil {
				return err
			}
			return runEvict(cmd, deps, g, config.LoadEvict(v))
		},
	}
	config.AddEvictFlags(cmd.Flags())
	return cmd
}

func runEvict(cmd *cobra.Command, deps Deps, g *globalOptions, opts config.EvictOptions) error {
	ctx := cmd.Context()
	logger := ctrl.LoggerFrom(ctx)

	runID := deps.NewRunID()
	req, err := opts.EvictionRequest(runID)
	if err != nil {
		return err
	}
	k8sClient, err := deps.connect(g)
	if err != nil {
		return err
	}
	gw := gateway.NewKubeGateway(k8sClient)

	logger.Info("Starting eviction scenario", "run", runID, "namespace", req.Filler.Namespace)
	scenario, runErr := eviction.NewDriver(gw, deps.Clock).Run(ctx, req)

	if commands := scenario.CleanupCommands(); len(commands) > 0 {
		fmt.Fprintln(deps.ErrOut, "Clean up with:")
		for _, command := range commands {
			fmt.Fprintf(deps.ErrOut, "  %s\n", command)
		}
	}
	return runErr
}
