package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/llm-d/llm-d-capacity-probe/internal/config"
	"github.com/llm-d/llm-d-capacity-probe/internal/gateway"
	"github.com/llm-d/llm-d-capacity-probe/internal/metrics"
	"github.com/llm-d/llm-d-capacity-probe/internal/observer"
	"github.com/llm-d/llm-d-capacity-probe/internal/probe"
)

func newEstimateCommand(deps Deps, g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate how many more pods of a given size fit in the namespace",
		Example: `  capacity-probe estimate -n team-a --cpu 500m -i 2
  capacity-probe estimate -r 10 --max-replicas 200 -o json --metrics-file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := g.viper(cmd)
			if err != nil {
				return err
			}
			return runEstimate(cmd, deps, g, config.LoadEstimate(v))
		},
	}
	config.AddEstimateFlags(cmd.Flags())
	return cmd
}

func runEstimate(cmd *cobra.Command, deps Deps, g *globalOptions, opts config.EstimateOptions) error {
	ctx := cmd.Context()
	logger := ctrl.LoggerFrom(ctx)

	runID := deps.NewRunID()
	req, err := opts.ProbeRequest(runID)
	if err != nil {
		return err
	}
	k8sClient, err := deps.connect(g)
	if err != nil {
		return err
	}
	warnLeftovers(ctx, k8sClient, req.Workload.Namespace)
	gw := gateway.NewKubeGateway(k8sClient)

	recorder := metrics.NewRecorder(req.Workload.Namespace, req.Workload.Name)
	observerConfig := observer.DefaultConfig(req.Settle)
	observerConfig.MaxRepolls = opts.MaxRepolls
	prober := probe.NewProber(gw, deps.Clock, observerConfig, recorder)

	logger.Info("Starting capacity probe",
		"run", runID,
		"namespace", req.Workload.Namespace,
		"workload", req.Workload.Name,
		"replicas", req.Workload.Replicas,
		"increment", req.Increment)

	outcome, runErr := prober.Run(ctx, req)

	if err := recorder.WriteFile(opts.MetricsFile, deps.ErrOut); err != nil {
		logger.Error(err, "Failed to write run metrics", "path", opts.MetricsFile)
	}

	switch {
	case runErr == nil:
	case errors.Is(runErr, probe.ErrCeilingReached):
		// the outcome is a lower bound; print it before failing
		if err := writeOutcome(deps.Out, opts.Output, outcome); err != nil {
			return err
		}
		return runErr
	default:
		return runErr
	}

	if outcome.Clamped {
		logger.Info("Estimate clamped at zero", "raw", outcome.Raw)
	}
	return writeOutcome(deps.Out, opts.Output, outcome)
}

func writeOutcome(w io.Writer, format string, outcome probe.Outcome) error {
	switch format {
	case config.OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(outcome)
	case config.OutputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(outcome); err != nil {
			return err
		}
		return encoder.Close()
	default:
		_, err := fmt.Fprintln(w, outcome.Replicas)
		return err
	}
}
