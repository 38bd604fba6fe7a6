package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/duration"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/llm-d/llm-d-capacity-probe/internal/config"
	"github.com/llm-d/llm-d-capacity-probe/internal/constants"
	"github.com/llm-d/llm-d-capacity-probe/internal/utils/leftover"
)

func newLeftoversCommand(deps Deps, g *globalOptions) *cobra.Command {
	var (
		namespace     string
		allNamespaces bool
		output        string
	)

	cmd := &cobra.Command{
		Use:   "leftovers",
		Short: "List capacity-probe objects left behind by earlier runs",
		Long: `leftovers lists the Deployments and Pods created by earlier estimate or evict
runs that still exist. They hold resource requests and lower later estimates.
The kubectl commands to delete them are printed to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch output {
			case config.OutputText, config.OutputJSON, config.OutputYAML:
			default:
				return fmt.Errorf("%w: output must be one of text, json, yaml, got %q", config.ErrInvalidOptions, output)
			}
			if allNamespaces {
				namespace = ""
			}

			k8sClient, err := deps.connect(g)
			if err != nil {
				return err
			}
			objects, err := leftover.Discover(cmd.Context(), k8sClient, namespace)
			if err != nil {
				return err
			}
			if err := writeLeftovers(deps.Out, output, objects, deps.Clock.Now()); err != nil {
				return err
			}
			for _, command := range leftover.CleanupCommands(objects) {
				fmt.Fprintln(deps.ErrOut, command)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&namespace, config.KeyNamespace, "n", constants.DefaultNamespace, "namespace to search")
	cmd.Flags().BoolVarP(&allNamespaces, "all-namespaces", "A", false, "search every namespace")
	cmd.Flags().StringVarP(&output, config.KeyOutput, "o", config.OutputText, "output format: text, json or yaml")
	return cmd
}

func writeLeftovers(w io.Writer, format string, objects []leftover.Object, now time.Time) error {
	switch format {
	case config.OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(objects)
	case config.OutputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(objects); err != nil {
			return err
		}
		return encoder.Close()
	}

	if len(objects) == 0 {
		_, err := fmt.Fprintln(w, "No leftover objects found.")
		return err
	}
	table := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(table, "NAMESPACE\tKIND\tNAME\tROLE\tRUN\tREPLICAS\tAGE")
	for _, obj := range objects {
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			obj.Namespace, obj.Kind, obj.Name, obj.Role, obj.RunID, obj.Replicas,
			duration.HumanDuration(now.Sub(obj.Created)))
	}
	return table.Flush()
}

// warnLeftovers logs managed objects already present in namespace. Discovery
// failures are logged and never stop the probe.
func warnLeftovers(ctx context.Context, k8sClient client.Client, namespace string) {
	logger := ctrl.LoggerFrom(ctx)

	objects, err := leftover.Discover(ctx, k8sClient, namespace)
	if err != nil {
		logger.Error(err, "Failed to look for leftover objects", "namespace", namespace)
		return
	}
	for _, obj := range objects {
		logger.Info("Leftover object holds capacity and lowers the estimate",
			"kind", obj.Kind,
			"name", obj.Name,
			"role", obj.Role,
			"run", obj.RunID,
			"replicas", obj.Replicas)
	}
}
