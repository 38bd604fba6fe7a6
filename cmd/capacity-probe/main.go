// Command capacity-probe estimates how many more pods of a given size a
// Kubernetes namespace can schedule, and stages preemption scenarios.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/llm-d/llm-d-capacity-probe/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCommand(commands.DefaultDeps()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		stop()
		os.Exit(1)
	}
}
