// Command reconcile renders element trees with the fiber reconciler and
// inspects the passes it records.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/reconcile/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCommand()
	cmd.SetContext(ctx)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
