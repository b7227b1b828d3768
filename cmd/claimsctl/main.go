// Command claimsctl inspects and nudges claims in the processing pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "claimsctl",
		Short:         "Inspect and requeue claims in the processing pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(retriesCmd())
	rootCmd.AddCommand(resetRetriesCmd())
	rootCmd.AddCommand(requeueCmd())
	rootCmd.AddCommand(topNPIsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
