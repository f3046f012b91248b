// Package main provides the entry point for the uniao CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version     = "0.1.0-dev"
	globalUnion string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:           "uniao",
		Short:         "A registry of the assets a couple or household holds together",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalUnion, "union", "u", os.Getenv(EnvUnion), "Union profile to operate on (env "+EnvUnion+")")

	rootCmd.AddCommand(
		newInitCmd(),
		newUnionsCmd(),
		newMembersCmd(),
		newAssetsCmd(),
		newTxCmd(),
		newReleaseCmd(),
		newLedgerCmd(),
		newGraphCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
