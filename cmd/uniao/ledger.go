package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/uniao/internal/application/handlers"
)

type importFlags struct {
	format string
	dryRun bool
}

func newLedgerCmd() *cobra.Command {
	var assetID string

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show, import and export the union's ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedgerShow(cmd, assetID)
		},
	}

	cmd.Flags().StringVarP(&assetID, "asset", "a", "", "Only report this asset")

	cmd.AddCommand(
		newLedgerShowCmd(),
		newLedgerImportCmd(),
		newLedgerExportCmd(),
	)

	return cmd
}

func newLedgerShowCmd() *cobra.Command {
	var assetID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show totals per asset and per partner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedgerShow(cmd, assetID)
		},
	}

	cmd.Flags().StringVarP(&assetID, "asset", "a", "", "Only report this asset")

	return cmd
}

func runLedgerShow(cmd *cobra.Command, assetID string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		ledger, err := d.Ledger.HandleShow(ctx, d.Session, assetID)
		if err != nil {
			return fmt.Errorf("building ledger: %w", err)
		}

		fmt.Printf("%s\n\n", ledger.Union.DisplayName)

		if len(ledger.Totals.Assets) == 0 {
			fmt.Println("No assets recorded.")
			return nil
		}

		names := assetNames(ledger)
		fmt.Printf("%-24s  %4s  %14s  %14s\n", "ASSET", "TXS", "QUANTITY", "PAID")
		for _, t := range ledger.Totals.Assets {
			fmt.Printf("%-24s  %4d  %14s  %14s\n",
				truncate(names[t.AssetID], 24), t.TransactionCount, t.TotalQuantity.String(), formatAmount(t.TotalPaid))
			for _, an := range t.Anomalies {
				fmt.Printf("  warning: %s\n", an.Message)
			}
		}

		fmt.Printf("\nTotal paid: %s\n", formatAmount(ledger.Totals.TotalPaid))
		for _, partner := range sortedPartners(ledger.Totals.ContributionsByPartner) {
			fmt.Printf("  %-10s  %s\n", partner, formatAmount(ledger.Totals.ContributionsByPartner[partner]))
		}

		return nil
	})
}

func newLedgerImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import ASSET_ID FILE",
		Short: "Import transactions from JSON or CSV",
		Long: `Imports transactions for one asset from a structured file. Each row is
validated like a transaction typed by hand; rows whose ID is already recorded
are skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedgerImport(cmd, args[0], args[1], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate without saving")

	return cmd
}

func runLedgerImport(cmd *cobra.Command, assetID, filePath string, flags importFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		fmt.Printf("Importing %s...\n", filePath)

		result, err := d.Ledger.HandleImport(ctx, d.Session, assetID, filePath, handlers.ImportOptions{
			Format: flags.format,
			DryRun: flags.dryRun,
		})
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Printf("\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", e.Error())
			}
		}

		fmt.Println()
		if flags.dryRun {
			fmt.Printf("Dry run: %d transactions would be imported", result.Imported)
		} else {
			fmt.Printf("Imported: %d transactions", result.Imported)
		}

		if result.Skipped > 0 {
			fmt.Printf(", %d skipped (already recorded)", result.Skipped)
		}

		if len(result.Errors) > 0 {
			fmt.Printf(", %d errors", len(result.Errors))
		}

		fmt.Println()

		return nil
	})
}
