package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/uniao/internal/application/handlers"
)

type txFlags struct {
	acquiredAt    string
	quantity      string
	amountPaid    string
	acquirer      string
	contributions []string
	notes         string
}

func (f txFlags) input() handlers.TransactionInput {
	return handlers.TransactionInput{
		AcquiredAt:    f.acquiredAt,
		Quantity:      f.quantity,
		AmountPaid:    f.amountPaid,
		Acquirer:      f.acquirer,
		Contributions: f.contributions,
		Notes:         f.notes,
	}
}

// addTxFlags registers the transaction flags. notesFlag names the notes flag
// so it does not collide with an asset's own --notes.
func addTxFlags(cmd *cobra.Command, flags *txFlags, notesFlag string) {
	cmd.Flags().StringVar(&flags.acquiredAt, "acquired-at", time.Now().Format(time.DateOnly), "Acquisition date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&flags.quantity, "quantity", "q", "", "Quantity acquired (digital assets only)")
	cmd.Flags().StringVar(&flags.amountPaid, "amount-paid", "", "Amount paid")
	cmd.Flags().StringVar(&flags.acquirer, "acquirer", "", "Who acquired it: a partner name or \"both\"")
	cmd.Flags().StringArrayVarP(&flags.contributions, "contribution", "c", nil, "Partner contribution as partner=amount (repeatable, only when acquirer is both)")
	cmd.Flags().StringVar(&flags.notes, notesFlag, "", "Transaction notes")
}

func newTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Record transactions against existing assets",
	}

	cmd.AddCommand(newTxAddCmd())

	return cmd
}

func newTxAddCmd() *cobra.Command {
	var flags txFlags

	cmd := &cobra.Command{
		Use:   "add ASSET_ID",
		Short: "Add a transaction to an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTxAdd(cmd, args[0], flags)
		},
	}

	addTxFlags(cmd, &flags, "notes")

	return cmd
}

func runTxAdd(cmd *cobra.Command, assetID string, flags txFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		state, err := d.Acquisitions.HandleAddTransaction(ctx, d.Session, assetID, flags.input())
		if err != nil {
			return workflowError(state, err)
		}

		tx := state.Result.Transaction
		asset := state.Result.Asset
		fmt.Printf("Recorded transaction %s on %s (%s, paid %s)\n",
			tx.ID, asset.Name, tx.AcquiredAt.Format(time.DateOnly), formatNullAmount(tx.AmountPaid))
		return nil
	})
}
