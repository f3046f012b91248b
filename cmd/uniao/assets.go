package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/uniao/internal/application/handlers"
	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/services"
	"github.com/ersonp/uniao/internal/infrastructure/relationaldb/sqlite"
)

type assetListFlags struct {
	kind     string
	memberID string
	asOf     string
}

type acquireFlags struct {
	name       string
	kind       string
	subType    string
	address    string
	document   string
	memberID   string
	releaseAge string
	notes      string
	tx         txFlags
}

func newAssetsCmd() *cobra.Command {
	var flags assetListFlags

	cmd := &cobra.Command{
		Use:     "assets",
		Aliases: []string{"asset"},
		Short:   "Manage the union's assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssetsList(cmd, flags)
		},
	}

	addAssetListFlags(cmd, &flags)

	cmd.AddCommand(
		newAssetsListCmd(),
		newAssetsShowCmd(),
		newAssetsAcquireCmd(),
		newAssetsAssignCmd(),
		newAssetsHistoryCmd(),
	)

	return cmd
}

func addAssetListFlags(cmd *cobra.Command, flags *assetListFlags) {
	cmd.Flags().StringVarP(&flags.kind, "kind", "k", "", "Filter by kind (digital, physical)")
	cmd.Flags().StringVarP(&flags.memberID, "member", "m", "", "Filter by earmarked member ID")
	cmd.Flags().StringVar(&flags.asOf, "as-of", "", "Date release conditions are evaluated on (default: today)")
}

func newAssetsListCmd() *cobra.Command {
	var flags assetListFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets with their totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssetsList(cmd, flags)
		},
	}

	addAssetListFlags(cmd, &flags)

	return cmd
}

func runAssetsList(cmd *cobra.Command, flags assetListFlags) error {
	asOf, err := parseAsOf(flags.asOf)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		views, err := d.Assets.HandleList(ctx, d.Session, handlers.AssetFilter{
			Kind:     flags.kind,
			MemberID: flags.memberID,
		}, asOf)
		if err != nil {
			return fmt.Errorf("listing assets: %w", err)
		}

		if len(views) == 0 {
			fmt.Println("No assets found.")
			return nil
		}

		fmt.Printf("%-36s  %-24s  %-22s  %14s  %12s  %-12s  %s\n",
			"ID", "NAME", "KIND", "PAID", "QUANTITY", "FOR", "RELEASE")
		for _, v := range views {
			quantity := "-"
			if v.Asset.IsDigital() {
				quantity = v.Totals.TotalQuantity.String()
			}
			member := v.MemberName
			if member == "" {
				member = "-"
			}
			fmt.Printf("%-36s  %-24s  %-22s  %14s  %12s  %-12s  %s\n",
				v.Asset.ID,
				truncate(v.Asset.Name, 24),
				string(v.Asset.Kind)+"/"+v.Asset.SubType(),
				formatAmount(v.Totals.TotalPaid),
				quantity,
				truncate(member, 12),
				formatRelease(v.Release),
			)
		}
		fmt.Printf("\nTotal: %d assets\n", len(views))

		return nil
	})
}

func newAssetsShowCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "show ASSET_ID",
		Short: "Show an asset with its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssetsShow(cmd, args[0], asOf)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Date the release condition is evaluated on (default: today)")

	return cmd
}

func runAssetsShow(cmd *cobra.Command, assetID, asOfFlag string) error {
	asOf, err := parseAsOf(asOfFlag)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		v, err := d.Assets.HandleShow(ctx, d.Session, assetID, asOf)
		if err != nil {
			return err
		}

		a := v.Asset
		fmt.Printf("%s (%s/%s)\n", a.Name, a.Kind, a.SubType())
		fmt.Printf("ID:       %s\n", a.ID)
		if a.Physical != nil {
			if a.Physical.Address != "" {
				fmt.Printf("Address:  %s\n", a.Physical.Address)
			}
			if a.Physical.Document != "" {
				fmt.Printf("Document: %s\n", a.Physical.Document)
			}
		}
		if v.MemberName != "" {
			fmt.Printf("For:      %s\n", v.MemberName)
		}
		fmt.Printf("Release:  %s\n", formatRelease(v.Release))
		if a.Notes != "" {
			fmt.Printf("Notes:    %s\n", a.Notes)
		}

		fmt.Printf("\n%-10s  %12s  %14s  %-10s  %s\n", "DATE", "QUANTITY", "PAID", "BY", "CONTRIBUTIONS")
		for _, tx := range a.Transactions {
			parts := make([]string, 0, len(tx.Contributions))
			for _, c := range tx.Contributions {
				parts = append(parts, c.Partner+"="+formatAmount(c.Amount))
			}
			acquirer := tx.Acquirer.String()
			if acquirer == "" {
				acquirer = "-"
			}
			fmt.Printf("%-10s  %12s  %14s  %-10s  %s\n",
				tx.AcquiredAt.Format(time.DateOnly),
				formatNullQuantity(tx.Quantity),
				formatNullAmount(tx.AmountPaid),
				acquirer,
				strings.Join(parts, ", "),
			)
		}

		printTotals(v.Totals, a.IsDigital())
		return nil
	})
}

func printTotals(t services.Totals, digital bool) {
	fmt.Printf("\nTransactions: %d\n", t.TransactionCount)
	if digital {
		fmt.Printf("Quantity:     %s\n", t.TotalQuantity.String())
	}
	fmt.Printf("Paid:         %s\n", formatAmount(t.TotalPaid))
	for _, partner := range t.Partners() {
		fmt.Printf("  %-10s  %s\n", partner, formatAmount(t.ContributionsByPartner[partner]))
	}
	for _, an := range t.Anomalies {
		fmt.Printf("Warning: transaction %s: %s\n", an.TransactionID, an.Message)
	}
}

func newAssetsAcquireCmd() *cobra.Command {
	var flags acquireFlags

	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Record a new asset with its first transaction",
		Long: `Records a new asset through the acquisition workflow: identity, contribution
and detail steps are validated in order and nothing is saved unless all pass.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssetsAcquire(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Asset name")
	cmd.Flags().StringVarP(&flags.kind, "kind", "k", "", "Asset kind (digital, physical)")
	cmd.Flags().StringVarP(&flags.subType, "type", "t", "", "Sub-type (crypto, nft, real_estate, vehicle, jewelry, art, other)")
	cmd.Flags().StringVar(&flags.address, "address", "", "Address of a physical asset")
	cmd.Flags().StringVar(&flags.document, "document", "", "Document reference of a physical asset")
	cmd.Flags().StringVarP(&flags.memberID, "member", "m", "", "Member ID the asset is earmarked for")
	cmd.Flags().StringVar(&flags.releaseAge, "release-age", "", "Age at which the asset is released to the member")
	cmd.Flags().StringVar(&flags.notes, "notes", "", "Asset notes")
	addTxFlags(cmd, &flags.tx, "tx-notes")

	return cmd
}

func runAssetsAcquire(cmd *cobra.Command, flags acquireFlags) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		state, err := d.Acquisitions.HandleAcquire(ctx, d.Session, handlers.AssetInput{
			Name:        flags.name,
			Kind:        flags.kind,
			Type:        flags.subType,
			Address:     flags.address,
			Document:    flags.document,
			MemberID:    flags.memberID,
			ReleaseAge:  flags.releaseAge,
			Notes:       flags.notes,
			Transaction: flags.tx.input(),
		})
		if err != nil {
			return workflowError(state, err)
		}

		asset := state.Result.Asset
		fmt.Printf("Recorded %s (%s/%s) with ID %s\n", asset.Name, asset.Kind, asset.SubType(), asset.ID)
		return nil
	})
}

// workflowError names the step that rejected the input.
func workflowError(state services.State, err error) error {
	if state.Error != nil {
		return fmt.Errorf("%s step: %w", state.Step, err)
	}
	return err
}

func newAssetsAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign ASSET_ID [MEMBER_ID]",
		Short: "Earmark an asset for a member",
		Long:  "Earmarks an asset for a member. Without MEMBER_ID the assignment is cleared. Any release condition is cleared when the member changes.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID := ""
			if len(args) == 2 {
				memberID = args[1]
			}
			return runAssetsAssign(cmd, args[0], memberID)
		},
	}
}

func runAssetsAssign(cmd *cobra.Command, assetID, memberID string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		asset, err := d.Assets.HandleAssign(ctx, d.Session, assetID, memberID)
		if err != nil {
			return fmt.Errorf("assigning asset: %w", err)
		}

		if asset.AssignedMemberID == "" {
			fmt.Printf("%s is no longer earmarked\n", asset.Name)
		} else {
			fmt.Printf("%s is earmarked for member %s\n", asset.Name, asset.AssignedMemberID)
		}
		return nil
	})
}

func newAssetsHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [ENTITY_ID]",
		Short: "Show recorded changes",
		Long:  "Shows the audit log of an asset or member, or of the whole union when no ID is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityID := ""
			if len(args) == 1 {
				entityID = args[0]
			}
			return runAssetsHistory(cmd, entityID)
		},
	}
}

func runAssetsHistory(cmd *cobra.Command, entityID string) error {
	ctx := cmd.Context()

	return withAuditLog(ctx, func(repo *sqlite.Repository, session entities.Session) error {
		if entityID == "" {
			entityID = session.UnionID
		}
		entries, err := repo.FindAuditLog(ctx, entityID)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("No history recorded.")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %-28s  %s\n", e.CreatedAt.Local().Format(time.DateTime), e.Action, formatDetails(e.Details))
		}
		return nil
	})
}

func formatDetails(details map[string]any) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, details[k]))
	}
	return strings.Join(parts, " ")
}
