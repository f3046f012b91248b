package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ersonp/uniao/internal/application/handlers"
	"github.com/ersonp/uniao/internal/domain/services"
)

type exportFlags struct {
	format  string
	output  string
	assetID string
}

type exporter struct {
	format string
	output string
}

func newLedgerExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the ledger to file",
		Long:  "Exports assets, transactions and totals to JSON, CSV, or markdown format. CSV output can be imported back per asset.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedgerExport(cmd, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format (json, csv, markdown)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&flags.assetID, "asset", "a", "", "Only export this asset")

	return cmd
}

func runLedgerExport(cmd *cobra.Command, flags exportFlags) error {
	if !contains(validExportFormats, flags.format) {
		return fmt.Errorf("invalid format %q, valid formats: %v", flags.format, validExportFormats)
	}

	ctx := cmd.Context()

	return withDeps(ctx, func(d *Deps) error {
		ledger, err := d.Ledger.HandleShow(ctx, d.Session, flags.assetID)
		if err != nil {
			return fmt.Errorf("building ledger: %w", err)
		}

		e := &exporter{
			format: flags.format,
			output: flags.output,
		}
		return e.export(ledger)
	})
}

func (e *exporter) export(ledger *handlers.Ledger) (err error) {
	var w io.Writer
	var f *os.File

	if e.output != "" {
		f, err = os.OpenFile(e.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("creating file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing file: %w", cerr)
			}
		}()
		w = f
	} else {
		w = os.Stdout
	}

	if err := e.formatLedger(w, ledger); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if e.output != "" {
		fmt.Printf("Exported %d assets to %s\n", len(ledger.Totals.Assets), e.output)
	}

	return nil
}

func (e *exporter) formatLedger(w io.Writer, ledger *handlers.Ledger) error {
	switch e.format {
	case "json":
		return formatJSON(w, ledger)
	case "csv":
		return formatCSV(w, ledger)
	case "markdown":
		return formatMarkdown(w, ledger)
	default:
		return fmt.Errorf("unknown format: %s", e.format)
	}
}

type exportContribution struct {
	Partner string `json:"partner"`
	Amount  string `json:"amount"`
}

type exportTransaction struct {
	ID            string               `json:"id"`
	AcquiredAt    string               `json:"acquired_at"`
	Quantity      string               `json:"quantity,omitempty"`
	AmountPaid    string               `json:"amount_paid,omitempty"`
	Acquirer      string               `json:"acquirer,omitempty"`
	Contributions []exportContribution `json:"contributions,omitempty"`
	Notes         string               `json:"notes,omitempty"`
}

type exportAsset struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	Kind             string              `json:"kind"`
	Type             string              `json:"type"`
	AssignedMemberID string              `json:"assigned_member_id,omitempty"`
	ReleaseAge       int                 `json:"release_age,omitempty"`
	Transactions     []exportTransaction `json:"transactions"`
	Totals           services.Totals     `json:"totals"`
}

type exportLedger struct {
	UnionID                string            `json:"union_id"`
	DisplayName            string            `json:"display_name"`
	Assets                 []exportAsset     `json:"assets"`
	TotalPaid              string            `json:"total_paid"`
	ContributionsByPartner map[string]string `json:"contributions_by_partner"`
}

func formatJSON(w io.Writer, ledger *handlers.Ledger) error {
	out := exportLedger{
		UnionID:                ledger.Union.ID,
		DisplayName:            ledger.Union.DisplayName,
		Assets:                 make([]exportAsset, 0, len(ledger.Totals.Assets)),
		TotalPaid:              formatAmount(ledger.Totals.TotalPaid),
		ContributionsByPartner: make(map[string]string, len(ledger.Totals.ContributionsByPartner)),
	}
	for partner, amount := range ledger.Totals.ContributionsByPartner {
		out.ContributionsByPartner[partner] = formatAmount(amount)
	}

	for _, totals := range ledger.Totals.Assets {
		asset := ledger.Union.FindAsset(totals.AssetID)
		if asset == nil {
			continue
		}
		ea := exportAsset{
			ID:               asset.ID,
			Name:             asset.Name,
			Kind:             string(asset.Kind),
			Type:             asset.SubType(),
			AssignedMemberID: asset.AssignedMemberID,
			Transactions:     make([]exportTransaction, 0, len(asset.Transactions)),
			Totals:           totals,
		}
		if asset.ReleaseCondition != nil {
			ea.ReleaseAge = asset.ReleaseCondition.TargetAge
		}
		for _, tx := range asset.Transactions {
			et := exportTransaction{
				ID:         tx.ID,
				AcquiredAt: tx.AcquiredAt.Format(time.DateOnly),
				Quantity:   optionalString(tx.Quantity),
				AmountPaid: optionalString(tx.AmountPaid),
				Acquirer:   tx.Acquirer.String(),
				Notes:      tx.Notes,
			}
			for _, c := range tx.Contributions {
				et.Contributions = append(et.Contributions, exportContribution{Partner: c.Partner, Amount: c.Amount.String()})
			}
			ea.Transactions = append(ea.Transactions, et)
		}
		out.Assets = append(out.Assets, ea)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// csvHeader matches the columns the CSV importer reads, prefixed by the asset.
var csvHeader = []string{
	"asset_id", "asset_name", "id", "acquired_at", "quantity", "amount_paid", "acquirer",
	"contribution_partner_1", "contribution_amount_1",
	"contribution_partner_2", "contribution_amount_2",
	"notes",
}

func formatCSV(w io.Writer, ledger *handlers.Ledger) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, totals := range ledger.Totals.Assets {
		asset := ledger.Union.FindAsset(totals.AssetID)
		if asset == nil {
			continue
		}
		for _, tx := range asset.Transactions {
			contrib := make([]string, 4)
			for i, c := range tx.Contributions {
				if i >= 2 {
					break
				}
				contrib[i*2] = c.Partner
				contrib[i*2+1] = c.Amount.String()
			}
			row := []string{
				asset.ID,
				asset.Name,
				tx.ID,
				tx.AcquiredAt.Format(time.DateOnly),
				optionalString(tx.Quantity),
				optionalString(tx.AmountPaid),
				tx.Acquirer.String(),
			}
			row = append(row, contrib...)
			row = append(row, tx.Notes)
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatMarkdown(w io.Writer, ledger *handlers.Ledger) error {
	if _, err := fmt.Fprintf(w, "# %s\n\nTotal paid: %s\n\n",
		escapeMarkdown(ledger.Union.DisplayName), formatAmount(ledger.Totals.TotalPaid)); err != nil {
		return err
	}

	partners := sortedPartners(ledger.Totals.ContributionsByPartner)
	if len(partners) > 0 {
		if _, err := fmt.Fprint(w, "| Partner | Contributed |\n|---------|-------------|\n"); err != nil {
			return err
		}
		for _, p := range partners {
			if _, err := fmt.Fprintf(w, "| %s | %s |\n",
				escapeMarkdown(p), formatAmount(ledger.Totals.ContributionsByPartner[p])); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	for _, totals := range ledger.Totals.Assets {
		asset := ledger.Union.FindAsset(totals.AssetID)
		if asset == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "## %s (%s/%s)\n\n", escapeMarkdown(asset.Name), asset.Kind, asset.SubType()); err != nil {
			return err
		}
		if _, err := fmt.Fprint(w, "| Date | Quantity | Paid | Acquirer | Notes |\n"); err != nil {
			return err
		}
		if _, err := fmt.Fprint(w, "|------|----------|------|----------|-------|\n"); err != nil {
			return err
		}
		for _, tx := range asset.Transactions {
			if _, err := fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				tx.AcquiredAt.Format(time.DateOnly),
				formatNullQuantity(tx.Quantity),
				formatNullAmount(tx.AmountPaid),
				escapeMarkdown(tx.Acquirer.String()),
				escapeMarkdown(tx.Notes),
			); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "\nPaid: %s\n\n", formatAmount(totals.TotalPaid)); err != nil {
			return err
		}
	}

	return nil
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

func optionalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func sortedPartners(m map[string]decimal.Decimal) []string {
	partners := make([]string, 0, len(m))
	for p := range m {
		partners = append(partners, p)
	}
	sort.Strings(partners)
	return partners
}

func assetNames(ledger *handlers.Ledger) map[string]string {
	names := make(map[string]string, len(ledger.Union.Assets))
	for _, a := range ledger.Union.Assets {
		names[a.ID] = a.Name
	}
	return names
}
