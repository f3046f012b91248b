package services

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ersonp/uniao/internal/domain/entities"
)

// Anomaly flags a transaction whose stored data breaks an asset invariant.
// Aggregation still completes; the anomaly is reported alongside the totals.
type Anomaly struct {
	TransactionID string `json:"transaction_id"`
	Field         string `json:"field"`
	Message       string `json:"message"`
}

// Totals are the derived figures of one asset's transaction history.
type Totals struct {
	AssetID                string                     `json:"asset_id"`
	TransactionCount       int                        `json:"transaction_count"`
	TotalQuantity          decimal.Decimal            `json:"total_quantity"`
	TotalPaid              decimal.Decimal            `json:"total_paid"`
	ContributionsByPartner map[string]decimal.Decimal `json:"contributions_by_partner"`
	Anomalies              []Anomaly                  `json:"anomalies,omitempty"`
}

// Partners returns the partner names with a contribution, sorted.
func (t Totals) Partners() []string {
	names := make([]string, 0, len(t.ContributionsByPartner))
	for name := range t.ContributionsByPartner {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aggregate folds an asset's transactions into totals. Absent quantities and
// amounts count as zero. The result depends only on the transaction set, not
// its order, and aggregating never mutates the asset.
func Aggregate(asset *entities.Asset) Totals {
	totals := Totals{
		AssetID:                asset.ID,
		TransactionCount:       len(asset.Transactions),
		TotalQuantity:          decimal.Zero,
		TotalPaid:              decimal.Zero,
		ContributionsByPartner: make(map[string]decimal.Decimal),
	}

	for i := range asset.Transactions {
		tx := &asset.Transactions[i]

		switch {
		case asset.Kind == entities.AssetKindDigital && !tx.Quantity.Valid:
			totals.Anomalies = append(totals.Anomalies, Anomaly{
				TransactionID: tx.ID,
				Field:         "quantity",
				Message:       "digital transaction has no quantity; counted as zero",
			})
		case asset.Kind == entities.AssetKindPhysical && tx.Quantity.Valid:
			totals.Anomalies = append(totals.Anomalies, Anomaly{
				TransactionID: tx.ID,
				Field:         "quantity",
				Message:       "physical transaction carries a quantity; ignored",
			})
		case tx.Quantity.Valid:
			totals.TotalQuantity = totals.TotalQuantity.Add(tx.Quantity.Decimal)
		}

		if tx.AmountPaid.Valid {
			totals.TotalPaid = totals.TotalPaid.Add(tx.AmountPaid.Decimal)
		}

		switch tx.Acquirer.Kind {
		case entities.AcquirerBoth:
			for _, c := range tx.Contributions {
				addContribution(totals.ContributionsByPartner, c.Partner, c.Amount)
			}
		case entities.AcquirerPartner:
			if tx.AmountPaid.Valid {
				addContribution(totals.ContributionsByPartner, tx.Acquirer.Partner, tx.AmountPaid.Decimal)
			}
			if len(tx.Contributions) > 0 {
				totals.Anomalies = append(totals.Anomalies, contributionAnomaly(tx.ID))
			}
		default:
			if len(tx.Contributions) > 0 {
				totals.Anomalies = append(totals.Anomalies, contributionAnomaly(tx.ID))
			}
		}
	}

	sort.Slice(totals.Anomalies, func(i, j int) bool {
		if totals.Anomalies[i].TransactionID != totals.Anomalies[j].TransactionID {
			return totals.Anomalies[i].TransactionID < totals.Anomalies[j].TransactionID
		}
		return totals.Anomalies[i].Field < totals.Anomalies[j].Field
	})

	return totals
}

func addContribution(m map[string]decimal.Decimal, partner string, amount decimal.Decimal) {
	partner = strings.TrimSpace(partner)
	if partner == "" {
		return
	}
	if current, ok := m[partner]; ok {
		m[partner] = current.Add(amount)
		return
	}
	m[partner] = amount
}

func contributionAnomaly(txID string) Anomaly {
	return Anomaly{
		TransactionID: txID,
		Field:         "contributions",
		Message:       "contributions recorded on a transaction not acquired by both partners; ignored",
	}
}

// UnionTotals aggregates every asset of a union.
type UnionTotals struct {
	UnionID                string                     `json:"union_id"`
	Assets                 []Totals                   `json:"assets"`
	TotalPaid              decimal.Decimal            `json:"total_paid"`
	ContributionsByPartner map[string]decimal.Decimal `json:"contributions_by_partner"`
}

// AggregateUnion aggregates each asset in union order and sums the amounts.
// Quantities are not summed across assets since their units differ.
func AggregateUnion(union *entities.Union) UnionTotals {
	out := UnionTotals{
		UnionID:                union.ID,
		Assets:                 make([]Totals, 0, len(union.Assets)),
		TotalPaid:              decimal.Zero,
		ContributionsByPartner: make(map[string]decimal.Decimal),
	}
	for i := range union.Assets {
		t := Aggregate(&union.Assets[i])
		out.Assets = append(out.Assets, t)
		out.TotalPaid = out.TotalPaid.Add(t.TotalPaid)
		for partner, amount := range t.ContributionsByPartner {
			addContribution(out.ContributionsByPartner, partner, amount)
		}
	}
	return out
}
