package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AcquirerKind classifies who paid for a transaction.
type AcquirerKind string

const (
	AcquirerUnspecified AcquirerKind = ""
	AcquirerPartner     AcquirerKind = "partner"
	AcquirerBoth        AcquirerKind = "both"
	AcquirerUnion       AcquirerKind = "union"
)

// Acquirer names who acquired a transaction: one partner, both partners,
// the union as a whole, or nobody in particular.
type Acquirer struct {
	Kind    AcquirerKind `json:"kind,omitempty"`
	Partner string       `json:"partner,omitempty"`
}

// ParseAcquirer maps a label onto an Acquirer. Labels that are not one of the
// reserved words are treated as a partner name; callers validate the name
// against the union.
func ParseAcquirer(label string) Acquirer {
	label = strings.TrimSpace(label)
	switch NormalizeName(label) {
	case "":
		return Acquirer{}
	case "both", "ambos":
		return Acquirer{Kind: AcquirerBoth}
	case "union", "main union", "união", "uniao", "união principal", "uniao principal":
		return Acquirer{Kind: AcquirerUnion}
	default:
		return Acquirer{Kind: AcquirerPartner, Partner: label}
	}
}

// String renders the acquirer as a label.
func (a Acquirer) String() string {
	switch a.Kind {
	case AcquirerPartner:
		return a.Partner
	case AcquirerBoth:
		return "both"
	case AcquirerUnion:
		return "union"
	default:
		return ""
	}
}

// Contribution is the amount one partner put into a shared transaction.
type Contribution struct {
	Partner string          `json:"partner"`
	Amount  decimal.Decimal `json:"amount"`
}

// MaxContributions is the number of partners a transaction can be split between.
const MaxContributions = 2

// Transaction is one acquisition event against an asset. It is immutable once
// committed. When both contributions and AmountPaid are present they are not
// required to sum to each other.
type Transaction struct {
	ID            string              `json:"id"`
	AssetID       string              `json:"asset_id"`
	AcquiredAt    time.Time           `json:"acquired_at"`
	Quantity      decimal.NullDecimal `json:"quantity"`
	AmountPaid    decimal.NullDecimal `json:"amount_paid"`
	Acquirer      Acquirer            `json:"acquirer"`
	Contributions []Contribution      `json:"contributions,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// NewDecimal wraps a decimal as a present optional value.
func NewDecimal(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// ParseOptionalDecimal parses s, returning an absent value for blank input.
func ParseOptionalDecimal(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return NewDecimal(d), nil
}
