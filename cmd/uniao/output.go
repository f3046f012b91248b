package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ersonp/uniao/internal/domain/services"
)

// parseAsOf parses an --as-of flag. Blank means today.
func parseAsOf(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Now(), nil
	}
	t, err := services.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of date %q (use YYYY-MM-DD)", s)
	}
	return t, nil
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatNullAmount(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return formatAmount(d.Decimal)
}

func formatNullQuantity(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}

func formatRelease(status services.ReleaseStatus) string {
	switch status.State {
	case services.ReleasePending:
		return fmt.Sprintf("at %d (%d years to go)", status.TargetAge, status.YearsRemaining)
	case services.ReleaseReleased:
		return fmt.Sprintf("at %d (released)", status.TargetAge)
	case services.ReleaseUnavailable:
		return fmt.Sprintf("at %d (birth date unknown)", status.TargetAge)
	default:
		return "-"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
