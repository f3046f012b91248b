// Package parsers provides parsers for importing transactions from various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawContribution is one partner's share as read from the source.
type RawContribution struct {
	Partner string `json:"partner"`
	Amount  string `json:"amount"`
}

// RawTransaction represents a transaction parsed from an external source
// before validation. Numbers and dates are kept as text so that bad values
// are reported per row by the importer rather than failing the whole file.
type RawTransaction struct {
	ID            string            `json:"id,omitempty"`
	AcquiredAt    string            `json:"acquired_at"`
	Quantity      string            `json:"quantity,omitempty"`
	AmountPaid    string            `json:"amount_paid,omitempty"`
	Acquirer      string            `json:"acquirer,omitempty"`
	Contributions []RawContribution `json:"contributions,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	LineNum       int               `json:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing transactions from various formats.
type Parser interface {
	Parse(r io.Reader) ([]RawTransaction, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
