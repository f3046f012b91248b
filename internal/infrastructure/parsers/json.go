package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses transactions from JSON format.
type JSONParser struct{}

// jsonTransaction accepts numbers either quoted or bare.
type jsonTransaction struct {
	ID            string             `json:"id"`
	AcquiredAt    string             `json:"acquired_at"`
	Quantity      numberText         `json:"quantity"`
	AmountPaid    numberText         `json:"amount_paid"`
	Acquirer      string             `json:"acquirer"`
	Contributions []jsonContribution `json:"contributions"`
	Notes         string             `json:"notes"`
}

type jsonContribution struct {
	Partner string     `json:"partner"`
	Amount  numberText `json:"amount"`
}

// numberText holds the literal text of a JSON number or string.
type numberText string

func (n *numberText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = numberText(s)
		return nil
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return err
		}
		*n = numberText(num.String())
		return nil
	}
}

// Parse reads a JSON array from the reader and returns parsed transactions.
func (p *JSONParser) Parse(r io.Reader) ([]RawTransaction, error) {
	var items []jsonTransaction

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	rows := make([]RawTransaction, 0, len(items))
	for i := range items {
		item := &items[i]
		row := RawTransaction{
			ID:         item.ID,
			AcquiredAt: item.AcquiredAt,
			Quantity:   string(item.Quantity),
			AmountPaid: string(item.AmountPaid),
			Acquirer:   item.Acquirer,
			Notes:      item.Notes,
			LineNum:    i + 1, // array index, 1-indexed
		}
		for _, c := range item.Contributions {
			row.Contributions = append(row.Contributions, RawContribution{Partner: c.Partner, Amount: string(c.Amount)})
		}
		rows = append(rows, row)
	}

	return rows, nil
}
