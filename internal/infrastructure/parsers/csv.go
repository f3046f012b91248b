package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ersonp/uniao/internal/domain/entities"
)

// CSVParser parses transactions from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed transactions.
// Expected columns: acquired_at, and optionally id, quantity, amount_paid,
// acquirer, notes, contribution_partner_1, contribution_amount_1,
// contribution_partner_2, contribution_amount_2.
func (p *CSVParser) Parse(r io.Reader) ([]RawTransaction, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	requiredCols := []string{"acquired_at"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawTransactions.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawTransaction, error) {
	var rows []RawTransaction
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		rows = append(rows, p.parseRecord(record, colIndex, lineNum))
	}

	return rows, nil
}

// parseRecord converts a CSV record to a RawTransaction.
func (p *CSVParser) parseRecord(record []string, colIndex map[string]int, lineNum int) RawTransaction {
	row := RawTransaction{
		ID:         getColumn(record, colIndex, "id"),
		AcquiredAt: getColumn(record, colIndex, "acquired_at"),
		Quantity:   getColumn(record, colIndex, "quantity"),
		AmountPaid: getColumn(record, colIndex, "amount_paid"),
		Acquirer:   getColumn(record, colIndex, "acquirer"),
		Notes:      getColumn(record, colIndex, "notes"),
		LineNum:    lineNum,
	}

	for n := 1; n <= entities.MaxContributions; n++ {
		suffix := strconv.Itoa(n)
		partner := getColumn(record, colIndex, "contribution_partner_"+suffix)
		amount := getColumn(record, colIndex, "contribution_amount_"+suffix)
		if partner == "" && amount == "" {
			continue
		}
		row.Contributions = append(row.Contributions, RawContribution{Partner: partner, Amount: amount})
	}

	return row
}

// getColumn safely retrieves a trimmed column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
