package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/infrastructure/parsers"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun bool // Validate without saving
}

// ImportError represents an error for a specific row during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []ImportError
}

// ImportService records transactions in bulk from parsed ledger files.
type ImportService struct {
	registry *RegistryService
	logger   *zap.Logger
}

// NewImportService creates a new import service.
func NewImportService(registry *RegistryService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		registry: registry,
		logger:   logger.Named("import"),
	}
}

// Import converts and records rows against an asset. Rows that fail
// conversion or validation are reported and skipped; the rest are recorded.
// Rows whose ID is already recorded count as skipped.
func (s *ImportService) Import(
	ctx context.Context,
	session entities.Session,
	assetID string,
	rows []parsers.RawTransaction,
	opts ImportOptions,
) (*ImportResult, error) {
	union, err := s.registry.loadUnionMembers(ctx, session)
	if err != nil {
		return nil, err
	}
	asset, err := loadOwnedAsset(ctx, s.registry.store, session, assetID)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	now := s.registry.nowFn()

	for i := range rows {
		raw := &rows[i]
		lineNum := raw.LineNum
		if lineNum == 0 {
			lineNum = i + 1
		}

		draft, importErr := convertRawTransaction(raw, lineNum)
		if importErr != nil {
			result.Errors = append(result.Errors, *importErr)
			continue
		}

		if draft.ID != "" && asset.HasTransaction(draft.ID) {
			result.Skipped++
			continue
		}

		if err := ValidateTransactionDraft(union, asset, draft, now); err != nil {
			result.Errors = append(result.Errors, fieldImportError(lineNum, err))
			continue
		}

		if opts.DryRun {
			result.Imported++
			continue
		}

		if _, err := s.registry.addTransaction(ctx, union, asset, *draft, now); err != nil {
			if errors.Is(err, entities.ErrPersistenceFailure) {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			result.Errors = append(result.Errors, fieldImportError(lineNum, err))
			continue
		}
		result.Imported++
	}

	s.logger.Info("ledger import finished",
		zap.String("asset_id", asset.ID),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
		zap.Bool("dry_run", opts.DryRun),
	)
	return result, nil
}

// convertRawTransaction parses the textual fields of a row.
func convertRawTransaction(raw *parsers.RawTransaction, lineNum int) (*TransactionDraft, *ImportError) {
	if strings.TrimSpace(raw.AcquiredAt) == "" {
		return nil, &ImportError{Line: lineNum, Field: "acquired_at", Message: "missing required field: acquired_at"}
	}
	acquiredAt, err := ParseDate(raw.AcquiredAt)
	if err != nil {
		return nil, &ImportError{
			Line:    lineNum,
			Field:   "acquired_at",
			Value:   raw.AcquiredAt,
			Message: fmt.Sprintf("invalid date %q (use YYYY-MM-DD or RFC 3339)", raw.AcquiredAt),
		}
	}

	quantity, err := entities.ParseOptionalDecimal(raw.Quantity)
	if err != nil {
		return nil, &ImportError{Line: lineNum, Field: "quantity", Value: raw.Quantity, Message: fmt.Sprintf("invalid quantity %q", raw.Quantity)}
	}
	amount, err := entities.ParseOptionalDecimal(raw.AmountPaid)
	if err != nil {
		return nil, &ImportError{Line: lineNum, Field: "amount_paid", Value: raw.AmountPaid, Message: fmt.Sprintf("invalid amount %q", raw.AmountPaid)}
	}

	draft := &TransactionDraft{
		ID:         strings.TrimSpace(raw.ID),
		AcquiredAt: acquiredAt,
		Quantity:   quantity,
		AmountPaid: amount,
		Acquirer:   raw.Acquirer,
		Notes:      raw.Notes,
	}
	for _, c := range raw.Contributions {
		value, err := entities.ParseOptionalDecimal(c.Amount)
		if err != nil {
			return nil, &ImportError{
				Line:    lineNum,
				Field:   "contributions",
				Value:   c.Amount,
				Message: fmt.Sprintf("invalid contribution %q for %s", c.Amount, c.Partner),
			}
		}
		draft.Contributions = append(draft.Contributions, ContributionDraft{Partner: strings.TrimSpace(c.Partner), Amount: value})
	}
	return draft, nil
}

func fieldImportError(lineNum int, err error) ImportError {
	if fe, ok := entities.AsFieldError(err); ok {
		return ImportError{Line: lineNum, Field: fe.Field, Message: fe.Message}
	}
	return ImportError{Line: lineNum, Message: err.Error()}
}

// ParseDate accepts a calendar date (YYYY-MM-DD) or an RFC 3339 instant.
// Calendar dates are taken as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}
