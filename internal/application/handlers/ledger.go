package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/services"
	"github.com/ersonp/uniao/internal/infrastructure/parsers"
)

// LedgerHandler handles ledger reports and imports.
type LedgerHandler struct {
	registry *services.RegistryService
	importer *services.ImportService
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(registry *services.RegistryService, importer *services.ImportService) *LedgerHandler {
	return &LedgerHandler{
		registry: registry,
		importer: importer,
	}
}

// Ledger is a union with its aggregated totals.
type Ledger struct {
	Union  *entities.Union
	Totals services.UnionTotals
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format string // "json", "csv", or "auto"
	DryRun bool   // Validate without saving
}

// HandleShow aggregates every asset of the session's union. When assetID is
// set only that asset is reported.
func (h *LedgerHandler) HandleShow(ctx context.Context, session entities.Session, assetID string) (*Ledger, error) {
	union, err := h.registry.LoadUnion(ctx, session)
	if err != nil {
		return nil, err
	}
	if assetID != "" {
		asset := union.FindAsset(assetID)
		if asset == nil {
			return nil, fmt.Errorf("asset %s: %w", assetID, entities.ErrNotFound)
		}
		union.Assets = []entities.Asset{*asset}
	}
	return &Ledger{Union: union, Totals: services.AggregateUnion(union)}, nil
}

// HandleImport records the transactions of a JSON or CSV file against an asset.
func (h *LedgerHandler) HandleImport(
	ctx context.Context,
	session entities.Session,
	assetID, filePath string,
	opts ImportOptions,
) (*services.ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	rows, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(rows) == 0 {
		return &services.ImportResult{}, nil
	}

	return h.importer.Import(ctx, session, assetID, rows, services.ImportOptions{DryRun: opts.DryRun})
}
