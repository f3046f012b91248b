package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/ports"
	"github.com/ersonp/uniao/internal/domain/services"
)

// AcquisitionHandler drives the acquisition workflow from complete,
// non-interactive input.
type AcquisitionHandler struct {
	registry *services.RegistryService
	observer ports.WorkflowObserver
	logger   *zap.Logger
	nowFn    func() time.Time
}

// NewAcquisitionHandler creates a new acquisition handler. observer may be nil.
func NewAcquisitionHandler(
	registry *services.RegistryService,
	observer ports.WorkflowObserver,
	logger *zap.Logger,
) *AcquisitionHandler {
	if observer == nil {
		observer = ports.NopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcquisitionHandler{
		registry: registry,
		observer: observer,
		logger:   logger,
		nowFn:    time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (h *AcquisitionHandler) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		h.nowFn = nowFn
	}
}

// TransactionInput is a transaction as typed by the user. Contributions are
// "partner=amount" pairs.
type TransactionInput struct {
	AcquiredAt    string
	Quantity      string
	AmountPaid    string
	Acquirer      string
	Contributions []string
	Notes         string
}

// AssetInput is a new asset with its first transaction.
type AssetInput struct {
	Name        string
	Kind        string
	Type        string
	Address     string
	Document    string
	MemberID    string
	ReleaseAge  string
	Notes       string
	Transaction TransactionInput
}

// HandleAcquire records a new asset. The returned state carries the field
// that failed validation, if any; the error is non-nil whenever the asset
// was not committed.
func (h *AcquisitionHandler) HandleAcquire(ctx context.Context, session entities.Session, in AssetInput) (services.State, error) {
	tx, err := in.Transaction.draft()
	if err != nil {
		return services.State{}, err
	}
	releaseAge, err := services.ParseTargetAge(in.ReleaseAge)
	if err != nil {
		return services.State{}, err
	}

	union, err := h.registry.LoadUnion(ctx, session)
	if err != nil {
		return services.State{}, err
	}

	opts := h.workflowOptions()
	if in.MemberID != "" {
		opts = append(opts, services.ScopedToMember(in.MemberID))
	}
	w, err := services.NewAssetWorkflow(session, union, h.registry, opts...)
	if err != nil {
		return services.State{}, err
	}

	kind := entities.AssetKind(entities.NormalizeName(in.Kind))
	w.Update(func(d *services.Draft) {
		d.Asset.Name = in.Name
		d.Asset.Kind = kind
		switch kind {
		case entities.AssetKindDigital:
			d.Asset.DigitalType = entities.ParseDigitalType(in.Type)
		case entities.AssetKindPhysical:
			d.Asset.PhysicalType = entities.ParsePhysicalType(in.Type)
			d.Asset.Address = in.Address
			d.Asset.Document = in.Document
		}
		d.Asset.ReleaseAge = releaseAge
		d.Asset.Notes = in.Notes
		d.Transaction = *tx
	})

	return drive(ctx, w)
}

// HandleAddTransaction records a further transaction against an asset.
func (h *AcquisitionHandler) HandleAddTransaction(
	ctx context.Context,
	session entities.Session,
	assetID string,
	in TransactionInput,
) (services.State, error) {
	tx, err := in.draft()
	if err != nil {
		return services.State{}, err
	}

	union, err := h.registry.LoadUnion(ctx, session)
	if err != nil {
		return services.State{}, err
	}
	asset := union.FindAsset(assetID)
	if asset == nil {
		return services.State{}, fmt.Errorf("asset %s: %w", assetID, entities.ErrNotFound)
	}

	w, err := services.NewTransactionWorkflow(session, union, asset, h.registry, h.workflowOptions()...)
	if err != nil {
		return services.State{}, err
	}
	w.Update(func(d *services.Draft) {
		d.Transaction = *tx
	})

	return drive(ctx, w)
}

func (h *AcquisitionHandler) workflowOptions() []services.WorkflowOption {
	return []services.WorkflowOption{
		services.WithObserver(h.observer),
		services.WithWorkflowLogger(h.logger),
		services.WithWorkflowClock(h.nowFn),
	}
}

// drive walks the workflow through every step and submits it, stopping at
// the first step that fails.
func drive(ctx context.Context, w *services.Workflow) (services.State, error) {
	state := w.State()
	for state.Step < services.StepDetail {
		state = w.Next()
		if err := stateError(state); err != nil {
			return state, err
		}
	}
	state = w.Submit(ctx)
	return state, stateError(state)
}

func stateError(state services.State) error {
	switch {
	case state.Error != nil:
		return state.Error
	case state.Failure != nil:
		return state.Failure
	}
	return nil
}

func (in TransactionInput) draft() (*services.TransactionDraft, error) {
	tx := &services.TransactionDraft{
		Acquirer: strings.TrimSpace(in.Acquirer),
		Notes:    in.Notes,
	}

	if strings.TrimSpace(in.AcquiredAt) != "" {
		t, err := services.ParseDate(in.AcquiredAt)
		if err != nil {
			return nil, entities.NewFieldError(services.FieldAcquiredAt, nil, "invalid date %q (use YYYY-MM-DD)", in.AcquiredAt)
		}
		tx.AcquiredAt = t
	}

	var err error
	if tx.Quantity, err = parseOptionalDecimal(services.FieldQuantity, in.Quantity); err != nil {
		return nil, err
	}
	if tx.AmountPaid, err = parseOptionalDecimal(services.FieldAmountPaid, in.AmountPaid); err != nil {
		return nil, err
	}
	if tx.Contributions, err = ParseContributions(in.Contributions); err != nil {
		return nil, err
	}
	return tx, nil
}

// ParseContributions parses "partner=amount" pairs.
func ParseContributions(pairs []string) ([]services.ContributionDraft, error) {
	var out []services.ContributionDraft
	for _, pair := range pairs {
		partner, amount, ok := strings.Cut(pair, "=")
		partner = strings.TrimSpace(partner)
		if !ok || partner == "" {
			return nil, entities.NewFieldError(services.FieldContributions, nil,
				"contribution %q must look like partner=amount", pair)
		}
		value, err := parseOptionalDecimal(services.FieldContributions+"."+partner, amount)
		if err != nil {
			return nil, err
		}
		out = append(out, services.ContributionDraft{Partner: partner, Amount: value})
	}
	return out, nil
}

func parseOptionalDecimal(field, s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, entities.NewFieldError(field, nil, "%q is not a number", s)
	}
	return decimal.NewNullDecimal(d), nil
}
