package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/ports"
)

// Committer persists the output of a submitted workflow.
// RegistryService satisfies it.
type Committer interface {
	CreateAsset(ctx context.Context, session entities.Session, draft AssetDraft) (*entities.Asset, error)
	AddTransaction(ctx context.Context, session entities.Session, assetID string, draft TransactionDraft) (*entities.Transaction, error)
}

// Draft is the data accumulated across the workflow steps. In transaction
// mode only Transaction is used.
type Draft struct {
	Asset       AssetDraft       `json:"asset"`
	Transaction TransactionDraft `json:"transaction"`
}

// Result is what a successful submit committed.
type Result struct {
	Asset       *entities.Asset       `json:"asset,omitempty"`
	Transaction *entities.Transaction `json:"transaction,omitempty"`
}

// State is a snapshot of a workflow for the presentation layer.
type State struct {
	Mode       Mode                 `json:"mode"`
	Step       Step                 `json:"step"`
	Draft      Draft                `json:"draft"`
	Error      *entities.FieldError `json:"error,omitempty"`
	Failure    error                `json:"-"`
	Submitting bool                 `json:"submitting"`
	Result     *Result              `json:"result,omitempty"`
}

// Failed reports whether the last action left a validation error or failure.
func (s State) Failed() bool {
	return s.Error != nil || s.Failure != nil
}

// WorkflowOption configures a Workflow.
type WorkflowOption func(*Workflow)

// WithObserver reports progress to o.
func WithObserver(o ports.WorkflowObserver) WorkflowOption {
	return func(w *Workflow) {
		if o != nil {
			w.observer = o
		}
	}
}

// WithWorkflowClock overrides the time provider used by date rules.
func WithWorkflowClock(nowFn func() time.Time) WorkflowOption {
	return func(w *Workflow) {
		if nowFn != nil {
			w.nowFn = nowFn
		}
	}
}

// WithWorkflowLogger sets the logger.
func WithWorkflowLogger(logger *zap.Logger) WorkflowOption {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger.Named("workflow")
		}
	}
}

// ScopedToMember pre-assigns the new asset to a member.
func ScopedToMember(memberID string) WorkflowOption {
	return func(w *Workflow) {
		w.draft.Asset.AssignedMemberID = memberID
	}
}

// Workflow captures a new asset, or a new transaction against an existing
// asset, through three validated steps. Nothing is persisted until Submit
// succeeds. All methods are safe for concurrent use; failures are reported
// in the returned State rather than as errors.
type Workflow struct {
	mu sync.Mutex

	session   entities.Session
	union     *entities.Union
	existing  *entities.Asset
	committer Committer
	observer  ports.WorkflowObserver
	logger    *zap.Logger
	nowFn     func() time.Time

	mode     Mode
	step     Step
	draft    Draft
	fieldErr *entities.FieldError
	failure  error
	inFlight bool
	result   *Result
}

// NewAssetWorkflow starts a workflow that creates a new asset with its first
// transaction. union must carry its members.
func NewAssetWorkflow(
	session entities.Session,
	union *entities.Union,
	committer Committer,
	opts ...WorkflowOption,
) (*Workflow, error) {
	if !session.Valid() {
		return nil, entities.ErrUnauthenticated
	}
	w := newWorkflow(session, union, committer, ModeNewAsset)
	w.draft.Asset.ID = uuid.NewString()
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// NewTransactionWorkflow starts a workflow that adds a transaction to asset.
func NewTransactionWorkflow(
	session entities.Session,
	union *entities.Union,
	asset *entities.Asset,
	committer Committer,
	opts ...WorkflowOption,
) (*Workflow, error) {
	if !session.Valid() {
		return nil, entities.ErrUnauthenticated
	}
	if asset == nil || asset.UnionID != session.UnionID {
		return nil, fmt.Errorf("starting transaction workflow: %w", entities.ErrNotFound)
	}
	w := newWorkflow(session, union, committer, ModeNewTransaction)
	w.existing = asset
	w.draft.Asset = AssetDraft{ID: asset.ID, Name: asset.Name, Kind: asset.Kind}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func newWorkflow(session entities.Session, union *entities.Union, committer Committer, mode Mode) *Workflow {
	return &Workflow{
		session:   session,
		union:     union,
		committer: committer,
		observer:  ports.NopObserver{},
		logger:    zap.NewNop(),
		nowFn:     time.Now,
		mode:      mode,
		step:      StepIdentity,
		draft: Draft{
			Transaction: TransactionDraft{ID: uuid.NewString()},
		},
	}
}

// State returns a snapshot of the workflow.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

// Update edits the draft. Identifiers are kept stable across edits.
func (w *Workflow) Update(fn func(d *Draft)) State {
	w.mu.Lock()
	defer w.mu.Unlock()

	if fail := w.rejectEdit(); fail != nil {
		return w.snapshotWith(fail)
	}

	assetID, txID := w.draft.Asset.ID, w.draft.Transaction.ID
	fn(&w.draft)
	w.draft.Asset.ID, w.draft.Transaction.ID = assetID, txID
	if w.existing != nil {
		w.draft.Asset = AssetDraft{ID: w.existing.ID, Name: w.existing.Name, Kind: w.existing.Kind}
	}
	return w.snapshot()
}

// Next validates everything up to the current step and advances on success.
func (w *Workflow) Next() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	if fail := w.rejectEdit(); fail != nil {
		return w.snapshotWith(fail)
	}
	if w.step == StepDetail {
		return w.snapshotWith(fmt.Errorf("%w: use submit on the last step", entities.ErrInvalidTransition))
	}

	if !w.validate(w.step) {
		return w.snapshot()
	}
	w.step++
	w.observer.StepAdvanced(string(w.mode), w.step.String())
	return w.snapshot()
}

// Back returns to the previous step without validating.
func (w *Workflow) Back() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	if fail := w.rejectEdit(); fail != nil {
		return w.snapshotWith(fail)
	}
	w.fieldErr = nil
	w.failure = nil
	if w.step > StepIdentity {
		w.step--
	}
	return w.snapshot()
}

// Cancel discards the draft. It is refused while a submit is in flight and
// after a successful submit.
func (w *Workflow) Cancel() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case w.inFlight:
		return w.snapshotWith(entities.ErrSubmitInFlight)
	case w.step == StepSubmitted:
		return w.snapshotWith(fmt.Errorf("%w: already submitted", entities.ErrInvalidTransition))
	}
	w.step = StepCancelled
	w.draft = Draft{}
	w.fieldErr = nil
	w.failure = nil
	return w.snapshot()
}

// Submit validates the complete draft and commits it exactly once. Once
// started the commit is not cancelled by ctx. A commit failure leaves the
// workflow on the last step with the draft intact so it can be re-submitted.
func (w *Workflow) Submit(ctx context.Context) State {
	w.mu.Lock()
	if w.inFlight {
		defer w.mu.Unlock()
		return w.snapshotWith(entities.ErrSubmitInFlight)
	}
	if fail := w.rejectEdit(); fail != nil {
		defer w.mu.Unlock()
		return w.snapshotWith(fail)
	}
	if w.step != StepDetail {
		defer w.mu.Unlock()
		return w.snapshotWith(fmt.Errorf("%w: submit is only allowed on the last step", entities.ErrInvalidTransition))
	}
	if !w.validate(StepDetail) {
		defer w.mu.Unlock()
		return w.snapshot()
	}

	w.inFlight = true
	w.failure = nil
	draft := w.draft
	w.mu.Unlock()

	result, err := w.commit(context.WithoutCancel(ctx), draft)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.inFlight = false
	w.observer.Submitted(string(w.mode), err)

	if err != nil {
		if fe, ok := entities.AsFieldError(err); ok {
			w.fieldErr = fe
			w.observer.ValidationFailed(string(w.mode), w.step.String(), fe.Field)
			return w.snapshot()
		}
		w.logger.Warn("submit failed", zap.String("mode", string(w.mode)), zap.Error(err))
		if errors.Is(err, entities.ErrPersistenceFailure) {
			w.failure = err
		} else {
			w.failure = fmt.Errorf("%w: %w", entities.ErrPersistenceFailure, err)
		}
		return w.snapshot()
	}

	w.result = result
	w.step = StepSubmitted
	w.observer.StepAdvanced(string(w.mode), w.step.String())
	return w.snapshot()
}

func (w *Workflow) commit(ctx context.Context, draft Draft) (*Result, error) {
	if w.mode == ModeNewTransaction {
		tx, err := w.committer.AddTransaction(ctx, w.session, w.existing.ID, draft.Transaction)
		if err != nil {
			return nil, err
		}
		return &Result{Asset: w.existing, Transaction: tx}, nil
	}

	assetDraft := draft.Asset
	assetDraft.Transactions = []TransactionDraft{draft.Transaction}
	asset, err := w.committer.CreateAsset(ctx, w.session, assetDraft)
	if err != nil {
		return nil, err
	}
	res := &Result{Asset: asset}
	if len(asset.Transactions) > 0 {
		res.Transaction = &asset.Transactions[0]
	}
	return res, nil
}

// validate runs the schema through step and records the first failure.
// Must be called with w.mu held.
func (w *Workflow) validate(through Step) bool {
	in := &validationInput{
		mode:     w.mode,
		union:    w.union,
		asset:    &w.draft.Asset,
		existing: w.existing,
		tx:       &w.draft.Transaction,
		now:      w.nowFn(),
	}
	w.failure = nil
	w.fieldErr = validateThrough(in, through)
	if w.fieldErr != nil {
		w.observer.ValidationFailed(string(w.mode), w.step.String(), w.fieldErr.Field)
		return false
	}
	return true
}

func (w *Workflow) rejectEdit() error {
	switch {
	case w.inFlight:
		return entities.ErrSubmitInFlight
	case w.step == StepSubmitted || w.step == StepCancelled:
		return fmt.Errorf("%w: workflow is %s", entities.ErrInvalidTransition, w.step)
	}
	return nil
}

func (w *Workflow) snapshot() State {
	return w.snapshotWith(w.failure)
}

func (w *Workflow) snapshotWith(failure error) State {
	draft := w.draft
	draft.Transaction.Contributions = append([]ContributionDraft(nil), w.draft.Transaction.Contributions...)
	return State{
		Mode:       w.mode,
		Step:       w.step,
		Draft:      draft,
		Error:      w.fieldErr,
		Failure:    failure,
		Submitting: w.inFlight,
		Result:     w.result,
	}
}
