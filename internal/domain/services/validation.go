package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ersonp/uniao/internal/domain/entities"
)

// Field keys reported in validation errors.
const (
	FieldName          = "name"
	FieldAcquiredAt    = "acquiredAt"
	FieldNotes         = "notes"
	FieldAcquirer      = "acquirer"
	FieldContributions = "contributions"
	FieldKind          = "kind"
	FieldPhysicalType  = "physicalType"
	FieldDigitalType   = "digitalType"
	FieldAddress       = "address"
	FieldDocument      = "document"
	FieldQuantity      = "quantity"
	FieldAmountPaid    = "amountPaid"
	FieldAssignedTo    = "assignedMemberId"
	FieldReleaseAge    = "releaseAge"
	FieldAssetNotes    = "assetNotes"
	FieldTransactions  = "transactions"
)

const (
	maxNameLength  = 120
	maxNotesLength = 1000
)

// Mode selects what the acquisition workflow captures.
type Mode string

const (
	ModeNewAsset       Mode = "new_asset"
	ModeNewTransaction Mode = "new_transaction"
)

// Step is a state of the acquisition workflow.
type Step int

const (
	StepIdentity Step = iota + 1
	StepContribution
	StepDetail
	StepSubmitted
	StepCancelled
)

func (s Step) String() string {
	switch s {
	case StepIdentity:
		return "identity"
	case StepContribution:
		return "contribution"
	case StepDetail:
		return "detail"
	case StepSubmitted:
		return "submitted"
	case StepCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ContributionDraft is one partner's share of a transaction acquired by both.
type ContributionDraft struct {
	Partner string              `json:"partner"`
	Amount  decimal.NullDecimal `json:"amount"`
}

// TransactionDraft is an uncommitted transaction. ID is generated by the
// client so that re-submission after a failure does not duplicate it.
type TransactionDraft struct {
	ID            string              `json:"id"`
	AcquiredAt    time.Time           `json:"acquired_at"`
	Quantity      decimal.NullDecimal `json:"quantity"`
	AmountPaid    decimal.NullDecimal `json:"amount_paid"`
	Acquirer      string              `json:"acquirer,omitempty"`
	Contributions []ContributionDraft `json:"contributions,omitempty"`
	Notes         string              `json:"notes,omitempty"`
}

// AssetDraft is an uncommitted asset with its initial transactions.
type AssetDraft struct {
	ID               string                `json:"id"`
	Name             string                `json:"name"`
	Kind             entities.AssetKind    `json:"kind"`
	DigitalType      entities.DigitalType  `json:"digital_type,omitempty"`
	PhysicalType     entities.PhysicalType `json:"physical_type,omitempty"`
	Address          string                `json:"address,omitempty"`
	Document         string                `json:"document,omitempty"`
	AssignedMemberID string                `json:"assigned_member_id,omitempty"`
	ReleaseAge       *int                  `json:"release_age,omitempty"`
	Notes            string                `json:"notes,omitempty"`
	Transactions     []TransactionDraft    `json:"transactions,omitempty"`
}

// validationInput is everything a rule may look at.
type validationInput struct {
	mode     Mode
	union    *entities.Union
	asset    *AssetDraft
	existing *entities.Asset
	tx       *TransactionDraft
	now      time.Time
}

func (in *validationInput) kind() entities.AssetKind {
	if in.existing != nil {
		return in.existing.Kind
	}
	return in.asset.Kind
}

func (in *validationInput) newAsset() bool {
	return in.mode == ModeNewAsset
}

type rule struct {
	step  Step
	check func(in *validationInput) *entities.FieldError
}

// schema is ordered: the first failing rule is the one reported.
var schema = []rule{
	{StepIdentity, checkName},
	{StepIdentity, checkAcquiredAt},
	{StepIdentity, checkTransactionNotes},
	{StepContribution, checkAcquirer},
	{StepContribution, checkContributions},
	{StepDetail, checkKind},
	{StepDetail, checkSubType},
	{StepDetail, checkKindFields},
	{StepDetail, checkQuantity},
	{StepDetail, checkAmountPaid},
	{StepDetail, checkAssetNotes},
	{StepDetail, checkAssignment},
	{StepDetail, checkReleaseAge},
}

// validateThrough runs every rule belonging to a step up to and including
// through, against the whole draft, and returns the first failure.
func validateThrough(in *validationInput, through Step) *entities.FieldError {
	for _, r := range schema {
		if r.step > through {
			continue
		}
		if fe := r.check(in); fe != nil {
			return fe
		}
	}
	return nil
}

func checkName(in *validationInput) *entities.FieldError {
	if !in.newAsset() {
		return nil
	}
	name := strings.TrimSpace(in.asset.Name)
	if name == "" {
		return entities.NewFieldError(FieldName, nil, "name is required")
	}
	if len([]rune(name)) > maxNameLength {
		return entities.NewFieldError(FieldName, nil, "name must be %d characters or less", maxNameLength)
	}
	return nil
}

func checkAcquiredAt(in *validationInput) *entities.FieldError {
	if in.tx.AcquiredAt.IsZero() {
		return entities.NewFieldError(FieldAcquiredAt, nil, "acquisition date is required")
	}
	if !in.now.IsZero() && afterDay(in.tx.AcquiredAt, in.now) {
		return entities.NewFieldError(FieldAcquiredAt, nil, "acquisition date cannot be in the future")
	}
	return nil
}

// afterDay reports whether the calendar day of t, read in t's own location,
// is later than the calendar day of now in now's location. A date entered
// without a zone is midnight UTC and keeps the day the user typed.
func afterDay(t, now time.Time) bool {
	y, m, d := t.Date()
	ny, nm, nd := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).After(time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC))
}

func checkTransactionNotes(in *validationInput) *entities.FieldError {
	if len([]rune(in.tx.Notes)) > maxNotesLength {
		return entities.NewFieldError(FieldNotes, nil, "notes must be %d characters or less", maxNotesLength)
	}
	return nil
}

func checkAcquirer(in *validationInput) *entities.FieldError {
	acq := entities.ParseAcquirer(in.tx.Acquirer)
	if acq.Kind != entities.AcquirerPartner {
		return nil
	}
	if in.union == nil || !in.union.IsPartner(acq.Partner) {
		return entities.NewFieldError(FieldAcquirer, nil,
			"unknown acquirer %q (valid: %s)", acq.Partner, strings.Join(validAcquirers(in.union), ", "))
	}
	return nil
}

func checkContributions(in *validationInput) *entities.FieldError {
	if entities.ParseAcquirer(in.tx.Acquirer).Kind != entities.AcquirerBoth {
		return nil
	}
	if len(in.tx.Contributions) > entities.MaxContributions {
		return entities.NewFieldError(FieldContributions, nil,
			"at most %d contributions can be recorded", entities.MaxContributions)
	}
	seen := make(map[string]bool, len(in.tx.Contributions))
	for _, c := range in.tx.Contributions {
		if !c.Amount.Valid {
			continue
		}
		field := FieldContributions + "." + c.Partner
		if in.union == nil || !in.union.IsPartner(c.Partner) {
			return entities.NewFieldError(field, nil, "unknown partner %q", c.Partner)
		}
		key := entities.NormalizeName(c.Partner)
		if seen[key] {
			return entities.NewFieldError(field, nil, "duplicate contribution for %q", c.Partner)
		}
		seen[key] = true
		if c.Amount.Decimal.IsNegative() {
			return entities.NewFieldError(field, nil, "contribution cannot be negative")
		}
	}
	return nil
}

func checkKind(in *validationInput) *entities.FieldError {
	if !in.newAsset() {
		return nil
	}
	switch in.asset.Kind {
	case entities.AssetKindDigital, entities.AssetKindPhysical:
		return nil
	case "":
		return entities.NewFieldError(FieldKind, entities.ErrInvalidAssetKind, "asset kind is required")
	default:
		return entities.NewFieldError(FieldKind, entities.ErrInvalidAssetKind, "unknown asset kind %q", in.asset.Kind)
	}
}

func checkSubType(in *validationInput) *entities.FieldError {
	if !in.newAsset() {
		return nil
	}
	switch in.asset.Kind {
	case entities.AssetKindPhysical:
		if in.asset.PhysicalType == "" {
			return entities.NewFieldError(FieldPhysicalType, nil, "physical asset type is required")
		}
	case entities.AssetKindDigital:
		if in.asset.DigitalType == "" {
			return entities.NewFieldError(FieldDigitalType, nil, "digital asset type is required")
		}
	}
	return nil
}

func checkKindFields(in *validationInput) *entities.FieldError {
	if !in.newAsset() {
		return nil
	}
	switch in.asset.Kind {
	case entities.AssetKindDigital:
		if strings.TrimSpace(in.asset.Address) != "" {
			return entities.NewFieldError(FieldAddress, entities.ErrInvalidAssetKind, "digital assets have no address")
		}
		if strings.TrimSpace(in.asset.Document) != "" {
			return entities.NewFieldError(FieldDocument, entities.ErrInvalidAssetKind, "digital assets have no document")
		}
		if in.asset.PhysicalType != "" {
			return entities.NewFieldError(FieldPhysicalType, entities.ErrInvalidAssetKind, "digital assets have no physical type")
		}
	case entities.AssetKindPhysical:
		if in.asset.DigitalType != "" {
			return entities.NewFieldError(FieldDigitalType, entities.ErrInvalidAssetKind, "physical assets have no digital type")
		}
	}
	return nil
}

func checkQuantity(in *validationInput) *entities.FieldError {
	switch in.kind() {
	case entities.AssetKindDigital:
		if !in.tx.Quantity.Valid {
			return entities.NewFieldError(FieldQuantity, nil, "quantity is required for digital assets")
		}
		if !in.tx.Quantity.Decimal.IsPositive() {
			return entities.NewFieldError(FieldQuantity, nil, "quantity must be greater than zero")
		}
	case entities.AssetKindPhysical:
		if in.tx.Quantity.Valid {
			return entities.NewFieldError(FieldQuantity, entities.ErrInvalidAssetKind, "physical assets cannot carry a quantity")
		}
	}
	return nil
}

func checkAmountPaid(in *validationInput) *entities.FieldError {
	if in.tx.AmountPaid.Valid && in.tx.AmountPaid.Decimal.IsNegative() {
		return entities.NewFieldError(FieldAmountPaid, nil, "amount paid cannot be negative")
	}
	return nil
}

func checkAssetNotes(in *validationInput) *entities.FieldError {
	if !in.newAsset() {
		return nil
	}
	if len([]rune(in.asset.Notes)) > maxNotesLength {
		return entities.NewFieldError(FieldAssetNotes, nil, "notes must be %d characters or less", maxNotesLength)
	}
	return nil
}

func checkAssignment(in *validationInput) *entities.FieldError {
	if !in.newAsset() || in.asset.AssignedMemberID == "" {
		return nil
	}
	if in.union == nil || in.union.FindMember(in.asset.AssignedMemberID) == nil {
		return entities.NewFieldError(FieldAssignedTo, entities.ErrUnknownMember,
			"member %s does not belong to this union", in.asset.AssignedMemberID)
	}
	return nil
}

func checkReleaseAge(in *validationInput) *entities.FieldError {
	if !in.newAsset() || in.asset.ReleaseAge == nil {
		return nil
	}
	var member *entities.Member
	if in.union != nil && in.asset.AssignedMemberID != "" {
		member = in.union.FindMember(in.asset.AssignedMemberID)
	}
	probe := entities.Asset{AssignedMemberID: in.asset.AssignedMemberID}
	if err := ApplyCondition(&probe, member, in.asset.ReleaseAge); err != nil {
		if fe, ok := entities.AsFieldError(err); ok {
			return fe
		}
		return entities.NewFieldError(FieldReleaseAge, nil, "%v", err)
	}
	return nil
}

func validAcquirers(union *entities.Union) []string {
	out := []string{"both", "union"}
	if union != nil {
		out = append(out, union.PartnerNames()...)
	}
	return out
}

// ValidateAssetDraft runs the full schema over an asset draft and each of its
// transactions.
func ValidateAssetDraft(union *entities.Union, draft *AssetDraft, now time.Time) error {
	if len(draft.Transactions) == 0 {
		return entities.NewFieldError(FieldTransactions, nil, "an asset needs at least one transaction")
	}
	for i := range draft.Transactions {
		in := &validationInput{
			mode:  ModeNewAsset,
			union: union,
			asset: draft,
			tx:    &draft.Transactions[i],
			now:   now,
		}
		if fe := validateThrough(in, StepDetail); fe != nil {
			return fe
		}
	}
	return nil
}

// ValidateTransactionDraft runs the transaction rules of the schema for a new
// transaction against an existing asset.
func ValidateTransactionDraft(union *entities.Union, asset *entities.Asset, draft *TransactionDraft, now time.Time) error {
	in := &validationInput{
		mode:     ModeNewTransaction,
		union:    union,
		asset:    &AssetDraft{Name: asset.Name, Kind: asset.Kind},
		existing: asset,
		tx:       draft,
		now:      now,
	}
	if fe := validateThrough(in, StepDetail); fe != nil {
		return fe
	}
	return nil
}
