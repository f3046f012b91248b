package entities

// ReleaseConditionType tags the kind of release condition.
type ReleaseConditionType string

// ReleaseConditionAge gates release on the assigned member reaching an age.
const ReleaseConditionAge ReleaseConditionType = "age"

// Bounds for an age release condition.
const (
	MinTargetAge = 1
	MaxTargetAge = 120
)

// ReleaseCondition gates the conceptual release of an asset to its assigned
// member. Whether it has fired is always computed from the current date and
// the member's birth date; it is never stored.
type ReleaseCondition struct {
	Type      ReleaseConditionType `json:"type"`
	TargetAge int                  `json:"target_age"`
}

// NewAgeCondition builds an age condition, rejecting out-of-range ages.
func NewAgeCondition(targetAge int) (*ReleaseCondition, error) {
	if targetAge < MinTargetAge || targetAge > MaxTargetAge {
		return nil, NewFieldError("releaseAge", ErrInvalidAge,
			"target age must be between %d and %d, got %d", MinTargetAge, MaxTargetAge, targetAge)
	}
	return &ReleaseCondition{Type: ReleaseConditionAge, TargetAge: targetAge}, nil
}
