package entities

import (
	"strings"
	"time"
)

// Relationship describes how a member relates to the union.
type Relationship string

const (
	RelationshipChild     Relationship = "child"
	RelationshipParent    Relationship = "parent"
	RelationshipPartner   Relationship = "partner"
	RelationshipRelative  Relationship = "relative"
	RelationshipAssociate Relationship = "associate"
	RelationshipOther     Relationship = "other"
)

// Relationships lists the known relationship values in display order.
var Relationships = []Relationship{
	RelationshipChild,
	RelationshipParent,
	RelationshipPartner,
	RelationshipRelative,
	RelationshipAssociate,
	RelationshipOther,
}

// ParseRelationship maps free text onto the closed set. Unknown values fall
// into RelationshipOther so that nothing the user typed is rejected.
func ParseRelationship(s string) Relationship {
	switch NormalizeName(s) {
	case "child", "son", "daughter", "filho", "filha":
		return RelationshipChild
	case "parent", "father", "mother", "pai", "mae", "mãe":
		return RelationshipParent
	case "partner", "spouse", "husband", "wife", "conjuge", "cônjuge":
		return RelationshipPartner
	case "relative", "sibling", "grandchild", "grandparent", "cousin", "parente":
		return RelationshipRelative
	case "associate", "friend", "unrelated", "amigo":
		return RelationshipAssociate
	default:
		return RelationshipOther
	}
}

// Member is a person associated with a union.
type Member struct {
	ID            string       `json:"id"`
	UnionID       string       `json:"union_id"`
	Name          string       `json:"name"`
	Relationship  Relationship `json:"relationship"`
	BirthDate     *time.Time   `json:"birth_date,omitempty"`
	WalletAddress string       `json:"wallet_address,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// HasBirthDate reports whether the member's birth date is known.
func (m *Member) HasBirthDate() bool {
	return m != nil && m.BirthDate != nil && !m.BirthDate.IsZero()
}

// NormalizeName converts a name to lowercase for case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
