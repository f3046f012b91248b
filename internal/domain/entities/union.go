// Package entities contains core domain data structures.
package entities

import (
	"strings"
	"time"
)

// PartnerSeparator joins the two partner names in a union display name.
const PartnerSeparator = "&"

// Union is the root aggregate: a couple or household owning members, assets
// and one wallet.
//
// Invariants:
//   - exactly one Union per session context
//   - Members and Assets reference the union by ID; the union owns them
//   - the wallet is conceptual and has no identity beyond the union's
type Union struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Members     []Member  `json:"members,omitempty"`
	Assets      []Asset   `json:"assets,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ComposeDisplayName joins two partner names with the partner separator.
// Empty names are skipped.
func ComposeDisplayName(first, second string) string {
	first = strings.TrimSpace(first)
	second = strings.TrimSpace(second)
	switch {
	case first == "":
		return second
	case second == "":
		return first
	default:
		return first + " " + PartnerSeparator + " " + second
	}
}

// PartnerNames returns the name segments of the display name.
func (u *Union) PartnerNames() []string {
	parts := strings.Split(u.DisplayName, PartnerSeparator)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// IsPartner reports whether name matches one of the partner names, ignoring case.
func (u *Union) IsPartner(name string) bool {
	for _, p := range u.PartnerNames() {
		if strings.EqualFold(p, strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

// FindMember returns the member with the given ID, or nil.
func (u *Union) FindMember(id string) *Member {
	for i := range u.Members {
		if u.Members[i].ID == id {
			return &u.Members[i]
		}
	}
	return nil
}

// FindAsset returns the asset with the given ID, or nil.
func (u *Union) FindAsset(id string) *Asset {
	for i := range u.Assets {
		if u.Assets[i].ID == id {
			return &u.Assets[i]
		}
	}
	return nil
}

// DigitalAssets returns the assets held in the union wallet.
func (u *Union) DigitalAssets() []Asset {
	var out []Asset
	for i := range u.Assets {
		if u.Assets[i].Kind == AssetKindDigital {
			out = append(out, u.Assets[i])
		}
	}
	return out
}
