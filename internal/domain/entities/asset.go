package entities

import (
	"fmt"
	"time"
)

// AssetKind is the immutable variant tag of an asset.
type AssetKind string

const (
	AssetKindDigital  AssetKind = "digital"
	AssetKindPhysical AssetKind = "physical"
)

// ParseAssetKind validates an asset kind string.
func ParseAssetKind(s string) (AssetKind, error) {
	switch AssetKind(NormalizeName(s)) {
	case AssetKindDigital:
		return AssetKindDigital, nil
	case AssetKindPhysical:
		return AssetKindPhysical, nil
	default:
		return "", fmt.Errorf("%w: %q (valid: digital, physical)", ErrInvalidAssetKind, s)
	}
}

// DigitalType is the sub-kind of a digital asset.
type DigitalType string

const (
	DigitalTypeCrypto DigitalType = "crypto"
	DigitalTypeNFT    DigitalType = "nft"
	DigitalTypeOther  DigitalType = "other"
)

// PhysicalType is the sub-kind of a physical asset.
type PhysicalType string

const (
	PhysicalTypeRealEstate PhysicalType = "real_estate"
	PhysicalTypeVehicle    PhysicalType = "vehicle"
	PhysicalTypeJewelry    PhysicalType = "jewelry"
	PhysicalTypeArt        PhysicalType = "art"
	PhysicalTypeOther      PhysicalType = "other"
)

// ParseDigitalType maps a string onto the digital sub-kinds. Empty input
// returns an empty type; anything unknown becomes DigitalTypeOther.
func ParseDigitalType(s string) DigitalType {
	switch n := NormalizeName(s); n {
	case "":
		return ""
	case "crypto", "cripto", "criptomoeda":
		return DigitalTypeCrypto
	case "nft":
		return DigitalTypeNFT
	default:
		return DigitalTypeOther
	}
}

// ParsePhysicalType maps a string onto the physical sub-kinds. Empty input
// returns an empty type; anything unknown becomes PhysicalTypeOther.
func ParsePhysicalType(s string) PhysicalType {
	switch n := NormalizeName(s); n {
	case "":
		return ""
	case "real_estate", "real estate", "house", "apartment", "land", "imovel", "imóvel":
		return PhysicalTypeRealEstate
	case "vehicle", "car", "veiculo", "veículo":
		return PhysicalTypeVehicle
	case "jewelry", "jewellery", "joia", "joias":
		return PhysicalTypeJewelry
	case "art", "arte":
		return PhysicalTypeArt
	default:
		return PhysicalTypeOther
	}
}

// DigitalDetails holds the fields only a digital asset carries.
type DigitalDetails struct {
	Type DigitalType `json:"type"`
}

// PhysicalDetails holds the fields only a physical asset carries.
type PhysicalDetails struct {
	Type     PhysicalType `json:"type"`
	Address  string       `json:"address,omitempty"`
	Document string       `json:"document,omitempty"`
}

// Asset is a digital or physical item of value tracked by a union.
//
// Invariants:
//   - Kind is fixed at creation; exactly one of Digital or Physical is set and
//     it matches Kind
//   - every transaction of a digital asset carries a quantity
//   - no transaction of a physical asset carries a quantity
//   - ReleaseCondition is only set while AssignedMemberID is set
type Asset struct {
	ID               string            `json:"id"`
	UnionID          string            `json:"union_id"`
	Name             string            `json:"name"`
	Kind             AssetKind         `json:"kind"`
	Digital          *DigitalDetails   `json:"digital,omitempty"`
	Physical         *PhysicalDetails  `json:"physical,omitempty"`
	Transactions     []Transaction     `json:"transactions,omitempty"`
	AssignedMemberID string            `json:"assigned_member_id,omitempty"`
	ReleaseCondition *ReleaseCondition `json:"release_condition,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// IsDigital reports whether the asset is held in the union wallet.
func (a *Asset) IsDigital() bool {
	return a.Kind == AssetKindDigital
}

// SubType returns the kind-specific sub-type as a string.
func (a *Asset) SubType() string {
	switch {
	case a.Digital != nil:
		return string(a.Digital.Type)
	case a.Physical != nil:
		return string(a.Physical.Type)
	default:
		return ""
	}
}

// CheckKind verifies the variant tag agrees with the detail block.
func (a *Asset) CheckKind() error {
	switch a.Kind {
	case AssetKindDigital:
		if a.Digital == nil || a.Physical != nil {
			return fmt.Errorf("%w: digital asset must carry only digital details", ErrInvalidAssetKind)
		}
	case AssetKindPhysical:
		if a.Physical == nil || a.Digital != nil {
			return fmt.Errorf("%w: physical asset must carry only physical details", ErrInvalidAssetKind)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAssetKind, a.Kind)
	}
	return nil
}

// AcceptTransaction verifies a transaction respects the asset's kind.
func (a *Asset) AcceptTransaction(tx *Transaction) error {
	switch a.Kind {
	case AssetKindDigital:
		if !tx.Quantity.Valid {
			return NewFieldError("quantity", ErrInvalidAssetKind, "digital asset transactions require a quantity")
		}
	case AssetKindPhysical:
		if tx.Quantity.Valid {
			return NewFieldError("quantity", ErrInvalidAssetKind, "physical asset transactions cannot carry a quantity")
		}
	}
	return nil
}

// HasTransaction reports whether a transaction with the given ID is recorded.
func (a *Asset) HasTransaction(id string) bool {
	for i := range a.Transactions {
		if a.Transactions[i].ID == id {
			return true
		}
	}
	return false
}
