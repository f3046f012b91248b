package handlers

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/mocks"
	"github.com/ersonp/uniao/internal/domain/services"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

const (
	testUnionID = "union-1"
	memberLia   = "member-lia"
	memberRui   = "member-rui"
	assetHouse  = "asset-house"
	assetBTC    = "asset-btc"
)

func birth(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func amount(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// seededStore holds "Ana & Bruno" with Lia (born 2015-05-10), Rui (no birth
// date), a house earmarked for Lia at 18 and half a bitcoin.
func seededStore() *mocks.Store {
	store := mocks.NewStore()
	store.Unions[testUnionID] = &entities.Union{ID: testUnionID, DisplayName: "Ana & Bruno"}
	store.Members[memberLia] = &entities.Member{
		ID: memberLia, UnionID: testUnionID, Name: "Lia",
		Relationship: entities.RelationshipChild, BirthDate: birth(2015, time.May, 10),
	}
	store.Members[memberRui] = &entities.Member{
		ID: memberRui, UnionID: testUnionID, Name: "Rui",
		Relationship: entities.RelationshipRelative,
	}
	store.Assets[assetHouse] = &entities.Asset{
		ID: assetHouse, UnionID: testUnionID, Name: "Beach House",
		Kind:             entities.AssetKindPhysical,
		Physical:         &entities.PhysicalDetails{Type: entities.PhysicalTypeRealEstate},
		AssignedMemberID: memberLia,
		ReleaseCondition: &entities.ReleaseCondition{Type: entities.ReleaseConditionAge, TargetAge: 18},
		Transactions: []entities.Transaction{{
			ID: "tx-house-1", AssetID: assetHouse,
			AcquiredAt: *birth(2024, time.June, 1),
			AmountPaid: amount("250000"),
			Acquirer:   entities.Acquirer{Kind: entities.AcquirerBoth},
			Contributions: []entities.Contribution{
				{Partner: "Ana", Amount: decimal.RequireFromString("150000")},
				{Partner: "Bruno", Amount: decimal.RequireFromString("100000")},
			},
		}},
	}
	store.Assets[assetBTC] = &entities.Asset{
		ID: assetBTC, UnionID: testUnionID, Name: "Bitcoin",
		Kind:    entities.AssetKindDigital,
		Digital: &entities.DigitalDetails{Type: entities.DigitalTypeCrypto},
		Transactions: []entities.Transaction{{
			ID: "tx-btc-1", AssetID: assetBTC,
			AcquiredAt: *birth(2024, time.January, 10),
			Quantity:   amount("0.5"),
			AmountPaid: amount("20000"),
			Acquirer:   entities.Acquirer{Kind: entities.AcquirerPartner, Partner: "Ana"},
		}},
	}
	return store
}

func testSession(t *testing.T) entities.Session {
	t.Helper()
	session, err := entities.NewSession(testUnionID, "tester")
	require.NoError(t, err)
	return session
}

func newTestRegistry(store *mocks.Store) *services.RegistryService {
	registry := services.NewRegistryService(store, nil)
	registry.WithClock(fixedClock)
	return registry
}
