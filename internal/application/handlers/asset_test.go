package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/services"
)

func TestAssetHandler_HandleList(t *testing.T) {
	handler := NewAssetHandler(newTestRegistry(seededStore()))
	asOf := time.Date(2033, time.May, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter AssetFilter
		want   []string
	}{
		{name: "all", filter: AssetFilter{}, want: []string{"Beach House", "Bitcoin"}},
		{name: "digital", filter: AssetFilter{Kind: "Digital"}, want: []string{"Bitcoin"}},
		{name: "earmarked for Lia", filter: AssetFilter{MemberID: memberLia}, want: []string{"Beach House"}},
		{name: "earmarked for Rui", filter: AssetFilter{MemberID: memberRui}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := handler.HandleList(context.Background(), testSession(t), tt.filter, asOf)
			require.NoError(t, err)
			names := make([]string, 0, len(views))
			for _, v := range views {
				names = append(names, v.Asset.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	views, err := handler.HandleList(context.Background(), testSession(t), AssetFilter{MemberID: memberLia}, asOf)
	require.NoError(t, err)
	house := views[0]
	assert.Equal(t, "Lia", house.MemberName)
	assert.Equal(t, services.ReleaseReleased, house.Release.State)
	assert.True(t, house.Totals.TotalPaid.Equal(decimal.NewFromInt(250000)))
}

func TestAssetHandler_HandleList_InvalidKind(t *testing.T) {
	handler := NewAssetHandler(newTestRegistry(seededStore()))

	_, err := handler.HandleList(context.Background(), testSession(t), AssetFilter{Kind: "imaginary"}, testNow)

	assert.ErrorIs(t, err, entities.ErrInvalidAssetKind)
}

func TestAssetHandler_HandleShow(t *testing.T) {
	handler := NewAssetHandler(newTestRegistry(seededStore()))

	view, err := handler.HandleShow(context.Background(), testSession(t), assetHouse, testNow)
	require.NoError(t, err)
	assert.Equal(t, services.ReleasePending, view.Release.State)
	assert.Equal(t, 8, view.Release.YearsRemaining)

	_, err = handler.HandleShow(context.Background(), testSession(t), "missing", testNow)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestAssetHandler_HandleAssign(t *testing.T) {
	store := seededStore()
	handler := NewAssetHandler(newTestRegistry(store))

	asset, err := handler.HandleAssign(context.Background(), testSession(t), assetHouse, memberRui)
	require.NoError(t, err)
	assert.Equal(t, memberRui, asset.AssignedMemberID)
	assert.Nil(t, store.Assets[assetHouse].ReleaseCondition)

	asset, err = handler.HandleAssign(context.Background(), testSession(t), assetHouse, " ")
	require.NoError(t, err)
	assert.Empty(t, asset.AssignedMemberID)

	_, err = handler.HandleAssign(context.Background(), testSession(t), assetHouse, "stranger")
	assert.ErrorIs(t, err, entities.ErrUnknownMember)
}
