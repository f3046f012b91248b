package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/uniao/internal/domain/entities"
)

func strPtr(s string) *string { return &s }

func TestMemberHandler_HandleCreate(t *testing.T) {
	store := seededStore()
	handler := NewMemberHandler(newTestRegistry(store))

	member, err := handler.HandleCreate(context.Background(), testSession(t), MemberInput{
		Name:          "Teo",
		Relationship:  "filho",
		BirthDate:     "2019-02-28",
		WalletAddress: "0xabc123",
	})

	require.NoError(t, err)
	assert.Equal(t, entities.RelationshipChild, member.Relationship)
	require.NotNil(t, member.BirthDate)
	assert.Equal(t, "2019-02-28", member.BirthDate.Format(time.DateOnly))
	assert.Contains(t, store.Members, member.ID)
}

func TestMemberHandler_HandleCreate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		in    MemberInput
		field string
	}{
		{name: "missing name", in: MemberInput{Relationship: "child"}, field: "name"},
		{name: "bad birth date", in: MemberInput{Name: "Teo", BirthDate: "28/02/2019"}, field: "birthDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewMemberHandler(newTestRegistry(seededStore()))
			_, err := handler.HandleCreate(context.Background(), testSession(t), tt.in)
			fe, ok := entities.AsFieldError(err)
			require.True(t, ok, "expected a field error, got %v", err)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestMemberHandler_HandleUpdate(t *testing.T) {
	store := seededStore()
	handler := NewMemberHandler(newTestRegistry(store))

	member, err := handler.HandleUpdate(context.Background(), testSession(t), memberRui, MemberPatch{
		BirthDate: strPtr("2001-07-04"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Rui", member.Name)
	assert.Equal(t, entities.RelationshipRelative, member.Relationship)
	require.NotNil(t, store.Members[memberRui].BirthDate)

	member, err = handler.HandleUpdate(context.Background(), testSession(t), memberRui, MemberPatch{
		Name:      strPtr("Rui Costa"),
		BirthDate: strPtr(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Rui Costa", member.Name)
	assert.Nil(t, store.Members[memberRui].BirthDate)
}

func TestMemberHandler_HandleUpdate_UnknownMember(t *testing.T) {
	handler := NewMemberHandler(newTestRegistry(seededStore()))

	_, err := handler.HandleUpdate(context.Background(), testSession(t), "nobody", MemberPatch{Name: strPtr("X")})

	assert.ErrorIs(t, err, entities.ErrUnknownMember)
}

func TestMemberHandler_HandleList(t *testing.T) {
	handler := NewMemberHandler(newTestRegistry(seededStore()))

	views, err := handler.HandleList(context.Background(), testSession(t), time.Date(2026, time.May, 9, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Lia", views[0].Member.Name)
	require.NotNil(t, views[0].Age)
	assert.Equal(t, 10, *views[0].Age)
	assert.Nil(t, views[1].Age)
}
