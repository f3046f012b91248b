package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/uniao/internal/domain/entities"
	"github.com/ersonp/uniao/internal/domain/mocks"
	"github.com/ersonp/uniao/internal/domain/ports"
	"github.com/ersonp/uniao/internal/infrastructure/config"
)

func newTestUnionsHandler(t *testing.T) (*UnionsHandler, *mocks.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store := mocks.NewStore()
	opener := func(path string) (ports.Store, error) {
		return store, nil
	}
	return NewUnionsHandler(dir, opener, nil), store, dir
}

func TestUnionsHandler_HandleCreate(t *testing.T) {
	handler, store, dir := newTestUnionsHandler(t)

	result, err := handler.HandleCreate(context.Background(), CreateUnionOptions{
		Profile:     "Ana e Bruno",
		Partners:    []string{"Ana", "Bruno"},
		Description: "household",
	})

	require.NoError(t, err)
	assert.True(t, result.ConfigCreated)
	assert.Equal(t, "ana_e_bruno", result.Profile)
	assert.Equal(t, "Ana & Bruno", result.DisplayName)
	assert.Equal(t, filepath.Join(dir, ".uniao", "unions", "ana_e_bruno", "uniao.db"), result.DatabasePath)
	assert.DirExists(t, filepath.Dir(result.DatabasePath))
	assert.True(t, config.Exists(dir))

	require.Contains(t, store.Unions, result.UnionID)
	assert.Equal(t, "Ana & Bruno", store.Unions[result.UnionID].DisplayName)

	unions, err := config.LoadUnions(dir)
	require.NoError(t, err)
	entry, err := unions.Get("ana_e_bruno")
	require.NoError(t, err)
	assert.Equal(t, result.UnionID, entry.UnionID)
	assert.Equal(t, "household", entry.Description)
}

func TestUnionsHandler_HandleCreate_Errors(t *testing.T) {
	t.Run("no partners", func(t *testing.T) {
		handler, _, _ := newTestUnionsHandler(t)
		_, err := handler.HandleCreate(context.Background(), CreateUnionOptions{Profile: "x"})
		assert.Error(t, err)
	})

	t.Run("three partners", func(t *testing.T) {
		handler, _, _ := newTestUnionsHandler(t)
		_, err := handler.HandleCreate(context.Background(), CreateUnionOptions{
			Profile: "x", Partners: []string{"a", "b", "c"},
		})
		assert.Error(t, err)
	})

	t.Run("duplicate profile", func(t *testing.T) {
		handler, _, _ := newTestUnionsHandler(t)
		opts := CreateUnionOptions{Profile: "home", Partners: []string{"Ana"}}
		_, err := handler.HandleCreate(context.Background(), opts)
		require.NoError(t, err)

		_, err = handler.HandleCreate(context.Background(), opts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("store cannot be opened", func(t *testing.T) {
		opener := func(string) (ports.Store, error) { return nil, errors.New("locked") }
		handler := NewUnionsHandler(t.TempDir(), opener, nil)
		_, err := handler.HandleCreate(context.Background(), CreateUnionOptions{Profile: "home", Partners: []string{"Ana"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening store")
	})

	t.Run("schema failure leaves profile unregistered", func(t *testing.T) {
		handler, store, dir := newTestUnionsHandler(t)
		store.Err = errors.New("read-only")
		_, err := handler.HandleCreate(context.Background(), CreateUnionOptions{Profile: "home", Partners: []string{"Ana"}})
		require.Error(t, err)

		unions, err := config.LoadUnions(dir)
		require.NoError(t, err)
		assert.False(t, unions.Exists("home"))
	})
}

func TestUnionsHandler_HandleList(t *testing.T) {
	handler, _, dir := newTestUnionsHandler(t)

	profiles, err := handler.HandleList()
	require.NoError(t, err)
	assert.Empty(t, profiles)

	for _, name := range []string{"zeta", "alpha"} {
		_, err := handler.HandleCreate(context.Background(), CreateUnionOptions{Profile: name, Partners: []string{"Ana"}})
		require.NoError(t, err)
	}

	profiles, err = handler.HandleList()
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "alpha", profiles[0].Name)
	assert.Equal(t, "zeta", profiles[1].Name)
	assert.Equal(t, filepath.Join(dir, ".uniao", "unions", "alpha", "uniao.db"), profiles[0].DatabasePath)
}

func TestUnionsHandler_HandleDelete(t *testing.T) {
	handler, _, dir := newTestUnionsHandler(t)
	_, err := handler.HandleCreate(context.Background(), CreateUnionOptions{Profile: "home", Partners: []string{"Ana"}})
	require.NoError(t, err)

	require.NoError(t, handler.HandleDelete("home", true))

	_, err = os.Stat(config.UnionDir(dir, "home"))
	assert.True(t, os.IsNotExist(err))

	unions, err := config.LoadUnions(dir)
	require.NoError(t, err)
	assert.False(t, unions.Exists("home"))

	assert.Error(t, handler.HandleDelete("home", false))
}

func TestUnionsHandler_OpenSession(t *testing.T) {
	handler, _, _ := newTestUnionsHandler(t)
	result, err := handler.HandleCreate(context.Background(), CreateUnionOptions{Profile: "home", Partners: []string{"Ana", "Bruno"}})
	require.NoError(t, err)

	session, err := handler.OpenSession("home")
	require.NoError(t, err)
	assert.Equal(t, result.UnionID, session.UnionID)
	assert.Equal(t, "home", session.UserID)

	_, err = handler.OpenSession("elsewhere")
	assert.Error(t, err)
}

func TestUnionsHandler_OpenSession_EmptyUnionID(t *testing.T) {
	handler, _, dir := newTestUnionsHandler(t)
	unions := &config.UnionsConfig{}
	unions.Add("broken", config.UnionEntry{})
	require.NoError(t, unions.Save(dir))

	_, err := handler.OpenSession("broken")
	assert.ErrorIs(t, err, entities.ErrUnauthenticated)
}
