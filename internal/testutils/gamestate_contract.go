package testutils

import (
	"context"
	"errors"
	"sync"
	"testing"

	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/KirkDiggler/dm-table/internal/repositories/gamestate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRepositoryContract exercises behavior every gamestate.Repository must share.
// newRepo must return an empty repository on each call.
func RunRepositoryContract(t *testing.T, newRepo func(t *testing.T) gamestate.Repository) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, "s1"))

		snap, err := repo.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "s1", snap.SessionID)
		assert.Equal(t, int64(0), snap.Version)
		assert.False(t, snap.Paused)
		assert.False(t, snap.Combat.Active)
		assert.NotNil(t, snap.Combat.InitiativeOrder)
	})

	t.Run("duplicate create", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, "s1"))
		assert.True(t, dnderr.IsAlreadyExists(repo.Create(ctx, "s1")))
	})

	t.Run("ids are used verbatim", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, " s1 "))

		snap, err := repo.Get(ctx, " s1 ")
		require.NoError(t, err)
		assert.Equal(t, " s1 ", snap.SessionID)
		require.NoError(t, repo.SetPaused(ctx, " s1 ", true))

		_, err = repo.Get(ctx, "s1")
		assert.True(t, dnderr.IsNotFound(err))
	})

	t.Run("missing session", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(ctx, "nope")
		assert.True(t, dnderr.IsNotFound(err))
		assert.True(t, dnderr.IsNotFound(repo.SetPaused(ctx, "nope", true)))
		_, err = repo.ListRoster(ctx, "nope")
		assert.True(t, dnderr.IsNotFound(err))
		assert.True(t, dnderr.IsNotFound(repo.PutRosterMember(ctx, "nope", CreateTestMember("c1", "A", 10, 12))))
		_, err = repo.SaveCombat(ctx, "nope", CreateResolvingState("c1"), 0, nil)
		assert.True(t, dnderr.IsNotFound(err))
	})

	t.Run("save bumps version and mirrors hp", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, "s1"))
		require.NoError(t, repo.PutRosterMember(ctx, "s1", CreateTestMember("hero", "Hero", 20, 15)))
		require.NoError(t, repo.PutRosterMember(ctx, "s1", CreateTestMember("bard", "Bard", 12, 13)))

		state := CreateResolvingState("hero")
		state.FindPlayer("hero").CurrentHP = 6

		version, err := repo.SaveCombat(ctx, "s1", state, 0, gamestate.PlayerHPFrom(state))
		require.NoError(t, err)
		assert.Equal(t, int64(1), version)

		snap, err := repo.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), snap.Version)
		assert.Equal(t, state, snap.Combat)

		roster, err := repo.ListRoster(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, roster, 2)
		assert.Equal(t, "bard", roster[0].CharacterID)
		assert.Equal(t, 12, roster[0].CurrentHP)
		assert.Equal(t, "hero", roster[1].CharacterID)
		assert.Equal(t, 6, roster[1].CurrentHP)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, "s1"))
		state := CreateResolvingState("hero")

		_, err := repo.SaveCombat(ctx, "s1", state, 0, nil)
		require.NoError(t, err)

		_, err = repo.SaveCombat(ctx, "s1", state, 0, nil)
		assert.True(t, errors.Is(err, gamestate.ErrVersionConflict))

		snap, err := repo.Get(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), snap.Version)
	})

	t.Run("pause leaves combat untouched", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, "s1"))
		state := CreateResolvingState("hero")
		_, err := repo.SaveCombat(ctx, "s1", state, 0, nil)
		require.NoError(t, err)

		require.NoError(t, repo.SetPaused(ctx, "s1", true))

		snap, err := repo.Get(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, snap.Paused)
		assert.Equal(t, int64(1), snap.Version)
		assert.Equal(t, state, snap.Combat)

		require.NoError(t, repo.SetPaused(ctx, "s1", false))
		snap, err = repo.Get(ctx, "s1")
		require.NoError(t, err)
		assert.False(t, snap.Paused)
	})

	t.Run("roster upsert and validation", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, "s1"))
		require.NoError(t, repo.PutRosterMember(ctx, "s1", CreateTestMember("hero", "Hero", 20, 15)))

		updated := CreateTestMember("hero", "Hero the Bold", 24, 16)
		require.NoError(t, repo.PutRosterMember(ctx, "s1", updated))

		roster, err := repo.ListRoster(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, roster, 1)
		assert.Equal(t, *updated, *roster[0])

		bad := CreateTestMember("hero", "Hero", 20, 15)
		bad.CurrentHP = 30
		assert.True(t, dnderr.IsInvalidArgument(repo.PutRosterMember(ctx, "s1", bad)))
	})

	t.Run("only one concurrent save wins per version", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, "s1"))
		state := CreateResolvingState("hero")

		const writers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			wins      int
			conflicts int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.SaveCombat(ctx, "s1", state, 0, nil)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, gamestate.ErrVersionConflict):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, writers-1, conflicts)
	})
}
