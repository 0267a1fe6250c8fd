//go:build integration
// +build integration

package gamestate_test

import (
	"testing"
	"time"

	"github.com/KirkDiggler/dm-table/internal/repositories/gamestate"
	"github.com/KirkDiggler/dm-table/internal/testutils"
)

func TestRedisRepository_Integration(t *testing.T) {
	// Requires Docker; skipped otherwise
	client := testutils.StartRedisContainer(t)

	testutils.RunRepositoryContract(t, func(t *testing.T) gamestate.Repository {
		if err := client.FlushDB(t.Context()).Err(); err != nil {
			t.Fatalf("flush: %v", err)
		}
		return gamestate.NewRedis(client, time.Hour)
	})
}
