package narration_test

import (
	"context"
	"testing"

	domain "github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/KirkDiggler/dm-table/internal/services/combat"
	mockcombat "github.com/KirkDiggler/dm-table/internal/services/combat/mock"
	"github.com/KirkDiggler/dm-table/internal/services/narration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("narrative only touches nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mockcombat.NewMockService(ctrl)
		d := narration.NewDispatcher(svc)

		result, err := d.Dispatch(ctx, "s1", &narration.Suggestion{Narrative: "The tavern is quiet."})
		require.NoError(t, err)
		assert.Nil(t, result.Started)
		assert.Nil(t, result.Updated)
		assert.Empty(t, result.Skipped)
	})

	t.Run("start then update", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mockcombat.NewMockService(ctrl)
		d := narration.NewDispatcher(svc)

		s := &narration.Suggestion{
			Narrative:   "Ambush!",
			StartCombat: []domain.EnemySpec{{Name: "Bandit", Count: 2, HP: 11, AC: 10, DamageDice: "1d6+1"}},
			AdvanceTurn: true,
		}

		gomock.InOrder(
			svc.EXPECT().StartCombat(ctx, &combat.StartCombatInput{SessionID: "s1", Enemies: s.StartCombat}).
				Return(&combat.StartCombatResult{Message: "Combat initialized with 1 players and 2 enemies"}, nil),
			svc.EXPECT().ApplyCombatUpdate(ctx, &combat.ApplyCombatUpdateInput{SessionID: "s1", AdvanceTurn: true}).
				Return(&combat.ApplyCombatUpdateResult{Version: 2}, nil),
		)

		result, err := d.Dispatch(ctx, "s1", s)
		require.NoError(t, err)
		require.NotNil(t, result.Started)
		require.NotNil(t, result.Updated)
		assert.Equal(t, int64(2), result.Updated.Version)
	})

	t.Run("update while idle is skipped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mockcombat.NewMockService(ctrl)
		d := narration.NewDispatcher(svc)

		changes := &domain.Changes{Damage: []domain.HPChange{{TargetID: "goblin_1", Amount: 3}}}
		svc.EXPECT().ApplyCombatUpdate(ctx, gomock.Any()).Return(nil, dnderr.NoActiveCombat("no active combat"))

		result, err := d.Dispatch(ctx, "s1", &narration.Suggestion{Narrative: "You swing.", Changes: changes})
		require.NoError(t, err)
		assert.Equal(t, "no active combat", result.Skipped)
		assert.Equal(t, "You swing.", result.Suggestion.Narrative)
	})

	t.Run("other failures propagate", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mockcombat.NewMockService(ctrl)
		d := narration.NewDispatcher(svc)

		svc.EXPECT().ApplyCombatUpdate(ctx, gomock.Any()).Return(nil, dnderr.SessionPaused("session is paused"))

		_, err := d.Dispatch(ctx, "s1", &narration.Suggestion{Narrative: "Next!", AdvanceTurn: true})
		assert.True(t, dnderr.IsSessionPaused(err))
	})

	t.Run("nil suggestion", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		d := narration.NewDispatcher(mockcombat.NewMockService(ctrl))

		_, err := d.Dispatch(ctx, "s1", nil)
		assert.True(t, dnderr.IsInvalidArgument(err))
	})
}
