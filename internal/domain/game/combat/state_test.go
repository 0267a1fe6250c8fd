package combat_test

import (
	"encoding/json"
	"testing"

	"github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const heroID = "char-hero"

func goblins(t *testing.T, count int) []*combat.EnemyCombatant {
	t.Helper()
	enemies, err := combat.BuildEnemies([]combat.EnemySpec{
		{Name: "Goblin", Count: count, HP: 7, AC: 9, AttackBonus: 4, DamageDice: "1d6+2"},
	})
	require.NoError(t, err)
	return enemies
}

func startedState(t *testing.T) *combat.State {
	t.Helper()
	state := combat.NewState()
	require.NoError(t, state.Start(
		[]*combat.PlayerCombatant{combat.NewPlayer(heroID, "Hero", 20, 20, 15)},
		goblins(t, 2),
	))
	return state
}

func resolvingState(t *testing.T) *combat.State {
	t.Helper()
	state := startedState(t)
	require.True(t, state.RecordInitiative([]combat.InitiativeEntry{
		{ID: heroID, Initiative: 15, Kind: combat.KindPlayer},
		{ID: "goblin_1", Initiative: 10, Kind: combat.KindEnemy},
		{ID: "goblin_2", Initiative: 8, Kind: combat.KindEnemy},
	}))
	return state
}

func TestNewState_IsIdle(t *testing.T) {
	state := combat.NewState()

	assert.False(t, state.Active)
	assert.Equal(t, combat.PhaseIdle, state.Phase())
	assert.Empty(t, state.InitiativeOrder)
	assert.NotNil(t, state.Combatants.Players)
	assert.NotNil(t, state.Combatants.Enemies)
	assert.NoError(t, state.CheckInvariants())
	assert.Nil(t, state.Current())
}

func TestStart_ExpandsTemplates(t *testing.T) {
	state := startedState(t)

	require.Len(t, state.Combatants.Enemies, 2)
	assert.Equal(t, "goblin_1", state.Combatants.Enemies[0].ID)
	assert.Equal(t, "Goblin #1", state.Combatants.Enemies[0].Name)
	assert.Equal(t, "goblin_2", state.Combatants.Enemies[1].ID)
	for _, e := range state.Combatants.Enemies {
		assert.True(t, e.IsAlive)
		assert.Equal(t, 7, e.CurrentHP)
		assert.Equal(t, "1d6+2", e.DamageDice)
		assert.Nil(t, e.Initiative)
	}

	assert.True(t, state.Active)
	assert.Equal(t, 0, state.Round)
	assert.Equal(t, 0, state.TurnIndex)
	assert.Empty(t, state.InitiativeOrder)
	assert.Equal(t, combat.PhaseAwaitingInitiative, state.Phase())
	assert.NoError(t, state.CheckInvariants())
}

func TestStart_Validation(t *testing.T) {
	t.Run("requires players", func(t *testing.T) {
		err := combat.NewState().Start(nil, goblins(t, 1))
		assert.Error(t, err)
	})

	t.Run("requires enemies", func(t *testing.T) {
		err := combat.NewState().Start([]*combat.PlayerCombatant{combat.NewPlayer(heroID, "Hero", 5, 10, 12)}, nil)
		assert.Error(t, err)
	})

	t.Run("requires a conscious player", func(t *testing.T) {
		err := combat.NewState().Start([]*combat.PlayerCombatant{combat.NewPlayer(heroID, "Hero", 0, 10, 12)}, goblins(t, 1))
		assert.Error(t, err)
	})

	t.Run("rejects duplicate players", func(t *testing.T) {
		err := combat.NewState().Start([]*combat.PlayerCombatant{
			combat.NewPlayer(heroID, "Hero", 5, 10, 12),
			combat.NewPlayer(heroID, "Hero again", 5, 10, 12),
		}, goblins(t, 1))
		assert.Error(t, err)
	})
}

func TestNewPlayer_ClampsHP(t *testing.T) {
	assert.Equal(t, 20, combat.NewPlayer(heroID, "Hero", 25, 20, 10).CurrentHP)
	assert.Equal(t, 0, combat.NewPlayer(heroID, "Hero", -3, 20, 10).CurrentHP)
}

func TestBuildEnemies(t *testing.T) {
	t.Run("sequence is per name across templates", func(t *testing.T) {
		enemies, err := combat.BuildEnemies([]combat.EnemySpec{
			{Name: "Giant Rat", Count: 1, HP: 7, AC: 12},
			{Name: "giant  rat", Count: 1, HP: 9, AC: 12},
			{Name: "Bandit", Count: 1, HP: 11, AC: 12, DamageDice: "1d6 + 1"},
		})
		require.NoError(t, err)
		require.Len(t, enemies, 3)
		assert.Equal(t, "giant_rat_1", enemies[0].ID)
		assert.Equal(t, "giant_rat_2", enemies[1].ID)
		assert.Equal(t, "bandit_1", enemies[2].ID)
		assert.Equal(t, combat.DefaultDamageDice, enemies[0].DamageDice)
		assert.Equal(t, "1d6+1", enemies[2].DamageDice)
	})

	tests := []struct {
		name  string
		specs []combat.EnemySpec
	}{
		{name: "empty list", specs: nil},
		{name: "zero count", specs: []combat.EnemySpec{{Name: "Goblin", Count: 0, HP: 7}}},
		{name: "negative count", specs: []combat.EnemySpec{{Name: "Goblin", Count: -1, HP: 7}}},
		{name: "missing name", specs: []combat.EnemySpec{{Name: " ", Count: 1, HP: 7}}},
		{name: "zero hp", specs: []combat.EnemySpec{{Name: "Goblin", Count: 1, HP: 0}}},
		{name: "bad dice", specs: []combat.EnemySpec{{Name: "Goblin", Count: 1, HP: 7, DamageDice: "club"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := combat.BuildEnemies(tt.specs)
			assert.Error(t, err)
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "goblin", combat.Slug("Goblin"))
	assert.Equal(t, "giant_rat", combat.Slug("  Giant Rat "))
	assert.Equal(t, "orc_war_chief", combat.Slug("Orc War-Chief!"))
	assert.Equal(t, "enemy", combat.Slug("!!!"))
}

func TestEnd_IsIdempotent(t *testing.T) {
	state := resolvingState(t)

	state.End()
	once, err := json.Marshal(state)
	require.NoError(t, err)

	state.End()
	twice, err := json.Marshal(state)
	require.NoError(t, err)

	assert.JSONEq(t, string(once), string(twice))
	assert.Equal(t, combat.PhaseIdle, state.Phase())
	assert.Empty(t, state.Combatants.Enemies)
}

func TestClone_IsDeep(t *testing.T) {
	state := resolvingState(t)
	clone := state.Clone()

	clone.Combatants.Players[0].CurrentHP = 1
	clone.Combatants.Enemies[0].Conditions = append(clone.Combatants.Enemies[0].Conditions, "prone")
	*clone.Combatants.Enemies[1].Initiative = 99
	clone.InitiativeOrder[0].Name = "changed"

	assert.Equal(t, 20, state.Combatants.Players[0].CurrentHP)
	assert.Empty(t, state.Combatants.Enemies[0].Conditions)
	assert.Equal(t, 8, *state.Combatants.Enemies[1].Initiative)
	assert.Equal(t, "Hero", state.InitiativeOrder[0].Name)
}

func TestNormalize_FillsNilSlices(t *testing.T) {
	var state combat.State
	require.NoError(t, json.Unmarshal([]byte(`{"active":false,"combatants":{"players":[{"character_id":"a","max_hp":5,"current_hp":5}]}}`), &state))

	state.Normalize()

	assert.NotNil(t, state.InitiativeOrder)
	assert.NotNil(t, state.Combatants.Enemies)
	assert.NotNil(t, state.Combatants.Players[0].Conditions)
}

func TestState_JSONLayout(t *testing.T) {
	state := resolvingState(t)

	data, err := json.Marshal(state)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "turn_index")
	assert.Contains(t, doc, "initiative_order")
	combatants := doc["combatants"].(map[string]any)
	enemies := combatants["enemies"].([]any)
	first := enemies[0].(map[string]any)
	assert.Equal(t, true, first["is_alive"])
	assert.Equal(t, "1d6+2", first["damage_dice"])
}
