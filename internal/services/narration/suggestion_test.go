package narration_test

import (
	"testing"

	domain "github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/KirkDiggler/dm-table/internal/services/narration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestion_FullResponse(t *testing.T) {
	raw := "```json\n" + `{
  "narrative": "The goblin shrieks as Gorak's axe lands.",
  "request_roll": {"character": "Elara", "type": "attack", "reason": "Firebolt"},
  "dm_rolls": [
    {"name": "Goblin #2 attack", "dice": "1d20+4", "result": 17},
    {"name": "broken", "dice": "1d6"}
  ],
  "combat_update": {
    "damage": [{"target_id": "goblin_1", "amount": 6}, {"target_id": "", "amount": 3}, {"target_id": "gorak", "amount": "lots"}],
    "healing": [{"target_id": "gorak", "amount": 4}],
    "conditions_added": [{"target_id": "goblin_2", "conditions": ["prone", ""]}],
    "deaths": ["goblin_3"],
    "advance_turn": true
  }
}` + "\n```"

	s, err := narration.ParseSuggestion(raw)
	require.NoError(t, err)

	assert.Equal(t, "The goblin shrieks as Gorak's axe lands.", s.Narrative)
	assert.Equal(t, &narration.RollRequest{Character: "Elara", Type: narration.RollAttack, Reason: "Firebolt"}, s.RequestRoll)
	assert.Equal(t, []narration.DMRoll{{Name: "Goblin #2 attack", Dice: "1d20+4", Result: 17}}, s.DMRolls)
	assert.True(t, s.AdvanceTurn)
	assert.True(t, s.HasCombatUpdate())

	require.NotNil(t, s.Changes)
	assert.Equal(t, []domain.HPChange{{TargetID: "goblin_1", Amount: 6}}, s.Changes.Damage)
	assert.Equal(t, []domain.HPChange{{TargetID: "gorak", Amount: 4}}, s.Changes.Healing)
	assert.Equal(t, []domain.ConditionChange{{TargetID: "goblin_2", Conditions: []string{"prone"}}}, s.Changes.ConditionsAdded)
	assert.Equal(t, []string{"goblin_3"}, s.Changes.EnemiesKilled)
}

func TestParseSuggestion_StartCombat(t *testing.T) {
	raw := `{
  "narrative": "Rats pour out of the sewer grate!",
  "combat_update": {
    "start_combat": {
      "enemies": [
        {"name": "Giant Rat", "count": 3, "hp": 7, "ac": 8, "attack_bonus": 4},
        {"name": "Nameless", "count": 0, "hp": 7, "ac": 8},
        {"name": "Goblin", "count": 1, "hp": 7, "ac": 9, "attack_bonus": 4, "damage_dice": "1d6+2"}
      ]
    }
  }
}`

	s, err := narration.ParseSuggestion(raw)
	require.NoError(t, err)
	assert.False(t, s.HasCombatUpdate())
	assert.Nil(t, s.Changes)
	assert.Equal(t, []domain.EnemySpec{
		{Name: "Giant Rat", Count: 3, HP: 7, AC: 8, AttackBonus: 4, DamageDice: "1d4"},
		{Name: "Goblin", Count: 1, HP: 7, AC: 9, AttackBonus: 4, DamageDice: "1d6+2"},
	}, s.StartCombat)
}

func TestParseSuggestion_AliasFields(t *testing.T) {
	s, err := narration.ParseSuggestion(`{
  "narrative": "It falls.",
  "combat_update": {"damage_dealt": [{"target_id": "orc_1", "amount": 15}], "enemies_killed": ["orc_1"], "turn_complete": true}
}`)
	require.NoError(t, err)
	require.NotNil(t, s.Changes)
	assert.Equal(t, []domain.HPChange{{TargetID: "orc_1", Amount: 15}}, s.Changes.Damage)
	assert.Equal(t, []string{"orc_1"}, s.Changes.EnemiesKilled)
	assert.True(t, s.AdvanceTurn)
}

func TestParseSuggestion_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "The DM ponders..."},
		{"truncated", `{"narrative": "half`},
		{"missing narrative", `{"combat_update": {"advance_turn": true}}`},
		{"blank narrative", `{"narrative": "   "}`},
		{"narrative not a string", `{"narrative": 12}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := narration.ParseSuggestion(tt.raw)
			assert.True(t, dnderr.IsInvalidArgument(err), "got %v", err)
		})
	}
}

func TestParseSuggestion_DropsBadRollRequest(t *testing.T) {
	s, err := narration.ParseSuggestion("```\n" + `{"narrative": "Roll!", "request_roll": {"character": "Elara", "type": "dance", "reason": "fun"}}` + "\n```")
	require.NoError(t, err)
	assert.Nil(t, s.RequestRoll)
	assert.False(t, s.HasCombatUpdate())
}
