package testutils

import (
	"github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	"github.com/KirkDiggler/dm-table/internal/repositories/gamestate"
)

// CreateTestMember creates a roster member at full health
func CreateTestMember(characterID, name string, maxHP, ac int) *gamestate.RosterMember {
	return &gamestate.RosterMember{
		CharacterID: characterID,
		Name:        name,
		CurrentHP:   maxHP,
		MaxHP:       maxHP,
		AC:          ac,
	}
}

// CreateGoblinSpec creates an enemy template for count goblins
func CreateGoblinSpec(count int) combat.EnemySpec {
	return combat.EnemySpec{
		Name:        "Goblin",
		Count:       count,
		HP:          7,
		AC:          15,
		AttackBonus: 4,
		DamageDice:  "1d6+2",
	}
}

// CreateResolvingState creates a state with one player and two goblins
// whose turn order is already built: hero 15, goblin_1 10, goblin_2 8
func CreateResolvingState(heroID string) *combat.State {
	state := combat.NewState()
	enemies, err := combat.BuildEnemies([]combat.EnemySpec{CreateGoblinSpec(2)})
	if err != nil {
		panic(err)
	}
	if err := state.Start([]*combat.PlayerCombatant{combat.NewPlayer(heroID, "Hero", 20, 20, 15)}, enemies); err != nil {
		panic(err)
	}
	state.RecordInitiative([]combat.InitiativeEntry{
		{ID: heroID, Initiative: 15, Kind: combat.KindPlayer},
		{ID: "goblin_1", Initiative: 10, Kind: combat.KindEnemy},
		{ID: "goblin_2", Initiative: 8, Kind: combat.KindEnemy},
	})
	return state
}
