package dnd5e

import (
	"context"
	"errors"
	"testing"

	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	apiEntities "github.com/fadedpez/dnd5e-api/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMonsterAPI struct {
	monsters map[string]*apiEntities.Monster
	calls    int
}

func (f *fakeMonsterAPI) GetMonster(key string) (*apiEntities.Monster, error) {
	f.calls++
	m, ok := f.monsters[key]
	if !ok {
		return nil, errors.New("404")
	}
	return m, nil
}

func goblinFixture() *apiEntities.Monster {
	return &apiEntities.Monster{
		Key:             "goblin",
		Name:            "Goblin",
		ArmorClass:      15,
		HitPoints:       7,
		HitDice:         "2d6",
		ChallengeRating: 0.25,
		MonsterActions: []*apiEntities.MonsterAction{
			{Name: "Multiattack"},
			{
				Name:        "Scimitar",
				AttackBonus: 4,
				Damage:      []*apiEntities.Damage{{DamageDice: "1d6 + 2"}},
			},
		},
	}
}

func TestGetMonster_ConvertsAndCaches(t *testing.T) {
	api := &fakeMonsterAPI{monsters: map[string]*apiEntities.Monster{"goblin": goblinFixture()}}
	c := newClient(api)
	ctx := context.Background()

	monster, err := c.GetMonster(ctx, " Goblin ")
	require.NoError(t, err)
	assert.Equal(t, &Monster{
		Key:             "goblin",
		Name:            "Goblin",
		ArmorClass:      15,
		HitPoints:       7,
		HitDice:         "2d6",
		ChallengeRating: 0.25,
		AttackBonus:     4,
		DamageDice:      "1d6+2",
	}, monster)

	// Callers get their own copy
	monster.HitPoints = 1
	again, err := c.GetMonster(ctx, "goblin")
	require.NoError(t, err)
	assert.Equal(t, 7, again.HitPoints)
	assert.Equal(t, 1, api.calls)
}

func TestGetMonster_Errors(t *testing.T) {
	c := newClient(&fakeMonsterAPI{monsters: map[string]*apiEntities.Monster{}})

	_, err := c.GetMonster(context.Background(), "")
	assert.True(t, dnderr.IsInvalidArgument(err))

	_, err = c.GetMonster(context.Background(), "tarrasque")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.GetMonster(ctx, "tarrasque")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
