package dnd5e

//go:generate mockgen -destination=mock/mock_client.go -package=mockdnd5e -source=interface.go

import "context"

// Client looks up SRD reference data used to fill in encounter templates
type Client interface {
	// GetMonster returns the monster with the given SRD key, e.g. "goblin"
	GetMonster(ctx context.Context, key string) (*Monster, error)
}

// Monster is the subset of an SRD stat block an encounter needs
type Monster struct {
	Key             string
	Name            string
	ArmorClass      int
	HitPoints       int
	HitDice         string
	ChallengeRating float64
	AttackBonus     int    // from the first attack action
	DamageDice      string // canonical notation, empty when the API had none
}
