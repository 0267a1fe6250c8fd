package combat

import (
	"fmt"
	"sort"
	"strings"
)

// InitiativeEntry reports one combatant's initiative roll. An empty Kind
// matches either side.
type InitiativeEntry struct {
	ID         string `json:"id"`
	Initiative int    `json:"initiative"`
	Kind       Kind   `json:"kind"`
}

// ValidateInitiative rejects malformed entries before anything is applied
func ValidateInitiative(entries []InitiativeEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("at least one initiative entry is required")
	}
	for i, e := range entries {
		if strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("initiative entry %d: id is required", i)
		}
		if e.Kind != "" && !e.Kind.IsValid() {
			return fmt.Errorf("initiative entry %d: unknown kind %q", i, e.Kind)
		}
		if e.Initiative < 0 {
			return fmt.Errorf("initiative entry %d: initiative cannot be negative", i)
		}
	}
	return nil
}

// RecordInitiative applies rolls to matching combatants and builds the turn
// order once everyone has rolled. Unknown ids are ignored. Once built, the
// order is never rebuilt for the rest of the encounter.
func (s *State) RecordInitiative(entries []InitiativeEntry) (complete bool) {
	for _, e := range entries {
		v := e.Initiative
		if e.Kind != KindEnemy {
			if p := s.FindPlayer(e.ID); p != nil {
				p.Initiative = &v
			}
		}
		if e.Kind != KindPlayer {
			if en := s.FindEnemy(e.ID); en != nil {
				en.Initiative = &v
			}
		}
	}

	if len(s.InitiativeOrder) > 0 {
		return true
	}
	if !s.AllRolled() {
		return false
	}

	s.buildOrder()
	return true
}

// AllRolled reports whether every player and every enemy has an initiative
func (s *State) AllRolled() bool {
	for _, p := range s.Combatants.Players {
		if p.Initiative == nil {
			return false
		}
	}
	for _, e := range s.Combatants.Enemies {
		if e.Initiative == nil {
			return false
		}
	}
	return true
}

// UnrolledEnemies returns enemies still waiting for an initiative roll
func (s *State) UnrolledEnemies() []*EnemyCombatant {
	var out []*EnemyCombatant
	for _, e := range s.Combatants.Enemies {
		if e.Initiative == nil {
			out = append(out, e)
		}
	}
	return out
}

// buildOrder lists players then enemies and stable-sorts by initiative
// descending, so ties keep insertion order. Combat officially begins here.
func (s *State) buildOrder() {
	order := make([]ParticipantRef, 0, len(s.Combatants.Players)+len(s.Combatants.Enemies))
	for _, p := range s.Combatants.Players {
		order = append(order, ParticipantRef{ID: p.CharacterID, Name: p.Name, Initiative: *p.Initiative, Kind: KindPlayer})
	}
	for _, e := range s.Combatants.Enemies {
		order = append(order, ParticipantRef{ID: e.ID, Name: e.Name, Initiative: *e.Initiative, Kind: KindEnemy})
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Initiative > order[j].Initiative
	})

	s.InitiativeOrder = order
	s.TurnIndex = 0
	s.Round = 1

	// Enemies killed while initiative was still being collected never act.
	for i := 0; i < len(order) && s.skipped(order[s.TurnIndex]); i++ {
		s.TurnIndex = (s.TurnIndex + 1) % len(order)
	}
}
