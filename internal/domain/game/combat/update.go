package combat

import (
	"fmt"
	"strings"
)

// HPChange is a damage or healing amount aimed at a combatant id
type HPChange struct {
	TargetID string `json:"target_id"`
	Amount   int    `json:"amount"`
}

// ConditionChange adds or removes conditions on a combatant id
type ConditionChange struct {
	TargetID   string   `json:"target_id"`
	Conditions []string `json:"conditions"`
}

// Changes is one logical combat update. Ids may name a player (character id)
// or an enemy; unresolved ids are ignored.
type Changes struct {
	Damage            []HPChange        `json:"damage_dealt,omitempty"`
	Healing           []HPChange        `json:"healing,omitempty"`
	ConditionsAdded   []ConditionChange `json:"conditions_added,omitempty"`
	ConditionsRemoved []ConditionChange `json:"conditions_removed,omitempty"`
	EnemiesKilled     []string          `json:"enemies_killed,omitempty"`
	TurnComplete      bool              `json:"turn_complete,omitempty"`
}

// IsEmpty reports whether the update carries no mutation
func (c *Changes) IsEmpty() bool {
	return c == nil || (len(c.Damage) == 0 && len(c.Healing) == 0 &&
		len(c.ConditionsAdded) == 0 && len(c.ConditionsRemoved) == 0 &&
		len(c.EnemiesKilled) == 0 && !c.TurnComplete)
}

// Validate rejects malformed amounts before any mutation
func (c *Changes) Validate() error {
	if c == nil {
		return nil
	}
	for i, d := range c.Damage {
		if d.Amount < 0 {
			return fmt.Errorf("damage entry %d: amount cannot be negative", i)
		}
	}
	for i, h := range c.Healing {
		if h.Amount < 0 {
			return fmt.Errorf("healing entry %d: amount cannot be negative", i)
		}
	}
	return nil
}

// Outcome summarizes what an update did
type Outcome struct {
	Ended          bool     // combat became inactive during this update
	Advanced       bool     // the turn pointer moved
	IgnoredTargets []string // ids that matched no combatant
}

// Apply runs one update in fixed order: damage, healing, conditions added,
// conditions removed, kills, turn advance, end check. The end check runs
// unconditionally.
func (s *State) Apply(changes *Changes, advance bool) Outcome {
	var out Outcome
	ignored := make(map[string]bool)
	miss := func(id string, matched bool) {
		if !matched && !ignored[id] {
			ignored[id] = true
			out.IgnoredTargets = append(out.IgnoredTargets, id)
		}
	}

	wasActive := s.Active
	if changes != nil {
		for _, d := range changes.Damage {
			miss(d.TargetID, s.damage(d.TargetID, d.Amount))
		}
		for _, h := range changes.Healing {
			miss(h.TargetID, s.heal(h.TargetID, h.Amount))
		}
		for _, c := range changes.ConditionsAdded {
			miss(c.TargetID, s.addConditions(c.TargetID, c.Conditions))
		}
		for _, c := range changes.ConditionsRemoved {
			miss(c.TargetID, s.removeConditions(c.TargetID, c.Conditions))
		}
		for _, id := range changes.EnemiesKilled {
			miss(id, s.kill(id))
		}
		advance = advance || changes.TurnComplete
	}

	if advance {
		out.Advanced = s.advanceTurn()
	}

	s.checkEnd()
	out.Ended = wasActive && !s.Active
	return out
}

func (s *State) damage(id string, amount int) bool {
	matched := false
	if p := s.FindPlayer(id); p != nil {
		p.CurrentHP = clamp(p.CurrentHP-amount, 0, p.MaxHP)
		matched = true
	}
	if e := s.FindEnemy(id); e != nil {
		e.CurrentHP = clamp(e.CurrentHP-amount, 0, e.MaxHP)
		e.IsAlive = e.CurrentHP > 0
		matched = true
	}
	return matched
}

// heal never revives a dead enemy. Players at 0 HP are unconscious, not
// dead, and can be healed.
func (s *State) heal(id string, amount int) bool {
	matched := false
	if p := s.FindPlayer(id); p != nil {
		p.CurrentHP = addHP(p.CurrentHP, amount, p.MaxHP)
		matched = true
	}
	if e := s.FindEnemy(id); e != nil {
		if e.IsAlive {
			e.CurrentHP = addHP(e.CurrentHP, amount, e.MaxHP)
		}
		matched = true
	}
	return matched
}

// addHP caps before adding so huge amounts cannot wrap past max.
func addHP(current, amount, maxHP int) int {
	if amount >= maxHP-current {
		return maxHP
	}
	return clamp(current+amount, 0, maxHP)
}

func (s *State) addConditions(id string, conditions []string) bool {
	matched := false
	if p := s.FindPlayer(id); p != nil {
		p.Conditions = unionConditions(p.Conditions, conditions)
		matched = true
	}
	if e := s.FindEnemy(id); e != nil {
		e.Conditions = unionConditions(e.Conditions, conditions)
		matched = true
	}
	return matched
}

func (s *State) removeConditions(id string, conditions []string) bool {
	matched := false
	if p := s.FindPlayer(id); p != nil {
		p.Conditions = subtractConditions(p.Conditions, conditions)
		matched = true
	}
	if e := s.FindEnemy(id); e != nil {
		e.Conditions = subtractConditions(e.Conditions, conditions)
		matched = true
	}
	return matched
}

func (s *State) kill(id string) bool {
	e := s.FindEnemy(id)
	if e == nil {
		return false
	}
	e.CurrentHP = 0
	e.IsAlive = false
	return true
}

// advanceTurn moves to the next participant that can act, wrapping into a
// new round as needed. Dead enemies are skipped; players never are. The scan
// is bounded by the order length.
func (s *State) advanceTurn() bool {
	n := len(s.InitiativeOrder)
	if n == 0 {
		return false
	}

	s.step()
	for i := 0; i < n && s.skipped(s.InitiativeOrder[s.TurnIndex]); i++ {
		s.step()
	}
	return true
}

func (s *State) step() {
	s.TurnIndex++
	if s.TurnIndex >= len(s.InitiativeOrder) {
		s.TurnIndex = 0
		s.Round++
	}
}

func (s *State) skipped(ref ParticipantRef) bool {
	if ref.Kind != KindEnemy {
		return false
	}
	e := s.FindEnemy(ref.ID)
	return e != nil && !e.IsAlive
}

func (s *State) checkEnd() {
	if s.Active && (s.allEnemiesDown() || s.allPlayersDown()) {
		s.Active = false
	}
}

func unionConditions(current, add []string) []string {
	out := append([]string{}, current...)
	for _, c := range add {
		c = strings.TrimSpace(c)
		if c == "" || containsCondition(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func subtractConditions(current, remove []string) []string {
	out := make([]string, 0, len(current))
	for _, c := range current {
		if !containsCondition(remove, c) {
			out = append(out, c)
		}
	}
	return out
}

func containsCondition(list []string, c string) bool {
	for _, existing := range list {
		if strings.EqualFold(strings.TrimSpace(existing), c) {
			return true
		}
	}
	return false
}
