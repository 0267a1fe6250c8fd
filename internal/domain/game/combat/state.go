package combat

import (
	"fmt"
)

// Kind distinguishes the two sides of an encounter
type Kind string

const (
	KindPlayer Kind = "player"
	KindEnemy  Kind = "enemy"
)

// IsValid reports whether k names a known side. The empty kind is accepted by
// lookups that search both sides.
func (k Kind) IsValid() bool {
	return k == KindPlayer || k == KindEnemy
}

// Phase is the derived lifecycle position of a State
type Phase string

const (
	PhaseIdle               Phase = "idle"                // No encounter running
	PhaseAwaitingInitiative Phase = "awaiting_initiative" // Started, turn order not yet built
	PhaseResolving          Phase = "resolving"           // Turn order built, turns advancing
)

// ParticipantRef is one slot in the turn order. HP and AC live on the
// combatant records, looked up by ID.
type ParticipantRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Initiative int    `json:"initiative"`
	Kind       Kind   `json:"kind"`
}

// PlayerCombatant is a session character taking part in an encounter
type PlayerCombatant struct {
	CharacterID string   `json:"character_id"`
	Name        string   `json:"name"`
	CurrentHP   int      `json:"current_hp"`
	MaxHP       int      `json:"max_hp"`
	AC          int      `json:"ac"`
	Initiative  *int     `json:"initiative"` // nil until rolled
	Conditions  []string `json:"conditions"`
}

// EnemyCombatant is a DM-controlled participant. Its HP exists only inside
// the encounter.
type EnemyCombatant struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	CurrentHP   int      `json:"current_hp"`
	MaxHP       int      `json:"max_hp"`
	AC          int      `json:"ac"`
	Initiative  *int     `json:"initiative"` // nil until rolled
	AttackBonus int      `json:"attack_bonus"`
	DamageDice  string   `json:"damage_dice"`
	IsAlive     bool     `json:"is_alive"`
	Conditions  []string `json:"conditions"`
}

// Combatants holds both sides of an encounter
type Combatants struct {
	Players []*PlayerCombatant `json:"players"`
	Enemies []*EnemyCombatant  `json:"enemies"`
}

// State is the single combat document stored with a session
type State struct {
	Active          bool             `json:"active"`
	Round           int              `json:"round"`
	TurnIndex       int              `json:"turn_index"`
	InitiativeOrder []ParticipantRef `json:"initiative_order"`
	Combatants      Combatants       `json:"combatants"`
}

// NewState returns an idle state with empty combatant lists
func NewState() *State {
	return &State{
		InitiativeOrder: []ParticipantRef{},
		Combatants: Combatants{
			Players: []*PlayerCombatant{},
			Enemies: []*EnemyCombatant{},
		},
	}
}

// NewPlayer builds a player combatant, clamping current HP into [0, maxHP]
func NewPlayer(characterID, name string, currentHP, maxHP, ac int) *PlayerCombatant {
	return &PlayerCombatant{
		CharacterID: characterID,
		Name:        name,
		CurrentHP:   clamp(currentHP, 0, maxHP),
		MaxHP:       maxHP,
		AC:          ac,
		Conditions:  []string{},
	}
}

// Phase derives the lifecycle phase from the stored fields
func (s *State) Phase() Phase {
	switch {
	case !s.Active:
		return PhaseIdle
	case len(s.InitiativeOrder) == 0:
		return PhaseAwaitingInitiative
	default:
		return PhaseResolving
	}
}

// Start populates the encounter. Any previous encounter is discarded.
func (s *State) Start(players []*PlayerCombatant, enemies []*EnemyCombatant) error {
	if len(players) == 0 {
		return fmt.Errorf("at least one player is required")
	}
	if len(enemies) == 0 {
		return fmt.Errorf("at least one enemy is required")
	}

	conscious := false
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		if seen[p.CharacterID] {
			return fmt.Errorf("duplicate player %s", p.CharacterID)
		}
		seen[p.CharacterID] = true
		if p.CurrentHP > 0 {
			conscious = true
		}
	}
	if !conscious {
		return fmt.Errorf("no conscious players")
	}

	seen = make(map[string]bool, len(enemies))
	for _, e := range enemies {
		if seen[e.ID] {
			return fmt.Errorf("duplicate enemy %s", e.ID)
		}
		seen[e.ID] = true
	}

	s.Active = true
	s.Round = 0
	s.TurnIndex = 0
	s.InitiativeOrder = []ParticipantRef{}
	s.Combatants = Combatants{
		Players: players,
		Enemies: enemies,
	}
	return nil
}

// End clears the encounter. Ending an idle state is a no-op.
func (s *State) End() {
	*s = *NewState()
}

// FindPlayer returns the player with the given character ID
func (s *State) FindPlayer(characterID string) *PlayerCombatant {
	for _, p := range s.Combatants.Players {
		if p.CharacterID == characterID {
			return p
		}
	}
	return nil
}

// FindEnemy returns the enemy with the given ID
func (s *State) FindEnemy(id string) *EnemyCombatant {
	for _, e := range s.Combatants.Enemies {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Current returns the participant whose turn it is, or nil before the order exists
func (s *State) Current() *ParticipantRef {
	if !s.Active || s.TurnIndex < 0 || s.TurnIndex >= len(s.InitiativeOrder) {
		return nil
	}
	ref := s.InitiativeOrder[s.TurnIndex]
	return &ref
}

// Clone returns a deep copy
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	out := &State{
		Active:          s.Active,
		Round:           s.Round,
		TurnIndex:       s.TurnIndex,
		InitiativeOrder: append([]ParticipantRef{}, s.InitiativeOrder...),
		Combatants: Combatants{
			Players: make([]*PlayerCombatant, 0, len(s.Combatants.Players)),
			Enemies: make([]*EnemyCombatant, 0, len(s.Combatants.Enemies)),
		},
	}

	for _, p := range s.Combatants.Players {
		cp := *p
		cp.Initiative = copyInt(p.Initiative)
		cp.Conditions = append([]string{}, p.Conditions...)
		out.Combatants.Players = append(out.Combatants.Players, &cp)
	}
	for _, e := range s.Combatants.Enemies {
		ce := *e
		ce.Initiative = copyInt(e.Initiative)
		ce.Conditions = append([]string{}, e.Conditions...)
		out.Combatants.Enemies = append(out.Combatants.Enemies, &ce)
	}

	return out
}

// Normalize fills nil slices left by documents written before a field existed
func (s *State) Normalize() {
	if s.InitiativeOrder == nil {
		s.InitiativeOrder = []ParticipantRef{}
	}
	if s.Combatants.Players == nil {
		s.Combatants.Players = []*PlayerCombatant{}
	}
	if s.Combatants.Enemies == nil {
		s.Combatants.Enemies = []*EnemyCombatant{}
	}
	for _, p := range s.Combatants.Players {
		if p.Conditions == nil {
			p.Conditions = []string{}
		}
	}
	for _, e := range s.Combatants.Enemies {
		if e.Conditions == nil {
			e.Conditions = []string{}
		}
	}
}

// CheckInvariants returns the first violated invariant, if any
func (s *State) CheckInvariants() error {
	for _, p := range s.Combatants.Players {
		if p.CurrentHP < 0 || p.CurrentHP > p.MaxHP {
			return fmt.Errorf("player %s hp %d outside [0, %d]", p.CharacterID, p.CurrentHP, p.MaxHP)
		}
	}
	for _, e := range s.Combatants.Enemies {
		if e.CurrentHP < 0 || e.CurrentHP > e.MaxHP {
			return fmt.Errorf("enemy %s hp %d outside [0, %d]", e.ID, e.CurrentHP, e.MaxHP)
		}
		if e.IsAlive != (e.CurrentHP > 0) {
			return fmt.Errorf("enemy %s is_alive=%t with hp %d", e.ID, e.IsAlive, e.CurrentHP)
		}
	}

	if len(s.InitiativeOrder) == 0 {
		if s.TurnIndex != 0 {
			return fmt.Errorf("turn index %d with empty initiative order", s.TurnIndex)
		}
	} else if s.TurnIndex < 0 || s.TurnIndex >= len(s.InitiativeOrder) {
		return fmt.Errorf("turn index %d outside initiative order of %d", s.TurnIndex, len(s.InitiativeOrder))
	}

	if s.Active {
		if s.allEnemiesDown() {
			return fmt.Errorf("active combat with no living enemies")
		}
		if s.allPlayersDown() {
			return fmt.Errorf("active combat with no conscious players")
		}
	}

	return nil
}

func (s *State) allEnemiesDown() bool {
	for _, e := range s.Combatants.Enemies {
		if e.IsAlive {
			return false
		}
	}
	return true
}

func (s *State) allPlayersDown() bool {
	for _, p := range s.Combatants.Players {
		if p.CurrentHP > 0 {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
