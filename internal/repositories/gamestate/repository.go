package gamestate

//go:generate mockgen -destination=mock/mock_repository.go -package=mockgamestate -source=repository.go

import (
	"context"
	"errors"
	"time"

	"github.com/KirkDiggler/dm-table/internal/domain/game/combat"
)

// ErrVersionConflict is returned by SaveCombat when another writer bumped the
// document version first
var ErrVersionConflict = errors.New("game state version conflict")

// Snapshot is the per-session game state document as read from the store
type Snapshot struct {
	SessionID string
	Combat    *combat.State
	Version   int64
	Paused    bool
	UpdatedAt time.Time
}

// RosterMember is a character assigned to a session
type RosterMember struct {
	CharacterID string `json:"character_id"`
	Name        string `json:"name"`
	CurrentHP   int    `json:"current_hp"`
	MaxHP       int    `json:"max_hp"`
	AC          int    `json:"ac"`
}

// PlayerHP mirrors a player's combat HP back onto the roster
type PlayerHP struct {
	CharacterID string
	CurrentHP   int
}

// Repository stores one game state document per session. Writes touch only
// the fields they name.
type Repository interface {
	// Create initializes a document with an idle combat state at version 0
	Create(ctx context.Context, sessionID string) error

	// Get returns the current snapshot
	Get(ctx context.Context, sessionID string) (*Snapshot, error)

	// SaveCombat replaces the combat state if the stored version still equals
	// expectedVersion, mirroring hp onto matching roster members in the same
	// write. Returns the new version.
	SaveCombat(ctx context.Context, sessionID string, state *combat.State, expectedVersion int64, hp []PlayerHP) (int64, error)

	// SetPaused updates the pause flag only
	SetPaused(ctx context.Context, sessionID string, paused bool) error

	// ListRoster returns the session's characters ordered by character id
	ListRoster(ctx context.Context, sessionID string) ([]*RosterMember, error)

	// PutRosterMember inserts or replaces a roster entry
	PutRosterMember(ctx context.Context, sessionID string, member *RosterMember) error
}

// TimeProvider supplies write timestamps
type TimeProvider interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a TimeProvider backed by the wall clock
func SystemClock() TimeProvider {
	return systemClock{}
}

// PlayerHPFrom collects the current HP of every player in the state
func PlayerHPFrom(state *combat.State) []PlayerHP {
	if state == nil {
		return nil
	}
	out := make([]PlayerHP, 0, len(state.Combatants.Players))
	for _, p := range state.Combatants.Players {
		out = append(out, PlayerHP{CharacterID: p.CharacterID, CurrentHP: p.CurrentHP})
	}
	return out
}

// ValidateMember checks a roster entry before it is stored
func ValidateMember(member *RosterMember) error {
	switch {
	case member == nil:
		return errors.New("roster member cannot be nil")
	case member.CharacterID == "":
		return errors.New("character id is required")
	case member.MaxHP <= 0:
		return errors.New("max hp must be positive")
	case member.CurrentHP < 0 || member.CurrentHP > member.MaxHP:
		return errors.New("current hp must be within [0, max hp]")
	case member.AC < 0:
		return errors.New("ac cannot be negative")
	}
	return nil
}
