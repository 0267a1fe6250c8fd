package gamestate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
)

type memoryDocument struct {
	combat    *combat.State
	version   int64
	paused    bool
	updatedAt time.Time
	roster    map[string]RosterMember
}

// inMemoryRepository implements Repository using in-memory storage
type inMemoryRepository struct {
	mu    sync.RWMutex
	docs  map[string]*memoryDocument
	clock TimeProvider
}

// NewInMemoryRepository creates a new in-memory game state repository
func NewInMemoryRepository() Repository {
	return NewInMemoryRepositoryWithClock(SystemClock())
}

// NewInMemoryRepositoryWithClock creates an in-memory repository with a fixed clock
func NewInMemoryRepositoryWithClock(clock TimeProvider) Repository {
	return &inMemoryRepository{
		docs:  make(map[string]*memoryDocument),
		clock: clock,
	}
}

func (r *inMemoryRepository) Create(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return dnderr.InvalidArgument("session ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.docs[sessionID]; exists {
		return dnderr.AlreadyExistsf("game state for session %s already exists", sessionID)
	}

	r.docs[sessionID] = &memoryDocument{
		combat:    combat.NewState(),
		updatedAt: r.clock.Now(),
		roster:    make(map[string]RosterMember),
	}
	return nil
}

func (r *inMemoryRepository) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, err := r.get(sessionID)
	if err != nil {
		return nil, err
	}

	// Return a copy to avoid external modifications
	return &Snapshot{
		SessionID: sessionID,
		Combat:    doc.combat.Clone(),
		Version:   doc.version,
		Paused:    doc.paused,
		UpdatedAt: doc.updatedAt,
	}, nil
}

func (r *inMemoryRepository) SaveCombat(ctx context.Context, sessionID string, state *combat.State, expectedVersion int64, hp []PlayerHP) (int64, error) {
	if state == nil {
		return 0, dnderr.InvalidArgument("combat state cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.get(sessionID)
	if err != nil {
		return 0, err
	}
	if doc.version != expectedVersion {
		return 0, fmt.Errorf("session %s at version %d, expected %d: %w", sessionID, doc.version, expectedVersion, ErrVersionConflict)
	}

	doc.combat = state.Clone()
	doc.version++
	doc.updatedAt = r.clock.Now()
	for _, h := range hp {
		if member, ok := doc.roster[h.CharacterID]; ok {
			member.CurrentHP = h.CurrentHP
			doc.roster[h.CharacterID] = member
		}
	}

	return doc.version, nil
}

func (r *inMemoryRepository) SetPaused(ctx context.Context, sessionID string, paused bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.get(sessionID)
	if err != nil {
		return err
	}
	doc.paused = paused
	doc.updatedAt = r.clock.Now()
	return nil
}

func (r *inMemoryRepository) ListRoster(ctx context.Context, sessionID string) ([]*RosterMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, err := r.get(sessionID)
	if err != nil {
		return nil, err
	}

	members := make([]*RosterMember, 0, len(doc.roster))
	for _, m := range doc.roster {
		member := m
		members = append(members, &member)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].CharacterID < members[j].CharacterID
	})
	return members, nil
}

func (r *inMemoryRepository) PutRosterMember(ctx context.Context, sessionID string, member *RosterMember) error {
	if err := ValidateMember(member); err != nil {
		return dnderr.WrapWithCode(err, dnderr.CodeInvalidArgument, "invalid roster member")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.get(sessionID)
	if err != nil {
		return err
	}
	doc.roster[member.CharacterID] = *member
	return nil
}

// get must be called with the lock held
func (r *inMemoryRepository) get(sessionID string) (*memoryDocument, error) {
	doc, ok := r.docs[sessionID]
	if !ok {
		return nil, dnderr.NotFoundf("game state for session %s not found", sessionID)
	}
	return doc, nil
}
