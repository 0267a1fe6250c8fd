package session

//go:generate mockgen -destination=mock/mock_service.go -package=mocksession -source=service.go

import (
	"context"
	"log"
	"strings"

	dnderr "github.com/KirkDiggler/dm-table/internal/errors"
	"github.com/KirkDiggler/dm-table/internal/events"
	"github.com/KirkDiggler/dm-table/internal/repositories/gamestate"
	"github.com/KirkDiggler/dm-table/internal/uuid"
)

// Service defines the session service interface
type Service interface {
	// CreateSession creates the game-state document for a session
	CreateSession(ctx context.Context, input *CreateSessionInput) (*gamestate.Snapshot, error)

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, sessionID string) (*gamestate.Snapshot, error)

	// AssignCharacter adds or refreshes a character on the session roster
	AssignCharacter(ctx context.Context, sessionID string, member *gamestate.RosterMember) error

	// ListCharacters returns the roster ordered by character ID
	ListCharacters(ctx context.Context, sessionID string) ([]*gamestate.RosterMember, error)

	// PauseSession pauses a game session
	PauseSession(ctx context.Context, sessionID string) error

	// ResumeSession resumes a paused session
	ResumeSession(ctx context.Context, sessionID string) error
}

// CreateSessionInput contains data for creating a session
type CreateSessionInput struct {
	SessionID string // Optional, generated when blank
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Repository    gamestate.Repository // Required
	Publisher     events.Publisher     // Optional
	UUIDGenerator uuid.Generator       // Optional, will use default if nil
}

type service struct {
	repository    gamestate.Repository
	publisher     events.Publisher
	uuidGenerator uuid.Generator
}

// NewService creates a new session service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}

	svc := &service{
		repository: cfg.Repository,
		publisher:  cfg.Publisher,
	}

	// Use provided UUID generator or create default
	if cfg.UUIDGenerator != nil {
		svc.uuidGenerator = cfg.UUIDGenerator
	} else {
		svc.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}

	return svc
}

// CreateSession creates the game-state document
func (s *service) CreateSession(ctx context.Context, input *CreateSessionInput) (*gamestate.Snapshot, error) {
	if input == nil {
		return nil, dnderr.InvalidArgument("input cannot be nil")
	}

	sessionID := strings.TrimSpace(input.SessionID)
	if sessionID == "" {
		sessionID = s.uuidGenerator.New()
	}

	if err := s.repository.Create(ctx, sessionID); err != nil {
		return nil, dnderr.Wrap(err, "failed to create session").
			WithMeta("session_id", sessionID)
	}

	snap, err := s.repository.Get(ctx, sessionID)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to get session '%s'", sessionID).
			WithMeta("session_id", sessionID)
	}

	log.Printf("SessionService: Created session %s", sessionID)
	return snap, nil
}

// GetSession retrieves a session by ID
func (s *service) GetSession(ctx context.Context, sessionID string) (*gamestate.Snapshot, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, dnderr.InvalidArgument("session ID is required")
	}

	snap, err := s.repository.Get(ctx, sessionID)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to get session '%s'", sessionID).
			WithMeta("session_id", sessionID)
	}

	return snap, nil
}

// AssignCharacter upserts a roster member
func (s *service) AssignCharacter(ctx context.Context, sessionID string, member *gamestate.RosterMember) error {
	if strings.TrimSpace(sessionID) == "" {
		return dnderr.InvalidArgument("session ID is required")
	}
	if member == nil {
		return dnderr.InvalidArgument("character cannot be nil")
	}
	if strings.TrimSpace(member.CharacterID) == "" {
		return dnderr.InvalidArgument("character ID is required")
	}

	if err := s.repository.PutRosterMember(ctx, sessionID, member); err != nil {
		return dnderr.Wrap(err, "failed to assign character").
			WithMeta("session_id", sessionID).
			WithMeta("character_id", member.CharacterID)
	}

	return nil
}

// ListCharacters returns the session roster
func (s *service) ListCharacters(ctx context.Context, sessionID string) ([]*gamestate.RosterMember, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, dnderr.InvalidArgument("session ID is required")
	}

	roster, err := s.repository.ListRoster(ctx, sessionID)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to list characters for session '%s'", sessionID).
			WithMeta("session_id", sessionID)
	}

	return roster, nil
}

// PauseSession pauses a game session
func (s *service) PauseSession(ctx context.Context, sessionID string) error {
	return s.setPaused(ctx, sessionID, true)
}

// ResumeSession resumes a paused session
func (s *service) ResumeSession(ctx context.Context, sessionID string) error {
	return s.setPaused(ctx, sessionID, false)
}

func (s *service) setPaused(ctx context.Context, sessionID string, paused bool) error {
	if strings.TrimSpace(sessionID) == "" {
		return dnderr.InvalidArgument("session ID is required")
	}

	snap, err := s.repository.Get(ctx, sessionID)
	if err != nil {
		return dnderr.Wrapf(err, "failed to get session '%s'", sessionID).
			WithMeta("session_id", sessionID)
	}

	// Already in the requested state
	if snap.Paused == paused {
		return nil
	}

	if err := s.repository.SetPaused(ctx, sessionID, paused); err != nil {
		return dnderr.Wrap(err, "failed to update pause flag").
			WithMeta("session_id", sessionID)
	}

	if s.publisher != nil {
		if err := s.publisher.Emit(events.NewSessionEvent(sessionID, paused)); err != nil {
			log.Printf("SessionService: Failed to publish pause change for session %s: %v", sessionID, err)
		}
	}

	return nil
}
