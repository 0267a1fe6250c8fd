package events

import (
	"time"

	"github.com/KirkDiggler/dm-table/internal/domain/game/combat"
)

// EventType represents the type of table event
type EventType string

// Event is the base interface for all table events
type Event interface {
	GetType() EventType
	GetSessionID() string
	IsCancelled() bool
	Cancel()
}

// BaseEvent provides common implementation for all events
type BaseEvent struct {
	Type       EventType
	SessionID  string
	OccurredAt time.Time
	Cancelled  bool
}

func (e *BaseEvent) GetType() EventType   { return e.Type }
func (e *BaseEvent) GetSessionID() string { return e.SessionID }
func (e *BaseEvent) IsCancelled() bool    { return e.Cancelled }
func (e *BaseEvent) Cancel()              { e.Cancelled = true }

// CombatEvent carries the committed combat state after a successful write
type CombatEvent struct {
	BaseEvent
	Version        int64
	State          *combat.State
	Ended          bool
	IgnoredTargets []string
}

// NewCombatEvent builds a combat event stamped with the current time
func NewCombatEvent(eventType EventType, sessionID string, version int64, state *combat.State) *CombatEvent {
	return &CombatEvent{
		BaseEvent: BaseEvent{
			Type:       eventType,
			SessionID:  sessionID,
			OccurredAt: time.Now().UTC(),
		},
		Version: version,
		State:   state,
	}
}

// SessionEvent reports a change to the session outside combat
type SessionEvent struct {
	BaseEvent
	Paused bool
}

// NewSessionEvent builds a pause or resume event
func NewSessionEvent(sessionID string, paused bool) *SessionEvent {
	eventType := EventTypeSessionResumed
	if paused {
		eventType = EventTypeSessionPaused
	}
	return &SessionEvent{
		BaseEvent: BaseEvent{
			Type:       eventType,
			SessionID:  sessionID,
			OccurredAt: time.Now().UTC(),
		},
		Paused: paused,
	}
}
