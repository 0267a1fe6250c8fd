package events

// Event type constants
const (
	// Combat Events
	EventTypeCombatStarted            EventType = "combat.started"
	EventTypeCombatInitiativeRecorded EventType = "combat.initiative_recorded"
	EventTypeCombatUpdated            EventType = "combat.updated"
	EventTypeCombatEnded              EventType = "combat.ended"

	// Session Events
	EventTypeSessionPaused  EventType = "session.paused"
	EventTypeSessionResumed EventType = "session.resumed"
)

// CombatEventTypes lists every combat event, for listeners that want all of them
var CombatEventTypes = []EventType{
	EventTypeCombatStarted,
	EventTypeCombatInitiativeRecorded,
	EventTypeCombatUpdated,
	EventTypeCombatEnded,
}
