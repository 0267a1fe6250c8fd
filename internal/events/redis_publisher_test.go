package events_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/KirkDiggler/dm-table/internal/domain/game/combat"
	"github.com/KirkDiggler/dm-table/internal/events"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher_HandleEvent(t *testing.T) {
	client, mock := redismock.NewClientMock()
	publisher := events.NewRedisPublisher(client, "table:events")

	state := combat.NewState()
	event := events.NewCombatEvent(events.EventTypeCombatUpdated, "s1", 7, state)
	event.Ended = true
	payload, err := events.Encode(event)
	require.NoError(t, err)

	mock.ExpectPublish("table:events", string(payload)).SetVal(2)
	require.NoError(t, publisher.HandleEvent(event))

	mock.ExpectPublish("table:events", string(payload)).SetErr(errors.New("redis error"))
	assert.Error(t, publisher.HandleEvent(event))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEncode(t *testing.T) {
	event := events.NewCombatEvent(events.EventTypeCombatEnded, "s1", 9, combat.NewState())
	event.Ended = true
	event.IgnoredTargets = []string{"ghost"}

	data, err := events.Encode(event)
	require.NoError(t, err)

	var env events.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, events.EventTypeCombatEnded, env.Type)
	assert.Equal(t, "s1", env.SessionID)
	assert.Equal(t, int64(9), env.Version)
	assert.True(t, env.CombatEnded)
	assert.Equal(t, []string{"ghost"}, env.IgnoredTargets)
	assert.NotNil(t, env.CombatState)

	paused, err := events.Encode(&events.SessionEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypeSessionPaused, SessionID: "s1"},
		Paused:    true,
	})
	require.NoError(t, err)
	assert.Contains(t, string(paused), `"paused":true`)
}
