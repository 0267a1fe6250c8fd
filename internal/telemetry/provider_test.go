package telemetry_test

import (
	"context"
	"testing"

	"github.com/KirkDiggler/dm-table/internal/config"
	"github.com/KirkDiggler/dm-table/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), config.TelemetryConfig{Enabled: false, Endpoint: "http://collector:4318"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	shutdown, err = telemetry.Setup(context.Background(), config.TelemetryConfig{Enabled: true})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_Enabled(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), config.TelemetryConfig{
		Enabled:     true,
		Endpoint:    "http://127.0.0.1:4318",
		ServiceName: "dm-table-test",
	})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
}
