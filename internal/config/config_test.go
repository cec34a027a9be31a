package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "conversation-sync", cfg.ServiceName)
	assert.Equal(t, ":8093", cfg.Addr())
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, StateBackendMemory, cfg.StateBackend)
	assert.Equal(t, 1024, cfg.ConversationCacheSize)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("TASK_POLL_INTERVAL", "500ms")
	t.Setenv("STATE_STORE_BACKEND", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, StateBackendRedis, cfg.StateBackend)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("STATE_STORE_BACKEND", "etcd")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STATE_STORE_BACKEND")
}

func TestLoad_NonPositiveIntervalFallsBack(t *testing.T) {
	t.Setenv("TASK_POLL_INTERVAL", "0s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
}
