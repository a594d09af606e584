package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 1000, cfg.Ingest.Window)
	assert.Equal(t, CursorPolicyResync, cfg.Ingest.CursorPolicy)
	assert.Equal(t, int64(1), cfg.Sync.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Sync.StallTimeout)
	assert.Equal(t, "memory", cfg.Catalog.Driver)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
}

func TestParse_Environment(t *testing.T) {
	t.Setenv("INGEST_CURSOR_POLICY", "fail")
	t.Setenv("SYNC_MAX_ATTEMPTS", "3")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SPANNER_DATABASE", "projects/p/instances/i/databases/d")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, CursorPolicyFail, cfg.Ingest.CursorPolicy)
	assert.Equal(t, int64(3), cfg.Sync.MaxAttempts)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "projects/p/instances/i/databases/d", cfg.Spanner.Database)
}

func TestParse_Invalid(t *testing.T) {
	t.Run("cursor policy", func(t *testing.T) {
		t.Setenv("INGEST_CURSOR_POLICY", "rewind")
		_, err := Parse()
		assert.ErrorContains(t, err, "INGEST_CURSOR_POLICY")
	})

	t.Run("attempts", func(t *testing.T) {
		t.Setenv("SYNC_MAX_ATTEMPTS", "0")
		_, err := Parse()
		assert.ErrorContains(t, err, "SYNC_MAX_ATTEMPTS")
	})

	t.Run("log format", func(t *testing.T) {
		t.Setenv("LOG_FORMAT", "xml")
		_, err := Parse()
		assert.ErrorContains(t, err, "LOG_FORMAT")
	})

	t.Run("malformed duration", func(t *testing.T) {
		t.Setenv("SYNC_JOB_TIMEOUT", "forever")
		_, err := Parse()
		assert.Error(t, err)
	})
}
