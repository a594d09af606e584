package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/pkg/metrics"
)

func TestLogListener(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := LogListener(zap.New(core))

	job := domain.SyncJob{ID: "job-1", Attempts: 1}
	l.OnEvent(Event{Type: EventActive, Job: job})
	l.OnEvent(Event{Type: EventProgress, Job: job, Progress: 40})
	l.OnEvent(Event{Type: EventFailed, Job: job, Err: errors.New("boom"), Duration: time.Second})

	entries := logs.All()
	assert.Len(t, entries, 3)
	assert.Equal(t, "sync job active", entries[0].Message)
	assert.Equal(t, int64(40), entries[1].ContextMap()["progress"])
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.Equal(t, "job-1", entries[2].ContextMap()["job_id"])
}

func TestMetricsListener(t *testing.T) {
	reg := prometheus.NewRegistry()
	l := MetricsListener(metrics.New(reg))

	l.OnEvent(Event{Type: EventEnqueued})
	l.OnEvent(Event{Type: EventCompleted, Duration: 2 * time.Second})
	l.OnEvent(Event{Type: EventFailed, Duration: time.Second})

	n, err := testutil.GatherAndCount(reg, "chatsync_sync_job_events_total", "chatsync_sync_job_duration_seconds")
	assert.NoError(t, err)
	// three event series and two duration series
	assert.Equal(t, 5, n)
}
