package scheduler

import (
	"time"

	"go.uber.org/zap"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/pkg/metrics"
)

// EventType names a job lifecycle event.
type EventType string

const (
	EventEnqueued  EventType = "enqueued"
	EventActive    EventType = "active"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventStalled   EventType = "stalled"
)

// Event is delivered to listeners on every job transition.
type Event struct {
	Type     EventType
	Job      domain.SyncJob
	Progress int64
	Err      error
	// Duration is the run time, set on completed and failed.
	Duration time.Duration
	At       time.Time
}

// Listener observes job events. Listeners are called synchronously from the
// goroutine that caused the event and must not block.
type Listener interface {
	OnEvent(e Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(e Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(e Event) {
	f(e)
}

// LogListener writes every event to logger.
func LogListener(logger *zap.Logger) Listener {
	logger = logger.Named("sync_jobs")
	return ListenerFunc(func(e Event) {
		fields := []zap.Field{
			zap.String("job_id", e.Job.ID),
			zap.String("event", string(e.Type)),
			zap.Int64("attempt", e.Job.Attempts),
		}
		switch e.Type {
		case EventProgress:
			logger.Debug("sync job progress", append(fields, zap.Int64("progress", e.Progress))...)
		case EventCompleted:
			logger.Info("sync job completed", append(fields, zap.Duration("duration", e.Duration))...)
		case EventFailed:
			logger.Error("sync job failed", append(fields, zap.Duration("duration", e.Duration), zap.Error(e.Err))...)
		case EventStalled:
			logger.Warn("sync job stalled", fields...)
		default:
			logger.Info("sync job "+string(e.Type), fields...)
		}
	})
}

// MetricsListener counts events and observes job durations.
func MetricsListener(m *metrics.Metrics) Listener {
	return ListenerFunc(func(e Event) {
		m.JobEvent(string(e.Type))
		if e.Type == EventCompleted || e.Type == EventFailed {
			m.JobFinished(string(e.Type), e.Duration)
		}
	})
}
