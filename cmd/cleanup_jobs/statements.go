package main

import (
	"fmt"
	"time"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/models/m_sync_job"
)

type cutoffs struct {
	completed time.Time
	failed    time.Time
}

func newCutoffs(now time.Time, opts Options) cutoffs {
	return cutoffs{
		completed: now.Add(-opts.CompletedRetention),
		failed:    now.Add(-opts.FailedRetention),
	}
}

// where matches finished jobs past their retention. Pending and active jobs
// never match.
func (c cutoffs) where() string {
	return fmt.Sprintf("(%[1]s = @completed AND %[2]s < @completedCutoff) OR (%[1]s IN (@failed, @stalled) AND %[2]s < @failedCutoff)",
		m_sync_job.Status, m_sync_job.FinishedAt)
}

func (c cutoffs) params() map[string]interface{} {
	return map[string]interface{}{
		"completed":       string(domain.JobCompleted),
		"failed":          string(domain.JobFailed),
		"stalled":         string(domain.JobStalled),
		"completedCutoff": c.completed,
		"failedCutoff":    c.failed,
	}
}

func (c cutoffs) countStatement() spanner.Statement {
	return spanner.Statement{
		SQL: fmt.Sprintf("SELECT %[1]s, COUNT(*) FROM %[2]s WHERE %[3]s GROUP BY %[1]s",
			m_sync_job.Status, m_sync_job.TableName, c.where()),
		Params: c.params(),
	}
}

func (c cutoffs) deleteStatement() spanner.Statement {
	return spanner.Statement{
		SQL:    fmt.Sprintf("DELETE FROM %s WHERE %s", m_sync_job.TableName, c.where()),
		Params: c.params(),
	}
}
