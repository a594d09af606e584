package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/chatsync-service/internal/app/product/contracts"
	"github.com/light-bringer/chatsync-service/internal/app/product/domain"
	"github.com/light-bringer/chatsync-service/internal/models/m_sync_job"
	"github.com/light-bringer/chatsync-service/internal/pkg/query"
)

// SyncJobRepo implements SyncJobRepository for Spanner.
type SyncJobRepo struct {
	client *spanner.Client
	model  *m_sync_job.Model
}

// NewSyncJobRepo creates a new SyncJobRepo.
func NewSyncJobRepo(client *spanner.Client) contracts.SyncJobRepository {
	return &SyncJobRepo{
		client: client,
		model:  m_sync_job.NewModel(),
	}
}

// Enqueue adds a pending job, coalescing onto an existing pending job of the same type.
func (r *SyncJobRepo) Enqueue(ctx context.Context, job *domain.SyncJob) (*domain.SyncJob, bool, error) {
	var (
		result  *domain.SyncJob
		created bool
	)

	commitTs, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		result, created = nil, false

		pending, err := r.firstWithStatus(ctx, txn, domain.JobPending, job.Type)
		if err != nil {
			return err
		}
		if pending != nil {
			result = pending
			return nil
		}

		fresh := *job
		if fresh.ID == "" {
			fresh.ID = uuid.New().String()
		}
		fresh.Status = domain.JobPending
		fresh.Progress = 0
		fresh.Attempts = 0
		if fresh.MaxAttempts < 1 {
			fresh.MaxAttempts = 1
		}

		result, created = &fresh, true
		return txn.BufferWrite([]*spanner.Mutation{r.model.InsertMut(jobToData(&fresh))})
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to enqueue job: %w", err)
	}

	if created {
		result.CreatedAt = commitTs
	}
	return result, created, nil
}

// ClaimNext moves the oldest pending job to active. Nothing is claimed while
// another job is active, so at most one job runs across all worker processes.
// A job whose worker died blocks the queue until the sweeper marks it stalled.
func (r *SyncJobRepo) ClaimNext(ctx context.Context, now time.Time) (*domain.SyncJob, error) {
	var claimed *domain.SyncJob

	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		claimed = nil

		running, err := r.firstWithStatus(ctx, txn, domain.JobActive, "")
		if err != nil || running != nil {
			return err
		}

		job, err := r.firstWithStatus(ctx, txn, domain.JobPending, "")
		if err != nil || job == nil {
			return err
		}

		job.Status = domain.JobActive
		job.Attempts++
		job.StartedAt = &now
		job.HeartbeatAt = &now
		job.FinishedAt = nil
		job.ErrorMessage = ""

		claimed = job
		return txn.BufferWrite([]*spanner.Mutation{r.model.UpdateMut(job.ID, map[string]interface{}{
			m_sync_job.Status:       string(domain.JobActive),
			m_sync_job.Attempts:     job.Attempts,
			m_sync_job.StartedAt:    now,
			m_sync_job.HeartbeatAt:  now,
			m_sync_job.FinishedAt:   spanner.NullTime{},
			m_sync_job.ErrorMessage: spanner.NullString{},
		})})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	return claimed, nil
}

// Heartbeat records liveness and progress of an active job.
func (r *SyncJobRepo) Heartbeat(ctx context.Context, jobID string, progress int64, now time.Time) error {
	return r.transition(ctx, jobID, []domain.JobStatus{domain.JobActive}, map[string]interface{}{
		m_sync_job.Progress:    progress,
		m_sync_job.HeartbeatAt: now,
	})
}

// Finish moves an active job to a terminal status.
func (r *SyncJobRepo) Finish(ctx context.Context, jobID string, status domain.JobStatus, errMsg string, now time.Time) error {
	if !status.IsFinished() {
		return fmt.Errorf("%w: %s is not terminal", domain.ErrUnknownJobStatus, status)
	}

	return r.transition(ctx, jobID, []domain.JobStatus{domain.JobActive}, map[string]interface{}{
		m_sync_job.Status:       string(status),
		m_sync_job.FinishedAt:   now,
		m_sync_job.ErrorMessage: spanner.NullString{StringVal: errMsg, Valid: errMsg != ""},
	})
}

// Requeue puts a failed or stalled job back to pending.
func (r *SyncJobRepo) Requeue(ctx context.Context, jobID string) error {
	return r.transition(ctx, jobID, []domain.JobStatus{domain.JobFailed, domain.JobStalled}, map[string]interface{}{
		m_sync_job.Status:      string(domain.JobPending),
		m_sync_job.HeartbeatAt: spanner.NullTime{},
		m_sync_job.FinishedAt:  spanner.NullTime{},
	})
}

// ListStale retrieves active jobs whose heartbeat is older than before.
func (r *SyncJobRepo) ListStale(ctx context.Context, before time.Time) ([]*domain.SyncJob, error) {
	stmt := query.From(m_sync_job.TableName).
		Select(m_sync_job.Columns...).
		Where(query.Eq(m_sync_job.Status, string(domain.JobActive))).
		Where(query.Lt(m_sync_job.HeartbeatAt, before)).
		OrderBy(m_sync_job.CreatedAt, query.Asc).
		Build()

	iter := r.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var jobs []*domain.SyncJob
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate stale jobs: %w", err)
		}

		var data m_sync_job.Data
		if err := row.ToStruct(&data); err != nil {
			return nil, fmt.Errorf("failed to parse job: %w", err)
		}
		jobs = append(jobs, dataToJob(&data))
	}
	return jobs, nil
}

// Get retrieves a job.
func (r *SyncJobRepo) Get(ctx context.Context, jobID string) (*domain.SyncJob, error) {
	return r.read(ctx, r.client.Single(), jobID)
}

// transition applies updates to a job when its current status is one of from.
func (r *SyncJobRepo) transition(ctx context.Context, jobID string, from []domain.JobStatus, updates map[string]interface{}) error {
	var guardErr error

	_, err := r.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		guardErr = nil

		job, err := r.read(ctx, txn, jobID)
		if err != nil {
			guardErr = err
			return err
		}

		allowed := false
		for _, s := range from {
			if job.Status == s {
				allowed = true
				break
			}
		}
		if !allowed {
			guardErr = fmt.Errorf("%w: job %s is %s", domain.ErrJobNotActive, jobID, job.Status)
			return guardErr
		}

		return txn.BufferWrite([]*spanner.Mutation{r.model.UpdateMut(jobID, updates)})
	})
	if guardErr != nil {
		return guardErr
	}
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, err)
	}
	return nil
}

func (r *SyncJobRepo) read(ctx context.Context, rd contracts.RowReader, jobID string) (*domain.SyncJob, error) {
	row, err := rd.ReadRow(ctx, m_sync_job.TableName, spanner.Key{jobID}, m_sync_job.Columns)
	if err != nil {
		if spanner.ErrCode(err) == codes.NotFound {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to read job: %w", err)
	}

	var data m_sync_job.Data
	if err := row.ToStruct(&data); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	return dataToJob(&data), nil
}

// firstWithStatus returns the oldest job in status, optionally restricted to a job type.
func (r *SyncJobRepo) firstWithStatus(ctx context.Context, txn *spanner.ReadWriteTransaction, status domain.JobStatus, jobType string) (*domain.SyncJob, error) {
	b := query.From(m_sync_job.TableName).
		UseIndex(m_sync_job.IndexByStatus).
		Select(m_sync_job.Columns...).
		Where(query.Eq(m_sync_job.Status, string(status)))
	if jobType != "" {
		b = b.Where(query.Eq(m_sync_job.JobType, jobType))
	}
	stmt := b.OrderBy(m_sync_job.CreatedAt, query.Asc).Limit(1).Build()

	iter := txn.Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query %s jobs: %w", status, err)
	}

	var data m_sync_job.Data
	if err := row.ToStruct(&data); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	return dataToJob(&data), nil
}

func jobToData(job *domain.SyncJob) *m_sync_job.Data {
	data := &m_sync_job.Data{
		JobID:        job.ID,
		JobType:      job.Type,
		Status:       string(job.Status),
		Progress:     job.Progress,
		Attempts:     job.Attempts,
		MaxAttempts:  job.MaxAttempts,
		ErrorMessage: spanner.NullString{StringVal: job.ErrorMessage, Valid: job.ErrorMessage != ""},
	}
	if job.Payload != "" {
		data.Payload = spanner.NullJSON{Value: json.RawMessage(job.Payload), Valid: true}
	}
	return data
}

func dataToJob(data *m_sync_job.Data) *domain.SyncJob {
	job := &domain.SyncJob{
		ID:          data.JobID,
		Type:        data.JobType,
		Status:      domain.JobStatus(data.Status),
		Progress:    data.Progress,
		Attempts:    data.Attempts,
		MaxAttempts: data.MaxAttempts,
		CreatedAt:   data.CreatedAt,
		StartedAt:   nullTimePtr(data.StartedAt),
		HeartbeatAt: nullTimePtr(data.HeartbeatAt),
		FinishedAt:  nullTimePtr(data.FinishedAt),
	}
	if data.Payload.Valid {
		job.Payload = data.Payload.String()
	}
	if data.ErrorMessage.Valid {
		job.ErrorMessage = data.ErrorMessage.StringVal
	}
	return job
}

func nullTimePtr(t spanner.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
