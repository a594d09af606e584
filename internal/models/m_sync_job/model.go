package m_sync_job

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the sync_jobs table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a Spanner mutation for enqueueing a job.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		[]string{
			JobID,
			JobType,
			Payload,
			Status,
			Progress,
			Attempts,
			MaxAttempts,
			ErrorMessage,
			CreatedAt,
		},
		[]interface{}{
			data.JobID,
			data.JobType,
			data.Payload,
			data.Status,
			data.Progress,
			data.Attempts,
			data.MaxAttempts,
			data.ErrorMessage,
			spanner.CommitTimestamp,
		},
	)
}

// UpdateMut creates a Spanner mutation for updating a job.
func (m *Model) UpdateMut(jobID string, updates map[string]interface{}) *spanner.Mutation {
	if len(updates) == 0 {
		return nil
	}

	columns := make([]string, 0, len(updates)+1)
	values := make([]interface{}, 0, len(updates)+1)

	columns = append(columns, JobID)
	values = append(values, jobID)

	for col, val := range updates {
		columns = append(columns, col)
		values = append(values, val)
	}

	return spanner.Update(TableName, columns, values)
}

// DeleteMut creates a Spanner mutation for deleting a job.
func (m *Model) DeleteMut(jobID string) *spanner.Mutation {
	return spanner.Delete(TableName, spanner.Key{jobID})
}
