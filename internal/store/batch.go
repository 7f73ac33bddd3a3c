package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	BatchRunning   = "running"
	BatchCompleted = "completed"
)

// BatchJob is the checkpoint record of one batch run.
type BatchJob struct {
	ID         string    `json:"id"`
	InputFile  string    `json:"input_file"`
	OutputFile string    `json:"output_file"`
	SourceLang string    `json:"source_lang"`
	TargetLang string    `json:"target_lang"`
	Backend    string    `json:"backend"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateBatchJob stores job with status running and returns its new ID.
func (s *Store) CreateBatchJob(ctx context.Context, job BatchJob) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO batch_jobs (id, input_file, output_file, source_lang, target_lang, backend, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, job.InputFile, job.OutputFile, job.SourceLang, job.TargetLang, job.Backend, BatchRunning, now, now)
	return id, err
}

func (s *Store) GetBatchJob(ctx context.Context, id string) (*BatchJob, error) {
	var job BatchJob
	err := s.db.QueryRowContext(ctx,
		`SELECT id, input_file, output_file, source_lang, target_lang, backend, status, created_at FROM batch_jobs WHERE id = ?`,
		id).Scan(&job.ID, &job.InputFile, &job.OutputFile, &job.SourceLang, &job.TargetLang, &job.Backend, &job.Status, &job.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("batch job", id)
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// SaveBatchRow checkpoints the answer for one input row.
func (s *Store) SaveBatchRow(ctx context.Context, jobID string, row int, answer string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO batch_job_rows (job_id, row_idx, answer, created_at) VALUES (?, ?, ?, ?)`,
		jobID, row, answer, time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE batch_jobs SET updated_at = ? WHERE id = ?`, time.Now().UTC(), jobID)
	return err
}

// BatchRows returns the checkpointed answers of a job keyed by row index.
func (s *Store) BatchRows(ctx context.Context, jobID string) (map[int]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_idx, answer FROM batch_job_rows WHERE job_id = ?`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[int]string)
	for rows.Next() {
		var idx int
		var answer string
		if err := rows.Scan(&idx, &answer); err != nil {
			return nil, err
		}
		done[idx] = answer
	}
	return done, rows.Err()
}

func (s *Store) CompleteBatchJob(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE batch_jobs SET status = ?, updated_at = ? WHERE id = ?`,
		BatchCompleted, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return mustAffect(res, "batch job", id)
}
