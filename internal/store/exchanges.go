package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/lingobot/internal"
)

const exchangeColumns = `id, query, source_lang, target_lang, english_query, english_answer, answer,
	backend, query_status, answer_status, generation_failed, latency_ms, created_at`

// Record saves ex, filling in ID and CreatedAt when they are empty.
func (s *Store) Record(ctx context.Context, ex internal.Exchange) error {
	if ex.ID == "" {
		ex.ID = uuid.NewString()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (`+exchangeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.Query, ex.SourceLang, ex.TargetLang, ex.EnglishQuery, ex.EnglishAnswer, ex.Answer,
		ex.Backend, ex.QueryStatus, ex.AnswerStatus, ex.GenerationFailed, ex.Latency.Milliseconds(), ex.CreatedAt)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExchange(row scanner) (internal.Exchange, error) {
	var ex internal.Exchange
	var latencyMs int64
	err := row.Scan(&ex.ID, &ex.Query, &ex.SourceLang, &ex.TargetLang, &ex.EnglishQuery, &ex.EnglishAnswer,
		&ex.Answer, &ex.Backend, &ex.QueryStatus, &ex.AnswerStatus, &ex.GenerationFailed, &latencyMs, &ex.CreatedAt)
	ex.Latency = time.Duration(latencyMs) * time.Millisecond
	return ex, err
}

// ListExchanges returns the newest exchanges first. limit <= 0 means 50.
func (s *Store) ListExchanges(ctx context.Context, limit, offset int) ([]internal.Exchange, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+exchangeColumns+` FROM exchanges ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, max(offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.Exchange
	for rows.Next() {
		ex, err := scanExchange(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (s *Store) GetExchange(ctx context.Context, id string) (*internal.Exchange, error) {
	ex, err := scanExchange(s.db.QueryRowContext(ctx,
		`SELECT `+exchangeColumns+` FROM exchanges WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("exchange", id)
	}
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

func (s *Store) DeleteExchange(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res, "exchange", id)
}

func (s *Store) ClearExchanges(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exchanges`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HistoryStats summarises exchange history.
type HistoryStats struct {
	Total        int            `json:"total"`
	Failed       int            `json:"failed"`
	AvgLatencyMs float64        `json:"avg_latency_ms"`
	BySourceLang map[string]int `json:"by_source_lang"`
	ByBackend    map[string]int `json:"by_backend"`
}

func (s *Store) HistoryStats(ctx context.Context) (*HistoryStats, error) {
	stats := &HistoryStats{
		BySourceLang: make(map[string]int),
		ByBackend:    make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN generation_failed THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(latency_ms), 0)
		FROM exchanges`).Scan(&stats.Total, &stats.Failed, &stats.AvgLatencyMs)
	if err != nil {
		return nil, err
	}

	if err := s.countBy(ctx, "source_lang", stats.BySourceLang); err != nil {
		return nil, err
	}
	if err := s.countBy(ctx, "backend", stats.ByBackend); err != nil {
		return nil, err
	}
	return stats, nil
}

// countBy fills into with per-value counts of column; column is never user input.
func (s *Store) countBy(ctx context.Context, column string, into map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*) FROM exchanges GROUP BY `+column)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}
