package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/lingobot/internal/lang"
)

// GlossaryEntry represents a row in the glossary table.
type GlossaryEntry struct {
	ID         string    `json:"id"`
	SourceLang string    `json:"source_lang"`
	TargetLang string    `json:"target_lang"`
	SourceTerm string    `json:"source_term"`
	TargetTerm string    `json:"target_term"`
	CreatedAt  time.Time `json:"created_at"`
}

// AddGlossaryTerm inserts or replaces the term for a language pair and
// returns the entry ID.
func (s *Store) AddGlossaryTerm(ctx context.Context, src, tgt lang.Tag, sourceTerm, targetTerm string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO glossary (id, source_lang, target_lang, source_term, target_term, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source_lang, target_lang, source_term) DO UPDATE SET target_term = excluded.target_term`,
		id, string(src), string(tgt), strings.TrimSpace(sourceTerm), strings.TrimSpace(targetTerm), time.Now().UTC())
	if err != nil {
		return "", err
	}
	// On conflict the existing row keeps its ID.
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM glossary WHERE source_lang = ? AND target_lang = ? AND source_term = ?`,
		string(src), string(tgt), strings.TrimSpace(sourceTerm)).Scan(&id)
	return id, err
}

// GlossaryTerms returns the source-term → target-term map for a pair.
func (s *Store) GlossaryTerms(ctx context.Context, src, tgt lang.Tag) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_term, target_term FROM glossary WHERE source_lang = ? AND target_lang = ?`,
		string(src), string(tgt))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := make(map[string]string)
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, err
		}
		terms[from] = to
	}
	return terms, rows.Err()
}

// ListGlossaryTerms returns entries, optionally filtered by either language
// (empty matches everything).
func (s *Store) ListGlossaryTerms(ctx context.Context, src, tgt lang.Tag) ([]GlossaryEntry, error) {
	query := `SELECT id, source_lang, target_lang, source_term, target_term, created_at FROM glossary`
	var (
		where []string
		args  []any
	)
	if src != "" {
		where = append(where, "source_lang = ?")
		args = append(args, string(src))
	}
	if tgt != "" {
		where = append(where, "target_lang = ?")
		args = append(args, string(tgt))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY source_lang, target_lang, source_term`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.SourceTerm, &e.TargetTerm, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) DeleteGlossaryTerm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM glossary WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res, "glossary term", id)
}
