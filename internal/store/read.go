package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/reconcile/internal/trace"
)

// ErrNotFound is returned when a pass ID is not in the store.
var ErrNotFound = errors.New("pass not found")

// ReadPass returns one pass with its effects.
func (s *Store) ReadPass(ctx context.Context, id string) (trace.Pass, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, tree_hash, units, slices, status, error
		FROM passes
		WHERE id = ?
	`, id)
	p, err := scanPass(row)
	if errors.Is(err, sql.ErrNoRows) {
		return trace.Pass{}, fmt.Errorf("read pass %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return trace.Pass{}, fmt.Errorf("read pass %s: %w", id, err)
	}

	p.Effects, err = s.ReadEffects(ctx, id)
	if err != nil {
		return trace.Pass{}, err
	}
	return p, nil
}

// ListPasses returns stored passes without their effects, oldest first. A
// positive limit keeps only the newest limit passes.
//
// Returns an empty slice (not nil) for an empty log.
func (s *Store) ListPasses(ctx context.Context, limit int) ([]trace.Pass, error) {
	query := `
		SELECT id, seq, tree_hash, units, slices, status, error
		FROM passes
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`
	args := []any{}
	if limit > 0 {
		query = `
			SELECT id, seq, tree_hash, units, slices, status, error FROM (
				SELECT id, seq, tree_hash, units, slices, status, error
				FROM passes
				ORDER BY seq DESC, id COLLATE BINARY DESC
				LIMIT ?
			)
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	passes := []trace.Pass{}
	for rows.Next() {
		p, err := scanPass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passes: %w", err)
	}
	return passes, nil
}

// ReadEffects returns the records of one pass in application order.
//
// Returns an empty slice (not nil) if the pass has none.
func (s *Store) ReadEffects(ctx context.Context, passID string) ([]trace.Effect, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT phase, effect, tag, label, depth, props
		FROM effects
		WHERE pass_id = ?
		ORDER BY ord ASC
	`, passID)
	if err != nil {
		return nil, fmt.Errorf("query effects: %w", err)
	}
	defer rows.Close()

	effects := []trace.Effect{}
	for rows.Next() {
		var e trace.Effect
		var phase string
		if err := rows.Scan(&phase, &e.Effect, &e.Tag, &e.Label, &e.Depth, &e.Props); err != nil {
			return nil, fmt.Errorf("scan effect: %w", err)
		}
		e.Phase = trace.Phase(phase)
		effects = append(effects, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate effects: %w", err)
	}
	return effects, nil
}

// MaxSeq returns the highest stored pass sequence number, or 0 for an empty
// log.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM passes`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

// Stats summarises a log.
type Stats struct {
	Passes    int            `json:"passes"`
	Committed int            `json:"committed"`
	Aborted   int            `json:"aborted"`
	Units     int            `json:"units"`
	Effects   map[string]int `json:"effects"`
}

// ReadStats aggregates pass statuses and effect counts over the whole log.
func (s *Store) ReadStats(ctx context.Context) (Stats, error) {
	st := Stats{Effects: map[string]int{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(status = 'committed'), 0),
			COALESCE(SUM(status = 'aborted'), 0),
			COALESCE(SUM(units), 0)
		FROM passes
	`).Scan(&st.Passes, &st.Committed, &st.Aborted, &st.Units)
	if err != nil {
		return Stats{}, fmt.Errorf("read stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT effect, COUNT(*)
		FROM effects
		GROUP BY effect
		ORDER BY effect ASC
	`)
	if err != nil {
		return Stats{}, fmt.Errorf("read stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		st.Effects[name] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate stats: %w", err)
	}
	return st, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPass(row scanner) (trace.Pass, error) {
	var p trace.Pass
	err := row.Scan(&p.ID, &p.Seq, &p.TreeHash, &p.Units, &p.Slices, &p.Status, &p.Error)
	return p, err
}
