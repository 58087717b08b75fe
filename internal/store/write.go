package store

import (
	"context"
	"fmt"

	"github.com/roach88/reconcile/internal/trace"
)

// WritePass inserts a pass and its effect records in one transaction.
// Uses ON CONFLICT(id) DO NOTHING for idempotency: a pass ID that is
// already stored is silently ignored, effects included.
func (s *Store) WritePass(ctx context.Context, p trace.Pass) error {
	if s.readOnly {
		return fmt.Errorf("write pass %s: %w", p.ID, ErrReadOnly)
	}
	if p.ID == "" {
		return fmt.Errorf("write pass: empty pass id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write pass: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO passes (id, seq, tree_hash, units, slices, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, p.ID, p.Seq, p.TreeHash, p.Units, p.Slices, p.Status, p.Error)
	if err != nil {
		return fmt.Errorf("write pass %s: %w", p.ID, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write pass %s: %w", p.ID, err)
	}
	if inserted == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO effects (pass_id, ord, phase, effect, tag, label, depth, props)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write pass %s: prepare effects: %w", p.ID, err)
	}
	defer stmt.Close()

	for i, e := range p.Effects {
		props := e.Props
		if props == "" {
			props = "{}"
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, i, string(e.Phase), e.Effect, e.Tag, e.Label, e.Depth, props,
		); err != nil {
			return fmt.Errorf("write pass %s: effect %d: %w", p.ID, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write pass %s: commit: %w", p.ID, err)
	}
	return nil
}
