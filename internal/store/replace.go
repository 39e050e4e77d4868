package store

import (
	"database/sql"
	"fmt"

	"habitd/internal/models"
)

// ReplaceAll swaps the entire local dataset for the given one inside a
// single transaction (clear-then-bulk-insert). Identifiers and
// timestamps are preserved from the incoming records; a failure rolls
// the whole replacement back. Used by the use-cloud and merge conflict
// resolutions and by manual import.
func (s *Store) ReplaceAll(stats []models.Stat, entries []models.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM stats`); err != nil {
		return fmt.Errorf("clear stats: %w", err)
	}

	if err := insertStats(tx, stats); err != nil {
		return err
	}
	if err := insertEntries(tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func insertStats(tx *sql.Tx, stats []models.Stat) error {
	stmt, err := tx.Prepare(
		`INSERT INTO stats (id, name, color, display_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare stat insert: %w", err)
	}
	defer stmt.Close()

	for _, st := range stats {
		_, err := stmt.Exec(
			st.ID, st.Name, st.Color, st.Order,
			st.CreatedAt.UTC().Format(timeFormat),
			st.UpdatedAt.UTC().Format(timeFormat),
		)
		if err != nil {
			return fmt.Errorf("insert stat %d: %w", st.ID, err)
		}
	}
	return nil
}

func insertEntries(tx *sql.Tx, entries []models.Entry) error {
	stmt, err := tx.Prepare(
		`INSERT INTO entries (id, stat_id, value, date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		_, err := stmt.Exec(
			e.ID, e.StatID, e.Value, e.Date.String(),
			e.CreatedAt.UTC().Format(timeFormat),
			e.UpdatedAt.UTC().Format(timeFormat),
		)
		if err != nil {
			return fmt.Errorf("insert entry %d: %w", e.ID, err)
		}
	}
	return nil
}
