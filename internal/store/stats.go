package store

import (
	"fmt"
	"strings"
	"time"

	"habitd/internal/models"
)

func (s *Store) CreateStat(name, color string, order int) (*models.Stat, error) {
	now := time.Now().UTC().Format(timeFormat)
	res, err := s.db.Exec(
		`INSERT INTO stats (name, color, display_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		strings.ToLower(name), color, order, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert stat: %w", err)
	}
	id, _ := res.LastInsertId()
	s.notify()
	return s.GetStat(id)
}

func (s *Store) GetStat(id int64) (*models.Stat, error) {
	st := &models.Stat{}
	var createdAt, updatedAt string
	err := s.db.QueryRow(
		`SELECT id, name, color, display_order, created_at, updated_at FROM stats WHERE id = ?`, id,
	).Scan(&st.ID, &st.Name, &st.Color, &st.Order, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("get stat %d: %w", id, err)
	}
	st.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	st.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	return st, nil
}

// ListStats returns all stats in primary-key order. Checksum
// computation depends on this ordering being stable.
func (s *Store) ListStats() ([]models.Stat, error) {
	rows, err := s.db.Query(`SELECT id, name, color, display_order, created_at, updated_at FROM stats ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list stats: %w", err)
	}
	defer rows.Close()

	var stats []models.Stat
	for rows.Next() {
		var st models.Stat
		var createdAt, updatedAt string
		if err := rows.Scan(&st.ID, &st.Name, &st.Color, &st.Order, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		st.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		st.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *Store) UpdateStat(id int64, name, color string, order int) error {
	now := time.Now().UTC().Format(timeFormat)
	res, err := s.db.Exec(
		`UPDATE stats SET name = ?, color = ?, display_order = ?, updated_at = ? WHERE id = ?`,
		strings.ToLower(name), color, order, now, id,
	)
	if err != nil {
		return fmt.Errorf("update stat %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update stat %d: no such stat", id)
	}
	s.notify()
	return nil
}

// DeleteStat removes a stat together with all of its entries in one
// transaction, so a concurrent reader never observes orphaned entries.
func (s *Store) DeleteStat(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete stat: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM entries WHERE stat_id = ?`, id); err != nil {
		return fmt.Errorf("delete entries of stat %d: %w", id, err)
	}
	if _, err := tx.Exec(`DELETE FROM stats WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete stat %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete stat %d: %w", id, err)
	}
	s.notify()
	return nil
}

func (s *Store) CountStats() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM stats`).Scan(&n)
	return n, err
}
