package store

import (
	"fmt"
	"time"

	"habitd/internal/models"
)

// EntryFilter narrows ListEntries. Zero fields are ignored.
type EntryFilter struct {
	StatID int64
	From   *models.Date
	To     *models.Date
	Limit  int
}

func (s *Store) CreateEntry(statID int64, value int, date models.Date) (*models.Entry, error) {
	if value < models.MinValue || value > models.MaxValue {
		return nil, fmt.Errorf("entry value %d out of range [%d, %d]", value, models.MinValue, models.MaxValue)
	}
	now := time.Now().UTC().Format(timeFormat)
	res, err := s.db.Exec(
		`INSERT INTO entries (stat_id, value, date, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		statID, value, date.String(), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	id, _ := res.LastInsertId()
	s.notify()
	return s.GetEntry(id)
}

func (s *Store) GetEntry(id int64) (*models.Entry, error) {
	e := &models.Entry{}
	var date, createdAt, updatedAt string
	err := s.db.QueryRow(
		`SELECT id, stat_id, value, date, created_at, updated_at FROM entries WHERE id = ?`, id,
	).Scan(&e.ID, &e.StatID, &e.Value, &date, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	e.Date, _ = models.ParseDate(date)
	e.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	e.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	return e, nil
}

// ListEntries returns entries in primary-key order, which the checksum
// relies on. Filters narrow by stat and date range.
func (s *Store) ListEntries(f EntryFilter) ([]models.Entry, error) {
	query := `SELECT id, stat_id, value, date, created_at, updated_at FROM entries WHERE 1=1`
	var args []any

	if f.StatID != 0 {
		query += ` AND stat_id = ?`
		args = append(args, f.StatID)
	}
	if f.From != nil {
		query += ` AND date >= ?`
		args = append(args, f.From.String())
	}
	if f.To != nil {
		query += ` AND date <= ?`
		args = append(args, f.To.String())
	}
	query += ` ORDER BY id`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var e models.Entry
		var date, createdAt, updatedAt string
		if err := rows.Scan(&e.ID, &e.StatID, &e.Value, &date, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		e.Date, _ = models.ParseDate(date)
		e.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		e.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) UpdateEntry(id int64, value int, date models.Date) error {
	if value < models.MinValue || value > models.MaxValue {
		return fmt.Errorf("entry value %d out of range [%d, %d]", value, models.MinValue, models.MaxValue)
	}
	now := time.Now().UTC().Format(timeFormat)
	res, err := s.db.Exec(
		`UPDATE entries SET value = ?, date = ?, updated_at = ? WHERE id = ?`,
		value, date.String(), now, id,
	)
	if err != nil {
		return fmt.Errorf("update entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update entry %d: no such entry", id)
	}
	s.notify()
	return nil
}

func (s *Store) DeleteEntry(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	s.notify()
	return nil
}

func (s *Store) CountEntries() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

// DailyAverage is the chart aggregation: mean value per stat per day.
type DailyAverage struct {
	Date      string  `json:"date"`
	StatID    int64   `json:"statId"`
	StatName  string  `json:"statName"`
	StatColor string  `json:"statColor"`
	Average   float64 `json:"average"`
	Count     int     `json:"count"`
}

// Summary aggregates entries from the given date onward, averaging
// multiple check-ins per (stat, date) pair.
func (s *Store) Summary(from models.Date) ([]DailyAverage, error) {
	rows, err := s.db.Query(`
		SELECT e.date, e.stat_id, st.name, st.color, AVG(e.value), COUNT(*)
		FROM entries e
		JOIN stats st ON st.id = e.stat_id
		WHERE e.date >= ?
		GROUP BY e.date, e.stat_id
		ORDER BY e.date, st.display_order, st.id`,
		from.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	defer rows.Close()

	var out []DailyAverage
	for rows.Next() {
		var da DailyAverage
		if err := rows.Scan(&da.Date, &da.StatID, &da.StatName, &da.StatColor, &da.Average, &da.Count); err != nil {
			return nil, err
		}
		out = append(out, da)
	}
	return out, rows.Err()
}
