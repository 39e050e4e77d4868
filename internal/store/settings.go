package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitd/internal/models"
)

// GetSettings returns the singleton settings row, or defaults when the
// row has never been written.
func (s *Store) GetSettings() (models.Settings, error) {
	var (
		out         = models.DefaultSettings()
		syncEnabled int
		lastSyncAt  string
	)
	err := s.db.QueryRow(
		`SELECT days_to_show, sync_enabled, last_sync_at, last_sync_checksum, remote_file_id, badge_refill_days
		 FROM settings WHERE id = 1`,
	).Scan(&out.DaysToShow, &syncEnabled, &lastSyncAt, &out.LastSyncChecksum, &out.RemoteFileID, &out.BadgeRefillDays)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	out.SyncEnabled = syncEnabled == 1
	if lastSyncAt != "" {
		out.LastSyncAt, _ = time.Parse(timeFormat, lastSyncAt)
	}
	return out, nil
}

// UpdateSettings upserts the singleton row with the full record.
func (s *Store) UpdateSettings(st models.Settings) error {
	syncEnabled := 0
	if st.SyncEnabled {
		syncEnabled = 1
	}
	lastSyncAt := ""
	if !st.LastSyncAt.IsZero() {
		lastSyncAt = st.LastSyncAt.UTC().Format(timeFormat)
	}
	_, err := s.db.Exec(
		`INSERT INTO settings (id, days_to_show, sync_enabled, last_sync_at, last_sync_checksum, remote_file_id, badge_refill_days)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			days_to_show = excluded.days_to_show,
			sync_enabled = excluded.sync_enabled,
			last_sync_at = excluded.last_sync_at,
			last_sync_checksum = excluded.last_sync_checksum,
			remote_file_id = excluded.remote_file_id,
			badge_refill_days = excluded.badge_refill_days`,
		st.DaysToShow, syncEnabled, lastSyncAt, st.LastSyncChecksum, st.RemoteFileID, st.BadgeRefillDays,
	)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// UpdateSyncState persists the watermark after a confirmed-successful
// sync step without touching user preferences. Does not notify
// subscribers.
func (s *Store) UpdateSyncState(checksum, remoteFileID string, at time.Time) error {
	cur, err := s.GetSettings()
	if err != nil {
		return err
	}
	cur.LastSyncChecksum = checksum
	cur.RemoteFileID = remoteFileID
	cur.LastSyncAt = at
	return s.UpdateSettings(cur)
}

// UpdateLastSyncTime records a no-changes sync attempt, leaving the
// watermark untouched.
func (s *Store) UpdateLastSyncTime(at time.Time) error {
	cur, err := s.GetSettings()
	if err != nil {
		return err
	}
	cur.LastSyncAt = at
	return s.UpdateSettings(cur)
}
