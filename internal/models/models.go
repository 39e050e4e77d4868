package models

import "time"

const (
	// MinValue and MaxValue bound an entry rating.
	MinValue = 0
	MaxValue = 10
)

// Stat is a tracked category (mood, sleep, exercise, ...).
// Name is case-normalized to lowercase on write.
type Stat struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Entry is a single rating against a stat on a calendar date.
// Multiple entries may share a (stat, date) pair; aggregation happens
// at presentation time, not in storage.
type Entry struct {
	ID        int64     `json:"id"`
	StatID    int64     `json:"statId"`
	Value     int       `json:"value"`
	Date      Date      `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Settings is the process-wide singleton record. Absence in the store
// means "use defaults", never an error.
type Settings struct {
	DaysToShow       int       `json:"daysToShow"`
	SyncEnabled      bool      `json:"syncEnabled"`
	LastSyncAt       time.Time `json:"lastSyncAt"`
	LastSyncChecksum string    `json:"lastSyncChecksum"`
	RemoteFileID     string    `json:"remoteFileId"`
	BadgeRefillDays  int       `json:"badgeRefillDays"`
}

func DefaultSettings() Settings {
	return Settings{
		DaysToShow:      30,
		BadgeRefillDays: 7,
	}
}
