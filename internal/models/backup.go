package models

import "time"

// BackupVersion is the current backup envelope schema version.
const BackupVersion = 1

// BackupMetadata describes the payload of a backup envelope.
type BackupMetadata struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	AppVersion string    `json:"appVersion"`
	EntryCount int       `json:"entryCount"`
	StatCount  int       `json:"statCount"`
	Checksum   string    `json:"checksum"`
}

// BackupData is the full dataset carried by a backup envelope.
type BackupData struct {
	Stats   []Stat  `json:"stats"`
	Entries []Entry `json:"entries"`
}

// BackupFile is the versioned envelope exchanged with the remote
// transport and via manual export/import. It is a transient value
// object, produced fresh on every sync attempt and never persisted
// locally.
type BackupFile struct {
	Metadata BackupMetadata `json:"metadata"`
	Data     BackupData     `json:"data"`
}
