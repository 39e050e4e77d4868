package sync

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"habitd/internal/models"
	"habitd/internal/store"
	"habitd/internal/structures"
)

// Codec builds, serializes and parses backup envelopes. Build reads
// from the local store; Serialize and Parse are pure.
type Codec struct {
	store      *store.Store
	appVersion string
}

func NewCodec(st *store.Store, conf *structures.Config) *Codec {
	return &Codec{store: st, appVersion: conf.Sync.AppVersion}
}

// Build reads the full local dataset and wraps it in a fresh envelope.
// The only failure mode is a store read failure, which is propagated.
func (c *Codec) Build() (*models.BackupFile, error) {
	stats, err := c.store.ListStats()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	entries, err := c.store.ListEntries(store.EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	return &models.BackupFile{
		Metadata: models.BackupMetadata{
			Version:    models.BackupVersion,
			ExportedAt: time.Now().UTC(),
			AppVersion: c.appVersion,
			EntryCount: len(entries),
			StatCount:  len(stats),
			Checksum:   models.Checksum(stats, entries),
		},
		Data: models.BackupData{
			Stats:   stats,
			Entries: entries,
		},
	}, nil
}

// Serialize encodes an envelope to its wire form.
func (c *Codec) Serialize(b *models.BackupFile) ([]byte, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("serialize backup: %w", err)
	}
	return data, nil
}

// Parse decodes a previously serialized envelope. It verifies the
// top-level shape (metadata object, data.stats and data.entries
// arrays) and nothing more; per-record validation is left to the
// store writes downstream. The payload checksum is not re-verified.
func (c *Codec) Parse(text []byte) (*models.BackupFile, error) {
	var probe struct {
		Metadata *models.BackupMetadata `json:"metadata"`
		Data     *struct {
			Stats   *[]models.Stat  `json:"stats"`
			Entries *[]models.Entry `json:"entries"`
		} `json:"data"`
	}
	if err := json.Unmarshal(text, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if probe.Data == nil || probe.Data.Stats == nil || probe.Data.Entries == nil {
		return nil, fmt.Errorf("%w: missing data.stats or data.entries", ErrParse)
	}

	out := &models.BackupFile{
		Data: models.BackupData{
			Stats:   *probe.Data.Stats,
			Entries: *probe.Data.Entries,
		},
	}
	if probe.Metadata != nil {
		out.Metadata = *probe.Metadata
	}
	return out, nil
}
