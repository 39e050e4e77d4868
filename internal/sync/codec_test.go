package sync_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitd/internal/models"
	"habitd/internal/store"
	"habitd/internal/structures"
	"habitd/internal/sync"
)

func newTestCodec(t *testing.T) (*store.Store, *sync.Codec) {
	t.Helper()
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	conf := &structures.Config{}
	conf.Sync.AppVersion = "1.0.0-test"
	return st, sync.NewCodec(st, conf)
}

func TestCodecBuildEnvelope(t *testing.T) {
	st, codec := newTestCodec(t)
	stat, err := st.CreateStat("mood", "#ff0000", 0)
	require.NoError(t, err)
	_, err = st.CreateEntry(stat.ID, 5, models.NewDate(2026, 3, 1))
	require.NoError(t, err)

	backup, err := codec.Build()
	require.NoError(t, err)

	assert.Equal(t, models.BackupVersion, backup.Metadata.Version)
	assert.Equal(t, "1.0.0-test", backup.Metadata.AppVersion)
	assert.Equal(t, 1, backup.Metadata.StatCount)
	assert.Equal(t, 1, backup.Metadata.EntryCount)
	assert.Equal(t, models.Checksum(backup.Data.Stats, backup.Data.Entries), backup.Metadata.Checksum)
	assert.WithinDuration(t, time.Now().UTC(), backup.Metadata.ExportedAt, 5*time.Second)
}

func TestCodecRoundTripPreservesChecksum(t *testing.T) {
	st, codec := newTestCodec(t)
	stat, err := st.CreateStat("mood", "#ff0000", 0)
	require.NoError(t, err)
	_, err = st.CreateEntry(stat.ID, 5, models.NewDate(2026, 3, 1))
	require.NoError(t, err)
	_, err = st.CreateEntry(stat.ID, 8, models.NewDate(2026, 3, 2))
	require.NoError(t, err)

	backup, err := codec.Build()
	require.NoError(t, err)

	payload, err := codec.Serialize(backup)
	require.NoError(t, err)

	parsed, err := codec.Parse(payload)
	require.NoError(t, err)

	assert.Equal(t, backup.Metadata.Checksum, models.Checksum(parsed.Data.Stats, parsed.Data.Entries))
	assert.Equal(t, backup.Data.Stats, parsed.Data.Stats)
	assert.Equal(t, backup.Data.Entries, parsed.Data.Entries)
}

func TestCodecParseMalformedJSON(t *testing.T) {
	_, codec := newTestCodec(t)

	_, err := codec.Parse([]byte("{not json"))
	assert.ErrorIs(t, err, sync.ErrParse)
}

func TestCodecParseMissingData(t *testing.T) {
	_, codec := newTestCodec(t)

	cases := []string{
		`{}`,
		`{"data":{}}`,
		`{"data":{"stats":[]}}`,
		`{"data":{"entries":[]}}`,
	}
	for _, c := range cases {
		_, err := codec.Parse([]byte(c))
		assert.ErrorIs(t, err, sync.ErrParse, "payload: %s", c)
	}
}

func TestCodecParseWithoutMetadata(t *testing.T) {
	_, codec := newTestCodec(t)

	parsed, err := codec.Parse([]byte(`{"data":{"stats":[],"entries":[]}}`))
	require.NoError(t, err)
	assert.Empty(t, parsed.Metadata.Checksum)
	assert.Empty(t, parsed.Data.Stats)
	assert.Empty(t, parsed.Data.Entries)
}
