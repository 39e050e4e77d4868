package sync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitd/internal/models"
	"habitd/internal/store"
	"habitd/internal/structures"
	"habitd/internal/sync"
	"habitd/internal/testutil"
)

type engineFixture struct {
	store     *store.Store
	codec     *sync.Codec
	transport *testutil.MockTransport
	metrics   *testutil.MockMetrics
	engine    *sync.Engine
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	conf := &structures.Config{}
	conf.Sync.AppVersion = "1.0.0-test"
	conf.Sync.Timeout = 5 * time.Second

	codec := sync.NewCodec(st, conf)
	transport := &testutil.MockTransport{}
	metrics := testutil.NewMockMetrics()
	engine := sync.NewEngine(st, codec, transport, conf, &testutil.MockLogger{}, metrics)

	return &engineFixture{store: st, codec: codec, transport: transport, metrics: metrics, engine: engine}
}

func (f *engineFixture) seed(t *testing.T) *models.Stat {
	t.Helper()
	stat, err := f.store.CreateStat("mood", "#ff0000", 0)
	require.NoError(t, err)
	_, err = f.store.CreateEntry(stat.ID, 5, models.NewDate(2026, 3, 1))
	require.NoError(t, err)
	return stat
}

// setRemote serializes a full envelope (checksum included) straight
// into the fake remote, bypassing the engine.
func (f *engineFixture) setRemote(t *testing.T, stats []models.Stat, entries []models.Entry) string {
	t.Helper()
	sum := models.Checksum(stats, entries)
	payload, err := f.codec.Serialize(&models.BackupFile{
		Metadata: models.BackupMetadata{
			Version:    models.BackupVersion,
			ExportedAt: time.Now().UTC(),
			StatCount:  len(stats),
			EntryCount: len(entries),
			Checksum:   sum,
		},
		Data: models.BackupData{Stats: stats, Entries: entries},
	})
	require.NoError(t, err)
	f.transport.SetRemote("remote-1", payload)
	return sum
}

func (f *engineFixture) localChecksum(t *testing.T) string {
	t.Helper()
	backup, err := f.codec.Build()
	require.NoError(t, err)
	return backup.Metadata.Checksum
}

func TestSyncFirstUpload(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)

	result := f.engine.Sync(context.Background(), sync.ResolutionNone)

	assert.Equal(t, sync.StatusSuccess, result.Status)
	assert.Equal(t, 1, f.transport.UploadCalls)

	settings, err := f.store.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, f.localChecksum(t), settings.LastSyncChecksum)
	assert.NotEmpty(t, settings.RemoteFileID)
	assert.False(t, settings.LastSyncAt.IsZero())
}

func TestSyncNoChanges(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)
	require.Equal(t, sync.StatusSuccess, f.engine.Sync(context.Background(), sync.ResolutionNone).Status)

	before, err := f.store.GetSettings()
	require.NoError(t, err)

	result := f.engine.Sync(context.Background(), sync.ResolutionNone)

	assert.Equal(t, sync.StatusNoChanges, result.Status)
	assert.Equal(t, 1, f.transport.UploadCalls, "identical datasets must not re-upload")

	after, err := f.store.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, before.LastSyncChecksum, after.LastSyncChecksum)
}

func TestSyncLocalOnlyChangeOverwritesRemote(t *testing.T) {
	f := newEngineFixture(t)
	stat := f.seed(t)
	require.Equal(t, sync.StatusSuccess, f.engine.Sync(context.Background(), sync.ResolutionNone).Status)

	_, err := f.store.CreateEntry(stat.ID, 9, models.NewDate(2026, 3, 2))
	require.NoError(t, err)

	result := f.engine.Sync(context.Background(), sync.ResolutionNone)

	assert.Equal(t, sync.StatusSuccess, result.Status)
	assert.Equal(t, 2, f.transport.UploadCalls)

	_, payload := f.transport.Remote()
	parsed, err := f.codec.Parse(payload)
	require.NoError(t, err)
	assert.Len(t, parsed.Data.Entries, 2)

	settings, err := f.store.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, f.localChecksum(t), settings.LastSyncChecksum)
}

// A remote that moved while the local dataset stayed put is still a
// conflict: the shortcut path only covers the local-only direction, so
// the user confirms which side wins.
func TestSyncRemoteOnlyChangeIsConflict(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)
	require.Equal(t, sync.StatusSuccess, f.engine.Sync(context.Background(), sync.ResolutionNone).Status)

	f.setRemote(t, []models.Stat{{ID: 9, Name: "imported", UpdatedAt: time.Now().UTC()}}, nil)
	uploadsBefore := f.transport.UploadCalls

	result := f.engine.Sync(context.Background(), sync.ResolutionNone)

	assert.Equal(t, sync.StatusConflict, result.Status)
	assert.Equal(t, uploadsBefore, f.transport.UploadCalls, "conflict must not write anything")
	require.NotNil(t, result.Local)
	require.NotNil(t, result.Remote)
	assert.Len(t, result.Remote.Data.Stats, 1)
	assert.Equal(t, "imported", result.Remote.Data.Stats[0].Name)
}

func TestSyncConflictBothSidesDiverged(t *testing.T) {
	f := newEngineFixture(t)
	stat := f.seed(t)
	require.Equal(t, sync.StatusSuccess, f.engine.Sync(context.Background(), sync.ResolutionNone).Status)

	_, err := f.store.CreateEntry(stat.ID, 2, models.NewDate(2026, 3, 3))
	require.NoError(t, err)
	f.setRemote(t, []models.Stat{{ID: 9, Name: "other-device", UpdatedAt: time.Now().UTC()}}, nil)

	result := f.engine.Sync(context.Background(), sync.ResolutionNone)
	assert.Equal(t, sync.StatusConflict, result.Status)
}

func TestSyncResolveKeepLocal(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)
	require.Equal(t, sync.StatusSuccess, f.engine.Sync(context.Background(), sync.ResolutionNone).Status)
	f.setRemote(t, []models.Stat{{ID: 9, Name: "other-device", UpdatedAt: time.Now().UTC()}}, nil)

	result := f.engine.Sync(context.Background(), sync.ResolutionKeepLocal)
	require.Equal(t, sync.StatusSuccess, result.Status)

	_, payload := f.transport.Remote()
	parsed, err := f.codec.Parse(payload)
	require.NoError(t, err)
	require.Len(t, parsed.Data.Stats, 1)
	assert.Equal(t, "mood", parsed.Data.Stats[0].Name)

	settings, err := f.store.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, f.localChecksum(t), settings.LastSyncChecksum)
}

func TestSyncResolveUseCloud(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)
	require.Equal(t, sync.StatusSuccess, f.engine.Sync(context.Background(), sync.ResolutionNone).Status)
	remoteSum := f.setRemote(t, []models.Stat{{ID: 9, Name: "other-device", UpdatedAt: time.Now().UTC()}}, nil)
	uploadsBefore := f.transport.UploadCalls

	result := f.engine.Sync(context.Background(), sync.ResolutionUseCloud)
	require.Equal(t, sync.StatusSuccess, result.Status)
	assert.Equal(t, uploadsBefore, f.transport.UploadCalls, "use-cloud only imports")

	stats, err := f.store.ListStats()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "other-device", stats[0].Name)

	entries, err := f.store.ListEntries(store.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)

	settings, err := f.store.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, remoteSum, settings.LastSyncChecksum)
}

func TestSyncResolveMerge(t *testing.T) {
	f := newEngineFixture(t)
	stat := f.seed(t)
	require.Equal(t, sync.StatusSuccess, f.engine.Sync(context.Background(), sync.ResolutionNone).Status)

	_, err := f.store.CreateEntry(stat.ID, 2, models.NewDate(2026, 3, 3))
	require.NoError(t, err)
	f.setRemote(t, []models.Stat{
		{ID: stat.ID, Name: "mood", UpdatedAt: stat.UpdatedAt},
		{ID: 9, Name: "other-device", UpdatedAt: time.Now().UTC()},
	}, nil)

	result := f.engine.Sync(context.Background(), sync.ResolutionMerge)
	require.Equal(t, sync.StatusSuccess, result.Status)

	stats, err := f.store.ListStats()
	require.NoError(t, err)
	assert.Len(t, stats, 2)
	entries, err := f.store.ListEntries(store.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// Remote and watermark both carry the merged dataset.
	_, payload := f.transport.Remote()
	parsed, err := f.codec.Parse(payload)
	require.NoError(t, err)
	mergedSum := models.Checksum(parsed.Data.Stats, parsed.Data.Entries)
	assert.Equal(t, f.localChecksum(t), mergedSum)

	settings, err := f.store.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, mergedSum, settings.LastSyncChecksum)
}

// Hand-edited backups can lack the metadata checksum; the engine
// recomputes it from the payload instead of treating it as divergence.
func TestSyncRecomputesMissingRemoteChecksum(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)
	require.Equal(t, sync.StatusSuccess, f.engine.Sync(context.Background(), sync.ResolutionNone).Status)

	backup, err := f.codec.Build()
	require.NoError(t, err)
	backup.Metadata.Checksum = ""
	payload, err := f.codec.Serialize(backup)
	require.NoError(t, err)
	f.transport.SetRemote("remote-1", payload)

	result := f.engine.Sync(context.Background(), sync.ResolutionNone)
	assert.Equal(t, sync.StatusNoChanges, result.Status)
}

func TestSyncTransportFailure(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)
	f.transport.FindErr = errors.New("drive not mounted")

	result := f.engine.Sync(context.Background(), sync.ResolutionNone)

	assert.Equal(t, sync.StatusError, result.Status)
	assert.Contains(t, result.Message, "drive not mounted")

	settings, err := f.store.GetSettings()
	require.NoError(t, err)
	assert.Empty(t, settings.LastSyncChecksum, "watermark must not advance on failure")
}

func TestSyncUploadFailureKeepsWatermark(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)
	f.transport.UploadErr = errors.New("disk full")

	result := f.engine.Sync(context.Background(), sync.ResolutionNone)

	assert.Equal(t, sync.StatusError, result.Status)
	settings, err := f.store.GetSettings()
	require.NoError(t, err)
	assert.Empty(t, settings.LastSyncChecksum)
}

func TestSyncCorruptRemotePayload(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)
	f.transport.SetRemote("remote-1", []byte("garbage"))

	result := f.engine.Sync(context.Background(), sync.ResolutionNone)
	assert.Equal(t, sync.StatusError, result.Status)
}

func TestSyncRecordsMetrics(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t)

	f.engine.Sync(context.Background(), sync.ResolutionNone)
	f.engine.Sync(context.Background(), sync.ResolutionNone)

	assert.Equal(t, 1, f.metrics.SyncRuns["success"])
	assert.Equal(t, 1, f.metrics.SyncRuns["no-changes"])
}

func TestParseResolution(t *testing.T) {
	for _, valid := range []string{"", "keep-local", "use-cloud", "merge"} {
		r, err := sync.ParseResolution(valid)
		require.NoError(t, err)
		assert.Equal(t, sync.Resolution(valid), r)
	}

	_, err := sync.ParseResolution("bogus")
	assert.ErrorIs(t, err, sync.ErrValidation)
}
