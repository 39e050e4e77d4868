package sync_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitd/internal/sync"
)

func newDirTransport(t *testing.T) (*sync.DirTransport, string) {
	t.Helper()
	comp, err := sync.NewZstdCompressor()
	require.NoError(t, err)
	t.Cleanup(comp.Close)

	dir := t.TempDir()
	return sync.NewDirTransport(dir, "", comp), dir
}

func TestDirTransportFindMissing(t *testing.T) {
	tr, _ := newDirTransport(t)

	remote, err := tr.Find(context.Background())
	require.NoError(t, err)
	assert.Nil(t, remote)
}

func TestDirTransportRoundTrip(t *testing.T) {
	tr, dir := newDirTransport(t)
	payload := []byte(`{"data":{"stats":[],"entries":[]}}`)

	id, err := tr.Upload(context.Background(), payload, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".habitd", sync.DefaultBackupName), id)

	remote, err := tr.Find(context.Background())
	require.NoError(t, err)
	require.NotNil(t, remote)
	assert.Equal(t, id, remote.ID)

	got, err := tr.Download(context.Background(), remote.ID)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDirTransportCompresses(t *testing.T) {
	tr, _ := newDirTransport(t)
	payload := []byte(`{"data":{"stats":[],"entries":[]}}`)

	id, err := tr.Upload(context.Background(), payload, "")
	require.NoError(t, err)

	onDisk, err := os.ReadFile(id)
	require.NoError(t, err)
	assert.NotEqual(t, payload, onDisk)
}

func TestDirTransportOverwrite(t *testing.T) {
	tr, _ := newDirTransport(t)

	id, err := tr.Upload(context.Background(), []byte("first"), "")
	require.NoError(t, err)
	id2, err := tr.Upload(context.Background(), []byte("second"), id)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	got, err := tr.Download(context.Background(), id2)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestDirTransportLeavesNoTempFile(t *testing.T) {
	tr, dir := newDirTransport(t)

	_, err := tr.Upload(context.Background(), []byte("payload"), "")
	require.NoError(t, err)

	files, err := os.ReadDir(filepath.Join(dir, ".habitd"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, sync.DefaultBackupName, files[0].Name())
}

func TestDirTransportCorruptFile(t *testing.T) {
	tr, dir := newDirTransport(t)
	path := filepath.Join(dir, ".habitd", sync.DefaultBackupName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("not zstd"), 0o644))

	_, err := tr.Download(context.Background(), path)
	assert.ErrorIs(t, err, sync.ErrTransport)
}

func TestDirTransportCancelledContext(t *testing.T) {
	tr, _ := newDirTransport(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Find(ctx)
	assert.ErrorIs(t, err, sync.ErrTransport)
	_, err = tr.Upload(ctx, []byte("x"), "")
	assert.ErrorIs(t, err, sync.ErrTransport)
	_, err = tr.Download(ctx, "x")
	assert.ErrorIs(t, err, sync.ErrTransport)
}
