package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"habitd/internal/structures"
)

// privateDir is the application-private folder inside the remote
// store. It keeps the backup out of the user's general file listing.
const privateDir = ".habitd"

// DefaultBackupName is the well-known remote filename. Exactly one
// backup file exists per account.
const DefaultBackupName = "habitd.backup"

// RemoteFile identifies the single backup blob on the remote side.
type RemoteFile struct {
	ID       string
	Modified time.Time
}

// Transport is the remote blob store collaborator: one named blob,
// full overwrite on upload, no partial writes. Implementations must
// honor ctx cancellation; the engine imposes a timeout per call.
type Transport interface {
	// Find locates the backup file, returning nil when none exists.
	Find(ctx context.Context) (*RemoteFile, error)

	// Upload creates or fully overwrites the backup blob and returns
	// its identifier. existingID is empty on first upload.
	Upload(ctx context.Context, payload []byte, existingID string) (string, error)

	// Download fetches the blob by identifier.
	Download(ctx context.Context, id string) ([]byte, error)
}

// DirTransport stores the backup blob in a directory, typically a
// locally mounted cloud drive. Payloads are zstd-compressed and
// written atomically (tmp file, fsync, rename).
type DirTransport struct {
	dir        string
	name       string
	compressor Compressor
}

func NewDirTransport(dir, name string, compressor Compressor) *DirTransport {
	if name == "" {
		name = DefaultBackupName
	}
	return &DirTransport{dir: dir, name: name, compressor: compressor}
}

// NewTransport builds the configured transport. Only the directory
// transport ships here; cloud-API transports implement the same
// interface out of tree.
func NewTransport(conf *structures.Config, compressor Compressor) Transport {
	return NewDirTransport(conf.Sync.RemoteDir, conf.Sync.FileName, compressor)
}

func (t *DirTransport) path() string {
	return filepath.Join(t.dir, privateDir, t.name)
}

func (t *DirTransport) Find(ctx context.Context) (*RemoteFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	info, err := os.Stat(t.path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: stat backup: %v", ErrTransport, err)
	}
	return &RemoteFile{ID: t.path(), Modified: info.ModTime()}, nil
}

func (t *DirTransport) Upload(ctx context.Context, payload []byte, existingID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	data, err := t.compressor.Compress(payload)
	if err != nil {
		return "", fmt.Errorf("%w: compress: %v", ErrTransport, err)
	}

	target := t.path()
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("%w: create remote dir: %v", ErrTransport, err)
	}

	tmp := target + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("%w: create tmp: %v", ErrTransport, err)
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("%w: write tmp: %v", ErrTransport, err)
	}
	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("%w: sync tmp: %v", ErrTransport, err)
	}
	if err = file.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: close tmp: %v", ErrTransport, err)
	}
	if err = os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: rename into place: %v", ErrTransport, err)
	}
	return target, nil
}

func (t *DirTransport) Download(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	data, err := os.ReadFile(id)
	if err != nil {
		return nil, fmt.Errorf("%w: read backup: %v", ErrTransport, err)
	}
	payload, err := t.compressor.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress backup: %v", ErrTransport, err)
	}
	return payload, nil
}
