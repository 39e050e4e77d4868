package sync

import (
	"context"
	"fmt"
	"time"

	"habitd/internal/models"
	"habitd/internal/providers"
	"habitd/internal/store"
	"habitd/internal/structures"
)

type Status string

const (
	StatusSuccess   Status = "success"
	StatusNoChanges Status = "no-changes"
	StatusConflict  Status = "conflict"
	StatusError     Status = "error"
)

// Resolution is the caller-supplied answer to a conflict.
type Resolution string

const (
	ResolutionNone      Resolution = ""
	ResolutionKeepLocal Resolution = "keep-local"
	ResolutionUseCloud  Resolution = "use-cloud"
	ResolutionMerge     Resolution = "merge"
)

func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case ResolutionNone, ResolutionKeepLocal, ResolutionUseCloud, ResolutionMerge:
		return Resolution(s), nil
	}
	return ResolutionNone, fmt.Errorf("%w: unknown resolution %q", ErrValidation, s)
}

// Result is the outcome of one sync attempt. On conflict both candidate
// envelopes are attached so the caller can choose a resolution.
type Result struct {
	Status   Status             `json:"status"`
	Message  string             `json:"message,omitempty"`
	Local    *models.BackupFile `json:"local,omitempty"`
	Remote   *models.BackupFile `json:"remote,omitempty"`
	RemoteID string             `json:"-"`
}

// Engine runs the three-way reconciliation between the local store, the
// remote backup blob and the last-sync watermark. All remote calls and
// store operations are sequential; concurrency control lives in the
// Trigger.
type Engine struct {
	store     *store.Store
	codec     *Codec
	transport Transport
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	timeout   time.Duration
}

func NewEngine(st *store.Store, codec *Codec, transport Transport, conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) *Engine {
	return &Engine{
		store:     st,
		codec:     codec,
		transport: transport,
		logger:    logger,
		metrics:   metrics,
		timeout:   conf.Sync.Timeout,
	}
}

// Sync performs one reconciliation run. Any failure in any branch is
// converted into a StatusError result; the watermark is only advanced
// after the corresponding upload or import observably succeeded.
func (e *Engine) Sync(ctx context.Context, resolution Resolution) Result {
	start := time.Now()
	result := e.run(ctx, resolution)
	e.metrics.IncSyncRuns(string(result.Status))
	e.metrics.ObserveSyncDuration(time.Since(start))

	switch result.Status {
	case StatusError:
		e.logger.Errorf(providers.TypeSync, "sync failed: %s", result.Message)
	case StatusConflict:
		e.logger.Warnf(providers.TypeSync, "sync conflict: local and remote both changed since last sync")
	default:
		e.logger.Infof(providers.TypeSync, "sync finished: %s", result.Status)
	}
	return result
}

func (e *Engine) run(ctx context.Context, resolution Resolution) Result {
	local, err := e.codec.Build()
	if err != nil {
		return errResult(err)
	}
	localSum := local.Metadata.Checksum

	remote, err := e.find(ctx)
	if err != nil {
		return errResult(err)
	}

	// No remote file: upload local as the first backup.
	if remote == nil {
		id, err := e.uploadEnvelope(ctx, local, "")
		if err != nil {
			return errResult(err)
		}
		if err := e.store.UpdateSyncState(localSum, id, time.Now().UTC()); err != nil {
			return errResult(fmt.Errorf("%w: %v", ErrStore, err))
		}
		return Result{Status: StatusSuccess, RemoteID: id}
	}

	remoteBackup, err := e.download(ctx, remote.ID)
	if err != nil {
		return errResult(err)
	}
	remoteSum := remoteBackup.Metadata.Checksum
	if remoteSum == "" {
		// Manually imported or hand-edited backups may lack the
		// metadata checksum; recompute from the payload.
		remoteSum = models.Checksum(remoteBackup.Data.Stats, remoteBackup.Data.Entries)
	}

	if remoteSum == localSum {
		if err := e.store.UpdateLastSyncTime(time.Now().UTC()); err != nil {
			return errResult(fmt.Errorf("%w: %v", ErrStore, err))
		}
		return Result{Status: StatusNoChanges, RemoteID: remote.ID}
	}

	settings, err := e.store.GetSettings()
	if err != nil {
		return errResult(fmt.Errorf("%w: %v", ErrStore, err))
	}

	// Remote unchanged since the last sync: only local moved, overwrite.
	if settings.LastSyncChecksum == remoteSum {
		id, err := e.uploadEnvelope(ctx, local, remote.ID)
		if err != nil {
			return errResult(err)
		}
		if err := e.store.UpdateSyncState(localSum, id, time.Now().UTC()); err != nil {
			return errResult(fmt.Errorf("%w: %v", ErrStore, err))
		}
		return Result{Status: StatusSuccess, RemoteID: id}
	}

	// Both sides diverged from the watermark. A remote-only change also
	// lands here: the overwrite shortcut above only covers the
	// local-only direction, so a second device's sync surfaces as a
	// conflict for the user to settle.
	if resolution == ResolutionNone {
		return Result{
			Status:   StatusConflict,
			Message:  "local and remote datasets both changed since last sync",
			Local:    local,
			Remote:   remoteBackup,
			RemoteID: remote.ID,
		}
	}

	return e.resolve(ctx, resolution, local, remoteBackup, remote.ID, localSum, remoteSum)
}

func (e *Engine) resolve(ctx context.Context, resolution Resolution, local, remote *models.BackupFile, remoteID, localSum, remoteSum string) Result {
	switch resolution {
	case ResolutionKeepLocal:
		id, err := e.uploadEnvelope(ctx, local, remoteID)
		if err != nil {
			return errResult(err)
		}
		if err := e.store.UpdateSyncState(localSum, id, time.Now().UTC()); err != nil {
			return errResult(fmt.Errorf("%w: %v", ErrStore, err))
		}
		return Result{Status: StatusSuccess, RemoteID: id}

	case ResolutionUseCloud:
		if err := e.store.ReplaceAll(remote.Data.Stats, remote.Data.Entries); err != nil {
			return errResult(fmt.Errorf("%w: %v", ErrStore, err))
		}
		if err := e.store.UpdateSyncState(remoteSum, remoteID, time.Now().UTC()); err != nil {
			return errResult(fmt.Errorf("%w: %v", ErrStore, err))
		}
		return Result{Status: StatusSuccess, RemoteID: remoteID}

	case ResolutionMerge:
		merged := Merge(local.Data, remote.Data)
		if err := e.store.ReplaceAll(merged.Stats, merged.Entries); err != nil {
			return errResult(fmt.Errorf("%w: %v", ErrStore, err))
		}
		// Rebuild from the store so the uploaded envelope carries the
		// canonical record order and a matching checksum. If the upload
		// fails the local replacement stays; the next attempt
		// reconciles again.
		fresh, err := e.codec.Build()
		if err != nil {
			return errResult(err)
		}
		id, err := e.uploadEnvelope(ctx, fresh, remoteID)
		if err != nil {
			return errResult(err)
		}
		if err := e.store.UpdateSyncState(fresh.Metadata.Checksum, id, time.Now().UTC()); err != nil {
			return errResult(fmt.Errorf("%w: %v", ErrStore, err))
		}
		return Result{Status: StatusSuccess, RemoteID: id}

	default:
		return errResult(fmt.Errorf("%w: unknown resolution %q", ErrValidation, resolution))
	}
}

func (e *Engine) find(ctx context.Context) (*RemoteFile, error) {
	ctx, cancel := e.remoteCtx(ctx)
	defer cancel()
	return e.transport.Find(ctx)
}

func (e *Engine) download(ctx context.Context, id string) (*models.BackupFile, error) {
	dlCtx, cancel := e.remoteCtx(ctx)
	defer cancel()
	payload, err := e.transport.Download(dlCtx, id)
	if err != nil {
		return nil, err
	}
	return e.codec.Parse(payload)
}

func (e *Engine) uploadEnvelope(ctx context.Context, b *models.BackupFile, existingID string) (string, error) {
	payload, err := e.codec.Serialize(b)
	if err != nil {
		return "", err
	}
	upCtx, cancel := e.remoteCtx(ctx)
	defer cancel()
	return e.transport.Upload(upCtx, payload, existingID)
}

// remoteCtx caps every remote call with the configured timeout so a
// hung transport cannot block a sync attempt indefinitely.
func (e *Engine) remoteCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

func errResult(err error) Result {
	return Result{Status: StatusError, Message: err.Error()}
}
