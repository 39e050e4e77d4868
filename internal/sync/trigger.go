package sync

import (
	"context"
	stdsync "sync"
	"time"

	"go.uber.org/atomic"

	"habitd/internal/providers"
	"habitd/internal/structures"
)

// Trigger decides when the engine runs. Data mutations are debounced
// (a quiet period after the last change collapses edit bursts into one
// attempt), manual requests run immediately, and a single-flight guard
// keeps overlapping attempts from racing each other's watermark
// updates. A conflict blocks further automatic attempts until the user
// supplies a resolution.
type Trigger struct {
	engine  *Engine
	logger  providers.Logger
	quiet   time.Duration
	enabled bool

	inFlight atomic.Bool
	blocked  atomic.Bool

	mu         stdsync.Mutex
	timer      *time.Timer
	lastResult Result
}

func NewTrigger(engine *Engine, conf *structures.Config, logger providers.Logger) *Trigger {
	quiet := conf.Sync.Debounce
	if quiet <= 0 {
		quiet = 5 * time.Second
	}
	return &Trigger{
		engine:  engine,
		logger:  logger,
		quiet:   quiet,
		enabled: conf.Sync.Enabled,
	}
}

// Notify records a qualifying data mutation. The debounce timer resets
// on every call and fires a single sync attempt after quiescence.
func (t *Trigger) Notify() {
	if !t.enabled || t.blocked.Load() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.quiet, func() {
		t.attempt("debounce")
	})
}

// Attempt runs an automatic sync now, used by the periodic scheduler
// and reconnect handling. Skipped while a conflict awaits resolution.
func (t *Trigger) Attempt(reason string) {
	if !t.enabled || t.blocked.Load() {
		return
	}
	t.attempt(reason)
}

func (t *Trigger) attempt(reason string) {
	t.logger.Debugf(providers.TypeSync, "sync attempt (%s)", reason)
	t.SyncNow(context.Background(), ResolutionNone)
}

// SyncNow runs the engine immediately. When another attempt is already
// in flight the call reports an error result instead of racing it.
// A successful run with a resolution unblocks automatic syncing.
func (t *Trigger) SyncNow(ctx context.Context, resolution Resolution) Result {
	if !t.inFlight.CompareAndSwap(false, true) {
		return Result{Status: StatusError, Message: "sync already in progress"}
	}
	defer t.inFlight.Store(false)

	result := t.engine.Sync(ctx, resolution)

	switch result.Status {
	case StatusConflict:
		t.blocked.Store(true)
	case StatusSuccess, StatusNoChanges:
		t.blocked.Store(false)
	}

	t.mu.Lock()
	t.lastResult = result
	t.mu.Unlock()
	return result
}

// Blocked reports whether an unresolved conflict is holding back
// automatic sync attempts.
func (t *Trigger) Blocked() bool {
	return t.blocked.Load()
}

func (t *Trigger) LastResult() Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastResult
}

// Stop cancels a pending debounce timer.
func (t *Trigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
