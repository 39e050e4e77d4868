package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"habitd/internal/providers"
	appsync "habitd/internal/sync"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// MockTransport is an in-memory remote blob store with injectable
// failures and call counters.
type MockTransport struct {
	mu       sync.Mutex
	Payload  []byte
	ID       string
	Modified time.Time

	FindErr     error
	UploadErr   error
	DownloadErr error

	FindCalls     int
	UploadCalls   int
	DownloadCalls int
}

func (m *MockTransport) SetRemote(id string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ID = id
	m.Payload = payload
	m.Modified = time.Now()
}

func (m *MockTransport) Remote() (string, []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ID, m.Payload
}

func (m *MockTransport) Find(_ context.Context) (*appsync.RemoteFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if m.ID == "" {
		return nil, nil
	}
	return &appsync.RemoteFile{ID: m.ID, Modified: m.Modified}, nil
}

func (m *MockTransport) Upload(_ context.Context, payload []byte, existingID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UploadCalls++
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	if existingID != "" && existingID != m.ID {
		return "", errors.New("unknown remote file id")
	}
	if m.ID == "" {
		m.ID = "remote-1"
	}
	m.Payload = append([]byte(nil), payload...)
	m.Modified = time.Now()
	return m.ID, nil
}

func (m *MockTransport) Download(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DownloadCalls++
	if m.DownloadErr != nil {
		return nil, m.DownloadErr
	}
	if id != m.ID || m.Payload == nil {
		return nil, errors.New("no such remote file")
	}
	return append([]byte(nil), m.Payload...), nil
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor passes payloads through unchanged unless custom
// behavior is injected.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and counts
// sync outcomes.
type MockMetrics struct {
	mu       sync.Mutex
	SyncRuns map[string]int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{SyncRuns: make(map[string]int)}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}
func (m *MockMetrics) ObserveSyncDuration(_ time.Duration)              {}

func (m *MockMetrics) IncSyncRuns(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SyncRuns[outcome]++
}
