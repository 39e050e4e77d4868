package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitd/internal/models"
	"habitd/internal/store"
	"habitd/internal/structures"
	"habitd/internal/sync"
	"habitd/internal/testutil"
)

func newSyncFixture(t *testing.T) (*SyncController, *store.Store, *testutil.MockTransport, *sync.Codec) {
	t.Helper()
	st, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	conf := &structures.Config{}
	conf.Sync.Enabled = true
	conf.Sync.Timeout = 5 * time.Second
	conf.Sync.Debounce = time.Minute

	codec := sync.NewCodec(st, conf)
	transport := &testutil.MockTransport{}
	logger := &testutil.MockLogger{}
	engine := sync.NewEngine(st, codec, transport, conf, logger, testutil.NewMockMetrics())
	trigger := sync.NewTrigger(engine, conf, logger)
	t.Cleanup(trigger.Stop)

	return NewSyncController(logger, st, trigger), st, transport, codec
}

func TestSyncNowHandlerSuccess(t *testing.T) {
	sc, st, transport, _ := newSyncFixture(t)
	_, err := st.CreateStat("mood", "", 0)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	w := httptest.NewRecorder()
	sc.SyncNow(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, transport.UploadCalls)

	var result sync.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, sync.StatusSuccess, result.Status)
}

func TestSyncNowHandlerConflict(t *testing.T) {
	sc, st, transport, codec := newSyncFixture(t)
	_, err := st.CreateStat("mood", "", 0)
	require.NoError(t, err)

	// Establish a watermark, then move the remote out from under it.
	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	sc.SyncNow(httptest.NewRecorder(), req)

	payload, err := codec.Serialize(&models.BackupFile{
		Data: models.BackupData{
			Stats: []models.Stat{{ID: 9, Name: "other-device", UpdatedAt: time.Now().UTC()}},
		},
	})
	require.NoError(t, err)
	transport.SetRemote("remote-1", payload)

	w := httptest.NewRecorder()
	sc.SyncNow(w, httptest.NewRequest(http.MethodPost, "/api/sync", nil))

	require.Equal(t, http.StatusConflict, w.Code)
	var result sync.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, sync.StatusConflict, result.Status)
	assert.NotNil(t, result.Local)
	assert.NotNil(t, result.Remote)
}

func TestSyncNowHandlerBadResolution(t *testing.T) {
	sc, _, _, _ := newSyncFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sync?resolution=bogus", nil)
	w := httptest.NewRecorder()
	sc.SyncNow(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncStatusHandler(t *testing.T) {
	sc, st, _, _ := newSyncFixture(t)
	_, err := st.CreateStat("mood", "", 0)
	require.NoError(t, err)
	sc.SyncNow(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/sync", nil))

	w := httptest.NewRecorder()
	sc.Status(w, httptest.NewRequest(http.MethodGet, "/api/sync/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		BlockedOnConflict bool   `json:"blockedOnConflict"`
		LastSyncChecksum  string `json:"lastSyncChecksum"`
		LastOutcome       string `json:"lastOutcome"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.BlockedOnConflict)
	assert.NotEmpty(t, resp.LastSyncChecksum)
	assert.Equal(t, "success", resp.LastOutcome)
}
