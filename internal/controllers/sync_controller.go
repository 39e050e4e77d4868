package controllers

import (
	"net/http"
	"time"

	"habitd/internal/providers"
	"habitd/internal/store"
	"habitd/internal/sync"
)

type SyncController struct {
	logger  providers.Logger
	store   *store.Store
	trigger *sync.Trigger
}

func NewSyncController(logger providers.Logger, st *store.Store, trigger *sync.Trigger) *SyncController {
	return &SyncController{
		logger:  logger,
		store:   st,
		trigger: trigger,
	}
}

// SyncNow runs a sync attempt immediately. The optional resolution
// query parameter answers a previously reported conflict.
func (sc *SyncController) SyncNow(w http.ResponseWriter, r *http.Request) {
	resolution, err := sync.ParseResolution(r.URL.Query().Get("resolution"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result := sc.trigger.SyncNow(r.Context(), resolution)

	status := http.StatusOK
	switch result.Status {
	case sync.StatusConflict:
		status = http.StatusConflict
	case sync.StatusError:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

type syncStatusResponse struct {
	SyncEnabled       bool      `json:"syncEnabled"`
	BlockedOnConflict bool      `json:"blockedOnConflict"`
	LastSyncAt        time.Time `json:"lastSyncAt"`
	LastSyncChecksum  string    `json:"lastSyncChecksum"`
	LastOutcome       string    `json:"lastOutcome,omitempty"`
}

func (sc *SyncController) Status(w http.ResponseWriter, r *http.Request) {
	settings, err := sc.store.GetSettings()
	if err != nil {
		sc.logger.Errorf(providers.TypeHttp, "sync status: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	resp := syncStatusResponse{
		SyncEnabled:       settings.SyncEnabled,
		BlockedOnConflict: sc.trigger.Blocked(),
		LastSyncAt:        settings.LastSyncAt,
		LastSyncChecksum:  settings.LastSyncChecksum,
		LastOutcome:       string(sc.trigger.LastResult().Status),
	}
	writeJSON(w, http.StatusOK, resp)
}
