package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"

	"habitd/internal/models"
	"habitd/internal/providers"
	"habitd/internal/store"
	"habitd/internal/sync"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type ApiController struct {
	logger providers.Logger
	store  *store.Store
	cache  providers.CacheProviderInterface
	codec  *sync.Codec
}

func NewApiController(logger providers.Logger, st *store.Store, cache providers.CacheProviderInterface, codec *sync.Codec) *ApiController {
	return &ApiController{
		logger: logger,
		store:  st,
		cache:  cache,
		codec:  codec,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	if v := validate.Struct(dst); !v.Validate() {
		http.Error(w, v.Errors.One(), http.StatusBadRequest)
		return false
	}
	return true
}

func queryID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("missing or invalid id parameter")
	}
	return id, nil
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

type statInput struct {
	ID    int64  `json:"id"`
	Name  string `json:"name" validate:"required"`
	Color string `json:"color"`
	Order int    `json:"order"`
}

func (ac *ApiController) ListStats(w http.ResponseWriter, r *http.Request) {
	stats, err := ac.store.ListStats()
	if err != nil {
		ac.logger.Errorf(providers.TypeHttp, "list stats: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []models.Stat{}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (ac *ApiController) CreateStat(w http.ResponseWriter, r *http.Request) {
	var in statInput
	if !decodeBody(w, r, &in) {
		return
	}
	st, err := ac.store.CreateStat(in.Name, in.Color, in.Order)
	if err != nil {
		ac.logger.Errorf(providers.TypeHttp, "create stat: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (ac *ApiController) UpdateStat(w http.ResponseWriter, r *http.Request) {
	var in statInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.ID <= 0 {
		http.Error(w, "missing stat id", http.StatusBadRequest)
		return
	}
	if err := ac.store.UpdateStat(in.ID, in.Name, in.Color, in.Order); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	st, err := ac.store.GetStat(in.ID)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (ac *ApiController) DeleteStat(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := ac.store.DeleteStat(id); err != nil {
		ac.logger.Errorf(providers.TypeHttp, "delete stat %d: %s", id, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type entryInput struct {
	ID     int64  `json:"id"`
	StatID int64  `json:"statId" validate:"required"`
	Value  int    `json:"value" validate:"min:0|max:10"`
	Date   string `json:"date" validate:"required"`
}

func (ac *ApiController) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.EntryFilter
	if s := q.Get("stat"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			http.Error(w, "invalid stat parameter", http.StatusBadRequest)
			return
		}
		f.StatID = id
	}
	if s := q.Get("from"); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			http.Error(w, "invalid from parameter", http.StatusBadRequest)
			return
		}
		f.From = &d
	}
	if s := q.Get("to"); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			http.Error(w, "invalid to parameter", http.StatusBadRequest)
			return
		}
		f.To = &d
	}
	if s := q.Get("limit"); s != "" {
		f.Limit, _ = strconv.Atoi(s)
	}

	entries, err := ac.store.ListEntries(f)
	if err != nil {
		ac.logger.Errorf(providers.TypeHttp, "list entries: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (ac *ApiController) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var in entryInput
	if !decodeBody(w, r, &in) {
		return
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	e, err := ac.store.CreateEntry(in.StatID, in.Value, date)
	if err != nil {
		ac.logger.Errorf(providers.TypeHttp, "create entry: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (ac *ApiController) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var in entryInput
	if !decodeBody(w, r, &in) {
		return
	}
	if in.ID <= 0 {
		http.Error(w, "missing entry id", http.StatusBadRequest)
		return
	}
	date, err := models.ParseDate(in.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	if err := ac.store.UpdateEntry(in.ID, in.Value, date); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	e, err := ac.store.GetEntry(in.ID)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (ac *ApiController) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := queryID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := ac.store.DeleteEntry(id); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary serves the chart aggregation: per-day per-stat averages over
// the requested window, cached for the configured TTL.
func (ac *ApiController) Summary(w http.ResponseWriter, r *http.Request) {
	days := 0
	if s := r.URL.Query().Get("days"); s != "" {
		days, _ = strconv.Atoi(s)
	}
	if days <= 0 {
		settings, err := ac.store.GetSettings()
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		days = settings.DaysToShow
	}

	from := models.DateOf(time.Now().UTC().AddDate(0, 0, -days+1))
	ac.serveFromCacheOrCompute(w, "summary:"+strconv.Itoa(days), func() (any, error) {
		rows, err := ac.store.Summary(from)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []store.DailyAverage{}
		}
		return rows, nil
	})
}

type settingsInput struct {
	DaysToShow      int  `json:"daysToShow" validate:"min:1|max:365"`
	SyncEnabled     bool `json:"syncEnabled"`
	BadgeRefillDays int  `json:"badgeRefillDays" validate:"min:1"`
}

func (ac *ApiController) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := ac.store.GetSettings()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings merges user preferences into the singleton row. The
// sync watermark fields are engine-owned and cannot be set here.
func (ac *ApiController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in settingsInput
	if !decodeBody(w, r, &in) {
		return
	}
	cur, err := ac.store.GetSettings()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	cur.DaysToShow = in.DaysToShow
	cur.SyncEnabled = in.SyncEnabled
	cur.BadgeRefillDays = in.BadgeRefillDays
	if err := ac.store.UpdateSettings(cur); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

// Export produces a backup envelope of the full dataset.
func (ac *ApiController) Export(w http.ResponseWriter, r *http.Request) {
	backup, err := ac.codec.Build()
	if err != nil {
		ac.logger.Errorf(providers.TypeHttp, "export: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="habitd-backup.json"`)
	writeJSON(w, http.StatusOK, backup)
}

// Import replaces the local dataset with a backup envelope. Only the
// envelope shape is validated; the metadata checksum is not verified
// against the payload.
func (ac *ApiController) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 16*maxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	backup, err := ac.codec.Parse(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := ac.store.ReplaceAll(backup.Data.Stats, backup.Data.Entries); err != nil {
		ac.logger.Errorf(providers.TypeHttp, "import: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"stats":   len(backup.Data.Stats),
		"entries": len(backup.Data.Entries),
	})
}
