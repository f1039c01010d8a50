package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mini-rodalies-3d/ril100/internal/logging"
	"github.com/mini-rodalies-3d/ril100/internal/metrics"
	"github.com/mini-rodalies-3d/ril100/internal/models"
	"github.com/mini-rodalies-3d/ril100/internal/search"
)

// errDatasetUnavailable is reported while no dataset could be loaded.
const errDatasetUnavailable = "dataset unavailable"

// SearchHandler serves queries against one loaded dataset.
// A nil dataset means loading failed and every query answers 503.
type SearchHandler struct {
	dataset *search.Dataset
	stats   *metrics.LoadStats
}

// NewSearchHandler creates a handler for ds. stats may be nil.
func NewSearchHandler(ds *search.Dataset, stats *metrics.LoadStats) *SearchHandler {
	if stats == nil {
		stats = metrics.NewLoadStats()
	}
	return &SearchHandler{dataset: ds, stats: stats}
}

// SearchResponse is the JSON response structure for GET /api/search
type SearchResponse struct {
	Query     string         `json:"query"`
	Entries   []models.Entry `json:"entries"`
	Count     int            `json:"count"`
	Total     int            `json:"total"`
	Remaining int            `json:"remaining"`
}

// HealthResponse is the JSON response structure for GET /health
type HealthResponse struct {
	Status    string               `json:"status"`
	Dataset   metrics.LoadSnapshot `json:"dataset"`
	Timestamp time.Time            `json:"timestamp"`
}

// Search handles GET /api/search?q=<query>&all=<bool>
// An empty q matches every entry.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.dataset == nil {
		writeError(w, http.StatusServiceUnavailable, errDatasetUnavailable, nil)
		return
	}

	query := r.URL.Query().Get("q")
	showAll := false
	if raw := r.URL.Query().Get("all"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid all parameter", map[string]interface{}{
				"all": raw,
			})
			return
		}
		showAll = v
	}

	result := h.dataset.Search(query, showAll)
	logging.FromContext(r.Context()).Debug("search",
		"query", query,
		"all", showAll,
		"total", result.Total,
	)

	response := SearchResponse{
		Query:     query,
		Entries:   models.NewEntries(result.Entries),
		Count:     len(result.Entries),
		Total:     result.Total,
		Remaining: result.Remaining(),
	}

	// The dataset does not change for the lifetime of the process.
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("Vary", "Accept-Encoding")
	writeJSON(w, http.StatusOK, response)
}

// GetEntry handles GET /api/entries/{code}
func (h *SearchHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	if h.dataset == nil {
		writeError(w, http.StatusServiceUnavailable, errDatasetUnavailable, nil)
		return
	}

	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "code parameter is required", nil)
		return
	}

	entry, ok := h.dataset.Lookup(code)
	if !ok {
		writeError(w, http.StatusNotFound, "Entry not found", map[string]interface{}{
			"code": code,
		})
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, models.NewEntry(entry))
}

// Health handles GET /health
func (h *SearchHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Dataset:   h.stats.Snapshot(),
		Timestamp: time.Now().UTC(),
	}

	status := http.StatusOK
	if h.dataset == nil {
		response.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, response)
}
