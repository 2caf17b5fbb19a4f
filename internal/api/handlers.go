package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avelane/seowatch/internal/scheduler"
)

const dashboardCacheKey = "dashboard"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.cacheTTL > 0 {
		if cached, ok := s.cache.Get(r.Context(), dashboardCacheKey); ok {
			writeRawJSON(w, http.StatusOK, cached)
			return
		}
	}

	snapshot := s.alerts.Snapshot()
	body, err := json.Marshal(snapshot)
	if err != nil {
		slog.Error("Failed to encode dashboard snapshot", "error", err)
		respondWithError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}

	if s.cacheTTL > 0 {
		s.cache.Set(r.Context(), dashboardCacheKey, body, s.cacheTTL)
	}
	writeRawJSON(w, http.StatusOK, body)
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.sched.Entries())
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")

	err := s.sched.TriggerNow(r.Context(), pageID)
	switch {
	case errors.Is(err, scheduler.ErrScheduleNotFound):
		respondWithError(w, http.StatusNotFound, "unknown page: "+pageID)
	case errors.Is(err, scheduler.ErrRunInProgress):
		respondWithError(w, http.StatusConflict, "run already in progress for "+pageID)
	case err != nil:
		slog.Error("Manual trigger failed", "page", pageID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "trigger failed")
	default:
		respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "crawl triggered", "pageId": pageID})
	}
}

// updateScheduleRequest carries the PATCH body. Absent fields leave the
// schedule untouched.
type updateScheduleRequest struct {
	Frequency        *string `json:"frequency"`
	CrawlEnabled     *bool   `json:"crawlEnabled"`
	ReportingEnabled *bool   `json:"reportingEnabled"`
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")

	var req updateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := scheduler.ScheduleUpdate{
		CrawlEnabled:     req.CrawlEnabled,
		ReportingEnabled: req.ReportingEnabled,
	}
	if req.Frequency != nil {
		freq, err := scheduler.ParseFrequency(*req.Frequency)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid frequency: "+*req.Frequency)
			return
		}
		update.Frequency = &freq
	}

	err := s.sched.UpdateSchedule(pageID, update)
	switch {
	case errors.Is(err, scheduler.ErrScheduleNotFound):
		respondWithError(w, http.StatusNotFound, "unknown page: "+pageID)
	case err != nil:
		slog.Error("Schedule update failed", "page", pageID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "update failed")
	default:
		respondWithJSON(w, http.StatusOK, map[string]string{"message": "schedule updated", "pageId": pageID})
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 100)

	if s.archive != nil {
		outcomes, err := s.archive.RecentOutcomes(limit)
		if err != nil {
			slog.Error("Failed to read archived outcomes", "error", err)
			respondWithError(w, http.StatusInternalServerError, "failed to read history")
			return
		}
		respondWithJSON(w, http.StatusOK, outcomes)
		return
	}

	respondWithJSON(w, http.StatusOK, s.sched.History(limit))
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.alerts.Alerts(queryLimit(r, 0)))
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertID")

	if !s.alerts.Acknowledge(alertID) {
		respondWithError(w, http.StatusNotFound, "unknown alert: "+alertID)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "alert acknowledged", "alertId": alertID})
}

func (s *Server) handleAcknowledgeAll(w http.ResponseWriter, r *http.Request) {
	count := s.alerts.AcknowledgeAll()
	respondWithJSON(w, http.StatusOK, map[string]int{"acknowledged": count})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return fallback
	}
	return limit
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeRawJSON(w, code, body)
}

func writeRawJSON(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}
