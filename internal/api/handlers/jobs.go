// Package handlers implements the HTTP handlers of the operational API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"

	"github.com/adamwal/gpwetl/internal/store"
	"github.com/adamwal/gpwetl/pkg/logger"
)

// JobsHandler serves ETL job history.
type JobsHandler struct {
	jobs   *store.JobRepository
	logger *logger.Logger
}

// NewJobsHandler creates a jobs handler.
func NewJobsHandler(jobs *store.JobRepository, log *logger.Logger) *JobsHandler {
	return &JobsHandler{jobs: jobs, logger: log}
}

// List returns the most recent jobs. Query param limit caps the count.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}

	jobs, err := h.jobs.ListRecentJobs(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list jobs")
		writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// Get returns one job header by id.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		h.logger.WithError(err).Errorf("Failed to load job %d", id)
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// Details returns the audit trail of one job.
func (h *JobsHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	details, err := h.jobs.ListDetails(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Errorf("Failed to load details for job %d", id)
		writeError(w, http.StatusInternalServerError, "failed to load job details")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":  id,
		"details": details,
		"count":   len(details),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
