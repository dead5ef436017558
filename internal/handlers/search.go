package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"caption-search-backend/internal/export"
	"caption-search-backend/internal/middleware"
	"caption-search-backend/internal/models"
	"caption-search-backend/internal/repository"
	"caption-search-backend/internal/search"
)

type SearchStore interface {
	Create(ctx context.Context, j *models.SearchJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SearchJob, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.SearchJob, int, error)
	Hits(ctx context.Context, jobID uuid.UUID) ([]search.SearchHit, error)
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
}

type SearchQueue interface {
	Enqueue(ctx context.Context, job models.QueuedSearch) error
	RequestCancel(ctx context.Context, jobID uuid.UUID) error
}

type SearchHandler struct {
	store         SearchStore
	queue         SearchQueue
	maxReferences int
	now           func() time.Time
}

func NewSearchHandler(store SearchStore, queue SearchQueue, maxReferences int) *SearchHandler {
	return &SearchHandler{
		store:         store,
		queue:         queue,
		maxReferences: maxReferences,
		now:           time.Now,
	}
}

// POST /api/v1/searches
func (h *SearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_JSON", "Invalid request body", r))
		return
	}

	refs := search.NormalizeReferences(req.References)
	keywords := search.NormalizeKeywords(req.Keywords)

	if err := search.Validate(refs, keywords, h.maxReferences); err != nil {
		var verr *search.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
				map[string]string{verr.Field: verr.Message}, r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}

	job := &models.SearchJob{
		UserID:     userID,
		References: refs,
		Keywords:   keywords,
	}
	if err := h.store.Create(r.Context(), job); err != nil {
		log.Printf("search: failed to create job: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create search", r))
		return
	}

	if err := h.queue.Enqueue(r.Context(), models.QueuedSearch{JobID: job.ID, UserID: userID}); err != nil {
		log.Printf("search %s: %v", job.ID, err)
		if err := h.store.MarkFailed(r.Context(), job.ID, "failed to queue search"); err != nil {
			log.Printf("search %s: failed to mark failed: %v", job.ID, err)
		}
		writeJSON(w, http.StatusServiceUnavailable, errorResp("QUEUE_UNAVAILABLE", "Search could not be queued", r))
		return
	}

	writeJSON(w, http.StatusAccepted, models.CreateSearchResponse{
		JobID:           job.ID,
		Status:          job.Status,
		TotalReferences: len(refs),
		Keywords:        keywords,
	})
}

// GET /api/v1/searches
func (h *SearchHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit := queryInt(r, "limit", 20, 100)
	if limit == 0 {
		limit = 20
	}
	offset := queryInt(r, "offset", 0, 0)

	jobs, total, err := h.store.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("search: failed to list jobs for user %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list searches", r))
		return
	}
	if jobs == nil {
		jobs = []*models.SearchJob{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"searches": jobs,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// GET /api/v1/searches/{id}
func (h *SearchHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// GET /api/v1/searches/{id}/hits?view=flat|grouped
func (h *SearchHandler) Hits(w http.ResponseWriter, r *http.Request) {
	view := r.URL.Query().Get("view")
	if view == "" {
		view = "flat"
	}
	if view != "flat" && view != "grouped" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"view": "must be flat or grouped"}, r))
		return
	}

	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}
	if !hasResult(job) {
		writeJSON(w, http.StatusConflict, errorResp("NOT_READY", "Search has not finished yet", r))
		return
	}

	hits, err := h.store.Hits(r.Context(), job.ID)
	if err != nil {
		log.Printf("search %s: failed to load hits: %v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load results", r))
		return
	}

	resp := map[string]interface{}{
		"job_id":  job.ID,
		"status":  job.Status,
		"view":    view,
		"skipped": job.Skipped,
	}
	if view == "grouped" {
		groups := search.GroupHits(hits)
		if groups == nil {
			groups = []search.VideoGroup{}
		}
		resp["groups"] = groups
	} else {
		resp["columns"] = search.Columns
		resp["hits"] = hits
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/v1/searches/{id}/export.csv
func (h *SearchHandler) Export(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}
	if !hasResult(job) {
		writeJSON(w, http.StatusConflict, errorResp("NOT_READY", "Search has not finished yet", r))
		return
	}

	hits, err := h.store.Hits(r.Context(), job.ID)
	if err != nil {
		log.Printf("search %s: failed to load hits: %v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load results", r))
		return
	}

	data, err := export.CSVBytes(hits)
	if err != nil {
		log.Printf("search %s: failed to build CSV: %v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to export results", r))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// DELETE /api/v1/searches/{id}
func (h *SearchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r)
	if !ok {
		return
	}
	if job.Finished() {
		writeJSON(w, http.StatusConflict, errorResp("ALREADY_FINISHED", "Search has already finished", r))
		return
	}

	if err := h.queue.RequestCancel(r.Context(), job.ID); err != nil {
		log.Printf("search %s: failed to request cancel: %v", job.ID, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to cancel search", r))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
		"status": "cancelling",
	})
}

// ownedJob loads {id} and writes the error response itself when the job
// is missing or belongs to someone else.
func (h *SearchHandler) ownedJob(w http.ResponseWriter, r *http.Request) (*models.SearchJob, bool) {
	userID := middleware.GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_ID", "Invalid search ID", r))
		return nil, false
	}

	job, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Search not found", r))
		} else {
			log.Printf("search %s: failed to load job: %v", id, err)
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load search", r))
		}
		return nil, false
	}

	if job.UserID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Not your search", r))
		return nil, false
	}
	return job, true
}

func hasResult(job *models.SearchJob) bool {
	return job.Status == models.JobStatusCompleted || job.Status == models.JobStatusCancelled
}
