package api

import (
	"net/http"

	"github.com/okian/hydrophys/internal/domain/types"
)

// BatchesHandler serves asynchronous batch submission and job status.
type BatchesHandler struct {
	deps BatchDependencies
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(deps BatchDependencies) *BatchesHandler {
	return &BatchesHandler{deps: deps}
}

type batchStatus struct {
	BatchID string            `json:"batch_id"`
	Jobs    []types.JobStatus `json:"jobs"`
}

// HandleSubmit handles POST /batches. Accepted batches answer 202; a batch
// rejected entirely by a full queue answers 429.
func (h *BatchesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req types.BatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "api.batches", WrapKind("api.batches", ErrBadRequest, err))
		return
	}

	accepted, err := h.deps.SubmitBatch(r.Context(), req)
	if err != nil {
		respondError(w, "api.batches", err)
		return
	}
	w.Header().Set("Location", "/batches/"+accepted.BatchID)
	writeJSON(w, http.StatusAccepted, accepted)
}

// HandleBatch handles GET /batches/{id}.
func (h *BatchesHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	jobs, err := h.deps.Batch(r.Context(), id)
	if err != nil {
		respondError(w, "api.batch", err)
		return
	}
	writeJSON(w, http.StatusOK, batchStatus{BatchID: id, Jobs: jobs})
}

// HandleJob handles GET /jobs/{id}.
func (h *BatchesHandler) HandleJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.deps.Job(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, "api.job", err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}
