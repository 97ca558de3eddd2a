package api

import (
	"context"
	"net/http"

	"github.com/okian/hydrophys/internal/domain/types"
)

// SolveHandler serves synchronous depth and path solves.
type SolveHandler struct {
	deps SolverDependencies
}

// NewSolveHandler creates a new solve handler.
func NewSolveHandler(deps SolverDependencies) *SolveHandler {
	return &SolveHandler{deps: deps}
}

// HandleDepth handles POST /depth.
func (h *SolveHandler) HandleDepth(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "api.depth", h.deps.SolveDepth)
}

// HandlePath handles POST /path.
func (h *SolveHandler) HandlePath(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "api.path", h.deps.SolvePath)
}

type solveFunc func(ctx context.Context, req types.SolveRequest) (types.SolveResult, error)

func (h *SolveHandler) handle(w http.ResponseWriter, r *http.Request, op string, solve solveFunc) {
	var req types.SolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := solve(r.Context(), req)
	if err != nil {
		respondError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
