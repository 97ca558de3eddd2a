package api

import (
	"errors"
	"net/http"

	"github.com/okian/hydrophys/internal/domain/types"
)

var errMutuallyExclusive = errors.New("lat and phi are mutually exclusive")

// CalculatorHandler serves the stateless property calculators.
type CalculatorHandler struct {
	deps CalculatorDependencies
}

// NewCalculatorHandler creates a new calculator handler.
func NewCalculatorHandler(deps CalculatorDependencies) *CalculatorHandler {
	return &CalculatorHandler{deps: deps}
}

// HandleProperties handles POST /properties.
func (h *CalculatorHandler) HandleProperties(w http.ResponseWriter, r *http.Request) {
	var req types.PropertiesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, "api.properties", WrapKind("api.properties", ErrBadRequest, err))
		return
	}

	res, err := h.deps.Properties(r.Context(), req)
	if err != nil {
		respondError(w, "api.properties", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGravity handles GET /gravity?lat=<degrees> or GET /gravity?phi=<radians>.
func (h *CalculatorHandler) HandleGravity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key, degrees := "lat", true
	switch {
	case q.Has("lat") && q.Has("phi"):
		respondError(w, "api.gravity", WrapKind("api.gravity", ErrBadRequest, errMutuallyExclusive))
		return
	case q.Has("phi"):
		key, degrees = "phi", false
	}

	phi, err := queryFloat(r, key)
	if err != nil {
		respondError(w, "api.gravity", WrapKind("api.gravity", ErrBadRequest, err))
		return
	}

	res, err := h.deps.Gravity(r.Context(), phi, degrees)
	if err != nil {
		respondError(w, "api.gravity", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
