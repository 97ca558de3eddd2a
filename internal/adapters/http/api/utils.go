package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	service "github.com/okian/hydrophys/internal/app"
	"github.com/okian/hydrophys/internal/domain/solver"
)

// maxBodyBytes bounds request bodies; a batch of large inline profiles fits
// comfortably.
const maxBodyBytes = 8 << 20

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a single JSON document into v, rejecting unknown fields
// and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("decode body: trailing data after JSON document")
	}
	return nil
}

// queryFloat parses a required float query parameter.
func queryFloat(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, fmt.Errorf("missing query parameter %q", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter %q: %w", key, err)
	}
	return v, nil
}

// respondError maps service and solver failures onto HTTP statuses.
// Solver failures are 422 with the failure reason as code.
func respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "bad_request", annotate(op, ErrBadRequest, err))
	case errors.Is(err, ErrNotFound), errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", annotate(op, ErrNotFound, err))
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", annotate(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", annotate(op, ErrUnavailable, err))
	default:
		if reason := solver.Reason(err); reason != "unknown" {
			writeError(w, http.StatusUnprocessableEntity, reason, annotate(op, nil, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", annotate(op, nil, err))
	}
}

// annotate wraps err unless a handler already did.
func annotate(op string, kind, err error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return err
	}
	if kind == nil {
		return Wrap(op, err)
	}
	return WrapKind(op, kind, err)
}
