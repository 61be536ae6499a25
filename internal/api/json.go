package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/outfitter-dev/waymark/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// Error codes carried next to the message so clients can branch without
// parsing text.
const (
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeInvalid      = "invalid_input"
	codeUnauthorized = "unauthorized"
	codeInternal     = "internal"
)

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Code  string `json:"code,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg, Code: codeInvalid}
}

// writeError maps domain errors to HTTP statuses.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrInvalidTarget):
		writeJSON(w, http.StatusNotFound, errResponse{Error: err.Error(), Code: codeNotFound})
	case errors.Is(err, apperr.ErrStale), errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errResponse{Error: err.Error(), Code: codeConflict})
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errResponse{Error: err.Error(), Code: codeInvalid})
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "internal error", Code: codeInternal})
	}
}
