// Package api provides JSON HTTP handlers for the Synchronicity Engine.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ovasilenko/synchro/internal/engine"
	"github.com/ovasilenko/synchro/internal/errs"
	"github.com/ovasilenko/synchro/internal/feed"
	"github.com/ovasilenko/synchro/internal/store"
)

// Handler provides common handler utilities and dependencies.
type Handler struct {
	eng  *engine.Engine
	repo store.Repository
	hub  *feed.Hub
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(eng *engine.Engine, repo store.Repository, hub *feed.Hub) *Handler {
	return &Handler{eng: eng, repo: repo, hub: hub}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Fail maps a typed engine error to its HTTP status and writes it.
func Fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrPreconditionFailed):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrInvalidOrdering):
		Error(w, http.StatusInternalServerError, err.Error())
	default:
		Error(w, http.StatusInternalServerError, err.Error())
	}
}

// decode unmarshals a JSON request body. An empty body is not an error;
// handlers fall back to the device's selected user for omitted fields.
func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
