package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/erazemk/vrste/internal/catalog"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// catalogError maps catalog sentinel errors onto HTTP statuses.
func catalogError(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		jsonError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, catalog.ErrForbidden):
		jsonError(w, http.StatusForbidden, "only the author can modify this "+what)
	case errors.Is(err, catalog.ErrInvalid):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "request_id", GetRequestID(r.Context()), "what", what, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}
