package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/erazemk/shramba/internal/apperr"
)

// jsonResponse writes a JSON response with the given status code.
// The body is encoded before the header is sent, so an encoding failure is
// reported as a 500 instead of an empty success.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if data == nil {
		w.WriteHeader(status)
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// appError maps an application error to a status code and writes it.
// Errors without a known code are logged and reported with fallback.
func appError(w http.ResponseWriter, err error, fallback string) {
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		jsonResponse(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": apperr.FieldsOf(err),
		})
	case apperr.CodeNotFound:
		jsonError(w, http.StatusNotFound, err.Error())
	case apperr.CodeUnavailable:
		slog.Error(fallback, "error", err)
		jsonError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		slog.Error(fallback, "error", err)
		jsonError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
