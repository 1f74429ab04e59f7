package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/sales-operator/internal/entity"
	"github.com/xavierca1/sales-operator/internal/infra/http/middleware"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ [HTTP] failed to encode response: %v", err)
	}
}

// writeError maps the domain error kinds onto status codes. Storage
// failures are logged and hidden from the client.
func writeError(w http.ResponseWriter, err error) {
	if ve, ok := entity.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error(), Field: ve.Field})
		return
	}
	if errors.Is(err, entity.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	var se *entity.StorageError
	if errors.As(err, &se) {
		middleware.RecordStorageError(se.Op)
	}
	log.Printf("❌ [HTTP] internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return entity.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, entity.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, entity.ValidationError{Field: name, Message: "must be a non-negative integer"}
	}
	return n, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, entity.ValidationError{Field: name, Message: "must be true or false"}
	}
	return b, nil
}

func queryString(r *http.Request, name string) *string {
	if !r.URL.Query().Has(name) {
		return nil
	}
	v := strings.TrimSpace(r.URL.Query().Get(name))
	return &v
}

// parseDate accepts YYYY-MM-DD or an RFC 3339 timestamp. Empty means unset.
func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	return nil, entity.ValidationError{Field: field, Message: "must be a date (YYYY-MM-DD)"}
}

func parseTimestamp(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, entity.ValidationError{Field: field, Message: fmt.Sprintf("must be an RFC 3339 timestamp, got %q", raw)}
	}
	return &t, nil
}
