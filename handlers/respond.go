package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studio/database"
	"studio/models"
)

const dateLayout = "2006-01-02"

// errBadRequest marks request validation failures.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// respondError maps err to a status code. what names the resource for 404s.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error, what string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, errBadRequest), errors.Is(err, models.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed", zap.String("resource", what), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// urlID parses a numeric chi URL parameter.
func urlID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	if err != nil || id == 0 {
		return 0, badRequest("invalid %s", name)
	}
	return uint(id), nil
}

// queryID parses an optional numeric query parameter; 0 means absent.
func queryID(r *http.Request, name string) (uint, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, badRequest("invalid %s", name)
	}
	return uint(id), nil
}

// parseDate parses an optional YYYY-MM-DD value. A nil or empty value
// yields nil.
func parseDate(s *string, field string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, badRequest("%s must be YYYY-MM-DD", field)
	}
	return &t, nil
}

// recordActivity appends an audit entry after the change it describes has
// been committed. A failure is logged and does not fail the request.
func recordActivity(logger *zap.Logger, actorID uint, projectID *uint, entityType string, entityID uint, action string, metadata map[string]interface{}) {
	if err := database.RecordActivity(database.GetDB(), actorID, projectID, entityType, entityID, action, metadata); err != nil {
		logger.Warn("failed to record activity",
			zap.String("entity", entityType),
			zap.Uint("entity_id", entityID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
