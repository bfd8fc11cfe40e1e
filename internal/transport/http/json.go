package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"trivia-builder-service/internal/domain"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("encode json response: %v", err)
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSetNotFound),
		errors.Is(err, domain.ErrCategoryNotFound),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidSet),
		errors.Is(err, domain.ErrStageLocked),
		errors.Is(err, domain.ErrRoundNotInScope),
		errors.Is(err, domain.ErrInvalidCell),
		errors.Is(err, domain.ErrInvalidDailyDouble),
		errors.Is(err, domain.ErrNoDailyDoubleCandidates),
		errors.Is(err, domain.ErrUnknownIntent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// withLogging logs each request with its duration.
func withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		log.Printf("%s %s (%dms)", r.Method, r.URL.Path, time.Since(start).Milliseconds())
	}
}
