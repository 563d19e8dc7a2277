package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/models"
)

// sentinelStatus maps a sentinel error to its HTTP status. Order matters:
// the first match wins.
type sentinelStatus struct {
	err    error
	status int
}

var errorStatuses = []sentinelStatus{
	{models.ErrValidation, http.StatusBadRequest},
	{models.ErrEmptyInput, http.StatusBadRequest},
	{models.ErrInvalidOperation, http.StatusBadRequest},
	{models.ErrUnsupportedQuery, http.StatusBadRequest},
	{models.ErrNoDocuments, http.StatusBadRequest},
	{models.ErrUnauthorized, http.StatusUnauthorized},
	{models.ErrForbidden, http.StatusForbidden},
	{models.ErrNotFound, http.StatusNotFound},
	{models.ErrConflict, http.StatusConflict},
}

// statusFor returns the status for err, 500 when no sentinel matches.
func statusFor(err error) int {
	for _, s := range errorStatuses {
		if errors.Is(err, s.err) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// publicMessage hides internal failures that are not upstream errors.
func publicMessage(err error, status int) string {
	if status < http.StatusInternalServerError || errors.Is(err, models.ErrUpstream) {
		return err.Error()
	}
	return "error interno del servidor"
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.Error(err))
	}
	s.respondError(w, status, publicMessage(err, status))
}

// respondOutcome writes a search outcome, using the wrapped error for the
// status of a failed one.
func (s *Server) respondOutcome(w http.ResponseWriter, status int, out models.Outcome) {
	if !out.Success {
		status = statusFor(out.Err)
		if out.Error == "" {
			out.Error = "error desconocido"
		}
	}
	s.respondJSON(w, status, out)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
