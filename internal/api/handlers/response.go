package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/dietdash/internal/contracts"
	"github.com/wonny/dietdash/internal/render"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrUnknownCountry):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrUnknownControl):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrInvalidControl):
		return http.StatusBadRequest
	case errors.Is(err, render.ErrUnsupported):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondErr writes err with its mapped status. Server errors are
// logged and hidden from the client.
func (h *DashboardHandler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		respondError(w, status, "Internal server error")
		return
	}
	respondError(w, status, err.Error())
}
