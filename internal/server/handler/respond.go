// Package handler implements the HTTP endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	decisionservice "stepup-auth-gateway/internal/decision/service"
	"stepup-auth-gateway/internal/otp"
	userservice "stepup-auth-gateway/internal/user/service"
)

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg, Status: status})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Unrecognized errors become an opaque 500; the detail goes to the log only.
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, decisionservice.ErrInvalidDevice),
		errors.Is(err, decisionservice.ErrInvalidCountry),
		errors.Is(err, userservice.ErrInvalidRegistration):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, userservice.ErrInvalidCredentials),
		errors.Is(err, otp.ErrInvalidCode):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, decisionservice.ErrChallengeNotFound),
		errors.Is(err, decisionservice.ErrDecisionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, userservice.ErrUsernameTaken),
		errors.Is(err, decisionservice.ErrChallengeNotPending):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, otp.ErrExpired):
		respondError(w, http.StatusGone, err.Error())
	case errors.Is(err, otp.ErrAttemptsExceeded):
		respondError(w, http.StatusLocked, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
