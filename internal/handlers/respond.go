package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dominionwar/dominion/pkg/errors"
	"github.com/dominionwar/dominion/pkg/logger"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps an AppError code to an HTTP status. Every rejected
// operation surfaces its stable reason code.
func writeError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError
	if e, ok := err.(*errors.AppError); ok {
		appErr = e
	} else {
		appErr = errors.Wrap(err, errors.ErrCodeInternalError, "internal error")
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case errors.ErrCodeValidation, errors.ErrCodeValidationFailed:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeUnauthorized:
		status = http.StatusUnauthorized
	case errors.ErrCodeForbidden, errors.ErrCodeNotEligible:
		status = http.StatusForbidden
	case errors.ErrCodeAlreadyExists, errors.ErrCodeAlreadyInProgress,
		errors.ErrCodeStateConflict, errors.ErrCodeCooldownActive,
		errors.ErrCodeBattleNotActive, errors.ErrCodeNotAtWar:
		status = http.StatusConflict
	case errors.ErrCodeMoraleTooHigh, errors.ErrCodeInsufficientEnergy,
		errors.ErrCodeInsufficientFunds:
		status = http.StatusUnprocessableEntity
	case errors.ErrCodeRateLimitExceeded:
		status = http.StatusTooManyRequests
	}

	if status == http.StatusInternalServerError {
		logger.Error("request failed", "code", appErr.Code, "error", appErr)
	}
	writeJSON(w, status, errorResponse{Code: appErr.Code, Message: appErr.Message})
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, errors.ErrCodeValidation, "malformed request body")
	}
	return nil
}
