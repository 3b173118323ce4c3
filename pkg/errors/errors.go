package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError carries a stable machine-readable code alongside the human message.
// Handlers map the code to the wire response; callers match on it with Code().
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Code extracts the AppError code from err, or INTERNAL_ERROR for plain errors.
func Code(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

// Generic error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// Combat and rebellion error codes
const (
	ErrCodeNotAtWar           = "NOT_AT_WAR"
	ErrCodeBattleNotActive    = "BATTLE_NOT_ACTIVE"
	ErrCodeNotEligible        = "NOT_ELIGIBLE"
	ErrCodeMoraleTooHigh      = "MORALE_TOO_HIGH"
	ErrCodeAlreadyInProgress  = "ALREADY_IN_PROGRESS"
	ErrCodeCooldownActive     = "COOLDOWN_ACTIVE"
	ErrCodeStateConflict      = "STATE_CONFLICT"
	ErrCodeInsufficientEnergy = "INSUFFICIENT_ENERGY"
)
