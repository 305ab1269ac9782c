package errors

import (
	"net/http"
	"reflect"

	"github.com/sirupsen/logrus"
)

// Machine-readable error codes surfaced alongside HTTP status.
const (
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeForbidden            = "FORBIDDEN"
	CodeValidation           = "VALIDATION_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeEntityDeleted        = "ENTITY_DELETED"
	CodeDuplicateTransaction = "DUPLICATE_TRANSACTION"
	CodeTooManyRequests      = "TOO_MANY_REQUESTS"
	CodeInternal             = "INTERNAL"
)

type AppError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(statusCode int, code, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

func NewValidationError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeValidation, message)
}

// NewUnauthenticatedError is returned when no valid credential accompanies
// the request. The response layer adds a WWW-Authenticate challenge for it.
func NewUnauthenticatedError(message ...string) *AppError {
	if len(message) > 0 {
		return NewAppError(http.StatusUnauthorized, CodeUnauthenticated, message[0])
	}
	return NewAppError(http.StatusUnauthorized, CodeUnauthenticated, "Authentication required")
}

// NewForbiddenError is returned when a valid identity lacks the required
// role. The message names the minimum role, nothing more.
func NewForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message)
}

// NewEntityDeletedError marks a reference to a soft-deleted master record.
// Distinct from NotFound: the record exists and keeps its ledger history,
// it just no longer accepts new transactions.
func NewEntityDeletedError(message string) *AppError {
	return NewAppError(http.StatusGone, CodeEntityDeleted, message)
}

// NewDuplicateTransactionError marks a transaction id reused with a different
// shape. A true duplicate replays the original entry and never reaches this.
func NewDuplicateTransactionError(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeDuplicateTransaction, message)
}

func NewTooManyRequestsError(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, CodeTooManyRequests, message)
}

func NewInternalServerError(originalError error, message string) *AppError {
	logrus.Errorf("[%s] %s", reflect.TypeOf(originalError).String(), originalError)
	return NewAppError(http.StatusInternalServerError, CodeInternal, message)
}
