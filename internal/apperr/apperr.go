// Package apperr holds the error taxonomy shared by the verification
// pipeline and the HTTP surface.
package apperr

import (
	"context"
	"errors"
	"net/http"

	"github.com/akylbek/payment-system/payment-verifier/internal/models"
)

var (
	ErrMissingCredentials     = errors.New("api credentials are not configured")
	ErrAuthentication         = errors.New("api authentication failed")
	ErrConnection             = errors.New("api connection failed")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrPendingNotFound        = errors.New("no pending payment for order")
	ErrVerificationInProgress = errors.New("verification already in progress")
)

// Code maps an error onto the outcome error code it should surface as.
func Code(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrMissingCredentials):
		return models.CodeConfigurationError

	case errors.Is(err, ErrAuthentication):
		return models.CodeAuthError

	case errors.Is(err, ErrConnection),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return models.CodeConnectionError

	case errors.Is(err, ErrVerificationInProgress):
		return models.CodeVerificationInProgress

	case errors.Is(err, ErrInvalidRequest):
		return models.CodeInvalidRequest

	default:
		return models.CodeInternalError
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest

	case errors.Is(err, ErrPendingNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrVerificationInProgress):
		return http.StatusConflict

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}
