package application

import (
	"context"
	"errors"
	"net"

	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
)

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient     ErrorCategory = "TRANSIENT"
	CategoryPermanent     ErrorCategory = "PERMANENT"
	CategoryConfiguration ErrorCategory = "CONFIGURATION"
	CategoryValidation    ErrorCategory = "VALIDATION"
	CategoryProtocol      ErrorCategory = "PROTOCOL"
	CategoryCancelled     ErrorCategory = "CANCELLED"
)

// StatusCoder is implemented by transport errors that carry an HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.Canceled) {
		return CategoryCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}

	if errors.Is(err, domain.ErrUnknownResponseType) {
		return CategoryProtocol
	}

	var statusErr StatusCoder
	if errors.As(err, &statusErr) {
		status := statusErr.HTTPStatus()
		switch {
		case status >= 500, status == 429, status == 408:
			return CategoryTransient
		default:
			return CategoryPermanent
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryTransient
	}

	if checkoutErr, ok := domain.IsCheckoutError(err); ok {
		switch checkoutErr.Kind {
		case domain.KindConfiguration:
			return CategoryConfiguration
		case domain.KindValidation:
			return CategoryValidation
		case domain.KindProtocol:
			return CategoryProtocol
		case domain.KindTransport:
			if checkoutErr.Err == nil {
				return CategoryPermanent
			}
			return CategorizeError(checkoutErr.Err)
		}
	}

	// Default: Permanent. Decoding errors and the like do not heal on retry.
	return CategoryPermanent
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	return CategorizeError(err) == CategoryTransient
}
