package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/stretchr/testify/assert"
)

type statusError struct{ status int }

func (e statusError) Error() string   { return fmt.Sprintf("status %d", e.status) }
func (e statusError) HTTPStatus() int { return e.status }

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		expected  application.ErrorCategory
		retryable bool
	}{
		{"nil", nil, "", false},
		{"deadline", context.DeadlineExceeded, application.CategoryTransient, true},
		{"cancelled", fmt.Errorf("call: %w", context.Canceled), application.CategoryCancelled, false},
		{"server error", statusError{502}, application.CategoryTransient, true},
		{"too many requests", statusError{429}, application.CategoryTransient, true},
		{"client error", statusError{400}, application.CategoryPermanent, false},
		{"unknown response type", fmt.Errorf("parse: %w", domain.ErrUnknownResponseType), application.CategoryProtocol, false},
		{"session expired", domain.NewBackendError(&domain.ErrorFields{ErrorCode: domain.ErrorCodePaymentSessionExpired}), application.CategoryConfiguration, false},
		{"backend validation", domain.NewBackendError(&domain.ErrorFields{ErrorCode: domain.ErrorCodeInvalidBIC}), application.CategoryValidation, false},
		{"missing context", domain.NewProtocolError(domain.ErrCodeMissingContext, "no context", nil), application.CategoryProtocol, false},
		{"transport wraps cause", domain.NewTransportError("failed", statusError{503}), application.CategoryTransient, true},
		{"transport without cause", domain.NewTransportError("failed", nil), application.CategoryPermanent, false},
		{"plain error", errors.New("boom"), application.CategoryPermanent, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, application.CategorizeError(tt.err))
			assert.Equal(t, tt.retryable, application.IsRetryable(tt.err))
		})
	}
}

func TestPaymentMethodDeletionResponse_Succeeded(t *testing.T) {
	assert.True(t, (&application.PaymentMethodDeletionResponse{ResultCode: "success"}).Succeeded())
	assert.True(t, (&application.PaymentMethodDeletionResponse{ResultCode: application.DeletionSuccess}).Succeeded())
	assert.False(t, (&application.PaymentMethodDeletionResponse{ResultCode: application.DeletionFailure}).Succeeded())

	var missing *application.PaymentMethodDeletionResponse
	assert.False(t, missing.Succeeded())
}
