package checkoutapi

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/config"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
)

// RetryClient retries the idempotent calls of an inner CheckoutAPI.
// InitiatePayment is never retried: the backend may already have acted on it.
type RetryClient struct {
	inner      application.CheckoutAPI
	baseDelay  time.Duration
	maxRetries int
}

var _ application.CheckoutAPI = (*RetryClient)(nil)

func NewRetryClient(inner application.CheckoutAPI, cfg config.RetryConfig) *RetryClient {
	maxRetries := int(cfg.MaxRetries)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryClient{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxRetries: maxRetries,
	}
}

func (r *RetryClient) InitiatePayment(ctx context.Context, session *domain.PaymentSession, req *domain.PaymentInitiation) (*domain.PaymentInitiationResponse, error) {
	return r.inner.InitiatePayment(ctx, session, req)
}

// DeletePaymentMethod with retry logic
func (r *RetryClient) DeletePaymentMethod(ctx context.Context, session *domain.PaymentSession, method domain.PaymentMethod) (*application.PaymentMethodDeletionResponse, error) {
	return retry(
		r,
		ctx,
		func(ctx context.Context) (*application.PaymentMethodDeletionResponse, error) {
			return r.inner.DeletePaymentMethod(ctx, session, method)
		},
	)
}

// SearchIssuers with retry logic
func (r *RetryClient) SearchIssuers(ctx context.Context, method domain.PaymentMethod, searchString string) ([]domain.Issuer, error) {
	issuers, err := retry(
		r,
		ctx,
		func(ctx context.Context) (*[]domain.Issuer, error) {
			issuers, err := r.inner.SearchIssuers(ctx, method, searchString)
			if err != nil {
				return nil, err
			}
			return &issuers, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return *issuers, nil
}

// Generic retry helper
func retry[T any](r *RetryClient, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !application.IsRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

// Backoff calculation with exponential delay and jitter
func (r *RetryClient) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	jitter := time.Duration(rand.Int63n(int64(r.baseDelay)/2 + 1))

	return base + jitter
}
