package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/config"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/DanielPopoola/ficmart-checkout/internal/looper"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var ErrInvalidPaymentReference = errors.New("invalid payment reference")

// Registry maps payment references to live handlers so that every lookup in
// one process shares a handler. Handlers missing from memory are rebuilt from
// the repository.
type Registry struct {
	loop   *looper.Loop
	repo   application.PaymentRepository
	api    application.CheckoutAPI
	cfg    config.HandlerConfig
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[uuid.UUID]*PaymentHandler
	loads    singleflight.Group
}

func NewRegistry(
	loop *looper.Loop,
	repo application.PaymentRepository,
	api application.CheckoutAPI,
	cfg config.HandlerConfig,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		loop:     loop,
		repo:     repo,
		api:      api,
		cfg:      cfg,
		logger:   logger,
		handlers: make(map[uuid.UUID]*PaymentHandler),
	}
}

// CreatePaymentReference decodes a session handed over by the merchant
// backend, stores it and returns the reference of its new handler.
func (r *Registry) CreatePaymentReference(ctx context.Context, encodedSession string) (domain.PaymentReference, error) {
	session, err := domain.DecodePaymentSession(encodedSession)
	if err != nil {
		return domain.PaymentReference{}, err
	}

	entity := domain.NewPaymentSessionEntity(session)
	if err := r.repo.InsertPaymentSessionEntity(ctx, entity); err != nil {
		return domain.PaymentReference{}, fmt.Errorf("store payment session: %w", err)
	}

	handler := NewPaymentHandler(r.loop, r.repo, r.api, entity, nil, r.cfg, r.logger)

	r.mu.Lock()
	r.handlers[entity.UUID] = handler
	r.mu.Unlock()

	r.logger.Info("payment session created",
		"reference", handler.Reference().String(),
		"amount", session.Payment.Amount.String(),
		"payment_methods", len(session.PaymentMethods),
	)

	return handler.Reference(), nil
}

// PaymentHandler returns the live handler for ref, rebuilding it from the
// repository when needed. Concurrent rebuilds of one reference are coalesced.
func (r *Registry) PaymentHandler(ctx context.Context, ref domain.PaymentReference) (*PaymentHandler, error) {
	if ref.IsZero() {
		return nil, ErrInvalidPaymentReference
	}

	if handler, ok := r.lookup(ref.UUID()); ok {
		return handler, nil
	}

	v, err, _ := r.loads.Do(ref.String(), func() (any, error) {
		if handler, ok := r.lookup(ref.UUID()); ok {
			return handler, nil
		}

		entity, err := r.repo.FindPaymentSessionEntityByUUID(ctx, ref.UUID())
		if err != nil {
			return nil, err
		}
		latest, err := r.repo.FindLatestPaymentInitiationResponseEntity(ctx, ref.UUID())
		if err != nil {
			return nil, fmt.Errorf("load latest payment initiation response: %w", err)
		}

		handler := NewPaymentHandler(r.loop, r.repo, r.api, entity, latest, r.cfg, r.logger)

		r.mu.Lock()
		r.handlers[ref.UUID()] = handler
		r.mu.Unlock()

		r.logger.Info("payment handler restored", "reference", ref.String(), "has_response", latest != nil)
		return handler, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*PaymentHandler), nil
}

// Release closes and forgets the handler of ref, if it is live.
func (r *Registry) Release(ref domain.PaymentReference) {
	r.mu.Lock()
	handler, ok := r.handlers[ref.UUID()]
	delete(r.handlers, ref.UUID())
	r.mu.Unlock()

	if ok {
		handler.Close()
	}
}

// Close closes every live handler.
func (r *Registry) Close() {
	r.mu.Lock()
	handlers := r.handlers
	r.handlers = make(map[uuid.UUID]*PaymentHandler)
	r.mu.Unlock()

	for _, handler := range handlers {
		handler.Close()
	}
}

func (r *Registry) lookup(id uuid.UUID) (*PaymentHandler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	handler, ok := r.handlers[id]
	return handler, ok
}
