package services_test

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/application/mocks"
	"github.com/DanielPopoola/ficmart-checkout/internal/application/services"
	"github.com/DanielPopoola/ficmart-checkout/internal/config"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence/memory"
	"github.com/DanielPopoola/ficmart-checkout/internal/lifecycle"
	"github.com/DanielPopoola/ficmart-checkout/internal/looper"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

var handlerConfig = config.HandlerConfig{PoolSize: 2}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLoop(t *testing.T) *looper.Loop {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	loop := looper.New()
	loop.Start(ctx)
	return loop
}

func onLoop(t *testing.T, loop *looper.Loop, fn func()) {
	t.Helper()
	require.NoError(t, loop.Do(context.Background(), fn))
}

func readSessionJSON(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../domain/testdata/session.json")
	require.NoError(t, err)
	return data
}

func encodedSession(t *testing.T) string {
	return base64.StdEncoding.EncodeToString(readSessionJSON(t))
}

func loadSession(t *testing.T) *domain.PaymentSession {
	t.Helper()
	session, err := domain.ParsePaymentSession(readSessionJSON(t))
	require.NoError(t, err)
	return session
}

type fixture struct {
	loop    *looper.Loop
	api     *mocks.MockCheckoutAPI
	repo    *memory.PaymentRepository
	entity  *domain.PaymentSessionEntity
	session *domain.PaymentSession
	handler *services.PaymentHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		loop:    newLoop(t),
		api:     mocks.NewMockCheckoutAPI(t),
		repo:    memory.NewPaymentRepository(),
		session: loadSession(t),
	}
	f.entity = domain.NewPaymentSessionEntity(f.session)
	require.NoError(t, f.repo.InsertPaymentSessionEntity(context.Background(), f.entity))

	f.handler = services.NewPaymentHandler(f.loop, f.repo, f.api, f.entity, nil, handlerConfig, testLogger())
	t.Cleanup(f.handler.Close)
	return f
}

func (f *fixture) method(t *testing.T, paymentType string) domain.PaymentMethod {
	t.Helper()
	for _, m := range f.session.PaymentMethods {
		if m.Type == paymentType {
			return m
		}
	}
	t.Fatalf("no payment method %q in session", paymentType)
	return domain.PaymentMethod{}
}

func (f *fixture) storeResponse(t *testing.T, raw string, handled bool) *domain.PaymentInitiationResponseEntity {
	t.Helper()
	resp, err := domain.ParsePaymentInitiationResponse([]byte(raw))
	require.NoError(t, err)
	entity := domain.NewPaymentInitiationResponseEntity(f.entity.UUID, f.session.PaymentMethods[1], resp)
	entity.Handled = handled
	require.NoError(t, f.repo.InsertPaymentInitiationResponseEntity(context.Background(), entity))
	return entity
}

// recorder collects everything a handler hands to the host.
type recorder struct {
	scope     *lifecycle.Scope
	redirects chan *domain.RedirectFields
	details   chan domain.AdditionalDetails
	errors    chan *domain.CheckoutError
	results   chan domain.PaymentResult
	sessions  chan *domain.PaymentSession
}

func attach(t *testing.T, loop *looper.Loop, h *services.PaymentHandler, active bool) *recorder {
	t.Helper()
	rec := &recorder{
		redirects: make(chan *domain.RedirectFields, 8),
		details:   make(chan domain.AdditionalDetails, 8),
		errors:    make(chan *domain.CheckoutError, 8),
		results:   make(chan domain.PaymentResult, 8),
		sessions:  make(chan *domain.PaymentSession, 8),
	}

	onLoop(t, loop, func() {
		rec.scope = lifecycle.NewScope(loop)
		if active {
			rec.scope.Activate()
		}
		h.SetRedirectHandler(rec.scope, application.RedirectHandlerFunc(func(fields *domain.RedirectFields) {
			rec.redirects <- fields
		}))
		h.SetAdditionalDetailsHandler(rec.scope, application.AdditionalDetailsHandlerFunc(func(details domain.AdditionalDetails) {
			rec.details <- details
		}))
		h.SetErrorHandler(rec.scope, application.ErrorHandlerFunc(func(err *domain.CheckoutError) {
			rec.errors <- err
		}))
		h.PaymentResult().ObserveForever(func(result domain.PaymentResult) {
			rec.results <- result
		})
		h.PaymentSession().ObserveForever(func(session *domain.PaymentSession) {
			rec.sessions <- session
		})
	})
	return rec
}

func receive[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for delivery")
		var zero T
		return zero
	}
}

func assertNothing[T any](t *testing.T, ch chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected delivery: %+v", v)
	case <-time.After(100 * time.Millisecond):
	}
}

// eventuallyIdle waits until no request of h is in flight.
func eventuallyIdle(t *testing.T, loop *looper.Loop, pending func() int) {
	t.Helper()
	require.Eventually(t, func() bool {
		var n int
		onLoop(t, loop, func() { n = pending() })
		return n == 0
	}, waitTimeout, 10*time.Millisecond)
}

func mustParseResponse(t *testing.T, raw string) *domain.PaymentInitiationResponse {
	t.Helper()
	resp, err := domain.ParsePaymentInitiationResponse([]byte(raw))
	require.NoError(t, err)
	return resp
}
