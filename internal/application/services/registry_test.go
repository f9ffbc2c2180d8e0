package services_test

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/application/mocks"
	"github.com/DanielPopoola/ficmart-checkout/internal/application/services"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RegistryTestSuite struct {
	suite.Suite
	repo     *memory.PaymentRepository
	registry *services.Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) SetupTest() {
	s.repo = memory.NewPaymentRepository()
	s.registry = services.NewRegistry(newLoop(s.T()), s.repo, mocks.NewMockCheckoutAPI(s.T()), handlerConfig, testLogger())
}

func (s *RegistryTestSuite) TearDownTest() {
	s.registry.Close()
}

func (s *RegistryTestSuite) TestCreatePaymentReference() {
	ctx := context.Background()

	ref, err := s.registry.CreatePaymentReference(ctx, encodedSession(s.T()))
	s.Require().NoError(err)
	s.False(ref.IsZero())

	stored, err := s.repo.FindPaymentSessionEntityByUUID(ctx, ref.UUID())
	s.Require().NoError(err)
	s.Equal("order-1001", stored.PaymentSession.Payment.Reference)

	handler, err := s.registry.PaymentHandler(ctx, ref)
	s.Require().NoError(err)
	s.Equal(ref, handler.Reference())

	again, err := s.registry.PaymentHandler(ctx, ref)
	s.Require().NoError(err)
	s.Same(handler, again)
}

func (s *RegistryTestSuite) TestCreatePaymentReference_WrappedSession() {
	wrapped := `{"paymentSession":"` + encodedSession(s.T()) + `"}`

	_, err := s.registry.CreatePaymentReference(context.Background(), wrapped)

	s.NoError(err)
}

func (s *RegistryTestSuite) TestCreatePaymentReference_Undecodable() {
	_, err := s.registry.CreatePaymentReference(context.Background(), base64.StdEncoding.EncodeToString([]byte(`{"paymentData":`)))

	s.Require().Error(err)
	checkoutErr, ok := domain.IsCheckoutError(err)
	s.Require().True(ok)
	s.True(checkoutErr.Fatal)
	s.Equal(domain.ErrCodeSessionDecode, checkoutErr.Code)
}

func (s *RegistryTestSuite) TestPaymentHandler_RestoresFromRepository() {
	ctx := context.Background()
	ref, err := s.registry.CreatePaymentReference(ctx, encodedSession(s.T()))
	s.Require().NoError(err)

	first, err := s.registry.PaymentHandler(ctx, ref)
	s.Require().NoError(err)
	s.registry.Release(ref)

	restored, err := s.registry.PaymentHandler(ctx, ref)
	s.Require().NoError(err)
	s.NotSame(first, restored)
	s.Equal(ref, restored.Reference())
}

func (s *RegistryTestSuite) TestPaymentHandler_UnknownReference() {
	_, err := s.registry.PaymentHandler(context.Background(), domain.NewPaymentReference(uuid.New()))

	s.ErrorIs(err, application.ErrPaymentSessionNotFound)
}

func (s *RegistryTestSuite) TestPaymentHandler_ZeroReference() {
	_, err := s.registry.PaymentHandler(context.Background(), domain.PaymentReference{})

	s.ErrorIs(err, services.ErrInvalidPaymentReference)
}

func TestRegistry_ConcurrentRestoreSharesHandler(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewPaymentRepository()
	entity := domain.NewPaymentSessionEntity(loadSession(t))
	require.NoError(t, repo.InsertPaymentSessionEntity(ctx, entity))

	registry := services.NewRegistry(newLoop(t), repo, mocks.NewMockCheckoutAPI(t), handlerConfig, testLogger())
	t.Cleanup(registry.Close)

	ref := domain.NewPaymentReference(entity.UUID)
	handlers := make([]*services.PaymentHandler, 8)

	var wg sync.WaitGroup
	for i := range handlers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler, err := registry.PaymentHandler(ctx, ref)
			assert.NoError(t, err)
			handlers[i] = handler
		}()
	}
	wg.Wait()

	for _, handler := range handlers {
		assert.Same(t, handlers[0], handler)
	}
}
