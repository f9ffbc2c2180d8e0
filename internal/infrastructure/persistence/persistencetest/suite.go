// Package persistencetest holds the behaviour every PaymentRepository
// implementation must share.
package persistencetest

import (
	"context"
	"fmt"
	"time"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// RepositorySuite is embedded by each store's test suite. Repo must be set
// (and emptied) before every test, usually in SetupTest.
type RepositorySuite struct {
	suite.Suite
	Repo application.PaymentRepository
}

// NewSession builds a decodable session generated at the given time.
func NewSession(generated time.Time) (*domain.PaymentSession, error) {
	return domain.ParsePaymentSession([]byte(fmt.Sprintf(`{
		"generationtime": %q,
		"checkoutshopperBaseUrl": "https://checkoutshopper-test.example.com/checkoutshopper/",
		"initiationUrl": "https://checkout-test.example.com/initiate",
		"disableRecurringDetailUrl": "https://checkout-test.example.com/disable",
		"paymentData": "session-data",
		"payment": {"amount": {"value": 1250, "currency": "EUR"}, "reference": "order-1001"},
		"paymentMethods": [
			{"type": "ideal", "name": "iDEAL", "paymentMethodData": "pmd-ideal"}
		],
		"oneClickPaymentMethods": [
			{"type": "visa", "name": "VISA", "paymentMethodData": "pmd-oneclick-1", "storedDetails": {"card": {"number": "1111"}}}
		],
		"futureField": {"kept": true}
	}`, generated.UTC().Format(domain.GenerationTimeLayout))))
}

func (s *RepositorySuite) newSessionEntity(generated time.Time) *domain.PaymentSessionEntity {
	session, err := NewSession(generated)
	s.Require().NoError(err)
	return domain.NewPaymentSessionEntity(session)
}

func (s *RepositorySuite) newRedirectEntity(sessionEntity *domain.PaymentSessionEntity) *domain.PaymentInitiationResponseEntity {
	resp, err := domain.ParsePaymentInitiationResponse([]byte(`{
		"type": "redirect",
		"url": "https://bank.example.com/authorise",
		"submitPaymentMethodReturnData": true,
		"paymentMethod": {"type": "ideal", "paymentMethodData": "pmd-ideal"}
	}`))
	s.Require().NoError(err)
	method := sessionEntity.PaymentSession.PaymentMethods[0]
	return domain.NewPaymentInitiationResponseEntity(sessionEntity.UUID, method, resp)
}

func (s *RepositorySuite) TestSessionRoundTrip() {
	ctx := context.Background()
	entity := s.newSessionEntity(time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC))

	s.Require().NoError(s.Repo.InsertPaymentSessionEntity(ctx, entity))

	found, err := s.Repo.FindPaymentSessionEntityByUUID(ctx, entity.UUID)
	s.Require().NoError(err)
	s.Equal(entity.UUID, found.UUID)
	s.True(entity.GenerationTime.Equal(found.GenerationTime))

	want, err := entity.PaymentSession.MarshalJSON()
	s.Require().NoError(err)
	got, err := found.PaymentSession.MarshalJSON()
	s.Require().NoError(err)
	s.JSONEq(string(want), string(got))
}

func (s *RepositorySuite) TestInsertDuplicateSession() {
	ctx := context.Background()
	entity := s.newSessionEntity(time.Now())

	s.Require().NoError(s.Repo.InsertPaymentSessionEntity(ctx, entity))
	err := s.Repo.InsertPaymentSessionEntity(ctx, entity)

	s.ErrorIs(err, application.ErrPaymentSessionExists)
}

func (s *RepositorySuite) TestFindMissingSession() {
	_, err := s.Repo.FindPaymentSessionEntityByUUID(context.Background(), uuid.New())

	s.ErrorIs(err, application.ErrPaymentSessionNotFound)
}

func (s *RepositorySuite) TestUpdateSession() {
	ctx := context.Background()
	entity := s.newSessionEntity(time.Now())
	s.Require().NoError(s.Repo.InsertPaymentSessionEntity(ctx, entity))

	updated, err := entity.PaymentSession.CopyByRemovingOneClickPaymentMethod(entity.PaymentSession.OneClickPaymentMethods[0])
	s.Require().NoError(err)
	entity.PaymentSession = updated

	s.Require().NoError(s.Repo.UpdatePaymentSessionEntity(ctx, entity))

	found, err := s.Repo.FindPaymentSessionEntityByUUID(ctx, entity.UUID)
	s.Require().NoError(err)
	s.Empty(found.PaymentSession.OneClickPaymentMethods)
}

func (s *RepositorySuite) TestUpdateMissingSession() {
	entity := s.newSessionEntity(time.Now())

	err := s.Repo.UpdatePaymentSessionEntity(context.Background(), entity)

	s.ErrorIs(err, application.ErrPaymentSessionNotFound)
}

func (s *RepositorySuite) TestLatestResponse() {
	ctx := context.Background()
	sessionEntity := s.newSessionEntity(time.Now())
	s.Require().NoError(s.Repo.InsertPaymentSessionEntity(ctx, sessionEntity))

	none, err := s.Repo.FindLatestPaymentInitiationResponseEntity(ctx, sessionEntity.UUID)
	s.Require().NoError(err)
	s.Nil(none)

	first := s.newRedirectEntity(sessionEntity)
	s.Require().NoError(s.Repo.InsertPaymentInitiationResponseEntity(ctx, first))
	second := s.newRedirectEntity(sessionEntity)
	s.Require().NoError(s.Repo.InsertPaymentInitiationResponseEntity(ctx, second))

	s.NotZero(first.ID)
	s.Greater(second.ID, first.ID)

	latest, err := s.Repo.FindLatestPaymentInitiationResponseEntity(ctx, sessionEntity.UUID)
	s.Require().NoError(err)
	s.Equal(second.ID, latest.ID)
	s.Equal(domain.ResponseTypeRedirect, latest.Response.Type)
	s.Equal("https://bank.example.com/authorise", latest.Response.Redirect.URL)
	s.True(latest.Response.Redirect.SubmitPaymentMethodReturnData)
	s.True(latest.PaymentMethod.Equal(sessionEntity.PaymentSession.PaymentMethods[0]))
	s.False(latest.Handled)
}

func (s *RepositorySuite) TestMarkResponseHandled() {
	ctx := context.Background()
	sessionEntity := s.newSessionEntity(time.Now())
	s.Require().NoError(s.Repo.InsertPaymentSessionEntity(ctx, sessionEntity))

	entity := s.newRedirectEntity(sessionEntity)
	s.Require().NoError(s.Repo.InsertPaymentInitiationResponseEntity(ctx, entity))

	handled := entity.Copy()
	handled.Handled = true
	s.Require().NoError(s.Repo.UpdatePaymentInitiationResponseEntity(ctx, handled))

	latest, err := s.Repo.FindLatestPaymentInitiationResponseEntity(ctx, sessionEntity.UUID)
	s.Require().NoError(err)
	s.True(latest.Handled)

	missing := entity.Copy()
	missing.ID = entity.ID + 1000
	s.ErrorIs(s.Repo.UpdatePaymentInitiationResponseEntity(ctx, missing), application.ErrPaymentResponseNotFound)
}

func (s *RepositorySuite) TestDeleteSessionsGeneratedBefore() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	stale := s.newSessionEntity(now.Add(-48 * time.Hour))
	fresh := s.newSessionEntity(now.Add(-time.Hour))
	s.Require().NoError(s.Repo.InsertPaymentSessionEntity(ctx, stale))
	s.Require().NoError(s.Repo.InsertPaymentSessionEntity(ctx, fresh))
	s.Require().NoError(s.Repo.InsertPaymentInitiationResponseEntity(ctx, s.newRedirectEntity(stale)))
	s.Require().NoError(s.Repo.InsertPaymentInitiationResponseEntity(ctx, s.newRedirectEntity(fresh)))

	deleted, err := s.Repo.DeletePaymentSessionsGeneratedBefore(ctx, now.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)

	_, err = s.Repo.FindPaymentSessionEntityByUUID(ctx, stale.UUID)
	s.ErrorIs(err, application.ErrPaymentSessionNotFound)
	gone, err := s.Repo.FindLatestPaymentInitiationResponseEntity(ctx, stale.UUID)
	s.Require().NoError(err)
	s.Nil(gone)

	_, err = s.Repo.FindPaymentSessionEntityByUUID(ctx, fresh.UUID)
	s.NoError(err)
	kept, err := s.Repo.FindLatestPaymentInitiationResponseEntity(ctx, fresh.UUID)
	s.Require().NoError(err)
	s.NotNil(kept)
}
