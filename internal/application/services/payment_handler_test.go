package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/application/services"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	idealMethod = `{"type":"ideal","name":"iDEAL","paymentMethodData":"pmd-ideal","details":[{"key":"idealIssuer","type":"select","items":[{"id":"1121","name":"Test Issuer"}]}]}`

	completeResponse   = `{"type":"complete","resultCode":"authorised","payload":"p-1"}`
	redirectResponse   = `{"type":"redirect","url":"https://bank.example/auth","paymentMethod":` + idealMethod + `}`
	returnDataRedirect = `{"type":"redirect","url":"https://bank.example/auth","submitPaymentMethodReturnData":true,"paymentMethod":` + idealMethod + `}`
	expiredResponse    = `{"type":"error","errorCode":"PI007","errorMessage":"Payment session expired."}`

	detailsResponse = `{
		"type":"details",
		"paymentMethod":` + idealMethod + `,
		"paymentMethodReturnData":"rd-1",
		"responseDetails":[{"key":"paymentMethodReturnData","type":"text"},{"key":"otp","type":"text"}]
	}`
)

// Responses that echo the method without its paymentMethodData.
const (
	bareIdealMethod = `{"type":"ideal"}`

	bareDetailsResponse = `{
		"type":"details",
		"paymentMethod":` + bareIdealMethod + `,
		"paymentMethodReturnData":"rd-1",
		"responseDetails":[{"key":"paymentMethodReturnData","type":"text"},{"key":"otp","type":"text"}]
	}`
	bareRedirectResponse   = `{"type":"redirect","url":"https://bank.example/auth","paymentMethod":` + bareIdealMethod + `}`
	bareReturnDataRedirect = `{"type":"redirect","url":"https://bank.example/auth","submitPaymentMethodReturnData":true,"paymentMethod":` + bareIdealMethod + `}`
)

func initiateReturns(f *fixture, t *testing.T, raw string) {
	f.api.EXPECT().
		InitiatePayment(mock.Anything, mock.Anything, mock.Anything).
		Return(mustParseResponse(t, raw), nil).
		Once()
}

func pay(t *testing.T, f *fixture) {
	onLoop(t, f.loop, func() {
		f.handler.InitiatePayment(f.method(t, "ideal"), domain.IssuerDetails{Issuer: "1121"})
	})
}

func TestPaymentHandler_InitiatePayment(t *testing.T) {
	t.Run("complete publishes the result", func(t *testing.T) {
		f := newFixture(t)
		f.api.EXPECT().
			InitiatePayment(mock.Anything, mock.Anything, mock.MatchedBy(func(req *domain.PaymentInitiation) bool {
				return req.PaymentData == f.session.PaymentData &&
					req.PaymentMethodData == "pmd-ideal" &&
					req.PaymentDetails == domain.IssuerDetails{Issuer: "1121"}
			})).
			Return(mustParseResponse(t, completeResponse), nil).
			Once()
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)

		result := receive(t, rec.results)
		assert.Equal(t, domain.ResultCodeAuthorised, result.ResultCode)
		assert.Equal(t, "p-1", result.Payload)
		eventuallyIdle(t, f.loop, f.handler.NetworkingState().PendingRequests)

		latest, err := f.repo.FindLatestPaymentInitiationResponseEntity(context.Background(), f.entity.UUID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, domain.ResponseTypeComplete, latest.Response.Type)
	})

	t.Run("networking state goes up and back down", func(t *testing.T) {
		f := newFixture(t)
		release := make(chan struct{})
		f.api.EXPECT().
			InitiatePayment(mock.Anything, mock.Anything, mock.Anything).
			RunAndReturn(func(context.Context, *domain.PaymentSession, *domain.PaymentInitiation) (*domain.PaymentInitiationResponse, error) {
				<-release
				return mustParseResponse(t, completeResponse), nil
			}).
			Once()

		states := make(chan bool, 8)
		onLoop(t, f.loop, func() {
			f.handler.NetworkingState().ObserveForever(func(executing bool) { states <- executing })
		})
		assert.False(t, receive(t, states))

		pay(t, f)
		assert.True(t, receive(t, states))

		close(release)
		assert.False(t, receive(t, states))
	})

	t.Run("redirect reaches the handler once and is marked handled", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, redirectResponse)
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)

		redirect := receive(t, rec.redirects)
		assert.Equal(t, "https://bank.example/auth", redirect.URL)
		assertNothing(t, rec.redirects)

		require.Eventually(t, func() bool {
			latest, err := f.repo.FindLatestPaymentInitiationResponseEntity(context.Background(), f.entity.UUID)
			return err == nil && latest != nil && latest.Handled
		}, waitTimeout, 10*time.Millisecond)
	})

	t.Run("redirect waits for an active handler", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, redirectResponse)
		rec := attach(t, f.loop, f.handler, false)

		pay(t, f)
		eventuallyIdle(t, f.loop, f.handler.NetworkingState().PendingRequests)
		assertNothing(t, rec.redirects)

		onLoop(t, f.loop, rec.scope.Activate)

		receive(t, rec.redirects)
	})

	t.Run("expired session is fatal and not stored", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, expiredResponse)
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)

		checkoutErr := receive(t, rec.errors)
		assert.True(t, checkoutErr.Fatal)
		assert.Equal(t, domain.KindConfiguration, checkoutErr.Kind)
		assert.Equal(t, string(domain.ErrorCodePaymentSessionExpired), checkoutErr.Code)
		assert.Equal(t, "Payment session expired.", checkoutErr.Message)

		eventuallyIdle(t, f.loop, f.handler.NetworkingState().PendingRequests)
		latest, err := f.repo.FindLatestPaymentInitiationResponseEntity(context.Background(), f.entity.UUID)
		require.NoError(t, err)
		assert.Nil(t, latest)
	})

	t.Run("transport failure is wrapped", func(t *testing.T) {
		f := newFixture(t)
		cause := errors.New("connection reset by peer")
		f.api.EXPECT().
			InitiatePayment(mock.Anything, mock.Anything, mock.Anything).
			Return(nil, cause).
			Once()
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)

		checkoutErr := receive(t, rec.errors)
		assert.Equal(t, domain.KindTransport, checkoutErr.Kind)
		assert.False(t, checkoutErr.Fatal)
		assert.Equal(t, "An error occurred while initiating the payment.", checkoutErr.Message)
		assert.ErrorIs(t, checkoutErr, cause)
	})

	t.Run("unknown response type is fatal", func(t *testing.T) {
		f := newFixture(t)
		f.api.EXPECT().
			InitiatePayment(mock.Anything, mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("decode response: %w", domain.ErrUnknownResponseType)).
			Once()
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)

		checkoutErr := receive(t, rec.errors)
		assert.True(t, checkoutErr.Fatal)
		assert.Equal(t, domain.ErrCodeUnknownResponseType, checkoutErr.Code)
	})

	t.Run("invalid request is dispatched without a call", func(t *testing.T) {
		f := newFixture(t)
		rec := attach(t, f.loop, f.handler, true)

		onLoop(t, f.loop, func() {
			f.handler.InitiatePayment(domain.PaymentMethod{Type: "ideal"}, nil)
		})

		checkoutErr := receive(t, rec.errors)
		assert.Equal(t, domain.KindTransport, checkoutErr.Kind)
		onLoop(t, f.loop, func() {
			assert.False(t, f.handler.NetworkingState().IsExecutingRequests())
		})
	})
}

func TestPaymentHandler_SubmitAdditionalDetails(t *testing.T) {
	t.Run("without a pending step", func(t *testing.T) {
		f := newFixture(t)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.SubmitAdditionalDetails(&domain.AdditionalPaymentMethodDetails{})
		})

		require.Error(t, err)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMissingContext))
	})

	t.Run("finalizes and submits", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, detailsResponse)
		f.api.EXPECT().
			InitiatePayment(mock.Anything, mock.Anything, mock.MatchedBy(func(req *domain.PaymentInitiation) bool {
				details, ok := req.PaymentDetails.(*domain.AdditionalPaymentMethodDetails)
				return ok &&
					details.Values["otp"] == "123456" &&
					details.Values[domain.KeyPaymentMethodReturnData] == "rd-1"
			})).
			Return(mustParseResponse(t, completeResponse), nil).
			Once()
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)

		details := receive(t, rec.details)
		assert.Equal(t, domain.ResponseTypeDetails, details.ResponseType())
		require.Len(t, details.RequiredDetails(), 1)
		assert.Equal(t, "otp", details.RequiredDetails()[0].Key)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.SubmitAdditionalDetails(&domain.AdditionalPaymentMethodDetails{
				Values: map[string]string{"otp": "123456"},
			})
		})
		require.NoError(t, err)

		result := receive(t, rec.results)
		assert.Equal(t, "p-1", result.Payload)
	})

	t.Run("uses the method that started the step", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, bareDetailsResponse)
		f.api.EXPECT().
			InitiatePayment(mock.Anything, mock.Anything, mock.MatchedBy(func(req *domain.PaymentInitiation) bool {
				return req.PaymentMethodData == "pmd-ideal"
			})).
			Return(mustParseResponse(t, completeResponse), nil).
			Once()
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)
		receive(t, rec.details)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.SubmitAdditionalDetails(&domain.AdditionalPaymentMethodDetails{
				Values: map[string]string{"otp": "123456"},
			})
		})
		require.NoError(t, err)

		assert.Equal(t, "p-1", receive(t, rec.results).Payload)
		assertNothing(t, rec.errors)
	})

	t.Run("details passed by value are finalized", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, detailsResponse)
		f.api.EXPECT().
			InitiatePayment(mock.Anything, mock.Anything, mock.MatchedBy(func(req *domain.PaymentInitiation) bool {
				details, ok := req.PaymentDetails.(*domain.AdditionalPaymentMethodDetails)
				return ok &&
					details.Values["otp"] == "654321" &&
					details.Values[domain.KeyPaymentMethodReturnData] == "rd-1"
			})).
			Return(mustParseResponse(t, completeResponse), nil).
			Once()
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)
		receive(t, rec.details)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.SubmitAdditionalDetails(domain.AdditionalPaymentMethodDetails{
				Values: map[string]string{"otp": "654321"},
			})
		})
		require.NoError(t, err)

		assert.Equal(t, "p-1", receive(t, rec.results).Payload)
	})

	t.Run("details passed by value are still checked", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, detailsResponse)
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)
		receive(t, rec.details)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.SubmitAdditionalDetails(domain.AdditionalPaymentMethodDetails{Values: map[string]string{}})
		})
		require.NoError(t, err)

		checkoutErr := receive(t, rec.errors)
		assert.Equal(t, domain.ErrCodeMissingDetail, checkoutErr.Code)
		assertNothing(t, rec.results)
	})

	t.Run("missing detail is dispatched", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, detailsResponse)
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)
		receive(t, rec.details)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.SubmitAdditionalDetails(&domain.AdditionalPaymentMethodDetails{})
		})
		require.NoError(t, err)

		checkoutErr := receive(t, rec.errors)
		assert.Equal(t, domain.ErrCodeMissingDetail, checkoutErr.Code)
		assert.Equal(t, "otp is required", checkoutErr.Message)
	})
}

func TestPaymentHandler_HandleRedirectResult(t *testing.T) {
	t.Run("without a pending redirect", func(t *testing.T) {
		f := newFixture(t)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.HandleRedirectResult("ficmart://checkout?type=complete")
		})

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMissingContext))
	})

	t.Run("submits return data to the backend", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, returnDataRedirect)
		f.api.EXPECT().
			InitiatePayment(mock.Anything, mock.Anything, mock.MatchedBy(func(req *domain.PaymentInitiation) bool {
				return req.PaymentDetails == domain.AppResponseDetails{ReturnURLQueryString: "payload=abc&redirectResult=X1"}
			})).
			Return(mustParseResponse(t, completeResponse), nil).
			Once()
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)
		receive(t, rec.redirects)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.HandleRedirectResult("ficmart://checkout?payload=abc&redirectResult=X1")
		})
		require.NoError(t, err)

		assert.Equal(t, "p-1", receive(t, rec.results).Payload)
	})

	t.Run("return data goes out with the method that started the step", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, bareReturnDataRedirect)
		f.api.EXPECT().
			InitiatePayment(mock.Anything, mock.Anything, mock.MatchedBy(func(req *domain.PaymentInitiation) bool {
				return req.PaymentMethodData == "pmd-ideal"
			})).
			Return(mustParseResponse(t, completeResponse), nil).
			Once()
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)
		receive(t, rec.redirects)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.HandleRedirectResult("ficmart://checkout?redirectResult=X1")
		})
		require.NoError(t, err)

		assert.Equal(t, "p-1", receive(t, rec.results).Payload)
		assertNothing(t, rec.errors)
	})

	t.Run("locally parsed result keeps the method that started the step", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, bareRedirectResponse)
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)
		receive(t, rec.redirects)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.HandleRedirectResult("ficmart://checkout?type=complete&resultCode=authorised&payload=p-3")
		})
		require.NoError(t, err)
		assert.Equal(t, "p-3", receive(t, rec.results).Payload)

		latest, err := f.repo.FindLatestPaymentInitiationResponseEntity(context.Background(), f.entity.UUID)
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, domain.ResponseTypeComplete, latest.Response.Type)
		assert.Equal(t, "pmd-ideal", latest.PaymentMethod.PaymentMethodData)
	})

	t.Run("parses the query locally", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, redirectResponse)
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)
		receive(t, rec.redirects)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.HandleRedirectResult("ficmart://checkout?type=complete&resultCode=refused&payload=p-9")
		})
		require.NoError(t, err)

		result := receive(t, rec.results)
		assert.Equal(t, domain.ResultCodeRefused, result.ResultCode)
		assert.Equal(t, "p-9", result.Payload)
	})

	t.Run("unknown type in the query is returned", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, redirectResponse)
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)
		receive(t, rec.redirects)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.HandleRedirectResult("ficmart://checkout?type=teleport")
		})

		checkoutErr, ok := domain.IsCheckoutError(err)
		require.True(t, ok)
		assert.True(t, checkoutErr.Fatal)
		assert.Equal(t, domain.ErrCodeUnknownResponseType, checkoutErr.Code)
		assertNothing(t, rec.errors)
	})

	t.Run("malformed query response is dispatched", func(t *testing.T) {
		f := newFixture(t)
		initiateReturns(f, t, redirectResponse)
		rec := attach(t, f.loop, f.handler, true)

		pay(t, f)
		receive(t, rec.redirects)

		var err error
		onLoop(t, f.loop, func() {
			err = f.handler.HandleRedirectResult("ficmart://checkout?type=complete")
		})
		require.NoError(t, err)

		checkoutErr := receive(t, rec.errors)
		assert.Equal(t, domain.ErrCodeInvalidRedirectQuery, checkoutErr.Code)
		assert.False(t, checkoutErr.Fatal)
	})
}

func TestPaymentHandler_DeleteOneClickPaymentMethod(t *testing.T) {
	t.Run("method that is not one click", func(t *testing.T) {
		f := newFixture(t)
		rec := attach(t, f.loop, f.handler, true)
		receive(t, rec.sessions)

		onLoop(t, f.loop, func() {
			f.handler.DeleteOneClickPaymentMethod(f.method(t, "card"))
		})

		checkoutErr := receive(t, rec.errors)
		assert.Equal(t, domain.ErrCodeNotOneClick, checkoutErr.Code)
		assert.False(t, checkoutErr.Fatal)
		assertNothing(t, rec.sessions)
	})

	t.Run("success publishes and stores the new session", func(t *testing.T) {
		f := newFixture(t)
		target := f.session.OneClickPaymentMethods[0]
		f.api.EXPECT().
			DeletePaymentMethod(mock.Anything, f.session, mock.MatchedBy(func(m domain.PaymentMethod) bool {
				return m.PaymentMethodData == "pmd-oneclick-1"
			})).
			Return(&application.PaymentMethodDeletionResponse{ResultCode: application.DeletionSuccess}, nil).
			Once()
		rec := attach(t, f.loop, f.handler, true)
		receive(t, rec.sessions)

		onLoop(t, f.loop, func() {
			f.handler.DeleteOneClickPaymentMethod(target)
		})

		updated := receive(t, rec.sessions)
		require.Len(t, updated.OneClickPaymentMethods, 1)
		assert.Equal(t, "pmd-oneclick-2", updated.OneClickPaymentMethods[0].PaymentMethodData)
		assert.Len(t, f.session.OneClickPaymentMethods, 2, "the original session is not modified")

		stored, err := f.repo.FindPaymentSessionEntityByUUID(context.Background(), f.entity.UUID)
		require.NoError(t, err)
		assert.Len(t, stored.PaymentSession.OneClickPaymentMethods, 1)
	})

	t.Run("rejected by the backend", func(t *testing.T) {
		f := newFixture(t)
		f.api.EXPECT().
			DeletePaymentMethod(mock.Anything, mock.Anything, mock.Anything).
			Return(&application.PaymentMethodDeletionResponse{ResultCode: application.DeletionFailure}, nil).
			Once()
		rec := attach(t, f.loop, f.handler, true)
		receive(t, rec.sessions)

		onLoop(t, f.loop, func() {
			f.handler.DeleteOneClickPaymentMethod(f.session.OneClickPaymentMethods[1])
		})

		checkoutErr := receive(t, rec.errors)
		assert.Equal(t, domain.ErrCodeDeletionFailed, checkoutErr.Code)
		assert.Equal(t, "Could not delete PaymentMethod.", checkoutErr.Message)
		assertNothing(t, rec.sessions)
		eventuallyIdle(t, f.loop, f.handler.NetworkingState().PendingRequests)
	})
}

func TestPaymentHandler_DeleteOneClickPaymentMethodTransportFailure(t *testing.T) {
	f := newFixture(t)
	cause := errors.New("connection refused")
	f.api.EXPECT().
		DeletePaymentMethod(mock.Anything, mock.Anything, mock.Anything).
		Return(nil, cause).
		Once()
	rec := attach(t, f.loop, f.handler, true)
	receive(t, rec.sessions)

	onLoop(t, f.loop, func() {
		f.handler.DeleteOneClickPaymentMethod(f.session.OneClickPaymentMethods[0])
	})

	checkoutErr := receive(t, rec.errors)
	assert.Equal(t, domain.KindTransport, checkoutErr.Kind)
	assert.False(t, checkoutErr.Fatal)
	assert.ErrorIs(t, checkoutErr, cause)
	assertNothing(t, rec.sessions)
	eventuallyIdle(t, f.loop, f.handler.NetworkingState().PendingRequests)

	onLoop(t, f.loop, func() {
		current, ok := f.handler.PaymentSession().Value()
		assert.True(t, ok)
		assert.Same(t, f.session, current)
	})
	stored, err := f.repo.FindPaymentSessionEntityByUUID(context.Background(), f.entity.UUID)
	require.NoError(t, err)
	assert.Len(t, stored.PaymentSession.OneClickPaymentMethods, 2)
}

func TestPaymentHandler_Restore(t *testing.T) {
	t.Run("unhandled step is dispatched again", func(t *testing.T) {
		f := newFixture(t)
		latest := f.storeResponse(t, redirectResponse, false)

		restored := services.NewPaymentHandler(f.loop, f.repo, f.api, f.entity, latest, handlerConfig, testLogger())
		t.Cleanup(restored.Close)
		rec := attach(t, f.loop, restored, true)

		assert.Equal(t, "https://bank.example/auth", receive(t, rec.redirects).URL)
	})

	t.Run("handled step is not dispatched but still resumable", func(t *testing.T) {
		f := newFixture(t)
		latest := f.storeResponse(t, redirectResponse, true)

		restored := services.NewPaymentHandler(f.loop, f.repo, f.api, f.entity, latest, handlerConfig, testLogger())
		t.Cleanup(restored.Close)
		rec := attach(t, f.loop, restored, true)
		assertNothing(t, rec.redirects)

		var err error
		onLoop(t, f.loop, func() {
			err = restored.HandleRedirectResult("ficmart://checkout?type=complete&resultCode=authorised&payload=p-2")
		})
		require.NoError(t, err)
		assert.Equal(t, "p-2", receive(t, rec.results).Payload)
	})

	t.Run("complete result is published again", func(t *testing.T) {
		f := newFixture(t)
		latest := f.storeResponse(t, completeResponse, false)

		restored := services.NewPaymentHandler(f.loop, f.repo, f.api, f.entity, latest, handlerConfig, testLogger())
		t.Cleanup(restored.Close)
		rec := attach(t, f.loop, restored, true)

		assert.Equal(t, domain.ResultCodeAuthorised, receive(t, rec.results).ResultCode)
	})
}

func TestPaymentHandler_NewIssuerSearchHandler(t *testing.T) {
	f := newFixture(t)

	_, err := f.handler.NewIssuerSearchHandler(f.method(t, "ideal"))
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMissingContext))

	search, err := f.handler.NewIssuerSearchHandler(f.method(t, "giropay"))
	require.NoError(t, err)
	search.Close()
}

func TestPaymentHandler_Close(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	f.api.EXPECT().
		InitiatePayment(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, _ *domain.PaymentSession, _ *domain.PaymentInitiation) (*domain.PaymentInitiationResponse, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}).
		Once()
	rec := attach(t, f.loop, f.handler, true)

	pay(t, f)
	receive(t, started)

	f.handler.Close()

	assertNothing(t, rec.errors)
	eventuallyIdle(t, f.loop, f.handler.NetworkingState().PendingRequests)
}
