package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/config"
	"github.com/DanielPopoola/ficmart-checkout/internal/dispatch"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/DanielPopoola/ficmart-checkout/internal/lifecycle"
	"github.com/DanielPopoola/ficmart-checkout/internal/looper"
	"github.com/DanielPopoola/ficmart-checkout/internal/observable"
	"github.com/google/uuid"
)

const (
	msgInitiationFailed    = "An error occurred while initiating the payment."
	msgDeletionFailed      = "An error occurred while deleting the payment method."
	msgNotOneClick         = "Cannot delete payment method that is not a one click payment method."
	msgDeletionRejected    = "Could not delete PaymentMethod."
	msgUnparsableRedirect  = "Could not parse PaymentInitiationResponse."
	msgUnknownResponseType = "Unknown payment initiation response type."
	msgNoDetailsContext    = "There is no pending step that accepts additional details."
	msgNoRedirectContext   = "There is no pending redirect to handle."
)

// PaymentHandler drives one payment session. Every exported method except
// Close, Reference and the observable getters must be called on the loop.
type PaymentHandler struct {
	loop   *looper.Loop
	repo   application.PaymentRepository
	api    application.CheckoutAPI
	logger *slog.Logger
	pool   *workerPool

	reference domain.PaymentReference

	networking *observable.NetworkingState
	session    *observable.Observable[*domain.PaymentSession]
	result     *observable.Observable[domain.PaymentResult]

	redirects *dispatch.Manager[application.RedirectHandler, *domain.RedirectFields]
	details   *dispatch.Manager[application.AdditionalDetailsHandler, domain.AdditionalDetails]
	errs      *dispatch.Manager[application.ErrorHandler, *domain.CheckoutError]

	// loop-owned
	sessionEntity *domain.PaymentSessionEntity
	latest        *domain.PaymentInitiationResponseEntity
}

// NewPaymentHandler builds a handler for a stored session. latest is the most
// recent stored response, or nil; an unhandled redirect or details step in it
// is dispatched again once handlers register.
func NewPaymentHandler(
	loop *looper.Loop,
	repo application.PaymentRepository,
	api application.CheckoutAPI,
	sessionEntity *domain.PaymentSessionEntity,
	latest *domain.PaymentInitiationResponseEntity,
	cfg config.HandlerConfig,
	logger *slog.Logger,
) *PaymentHandler {
	h := &PaymentHandler{
		loop:          loop,
		repo:          repo,
		api:           api,
		pool:          newWorkerPool(cfg.PoolSize),
		reference:     domain.NewPaymentReference(sessionEntity.UUID),
		networking:    observable.NewNetworkingState(loop),
		session:       observable.NewWithValue(loop, sessionEntity.PaymentSession),
		result:        observable.New[domain.PaymentResult](loop),
		sessionEntity: sessionEntity,
	}
	h.logger = logger.With("reference", h.reference.String())

	h.redirects = dispatch.New(loop,
		func(handler application.RedirectHandler, fields *domain.RedirectFields) {
			handler.OnRedirectRequired(fields)
		},
		h.markLatestHandled,
	)
	h.details = dispatch.New(loop,
		func(handler application.AdditionalDetailsHandler, details domain.AdditionalDetails) {
			handler.OnAdditionalDetailsRequired(details)
		},
		h.markLatestHandled,
	)
	h.errs = dispatch.New(loop,
		func(handler application.ErrorHandler, err *domain.CheckoutError) {
			handler.OnError(err)
		},
		nil,
	)

	if latest != nil {
		loop.Post(func() { h.classify(latest) })
	}

	return h
}

func (h *PaymentHandler) Reference() domain.PaymentReference {
	return h.reference
}

func (h *PaymentHandler) NetworkingState() *observable.NetworkingState {
	return h.networking
}

func (h *PaymentHandler) PaymentSession() *observable.Observable[*domain.PaymentSession] {
	return h.session
}

func (h *PaymentHandler) PaymentResult() *observable.Observable[domain.PaymentResult] {
	return h.result
}

func (h *PaymentHandler) SetRedirectHandler(scope *lifecycle.Scope, handler application.RedirectHandler) lifecycle.Subscription {
	return h.redirects.AddHandler(scope, handler)
}

func (h *PaymentHandler) SetAdditionalDetailsHandler(scope *lifecycle.Scope, handler application.AdditionalDetailsHandler) lifecycle.Subscription {
	return h.details.AddHandler(scope, handler)
}

func (h *PaymentHandler) SetErrorHandler(scope *lifecycle.Scope, handler application.ErrorHandler) lifecycle.Subscription {
	return h.errs.AddHandler(scope, handler)
}

// NewIssuerSearchHandler returns a lookup helper for a method that carries an
// issuer search endpoint.
func (h *PaymentHandler) NewIssuerSearchHandler(method domain.PaymentMethod) (*IssuerSearchHandler, error) {
	if method.IssuerSearchURL() == "" {
		return nil, domain.NewProtocolError(domain.ErrCodeMissingContext, "Payment method does not support issuer search.", nil)
	}
	return NewIssuerSearchHandler(h.loop, h.api, method, h.logger), nil
}

// InitiatePayment starts a payment with method and the shopper's details,
// which may be nil.
func (h *PaymentHandler) InitiatePayment(method domain.PaymentMethod, details domain.PaymentMethodDetails) {
	h.loop.AssertOnLoop("PaymentHandler.InitiatePayment")
	h.initiate(method, details)
}

// SubmitAdditionalDetails answers the pending DETAILS or 3-D Secure step.
// Without one, it returns a protocol error and does nothing else.
func (h *PaymentHandler) SubmitAdditionalDetails(details domain.PaymentMethodDetails) error {
	h.loop.AssertOnLoop("PaymentHandler.SubmitAdditionalDetails")

	pending := h.pendingAdditionalDetails()
	if pending == nil {
		return domain.NewProtocolError(domain.ErrCodeMissingContext, msgNoDetailsContext, nil)
	}

	finalized, err := domain.FinalizeDetails(details, pending)
	if err != nil {
		h.dispatchError(domain.AsCheckoutError(err, msgInitiationFailed))
		return nil
	}

	// The echoed method in a response may lack paymentMethodData.
	h.initiate(h.latest.PaymentMethod, finalized)
	return nil
}

// HandleRedirectResult continues after the shopper returns from a redirect.
// uri is the full return URL including its query.
func (h *PaymentHandler) HandleRedirectResult(uri string) error {
	h.loop.AssertOnLoop("PaymentHandler.HandleRedirectResult")

	if h.latest == nil || h.latest.Response.Redirect == nil {
		return domain.NewProtocolError(domain.ErrCodeMissingContext, msgNoRedirectContext, nil)
	}
	redirect := h.latest.Response.Redirect

	parsed, err := url.Parse(uri)
	if err != nil {
		h.dispatchError(domain.NewProtocolError(domain.ErrCodeInvalidRedirectQuery, msgUnparsableRedirect, err))
		return nil
	}

	if redirect.SubmitPaymentMethodReturnData {
		h.initiate(h.latest.PaymentMethod, domain.AppResponseDetails{ReturnURLQueryString: parsed.RawQuery})
		return nil
	}

	members := make(map[string]string)
	for key, values := range parsed.Query() {
		if len(values) > 0 {
			members[key] = values[0]
		}
	}
	data, err := json.Marshal(members)
	if err != nil {
		h.dispatchError(domain.NewProtocolError(domain.ErrCodeInvalidRedirectQuery, msgUnparsableRedirect, err))
		return nil
	}

	resp, err := domain.ParsePaymentInitiationResponse(data)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownResponseType) {
			return unknownResponseTypeError(err)
		}
		h.dispatchError(domain.NewProtocolError(domain.ErrCodeInvalidRedirectQuery, msgUnparsableRedirect, err))
		return nil
	}

	method := h.latest.PaymentMethod
	sessionUUID := h.sessionEntity.UUID
	h.pool.Submit(func(ctx context.Context) {
		h.storeAndClassify(ctx, sessionUUID, method, resp)
	})
	return nil
}

// DeleteOneClickPaymentMethod removes a stored method from the backend and,
// on success, publishes the updated session.
func (h *PaymentHandler) DeleteOneClickPaymentMethod(method domain.PaymentMethod) {
	h.loop.AssertOnLoop("PaymentHandler.DeleteOneClickPaymentMethod")

	current := h.sessionEntity
	if current.PaymentSession.FindOneClickPaymentMethod(method) < 0 {
		h.dispatchError(&domain.CheckoutError{
			Kind:    domain.KindValidation,
			Code:    domain.ErrCodeNotOneClick,
			Message: msgNotOneClick,
		})
		return
	}

	h.networking.RequestStarted()
	submitted := h.pool.Submit(func(ctx context.Context) {
		defer h.loop.Post(h.networking.RequestFinished)

		resp, err := h.api.DeletePaymentMethod(ctx, current.PaymentSession, method)
		if err != nil {
			h.postFailure(err, msgDeletionFailed)
			return
		}
		if !resp.Succeeded() {
			h.logger.Warn("payment method deletion rejected", "payment_method", method.Type, "result_code", resp.ResultCode)
			h.postError(&domain.CheckoutError{
				Kind:    domain.KindValidation,
				Code:    domain.ErrCodeDeletionFailed,
				Message: msgDeletionRejected,
			})
			return
		}

		updated, err := current.PaymentSession.CopyByRemovingOneClickPaymentMethod(method)
		if err != nil {
			h.postFailure(err, msgDeletionFailed)
			return
		}
		entity := &domain.PaymentSessionEntity{
			UUID:           current.UUID,
			PaymentSession: updated,
			GenerationTime: current.GenerationTime,
		}
		if err := h.repo.UpdatePaymentSessionEntity(context.WithoutCancel(ctx), entity); err != nil {
			h.logger.Error("failed to persist updated payment session", "error", err)
		}

		h.loop.Post(func() {
			h.sessionEntity = entity
			h.session.SetValue(updated)
		})
	})
	if !submitted {
		h.networking.RequestFinished()
	}
}

// Close cancels in-flight requests and waits for background work to stop.
// It must not be called from a pool task.
func (h *PaymentHandler) Close() {
	h.pool.Close()
}

func (h *PaymentHandler) initiate(method domain.PaymentMethod, details domain.PaymentMethodDetails) {
	session := h.sessionEntity.PaymentSession
	req, err := domain.NewPaymentInitiation(session, method, details)
	if err != nil {
		h.dispatchError(domain.AsCheckoutError(err, msgInitiationFailed))
		return
	}

	h.logger.Info("initiating payment", "payment_method", method.Type)

	sessionUUID := h.sessionEntity.UUID
	h.networking.RequestStarted()
	submitted := h.pool.Submit(func(ctx context.Context) {
		defer h.loop.Post(h.networking.RequestFinished)

		resp, err := h.api.InitiatePayment(ctx, session, req)
		if err != nil {
			h.postFailure(err, msgInitiationFailed)
			return
		}
		h.storeAndClassify(ctx, sessionUUID, method, resp)
	})
	if !submitted {
		h.networking.RequestFinished()
	}
}

// storeAndClassify runs on a pool goroutine. Resumable responses are written
// before the loop learns about them, even when the handler is closing.
func (h *PaymentHandler) storeAndClassify(ctx context.Context, sessionUUID uuid.UUID, method domain.PaymentMethod, resp *domain.PaymentInitiationResponse) {
	entity := domain.NewPaymentInitiationResponseEntity(sessionUUID, method, resp)

	if resp.Error == nil {
		if err := h.repo.InsertPaymentInitiationResponseEntity(context.WithoutCancel(ctx), entity); err != nil {
			h.logger.Error("failed to persist payment initiation response",
				"response_type", resp.Type,
				"error", err,
			)
		}
	}

	h.loop.Post(func() { h.classify(entity) })
}

func (h *PaymentHandler) classify(entity *domain.PaymentInitiationResponseEntity) {
	resp := entity.Response
	h.logger.Debug("classifying payment initiation response", "response_type", resp.Type, "handled", entity.Handled)

	switch resp.Type {
	case domain.ResponseTypeComplete:
		h.latest = entity
		h.result.SetValue(resp.Complete.Result())
	case domain.ResponseTypeRedirect:
		h.latest = entity
		if !entity.Handled {
			h.redirects.SetData(resp.Redirect)
		}
	case domain.ResponseTypeDetails, domain.ResponseTypeIdentifyShopper, domain.ResponseTypeChallengeShopper:
		h.latest = entity
		if !entity.Handled {
			h.details.SetData(resp.AdditionalDetails())
		}
	case domain.ResponseTypeError, domain.ResponseTypeValidation:
		h.dispatchError(domain.NewBackendError(resp.Error))
	default:
		h.dispatchError(unknownResponseTypeError(nil))
	}
}

func (h *PaymentHandler) pendingAdditionalDetails() domain.AdditionalDetails {
	if h.latest == nil {
		return nil
	}
	return h.latest.Response.AdditionalDetails()
}

// markLatestHandled runs on the loop right after a redirect or details step
// reached a handler.
func (h *PaymentHandler) markLatestHandled() {
	entity := h.latest
	if entity == nil || entity.Handled {
		return
	}
	entity.Handled = true
	if entity.ID == 0 {
		return
	}

	snapshot := entity.Copy()
	h.pool.Submit(func(ctx context.Context) {
		if err := h.repo.UpdatePaymentInitiationResponseEntity(context.WithoutCancel(ctx), snapshot); err != nil {
			h.logger.Error("failed to mark payment initiation response handled", "response_id", snapshot.ID, "error", err)
		}
	})
}

func (h *PaymentHandler) dispatchError(err *domain.CheckoutError) {
	h.logger.Warn("payment error",
		"code", err.Code,
		"kind", err.Kind,
		"fatal", err.Fatal,
		"message", err.Message,
	)
	h.errs.SetData(err)
}

func (h *PaymentHandler) postError(err *domain.CheckoutError) {
	h.loop.Post(func() { h.dispatchError(err) })
}

// postFailure converts a background failure and hands it to the error
// dispatch. Cancellation after Close is only logged.
func (h *PaymentHandler) postFailure(err error, fallbackMessage string) {
	category := application.CategorizeError(err)
	if category == application.CategoryCancelled {
		h.logger.Debug("payment request cancelled", "error", err)
		return
	}

	h.logger.Error("payment request failed", "category", category, "error", err)

	var checkoutErr *domain.CheckoutError
	if errors.Is(err, domain.ErrUnknownResponseType) {
		checkoutErr = unknownResponseTypeError(err)
	} else {
		checkoutErr = domain.AsCheckoutError(err, fallbackMessage)
	}
	h.postError(checkoutErr)
}

func unknownResponseTypeError(err error) *domain.CheckoutError {
	checkoutErr := domain.NewProtocolError(domain.ErrCodeUnknownResponseType, msgUnknownResponseType, err)
	checkoutErr.Fatal = true
	return checkoutErr
}
