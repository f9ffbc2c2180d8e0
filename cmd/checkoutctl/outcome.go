package main

import (
	"context"
	"fmt"
	"io"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/application/services"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/DanielPopoola/ficmart-checkout/internal/lifecycle"
	"github.com/DanielPopoola/ficmart-checkout/internal/looper"
)

// outcome is the first thing a handler hands back after an action. Exactly
// one field is set.
type outcome struct {
	redirect *domain.RedirectFields
	details  domain.AdditionalDetails
	err      *domain.CheckoutError
	result   *domain.PaymentResult
	session  *domain.PaymentSession
}

type watcher struct {
	scope    *lifecycle.Scope
	outcomes chan outcome
	live     bool
}

// watch registers on the loop. Deliveries are dropped until w.live is set.
// Registration order decides which of several waiting values lands first.
func watch(loop *looper.Loop, h *services.PaymentHandler, live bool) *watcher {
	w := &watcher{
		scope:    lifecycle.NewScope(loop),
		outcomes: make(chan outcome, 1),
		live:     live,
	}
	w.scope.Activate()

	h.SetRedirectHandler(w.scope, application.RedirectHandlerFunc(func(fields *domain.RedirectFields) {
		w.deliver(outcome{redirect: fields})
	}))
	h.SetAdditionalDetailsHandler(w.scope, application.AdditionalDetailsHandlerFunc(func(details domain.AdditionalDetails) {
		w.deliver(outcome{details: details})
	}))
	h.SetErrorHandler(w.scope, application.ErrorHandlerFunc(func(err *domain.CheckoutError) {
		w.deliver(outcome{err: err})
	}))
	h.PaymentResult().Observe(w.scope, func(result domain.PaymentResult) {
		w.deliver(outcome{result: &result})
	})
	h.PaymentSession().Observe(w.scope, func(session *domain.PaymentSession) {
		w.deliver(outcome{session: session})
	})
	return w
}

func (w *watcher) deliver(o outcome) {
	if !w.live {
		return
	}
	select {
	case w.outcomes <- o:
	default:
	}
}

// awaitOutcome runs start on the loop and waits for what follows it. Steps
// restored from the store are consumed silently.
func awaitOutcome(ctx context.Context, loop *looper.Loop, h *services.PaymentHandler, start func() error) (outcome, error) {
	var (
		w        *watcher
		startErr error
	)
	err := loop.Do(ctx, func() {
		w = watch(loop, h, false)
		w.live = true
		startErr = start()
	})
	if err != nil {
		return outcome{}, err
	}
	defer loop.Post(w.scope.Destroy)

	if startErr != nil {
		return outcome{}, startErr
	}

	ctx, cancel := context.WithTimeout(ctx, outcomeTimeout)
	defer cancel()

	select {
	case o := <-w.outcomes:
		return o, nil
	case <-ctx.Done():
		return outcome{}, fmt.Errorf("no response from the backend: %w", ctx.Err())
	}
}

// pendingOutcome reports a restored step or result that is waiting for the
// host, if there is one.
func pendingOutcome(ctx context.Context, loop *looper.Loop, h *services.PaymentHandler) (outcome, bool, error) {
	var w *watcher
	err := loop.Do(ctx, func() {
		w = watch(loop, h, true)
	})
	if err != nil {
		return outcome{}, false, err
	}
	defer loop.Post(w.scope.Destroy)

	select {
	case o := <-w.outcomes:
		// The current session arrives last, so it means nothing else waits.
		if o.session != nil {
			return outcome{}, false, nil
		}
		return o, true, nil
	default:
		return outcome{}, false, nil
	}
}

// printOutcome writes o for the operator. A checkout error is returned so the
// command exits non-zero.
func printOutcome(out io.Writer, ref domain.PaymentReference, o outcome) error {
	switch {
	case o.result != nil:
		fmt.Fprintf(out, "Payment complete: %s\n", o.result.ResultCode)
		fmt.Fprintf(out, "Payload: %s\n", o.result.Payload)
	case o.redirect != nil:
		fmt.Fprintf(out, "Redirect the shopper to:\n  %s\n", o.redirect.URL)
		fmt.Fprintf(out, "Then run: checkoutctl redirect %s '<return url>'\n", ref)
	case o.details != nil:
		fmt.Fprintf(out, "Additional details required (%s, %s):\n", o.details.ResponseType(), o.details.DetailsPaymentMethod().Type)
		for _, detail := range o.details.RequiredDetails() {
			optional := ""
			if detail.Optional {
				optional = " (optional)"
			}
			fmt.Fprintf(out, "  %-28s %s%s\n", detail.Key, detail.Type, optional)
		}
		fmt.Fprintf(out, "Then run: checkoutctl details %s --detail key=value\n", ref)
	case o.session != nil:
		fmt.Fprintf(out, "Payment session updated: %d one-click payment method(s) left\n", len(o.session.OneClickPaymentMethods))
	case o.err != nil:
		if o.err.Fatal {
			return fmt.Errorf("%s [%s]; the payment session can no longer be used", o.err.Message, o.err.Code)
		}
		return fmt.Errorf("%s [%s]", o.err.Message, o.err.Code)
	}
	return nil
}
