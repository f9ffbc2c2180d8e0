package services

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/DanielPopoola/ficmart-checkout/internal/looper"
	"github.com/DanielPopoola/ficmart-checkout/internal/observable"
)

// MinIssuerSearchLength is the shortest search string sent to the backend.
const MinIssuerSearchLength = 4

const msgIssuerSearchFailed = "An error occurred while searching for issuers."

type issuerSearch struct {
	query   string
	cancel  context.CancelFunc
	issuers []domain.Issuer
	done    bool
	failed  bool
}

// IssuerSearchHandler looks up issuers of one payment method as the shopper
// types. Remote lookups run one at a time on a private worker; a lookup that
// is superseded is cancelled and its results are dropped. Shorter refinements
// are served by filtering the last results locally.
type IssuerSearchHandler struct {
	loop   *looper.Loop
	api    application.CheckoutAPI
	method domain.PaymentMethod
	logger *slog.Logger

	worker     *looper.Loop
	stopWorker context.CancelFunc
	ctx        context.Context
	cancel     context.CancelFunc

	networking *observable.NetworkingState
	results    *observable.Observable[[]domain.Issuer]
	errs       *observable.Observable[*domain.CheckoutError]

	// loop-owned
	searchString string
	current      *issuerSearch
	published    []domain.Issuer
	hasPublished bool
}

func NewIssuerSearchHandler(loop *looper.Loop, api application.CheckoutAPI, method domain.PaymentMethod, logger *slog.Logger) *IssuerSearchHandler {
	workerCtx, stopWorker := context.WithCancel(context.Background())
	ctx, cancel := context.WithCancel(context.Background())

	worker := looper.New()
	worker.Start(workerCtx)

	return &IssuerSearchHandler{
		loop:       loop,
		api:        api,
		method:     method,
		logger:     logger.With("payment_method", method.Type),
		worker:     worker,
		stopWorker: stopWorker,
		ctx:        ctx,
		cancel:     cancel,
		networking: observable.NewNetworkingState(loop),
		results:    observable.New[[]domain.Issuer](loop),
		errs:       observable.New[*domain.CheckoutError](loop),
	}
}

func (h *IssuerSearchHandler) NetworkingState() *observable.NetworkingState {
	return h.networking
}

func (h *IssuerSearchHandler) Results() *observable.Observable[[]domain.Issuer] {
	return h.results
}

func (h *IssuerSearchHandler) Errors() *observable.Observable[*domain.CheckoutError] {
	return h.errs
}

// SetSearchString updates the query. Must be called on the loop.
func (h *IssuerSearchHandler) SetSearchString(s string) {
	h.loop.AssertOnLoop("IssuerSearchHandler.SetSearchString")

	s = strings.TrimSpace(s)
	h.searchString = s

	if utf8.RuneCountInString(s) >= MinIssuerSearchLength && h.needsNewSearch(s) {
		h.startSearch(s)
		return
	}
	h.publishFiltered()
}

// Close cancels pending lookups. Queued lookups still run, see the
// cancellation, and keep the networking counter balanced; the worker stops
// after them.
func (h *IssuerSearchHandler) Close() {
	h.cancel()
	h.worker.Post(h.stopWorker)
}

func (h *IssuerSearchHandler) needsNewSearch(s string) bool {
	c := h.current
	if c == nil || c.failed {
		return true
	}

	prev := c.query
	switch {
	case len(s) < len(prev):
		return true
	case len(s) == len(prev):
		return !strings.EqualFold(s, prev)
	default:
		return !strings.HasPrefix(strings.ToLower(s), strings.ToLower(prev))
	}
}

func (h *IssuerSearchHandler) startSearch(query string) {
	if h.current != nil && !h.current.done {
		h.current.cancel()
	}

	ctx, cancel := context.WithCancel(h.ctx)
	search := &issuerSearch{query: query, cancel: cancel}
	h.current = search

	h.logger.Debug("searching issuers", "query", query)
	h.networking.RequestStarted()

	h.worker.Post(func() {
		issuers, err := h.api.SearchIssuers(ctx, h.method, query)
		h.loop.Post(func() {
			defer h.networking.RequestFinished()
			h.finishSearch(search, issuers, err)
		})
	})
}

func (h *IssuerSearchHandler) finishSearch(search *issuerSearch, issuers []domain.Issuer, err error) {
	search.done = true
	defer search.cancel()

	if h.current != search {
		return
	}

	if err != nil {
		search.failed = true
		if application.CategorizeError(err) == application.CategoryCancelled {
			return
		}
		h.logger.Warn("issuer search failed", "query", search.query, "category", application.CategorizeError(err), "error", err)
		h.errs.SetValue(domain.AsCheckoutError(err, msgIssuerSearchFailed))
		return
	}

	search.issuers = issuers
	h.publishFiltered()
}

func (h *IssuerSearchHandler) publishFiltered() {
	c := h.current
	if c == nil || !c.done || c.failed {
		return
	}

	filtered := domain.FilterIssuers(c.issuers, h.searchString)
	if h.hasPublished && slices.Equal(filtered, h.published) {
		return
	}
	h.published = filtered
	h.hasPublished = true
	h.results.SetValue(filtered)
}
