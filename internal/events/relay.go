package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/DanielPopoola/ficmart-checkout/internal/lifecycle"
	"github.com/DanielPopoola/ficmart-checkout/internal/observable"
)

const publishTimeout = 10 * time.Second

// PaymentResultEvent is the message value published for a completed payment.
type PaymentResultEvent struct {
	Reference  string            `json:"reference"`
	ResultCode domain.ResultCode `json:"resultCode"`
	Payload    string            `json:"payload"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// ResultSource is satisfied by services.PaymentHandler.
type ResultSource interface {
	Reference() domain.PaymentReference
	PaymentResult() *observable.Observable[domain.PaymentResult]
}

// ResultRelay publishes every payment result of the handlers it watches,
// keyed by payment reference. Publishing happens off the loop.
type ResultRelay struct {
	publisher Publisher
	logger    *slog.Logger
	wg        sync.WaitGroup
}

func NewResultRelay(publisher Publisher, logger *slog.Logger) *ResultRelay {
	return &ResultRelay{publisher: publisher, logger: logger}
}

// Watch must be called on the loop that owns source. A result that is
// already present was published when it was first set.
func (r *ResultRelay) Watch(source ResultSource) lifecycle.Subscription {
	ref := source.Reference().String()
	results := source.PaymentResult()
	seen := results.Version()

	return results.ObserveForever(func(result domain.PaymentResult) {
		if results.Version() == seen {
			return
		}

		event := PaymentResultEvent{
			Reference:  ref,
			ResultCode: result.ResultCode,
			Payload:    result.Payload,
			OccurredAt: time.Now().UTC(),
		}

		r.wg.Add(1)
		go func() {
			defer r.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()

			if err := r.publisher.Publish(ctx, ref, event); err != nil {
				r.logger.Error("failed to publish payment result", "reference", ref, "error", err)
				return
			}
			r.logger.Info("payment result published", "reference", ref, "result_code", result.ResultCode)
		}()
	})
}

// Wait blocks until every started publish has returned.
func (r *ResultRelay) Wait() {
	r.wg.Wait()
}
