package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/google/uuid"
)

// CheckoutAPI is the port for the payment backend.
type CheckoutAPI interface {
	InitiatePayment(ctx context.Context, session *domain.PaymentSession, req *domain.PaymentInitiation) (*domain.PaymentInitiationResponse, error)
	DeletePaymentMethod(ctx context.Context, session *domain.PaymentSession, method domain.PaymentMethod) (*PaymentMethodDeletionResponse, error)
	SearchIssuers(ctx context.Context, method domain.PaymentMethod, searchString string) ([]domain.Issuer, error)
}

type DeletionResultCode string

const (
	DeletionSuccess DeletionResultCode = "Success"
	DeletionFailure DeletionResultCode = "Failure"
)

type PaymentMethodDeletionRequest struct {
	PaymentData       string `json:"paymentData"`
	PaymentMethodData string `json:"paymentMethodData"`
}

type PaymentMethodDeletionResponse struct {
	ResultCode DeletionResultCode `json:"resultCode"`
}

func (r *PaymentMethodDeletionResponse) Succeeded() bool {
	return r != nil && strings.EqualFold(string(r.ResultCode), string(DeletionSuccess))
}

type IssuerSearchRequest struct {
	PaymentMethodData string `json:"paymentMethodData"`
	SearchString      string `json:"searchString"`
}

type IssuerSearchResponse struct {
	Issuers []domain.Issuer `json:"giroPayIssuers"`
}

var (
	ErrPaymentSessionNotFound  = errors.New("payment session not found")
	ErrPaymentSessionExists    = errors.New("payment session already exists")
	ErrPaymentResponseNotFound = errors.New("payment initiation response not found")
)

// PaymentRepository is the port for persistence.
type PaymentRepository interface {
	// InsertPaymentSessionEntity returns ErrPaymentSessionExists on a UUID clash.
	InsertPaymentSessionEntity(ctx context.Context, entity *domain.PaymentSessionEntity) error
	UpdatePaymentSessionEntity(ctx context.Context, entity *domain.PaymentSessionEntity) error
	// FindPaymentSessionEntityByUUID returns ErrPaymentSessionNotFound when absent.
	FindPaymentSessionEntityByUUID(ctx context.Context, id uuid.UUID) (*domain.PaymentSessionEntity, error)

	// InsertPaymentInitiationResponseEntity assigns entity.ID.
	InsertPaymentInitiationResponseEntity(ctx context.Context, entity *domain.PaymentInitiationResponseEntity) error
	// UpdatePaymentInitiationResponseEntity returns ErrPaymentResponseNotFound
	// for an unknown ID.
	UpdatePaymentInitiationResponseEntity(ctx context.Context, entity *domain.PaymentInitiationResponseEntity) error
	// FindLatestPaymentInitiationResponseEntity returns nil, nil when the
	// session has no stored response.
	FindLatestPaymentInitiationResponseEntity(ctx context.Context, sessionUUID uuid.UUID) (*domain.PaymentInitiationResponseEntity, error)

	// DeletePaymentSessionsGeneratedBefore removes sessions and their
	// responses, returning how many sessions were removed.
	DeletePaymentSessionsGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
