package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentSessionEntity is the persisted form of a session, keyed by the UUID
// a PaymentReference wraps.
type PaymentSessionEntity struct {
	UUID           uuid.UUID
	PaymentSession *PaymentSession
	GenerationTime time.Time
}

func NewPaymentSessionEntity(session *PaymentSession) *PaymentSessionEntity {
	return &PaymentSessionEntity{
		UUID:           uuid.New(),
		PaymentSession: session,
		GenerationTime: session.GenerationTime,
	}
}

// PaymentInitiationResponseEntity records one non-error response. Handled
// becomes true once its redirect or details step reached a handler.
type PaymentInitiationResponseEntity struct {
	ID                 int64
	PaymentSessionUUID uuid.UUID
	PaymentMethod      PaymentMethod
	Response           *PaymentInitiationResponse
	Handled            bool
	CreatedAt          time.Time
}

func NewPaymentInitiationResponseEntity(sessionUUID uuid.UUID, method PaymentMethod, resp *PaymentInitiationResponse) *PaymentInitiationResponseEntity {
	return &PaymentInitiationResponseEntity{
		PaymentSessionUUID: sessionUUID,
		PaymentMethod:      method,
		Response:           resp,
		CreatedAt:          time.Now().UTC(),
	}
}

// Copy returns a shallow copy that can be handed to a background writer.
func (e *PaymentInitiationResponseEntity) Copy() *PaymentInitiationResponseEntity {
	c := *e
	return &c
}
