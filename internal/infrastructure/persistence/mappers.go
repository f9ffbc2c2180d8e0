package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/google/uuid"
)

// SessionModel - storage representation. PaymentSession holds the Base64
// form produced by domain.EncodePaymentSession.
type SessionModel struct {
	UUID           string    `json:"uuid"`
	PaymentSession string    `json:"payment_session"`
	GenerationTime time.Time `json:"generation_time"`
}

// ResponseModel - storage representation. PaymentMethod and Response hold
// the JSON exchanged with the backend.
type ResponseModel struct {
	ID                 int64     `json:"id"`
	PaymentSessionUUID string    `json:"payment_session_uuid"`
	PaymentMethod      string    `json:"payment_method"`
	Response           string    `json:"response"`
	Handled            bool      `json:"handled"`
	CreatedAt          time.Time `json:"created_at"`
}

// ToSessionModel - Domain → Storage
func ToSessionModel(e *domain.PaymentSessionEntity) (SessionModel, error) {
	encoded, err := domain.EncodePaymentSession(e.PaymentSession)
	if err != nil {
		return SessionModel{}, fmt.Errorf("encode payment session %s: %w", e.UUID, err)
	}
	return SessionModel{
		UUID:           e.UUID.String(),
		PaymentSession: encoded,
		GenerationTime: e.GenerationTime.UTC(),
	}, nil
}

// ToSessionEntity - Storage → Domain
func ToSessionEntity(m SessionModel) (*domain.PaymentSessionEntity, error) {
	id, err := uuid.Parse(m.UUID)
	if err != nil {
		return nil, fmt.Errorf("invalid session uuid %q: %w", m.UUID, err)
	}
	session, err := domain.DecodePaymentSession(m.PaymentSession)
	if err != nil {
		return nil, fmt.Errorf("decode payment session %s: %w", m.UUID, err)
	}
	return &domain.PaymentSessionEntity{
		UUID:           id,
		PaymentSession: session,
		GenerationTime: m.GenerationTime.UTC(),
	}, nil
}

// ToResponseModel - Domain → Storage
func ToResponseModel(e *domain.PaymentInitiationResponseEntity) (ResponseModel, error) {
	method, err := json.Marshal(e.PaymentMethod)
	if err != nil {
		return ResponseModel{}, fmt.Errorf("encode payment method: %w", err)
	}
	resp, err := json.Marshal(e.Response)
	if err != nil {
		return ResponseModel{}, fmt.Errorf("encode payment initiation response: %w", err)
	}
	return ResponseModel{
		ID:                 e.ID,
		PaymentSessionUUID: e.PaymentSessionUUID.String(),
		PaymentMethod:      string(method),
		Response:           string(resp),
		Handled:            e.Handled,
		CreatedAt:          e.CreatedAt.UTC(),
	}, nil
}

// ToResponseEntity - Storage → Domain
func ToResponseEntity(m ResponseModel) (*domain.PaymentInitiationResponseEntity, error) {
	sessionUUID, err := uuid.Parse(m.PaymentSessionUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid session uuid %q: %w", m.PaymentSessionUUID, err)
	}

	var method domain.PaymentMethod
	if err := json.Unmarshal([]byte(m.PaymentMethod), &method); err != nil {
		return nil, fmt.Errorf("decode payment method of response %d: %w", m.ID, err)
	}

	resp, err := domain.ParsePaymentInitiationResponse([]byte(m.Response))
	if err != nil {
		return nil, fmt.Errorf("decode response %d: %w", m.ID, err)
	}

	return &domain.PaymentInitiationResponseEntity{
		ID:                 m.ID,
		PaymentSessionUUID: sessionUUID,
		PaymentMethod:      method,
		Response:           resp,
		Handled:            m.Handled,
		CreatedAt:          m.CreatedAt.UTC(),
	}, nil
}
