// Package memory is a process-local store, used for tests and ephemeral
// hosts.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/google/uuid"
)

type PaymentRepository struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]domain.PaymentSessionEntity
	responses map[uuid.UUID][]*domain.PaymentInitiationResponseEntity
	byID      map[int64]*domain.PaymentInitiationResponseEntity
	nextID    int64
}

var _ application.PaymentRepository = (*PaymentRepository)(nil)

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		sessions:  make(map[uuid.UUID]domain.PaymentSessionEntity),
		responses: make(map[uuid.UUID][]*domain.PaymentInitiationResponseEntity),
		byID:      make(map[int64]*domain.PaymentInitiationResponseEntity),
	}
}

func (r *PaymentRepository) InsertPaymentSessionEntity(_ context.Context, entity *domain.PaymentSessionEntity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[entity.UUID]; ok {
		return application.ErrPaymentSessionExists
	}
	r.sessions[entity.UUID] = *entity
	return nil
}

func (r *PaymentRepository) UpdatePaymentSessionEntity(_ context.Context, entity *domain.PaymentSessionEntity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[entity.UUID]; !ok {
		return application.ErrPaymentSessionNotFound
	}
	r.sessions[entity.UUID] = *entity
	return nil
}

func (r *PaymentRepository) FindPaymentSessionEntityByUUID(_ context.Context, id uuid.UUID) (*domain.PaymentSessionEntity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entity, ok := r.sessions[id]
	if !ok {
		return nil, application.ErrPaymentSessionNotFound
	}
	return &entity, nil
}

func (r *PaymentRepository) InsertPaymentInitiationResponseEntity(_ context.Context, entity *domain.PaymentInitiationResponseEntity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	entity.ID = r.nextID

	stored := entity.Copy()
	r.byID[stored.ID] = stored
	r.responses[stored.PaymentSessionUUID] = append(r.responses[stored.PaymentSessionUUID], stored)
	return nil
}

func (r *PaymentRepository) UpdatePaymentInitiationResponseEntity(_ context.Context, entity *domain.PaymentInitiationResponseEntity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[entity.ID]
	if !ok {
		return application.ErrPaymentResponseNotFound
	}
	*stored = *entity
	return nil
}

func (r *PaymentRepository) FindLatestPaymentInitiationResponseEntity(_ context.Context, sessionUUID uuid.UUID) (*domain.PaymentInitiationResponseEntity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.responses[sessionUUID]
	if len(list) == 0 {
		return nil, nil
	}
	return list[len(list)-1].Copy(), nil
}

func (r *PaymentRepository) DeletePaymentSessionsGeneratedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, entity := range r.sessions {
		if !entity.GenerationTime.Before(cutoff) {
			continue
		}
		for _, resp := range r.responses[id] {
			delete(r.byID, resp.ID)
		}
		delete(r.responses, id)
		delete(r.sessions, id)
		deleted++
	}
	return deleted, nil
}
