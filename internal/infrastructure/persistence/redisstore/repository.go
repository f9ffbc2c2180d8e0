// Package redisstore keeps checkout state in Redis for hosts that run several
// processes against one store.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix          = "checkout:"
	sessionsByGenKey   = keyPrefix + "sessions:by_generation"
	responseSequenceID = keyPrefix + "responses:seq"
)

func sessionKey(id string) string          { return keyPrefix + "session:" + id }
func sessionResponsesKey(id string) string { return keyPrefix + "session:" + id + ":responses" }
func responseKey(id int64) string          { return keyPrefix + "response:" + strconv.FormatInt(id, 10) }

type PaymentRepository struct {
	client *redis.Client
}

var _ application.PaymentRepository = (*PaymentRepository)(nil)

// Open connects to redisURL and verifies the connection.
func Open(ctx context.Context, redisURL string) (*PaymentRepository, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &PaymentRepository{client: client}, nil
}

func NewPaymentRepository(client *redis.Client) *PaymentRepository {
	return &PaymentRepository{client: client}
}

func (r *PaymentRepository) Close() error {
	return r.client.Close()
}

func (r *PaymentRepository) InsertPaymentSessionEntity(ctx context.Context, entity *domain.PaymentSessionEntity) error {
	m, err := persistence.ToSessionModel(entity)
	if err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	created, err := r.client.SetNX(ctx, sessionKey(m.UUID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to insert payment session: %w", err)
	}
	if !created {
		return application.ErrPaymentSessionExists
	}

	return r.indexSession(ctx, m)
}

func (r *PaymentRepository) UpdatePaymentSessionEntity(ctx context.Context, entity *domain.PaymentSessionEntity) error {
	m, err := persistence.ToSessionModel(entity)
	if err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	updated, err := r.client.SetXX(ctx, sessionKey(m.UUID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update payment session: %w", err)
	}
	if !updated {
		return application.ErrPaymentSessionNotFound
	}

	return r.indexSession(ctx, m)
}

func (r *PaymentRepository) indexSession(ctx context.Context, m persistence.SessionModel) error {
	err := r.client.ZAdd(ctx, sessionsByGenKey, redis.Z{
		Score:  float64(m.GenerationTime.Unix()),
		Member: m.UUID,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to index payment session: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindPaymentSessionEntityByUUID(ctx context.Context, id uuid.UUID) (*domain.PaymentSessionEntity, error) {
	data, err := r.client.Get(ctx, sessionKey(id.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, application.ErrPaymentSessionNotFound
		}
		return nil, fmt.Errorf("failed to load payment session: %w", err)
	}

	var m persistence.SessionModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode payment session: %w", err)
	}
	return persistence.ToSessionEntity(m)
}

func (r *PaymentRepository) InsertPaymentInitiationResponseEntity(ctx context.Context, entity *domain.PaymentInitiationResponseEntity) error {
	id, err := r.client.Incr(ctx, responseSequenceID).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate response id: %w", err)
	}

	m, err := persistence.ToResponseModel(entity)
	if err != nil {
		return err
	}
	m.ID = id
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, responseKey(id), data, 0)
		pipe.RPush(ctx, sessionResponsesKey(m.PaymentSessionUUID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert payment initiation response: %w", err)
	}

	entity.ID = id
	return nil
}

func (r *PaymentRepository) UpdatePaymentInitiationResponseEntity(ctx context.Context, entity *domain.PaymentInitiationResponseEntity) error {
	m, err := persistence.ToResponseModel(entity)
	if err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	updated, err := r.client.SetXX(ctx, responseKey(m.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to update payment initiation response: %w", err)
	}
	if !updated {
		return application.ErrPaymentResponseNotFound
	}
	return nil
}

func (r *PaymentRepository) FindLatestPaymentInitiationResponseEntity(ctx context.Context, sessionUUID uuid.UUID) (*domain.PaymentInitiationResponseEntity, error) {
	latest, err := r.client.LIndex(ctx, sessionResponsesKey(sessionUUID.String()), -1).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest response id: %w", err)
	}

	data, err := r.client.Get(ctx, responseKey(latest)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load payment initiation response: %w", err)
	}

	var m persistence.ResponseModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode payment initiation response: %w", err)
	}
	return persistence.ToResponseEntity(m)
}

func (r *PaymentRepository) DeletePaymentSessionsGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	expired, err := r.client.ZRangeByScore(ctx, sessionsByGenKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list expired sessions: %w", err)
	}

	var deleted int64
	for _, id := range expired {
		responseIDs, err := r.client.LRange(ctx, sessionResponsesKey(id), 0, -1).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to list responses of session %s: %w", id, err)
		}

		keys := make([]string, 0, len(responseIDs)+2)
		for _, responseID := range responseIDs {
			keys = append(keys, keyPrefix+"response:"+responseID)
		}
		keys = append(keys, sessionResponsesKey(id), sessionKey(id))

		var removed *redis.IntCmd
		_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			removed = pipe.ZRem(ctx, sessionsByGenKey, id)
			return nil
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete session %s: %w", id, err)
		}
		deleted += removed.Val()
	}

	return deleted, nil
}
