package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PaymentRepository struct {
	db *persistence.DB
}

var _ application.PaymentRepository = (*PaymentRepository)(nil)

func NewPaymentRepository(db *persistence.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) InsertPaymentSessionEntity(ctx context.Context, entity *domain.PaymentSessionEntity) error {
	query := `
		INSERT INTO payment_sessions (uuid, payment_session, generation_time)
		VALUES ($1, $2, $3)
	`

	m, err := persistence.ToSessionModel(entity)
	if err != nil {
		return err
	}

	_, err = r.db.Pool.Exec(ctx, query, m.UUID, m.PaymentSession, m.GenerationTime)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return application.ErrPaymentSessionExists
		}
		return fmt.Errorf("failed to insert payment session: %w", err)
	}

	return nil
}

func (r *PaymentRepository) UpdatePaymentSessionEntity(ctx context.Context, entity *domain.PaymentSessionEntity) error {
	query := `
		UPDATE payment_sessions
		SET payment_session = $2, generation_time = $3
		WHERE uuid = $1
	`

	m, err := persistence.ToSessionModel(entity)
	if err != nil {
		return err
	}

	tag, err := r.db.Pool.Exec(ctx, query, m.UUID, m.PaymentSession, m.GenerationTime)
	if err != nil {
		return fmt.Errorf("failed to update payment session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return application.ErrPaymentSessionNotFound
	}

	return nil
}

func (r *PaymentRepository) FindPaymentSessionEntityByUUID(ctx context.Context, id uuid.UUID) (*domain.PaymentSessionEntity, error) {
	query := `
		SELECT uuid::text, payment_session, generation_time
		FROM payment_sessions WHERE uuid = $1
	`

	var m persistence.SessionModel
	err := r.db.Pool.QueryRow(ctx, query, id.String()).Scan(&m.UUID, &m.PaymentSession, &m.GenerationTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrPaymentSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan payment session: %w", err)
	}

	return persistence.ToSessionEntity(m)
}

func (r *PaymentRepository) InsertPaymentInitiationResponseEntity(ctx context.Context, entity *domain.PaymentInitiationResponseEntity) error {
	query := `
		INSERT INTO payment_initiation_responses (
			payment_session_uuid, payment_method, response, handled, created_at
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	m, err := persistence.ToResponseModel(entity)
	if err != nil {
		return err
	}

	var id int64
	err = r.db.Pool.QueryRow(ctx, query,
		m.PaymentSessionUUID,
		m.PaymentMethod,
		m.Response,
		m.Handled,
		m.CreatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert payment initiation response: %w", err)
	}

	entity.ID = id
	return nil
}

func (r *PaymentRepository) UpdatePaymentInitiationResponseEntity(ctx context.Context, entity *domain.PaymentInitiationResponseEntity) error {
	query := `
		UPDATE payment_initiation_responses
		SET payment_method = $2, response = $3, handled = $4
		WHERE id = $1
	`

	m, err := persistence.ToResponseModel(entity)
	if err != nil {
		return err
	}

	tag, err := r.db.Pool.Exec(ctx, query, m.ID, m.PaymentMethod, m.Response, m.Handled)
	if err != nil {
		return fmt.Errorf("failed to update payment initiation response: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return application.ErrPaymentResponseNotFound
	}

	return nil
}

func (r *PaymentRepository) FindLatestPaymentInitiationResponseEntity(ctx context.Context, sessionUUID uuid.UUID) (*domain.PaymentInitiationResponseEntity, error) {
	query := `
		SELECT id, payment_session_uuid::text, payment_method, response, handled, created_at
		FROM payment_initiation_responses
		WHERE payment_session_uuid = $1
		ORDER BY id DESC
		LIMIT 1
	`

	var m persistence.ResponseModel
	err := r.db.Pool.QueryRow(ctx, query, sessionUUID.String()).Scan(
		&m.ID, &m.PaymentSessionUUID, &m.PaymentMethod, &m.Response, &m.Handled, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan payment initiation response: %w", err)
	}

	return persistence.ToResponseEntity(m)
}

func (r *PaymentRepository) DeletePaymentSessionsGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx persistence.Executor) error {
		_, err := tx.Exec(ctx, `
			DELETE FROM payment_initiation_responses
			WHERE payment_session_uuid IN (
				SELECT uuid FROM payment_sessions WHERE generation_time < $1
			)
		`, cutoff.UTC())
		if err != nil {
			return fmt.Errorf("failed to delete expired responses: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM payment_sessions WHERE generation_time < $1`, cutoff.UTC())
		if err != nil {
			return fmt.Errorf("failed to delete expired sessions: %w", err)
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}
