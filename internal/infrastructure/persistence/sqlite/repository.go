// Package sqlite is the device-local checkout store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

type PaymentRepository struct {
	db *sql.DB
}

var _ application.PaymentRepository = (*PaymentRepository)(nil)

// Open creates the database file (and its directory) when missing and
// applies the schema. A leading ~ expands to the home directory.
func Open(path string) (*PaymentRepository, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_fk=1&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &PaymentRepository{db: db}, nil
}

func (r *PaymentRepository) Close() error {
	return r.db.Close()
}

func (r *PaymentRepository) InsertPaymentSessionEntity(ctx context.Context, entity *domain.PaymentSessionEntity) error {
	m, err := persistence.ToSessionModel(entity)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO payment_sessions (uuid, payment_session, generation_time) VALUES (?, ?, ?)`,
		m.UUID, m.PaymentSession, m.GenerationTime.Unix(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return application.ErrPaymentSessionExists
		}
		return fmt.Errorf("failed to insert payment session: %w", err)
	}
	return nil
}

func (r *PaymentRepository) UpdatePaymentSessionEntity(ctx context.Context, entity *domain.PaymentSessionEntity) error {
	m, err := persistence.ToSessionModel(entity)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_sessions SET payment_session = ?, generation_time = ? WHERE uuid = ?`,
		m.PaymentSession, m.GenerationTime.Unix(), m.UUID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment session: %w", err)
	}
	return requireAffected(res, application.ErrPaymentSessionNotFound)
}

func (r *PaymentRepository) FindPaymentSessionEntityByUUID(ctx context.Context, id uuid.UUID) (*domain.PaymentSessionEntity, error) {
	var m persistence.SessionModel
	var generated int64

	err := r.db.QueryRowContext(ctx,
		`SELECT uuid, payment_session, generation_time FROM payment_sessions WHERE uuid = ?`,
		id.String(),
	).Scan(&m.UUID, &m.PaymentSession, &generated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, application.ErrPaymentSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan payment session: %w", err)
	}

	m.GenerationTime = time.Unix(generated, 0).UTC()
	return persistence.ToSessionEntity(m)
}

func (r *PaymentRepository) InsertPaymentInitiationResponseEntity(ctx context.Context, entity *domain.PaymentInitiationResponseEntity) error {
	m, err := persistence.ToResponseModel(entity)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_initiation_responses (
			payment_session_uuid, payment_method, response, handled, created_at
		) VALUES (?, ?, ?, ?, ?)`,
		m.PaymentSessionUUID, m.PaymentMethod, m.Response, m.Handled, m.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment initiation response: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read response id: %w", err)
	}
	entity.ID = id
	return nil
}

func (r *PaymentRepository) UpdatePaymentInitiationResponseEntity(ctx context.Context, entity *domain.PaymentInitiationResponseEntity) error {
	m, err := persistence.ToResponseModel(entity)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE payment_initiation_responses SET payment_method = ?, response = ?, handled = ? WHERE id = ?`,
		m.PaymentMethod, m.Response, m.Handled, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment initiation response: %w", err)
	}
	return requireAffected(res, application.ErrPaymentResponseNotFound)
}

func (r *PaymentRepository) FindLatestPaymentInitiationResponseEntity(ctx context.Context, sessionUUID uuid.UUID) (*domain.PaymentInitiationResponseEntity, error) {
	var m persistence.ResponseModel
	var created int64

	err := r.db.QueryRowContext(ctx, `
		SELECT id, payment_session_uuid, payment_method, response, handled, created_at
		FROM payment_initiation_responses
		WHERE payment_session_uuid = ?
		ORDER BY id DESC
		LIMIT 1`,
		sessionUUID.String(),
	).Scan(&m.ID, &m.PaymentSessionUUID, &m.PaymentMethod, &m.Response, &m.Handled, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan payment initiation response: %w", err)
	}

	m.CreatedAt = time.Unix(0, created).UTC()
	return persistence.ToResponseEntity(m)
}

func (r *PaymentRepository) DeletePaymentSessionsGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM payment_initiation_responses
		WHERE payment_session_uuid IN (
			SELECT uuid FROM payment_sessions WHERE generation_time < ?
		)`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired responses: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM payment_sessions WHERE generation_time < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return deleted, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
