package testhelpers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	schema "github.com/DanielPopoola/ficmart-checkout/db"
	"github.com/DanielPopoola/ficmart-checkout/internal/config"
	"github.com/DanielPopoola/ficmart-checkout/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDatabase is a migrated Postgres checkout store running in a container.
type TestDatabase struct {
	DB     *persistence.DB
	Config *config.DatabaseConfig

	endpoint endpoint
}

func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	ep := startContainer(t, "postgres:16-alpine", "5432",
		map[string]string{
			"POSTGRES_USER":     "checkout",
			"POSTGRES_PASSWORD": "checkout",
			"POSTGRES_DB":       "checkout",
		},
		// Postgres logs readiness once for the init run and once for the real server.
		wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(startupTimeout),
	)

	cfg := &config.DatabaseConfig{
		Host:            ep.host,
		Port:            ep.port,
		User:            "checkout",
		Password:        "checkout",
		Name:            "checkout",
		SSLMode:         "disable",
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 5 * time.Minute,
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := persistence.Connect(ctx, cfg, logger)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, schema.InitUp))

	return &TestDatabase{DB: db, Config: cfg, endpoint: ep}
}

func (td *TestDatabase) Cleanup(t *testing.T) {
	td.DB.Close()
	td.endpoint.terminate(t)
}

// CleanTables empties both checkout tables and resets the response id sequence.
func (td *TestDatabase) CleanTables(t *testing.T) {
	_, err := td.DB.Pool.Exec(context.Background(),
		"TRUNCATE TABLE payment_initiation_responses, payment_sessions RESTART IDENTITY CASCADE")
	require.NoError(t, err)
}
