package repository

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zamapay/wallet/internal/config"
	"github.com/zamapay/wallet/internal/db"
)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	logger := cfg.Logger.NewLogger()

	database, err := db.Connect(context.Background(), &cfg.Database, logger)
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	runMigrations(t, database)

	return database
}

func runMigrations(t *testing.T, database *db.DB) {
	t.Helper()

	migrationPath := filepath.Join("..", "..", "internal", "db", "migrations", "000001_init.up.sql")
	sqlBytes, err := os.ReadFile(migrationPath) // #nosec G304
	if err != nil {
		t.Fatalf("failed to read migration file: %v", err)
	}

	if _, err := database.ExecContext(context.Background(), string(sqlBytes)); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
}

func cleanupTestDB(t *testing.T, database *db.DB) {
	t.Helper()
	if err := database.Close(); err != nil {
		log.Printf("failed to close test database: %v", err)
	}
}

// seedAccount inserts an account with the given balance and returns its ID.
func seedAccount(t *testing.T, database *db.DB, phone string, balance decimal.Decimal) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := database.ExecContext(context.Background(), `
		INSERT INTO accounts (id, phone_number, pin_hash, balance)
		VALUES ($1, $2, '$2a$04$unused', $3)
	`, id, phone, balance)
	if err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	t.Cleanup(func() {
		//nolint:errcheck
		database.ExecContext(context.Background(), `DELETE FROM transactions WHERE account_id = $1`, id)
		//nolint:errcheck
		database.ExecContext(context.Background(), `DELETE FROM accounts WHERE id = $1`, id)
	})

	return id
}
