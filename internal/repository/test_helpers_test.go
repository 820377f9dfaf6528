package repository

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

// setupTestDB connects to the Postgres instance named by DATABASE_URL and
// resets the schema. Tests are skipped entirely when no database is
// configured so unit runs stay hermetic.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		t.Skip("DATABASE_URL not set; skipping database tests")
	}
	db, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}
	t.Cleanup(db.Close)

	ensureSchema(t, db)

	for _, table := range []string{"wallet_ledger", "wallets", "orders", "wallet_load_requests", "reviewer_grants"} {
		stmt := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)
		if _, err := db.Exec(context.Background(), stmt); err != nil {
			t.Fatalf("Failed to truncate %s: %v", table, err)
		}
	}

	return db
}

func ensureSchema(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	subjectTable := `(
		id UUID PRIMARY KEY,
		idempotency_key TEXT UNIQUE,
		user_id UUID NOT NULL,
		order_type TEXT NOT NULL,
		game_code TEXT NOT NULL DEFAULT '',
		conversation_id TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL DEFAULT '',
		requested_amount_micros BIGINT NOT NULL,
		final_amount_micros BIGINT NOT NULL,
		max_cashout_micros BIGINT NOT NULL DEFAULT 0,
		amount_adjusted BOOLEAN NOT NULL DEFAULT FALSE,
		adjusted_by TEXT,
		adjusted_at TIMESTAMPTZ,
		status TEXT NOT NULL,
		approved_by_type TEXT,
		approved_by_id TEXT,
		approved_at TIMESTAMPTZ,
		rejection_reason TEXT,
		executed_at TIMESTAMPTZ,
		execution_attempts INT NOT NULL DEFAULT 0,
		execution_result BYTEA,
		execution_error TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

	statements := []string{
		"CREATE TABLE IF NOT EXISTS orders " + subjectTable,
		"CREATE TABLE IF NOT EXISTS wallet_load_requests " + subjectTable,
		`CREATE TABLE IF NOT EXISTS wallets (
			user_id UUID PRIMARY KEY,
			cash_micros BIGINT NOT NULL DEFAULT 0,
			play_credit_micros BIGINT NOT NULL DEFAULT 0,
			bonus_micros BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS wallet_ledger (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			order_id UUID NOT NULL,
			component TEXT NOT NULL,
			delta_micros BIGINT NOT NULL,
			resulting_balance_micros BIGINT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS reviewer_grants (
			reviewer_id TEXT PRIMARY KEY,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			can_approve_orders BOOLEAN NOT NULL DEFAULT FALSE,
			can_approve_wallet_loads BOOLEAN NOT NULL DEFAULT FALSE,
			can_approve_withdrawals BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(context.Background(), stmt); err != nil {
			t.Fatalf("Failed to ensure schema: %v", err)
		}
	}
}
