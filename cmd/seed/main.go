// Package main provides a CLI tool that creates the database schema and
// seeds the chart of accounts with the system accounts the engine expects.
package main

import (
	"context"
	"fmt"
	"os"

	"aurum/internal/core/id"
	"aurum/internal/infrastructure/storage/postgres"
	"aurum/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := applySchema(ctx, pool, log); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	if err := seedChartOfAccounts(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed chart of accounts", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// schemaStatements holds the full DDL. Weights are BIGINT at milligram
// scale, money is NUMERIC(14,2). Every statement is idempotent.
var schemaStatements = []string{
	// Catalogs
	`CREATE TABLE IF NOT EXISTS accounts (
		id              UUID PRIMARY KEY,
		code            TEXT NOT NULL,
		name            TEXT NOT NULL,
		classification  TEXT NOT NULL,
		opening_balance NUMERIC(14,2) NOT NULL DEFAULT 0,
		current_balance NUMERIC(14,2) NOT NULL DEFAULT 0,
		is_system       BOOLEAN NOT NULL DEFAULT FALSE,
		description     TEXT NOT NULL DEFAULT '',
		deletion_mark   BOOLEAN NOT NULL DEFAULT FALSE,
		version         INTEGER NOT NULL DEFAULT 1,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by      TEXT NOT NULL DEFAULT '',
		updated_by      TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_accounts_code
		ON accounts (code) WHERE deletion_mark = FALSE`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_accounts_system_class
		ON accounts (classification) WHERE is_system = TRUE AND deletion_mark = FALSE`,

	`CREATE TABLE IF NOT EXISTS items (
		id             UUID PRIMARY KEY,
		code           TEXT NOT NULL,
		name           TEXT NOT NULL,
		category       TEXT NOT NULL DEFAULT '',
		default_purity INTEGER NOT NULL DEFAULT 0,
		description    TEXT NOT NULL DEFAULT '',
		deletion_mark  BOOLEAN NOT NULL DEFAULT FALSE,
		version        INTEGER NOT NULL DEFAULT 1,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by     TEXT NOT NULL DEFAULT '',
		updated_by     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_items_code
		ON items (code) WHERE deletion_mark = FALSE`,

	`CREATE TABLE IF NOT EXISTS parties (
		id            UUID PRIMARY KEY,
		code          TEXT NOT NULL,
		name          TEXT NOT NULL,
		type          TEXT NOT NULL,
		phone         TEXT NOT NULL DEFAULT '',
		address       TEXT NOT NULL DEFAULT '',
		comment       TEXT NOT NULL DEFAULT '',
		deletion_mark BOOLEAN NOT NULL DEFAULT FALSE,
		version       INTEGER NOT NULL DEFAULT 1,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by    TEXT NOT NULL DEFAULT '',
		updated_by    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_parties_code
		ON parties (code) WHERE deletion_mark = FALSE`,
	`CREATE INDEX IF NOT EXISTS ix_parties_phone
		ON parties (phone) WHERE deletion_mark = FALSE AND phone <> ''`,

	// Ledgers
	`CREATE TABLE IF NOT EXISTS stock_entries (
		id            UUID PRIMARY KEY,
		period        TIMESTAMPTZ NOT NULL,
		source_kind   TEXT NOT NULL,
		source_id     UUID NOT NULL,
		audit_ref     TEXT NOT NULL DEFAULT '',
		created_by    TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		deletion_mark BOOLEAN NOT NULL DEFAULT FALSE,
		delete_reason TEXT NOT NULL DEFAULT '',
		deleted_at    TIMESTAMPTZ,
		item_id       UUID NOT NULL,
		purity        INTEGER NOT NULL,
		direction     TEXT NOT NULL,
		weight        BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_stock_entries_scope
		ON stock_entries (item_id, purity, period)`,
	`CREATE INDEX IF NOT EXISTS ix_stock_entries_source
		ON stock_entries (source_kind, source_id)`,

	`CREATE TABLE IF NOT EXISTS stock_balances (
		item_id          UUID NOT NULL,
		purity           INTEGER NOT NULL,
		weight           BIGINT NOT NULL DEFAULT 0,
		last_movement_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (item_id, purity)
	)`,

	`CREATE TABLE IF NOT EXISTS money_entries (
		id            UUID PRIMARY KEY,
		period        TIMESTAMPTZ NOT NULL,
		source_kind   TEXT NOT NULL,
		source_id     UUID NOT NULL,
		audit_ref     TEXT NOT NULL DEFAULT '',
		created_by    TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		deletion_mark BOOLEAN NOT NULL DEFAULT FALSE,
		delete_reason TEXT NOT NULL DEFAULT '',
		deleted_at    TIMESTAMPTZ,
		account_id    UUID NOT NULL,
		party_id      UUID NOT NULL,
		direction     TEXT NOT NULL,
		amount        NUMERIC(14,2) NOT NULL,
		number        TEXT NOT NULL DEFAULT '',
		category      TEXT NOT NULL DEFAULT '',
		mode          TEXT NOT NULL DEFAULT '',
		notes         TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS ix_money_entries_scope
		ON money_entries (account_id, period)`,
	`CREATE INDEX IF NOT EXISTS ix_money_entries_source
		ON money_entries (source_kind, source_id)`,

	`CREATE TABLE IF NOT EXISTS gold_entries (
		id             UUID PRIMARY KEY,
		period         TIMESTAMPTZ NOT NULL,
		source_kind    TEXT NOT NULL,
		source_id      UUID NOT NULL,
		audit_ref      TEXT NOT NULL DEFAULT '',
		created_by     TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		deletion_mark  BOOLEAN NOT NULL DEFAULT FALSE,
		delete_reason  TEXT NOT NULL DEFAULT '',
		deleted_at     TIMESTAMPTZ,
		party_id       UUID NOT NULL,
		direction      TEXT NOT NULL,
		weight         BIGINT NOT NULL,
		purity_entered INTEGER NOT NULL DEFAULT 0,
		purpose        TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS ix_gold_entries_scope
		ON gold_entries (party_id, period)`,
	`CREATE INDEX IF NOT EXISTS ix_gold_entries_source
		ON gold_entries (source_kind, source_id)`,

	`CREATE TABLE IF NOT EXISTS gold_balances (
		party_id         UUID PRIMARY KEY,
		weight           BIGINT NOT NULL DEFAULT 0,
		last_movement_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	// Documents
	`CREATE TABLE IF NOT EXISTS doc_purchases (
		id                 UUID PRIMARY KEY,
		number             TEXT NOT NULL,
		date               TIMESTAMPTZ NOT NULL,
		status             TEXT NOT NULL,
		locked             BOOLEAN NOT NULL DEFAULT FALSE,
		finalized_at       TIMESTAMPTZ,
		finalized_by       TEXT NOT NULL DEFAULT '',
		payment_status     TEXT NOT NULL,
		comment            TEXT NOT NULL DEFAULT '',
		supplier_id        UUID NOT NULL,
		walk_in_name       TEXT NOT NULL DEFAULT '',
		total_weight       BIGINT NOT NULL DEFAULT 0,
		total_amount       NUMERIC(14,2) NOT NULL DEFAULT 0,
		paid_amount        NUMERIC(14,2) NOT NULL DEFAULT 0,
		payment_account_id UUID NOT NULL,
		payment_mode       TEXT NOT NULL DEFAULT '',
		payable_account_id UUID NOT NULL,
		gold_settlement_weight BIGINT,
		gold_settlement_purity INTEGER,
		gold_settlement_factor NUMERIC(6,3),
		gold_settlement_amount NUMERIC(14,2),
		deletion_mark      BOOLEAN NOT NULL DEFAULT FALSE,
		version            INTEGER NOT NULL DEFAULT 1,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by         TEXT NOT NULL DEFAULT '',
		updated_by         TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_doc_purchases_number
		ON doc_purchases (number) WHERE deletion_mark = FALSE`,
	`CREATE INDEX IF NOT EXISTS ix_doc_purchases_supplier
		ON doc_purchases (supplier_id, date)`,

	`CREATE TABLE IF NOT EXISTS doc_purchase_lines (
		line_id           UUID PRIMARY KEY,
		document_id       UUID NOT NULL REFERENCES doc_purchases (id) ON DELETE CASCADE,
		line_no           INTEGER NOT NULL,
		item_id           UUID NOT NULL,
		purity            INTEGER NOT NULL,
		weight            BIGINT NOT NULL,
		conversion_factor NUMERIC(6,3) NOT NULL,
		amount            NUMERIC(14,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_doc_purchase_lines_doc
		ON doc_purchase_lines (document_id)`,

	`CREATE TABLE IF NOT EXISTS doc_invoices (
		id                  UUID PRIMARY KEY,
		number              TEXT NOT NULL,
		date                TIMESTAMPTZ NOT NULL,
		status              TEXT NOT NULL,
		locked              BOOLEAN NOT NULL DEFAULT FALSE,
		finalized_at        TIMESTAMPTZ,
		finalized_by        TEXT NOT NULL DEFAULT '',
		payment_status      TEXT NOT NULL,
		comment             TEXT NOT NULL DEFAULT '',
		customer_id         UUID NOT NULL,
		walk_in_name        TEXT NOT NULL DEFAULT '',
		total_weight        BIGINT NOT NULL DEFAULT 0,
		total_amount        NUMERIC(14,2) NOT NULL DEFAULT 0,
		paid_amount         NUMERIC(14,2) NOT NULL DEFAULT 0,
		payment_account_id  UUID NOT NULL,
		payment_mode        TEXT NOT NULL DEFAULT '',
		gold_account_id     UUID NOT NULL,
		advance_gold_weight BIGINT,
		advance_gold_purity INTEGER,
		advance_gold_factor NUMERIC(6,3),
		advance_gold_amount NUMERIC(14,2),
		deletion_mark       BOOLEAN NOT NULL DEFAULT FALSE,
		version             INTEGER NOT NULL DEFAULT 1,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by          TEXT NOT NULL DEFAULT '',
		updated_by          TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_doc_invoices_number
		ON doc_invoices (number) WHERE deletion_mark = FALSE`,
	`CREATE INDEX IF NOT EXISTS ix_doc_invoices_customer
		ON doc_invoices (customer_id, date)`,

	`CREATE TABLE IF NOT EXISTS doc_invoice_lines (
		line_id           UUID PRIMARY KEY,
		document_id       UUID NOT NULL REFERENCES doc_invoices (id) ON DELETE CASCADE,
		line_no           INTEGER NOT NULL,
		item_id           UUID NOT NULL,
		purity            INTEGER NOT NULL,
		weight            BIGINT NOT NULL,
		conversion_factor NUMERIC(6,3) NOT NULL,
		amount            NUMERIC(14,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_doc_invoice_lines_doc
		ON doc_invoice_lines (document_id)`,

	`CREATE TABLE IF NOT EXISTS doc_returns (
		id                        UUID PRIMARY KEY,
		number                    TEXT NOT NULL,
		date                      TIMESTAMPTZ NOT NULL,
		status                    TEXT NOT NULL,
		locked                    BOOLEAN NOT NULL DEFAULT FALSE,
		finalized_at              TIMESTAMPTZ,
		finalized_by              TEXT NOT NULL DEFAULT '',
		payment_status            TEXT NOT NULL,
		comment                   TEXT NOT NULL DEFAULT '',
		kind                      TEXT NOT NULL,
		party_id                  UUID NOT NULL,
		walk_in_name              TEXT NOT NULL DEFAULT '',
		ref_id                    UUID NOT NULL,
		ref_number                TEXT NOT NULL DEFAULT '',
		refund_amount             NUMERIC(14,2) NOT NULL DEFAULT 0,
		account_id                UUID NOT NULL,
		refund_mode               TEXT NOT NULL DEFAULT '',
		reason                    TEXT NOT NULL DEFAULT '',
		inventory_action_required BOOLEAN NOT NULL DEFAULT FALSE,
		gold_refund_weight        BIGINT,
		gold_refund_purity        INTEGER,
		deletion_mark             BOOLEAN NOT NULL DEFAULT FALSE,
		version                   INTEGER NOT NULL DEFAULT 1,
		created_at                TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at                TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by                TEXT NOT NULL DEFAULT '',
		updated_by                TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_doc_returns_number
		ON doc_returns (number) WHERE deletion_mark = FALSE`,
	`CREATE INDEX IF NOT EXISTS ix_doc_returns_party
		ON doc_returns (party_id, date)`,

	`CREATE TABLE IF NOT EXISTS doc_return_lines (
		line_id     UUID PRIMARY KEY,
		document_id UUID NOT NULL REFERENCES doc_returns (id) ON DELETE CASCADE,
		line_no     INTEGER NOT NULL,
		item_id     UUID NOT NULL,
		purity      INTEGER NOT NULL,
		weight      BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_doc_return_lines_doc
		ON doc_return_lines (document_id)`,

	// System
	`CREATE TABLE IF NOT EXISTS sys_sequences (
		key         TEXT PRIMARY KEY,
		current_val BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS audit_log (
		id                 UUID PRIMARY KEY,
		entity_type        TEXT NOT NULL,
		entity_id          UUID NOT NULL,
		action             TEXT NOT NULL,
		user_id            TEXT NOT NULL DEFAULT '',
		payload            JSONB,
		payload_compressed BYTEA,
		compression_algo   TEXT NOT NULL DEFAULT 'none',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_audit_log_entity
		ON audit_log (entity_type, entity_id, created_at DESC)`,
}

func applySchema(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	log.Infow("schema applied", "statements", len(schemaStatements))
	return nil
}

type accountSeed struct {
	code           string
	name           string
	classification string
	system         bool
}

// seedChartOfAccounts inserts the default accounts. Gold received and
// payables are system accounts: invoice finalization debits advance gold
// value against the former, purchase finalization debits the amount owed
// against the latter. Neither can be deleted.
func seedChartOfAccounts(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	accounts := []accountSeed{
		{"ACC-CASH", "Cash Drawer", "cash", false},
		{"ACC-BANK", "Bank Account", "bank", false},
		{"ACC-INCOME", "Sales Income", "income", false},
		{"ACC-EXPENSE", "Operating Expenses", "expense", false},
		{"ACC-GOLD-RECV", "Gold Received", "gold_received", true},
		{"ACC-PAYABLE", "Supplier Payables", "payable", true},
	}

	for _, a := range accounts {
		accID := id.New()
		commandTag, err := pool.Pool.Exec(ctx, `
			INSERT INTO accounts (id, code, name, classification, is_system, version)
			VALUES ($1, $2, $3, $4, $5, 1)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, accID, a.code, a.name, a.classification, a.system)
		if err != nil {
			return fmt.Errorf("insert account %s: %w", a.code, err)
		}
		if commandTag.RowsAffected() == 0 {
			log.Infow("account already exists", "code", a.code)
			continue
		}
		log.Infow("account created", "code", a.code, "classification", a.classification)
	}

	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo data...")

	type itemSeed struct {
		code          string
		name          string
		category      string
		defaultPurity int
	}

	items := []itemSeed{
		{"ITM-CHAIN", "Gold Chain", "chain", 916},
		{"ITM-RING", "Gold Ring", "ring", 916},
		{"ITM-BANGLE", "Gold Bangle", "bangle", 916},
		{"ITM-COIN", "Gold Coin", "coin", 999},
	}

	for _, it := range items {
		itemID := id.New()
		commandTag, err := pool.Pool.Exec(ctx, `
			INSERT INTO items (id, code, name, category, default_purity, version)
			VALUES ($1, $2, $3, $4, $5, 1)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, itemID, it.code, it.name, it.category, it.defaultPurity)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", it.code, err)
		}
		if commandTag.RowsAffected() == 0 {
			log.Infow("item already exists", "code", it.code)
		}
	}

	type partySeed struct {
		code  string
		name  string
		pType string
		phone string
	}

	parties := []partySeed{
		{"PTY-SUP-001", "Lakshmi Bullion Traders", "supplier", "+91-98400-10001"},
		{"PTY-SUP-002", "Chennai Gold Supply Co", "supplier", "+91-98400-10002"},
		{"PTY-CUST-001", "Walk-In Counter", "customer", ""},
	}

	for _, p := range parties {
		partyID := id.New()
		commandTag, err := pool.Pool.Exec(ctx, `
			INSERT INTO parties (id, code, name, type, phone, version)
			VALUES ($1, $2, $3, $4, $5, 1)
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, partyID, p.code, p.name, p.pType, p.phone)
		if err != nil {
			return fmt.Errorf("insert party %s: %w", p.code, err)
		}
		if commandTag.RowsAffected() == 0 {
			log.Infow("party already exists", "code", p.code)
		}
	}

	log.Info("demo data seeded")
	return nil
}
