// Package main is the entry point for the aurum API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aurum/internal/core/tx"
	"aurum/internal/core/valuation"
	"aurum/internal/domain/audit"
	"aurum/internal/domain/catalogs/account"
	"aurum/internal/domain/catalogs/item"
	"aurum/internal/domain/catalogs/party"
	"aurum/internal/domain/documents/invoice"
	"aurum/internal/domain/documents/purchase"
	"aurum/internal/domain/documents/returns"
	"aurum/internal/domain/finalize"
	"aurum/internal/domain/ledgers/gold"
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/domain/ledgers/stock"
	"aurum/internal/domain/reconcile"
	v1 "aurum/internal/infrastructure/http/v1"
	infranumerator "aurum/internal/infrastructure/numerator"
	"aurum/internal/infrastructure/storage/memory"
	"aurum/internal/infrastructure/storage/postgres"
	"aurum/internal/infrastructure/storage/postgres/catalog_repo"
	"aurum/internal/infrastructure/storage/postgres/document_repo"
	"aurum/internal/infrastructure/storage/postgres/ledger_repo"
	"aurum/pkg/logger"

	corenumerator "aurum/internal/core/numerator"
)

// repos bundles every repository implementation behind the domain
// interfaces, so wiring is identical for Postgres and memory storage.
type repos struct {
	txm tx.Manager
	gen corenumerator.Generator

	stock stock.Repository
	money money.Repository
	gold  gold.Repository

	accounts account.Repository
	items    item.Repository
	parties  party.Repository

	purchases purchase.Repository
	invoices  invoice.Repository
	returns   returns.Repository

	audit audit.Repository
}

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting aurum server")

	var (
		pool *postgres.Pool
		r    repos
	)

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pool, err = postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pool.Close()
		log.Info("database connection established")

		r, err = postgresRepos(pool)
		if err != nil {
			log.Fatalw("failed to initialize repositories", "error", err)
		}
	} else {
		log.Warn("DATABASE_URL not set, running on in-memory storage")
		r = memoryRepos()
	}

	// --- Domain services ---
	auditSvc := audit.NewService(r.audit)

	stockSvc := stock.NewService(r.stock, r.txm)
	moneySvc := money.NewService(r.money, r.txm, r.gen)
	goldSvc := gold.NewService(r.gold, r.txm)

	engine := finalize.NewEngine(r.txm, stockSvc, moneySvc, goldSvc, auditSvc)

	table, err := buildValuationTable()
	if err != nil {
		log.Fatalw("invalid conversion factors", "error", err)
	}

	accountSvc := account.NewService(r.accounts, r.txm, r.gen)
	itemSvc := item.NewService(r.items, r.txm, r.gen)
	partySvc := party.NewService(r.parties, r.txm, r.gen)

	purchaseSvc := purchase.NewService(r.purchases, engine, moneySvc, accountSvc, r.gen, r.txm, table)
	invoiceSvc := invoice.NewService(r.invoices, engine, moneySvc, accountSvc, r.gen, r.txm, table)
	returnSvc := returns.NewService(r.returns, engine, r.gen, r.txm)

	reconcileSvc := reconcile.NewService(r.stock, r.money, r.gold, r.accounts)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:   pool,
		Logger: log,

		Accounts: accountSvc,
		Items:    itemSvc,
		Parties:  partySvc,

		Purchases: purchaseSvc,
		Invoices:  invoiceSvc,
		Returns:   returnSvc,

		StockLedger: stockSvc,
		MoneyLedger: moneySvc,
		GoldLedger:  goldSvc,

		Reconcile: reconcileSvc,
		Audit:     auditSvc,
	})

	// --- HTTP server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// postgresRepos wires the Postgres-backed repositories.
func postgresRepos(pool *postgres.Pool) (repos, error) {
	txm := postgres.NewTxManager(pool)

	auditRepo, err := postgres.NewAuditRepo(txm)
	if err != nil {
		return repos{}, err
	}

	return repos{
		txm: txm,
		gen: infranumerator.New(pool),

		stock: ledger_repo.NewStockRepo(txm),
		money: ledger_repo.NewMoneyRepo(txm),
		gold:  ledger_repo.NewGoldRepo(txm),

		accounts: catalog_repo.NewAccountRepo(txm),
		items:    catalog_repo.NewItemRepo(txm),
		parties:  catalog_repo.NewPartyRepo(txm),

		purchases: document_repo.NewPurchaseRepo(txm),
		invoices:  document_repo.NewInvoiceRepo(txm),
		returns:   document_repo.NewReturnRepo(txm),

		audit: auditRepo,
	}, nil
}

// memoryRepos wires the in-memory store. Used for local development and
// demos; state is lost on restart.
func memoryRepos() repos {
	store := memory.NewStore()

	return repos{
		txm: store,
		gen: memory.NewSequences(),

		stock: store.StockLedger(),
		money: store.MoneyLedger(),
		gold:  store.GoldLedger(),

		accounts: store.Accounts(),
		items:    store.Items(),
		parties:  store.Parties(),

		purchases: store.Purchases(),
		invoices:  store.Invoices(),
		returns:   store.Returns(),

		audit: store.AuditLog(),
	}
}

// buildValuationTable reads the conversion factor set from the
// environment, falling back to the configured defaults.
func buildValuationTable() (*valuation.Table, error) {
	if factors := os.Getenv("CONVERSION_FACTORS"); factors != "" {
		return valuation.NewTable(strings.Split(factors, ",")...)
	}
	return valuation.NewTable()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
