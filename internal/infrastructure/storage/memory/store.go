// Package memory provides an in-memory implementation of every repository
// plus tx.Manager. It backs the finalization and service tests and lets the
// server run without PostgreSQL for demos.
//
// Concurrency model: one global mutex held for the whole transaction. A
// snapshot of the maps is taken at transaction start and restored when fn
// fails, mirroring the all-or-nothing behavior of the SQL transaction.
package memory

import (
	"context"
	"sync"

	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/tx"
	"aurum/internal/domain/audit"
	"aurum/internal/domain/catalogs/account"
	"aurum/internal/domain/catalogs/item"
	"aurum/internal/domain/catalogs/party"
	"aurum/internal/domain/documents/invoice"
	"aurum/internal/domain/documents/purchase"
	"aurum/internal/domain/documents/returns"
)

type stockKey struct {
	ItemID id.ID
	Purity int
}

// Store holds all state. Values in the maps are treated as immutable:
// every read returns a clone and every write stores a clone, so the
// transaction snapshot only needs to copy the maps themselves.
type Store struct {
	mu sync.Mutex

	stockEntries  map[id.ID]entity.StockEntry
	stockBalances map[stockKey]entity.StockBalance
	moneyEntries  map[id.ID]entity.MoneyEntry
	goldEntries   map[id.ID]entity.GoldEntry
	goldBalances  map[id.ID]entity.GoldBalance

	accounts map[id.ID]*account.Account
	items    map[id.ID]*item.Item
	parties  map[id.ID]*party.Party

	purchases     map[id.ID]*purchase.Purchase
	purchaseLines map[id.ID][]purchase.Line
	invoices      map[id.ID]*invoice.Invoice
	invoiceLines  map[id.ID][]invoice.Line
	returnDocs    map[id.ID]*returns.Return
	returnLines   map[id.ID][]returns.Line

	auditRecords []audit.Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		stockEntries:  make(map[id.ID]entity.StockEntry),
		stockBalances: make(map[stockKey]entity.StockBalance),
		moneyEntries:  make(map[id.ID]entity.MoneyEntry),
		goldEntries:   make(map[id.ID]entity.GoldEntry),
		goldBalances:  make(map[id.ID]entity.GoldBalance),
		accounts:      make(map[id.ID]*account.Account),
		items:         make(map[id.ID]*item.Item),
		parties:       make(map[id.ID]*party.Party),
		purchases:     make(map[id.ID]*purchase.Purchase),
		purchaseLines: make(map[id.ID][]purchase.Line),
		invoices:      make(map[id.ID]*invoice.Invoice),
		invoiceLines:  make(map[id.ID][]invoice.Line),
		returnDocs:    make(map[id.ID]*returns.Return),
		returnLines:   make(map[id.ID][]returns.Line),
	}
}

type txKey struct{}

var _ tx.Manager = (*Store)(nil)

// RunInTransaction executes fn under the global lock. On error the
// pre-transaction state is restored.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	err := fn(context.WithValue(ctx, txKey{}, struct{}{}))
	if err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// acquire locks the store unless the context is already inside a
// transaction (where the lock is held for the duration).
func (s *Store) acquire(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type storeSnapshot struct {
	stockEntries  map[id.ID]entity.StockEntry
	stockBalances map[stockKey]entity.StockBalance
	moneyEntries  map[id.ID]entity.MoneyEntry
	goldEntries   map[id.ID]entity.GoldEntry
	goldBalances  map[id.ID]entity.GoldBalance

	accounts map[id.ID]*account.Account
	items    map[id.ID]*item.Item
	parties  map[id.ID]*party.Party

	purchases     map[id.ID]*purchase.Purchase
	purchaseLines map[id.ID][]purchase.Line
	invoices      map[id.ID]*invoice.Invoice
	invoiceLines  map[id.ID][]invoice.Line
	returnDocs    map[id.ID]*returns.Return
	returnLines   map[id.ID][]returns.Line

	auditRecords []audit.Record
}

func (s *Store) snapshot() storeSnapshot {
	return storeSnapshot{
		stockEntries:  copyMap(s.stockEntries),
		stockBalances: copyMap(s.stockBalances),
		moneyEntries:  copyMap(s.moneyEntries),
		goldEntries:   copyMap(s.goldEntries),
		goldBalances:  copyMap(s.goldBalances),
		accounts:      copyMap(s.accounts),
		items:         copyMap(s.items),
		parties:       copyMap(s.parties),
		purchases:     copyMap(s.purchases),
		purchaseLines: copyMap(s.purchaseLines),
		invoices:      copyMap(s.invoices),
		invoiceLines:  copyMap(s.invoiceLines),
		returnDocs:    copyMap(s.returnDocs),
		returnLines:   copyMap(s.returnLines),
		auditRecords:  s.auditRecords,
	}
}

func (s *Store) restore(snap storeSnapshot) {
	s.stockEntries = snap.stockEntries
	s.stockBalances = snap.stockBalances
	s.moneyEntries = snap.moneyEntries
	s.goldEntries = snap.goldEntries
	s.goldBalances = snap.goldBalances
	s.accounts = snap.accounts
	s.items = snap.items
	s.parties = snap.parties
	s.purchases = snap.purchases
	s.purchaseLines = snap.purchaseLines
	s.invoices = snap.invoices
	s.invoiceLines = snap.invoiceLines
	s.returnDocs = snap.returnDocs
	s.returnLines = snap.returnLines
	s.auditRecords = snap.auditRecords
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
