package finalize

import (
	"context"
	"fmt"

	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/domain/ledgers/gold"
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/domain/ledgers/stock"
)

// Guard answers whether a document already left a trace in the ledgers.
// The document lock flag is the canonical finalization check; the guard
// is the secondary one, asked against the entries themselves, and catches
// a document whose flag was lost or tampered with out of band.
type Guard struct {
	stock *stock.Service
	money *money.Service
	gold  *gold.Service
}

// NewGuard creates a guard over the three ledgers.
func NewGuard(stockSvc *stock.Service, moneySvc *money.Service, goldSvc *gold.Service) *Guard {
	return &Guard{
		stock: stockSvc,
		money: moneySvc,
		gold:  goldSvc,
	}
}

// EntriesExist reports whether any ledger holds an entry produced by the
// document. Must run inside the same transaction as the write it guards.
func (g *Guard) EntriesExist(ctx context.Context, kind entity.SourceKind, docID id.ID) (bool, error) {
	stockEntries, err := g.stock.EntriesBySource(ctx, kind, docID)
	if err != nil {
		return false, fmt.Errorf("stock entries by source: %w", err)
	}
	if len(stockEntries) > 0 {
		return true, nil
	}

	moneyEntries, err := g.money.EntriesBySource(ctx, kind, docID)
	if err != nil {
		return false, fmt.Errorf("money entries by source: %w", err)
	}
	if len(moneyEntries) > 0 {
		return true, nil
	}

	goldEntries, err := g.gold.EntriesBySource(ctx, kind, docID)
	if err != nil {
		return false, fmt.Errorf("gold entries by source: %w", err)
	}
	return len(goldEntries) > 0, nil
}
