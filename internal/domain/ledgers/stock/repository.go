// Package stock provides the stock movement ledger.
package stock

import (
	"context"
	"time"

	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
)

// Repository defines operations for the stock ledger.
// Entries are append-only: no update or hard-delete operation exists.
type Repository interface {
	// Entry operations

	// CreateEntries batch inserts entries (used during finalization)
	CreateEntries(ctx context.Context, entries []entity.StockEntry) error

	// GetEntry retrieves a single entry by id
	GetEntry(ctx context.Context, entryID id.ID) (entity.StockEntry, error)

	// GetEntriesBySource retrieves all entries produced by a document
	GetEntriesBySource(ctx context.Context, sourceKind entity.SourceKind, sourceID id.ID) ([]entity.StockEntry, error)

	// MarkEntryDeleted sets the soft-delete flag; the row is preserved
	MarkEntryDeleted(ctx context.Context, entryID id.ID, reason string, deletedAt time.Time) error

	// ListEntries returns entry history matching the filter
	ListEntries(ctx context.Context, filter EntryFilter) ([]entity.StockEntry, error)

	// Balance operations

	// GetBalance returns the cached balance for item+purity
	GetBalance(ctx context.Context, itemID id.ID, purity int) (entity.StockBalance, error)

	// GetBalanceForUpdate returns the cached balance with a row lock
	// for availability checks during finalization
	GetBalanceForUpdate(ctx context.Context, itemID id.ID, purity int) (entity.StockBalance, error)

	// ApplyBalanceDelta adjusts the cached balance (write-through, same tx
	// as the entry insert)
	ApplyBalanceDelta(ctx context.Context, itemID id.ID, purity int, delta types.Weight, movementAt time.Time) error

	// GetBalances returns cached balances matching the filter
	GetBalances(ctx context.Context, filter BalanceFilter) ([]entity.StockBalance, error)

	// ComputeBalanceAsOf recomputes the balance from non-deleted entries
	// with period <= cutoff. Never reads the cache.
	ComputeBalanceAsOf(ctx context.Context, itemID id.ID, purity int, cutoff time.Time) (types.Weight, error)

	// ComputeAllBalances recomputes every item+purity total from entries
	// (reconciliation input)
	ComputeAllBalances(ctx context.Context, cutoff time.Time) ([]entity.StockBalance, error)
}

// EntryFilter for entry history queries.
type EntryFilter struct {
	ItemID         *id.ID
	Purity         *int
	SourceKind     *entity.SourceKind
	Direction      *entity.Direction
	FromDate       *time.Time
	ToDate         *time.Time
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// BalanceFilter for cached balance queries.
type BalanceFilter struct {
	ItemIDs     []id.ID
	ExcludeZero bool
}
