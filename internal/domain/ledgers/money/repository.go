// Package money provides the money transaction ledger.
package money

import (
	"context"
	"time"

	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
)

// Repository defines operations for the money ledger.
// Entries are append-only: no update or hard-delete operation exists.
type Repository interface {
	// Entry operations

	// CreateEntries batch inserts entries (used during finalization)
	CreateEntries(ctx context.Context, entries []entity.MoneyEntry) error

	// GetEntry retrieves a single entry by id
	GetEntry(ctx context.Context, entryID id.ID) (entity.MoneyEntry, error)

	// GetEntriesBySource retrieves all entries produced by a document
	GetEntriesBySource(ctx context.Context, sourceKind entity.SourceKind, sourceID id.ID) ([]entity.MoneyEntry, error)

	// MarkEntryDeleted sets the soft-delete flag; the row is preserved
	MarkEntryDeleted(ctx context.Context, entryID id.ID, reason string, deletedAt time.Time) error

	// ListEntries returns transaction history matching the filter
	ListEntries(ctx context.Context, filter EntryFilter) ([]entity.MoneyEntry, error)

	// Balance operations

	// ApplyAccountDelta adjusts the cached account balance (write-through,
	// same tx as the entry insert). Credit is positive, debit negative,
	// uniformly across account classifications.
	ApplyAccountDelta(ctx context.Context, accountID id.ID, delta types.Money) error

	// ComputeBalanceAsOf recomputes an account balance from its opening
	// balance plus non-deleted entries with period <= cutoff.
	// Never reads the cache.
	ComputeBalanceAsOf(ctx context.Context, accountID id.ID, cutoff time.Time) (types.Money, error)

	// ComputeAllBalances recomputes every account total from entries
	// (reconciliation input), keyed by account id
	ComputeAllBalances(ctx context.Context, cutoff time.Time) (map[id.ID]types.Money, error)
}

// EntryFilter for transaction history queries.
type EntryFilter struct {
	AccountID      *id.ID
	PartyID        *id.ID
	SourceKind     *entity.SourceKind
	Direction      *entity.MoneyDirection
	Category       *string
	FromDate       *time.Time
	ToDate         *time.Time
	IncludeDeleted bool
	Limit          int
	Offset         int
}
