// Package gold provides the raw-gold movement ledger.
package gold

import (
	"context"
	"time"

	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
)

// Repository defines operations for the gold ledger.
// Entries are append-only: no update or hard-delete operation exists.
type Repository interface {
	// Entry operations

	// CreateEntries batch inserts entries (used during finalization)
	CreateEntries(ctx context.Context, entries []entity.GoldEntry) error

	// GetEntry retrieves a single entry by id
	GetEntry(ctx context.Context, entryID id.ID) (entity.GoldEntry, error)

	// GetEntriesBySource retrieves all entries produced by a document
	GetEntriesBySource(ctx context.Context, sourceKind entity.SourceKind, sourceID id.ID) ([]entity.GoldEntry, error)

	// MarkEntryDeleted sets the soft-delete flag; the row is preserved
	MarkEntryDeleted(ctx context.Context, entryID id.ID, reason string, deletedAt time.Time) error

	// ListEntries returns entry history matching the filter
	ListEntries(ctx context.Context, filter EntryFilter) ([]entity.GoldEntry, error)

	// Balance operations

	// GetBalance returns the cached gold balance for a party
	GetBalance(ctx context.Context, partyID id.ID) (entity.GoldBalance, error)

	// ApplyBalanceDelta adjusts the cached party balance (write-through,
	// same tx as the entry insert). Balances may go negative; they are
	// stored as-is.
	ApplyBalanceDelta(ctx context.Context, partyID id.ID, delta types.Weight, movementAt time.Time) error

	// ComputeBalanceAsOf recomputes the party balance from non-deleted
	// entries with period <= cutoff. Never reads the cache.
	ComputeBalanceAsOf(ctx context.Context, partyID id.ID, cutoff time.Time) (types.Weight, error)

	// ComputeAllBalances recomputes every party total from entries
	// (reconciliation input)
	ComputeAllBalances(ctx context.Context, cutoff time.Time) ([]entity.GoldBalance, error)
}

// EntryFilter for entry history queries.
type EntryFilter struct {
	PartyID        *id.ID
	SourceKind     *entity.SourceKind
	Direction      *entity.Direction
	Purpose        *string
	FromDate       *time.Time
	ToDate         *time.Time
	IncludeDeleted bool
	Limit          int
	Offset         int
}
