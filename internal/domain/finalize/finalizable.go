package finalize

import (
	"context"
	"time"

	"aurum/internal/core/entity"
	"aurum/internal/core/id"
)

// Finalizable is implemented by documents that can be finalized.
// entity.Document provides most of the implementation; each document type
// adds DocumentKind and BuildEntries.
type Finalizable interface {
	// GetID returns the document ID
	GetID() id.ID

	// DocumentKind returns the source kind stamped on produced entries
	DocumentKind() entity.SourceKind

	// IsFinalized reports whether the document has already been finalized
	IsFinalized() bool

	// CanFinalize checks business rules (validation beyond entity invariants).
	// Returns nil if the document may be finalized.
	CanFinalize(ctx context.Context) error

	// BuildEntries derives the ledger entries this document produces.
	// Pure computation, no writes.
	BuildEntries(ctx context.Context) (*EntrySet, error)

	// MarkFinalized flips the document to finalized. One-way.
	MarkFinalized(by string, at time.Time)
}

// LockFunc re-reads the current document state under a row lock.
// The returned state is the idempotency guard input: finalization proceeds
// only if the locked state is still a draft.
type LockFunc func(ctx context.Context) (Finalizable, error)

// SaveFunc persists the finalized document (status, lock flag, timestamps).
type SaveFunc func(ctx context.Context) error
