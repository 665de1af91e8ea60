// Package returns provides the Return document repository.
package returns

import (
	"context"
	"time"

	"aurum/internal/core/id"
	"aurum/internal/domain"
)

// Repository defines operations for return documents.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, doc *Return) error
	GetByID(ctx context.Context, docID id.ID) (*Return, error)
	GetByNumber(ctx context.Context, number string) (*Return, error)
	Update(ctx context.Context, doc *Return) error
	Delete(ctx context.Context, docID id.ID) error

	// Line operations
	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Return], error)

	// Locking
	GetForUpdate(ctx context.Context, docID id.ID) (*Return, error)
}

// ListFilter for filtering returns.
type ListFilter struct {
	domain.ListFilter

	// Document-specific filters
	Kind                    *Kind
	PartyID                 *id.ID
	Finalized               *bool
	InventoryActionRequired *bool
	DateFrom                *time.Time
	DateTo                  *time.Time
}
