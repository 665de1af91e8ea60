package party

import (
	"context"

	"aurum/internal/core/id"
	"aurum/internal/domain"
)

// Repository defines the interface for Party persistence.
type Repository interface {
	domain.CatalogRepository[*Party]

	// FindByPhone retrieves a party by phone number
	FindByPhone(ctx context.Context, phone string) (*Party, error)

	// GetForUpdate retrieves a party with row lock (for transactional updates).
	GetForUpdate(ctx context.Context, id id.ID) (*Party, error)
}
