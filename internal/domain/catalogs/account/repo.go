package account

import (
	"context"

	"aurum/internal/core/id"
	"aurum/internal/domain"
)

// Repository defines the interface for Account persistence.
type Repository interface {
	domain.CatalogRepository[*Account]

	// GetForUpdate retrieves account with row lock (for transactional updates).
	GetForUpdate(ctx context.Context, id id.ID) (*Account, error)

	// GetByClassification returns the first non-deleted account with the
	// given classification (used to resolve system accounts).
	GetByClassification(ctx context.Context, class Classification) (*Account, error)
}
