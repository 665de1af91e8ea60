// Package item provides the item catalog (gold articles tracked in stock).
package item

import (
	"context"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
)

// Item represents a stock-tracked article. Stock is held per item and
// declared purity, so the same article can exist at several purities.
type Item struct {
	entity.Catalog

	// Category groups items for reporting (ring, chain, bangle, raw, ...)
	Category string `db:"category" json:"category,omitempty"`

	// DefaultPurity pre-fills document lines; any purity may still be entered
	DefaultPurity int `db:"default_purity" json:"defaultPurity"`

	Description string `db:"description" json:"description,omitempty"`
}

// New creates an item with required fields.
func New(code, name string) *Item {
	return &Item{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable.
func (i *Item) Validate(ctx context.Context) error {
	if err := i.Catalog.Validate(ctx); err != nil {
		return err
	}
	if i.DefaultPurity < 0 || i.DefaultPurity > 999 {
		return apperror.NewValidation("default purity must be between 0 and 999").
			WithDetail("field", "defaultPurity").
			WithDetail("value", i.DefaultPurity)
	}
	return nil
}
