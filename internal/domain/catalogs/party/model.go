// Package party provides the counterparty catalog: customers, suppliers
// and both at once. Walk-in customers are not stored here; documents for
// walk-ins carry only a name.
package party

import (
	"context"
	"regexp"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
)

var phoneRE = regexp.MustCompile(`^[+\d][\d\s-]{4,19}$`)

// PartyType defines the type of counterparty.
type PartyType string

const (
	TypeCustomer PartyType = "customer"
	TypeSupplier PartyType = "supplier"
	TypeBoth     PartyType = "both"
)

// Party represents a registered business partner.
type Party struct {
	entity.Catalog

	// Type defines whether this is a customer, supplier, or both
	Type PartyType `db:"type" json:"type"`

	Phone   string `db:"phone" json:"phone,omitempty"`
	Address string `db:"address" json:"address,omitempty"`

	Comment string `db:"comment" json:"comment,omitempty"`
}

// New creates a party with required fields.
func New(code, name string, pType PartyType) *Party {
	return &Party{
		Catalog: entity.NewCatalog(code, name),
		Type:    pType,
	}
}

// Validate implements entity.Validatable.
func (p *Party) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !isValidPartyType(p.Type) {
		return apperror.NewValidation("invalid party type").
			WithDetail("field", "type").
			WithDetail("value", string(p.Type))
	}
	if p.Phone != "" && !phoneRE.MatchString(p.Phone) {
		return apperror.NewValidation("invalid phone format").
			WithDetail("field", "phone")
	}
	return nil
}

// IsCustomer returns true if the party can appear on sales documents.
func (p *Party) IsCustomer() bool {
	return p.Type == TypeCustomer || p.Type == TypeBoth
}

// IsSupplier returns true if the party can appear on purchase documents.
func (p *Party) IsSupplier() bool {
	return p.Type == TypeSupplier || p.Type == TypeBoth
}

func isValidPartyType(t PartyType) bool {
	switch t {
	case TypeCustomer, TypeSupplier, TypeBoth:
		return true
	}
	return false
}
