// Package account provides the chart-of-accounts catalog.
// Accounts hold money balances: cash drawers, bank accounts, customer and
// supplier settlement accounts, income/expense buckets.
package account

import (
	"context"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/types"
)

// Classification labels what an account represents. It is metadata for
// reporting only: the balance delta rule (credit adds, debit subtracts)
// is identical for every classification.
type Classification string

const (
	ClassCash         Classification = "cash"
	ClassBank         Classification = "bank"
	ClassCustomer     Classification = "customer"
	ClassSupplier     Classification = "supplier"
	ClassIncome       Classification = "income"
	ClassExpense      Classification = "expense"
	ClassGoldReceived Classification = "gold_received"
	ClassPayable      Classification = "payable"
	ClassOther        Classification = "other"
)

// Account represents a money account in the chart of accounts.
type Account struct {
	entity.Catalog

	// Classification is reporting metadata, never a sign rule
	Classification Classification `db:"classification" json:"classification"`

	// OpeningBalance is the starting balance before any ledger entry
	OpeningBalance types.Money `db:"opening_balance" json:"openingBalance"`

	// CurrentBalance is the cached balance maintained write-through by
	// the money ledger. Source of truth stays in the entries.
	CurrentBalance types.Money `db:"current_balance" json:"currentBalance"`

	// System accounts (e.g. gold received) are seeded and cannot be deleted
	System bool `db:"is_system" json:"isSystem"`

	Description string `db:"description" json:"description,omitempty"`
}

// New creates an account with required fields.
func New(code, name string, class Classification) *Account {
	return &Account{
		Catalog:        entity.NewCatalog(code, name),
		Classification: class,
		OpeningBalance: types.ZeroMoney(),
		CurrentBalance: types.ZeroMoney(),
	}
}

// Validate implements entity.Validatable.
func (a *Account) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}
	if !isValidClassification(a.Classification) {
		return apperror.NewValidation("invalid account classification").
			WithDetail("field", "classification").
			WithDetail("value", string(a.Classification))
	}
	return nil
}

func isValidClassification(c Classification) bool {
	switch c {
	case ClassCash, ClassBank, ClassCustomer, ClassSupplier,
		ClassIncome, ClassExpense, ClassGoldReceived, ClassPayable, ClassOther:
		return true
	}
	return false
}
