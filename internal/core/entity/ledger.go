package entity

import (
	"context"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
)

// Direction defines movement direction for the stock and gold ledgers.
type Direction string

const (
	// DirectionIn increases balance
	DirectionIn Direction = "in"
	// DirectionOut decreases balance
	DirectionOut Direction = "out"
	// DirectionAdjustment carries a signed correction and requires an audit reference
	DirectionAdjustment Direction = "adjustment"
)

// MoneyDirection defines the sign of a money-transaction entry.
// Credit always increases the account balance, debit always decreases it,
// regardless of the account classification.
type MoneyDirection string

const (
	MoneyCredit MoneyDirection = "credit"
	MoneyDebit  MoneyDirection = "debit"
)

// SourceKind identifies which document or process produced a ledger entry.
type SourceKind string

const (
	SourcePurchase         SourceKind = "purchase"
	SourceInvoice          SourceKind = "invoice"
	SourceReturn           SourceKind = "return"
	SourcePayment          SourceKind = "payment"
	SourceManualAdjustment SourceKind = "manual_adjustment"
	SourceOpening          SourceKind = "opening"
)

// LedgerKind names the three independent append-only logs.
type LedgerKind string

const (
	LedgerStock LedgerKind = "stock"
	LedgerMoney LedgerKind = "money"
	LedgerGold  LedgerKind = "gold"
)

// EntryBase contains the common shape of all ledger entries.
// Entries are immutable: they are never updated or hard-deleted. A correction
// is a new opposite-signed entry with an audit reference; a soft-deleted entry
// is excluded from future aggregation but kept for the audit trail.
type EntryBase struct {
	// ID is unique and never reused (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Period is the business timestamp used by as-of aggregation
	Period time.Time `db:"period" json:"period"`

	// SourceKind/SourceID reference the document or process that produced
	// the entry; together they carry the idempotency tag
	SourceKind SourceKind `db:"source_kind" json:"sourceKind"`
	SourceID   id.ID      `db:"source_id" json:"sourceId"`

	// AuditRef is the mandatory justification for manual adjustments
	AuditRef string `db:"audit_ref" json:"auditRef,omitempty"`

	// CreatedBy is the acting-user identity
	CreatedBy string `db:"created_by" json:"createdBy"`

	// CreatedAt is when the entry was recorded
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// Soft-delete flag: excluded from aggregation, preserved for audit
	DeletionMark bool       `db:"deletion_mark" json:"deletionMark"`
	DeleteReason string     `db:"delete_reason" json:"deleteReason,omitempty"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// NewEntryBase creates an entry base with generated ID.
func NewEntryBase(period time.Time, sourceKind SourceKind, sourceID id.ID, createdBy string) EntryBase {
	return EntryBase{
		ID:         id.New(),
		Period:     period,
		SourceKind: sourceKind,
		SourceID:   sourceID,
		CreatedBy:  createdBy,
		CreatedAt:  time.Now().UTC(),
	}
}

// MarkDeleted flags the entry as excluded from future aggregation.
// The row itself is never removed and the id is never reused.
func (e *EntryBase) MarkDeleted(reason string) {
	now := time.Now().UTC()
	e.DeletionMark = true
	e.DeleteReason = reason
	e.DeletedAt = &now
}

func (e *EntryBase) validate() error {
	if e.Period.IsZero() {
		return apperror.NewValidation("period is required").WithDetail("field", "period")
	}
	if e.SourceKind == "" {
		return apperror.NewValidation("source kind is required").WithDetail("field", "sourceKind")
	}
	if id.IsNil(e.SourceID) {
		return apperror.NewValidation("source id is required").WithDetail("field", "sourceId")
	}
	return nil
}

// --- Stock ledger ---

// StockEntry is a movement in the stock ledger.
// Scope: item + declared purity (the purity is a dimension, not a valuation input).
type StockEntry struct {
	EntryBase

	// Dimensions
	ItemID id.ID `db:"item_id" json:"itemId"`
	Purity int   `db:"purity" json:"purity"`

	// Resource
	Direction Direction    `db:"direction" json:"direction"`
	Weight    types.Weight `db:"weight" json:"weight"`
}

// NewStockEntry creates a stock movement entry.
func NewStockEntry(base EntryBase, itemID id.ID, purity int, direction Direction, weight types.Weight) StockEntry {
	return StockEntry{
		EntryBase: base,
		ItemID:    itemID,
		Purity:    purity,
		Direction: direction,
		Weight:    weight,
	}
}

// Validate implements Validatable.
func (e *StockEntry) Validate(ctx context.Context) error {
	if err := e.EntryBase.validate(); err != nil {
		return err
	}
	if id.IsNil(e.ItemID) {
		return apperror.NewValidation("item is required").WithDetail("field", "itemId")
	}
	return validateMovement(e.Direction, e.Weight, e.SourceKind, e.AuditRef)
}

// SignedWeight returns the entry's contribution to the aggregate:
// in = +weight, out = -weight, adjustment = weight as recorded (signed).
func (e *StockEntry) SignedWeight() types.Weight {
	if e.Direction == DirectionOut {
		return e.Weight.Neg()
	}
	return e.Weight
}

// --- Money ledger ---

// MoneyEntry is a monetary transaction in the money ledger.
// Scope: account. The delta rule is uniform across account classifications.
type MoneyEntry struct {
	EntryBase

	// Dimension
	AccountID id.ID `db:"account_id" json:"accountId"`

	// Informational counterparty reference (may be nil for walk-ins)
	PartyID id.ID `db:"party_id" json:"partyId,omitempty"`

	// Resource
	Direction MoneyDirection `db:"direction" json:"direction"`
	Amount    types.Money    `db:"amount" json:"amount"`

	// Number is the transaction number (TXN-...)
	Number string `db:"number" json:"number"`

	// Category classifies the business event (sale, purchase, sales_return, ...)
	Category string `db:"category" json:"category,omitempty"`

	// Mode is the payment mode (cash, bank, other)
	Mode string `db:"mode" json:"mode,omitempty"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// NewMoneyEntry creates a money transaction entry.
func NewMoneyEntry(base EntryBase, accountID id.ID, direction MoneyDirection, amount types.Money) MoneyEntry {
	return MoneyEntry{
		EntryBase: base,
		AccountID: accountID,
		Direction: direction,
		Amount:    amount,
	}
}

// Validate implements Validatable.
func (e *MoneyEntry) Validate(ctx context.Context) error {
	if err := e.EntryBase.validate(); err != nil {
		return err
	}
	if id.IsNil(e.AccountID) {
		return apperror.NewValidation("account is required").WithDetail("field", "accountId")
	}
	if e.Direction != MoneyCredit && e.Direction != MoneyDebit {
		return apperror.NewValidation("direction must be credit or debit").
			WithDetail("field", "direction").WithDetail("value", string(e.Direction))
	}
	if !e.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount").WithDetail("value", e.Amount.String())
	}
	if e.SourceKind == SourceManualAdjustment && e.AuditRef == "" {
		return apperror.NewValidation("audit reference is required for manual adjustments").
			WithDetail("field", "auditRef")
	}
	return nil
}

// SignedAmount returns +amount for credit, -amount for debit.
func (e *MoneyEntry) SignedAmount() types.Money {
	if e.Direction == MoneyDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// --- Gold ledger ---

// GoldEntry is a movement of the raw-gold balance held with a counterparty.
// Independent of both money and stock.
type GoldEntry struct {
	EntryBase

	// Dimension
	PartyID id.ID `db:"party_id" json:"partyId"`

	// Resource
	Direction Direction    `db:"direction" json:"direction"`
	Weight    types.Weight `db:"weight" json:"weight"`

	// PurityEntered is stored for record keeping only; it never enters
	// the valuation formula.
	PurityEntered int `db:"purity_entered" json:"purityEntered"`

	// Purpose classifies the movement (advance, sales_return, settlement, ...)
	Purpose string `db:"purpose" json:"purpose,omitempty"`
}

// NewGoldEntry creates a gold ledger entry.
func NewGoldEntry(base EntryBase, partyID id.ID, direction Direction, weight types.Weight) GoldEntry {
	return GoldEntry{
		EntryBase: base,
		PartyID:   partyID,
		Direction: direction,
		Weight:    weight,
	}
}

// Validate implements Validatable.
func (e *GoldEntry) Validate(ctx context.Context) error {
	if err := e.EntryBase.validate(); err != nil {
		return err
	}
	if id.IsNil(e.PartyID) {
		return apperror.NewValidation("party is required").WithDetail("field", "partyId")
	}
	return validateMovement(e.Direction, e.Weight, e.SourceKind, e.AuditRef)
}

// SignedWeight returns the entry's contribution to the party balance.
func (e *GoldEntry) SignedWeight() types.Weight {
	if e.Direction == DirectionOut {
		return e.Weight.Neg()
	}
	return e.Weight
}

// validateMovement checks the shared direction/magnitude rules for stock and
// gold entries: in/out must be strictly positive, adjustments are signed but
// non-zero and need an audit reference when created manually.
func validateMovement(direction Direction, weight types.Weight, source SourceKind, auditRef string) error {
	switch direction {
	case DirectionIn, DirectionOut:
		if !weight.IsPositive() {
			return apperror.NewValidation("weight must be positive").
				WithDetail("field", "weight").WithDetail("value", weight.String())
		}
	case DirectionAdjustment:
		if weight.IsZero() {
			return apperror.NewValidation("adjustment weight must be non-zero").
				WithDetail("field", "weight")
		}
		if auditRef == "" {
			return apperror.NewValidation("audit reference is required for adjustment entries").
				WithDetail("field", "auditRef")
		}
	default:
		return apperror.NewValidation("direction must be in, out or adjustment").
			WithDetail("field", "direction").WithDetail("value", string(direction))
	}
	if source == SourceManualAdjustment && auditRef == "" {
		return apperror.NewValidation("audit reference is required for manual adjustments").
			WithDetail("field", "auditRef")
	}
	return nil
}

// --- Cached balances (read optimization, never a source of truth) ---

// StockBalance is the cached stock total for item+purity.
type StockBalance struct {
	ItemID id.ID `db:"item_id" json:"itemId"`
	Purity int   `db:"purity" json:"purity"`

	Weight types.Weight `db:"weight" json:"weight"`

	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// GoldBalance is the cached raw-gold total per counterparty.
type GoldBalance struct {
	PartyID id.ID `db:"party_id" json:"partyId"`

	Weight types.Weight `db:"weight" json:"weight"`

	LastMovementAt time.Time `db:"last_movement_at" json:"lastMovementAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
