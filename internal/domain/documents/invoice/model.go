// Package invoice provides the sale Invoice document: gold sold to a
// customer or walk-in buyer. Finalization records stock out entries, the
// payment received and, when old gold was taken as advance, a gold ledger
// entry plus the matching money debit on the gold received account.
package invoice

import (
	"context"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/core/valuation"
	"aurum/internal/domain/finalize"

	"github.com/shopspring/decimal"
)

// Invoice represents a sale document.
type Invoice struct {
	entity.Document

	// CustomerID references the party catalog. Nil for walk-in buyers.
	CustomerID id.ID `db:"customer_id" json:"customerId"`

	// WalkInName is set when the buyer is not a registered party
	WalkInName string `db:"walk_in_name" json:"walkInName,omitempty"`

	// Totals (calculated from lines)
	TotalWeight types.Weight `db:"total_weight" json:"totalWeight"`
	TotalAmount types.Money  `db:"total_amount" json:"totalAmount"`

	// Payment received at finalization time
	PaidAmount       types.Money `db:"paid_amount" json:"paidAmount"`
	PaymentAccountID id.ID       `db:"payment_account_id" json:"paymentAccountId,omitempty"`
	PaymentMode      string      `db:"payment_mode" json:"paymentMode,omitempty"`

	// AdvanceGold is old gold taken from the customer against the invoice
	AdvanceGold *AdvanceGold `db:"-" json:"advanceGold,omitempty"`

	// GoldAccountID is the system gold received account, resolved by the
	// service before finalization when AdvanceGold is set
	GoldAccountID id.ID `db:"gold_account_id" json:"goldAccountId,omitempty"`

	// Table part: sold lines
	Lines []Line `db:"-" json:"lines"`
}

// Line represents a sold article.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ItemID id.ID `db:"item_id" json:"itemId"`

	// Purity is the stock dimension the weight leaves from
	Purity int `db:"purity" json:"purity"`

	Weight types.Weight `db:"weight" json:"weight"`

	// ConversionFactor selects the rate used by the valuation formula
	ConversionFactor decimal.Decimal `db:"conversion_factor" json:"conversionFactor"`

	// Amount is derived: round(weight * 916 / factor, 2)
	Amount types.Money `db:"amount" json:"amount"`
}

// AdvanceGold is raw gold received from the customer as part payment.
// The entered purity is recorded but never affects the amount.
type AdvanceGold struct {
	Weight           types.Weight    `db:"weight" json:"weight"`
	PurityEntered    int             `db:"purity_entered" json:"purityEntered"`
	ConversionFactor decimal.Decimal `db:"conversion_factor" json:"conversionFactor"`

	// Amount is derived: round(weight * 916 / factor, 2)
	Amount types.Money `db:"amount" json:"amount"`
}

// New creates an invoice document.
func New(customerID id.ID) *Invoice {
	return &Invoice{
		Document:    entity.NewDocument(),
		CustomerID:  customerID,
		TotalWeight: 0,
		TotalAmount: types.ZeroMoney(),
		PaidAmount:  types.ZeroMoney(),
		Lines:       make([]Line, 0),
	}
}

// AddLine appends a line. Amounts are computed by ComputeAmounts.
func (v *Invoice) AddLine(itemID id.ID, purity int, weight types.Weight, factor decimal.Decimal) {
	v.Lines = append(v.Lines, Line{
		LineID:           id.New(),
		LineNo:           len(v.Lines) + 1,
		ItemID:           itemID,
		Purity:           purity,
		Weight:           weight,
		ConversionFactor: factor,
	})
}

// ComputeAmounts derives line amounts, the advance gold value and document
// totals from the valuation table.
func (v *Invoice) ComputeAmounts(table *valuation.Table) error {
	v.TotalWeight = 0
	v.TotalAmount = types.ZeroMoney()

	for i := range v.Lines {
		line := &v.Lines[i]
		amount, err := table.Amount(line.Weight, line.ConversionFactor)
		if err != nil {
			return apperror.NewValidation("invalid line valuation").
				WithDetail("lineNo", line.LineNo).
				WithCause(err)
		}
		line.Amount = amount
		v.TotalWeight += line.Weight
		v.TotalAmount = v.TotalAmount.Add(amount)
	}

	if v.AdvanceGold != nil {
		amount, err := table.Amount(v.AdvanceGold.Weight, v.AdvanceGold.ConversionFactor)
		if err != nil {
			return apperror.NewValidation("invalid advance gold valuation").
				WithDetail("field", "advanceGold").
				WithCause(err)
		}
		v.AdvanceGold.Amount = amount
	}

	return nil
}

// AdvanceGoldAmount returns the advance gold value, zero when absent.
func (v *Invoice) AdvanceGoldAmount() types.Money {
	if v.AdvanceGold == nil {
		return types.ZeroMoney()
	}
	return v.AdvanceGold.Amount
}

// OutstandingAmount returns what the customer still owes. May be negative
// when payment plus advance gold exceed the total; stored as-is.
func (v *Invoice) OutstandingAmount() types.Money {
	return v.TotalAmount.Sub(v.PaidAmount).Sub(v.AdvanceGoldAmount())
}

// Validate implements entity.Validatable.
func (v *Invoice) Validate(ctx context.Context) error {
	if err := v.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(v.CustomerID) && v.WalkInName == "" {
		return apperror.NewValidation("customer or walk-in name is required").
			WithDetail("field", "customerId")
	}

	if len(v.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for _, line := range v.Lines {
		if id.IsNil(line.ItemID) {
			return apperror.NewValidation("item is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
		if !line.Weight.IsPositive() {
			return apperror.NewValidation("weight must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
		if line.Purity <= 0 || line.Purity > 999 {
			return apperror.NewValidation("purity must be between 1 and 999").
				WithDetail("field", "lines").
				WithDetail("lineNo", line.LineNo)
		}
	}

	if v.PaidAmount.IsNegative() {
		return apperror.NewValidation("paid amount cannot be negative").
			WithDetail("field", "paidAmount")
	}
	if v.PaidAmount.IsPositive() && id.IsNil(v.PaymentAccountID) {
		return apperror.NewValidation("payment account is required when paid amount is set").
			WithDetail("field", "paymentAccountId")
	}

	if v.AdvanceGold != nil {
		if !v.AdvanceGold.Weight.IsPositive() {
			return apperror.NewValidation("advance gold weight must be positive").
				WithDetail("field", "advanceGold.weight")
		}
		if id.IsNil(v.CustomerID) {
			return apperror.NewValidation("advance gold requires a registered customer").
				WithDetail("field", "customerId")
		}
	}

	return nil
}

// --- Finalizable implementation ---

// DocumentKind returns the source kind stamped on produced entries.
func (v *Invoice) DocumentKind() entity.SourceKind {
	return entity.SourceInvoice
}

// CanFinalize checks business rules before finalization.
func (v *Invoice) CanFinalize(ctx context.Context) error {
	if v.IsFinalized() {
		return apperror.NewAlreadyFinalized(string(v.DocumentKind()), v.ID.String())
	}
	if err := v.Validate(ctx); err != nil {
		return err
	}
	if v.AdvanceGold != nil && id.IsNil(v.GoldAccountID) {
		return apperror.NewValidation("gold received account is not resolved").
			WithDetail("field", "goldAccountId")
	}
	return nil
}

// BuildEntries derives ledger entries: one stock out entry per line, a
// money credit for the payment received and, for advance gold, a gold in
// entry plus a money debit on the gold received account.
func (v *Invoice) BuildEntries(ctx context.Context) (*finalize.EntrySet, error) {
	set := finalize.NewEntrySet()

	for _, line := range v.Lines {
		base := entity.NewEntryBase(v.Date, v.DocumentKind(), v.ID, v.CreatedBy)
		set.AddStock(entity.NewStockEntry(base, line.ItemID, line.Purity, entity.DirectionOut, line.Weight))
	}

	if v.PaidAmount.IsPositive() {
		base := entity.NewEntryBase(v.Date, v.DocumentKind(), v.ID, v.CreatedBy)
		e := entity.NewMoneyEntry(base, v.PaymentAccountID, entity.MoneyCredit, v.PaidAmount)
		e.PartyID = v.CustomerID
		e.Category = "sale"
		e.Mode = v.PaymentMode
		set.AddMoney(e)
	}

	if v.AdvanceGold != nil {
		base := entity.NewEntryBase(v.Date, v.DocumentKind(), v.ID, v.CreatedBy)
		g := entity.NewGoldEntry(base, v.CustomerID, entity.DirectionIn, v.AdvanceGold.Weight)
		g.PurityEntered = v.AdvanceGold.PurityEntered
		g.Purpose = "advance"
		set.AddGold(g)

		mbase := entity.NewEntryBase(v.Date, v.DocumentKind(), v.ID, v.CreatedBy)
		m := entity.NewMoneyEntry(mbase, v.GoldAccountID, entity.MoneyDebit, v.AdvanceGold.Amount)
		m.PartyID = v.CustomerID
		m.Category = "sale_gold_received"
		set.AddMoney(m)
	}

	return set, nil
}

// MarkFinalized flips status and settles the payment state. Negative
// outstanding counts as paid.
func (v *Invoice) MarkFinalized(by string, at time.Time) {
	v.Document.MarkFinalized(by, at)
	received := v.PaidAmount.Add(v.AdvanceGoldAmount())
	v.PaymentStatus = entity.PaymentStatusFor(received.IsPositive(), received.GreaterThanOrEqual(v.TotalAmount))
}

// Ensure interface compliance at compile time.
var _ finalize.Finalizable = (*Invoice)(nil)
