// Package purchase provides the Purchase document: gold bought from a
// supplier or a walk-in seller. Finalization records stock in entries, the
// amount owed on the payables account, the payment made at the counter and,
// when part of the price was settled in raw gold, a gold ledger entry.
package purchase

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

// Purchase represents a purchase document.
type Purchase struct {
	entity.Document

	// SupplierID references the party catalog. Nil for walk-in sellers.
	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	// WalkInName is set when the seller is not a registered party
	WalkInName string `db:"walk_in_name" json:"walkInName,omitempty"`

	// Totals (calculated from lines)
	TotalWeight types.Weight `db:"total_weight" json:"totalWeight"`
	TotalAmount types.Money  `db:"total_amount" json:"totalAmount"`

	// Payment made at finalization time
	PaidAmount       types.Money `db:"paid_amount" json:"paidAmount"`
	PaymentAccountID id.ID       `db:"payment_account_id" json:"paymentAccountId,omitempty"`
	PaymentMode      string      `db:"payment_mode" json:"paymentMode,omitempty"`

	// GoldSettlement is raw gold handed to the seller as part payment
	GoldSettlement *GoldSettlement `db:"-" json:"goldSettlement,omitempty"`

	// PayableAccountID is the system payables account, resolved by the
	// service before finalization. The amount owed is debited against it.
	PayableAccountID id.ID `db:"payable_account_id" json:"payableAccountId,omitempty"`

	// Table part: purchased lines
	Lines []Line `db:"-" json:"lines"`
}

// Line represents a purchased article.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ItemID id.ID `db:"item_id" json:"itemId"`

	// Purity as declared by the seller. Stored for record keeping and
	// used as a stock dimension; the amount never depends on it.
	Purity int `db:"purity" json:"purity"`

	Weight types.Weight `db:"weight" json:"weight"`

	// ConversionFactor selects the rate used by the valuation formula
	ConversionFactor decimal.Decimal `db:"conversion_factor" json:"conversionFactor"`

	// Amount is derived: round(weight * 916 / factor, 2)
	Amount types.Money `db:"amount" json:"amount"`
}

// GoldSettlement is raw gold given to the seller instead of money.
// The entered purity is recorded but never affects the amount.
type GoldSettlement struct {
	Weight           types.Weight    `db:"weight" json:"weight"`
	PurityEntered    int             `db:"purity_entered" json:"purityEntered"`
	ConversionFactor decimal.Decimal `db:"conversion_factor" json:"conversionFactor"`

	// Amount is derived: round(weight * 916 / factor, 2)
	Amount types.Money `db:"amount" json:"amount"`
}

// New creates a purchase document.
func New(supplierID id.ID) *Purchase {
	return &Purchase{
		Document:    entity.NewDocument(),
		SupplierID:  supplierID,
		TotalWeight: 0,
		TotalAmount: types.ZeroMoney(),
		PaidAmount:  types.ZeroMoney(),
		Lines:       make([]Line, 0),
	}
}

// AddLine appends a line. Amounts are computed by ComputeAmounts.
func (p *Purchase) AddLine(itemID id.ID, purity int, weight types.Weight, factor decimal.Decimal) {
	p.Lines = append(p.Lines, Line{
		LineID:           id.New(),
		LineNo:           len(p.Lines) + 1,
		ItemID:           itemID,
		Purity:           purity,
		Weight:           weight,
		ConversionFactor: factor,
	})
}

// ComputeAmounts derives line amounts and document totals from the
// valuation table. Must be called before save and before finalization.
func (p *Purchase) ComputeAmounts(table *valuation.Table) error {
	p.TotalWeight = 0
	p.TotalAmount = types.ZeroMoney()

	for i := range p.Lines {
		line := &p.Lines[i]
		amount, err := table.Amount(line.Weight, line.ConversionFactor)
		if err != nil {
			return apperror.NewValidation("invalid line valuation").
				WithDetail("lineNo", line.LineNo).
				WithCause(err)
		}
		line.Amount = amount
		p.TotalWeight += line.Weight
		p.TotalAmount = p.TotalAmount.Add(amount)
	}

	if p.GoldSettlement != nil {
		amount, err := table.Amount(p.GoldSettlement.Weight, p.GoldSettlement.ConversionFactor)
		if err != nil {
			return apperror.NewValidation("invalid gold settlement valuation").
				WithDetail("field", "goldSettlement").
				WithCause(err)
		}
		p.GoldSettlement.Amount = amount
	}

	return nil
}

// GoldSettlementAmount returns the settlement gold value, zero when absent.
func (p *Purchase) GoldSettlementAmount() types.Money {
	if p.GoldSettlement == nil {
		return types.ZeroMoney()
	}
	return p.GoldSettlement.Amount
}

// SettledAmount returns money paid plus the gold settlement value.
func (p *Purchase) SettledAmount() types.Money {
	return p.PaidAmount.Add(p.GoldSettlementAmount())
}

// OutstandingAmount returns what is still owed to the seller.
func (p *Purchase) OutstandingAmount() types.Money {
	return p.TotalAmount.Sub(p.SettledAmount())
}

// Validate implements entity.Validatable.
func (p *Purchase) Validate(ctx context.Context) error {
	if err := p.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(p.SupplierID) && p.WalkInName == "" {
		return apperror.NewValidation("supplier or walk-in name is required").
			WithDetail("field", "supplierId")
	}

	if len(p.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for _, line := range p.Lines {
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

	if p.PaidAmount.IsNegative() {
		return apperror.NewValidation("paid amount cannot be negative").
			WithDetail("field", "paidAmount")
	}
	if p.PaidAmount.IsPositive() && id.IsNil(p.PaymentAccountID) {
		return apperror.NewValidation("payment account is required when paid amount is set").
			WithDetail("field", "paymentAccountId")
	}

	if p.GoldSettlement != nil {
		if !p.GoldSettlement.Weight.IsPositive() {
			return apperror.NewValidation("gold settlement weight must be positive").
				WithDetail("field", "goldSettlement.weight")
		}
		if id.IsNil(p.SupplierID) {
			return apperror.NewValidation("gold settlement requires a registered supplier").
				WithDetail("field", "supplierId")
		}
	}

	return nil
}

// --- Finalizable implementation ---

// DocumentKind returns the source kind stamped on produced entries.
func (p *Purchase) DocumentKind() entity.SourceKind {
	return entity.SourcePurchase
}

// CanFinalize checks business rules before finalization.
func (p *Purchase) CanFinalize(ctx context.Context) error {
	if p.IsFinalized() {
		return apperror.NewAlreadyFinalized(string(p.DocumentKind()), p.ID.String())
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}
	if p.SettledAmount().GreaterThan(p.TotalAmount) {
		return apperror.NewValidation("settled amount cannot exceed document total").
			WithDetail("field", "paidAmount").
			WithDetail("total", p.TotalAmount.String())
	}
	if id.IsNil(p.PayableAccountID) {
		return apperror.NewValidation("payables account is not resolved").
			WithDetail("field", "payableAccountId")
	}
	return nil
}

// BuildEntries derives ledger entries: one stock in entry per line, a money
// debit on the payables account for the amount owed, a second debit on the
// payment account when money changed hands at the counter and, for a gold
// settlement, a gold out entry against the supplier.
func (p *Purchase) BuildEntries(ctx context.Context) (*finalize.EntrySet, error) {
	set := finalize.NewEntrySet()

	for _, line := range p.Lines {
		base := entity.NewEntryBase(p.Date, p.DocumentKind(), p.ID, p.CreatedBy)
		set.AddStock(entity.NewStockEntry(base, line.ItemID, line.Purity, entity.DirectionIn, line.Weight))
	}

	base := entity.NewEntryBase(p.Date, p.DocumentKind(), p.ID, p.CreatedBy)
	owed := entity.NewMoneyEntry(base, p.PayableAccountID, entity.MoneyDebit, p.TotalAmount)
	owed.PartyID = p.SupplierID
	owed.Category = "purchase"
	set.AddMoney(owed)

	if p.PaidAmount.IsPositive() {
		base := entity.NewEntryBase(p.Date, p.DocumentKind(), p.ID, p.CreatedBy)
		e := entity.NewMoneyEntry(base, p.PaymentAccountID, entity.MoneyDebit, p.PaidAmount)
		e.PartyID = p.SupplierID
		e.Category = "purchase_payment"
		e.Mode = p.PaymentMode
		set.AddMoney(e)
	}

	if p.GoldSettlement != nil {
		base := entity.NewEntryBase(p.Date, p.DocumentKind(), p.ID, p.CreatedBy)
		g := entity.NewGoldEntry(base, p.SupplierID, entity.DirectionOut, p.GoldSettlement.Weight)
		g.PurityEntered = p.GoldSettlement.PurityEntered
		g.Purpose = "settlement"
		set.AddGold(g)
	}

	return set, nil
}

// MarkFinalized flips status and settles the payment state. The gold
// settlement value counts toward what was paid.
func (p *Purchase) MarkFinalized(by string, at time.Time) {
	p.Document.MarkFinalized(by, at)
	settled := p.SettledAmount()
	p.PaymentStatus = entity.PaymentStatusFor(settled.IsPositive(), settled.GreaterThanOrEqual(p.TotalAmount))
}

// Ensure interface compliance at compile time.
var _ finalize.Finalizable = (*Purchase)(nil)
