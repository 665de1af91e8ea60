// Package returns provides the Return document for both sale and purchase
// returns. A return never moves stock on its own: finalization records
// exactly one money entry (the refund) and flags the document for manual
// inventory follow-up.
package returns

import (
	"context"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/finalize"
)

// Kind distinguishes the two return flows.
type Kind string

const (
	// KindSale is a customer returning sold goods; money flows out
	KindSale Kind = "sale_return"
	// KindPurchase is goods going back to a supplier; money flows in
	KindPurchase Kind = "purchase_return"
)

// Return represents a return document.
type Return struct {
	entity.Document

	// Kind selects the money direction of the refund
	Kind Kind `db:"kind" json:"kind"`

	// PartyID references the party catalog. Nil for walk-in counterparties.
	PartyID id.ID `db:"party_id" json:"partyId"`

	// WalkInName is set when the counterparty is not a registered party
	WalkInName string `db:"walk_in_name" json:"walkInName,omitempty"`

	// Reference to the original document, informational
	RefID     id.ID  `db:"ref_id" json:"refId,omitempty"`
	RefNumber string `db:"ref_number" json:"refNumber,omitempty"`

	// Refund: exactly one money entry per finalized return
	RefundAmount types.Money `db:"refund_amount" json:"refundAmount"`
	AccountID    id.ID       `db:"account_id" json:"accountId"`
	RefundMode   string      `db:"refund_mode" json:"refundMode,omitempty"`

	// GoldRefund optionally settles advance gold alongside the money refund
	GoldRefund *GoldRefund `db:"-" json:"goldRefund,omitempty"`

	// Reason for the return
	Reason string `db:"reason" json:"reason,omitempty"`

	// InventoryActionRequired is set on finalization: physical stock must
	// be reconciled by hand, the system never guesses the stock effect
	InventoryActionRequired bool `db:"inventory_action_required" json:"inventoryActionRequired"`

	// Table part: returned articles, informational only
	Lines []Line `db:"-" json:"lines"`
}

// Line describes a returned article. Lines never produce stock entries.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ItemID id.ID        `db:"item_id" json:"itemId"`
	Purity int          `db:"purity" json:"purity"`
	Weight types.Weight `db:"weight" json:"weight"`
}

// GoldRefund moves raw gold back between the business and a party.
type GoldRefund struct {
	Weight        types.Weight `db:"weight" json:"weight"`
	PurityEntered int          `db:"purity_entered" json:"purityEntered"`
}

// New creates a return document.
func New(kind Kind, partyID id.ID) *Return {
	return &Return{
		Document:     entity.NewDocument(),
		Kind:         kind,
		PartyID:      partyID,
		RefundAmount: types.ZeroMoney(),
		Lines:        make([]Line, 0),
	}
}

// AddLine appends a returned article.
func (r *Return) AddLine(itemID id.ID, purity int, weight types.Weight) {
	r.Lines = append(r.Lines, Line{
		LineID: id.New(),
		LineNo: len(r.Lines) + 1,
		ItemID: itemID,
		Purity: purity,
		Weight: weight,
	})
}

// Validate implements entity.Validatable.
func (r *Return) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}

	if r.Kind != KindSale && r.Kind != KindPurchase {
		return apperror.NewValidation("kind must be sale_return or purchase_return").
			WithDetail("field", "kind").
			WithDetail("value", string(r.Kind))
	}

	if id.IsNil(r.PartyID) && r.WalkInName == "" {
		return apperror.NewValidation("party or walk-in name is required").
			WithDetail("field", "partyId")
	}

	if len(r.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for _, line := range r.Lines {
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
	}

	if !r.RefundAmount.IsPositive() {
		return apperror.NewValidation("refund amount must be positive").
			WithDetail("field", "refundAmount")
	}
	if id.IsNil(r.AccountID) {
		return apperror.NewValidation("refund account is required").
			WithDetail("field", "accountId")
	}

	if r.GoldRefund != nil {
		if !r.GoldRefund.Weight.IsPositive() {
			return apperror.NewValidation("gold refund weight must be positive").
				WithDetail("field", "goldRefund.weight")
		}
		if id.IsNil(r.PartyID) {
			return apperror.NewValidation("gold refund requires a registered party").
				WithDetail("field", "partyId")
		}
	}

	return nil
}

// --- Finalizable implementation ---

// DocumentKind returns the source kind stamped on produced entries.
func (r *Return) DocumentKind() entity.SourceKind {
	return entity.SourceReturn
}

// CanFinalize checks business rules before finalization.
func (r *Return) CanFinalize(ctx context.Context) error {
	if r.IsFinalized() {
		return apperror.NewAlreadyFinalized(string(r.DocumentKind()), r.ID.String())
	}
	return r.Validate(ctx)
}

// BuildEntries derives ledger entries. No stock entries, ever: the stock
// correction is a human decision recorded later. The refund is a single
// money entry whose direction follows the return kind, plus an optional
// gold ledger movement when advance gold is settled.
func (r *Return) BuildEntries(ctx context.Context) (*finalize.EntrySet, error) {
	set := finalize.NewEntrySet()

	direction := entity.MoneyDebit
	category := "sales_return"
	if r.Kind == KindPurchase {
		direction = entity.MoneyCredit
		category = "purchase_return"
	}

	base := entity.NewEntryBase(r.Date, r.DocumentKind(), r.ID, r.CreatedBy)
	e := entity.NewMoneyEntry(base, r.AccountID, direction, r.RefundAmount)
	e.PartyID = r.PartyID
	e.Category = category
	e.Mode = r.RefundMode
	e.Notes = r.Reason
	set.AddMoney(e)

	if r.GoldRefund != nil {
		goldDir := entity.DirectionOut
		if r.Kind == KindPurchase {
			goldDir = entity.DirectionIn
		}
		gbase := entity.NewEntryBase(r.Date, r.DocumentKind(), r.ID, r.CreatedBy)
		g := entity.NewGoldEntry(gbase, r.PartyID, goldDir, r.GoldRefund.Weight)
		g.PurityEntered = r.GoldRefund.PurityEntered
		g.Purpose = category
		set.AddGold(g)
	}

	return set, nil
}

// MarkFinalized flips status and raises the inventory follow-up flag.
func (r *Return) MarkFinalized(by string, at time.Time) {
	r.Document.MarkFinalized(by, at)
	r.InventoryActionRequired = true
	r.PaymentStatus = entity.PaymentPaid
}

// Ensure interface compliance at compile time.
var _ finalize.Finalizable = (*Return)(nil)
