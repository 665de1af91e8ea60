package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"aurum/internal/core/apperror"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/documents/purchase"
)

// PurchaseLineRequest describes one purchased article.
type PurchaseLineRequest struct {
	ItemID           string          `json:"itemId" binding:"required"`
	Purity           int             `json:"purity" binding:"required"`
	Weight           types.Weight    `json:"weight" binding:"required"`
	ConversionFactor decimal.Decimal `json:"conversionFactor" binding:"required"`
}

// GoldSettlementRequest describes raw gold handed to the seller.
type GoldSettlementRequest struct {
	Weight           types.Weight    `json:"weight" binding:"required"`
	PurityEntered    int             `json:"purityEntered"`
	ConversionFactor decimal.Decimal `json:"conversionFactor" binding:"required"`
}

// CreatePurchaseRequest for creating purchase documents.
type CreatePurchaseRequest struct {
	SupplierID string     `json:"supplierId"`
	WalkInName string     `json:"walkInName"`
	Date       *time.Time `json:"date"`
	Comment    string     `json:"comment"`

	PaidAmount       *types.Money `json:"paidAmount"`
	PaymentAccountID string       `json:"paymentAccountId"`
	PaymentMode      string       `json:"paymentMode"`

	GoldSettlement *GoldSettlementRequest `json:"goldSettlement"`

	Lines []PurchaseLineRequest `json:"lines" binding:"required,min=1"`

	// FinalizeImmediately posts the document in the same request
	FinalizeImmediately bool `json:"finalizeImmediately"`
}

// ToEntity converts request to domain entity.
// Line amounts and totals are derived by the service.
func (r CreatePurchaseRequest) ToEntity() (*purchase.Purchase, error) {
	supplierID, err := parseOptionalID(r.SupplierID, "supplierId")
	if err != nil {
		return nil, err
	}

	doc := purchase.New(supplierID)
	doc.WalkInName = r.WalkInName
	doc.Comment = r.Comment
	if r.Date != nil {
		doc.Date = *r.Date
	}

	if r.PaidAmount != nil {
		doc.PaidAmount = *r.PaidAmount
	}
	if r.PaymentAccountID != "" {
		accID, err := parseOptionalID(r.PaymentAccountID, "paymentAccountId")
		if err != nil {
			return nil, err
		}
		doc.PaymentAccountID = accID
	}
	doc.PaymentMode = r.PaymentMode

	if r.GoldSettlement != nil {
		doc.GoldSettlement = &purchase.GoldSettlement{
			Weight:           r.GoldSettlement.Weight,
			PurityEntered:    r.GoldSettlement.PurityEntered,
			ConversionFactor: r.GoldSettlement.ConversionFactor,
		}
	}

	for _, line := range r.Lines {
		itemID, err := id.Parse(line.ItemID)
		if err != nil {
			return nil, apperror.NewValidation("invalid itemId format").
				WithDetail("value", line.ItemID)
		}
		doc.AddLine(itemID, line.Purity, line.Weight, line.ConversionFactor)
	}

	return doc, nil
}

// UpdatePurchaseRequest for updating purchase drafts.
// Lines replace the existing table part wholesale.
type UpdatePurchaseRequest struct {
	SupplierID *string    `json:"supplierId"`
	WalkInName *string    `json:"walkInName"`
	Date       *time.Time `json:"date"`
	Comment    *string    `json:"comment"`

	PaidAmount       *types.Money `json:"paidAmount"`
	PaymentAccountID *string      `json:"paymentAccountId"`
	PaymentMode      *string      `json:"paymentMode"`

	// GoldSettlement replaces the current value; ClearGoldSettlement removes it
	GoldSettlement      *GoldSettlementRequest `json:"goldSettlement"`
	ClearGoldSettlement bool                   `json:"clearGoldSettlement"`

	Lines []PurchaseLineRequest `json:"lines"`

	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the update onto an existing purchase.
func (r UpdatePurchaseRequest) ApplyTo(doc *purchase.Purchase) error {
	if r.SupplierID != nil {
		supplierID, err := parseOptionalID(*r.SupplierID, "supplierId")
		if err != nil {
			return err
		}
		doc.SupplierID = supplierID
	}
	if r.WalkInName != nil {
		doc.WalkInName = *r.WalkInName
	}
	if r.Date != nil {
		doc.Date = *r.Date
	}
	if r.Comment != nil {
		doc.Comment = *r.Comment
	}
	if r.PaidAmount != nil {
		doc.PaidAmount = *r.PaidAmount
	}
	if r.PaymentAccountID != nil {
		accID, err := parseOptionalID(*r.PaymentAccountID, "paymentAccountId")
		if err != nil {
			return err
		}
		doc.PaymentAccountID = accID
	}
	if r.PaymentMode != nil {
		doc.PaymentMode = *r.PaymentMode
	}

	if r.ClearGoldSettlement {
		doc.GoldSettlement = nil
	} else if r.GoldSettlement != nil {
		doc.GoldSettlement = &purchase.GoldSettlement{
			Weight:           r.GoldSettlement.Weight,
			PurityEntered:    r.GoldSettlement.PurityEntered,
			ConversionFactor: r.GoldSettlement.ConversionFactor,
		}
	}

	if r.Lines != nil {
		doc.Lines = doc.Lines[:0]
		for _, line := range r.Lines {
			itemID, err := id.Parse(line.ItemID)
			if err != nil {
				return apperror.NewValidation("invalid itemId format").
					WithDetail("value", line.ItemID)
			}
			doc.AddLine(itemID, line.Purity, line.Weight, line.ConversionFactor)
		}
	}

	doc.Version = r.Version
	return nil
}

// RecordPaymentRequest records a settlement against a finalized document.
type RecordPaymentRequest struct {
	AccountID string      `json:"accountId" binding:"required"`
	Amount    types.Money `json:"amount" binding:"required"`
	Mode      string      `json:"mode"`
	Notes     string      `json:"notes"`
}

// parseOptionalID parses an ID string, treating empty as nil.
func parseOptionalID(s, field string) (id.ID, error) {
	if s == "" {
		return id.ID{}, nil
	}
	parsed, err := id.Parse(s)
	if err != nil {
		return id.ID{}, apperror.NewValidation("invalid " + field + " format").
			WithDetail("value", s)
	}
	return parsed, nil
}
