package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"aurum/internal/core/apperror"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/documents/invoice"
)

// InvoiceLineRequest describes one sold article.
type InvoiceLineRequest struct {
	ItemID           string          `json:"itemId" binding:"required"`
	Purity           int             `json:"purity" binding:"required"`
	Weight           types.Weight    `json:"weight" binding:"required"`
	ConversionFactor decimal.Decimal `json:"conversionFactor" binding:"required"`
}

// AdvanceGoldRequest describes old gold taken from the customer.
type AdvanceGoldRequest struct {
	Weight           types.Weight    `json:"weight" binding:"required"`
	PurityEntered    int             `json:"purityEntered"`
	ConversionFactor decimal.Decimal `json:"conversionFactor" binding:"required"`
}

// CreateInvoiceRequest for creating sale invoices.
type CreateInvoiceRequest struct {
	CustomerID string     `json:"customerId"`
	WalkInName string     `json:"walkInName"`
	Date       *time.Time `json:"date"`
	Comment    string     `json:"comment"`

	PaidAmount       *types.Money `json:"paidAmount"`
	PaymentAccountID string       `json:"paymentAccountId"`
	PaymentMode      string       `json:"paymentMode"`

	AdvanceGold *AdvanceGoldRequest `json:"advanceGold"`

	Lines []InvoiceLineRequest `json:"lines" binding:"required,min=1"`

	// FinalizeImmediately posts the document in the same request
	FinalizeImmediately bool `json:"finalizeImmediately"`
}

// ToEntity converts request to domain entity.
func (r CreateInvoiceRequest) ToEntity() (*invoice.Invoice, error) {
	customerID, err := parseOptionalID(r.CustomerID, "customerId")
	if err != nil {
		return nil, err
	}

	doc := invoice.New(customerID)
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

	if r.AdvanceGold != nil {
		doc.AdvanceGold = &invoice.AdvanceGold{
			Weight:           r.AdvanceGold.Weight,
			PurityEntered:    r.AdvanceGold.PurityEntered,
			ConversionFactor: r.AdvanceGold.ConversionFactor,
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

// UpdateInvoiceRequest for updating invoice drafts.
type UpdateInvoiceRequest struct {
	CustomerID *string    `json:"customerId"`
	WalkInName *string    `json:"walkInName"`
	Date       *time.Time `json:"date"`
	Comment    *string    `json:"comment"`

	PaidAmount       *types.Money `json:"paidAmount"`
	PaymentAccountID *string      `json:"paymentAccountId"`
	PaymentMode      *string      `json:"paymentMode"`

	// AdvanceGold replaces the current value; ClearAdvanceGold removes it
	AdvanceGold      *AdvanceGoldRequest `json:"advanceGold"`
	ClearAdvanceGold bool                `json:"clearAdvanceGold"`

	Lines []InvoiceLineRequest `json:"lines"`

	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the update onto an existing invoice.
func (r UpdateInvoiceRequest) ApplyTo(doc *invoice.Invoice) error {
	if r.CustomerID != nil {
		customerID, err := parseOptionalID(*r.CustomerID, "customerId")
		if err != nil {
			return err
		}
		doc.CustomerID = customerID
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

	if r.ClearAdvanceGold {
		doc.AdvanceGold = nil
	} else if r.AdvanceGold != nil {
		doc.AdvanceGold = &invoice.AdvanceGold{
			Weight:           r.AdvanceGold.Weight,
			PurityEntered:    r.AdvanceGold.PurityEntered,
			ConversionFactor: r.AdvanceGold.ConversionFactor,
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
