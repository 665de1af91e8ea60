package dto

import (
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/documents/returns"
)

// ReturnLineRequest describes one returned article. Informational only:
// lines never move stock.
type ReturnLineRequest struct {
	ItemID string       `json:"itemId" binding:"required"`
	Purity int          `json:"purity"`
	Weight types.Weight `json:"weight" binding:"required"`
}

// GoldRefundRequest settles advance gold back to a party.
type GoldRefundRequest struct {
	Weight        types.Weight `json:"weight" binding:"required"`
	PurityEntered int          `json:"purityEntered"`
}

// CreateReturnRequest for creating return documents.
type CreateReturnRequest struct {
	Kind       string     `json:"kind" binding:"required"`
	PartyID    string     `json:"partyId"`
	WalkInName string     `json:"walkInName"`
	Date       *time.Time `json:"date"`
	Comment    string     `json:"comment"`

	RefID     string `json:"refId"`
	RefNumber string `json:"refNumber"`

	RefundAmount types.Money `json:"refundAmount" binding:"required"`
	AccountID    string      `json:"accountId" binding:"required"`
	RefundMode   string      `json:"refundMode"`

	GoldRefund *GoldRefundRequest `json:"goldRefund"`

	Reason string `json:"reason"`

	Lines []ReturnLineRequest `json:"lines"`

	// FinalizeImmediately posts the document in the same request
	FinalizeImmediately bool `json:"finalizeImmediately"`
}

// ToEntity converts request to domain entity.
func (r CreateReturnRequest) ToEntity() (*returns.Return, error) {
	partyID, err := parseOptionalID(r.PartyID, "partyId")
	if err != nil {
		return nil, err
	}

	doc := returns.New(returns.Kind(r.Kind), partyID)
	doc.WalkInName = r.WalkInName
	doc.Comment = r.Comment
	if r.Date != nil {
		doc.Date = *r.Date
	}

	refID, err := parseOptionalID(r.RefID, "refId")
	if err != nil {
		return nil, err
	}
	doc.RefID = refID
	doc.RefNumber = r.RefNumber

	doc.RefundAmount = r.RefundAmount
	accID, err := id.Parse(r.AccountID)
	if err != nil {
		return nil, apperror.NewValidation("invalid accountId format").
			WithDetail("value", r.AccountID)
	}
	doc.AccountID = accID
	doc.RefundMode = r.RefundMode
	doc.Reason = r.Reason

	if r.GoldRefund != nil {
		doc.GoldRefund = &returns.GoldRefund{
			Weight:        r.GoldRefund.Weight,
			PurityEntered: r.GoldRefund.PurityEntered,
		}
	}

	for _, line := range r.Lines {
		itemID, err := id.Parse(line.ItemID)
		if err != nil {
			return nil, apperror.NewValidation("invalid itemId format").
				WithDetail("value", line.ItemID)
		}
		doc.AddLine(itemID, line.Purity, line.Weight)
	}

	return doc, nil
}

// UpdateReturnRequest for updating return drafts.
type UpdateReturnRequest struct {
	PartyID    *string    `json:"partyId"`
	WalkInName *string    `json:"walkInName"`
	Date       *time.Time `json:"date"`
	Comment    *string    `json:"comment"`

	RefID     *string `json:"refId"`
	RefNumber *string `json:"refNumber"`

	RefundAmount *types.Money `json:"refundAmount"`
	AccountID    *string      `json:"accountId"`
	RefundMode   *string      `json:"refundMode"`

	GoldRefund      *GoldRefundRequest `json:"goldRefund"`
	ClearGoldRefund bool               `json:"clearGoldRefund"`

	Reason *string `json:"reason"`

	Lines []ReturnLineRequest `json:"lines"`

	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the update onto an existing return.
func (r UpdateReturnRequest) ApplyTo(doc *returns.Return) error {
	if r.PartyID != nil {
		partyID, err := parseOptionalID(*r.PartyID, "partyId")
		if err != nil {
			return err
		}
		doc.PartyID = partyID
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
	if r.RefID != nil {
		refID, err := parseOptionalID(*r.RefID, "refId")
		if err != nil {
			return err
		}
		doc.RefID = refID
	}
	if r.RefNumber != nil {
		doc.RefNumber = *r.RefNumber
	}
	if r.RefundAmount != nil {
		doc.RefundAmount = *r.RefundAmount
	}
	if r.AccountID != nil {
		accID, err := parseOptionalID(*r.AccountID, "accountId")
		if err != nil {
			return err
		}
		doc.AccountID = accID
	}
	if r.RefundMode != nil {
		doc.RefundMode = *r.RefundMode
	}

	if r.ClearGoldRefund {
		doc.GoldRefund = nil
	} else if r.GoldRefund != nil {
		doc.GoldRefund = &returns.GoldRefund{
			Weight:        r.GoldRefund.Weight,
			PurityEntered: r.GoldRefund.PurityEntered,
		}
	}

	if r.Reason != nil {
		doc.Reason = *r.Reason
	}

	if r.Lines != nil {
		doc.Lines = doc.Lines[:0]
		for _, line := range r.Lines {
			itemID, err := id.Parse(line.ItemID)
			if err != nil {
				return apperror.NewValidation("invalid itemId format").
					WithDetail("value", line.ItemID)
			}
			doc.AddLine(itemID, line.Purity, line.Weight)
		}
	}

	doc.Version = r.Version
	return nil
}

// ResolveInventoryRequest closes the manual inventory follow-up flag.
type ResolveInventoryRequest struct {
	Note string `json:"note" binding:"required"`
}
