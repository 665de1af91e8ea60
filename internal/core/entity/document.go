package entity

import (
	"context"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/id"
)

// Status is the document lifecycle state.
// Draft -> Finalized is one-way and terminal for stock/gold purposes.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusFinalized Status = "finalized"
)

// PaymentStatus is the payment-driven sub-machine of a finalized document.
// It only ever changes through money-transaction entries.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partially_paid"
	PaymentPaid    PaymentStatus = "paid"
)

// paymentTransitions enumerates legal payment-status moves. Forward moves
// come from payments, backward moves from refunds against the document.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentUnpaid:  {PaymentPartial, PaymentPaid},
	PaymentPartial: {PaymentPaid, PaymentUnpaid},
	PaymentPaid:    {PaymentPartial, PaymentUnpaid},
}

// Document is the base type for business documents (Purchase, Invoice, Return).
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within kind+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Status: draft or finalized
	Status Status `db:"status" json:"status"`

	// Locked is the immutability flag set together with FinalizedAt.
	// Once set, the document's financial fields never change again.
	Locked bool `db:"locked" json:"locked"`

	// FinalizedAt/FinalizedBy record the one-time finalize transition
	FinalizedAt *time.Time `db:"finalized_at" json:"finalizedAt,omitempty"`
	FinalizedBy string     `db:"finalized_by" json:"finalizedBy,omitempty"`

	// PaymentStatus is derived from payment events, mutable after finalize
	PaymentStatus PaymentStatus `db:"payment_status" json:"paymentStatus"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new draft Document with generated ID.
func NewDocument() Document {
	return Document{
		BaseDocument:  NewBaseDocument(),
		Date:          time.Now().UTC(),
		Status:        StatusDraft,
		PaymentStatus: PaymentUnpaid,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// CanModify checks if the document can still be modified.
// Finalized documents are immutable.
func (d *Document) CanModify() error {
	if d.Locked || d.Status == StatusFinalized {
		return apperror.NewBusinessRule(
			apperror.CodeDocumentLocked,
			"Cannot modify finalized document",
		).WithDetail("document_id", d.ID.String())
	}
	return nil
}

// IsFinalized reports whether the one-way transition already happened.
func (d *Document) IsFinalized() bool {
	return d.Status == StatusFinalized
}

// MarkFinalized performs the one-way draft -> finalized transition.
func (d *Document) MarkFinalized(by string, at time.Time) {
	d.Status = StatusFinalized
	d.Locked = true
	d.FinalizedAt = &at
	d.FinalizedBy = by
	d.PaymentStatus = PaymentUnpaid
}

// SetPaymentStatus moves the payment sub-machine, rejecting illegal moves.
// Only meaningful on finalized documents.
func (d *Document) SetPaymentStatus(next PaymentStatus) error {
	if d.Status != StatusFinalized {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"payment status applies to finalized documents only",
		).WithDetail("document_id", d.ID.String())
	}
	if next == d.PaymentStatus {
		return nil
	}
	for _, allowed := range paymentTransitions[d.PaymentStatus] {
		if next == allowed {
			d.PaymentStatus = next
			return nil
		}
	}
	return apperror.NewBusinessRule(
		apperror.CodeBusinessRule,
		"illegal payment status transition",
	).WithDetail("from", string(d.PaymentStatus)).WithDetail("to", string(next))
}

// PaymentStatusFor derives the payment status from paid vs total amounts.
// Negative outstanding (business owes the counterparty) counts as paid.
func PaymentStatusFor(paidPositive, fullyPaid bool) PaymentStatus {
	switch {
	case fullyPaid:
		return PaymentPaid
	case paidPositive:
		return PaymentPartial
	default:
		return PaymentUnpaid
	}
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}
