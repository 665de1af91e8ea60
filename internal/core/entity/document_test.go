package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_MarkFinalized(t *testing.T) {
	d := NewDocument()
	require.Equal(t, StatusDraft, d.Status)
	require.NoError(t, d.CanModify())

	at := time.Now().UTC()
	d.MarkFinalized("alice", at)

	assert.Equal(t, StatusFinalized, d.Status)
	assert.True(t, d.Locked)
	assert.Equal(t, "alice", d.FinalizedBy)
	require.NotNil(t, d.FinalizedAt)
	assert.Equal(t, at, *d.FinalizedAt)
	assert.Equal(t, PaymentUnpaid, d.PaymentStatus)

	assert.Error(t, d.CanModify(), "finalized document is immutable")
}

func TestDocument_SetPaymentStatus(t *testing.T) {
	d := NewDocument()

	err := d.SetPaymentStatus(PaymentPaid)
	require.Error(t, err, "payment status applies to finalized documents only")

	d.MarkFinalized("alice", time.Now().UTC())

	require.NoError(t, d.SetPaymentStatus(PaymentPartial))
	require.NoError(t, d.SetPaymentStatus(PaymentPaid))

	// Refund moves the machine backwards
	require.NoError(t, d.SetPaymentStatus(PaymentUnpaid))

	// Same state is a no-op
	require.NoError(t, d.SetPaymentStatus(PaymentUnpaid))
}

func TestPaymentStatusFor(t *testing.T) {
	assert.Equal(t, PaymentUnpaid, PaymentStatusFor(false, false))
	assert.Equal(t, PaymentPartial, PaymentStatusFor(true, false))
	assert.Equal(t, PaymentPaid, PaymentStatusFor(true, true))
	assert.Equal(t, PaymentPaid, PaymentStatusFor(false, true))
}
