package entity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
)

func testBase(source SourceKind) EntryBase {
	return NewEntryBase(time.Now().UTC(), source, id.New(), "tester")
}

func TestStockEntry_SignedWeight(t *testing.T) {
	base := testBase(SourcePurchase)
	item := id.New()

	in := NewStockEntry(base, item, 916, DirectionIn, types.MustWeight("10.000"))
	assert.Equal(t, types.MustWeight("10.000"), in.SignedWeight())

	out := NewStockEntry(base, item, 916, DirectionOut, types.MustWeight("10.000"))
	assert.Equal(t, types.MustWeight("-10.000"), out.SignedWeight())

	adj := NewStockEntry(base, item, 916, DirectionAdjustment, types.MustWeight("-2.500"))
	assert.Equal(t, types.MustWeight("-2.500"), adj.SignedWeight(), "adjustment weight is taken as recorded")
}

func TestStockEntry_Validate(t *testing.T) {
	ctx := context.Background()
	item := id.New()

	t.Run("valid in entry", func(t *testing.T) {
		e := NewStockEntry(testBase(SourcePurchase), item, 916, DirectionIn, types.MustWeight("1.000"))
		require.NoError(t, e.Validate(ctx))
	})

	t.Run("out entry must be positive", func(t *testing.T) {
		e := NewStockEntry(testBase(SourceInvoice), item, 916, DirectionOut, 0)
		err := e.Validate(ctx)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("adjustment requires audit reference", func(t *testing.T) {
		e := NewStockEntry(testBase(SourceManualAdjustment), item, 916, DirectionAdjustment, types.MustWeight("-1.000"))
		err := e.Validate(ctx)
		require.Error(t, err)

		e.AuditRef = "recount 2026-08-30"
		require.NoError(t, e.Validate(ctx))
	})

	t.Run("adjustment must be non-zero", func(t *testing.T) {
		e := NewStockEntry(testBase(SourceManualAdjustment), item, 916, DirectionAdjustment, 0)
		e.AuditRef = "ref"
		require.Error(t, e.Validate(ctx))
	})

	t.Run("missing item", func(t *testing.T) {
		e := NewStockEntry(testBase(SourcePurchase), id.Nil(), 916, DirectionIn, types.MustWeight("1.000"))
		require.Error(t, e.Validate(ctx))
	})

	t.Run("unknown direction", func(t *testing.T) {
		e := NewStockEntry(testBase(SourcePurchase), item, 916, Direction("sideways"), types.MustWeight("1.000"))
		require.Error(t, e.Validate(ctx))
	})
}

func TestMoneyEntry_Validate(t *testing.T) {
	ctx := context.Background()
	acc := id.New()

	e := NewMoneyEntry(testBase(SourceInvoice), acc, MoneyCredit, types.MustMoney("100.00"))
	require.NoError(t, e.Validate(ctx))

	zero := NewMoneyEntry(testBase(SourceInvoice), acc, MoneyCredit, types.ZeroMoney())
	require.Error(t, zero.Validate(ctx), "zero amount is rejected")

	bad := NewMoneyEntry(testBase(SourceInvoice), acc, MoneyDirection("sideways"), types.MustMoney("1.00"))
	require.Error(t, bad.Validate(ctx))

	manual := NewMoneyEntry(testBase(SourceManualAdjustment), acc, MoneyDebit, types.MustMoney("5.00"))
	require.Error(t, manual.Validate(ctx), "manual adjustment without audit ref is rejected")
	manual.AuditRef = "cash recount"
	require.NoError(t, manual.Validate(ctx))
}

func TestMoneyEntry_SignedAmount(t *testing.T) {
	base := testBase(SourcePayment)
	acc := id.New()

	credit := NewMoneyEntry(base, acc, MoneyCredit, types.MustMoney("50.00"))
	assert.True(t, credit.SignedAmount().Equal(types.MustMoney("50.00")))

	debit := NewMoneyEntry(base, acc, MoneyDebit, types.MustMoney("50.00"))
	assert.True(t, debit.SignedAmount().Equal(types.MustMoney("-50.00")))
}

func TestGoldEntry_Validate(t *testing.T) {
	ctx := context.Background()

	e := NewGoldEntry(testBase(SourceInvoice), id.New(), DirectionIn, types.MustWeight("5.000"))
	e.PurityEntered = 916
	require.NoError(t, e.Validate(ctx))

	noParty := NewGoldEntry(testBase(SourceInvoice), id.Nil(), DirectionIn, types.MustWeight("5.000"))
	require.Error(t, noParty.Validate(ctx))
}

func TestEntryBase_MarkDeleted(t *testing.T) {
	e := testBase(SourcePurchase)
	require.False(t, e.DeletionMark)

	e.MarkDeleted("duplicate entry")
	assert.True(t, e.DeletionMark)
	assert.Equal(t, "duplicate entry", e.DeleteReason)
	require.NotNil(t, e.DeletedAt)
}
