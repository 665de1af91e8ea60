package stock_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/ledgers/stock"
	"aurum/internal/infrastructure/storage/memory"
)

func newService() (*memory.Store, *stock.Service) {
	store := memory.NewStore()
	return store, stock.NewService(store.StockLedger(), store)
}

func TestManualAdjustment_RequiresAuditRef(t *testing.T) {
	ctx := context.Background()
	_, svc := newService()

	_, err := svc.ManualAdjustment(ctx, id.New(), 916, types.MustWeight("1.000"), "", "tester")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestManualAdjustment_MovesBalanceBothWays(t *testing.T) {
	ctx := context.Background()
	_, svc := newService()
	itemID := id.New()

	_, err := svc.ManualAdjustment(ctx, itemID, 916, types.MustWeight("10.000"), "COUNT-1", "tester")
	require.NoError(t, err)

	// Negative adjustments write the signed weight as recorded
	_, err = svc.ManualAdjustment(ctx, itemID, 916, types.MustWeight("-2.500"), "COUNT-2", "tester")
	require.NoError(t, err)

	bal, err := svc.CachedBalance(ctx, itemID, 916)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("7.500"), bal.Weight)
}

func TestAppend_RejectsZeroMovement(t *testing.T) {
	ctx := context.Background()
	_, svc := newService()

	base := entity.NewEntryBase(time.Now().UTC(), entity.SourcePurchase, id.New(), "tester")
	e := entity.NewStockEntry(base, id.New(), 916, entity.DirectionIn, 0)
	err := svc.Append(ctx, []entity.StockEntry{e})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestSoftDelete_ReversesBalance(t *testing.T) {
	ctx := context.Background()
	_, svc := newService()
	itemID := id.New()

	e, err := svc.ManualAdjustment(ctx, itemID, 916, types.MustWeight("5.000"), "COUNT-1", "tester")
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(ctx, e.ID, "entered against the wrong item"))

	bal, err := svc.CachedBalance(ctx, itemID, 916)
	require.NoError(t, err)
	assert.True(t, bal.Weight.IsZero())

	// The row remains, marked deleted
	entries, err := svc.History(ctx, stock.EntryFilter{ItemID: &itemID, IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].DeletionMark)
	assert.Equal(t, "entered against the wrong item", entries[0].DeleteReason)

	// Deleted entries are hidden by default
	visible, err := svc.History(ctx, stock.EntryFilter{ItemID: &itemID})
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestSoftDelete_Errors(t *testing.T) {
	ctx := context.Background()
	_, svc := newService()

	e, err := svc.ManualAdjustment(ctx, id.New(), 916, types.MustWeight("1.000"), "COUNT-1", "tester")
	require.NoError(t, err)

	err = svc.SoftDelete(ctx, e.ID, "")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err), "reason is mandatory")

	require.NoError(t, svc.SoftDelete(ctx, e.ID, "duplicate"))

	err = svc.SoftDelete(ctx, e.ID, "again")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestBalanceAsOf_RespectsCutoffAndDeletions(t *testing.T) {
	ctx := context.Background()
	store, svc := newService()
	itemID := id.New()

	old := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	mk := func(at time.Time, dir entity.Direction, w string) entity.StockEntry {
		base := entity.NewEntryBase(at, entity.SourcePurchase, id.New(), "tester")
		return entity.NewStockEntry(base, itemID, 916, dir, types.MustWeight(w))
	}

	first := mk(old, entity.DirectionIn, "10.000")
	second := mk(recent, entity.DirectionOut, "4.000")
	require.NoError(t, svc.Append(ctx, []entity.StockEntry{first, second}))

	// Cutoff between the two entries sees only the first
	mid := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	w, err := svc.BalanceAsOf(ctx, itemID, 916, mid)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("10.000"), w)

	w, err = svc.BalanceAsOf(ctx, itemID, 916, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("6.000"), w)

	// Deleted entries drop out of the recomputation
	require.NoError(t, svc.SoftDelete(ctx, second.ID, "void"))
	w, err = svc.BalanceAsOf(ctx, itemID, 916, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("10.000"), w)

	// And the cache agrees after the reversal
	bal, err := store.StockLedger().GetBalance(ctx, itemID, 916)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("10.000"), bal.Weight)
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	_, svc := newService()
	itemID := id.New()

	_, err := svc.ManualAdjustment(ctx, itemID, 916, types.MustWeight("3.000"), "COUNT-1", "tester")
	require.NoError(t, err)

	err = svc.CheckAvailability(ctx, []stock.AvailabilityCheck{
		{ItemID: itemID, Purity: 916, Required: types.MustWeight("3.000")},
	})
	require.NoError(t, err)

	err = svc.CheckAvailability(ctx, []stock.AvailabilityCheck{
		{ItemID: itemID, Purity: 916, Required: types.MustWeight("3.001")},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// A purity never stocked reads as zero
	err = svc.CheckAvailability(ctx, []stock.AvailabilityCheck{
		{ItemID: itemID, Purity: 750, Required: types.MustWeight("0.001")},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}
