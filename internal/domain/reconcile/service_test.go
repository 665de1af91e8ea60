package reconcile_test

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
	"aurum/internal/domain/catalogs/account"
	"aurum/internal/domain/ledgers/gold"
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/domain/ledgers/stock"
	"aurum/internal/domain/reconcile"
	"aurum/internal/infrastructure/storage/memory"
)

type env struct {
	store    *memory.Store
	stockSvc *stock.Service
	moneySvc *money.Service
	goldSvc  *gold.Service
	svc      *reconcile.Service
	cash     *account.Account
}

func newEnv(t *testing.T) (context.Context, *env) {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	gen := memory.NewSequences()
	e := &env{
		store:    store,
		stockSvc: stock.NewService(store.StockLedger(), store),
		moneySvc: money.NewService(store.MoneyLedger(), store, gen),
		goldSvc:  gold.NewService(store.GoldLedger(), store),
		svc:      reconcile.NewService(store.StockLedger(), store.MoneyLedger(), store.GoldLedger(), store.Accounts()),
	}

	e.cash = account.New("ACC-CASH", "Cash Drawer", account.ClassCash)
	e.cash.OpeningBalance = types.MustMoney("1000.00")
	e.cash.CurrentBalance = types.MustMoney("1000.00")
	require.NoError(t, store.Accounts().Create(ctx, e.cash))

	return ctx, e
}

// seed writes one consistent movement into each ledger.
func seed(t *testing.T, ctx context.Context, e *env) (itemID, partyID id.ID) {
	t.Helper()
	itemID, partyID = id.New(), id.New()

	_, err := e.stockSvc.ManualAdjustment(ctx, itemID, 916, types.MustWeight("12.000"), "COUNT-1", "tester")
	require.NoError(t, err)

	base := entity.NewEntryBase(time.Now().UTC(), entity.SourcePayment, id.New(), "tester")
	me := entity.NewMoneyEntry(base, e.cash.ID, entity.MoneyCredit, types.MustMoney("250.00"))
	me.Category = "sale_payment"
	require.NoError(t, e.moneySvc.Append(ctx, []entity.MoneyEntry{me}))

	_, err = e.goldSvc.ManualAdjustment(ctx, partyID, types.MustWeight("3.000"), "COUNT-2", "tester")
	require.NoError(t, err)

	return itemID, partyID
}

func TestSystemStatus_Healthy(t *testing.T) {
	ctx, e := newEnv(t)
	seed(t, ctx, e)

	status, err := e.svc.SystemStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy())
	assert.Empty(t, status.Stock.Mismatches)
	assert.Empty(t, status.Money.Mismatches)
	assert.Empty(t, status.Gold.Mismatches)
	assert.Equal(t, 1, status.Stock.RowsChecked)
	assert.Equal(t, 1, status.Money.RowsChecked)
	assert.Equal(t, 1, status.Gold.RowsChecked)
}

func TestReconcileStock_DetectsDrift(t *testing.T) {
	ctx, e := newEnv(t)
	itemID, _ := seed(t, ctx, e)

	// Move the cache without a matching entry
	err := e.store.StockLedger().ApplyBalanceDelta(ctx, itemID, 916, types.MustWeight("0.500"), time.Now().UTC())
	require.NoError(t, err)

	report, err := e.svc.ReconcileStock(ctx)
	require.NoError(t, err)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "12.500", report.Mismatches[0].Cached)
	assert.Equal(t, "12.000", report.Mismatches[0].Computed)
	assert.Equal(t, "0.500", report.Mismatches[0].Delta)

	status, err := e.svc.SystemStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Healthy())
}

func TestReconcileMoney_DetectsDrift(t *testing.T) {
	ctx, e := newEnv(t)
	seed(t, ctx, e)

	// Cached balance drifts away from opening + entries
	err := e.store.MoneyLedger().ApplyAccountDelta(ctx, e.cash.ID, types.MustMoney("-100.00"))
	require.NoError(t, err)

	report, err := e.svc.ReconcileMoney(ctx)
	require.NoError(t, err)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, e.cash.ID.String(), report.Mismatches[0].Scope)
	assert.Equal(t, "1150", report.Mismatches[0].Cached)
	assert.Equal(t, "1250", report.Mismatches[0].Computed)
}

func TestReconcileMoney_CoversDeletedAccounts(t *testing.T) {
	ctx, e := newEnv(t)
	seed(t, ctx, e)

	require.NoError(t, e.store.Accounts().SetDeletionMark(ctx, e.cash.ID, true))
	err := e.store.MoneyLedger().ApplyAccountDelta(ctx, e.cash.ID, types.MustMoney("-1.00"))
	require.NoError(t, err)

	report, err := e.svc.ReconcileMoney(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Mismatches, 1, "deleted accounts are still reconciled")
}

func TestReconcileGold_DetectsDrift(t *testing.T) {
	ctx, e := newEnv(t)
	_, partyID := seed(t, ctx, e)

	err := e.store.GoldLedger().ApplyBalanceDelta(ctx, partyID, types.MustWeight("-1.000"), time.Now().UTC())
	require.NoError(t, err)

	report, err := e.svc.ReconcileGold(ctx)
	require.NoError(t, err)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "2.000", report.Mismatches[0].Cached)
	assert.Equal(t, "3.000", report.Mismatches[0].Computed)
}

func TestPreviewDelete_Stock(t *testing.T) {
	ctx, e := newEnv(t)

	itemID := id.New()
	entry, err := e.stockSvc.ManualAdjustment(ctx, itemID, 916, types.MustWeight("8.000"), "COUNT-1", "tester")
	require.NoError(t, err)

	impact, err := e.svc.PreviewDelete(ctx, entity.LedgerStock, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "8.000", impact.Contribution)
	assert.Equal(t, "8.000", impact.BalanceBefore)
	assert.Equal(t, "0.000", impact.BalanceAfter)
	assert.False(t, impact.AlreadyDeleted)
	assert.Equal(t, entity.SourceManualAdjustment, impact.SourceKind)

	// Preview never mutates anything
	bal, err := e.stockSvc.CachedBalance(ctx, itemID, 916)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("8.000"), bal.Weight)

	// After the actual delete, the preview reports the entry as spent
	require.NoError(t, e.stockSvc.SoftDelete(ctx, entry.ID, "miscount"))
	impact, err = e.svc.PreviewDelete(ctx, entity.LedgerStock, entry.ID)
	require.NoError(t, err)
	assert.True(t, impact.AlreadyDeleted)
	assert.Equal(t, impact.BalanceBefore, impact.BalanceAfter)
}

func TestPreviewDelete_Money(t *testing.T) {
	ctx, e := newEnv(t)

	base := entity.NewEntryBase(time.Now().UTC(), entity.SourcePayment, id.New(), "tester")
	me := entity.NewMoneyEntry(base, e.cash.ID, entity.MoneyDebit, types.MustMoney("300.00"))
	me.Category = "purchase_payment"
	require.NoError(t, e.moneySvc.Append(ctx, []entity.MoneyEntry{me}))

	impact, err := e.svc.PreviewDelete(ctx, entity.LedgerMoney, me.ID)
	require.NoError(t, err)
	assert.Equal(t, "-300", impact.Contribution)
	assert.Equal(t, "700", impact.BalanceBefore)
	assert.Equal(t, "1000", impact.BalanceAfter)
}

func TestPreviewDelete_UnknownKind(t *testing.T) {
	ctx, e := newEnv(t)

	_, err := e.svc.PreviewDelete(ctx, entity.LedgerKind("receivables"), id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	_, err = e.svc.PreviewDelete(ctx, entity.LedgerStock, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
