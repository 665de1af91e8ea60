package returns_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	appctx "aurum/internal/core/context"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/catalogs/account"
	"aurum/internal/domain/documents/returns"
	"aurum/internal/domain/finalize"
	"aurum/internal/domain/ledgers/gold"
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/domain/ledgers/stock"
	"aurum/internal/infrastructure/storage/memory"
)

type env struct {
	store   *memory.Store
	goldSvc *gold.Service
	svc     *returns.Service
	cash    *account.Account
}

func newEnv(t *testing.T) (context.Context, *env) {
	t.Helper()
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "tester"})

	store := memory.NewStore()
	gen := memory.NewSequences()
	stockSvc := stock.NewService(store.StockLedger(), store)
	moneySvc := money.NewService(store.MoneyLedger(), store, gen)
	goldSvc := gold.NewService(store.GoldLedger(), store)
	engine := finalize.NewEngine(store, stockSvc, moneySvc, goldSvc, nil)
	svc := returns.NewService(store.Returns(), engine, gen, store)

	cash := account.New("ACC-CASH", "Cash Drawer", account.ClassCash)
	require.NoError(t, store.Accounts().Create(ctx, cash))

	return ctx, &env{store: store, goldSvc: goldSvc, svc: svc, cash: cash}
}

func draftReturn(e *env, kind returns.Kind, partyID id.ID) *returns.Return {
	doc := returns.New(kind, partyID)
	if id.IsNil(partyID) {
		doc.WalkInName = "Walk-in"
	}
	doc.AddLine(id.New(), 916, types.MustWeight("3.000"))
	doc.RefundAmount = types.MustMoney("2500.00")
	doc.AccountID = e.cash.ID
	doc.RefundMode = "cash"
	doc.Reason = "stone missing"
	return doc
}

func TestFinalize_SaleReturn(t *testing.T) {
	ctx, e := newEnv(t)

	doc := draftReturn(e, returns.KindSale, id.Nil())
	require.NoError(t, e.svc.Create(ctx, doc))
	assert.Regexp(t, `^RET-\d{4}-00001$`, doc.Number)

	finalized, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, finalized.IsFinalized())
	assert.True(t, finalized.InventoryActionRequired)
	assert.Equal(t, entity.PaymentPaid, finalized.PaymentStatus)

	// A return never touches the stock ledger
	stockEntries, err := e.store.StockLedger().GetEntriesBySource(ctx, entity.SourceReturn, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, stockEntries)

	moneyEntries, err := e.store.MoneyLedger().GetEntriesBySource(ctx, entity.SourceReturn, doc.ID)
	require.NoError(t, err)
	require.Len(t, moneyEntries, 1, "exactly one refund entry")
	assert.Equal(t, entity.MoneyDebit, moneyEntries[0].Direction)
	assert.Equal(t, "sales_return", moneyEntries[0].Category)
	assert.Equal(t, "2500.00", moneyEntries[0].Amount.StringFixed(2))

	acc, err := e.store.Accounts().GetByID(ctx, e.cash.ID)
	require.NoError(t, err)
	assert.Equal(t, "-2500.00", acc.CurrentBalance.StringFixed(2))
}

func TestFinalize_PurchaseReturnCreditsMoney(t *testing.T) {
	ctx, e := newEnv(t)

	doc := draftReturn(e, returns.KindPurchase, id.New())
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)

	moneyEntries, err := e.store.MoneyLedger().GetEntriesBySource(ctx, entity.SourceReturn, doc.ID)
	require.NoError(t, err)
	require.Len(t, moneyEntries, 1)
	assert.Equal(t, entity.MoneyCredit, moneyEntries[0].Direction)
	assert.Equal(t, "purchase_return", moneyEntries[0].Category)

	acc, err := e.store.Accounts().GetByID(ctx, e.cash.ID)
	require.NoError(t, err)
	assert.Equal(t, "2500.00", acc.CurrentBalance.StringFixed(2))
}

func TestFinalize_GoldRefundOnSaleReturn(t *testing.T) {
	ctx, e := newEnv(t)
	partyID := id.New()

	doc := draftReturn(e, returns.KindSale, partyID)
	doc.GoldRefund = &returns.GoldRefund{Weight: types.MustWeight("1.500"), PurityEntered: 750}
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)

	goldEntries, err := e.store.GoldLedger().GetEntriesBySource(ctx, entity.SourceReturn, doc.ID)
	require.NoError(t, err)
	require.Len(t, goldEntries, 1)
	assert.Equal(t, entity.DirectionOut, goldEntries[0].Direction)
	assert.Equal(t, 750, goldEntries[0].PurityEntered)

	bal, err := e.goldSvc.CachedBalance(ctx, partyID)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("-1.500"), bal.Weight, "gold balances may go negative")
}

func TestFinalize_SecondCallLoses(t *testing.T) {
	ctx, e := newEnv(t)

	doc := draftReturn(e, returns.KindSale, id.Nil())
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)

	_, err = e.svc.Finalize(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsAlreadyFinalized(err))

	moneyEntries, err := e.store.MoneyLedger().GetEntriesBySource(ctx, entity.SourceReturn, doc.ID)
	require.NoError(t, err)
	assert.Len(t, moneyEntries, 1)
}

func TestResolveInventoryAction(t *testing.T) {
	ctx, e := newEnv(t)

	doc := draftReturn(e, returns.KindSale, id.Nil())
	require.NoError(t, e.svc.Create(ctx, doc))

	// Cannot resolve a draft
	_, err := e.svc.ResolveInventoryAction(ctx, doc.ID, "counted")
	require.Error(t, err)

	_, err = e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)

	resolved, err := e.svc.ResolveInventoryAction(ctx, doc.ID, "item scrapped after inspection")
	require.NoError(t, err)
	assert.False(t, resolved.InventoryActionRequired)

	// Resolving twice is an error
	_, err = e.svc.ResolveInventoryAction(ctx, doc.ID, "again")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestCreate_RequiresRefundAccount(t *testing.T) {
	ctx, e := newEnv(t)

	doc := returns.New(returns.KindSale, id.New())
	doc.AddLine(id.New(), 916, types.MustWeight("1.000"))
	doc.RefundAmount = types.MustMoney("100.00")
	err := e.svc.Create(ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}
