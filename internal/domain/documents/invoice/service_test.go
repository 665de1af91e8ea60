package invoice_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	appctx "aurum/internal/core/context"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/core/valuation"
	"aurum/internal/domain/catalogs/account"
	"aurum/internal/domain/documents/invoice"
	"aurum/internal/domain/finalize"
	"aurum/internal/domain/ledgers/gold"
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/domain/ledgers/stock"
	"aurum/internal/infrastructure/storage/memory"
)

type env struct {
	store    *memory.Store
	stockSvc *stock.Service
	goldSvc  *gold.Service
	svc      *invoice.Service
	cash     *account.Account
	goldAcc  *account.Account
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
	accounts := account.NewService(store.Accounts(), store, gen)
	svc := invoice.NewService(store.Invoices(), engine, moneySvc, accounts, gen, store, valuation.MustTable())

	cash := account.New("ACC-CASH", "Cash Drawer", account.ClassCash)
	require.NoError(t, store.Accounts().Create(ctx, cash))

	goldAcc := account.New("ACC-GOLD-RECV", "Gold Received", account.ClassGoldReceived)
	goldAcc.System = true
	require.NoError(t, store.Accounts().Create(ctx, goldAcc))

	return ctx, &env{store: store, stockSvc: stockSvc, goldSvc: goldSvc, svc: svc, cash: cash, goldAcc: goldAcc}
}

// seedStock counts weight into item+purity through a manual adjustment.
func seedStock(t *testing.T, ctx context.Context, e *env, itemID id.ID, purity int, weight string) {
	t.Helper()
	_, err := e.stockSvc.ManualAdjustment(ctx, itemID, purity, types.MustWeight(weight), "COUNT-2026-01", "tester")
	require.NoError(t, err)
}

func TestFinalize_RecordsStockOutAndPayment(t *testing.T) {
	ctx, e := newEnv(t)
	itemID := id.New()
	seedStock(t, ctx, e, itemID, 916, "20.000")

	doc := invoice.New(id.Nil())
	doc.WalkInName = "Walk-in buyer"
	doc.AddLine(itemID, 916, types.MustWeight("5.000"), decimal.RequireFromString("0.920"))
	require.NoError(t, e.svc.Create(ctx, doc))
	assert.Regexp(t, `^INV-\d{4}-00001$`, doc.Number)
	assert.Equal(t, "4978.26", doc.TotalAmount.StringFixed(2))

	// Pay in full at finalization
	loaded, err := e.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	loaded.PaidAmount = types.MustMoney("4978.26")
	loaded.PaymentAccountID = e.cash.ID
	loaded.PaymentMode = "cash"
	require.NoError(t, e.svc.Update(ctx, loaded))

	finalized, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, finalized.IsFinalized())
	assert.Equal(t, entity.PaymentPaid, finalized.PaymentStatus)

	entries, err := e.store.StockLedger().GetEntriesBySource(ctx, entity.SourceInvoice, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.DirectionOut, entries[0].Direction)

	bal, err := e.stockSvc.CachedBalance(ctx, itemID, 916)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("15.000"), bal.Weight)

	moneyEntries, err := e.store.MoneyLedger().GetEntriesBySource(ctx, entity.SourceInvoice, doc.ID)
	require.NoError(t, err)
	require.Len(t, moneyEntries, 1)
	assert.Equal(t, entity.MoneyCredit, moneyEntries[0].Direction)
	assert.Equal(t, "sale", moneyEntries[0].Category)

	acc, err := e.store.Accounts().GetByID(ctx, e.cash.ID)
	require.NoError(t, err)
	assert.Equal(t, "4978.26", acc.CurrentBalance.StringFixed(2))
}

func TestFinalize_InsufficientStockKeepsDraft(t *testing.T) {
	ctx, e := newEnv(t)
	itemID := id.New()
	seedStock(t, ctx, e, itemID, 916, "1.000")

	doc := invoice.New(id.Nil())
	doc.WalkInName = "Walk-in buyer"
	doc.AddLine(itemID, 916, types.MustWeight("5.000"), decimal.RequireFromString("0.920"))
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.Finalize(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	entries, err := e.store.StockLedger().GetEntriesBySource(ctx, entity.SourceInvoice, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	bal, err := e.stockSvc.CachedBalance(ctx, itemID, 916)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("1.000"), bal.Weight, "seeded stock is untouched")

	current, err := e.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, current.IsFinalized())
}

func TestFinalize_AdvanceGold(t *testing.T) {
	ctx, e := newEnv(t)
	itemID := id.New()
	customerID := id.New()
	seedStock(t, ctx, e, itemID, 916, "20.000")

	doc := invoice.New(customerID)
	doc.AddLine(itemID, 916, types.MustWeight("5.000"), decimal.RequireFromString("0.920"))
	doc.AdvanceGold = &invoice.AdvanceGold{
		Weight:           types.MustWeight("2.000"),
		PurityEntered:    750, // recorded only, never priced
		ConversionFactor: decimal.RequireFromString("0.917"),
	}
	require.NoError(t, e.svc.Create(ctx, doc))
	assert.Equal(t, "1997.82", doc.AdvanceGold.Amount.StringFixed(2))

	finalized, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, e.goldAcc.ID, finalized.GoldAccountID)
	assert.Equal(t, entity.PaymentPartial, finalized.PaymentStatus)

	goldEntries, err := e.store.GoldLedger().GetEntriesBySource(ctx, entity.SourceInvoice, doc.ID)
	require.NoError(t, err)
	require.Len(t, goldEntries, 1)
	assert.Equal(t, entity.DirectionIn, goldEntries[0].Direction)
	assert.Equal(t, "advance", goldEntries[0].Purpose)
	assert.Equal(t, 750, goldEntries[0].PurityEntered)

	goldBal, err := e.goldSvc.CachedBalance(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("2.000"), goldBal.Weight)

	moneyEntries, err := e.store.MoneyLedger().GetEntriesBySource(ctx, entity.SourceInvoice, doc.ID)
	require.NoError(t, err)
	require.Len(t, moneyEntries, 1)
	assert.Equal(t, entity.MoneyDebit, moneyEntries[0].Direction)
	assert.Equal(t, "sale_gold_received", moneyEntries[0].Category)
	assert.Equal(t, e.goldAcc.ID, moneyEntries[0].AccountID)
	assert.Equal(t, "1997.82", moneyEntries[0].Amount.StringFixed(2))
}

func TestFinalize_AdvanceGoldWithoutSystemAccount(t *testing.T) {
	ctx, e := newEnv(t)
	itemID := id.New()
	seedStock(t, ctx, e, itemID, 916, "20.000")
	require.NoError(t, e.store.Accounts().SetDeletionMark(ctx, e.goldAcc.ID, true))

	doc := invoice.New(id.New())
	doc.AddLine(itemID, 916, types.MustWeight("5.000"), decimal.RequireFromString("0.920"))
	doc.AdvanceGold = &invoice.AdvanceGold{
		Weight:           types.MustWeight("1.000"),
		PurityEntered:    916,
		ConversionFactor: decimal.RequireFromString("0.920"),
	}
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.Finalize(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestFinalize_RollsBackStockOnMoneyFailure(t *testing.T) {
	ctx, e := newEnv(t)
	itemID := id.New()
	seedStock(t, ctx, e, itemID, 916, "20.000")

	doc := invoice.New(id.Nil())
	doc.WalkInName = "Walk-in buyer"
	doc.AddLine(itemID, 916, types.MustWeight("5.000"), decimal.RequireFromString("0.920"))
	doc.PaidAmount = types.MustMoney("100.00")
	doc.PaymentAccountID = id.New() // account does not exist
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.Finalize(ctx, doc.ID)
	require.Error(t, err)

	entries, err := e.store.StockLedger().GetEntriesBySource(ctx, entity.SourceInvoice, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, entries, "stock writes are rolled back with the failed money write")

	bal, err := e.stockSvc.CachedBalance(ctx, itemID, 916)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("20.000"), bal.Weight)

	current, err := e.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, current.IsFinalized())
}

func TestRecordPayment_CountsAdvanceGoldTowardSettlement(t *testing.T) {
	ctx, e := newEnv(t)
	itemID := id.New()
	customerID := id.New()
	seedStock(t, ctx, e, itemID, 916, "20.000")

	doc := invoice.New(customerID)
	doc.AddLine(itemID, 916, types.MustWeight("5.000"), decimal.RequireFromString("0.920"))
	doc.AdvanceGold = &invoice.AdvanceGold{
		Weight:           types.MustWeight("2.000"),
		PurityEntered:    916,
		ConversionFactor: decimal.RequireFromString("0.917"),
	}
	require.NoError(t, e.svc.Create(ctx, doc))

	finalized, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)

	// total 4978.26, advance 1997.82: outstanding 2980.44
	outstanding := finalized.OutstandingAmount()
	assert.Equal(t, "2980.44", outstanding.StringFixed(2))

	// Overpaying the outstanding amount is rejected
	_, err = e.svc.RecordPayment(ctx, doc.ID, e.cash.ID, outstanding.Add(types.MustMoney("0.01")), "cash", "")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	paid, err := e.svc.RecordPayment(ctx, doc.ID, e.cash.ID, outstanding, "cash", "settlement")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, paid.PaymentStatus)

	// Settled invoices take no further payments
	_, err = e.svc.RecordPayment(ctx, doc.ID, e.cash.ID, types.MustMoney("1.00"), "cash", "")
	require.Error(t, err)
}

func TestRecordPayment_RequiresFinalizedDocument(t *testing.T) {
	ctx, e := newEnv(t)
	itemID := id.New()

	doc := invoice.New(id.Nil())
	doc.WalkInName = "Walk-in buyer"
	doc.AddLine(itemID, 916, types.MustWeight("1.000"), decimal.RequireFromString("0.920"))
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.RecordPayment(ctx, doc.ID, e.cash.ID, types.MustMoney("10.00"), "cash", "")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}
