package purchase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurum/internal/core/apperror"
	appctx "aurum/internal/core/context"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/numerator"
	"aurum/internal/core/types"
	"aurum/internal/core/valuation"
	"aurum/internal/domain/catalogs/account"
	"aurum/internal/domain/documents/purchase"
	"aurum/internal/domain/finalize"
	"aurum/internal/domain/ledgers/gold"
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/domain/ledgers/stock"
	"aurum/internal/infrastructure/storage/memory"
)

type env struct {
	store    *memory.Store
	stockSvc *stock.Service
	moneySvc *money.Service
	goldSvc  *gold.Service
	svc      *purchase.Service
	cash     *account.Account
	payable  *account.Account
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
	svc := purchase.NewService(store.Purchases(), engine, moneySvc, accounts, gen, store, valuation.MustTable())

	cash := account.New("ACC-CASH", "Cash Drawer", account.ClassCash)
	require.NoError(t, store.Accounts().Create(ctx, cash))

	payable := account.New("ACC-PAYABLE", "Supplier Payables", account.ClassPayable)
	payable.System = true
	require.NoError(t, store.Accounts().Create(ctx, payable))

	return ctx, &env{
		store:    store,
		stockSvc: stockSvc,
		moneySvc: moneySvc,
		goldSvc:  goldSvc,
		svc:      svc,
		cash:     cash,
		payable:  payable,
	}
}

func draftPurchase(e *env, itemID id.ID) *purchase.Purchase {
	doc := purchase.New(id.Nil())
	doc.WalkInName = "Walk-in seller"
	doc.AddLine(itemID, 916, types.MustWeight("10.000"), decimal.RequireFromString("0.920"))
	return doc
}

func TestFinalize_RecordsStockAndPayment(t *testing.T) {
	ctx, e := newEnv(t)
	itemID := id.New()

	doc := draftPurchase(e, itemID)
	doc.AddLine(itemID, 750, types.MustWeight("5.000"), decimal.RequireFromString("0.917"))
	doc.PaidAmount = types.MustMoney("1000.00")
	doc.PaymentAccountID = e.cash.ID
	doc.PaymentMode = "cash"

	require.NoError(t, e.svc.Create(ctx, doc))
	assert.Regexp(t, `^PUR-\d{4}-00001$`, doc.Number)

	// Amounts derive from the valuation formula regardless of entered purity
	assert.Equal(t, "9956.52", doc.Lines[0].Amount.StringFixed(2))
	assert.Equal(t, "4994.55", doc.Lines[1].Amount.StringFixed(2))
	assert.Equal(t, "14951.07", doc.TotalAmount.StringFixed(2))

	finalized, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, finalized.IsFinalized())
	assert.Equal(t, entity.PaymentPartial, finalized.PaymentStatus)
	assert.Equal(t, "tester", finalized.FinalizedBy)

	entries, err := e.store.StockLedger().GetEntriesBySource(ctx, entity.SourcePurchase, doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, se := range entries {
		assert.Equal(t, entity.DirectionIn, se.Direction)
	}

	bal916, err := e.stockSvc.CachedBalance(ctx, itemID, 916)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("10.000"), bal916.Weight)

	// Two money legs: the amount owed on the payables account and the
	// counter payment on the cash account
	moneyEntries, err := e.store.MoneyLedger().GetEntriesBySource(ctx, entity.SourcePurchase, doc.ID)
	require.NoError(t, err)
	require.Len(t, moneyEntries, 2)
	byCategory := map[string]entity.MoneyEntry{}
	for _, me := range moneyEntries {
		assert.Equal(t, entity.MoneyDebit, me.Direction)
		assert.NotEmpty(t, me.Number)
		byCategory[me.Category] = me
	}

	owed, ok := byCategory["purchase"]
	require.True(t, ok)
	assert.Equal(t, e.payable.ID, owed.AccountID)
	assert.Equal(t, "14951.07", owed.Amount.StringFixed(2))

	paid, ok := byCategory["purchase_payment"]
	require.True(t, ok)
	assert.Equal(t, e.cash.ID, paid.AccountID)
	assert.Equal(t, "1000.00", paid.Amount.StringFixed(2))

	acc, err := e.store.Accounts().GetByID(ctx, e.cash.ID)
	require.NoError(t, err)
	assert.Equal(t, "-1000.00", acc.CurrentBalance.StringFixed(2))

	payableAcc, err := e.store.Accounts().GetByID(ctx, e.payable.ID)
	require.NoError(t, err)
	assert.Equal(t, "-14951.07", payableAcc.CurrentBalance.StringFixed(2))
}

func TestFinalize_UnpaidPurchaseRecordsAmountOwed(t *testing.T) {
	ctx, e := newEnv(t)
	doc := draftPurchase(e, id.New())
	require.NoError(t, e.svc.Create(ctx, doc))

	finalized, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentUnpaid, finalized.PaymentStatus)

	// The debt reaches the money ledger even without a counter payment
	moneyEntries, err := e.store.MoneyLedger().GetEntriesBySource(ctx, entity.SourcePurchase, doc.ID)
	require.NoError(t, err)
	require.Len(t, moneyEntries, 1)
	assert.Equal(t, entity.MoneyDebit, moneyEntries[0].Direction)
	assert.Equal(t, "purchase", moneyEntries[0].Category)
	assert.Equal(t, e.payable.ID, moneyEntries[0].AccountID)
	assert.Equal(t, "9956.52", moneyEntries[0].Amount.StringFixed(2))

	payableAcc, err := e.store.Accounts().GetByID(ctx, e.payable.ID)
	require.NoError(t, err)
	assert.Equal(t, "-9956.52", payableAcc.CurrentBalance.StringFixed(2))
}

func TestFinalize_WithoutPayablesAccount(t *testing.T) {
	ctx, e := newEnv(t)
	require.NoError(t, e.store.Accounts().SetDeletionMark(ctx, e.payable.ID, true))

	doc := draftPurchase(e, id.New())
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.Finalize(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestFinalize_GoldSettlement(t *testing.T) {
	ctx, e := newEnv(t)
	supplierID := id.New()
	itemID := id.New()

	doc := purchase.New(supplierID)
	doc.AddLine(itemID, 916, types.MustWeight("5.000"), decimal.RequireFromString("0.917"))
	doc.GoldSettlement = &purchase.GoldSettlement{
		Weight:           types.MustWeight("2.000"),
		PurityEntered:    750,
		ConversionFactor: decimal.RequireFromString("0.917"),
	}
	require.NoError(t, e.svc.Create(ctx, doc))
	assert.Equal(t, "1997.82", doc.GoldSettlementAmount().StringFixed(2))

	finalized, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPartial, finalized.PaymentStatus)
	assert.Equal(t, "2996.73", finalized.OutstandingAmount().StringFixed(2))

	goldEntries, err := e.store.GoldLedger().GetEntriesBySource(ctx, entity.SourcePurchase, doc.ID)
	require.NoError(t, err)
	require.Len(t, goldEntries, 1)
	assert.Equal(t, entity.DirectionOut, goldEntries[0].Direction)
	assert.Equal(t, "settlement", goldEntries[0].Purpose)
	assert.Equal(t, 750, goldEntries[0].PurityEntered)

	// The handed-over gold moves the supplier balance; it may go negative
	bal, err := e.goldSvc.CachedBalance(ctx, supplierID)
	require.NoError(t, err)
	assert.Equal(t, types.MustWeight("-2.000"), bal.Weight)

	// The settlement value counts toward what was paid
	rest := finalized.OutstandingAmount()
	paid, err := e.svc.RecordPayment(ctx, doc.ID, e.cash.ID, rest, "cash", "settlement")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, paid.PaymentStatus)
}

func TestFinalize_SecondCallLoses(t *testing.T) {
	ctx, e := newEnv(t)
	doc := draftPurchase(e, id.New())
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)

	_, err = e.svc.Finalize(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsAlreadyFinalized(err))

	// No duplicate entries from the losing call
	entries, err := e.store.StockLedger().GetEntriesBySource(ctx, entity.SourcePurchase, doc.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFinalize_ConcurrentSingleWinner(t *testing.T) {
	ctx, e := newEnv(t)
	doc := draftPurchase(e, id.New())
	require.NoError(t, e.svc.Create(ctx, doc))

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.svc.Finalize(ctx, doc.ID)
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case apperror.IsAlreadyFinalized(err):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, losses)

	entries, err := e.store.StockLedger().GetEntriesBySource(ctx, entity.SourcePurchase, doc.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "exactly one winner writes entries")
}

func TestFinalize_RefusesWhenLedgerHoldsEntries(t *testing.T) {
	ctx, e := newEnv(t)
	itemID := id.New()
	doc := draftPurchase(e, itemID)
	require.NoError(t, e.svc.Create(ctx, doc))

	// An entry already tagged to the document, while its lock flag still
	// says draft: the ledger check must refuse a second write
	base := entity.NewEntryBase(time.Now().UTC(), entity.SourcePurchase, doc.ID, "tester")
	stray := entity.NewStockEntry(base, itemID, 916, entity.DirectionIn, types.MustWeight("1.000"))
	require.NoError(t, e.stockSvc.Append(ctx, []entity.StockEntry{stray}))

	_, err := e.svc.Finalize(ctx, doc.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsAlreadyFinalized(err))

	// Nothing beyond the pre-existing entry, and the document stays a draft
	entries, err := e.store.StockLedger().GetEntriesBySource(ctx, entity.SourcePurchase, doc.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	current, err := e.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, current.IsFinalized())
}

func TestFinalize_RollsBackOnLedgerFailure(t *testing.T) {
	ctx, e := newEnv(t)
	itemID := id.New()

	doc := draftPurchase(e, itemID)
	doc.PaidAmount = types.MustMoney("500.00")
	doc.PaymentAccountID = id.New() // account does not exist
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.Finalize(ctx, doc.ID)
	require.Error(t, err)

	// The stock write that preceded the money failure must be rolled back
	entries, err := e.store.StockLedger().GetEntriesBySource(ctx, entity.SourcePurchase, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	bal, err := e.stockSvc.CachedBalance(ctx, itemID, 916)
	require.NoError(t, err)
	assert.True(t, bal.Weight.IsZero())

	current, err := e.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, current.IsFinalized(), "document stays a draft after rollback")
}

func TestRecordPayment_MovesPaymentStatus(t *testing.T) {
	ctx, e := newEnv(t)
	doc := draftPurchase(e, id.New())
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)

	paid, err := e.svc.RecordPayment(ctx, doc.ID, e.cash.ID, types.MustMoney("5000.00"), "cash", "first installment")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPartial, paid.PaymentStatus)

	rest := paid.OutstandingAmount()
	paid, err = e.svc.RecordPayment(ctx, doc.ID, e.cash.ID, rest, "bank", "settlement")
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPaid, paid.PaymentStatus)

	// Fully paid documents reject further payments
	_, err = e.svc.RecordPayment(ctx, doc.ID, e.cash.ID, types.MustMoney("0.01"), "cash", "")
	require.Error(t, err)
}

func TestRecordPayment_RequiresFinalizedDocument(t *testing.T) {
	ctx, e := newEnv(t)
	doc := draftPurchase(e, id.New())
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.RecordPayment(ctx, doc.ID, e.cash.ID, types.MustMoney("10.00"), "cash", "")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestUpdate_FinalizedDocumentRejected(t *testing.T) {
	ctx, e := newEnv(t)
	doc := draftPurchase(e, id.New())
	require.NoError(t, e.svc.Create(ctx, doc))

	_, err := e.svc.Finalize(ctx, doc.ID)
	require.NoError(t, err)

	current, err := e.svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	current.Comment = "late edit"
	err = e.svc.Update(ctx, current)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDocumentLocked, appErr.Code)
}

func TestCreate_NumberGenerationFailure(t *testing.T) {
	ctx, e := newEnv(t)

	gen := &numerator.MockGenerator{
		GetNextNumberFunc: func(context.Context, numerator.Config, *numerator.Options, time.Time) (string, error) {
			return "", errors.New("sequence unavailable")
		},
	}
	stockSvc := stock.NewService(e.store.StockLedger(), e.store)
	moneySvc := money.NewService(e.store.MoneyLedger(), e.store, gen)
	goldSvc := gold.NewService(e.store.GoldLedger(), e.store)
	engine := finalize.NewEngine(e.store, stockSvc, moneySvc, goldSvc, nil)
	accounts := account.NewService(e.store.Accounts(), e.store, gen)
	svc := purchase.NewService(e.store.Purchases(), engine, moneySvc, accounts, gen, e.store, valuation.MustTable())

	doc := draftPurchase(e, id.New())
	err := svc.Create(ctx, doc)
	require.Error(t, err)
	assert.ErrorContains(t, err, "generate number")
}

func TestCreate_RequiresLines(t *testing.T) {
	ctx, e := newEnv(t)

	doc := purchase.New(id.Nil())
	doc.WalkInName = "Walk-in seller"
	err := e.svc.Create(ctx, doc)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}
