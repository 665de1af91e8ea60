package money_test

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
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/infrastructure/storage/memory"
)

func newService(t *testing.T) (context.Context, *memory.Store, *money.Service, *account.Account) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	svc := money.NewService(store.MoneyLedger(), store, memory.NewSequences())

	cash := account.New("ACC-CASH", "Cash Drawer", account.ClassCash)
	require.NoError(t, store.Accounts().Create(ctx, cash))
	return ctx, store, svc, cash
}

func entry(accountID id.ID, dir entity.MoneyDirection, amount string) entity.MoneyEntry {
	base := entity.NewEntryBase(time.Now().UTC(), entity.SourcePayment, id.New(), "tester")
	e := entity.NewMoneyEntry(base, accountID, dir, types.MustMoney(amount))
	e.Category = "sale_payment"
	return e
}

func TestAppend_AssignsTransactionNumbers(t *testing.T) {
	ctx, store, svc, cash := newService(t)

	first := entry(cash.ID, entity.MoneyCredit, "100.00")
	second := entry(cash.ID, entity.MoneyDebit, "40.00")
	require.NoError(t, svc.Append(ctx, []entity.MoneyEntry{first, second}))

	entries, err := svc.History(ctx, money.EntryFilter{AccountID: &cash.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	numbers := map[string]bool{}
	for _, e := range entries {
		assert.Regexp(t, `^TXN-\d{5}$`, e.Number)
		numbers[e.Number] = true
	}
	assert.Len(t, numbers, 2, "numbers are unique")

	acc, err := store.Accounts().GetByID(ctx, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, "60.00", acc.CurrentBalance.StringFixed(2))
}

func TestAppend_KeepsExplicitNumber(t *testing.T) {
	ctx, _, svc, cash := newService(t)

	e := entry(cash.ID, entity.MoneyCredit, "10.00")
	e.Number = "TXN-MIGRATED-7"
	require.NoError(t, svc.Append(ctx, []entity.MoneyEntry{e}))

	entries, err := svc.History(ctx, money.EntryFilter{AccountID: &cash.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "TXN-MIGRATED-7", entries[0].Number)
}

func TestAppend_UnknownAccount(t *testing.T) {
	ctx, _, svc, _ := newService(t)
	unknown := id.New()

	err := svc.Append(ctx, []entity.MoneyEntry{entry(unknown, entity.MoneyCredit, "10.00")})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	// The failed delta rolls the insert back: no orphan transaction survives
	entries, err := svc.History(ctx, money.EntryFilter{AccountID: &unknown, IncludeDeleted: true})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSoftDelete_ReversesAccountBalance(t *testing.T) {
	ctx, store, svc, cash := newService(t)

	e := entry(cash.ID, entity.MoneyCredit, "250.00")
	entries := []entity.MoneyEntry{e}
	require.NoError(t, svc.Append(ctx, entries))

	require.NoError(t, svc.SoftDelete(ctx, entries[0].ID, "voided receipt"))

	acc, err := store.Accounts().GetByID(ctx, cash.ID)
	require.NoError(t, err)
	assert.True(t, acc.CurrentBalance.IsZero())

	err = svc.SoftDelete(ctx, entries[0].ID, "again")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
}

func TestManualAdjustment_RequiresAuditRef(t *testing.T) {
	ctx, _, svc, cash := newService(t)

	_, err := svc.ManualAdjustment(ctx, cash.ID, entity.MoneyDebit, types.MustMoney("5.00"), "", "typo fix", "tester")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))

	adj, err := svc.ManualAdjustment(ctx, cash.ID, entity.MoneyDebit, types.MustMoney("5.00"), "AUDIT-17", "typo fix", "tester")
	require.NoError(t, err)
	assert.Equal(t, "adjustment", adj.Category)
	assert.NotEmpty(t, adj.Number)
}

func TestBalanceAsOf_IncludesOpeningBalance(t *testing.T) {
	ctx, store, svc, _ := newService(t)

	acc := account.New("ACC-BANK", "Bank", account.ClassBank)
	acc.OpeningBalance = types.MustMoney("500.00")
	acc.CurrentBalance = types.MustMoney("500.00")
	require.NoError(t, store.Accounts().Create(ctx, acc))

	require.NoError(t, svc.Append(ctx, []entity.MoneyEntry{entry(acc.ID, entity.MoneyCredit, "120.00")}))

	got, err := svc.BalanceAsOf(ctx, acc.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, "620.00", got.StringFixed(2))
}

func TestBalanceDelta_SymmetricAcrossClassifications(t *testing.T) {
	ctx, store, svc, _ := newService(t)

	classes := []account.Classification{
		account.ClassCash,
		account.ClassBank,
		account.ClassCustomer,
		account.ClassSupplier,
		account.ClassIncome,
		account.ClassExpense,
		account.ClassGoldReceived,
		account.ClassPayable,
		account.ClassOther,
	}

	for _, class := range classes {
		t.Run(string(class), func(t *testing.T) {
			acc := account.New("ACC-SYM-"+string(class), "Sym "+string(class), class)
			require.NoError(t, store.Accounts().Create(ctx, acc))

			// A credit of X always adds exactly X
			require.NoError(t, svc.Append(ctx, []entity.MoneyEntry{entry(acc.ID, entity.MoneyCredit, "75.00")}))
			got, err := store.Accounts().GetByID(ctx, acc.ID)
			require.NoError(t, err)
			assert.Equal(t, "75.00", got.CurrentBalance.StringFixed(2))

			// A debit of X always subtracts exactly X
			require.NoError(t, svc.Append(ctx, []entity.MoneyEntry{entry(acc.ID, entity.MoneyDebit, "75.00")}))
			got, err = store.Accounts().GetByID(ctx, acc.ID)
			require.NoError(t, err)
			assert.True(t, got.CurrentBalance.IsZero())

			computed, err := svc.BalanceAsOf(ctx, acc.ID, time.Now().UTC().Add(time.Minute))
			require.NoError(t, err)
			assert.True(t, computed.IsZero())
		})
	}
}
