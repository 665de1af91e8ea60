package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/infrastructure/storage/postgres"
)

const moneyEntriesTable = "money_entries"

var moneyEntryColumns = []string{
	"id", "period", "source_kind", "source_id", "audit_ref",
	"created_by", "created_at", "deletion_mark", "delete_reason", "deleted_at",
	"account_id", "party_id", "direction", "amount",
	"number", "category", "mode", "notes",
}

// MoneyRepo implements money.Repository.
type MoneyRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMoneyRepo creates a new money ledger repository.
func NewMoneyRepo(txm *postgres.TxManager) *MoneyRepo {
	return &MoneyRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ money.Repository = (*MoneyRepo)(nil)

// CreateEntries batch inserts entries. Uses COPY when inside a transaction.
func (r *MoneyRepo) CreateEntries(ctx context.Context, entries []entity.MoneyEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txm.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, moneyEntryValues(e))
		}
		if _, err := inserter.CopyFromSlice(ctx, moneyEntriesTable, moneyEntryColumns, rows); err != nil {
			return fmt.Errorf("copy money entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(moneyEntriesTable).Columns(moneyEntryColumns...)
	for _, e := range entries {
		q = q.Values(moneyEntryValues(e)...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert money entries: %w", err)
	}
	return nil
}

func moneyEntryValues(e entity.MoneyEntry) []any {
	return []any{
		e.ID, e.Period, e.SourceKind, e.SourceID, e.AuditRef,
		e.CreatedBy, e.CreatedAt, e.DeletionMark, e.DeleteReason, e.DeletedAt,
		e.AccountID, nullableID(e.PartyID), e.Direction, e.Amount,
		e.Number, e.Category, e.Mode, e.Notes,
	}
}

// nullableID maps the zero id to SQL NULL for optional reference columns.
func nullableID(v id.ID) any {
	if id.IsNil(v) {
		return nil
	}
	return v
}

// GetEntry retrieves a single entry by id (including soft-deleted rows).
func (r *MoneyRepo) GetEntry(ctx context.Context, entryID id.ID) (entity.MoneyEntry, error) {
	var e entity.MoneyEntry

	q := r.builder.Select(moneyEntryColumns...).
		From(moneyEntriesTable).
		Where(squirrel.Eq{"id": entryID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound("money entry", entryID)
		}
		return e, fmt.Errorf("get money entry: %w", err)
	}
	return e, nil
}

// GetEntriesBySource retrieves all entries produced by a document.
func (r *MoneyRepo) GetEntriesBySource(ctx context.Context, sourceKind entity.SourceKind, sourceID id.ID) ([]entity.MoneyEntry, error) {
	q := r.builder.Select(moneyEntryColumns...).
		From(moneyEntriesTable).
		Where(squirrel.Eq{
			"source_kind": sourceKind,
			"source_id":   sourceID,
		}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.MoneyEntry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select money entries: %w", err)
	}
	return entries, nil
}

// MarkEntryDeleted sets the soft-delete flag. The row is preserved.
func (r *MoneyRepo) MarkEntryDeleted(ctx context.Context, entryID id.ID, reason string, deletedAt time.Time) error {
	q := r.builder.Update(moneyEntriesTable).
		Set("deletion_mark", true).
		Set("delete_reason", reason).
		Set("deleted_at", deletedAt).
		Where(squirrel.Eq{"id": entryID, "deletion_mark": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark money entry deleted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("money entry", entryID)
	}
	return nil
}

// ListEntries returns transaction history matching the filter.
func (r *MoneyRepo) ListEntries(ctx context.Context, filter money.EntryFilter) ([]entity.MoneyEntry, error) {
	q := r.builder.Select(moneyEntryColumns...).From(moneyEntriesTable)

	if filter.AccountID != nil {
		q = q.Where(squirrel.Eq{"account_id": *filter.AccountID})
	}
	if filter.PartyID != nil {
		q = q.Where(squirrel.Eq{"party_id": *filter.PartyID})
	}
	if filter.SourceKind != nil {
		q = q.Where(squirrel.Eq{"source_kind": *filter.SourceKind})
	}
	if filter.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": *filter.Direction})
	}
	if filter.Category != nil {
		q = q.Where(squirrel.Eq{"category": *filter.Category})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}
	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	q = q.OrderBy("period DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.MoneyEntry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select money entries: %w", err)
	}
	return entries, nil
}

// ApplyAccountDelta adjusts the cached account balance. Must run in the
// same transaction as the entry insert it mirrors. Credit is positive,
// debit negative, uniformly across account classifications.
func (r *MoneyRepo) ApplyAccountDelta(ctx context.Context, accountID id.ID, delta types.Money) error {
	sql := `
		UPDATE accounts
		SET current_balance = current_balance + $2,
		    updated_at = now()
		WHERE id = $1
	`

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, accountID, delta)
	if err != nil {
		return fmt.Errorf("apply account delta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("account", accountID)
	}
	return nil
}

// ComputeBalanceAsOf recomputes an account balance from its opening balance
// plus non-deleted entries with period <= cutoff. Never reads the cache.
func (r *MoneyRepo) ComputeBalanceAsOf(ctx context.Context, accountID id.ID, cutoff time.Time) (types.Money, error) {
	sql := `
		SELECT a.opening_balance + COALESCE((
			SELECT SUM(CASE WHEN e.direction = 'credit' THEN e.amount ELSE -e.amount END)
			FROM money_entries e
			WHERE e.account_id = a.id
			  AND e.period <= $2
			  AND e.deletion_mark = FALSE
		), 0)
		FROM accounts a
		WHERE a.id = $1
	`

	var balance types.Money
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, accountID, cutoff).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return types.ZeroMoney(), apperror.NewNotFound("account", accountID)
		}
		return types.ZeroMoney(), fmt.Errorf("compute account balance: %w", err)
	}
	return balance, nil
}

// ComputeAllBalances recomputes every account's entry total, keyed by
// account id. Opening balances are not included; the caller composes them.
func (r *MoneyRepo) ComputeAllBalances(ctx context.Context, cutoff time.Time) (map[id.ID]types.Money, error) {
	sql := `
		SELECT account_id,
		       COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END), 0)
		FROM money_entries
		WHERE period <= $1
		  AND deletion_mark = FALSE
		GROUP BY account_id
	`

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, cutoff)
	if err != nil {
		return nil, fmt.Errorf("compute account balances: %w", err)
	}
	defer rows.Close()

	totals := make(map[id.ID]types.Money)
	for rows.Next() {
		var accountID id.ID
		var total types.Money
		if err := rows.Scan(&accountID, &total); err != nil {
			return nil, fmt.Errorf("scan account balance: %w", err)
		}
		totals[accountID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account balances: %w", err)
	}
	return totals, nil
}
