// Package ledger_repo provides PostgreSQL implementations for the three
// append-only ledger repositories. Entries are only ever inserted or
// soft-deleted; cached balance rows are maintained in the same transaction
// as the entry writes.
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
	"aurum/internal/domain/ledgers/stock"
	"aurum/internal/infrastructure/storage/postgres"
)

const (
	stockEntriesTable  = "stock_entries"
	stockBalancesTable = "stock_balances"
)

var stockEntryColumns = []string{
	"id", "period", "source_kind", "source_id", "audit_ref",
	"created_by", "created_at", "deletion_mark", "delete_reason", "deleted_at",
	"item_id", "purity", "direction", "weight",
}

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ stock.Repository = (*StockRepo)(nil)

// CreateEntries batch inserts entries. Uses COPY when inside a transaction.
func (r *StockRepo) CreateEntries(ctx context.Context, entries []entity.StockEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txm.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, stockEntryValues(e))
		}
		if _, err := inserter.CopyFromSlice(ctx, stockEntriesTable, stockEntryColumns, rows); err != nil {
			return fmt.Errorf("copy stock entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(stockEntriesTable).Columns(stockEntryColumns...)
	for _, e := range entries {
		q = q.Values(stockEntryValues(e)...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock entries: %w", err)
	}
	return nil
}

func stockEntryValues(e entity.StockEntry) []any {
	return []any{
		e.ID, e.Period, e.SourceKind, e.SourceID, e.AuditRef,
		e.CreatedBy, e.CreatedAt, e.DeletionMark, e.DeleteReason, e.DeletedAt,
		e.ItemID, e.Purity, e.Direction, e.Weight,
	}
}

// GetEntry retrieves a single entry by id (including soft-deleted rows).
func (r *StockRepo) GetEntry(ctx context.Context, entryID id.ID) (entity.StockEntry, error) {
	var e entity.StockEntry

	q := r.builder.Select(stockEntryColumns...).
		From(stockEntriesTable).
		Where(squirrel.Eq{"id": entryID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound("stock entry", entryID)
		}
		return e, fmt.Errorf("get stock entry: %w", err)
	}
	return e, nil
}

// GetEntriesBySource retrieves all entries produced by a document.
func (r *StockRepo) GetEntriesBySource(ctx context.Context, sourceKind entity.SourceKind, sourceID id.ID) ([]entity.StockEntry, error) {
	q := r.builder.Select(stockEntryColumns...).
		From(stockEntriesTable).
		Where(squirrel.Eq{
			"source_kind": sourceKind,
			"source_id":   sourceID,
		}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.StockEntry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock entries: %w", err)
	}
	return entries, nil
}

// MarkEntryDeleted sets the soft-delete flag. The row is preserved.
func (r *StockRepo) MarkEntryDeleted(ctx context.Context, entryID id.ID, reason string, deletedAt time.Time) error {
	q := r.builder.Update(stockEntriesTable).
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
		return fmt.Errorf("mark stock entry deleted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("stock entry", entryID)
	}
	return nil
}

// ListEntries returns entry history matching the filter.
func (r *StockRepo) ListEntries(ctx context.Context, filter stock.EntryFilter) ([]entity.StockEntry, error) {
	q := r.builder.Select(stockEntryColumns...).From(stockEntriesTable)

	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"item_id": *filter.ItemID})
	}
	if filter.Purity != nil {
		q = q.Where(squirrel.Eq{"purity": *filter.Purity})
	}
	if filter.SourceKind != nil {
		q = q.Where(squirrel.Eq{"source_kind": *filter.SourceKind})
	}
	if filter.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": *filter.Direction})
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

	var entries []entity.StockEntry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock entries: %w", err)
	}
	return entries, nil
}

// GetBalance returns the cached balance for item+purity.
// A missing row reads as zero.
func (r *StockRepo) GetBalance(ctx context.Context, itemID id.ID, purity int) (entity.StockBalance, error) {
	var balance entity.StockBalance

	q := r.builder.Select("item_id", "purity", "weight", "last_movement_at", "updated_at").
		From(stockBalancesTable).
		Where(squirrel.Eq{"item_id": itemID, "purity": purity}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.StockBalance{ItemID: itemID, Purity: purity}, nil
		}
		return balance, fmt.Errorf("get stock balance: %w", err)
	}
	return balance, nil
}

// GetBalanceForUpdate returns the cached balance with a pessimistic row lock.
// Used by availability checks during finalization.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, itemID id.ID, purity int) (entity.StockBalance, error) {
	var balance entity.StockBalance

	sql := `
		SELECT item_id, purity, weight, last_movement_at, updated_at
		FROM stock_balances
		WHERE item_id = $1 AND purity = $2
		FOR UPDATE
	`

	err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &balance, sql, itemID, purity)
	if err != nil {
		if pgxscan.NotFound(err) {
			return entity.StockBalance{ItemID: itemID, Purity: purity}, nil
		}
		return balance, fmt.Errorf("get stock balance for update: %w", err)
	}
	return balance, nil
}

// ApplyBalanceDelta adjusts the cached balance. Must run in the same
// transaction as the entry insert it mirrors.
func (r *StockRepo) ApplyBalanceDelta(ctx context.Context, itemID id.ID, purity int, delta types.Weight, movementAt time.Time) error {
	sql := `
		INSERT INTO stock_balances (item_id, purity, weight, last_movement_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (item_id, purity) DO UPDATE SET
			weight = stock_balances.weight + EXCLUDED.weight,
			last_movement_at = GREATEST(stock_balances.last_movement_at, EXCLUDED.last_movement_at),
			updated_at = now()
	`

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, itemID, purity, delta, movementAt); err != nil {
		return fmt.Errorf("apply stock balance delta: %w", err)
	}
	return nil
}

// GetBalances returns cached balances matching the filter.
func (r *StockRepo) GetBalances(ctx context.Context, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	q := r.builder.Select("item_id", "purity", "weight", "last_movement_at", "updated_at").
		From(stockBalancesTable)

	if len(filter.ItemIDs) > 0 {
		q = q.Where(squirrel.Eq{"item_id": filter.ItemIDs})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"weight": int64(0)})
	}

	q = q.OrderBy("item_id", "purity")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.StockBalance
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select stock balances: %w", err)
	}
	return balances, nil
}

// ComputeBalanceAsOf recomputes the balance from non-deleted entries.
// Adjustments carry their sign in the stored weight.
func (r *StockRepo) ComputeBalanceAsOf(ctx context.Context, itemID id.ID, purity int, cutoff time.Time) (types.Weight, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN direction = 'out' THEN -weight ELSE weight END),
			0
		)
		FROM stock_entries
		WHERE item_id = $1
		  AND purity = $2
		  AND period <= $3
		  AND deletion_mark = FALSE
	`

	var scaled int64
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, itemID, purity, cutoff).Scan(&scaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("compute stock balance: %w", err)
	}
	return types.NewWeightFromInt64Scaled(scaled), nil
}

// ComputeAllBalances recomputes every item+purity total from entries.
// Reconciliation input; never reads the cache.
func (r *StockRepo) ComputeAllBalances(ctx context.Context, cutoff time.Time) ([]entity.StockBalance, error) {
	sql := `
		SELECT
			item_id,
			purity,
			COALESCE(SUM(CASE WHEN direction = 'out' THEN -weight ELSE weight END), 0) AS weight,
			MAX(period) AS last_movement_at,
			now() AS updated_at
		FROM stock_entries
		WHERE period <= $1
		  AND deletion_mark = FALSE
		GROUP BY item_id, purity
		ORDER BY item_id, purity
	`

	var balances []entity.StockBalance
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &balances, sql, cutoff); err != nil {
		return nil, fmt.Errorf("compute stock balances: %w", err)
	}
	return balances, nil
}
