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
	"aurum/internal/domain/ledgers/gold"
	"aurum/internal/infrastructure/storage/postgres"
)

const (
	goldEntriesTable  = "gold_entries"
	goldBalancesTable = "gold_balances"
)

var goldEntryColumns = []string{
	"id", "period", "source_kind", "source_id", "audit_ref",
	"created_by", "created_at", "deletion_mark", "delete_reason", "deleted_at",
	"party_id", "direction", "weight", "purity_entered", "purpose",
}

// GoldRepo implements gold.Repository.
type GoldRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewGoldRepo creates a new gold ledger repository.
func NewGoldRepo(txm *postgres.TxManager) *GoldRepo {
	return &GoldRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ gold.Repository = (*GoldRepo)(nil)

// CreateEntries batch inserts entries. Uses COPY when inside a transaction.
func (r *GoldRepo) CreateEntries(ctx context.Context, entries []entity.GoldEntry) error {
	if len(entries) == 0 {
		return nil
	}

	if tx := r.txm.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, goldEntryValues(e))
		}
		if _, err := inserter.CopyFromSlice(ctx, goldEntriesTable, goldEntryColumns, rows); err != nil {
			return fmt.Errorf("copy gold entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(goldEntriesTable).Columns(goldEntryColumns...)
	for _, e := range entries {
		q = q.Values(goldEntryValues(e)...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert gold entries: %w", err)
	}
	return nil
}

func goldEntryValues(e entity.GoldEntry) []any {
	return []any{
		e.ID, e.Period, e.SourceKind, e.SourceID, e.AuditRef,
		e.CreatedBy, e.CreatedAt, e.DeletionMark, e.DeleteReason, e.DeletedAt,
		e.PartyID, e.Direction, e.Weight, e.PurityEntered, e.Purpose,
	}
}

// GetEntry retrieves a single entry by id (including soft-deleted rows).
func (r *GoldRepo) GetEntry(ctx context.Context, entryID id.ID) (entity.GoldEntry, error) {
	var e entity.GoldEntry

	q := r.builder.Select(goldEntryColumns...).
		From(goldEntriesTable).
		Where(squirrel.Eq{"id": entryID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return e, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return e, apperror.NewNotFound("gold entry", entryID)
		}
		return e, fmt.Errorf("get gold entry: %w", err)
	}
	return e, nil
}

// GetEntriesBySource retrieves all entries produced by a document.
func (r *GoldRepo) GetEntriesBySource(ctx context.Context, sourceKind entity.SourceKind, sourceID id.ID) ([]entity.GoldEntry, error) {
	q := r.builder.Select(goldEntryColumns...).
		From(goldEntriesTable).
		Where(squirrel.Eq{
			"source_kind": sourceKind,
			"source_id":   sourceID,
		}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.GoldEntry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select gold entries: %w", err)
	}
	return entries, nil
}

// MarkEntryDeleted sets the soft-delete flag. The row is preserved.
func (r *GoldRepo) MarkEntryDeleted(ctx context.Context, entryID id.ID, reason string, deletedAt time.Time) error {
	q := r.builder.Update(goldEntriesTable).
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
		return fmt.Errorf("mark gold entry deleted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("gold entry", entryID)
	}
	return nil
}

// ListEntries returns entry history matching the filter.
func (r *GoldRepo) ListEntries(ctx context.Context, filter gold.EntryFilter) ([]entity.GoldEntry, error) {
	q := r.builder.Select(goldEntryColumns...).From(goldEntriesTable)

	if filter.PartyID != nil {
		q = q.Where(squirrel.Eq{"party_id": *filter.PartyID})
	}
	if filter.SourceKind != nil {
		q = q.Where(squirrel.Eq{"source_kind": *filter.SourceKind})
	}
	if filter.Direction != nil {
		q = q.Where(squirrel.Eq{"direction": *filter.Direction})
	}
	if filter.Purpose != nil {
		q = q.Where(squirrel.Eq{"purpose": *filter.Purpose})
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

	var entries []entity.GoldEntry
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select gold entries: %w", err)
	}
	return entries, nil
}

// GetBalance returns the cached gold balance for a party.
// A missing row reads as zero.
func (r *GoldRepo) GetBalance(ctx context.Context, partyID id.ID) (entity.GoldBalance, error) {
	var balance entity.GoldBalance

	q := r.builder.Select("party_id", "weight", "last_movement_at", "updated_at").
		From(goldBalancesTable).
		Where(squirrel.Eq{"party_id": partyID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.GoldBalance{PartyID: partyID}, nil
		}
		return balance, fmt.Errorf("get gold balance: %w", err)
	}
	return balance, nil
}

// ApplyBalanceDelta adjusts the cached party balance. Balances may go
// negative and are stored as-is.
func (r *GoldRepo) ApplyBalanceDelta(ctx context.Context, partyID id.ID, delta types.Weight, movementAt time.Time) error {
	sql := `
		INSERT INTO gold_balances (party_id, weight, last_movement_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (party_id) DO UPDATE SET
			weight = gold_balances.weight + EXCLUDED.weight,
			last_movement_at = GREATEST(gold_balances.last_movement_at, EXCLUDED.last_movement_at),
			updated_at = now()
	`

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, partyID, delta, movementAt); err != nil {
		return fmt.Errorf("apply gold balance delta: %w", err)
	}
	return nil
}

// ComputeBalanceAsOf recomputes the party balance from non-deleted entries.
func (r *GoldRepo) ComputeBalanceAsOf(ctx context.Context, partyID id.ID, cutoff time.Time) (types.Weight, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN direction = 'out' THEN -weight ELSE weight END),
			0
		)
		FROM gold_entries
		WHERE party_id = $1
		  AND period <= $2
		  AND deletion_mark = FALSE
	`

	var scaled int64
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, partyID, cutoff).Scan(&scaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("compute gold balance: %w", err)
	}
	return types.NewWeightFromInt64Scaled(scaled), nil
}

// ComputeAllBalances recomputes every party total from entries.
// Reconciliation input; never reads the cache.
func (r *GoldRepo) ComputeAllBalances(ctx context.Context, cutoff time.Time) ([]entity.GoldBalance, error) {
	sql := `
		SELECT
			party_id,
			COALESCE(SUM(CASE WHEN direction = 'out' THEN -weight ELSE weight END), 0) AS weight,
			MAX(period) AS last_movement_at,
			now() AS updated_at
		FROM gold_entries
		WHERE period <= $1
		  AND deletion_mark = FALSE
		GROUP BY party_id
		ORDER BY party_id
	`

	var balances []entity.GoldBalance
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &balances, sql, cutoff); err != nil {
		return nil, fmt.Errorf("compute gold balances: %w", err)
	}
	return balances, nil
}
