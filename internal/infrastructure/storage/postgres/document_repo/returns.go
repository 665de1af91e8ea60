package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain"
	"aurum/internal/domain/documents/returns"
	"aurum/internal/infrastructure/storage/postgres"
)

const (
	returnsTable     = "doc_returns"
	returnLinesTable = "doc_return_lines"
)

// ReturnRepo implements returns.Repository.
// The optional gold-refund block lives in nullable columns on the document
// row; the repo folds it into Return.GoldRefund on read.
type ReturnRepo struct {
	*BaseDocumentRepo[*returns.Return]
}

// NewReturnRepo creates a new return repository.
func NewReturnRepo(txm *postgres.TxManager) *ReturnRepo {
	return &ReturnRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			returnsTable,
			postgres.ExtractDBColumns[returns.Return](),
			func() *returns.Return { return &returns.Return{} },
		),
	}
}

var _ returns.Repository = (*ReturnRepo)(nil)

// Create inserts the document and its gold-refund block.
func (r *ReturnRepo) Create(ctx context.Context, doc *returns.Return) error {
	if err := r.BaseDocumentRepo.Create(ctx, doc); err != nil {
		return err
	}
	return r.saveGoldRefund(ctx, doc)
}

// Update updates the document and its gold-refund block.
func (r *ReturnRepo) Update(ctx context.Context, doc *returns.Return) error {
	if err := r.BaseDocumentRepo.Update(ctx, doc); err != nil {
		return err
	}
	return r.saveGoldRefund(ctx, doc)
}

// GetByID retrieves a return with its gold-refund block.
func (r *ReturnRepo) GetByID(ctx context.Context, docID id.ID) (*returns.Return, error) {
	doc, err := r.BaseDocumentRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := r.loadGoldRefund(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByNumber retrieves a return by number with its gold-refund block.
func (r *ReturnRepo) GetByNumber(ctx context.Context, number string) (*returns.Return, error) {
	doc, err := r.BaseDocumentRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := r.loadGoldRefund(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetForUpdate retrieves a return with row lock and its gold-refund block.
func (r *ReturnRepo) GetForUpdate(ctx context.Context, docID id.ID) (*returns.Return, error) {
	doc, err := r.BaseDocumentRepo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := r.loadGoldRefund(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *ReturnRepo) saveGoldRefund(ctx context.Context, doc *returns.Return) error {
	var weight any
	var purity any
	if g := doc.GoldRefund; g != nil {
		weight = g.Weight
		purity = g.PurityEntered
	}

	sql := `
		UPDATE doc_returns
		SET gold_refund_weight = $2,
		    gold_refund_purity = $3
		WHERE id = $1
	`
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, doc.ID, weight, purity); err != nil {
		return fmt.Errorf("save gold refund: %w", err)
	}
	return nil
}

func (r *ReturnRepo) loadGoldRefund(ctx context.Context, doc *returns.Return) error {
	sql := `
		SELECT gold_refund_weight, gold_refund_purity
		FROM doc_returns
		WHERE id = $1
	`

	var weight *int64
	var purity *int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, doc.ID).Scan(&weight, &purity); err != nil {
		return fmt.Errorf("load gold refund: %w", err)
	}

	if weight == nil {
		doc.GoldRefund = nil
		return nil
	}

	g := &returns.GoldRefund{
		Weight: types.NewWeightFromInt64Scaled(*weight),
	}
	if purity != nil {
		g.PurityEntered = *purity
	}
	doc.GoldRefund = g
	return nil
}

// GetLines retrieves lines for a return.
func (r *ReturnRepo) GetLines(ctx context.Context, docID id.ID) ([]returns.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "item_id", "purity", "weight").
		From(returnLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []returns.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines saves lines for a return (delete existing + insert new).
func (r *ReturnRepo) SaveLines(ctx context.Context, docID id.ID, lines []returns.Line) error {
	querier := r.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + returnLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(returnLinesTable).
		Columns("line_id", "document_id", "line_no", "item_id", "purity", "weight")

	for _, line := range lines {
		q = q.Values(line.LineID, docID, line.LineNo, line.ItemID, line.Purity, line.Weight)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// List retrieves returns with filtering.
func (r *ReturnRepo) List(ctx context.Context, filter returns.ListFilter) (domain.ListResult[*returns.Return], error) {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.PartyID != nil {
		q = q.Where(squirrel.Eq{"party_id": *filter.PartyID})
	}
	if filter.Finalized != nil {
		if *filter.Finalized {
			q = q.Where(squirrel.Eq{"status": "finalized"})
		} else {
			q = q.Where(squirrel.NotEq{"status": "finalized"})
		}
	}
	if filter.InventoryActionRequired != nil {
		q = q.Where(squirrel.Eq{"inventory_action_required": *filter.InventoryActionRequired})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"ref_number": pattern},
			squirrel.ILike{"walk_in_name": pattern},
		})
	}

	return r.listWith(ctx, q, filter.ListFilter)
}
