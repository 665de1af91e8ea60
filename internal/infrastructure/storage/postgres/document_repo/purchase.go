package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain"
	"aurum/internal/domain/documents/purchase"
	"aurum/internal/infrastructure/storage/postgres"
)

const (
	purchasesTable     = "doc_purchases"
	purchaseLinesTable = "doc_purchase_lines"
)

// PurchaseRepo implements purchase.Repository.
// The optional gold-settlement block lives in nullable columns on the
// document row; the repo folds it into Purchase.GoldSettlement on read.
type PurchaseRepo struct {
	*BaseDocumentRepo[*purchase.Purchase]
}

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txm *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			purchasesTable,
			postgres.ExtractDBColumns[purchase.Purchase](),
			func() *purchase.Purchase { return &purchase.Purchase{} },
		),
	}
}

var _ purchase.Repository = (*PurchaseRepo)(nil)

// Create inserts the document and its gold-settlement block.
func (r *PurchaseRepo) Create(ctx context.Context, doc *purchase.Purchase) error {
	if err := r.BaseDocumentRepo.Create(ctx, doc); err != nil {
		return err
	}
	return r.saveGoldSettlement(ctx, doc)
}

// Update updates the document and its gold-settlement block.
func (r *PurchaseRepo) Update(ctx context.Context, doc *purchase.Purchase) error {
	if err := r.BaseDocumentRepo.Update(ctx, doc); err != nil {
		return err
	}
	return r.saveGoldSettlement(ctx, doc)
}

// GetByID retrieves a purchase with its gold-settlement block.
func (r *PurchaseRepo) GetByID(ctx context.Context, docID id.ID) (*purchase.Purchase, error) {
	doc, err := r.BaseDocumentRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := r.loadGoldSettlement(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByNumber retrieves a purchase by number with its gold-settlement block.
func (r *PurchaseRepo) GetByNumber(ctx context.Context, number string) (*purchase.Purchase, error) {
	doc, err := r.BaseDocumentRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := r.loadGoldSettlement(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetForUpdate retrieves a purchase with row lock and its gold-settlement block.
func (r *PurchaseRepo) GetForUpdate(ctx context.Context, docID id.ID) (*purchase.Purchase, error) {
	doc, err := r.BaseDocumentRepo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := r.loadGoldSettlement(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *PurchaseRepo) saveGoldSettlement(ctx context.Context, doc *purchase.Purchase) error {
	var weight any
	var purity any
	var factor any
	var amount any
	if g := doc.GoldSettlement; g != nil {
		weight = g.Weight
		purity = g.PurityEntered
		factor = g.ConversionFactor
		amount = g.Amount
	}

	sql := `
		UPDATE doc_purchases
		SET gold_settlement_weight = $2,
		    gold_settlement_purity = $3,
		    gold_settlement_factor = $4,
		    gold_settlement_amount = $5
		WHERE id = $1
	`
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, doc.ID, weight, purity, factor, amount); err != nil {
		return fmt.Errorf("save gold settlement: %w", err)
	}
	return nil
}

func (r *PurchaseRepo) loadGoldSettlement(ctx context.Context, doc *purchase.Purchase) error {
	sql := `
		SELECT gold_settlement_weight, gold_settlement_purity, gold_settlement_factor, gold_settlement_amount
		FROM doc_purchases
		WHERE id = $1
	`

	var weight *int64
	var purity *int
	var factor *decimal.Decimal
	var amount *decimal.Decimal
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, doc.ID).Scan(&weight, &purity, &factor, &amount)
	if err != nil {
		return fmt.Errorf("load gold settlement: %w", err)
	}

	if weight == nil {
		doc.GoldSettlement = nil
		return nil
	}

	g := &purchase.GoldSettlement{
		Weight: types.NewWeightFromInt64Scaled(*weight),
	}
	if purity != nil {
		g.PurityEntered = *purity
	}
	if factor != nil {
		g.ConversionFactor = *factor
	}
	if amount != nil {
		g.Amount = *amount
	}
	doc.GoldSettlement = g
	return nil
}

// GetLines retrieves lines for a purchase.
func (r *PurchaseRepo) GetLines(ctx context.Context, docID id.ID) ([]purchase.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "item_id", "purity", "weight", "conversion_factor", "amount").
		From(purchaseLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []purchase.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines saves lines for a purchase (delete existing + insert new).
func (r *PurchaseRepo) SaveLines(ctx context.Context, docID id.ID, lines []purchase.Line) error {
	querier := r.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + purchaseLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(purchaseLinesTable).
		Columns("line_id", "document_id", "line_no", "item_id", "purity", "weight", "conversion_factor", "amount")

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.ItemID,
			line.Purity, line.Weight, line.ConversionFactor, line.Amount,
		)
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

// List retrieves purchases with filtering.
func (r *PurchaseRepo) List(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.SupplierID != nil {
		q = q.Where(squirrel.Eq{"supplier_id": *filter.SupplierID})
	}
	if filter.Finalized != nil {
		if *filter.Finalized {
			q = q.Where(squirrel.Eq{"status": "finalized"})
		} else {
			q = q.Where(squirrel.NotEq{"status": "finalized"})
		}
	}
	if filter.PaymentStatus != nil {
		q = q.Where(squirrel.Eq{"payment_status": *filter.PaymentStatus})
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
			squirrel.ILike{"walk_in_name": pattern},
		})
	}

	return r.listWith(ctx, q, filter.ListFilter)
}
