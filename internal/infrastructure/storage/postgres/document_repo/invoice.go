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
	"aurum/internal/domain/documents/invoice"
	"aurum/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "doc_invoices"
	invoiceLinesTable = "doc_invoice_lines"
)

// InvoiceRepo implements invoice.Repository.
// The optional advance-gold block lives in nullable columns on the document
// row; the repo folds it into Invoice.AdvanceGold on read.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice]
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			invoicesTable,
			postgres.ExtractDBColumns[invoice.Invoice](),
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
	}
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// Create inserts the document and its advance-gold block.
func (r *InvoiceRepo) Create(ctx context.Context, doc *invoice.Invoice) error {
	if err := r.BaseDocumentRepo.Create(ctx, doc); err != nil {
		return err
	}
	return r.saveAdvanceGold(ctx, doc)
}

// Update updates the document and its advance-gold block.
func (r *InvoiceRepo) Update(ctx context.Context, doc *invoice.Invoice) error {
	if err := r.BaseDocumentRepo.Update(ctx, doc); err != nil {
		return err
	}
	return r.saveAdvanceGold(ctx, doc)
}

// GetByID retrieves an invoice with its advance-gold block.
func (r *InvoiceRepo) GetByID(ctx context.Context, docID id.ID) (*invoice.Invoice, error) {
	doc, err := r.BaseDocumentRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := r.loadAdvanceGold(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByNumber retrieves an invoice by number with its advance-gold block.
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	doc, err := r.BaseDocumentRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if err := r.loadAdvanceGold(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetForUpdate retrieves an invoice with row lock and its advance-gold block.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, docID id.ID) (*invoice.Invoice, error) {
	doc, err := r.BaseDocumentRepo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := r.loadAdvanceGold(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *InvoiceRepo) saveAdvanceGold(ctx context.Context, doc *invoice.Invoice) error {
	var weight any
	var purity any
	var factor any
	var amount any
	if g := doc.AdvanceGold; g != nil {
		weight = g.Weight
		purity = g.PurityEntered
		factor = g.ConversionFactor
		amount = g.Amount
	}

	sql := `
		UPDATE doc_invoices
		SET advance_gold_weight = $2,
		    advance_gold_purity = $3,
		    advance_gold_factor = $4,
		    advance_gold_amount = $5
		WHERE id = $1
	`
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, doc.ID, weight, purity, factor, amount); err != nil {
		return fmt.Errorf("save advance gold: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) loadAdvanceGold(ctx context.Context, doc *invoice.Invoice) error {
	sql := `
		SELECT advance_gold_weight, advance_gold_purity, advance_gold_factor, advance_gold_amount
		FROM doc_invoices
		WHERE id = $1
	`

	var weight *int64
	var purity *int
	var factor *decimal.Decimal
	var amount *decimal.Decimal
	err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, doc.ID).Scan(&weight, &purity, &factor, &amount)
	if err != nil {
		return fmt.Errorf("load advance gold: %w", err)
	}

	if weight == nil {
		doc.AdvanceGold = nil
		return nil
	}

	g := &invoice.AdvanceGold{
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
	doc.AdvanceGold = g
	return nil
}

// GetLines retrieves lines for an invoice.
func (r *InvoiceRepo) GetLines(ctx context.Context, docID id.ID) ([]invoice.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "item_id", "purity", "weight", "conversion_factor", "amount").
		From(invoiceLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []invoice.Line
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines saves lines for an invoice (delete existing + insert new).
func (r *InvoiceRepo) SaveLines(ctx context.Context, docID id.ID, lines []invoice.Line) error {
	querier := r.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + invoiceLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(invoiceLinesTable).
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

// List retrieves invoices with filtering. Advance-gold blocks are loaded
// in one extra query for the page.
func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
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

	result, err := r.listWith(ctx, q, filter.ListFilter)
	if err != nil {
		return result, err
	}
	if err := r.loadAdvanceGoldMany(ctx, result.Items); err != nil {
		return result, err
	}
	return result, nil
}

func (r *InvoiceRepo) loadAdvanceGoldMany(ctx context.Context, docs []*invoice.Invoice) error {
	if len(docs) == 0 {
		return nil
	}

	byID := make(map[id.ID]*invoice.Invoice, len(docs))
	ids := make([]id.ID, 0, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
		ids = append(ids, doc.ID)
	}

	q := r.Builder().
		Select("id", "advance_gold_weight", "advance_gold_purity", "advance_gold_factor", "advance_gold_amount").
		From(invoicesTable).
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.NotEq{"advance_gold_weight": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("load advance gold: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID id.ID
		var weight int64
		var purity int
		var factor decimal.Decimal
		var amount decimal.Decimal
		if err := rows.Scan(&docID, &weight, &purity, &factor, &amount); err != nil {
			return fmt.Errorf("scan advance gold: %w", err)
		}
		if doc, ok := byID[docID]; ok {
			doc.AdvanceGold = &invoice.AdvanceGold{
				Weight:           types.NewWeightFromInt64Scaled(weight),
				PurityEntered:    purity,
				ConversionFactor: factor,
				Amount:           amount,
			}
		}
	}
	return rows.Err()
}
