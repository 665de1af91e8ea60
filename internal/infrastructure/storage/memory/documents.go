package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/domain"
	"aurum/internal/domain/documents/invoice"
	"aurum/internal/domain/documents/purchase"
	"aurum/internal/domain/documents/returns"
)

// docView implements the shared document repository surface over one of
// the store maps.
type docView[T any] struct {
	s     *Store
	name  string
	docs  func() map[id.ID]T
	meta  func(T) *entity.Document
	clone func(T) T
}

func (v *docView[T]) Create(ctx context.Context, doc T) error {
	defer v.s.acquire(ctx)()
	m := v.meta(doc)
	if _, exists := v.docs()[m.ID]; exists {
		return apperror.NewConflict("already exists").WithDetail("id", m.ID.String())
	}
	v.docs()[m.ID] = v.clone(doc)
	return nil
}

func (v *docView[T]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	defer v.s.acquire(ctx)()
	doc, ok := v.docs()[docID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound(v.name, docID.String())
	}
	return v.clone(doc), nil
}

func (v *docView[T]) GetByNumber(ctx context.Context, number string) (T, error) {
	defer v.s.acquire(ctx)()
	for _, doc := range v.docs() {
		if v.meta(doc).Number == number {
			return v.clone(doc), nil
		}
	}
	var zero T
	return zero, apperror.NewNotFound(v.name, number)
}

func (v *docView[T]) Update(ctx context.Context, doc T) error {
	defer v.s.acquire(ctx)()
	m := v.meta(doc)
	existing, ok := v.docs()[m.ID]
	if !ok {
		return apperror.NewNotFound(v.name, m.ID.String())
	}
	if v.meta(existing).Version != m.Version {
		return apperror.NewConcurrentModification(v.name, m.ID)
	}
	updated := v.clone(doc)
	v.meta(updated).Version++
	v.docs()[m.ID] = updated
	return nil
}

// Delete soft-deletes a document. The row stays for the audit trail.
func (v *docView[T]) Delete(ctx context.Context, docID id.ID) error {
	defer v.s.acquire(ctx)()
	doc, ok := v.docs()[docID]
	if !ok {
		return apperror.NewNotFound(v.name, docID.String())
	}
	updated := v.clone(doc)
	m := v.meta(updated)
	m.DeletionMark = true
	m.Version++
	v.docs()[docID] = updated
	return nil
}

// GetForUpdate is GetByID; the global lock already serializes writers, so
// the re-read inside the transaction observes any committed finalize.
func (v *docView[T]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return v.GetByID(ctx, docID)
}

// list collects matching docs, newest business date first.
func (v *docView[T]) list(ctx context.Context, filter domain.ListFilter, match func(T) bool) (domain.ListResult[T], error) {
	defer v.s.acquire(ctx)()

	search := strings.ToLower(filter.Search)
	var matched []T
	for _, doc := range v.docs() {
		m := v.meta(doc)
		if !filter.IncludeDeleted && m.DeletionMark {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Number), search) {
			continue
		}
		if match != nil && !match(doc) {
			continue
		}
		matched = append(matched, v.clone(doc))
	}

	sort.Slice(matched, func(i, j int) bool {
		di, dj := v.meta(matched[i]), v.meta(matched[j])
		if !di.Date.Equal(dj.Date) {
			return di.Date.After(dj.Date)
		}
		return di.CreatedAt.After(dj.CreatedAt)
	})

	result := domain.ListResult[T]{
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	result.Items = paginate(matched, filter.Limit, filter.Offset)
	return result, nil
}

func matchFinalized(doc *entity.Document, finalized bool) bool {
	return (doc.Status == entity.StatusFinalized) == finalized
}

// --- Purchases ---

// PurchaseDocs implements purchase.Repository.
type PurchaseDocs struct {
	*docView[*purchase.Purchase]
}

// Purchases returns the purchase document view of the store.
func (s *Store) Purchases() *PurchaseDocs {
	return &PurchaseDocs{
		docView: &docView[*purchase.Purchase]{
			s:    s,
			name: "purchase",
			docs: func() map[id.ID]*purchase.Purchase { return s.purchases },
			meta: func(d *purchase.Purchase) *entity.Document { return &d.Document },
			clone: func(d *purchase.Purchase) *purchase.Purchase {
				c := *d
				c.Lines = slices.Clone(d.Lines)
				if d.GoldSettlement != nil {
					g := *d.GoldSettlement
					c.GoldSettlement = &g
				}
				return &c
			},
		},
	}
}

var _ purchase.Repository = (*PurchaseDocs)(nil)

func (v *PurchaseDocs) GetLines(ctx context.Context, docID id.ID) ([]purchase.Line, error) {
	defer v.s.acquire(ctx)()
	return slices.Clone(v.s.purchaseLines[docID]), nil
}

func (v *PurchaseDocs) SaveLines(ctx context.Context, docID id.ID, lines []purchase.Line) error {
	defer v.s.acquire(ctx)()
	v.s.purchaseLines[docID] = slices.Clone(lines)
	return nil
}

func (v *PurchaseDocs) List(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	return v.list(ctx, filter.ListFilter, func(d *purchase.Purchase) bool {
		if filter.SupplierID != nil && d.SupplierID != *filter.SupplierID {
			return false
		}
		if filter.Finalized != nil && !matchFinalized(&d.Document, *filter.Finalized) {
			return false
		}
		if filter.PaymentStatus != nil && string(d.PaymentStatus) != *filter.PaymentStatus {
			return false
		}
		if filter.DateFrom != nil && d.Date.Before(*filter.DateFrom) {
			return false
		}
		if filter.DateTo != nil && d.Date.After(*filter.DateTo) {
			return false
		}
		return true
	})
}

// --- Invoices ---

// InvoiceDocs implements invoice.Repository.
type InvoiceDocs struct {
	*docView[*invoice.Invoice]
}

// Invoices returns the invoice document view of the store.
func (s *Store) Invoices() *InvoiceDocs {
	return &InvoiceDocs{
		docView: &docView[*invoice.Invoice]{
			s:    s,
			name: "invoice",
			docs: func() map[id.ID]*invoice.Invoice { return s.invoices },
			meta: func(d *invoice.Invoice) *entity.Document { return &d.Document },
			clone: func(d *invoice.Invoice) *invoice.Invoice {
				c := *d
				c.Lines = slices.Clone(d.Lines)
				if d.AdvanceGold != nil {
					g := *d.AdvanceGold
					c.AdvanceGold = &g
				}
				return &c
			},
		},
	}
}

var _ invoice.Repository = (*InvoiceDocs)(nil)

func (v *InvoiceDocs) GetLines(ctx context.Context, docID id.ID) ([]invoice.Line, error) {
	defer v.s.acquire(ctx)()
	return slices.Clone(v.s.invoiceLines[docID]), nil
}

func (v *InvoiceDocs) SaveLines(ctx context.Context, docID id.ID, lines []invoice.Line) error {
	defer v.s.acquire(ctx)()
	v.s.invoiceLines[docID] = slices.Clone(lines)
	return nil
}

func (v *InvoiceDocs) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	return v.list(ctx, filter.ListFilter, func(d *invoice.Invoice) bool {
		if filter.CustomerID != nil && d.CustomerID != *filter.CustomerID {
			return false
		}
		if filter.Finalized != nil && !matchFinalized(&d.Document, *filter.Finalized) {
			return false
		}
		if filter.PaymentStatus != nil && string(d.PaymentStatus) != *filter.PaymentStatus {
			return false
		}
		if filter.DateFrom != nil && d.Date.Before(*filter.DateFrom) {
			return false
		}
		if filter.DateTo != nil && d.Date.After(*filter.DateTo) {
			return false
		}
		return true
	})
}

// --- Returns ---

// ReturnDocs implements returns.Repository.
type ReturnDocs struct {
	*docView[*returns.Return]
}

// Returns returns the return document view of the store.
func (s *Store) Returns() *ReturnDocs {
	return &ReturnDocs{
		docView: &docView[*returns.Return]{
			s:    s,
			name: "return",
			docs: func() map[id.ID]*returns.Return { return s.returnDocs },
			meta: func(d *returns.Return) *entity.Document { return &d.Document },
			clone: func(d *returns.Return) *returns.Return {
				c := *d
				c.Lines = slices.Clone(d.Lines)
				if d.GoldRefund != nil {
					g := *d.GoldRefund
					c.GoldRefund = &g
				}
				return &c
			},
		},
	}
}

var _ returns.Repository = (*ReturnDocs)(nil)

func (v *ReturnDocs) GetLines(ctx context.Context, docID id.ID) ([]returns.Line, error) {
	defer v.s.acquire(ctx)()
	return slices.Clone(v.s.returnLines[docID]), nil
}

func (v *ReturnDocs) SaveLines(ctx context.Context, docID id.ID, lines []returns.Line) error {
	defer v.s.acquire(ctx)()
	v.s.returnLines[docID] = slices.Clone(lines)
	return nil
}

func (v *ReturnDocs) List(ctx context.Context, filter returns.ListFilter) (domain.ListResult[*returns.Return], error) {
	return v.list(ctx, filter.ListFilter, func(d *returns.Return) bool {
		if filter.Kind != nil && d.Kind != *filter.Kind {
			return false
		}
		if filter.PartyID != nil && d.PartyID != *filter.PartyID {
			return false
		}
		if filter.Finalized != nil && !matchFinalized(&d.Document, *filter.Finalized) {
			return false
		}
		if filter.InventoryActionRequired != nil && d.InventoryActionRequired != *filter.InventoryActionRequired {
			return false
		}
		if filter.DateFrom != nil && d.Date.Before(*filter.DateFrom) {
			return false
		}
		if filter.DateTo != nil && d.Date.After(*filter.DateTo) {
			return false
		}
		return true
	})
}
