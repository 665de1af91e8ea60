package memory

import (
	"context"
	"sort"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain/ledgers/gold"
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/domain/ledgers/stock"
)

// --- Stock ledger ---

// StockLedger implements stock.Repository.
type StockLedger struct {
	s *Store
}

// StockLedger returns the stock ledger view of the store.
func (s *Store) StockLedger() *StockLedger {
	return &StockLedger{s: s}
}

var _ stock.Repository = (*StockLedger)(nil)

func (r *StockLedger) CreateEntries(ctx context.Context, entries []entity.StockEntry) error {
	defer r.s.acquire(ctx)()
	for _, e := range entries {
		r.s.stockEntries[e.ID] = e
	}
	return nil
}

func (r *StockLedger) GetEntry(ctx context.Context, entryID id.ID) (entity.StockEntry, error) {
	defer r.s.acquire(ctx)()
	e, ok := r.s.stockEntries[entryID]
	if !ok {
		return entity.StockEntry{}, apperror.NewNotFound("stock entry", entryID)
	}
	return e, nil
}

func (r *StockLedger) GetEntriesBySource(ctx context.Context, sourceKind entity.SourceKind, sourceID id.ID) ([]entity.StockEntry, error) {
	defer r.s.acquire(ctx)()
	var out []entity.StockEntry
	for _, e := range r.s.stockEntries {
		if e.SourceKind == sourceKind && e.SourceID == sourceID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *StockLedger) MarkEntryDeleted(ctx context.Context, entryID id.ID, reason string, deletedAt time.Time) error {
	defer r.s.acquire(ctx)()
	e, ok := r.s.stockEntries[entryID]
	if !ok || e.DeletionMark {
		return apperror.NewNotFound("stock entry", entryID)
	}
	e.DeletionMark = true
	e.DeleteReason = reason
	at := deletedAt
	e.DeletedAt = &at
	r.s.stockEntries[entryID] = e
	return nil
}

func (r *StockLedger) ListEntries(ctx context.Context, filter stock.EntryFilter) ([]entity.StockEntry, error) {
	defer r.s.acquire(ctx)()
	var out []entity.StockEntry
	for _, e := range r.s.stockEntries {
		if filter.ItemID != nil && e.ItemID != *filter.ItemID {
			continue
		}
		if filter.Purity != nil && e.Purity != *filter.Purity {
			continue
		}
		if filter.SourceKind != nil && e.SourceKind != *filter.SourceKind {
			continue
		}
		if filter.Direction != nil && e.Direction != *filter.Direction {
			continue
		}
		if filter.FromDate != nil && e.Period.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && e.Period.After(*filter.ToDate) {
			continue
		}
		if !filter.IncludeDeleted && e.DeletionMark {
			continue
		}
		out = append(out, e)
	}
	sortEntriesDesc(out, func(e entity.StockEntry) (time.Time, time.Time) { return e.Period, e.CreatedAt })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *StockLedger) GetBalance(ctx context.Context, itemID id.ID, purity int) (entity.StockBalance, error) {
	defer r.s.acquire(ctx)()
	return r.getBalanceLocked(itemID, purity), nil
}

func (r *StockLedger) getBalanceLocked(itemID id.ID, purity int) entity.StockBalance {
	if b, ok := r.s.stockBalances[stockKey{ItemID: itemID, Purity: purity}]; ok {
		return b
	}
	return entity.StockBalance{ItemID: itemID, Purity: purity}
}

func (r *StockLedger) GetBalanceForUpdate(ctx context.Context, itemID id.ID, purity int) (entity.StockBalance, error) {
	// The global lock already serializes writers.
	return r.GetBalance(ctx, itemID, purity)
}

func (r *StockLedger) ApplyBalanceDelta(ctx context.Context, itemID id.ID, purity int, delta types.Weight, movementAt time.Time) error {
	defer r.s.acquire(ctx)()
	key := stockKey{ItemID: itemID, Purity: purity}
	b := r.getBalanceLocked(itemID, purity)
	b.Weight += delta
	if movementAt.After(b.LastMovementAt) {
		b.LastMovementAt = movementAt
	}
	b.UpdatedAt = time.Now().UTC()
	r.s.stockBalances[key] = b
	return nil
}

func (r *StockLedger) GetBalances(ctx context.Context, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	defer r.s.acquire(ctx)()
	wanted := make(map[id.ID]bool, len(filter.ItemIDs))
	for _, itemID := range filter.ItemIDs {
		wanted[itemID] = true
	}

	var out []entity.StockBalance
	for _, b := range r.s.stockBalances {
		if len(wanted) > 0 && !wanted[b.ItemID] {
			continue
		}
		if filter.ExcludeZero && b.Weight.IsZero() {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemID != out[j].ItemID {
			return out[i].ItemID.String() < out[j].ItemID.String()
		}
		return out[i].Purity < out[j].Purity
	})
	return out, nil
}

func (r *StockLedger) ComputeBalanceAsOf(ctx context.Context, itemID id.ID, purity int, cutoff time.Time) (types.Weight, error) {
	defer r.s.acquire(ctx)()
	var total types.Weight
	for _, e := range r.s.stockEntries {
		if e.ItemID != itemID || e.Purity != purity || e.DeletionMark || e.Period.After(cutoff) {
			continue
		}
		total += e.SignedWeight()
	}
	return total, nil
}

func (r *StockLedger) ComputeAllBalances(ctx context.Context, cutoff time.Time) ([]entity.StockBalance, error) {
	defer r.s.acquire(ctx)()
	totals := make(map[stockKey]*entity.StockBalance)
	for _, e := range r.s.stockEntries {
		if e.DeletionMark || e.Period.After(cutoff) {
			continue
		}
		key := stockKey{ItemID: e.ItemID, Purity: e.Purity}
		b, ok := totals[key]
		if !ok {
			b = &entity.StockBalance{ItemID: e.ItemID, Purity: e.Purity}
			totals[key] = b
		}
		b.Weight += e.SignedWeight()
		if e.Period.After(b.LastMovementAt) {
			b.LastMovementAt = e.Period
		}
	}

	out := make([]entity.StockBalance, 0, len(totals))
	for _, b := range totals {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemID != out[j].ItemID {
			return out[i].ItemID.String() < out[j].ItemID.String()
		}
		return out[i].Purity < out[j].Purity
	})
	return out, nil
}

// --- Money ledger ---

// MoneyLedger implements money.Repository.
type MoneyLedger struct {
	s *Store
}

// MoneyLedger returns the money ledger view of the store.
func (s *Store) MoneyLedger() *MoneyLedger {
	return &MoneyLedger{s: s}
}

var _ money.Repository = (*MoneyLedger)(nil)

func (r *MoneyLedger) CreateEntries(ctx context.Context, entries []entity.MoneyEntry) error {
	defer r.s.acquire(ctx)()
	for _, e := range entries {
		r.s.moneyEntries[e.ID] = e
	}
	return nil
}

func (r *MoneyLedger) GetEntry(ctx context.Context, entryID id.ID) (entity.MoneyEntry, error) {
	defer r.s.acquire(ctx)()
	e, ok := r.s.moneyEntries[entryID]
	if !ok {
		return entity.MoneyEntry{}, apperror.NewNotFound("money entry", entryID)
	}
	return e, nil
}

func (r *MoneyLedger) GetEntriesBySource(ctx context.Context, sourceKind entity.SourceKind, sourceID id.ID) ([]entity.MoneyEntry, error) {
	defer r.s.acquire(ctx)()
	var out []entity.MoneyEntry
	for _, e := range r.s.moneyEntries {
		if e.SourceKind == sourceKind && e.SourceID == sourceID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MoneyLedger) MarkEntryDeleted(ctx context.Context, entryID id.ID, reason string, deletedAt time.Time) error {
	defer r.s.acquire(ctx)()
	e, ok := r.s.moneyEntries[entryID]
	if !ok || e.DeletionMark {
		return apperror.NewNotFound("money entry", entryID)
	}
	e.DeletionMark = true
	e.DeleteReason = reason
	at := deletedAt
	e.DeletedAt = &at
	r.s.moneyEntries[entryID] = e
	return nil
}

func (r *MoneyLedger) ListEntries(ctx context.Context, filter money.EntryFilter) ([]entity.MoneyEntry, error) {
	defer r.s.acquire(ctx)()
	var out []entity.MoneyEntry
	for _, e := range r.s.moneyEntries {
		if filter.AccountID != nil && e.AccountID != *filter.AccountID {
			continue
		}
		if filter.PartyID != nil && e.PartyID != *filter.PartyID {
			continue
		}
		if filter.SourceKind != nil && e.SourceKind != *filter.SourceKind {
			continue
		}
		if filter.Direction != nil && e.Direction != *filter.Direction {
			continue
		}
		if filter.Category != nil && e.Category != *filter.Category {
			continue
		}
		if filter.FromDate != nil && e.Period.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && e.Period.After(*filter.ToDate) {
			continue
		}
		if !filter.IncludeDeleted && e.DeletionMark {
			continue
		}
		out = append(out, e)
	}
	sortEntriesDesc(out, func(e entity.MoneyEntry) (time.Time, time.Time) { return e.Period, e.CreatedAt })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *MoneyLedger) ApplyAccountDelta(ctx context.Context, accountID id.ID, delta types.Money) error {
	defer r.s.acquire(ctx)()
	acc, ok := r.s.accounts[accountID]
	if !ok {
		return apperror.NewNotFound("account", accountID)
	}
	clone := *acc
	clone.CurrentBalance = clone.CurrentBalance.Add(delta)
	r.s.accounts[accountID] = &clone
	return nil
}

func (r *MoneyLedger) ComputeBalanceAsOf(ctx context.Context, accountID id.ID, cutoff time.Time) (types.Money, error) {
	defer r.s.acquire(ctx)()
	acc, ok := r.s.accounts[accountID]
	if !ok {
		return types.ZeroMoney(), apperror.NewNotFound("account", accountID)
	}

	total := acc.OpeningBalance
	for _, e := range r.s.moneyEntries {
		if e.AccountID != accountID || e.DeletionMark || e.Period.After(cutoff) {
			continue
		}
		total = total.Add(e.SignedAmount())
	}
	return total, nil
}

func (r *MoneyLedger) ComputeAllBalances(ctx context.Context, cutoff time.Time) (map[id.ID]types.Money, error) {
	defer r.s.acquire(ctx)()
	totals := make(map[id.ID]types.Money)
	for _, e := range r.s.moneyEntries {
		if e.DeletionMark || e.Period.After(cutoff) {
			continue
		}
		totals[e.AccountID] = totals[e.AccountID].Add(e.SignedAmount())
	}
	return totals, nil
}

// --- Gold ledger ---

// GoldLedger implements gold.Repository.
type GoldLedger struct {
	s *Store
}

// GoldLedger returns the gold ledger view of the store.
func (s *Store) GoldLedger() *GoldLedger {
	return &GoldLedger{s: s}
}

var _ gold.Repository = (*GoldLedger)(nil)

func (r *GoldLedger) CreateEntries(ctx context.Context, entries []entity.GoldEntry) error {
	defer r.s.acquire(ctx)()
	for _, e := range entries {
		r.s.goldEntries[e.ID] = e
	}
	return nil
}

func (r *GoldLedger) GetEntry(ctx context.Context, entryID id.ID) (entity.GoldEntry, error) {
	defer r.s.acquire(ctx)()
	e, ok := r.s.goldEntries[entryID]
	if !ok {
		return entity.GoldEntry{}, apperror.NewNotFound("gold entry", entryID)
	}
	return e, nil
}

func (r *GoldLedger) GetEntriesBySource(ctx context.Context, sourceKind entity.SourceKind, sourceID id.ID) ([]entity.GoldEntry, error) {
	defer r.s.acquire(ctx)()
	var out []entity.GoldEntry
	for _, e := range r.s.goldEntries {
		if e.SourceKind == sourceKind && e.SourceID == sourceID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *GoldLedger) MarkEntryDeleted(ctx context.Context, entryID id.ID, reason string, deletedAt time.Time) error {
	defer r.s.acquire(ctx)()
	e, ok := r.s.goldEntries[entryID]
	if !ok || e.DeletionMark {
		return apperror.NewNotFound("gold entry", entryID)
	}
	e.DeletionMark = true
	e.DeleteReason = reason
	at := deletedAt
	e.DeletedAt = &at
	r.s.goldEntries[entryID] = e
	return nil
}

func (r *GoldLedger) ListEntries(ctx context.Context, filter gold.EntryFilter) ([]entity.GoldEntry, error) {
	defer r.s.acquire(ctx)()
	var out []entity.GoldEntry
	for _, e := range r.s.goldEntries {
		if filter.PartyID != nil && e.PartyID != *filter.PartyID {
			continue
		}
		if filter.SourceKind != nil && e.SourceKind != *filter.SourceKind {
			continue
		}
		if filter.Direction != nil && e.Direction != *filter.Direction {
			continue
		}
		if filter.Purpose != nil && e.Purpose != *filter.Purpose {
			continue
		}
		if filter.FromDate != nil && e.Period.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && e.Period.After(*filter.ToDate) {
			continue
		}
		if !filter.IncludeDeleted && e.DeletionMark {
			continue
		}
		out = append(out, e)
	}
	sortEntriesDesc(out, func(e entity.GoldEntry) (time.Time, time.Time) { return e.Period, e.CreatedAt })
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *GoldLedger) GetBalance(ctx context.Context, partyID id.ID) (entity.GoldBalance, error) {
	defer r.s.acquire(ctx)()
	if b, ok := r.s.goldBalances[partyID]; ok {
		return b, nil
	}
	return entity.GoldBalance{PartyID: partyID}, nil
}

func (r *GoldLedger) ApplyBalanceDelta(ctx context.Context, partyID id.ID, delta types.Weight, movementAt time.Time) error {
	defer r.s.acquire(ctx)()
	b, ok := r.s.goldBalances[partyID]
	if !ok {
		b = entity.GoldBalance{PartyID: partyID}
	}
	b.Weight += delta
	if movementAt.After(b.LastMovementAt) {
		b.LastMovementAt = movementAt
	}
	b.UpdatedAt = time.Now().UTC()
	r.s.goldBalances[partyID] = b
	return nil
}

func (r *GoldLedger) ComputeBalanceAsOf(ctx context.Context, partyID id.ID, cutoff time.Time) (types.Weight, error) {
	defer r.s.acquire(ctx)()
	var total types.Weight
	for _, e := range r.s.goldEntries {
		if e.PartyID != partyID || e.DeletionMark || e.Period.After(cutoff) {
			continue
		}
		total += e.SignedWeight()
	}
	return total, nil
}

func (r *GoldLedger) ComputeAllBalances(ctx context.Context, cutoff time.Time) ([]entity.GoldBalance, error) {
	defer r.s.acquire(ctx)()
	totals := make(map[id.ID]*entity.GoldBalance)
	for _, e := range r.s.goldEntries {
		if e.DeletionMark || e.Period.After(cutoff) {
			continue
		}
		b, ok := totals[e.PartyID]
		if !ok {
			b = &entity.GoldBalance{PartyID: e.PartyID}
			totals[e.PartyID] = b
		}
		b.Weight += e.SignedWeight()
		if e.Period.After(b.LastMovementAt) {
			b.LastMovementAt = e.Period
		}
	}

	out := make([]entity.GoldBalance, 0, len(totals))
	for _, b := range totals {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartyID.String() < out[j].PartyID.String() })
	return out, nil
}

// --- shared helpers ---

func sortEntriesDesc[T any](entries []T, keys func(T) (time.Time, time.Time)) {
	sort.Slice(entries, func(i, j int) bool {
		pi, ci := keys(entries[i])
		pj, cj := keys(entries[j])
		if !pi.Equal(pj) {
			return pi.After(pj)
		}
		return ci.After(cj)
	})
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
