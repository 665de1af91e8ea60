package reconcile

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/types"
	"aurum/internal/domain"
	"aurum/internal/domain/catalogs/account"
	"aurum/internal/domain/ledgers/gold"
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/domain/ledgers/stock"
	"aurum/pkg/logger"
)

// Service compares cached balances with totals recomputed from the
// append-only entries. All operations are pure reads.
type Service struct {
	stockRepo stock.Repository
	moneyRepo money.Repository
	goldRepo  gold.Repository
	accounts  account.Repository
}

// NewService creates a reconciliation service.
func NewService(stockRepo stock.Repository, moneyRepo money.Repository, goldRepo gold.Repository, accounts account.Repository) *Service {
	return &Service{
		stockRepo: stockRepo,
		moneyRepo: moneyRepo,
		goldRepo:  goldRepo,
		accounts:  accounts,
	}
}

// ReconcileStock compares cached stock balances with recomputed totals.
func (s *Service) ReconcileStock(ctx context.Context) (LedgerReport, error) {
	now := time.Now().UTC()
	report := LedgerReport{Kind: entity.LedgerStock, CheckedAt: now, Mismatches: []Mismatch{}}

	cached, err := s.stockRepo.GetBalances(ctx, stock.BalanceFilter{})
	if err != nil {
		return report, fmt.Errorf("get cached stock balances: %w", err)
	}
	computed, err := s.stockRepo.ComputeAllBalances(ctx, now)
	if err != nil {
		return report, fmt.Errorf("compute stock balances: %w", err)
	}

	type key struct {
		item   id.ID
		purity int
	}
	cachedBy := make(map[key]types.Weight, len(cached))
	for _, b := range cached {
		cachedBy[key{b.ItemID, b.Purity}] = b.Weight
	}
	computedBy := make(map[key]types.Weight, len(computed))
	for _, b := range computed {
		computedBy[key{b.ItemID, b.Purity}] = b.Weight
	}

	seen := make(map[key]bool)
	for k, c := range cachedBy {
		seen[k] = true
		report.RowsChecked++
		if got := computedBy[k]; got != c {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Scope:    fmt.Sprintf("%s/%d", k.item, k.purity),
				Cached:   c.String(),
				Computed: got.String(),
				Delta:    (c - got).String(),
			})
		}
	}
	for k, got := range computedBy {
		if seen[k] {
			continue
		}
		report.RowsChecked++
		if !got.IsZero() {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Scope:    fmt.Sprintf("%s/%d", k.item, k.purity),
				Cached:   types.Weight(0).String(),
				Computed: got.String(),
				Delta:    got.Neg().String(),
			})
		}
	}

	return report, nil
}

// ReconcileMoney compares cached account balances with opening balance
// plus recomputed entry totals.
func (s *Service) ReconcileMoney(ctx context.Context) (LedgerReport, error) {
	now := time.Now().UTC()
	report := LedgerReport{Kind: entity.LedgerMoney, CheckedAt: now, Mismatches: []Mismatch{}}

	accounts, err := s.accounts.List(ctx, domain.ListFilter{Limit: 0, IncludeDeleted: true})
	if err != nil {
		return report, fmt.Errorf("list accounts: %w", err)
	}
	sums, err := s.moneyRepo.ComputeAllBalances(ctx, now)
	if err != nil {
		return report, fmt.Errorf("compute money balances: %w", err)
	}

	for _, acc := range accounts.Items {
		report.RowsChecked++
		computed := acc.OpeningBalance.Add(sums[acc.ID])
		if !acc.CurrentBalance.Equal(computed) {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Scope:    acc.ID.String(),
				Cached:   acc.CurrentBalance.String(),
				Computed: computed.String(),
				Delta:    acc.CurrentBalance.Sub(computed).String(),
			})
		}
	}

	return report, nil
}

// ReconcileGold compares cached party gold balances with recomputed totals.
func (s *Service) ReconcileGold(ctx context.Context) (LedgerReport, error) {
	now := time.Now().UTC()
	report := LedgerReport{Kind: entity.LedgerGold, CheckedAt: now, Mismatches: []Mismatch{}}

	computed, err := s.goldRepo.ComputeAllBalances(ctx, now)
	if err != nil {
		return report, fmt.Errorf("compute gold balances: %w", err)
	}

	for _, b := range computed {
		report.RowsChecked++
		cached, err := s.goldRepo.GetBalance(ctx, b.PartyID)
		if err != nil {
			if apperror.IsNotFound(err) {
				cached = entity.GoldBalance{PartyID: b.PartyID}
			} else {
				return report, fmt.Errorf("get cached gold balance: %w", err)
			}
		}
		if cached.Weight != b.Weight {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Scope:    b.PartyID.String(),
				Cached:   cached.Weight.String(),
				Computed: b.Weight.String(),
				Delta:    (cached.Weight - b.Weight).String(),
			})
		}
	}

	return report, nil
}

// SystemStatus reconciles all three ledgers and aggregates the result.
func (s *Service) SystemStatus(ctx context.Context) (SystemStatus, error) {
	status := SystemStatus{CheckedAt: time.Now().UTC()}

	var err error
	if status.Stock, err = s.ReconcileStock(ctx); err != nil {
		return status, err
	}
	if status.Money, err = s.ReconcileMoney(ctx); err != nil {
		return status, err
	}
	if status.Gold, err = s.ReconcileGold(ctx); err != nil {
		return status, err
	}

	if !status.Healthy() {
		logger.Warn(ctx, "balance drift detected",
			"stock_mismatches", len(status.Stock.Mismatches),
			"money_mismatches", len(status.Money.Mismatches),
			"gold_mismatches", len(status.Gold.Mismatches),
		)
	}

	return status, nil
}

// PreviewDelete shows how soft-deleting an entry would move the affected
// balance. Read-only; the caller decides whether to proceed.
func (s *Service) PreviewDelete(ctx context.Context, kind entity.LedgerKind, entryID id.ID) (DeleteImpact, error) {
	switch kind {
	case entity.LedgerStock:
		return s.previewStockDelete(ctx, entryID)
	case entity.LedgerMoney:
		return s.previewMoneyDelete(ctx, entryID)
	case entity.LedgerGold:
		return s.previewGoldDelete(ctx, entryID)
	default:
		return DeleteImpact{}, apperror.NewValidation("unknown ledger kind").
			WithDetail("kind", string(kind))
	}
}

func (s *Service) previewStockDelete(ctx context.Context, entryID id.ID) (DeleteImpact, error) {
	e, err := s.stockRepo.GetEntry(ctx, entryID)
	if err != nil {
		return DeleteImpact{}, err
	}

	balance, err := s.stockRepo.GetBalance(ctx, e.ItemID, e.Purity)
	if err != nil && !apperror.IsNotFound(err) {
		return DeleteImpact{}, err
	}

	impact := DeleteImpact{
		EntryID:        entryID,
		LedgerKind:     entity.LedgerStock,
		Scope:          fmt.Sprintf("%s/%d", e.ItemID, e.Purity),
		Contribution:   e.SignedWeight().String(),
		BalanceBefore:  balance.Weight.String(),
		BalanceAfter:   balance.Weight.String(),
		AlreadyDeleted: e.DeletionMark,
		SourceKind:     e.SourceKind,
		SourceID:       e.SourceID,
	}
	if !e.DeletionMark {
		impact.BalanceAfter = (balance.Weight - e.SignedWeight()).String()
	}
	return impact, nil
}

func (s *Service) previewMoneyDelete(ctx context.Context, entryID id.ID) (DeleteImpact, error) {
	e, err := s.moneyRepo.GetEntry(ctx, entryID)
	if err != nil {
		return DeleteImpact{}, err
	}

	acc, err := s.accounts.GetByID(ctx, e.AccountID)
	if err != nil {
		return DeleteImpact{}, err
	}

	impact := DeleteImpact{
		EntryID:        entryID,
		LedgerKind:     entity.LedgerMoney,
		Scope:          e.AccountID.String(),
		Contribution:   e.SignedAmount().String(),
		BalanceBefore:  acc.CurrentBalance.String(),
		BalanceAfter:   acc.CurrentBalance.String(),
		AlreadyDeleted: e.DeletionMark,
		SourceKind:     e.SourceKind,
		SourceID:       e.SourceID,
	}
	if !e.DeletionMark {
		impact.BalanceAfter = acc.CurrentBalance.Sub(e.SignedAmount()).String()
	}
	return impact, nil
}

func (s *Service) previewGoldDelete(ctx context.Context, entryID id.ID) (DeleteImpact, error) {
	e, err := s.goldRepo.GetEntry(ctx, entryID)
	if err != nil {
		return DeleteImpact{}, err
	}

	balance, err := s.goldRepo.GetBalance(ctx, e.PartyID)
	if err != nil && !apperror.IsNotFound(err) {
		return DeleteImpact{}, err
	}

	impact := DeleteImpact{
		EntryID:        entryID,
		LedgerKind:     entity.LedgerGold,
		Scope:          e.PartyID.String(),
		Contribution:   e.SignedWeight().String(),
		BalanceBefore:  balance.Weight.String(),
		BalanceAfter:   balance.Weight.String(),
		AlreadyDeleted: e.DeletionMark,
		SourceKind:     e.SourceKind,
		SourceID:       e.SourceID,
	}
	if !e.DeletionMark {
		impact.BalanceAfter = (balance.Weight - e.SignedWeight()).String()
	}
	return impact, nil
}
