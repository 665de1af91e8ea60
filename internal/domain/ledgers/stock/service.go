// Package stock provides the stock movement ledger service.
package stock

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/tx"
	"aurum/internal/core/types"
	"aurum/pkg/logger"
)

// Service provides business operations for the stock ledger.
// Every write runs in a transaction of its own; inside the finalization
// engine the surrounding transaction is reused.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Append records stock entries and applies the matching balance deltas.
// Entries and balance caches move in one atomic unit: a failed delta
// rolls the entry inserts back.
func (s *Service) Append(ctx context.Context, entries []entity.StockEntry) error {
	if len(entries) == 0 {
		return nil
	}

	for i := range entries {
		if err := entries[i].Validate(ctx); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateEntries(ctx, entries); err != nil {
			return fmt.Errorf("create stock entries: %w", err)
		}

		// Write-through: cached balances move in the same transaction
		for i := range entries {
			e := &entries[i]
			if err := s.repo.ApplyBalanceDelta(ctx, e.ItemID, e.Purity, e.SignedWeight(), e.Period); err != nil {
				return fmt.Errorf("apply stock balance delta: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "recorded stock entries",
		"count", len(entries),
		"source_kind", entries[0].SourceKind,
		"source_id", entries[0].SourceID,
	)

	return nil
}

// SoftDelete marks an entry as deleted and reverses its balance contribution.
// The entry row is preserved for audit; its id is never reused.
func (s *Service) SoftDelete(ctx context.Context, entryID id.ID, reason string) error {
	if reason == "" {
		return apperror.NewValidation("delete reason is required").WithDetail("field", "reason")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		e, err := s.repo.GetEntry(ctx, entryID)
		if err != nil {
			return fmt.Errorf("get stock entry: %w", err)
		}
		if e.DeletionMark {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "entry is already deleted").
				WithDetail("entryId", entryID.String())
		}

		now := time.Now().UTC()
		if err := s.repo.MarkEntryDeleted(ctx, entryID, reason, now); err != nil {
			return fmt.Errorf("mark stock entry deleted: %w", err)
		}

		if err := s.repo.ApplyBalanceDelta(ctx, e.ItemID, e.Purity, e.SignedWeight().Neg(), now); err != nil {
			return fmt.Errorf("reverse stock balance delta: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "soft-deleted stock entry",
		"entry_id", entryID,
		"reason", reason,
	)

	return nil
}

// ManualAdjustment records a signed correction entry. The audit reference
// is mandatory; the underlying entries stay untouched.
func (s *Service) ManualAdjustment(ctx context.Context, itemID id.ID, purity int, weight types.Weight, auditRef, createdBy string) (entity.StockEntry, error) {
	base := entity.NewEntryBase(time.Now().UTC(), entity.SourceManualAdjustment, id.New(), createdBy)
	base.AuditRef = auditRef

	e := entity.NewStockEntry(base, itemID, purity, entity.DirectionAdjustment, weight)
	if err := s.Append(ctx, []entity.StockEntry{e}); err != nil {
		return entity.StockEntry{}, err
	}
	return e, nil
}

// CheckAvailability validates stock availability with pessimistic locking.
// Must be called within a transaction before recording out entries.
func (s *Service) CheckAvailability(ctx context.Context, checks []AvailabilityCheck) error {
	for _, c := range checks {
		balance, err := s.repo.GetBalanceForUpdate(ctx, c.ItemID, c.Purity)
		if err != nil {
			return fmt.Errorf("get balance for %s: %w", c.ItemID, err)
		}

		if balance.Weight < c.Required {
			return apperror.NewInsufficientStock(
				fmt.Sprintf("%s/%d", c.ItemID, c.Purity),
				c.Required.String(),
				balance.Weight.String(),
			)
		}
	}

	return nil
}

// AvailabilityCheck represents a stock check request.
type AvailabilityCheck struct {
	ItemID   id.ID
	Purity   int
	Required types.Weight
}

// BalanceAsOf recomputes the balance for item+purity from non-deleted
// entries up to the cutoff. Pure read, no cache involved.
func (s *Service) BalanceAsOf(ctx context.Context, itemID id.ID, purity int, cutoff time.Time) (types.Weight, error) {
	return s.repo.ComputeBalanceAsOf(ctx, itemID, purity, cutoff)
}

// CachedBalance returns the maintained balance for item+purity.
func (s *Service) CachedBalance(ctx context.Context, itemID id.ID, purity int) (entity.StockBalance, error) {
	return s.repo.GetBalance(ctx, itemID, purity)
}

// CurrentStock returns all cached balances, optionally excluding zero rows.
func (s *Service) CurrentStock(ctx context.Context, excludeZero bool) ([]entity.StockBalance, error) {
	return s.repo.GetBalances(ctx, BalanceFilter{ExcludeZero: excludeZero})
}

// History returns entry history matching the filter.
func (s *Service) History(ctx context.Context, filter EntryFilter) ([]entity.StockEntry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// EntriesBySource returns the entries a document produced.
func (s *Service) EntriesBySource(ctx context.Context, kind entity.SourceKind, sourceID id.ID) ([]entity.StockEntry, error) {
	return s.repo.GetEntriesBySource(ctx, kind, sourceID)
}
