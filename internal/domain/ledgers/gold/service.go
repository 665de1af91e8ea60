// Package gold provides the raw-gold ledger service.
package gold

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

// Service provides business operations for the gold ledger.
// Every write runs in a transaction of its own; inside the finalization
// engine the surrounding transaction is reused.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new gold ledger service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Append records gold entries and applies the party balance deltas.
// No availability check: a party's gold balance is allowed to go negative.
// Entries and balance caches move in one atomic unit.
func (s *Service) Append(ctx context.Context, entries []entity.GoldEntry) error {
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
			return fmt.Errorf("create gold entries: %w", err)
		}

		// Write-through: cached party balances move in the same transaction
		for i := range entries {
			e := &entries[i]
			if err := s.repo.ApplyBalanceDelta(ctx, e.PartyID, e.SignedWeight(), e.Period); err != nil {
				return fmt.Errorf("apply gold balance delta: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "recorded gold entries",
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
			return fmt.Errorf("get gold entry: %w", err)
		}
		if e.DeletionMark {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "entry is already deleted").
				WithDetail("entryId", entryID.String())
		}

		now := time.Now().UTC()
		if err := s.repo.MarkEntryDeleted(ctx, entryID, reason, now); err != nil {
			return fmt.Errorf("mark gold entry deleted: %w", err)
		}

		if err := s.repo.ApplyBalanceDelta(ctx, e.PartyID, e.SignedWeight().Neg(), now); err != nil {
			return fmt.Errorf("reverse gold balance delta: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "soft-deleted gold entry",
		"entry_id", entryID,
		"reason", reason,
	)

	return nil
}

// ManualAdjustment records a signed correction entry. The audit reference
// is mandatory; existing entries stay untouched.
func (s *Service) ManualAdjustment(ctx context.Context, partyID id.ID, weight types.Weight, auditRef, createdBy string) (entity.GoldEntry, error) {
	base := entity.NewEntryBase(time.Now().UTC(), entity.SourceManualAdjustment, id.New(), createdBy)
	base.AuditRef = auditRef

	e := entity.NewGoldEntry(base, partyID, entity.DirectionAdjustment, weight)
	if err := s.Append(ctx, []entity.GoldEntry{e}); err != nil {
		return entity.GoldEntry{}, err
	}
	return e, nil
}

// BalanceAsOf recomputes the party balance from non-deleted entries up to
// the cutoff. Pure read, no cache involved.
func (s *Service) BalanceAsOf(ctx context.Context, partyID id.ID, cutoff time.Time) (types.Weight, error) {
	return s.repo.ComputeBalanceAsOf(ctx, partyID, cutoff)
}

// CachedBalance returns the maintained gold balance for a party.
func (s *Service) CachedBalance(ctx context.Context, partyID id.ID) (entity.GoldBalance, error) {
	return s.repo.GetBalance(ctx, partyID)
}

// History returns entry history matching the filter.
func (s *Service) History(ctx context.Context, filter EntryFilter) ([]entity.GoldEntry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// EntriesBySource returns the entries a document produced.
func (s *Service) EntriesBySource(ctx context.Context, kind entity.SourceKind, sourceID id.ID) ([]entity.GoldEntry, error) {
	return s.repo.GetEntriesBySource(ctx, kind, sourceID)
}
