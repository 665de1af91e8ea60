// Package money provides the money transaction ledger service.
package money

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/numerator"
	"aurum/internal/core/tx"
	"aurum/internal/core/types"
	"aurum/pkg/logger"
)

// Service provides business operations for the money ledger.
// Every write runs in a transaction of its own; inside the finalization
// engine the surrounding transaction is reused.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
}

// NewService creates a new money ledger service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		numerator: gen,
	}
}

// Append records money entries and applies the account balance deltas.
// Entries without a number get one from the TXN sequence. Numbering,
// entry inserts and balance caches move in one atomic unit: a failed
// delta rolls the entries back and no orphan transaction survives.
func (s *Service) Append(ctx context.Context, entries []entity.MoneyEntry) error {
	if len(entries) == 0 {
		return nil
	}

	for i := range entries {
		if err := entries[i].Validate(ctx); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for i := range entries {
			if entries[i].Number != "" {
				continue
			}
			number, err := s.numerator.GetNextNumber(ctx, numerator.TransactionConfig(), numerator.DefaultOptions(), entries[i].Period)
			if err != nil {
				return fmt.Errorf("next transaction number: %w", err)
			}
			entries[i].Number = number
		}

		if err := s.repo.CreateEntries(ctx, entries); err != nil {
			return fmt.Errorf("create money entries: %w", err)
		}

		// Write-through: cached account balances move in the same transaction
		for i := range entries {
			e := &entries[i]
			if err := s.repo.ApplyAccountDelta(ctx, e.AccountID, e.SignedAmount()); err != nil {
				return fmt.Errorf("apply account delta: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "recorded money entries",
		"count", len(entries),
		"source_kind", entries[0].SourceKind,
		"source_id", entries[0].SourceID,
	)

	return nil
}

// SoftDelete marks an entry as deleted and reverses its account contribution.
// The entry row is preserved for audit; its id is never reused.
func (s *Service) SoftDelete(ctx context.Context, entryID id.ID, reason string) error {
	if reason == "" {
		return apperror.NewValidation("delete reason is required").WithDetail("field", "reason")
	}

	var e entity.MoneyEntry
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		e, err = s.repo.GetEntry(ctx, entryID)
		if err != nil {
			return fmt.Errorf("get money entry: %w", err)
		}
		if e.DeletionMark {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "entry is already deleted").
				WithDetail("entryId", entryID.String())
		}

		now := time.Now().UTC()
		if err := s.repo.MarkEntryDeleted(ctx, entryID, reason, now); err != nil {
			return fmt.Errorf("mark money entry deleted: %w", err)
		}

		if err := s.repo.ApplyAccountDelta(ctx, e.AccountID, e.SignedAmount().Neg()); err != nil {
			return fmt.Errorf("reverse account delta: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "soft-deleted money entry",
		"entry_id", entryID,
		"number", e.Number,
		"reason", reason,
	)

	return nil
}

// ManualAdjustment records a correction transaction. The audit reference
// is mandatory; existing entries stay untouched.
func (s *Service) ManualAdjustment(ctx context.Context, accountID id.ID, direction entity.MoneyDirection, amount types.Money, auditRef, notes, createdBy string) (entity.MoneyEntry, error) {
	base := entity.NewEntryBase(time.Now().UTC(), entity.SourceManualAdjustment, id.New(), createdBy)
	base.AuditRef = auditRef

	e := entity.NewMoneyEntry(base, accountID, direction, amount)
	e.Category = "adjustment"
	e.Notes = notes

	entries := []entity.MoneyEntry{e}
	if err := s.Append(ctx, entries); err != nil {
		return entity.MoneyEntry{}, err
	}
	return entries[0], nil
}

// BalanceAsOf recomputes the account balance from opening balance plus
// non-deleted entries up to the cutoff. Pure read, no cache involved.
func (s *Service) BalanceAsOf(ctx context.Context, accountID id.ID, cutoff time.Time) (types.Money, error) {
	return s.repo.ComputeBalanceAsOf(ctx, accountID, cutoff)
}

// History returns transaction history matching the filter.
func (s *Service) History(ctx context.Context, filter EntryFilter) ([]entity.MoneyEntry, error) {
	return s.repo.ListEntries(ctx, filter)
}

// EntriesBySource returns the transactions a document produced.
func (s *Service) EntriesBySource(ctx context.Context, kind entity.SourceKind, sourceID id.ID) ([]entity.MoneyEntry, error) {
	return s.repo.GetEntriesBySource(ctx, kind, sourceID)
}
