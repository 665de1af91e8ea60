package finalize

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/apperror"
	appctx "aurum/internal/core/context"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/tx"
	"aurum/internal/core/types"
	"aurum/internal/domain/ledgers/gold"
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/domain/ledgers/stock"
	"aurum/pkg/logger"
)

// Auditor records finalization events. Optional: a nil auditor disables
// audit logging (used in tests).
type Auditor interface {
	Record(ctx context.Context, action string, docKind entity.SourceKind, docID id.ID, payload any) error
}

// Engine coordinates document finalization across the three ledgers.
// All writes happen inside a single transaction: ledger entries, balance
// caches, the document row. Failure at any step rolls everything back,
// so a document is never half-finalized.
type Engine struct {
	txManager tx.Manager
	stock     *stock.Service
	money     *money.Service
	gold      *gold.Service
	guard     *Guard
	auditor   Auditor
}

// NewEngine creates a finalization engine.
func NewEngine(txManager tx.Manager, stockSvc *stock.Service, moneySvc *money.Service, goldSvc *gold.Service, auditor Auditor) *Engine {
	return &Engine{
		txManager: txManager,
		stock:     stockSvc,
		money:     moneySvc,
		gold:      goldSvc,
		guard:     NewGuard(stockSvc, moneySvc, goldSvc),
		auditor:   auditor,
	}
}

// Finalize runs the finalization sequence for a document:
//
//  1. re-read the document under a row lock (idempotency: exactly one
//     caller wins when finalizations race)
//  2. ask the guard whether the ledgers already hold entries for the
//     document
//  3. check business rules
//  4. derive ledger entries
//  5. check stock availability for outgoing movements
//  6. append entries to the ledgers (balance caches move write-through)
//  7. mark the document finalized and persist it
//
// Steps 1-7 share one transaction. A failure after the first write
// surfaces as an atomicity failure and the transaction rolls back.
func (e *Engine) Finalize(ctx context.Context, doc Finalizable, lock LockFunc, save SaveFunc) error {
	user := appctx.GetUserID(ctx)
	now := time.Now().UTC()

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := lock(ctx)
		if err != nil {
			return fmt.Errorf("lock document: %w", err)
		}
		if current.IsFinalized() {
			return apperror.NewAlreadyFinalized(string(doc.DocumentKind()), doc.GetID().String())
		}

		exists, err := e.guard.EntriesExist(ctx, doc.DocumentKind(), doc.GetID())
		if err != nil {
			return fmt.Errorf("idempotency guard: %w", err)
		}
		if exists {
			return apperror.NewAlreadyFinalized(string(doc.DocumentKind()), doc.GetID().String())
		}

		if err := doc.CanFinalize(ctx); err != nil {
			return err
		}

		entries, err := doc.BuildEntries(ctx)
		if err != nil {
			return fmt.Errorf("build entries: %w", err)
		}
		if entries.IsEmpty() {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "document produces no ledger entries").
				WithDetail("documentId", doc.GetID().String())
		}

		if err := e.checkStockAvailability(ctx, entries); err != nil {
			return err
		}

		// First write; from here on a failure means rollback
		if err := e.stock.Append(ctx, entries.Stock); err != nil {
			return e.atomicity(err, doc)
		}
		if err := e.money.Append(ctx, entries.Money); err != nil {
			return e.atomicity(err, doc)
		}
		if err := e.gold.Append(ctx, entries.Gold); err != nil {
			return e.atomicity(err, doc)
		}

		doc.MarkFinalized(user, now)
		if err := save(ctx); err != nil {
			return e.atomicity(err, doc)
		}

		return nil
	})
	if err != nil {
		return err
	}

	if e.auditor != nil {
		if aerr := e.auditor.Record(ctx, "finalize", doc.DocumentKind(), doc.GetID(), doc); aerr != nil {
			logger.Warn(ctx, "audit record failed", "document_id", doc.GetID(), "error", aerr)
		}
	}

	logger.Info(ctx, "document finalized",
		"document_kind", doc.DocumentKind(),
		"document_id", doc.GetID(),
		"finalized_by", user,
	)

	return nil
}

// checkStockAvailability locks and verifies balances for every outgoing
// stock entry. Adjustments and incoming entries are not checked; gold
// balances may go negative, so the gold ledger is never gated here.
func (e *Engine) checkStockAvailability(ctx context.Context, entries *EntrySet) error {
	required := make(map[stockKey]int64)
	for i := range entries.Stock {
		entry := &entries.Stock[i]
		if entry.Direction != entity.DirectionOut {
			continue
		}
		k := stockKey{item: entry.ItemID, purity: entry.Purity}
		required[k] += entry.Weight.Int64Scaled()
	}
	if len(required) == 0 {
		return nil
	}

	checks := make([]stock.AvailabilityCheck, 0, len(required))
	for k, w := range required {
		checks = append(checks, stock.AvailabilityCheck{
			ItemID:   k.item,
			Purity:   k.purity,
			Required: types.NewWeightFromInt64Scaled(w),
		})
	}
	return e.stock.CheckAvailability(ctx, checks)
}

type stockKey struct {
	item   id.ID
	purity int
}

func (e *Engine) atomicity(err error, doc Finalizable) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewAtomicity(err).
		WithDetail("documentKind", string(doc.DocumentKind())).
		WithDetail("documentId", doc.GetID().String())
}
