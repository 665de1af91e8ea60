// Package returns provides the Return document service.
package returns

import (
	"context"
	"fmt"

	appctx "aurum/internal/core/context"
	"aurum/internal/core/apperror"
	"aurum/internal/core/id"
	"aurum/internal/core/numerator"
	"aurum/internal/core/tx"
	"aurum/internal/domain"
	"aurum/internal/domain/finalize"
	"aurum/pkg/logger"
)

// Service provides business operations for return documents.
type Service struct {
	repo      Repository
	engine    *finalize.Engine
	numerator numerator.Generator
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Return]
}

// NewService creates a new return service.
func NewService(
	repo Repository,
	engine *finalize.Engine,
	gen numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		numerator: gen,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Return](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Return] {
	return s.hooks
}

// Create creates a new return draft.
func (s *Service) Create(ctx context.Context, doc *Return) error {
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, doc.Date)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}
	doc.CreatedBy = appctx.GetUserID(ctx)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, doc); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "return created",
		"id", doc.ID,
		"number", doc.Number,
		"kind", doc.Kind)

	return nil
}

// GetByID retrieves a return with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Return, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// Update updates a return draft. Finalized documents cannot change.
func (s *Service) Update(ctx context.Context, doc *Return) error {
	if err := s.hooks.RunBeforeUpdate(ctx, doc); err != nil {
		return err
	}

	if err := doc.CanModify(); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	doc.UpdatedBy = appctx.GetUserID(ctx)

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes a return draft.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if doc.IsFinalized() {
		return doc.CanModify()
	}

	return s.repo.Delete(ctx, docID)
}

// Finalize records the refund money entry and raises the inventory
// follow-up flag. Stock is never touched.
func (s *Service) Finalize(ctx context.Context, docID id.ID) (*Return, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lock := func(ctx context.Context) (finalize.Finalizable, error) {
		return s.repo.GetForUpdate(ctx, docID)
	}
	save := func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	}

	if err := s.engine.Finalize(ctx, doc, lock, save); err != nil {
		return nil, err
	}
	return doc, nil
}

// ResolveInventoryAction clears the follow-up flag once the physical
// stock has been reconciled (usually via a manual stock adjustment).
func (s *Service) ResolveInventoryAction(ctx context.Context, docID id.ID, note string) (*Return, error) {
	var doc *Return
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if !doc.IsFinalized() {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "return is not finalized").
				WithDetail("documentId", docID.String())
		}
		if !doc.InventoryActionRequired {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "no inventory action is pending").
				WithDetail("documentId", docID.String())
		}

		doc.InventoryActionRequired = false
		if note != "" {
			doc.Comment = note
		}
		doc.UpdatedBy = appctx.GetUserID(ctx)

		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "return inventory action resolved",
		"id", doc.ID,
		"number", doc.Number)

	return doc, nil
}

// List retrieves returns with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Return], error) {
	return s.repo.List(ctx, filter)
}
