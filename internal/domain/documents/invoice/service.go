// Package invoice provides the Invoice document service.
package invoice

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/apperror"
	appctx "aurum/internal/core/context"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/core/numerator"
	"aurum/internal/core/tx"
	"aurum/internal/core/types"
	"aurum/internal/core/valuation"
	"aurum/internal/domain"
	"aurum/internal/domain/catalogs/account"
	"aurum/internal/domain/finalize"
	"aurum/internal/domain/ledgers/money"
	"aurum/pkg/logger"
)

// Service provides business operations for invoice documents.
type Service struct {
	repo      Repository
	engine    *finalize.Engine
	moneySvc  *money.Service
	accounts  *account.Service
	numerator numerator.Generator
	txManager tx.Manager
	valuation *valuation.Table
	hooks     *domain.HookRegistry[*Invoice]
}

// NewService creates a new invoice service.
func NewService(
	repo Repository,
	engine *finalize.Engine,
	moneySvc *money.Service,
	accounts *account.Service,
	gen numerator.Generator,
	txManager tx.Manager,
	table *valuation.Table,
) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		moneySvc:  moneySvc,
		accounts:  accounts,
		numerator: gen,
		txManager: txManager,
		valuation: table,
		hooks:     domain.NewHookRegistry[*Invoice](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Invoice] {
	return s.hooks
}

// Create creates a new invoice draft.
func (s *Service) Create(ctx context.Context, doc *Invoice) error {
	if err := s.hooks.RunBeforeCreate(ctx, doc); err != nil {
		return err
	}

	if err := doc.ComputeAmounts(s.valuation); err != nil {
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

	logger.Info(ctx, "invoice created",
		"id", doc.ID,
		"number", doc.Number)

	return nil
}

// GetByID retrieves an invoice with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Invoice, error) {
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

// Update updates an invoice draft. Finalized documents cannot change.
func (s *Service) Update(ctx context.Context, doc *Invoice) error {
	if err := s.hooks.RunBeforeUpdate(ctx, doc); err != nil {
		return err
	}

	if err := doc.CanModify(); err != nil {
		return err
	}
	if err := doc.ComputeAmounts(s.valuation); err != nil {
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

// Delete soft-deletes an invoice draft.
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

// Finalize turns the draft into stock, money and gold ledger entries.
// Stock availability is checked under lock; the whole sequence is atomic.
func (s *Service) Finalize(ctx context.Context, docID id.ID) (*Invoice, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	// Resolve the gold received account before entering the transaction
	if doc.AdvanceGold != nil && id.IsNil(doc.GoldAccountID) {
		goldAcc, err := s.accounts.GetSystemAccount(ctx, account.ClassGoldReceived)
		if err != nil {
			return nil, err
		}
		doc.GoldAccountID = goldAcc.ID
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

// RecordPayment records a payment received against a finalized invoice.
// Appends a money credit and moves the payment status.
func (s *Service) RecordPayment(ctx context.Context, docID id.ID, accountID id.ID, amount types.Money, mode, notes string) (*Invoice, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}
	if id.IsNil(accountID) {
		return nil, apperror.NewValidation("payment account is required").
			WithDetail("field", "accountId")
	}

	var doc *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if !doc.IsFinalized() {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "payments require a finalized document").
				WithDetail("documentId", docID.String())
		}
		if !doc.OutstandingAmount().IsPositive() {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "invoice has no outstanding amount").
				WithDetail("outstanding", doc.OutstandingAmount().String())
		}
		if amount.GreaterThan(doc.OutstandingAmount()) {
			return apperror.NewValidation("payment exceeds outstanding amount").
				WithDetail("outstanding", doc.OutstandingAmount().String())
		}

		base := entity.NewEntryBase(time.Now().UTC(), entity.SourcePayment, doc.ID, appctx.GetUserID(ctx))
		e := entity.NewMoneyEntry(base, accountID, entity.MoneyCredit, amount)
		e.PartyID = doc.CustomerID
		e.Category = "sale_payment"
		e.Mode = mode
		e.Notes = notes
		if err := s.moneySvc.Append(ctx, []entity.MoneyEntry{e}); err != nil {
			return err
		}

		doc.PaidAmount = doc.PaidAmount.Add(amount)
		received := doc.PaidAmount.Add(doc.AdvanceGoldAmount())
		next := entity.PaymentStatusFor(received.IsPositive(), received.GreaterThanOrEqual(doc.TotalAmount))
		if err := doc.SetPaymentStatus(next); err != nil {
			return err
		}

		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "invoice payment recorded",
		"id", doc.ID,
		"amount", amount.String(),
		"payment_status", doc.PaymentStatus)

	return doc, nil
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}
