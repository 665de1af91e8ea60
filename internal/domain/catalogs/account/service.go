package account

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/numerator"
	"aurum/internal/core/tx"
	"aurum/internal/domain"
)

// Service provides business logic for the Account catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Account]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Account service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Account]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "account",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      gen,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeDelete(svc.checkDeletable)

	return svc
}

// prepareForCreate handles code generation and uniqueness checks.
func (s *Service) prepareForCreate(ctx context.Context, a *Account) error {
	if a.Code == "" {
		cfg := numerator.DefaultConfig("ACC")
		cfg.IncludeYear = false
		cfg.ResetPeriod = "never"
		code, err := s.numerator.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		a.Code = code
	}

	exists, err := s.repo.ExistsByCode(ctx, a.Code)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewConflict("account with this code already exists").
			WithDetail("code", a.Code)
	}

	// New accounts start at their opening balance
	a.CurrentBalance = a.OpeningBalance

	return nil
}

// checkDeletable prevents removal of seeded system accounts.
func (s *Service) checkDeletable(ctx context.Context, a *Account) error {
	if a.System {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "system account cannot be deleted").
			WithDetail("accountId", a.ID.String()).
			WithDetail("classification", string(a.Classification))
	}
	return nil
}

// GetSystemAccount resolves the seeded account for a classification.
// The gold received account is looked up this way during sale finalization.
func (s *Service) GetSystemAccount(ctx context.Context, class Classification) (*Account, error) {
	a, err := s.repo.GetByClassification(ctx, class)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("system account", string(class))
		}
		return nil, err
	}
	return a, nil
}
