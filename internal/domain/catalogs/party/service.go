package party

import (
	"context"
	"fmt"
	"time"

	"aurum/internal/core/apperror"
	"aurum/internal/core/numerator"
	"aurum/internal/core/tx"
	"aurum/internal/domain"
)

// Service provides business logic for the Party catalog.
type Service struct {
	*domain.CatalogService[*Party]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Party service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Party]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "party",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      gen,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, p *Party) error {
	if p.Code == "" {
		cfg := numerator.DefaultConfig("PTY")
		cfg.IncludeYear = false
		cfg.ResetPeriod = "never"
		code, err := s.numerator.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}

	return s.checkPhoneUnique(ctx, p)
}

func (s *Service) prepareForUpdate(ctx context.Context, p *Party) error {
	return s.checkPhoneUnique(ctx, p)
}

// FindByPhone looks a party up by exact phone match.
func (s *Service) FindByPhone(ctx context.Context, phone string) (*Party, error) {
	if phone == "" {
		return nil, apperror.NewValidation("phone is required")
	}
	return s.repo.FindByPhone(ctx, phone)
}

// checkPhoneUnique rejects a second party with the same phone number.
func (s *Service) checkPhoneUnique(ctx context.Context, p *Party) error {
	if p.Phone == "" {
		return nil
	}

	existing, err := s.repo.FindByPhone(ctx, p.Phone)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != p.ID {
		return apperror.NewConflict("party with this phone already exists").
			WithDetail("phone", p.Phone)
	}
	return nil
}
