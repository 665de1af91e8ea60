package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"aurum/internal/core/apperror"
	"aurum/internal/domain/catalogs/party"
	"aurum/internal/infrastructure/storage/postgres"
)

const partyTable = "parties"

// PartyRepo implements party.Repository.
type PartyRepo struct {
	*BaseCatalogRepo[*party.Party]
}

// NewPartyRepo creates a new party repository.
func NewPartyRepo(txm *postgres.TxManager) *PartyRepo {
	return &PartyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			partyTable,
			postgres.ExtractDBColumns[party.Party](),
			func() *party.Party { return &party.Party{} },
		),
	}
}

var _ party.Repository = (*PartyRepo)(nil)

// FindByPhone retrieves a party by phone number.
func (r *PartyRepo) FindByPhone(ctx context.Context, phone string) (*party.Party, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"phone": phone}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	p, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("party", phone)
		}
		return nil, err
	}
	return p, nil
}
