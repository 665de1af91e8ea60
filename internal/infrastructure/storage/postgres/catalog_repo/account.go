package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"aurum/internal/core/apperror"
	"aurum/internal/domain/catalogs/account"
	"aurum/internal/infrastructure/storage/postgres"
)

const accountTable = "accounts"

// AccountRepo implements account.Repository.
type AccountRepo struct {
	*BaseCatalogRepo[*account.Account]
}

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			accountTable,
			postgres.ExtractDBColumns[account.Account](),
			func() *account.Account { return &account.Account{} },
		),
	}
}

var _ account.Repository = (*AccountRepo)(nil)

// GetByClassification returns the first non-deleted account with the given
// classification. System accounts (gold received, etc.) are resolved this way.
func (r *AccountRepo) GetByClassification(ctx context.Context, class account.Classification) (*account.Account, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"classification": class}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("created_at").
		Limit(1)

	acc, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("account", string(class))
		}
		return nil, err
	}
	return acc, nil
}
