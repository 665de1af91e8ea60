package memory

import (
	"context"
	"sort"
	"strings"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/domain"
	"aurum/internal/domain/catalogs/account"
	"aurum/internal/domain/catalogs/item"
	"aurum/internal/domain/catalogs/party"
)

// catalogView implements domain.CatalogRepository over one of the store maps.
// The items func re-reads the map on every call because restore() swaps the
// maps wholesale.
type catalogView[T any] struct {
	s     *Store
	name  string
	items func() map[id.ID]T
	meta  func(T) *entity.Catalog
	clone func(T) T
}

func (v *catalogView[T]) Create(ctx context.Context, e T) error {
	defer v.s.acquire(ctx)()
	m := v.meta(e)
	if _, exists := v.items()[m.ID]; exists {
		return apperror.NewConflict("already exists").WithDetail("id", m.ID.String())
	}
	v.items()[m.ID] = v.clone(e)
	return nil
}

func (v *catalogView[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	defer v.s.acquire(ctx)()
	return v.getLocked(entityID)
}

func (v *catalogView[T]) getLocked(entityID id.ID) (T, error) {
	e, ok := v.items()[entityID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound(v.name, entityID.String())
	}
	return v.clone(e), nil
}

func (v *catalogView[T]) GetByCode(ctx context.Context, code string) (T, error) {
	defer v.s.acquire(ctx)()
	for _, e := range v.items() {
		m := v.meta(e)
		if m.Code == code && !m.DeletionMark {
			return v.clone(e), nil
		}
	}
	var zero T
	return zero, apperror.NewNotFound(v.name, code)
}

func (v *catalogView[T]) Update(ctx context.Context, e T) error {
	defer v.s.acquire(ctx)()
	m := v.meta(e)
	existing, ok := v.items()[m.ID]
	if !ok {
		return apperror.NewNotFound(v.name, m.ID.String())
	}
	if v.meta(existing).Version != m.Version {
		return apperror.NewConcurrentModification(v.name, m.ID)
	}
	updated := v.clone(e)
	v.meta(updated).Version++
	v.items()[m.ID] = updated
	return nil
}

func (v *catalogView[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	defer v.s.acquire(ctx)()
	e, ok := v.items()[entityID]
	if !ok {
		return apperror.NewNotFound(v.name, entityID.String())
	}
	updated := v.clone(e)
	m := v.meta(updated)
	m.DeletionMark = marked
	m.Version++
	v.items()[entityID] = updated
	return nil
}

func (v *catalogView[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	defer v.s.acquire(ctx)()

	wanted := make(map[id.ID]bool, len(filter.IDs))
	for _, entityID := range filter.IDs {
		wanted[entityID] = true
	}
	search := strings.ToLower(filter.Search)

	var matched []T
	for _, e := range v.items() {
		m := v.meta(e)
		if !filter.IncludeDeleted && m.DeletionMark {
			continue
		}
		if len(wanted) > 0 && !wanted[m.ID] {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Name), search) &&
			!strings.Contains(strings.ToLower(m.Code), search) {
			continue
		}
		matched = append(matched, v.clone(e))
	}

	sort.Slice(matched, func(i, j int) bool {
		return v.meta(matched[i]).Name < v.meta(matched[j]).Name
	})

	result := domain.ListResult[T]{
		TotalCount: int64(len(matched)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	result.Items = paginate(matched, filter.Limit, filter.Offset)
	return result, nil
}

func (v *catalogView[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	defer v.s.acquire(ctx)()
	_, ok := v.items()[entityID]
	return ok, nil
}

func (v *catalogView[T]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	defer v.s.acquire(ctx)()
	for _, e := range v.items() {
		m := v.meta(e)
		if m.Code == code && !m.DeletionMark {
			return true, nil
		}
	}
	return false, nil
}

// GetForUpdate is GetByID under the global lock.
func (v *catalogView[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return v.GetByID(ctx, entityID)
}

// --- Accounts ---

// AccountCatalog implements account.Repository.
type AccountCatalog struct {
	*catalogView[*account.Account]
}

// Accounts returns the account catalog view of the store.
func (s *Store) Accounts() *AccountCatalog {
	return &AccountCatalog{
		catalogView: &catalogView[*account.Account]{
			s:     s,
			name:  "account",
			items: func() map[id.ID]*account.Account { return s.accounts },
			meta:  func(a *account.Account) *entity.Catalog { return &a.Catalog },
			clone: func(a *account.Account) *account.Account { c := *a; return &c },
		},
	}
}

var _ account.Repository = (*AccountCatalog)(nil)

func (v *AccountCatalog) GetByClassification(ctx context.Context, class account.Classification) (*account.Account, error) {
	defer v.s.acquire(ctx)()
	var found *account.Account
	for _, a := range v.s.accounts {
		if a.Classification != class || a.DeletionMark {
			continue
		}
		if found == nil || a.CreatedAt.Before(found.CreatedAt) {
			found = a
		}
	}
	if found == nil {
		return nil, apperror.NewNotFound("account", string(class))
	}
	c := *found
	return &c, nil
}

// --- Items ---

// ItemCatalog implements item.Repository.
type ItemCatalog struct {
	*catalogView[*item.Item]
}

// Items returns the item catalog view of the store.
func (s *Store) Items() *ItemCatalog {
	return &ItemCatalog{
		catalogView: &catalogView[*item.Item]{
			s:     s,
			name:  "item",
			items: func() map[id.ID]*item.Item { return s.items },
			meta:  func(i *item.Item) *entity.Catalog { return &i.Catalog },
			clone: func(i *item.Item) *item.Item { c := *i; return &c },
		},
	}
}

var _ item.Repository = (*ItemCatalog)(nil)

// --- Parties ---

// PartyCatalog implements party.Repository.
type PartyCatalog struct {
	*catalogView[*party.Party]
}

// Parties returns the party catalog view of the store.
func (s *Store) Parties() *PartyCatalog {
	return &PartyCatalog{
		catalogView: &catalogView[*party.Party]{
			s:     s,
			name:  "party",
			items: func() map[id.ID]*party.Party { return s.parties },
			meta:  func(p *party.Party) *entity.Catalog { return &p.Catalog },
			clone: func(p *party.Party) *party.Party { c := *p; return &c },
		},
	}
}

var _ party.Repository = (*PartyCatalog)(nil)

func (v *PartyCatalog) FindByPhone(ctx context.Context, phone string) (*party.Party, error) {
	defer v.s.acquire(ctx)()
	for _, p := range v.s.parties {
		if p.Phone == phone && !p.DeletionMark {
			c := *p
			return &c, nil
		}
	}
	return nil, apperror.NewNotFound("party", phone)
}
