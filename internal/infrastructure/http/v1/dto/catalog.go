package dto

import (
	"aurum/internal/core/types"
	"aurum/internal/domain/catalogs/account"
	"aurum/internal/domain/catalogs/item"
	"aurum/internal/domain/catalogs/party"
)

// --- Account ---

// CreateAccountRequest for creating accounts.
type CreateAccountRequest struct {
	Code           string `json:"code"`
	Name           string `json:"name" binding:"required"`
	Classification string `json:"classification" binding:"required"`
	OpeningBalance string `json:"openingBalance"`
	Description    string `json:"description"`
}

// ToEntity converts request to domain entity.
func (r CreateAccountRequest) ToEntity() (*account.Account, error) {
	a := account.New(r.Code, r.Name, account.Classification(r.Classification))
	a.Description = r.Description

	if r.OpeningBalance != "" {
		opening, err := types.NewMoneyFromString(r.OpeningBalance)
		if err != nil {
			return nil, err
		}
		a.OpeningBalance = opening
		a.CurrentBalance = opening
	}
	return a, nil
}

// UpdateAccountRequest for updating accounts.
// Classification and opening balance are fixed after creation.
type UpdateAccountRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Version     int     `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the update onto an existing account.
func (r UpdateAccountRequest) ApplyTo(a *account.Account) {
	if r.Name != nil {
		a.Name = *r.Name
	}
	if r.Description != nil {
		a.Description = *r.Description
	}
	a.Version = r.Version
}

// --- Item ---

// CreateItemRequest for creating items.
type CreateItemRequest struct {
	Code          string `json:"code"`
	Name          string `json:"name" binding:"required"`
	Category      string `json:"category"`
	DefaultPurity int    `json:"defaultPurity"`
	Description   string `json:"description"`
}

// ToEntity converts request to domain entity.
func (r CreateItemRequest) ToEntity() *item.Item {
	it := item.New(r.Code, r.Name)
	it.Category = r.Category
	it.DefaultPurity = r.DefaultPurity
	it.Description = r.Description
	return it
}

// UpdateItemRequest for updating items.
type UpdateItemRequest struct {
	Name          *string `json:"name"`
	Category      *string `json:"category"`
	DefaultPurity *int    `json:"defaultPurity"`
	Description   *string `json:"description"`
	Version       int     `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the update onto an existing item.
func (r UpdateItemRequest) ApplyTo(it *item.Item) {
	if r.Name != nil {
		it.Name = *r.Name
	}
	if r.Category != nil {
		it.Category = *r.Category
	}
	if r.DefaultPurity != nil {
		it.DefaultPurity = *r.DefaultPurity
	}
	if r.Description != nil {
		it.Description = *r.Description
	}
	it.Version = r.Version
}

// --- Party ---

// CreatePartyRequest for creating parties.
type CreatePartyRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Comment string `json:"comment"`
}

// ToEntity converts request to domain entity.
func (r CreatePartyRequest) ToEntity() *party.Party {
	p := party.New(r.Code, r.Name, party.PartyType(r.Type))
	p.Phone = r.Phone
	p.Address = r.Address
	p.Comment = r.Comment
	return p
}

// UpdatePartyRequest for updating parties.
type UpdatePartyRequest struct {
	Name    *string `json:"name"`
	Type    *string `json:"type"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Comment *string `json:"comment"`
	Version int     `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the update onto an existing party.
func (r UpdatePartyRequest) ApplyTo(p *party.Party) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Type != nil {
		p.Type = party.PartyType(*r.Type)
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if r.Address != nil {
		p.Address = *r.Address
	}
	if r.Comment != nil {
		p.Comment = *r.Comment
	}
	p.Version = r.Version
}
