package handlers

import (
	"aurum/internal/domain/catalogs/item"
	"aurum/internal/infrastructure/http/v1/dto"
)

// ItemHandler handles HTTP requests for the item catalog.
type ItemHandler struct {
	*CatalogHandler[*item.Item, dto.CreateItemRequest, dto.UpdateItemRequest]
}

// NewItemHandler creates a new item handler.
func NewItemHandler(base *BaseHandler, service *item.Service) *ItemHandler {
	cfg := CatalogHandlerConfig[*item.Item, dto.CreateItemRequest, dto.UpdateItemRequest]{
		Service:    service.CatalogService,
		EntityName: "item",
		MapCreateDTO: func(req dto.CreateItemRequest) (*item.Item, error) {
			return req.ToEntity(), nil
		},
		MapUpdateDTO: func(req dto.UpdateItemRequest, existing *item.Item) error {
			req.ApplyTo(existing)
			return nil
		},
	}

	return &ItemHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
	}
}
