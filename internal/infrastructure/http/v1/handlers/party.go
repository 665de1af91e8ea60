package handlers

import (
	"github.com/gin-gonic/gin"

	"aurum/internal/domain/catalogs/party"
	"aurum/internal/infrastructure/http/v1/dto"
)

// PartyHandler handles HTTP requests for the party catalog.
type PartyHandler struct {
	*CatalogHandler[*party.Party, dto.CreatePartyRequest, dto.UpdatePartyRequest]
	service *party.Service
}

// NewPartyHandler creates a new party handler.
func NewPartyHandler(base *BaseHandler, service *party.Service) *PartyHandler {
	cfg := CatalogHandlerConfig[*party.Party, dto.CreatePartyRequest, dto.UpdatePartyRequest]{
		Service:    service.CatalogService,
		EntityName: "party",
		MapCreateDTO: func(req dto.CreatePartyRequest) (*party.Party, error) {
			return req.ToEntity(), nil
		},
		MapUpdateDTO: func(req dto.UpdatePartyRequest, existing *party.Party) error {
			req.ApplyTo(existing)
			return nil
		},
	}

	return &PartyHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
		service:        service,
	}
}

// FindByPhone handles GET /catalog/parties/by-phone?phone=... - counter
// staff look parties up by phone at the counter.
func (h *PartyHandler) FindByPhone(c *gin.Context) {
	ctx := c.Request.Context()

	p, err := h.service.FindByPhone(ctx, c.Query("phone"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}
