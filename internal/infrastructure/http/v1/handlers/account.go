package handlers

import (
	"github.com/gin-gonic/gin"

	"aurum/internal/domain/catalogs/account"
	"aurum/internal/infrastructure/http/v1/dto"
)

// AccountHandler handles HTTP requests for the chart of accounts.
type AccountHandler struct {
	*CatalogHandler[*account.Account, dto.CreateAccountRequest, dto.UpdateAccountRequest]
	service *account.Service
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(base *BaseHandler, service *account.Service) *AccountHandler {
	cfg := CatalogHandlerConfig[*account.Account, dto.CreateAccountRequest, dto.UpdateAccountRequest]{
		Service:    service.CatalogService,
		EntityName: "account",
		MapCreateDTO: func(req dto.CreateAccountRequest) (*account.Account, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateAccountRequest, existing *account.Account) error {
			req.ApplyTo(existing)
			return nil
		},
	}

	return &AccountHandler{
		CatalogHandler: NewCatalogHandler(base, cfg),
		service:        service,
	}
}

// GetSystem handles GET /catalog/accounts/system/:classification - resolve
// a seeded system account such as the gold received account.
func (h *AccountHandler) GetSystem(c *gin.Context) {
	ctx := c.Request.Context()

	class := account.Classification(c.Param("classification"))

	acc, err := h.service.GetSystemAccount(ctx, class)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, acc)
}
