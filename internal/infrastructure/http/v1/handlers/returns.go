package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aurum/internal/core/apperror"
	"aurum/internal/core/id"
	"aurum/internal/domain"
	"aurum/internal/domain/documents/returns"
	"aurum/internal/infrastructure/http/v1/dto"
)

// ReturnHandler handles HTTP requests for return documents.
type ReturnHandler struct {
	*BaseHandler
	service *returns.Service
}

// NewReturnHandler creates a new return handler.
func NewReturnHandler(base *BaseHandler, service *returns.Service) *ReturnHandler {
	return &ReturnHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /document/returns
func (h *ReturnHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	if req.FinalizeImmediately {
		doc, err = h.service.Finalize(ctx, doc.ID)
		if err != nil {
			h.Error(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, doc)
}

// Get handles GET /document/returns/:id
func (h *ReturnHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Update handles PUT /document/returns/:id - drafts only.
func (h *ReturnHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(doc); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// Delete handles DELETE /document/returns/:id - soft delete, drafts only.
func (h *ReturnHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Finalize handles POST /document/returns/:id/finalize
func (h *ReturnHandler) Finalize(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	doc, err := h.service.Finalize(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// ResolveInventory handles POST /document/returns/:id/resolve-inventory -
// closes the manual stock follow-up flag once the physical count is done.
func (h *ReturnHandler) ResolveInventory(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ResolveInventoryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.ResolveInventoryAction(ctx, docID, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, doc)
}

// List handles GET /document/returns - list with filtering.
func (h *ReturnHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := returns.ListFilter{
		ListFilter: domain.DefaultListFilter(),
	}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "date DESC")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if kind := c.Query("kind"); kind != "" {
		val := returns.Kind(kind)
		filter.Kind = &val
	}

	if partyID := c.Query("partyId"); partyID != "" {
		if parsed, err := id.Parse(partyID); err == nil {
			filter.PartyID = &parsed
		}
	}

	if finalized := c.Query("finalized"); finalized != "" {
		val := finalized == "true"
		filter.Finalized = &val
	}

	if pending := c.Query("inventoryActionRequired"); pending != "" {
		val := pending == "true"
		filter.InventoryActionRequired = &val
	}

	if dateFrom := c.Query("dateFrom"); dateFrom != "" {
		if parsed, err := time.Parse(time.RFC3339, dateFrom); err == nil {
			filter.DateFrom = &parsed
		}
	}

	if dateTo := c.Query("dateTo"); dateTo != "" {
		if parsed, err := time.Parse(time.RFC3339, dateTo); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
