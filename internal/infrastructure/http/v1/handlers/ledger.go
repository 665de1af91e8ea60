package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/domain/ledgers/gold"
	"aurum/internal/domain/ledgers/money"
	"aurum/internal/domain/ledgers/stock"
	"aurum/internal/infrastructure/http/v1/dto"
)

// --- Stock ledger ---

// StockLedgerHandler exposes the stock movement ledger: history, balances,
// manual adjustments and entry soft-deletes.
type StockLedgerHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockLedgerHandler creates a new stock ledger handler.
func NewStockLedgerHandler(base *BaseHandler, service *stock.Service) *StockLedgerHandler {
	return &StockLedgerHandler{BaseHandler: base, service: service}
}

// History handles GET /ledgers/stock/entries
func (h *StockLedgerHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	filter := stock.EntryFilter{
		Limit:          h.ParseIntQuery(c, "limit", 50),
		Offset:         h.ParseIntQuery(c, "offset", 0),
		IncludeDeleted: c.Query("includeDeleted") == "true",
	}

	if itemID := c.Query("itemId"); itemID != "" {
		if parsed, err := id.Parse(itemID); err == nil {
			filter.ItemID = &parsed
		}
	}
	if purity := c.Query("purity"); purity != "" {
		val := h.ParseIntQuery(c, "purity", 0)
		filter.Purity = &val
	}
	if kind := c.Query("sourceKind"); kind != "" {
		val := entity.SourceKind(kind)
		filter.SourceKind = &val
	}
	if direction := c.Query("direction"); direction != "" {
		val := entity.Direction(direction)
		filter.Direction = &val
	}
	if from := c.Query("from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.FromDate = &parsed
		}
	}
	if to := c.Query("to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.ToDate = &parsed
		}
	}

	entries, err := h.service.History(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}

// Balances handles GET /ledgers/stock/balances - current cached stock.
func (h *StockLedgerHandler) Balances(c *gin.Context) {
	ctx := c.Request.Context()

	excludeZero := c.Query("includeZero") != "true"

	balances, err := h.service.CurrentStock(ctx, excludeZero)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": balances})
}

// Balance handles GET /ledgers/stock/balance?itemId=&purity=&asOf=
// Without asOf it returns the cached row; with asOf it recomputes from
// the entries as of that cutoff.
func (h *StockLedgerHandler) Balance(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, err := id.Parse(c.Query("itemId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemId format"))
		return
	}
	purity := h.ParseIntQuery(c, "purity", 0)
	if purity <= 0 {
		h.Error(c, apperror.NewValidation("purity is required"))
		return
	}

	if asOf := c.Query("asOf"); asOf != "" {
		cutoff, err := time.Parse(time.RFC3339, asOf)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid asOf format (RFC3339 expected)"))
			return
		}

		weight, err := h.service.BalanceAsOf(ctx, itemID, purity, cutoff)
		if err != nil {
			h.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, dto.BalanceResponse{
			Scope:   fmt.Sprintf("%s/%d", itemID, purity),
			Balance: weight.String(),
			AsOf:    cutoff.Format(time.RFC3339),
		})
		return
	}

	balance, err := h.service.CachedBalance(ctx, itemID, purity)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// Adjust handles POST /ledgers/stock/adjustments
func (h *StockLedgerHandler) Adjust(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.StockAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	itemID, err := id.Parse(req.ItemID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid itemId format"))
		return
	}

	entry, err := h.service.ManualAdjustment(ctx, itemID, req.Purity, req.Weight, req.AuditRef, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// SoftDelete handles POST /ledgers/stock/entries/:id/soft-delete
func (h *StockLedgerHandler) SoftDelete(c *gin.Context) {
	ctx := c.Request.Context()

	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SoftDeleteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SoftDelete(ctx, entryID, req.Reason); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "entry marked deleted")
}

// --- Money ledger ---

// MoneyLedgerHandler exposes the money transaction ledger.
type MoneyLedgerHandler struct {
	*BaseHandler
	service *money.Service
}

// NewMoneyLedgerHandler creates a new money ledger handler.
func NewMoneyLedgerHandler(base *BaseHandler, service *money.Service) *MoneyLedgerHandler {
	return &MoneyLedgerHandler{BaseHandler: base, service: service}
}

// History handles GET /ledgers/money/entries
func (h *MoneyLedgerHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	filter := money.EntryFilter{
		Limit:          h.ParseIntQuery(c, "limit", 50),
		Offset:         h.ParseIntQuery(c, "offset", 0),
		IncludeDeleted: c.Query("includeDeleted") == "true",
	}

	if accountID := c.Query("accountId"); accountID != "" {
		if parsed, err := id.Parse(accountID); err == nil {
			filter.AccountID = &parsed
		}
	}
	if partyID := c.Query("partyId"); partyID != "" {
		if parsed, err := id.Parse(partyID); err == nil {
			filter.PartyID = &parsed
		}
	}
	if kind := c.Query("sourceKind"); kind != "" {
		val := entity.SourceKind(kind)
		filter.SourceKind = &val
	}
	if direction := c.Query("direction"); direction != "" {
		val := entity.MoneyDirection(direction)
		filter.Direction = &val
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if from := c.Query("from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.FromDate = &parsed
		}
	}
	if to := c.Query("to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.ToDate = &parsed
		}
	}

	entries, err := h.service.History(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}

// Balance handles GET /ledgers/money/balance/:accountId?asOf=
// The balance is always opening balance plus signed entry sums up to the
// cutoff; without asOf the cutoff is now.
func (h *MoneyLedgerHandler) Balance(c *gin.Context) {
	ctx := c.Request.Context()

	accountID, err := id.Parse(c.Param("accountId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid accountId format"))
		return
	}

	cutoff := time.Now()
	asOfGiven := ""
	if asOf := c.Query("asOf"); asOf != "" {
		parsed, err := time.Parse(time.RFC3339, asOf)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid asOf format (RFC3339 expected)"))
			return
		}
		cutoff = parsed
		asOfGiven = cutoff.Format(time.RFC3339)
	}

	balance, err := h.service.BalanceAsOf(ctx, accountID, cutoff)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		Scope:   accountID.String(),
		Balance: balance.StringFixed(2),
		AsOf:    asOfGiven,
	})
}

// Adjust handles POST /ledgers/money/adjustments
func (h *MoneyLedgerHandler) Adjust(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.MoneyAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	accountID, err := id.Parse(req.AccountID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid accountId format"))
		return
	}

	direction := entity.MoneyDirection(req.Direction)

	entry, err := h.service.ManualAdjustment(ctx, accountID, direction, req.Amount, req.AuditRef, req.Notes, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// SoftDelete handles POST /ledgers/money/entries/:id/soft-delete
func (h *MoneyLedgerHandler) SoftDelete(c *gin.Context) {
	ctx := c.Request.Context()

	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SoftDeleteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SoftDelete(ctx, entryID, req.Reason); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "entry marked deleted")
}

// --- Gold ledger ---

// GoldLedgerHandler exposes the per-party raw gold ledger.
type GoldLedgerHandler struct {
	*BaseHandler
	service *gold.Service
}

// NewGoldLedgerHandler creates a new gold ledger handler.
func NewGoldLedgerHandler(base *BaseHandler, service *gold.Service) *GoldLedgerHandler {
	return &GoldLedgerHandler{BaseHandler: base, service: service}
}

// History handles GET /ledgers/gold/entries
func (h *GoldLedgerHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	filter := gold.EntryFilter{
		Limit:          h.ParseIntQuery(c, "limit", 50),
		Offset:         h.ParseIntQuery(c, "offset", 0),
		IncludeDeleted: c.Query("includeDeleted") == "true",
	}

	if partyID := c.Query("partyId"); partyID != "" {
		if parsed, err := id.Parse(partyID); err == nil {
			filter.PartyID = &parsed
		}
	}
	if kind := c.Query("sourceKind"); kind != "" {
		val := entity.SourceKind(kind)
		filter.SourceKind = &val
	}
	if direction := c.Query("direction"); direction != "" {
		val := entity.Direction(direction)
		filter.Direction = &val
	}
	if purpose := c.Query("purpose"); purpose != "" {
		filter.Purpose = &purpose
	}
	if from := c.Query("from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.FromDate = &parsed
		}
	}
	if to := c.Query("to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.ToDate = &parsed
		}
	}

	entries, err := h.service.History(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": entries})
}

// Balance handles GET /ledgers/gold/balance/:partyId?asOf=
// Outstanding gold may be negative and is reported as stored.
func (h *GoldLedgerHandler) Balance(c *gin.Context) {
	ctx := c.Request.Context()

	partyID, err := id.Parse(c.Param("partyId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid partyId format"))
		return
	}

	if asOf := c.Query("asOf"); asOf != "" {
		cutoff, err := time.Parse(time.RFC3339, asOf)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid asOf format (RFC3339 expected)"))
			return
		}

		weight, err := h.service.BalanceAsOf(ctx, partyID, cutoff)
		if err != nil {
			h.Error(c, err)
			return
		}

		c.JSON(http.StatusOK, dto.BalanceResponse{
			Scope:   partyID.String(),
			Balance: weight.String(),
			AsOf:    cutoff.Format(time.RFC3339),
		})
		return
	}

	balance, err := h.service.CachedBalance(ctx, partyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// Adjust handles POST /ledgers/gold/adjustments
func (h *GoldLedgerHandler) Adjust(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GoldAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	partyID, err := id.Parse(req.PartyID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid partyId format"))
		return
	}

	entry, err := h.service.ManualAdjustment(ctx, partyID, req.Weight, req.AuditRef, h.GetUserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// SoftDelete handles POST /ledgers/gold/entries/:id/soft-delete
func (h *GoldLedgerHandler) SoftDelete(c *gin.Context) {
	ctx := c.Request.Context()

	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.SoftDeleteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SoftDelete(ctx, entryID, req.Reason); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "entry marked deleted")
}
