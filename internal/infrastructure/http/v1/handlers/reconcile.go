package handlers

import (
	"github.com/gin-gonic/gin"

	"aurum/internal/core/apperror"
	"aurum/internal/core/entity"
	"aurum/internal/core/id"
	"aurum/internal/domain/reconcile"
)

// ReconcileHandler exposes read-only reconciliation endpoints.
// Nothing here mutates state: mismatches are reported, never repaired.
type ReconcileHandler struct {
	*BaseHandler
	service *reconcile.Service
}

// NewReconcileHandler creates a new reconciliation handler.
func NewReconcileHandler(base *BaseHandler, service *reconcile.Service) *ReconcileHandler {
	return &ReconcileHandler{BaseHandler: base, service: service}
}

// Status handles GET /reconcile/status - all three ledgers at once.
func (h *ReconcileHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	status, err := h.service.SystemStatus(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, status)
}

// Ledger handles GET /reconcile/:ledger - one ledger report.
func (h *ReconcileHandler) Ledger(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		report reconcile.LedgerReport
		err    error
	)

	switch c.Param("ledger") {
	case "stock":
		report, err = h.service.ReconcileStock(ctx)
	case "money":
		report, err = h.service.ReconcileMoney(ctx)
	case "gold":
		report, err = h.service.ReconcileGold(ctx)
	default:
		h.Error(c, apperror.NewValidation("unknown ledger").
			WithDetail("value", c.Param("ledger")))
		return
	}

	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// DeletePreview handles GET /reconcile/delete-preview?kind=&entryId=
// Shows what soft-deleting a ledger entry would do to the cached balance.
func (h *ReconcileHandler) DeletePreview(c *gin.Context) {
	ctx := c.Request.Context()

	kind := entity.LedgerKind(c.Query("kind"))

	entryID, err := id.Parse(c.Query("entryId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid entryId format"))
		return
	}

	impact, err := h.service.PreviewDelete(ctx, kind, entryID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, impact)
}
