package dto

import (
	"aurum/internal/core/types"
)

// StockAdjustmentRequest records a manual stock correction.
// AuditRef is mandatory: adjustments exist to document physical counts.
type StockAdjustmentRequest struct {
	ItemID   string       `json:"itemId" binding:"required"`
	Purity   int          `json:"purity" binding:"required"`
	Weight   types.Weight `json:"weight" binding:"required"`
	AuditRef string       `json:"auditRef" binding:"required"`
}

// MoneyAdjustmentRequest records a manual money correction.
type MoneyAdjustmentRequest struct {
	AccountID string      `json:"accountId" binding:"required"`
	Direction string      `json:"direction" binding:"required"`
	Amount    types.Money `json:"amount" binding:"required"`
	AuditRef  string      `json:"auditRef" binding:"required"`
	Notes     string      `json:"notes"`
}

// GoldAdjustmentRequest records a manual gold balance correction.
type GoldAdjustmentRequest struct {
	PartyID  string       `json:"partyId" binding:"required"`
	Weight   types.Weight `json:"weight" binding:"required"`
	AuditRef string       `json:"auditRef" binding:"required"`
}

// BalanceResponse returns one as-of or cached balance value.
type BalanceResponse struct {
	Scope   string `json:"scope"`
	Balance string `json:"balance"`
	AsOf    string `json:"asOf,omitempty"`
}
