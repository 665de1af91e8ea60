// Package reconcile provides read-only verification of cached balances
// against recomputed ledger totals. It reports drift and never repairs it:
// fixing a mismatch is a human decision, made with a manual adjustment.
package reconcile

import (
	"time"

	"aurum/internal/core/entity"
	"aurum/internal/core/id"
)

// Mismatch is one cached-vs-recomputed difference.
type Mismatch struct {
	// Scope identifies the balance row (item+purity, account, party)
	Scope string `json:"scope"`

	// Cached is the value the balance table holds
	Cached string `json:"cached"`

	// Computed is the value recomputed from non-deleted entries
	Computed string `json:"computed"`

	// Delta is cached minus computed
	Delta string `json:"delta"`
}

// LedgerReport is the reconciliation result for one ledger.
type LedgerReport struct {
	Kind      entity.LedgerKind `json:"kind"`
	CheckedAt time.Time         `json:"checkedAt"`

	// RowsChecked counts compared balance rows
	RowsChecked int `json:"rowsChecked"`

	Mismatches []Mismatch `json:"mismatches"`
}

// Clean reports whether the ledger shows no drift.
func (r LedgerReport) Clean() bool {
	return len(r.Mismatches) == 0
}

// SystemStatus aggregates reconciliation across all three ledgers.
type SystemStatus struct {
	CheckedAt time.Time `json:"checkedAt"`

	Stock LedgerReport `json:"stock"`
	Money LedgerReport `json:"money"`
	Gold  LedgerReport `json:"gold"`
}

// Healthy reports whether every ledger is clean.
func (s SystemStatus) Healthy() bool {
	return s.Stock.Clean() && s.Money.Clean() && s.Gold.Clean()
}

// DeleteImpact previews what soft-deleting an entry would do to the
// affected balance. Read-only: nothing is deleted.
type DeleteImpact struct {
	EntryID    id.ID             `json:"entryId"`
	LedgerKind entity.LedgerKind `json:"ledgerKind"`

	// Scope identifies the affected balance row
	Scope string `json:"scope"`

	// Contribution is the entry's signed effect on the balance
	Contribution string `json:"contribution"`

	// BalanceBefore is the current cached balance
	BalanceBefore string `json:"balanceBefore"`

	// BalanceAfter is the cached balance once the entry is excluded
	BalanceAfter string `json:"balanceAfter"`

	// AlreadyDeleted marks entries whose contribution is already excluded
	AlreadyDeleted bool `json:"alreadyDeleted"`

	// Source document reference for context
	SourceKind entity.SourceKind `json:"sourceKind"`
	SourceID   id.ID             `json:"sourceId"`
}
