// Package finalize provides the document finalization engine.
// Finalization turns a draft document into ledger entries atomically:
// entries, balance caches and the document lock flag move in one
// transaction or not at all.
package finalize

import (
	"aurum/internal/core/entity"
)

// EntrySet accumulates the ledger entries a document produces on
// finalization, grouped by ledger.
type EntrySet struct {
	Stock []entity.StockEntry
	Money []entity.MoneyEntry
	Gold  []entity.GoldEntry
}

// NewEntrySet creates an empty entry set.
func NewEntrySet() *EntrySet {
	return &EntrySet{
		Stock: make([]entity.StockEntry, 0),
		Money: make([]entity.MoneyEntry, 0),
		Gold:  make([]entity.GoldEntry, 0),
	}
}

// AddStock appends a stock ledger entry.
func (s *EntrySet) AddStock(e entity.StockEntry) {
	s.Stock = append(s.Stock, e)
}

// AddMoney appends a money ledger entry.
func (s *EntrySet) AddMoney(e entity.MoneyEntry) {
	s.Money = append(s.Money, e)
}

// AddGold appends a gold ledger entry.
func (s *EntrySet) AddGold(e entity.GoldEntry) {
	s.Gold = append(s.Gold, e)
}

// IsEmpty reports whether the set contains no entries.
func (s *EntrySet) IsEmpty() bool {
	return len(s.Stock) == 0 && len(s.Money) == 0 && len(s.Gold) == 0
}

// Count returns the total number of entries across all ledgers.
func (s *EntrySet) Count() int {
	return len(s.Stock) + len(s.Money) + len(s.Gold)
}
