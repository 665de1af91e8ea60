package invoice

import "aurum/internal/core/numerator"

const (
	// NumberPrefix for invoice document numbers: INV-2026-00001
	NumberPrefix = "INV"

	// NumeratorStrategy defines the numbering strategy for this document type.
	// Invoice is a primary accounting document, so we use Strict strategy.
	NumeratorStrategy = numerator.StrategyStrict
)
