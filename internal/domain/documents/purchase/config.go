package purchase

import "aurum/internal/core/numerator"

const (
	// NumberPrefix for purchase document numbers: PUR-2026-00001
	NumberPrefix = "PUR"

	// NumeratorStrategy defines the numbering strategy for this document type.
	// Purchase is a primary accounting document, so we use Strict strategy.
	NumeratorStrategy = numerator.StrategyStrict
)
