package returns

import "aurum/internal/core/numerator"

const (
	// NumberPrefix for return document numbers: RET-2026-00001
	NumberPrefix = "RET"

	// NumeratorStrategy defines the numbering strategy for this document type.
	// Returns touch money directly, so we use Strict strategy.
	NumeratorStrategy = numerator.StrategyStrict
)
