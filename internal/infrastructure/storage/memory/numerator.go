package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aurum/internal/core/numerator"
)

// Sequences is an in-memory document number generator. Keys and number
// formats match the Postgres-backed generator so documents numbered by
// either look the same.
type Sequences struct {
	mu      sync.Mutex
	current map[string]int64
}

// NewSequences creates an in-memory number generator.
func NewSequences() *Sequences {
	return &Sequences{current: make(map[string]int64)}
}

var _ numerator.Generator = (*Sequences)(nil)

// GetNextNumber generates the next document number.
func (s *Sequences) GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sequenceKey(cfg, period)
	s.current[key]++

	return formatSequence(cfg, period, s.current[key]), nil
}

// SetNextNumber sets the next number value (for migration purposes).
func (s *Sequences) SetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current[sequenceKey(cfg, period)] = value
	return nil
}

func sequenceKey(cfg numerator.Config, period time.Time) string {
	switch cfg.ResetPeriod {
	case "month":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006_01"))
	case "year":
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	default:
		return cfg.Prefix
	}
}

func formatSequence(cfg numerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}
