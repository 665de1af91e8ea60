// Package valuation implements the internal 22K valuation rule for raw-gold
// trades: amount = round(weight_grams * 916 / conversion_factor, 2).
//
// The purity entered on a traded item is stored for record keeping only and
// never enters the formula; every trade is valued at the fixed 916 constant.
package valuation

import (
	"github.com/shopspring/decimal"

	"aurum/internal/core/apperror"
	"aurum/internal/core/types"
)

// FixedPurity is the single purity constant applied to every valuation,
// irrespective of the purity declared on the item.
const FixedPurity = 916

// DefaultConversionFactors is the configured divisor set. A conversion
// factor outside this set is rejected with a validation error.
var DefaultConversionFactors = []string{"0.920", "0.917"}

// Table validates conversion factors and computes trade amounts.
type Table struct {
	factors map[string]decimal.Decimal
}

// NewTable builds a valuation table from decimal-string factors.
// Passing no factors uses DefaultConversionFactors.
func NewTable(factors ...string) (*Table, error) {
	if len(factors) == 0 {
		factors = DefaultConversionFactors
	}
	t := &Table{factors: make(map[string]decimal.Decimal, len(factors))}
	for _, s := range factors {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, apperror.NewValidation("invalid conversion factor").
				WithDetail("factor", s).WithCause(err)
		}
		if !d.IsPositive() {
			return nil, apperror.NewValidation("conversion factor must be positive").
				WithDetail("factor", s)
		}
		t.factors[normalize(d)] = d
	}
	return t, nil
}

// MustTable builds a table, panics on error. For wiring and tests.
func MustTable(factors ...string) *Table {
	t, err := NewTable(factors...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup resolves a factor against the configured set.
func (t *Table) Lookup(factor decimal.Decimal) (decimal.Decimal, error) {
	d, ok := t.factors[normalize(factor)]
	if !ok {
		return decimal.Zero, apperror.NewValidation("conversion factor is not in the allowed set").
			WithDetail("factor", factor.String()).
			WithDetail("allowed", t.Allowed())
	}
	return d, nil
}

// Allowed returns the configured factor set as decimal strings.
func (t *Table) Allowed() []string {
	out := make([]string, 0, len(t.factors))
	for k := range t.factors {
		out = append(out, k)
	}
	return out
}

// Amount computes round(weight * FixedPurity / factor, 2).
// The factor must belong to the configured set; weight must be positive.
func (t *Table) Amount(weight types.Weight, factor decimal.Decimal) (types.Money, error) {
	if !weight.IsPositive() {
		return decimal.Zero, apperror.NewValidation("weight must be positive").
			WithDetail("weight", weight.String())
	}
	f, err := t.Lookup(factor)
	if err != nil {
		return decimal.Zero, err
	}
	amount := weight.Decimal().
		Mul(decimal.NewFromInt(FixedPurity)).
		Div(f)
	return types.RoundMoney(amount), nil
}

// normalize strips trailing zeros so "0.920" and "0.9200" hit the same key.
func normalize(d decimal.Decimal) string {
	return d.String()
}
