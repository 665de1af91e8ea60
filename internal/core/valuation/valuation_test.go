package valuation

import (
	"testing"

	"github.com/shopspring/decimal"

	"aurum/internal/core/apperror"
	"aurum/internal/core/types"
)

func TestAmount_FixedPurityIndependentOfEnteredPurity(t *testing.T) {
	table := MustTable()
	weight := types.MustWeight("10.500")
	factor := decimal.RequireFromString("0.920")

	// The entered purity never reaches the formula; the amount is the same
	// whether the item was declared 999, 916 or 750.
	for _, enteredPurity := range []int{999, 916, 750} {
		amount, err := table.Amount(weight, factor)
		if err != nil {
			t.Fatalf("purity %d: unexpected error: %v", enteredPurity, err)
		}
		if got := amount.StringFixed(2); got != "10454.35" {
			t.Errorf("purity %d: amount = %s, want 10454.35", enteredPurity, got)
		}
	}
}

func TestAmount_FactorChangesResult(t *testing.T) {
	table := MustTable()
	weight := types.MustWeight("10.000")

	a920, err := table.Amount(weight, decimal.RequireFromString("0.920"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a917, err := table.Amount(weight, decimal.RequireFromString("0.917"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a920.Equal(a917) {
		t.Errorf("expected different amounts for different factors, both = %s", a920)
	}
	if got := a920.StringFixed(2); got != "9956.52" {
		t.Errorf("factor 0.920: amount = %s, want 9956.52", got)
	}
	if got := a917.StringFixed(2); got != "9989.09" {
		t.Errorf("factor 0.917: amount = %s, want 9989.09", got)
	}
}

func TestAmount_RejectsUnknownFactor(t *testing.T) {
	table := MustTable()

	_, err := table.Amount(types.MustWeight("5.000"), decimal.RequireFromString("0.900"))
	if err == nil {
		t.Fatal("expected validation error for factor outside the allowed set")
	}
	if !apperror.IsValidation(err) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestAmount_RejectsNonPositiveWeight(t *testing.T) {
	table := MustTable()
	factor := decimal.RequireFromString("0.920")

	for _, w := range []string{"0.000", "-1.500"} {
		if _, err := table.Amount(types.MustWeight(w), factor); err == nil {
			t.Errorf("weight %s: expected validation error", w)
		}
	}
}

func TestLookup_NormalizesTrailingZeros(t *testing.T) {
	table := MustTable()

	if _, err := table.Lookup(decimal.RequireFromString("0.9200")); err != nil {
		t.Errorf("0.9200 should resolve to configured 0.920: %v", err)
	}
}
