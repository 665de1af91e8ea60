package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"aurum/internal/core/numerator"
)

func TestSequences_YearReset(t *testing.T) {
	ctx := context.Background()
	gen := NewSequences()
	cfg := numerator.DefaultConfig("PUR")

	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	got, err := gen.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), jan)
	if err != nil {
		t.Fatal(err)
	}
	if got != "PUR-2026-00001" {
		t.Errorf("got %q, want PUR-2026-00001", got)
	}

	got, _ = gen.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), jan)
	if got != "PUR-2026-00002" {
		t.Errorf("got %q, want PUR-2026-00002", got)
	}

	// A new year starts its own sequence
	nextYear := time.Date(2027, 1, 2, 0, 0, 0, 0, time.UTC)
	got, _ = gen.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), nextYear)
	if got != "PUR-2027-00001" {
		t.Errorf("got %q, want PUR-2027-00001", got)
	}
}

func TestSequences_NeverReset(t *testing.T) {
	ctx := context.Background()
	gen := NewSequences()

	cfg := numerator.Config{Prefix: "TXN", ResetPeriod: "never", PadWidth: 5}

	got, err := gen.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if got != "TXN-00001" {
		t.Errorf("got %q, want TXN-00001", got)
	}

	// The counter survives year boundaries
	got, _ = gen.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	if got != "TXN-00002" {
		t.Errorf("got %q, want TXN-00002", got)
	}
}

func TestSequences_MonthReset(t *testing.T) {
	ctx := context.Background()
	gen := NewSequences()
	cfg := numerator.Config{Prefix: "ADJ", IncludeYear: true, ResetPeriod: "month", PadWidth: 4}

	jan := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)

	got, _ := gen.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), jan)
	if got != "ADJ-2026-0001" {
		t.Errorf("got %q, want ADJ-2026-0001", got)
	}
	got, _ = gen.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), feb)
	if got != "ADJ-2026-0001" {
		t.Errorf("february restarts: got %q, want ADJ-2026-0001", got)
	}
}

func TestSequences_SetNextNumber(t *testing.T) {
	ctx := context.Background()
	gen := NewSequences()
	cfg := numerator.DefaultConfig("INV")
	period := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	if err := gen.SetNextNumber(ctx, cfg, period, 41); err != nil {
		t.Fatal(err)
	}

	got, _ := gen.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), period)
	if got != "INV-2026-00042" {
		t.Errorf("got %q, want INV-2026-00042", got)
	}
}

func TestSequences_ConcurrentUnique(t *testing.T) {
	ctx := context.Background()
	gen := NewSequences()
	cfg := numerator.DefaultConfig("PUR")
	period := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	const n = 50
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			num, err := gen.GetNextNumber(ctx, cfg, numerator.DefaultOptions(), period)
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = num
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, num := range results {
		if seen[num] {
			t.Fatalf("duplicate number %q", num)
		}
		seen[num] = true
	}
}
