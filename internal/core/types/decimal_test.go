package types

import (
	"encoding/json"
	"testing"
)

func TestWeight_ParseString(t *testing.T) {
	tests := []struct {
		in   string
		want Weight
	}{
		{"0", 0},
		{"0.000", 0},
		{"10.500", 10500},
		{"10.5", 10500},
		{"0.001", 1},
		{".5", 500},
		{"-2.250", -2250},
		{"+3", 3000},
		{"1.23456", 1234}, // extra digits truncated, never rounded
	}

	for _, tt := range tests {
		got, err := NewWeightFromString(tt.in)
		if err != nil {
			t.Fatalf("parse %q: unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("parse %q = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWeight_ParseErrors(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "1.2x"} {
		if _, err := NewWeightFromString(in); err == nil {
			t.Errorf("parse %q: expected error", in)
		}
	}
}

func TestWeight_String(t *testing.T) {
	tests := []struct {
		in   Weight
		want string
	}{
		{0, "0.000"},
		{10500, "10.500"},
		{1, "0.001"},
		{-2250, "-2.250"},
		{1000000, "1000.000"},
	}

	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("Weight(%d).String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWeight_JSONRoundTrip(t *testing.T) {
	w := MustWeight("12.345")

	data, err := json.Marshal(w)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "12.345" {
		t.Errorf("marshal = %s, want 12.345", data)
	}

	var back Weight
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if back != w {
		t.Errorf("round trip = %d, want %d", back, w)
	}

	// String form is accepted too
	if err := json.Unmarshal([]byte(`"12.345"`), &back); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if back != w {
		t.Errorf("string form = %d, want %d", back, w)
	}
}

func TestWeight_SignHelpers(t *testing.T) {
	w := MustWeight("1.500")
	if !w.IsPositive() || w.IsNegative() || w.IsZero() {
		t.Errorf("sign helpers wrong for %s", w)
	}
	if w.Neg() != -1500 {
		t.Errorf("Neg() = %d, want -1500", w.Neg())
	}
	if w.Neg().Abs() != w {
		t.Errorf("Abs() = %d, want %d", w.Neg().Abs(), w)
	}
}

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.454", "10.45"},
		{"10.455", "10.46"}, // half up
		{"10.456", "10.46"},
		{"-10.455", "-10.46"},
	}

	for _, tt := range tests {
		got := RoundMoney(MustMoney(tt.in))
		if got.StringFixed(2) != tt.want {
			t.Errorf("RoundMoney(%s) = %s, want %s", tt.in, got.StringFixed(2), tt.want)
		}
	}
}
