package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		{"x", 5, 5},
		{" 42", 7, 7},
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClampInt(t *testing.T) {
	cases := []struct{ n, lo, hi, want int }{
		{5, 1, 10, 5},
		{0, 1, 10, 1},
		{11, 1, 10, 10},
		{-3, -5, -1, -3},
	}
	for _, tc := range cases {
		if got := ClampInt(tc.n, tc.lo, tc.hi); got != tc.want {
			t.Fatalf("ClampInt(%d, %d, %d) = %d; want %d", tc.n, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestBoundedAtoi(t *testing.T) {
	if got := BoundedAtoi("", 5, 1, 50); got != 5 {
		t.Fatalf("default = %d", got)
	}
	if got := BoundedAtoi("500", 5, 1, 50); got != 50 {
		t.Fatalf("upper clamp = %d", got)
	}
	if got := BoundedAtoi("-2", 5, 1, 50); got != 1 {
		t.Fatalf("lower clamp = %d", got)
	}
	if got := BoundedAtoi("nope", 5, 1, 50); got != 5 {
		t.Fatalf("invalid = %d", got)
	}
}
