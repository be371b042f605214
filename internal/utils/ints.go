// Package utils holds small helpers shared by the HTTP layer and the CLI.
package utils

import "strconv"

// AtoiDefault parses s as a base-10 int, returning def when s is empty or
// not a number. Surrounding whitespace is not trimmed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampInt bounds n to [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// BoundedAtoi parses s with AtoiDefault and clamps the result to [lo, hi].
// Query parameters such as ?k= and ?limit= go through it.
func BoundedAtoi(s string, def, lo, hi int) int {
	return ClampInt(AtoiDefault(s, def), lo, hi)
}
