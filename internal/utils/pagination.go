// Package utils provides small, generic helpers for parsing and bounding
// query parameters. They carry no domain logic.
package utils

import "strconv"

// AtoiDefault converts s with strconv.Atoi, returning def when s is empty or
// not an integer.
//
//	n := utils.AtoiDefault("42", 0) // 42
//	n = utils.AtoiDefault("", 10)   // 10
//	n = utils.AtoiDefault("x", 5)   // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// AtLeast returns n, raised to min when below it.
func AtLeast(n, min int) int {
	if n < min {
		return min
	}
	return n
}

// Clamp bounds n to [lo, hi]. hi < lo is treated as no upper bound.
func Clamp(n, lo, hi int) int {
	n = AtLeast(n, lo)
	if hi >= lo && n > hi {
		return hi
	}
	return n
}
