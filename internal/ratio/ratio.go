// Package ratio implements the engine's exact integer/rational arithmetic:
// overflow-safe ratio comparison, percent-threshold comparison, round
// half to even, and one-decimal percent presentation. No floating-point
// value is ever compared for an outcome-affecting decision; float64 only
// appears downstream, in the canon.Share wrapper used for display.
//
// Comparisons use math/big.Int for the cross-multiplication: the pack's
// own overflow-safe helpers (utils/math/safe_math.go) only cover a single
// 64-bit multiply-or-error, which is not enough headroom for
// cross-multiplying two already-large numerators and denominators, so
// this package reaches one level further down the same ladder (big
// integers) rather than hand-rolling a continued-fraction fallback.
package ratio

import "math/big"

// Ratio is a non-negative rational Num/Den with Den > 0.
type Ratio struct {
	Num int64
	Den int64
}

// New builds a Ratio, panicking on a non-positive denominator - callers
// are expected to have validated tallies before reaching comparison code.
func New(num, den int64) Ratio {
	if den <= 0 {
		panic("ratio: non-positive denominator")
	}
	return Ratio{Num: num, Den: den}
}

// Compare returns -1, 0, or 1 as r </=/> o, using exact cross-multiplied
// big-integer comparison - never floating point.
func Compare(r, o Ratio) int {
	left := new(big.Int).Mul(big.NewInt(r.Num), big.NewInt(o.Den))
	right := new(big.Int).Mul(big.NewInt(o.Num), big.NewInt(r.Den))
	return left.Cmp(right)
}

// GreaterOrEqual reports r >= o.
func GreaterOrEqual(r, o Ratio) bool { return Compare(r, o) >= 0 }

// GreaterThan reports r > o.
func GreaterThan(r, o Ratio) bool { return Compare(r, o) > 0 }

// MeetsPercent reports whether num/den >= pct% exactly, pct in [0,100].
// The equality case counts as a pass, per spec.md SS4.3/SS8 ("Threshold
// inclusivity").
func MeetsPercent(num, den int64, pct int64) bool {
	if den == 0 {
		return num == 0 && pct == 0
	}
	// num/den >= pct/100  <=>  num*100 >= pct*den
	left := new(big.Int).Mul(big.NewInt(num), big.NewInt(100))
	right := new(big.Int).Mul(big.NewInt(pct), big.NewInt(den))
	return left.Cmp(right) >= 0
}

// RoundHalfEven rounds the rational num/den to the nearest integer,
// breaking exact ties toward the even neighbor (banker's rounding):
// 0.5 -> 0, 1.5 -> 2, 2.5 -> 2, 3.5 -> 4.
func RoundHalfEven(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	neg := (num < 0) != (den < 0)
	n := absInt64(num)
	d := absInt64(den)

	q := n / d
	rem := n % d
	twiceRem := rem * 2
	switch {
	case twiceRem < d:
		// below halfway, round down
	case twiceRem > d:
		q++
	default:
		// exactly halfway: round to even
		if q%2 != 0 {
			q++
		}
	}
	if neg {
		return -q
	}
	return q
}

// OneDecimalPercentTenths computes floor/round-half-even((num*1000)/den),
// i.e. the percentage in tenths (0..=1000), per spec.md SS4.3. No
// downstream re-rounding is permitted once this value is produced.
func OneDecimalPercentTenths(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	return RoundHalfEven(num*1000, den)
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
