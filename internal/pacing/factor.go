package pacing

import "sort"

// factorAnchor is one knot of the grade-to-pace curve.
type factorAnchor struct {
	gradePct float64
	factor   float64
}

// paceFactorCurve maps grade percent to a multiplicative pace factor,
// calibrated against flat-ground effort for foot travel. Moderate
// descents run faster than flat, steep descents cost time again from
// braking, and the uphill side grows without a plateau. Values between
// anchors are interpolated linearly.
var paceFactorCurve = []factorAnchor{
	{-50, 2.40},
	{-40, 1.85},
	{-30, 1.40},
	{-25, 1.20},
	{-20, 1.05},
	{-15, 0.95},
	{-10, 0.88},
	{-8, 0.875},
	{-5, 0.89},
	{-3, 0.925},
	{-1, 0.97},
	{0, 1.00},
	{1, 1.035},
	{3, 1.105},
	{5, 1.185},
	{8, 1.32},
	{10, 1.42},
	{15, 1.72},
	{20, 2.05},
	{25, 2.40},
	{30, 2.75},
	{40, 3.00},
	{50, 3.00},
}

const (
	minPaceFactor = 0.5
	maxPaceFactor = 3.0
)

// PaceFactor maps a grade percent to a pace multiplier. The grade is
// clamped to [-50, 50] before lookup and the result is clamped to
// [0.5, 3.0]. The curve is non-decreasing for grades at or above zero.
func PaceFactor(gradePct float64) float64 {
	g := clamp(gradePct, paceFactorCurve[0].gradePct, paceFactorCurve[len(paceFactorCurve)-1].gradePct)
	i := sort.Search(len(paceFactorCurve), func(i int) bool {
		return paceFactorCurve[i].gradePct >= g
	})
	if paceFactorCurve[i].gradePct == g {
		return clamp(paceFactorCurve[i].factor, minPaceFactor, maxPaceFactor)
	}
	lo, hi := paceFactorCurve[i-1], paceFactorCurve[i]
	frac := (g - lo.gradePct) / (hi.gradePct - lo.gradePct)
	f := lo.factor + frac*(hi.factor-lo.factor)
	return clamp(f, minPaceFactor, maxPaceFactor)
}
