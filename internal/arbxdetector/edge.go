package arbxdetector

import (
	"github.com/shopspring/decimal"
)

// defaultTolerance is the slack applied to every constraint before it is
// considered violated, matching the 0.02 tolerance used throughout
// spec §4.6's worked example.
var defaultTolerance = decimal.NewFromFloat(0.02)

// evaluate computes the edge and recommended legs for one pair given
// the current mid prices of its two markets. Returns ok=false if the
// constraint is not violated.
func evaluate(pair Pair, priceA, priceB decimal.Decimal) (edge decimal.Decimal, legs []Leg, ok bool) {
	one := decimal.NewFromInt(1)

	switch pair.Relationship {
	case RelationshipMutuallyExclusive:
		sum := priceA.Add(priceB)
		if sum.LessThanOrEqual(one.Add(defaultTolerance)) {
			return decimal.Zero, nil, false
		}
		edge = sum.Sub(one)
		return edge, []Leg{{AssetID: pair.A, Action: "buy_no"}, {AssetID: pair.B, Action: "buy_no"}}, true

	case RelationshipInverse:
		sum := priceA.Add(priceB)
		dev := sum.Sub(one)
		if dev.Abs().LessThanOrEqual(defaultTolerance) {
			return decimal.Zero, nil, false
		}
		edge = dev.Abs()
		if dev.IsPositive() {
			return edge, []Leg{{AssetID: pair.A, Action: "buy_no"}, {AssetID: pair.B, Action: "buy_no"}}, true
		}
		return edge, []Leg{{AssetID: pair.A, Action: "buy_yes"}, {AssetID: pair.B, Action: "buy_yes"}}, true

	case RelationshipCorrelated:
		expectedB := pair.Factor.Mul(priceA)
		dev := priceB.Sub(expectedB)
		if dev.Abs().LessThanOrEqual(defaultTolerance) {
			return decimal.Zero, nil, false
		}
		edge = dev.Abs()
		if dev.IsPositive() {
			// B overpriced relative to A.
			return edge, []Leg{{AssetID: pair.B, Action: "buy_no"}, {AssetID: pair.A, Action: "buy_yes"}}, true
		}
		return edge, []Leg{{AssetID: pair.B, Action: "buy_yes"}, {AssetID: pair.A, Action: "buy_no"}}, true

	case RelationshipSubset:
		// pair.A is the stricter market (implies pair.B); constraint is
		// P(A) <= P(B) + tol.
		dev := priceA.Sub(priceB)
		if dev.LessThanOrEqual(defaultTolerance) {
			return decimal.Zero, nil, false
		}
		edge = dev
		return edge, []Leg{{AssetID: pair.A, Action: "buy_no"}, {AssetID: pair.B, Action: "buy_yes"}}, true
	}

	return decimal.Zero, nil, false
}

// urgencyFor maps edge size to the urgency band: larger violations are
// assumed to close faster as other participants notice them.
func urgencyFor(edge decimal.Decimal) string {
	switch {
	case edge.GreaterThanOrEqual(decimal.NewFromFloat(0.10)):
		return "immediate"
	case edge.GreaterThanOrEqual(decimal.NewFromFloat(0.05)):
		return "hours"
	default:
		return "day"
	}
}
