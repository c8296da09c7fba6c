// Package arbxdetector runs on a fixed tick across known markets,
// auto-detects pair relationships by heuristic, and emits opportunities
// where the relationship's pricing constraint is violated beyond the
// configured minimum edge.
//
// Named arbxdetector rather than arbitrage to avoid colliding with the
// teacher's latency-arbitrage package, which this repo does not keep
// (see DESIGN.md).
package arbxdetector

import (
	"time"

	"github.com/shopspring/decimal"
)

// Relationship is the auto-detected pairing between two markets.
type Relationship string

const (
	RelationshipInverse            Relationship = "inverse"
	RelationshipMutuallyExclusive  Relationship = "mutually_exclusive"
	RelationshipCorrelated         Relationship = "correlated"
	RelationshipSubset             Relationship = "subset"
)

// Pair is one detected relationship between two markets.
type Pair struct {
	A, B         string // asset IDs
	Relationship Relationship
	Factor       decimal.Decimal // correlated-only: B ~= Factor * A
}

// Leg is one side of an opportunity's recommended trade.
type Leg struct {
	AssetID string
	Action  string // "buy_yes" | "buy_no"
}

// Opportunity is an emitted mispricing between a related pair.
type Opportunity struct {
	ID           string
	Pair         Pair
	ExpectedEdge decimal.Decimal
	Markets      []Leg
	Urgency      string // "immediate" | "hours" | "day"
	At           time.Time
}
