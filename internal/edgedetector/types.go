// Package edgedetector scans tracked markets and emits opportunities
// where a recent truth event predicts a move the market has not yet
// absorbed, or whale flow indicates informed positioning.
package edgedetector

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome mirrors whaletracker's Outcome type; kept local so this
// package depends on whaletracker only through the narrow WhaleFill
// shape the wiring layer constructs, per the no-cyclic-reference design
// note.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// Side mirrors whaletracker's trade side.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Tier mirrors whaletracker's whale tier.
type Tier string

const (
	TierTop10   Tier = "top10"
	TierTop50   Tier = "top50"
	TierTracked Tier = "tracked"
)

// WhaleFill is the whale-trade shape the Edge Detector consumes, along
// with the ledger/universe context the wiring layer attaches after
// applying the trade to the Position Ledger.
type WhaleFill struct {
	Wallet          string
	MarketID        string
	Outcome         Outcome
	Side            Side
	Price           decimal.Decimal
	Size            decimal.Decimal
	NotionalUSDC    decimal.Decimal
	Timestamp       time.Time
	Tier            Tier
	CopySuitable    bool
	PeakSharesAfter decimal.Decimal
	NetSharesAfter  decimal.Decimal
}

// QualityTier is the market-quality tier from the quality filter.
type QualityTier string

const (
	QualityHigh    QualityTier = "high"
	QualityMedium  QualityTier = "medium"
	QualityLow     QualityTier = "low"
	QualityGarbage QualityTier = "garbage"
)

// Action is the recommended response to an opportunity.
type Action string

const (
	ActionBuyYes  Action = "BUY_YES"
	ActionBuyNo   Action = "BUY_NO"
	ActionMonitor Action = "MONITOR"
	ActionCopy    Action = "COPY"
	ActionFade    Action = "FADE"
)

// Urgency is the opportunity's time-sensitivity band.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencyHours     Urgency = "hours"
	UrgencyDay       Urgency = "day"
)

func (u Urgency) score() decimal.Decimal {
	switch u {
	case UrgencyImmediate:
		return decimal.NewFromInt(100)
	case UrgencyHours:
		return decimal.NewFromInt(50)
	default:
		return decimal.NewFromInt(25)
	}
}

// SignalType is the edge pattern that produced an opportunity.
type SignalType string

const (
	SignalTruthEvent    SignalType = "truth_event"
	SignalAccumulation  SignalType = "accumulation"
	SignalConsensus     SignalType = "consensus"
	SignalWhaleExit     SignalType = "whale_exit"
)

func (s SignalType) weight() decimal.Decimal {
	switch s {
	case SignalTruthEvent:
		return decimal.NewFromFloat(1.0)
	case SignalConsensus:
		return decimal.NewFromFloat(0.9)
	case SignalAccumulation:
		return decimal.NewFromFloat(0.8)
	default: // exit/fade
		return decimal.NewFromFloat(0.7)
	}
}

// Confidence mirrors market.Confidence's ordering without importing it,
// since the Edge Detector's bands are computed independently of
// significance.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
	ConfidenceVeryHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceVeryHigh:
		return "very_high"
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}

// Opportunity is the Edge Detector's emitted unit: a directional,
// ranked trade idea.
type Opportunity struct {
	ID         string
	MarketID   string
	SignalType SignalType
	Direction  Outcome
	Magnitude  decimal.Decimal
	Confidence Confidence
	Action     Action
	Urgency    Urgency
	Summary      string
	UrgencyScore decimal.Decimal // computed ranking score, set by scan()
	At           time.Time
}

// ScanResponse is the cached result of one scan() call.
type ScanResponse struct {
	Opportunities []Opportunity
	At            time.Time
}
