// Package linker implements the Truth-Market Linker: it maps truth-source
// events to the currently tracked markets they could move, with a
// relevance score and predicted direction.
package linker

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/market"
)

// Category is the fixed set of market categories the Linker recognizes.
type Category string

const (
	CategoryGovernmentShutdown Category = "government_shutdown"
	CategoryLegislation        Category = "legislation"
	CategoryFedRate            Category = "fed_rate"
	CategoryHurricane          Category = "hurricane"
	CategoryWeather            Category = "weather"
	CategorySportsPlayer       Category = "sports_player"
	CategorySportsOutcome      Category = "sports_outcome"
	CategoryOther              Category = "other"
)

// TruthMap tags a tracked market with the category and matching rules
// that assigned it.
type TruthMap struct {
	Category     Category
	TruthSources []string
	Keywords     []string
	BillPatterns []string
}

// TrackedMarket is a Market plus its TruthMap, owned exclusively by the
// Linker.
type TrackedMarket struct {
	Market       market.Market
	TruthMap     TruthMap
	LastRefresh  time.Time
	CreatedAt    time.Time
}

// Significance is the 0-3 band carried by every truth-source event.
type Significance int

const (
	SignificanceLow Significance = iota
	SignificanceMedium
	SignificanceHigh
	SignificanceCritical
)

// CongressEvent is a legislative action.
type CongressEvent struct {
	BillID       string
	Title        string
	ActionType   string // e.g. "BecameLaw", "Passed", "Failed", "Introduced"
	ActionText   string
	Significance Significance
	IsNew        bool
	At           time.Time
}

// WeatherEvent is a NWS-style alert.
type WeatherEvent struct {
	EventName    string // e.g. "Hurricane Warning"
	Headline     string
	Areas        []string
	States       []string
	Severity     string
	Urgency      string
	Significance Significance
	At           time.Time
}

// FedSentiment is the directional lean of a Fed communication.
type FedSentiment string

const (
	FedHawkish FedSentiment = "hawkish"
	FedDovish  FedSentiment = "dovish"
	FedNeutral FedSentiment = "neutral"
	FedNA      FedSentiment = "n/a"
)

// FedEvent is a Federal Reserve communication or decision.
type FedEvent struct {
	Type           string // fomc_statement|fomc_minutes|rate_decision|speech
	RateDecision   string // "cut"|"hike"|"hold"|""
	RateChangeBP   int
	Sentiment      FedSentiment
	Significance   Significance
	At             time.Time
}

// SportsEvent is a player or team status update.
type SportsEvent struct {
	League         string
	Player         string
	Team           string
	TeamAbbr       string
	Status         string // e.g. "out", "doubtful", "questionable", "active"
	PreviousStatus string
	IsUpdate       bool
	Significance   Significance
	At             time.Time
}

// Direction uses the same "up"/"down" values as signaldetector.Direction
// (which also has "none"), declared here to avoid a cross-package
// dependency.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// AffectedMarket is one market the Linker judged a truth event could
// move, with its computed relevance and predicted direction.
type AffectedMarket struct {
	AssetID    string
	Relevance  decimal.Decimal
	Direction  Direction
}

// LinkedAlert is the Linker's output: a truth event plus every market it
// could move, sorted by relevance descending.
type LinkedAlert struct {
	EventSource     string
	EventSummary    string
	AffectedMarkets []AffectedMarket
	Confidence      market.Confidence
	Urgency         Significance
	At              time.Time
}
