// Package whaletypes holds the data shapes shared by the Whale Tracker's
// four sub-components (tradestore, universe, ledger, classifier), kept
// separate so none of them need to import a sibling to share a type.
package whaletypes

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is the YES/NO side of a binary market.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// Side is the trade direction.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Tier is a whale's classification within the tracked universe.
type Tier string

const (
	TierTop10   Tier = "top10"
	TierTop50   Tier = "top50"
	TierTracked Tier = "tracked"
)

// Whale is one tracked address and its performance profile.
type Whale struct {
	Address         string
	DisplayName     string
	PnL7d           decimal.Decimal
	PnL30d          decimal.Decimal
	Volume7d        decimal.Decimal
	Volume30d       decimal.Decimal
	TradeCount7d    int
	TradeCount30d   int
	EarlyEntryScore decimal.Decimal // 0-100
	CopySuitability decimal.Decimal // 0-100
	Tier            Tier
	LastSeen        time.Time
}

// WalletStats is the windowed aggregation the Trade Store computes over
// a wallet's trade history.
type WalletStats struct {
	Address        string
	Window         time.Duration
	Volume         decimal.Decimal
	PnL            decimal.Decimal
	TradeCount     int
	AvgHoldHours   decimal.Decimal
	AvgMarketVolume decimal.Decimal
	PnLVolatility  decimal.Decimal
	MakerRatio     decimal.Decimal
	WinRate        decimal.Decimal
	EarlyEntryScore decimal.Decimal
}

// Position is one (wallet, market, outcome) ledger entry.
type Position struct {
	Wallet     string
	MarketID   string
	Outcome    Outcome
	NetShares  decimal.Decimal // signed
	VWAPEntry  decimal.Decimal
	RealizedPnL decimal.Decimal
	PeakShares decimal.Decimal // peak |net_shares|
}

// WhaleTrade is a venue trade where at least one counterparty is a
// tracked whale.
type WhaleTrade struct {
	Wallet    string
	MarketID  string
	Outcome   Outcome
	Side      Side
	Price     decimal.Decimal
	Size      decimal.Decimal
	NotionalUSDC decimal.Decimal
	IsMaker   bool
	Timestamp time.Time

	// RealizedPnL is filled in by the Position Ledger when this trade
	// closes or reduces an existing position; zero for opening trades.
	RealizedPnL decimal.Decimal
}

// Behavior is the closed sum type of classifier labels, in priority
// order (lower value = evaluated first).
type Behavior int

const (
	BehaviorScoop Behavior = iota
	BehaviorLock
	BehaviorTail
	BehaviorExit
	BehaviorFlip
	BehaviorArb
	BehaviorScalp
	BehaviorDCA
	BehaviorStack
	BehaviorHedge
	BehaviorFade
	BehaviorChase
	BehaviorStandard
)

func (b Behavior) String() string {
	switch b {
	case BehaviorScoop:
		return "SCOOP"
	case BehaviorLock:
		return "LOCK"
	case BehaviorTail:
		return "TAIL"
	case BehaviorExit:
		return "EXIT"
	case BehaviorFlip:
		return "FLIP"
	case BehaviorArb:
		return "ARB"
	case BehaviorScalp:
		return "SCALP"
	case BehaviorDCA:
		return "DCA"
	case BehaviorStack:
		return "STACK"
	case BehaviorHedge:
		return "HEDGE"
	case BehaviorFade:
		return "FADE"
	case BehaviorChase:
		return "CHASE"
	default:
		return "STANDARD"
	}
}

// ClassifiedTrade is a WhaleTrade with its assigned behavior label.
type ClassifiedTrade struct {
	Trade    WhaleTrade
	Behavior Behavior
}
