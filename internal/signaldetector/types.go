package signaldetector

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/market"
)

// Level is one price/size rung of an order book side.
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// BookEvent is a full order-book snapshot for one asset.
type BookEvent struct {
	AssetID  string
	Bids     []Level
	Asks     []Level
	BestBid  decimal.Decimal
	BestAsk  decimal.Decimal
	BidDepth decimal.Decimal
	AskDepth decimal.Decimal
}

// PriceEvent is a best-bid/best-ask update without a full book.
type PriceEvent struct {
	AssetID string
	BestBid decimal.Decimal
	BestAsk decimal.Decimal
}

// TradeEvent is one executed trade on the venue.
type TradeEvent struct {
	AssetID   string
	Price     decimal.Decimal
	Size      decimal.Decimal
	Side      market.Side
	Timestamp time.Time
}

// SignalType enumerates the five micro-structure detectors.
type SignalType string

const (
	SignalPriceSpike         SignalType = "price_spike"
	SignalVolumeSpike        SignalType = "volume_spike"
	SignalSpreadCompression  SignalType = "spread_compression"
	SignalAggressiveSweep    SignalType = "aggressive_sweep"
	SignalDepthPull          SignalType = "depth_pull"
)

// Direction is the directional lean of a fired signal.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionNone Direction = "none"
)

// Strength is a banded magnitude, reusing the spec's confidence bands.
type Strength = market.Confidence

// Signal is one detector firing.
type Signal struct {
	AssetID       string
	Type          SignalType
	Direction     Direction
	Strength      Strength
	ChangePercent decimal.Decimal
	At            time.Time
	Detail        string
}
