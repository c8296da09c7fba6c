// Package market holds the data owned by the Signal Detector: the
// tradable Market catalogue and the per-asset MarketState it mutates on
// every book/price/trade event.
package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the aggressor side of a trade.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Market is a single tradable outcome token at the venue.
type Market struct {
	AssetID     string
	ConditionID string
	Question    string
	Slug        string
	OutcomePrices []decimal.Decimal
}

// PriceSample is one (price, timestamp) observation.
type PriceSample struct {
	Price decimal.Decimal
	At    time.Time
}

// VolumeSample is one (volume, timestamp) observation.
type VolumeSample struct {
	Volume decimal.Decimal
	At     time.Time
}

// TradeSample is one recent trade.
type TradeSample struct {
	Price decimal.Decimal
	Size  decimal.Decimal
	Side  Side
	At    time.Time
}

// MarketState is the Signal Detector's single-writer owned state for one
// asset. Every field mutation happens on the detector's task; readers
// receive copies via Snapshot.
type MarketState struct {
	AssetID string

	CurrentPrice decimal.Decimal
	BestBid      decimal.Decimal
	BestAsk      decimal.Decimal
	BidDepth     decimal.Decimal
	AskDepth     decimal.Decimal

	Prices  []PriceSample
	Volumes []VolumeSample
	Trades  []TradeSample

	FirstSeen  time.Time
	LastUpdate time.Time

	// maxAge bounds how far back Prices/Volumes/Trades are retained;
	// set to 2x the largest configured detection window.
	maxAge time.Duration
}

// NewMarketState creates state for a newly observed asset. maxAge should
// be 2x the largest detector window so every detector always has enough
// history.
func NewMarketState(assetID string, maxAge time.Duration, now time.Time) *MarketState {
	return &MarketState{
		AssetID:   assetID,
		FirstSeen: now,
		maxAge:    maxAge,
	}
}

// Spread returns BestAsk - BestBid.
func (s *MarketState) Spread() decimal.Decimal {
	return s.BestAsk.Sub(s.BestBid)
}

// Mid returns the book midpoint.
func (s *MarketState) Mid() decimal.Decimal {
	return s.BestBid.Add(s.BestAsk).Div(decimal.NewFromInt(2))
}

// ApplyBook updates the book side of the state and prunes history.
func (s *MarketState) ApplyBook(bestBid, bestAsk, bidDepth, askDepth decimal.Decimal, now time.Time) {
	s.BestBid = bestBid
	s.BestAsk = bestAsk
	s.BidDepth = bidDepth
	s.AskDepth = askDepth
	if s.CurrentPrice.IsZero() {
		s.CurrentPrice = s.Mid()
	}
	s.LastUpdate = now
	s.prune(now)
}

// ApplyPrice records a new current price sample.
func (s *MarketState) ApplyPrice(price decimal.Decimal, now time.Time) {
	s.CurrentPrice = price
	s.Prices = append(s.Prices, PriceSample{Price: price, At: now})
	s.LastUpdate = now
	s.prune(now)
}

// ApplyTrade records a trade and its volume.
func (s *MarketState) ApplyTrade(price, size decimal.Decimal, side Side, now time.Time) {
	s.Trades = append(s.Trades, TradeSample{Price: price, Size: size, Side: side, At: now})
	s.Volumes = append(s.Volumes, VolumeSample{Volume: size, At: now})
	s.CurrentPrice = price
	s.LastUpdate = now
	s.prune(now)
}

// prune drops samples older than 2x the detection window, per the
// MarketState invariant.
func (s *MarketState) prune(now time.Time) {
	if s.maxAge <= 0 {
		return
	}
	cutoff := now.Add(-s.maxAge)
	s.Prices = prunePrices(s.Prices, cutoff)
	s.Volumes = pruneVolumes(s.Volumes, cutoff)
	s.Trades = pruneTrades(s.Trades, cutoff)
}

func prunePrices(in []PriceSample, cutoff time.Time) []PriceSample {
	i := 0
	for i < len(in) && in[i].At.Before(cutoff) {
		i++
	}
	if i == 0 {
		return in
	}
	return append([]PriceSample(nil), in[i:]...)
}

func pruneVolumes(in []VolumeSample, cutoff time.Time) []VolumeSample {
	i := 0
	for i < len(in) && in[i].At.Before(cutoff) {
		i++
	}
	if i == 0 {
		return in
	}
	return append([]VolumeSample(nil), in[i:]...)
}

func pruneTrades(in []TradeSample, cutoff time.Time) []TradeSample {
	i := 0
	for i < len(in) && in[i].At.Before(cutoff) {
		i++
	}
	if i == 0 {
		return in
	}
	return append([]TradeSample(nil), in[i:]...)
}

// Snapshot is a point-in-time, read-only copy of MarketState handed to
// other components (e.g. the Edge Detector) so they never touch the
// Signal Detector's owned slices.
type Snapshot struct {
	AssetID      string
	CurrentPrice decimal.Decimal
	BestBid      decimal.Decimal
	BestAsk      decimal.Decimal
	FirstSeen    time.Time
	LastUpdate   time.Time
}

// Snapshot copies the scalar fields of the state.
func (s *MarketState) Snapshot() Snapshot {
	return Snapshot{
		AssetID:      s.AssetID,
		CurrentPrice: s.CurrentPrice,
		BestBid:      s.BestBid,
		BestAsk:      s.BestAsk,
		FirstSeen:    s.FirstSeen,
		LastUpdate:   s.LastUpdate,
	}
}

// PriceProvider is the narrow read surface the Signal Detector exposes so
// the Edge Detector can read current mids without touching owned state
// directly.
type PriceProvider interface {
	Mid(assetID string) (decimal.Decimal, bool)
}
