package edgedetector

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/config"
)

// marketActivity is the Edge Detector's own rolling 24h volume/trade
// counter, fed by the venue trade stream independently of the Signal
// Detector's shorter-lived MarketState history.
type marketActivity struct {
	mu      sync.Mutex
	volume  map[string][]activitySample
}

type activitySample struct {
	notional decimal.Decimal
	at       time.Time
}

func newMarketActivity() *marketActivity {
	return &marketActivity{volume: make(map[string][]activitySample)}
}

func (a *marketActivity) observe(marketID string, notional decimal.Decimal, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cutoff := now.Add(-24 * time.Hour)
	samples := a.volume[marketID]
	samples = append(samples, activitySample{notional: notional, at: now})
	samples = pruneActivity(samples, cutoff)
	a.volume[marketID] = samples
}

func pruneActivity(in []activitySample, cutoff time.Time) []activitySample {
	i := 0
	for i < len(in) && in[i].at.Before(cutoff) {
		i++
	}
	if i == 0 {
		return in
	}
	return append([]activitySample(nil), in[i:]...)
}

func (a *marketActivity) volume24hAndTrades(marketID string, now time.Time) (decimal.Decimal, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cutoff := now.Add(-24 * time.Hour)
	samples := pruneActivity(a.volume[marketID], cutoff)
	a.volume[marketID] = samples
	total := decimal.Zero
	for _, s := range samples {
		total = total.Add(s.notional)
	}
	return total, len(samples)
}

// classifyQuality maps {volume_24h, spread, trades_24h} into a tier per
// the configured thresholds, worst tier first: a market must clear every
// constraint of a tier to qualify for it.
func classifyQuality(cfg config.QualityConfig, volume24h, spread decimal.Decimal, trades24h int) QualityTier {
	switch {
	case volume24h.GreaterThanOrEqual(cfg.HighMinVolume24h) && spread.LessThanOrEqual(cfg.HighMaxSpread) && trades24h >= cfg.HighMinTrades24h:
		return QualityHigh
	case volume24h.GreaterThanOrEqual(cfg.MediumMinVolume24h) && spread.LessThanOrEqual(cfg.MediumMaxSpread) && trades24h >= cfg.MediumMinTrades24h:
		return QualityMedium
	case volume24h.GreaterThanOrEqual(cfg.LowMinVolume24h) && spread.LessThanOrEqual(cfg.LowMaxSpread) && trades24h >= cfg.LowMinTrades24h:
		return QualityLow
	default:
		return QualityGarbage
	}
}
