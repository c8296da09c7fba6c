package signaldetector

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/config"
	"github.com/web3guy0/predimarket-intel/internal/market"
)

var hundred = decimal.NewFromInt(100)

func pctChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(hundred).Abs()
}

func strengthFromRatio(ratio, threshold decimal.Decimal) market.Confidence {
	switch {
	case threshold.IsZero():
		return market.ConfidenceLow
	case ratio.GreaterThanOrEqual(threshold.Mul(decimal.NewFromFloat(3))):
		return market.ConfidenceVeryHigh
	case ratio.GreaterThanOrEqual(threshold.Mul(decimal.NewFromFloat(2))):
		return market.ConfidenceHigh
	case ratio.GreaterThanOrEqual(threshold.Mul(decimal.NewFromFloat(1.3))):
		return market.ConfidenceMedium
	default:
		return market.ConfidenceLow
	}
}

// detectPriceSpike implements §4.1.1: compare the last true pre-window
// sample to the current price.
func detectPriceSpike(state *market.MarketState, cfg config.SignalConfig, now time.Time) *Signal {
	cutoff := now.Add(-cfg.PriceSpikeWindow)

	var baseline decimal.Decimal
	found := false
	for i := len(state.Prices) - 1; i >= 0; i-- {
		if !state.Prices[i].At.After(cutoff) {
			baseline = state.Prices[i].Price
			found = true
			break
		}
	}
	if !found || baseline.IsZero() {
		return nil
	}

	current := state.CurrentPrice
	pct := pctChange(baseline, current)
	if pct.LessThan(cfg.PriceSpikeThresholdPct) {
		return nil
	}

	dir := DirectionUp
	if current.LessThan(baseline) {
		dir = DirectionDown
	}

	return &Signal{
		AssetID:       state.AssetID,
		Type:          SignalPriceSpike,
		Direction:     dir,
		Strength:      strengthFromRatio(pct, cfg.PriceSpikeThresholdPct),
		ChangePercent: pct,
		At:            now,
	}
}

// detectVolumeSpike implements §4.1.2.
func detectVolumeSpike(state *market.MarketState, cfg config.SignalConfig, now time.Time) *Signal {
	recentCutoff := now.Add(-60 * time.Second)
	baselineStart := now.Add(-cfg.VolumeSpikeBaselineWindow)
	baselineEnd := recentCutoff

	recent := decimal.Zero
	baseline := decimal.Zero
	for _, v := range state.Volumes {
		if v.At.After(recentCutoff) {
			recent = recent.Add(v.Volume)
		} else if !v.At.Before(baselineStart) && v.At.Before(baselineEnd) {
			baseline = baseline.Add(v.Volume)
		}
	}

	minutesInRange := decimal.NewFromFloat((cfg.VolumeSpikeBaselineWindow - 60*time.Second).Minutes())
	if minutesInRange.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	baselinePerMin := baseline.Div(minutesInRange)
	if baselinePerMin.IsZero() {
		return nil
	}

	ratio := recent.Div(baselinePerMin)
	if ratio.LessThan(cfg.VolumeSpikeMultiplier) {
		return nil
	}

	return &Signal{
		AssetID:       state.AssetID,
		Type:          SignalVolumeSpike,
		Direction:     DirectionNone,
		Strength:      strengthFromRatio(ratio, cfg.VolumeSpikeMultiplier),
		ChangePercent: ratio.Mul(hundred),
		At:            now,
	}
}

// detectSpreadCompression implements §4.1.3; called on book updates with
// the spread observed immediately before the mutating update.
func detectSpreadCompression(prevSpread decimal.Decimal, state *market.MarketState, cfg config.SignalConfig, now time.Time) *Signal {
	if prevSpread.LessThan(cfg.SpreadCompressionMinSpread) {
		return nil
	}
	curr := state.Spread()
	if curr.GreaterThanOrEqual(prevSpread) {
		return nil
	}
	pct := prevSpread.Sub(curr).Div(prevSpread).Mul(hundred)
	if pct.LessThan(cfg.SpreadCompressionPct) {
		return nil
	}
	return &Signal{
		AssetID:       state.AssetID,
		Type:          SignalSpreadCompression,
		Direction:     DirectionNone,
		Strength:      strengthFromRatio(pct, cfg.SpreadCompressionPct),
		ChangePercent: pct,
		At:            now,
	}
}

// depthPullSide is which book side pulled.
type depthPullSide string

const (
	depthPullBid depthPullSide = "bid"
	depthPullAsk depthPullSide = "ask"
)

// detectDepthPull implements §4.1.5, evaluated independently per side.
func detectDepthPull(side depthPullSide, prevDepth, currDepth decimal.Decimal, state *market.MarketState, cfg config.SignalConfig, now time.Time) *Signal {
	if prevDepth.LessThan(cfg.DepthPullMinDepth) {
		return nil
	}
	if currDepth.GreaterThanOrEqual(prevDepth) {
		return nil
	}
	pct := prevDepth.Sub(currDepth).Div(prevDepth).Mul(hundred)
	if pct.LessThan(cfg.DepthPullThresholdPct) {
		return nil
	}
	dir := DirectionDown
	if side == depthPullAsk {
		dir = DirectionUp
	}
	return &Signal{
		AssetID:       state.AssetID,
		Type:          SignalDepthPull,
		Direction:     dir,
		Strength:      strengthFromRatio(pct, cfg.DepthPullThresholdPct),
		ChangePercent: pct,
		At:            now,
		Detail:        string(side),
	}
}

// detectAggressiveSweep implements §4.1.4.
func detectAggressiveSweep(state *market.MarketState, cfg config.SignalConfig, now time.Time) *Signal {
	cutoff := now.Add(-cfg.SweepWindow)

	var buyCount, sellCount int
	var buyTotal, sellTotal decimal.Decimal
	var buyHigh, buyLow, sellHigh, sellLow decimal.Decimal
	buyTotal, sellTotal = decimal.Zero, decimal.Zero

	for _, t := range state.Trades {
		if t.At.Before(cutoff) {
			continue
		}
		switch t.Side {
		case market.Buy:
			buyCount++
			buyTotal = buyTotal.Add(t.Size)
			if buyHigh.IsZero() || t.Price.GreaterThan(buyHigh) {
				buyHigh = t.Price
			}
			if buyLow.IsZero() || t.Price.LessThan(buyLow) {
				buyLow = t.Price
			}
		case market.Sell:
			sellCount++
			sellTotal = sellTotal.Add(t.Size)
			if sellHigh.IsZero() || t.Price.GreaterThan(sellHigh) {
				sellHigh = t.Price
			}
			if sellLow.IsZero() || t.Price.LessThan(sellLow) {
				sellLow = t.Price
			}
		}
	}

	var dominantSide market.Side
	var count int
	var total, high, low decimal.Decimal
	if buyCount >= sellCount {
		dominantSide, count, total, high, low = market.Buy, buyCount, buyTotal, buyHigh, buyLow
	} else {
		dominantSide, count, total, high, low = market.Sell, sellCount, sellTotal, sellHigh, sellLow
	}

	if count < cfg.SweepMinTradeCount {
		return nil
	}
	if total.LessThan(cfg.SweepMinTotalSize) {
		return nil
	}
	if low.IsZero() {
		return nil
	}
	impactPct := high.Sub(low).Div(low).Mul(hundred)
	if impactPct.LessThan(cfg.SweepMinPriceImpactPct) {
		return nil
	}

	dir := DirectionUp
	if dominantSide == market.Sell {
		dir = DirectionDown
	}

	return &Signal{
		AssetID:       state.AssetID,
		Type:          SignalAggressiveSweep,
		Direction:     dir,
		Strength:      strengthFromRatio(total, cfg.SweepMinTotalSize),
		ChangePercent: impactPct,
		At:            now,
	}
}
