package tradestore

import (
	"math"

	"github.com/shopspring/decimal"
	"time"

	"github.com/web3guy0/predimarket-intel/internal/whaletracker/whaletypes"
)

// computeWalletStats aggregates a trailing-window slice of trades into
// WalletStats.
//
// early_entry_score and pnl_volatility are not supplied by the source
// this repo was distilled from (see DESIGN.md Open Question 3); the
// formulas below are this repo's own documented contract:
//
//   - early_entry_score rewards trades placed while price is far from
//     0.50 (maximum market uncertainty) relative to the wallet's own
//     trade history: avg(|price - 0.5|) / 0.5, scaled to [0, 100].
//   - pnl_volatility is the population standard deviation of the
//     per-trade realized-PnL series, normalized by the mean absolute
//     PnL so it is comparable across wallets of different size; zero
//     when fewer than two realized trades exist in the window.
func computeWalletStats(wallet string, window time.Duration, trades []whaletypes.WhaleTrade) whaletypes.WalletStats {
	stats := whaletypes.WalletStats{Address: wallet, Window: window}
	if len(trades) == 0 {
		return stats
	}

	volume := decimal.Zero
	pnl := decimal.Zero
	makerCount := 0
	var pnlSeries []float64
	distanceSum := decimal.Zero
	wins := 0
	realizedCount := 0

	// hold-time tracking: pair opposite-side trades per market+outcome
	// in arrival order as a FIFO approximation of holding period.
	type openLeg struct {
		at   time.Time
		side whaletypes.Side
	}
	openByKey := map[string][]openLeg{}
	var holdHoursSum float64
	var holdCount int

	marketVolumes := map[string]decimal.Decimal{}

	for _, t := range trades {
		volume = volume.Add(t.NotionalUSDC)
		if t.IsMaker {
			makerCount++
		}
		distanceSum = distanceSum.Add(t.Price.Sub(decimal.NewFromFloat(0.5)).Abs())
		marketVolumes[t.MarketID] = marketVolumes[t.MarketID].Add(t.NotionalUSDC)

		if !t.RealizedPnL.IsZero() {
			realizedCount++
			pnl = pnl.Add(t.RealizedPnL)
			f, _ := t.RealizedPnL.Float64()
			pnlSeries = append(pnlSeries, f)
			if t.RealizedPnL.IsPositive() {
				wins++
			}
		}

		key := t.MarketID + "|" + string(t.Outcome)
		legs := openByKey[key]
		matched := false
		for i, leg := range legs {
			if leg.side != t.Side {
				holdHoursSum += t.Timestamp.Sub(leg.at).Hours()
				holdCount++
				openByKey[key] = append(legs[:i], legs[i+1:]...)
				matched = true
				break
			}
		}
		if !matched {
			openByKey[key] = append(openByKey[key], openLeg{at: t.Timestamp, side: t.Side})
		}
	}

	n := decimal.NewFromInt(int64(len(trades)))
	stats.Volume = volume
	stats.PnL = pnl
	stats.TradeCount = len(trades)
	stats.MakerRatio = decimal.NewFromInt(int64(makerCount)).Div(n)

	if realizedCount > 0 {
		stats.WinRate = decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(realizedCount)))
	}

	if holdCount > 0 {
		stats.AvgHoldHours = decimal.NewFromFloat(holdHoursSum / float64(holdCount))
	}

	avgMarketVol := decimal.Zero
	for _, v := range marketVolumes {
		avgMarketVol = avgMarketVol.Add(v)
	}
	if len(marketVolumes) > 0 {
		stats.AvgMarketVolume = avgMarketVol.Div(decimal.NewFromInt(int64(len(marketVolumes))))
	}

	avgDistance := distanceSum.Div(n)
	earlyScore := avgDistance.Div(decimal.NewFromFloat(0.5)).Mul(decimal.NewFromInt(100))
	stats.EarlyEntryScore = clamp0to100(earlyScore)

	stats.PnLVolatility = pnlVolatility(pnlSeries)

	return stats
}

func clamp0to100(d decimal.Decimal) decimal.Decimal {
	if d.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if d.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return d
}

func pnlVolatility(series []float64) decimal.Decimal {
	if len(series) < 2 {
		return decimal.Zero
	}
	var sum, absSum float64
	for _, v := range series {
		sum += v
		absSum += math.Abs(v)
	}
	mean := sum / float64(len(series))
	meanAbs := absSum / float64(len(series))
	if meanAbs == 0 {
		return decimal.Zero
	}
	var variance float64
	for _, v := range series {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(series))
	stddev := math.Sqrt(variance)
	return decimal.NewFromFloat(stddev / meanAbs)
}
