// Package classifier labels every incoming whale trade with the first
// matching behavior pattern from an ordered priority list.
package classifier

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/whaletracker/whaletypes"
)

const (
	historyWindow      = 24 * time.Hour
	priceHistoryWindow = 30 * time.Minute
)

type tradeRecord struct {
	trade whaletypes.WhaleTrade
}

type priceRecord struct {
	price decimal.Decimal
	at    time.Time
}

// Classifier is the single-writer owner of per-(wallet,market) recent
// trade history and per-market price history.
type Classifier struct {
	mu sync.Mutex

	recentTrades map[string][]tradeRecord  // key: wallet|market
	priceHistory map[string][]priceRecord  // key: market
	peakShares   map[string]decimal.Decimal // key: wallet|market|outcome; never populated, EXIT detection uses the peak passed to Classify
}

// New builds an empty Classifier.
func New() *Classifier {
	return &Classifier{
		recentTrades: make(map[string][]tradeRecord),
		priceHistory: make(map[string][]priceRecord),
		peakShares:   make(map[string]decimal.Decimal),
	}
}

// ObservePrice records a market price sample, used by FADE/CHASE.
func (c *Classifier) ObservePrice(marketID string, price decimal.Decimal, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.priceHistory[marketID] = prunePrices(append(c.priceHistory[marketID], priceRecord{price: price, at: now}), now)
}

// Classify labels a trade given position context supplied by the ledger:
// peak_|shares| and net_shares before this trade, net_shares after, and
// the wallet's net_shares in the opposite outcome of the same market
// (for HEDGE detection).
func (c *Classifier) Classify(t whaletypes.WhaleTrade, peakBeforeTrade, netSharesBefore, netSharesAfter, oppositeOutcomeNetShares decimal.Decimal) whaletypes.Behavior {
	c.mu.Lock()
	defer c.mu.Unlock()

	walletMarketKey := t.Wallet + "|" + t.MarketID
	history := c.recentTrades[walletMarketKey]
	history = pruneTrades(history, t.Timestamp)

	behavior := classify(t, history, c.priceHistory[t.MarketID], peakBeforeTrade, netSharesBefore, netSharesAfter, oppositeOutcomeNetShares)

	history = append(history, tradeRecord{trade: t})
	c.recentTrades[walletMarketKey] = history

	return behavior
}

func pruneTrades(in []tradeRecord, now time.Time) []tradeRecord {
	cutoff := now.Add(-historyWindow)
	i := 0
	for i < len(in) && in[i].trade.Timestamp.Before(cutoff) {
		i++
	}
	if i == 0 {
		return in
	}
	return append([]tradeRecord(nil), in[i:]...)
}

func prunePrices(in []priceRecord, now time.Time) []priceRecord {
	cutoff := now.Add(-priceHistoryWindow)
	i := 0
	for i < len(in) && in[i].at.Before(cutoff) {
		i++
	}
	if i == 0 {
		return in
	}
	return append([]priceRecord(nil), in[i:]...)
}

// classify is the pure decision function, in the exact priority order
// named by the spec: SCOOP, LOCK, TAIL, EXIT, FLIP, ARB, SCALP, DCA,
// STACK, HEDGE, FADE, CHASE, STANDARD.
func classify(t whaletypes.WhaleTrade, history []tradeRecord, prices []priceRecord, peakBefore, netBefore, netAfter, oppositeNetShares decimal.Decimal) whaletypes.Behavior {
	if t.Side == whaletypes.Buy {
		if t.Price.LessThanOrEqual(decimal.NewFromFloat(0.01)) {
			return whaletypes.BehaviorScoop
		}
		if t.Price.GreaterThanOrEqual(decimal.NewFromFloat(0.97)) {
			return whaletypes.BehaviorLock
		}
	}

	if isTail(t) {
		return whaletypes.BehaviorTail
	}

	if t.Side == whaletypes.Sell && !peakBefore.IsZero() {
		reduced := peakBefore.Sub(netAfter.Abs())
		if reduced.Div(peakBefore).GreaterThanOrEqual(decimal.NewFromFloat(0.8)) {
			return whaletypes.BehaviorExit
		}
	}

	if isFlip(t, history) {
		return whaletypes.BehaviorFlip
	}

	if isArb(t, history) {
		return whaletypes.BehaviorArb
	}

	if isScalp(t, history) {
		return whaletypes.BehaviorScalp
	}

	if isDCA(t, history) {
		return whaletypes.BehaviorDCA
	}

	if isStack(t, history) {
		return whaletypes.BehaviorStack
	}

	if isHedge(t, netBefore, oppositeNetShares) {
		return whaletypes.BehaviorHedge
	}

	if move, ok := recentMove(prices, t.Timestamp); ok {
		if t.Side == whaletypes.Buy {
			if move.Sign() < 0 && move.Abs().GreaterThanOrEqual(decimal.NewFromFloat(0.05)) {
				return whaletypes.BehaviorFade
			}
			if move.Sign() > 0 && move.GreaterThanOrEqual(decimal.NewFromFloat(0.05)) {
				return whaletypes.BehaviorChase
			}
		}
	}

	return whaletypes.BehaviorStandard
}

func isTail(t whaletypes.WhaleTrade) bool {
	if t.Side == whaletypes.Buy && t.Price.LessThanOrEqual(decimal.NewFromFloat(0.03)) {
		return true
	}
	if t.Side == whaletypes.Sell && t.Price.GreaterThanOrEqual(decimal.NewFromFloat(0.97)) {
		return true
	}
	return false
}

func isFlip(t whaletypes.WhaleTrade, history []tradeRecord) bool {
	if t.Side != whaletypes.Buy {
		return false
	}
	for i := len(history) - 1; i >= 0; i-- {
		prev := history[i].trade
		if t.Timestamp.Sub(prev.Timestamp) > 30*time.Minute {
			break
		}
		if prev.Side == whaletypes.Sell && prev.Outcome != t.Outcome {
			return true
		}
	}
	return false
}

func isArb(t whaletypes.WhaleTrade, history []tradeRecord) bool {
	if t.Side != whaletypes.Buy {
		return false
	}
	for i := len(history) - 1; i >= 0; i-- {
		prev := history[i].trade
		if t.Timestamp.Sub(prev.Timestamp) > 5*time.Minute {
			break
		}
		if prev.Side == whaletypes.Buy && prev.Outcome != t.Outcome {
			return true
		}
	}
	return false
}

func isScalp(t whaletypes.WhaleTrade, history []tradeRecord) bool {
	if t.Side != whaletypes.Sell {
		return false
	}
	for i := len(history) - 1; i >= 0; i-- {
		prev := history[i].trade
		if t.Timestamp.Sub(prev.Timestamp) > time.Hour {
			break
		}
		if prev.Side == whaletypes.Buy && prev.Outcome == t.Outcome {
			return true
		}
	}
	return false
}

func isDCA(t whaletypes.WhaleTrade, history []tradeRecord) bool {
	if t.Side != whaletypes.Buy {
		return false
	}
	var matches []whaletypes.WhaleTrade
	for i := len(history) - 1; i >= 0; i-- {
		prev := history[i].trade
		if t.Timestamp.Sub(prev.Timestamp) > 4*time.Hour {
			break
		}
		if prev.Side == whaletypes.Buy && prev.Outcome == t.Outcome {
			matches = append(matches, prev)
		}
	}
	if len(matches) < 2 { // plus the current trade makes 3
		return false
	}
	oldest := matches[len(matches)-1]
	if t.Timestamp.Sub(oldest.Timestamp) < 2*time.Hour {
		return false
	}
	low, high := t.Price, t.Price
	for _, m := range matches {
		if m.Price.LessThan(low) {
			low = m.Price
		}
		if m.Price.GreaterThan(high) {
			high = m.Price
		}
	}
	if low.IsZero() {
		return false
	}
	spread := high.Sub(low).Div(low)
	return spread.LessThanOrEqual(decimal.NewFromFloat(0.05))
}

func isStack(t whaletypes.WhaleTrade, history []tradeRecord) bool {
	if t.Side != whaletypes.Buy {
		return false
	}
	count := 1
	total := t.NotionalUSDC
	for i := len(history) - 1; i >= 0; i-- {
		prev := history[i].trade
		if t.Timestamp.Sub(prev.Timestamp) > 24*time.Hour {
			break
		}
		if prev.Side == whaletypes.Buy {
			count++
			total = total.Add(prev.NotionalUSDC)
		}
	}
	return count >= 3 && total.GreaterThanOrEqual(decimal.NewFromInt(1000))
}

// isHedge covers the two spec patterns: a buy that opposes an existing
// long position of at least 10% of it, or a sell of at least 25% of the
// wallet's own position.
func isHedge(t whaletypes.WhaleTrade, netBefore, oppositeNetShares decimal.Decimal) bool {
	if t.Side == whaletypes.Buy && oppositeNetShares.IsPositive() {
		threshold := oppositeNetShares.Mul(decimal.NewFromFloat(0.10))
		if t.Size.GreaterThanOrEqual(threshold) {
			return true
		}
	}
	if t.Side == whaletypes.Sell && !netBefore.IsZero() {
		threshold := netBefore.Abs().Mul(decimal.NewFromFloat(0.25))
		if t.Size.GreaterThanOrEqual(threshold) {
			return true
		}
	}
	return false
}

func recentMove(prices []priceRecord, now time.Time) (decimal.Decimal, bool) {
	if len(prices) == 0 {
		return decimal.Zero, false
	}
	oldest := prices[0]
	latest := prices[len(prices)-1]
	if oldest.price.IsZero() {
		return decimal.Zero, false
	}
	return latest.price.Sub(oldest.price).Div(oldest.price), true
}
