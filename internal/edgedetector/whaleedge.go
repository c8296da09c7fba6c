package edgedetector

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	accumulationWindow = 2 * time.Hour
	consensusWindow    = 4 * time.Hour
	exitWindow         = 2 * time.Hour
)

type buyFill struct {
	wallet   string
	price    decimal.Decimal
	notional decimal.Decimal
	tier     Tier
	copySuitable    bool
	at       time.Time
}

// whaleState is the Edge Detector's own per-(market,outcome) rolling
// buy history plus per-(wallet,market,outcome) exit candidates, kept
// separately from the Whale Tracker's own position ledger since the two
// components track different windows for different purposes.
type whaleState struct {
	mu sync.Mutex

	buys map[string][]buyFill // key: market|outcome

	exitCandidates map[string]exitCandidate // key: wallet|market|outcome
}

type exitCandidate struct {
	marketID    string
	outcome     Outcome
	peakNotional decimal.Decimal
	at          time.Time
}

func newWhaleState() *whaleState {
	return &whaleState{
		buys:           make(map[string][]buyFill),
		exitCandidates: make(map[string]exitCandidate),
	}
}

func marketOutcomeKey(marketID string, outcome Outcome) string {
	return marketID + "|" + string(outcome)
}

func walletKey(wallet, marketID string, outcome Outcome) string {
	return wallet + "|" + marketID + "|" + string(outcome)
}

// observe records one whale fill, updating both the accumulation/
// consensus buy history and the exit-candidate cache.
func (w *whaleState) observe(f WhaleFill) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := marketOutcomeKey(f.MarketID, f.Outcome)
	if f.Side == Buy {
		history := append(w.buys[key], buyFill{
			wallet: f.Wallet, price: f.Price, notional: f.NotionalUSDC,
			tier: f.Tier, copySuitable: f.CopySuitable, at: f.Timestamp,
		})
		w.buys[key] = pruneBuys(history, f.Timestamp.Add(-consensusWindow))
	}

	wk := walletKey(f.Wallet, f.MarketID, f.Outcome)
	peakNotional := f.PeakSharesAfter.Mul(f.Price)
	if f.Side == Sell && !f.PeakSharesAfter.IsZero() {
		reduced := f.PeakSharesAfter.Sub(f.NetSharesAfter.Abs())
		if reduced.Div(f.PeakSharesAfter).GreaterThanOrEqual(decimal.NewFromFloat(0.5)) && peakNotional.GreaterThanOrEqual(decimal.NewFromInt(10000)) {
			w.exitCandidates[wk] = exitCandidate{marketID: f.MarketID, outcome: f.Outcome, peakNotional: peakNotional, at: f.Timestamp}
			return
		}
	}
	// a fresh same-direction or opening trade invalidates any stale exit
	// candidate for this position line.
	if f.Side == Buy {
		delete(w.exitCandidates, wk)
	}
}

func pruneBuys(in []buyFill, cutoff time.Time) []buyFill {
	i := 0
	for i < len(in) && in[i].at.Before(cutoff) {
		i++
	}
	if i == 0 {
		return in
	}
	return append([]buyFill(nil), in[i:]...)
}

// accumulationEdge checks the single-whale accumulation pattern for one
// market+outcome: >=3 buys from the same wallet within 2h totaling
// >=$20k, with the price move since the first of those trades < 3%.
func (d *Detector) accumulationEdge(marketID string, outcome Outcome, now time.Time) (Opportunity, bool) {
	d.whales.mu.Lock()
	history := append([]buyFill(nil), d.whales.buys[marketOutcomeKey(marketID, outcome)]...)
	d.whales.mu.Unlock()

	byWallet := make(map[string][]buyFill)
	for _, b := range history {
		if now.Sub(b.at) > accumulationWindow {
			continue
		}
		byWallet[b.wallet] = append(byWallet[b.wallet], b)
	}

	for wallet, fills := range byWallet {
		if len(fills) < 3 {
			continue
		}
		total := decimal.Zero
		for _, f := range fills {
			total = total.Add(f.notional)
		}
		if total.LessThan(decimal.NewFromInt(20000)) {
			continue
		}
		first := fills[0]
		mid, ok := d.prices.Mid(marketID)
		if !ok {
			continue
		}
		if first.price.IsZero() {
			continue
		}
		move := mid.Sub(first.price).Div(first.price).Abs()
		if move.GreaterThanOrEqual(decimal.NewFromFloat(0.03)) {
			continue
		}

		magnitude := accumulationMagnitude(fills[len(fills)-1].tier, total)
		confidence := ConfidenceHigh
		if fills[len(fills)-1].copySuitable {
			confidence = ConfidenceVeryHigh
		}
		return Opportunity{
			MarketID:   marketID,
			SignalType: SignalAccumulation,
			Direction:  outcome,
			Magnitude:  magnitude,
			Confidence: confidence,
			Action:     ActionCopy,
			Urgency:    UrgencyHours,
			Summary:    wallet + " accumulated " + string(outcome) + " on " + marketID,
			At:         now,
		}, true
	}
	return Opportunity{}, false
}

func accumulationMagnitude(tier Tier, total decimal.Decimal) decimal.Decimal {
	if tier == TierTop10 && total.GreaterThanOrEqual(decimal.NewFromInt(100000)) {
		return decimal.NewFromFloat(0.15)
	}
	if tier == TierTop10 {
		return decimal.NewFromFloat(0.10)
	}
	if tier == TierTop50 {
		return decimal.NewFromFloat(0.07)
	}
	return decimal.NewFromFloat(0.05)
}

// consensusEdge checks >=3 distinct whales buying the same outcome
// within 4h.
func (d *Detector) consensusEdge(marketID string, outcome Outcome, now time.Time) (Opportunity, bool) {
	d.whales.mu.Lock()
	history := append([]buyFill(nil), d.whales.buys[marketOutcomeKey(marketID, outcome)]...)
	d.whales.mu.Unlock()

	distinct := make(map[string]Tier)
	for _, b := range history {
		if now.Sub(b.at) > consensusWindow {
			continue
		}
		distinct[b.wallet] = b.tier
	}
	if len(distinct) < 3 {
		return Opportunity{}, false
	}

	top10 := 0
	for _, tier := range distinct {
		if tier == TierTop10 {
			top10++
		}
	}

	magnitude := decimal.NewFromFloat(0.12)
	if top10 >= 3 {
		magnitude = decimal.NewFromFloat(0.20)
	} else if top10 > 0 {
		magnitude = decimal.NewFromFloat(0.14)
	}
	extra := len(distinct) - 3
	if extra > 0 {
		bonus := decimal.NewFromFloat(0.01).Mul(decimal.NewFromInt(int64(extra)))
		magnitude = magnitude.Add(bonus)
		if magnitude.GreaterThan(decimal.NewFromFloat(0.25)) {
			magnitude = decimal.NewFromFloat(0.25)
		}
	}

	return Opportunity{
		MarketID:   marketID,
		SignalType: SignalConsensus,
		Direction:  outcome,
		Magnitude:  magnitude,
		Confidence: ConfidenceHigh,
		Action:     ActionCopy,
		Urgency:    UrgencyHours,
		Summary:    "multiple whales bought " + string(outcome) + " on " + marketID,
		At:         now,
	}, true
}

// exitEdges drains and returns every fresh exit candidate as a FADE
// opportunity on the opposite outcome.
func (d *Detector) exitEdges(now time.Time) []Opportunity {
	d.whales.mu.Lock()
	defer d.whales.mu.Unlock()

	var out []Opportunity
	for key, c := range d.whales.exitCandidates {
		if now.Sub(c.at) > exitWindow {
			delete(d.whales.exitCandidates, key)
			continue
		}
		opposite := OutcomeNo
		if c.outcome == OutcomeNo {
			opposite = OutcomeYes
		}
		out = append(out, Opportunity{
			MarketID:   c.marketID,
			SignalType: SignalWhaleExit,
			Direction:  opposite,
			Magnitude:  decimal.NewFromFloat(0.10),
			Confidence: ConfidenceMedium,
			Action:     ActionFade,
			Urgency:    UrgencyHours,
			Summary:    "whale exited " + string(c.outcome) + " position on " + c.marketID,
			At:         now,
		})
		delete(d.whales.exitCandidates, key)
	}
	return out
}
