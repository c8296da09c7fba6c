package edgedetector

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/config"
	"github.com/web3guy0/predimarket-intel/internal/linker"
)

// PriceProvider is the narrow read surface the Signal Detector exposes;
// the Edge Detector never touches MarketState directly.
type PriceProvider interface {
	Mid(assetID string) (decimal.Decimal, bool)
}

// TrackedMarketsProvider is the Linker's read surface.
type TrackedMarketsProvider interface {
	TrackedMarkets() map[string]linker.TrackedMarket
}

// SpreadProvider supplies the current bid/ask spread for the market
// quality filter.
type SpreadProvider interface {
	Spread(assetID string) (decimal.Decimal, bool)
}

// Detector is the composition root for the truth-event and whale-edge
// patterns, plus the market-quality filter gating whale edges.
type Detector struct {
	cfg config.Config
	log zerolog.Logger

	prices  PriceProvider
	spreads SpreadProvider
	tracked TrackedMarketsProvider

	eventPrices *eventPriceCache
	activity    *marketActivity
	whales      *whaleState

	cooldownMu sync.Mutex
	lastFired  map[string]time.Time // key: marketID

	scanMu   sync.Mutex
	lastScan ScanResponse
	pending  []linker.LinkedAlert
}

// New builds an Edge Detector.
func New(cfg config.Config, log zerolog.Logger, prices PriceProvider, spreads SpreadProvider, tracked TrackedMarketsProvider) *Detector {
	return &Detector{
		cfg:         cfg,
		log:         log.With().Str("component", "edge_detector").Logger(),
		prices:      prices,
		spreads:     spreads,
		tracked:     tracked,
		eventPrices: newEventPriceCache(),
		activity:    newMarketActivity(),
		whales:      newWhaleState(),
		lastFired:   make(map[string]time.Time),
	}
}

// ObserveTrade feeds the market-quality filter's rolling 24h volume and
// trade counters. Independent of the Signal Detector's MarketState,
// which only retains a few times its widest detection window.
func (d *Detector) ObserveTrade(marketID string, notional decimal.Decimal, now time.Time) {
	d.activity.observe(marketID, notional, now)
}

// ObserveWhaleFill feeds the accumulation/consensus/exit pattern
// trackers. Called by the wiring layer after the Whale Tracker applies
// a trade to the Position Ledger.
func (d *Detector) ObserveWhaleFill(f WhaleFill) {
	d.whales.observe(f)
}

// OnLinkedAlert queues a truth-event alert from the Linker for the next
// scan.
func (d *Detector) OnLinkedAlert(alert linker.LinkedAlert) {
	d.scanMu.Lock()
	defer d.scanMu.Unlock()
	d.pending = append(d.pending, alert)
}

func (d *Detector) quality(marketID string, now time.Time) QualityTier {
	volume24h, trades24h := d.activity.volume24hAndTrades(marketID, now)
	spread := decimal.Zero
	if d.spreads != nil {
		if s, ok := d.spreads.Spread(marketID); ok {
			spread = s
		}
	}
	return classifyQuality(d.cfg.Quality, volume24h, spread, trades24h)
}

func (d *Detector) onCooldown(marketID string, now time.Time) bool {
	d.cooldownMu.Lock()
	defer d.cooldownMu.Unlock()
	if last, ok := d.lastFired[marketID]; ok && now.Sub(last) < d.cfg.EdgeCooldown {
		return true
	}
	d.lastFired[marketID] = now
	return false
}

// Scan evaluates every pending pattern and returns the sorted
// opportunity list, caching the result for EdgeCacheTTL. Safe for
// concurrent calls and safe to call while events continue to arrive.
func (d *Detector) Scan(now time.Time) ScanResponse {
	d.scanMu.Lock()
	if !d.lastScan.At.IsZero() && now.Sub(d.lastScan.At) < d.cfg.EdgeCacheTTL {
		cached := d.lastScan
		d.scanMu.Unlock()
		return cached
	}
	pending := d.pending
	d.pending = nil
	d.scanMu.Unlock()

	var opportunities []Opportunity

	for _, alert := range pending {
		for _, am := range alert.AffectedMarkets {
			opp, ok := d.safeTruthEvent(alert, am, now)
			if !ok {
				continue
			}
			if d.onCooldown(opp.MarketID, now) {
				continue
			}
			opportunities = append(opportunities, opp)
		}
	}

	marketOutcomes := d.whaleCandidateKeys()
	for _, mo := range marketOutcomes {
		quality := d.quality(mo.marketID, now)
		if quality == QualityGarbage {
			continue
		}
		if opp, ok := d.safeAccumulation(mo.marketID, mo.outcome, now); ok && !d.onCooldown(opp.MarketID, now) {
			opportunities = append(opportunities, opp)
		}
		if opp, ok := d.safeConsensus(mo.marketID, mo.outcome, now); ok && !d.onCooldown(opp.MarketID, now) {
			opportunities = append(opportunities, opp)
		}
	}

	for _, opp := range d.safeExits(now) {
		if d.quality(opp.MarketID, now) == QualityGarbage {
			continue
		}
		if d.onCooldown(opp.MarketID, now) {
			continue
		}
		opportunities = append(opportunities, opp)
	}

	for i := range opportunities {
		opportunities[i].ID = uuid.NewString()
		opportunities[i].UrgencyScore = d.score(opportunities[i])
	}
	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].UrgencyScore.GreaterThan(opportunities[j].UrgencyScore)
	})

	resp := ScanResponse{Opportunities: opportunities, At: now}

	d.scanMu.Lock()
	d.lastScan = resp
	d.scanMu.Unlock()

	return resp
}

type marketOutcomeID struct {
	marketID string
	outcome  Outcome
}

func (d *Detector) whaleCandidateKeys() []marketOutcomeID {
	d.whales.mu.Lock()
	defer d.whales.mu.Unlock()
	out := make([]marketOutcomeID, 0, len(d.whales.buys))
	for key := range d.whales.buys {
		for i := 0; i < len(key); i++ {
			if key[i] == '|' {
				out = append(out, marketOutcomeID{marketID: key[:i], outcome: Outcome(key[i+1:])})
				break
			}
		}
	}
	return out
}

// safeTruthEvent, safeAccumulation, safeConsensus and safeExits isolate
// a panicking pattern detector from the rest of the scan, per the
// failure-isolation requirement: one pattern's defect must never starve
// the others or other markets.
func (d *Detector) safeTruthEvent(alert linker.LinkedAlert, am linker.AffectedMarket, now time.Time) (opp Opportunity, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("market", am.AssetID).Msg("📉 truth-event edge detector recovered")
			ok = false
		}
	}()
	return d.truthEventEdge(alert, am, now)
}

func (d *Detector) safeAccumulation(marketID string, outcome Outcome, now time.Time) (opp Opportunity, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("market", marketID).Msg("📉 accumulation edge detector recovered")
			ok = false
		}
	}()
	return d.accumulationEdge(marketID, outcome, now)
}

func (d *Detector) safeConsensus(marketID string, outcome Outcome, now time.Time) (opp Opportunity, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("market", marketID).Msg("📉 consensus edge detector recovered")
			ok = false
		}
	}()
	return d.consensusEdge(marketID, outcome, now)
}

func (d *Detector) safeExits(now time.Time) (out []Opportunity) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Msg("📉 exit edge detector recovered")
			out = nil
		}
	}()
	return d.exitEdges(now)
}

// score combines urgency band, signal-type weight, size (already baked
// into magnitude), and confidence into the ranking score, plus a flat
// bonus for every COPY-action opportunity; the copy-suitability of the
// whales behind it does not enter the score.
func (d *Detector) score(o Opportunity) decimal.Decimal {
	confWeight := decimal.NewFromFloat(0.4).Add(decimal.NewFromFloat(0.2).Mul(decimal.NewFromInt(int64(o.Confidence))))
	score := o.Urgency.score().Mul(o.SignalType.weight()).Mul(confWeight)
	score = score.Add(o.Magnitude.Mul(decimal.NewFromInt(100)))
	if o.Action == ActionCopy {
		score = score.Add(decimal.NewFromInt(10))
	}
	return score
}
