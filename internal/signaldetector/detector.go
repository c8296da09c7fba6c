// Package signaldetector implements the per-market micro-structure
// signal detector: the sole owner of MarketState, evaluating the five
// detectors on every book/price/trade event.
package signaldetector

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/config"
	"github.com/web3guy0/predimarket-intel/internal/market"
)

// Detector is the single-writer owner of every asset's MarketState. It
// is safe to drive from one goroutine per asset in principle, but the
// reference wiring in cmd/engine drives it from a single venue-stream
// task, matching the spec's single-writer-per-asset guarantee trivially.
type Detector struct {
	cfg config.SignalConfig
	log zerolog.Logger

	mu     sync.RWMutex
	states map[string]*market.MarketState

	cooldownMu sync.Mutex
	lastFired  map[string]time.Time // key: assetID + "|" + signalType

	onSignal func(Signal)
}

// maxHistory is the 2x-detection-window retention bound; the widest
// configured window is the volume-spike baseline.
func maxHistory(cfg config.SignalConfig) time.Duration {
	widest := cfg.PriceSpikeWindow
	if cfg.VolumeSpikeBaselineWindow > widest {
		widest = cfg.VolumeSpikeBaselineWindow
	}
	if cfg.SweepWindow > widest {
		widest = cfg.SweepWindow
	}
	return 2 * widest
}

// New builds a Detector. onSignal is invoked synchronously for every
// signal that passes warm-up and cooldown gating; callers must not block.
func New(cfg config.SignalConfig, log zerolog.Logger, onSignal func(Signal)) *Detector {
	return &Detector{
		cfg:       cfg,
		log:       log.With().Str("component", "signal_detector").Logger(),
		states:    make(map[string]*market.MarketState),
		lastFired: make(map[string]time.Time),
		onSignal:  onSignal,
	}
}

func (d *Detector) stateFor(assetID string, now time.Time) *market.MarketState {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.states[assetID]
	if !ok {
		s = market.NewMarketState(assetID, maxHistory(d.cfg), now)
		d.states[assetID] = s
	}
	return s
}

// MarketState returns the live state for an asset, or nil if unseen.
// Callers outside the detector must treat the returned pointer as
// read-only; use Snapshot for a safe copy.
func (d *Detector) MarketState(assetID string) *market.MarketState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.states[assetID]
}

// Mid implements market.PriceProvider.
func (d *Detector) Mid(assetID string) (decimal.Decimal, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.states[assetID]
	if !ok || s.CurrentPrice.IsZero() {
		return decimal.Zero, false
	}
	return s.CurrentPrice, true
}

// Spread implements edgedetector.SpreadProvider.
func (d *Detector) Spread(assetID string) (decimal.Decimal, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.states[assetID]
	if !ok {
		return decimal.Zero, false
	}
	return s.Spread(), true
}

// SetMarketQuestion is a no-op hook point kept for parity with the
// public surface named in the spec; question text lives on Market in
// the Linker, not on MarketState.
func (d *Detector) SetMarketQuestion(assetID, question string) {}

// OnBook applies a full book update and evaluates spread-compression and
// depth-pull, which are book-driven.
func (d *Detector) OnBook(ev BookEvent, now time.Time) {
	if ev.AssetID == "" || ev.BestBid.IsNegative() || ev.BestAsk.IsNegative() || ev.BestAsk.LessThan(ev.BestBid) {
		d.log.Warn().Str("asset_id", ev.AssetID).Msg("dropping malformed book event")
		return
	}

	state := d.stateFor(ev.AssetID, now)

	d.mu.Lock()
	prevSpread := state.Spread()
	prevBidDepth := state.BidDepth
	prevAskDepth := state.AskDepth
	state.ApplyBook(ev.BestBid, ev.BestAsk, ev.BidDepth, ev.AskDepth, now)
	d.mu.Unlock()

	if d.warmingUp(state, now) {
		return
	}

	if sig := detectSpreadCompression(prevSpread, state, d.cfg, now); sig != nil {
		d.emit(*sig)
	}
	if sig := detectDepthPull(depthPullBid, prevBidDepth, ev.BidDepth, state, d.cfg, now); sig != nil {
		d.emit(*sig)
	}
	if sig := detectDepthPull(depthPullAsk, prevAskDepth, ev.AskDepth, state, d.cfg, now); sig != nil {
		d.emit(*sig)
	}
}

// OnPrice applies a best-bid/best-ask update and evaluates the price
// spike detector against the midpoint.
func (d *Detector) OnPrice(ev PriceEvent, now time.Time) {
	if ev.AssetID == "" || ev.BestAsk.LessThan(ev.BestBid) {
		d.log.Warn().Str("asset_id", ev.AssetID).Msg("dropping malformed price event")
		return
	}

	state := d.stateFor(ev.AssetID, now)

	d.mu.Lock()
	state.BestBid = ev.BestBid
	state.BestAsk = ev.BestAsk
	mid := state.Mid()
	state.ApplyPrice(mid, now)
	d.mu.Unlock()

	if d.warmingUp(state, now) {
		return
	}
	if sig := detectPriceSpike(state, d.cfg, now); sig != nil {
		d.emit(*sig)
	}
}

// OnTrade applies a trade and evaluates volume-spike and aggressive-sweep.
func (d *Detector) OnTrade(ev TradeEvent, now time.Time) {
	if ev.AssetID == "" || ev.Price.IsNegative() || ev.Size.IsNegative() || ev.Price.IsZero() {
		d.log.Warn().Str("asset_id", ev.AssetID).Msg("dropping malformed trade event")
		return
	}

	state := d.stateFor(ev.AssetID, now)

	d.mu.Lock()
	state.ApplyTrade(ev.Price, ev.Size, ev.Side, now)
	d.mu.Unlock()

	if d.warmingUp(state, now) {
		return
	}
	if sig := detectVolumeSpike(state, d.cfg, now); sig != nil {
		d.emit(*sig)
	}
	if sig := detectAggressiveSweep(state, d.cfg, now); sig != nil {
		d.emit(*sig)
	}
}

func (d *Detector) warmingUp(state *market.MarketState, now time.Time) bool {
	return now.Sub(state.FirstSeen) < d.cfg.WarmUp
}

// emit applies the per-(asset,signal) cooldown gate before publishing.
func (d *Detector) emit(sig Signal) {
	key := sig.AssetID + "|" + string(sig.Type)

	d.cooldownMu.Lock()
	last, ok := d.lastFired[key]
	if ok && sig.At.Sub(last) < d.cfg.Cooldown {
		d.cooldownMu.Unlock()
		return
	}
	d.lastFired[key] = sig.At
	d.cooldownMu.Unlock()

	d.log.Debug().
		Str("asset_id", sig.AssetID).
		Str("type", string(sig.Type)).
		Str("change_pct", sig.ChangePercent.StringFixed(2)).
		Msg("🎯 signal fired")

	d.onSignal(sig)
}
