package arbxdetector

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/config"
	"github.com/web3guy0/predimarket-intel/internal/market"
)

// MarketUniverse is the read surface the Detector needs to discover the
// currently known markets; satisfied by marketcatalog.Catalog or any
// other market source.
type MarketUniverse interface {
	ActiveMarkets() []market.Market
}

// PriceProvider supplies current mids; satisfied by the Signal
// Detector.
type PriceProvider interface {
	Mid(assetID string) (decimal.Decimal, bool)
}

// Detector runs the fixed-tick scan loop and owns the pair cache and
// dedupe window, in the teacher's ticker-loop-plus-stopCh style.
type Detector struct {
	cfg      config.Config
	log      zerolog.Logger
	universe MarketUniverse
	prices   PriceProvider
	onOpportunity func(Opportunity)

	mu    sync.RWMutex
	pairs []Pair

	dedupeMu sync.Mutex
	lastSeen map[string]time.Time // key: pair+type

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a Detector.
func New(cfg config.Config, log zerolog.Logger, universe MarketUniverse, prices PriceProvider, onOpportunity func(Opportunity)) *Detector {
	return &Detector{
		cfg:           cfg,
		log:           log.With().Str("component", "arbx_detector").Logger(),
		universe:      universe,
		prices:        prices,
		onOpportunity: onOpportunity,
		lastSeen:      make(map[string]time.Time),
		stopCh:        make(chan struct{}),
	}
}

// Start spawns the pair-rediscovery and scan loops.
func (d *Detector) Start() {
	d.wg.Add(2)
	go d.pairRefreshLoop()
	go d.scanLoop()
}

// Stop signals both loops to exit and waits for them.
func (d *Detector) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

func (d *Detector) pairRefreshLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.ArbCheckEvery)
	defer ticker.Stop()
	d.refreshPairs()
	for {
		select {
		case <-ticker.C:
			d.refreshPairs()
		case <-d.stopCh:
			return
		}
	}
}

func (d *Detector) refreshPairs() {
	markets := d.universe.ActiveMarkets()
	pairs := DetectPairs(markets)
	d.mu.Lock()
	d.pairs = pairs
	d.mu.Unlock()
	d.log.Debug().Int("pairs", len(pairs)).Msg("arbitrage pairs refreshed")
}

func (d *Detector) scanLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.ArbCheckEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.scan(time.Now())
		case <-d.stopCh:
			return
		}
	}
}

// scan evaluates every known pair and emits opportunities clearing the
// minimum edge and not currently deduped.
func (d *Detector) scan(now time.Time) {
	d.mu.RLock()
	pairs := append([]Pair(nil), d.pairs...)
	d.mu.RUnlock()

	for _, pair := range pairs {
		d.evaluatePairSafe(pair, now)
	}
}

func (d *Detector) evaluatePairSafe(pair Pair, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Str("pair", pair.A+"/"+pair.B).Msg("📉 arbitrage pair evaluation recovered")
		}
	}()

	priceA, ok := d.prices.Mid(pair.A)
	if !ok {
		return
	}
	priceB, ok := d.prices.Mid(pair.B)
	if !ok {
		return
	}

	edge, legs, ok := evaluate(pair, priceA, priceB)
	if !ok || edge.LessThan(d.cfg.ArbMinEdge) {
		return
	}

	key := pair.A + "|" + pair.B + "|" + string(pair.Relationship)
	if d.onCooldown(key, now) {
		return
	}

	opp := Opportunity{
		ID:           uuid.NewString(),
		Pair:         pair,
		ExpectedEdge: edge,
		Markets:      legs,
		Urgency:      urgencyFor(edge),
		At:           now,
	}
	if d.onOpportunity != nil {
		d.onOpportunity(opp)
	}
}

func (d *Detector) onCooldown(key string, now time.Time) bool {
	d.dedupeMu.Lock()
	defer d.dedupeMu.Unlock()
	if last, ok := d.lastSeen[key]; ok && now.Sub(last) < d.cfg.ArbDedupeWindow {
		return true
	}
	d.lastSeen[key] = now
	return false
}
