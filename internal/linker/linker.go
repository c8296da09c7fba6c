package linker

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/market"
)

// MarketUniverse is the external collaborator the Linker polls on its
// refresh tick to discover new markets to categorise.
type MarketUniverse interface {
	ActiveMarkets() []market.Market
}

// Watchlist optionally narrows or boosts the affected-market list.
type Watchlist struct {
	Exclusive     bool
	MinConfidence map[string]market.Confidence // assetID -> floor
	watched       map[string]bool
}

// NewWatchlist builds a watchlist from a set of watched asset IDs.
func NewWatchlist(assetIDs []string, exclusive bool) *Watchlist {
	w := &Watchlist{Exclusive: exclusive, MinConfidence: map[string]market.Confidence{}, watched: map[string]bool{}}
	for _, id := range assetIDs {
		w.watched[id] = true
	}
	return w
}

func (w *Watchlist) isWatched(assetID string) bool {
	if w == nil {
		return false
	}
	return w.watched[assetID]
}

// Linker is the single-writer owner of tracked_markets. Readers receive
// shallow clones via TrackedMarkets.
type Linker struct {
	log zerolog.Logger

	compiled []compiledRule

	mu      sync.RWMutex
	tracked map[string]*TrackedMarket

	watchlistMu sync.RWMutex
	watchlist   *Watchlist

	refreshEvery time.Duration
	universe     MarketUniverse

	onAlert func(LinkedAlert)
}

// New builds a Linker using the default category rule table.
func New(log zerolog.Logger, universe MarketUniverse, refreshEvery time.Duration, onAlert func(LinkedAlert)) *Linker {
	return &Linker{
		log:          log.With().Str("component", "linker").Logger(),
		compiled:     compileRules(DefaultCategoryRules()),
		tracked:      make(map[string]*TrackedMarket),
		refreshEvery: refreshEvery,
		universe:     universe,
		onAlert:      onAlert,
	}
}

// SetWatchlist installs or replaces the watchlist gate.
func (l *Linker) SetWatchlist(w *Watchlist) {
	l.watchlistMu.Lock()
	defer l.watchlistMu.Unlock()
	l.watchlist = w
}

// TrackMarket directly tracks a market with an explicit TruthMap,
// bypassing categorisation — used for bootstrap/tests.
func (l *Linker) TrackMarket(m market.Market, tm TruthMap) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracked[m.AssetID] = &TrackedMarket{Market: m, TruthMap: tm, CreatedAt: time.Now(), LastRefresh: time.Now()}
}

// TrackedMarkets returns shallow clones of every tracked market.
func (l *Linker) TrackedMarkets() map[string]TrackedMarket {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]TrackedMarket, len(l.tracked))
	for k, v := range l.tracked {
		out[k] = *v
	}
	return out
}

// Refresh runs one categorisation pass over the active market universe.
// A failure of the universe provider must not drop already-tracked
// markets.
func (l *Linker) Refresh(now time.Time) {
	if l.universe == nil {
		return
	}
	markets := l.universe.ActiveMarkets()

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range markets {
		if _, exists := l.tracked[m.AssetID]; exists {
			l.tracked[m.AssetID].LastRefresh = now
			continue
		}
		text := m.Question + " " + m.Slug
		tm, ok := Categorize(l.compiled, text)
		if !ok {
			continue
		}
		l.tracked[m.AssetID] = &TrackedMarket{Market: m, TruthMap: tm, CreatedAt: now, LastRefresh: now}
		l.log.Debug().Str("asset_id", m.AssetID).Str("category", string(tm.Category)).Msg("tracking new market")
	}
}

// keywordRelevance scores a keyword hit list using 0.5 base + 0.1 per
// extra keyword, capped at 0.9, per the Congress relevance rule.
func keywordRelevance(hits int) decimal.Decimal {
	if hits == 0 {
		return decimal.Zero
	}
	score := decimal.NewFromFloat(0.5).Add(decimal.NewFromFloat(0.1).Mul(decimal.NewFromInt(int64(hits - 1))))
	cap := decimal.NewFromFloat(0.9)
	if score.GreaterThan(cap) {
		return cap
	}
	return score
}

func containsAnyKeyword(text string, keywords []string) int {
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			hits++
		}
	}
	return hits
}

// finalizeAlert sorts affected markets by relevance desc, applies the
// watchlist gate, and computes confidence/urgency.
func (l *Linker) finalizeAlert(source, summary string, sig Significance, candidates []AffectedMarket, now time.Time) *LinkedAlert {
	l.watchlistMu.RLock()
	wl := l.watchlist
	l.watchlistMu.RUnlock()

	filtered := make([]AffectedMarket, 0, len(candidates))
	for _, am := range candidates {
		relevance := am.Relevance
		if wl != nil {
			watched := wl.isWatched(am.AssetID)
			if wl.Exclusive && !watched {
				continue
			}
			if watched {
				relevance = relevance.Add(decimal.NewFromFloat(0.2))
				if floor, ok := wl.MinConfidence[am.AssetID]; ok {
					conf := confidenceFromRelevanceAndSignificance(relevance, sig)
					if conf < floor {
						continue
					}
				}
			}
		}
		am.Relevance = relevance
		filtered = append(filtered, am)
	}

	if len(filtered) == 0 {
		return nil
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Relevance.GreaterThan(filtered[j].Relevance)
	})

	avg := decimal.Zero
	for _, am := range filtered {
		avg = avg.Add(am.Relevance)
	}
	avg = avg.Div(decimal.NewFromInt(int64(len(filtered))))

	alert := &LinkedAlert{
		EventSource:     source,
		EventSummary:    summary,
		AffectedMarkets: filtered,
		Confidence:      confidenceFromRelevanceAndSignificance(avg, sig),
		Urgency:         sig,
		At:              now,
	}
	return alert
}

// confidenceFromRelevanceAndSignificance blends average relevance with
// event significance into the binding low<medium<high<very_high order.
func confidenceFromRelevanceAndSignificance(avgRelevance decimal.Decimal, sig Significance) market.Confidence {
	base := market.ConfidenceFromSignificance(int(sig))
	if avgRelevance.GreaterThanOrEqual(decimal.NewFromFloat(0.85)) && base < market.ConfidenceVeryHigh {
		base++
	} else if avgRelevance.LessThan(decimal.NewFromFloat(0.5)) && base > market.ConfidenceLow {
		base--
	}
	return base
}

func (l *Linker) publish(alert *LinkedAlert) {
	if alert == nil || len(alert.AffectedMarkets) == 0 {
		return
	}
	if l.onAlert != nil {
		l.onAlert(*alert)
	}
}
