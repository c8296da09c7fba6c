// Package universe computes and maintains the Whale Universe: the set
// of addresses currently classified as tracked, rebuilt on an hourly
// tick from the Trade Store's windowed WalletStats.
package universe

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/config"
	"github.com/web3guy0/predimarket-intel/internal/whaletracker/tradestore"
	"github.com/web3guy0/predimarket-intel/internal/whaletracker/whaletypes"
)

const (
	window7d  = 7 * 24 * time.Hour
	window30d = 30 * 24 * time.Hour
)

// Universe is the single-writer owner of the tracked-whale set.
type Universe struct {
	cfg   config.WhaleUniverseConfig
	store *tradestore.Store
	log   zerolog.Logger

	mu     sync.RWMutex
	whales map[string]*whaletypes.Whale

	bootstrapMu sync.RWMutex
	bootstrap   map[string]string // address -> display name, not yet qualified by trades
}

// New builds a Universe over the given trade store.
func New(cfg config.WhaleUniverseConfig, store *tradestore.Store, log zerolog.Logger) *Universe {
	return &Universe{
		cfg:       cfg,
		store:     store,
		log:       log.With().Str("component", "whale_universe").Logger(),
		whales:    make(map[string]*whaletypes.Whale),
		bootstrap: make(map[string]string),
	}
}

// Bootstrap registers an externally supplied address that should be
// visible (tier=tracked) even before it qualifies by trade data.
func (u *Universe) Bootstrap(address, displayName string) {
	u.bootstrapMu.Lock()
	defer u.bootstrapMu.Unlock()
	u.bootstrap[address] = displayName
}

// Whale returns the current record for an address, if tracked.
func (u *Universe) Whale(address string) (whaletypes.Whale, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	w, ok := u.whales[address]
	if !ok {
		return whaletypes.Whale{}, false
	}
	return *w, true
}

// IsTracked reports whether an address is currently in the universe at
// any tier.
func (u *Universe) IsTracked(address string) bool {
	_, ok := u.Whale(address)
	return ok
}

type measured struct {
	address   string
	stats7    whaletypes.WalletStats
	stats30   whaletypes.WalletStats
	volMeasure decimal.Decimal
	pnlMeasure decimal.Decimal
}

// Rebuild recomputes the universe from the Trade Store. Display names
// and leaderboard ranks never influence qualification — display name
// enrichment happens only for addresses already qualified or
// bootstrapped.
func (u *Universe) Rebuild(now time.Time) {
	wallets := u.store.AllWallets()

	qualified := make([]measured, 0, len(wallets))
	for _, addr := range wallets {
		s7 := u.store.WindowStats(addr, window7d, now)
		s30 := u.store.WindowStats(addr, window30d, now)

		volMeasure := maxDecimal(s7.Volume, s30.Volume.Div(decimal.NewFromInt(4)))
		pnlMeasure := maxDecimal(s7.PnL, s30.PnL.Div(decimal.NewFromInt(4)))
		tradeCount := s7.TradeCount
		if s30.TradeCount > tradeCount {
			tradeCount = s30.TradeCount
		}

		if tradeCount < u.cfg.MinTrades || volMeasure.LessThan(u.cfg.MinVolume) {
			continue
		}
		qualified = append(qualified, measured{address: addr, stats7: s7, stats30: s30, volMeasure: volMeasure, pnlMeasure: pnlMeasure})
	}

	byVolume := append([]measured(nil), qualified...)
	sort.Slice(byVolume, func(i, j int) bool { return byVolume[i].volMeasure.GreaterThan(byVolume[j].volMeasure) })
	byPnL := append([]measured(nil), qualified...)
	sort.Slice(byPnL, func(i, j int) bool { return byPnL[i].pnlMeasure.GreaterThan(byPnL[j].pnlMeasure) })

	volRank := rankOf(byVolume)
	pnlRank := rankOf(byPnL)

	top50Volume := takeTop(byVolume, 50)
	top50PnL := takeTop(byPnL, 50)

	union := make(map[string]measured)
	for _, m := range top50Volume {
		union[m.address] = m
	}
	for _, m := range top50PnL {
		union[m.address] = m
	}

	next := make(map[string]*whaletypes.Whale, len(union)+len(u.bootstrap))

	for addr, m := range union {
		vr, hasVR := volRank[addr]
		pr, hasPR := pnlRank[addr]

		tier := whaletypes.TierTop50
		if (hasVR && hasPR && vr < 10 && pr < 10) || (hasVR && vr < 5) || (hasPR && pr < 5) {
			tier = whaletypes.TierTop10
		}

		w := &whaletypes.Whale{
			Address:         addr,
			PnL7d:           m.stats7.PnL,
			PnL30d:          m.stats30.PnL,
			Volume7d:        m.stats7.Volume,
			Volume30d:       m.stats30.Volume,
			TradeCount7d:    m.stats7.TradeCount,
			TradeCount30d:   m.stats30.TradeCount,
			EarlyEntryScore: m.stats7.EarlyEntryScore,
			Tier:            tier,
			LastSeen:        now,
		}
		w.CopySuitability = copySuitability(m.stats7)
		next[addr] = w
	}

	u.bootstrapMu.RLock()
	for addr, name := range u.bootstrap {
		if _, already := next[addr]; already {
			next[addr].DisplayName = name
			continue
		}
		next[addr] = &whaletypes.Whale{Address: addr, DisplayName: name, Tier: whaletypes.TierTracked, LastSeen: now}
	}
	u.bootstrapMu.RUnlock()

	u.mu.Lock()
	// preserve existing display names for addresses that were already
	// enriched but aren't in the bootstrap map.
	for addr, w := range next {
		if w.DisplayName == "" {
			if prev, ok := u.whales[addr]; ok {
				w.DisplayName = prev.DisplayName
			}
		}
	}
	u.whales = next
	u.mu.Unlock()

	u.log.Info().Int("count", len(next)).Msg("🐋 whale universe rebuilt")
}

func rankOf(sorted []measured) map[string]int {
	out := make(map[string]int, len(sorted))
	for i, m := range sorted {
		out[m.address] = i
	}
	return out
}

func takeTop(sorted []measured, n int) []measured {
	if len(sorted) <= n {
		return sorted
	}
	return sorted[:n]
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// copySuitability is a fixed linear combination of wallet stats: a
// long-hold bonus, liquid-market bonus, consistency (win-rate) bonus,
// taker bonus, and early-entry bonus, with symmetric penalties,
// clamped to [0, 100].
func copySuitability(s whaletypes.WalletStats) decimal.Decimal {
	score := decimal.NewFromInt(50)

	// long-hold bonus: reward holds over 4h, penalize under 30m.
	holdHours, _ := s.AvgHoldHours.Float64()
	switch {
	case holdHours >= 4:
		score = score.Add(decimal.NewFromInt(15))
	case holdHours > 0 && holdHours < 0.5:
		score = score.Sub(decimal.NewFromInt(15))
	}

	// liquid-market bonus: reward wallets trading higher-volume markets.
	if s.AvgMarketVolume.GreaterThanOrEqual(decimal.NewFromInt(50000)) {
		score = score.Add(decimal.NewFromInt(10))
	} else if s.AvgMarketVolume.LessThan(decimal.NewFromInt(1000)) && s.AvgMarketVolume.GreaterThan(decimal.Zero) {
		score = score.Sub(decimal.NewFromInt(10))
	}

	// consistency (win-rate) bonus, symmetric.
	score = score.Add(s.WinRate.Sub(decimal.NewFromFloat(0.5)).Mul(decimal.NewFromInt(40)))

	// taker bonus: reward takers (lower maker ratio means more
	// aggressive, information-driven flow).
	score = score.Add(decimal.NewFromFloat(0.5).Sub(s.MakerRatio).Mul(decimal.NewFromInt(20)))

	// early-entry bonus, scaled down since it is already 0-100.
	score = score.Add(s.EarlyEntryScore.Div(decimal.NewFromInt(10)))

	// volatility penalty: punish erratic PnL.
	score = score.Sub(s.PnLVolatility.Mul(decimal.NewFromInt(10)))

	if score.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if score.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return score
}
