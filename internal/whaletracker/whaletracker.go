// Package whaletracker wires the Trade Store, Whale Universe, Position
// Ledger and Behavior Classifier into the single pipeline the spec
// describes: filter venue trades to the tracked cohort, update
// positions, and label each trade's behavior.
package whaletracker

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/config"
	"github.com/web3guy0/predimarket-intel/internal/whaletracker/classifier"
	"github.com/web3guy0/predimarket-intel/internal/whaletracker/ledger"
	"github.com/web3guy0/predimarket-intel/internal/whaletracker/tradestore"
	"github.com/web3guy0/predimarket-intel/internal/whaletracker/universe"
	"github.com/web3guy0/predimarket-intel/internal/whaletracker/whaletypes"
)

// Re-exported so callers outside the package tree don't need to import
// the whaletypes leaf package directly.
type (
	Whale           = whaletypes.Whale
	WalletStats     = whaletypes.WalletStats
	Position        = whaletypes.Position
	WhaleTrade      = whaletypes.WhaleTrade
	Behavior        = whaletypes.Behavior
	ClassifiedTrade = whaletypes.ClassifiedTrade
	Outcome         = whaletypes.Outcome
	Side            = whaletypes.Side
)

const (
	OutcomeYes = whaletypes.OutcomeYes
	OutcomeNo  = whaletypes.OutcomeNo
	Buy        = whaletypes.Buy
	Sell       = whaletypes.Sell
)

// Tracker is the composition root for the four Whale Tracker
// sub-components: trade store, universe, ledger and classifier.
type Tracker struct {
	log zerolog.Logger

	Store      *tradestore.Store
	Universe   *universe.Universe
	Ledger     *ledger.Ledger
	Classifier *classifier.Classifier

	onClassified func(ClassifiedTrade)
}

// New builds a Tracker. onClassified receives every trade accepted by
// ObserveTrade, tagged with its behavior label.
func New(cfg config.WhaleUniverseConfig, log zerolog.Logger, onClassified func(ClassifiedTrade)) *Tracker {
	l := log.With().Str("component", "whale_tracker").Logger()
	store := tradestore.New()
	return &Tracker{
		log:          l,
		Store:        store,
		Universe:     universe.New(cfg, store, l),
		Ledger:       ledger.New(),
		Classifier:   classifier.New(),
		onClassified: onClassified,
	}
}

// RebuildUniverse runs one hourly rebuild tick.
func (t *Tracker) RebuildUniverse(now time.Time) {
	t.Universe.Rebuild(now)
}

// ObserveTrade processes one whale trade; the caller is expected to
// have already filtered to addresses the upstream considers tracked,
// per §6 ("the core assumes upstream has already filtered"). Trades
// with a malformed address or a non-positive size or price are dropped.
// This method re-validates against the live universe so a stale
// upstream filter can't smuggle in a de-listed address.
func (t *Tracker) ObserveTrade(trade WhaleTrade, now time.Time) {
	normalized, ok := tradestore.NormalizeAddress(trade.Wallet)
	if !ok {
		t.log.Warn().Str("wallet", trade.Wallet).Msg("dropping whale trade with malformed address")
		return
	}
	if !trade.Size.IsPositive() || !trade.Price.IsPositive() {
		t.log.Warn().Str("wallet", normalized).Msg("dropping whale trade with non-positive size or price")
		return
	}
	trade.Wallet = normalized

	if !t.Universe.IsTracked(trade.Wallet) {
		return
	}

	t.Classifier.ObservePrice(trade.MarketID, trade.Price, now)

	before := t.Ledger.Position(trade.Wallet, trade.MarketID, trade.Outcome)
	opposite := t.oppositeOutcome(trade.Outcome)
	beforeOpposite := t.Ledger.Position(trade.Wallet, trade.MarketID, opposite)

	applied := t.Ledger.Apply(trade)
	after := t.Ledger.Position(trade.Wallet, trade.MarketID, trade.Outcome)

	behavior := t.Classifier.Classify(applied, before.PeakShares, before.NetShares, after.NetShares, beforeOpposite.NetShares)

	t.Store.Append(applied)

	if t.onClassified != nil {
		t.onClassified(ClassifiedTrade{Trade: applied, Behavior: behavior})
	}
}

func (t *Tracker) oppositeOutcome(o Outcome) Outcome {
	if o == OutcomeYes {
		return OutcomeNo
	}
	return OutcomeYes
}

// WalletStats exposes the Trade Store's windowed aggregation for
// external callers (e.g. a future operator-facing surface).
func (t *Tracker) WalletStats(wallet string, window time.Duration, now time.Time) WalletStats {
	return t.Store.WindowStats(wallet, window, now)
}

// NotionalUSDC is a small helper for venue adapters converting
// price*size into a USDC notional, kept here so every caller rounds the
// same way.
func NotionalUSDC(price, size decimal.Decimal) decimal.Decimal {
	return price.Mul(size)
}
