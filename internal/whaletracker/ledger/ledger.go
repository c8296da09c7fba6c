// Package ledger maintains per-(wallet, market, outcome) positions from
// observed whale trades, updating VWAP and realized PnL.
package ledger

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/whaletracker/whaletypes"
)

// Ledger is the single-writer owner of every tracked position.
type Ledger struct {
	mu        sync.RWMutex
	positions map[string]*whaletypes.Position // key: wallet|market|outcome
}

// New builds an empty Ledger.
func New() *Ledger {
	return &Ledger{positions: make(map[string]*whaletypes.Position)}
}

func key(wallet, marketID string, outcome whaletypes.Outcome) string {
	return wallet + "|" + marketID + "|" + string(outcome)
}

// Position returns a copy of the current position, or a flat one (not
// stored) if none exists yet.
func (l *Ledger) Position(wallet, marketID string, outcome whaletypes.Outcome) whaletypes.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if p, ok := l.positions[key(wallet, marketID, outcome)]; ok {
		return *p
	}
	return whaletypes.Position{Wallet: wallet, MarketID: marketID, Outcome: outcome}
}

// Apply processes one trade against the ledger, updating VWAP,
// net_shares, realized_pnl and peak_|shares| per the spec's crossing
// rules, and returns the resulting trade augmented with any realized
// PnL from this fill (used by the Trade Store's PnL aggregation).
func (l *Ledger) Apply(t whaletypes.WhaleTrade) whaletypes.WhaleTrade {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key(t.Wallet, t.MarketID, t.Outcome)
	p, ok := l.positions[k]
	if !ok {
		p = &whaletypes.Position{Wallet: t.Wallet, MarketID: t.MarketID, Outcome: t.Outcome}
		l.positions[k] = p
	}

	signedSize := t.Size
	if t.Side == whaletypes.Sell {
		signedSize = signedSize.Neg()
	}

	realized := decimal.Zero

	switch {
	case p.NetShares.IsZero():
		// opening a fresh position.
		p.NetShares = signedSize
		p.VWAPEntry = t.Price

	case sameSign(p.NetShares, signedSize):
		// adding to an existing position of the same direction: VWAP update.
		oldAbs := p.NetShares.Abs()
		newAbs := signedSize.Abs()
		totalAbs := oldAbs.Add(newAbs)
		p.VWAPEntry = p.VWAPEntry.Mul(oldAbs).Add(t.Price.Mul(newAbs)).Div(totalAbs)
		p.NetShares = p.NetShares.Add(signedSize)

	default:
		// reducing, closing, or crossing through zero.
		closingAbs := signedSize.Abs()
		existingAbs := p.NetShares.Abs()

		if closingAbs.GreaterThan(existingAbs) {
			// fully closes and crosses: realize PnL on the existing size,
			// then open a fresh position in the new direction at trade price.
			realized = pnlOnClose(p, existingAbs, t.Price)
			remaining := closingAbs.Sub(existingAbs)
			if signedSize.IsNegative() {
				remaining = remaining.Neg()
			}
			p.NetShares = remaining
			p.VWAPEntry = t.Price
		} else {
			// partial or full close without crossing.
			realized = pnlOnClose(p, closingAbs, t.Price)
			p.NetShares = p.NetShares.Add(signedSize)
			if p.NetShares.IsZero() {
				p.VWAPEntry = decimal.Zero
			}
		}
	}

	absShares := p.NetShares.Abs()
	if absShares.GreaterThan(p.PeakShares) {
		p.PeakShares = absShares
	}
	p.RealizedPnL = p.RealizedPnL.Add(realized)

	t.RealizedPnL = realized
	return t
}

func sameSign(a, b decimal.Decimal) bool {
	if a.IsZero() || b.IsZero() {
		return true
	}
	return a.Sign() == b.Sign()
}

// pnlOnClose realizes PnL for closing `closingAbs` shares of the
// existing position at the given trade price.
func pnlOnClose(p *whaletypes.Position, closingAbs, price decimal.Decimal) decimal.Decimal {
	if p.NetShares.IsPositive() {
		// was long: profit if sold higher than entry.
		return price.Sub(p.VWAPEntry).Mul(closingAbs)
	}
	// was short: profit if covered lower than entry.
	return p.VWAPEntry.Sub(price).Mul(closingAbs)
}
