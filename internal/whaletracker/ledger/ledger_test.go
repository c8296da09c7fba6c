package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/whaletracker/whaletypes"
)

func trade(side whaletypes.Side, price, size float64, at time.Time) whaletypes.WhaleTrade {
	return whaletypes.WhaleTrade{
		Wallet: "w1", MarketID: "m1", Outcome: whaletypes.OutcomeYes,
		Side: side, Price: decimal.NewFromFloat(price), Size: decimal.NewFromFloat(size),
		Timestamp: at,
	}
}

func TestApplyOpensFreshPosition(t *testing.T) {
	l := New()
	now := time.Now()
	l.Apply(trade(whaletypes.Buy, 0.40, 100, now))

	p := l.Position("w1", "m1", whaletypes.OutcomeYes)
	if !p.NetShares.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected net shares 100, got %s", p.NetShares)
	}
	if !p.VWAPEntry.Equal(decimal.NewFromFloat(0.40)) {
		t.Fatalf("expected VWAP entry 0.40, got %s", p.VWAPEntry)
	}
}

func TestApplyAveragesVWAPOnSameDirectionAdd(t *testing.T) {
	l := New()
	now := time.Now()
	l.Apply(trade(whaletypes.Buy, 0.40, 100, now))
	l.Apply(trade(whaletypes.Buy, 0.60, 100, now.Add(time.Minute)))

	p := l.Position("w1", "m1", whaletypes.OutcomeYes)
	if !p.NetShares.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected net shares 200, got %s", p.NetShares)
	}
	if !p.VWAPEntry.Equal(decimal.NewFromFloat(0.50)) {
		t.Fatalf("expected VWAP averaged to 0.50, got %s", p.VWAPEntry)
	}
}

func TestApplyRealizesPnLOnPartialClose(t *testing.T) {
	l := New()
	now := time.Now()
	l.Apply(trade(whaletypes.Buy, 0.40, 100, now))
	out := l.Apply(trade(whaletypes.Sell, 0.60, 40, now.Add(time.Minute)))

	if !out.RealizedPnL.Equal(decimal.NewFromFloat(8)) {
		t.Fatalf("expected realized PnL 8 (0.20 * 40), got %s", out.RealizedPnL)
	}
	p := l.Position("w1", "m1", whaletypes.OutcomeYes)
	if !p.NetShares.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected net shares 60 remaining, got %s", p.NetShares)
	}
	if !p.RealizedPnL.Equal(decimal.NewFromFloat(8)) {
		t.Fatalf("expected cumulative realized PnL 8, got %s", p.RealizedPnL)
	}
}

func TestApplyCrossesThroughZeroAndReopensAtTradePrice(t *testing.T) {
	l := New()
	now := time.Now()
	l.Apply(trade(whaletypes.Buy, 0.40, 100, now))
	out := l.Apply(trade(whaletypes.Sell, 0.70, 150, now.Add(time.Minute)))

	if !out.RealizedPnL.Equal(decimal.NewFromFloat(30)) {
		t.Fatalf("expected realized PnL 30 (0.30 * 100) on the closed leg, got %s", out.RealizedPnL)
	}
	p := l.Position("w1", "m1", whaletypes.OutcomeYes)
	if !p.NetShares.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("expected net shares -50 after crossing, got %s", p.NetShares)
	}
	if !p.VWAPEntry.Equal(decimal.NewFromFloat(0.70)) {
		t.Fatalf("expected the new short leg to open at the trade price 0.70, got %s", p.VWAPEntry)
	}
}

func TestPeakSharesNeverFallsBelowCurrentAbsoluteNetShares(t *testing.T) {
	l := New()
	now := time.Now()
	l.Apply(trade(whaletypes.Buy, 0.40, 100, now))
	l.Apply(trade(whaletypes.Sell, 0.50, 40, now.Add(time.Minute)))

	p := l.Position("w1", "m1", whaletypes.OutcomeYes)
	if p.PeakShares.LessThan(p.NetShares.Abs()) {
		t.Fatalf("invariant violated: peak shares %s < |net shares| %s", p.PeakShares, p.NetShares.Abs())
	}
	if !p.PeakShares.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected peak shares to remain at the high-water mark of 100, got %s", p.PeakShares)
	}
}

func TestPositionReturnsFlatForUnknownKey(t *testing.T) {
	l := New()
	p := l.Position("ghost", "m1", whaletypes.OutcomeYes)
	if !p.NetShares.IsZero() || !p.VWAPEntry.IsZero() {
		t.Fatalf("expected a flat position for an unknown key, got %+v", p)
	}
}
