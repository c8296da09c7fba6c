package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestApplyBookSetsCurrentPriceFromMidOnFirstUpdate(t *testing.T) {
	now := time.Now()
	s := NewMarketState("a1", time.Hour, now)

	s.ApplyBook(decimal.NewFromFloat(0.40), decimal.NewFromFloat(0.42), decimal.NewFromInt(100), decimal.NewFromInt(80), now)

	if !s.CurrentPrice.Equal(decimal.NewFromFloat(0.41)) {
		t.Fatalf("expected current price seeded from mid 0.41, got %s", s.CurrentPrice)
	}
}

func TestApplyBookDoesNotOverwriteCurrentPriceOnceSet(t *testing.T) {
	now := time.Now()
	s := NewMarketState("a1", time.Hour, now)
	s.ApplyTrade(decimal.NewFromFloat(0.55), decimal.NewFromInt(10), Buy, now)

	s.ApplyBook(decimal.NewFromFloat(0.40), decimal.NewFromFloat(0.42), decimal.NewFromInt(1), decimal.NewFromInt(1), now)

	if !s.CurrentPrice.Equal(decimal.NewFromFloat(0.55)) {
		t.Fatalf("expected current price to remain from the trade, got %s", s.CurrentPrice)
	}
}

func TestPruneDropsSamplesOlderThanMaxAge(t *testing.T) {
	start := time.Now()
	s := NewMarketState("a1", time.Minute, start)

	s.ApplyPrice(decimal.NewFromFloat(0.50), start)
	s.ApplyPrice(decimal.NewFromFloat(0.51), start.Add(2*time.Minute))

	if len(s.Prices) != 1 {
		t.Fatalf("expected the stale sample to be pruned, got %d remaining", len(s.Prices))
	}
	if !s.Prices[0].Price.Equal(decimal.NewFromFloat(0.51)) {
		t.Fatalf("expected the fresh sample to survive, got %s", s.Prices[0].Price)
	}
}

func TestSpreadAndMid(t *testing.T) {
	s := &MarketState{BestBid: decimal.NewFromFloat(0.30), BestAsk: decimal.NewFromFloat(0.34)}

	if !s.Spread().Equal(decimal.NewFromFloat(0.04)) {
		t.Fatalf("expected spread 0.04, got %s", s.Spread())
	}
	if !s.Mid().Equal(decimal.NewFromFloat(0.32)) {
		t.Fatalf("expected mid 0.32, got %s", s.Mid())
	}
}

func TestSnapshotCopiesScalarFieldsOnly(t *testing.T) {
	now := time.Now()
	s := NewMarketState("a1", time.Hour, now)
	s.ApplyTrade(decimal.NewFromFloat(0.6), decimal.NewFromInt(5), Buy, now)

	snap := s.Snapshot()
	if snap.AssetID != "a1" || !snap.CurrentPrice.Equal(decimal.NewFromFloat(0.6)) {
		t.Fatalf("expected snapshot to carry scalar state, got %+v", snap)
	}
}
