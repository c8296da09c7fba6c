package tradestore

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/whaletracker/whaletypes"
)

func TestNormalizeAddressRejectsMalformed(t *testing.T) {
	if _, ok := NormalizeAddress("not-an-address"); ok {
		t.Fatalf("expected a malformed address to be rejected")
	}
	addr, ok := NormalizeAddress("0x0000000000000000000000000000000000000001")
	if !ok || addr == "" {
		t.Fatalf("expected a valid hex address to normalize, got %q ok=%v", addr, ok)
	}
}

func TestTradesByWalletOnlyReturnsWithinWindow(t *testing.T) {
	s := New()
	now := time.Now()

	s.Append(whaletypes.WhaleTrade{Wallet: "w1", MarketID: "m1", Timestamp: now.Add(-2 * time.Hour)})
	s.Append(whaletypes.WhaleTrade{Wallet: "w1", MarketID: "m1", Timestamp: now.Add(-10 * time.Minute)})

	got := s.TradesByWallet("w1", now.Add(-time.Hour))
	if len(got) != 1 {
		t.Fatalf("expected only the recent trade, got %d", len(got))
	}
}

func TestAllWalletsIsSortedAndDeduped(t *testing.T) {
	s := New()
	now := time.Now()
	s.Append(whaletypes.WhaleTrade{Wallet: "w2", Timestamp: now})
	s.Append(whaletypes.WhaleTrade{Wallet: "w1", Timestamp: now})
	s.Append(whaletypes.WhaleTrade{Wallet: "w2", Timestamp: now})

	got := s.AllWallets()
	if len(got) != 2 || got[0] != "w1" || got[1] != "w2" {
		t.Fatalf("expected [w1 w2], got %v", got)
	}
}

func TestWindowStatsAggregatesVolumeAndRealizedPnL(t *testing.T) {
	s := New()
	now := time.Now()

	s.Append(whaletypes.WhaleTrade{
		Wallet: "w1", MarketID: "m1", Outcome: whaletypes.OutcomeYes, Side: whaletypes.Buy,
		Price: decimal.NewFromFloat(0.40), Size: decimal.NewFromInt(100), NotionalUSDC: decimal.NewFromInt(40),
		Timestamp: now.Add(-time.Hour),
	})
	s.Append(whaletypes.WhaleTrade{
		Wallet: "w1", MarketID: "m1", Outcome: whaletypes.OutcomeYes, Side: whaletypes.Sell,
		Price: decimal.NewFromFloat(0.60), Size: decimal.NewFromInt(100), NotionalUSDC: decimal.NewFromInt(60),
		RealizedPnL: decimal.NewFromInt(20),
		Timestamp:   now.Add(-30 * time.Minute),
	})

	stats := s.WindowStats("w1", 7*24*time.Hour, now)
	if stats.TradeCount != 2 {
		t.Fatalf("expected 2 trades, got %d", stats.TradeCount)
	}
	if !stats.Volume.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected volume 100, got %s", stats.Volume)
	}
	if !stats.PnL.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected realized PnL 20, got %s", stats.PnL)
	}
	if !stats.WinRate.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected a 100%% win rate on the single realized trade, got %s", stats.WinRate)
	}
}

func TestWindowStatsEmptyForUnknownWallet(t *testing.T) {
	s := New()
	stats := s.WindowStats("ghost", time.Hour, time.Now())
	if stats.TradeCount != 0 || !stats.Volume.IsZero() {
		t.Fatalf("expected zero-value stats for an unknown wallet, got %+v", stats)
	}
}
