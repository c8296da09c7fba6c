package universe

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/config"
	"github.com/web3guy0/predimarket-intel/internal/whaletracker/tradestore"
	"github.com/web3guy0/predimarket-intel/internal/whaletracker/whaletypes"
)

func testCfg() config.WhaleUniverseConfig {
	return config.WhaleUniverseConfig{
		MinVolume:    decimal.NewFromInt(10000),
		MinTrades:    5,
		RebuildEvery: time.Hour,
	}
}

func TestRebuildQualifiesWalletMeetingVolumeAndTradeFloor(t *testing.T) {
	store := tradestore.New()
	now := time.Now()
	for i := 0; i < 6; i++ {
		store.Append(whaletypes.WhaleTrade{
			Wallet: "0x0000000000000000000000000000000000000001", MarketID: "m1",
			Outcome: whaletypes.OutcomeYes, Side: whaletypes.Buy,
			Price: decimal.NewFromFloat(0.5), Size: decimal.NewFromInt(1000),
			NotionalUSDC: decimal.NewFromInt(2000),
			Timestamp:    now.Add(-time.Duration(i) * time.Hour),
		})
	}

	u := New(testCfg(), store, zerolog.Nop())
	u.Rebuild(now)

	w, ok := u.Whale("0x0000000000000000000000000000000000000001")
	if !ok {
		t.Fatalf("expected the wallet to qualify into the universe")
	}
	if w.Volume7d.LessThan(testCfg().MinVolume) {
		t.Fatalf("expected 7d volume to clear the qualification floor, got %s", w.Volume7d)
	}
}

func TestRebuildExcludesWalletBelowTradeFloor(t *testing.T) {
	store := tradestore.New()
	now := time.Now()
	store.Append(whaletypes.WhaleTrade{
		Wallet: "0x0000000000000000000000000000000000000002", MarketID: "m1",
		NotionalUSDC: decimal.NewFromInt(50000), Timestamp: now,
	})

	u := New(testCfg(), store, zerolog.Nop())
	u.Rebuild(now)

	if u.IsTracked("0x0000000000000000000000000000000000000002") {
		t.Fatalf("expected a single trade to fall short of the min-trades floor")
	}
}

func TestBootstrapSurvivesRebuildEvenWithoutQualifyingTrades(t *testing.T) {
	store := tradestore.New()
	u := New(testCfg(), store, zerolog.Nop())
	u.Bootstrap("0x0000000000000000000000000000000000000003", "watchlist-entry")

	u.Rebuild(time.Now())

	w, ok := u.Whale("0x0000000000000000000000000000000000000003")
	if !ok {
		t.Fatalf("expected the bootstrapped address to remain tracked")
	}
	if w.Tier != whaletypes.TierTracked {
		t.Fatalf("expected bootstrap-only addresses to be tier tracked, got %s", w.Tier)
	}
	if w.DisplayName != "watchlist-entry" {
		t.Fatalf("expected the bootstrap display name to carry through, got %q", w.DisplayName)
	}
}

func TestRebuildPreservesDisplayNameAcrossRebuilds(t *testing.T) {
	store := tradestore.New()
	now := time.Now()
	addr := "0x0000000000000000000000000000000000000004"
	for i := 0; i < 6; i++ {
		store.Append(whaletypes.WhaleTrade{
			Wallet: addr, MarketID: "m1", Side: whaletypes.Buy,
			NotionalUSDC: decimal.NewFromInt(2000),
			Timestamp:    now.Add(-time.Duration(i) * time.Hour),
		})
	}

	u := New(testCfg(), store, zerolog.Nop())
	u.Bootstrap(addr, "known-whale")
	u.Rebuild(now)
	u.Rebuild(now.Add(time.Hour))

	w, _ := u.Whale(addr)
	if w.DisplayName != "known-whale" {
		t.Fatalf("expected display name to survive a second rebuild, got %q", w.DisplayName)
	}
}
