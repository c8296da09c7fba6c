package edgedetector

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/config"
	"github.com/web3guy0/predimarket-intel/internal/linker"
	"github.com/web3guy0/predimarket-intel/internal/market"
)

type fakePrices struct{ mids map[string]decimal.Decimal }

func (f fakePrices) Mid(assetID string) (decimal.Decimal, bool) {
	v, ok := f.mids[assetID]
	return v, ok
}

type fakeTracked struct{ markets map[string]linker.TrackedMarket }

func (f fakeTracked) TrackedMarkets() map[string]linker.TrackedMarket { return f.markets }

func testConfig() config.Config {
	cfg := config.Config{}
	cfg.Quality.LowMinVolume24h = decimal.NewFromInt(0)
	cfg.Quality.LowMaxSpread = decimal.NewFromFloat(1)
	cfg.Quality.LowMinTrades24h = 0
	cfg.EdgeCacheTTL = 60 * time.Second
	cfg.EdgeCooldown = 5 * time.Minute
	return cfg
}

func TestTruthEventEdgeFiresOnUnabsorbedShutdownEvent(t *testing.T) {
	now := time.Now()
	tracked := fakeTracked{markets: map[string]linker.TrackedMarket{
		"shutdown-market": {
			Market:   market.Market{AssetID: "shutdown-market", Question: "Government shutdown before 2025-12-01?"},
			TruthMap: linker.TruthMap{Category: linker.CategoryGovernmentShutdown},
		},
	}}
	prices := fakePrices{mids: map[string]decimal.Decimal{"shutdown-market": decimal.NewFromFloat(0.42)}}

	d := New(testConfig(), zerolog.Nop(), prices, nil, tracked)

	alert := linker.LinkedAlert{
		EventSource:  "congress",
		EventSummary: "Continuing Appropriations Act 2025 became law",
		At:           now,
		AffectedMarkets: []linker.AffectedMarket{
			{AssetID: "shutdown-market", Relevance: decimal.NewFromFloat(0.9), Direction: linker.DirectionDown},
		},
	}
	d.OnLinkedAlert(alert)

	resp := d.Scan(now)
	if len(resp.Opportunities) != 1 {
		t.Fatalf("expected one opportunity, got %d", len(resp.Opportunities))
	}
	opp := resp.Opportunities[0]
	if opp.SignalType != SignalTruthEvent {
		t.Fatalf("expected truth_event signal, got %s", opp.SignalType)
	}
	if opp.Direction != OutcomeNo {
		t.Fatalf("expected direction NO, got %s", opp.Direction)
	}
	if opp.Action != ActionBuyNo {
		t.Fatalf("expected BUY_NO action, got %s", opp.Action)
	}
}

func TestTruthEventEdgeSkipsWhenAlreadyAbsorbed(t *testing.T) {
	now := time.Now()
	tracked := fakeTracked{markets: map[string]linker.TrackedMarket{
		"m": {TruthMap: linker.TruthMap{Category: linker.CategoryGovernmentShutdown}},
	}}
	cfg := testConfig()
	cfg.EdgeCacheTTL = 0 // disable caching so the second Scan re-evaluates
	cfg.EdgeCooldown = 0
	prices := fakePrices{mids: map[string]decimal.Decimal{"m": decimal.NewFromFloat(0.42)}}
	d := New(cfg, zerolog.Nop(), prices, nil, tracked)

	alert := linker.LinkedAlert{
		EventSummary: "shutdown resolved",
		At:           now,
		AffectedMarkets: []linker.AffectedMarket{
			{AssetID: "m", Direction: linker.DirectionDown},
		},
	}
	// first observation anchors price_at_event at 0.42.
	d.OnLinkedAlert(alert)
	d.Scan(now)

	// the market has since fully absorbed the expected 0.25 move.
	prices.mids["m"] = decimal.NewFromFloat(0.17)
	d.OnLinkedAlert(alert)
	resp := d.Scan(now.Add(time.Minute))
	if len(resp.Opportunities) != 0 {
		t.Fatalf("expected no opportunities once the move is fully absorbed, got %d", len(resp.Opportunities))
	}
}

func TestAccumulationEdgeFiresOnThreeBuysOver20k(t *testing.T) {
	now := time.Now()
	tracked := fakeTracked{markets: map[string]linker.TrackedMarket{}}
	prices := fakePrices{mids: map[string]decimal.Decimal{"K": decimal.NewFromFloat(0.42)}}
	d := New(testConfig(), zerolog.Nop(), prices, nil, tracked)

	base := now.Add(-50 * time.Minute)
	fills := []struct {
		price, notional decimal.Decimal
		offset          time.Duration
	}{
		{decimal.NewFromFloat(0.415), decimal.NewFromInt(8000), 0},
		{decimal.NewFromFloat(0.415), decimal.NewFromInt(7000), 10 * time.Minute},
		{decimal.NewFromFloat(0.42), decimal.NewFromInt(6000), 20 * time.Minute},
		{decimal.NewFromFloat(0.42), decimal.NewFromInt(5000), 30 * time.Minute},
	}
	for _, f := range fills {
		d.ObserveWhaleFill(WhaleFill{
			Wallet: "0xWHALE", MarketID: "K", Outcome: OutcomeYes, Side: Buy,
			Price: f.price, NotionalUSDC: f.notional, Tier: TierTop10, CopySuitable: true,
			Timestamp: base.Add(f.offset),
		})
	}

	resp := d.Scan(now)
	var found bool
	for _, o := range resp.Opportunities {
		if o.SignalType == SignalAccumulation {
			found = true
			if o.Direction != OutcomeYes {
				t.Fatalf("expected YES direction, got %s", o.Direction)
			}
			if o.Action != ActionCopy {
				t.Fatalf("expected COPY action, got %s", o.Action)
			}
		}
	}
	if !found {
		t.Fatalf("expected an accumulation opportunity, got %+v", resp.Opportunities)
	}
}

func TestExitEdgeFadesOppositeOutcome(t *testing.T) {
	now := time.Now()
	tracked := fakeTracked{markets: map[string]linker.TrackedMarket{}}
	prices := fakePrices{mids: map[string]decimal.Decimal{"K": decimal.NewFromFloat(0.5)}}
	d := New(testConfig(), zerolog.Nop(), prices, nil, tracked)

	d.ObserveWhaleFill(WhaleFill{
		Wallet: "0xW", MarketID: "K", Outcome: OutcomeYes, Side: Sell,
		Price: decimal.NewFromFloat(0.5), NotionalUSDC: decimal.NewFromInt(300),
		PeakSharesAfter: decimal.NewFromInt(25000), NetSharesAfter: decimal.NewFromInt(10000),
		Timestamp: now,
	})

	resp := d.Scan(now)
	if len(resp.Opportunities) != 1 {
		t.Fatalf("expected one exit opportunity, got %d", len(resp.Opportunities))
	}
	if resp.Opportunities[0].Direction != OutcomeNo {
		t.Fatalf("expected FADE onto opposite outcome NO, got %s", resp.Opportunities[0].Direction)
	}
	if resp.Opportunities[0].Action != ActionFade {
		t.Fatalf("expected FADE action, got %s", resp.Opportunities[0].Action)
	}
}

func TestScanIsCachedWithinTTL(t *testing.T) {
	now := time.Now()
	tracked := fakeTracked{markets: map[string]linker.TrackedMarket{}}
	prices := fakePrices{mids: map[string]decimal.Decimal{}}
	d := New(testConfig(), zerolog.Nop(), prices, nil, tracked)

	first := d.Scan(now)
	second := d.Scan(now.Add(1 * time.Second))
	if first.At != second.At {
		t.Fatalf("expected cached scan within TTL, got different timestamps")
	}
}
