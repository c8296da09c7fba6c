package marketcatalog

import (
	"testing"

	"github.com/web3guy0/predimarket-intel/internal/market"
)

func TestObserveIsIdempotentPerAsset(t *testing.T) {
	c := New()
	c.Observe(market.Market{AssetID: "a1", Question: "first"})
	c.Observe(market.Market{AssetID: "a1", Question: "second"})

	got := c.ActiveMarkets()
	if len(got) != 1 {
		t.Fatalf("expected one market, got %d", len(got))
	}
	if got[0].Question != "first" {
		t.Fatalf("expected first observation to stick, got %q", got[0].Question)
	}
}

func TestSeedOverwritesExisting(t *testing.T) {
	c := New()
	c.Observe(market.Market{AssetID: "a1", Question: "stale"})
	c.Seed([]market.Market{{AssetID: "a1", Question: "fresh"}})

	got := c.ActiveMarkets()
	if len(got) != 1 || got[0].Question != "fresh" {
		t.Fatalf("expected seed to overwrite, got %+v", got)
	}
}
