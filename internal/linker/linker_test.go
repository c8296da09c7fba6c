package linker

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/web3guy0/predimarket-intel/internal/market"
)

func TestCongressBecameLawOnShutdownMarketFiresDownwardHighConfidenceAlert(t *testing.T) {
	var got *LinkedAlert
	l := New(zerolog.Nop(), nil, time.Hour, func(a LinkedAlert) { got = &a })

	m := market.Market{AssetID: "shutdown-2025", Question: "Government shutdown before 2025-12-01?"}
	l.TrackMarket(m, TruthMap{
		Category:     CategoryGovernmentShutdown,
		BillPatterns: []string{"continuing resolution"},
		Keywords:     []string{"shutdown", "funding"},
	})

	ev := CongressEvent{
		BillID:       "HR-1234",
		Title:        "Continuing Resolution to Avert Government Shutdown",
		ActionType:   "BecameLaw",
		Significance: SignificanceHigh,
		At:           time.Now(),
	}
	l.OnCongress(ev, ev.At)

	if got == nil {
		t.Fatalf("expected a linked alert to fire")
	}
	if len(got.AffectedMarkets) != 1 {
		t.Fatalf("expected exactly one affected market, got %d", len(got.AffectedMarkets))
	}
	am := got.AffectedMarkets[0]
	if am.AssetID != "shutdown-2025" || am.Direction != DirectionDown {
		t.Fatalf("expected a downward direction on the shutdown market, got %+v", am)
	}
	if got.Confidence < market.ConfidenceHigh {
		t.Fatalf("expected at least high confidence, got %v", got.Confidence)
	}
}

func TestCongressEventIgnoresUnrelatedCategories(t *testing.T) {
	fired := false
	l := New(zerolog.Nop(), nil, time.Hour, func(LinkedAlert) { fired = true })

	m := market.Market{AssetID: "superbowl", Question: "Will the Chiefs win the Super Bowl?"}
	l.TrackMarket(m, TruthMap{Category: CategorySportsOutcome, Keywords: []string{"chiefs"}})

	l.OnCongress(CongressEvent{
		Title:        "Continuing Resolution to Avert Government Shutdown",
		ActionType:   "BecameLaw",
		Significance: SignificanceHigh,
		At:           time.Now(),
	}, time.Now())

	if fired {
		t.Fatalf("expected no alert for a market outside the congress-relevant categories")
	}
}

func TestWatchlistExclusiveFiltersOutUnwatchedMarkets(t *testing.T) {
	var got *LinkedAlert
	l := New(zerolog.Nop(), nil, time.Hour, func(a LinkedAlert) { got = &a })
	l.SetWatchlist(NewWatchlist([]string{"watched-1"}, true))

	l.TrackMarket(market.Market{AssetID: "watched-1", Question: "Government shutdown before 2025-12-01?"},
		TruthMap{Category: CategoryGovernmentShutdown, Keywords: []string{"shutdown"}})
	l.TrackMarket(market.Market{AssetID: "unwatched-1", Question: "Government shutdown before 2026-06-01?"},
		TruthMap{Category: CategoryGovernmentShutdown, Keywords: []string{"shutdown"}})

	l.OnCongress(CongressEvent{
		Title:        "Shutdown averted by new funding bill",
		ActionType:   "BecameLaw",
		Significance: SignificanceMedium,
		At:           time.Now(),
	}, time.Now())

	if got == nil {
		t.Fatalf("expected an alert for the watched market")
	}
	for _, am := range got.AffectedMarkets {
		if am.AssetID == "unwatched-1" {
			t.Fatalf("exclusive watchlist should have filtered out the unwatched market")
		}
	}
	if len(got.AffectedMarkets) != 1 || got.AffectedMarkets[0].AssetID != "watched-1" {
		t.Fatalf("expected only the watched market to survive, got %+v", got.AffectedMarkets)
	}
}
