package arbxdetector

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/config"
	"github.com/web3guy0/predimarket-intel/internal/market"
)

type fakeUniverse struct {
	markets []market.Market
}

func (u fakeUniverse) ActiveMarkets() []market.Market { return u.markets }

type fakePrices struct {
	mids map[string]decimal.Decimal
}

func (p fakePrices) Mid(assetID string) (decimal.Decimal, bool) {
	v, ok := p.mids[assetID]
	return v, ok
}

func testConfig() config.Config {
	return config.Config{
		ArbMinEdge:      decimal.NewFromFloat(0.02),
		ArbCheckEvery:   time.Hour, // loops not exercised directly in tests
		ArbDedupeWindow: 5 * time.Minute,
	}
}

// TestMutuallyExclusivePairFiresOnOverroundSum reproduces the worked
// example: "Team A wins" at 0.60 and "Team B wins" at 0.55 in the same
// contest sum to 1.15, an overround of 0.15 past the tolerance, so
// buying NO on both legs locks in the edge.
func TestMutuallyExclusivePairFiresOnOverroundSum(t *testing.T) {
	m1 := market.Market{AssetID: "m1", Question: "Team A wins?", Slug: "game1-teama"}
	m2 := market.Market{AssetID: "m2", Question: "Team B wins?", Slug: "game1-teamb"}

	universe := fakeUniverse{markets: []market.Market{m1, m2}}
	prices := fakePrices{mids: map[string]decimal.Decimal{
		"m1": decimal.NewFromFloat(0.60),
		"m2": decimal.NewFromFloat(0.55),
	}}

	var got []Opportunity
	d := New(testConfig(), zerolog.Nop(), universe, prices, func(o Opportunity) {
		got = append(got, o)
	})
	d.refreshPairs()
	d.scan(time.Now())

	if len(got) != 1 {
		t.Fatalf("expected exactly one opportunity, got %d", len(got))
	}
	o := got[0]
	if o.Pair.Relationship != RelationshipMutuallyExclusive {
		t.Fatalf("expected mutually_exclusive relationship, got %s", o.Pair.Relationship)
	}
	if !o.ExpectedEdge.Equal(decimal.NewFromFloat(0.15)) {
		t.Fatalf("expected edge 0.15, got %s", o.ExpectedEdge)
	}
	if o.Urgency != "immediate" {
		t.Fatalf("expected immediate urgency, got %s", o.Urgency)
	}
	if len(o.Markets) != 2 || o.Markets[0].Action != "buy_no" || o.Markets[1].Action != "buy_no" {
		t.Fatalf("expected both legs buy_no, got %+v", o.Markets)
	}
}

// TestDedupeSuppressesRepeatWithinWindow ensures the same pair+relationship
// does not emit twice inside the dedupe window even if still violated.
func TestDedupeSuppressesRepeatWithinWindow(t *testing.T) {
	m1 := market.Market{AssetID: "m1", Question: "Team A wins?", Slug: "game1-teama"}
	m2 := market.Market{AssetID: "m2", Question: "Team B wins?", Slug: "game1-teamb"}

	universe := fakeUniverse{markets: []market.Market{m1, m2}}
	prices := fakePrices{mids: map[string]decimal.Decimal{
		"m1": decimal.NewFromFloat(0.60),
		"m2": decimal.NewFromFloat(0.55),
	}}

	count := 0
	d := New(testConfig(), zerolog.Nop(), universe, prices, func(o Opportunity) {
		count++
	})
	d.refreshPairs()

	now := time.Now()
	d.scan(now)
	d.scan(now.Add(time.Minute))

	if count != 1 {
		t.Fatalf("expected dedupe to suppress the second scan, got %d emissions", count)
	}
}

// TestSubsetPairFiresWhenStricterPricedAboveLooser checks the "by N"
// threshold heuristic: a stricter implication priced above its looser
// counterpart beyond tolerance is a subset-arbitrage opportunity.
func TestSubsetPairFiresWhenStricterPricedAboveLooser(t *testing.T) {
	strict := market.Market{AssetID: "s", Question: "Team wins by 20", Slug: "game2-margin"}
	loose := market.Market{AssetID: "l", Question: "Team wins by 10", Slug: "game2-margin"}

	universe := fakeUniverse{markets: []market.Market{strict, loose}}
	prices := fakePrices{mids: map[string]decimal.Decimal{
		"s": decimal.NewFromFloat(0.50),
		"l": decimal.NewFromFloat(0.40),
	}}

	var got []Opportunity
	d := New(testConfig(), zerolog.Nop(), universe, prices, func(o Opportunity) {
		got = append(got, o)
	})
	d.refreshPairs()
	d.scan(time.Now())

	if len(got) != 1 {
		t.Fatalf("expected one subset opportunity, got %d", len(got))
	}
	if got[0].Pair.Relationship != RelationshipSubset {
		t.Fatalf("expected subset relationship, got %s", got[0].Pair.Relationship)
	}
}

// TestNoOpportunityWithinTolerance checks that a sum within the
// tolerance band does not emit.
func TestNoOpportunityWithinTolerance(t *testing.T) {
	m1 := market.Market{AssetID: "m1", Question: "Team A wins?", Slug: "game3-teama"}
	m2 := market.Market{AssetID: "m2", Question: "Team B wins?", Slug: "game3-teamb"}

	universe := fakeUniverse{markets: []market.Market{m1, m2}}
	prices := fakePrices{mids: map[string]decimal.Decimal{
		"m1": decimal.NewFromFloat(0.50),
		"m2": decimal.NewFromFloat(0.49),
	}}

	called := false
	d := New(testConfig(), zerolog.Nop(), universe, prices, func(o Opportunity) {
		called = true
	})
	d.refreshPairs()
	d.scan(time.Now())

	if called {
		t.Fatalf("expected no opportunity within tolerance")
	}
}
