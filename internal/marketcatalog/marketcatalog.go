// Package marketcatalog is the in-process registry of known tradable
// markets. It is the external collaborator the Linker and the Arbitrage
// Detector poll for ActiveMarkets(); the venue's own market-listing REST
// endpoint is out of scope. Seed loads a set of markets in bulk; the
// engine wiring does not call it and fills the catalogue through Observe
// as book events arrive.
package marketcatalog

import (
	"sync"

	"github.com/web3guy0/predimarket-intel/internal/market"
)

// Catalog is a mutex-protected single-writer map of known markets,
// keyed by asset ID.
type Catalog struct {
	mu      sync.RWMutex
	markets map[string]market.Market
}

// New builds an empty Catalog.
func New() *Catalog {
	return &Catalog{markets: make(map[string]market.Market)}
}

// Seed loads an initial set of markets, overwriting any with the same
// asset ID.
func (c *Catalog) Seed(markets []market.Market) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range markets {
		c.markets[m.AssetID] = m
	}
}

// Observe registers a market the first time it is seen; subsequent
// calls for the same asset ID are no-ops, since question/slug text does
// not change after listing.
func (c *Catalog) Observe(m market.Market) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.markets[m.AssetID]; ok {
		return
	}
	c.markets[m.AssetID] = m
}

// ActiveMarkets returns a shallow clone of the catalogue, satisfying
// the MarketUniverse collaborator interface used by the Linker and the
// Arbitrage Detector.
func (c *Catalog) ActiveMarkets() []market.Market {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]market.Market, 0, len(c.markets))
	for _, m := range c.markets {
		out = append(out, m)
	}
	return out
}
