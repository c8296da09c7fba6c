// Package tradestore is the Whale Tracker's append-only trade log and
// windowed WalletStats aggregator.
package tradestore

import (
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/web3guy0/predimarket-intel/internal/whaletracker/whaletypes"
)

// Store is the single-writer owner of the observed-trade log.
type Store struct {
	mu     sync.RWMutex
	trades []whaletypes.WhaleTrade

	byWallet map[string][]int // index into trades, append-only so stable
	byMarket map[string][]int
}

// New builds an empty Store.
func New() *Store {
	return &Store{
		byWallet: make(map[string][]int),
		byMarket: make(map[string][]int),
	}
}

// NormalizeAddress checksums a wallet address the way go-ethereum does
// for EVM (Polygon) addresses; malformed addresses are rejected rather
// than silently accepted.
func NormalizeAddress(addr string) (string, bool) {
	if !common.IsHexAddress(addr) {
		return "", false
	}
	return common.HexToAddress(addr).Hex(), true
}

// Append records a whale trade. Validation failures (malformed address,
// non-positive size/price) are dropped by the caller before this point
// per the error-handling design; Append itself assumes well-formed input.
func (s *Store) Append(t whaletypes.WhaleTrade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := len(s.trades)
	s.trades = append(s.trades, t)
	s.byWallet[t.Wallet] = append(s.byWallet[t.Wallet], idx)
	s.byMarket[t.MarketID] = append(s.byMarket[t.MarketID], idx)
}

// TradesByWallet returns trades for a wallet within [since, now], oldest
// first.
func (s *Store) TradesByWallet(wallet string, since time.Time) []whaletypes.WhaleTrade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idxs := s.byWallet[wallet]
	out := make([]whaletypes.WhaleTrade, 0, len(idxs))
	for _, i := range idxs {
		if !s.trades[i].Timestamp.Before(since) {
			out = append(out, s.trades[i])
		}
	}
	return out
}

// TradesByMarket returns trades for a market within [since, now].
func (s *Store) TradesByMarket(marketID string, since time.Time) []whaletypes.WhaleTrade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idxs := s.byMarket[marketID]
	out := make([]whaletypes.WhaleTrade, 0, len(idxs))
	for _, i := range idxs {
		if !s.trades[i].Timestamp.Before(since) {
			out = append(out, s.trades[i])
		}
	}
	return out
}

// AllWallets returns every wallet that has at least one recorded trade.
func (s *Store) AllWallets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.byWallet))
	for w := range s.byWallet {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// WindowStats computes WalletStats for a wallet over the trailing window.
// See stats.go for the early_entry_score and pnl_volatility formulas,
// which are this repo's own documented contract (the source referenced
// but never supplied one).
func (s *Store) WindowStats(wallet string, window time.Duration, now time.Time) whaletypes.WalletStats {
	trades := s.TradesByWallet(wallet, now.Add(-window))
	return computeWalletStats(wallet, window, trades)
}
