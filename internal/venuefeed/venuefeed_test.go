package venuefeed

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/market"
	"github.com/web3guy0/predimarket-intel/internal/signaldetector"
)

type recordingSink struct {
	books  []signaldetector.BookEvent
	prices []signaldetector.PriceEvent
	trades []signaldetector.TradeEvent
}

func (s *recordingSink) OnBook(ev signaldetector.BookEvent, now time.Time) {
	s.books = append(s.books, ev)
}
func (s *recordingSink) OnPrice(ev signaldetector.PriceEvent, now time.Time) {
	s.prices = append(s.prices, ev)
}
func (s *recordingSink) OnTrade(ev signaldetector.TradeEvent, now time.Time) {
	s.trades = append(s.trades, ev)
}

func TestDispatchBookEventParsesLevelsAndBest(t *testing.T) {
	sink := &recordingSink{}
	f := New(zerolog.Nop(), "", sink, nil)

	frame := []byte(`[{"event_type":"book","asset_id":"a1","bids":[["0.40","100"],["0.38","50"]],"asks":[["0.42","80"],["0.45","20"]]}]`)
	f.dispatch(frame, time.Now())

	if len(sink.books) != 1 {
		t.Fatalf("expected one book event, got %d", len(sink.books))
	}
	ev := sink.books[0]
	if !ev.BestBid.Equal(decimal.NewFromFloat(0.40)) {
		t.Fatalf("expected best bid 0.40, got %s", ev.BestBid)
	}
	if !ev.BestAsk.Equal(decimal.NewFromFloat(0.42)) {
		t.Fatalf("expected best ask 0.42, got %s", ev.BestAsk)
	}
	if !ev.BidDepth.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected bid depth 150, got %s", ev.BidDepth)
	}
}

func TestDispatchTradeEventParsesSide(t *testing.T) {
	sink := &recordingSink{}
	f := New(zerolog.Nop(), "", sink, nil)

	frame := []byte(`{"event_type":"last_trade_price","asset_id":"a1","price":"0.55","size":"120","side":"SELL"}`)
	f.dispatch(frame, time.Now())

	if len(sink.trades) != 1 {
		t.Fatalf("expected one trade event, got %d", len(sink.trades))
	}
	if sink.trades[0].Side != market.Sell {
		t.Fatalf("expected sell side, got %s", sink.trades[0].Side)
	}
}

func TestDispatchDropsMalformedFrame(t *testing.T) {
	sink := &recordingSink{}
	f := New(zerolog.Nop(), "", sink, nil)

	f.dispatch([]byte(`not json`), time.Now())

	if len(sink.books)+len(sink.prices)+len(sink.trades) != 0 {
		t.Fatalf("expected malformed frame to be dropped silently")
	}
}
