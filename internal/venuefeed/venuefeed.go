// Package venuefeed is a reference adapter from the venue's WebSocket
// wire format to the book/price/trade contract the Signal Detector
// consumes. It is not the contract itself: the detector depends only on
// the small Sink interface below, never on this package.
package venuefeed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/health"
	"github.com/web3guy0/predimarket-intel/internal/market"
	"github.com/web3guy0/predimarket-intel/internal/signaldetector"
)

const (
	reconnectDelay = 5 * time.Second
	pingInterval   = 30 * time.Second
)

// Sink is the contract the Signal Detector exposes; the feed never
// depends on the concrete detector type.
type Sink interface {
	OnBook(ev signaldetector.BookEvent, now time.Time)
	OnPrice(ev signaldetector.PriceEvent, now time.Time)
	OnTrade(ev signaldetector.TradeEvent, now time.Time)
}

// wireMessage mirrors the venue's book/price_change/last_trade_price
// event envelope.
type wireMessage struct {
	EventType string          `json:"event_type"`
	AssetID   string          `json:"asset_id"`
	Price     string          `json:"price"`
	Side      string          `json:"side"`
	Size      string          `json:"size"`
	Bids      [][]interface{} `json:"bids"`
	Asks      [][]interface{} `json:"asks"`
}

// Feed maintains a single WebSocket connection to the venue and pushes
// decoded events into a Sink, reconnecting on any read failure.
type Feed struct {
	log     zerolog.Logger
	url     string
	sink    Sink
	health  *health.Monitor
	source  string

	mu      sync.RWMutex
	conn    *websocket.Conn
	running bool
	stopCh  chan struct{}
}

// New builds a Feed. health may be nil if connectivity reporting is
// not needed (e.g. in tests).
func New(log zerolog.Logger, url string, sink Sink, h *health.Monitor) *Feed {
	return &Feed{
		log:    log.With().Str("component", "venuefeed").Logger(),
		url:    url,
		sink:   sink,
		health: h,
		source: "venue",
		stopCh: make(chan struct{}),
	}
}

// Start connects and begins processing in the background.
func (f *Feed) Start() {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return
	}
	f.running = true
	f.mu.Unlock()

	go f.connectionLoop()
	f.log.Info().Msg("📡 venue feed started")
}

// Stop closes the connection and exits the reconnect loop.
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return
	}
	f.running = false
	close(f.stopCh)
	if f.conn != nil {
		f.conn.Close()
	}
}

func (f *Feed) connectionLoop() {
	for {
		select {
		case <-f.stopCh:
			return
		default:
		}

		if err := f.connect(); err != nil {
			f.log.Error().Err(err).Msg("venue feed connection failed, retrying")
			if f.health != nil {
				f.health.MarkDisconnected(f.source, err, time.Now())
			}
			time.Sleep(reconnectDelay)
			continue
		}

		f.readLoop()
		time.Sleep(reconnectDelay)
	}
}

func (f *Feed) connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	if f.health != nil {
		f.health.MarkConnected(f.source, time.Now())
	}
	f.log.Info().Msg("🔌 venue feed connected")

	go f.pingLoop()
	return nil
}

func (f *Feed) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-f.stopCh:
			return
		case <-ticker.C:
			f.mu.RLock()
			conn := f.conn
			f.mu.RUnlock()
			if conn != nil {
				conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

func (f *Feed) readLoop() {
	for {
		select {
		case <-f.stopCh:
			return
		default:
		}

		f.mu.RLock()
		conn := f.conn
		f.mu.RUnlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			f.log.Warn().Err(err).Msg("venue feed read error")
			if f.health != nil {
				f.health.MarkDisconnected(f.source, err, time.Now())
			}
			return
		}

		f.dispatch(message, time.Now())
	}
}

// dispatch decodes one raw frame and feeds it to the sink. A frame that
// fails to parse is logged at debug level and dropped, never fed to the
// sink malformed; no count of dropped frames is kept.
func (f *Feed) dispatch(data []byte, now time.Time) {
	var msgs []wireMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		var single wireMessage
		if err := json.Unmarshal(data, &single); err != nil {
			f.log.Debug().Err(err).Msg("dropping malformed venue frame")
			return
		}
		msgs = []wireMessage{single}
	}

	for _, msg := range msgs {
		f.handle(msg, now)
	}
	if f.health != nil {
		f.health.MarkUpdate(f.source, now)
	}
}

func (f *Feed) handle(msg wireMessage, now time.Time) {
	switch msg.EventType {
	case "book":
		f.handleBook(msg, now)
	case "price_change":
		f.handlePrice(msg, now)
	case "last_trade_price":
		f.handleTrade(msg, now)
	}
}

func parseLevels(raw [][]interface{}) []signaldetector.Level {
	levels := make([]signaldetector.Level, 0, len(raw))
	for _, entry := range raw {
		if len(entry) < 2 {
			continue
		}
		price, ok1 := entry[0].(string)
		size, ok2 := entry[1].(string)
		if !ok1 || !ok2 {
			continue
		}
		p, err1 := decimal.NewFromString(price)
		s, err2 := decimal.NewFromString(size)
		if err1 != nil || err2 != nil {
			continue
		}
		levels = append(levels, signaldetector.Level{Price: p, Size: s})
	}
	return levels
}

func sumSize(levels []signaldetector.Level) decimal.Decimal {
	total := decimal.Zero
	for _, l := range levels {
		total = total.Add(l.Size)
	}
	return total
}

func bestBid(levels []signaldetector.Level) decimal.Decimal {
	best := decimal.Zero
	for _, l := range levels {
		if l.Price.GreaterThan(best) {
			best = l.Price
		}
	}
	return best
}

func bestAsk(levels []signaldetector.Level) decimal.Decimal {
	var best decimal.Decimal
	set := false
	for _, l := range levels {
		if !set || l.Price.LessThan(best) {
			best = l.Price
			set = true
		}
	}
	return best
}

func (f *Feed) handleBook(msg wireMessage, now time.Time) {
	bids := parseLevels(msg.Bids)
	asks := parseLevels(msg.Asks)

	ev := signaldetector.BookEvent{
		AssetID:  msg.AssetID,
		Bids:     bids,
		Asks:     asks,
		BestBid:  bestBid(bids),
		BestAsk:  bestAsk(asks),
		BidDepth: sumSize(bids),
		AskDepth: sumSize(asks),
	}
	f.sink.OnBook(ev, now)
}

func (f *Feed) handlePrice(msg wireMessage, now time.Time) {
	price, err := decimal.NewFromString(msg.Price)
	if err != nil {
		return
	}
	half := decimal.NewFromFloat(0.005)
	f.sink.OnPrice(signaldetector.PriceEvent{
		AssetID: msg.AssetID,
		BestBid: price.Sub(half),
		BestAsk: price.Add(half),
	}, now)
}

func (f *Feed) handleTrade(msg wireMessage, now time.Time) {
	price, err := decimal.NewFromString(msg.Price)
	if err != nil {
		return
	}
	size, err := decimal.NewFromString(msg.Size)
	if err != nil {
		size = decimal.Zero
	}
	side := market.Buy
	if msg.Side == "SELL" || msg.Side == "sell" {
		side = market.Sell
	}
	f.sink.OnTrade(signaldetector.TradeEvent{
		AssetID:   msg.AssetID,
		Price:     price,
		Size:      size,
		Side:      side,
		Timestamp: now,
	}, now)
}
