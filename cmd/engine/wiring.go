package main

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/alertengine"
	"github.com/web3guy0/predimarket-intel/internal/archive"
	"github.com/web3guy0/predimarket-intel/internal/arbxdetector"
	"github.com/web3guy0/predimarket-intel/internal/config"
	"github.com/web3guy0/predimarket-intel/internal/edgedetector"
	"github.com/web3guy0/predimarket-intel/internal/health"
	"github.com/web3guy0/predimarket-intel/internal/linker"
	"github.com/web3guy0/predimarket-intel/internal/market"
	"github.com/web3guy0/predimarket-intel/internal/marketcatalog"
	"github.com/web3guy0/predimarket-intel/internal/signaldetector"
	"github.com/web3guy0/predimarket-intel/internal/venuefeed"
	"github.com/web3guy0/predimarket-intel/internal/whaletracker"
)

// copySuitabilityFloor is the watchlist-style threshold above which a
// whale is considered copy-suitable: scoring at least 70/100.
var copySuitabilityFloor = decimal.NewFromInt(70)

// engine is the composition root: every component is constructed here
// and wired together exclusively through interfaces, never concrete
// cross-package references, so no two internal packages import each
// other.
type engine struct {
	cfg *config.Config
	log zerolog.Logger

	health  *health.Monitor
	catalog *marketcatalog.Catalog
	archive *archive.Archive // nil if disabled

	signals *signaldetector.Detector
	link    *linker.Linker
	whales  *whaletracker.Tracker
	edges   *edgedetector.Detector
	arbs    *arbxdetector.Detector
	alerts  *alertengine.Engine

	feed *venuefeed.Feed
}

// buildEngine wires every component. Archive is opened only if
// cfg.DatabasePath is non-empty; a failure to open it is logged and
// archiving is disabled rather than failing startup, since the archive
// is a sink, not a source of truth.
func buildEngine(cfg *config.Config, log zerolog.Logger) *engine {
	e := &engine{cfg: cfg, log: log}

	e.health = health.New()
	e.catalog = marketcatalog.New()

	if cfg.DatabasePath != "" {
		a, err := archive.New(cfg.DatabasePath)
		if err != nil {
			log.Error().Err(err).Msg("archive disabled: failed to open")
		} else {
			e.archive = a
		}
	}

	e.alerts = buildAlertEngine(cfg, log)
	e.signals = signaldetector.New(cfg.Signal, log, e.onSignal)
	e.link = linker.New(log, e.catalog, cfg.LinkerRefresh, e.onLinkedAlert)
	e.whales = whaletracker.New(cfg.WhaleUniverse, log, e.onClassifiedTrade)
	e.edges = edgedetector.New(*cfg, log, e.signals, e.signals, e.link)
	e.arbs = arbxdetector.New(*cfg, log, e.catalog, e.signals, e.onArbOpportunity)
	e.feed = venuefeed.New(log, cfg.VenueWSURL, &fanoutSink{e: e}, e.health)

	return e
}

func buildAlertEngine(cfg *config.Config, log zerolog.Logger) *alertengine.Engine {
	channels := []alertengine.Channel{
		alertengine.NewConsoleChannel(log, market.PriorityLow),
	}

	if cfg.AlertFilePath != "" {
		if ch, err := alertengine.NewFileChannel(cfg.AlertFilePath, market.PriorityLow); err != nil {
			log.Error().Err(err).Msg("file alert channel disabled: failed to open")
		} else {
			channels = append(channels, ch)
		}
	}

	if cfg.WebhookURL != "" {
		channels = append(channels, alertengine.NewWebhookChannel(cfg.WebhookURL, market.PriorityMedium))
	}

	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		if ch, err := alertengine.NewTelegramChannel(cfg.TelegramToken, cfg.TelegramChatID, market.PriorityHigh); err != nil {
			log.Error().Err(err).Msg("telegram alert channel disabled: failed to initialize")
		} else {
			channels = append(channels, ch)
		}
	}

	return alertengine.New(log, cfg.AlertDedupeWindow, cfg.AlertRatePerMinute, channels)
}

// fanoutSink implements venuefeed.Sink, routing every venue event to
// the Signal Detector; book events also register the market in the
// catalogue, and trades also feed the Edge Detector's activity counters
// and are archived.
type fanoutSink struct {
	e *engine
}

func (s *fanoutSink) OnBook(ev signaldetector.BookEvent, now time.Time) {
	s.e.catalog.Observe(market.Market{AssetID: ev.AssetID})
	s.e.signals.OnBook(ev, now)
}

func (s *fanoutSink) OnPrice(ev signaldetector.PriceEvent, now time.Time) {
	s.e.signals.OnPrice(ev, now)
}

func (s *fanoutSink) OnTrade(ev signaldetector.TradeEvent, now time.Time) {
	s.e.signals.OnTrade(ev, now)

	notional := ev.Price.Mul(ev.Size)
	s.e.edges.ObserveTrade(ev.AssetID, notional, now)

	if s.e.archive != nil {
		trade := &archive.Trade{
			TradeID:   archive.TradeID(ev.AssetID, "venue", now, 0),
			Venue:     "polymarket",
			MarketID:  ev.AssetID,
			Side:      string(ev.Side),
			PriceCents: ev.Price.Mul(decimal.NewFromInt(100)).IntPart(),
			Size:      ev.Size,
			NotionalCents: notional.Mul(decimal.NewFromInt(100)).IntPart(),
			Timestamp: now,
		}
		if err := s.e.archive.AppendTrade(trade); err != nil {
			s.e.log.Warn().Err(err).Msg("failed to archive trade")
		}
	}
}

// onSignal is the Signal Detector's emission callback.
func (e *engine) onSignal(sig signaldetector.Signal) {
	e.alerts.Emit(alertengine.FormatSignal(sig), sig.At)
}

// onLinkedAlert fans a Truth-Market Linker alert out to the Alert
// Engine and hands it to the Edge Detector for truth-event evaluation.
func (e *engine) onLinkedAlert(alert linker.LinkedAlert) {
	e.alerts.Emit(alertengine.FormatLinked(alert), alert.At)
	e.edges.OnLinkedAlert(alert)
}

// onClassifiedTrade converts a whale-tracker classification into the
// Edge Detector's WhaleFill shape, attaching ledger and universe
// context the Edge Detector cannot reach on its own, per the no-
// cyclic-reference design.
func (e *engine) onClassifiedTrade(ct whaletracker.ClassifiedTrade) {
	trade := ct.Trade
	whale, _ := e.whales.Universe.Whale(trade.Wallet)
	position := e.whales.Ledger.Position(trade.Wallet, trade.MarketID, trade.Outcome)

	fill := edgedetector.WhaleFill{
		Wallet:          trade.Wallet,
		MarketID:        trade.MarketID,
		Outcome:         edgedetector.Outcome(trade.Outcome),
		Side:            edgedetector.Side(trade.Side),
		Price:           trade.Price,
		Size:            trade.Size,
		NotionalUSDC:    trade.NotionalUSDC,
		Timestamp:       trade.Timestamp,
		Tier:            edgedetector.Tier(whale.Tier),
		CopySuitable:    whale.CopySuitability.GreaterThanOrEqual(copySuitabilityFloor),
		PeakSharesAfter: position.PeakShares,
		NetSharesAfter:  position.NetShares,
	}
	e.edges.ObserveWhaleFill(fill)
}

func (e *engine) onArbOpportunity(opp arbxdetector.Opportunity) {
	pairSummary := opp.Pair.A + "/" + opp.Pair.B
	alert := alertengine.FormatArbitrage(pairSummary, string(opp.Pair.Relationship), opp.ExpectedEdge.InexactFloat64(), opp.Urgency, opp.At)
	e.alerts.Emit(alert, opp.At)
}

// scanEdges runs the Edge Detector's cached scan and fans every
// returned opportunity out to the Alert Engine. Driven on a ticker by
// the run loop since the Edge Detector itself exposes only a pull
// surface.
func (e *engine) scanEdges(now time.Time) {
	resp := e.edges.Scan(now)
	for _, opp := range resp.Opportunities {
		e.alerts.Emit(alertengine.FormatEdgeOpportunity(opp), now)
	}
}
