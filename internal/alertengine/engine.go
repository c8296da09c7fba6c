// Package alertengine normalises alerts from every upstream component,
// suppresses duplicates and excess volume, and fans out to the
// configured channels.
package alertengine

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/web3guy0/predimarket-intel/internal/alerttypes"
	"github.com/web3guy0/predimarket-intel/internal/market"
)

// Engine is the Alert Engine's composition root: dedupe window, rate
// bucket and an immutable channel list.
type Engine struct {
	log zerolog.Logger

	dedupe  *dedupeWindow
	limiter *rate.Limiter

	channels []Channel

	statsMu   sync.Mutex
	delivered map[string]int
	dropped   map[string]int
}

// New builds an Engine. channels is fixed at construction time per the
// "channel lists are immutable after construction" design note; ratePerMinute
// is the global leaky-bucket cap (critical alerts always bypass it).
func New(log zerolog.Logger, dedupeWindow time.Duration, ratePerMinute int, channels []Channel) *Engine {
	if ratePerMinute <= 0 {
		ratePerMinute = 60
	}
	limit := rate.Every(time.Minute / time.Duration(ratePerMinute))
	return &Engine{
		log:       log.With().Str("component", "alert_engine").Logger(),
		dedupe:    newDedupeWindow(dedupeWindow),
		limiter:   rate.NewLimiter(limit, ratePerMinute),
		channels:  channels,
		delivered: make(map[string]int),
		dropped:   make(map[string]int),
	}
}

// Emit pushes one well-formed Alert through dedupe, rate limiting and
// channel fan-out. Components never throw into the Alert Engine; this
// is the only entry point.
func (e *Engine) Emit(a alerttypes.Alert, now time.Time) {
	key := dedupeKey(string(a.Source), a.Title, a.Body)
	if !e.dedupe.allow(key, now) {
		e.recordDropped("dedupe")
		return
	}

	if a.Priority != market.PriorityCritical {
		if !e.limiter.AllowN(now, 1) {
			e.recordDropped("rate_limit")
			e.log.Warn().Str("title", a.Title).Msg("⚠️ alert dropped by rate limiter")
			return
		}
	}

	for _, ch := range e.channels {
		if a.Priority < ch.MinPriority() {
			continue
		}
		e.sendIsolated(ch, a)
	}
}

// sendIsolated calls a channel's Send and recovers any panic, so one
// channel's failure never affects sibling channels or drops the alert
// from the others.
func (e *Engine) sendIsolated(ch Channel, a alerttypes.Alert) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Str("channel", ch.Name()).Msg("🛡️ alert channel panicked")
			e.recordDropped(ch.Name())
		}
	}()
	if err := ch.Send(a); err != nil {
		e.log.Error().Err(err).Str("channel", ch.Name()).Msg("🛡️ alert channel delivery failed")
		e.recordDropped(ch.Name())
		return
	}
	e.recordDelivered(ch.Name())
}

func (e *Engine) recordDelivered(channel string) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.delivered[channel]++
}

func (e *Engine) recordDropped(reason string) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	e.dropped[reason]++
}

// Stats returns a snapshot of per-channel delivery counts and
// per-reason drop counts, for the health endpoint.
func (e *Engine) Stats() (delivered, dropped map[string]int) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	delivered = make(map[string]int, len(e.delivered))
	for k, v := range e.delivered {
		delivered[k] = v
	}
	dropped = make(map[string]int, len(e.dropped))
	for k, v := range e.dropped {
		dropped[k] = v
	}
	return delivered, dropped
}

// Close flushes/closes every channel that supports it, part of the
// graceful-shutdown sequence (flush file sinks, close webhook clients).
func (e *Engine) Close() {
	for _, ch := range e.channels {
		if closer, ok := ch.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				e.log.Warn().Err(err).Str("channel", ch.Name()).Msg("error closing alert channel")
			}
		}
	}
}
