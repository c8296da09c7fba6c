package alertengine

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/web3guy0/predimarket-intel/internal/alerttypes"
	"github.com/web3guy0/predimarket-intel/internal/market"
)

type recordingChannel struct {
	mu          sync.Mutex
	name        string
	minPriority market.Priority
	received    []alerttypes.Alert
	failNext    bool
}

func (c *recordingChannel) Name() string                 { return c.name }
func (c *recordingChannel) MinPriority() market.Priority { return c.minPriority }
func (c *recordingChannel) Send(a alerttypes.Alert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext {
		c.failNext = false
		return errTest
	}
	c.received = append(c.received, a)
	return nil
}
func (c *recordingChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

var errTest = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestEmitDeduplicatesWithinWindow(t *testing.T) {
	ch := &recordingChannel{name: "test"}
	e := New(zerolog.Nop(), time.Minute, 60, []Channel{ch})

	now := time.Now()
	a := alerttypes.Alert{Title: "price spike", Body: "asset moved", Source: alerttypes.SourceSignal, Priority: market.PriorityMedium}
	e.Emit(a, now)
	e.Emit(a, now.Add(time.Second))
	if ch.count() != 1 {
		t.Fatalf("expected dedupe to suppress the repeat, got %d deliveries", ch.count())
	}

	e.Emit(a, now.Add(2*time.Minute))
	if ch.count() != 2 {
		t.Fatalf("expected the alert to fire again once the window passed, got %d", ch.count())
	}
}

func TestEmitRespectsPerChannelMinPriority(t *testing.T) {
	ch := &recordingChannel{name: "high-only", minPriority: market.PriorityHigh}
	e := New(zerolog.Nop(), time.Minute, 60, []Channel{ch})

	now := time.Now()
	e.Emit(alerttypes.Alert{Title: "low prio", Body: "b1", Priority: market.PriorityLow}, now)
	if ch.count() != 0 {
		t.Fatalf("expected low-priority alert to be skipped by a high-min-priority channel")
	}
	e.Emit(alerttypes.Alert{Title: "high prio", Body: "b2", Priority: market.PriorityHigh}, now)
	if ch.count() != 1 {
		t.Fatalf("expected high-priority alert to pass through")
	}
}

func TestEmitIsolatesChannelFailure(t *testing.T) {
	failing := &recordingChannel{name: "failing", failNext: true}
	healthy := &recordingChannel{name: "healthy"}
	e := New(zerolog.Nop(), time.Minute, 60, []Channel{failing, healthy})

	e.Emit(alerttypes.Alert{Title: "t", Body: "b", Priority: market.PriorityLow}, time.Now())
	if healthy.count() != 1 {
		t.Fatalf("expected the healthy channel to still receive the alert despite the other failing")
	}
	_, dropped := e.Stats()
	if dropped["failing"] != 1 {
		t.Fatalf("expected failing channel's drop to be recorded, got %+v", dropped)
	}
}

func TestEmitEnforcesRateLimitExceptCritical(t *testing.T) {
	ch := &recordingChannel{name: "rate"}
	e := New(zerolog.Nop(), time.Millisecond, 1, []Channel{ch})

	now := time.Now()
	for i := 0; i < 5; i++ {
		e.Emit(alerttypes.Alert{
			Title: "distinct", Body: time.Duration(i).String(), Priority: market.PriorityLow,
		}, now)
	}
	if ch.count() > 2 {
		t.Fatalf("expected the rate limiter to cap non-critical throughput, got %d deliveries", ch.count())
	}

	critical := ch.count()
	e.Emit(alerttypes.Alert{Title: "urgent", Body: "always", Priority: market.PriorityCritical}, now)
	if ch.count() != critical+1 {
		t.Fatalf("expected a critical alert to always pass the rate limiter")
	}
}
