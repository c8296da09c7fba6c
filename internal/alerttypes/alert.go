// Package alerttypes defines the Alert Engine's common output shape and
// the source tag every emitter stamps onto it. It lives in its own
// package so Signal Detector, Linker, Whale Tracker, Edge Detector and
// Arbitrage Detector can all construct alerts without importing each
// other.
package alerttypes

import (
	"time"

	"github.com/web3guy0/predimarket-intel/internal/market"
)

// Source identifies which component produced an alert.
type Source string

const (
	SourceSignal    Source = "signal"
	SourceCongress  Source = "congress"
	SourceWeather   Source = "weather"
	SourceFed       Source = "fed"
	SourceSports    Source = "sports"
	SourceLinked    Source = "linked"
	SourceWhaleEdge Source = "whale_edge"
	SourceTruthEdge Source = "truth_edge"
	SourceArbitrage Source = "arbitrage"
)

// Alert is the single output shape produced by every component and
// consumed only by the Alert Engine.
type Alert struct {
	ID        string
	Timestamp time.Time
	Priority  market.Priority
	Title     string
	Body      string
	Source    Source
	Metadata  map[string]any
}
