package alertengine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/web3guy0/predimarket-intel/internal/alerttypes"
	"github.com/web3guy0/predimarket-intel/internal/edgedetector"
	"github.com/web3guy0/predimarket-intel/internal/linker"
	"github.com/web3guy0/predimarket-intel/internal/market"
	"github.com/web3guy0/predimarket-intel/internal/signaldetector"
)

// FormatSignal normalises a Signal Detector signal into an Alert.
// Priority maps from signal strength using the shared Confidence→Priority
// ordering.
func FormatSignal(sig signaldetector.Signal) alerttypes.Alert {
	priority := priorityFromConfidence(sig.Strength)
	title := fmt.Sprintf("%s on %s", sig.Type, sig.AssetID)
	body := fmt.Sprintf("%s %s %s%% (%s)", sig.AssetID, sig.Type, sig.ChangePercent.StringFixed(2), sig.Detail)
	return alerttypes.Alert{
		ID:        uuid.NewString(),
		Timestamp: sig.At,
		Priority:  priority,
		Title:     title,
		Body:      body,
		Source:    alerttypes.SourceSignal,
		Metadata: map[string]any{
			"asset_id":  sig.AssetID,
			"type":      string(sig.Type),
			"direction": string(sig.Direction),
		},
	}
}

// FormatLinked normalises a Truth-Market Linker output into an Alert.
func FormatLinked(alert linker.LinkedAlert) alerttypes.Alert {
	priority := priorityFromSignificance(alert.Urgency)
	marketIDs := make([]string, 0, len(alert.AffectedMarkets))
	for _, am := range alert.AffectedMarkets {
		marketIDs = append(marketIDs, am.AssetID)
	}
	return alerttypes.Alert{
		ID:        uuid.NewString(),
		Timestamp: alert.At,
		Priority:  priority,
		Title:     fmt.Sprintf("%s affects %d market(s)", alert.EventSource, len(alert.AffectedMarkets)),
		Body:      alert.EventSummary,
		Source:    alerttypes.SourceLinked,
		Metadata: map[string]any{
			"markets":    marketIDs,
			"confidence": alert.Confidence.String(),
		},
	}
}

// FormatEdgeOpportunity normalises an Edge Detector opportunity into an
// Alert. Truth-event opportunities are tagged SourceTruthEdge; whale
// patterns are tagged SourceWhaleEdge.
func FormatEdgeOpportunity(opp edgedetector.Opportunity) alerttypes.Alert {
	source := alerttypes.SourceWhaleEdge
	if opp.SignalType == edgedetector.SignalTruthEvent {
		source = alerttypes.SourceTruthEdge
	}
	priority := priorityFromEdgeConfidence(opp.Confidence)
	title := fmt.Sprintf("%s edge on %s: %s", opp.SignalType, opp.MarketID, opp.Action)
	body := fmt.Sprintf("%s direction=%s magnitude=%s urgency=%s — %s",
		opp.MarketID, opp.Direction, opp.Magnitude.StringFixed(3), opp.Urgency, opp.Summary)
	return alerttypes.Alert{
		ID:        uuid.NewString(),
		Timestamp: opp.At,
		Priority:  priority,
		Title:     title,
		Body:      body,
		Source:    source,
		Metadata: map[string]any{
			"market_id":   opp.MarketID,
			"signal_type": string(opp.SignalType),
			"action":      string(opp.Action),
			"urgency":     string(opp.Urgency),
		},
	}
}

// FormatArbitrage normalises an arbitrage opportunity into an Alert. It
// takes plain fields rather than an arbxdetector type so this package
// never needs to import that sibling.
func FormatArbitrage(pairSummary string, relationship string, edge float64, urgency string, at time.Time) alerttypes.Alert {
	priority := market.PriorityHigh
	if urgency == "immediate" {
		priority = market.PriorityCritical
	}
	return alerttypes.Alert{
		ID:        uuid.NewString(),
		Timestamp: at,
		Priority:  priority,
		Title:     fmt.Sprintf("%s arbitrage: %s", relationship, pairSummary),
		Body:      fmt.Sprintf("%s edge=%.3f urgency=%s", pairSummary, edge, urgency),
		Source:    alerttypes.SourceArbitrage,
		Metadata: map[string]any{
			"relationship": relationship,
			"edge":         edge,
		},
	}
}

func priorityFromConfidence(c market.Confidence) market.Priority {
	switch c {
	case market.ConfidenceVeryHigh:
		return market.PriorityCritical
	case market.ConfidenceHigh:
		return market.PriorityHigh
	case market.ConfidenceMedium:
		return market.PriorityMedium
	default:
		return market.PriorityLow
	}
}

func priorityFromSignificance(sig linker.Significance) market.Priority {
	switch sig {
	case linker.SignificanceCritical:
		return market.PriorityCritical
	case linker.SignificanceHigh:
		return market.PriorityHigh
	case linker.SignificanceMedium:
		return market.PriorityMedium
	default:
		return market.PriorityLow
	}
}

func priorityFromEdgeConfidence(c edgedetector.Confidence) market.Priority {
	switch c {
	case edgedetector.ConfidenceVeryHigh:
		return market.PriorityCritical
	case edgedetector.ConfidenceHigh:
		return market.PriorityHigh
	case edgedetector.ConfidenceMedium:
		return market.PriorityMedium
	default:
		return market.PriorityLow
	}
}
