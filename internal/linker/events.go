package linker

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OnCongress handles a Congress event per §4.2's relevance/direction
// table. A poll failure upstream never reaches this method — the source
// task either emits a well-formed event or nothing.
func (l *Linker) OnCongress(ev CongressEvent, now time.Time) {
	l.mu.RLock()
	candidates := make([]AffectedMarket, 0)
	for _, tm := range l.tracked {
		if tm.TruthMap.Category != CategoryGovernmentShutdown && tm.TruthMap.Category != CategoryLegislation {
			continue
		}
		relevance := decimal.Zero
		billHit := false
		for _, pat := range tm.TruthMap.BillPatterns {
			re, err := regexp.Compile(pat)
			if err != nil {
				continue
			}
			if re.MatchString(ev.Title) {
				billHit = true
				break
			}
		}
		if billHit {
			relevance = decimal.NewFromFloat(0.8)
		} else if hits := containsAnyKeyword(ev.Title+" "+ev.ActionText, tm.TruthMap.Keywords); hits > 0 {
			relevance = keywordRelevance(hits)
		}
		if relevance.IsZero() {
			continue
		}

		dir := congressDirection(tm.TruthMap.Category, ev.ActionType)
		candidates = append(candidates, AffectedMarket{AssetID: tm.Market.AssetID, Relevance: relevance, Direction: dir})
	}
	l.mu.RUnlock()

	alert := l.finalizeAlert("congress", ev.Title, ev.Significance, candidates, now)
	l.publish(alert)
}

func congressDirection(cat Category, actionType string) Direction {
	enacted := actionType == "BecameLaw" || actionType == "Passed" || actionType == "Signed"
	if cat == CategoryGovernmentShutdown {
		if enacted {
			return DirectionDown
		}
		return DirectionUp
	}
	// legislation
	if enacted {
		return DirectionUp
	}
	return DirectionDown
}

// OnWeather handles a weather alert per §4.2.
func (l *Linker) OnWeather(ev WeatherEvent, now time.Time) {
	l.mu.RLock()
	candidates := make([]AffectedMarket, 0)
	lowerHeadline := strings.ToLower(ev.Headline)
	for _, tm := range l.tracked {
		if tm.TruthMap.Category != CategoryHurricane && tm.TruthMap.Category != CategoryWeather {
			continue
		}
		relevance := decimal.Zero
		if tm.TruthMap.Category == CategoryHurricane &&
			(strings.Contains(lowerHeadline, "tropical") || strings.Contains(lowerHeadline, "hurricane") || strings.Contains(lowerHeadline, "cyclone")) {
			relevance = decimal.NewFromFloat(0.9)
		} else if hits := containsAnyKeyword(ev.Headline, tm.TruthMap.Keywords); hits > 0 {
			relevance = decimal.NewFromFloat(0.7)
		}
		if relevance.IsZero() {
			continue
		}

		// the only documented direction rule is Warning/Watch -> up on the
		// "will the event happen" market; other weather alerts inherit it.
		candidates = append(candidates, AffectedMarket{AssetID: tm.Market.AssetID, Relevance: relevance, Direction: DirectionUp})
	}
	l.mu.RUnlock()

	alert := l.finalizeAlert("weather", ev.Headline, ev.Significance, candidates, now)
	l.publish(alert)
}

// fedRateTerms is the guard a fed_rate market's question must pass before
// Fed relevance is assigned: it must contain at least one of these terms
// (case-insensitive substring match, so "rate" alone is enough).
var fedRateTerms = []string{"fed", "federal reserve", "fomc", "rate"}

// OnFed handles a Federal Reserve communication per §4.2.
func (l *Linker) OnFed(ev FedEvent, now time.Time) {
	l.mu.RLock()
	candidates := make([]AffectedMarket, 0)
	for _, tm := range l.tracked {
		if tm.TruthMap.Category != CategoryFedRate {
			continue
		}
		if containsAnyKeyword(tm.Market.Question, fedRateTerms) == 0 {
			continue
		}

		var relevance decimal.Decimal
		switch ev.Type {
		case "fomc_statement", "rate_decision":
			relevance = decimal.NewFromFloat(0.95)
		case "fomc_minutes":
			relevance = decimal.NewFromFloat(0.7)
		default:
			relevance = decimal.NewFromFloat(0.5)
		}

		dir, ok := fedDirection(tm.Market.Question, ev)
		if !ok {
			continue
		}
		candidates = append(candidates, AffectedMarket{AssetID: tm.Market.AssetID, Relevance: relevance, Direction: dir})
	}
	l.mu.RUnlock()

	alert := l.finalizeAlert("fed", ev.Type, ev.Significance, candidates, now)
	l.publish(alert)
}

func fedDirection(question string, ev FedEvent) (Direction, bool) {
	q := strings.ToLower(question)
	wantsCut := strings.Contains(q, "cut")
	wantsHike := strings.Contains(q, "hike")
	if !wantsCut && !wantsHike {
		return "", false
	}

	cutSignal := ev.RateDecision == "cut" || ev.Sentiment == FedDovish
	hikeSignal := ev.RateDecision == "hike" || ev.Sentiment == FedHawkish

	if wantsCut {
		if cutSignal {
			return DirectionUp, true
		}
		if hikeSignal {
			return DirectionDown, true
		}
	}
	if wantsHike {
		if hikeSignal {
			return DirectionUp, true
		}
		if cutSignal {
			return DirectionDown, true
		}
	}
	return "", false
}

// OnSports handles a player/team status update per §4.2.
func (l *Linker) OnSports(ev SportsEvent, now time.Time) {
	l.mu.RLock()
	candidates := make([]AffectedMarket, 0)
	for _, tm := range l.tracked {
		if tm.TruthMap.Category != CategorySportsPlayer && tm.TruthMap.Category != CategorySportsOutcome {
			continue
		}
		q := strings.ToLower(tm.Market.Question)

		var relevance decimal.Decimal
		var dir Direction
		matched := false

		if ev.Player != "" && strings.Contains(q, strings.ToLower(ev.Player)) {
			relevance = decimal.NewFromFloat(0.95)
			dir = sportsPlayerDirection(ev)
			matched = true
		} else if ev.Team != "" && ev.Significance == SignificanceCritical && strings.Contains(q, strings.ToLower(ev.Team)) {
			relevance = decimal.NewFromFloat(0.7)
			dir = DirectionDown
			matched = true
		}

		if !matched {
			continue
		}
		candidates = append(candidates, AffectedMarket{AssetID: tm.Market.AssetID, Relevance: relevance, Direction: dir})
	}
	l.mu.RUnlock()

	summary := ev.Player
	if summary == "" {
		summary = ev.Team
	}
	alert := l.finalizeAlert("sports", summary+" "+ev.Status, ev.Significance, candidates, now)
	l.publish(alert)
}

func sportsPlayerDirection(ev SportsEvent) Direction {
	status := strings.ToLower(ev.Status)
	prev := strings.ToLower(ev.PreviousStatus)
	if status == "out" {
		return DirectionDown
	}
	upgrade := (prev == "out" || prev == "doubtful") && (status == "questionable" || status == "active" || status == "probable")
	if upgrade {
		return DirectionUp
	}
	return DirectionDown
}
