package linker

import (
	"regexp"
	"strings"
)

// CategoryRule is one entry in the ordered category-assignment table.
// Keyword matching is whole-word for single-word keywords and substring
// for multi-word keywords, both case-insensitive — this mirrors the
// source's natural-language heuristics, which are externalised
// configuration rather than part of the contract itself.
type CategoryRule struct {
	Category     Category
	Keywords     []string
	BillPatterns []string
}

// compiledRule precomputes the whole-word regexes for single-word
// keywords so categorisation doesn't recompile on every market.
type compiledRule struct {
	rule         CategoryRule
	wordRegexes  []*regexp.Regexp
	phrases      []string
	billRegexes  []*regexp.Regexp
}

// DefaultCategoryRules is the ordered rule table consulted by the
// Linker's 10-minute categorisation tick. Order matters: the first
// matching rule wins, so more specific categories are listed first.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{
			Category: CategoryGovernmentShutdown,
			Keywords: []string{"government shutdown", "shutdown", "continuing resolution", "funding bill", "lapse in funding"},
			BillPatterns: []string{
				`(?i)continuing appropriations`,
				`(?i)government funding`,
			},
		},
		{
			Category: CategoryFedRate,
			Keywords: []string{"fed rate", "federal reserve", "fomc", "rate hike", "rate cut", "interest rate", "fed funds"},
		},
		{
			Category: CategoryHurricane,
			Keywords: []string{"hurricane", "tropical storm", "cyclone", "tropical depression"},
		},
		{
			Category: CategoryWeather,
			Keywords: []string{"weather", "blizzard", "winter storm", "flood warning", "heat wave", "snowfall"},
		},
		{
			Category: CategorySportsPlayer,
			Keywords: []string{"will play", "inactive", "injury report", "out for the season", "active roster"},
		},
		{
			Category: CategorySportsOutcome,
			Keywords: []string{"wins the game", "wins the match", "moneyline", "to win the", "beats the"},
		},
		{
			Category: CategoryLegislation,
			Keywords: []string{"bill passes", "congress passes", "senate passes", "house passes", "signed into law", "legislation"},
			BillPatterns: []string{
				`(?i)act of 20\d\d`,
			},
		},
		{
			Category: CategoryOther,
			Keywords: []string{"supreme court", "election", "referendum"},
		},
	}
}

func compileRules(rules []CategoryRule) []compiledRule {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		cr := compiledRule{rule: r}
		for _, kw := range r.Keywords {
			if strings.Contains(strings.TrimSpace(kw), " ") {
				cr.phrases = append(cr.phrases, strings.ToLower(kw))
			} else {
				cr.wordRegexes = append(cr.wordRegexes, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
			}
		}
		for _, bp := range r.BillPatterns {
			cr.billRegexes = append(cr.billRegexes, regexp.MustCompile(bp))
		}
		out = append(out, cr)
	}
	return out
}

func (cr compiledRule) matches(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range cr.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for _, re := range cr.wordRegexes {
		if re.MatchString(text) {
			return true
		}
	}
	for _, re := range cr.billRegexes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// Categorize returns the first matching rule's category for the given
// market text, or a zero TruthMap and false if nothing matched and the
// caller should not track the market at all.
func Categorize(compiled []compiledRule, questionAndDescription string) (TruthMap, bool) {
	for _, cr := range compiled {
		if cr.matches(questionAndDescription) {
			return TruthMap{
				Category: cr.rule.Category,
				Keywords: cr.rule.Keywords,
				BillPatterns: cr.rule.BillPatterns,
			}, true
		}
	}
	return TruthMap{}, false
}
