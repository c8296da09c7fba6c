package arbxdetector

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/web3guy0/predimarket-intel/internal/market"
)

var (
	negationWords  = []string{"not", "won't", "will not", "never", "fails to", "doesn't"}
	winsPattern    = regexp.MustCompile(`(?i)^(.+?)\s+wins?\??$`)
	subsetPattern  = regexp.MustCompile(`(?i)^(.*?)\b(?:by|before)\b\s*([a-z0-9.+\-/: ]+?)\??$`)
)

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, "?.! ")
	return s
}

// stripNegation removes the first occurrence of each negation marker,
// collapsing double spaces, so a true Yes/No phrasing pair normalizes identically.
func stripNegation(s string) string {
	out := normalize(s)
	for _, neg := range negationWords {
		if idx := strings.Index(out, neg); idx >= 0 {
			out = out[:idx] + out[idx+len(neg):]
		}
	}
	return strings.Join(strings.Fields(out), " ")
}

// detectInverse reports whether two questions are Yes/No phrasings of
// the same underlying event: identical once negation markers are
// stripped, but not literally identical questions.
func detectInverse(a, b market.Market) bool {
	qa, qb := normalize(a.Question), normalize(b.Question)
	if qa == qb {
		return false
	}
	return stripNegation(qa) == stripNegation(qb)
}

// slugStem drops the last hyphen-delimited token of a slug, which is
// conventionally the variant-specific part (a team name, a threshold).
func slugStem(slug string) (stem, last string) {
	parts := strings.Split(strings.Trim(slug, "-"), "-")
	if len(parts) < 2 {
		return slug, ""
	}
	return strings.Join(parts[:len(parts)-1], "-"), parts[len(parts)-1]
}

// detectMutuallyExclusive reports whether two markets are "A wins" /
// "B wins" variants of the same contest: both questions match the wins
// pattern and the markets share a slug stem (same contest, different
// team).
func detectMutuallyExclusive(a, b market.Market) bool {
	if !winsPattern.MatchString(a.Question) || !winsPattern.MatchString(b.Question) {
		return false
	}
	stemA, lastA := slugStem(a.Slug)
	stemB, lastB := slugStem(b.Slug)
	if stemA == "" || stemA != stemB {
		return false
	}
	return lastA != lastB
}

// detectSubset reports whether two markets are "by N" / "before DATE"
// threshold variants of the same base question, where one implies the
// other (e.g. "wins by 10+" implies "wins by 5+"). Returns the stricter
// market first (A in the emitted Pair).
func detectSubset(a, b market.Market) (stricter, looser market.Market, ok bool) {
	ma := subsetPattern.FindStringSubmatch(normalize(a.Question))
	mb := subsetPattern.FindStringSubmatch(normalize(b.Question))
	if ma == nil || mb == nil {
		return market.Market{}, market.Market{}, false
	}
	if strings.TrimSpace(ma[1]) != strings.TrimSpace(mb[1]) {
		return market.Market{}, market.Market{}, false
	}
	if strings.TrimSpace(ma[2]) == strings.TrimSpace(mb[2]) {
		return market.Market{}, market.Market{}, false
	}
	// numeric thresholds ("by 10+") compare as numbers and the larger
	// margin is the stricter claim; other thresholds compare as strings,
	// which orders ISO dates correctly, and the earlier deadline is the
	// stricter claim.
	ta, tb := strings.TrimSpace(ma[2]), strings.TrimSpace(mb[2])
	na, errA := decimal.NewFromString(strings.TrimSuffix(ta, "+"))
	nb, errB := decimal.NewFromString(strings.TrimSuffix(tb, "+"))
	if errA == nil && errB == nil {
		if na.GreaterThan(nb) {
			return a, b, true
		}
		return b, a, true
	}
	if ta < tb {
		return a, b, true
	}
	return b, a, true
}

// detectCorrelated is the fallback pattern: markets sharing a long slug
// prefix (same underlying contest/series) that matched neither of the
// stricter patterns above are treated as loosely correlated with a 1:1
// factor. This is a heuristic of last resort, not a statistical fit.
func detectCorrelated(a, b market.Market) (decimal.Decimal, bool) {
	stemA, _ := slugStem(a.Slug)
	stemB, _ := slugStem(b.Slug)
	if stemA == "" || stemA != stemB {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(1), true
}

// DetectPairs runs every heuristic over the full market set and returns
// every relationship found. A pair already classified by a stricter
// pattern (inverse, mutually_exclusive, subset) is not also reported as
// correlated.
func DetectPairs(markets []market.Market) []Pair {
	var pairs []Pair
	seen := make(map[string]bool)

	for i := 0; i < len(markets); i++ {
		for j := i + 1; j < len(markets); j++ {
			a, b := markets[i], markets[j]
			key := a.AssetID + "|" + b.AssetID

			switch {
			case detectInverse(a, b):
				pairs = append(pairs, Pair{A: a.AssetID, B: b.AssetID, Relationship: RelationshipInverse})
				seen[key] = true
			case detectMutuallyExclusive(a, b):
				pairs = append(pairs, Pair{A: a.AssetID, B: b.AssetID, Relationship: RelationshipMutuallyExclusive})
				seen[key] = true
			default:
				if stricter, looser, ok := detectSubset(a, b); ok {
					pairs = append(pairs, Pair{A: stricter.AssetID, B: looser.AssetID, Relationship: RelationshipSubset})
					seen[key] = true
				}
			}
		}
	}

	for i := 0; i < len(markets); i++ {
		for j := i + 1; j < len(markets); j++ {
			a, b := markets[i], markets[j]
			key := a.AssetID + "|" + b.AssetID
			if seen[key] {
				continue
			}
			if factor, ok := detectCorrelated(a, b); ok {
				pairs = append(pairs, Pair{A: a.AssetID, B: b.AssetID, Relationship: RelationshipCorrelated, Factor: factor})
			}
		}
	}

	return pairs
}
