package sanitize

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

// Coarse-filter tuning. Short candidates carry too few trigrams to filter on,
// so they use bigrams with a stricter overlap requirement.
const (
	shortTermMaxLen  = 5
	shortTermOverlap = 0.65
	longTermOverlap  = 0.45
	coarseCandidates = 30
	distancePenalty  = 0.15 // confidence = 1 - distance*penalty
)

// Matcher resolves a candidate string to the closest known brand using a
// two-stage search: a cheap n-gram filter against the store's indexed search
// field, then Levenshtein refinement over the surviving candidates. The edit
// distance, not the store's relevance score, decides the winner, because
// relevance ranking is not deterministic across store backends.
type Matcher struct {
	store ports.BrandStore
	log   zerolog.Logger
}

// NewMatcher creates a brand matcher over the given store.
func NewMatcher(store ports.BrandStore, log zerolog.Logger) *Matcher {
	return &Matcher{store: store, log: log.With().Str("component", "matcher").Logger()}
}

// Match finds the best known brand for a candidate. A store outage is a soft
// no-match, never an error: the verdict pipeline degrades instead of failing.
func (m *Matcher) Match(ctx context.Context, candidate string) domain.BrandMatch {
	clean := strings.ToLower(strings.TrimSpace(candidate))

	// Direct id hit wins outright
	id := domain.NormalizeBrandID(clean)
	if brand, err := m.store.GetBrand(ctx, id); err == nil {
		return domain.BrandMatch{BrandID: brand.ID, Type: domain.MatchExact, Confidence: 1.0, Brand: brand}
	} else if !errors.Is(err, ports.ErrNotFound) {
		m.log.Warn().Err(err).Str("candidate", clean).Msg("brand store lookup failed")
		return domain.BrandMatch{Type: domain.MatchNone}
	}

	// Visual normalization for the fuzzy funnel
	visual := NormalizeVisuals(strings.ReplaceAll(clean, "-", ""))

	query := ports.BrandSearchQuery{Term: visual, Size: coarseCandidates}
	if len(visual) <= shortTermMaxLen {
		query.Gram, query.MinOverlap = 2, shortTermOverlap
	} else {
		query.Gram, query.MinOverlap = 3, longTermOverlap
	}

	// Coarse n-gram filter
	ids, err := m.store.SearchNGram(ctx, query)
	if err != nil {
		m.log.Warn().Err(err).Str("term", visual).Msg("n-gram search failed")
		return domain.BrandMatch{Type: domain.MatchNone}
	}

	// Backup fuzzy query when the funnel comes back empty
	if len(ids) == 0 {
		top, err := m.store.SearchFuzzy(ctx, visual)
		if err != nil {
			if !errors.Is(err, ports.ErrNotFound) {
				m.log.Warn().Err(err).Str("term", visual).Msg("fuzzy search failed")
			}
			return domain.BrandMatch{Type: domain.MatchNone}
		}
		ids = []string{top}
	}

	// Refinement: minimum edit distance against the hyphenated candidate
	best, bestDist := "", -1
	for _, cid := range ids {
		if dist := EditDistance(clean, cid); bestDist < 0 || dist < bestDist {
			best, bestDist = cid, dist
		}
	}

	brand, err := m.store.GetBrand(ctx, best)
	if err != nil {
		m.log.Warn().Err(err).Str("brand_id", best).Msg("refined brand not loadable")
		return domain.BrandMatch{Type: domain.MatchNone}
	}

	return domain.BrandMatch{
		BrandID:    best,
		Type:       domain.MatchSimilarity,
		Distance:   bestDist,
		Confidence: domain.ClampConfidence(1.0 - float64(bestDist)*distancePenalty),
		Brand:      brand,
	}
}

var visualReplacer = strings.NewReplacer(
	"4", "a",
	"3", "e",
	"1", "i",
	"0", "o",
	"5", "s",
	"7", "t",
	"8", "b",
)

// NormalizeVisuals maps leet-speak digits back to the letters they imitate.
func NormalizeVisuals(s string) string {
	return visualReplacer.Replace(s)
}
