package sanitize_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelmail/domain-sanitizer/internal/adapters/storage"
	"github.com/sentinelmail/domain-sanitizer/internal/domain"
	"github.com/sentinelmail/domain-sanitizer/internal/domain/sanitize"
)

func seededMatcher(t *testing.T, ids ...string) *sanitize.Matcher {
	t.Helper()
	store := storage.NewMemoryStore()
	for _, id := range ids {
		require.NoError(t, store.CreateBrand(context.Background(), &domain.BrandProfile{ID: id}))
	}
	return sanitize.NewMatcher(store, zerolog.Nop())
}

func TestMatcher_ExactIDHit(t *testing.T) {
	matcher := seededMatcher(t, "bancosantander", "acme")

	match := matcher.Match(context.Background(), "bancosantander")
	assert.Equal(t, domain.MatchExact, match.Type)
	assert.Equal(t, "bancosantander", match.BrandID)
	assert.Equal(t, 1.0, match.Confidence)
	require.NotNil(t, match.Brand)
}

func TestMatcher_LeetSpeakResolvesThroughVisualNormalization(t *testing.T) {
	matcher := seededMatcher(t, "bancosantander", "acme")

	match := matcher.Match(context.Background(), "b4nc0sant4nder")
	require.Equal(t, domain.MatchSimilarity, match.Type)
	assert.Equal(t, "bancosantander", match.BrandID)
	assert.Equal(t, 3, match.Distance)
	assert.InDelta(t, 0.55, match.Confidence, 1e-9)
	assert.Greater(t, match.Confidence, 0.0)
	assert.Less(t, match.Confidence, 1.0)
}

func TestMatcher_HyphenatedCandidateMatchesCompactID(t *testing.T) {
	matcher := seededMatcher(t, "bancosantander")

	// Hyphens are stripped for the search, but the refinement distance is
	// measured against the candidate as extracted.
	match := matcher.Match(context.Background(), "banco-santander")
	require.Equal(t, domain.MatchSimilarity, match.Type)
	assert.Equal(t, "bancosantander", match.BrandID)
	assert.Equal(t, 1, match.Distance)
}

func TestMatcher_ShortCandidateUsesBigramFilter(t *testing.T) {
	matcher := seededMatcher(t, "acme")

	match := matcher.Match(context.Background(), "acmme")
	require.Equal(t, domain.MatchSimilarity, match.Type)
	assert.Equal(t, "acme", match.BrandID)
	assert.Equal(t, 1, match.Distance)
	assert.InDelta(t, 0.85, match.Confidence, 1e-9)
}

func TestMatcher_NoMatchForForeignCandidate(t *testing.T) {
	matcher := seededMatcher(t, "bancosantander", "acme")

	match := matcher.Match(context.Background(), "zzqqxxyy")
	assert.Equal(t, domain.MatchNone, match.Type)
	assert.Nil(t, match.Brand)
}

func TestMatcher_EmptyStoreNeverMatches(t *testing.T) {
	matcher := sanitize.NewMatcher(storage.NewMemoryStore(), zerolog.Nop())

	match := matcher.Match(context.Background(), "santander")
	assert.Equal(t, domain.MatchNone, match.Type)
}
