package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

func TestMemoryStore_CreateAndGetBrand(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateBrand(ctx, &domain.BrandProfile{
		ID:           "santander",
		KnownDomains: []string{"santander.es"},
	}))

	brand, err := store.GetBrand(ctx, "santander")
	require.NoError(t, err)
	assert.Equal(t, "santander", brand.ID)

	// Returned profiles are copies: mutating one must not leak into the store.
	brand.KnownDomains = append(brand.KnownDomains, "evil.com")
	again, err := store.GetBrand(ctx, "santander")
	require.NoError(t, err)
	assert.Equal(t, []string{"santander.es"}, again.KnownDomains)

	_, err = store.GetBrand(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestMemoryStore_CreateBrandKeepsExisting(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateBrand(ctx, &domain.BrandProfile{ID: "acme", Sector: "banking"}))
	require.NoError(t, store.CreateBrand(ctx, &domain.BrandProfile{ID: "acme", Sector: "other"}))

	brand, err := store.GetBrand(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "banking", brand.Sector)
}

func TestMemoryStore_FindByKnownDomain(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateBrand(ctx, &domain.BrandProfile{
		ID:           "santander",
		KnownDomains: []string{"santander.es"},
	}))

	brand, err := store.FindByKnownDomain(ctx, "SANTANDER.ES.")
	require.NoError(t, err)
	assert.Equal(t, "santander", brand.ID)

	_, err = store.FindByKnownDomain(ctx, "mail.santander.es")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestMemoryStore_AddKnownDomainIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateBrand(ctx, &domain.BrandProfile{ID: "acme"}))
	for i := 0; i < 3; i++ {
		require.NoError(t, store.AddKnownDomain(ctx, "acme", "acme.es"))
	}

	brand, err := store.GetBrand(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme.es"}, brand.KnownDomains)

	assert.ErrorIs(t, store.AddKnownDomain(ctx, "missing", "x.com"), ports.ErrNotFound)
}

func TestMemoryStore_AddOwnerTermsMergesTokens(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateBrand(ctx, &domain.BrandProfile{
		ID:         "santander",
		OwnerTerms: []string{"banco", "santander"},
	}))
	require.NoError(t, store.AddOwnerTerms(ctx, "santander", "BANCO SANTANDER, S.A."))

	brand, err := store.GetBrand(ctx, "santander")
	require.NoError(t, err)
	assert.Equal(t, []string{"banco", "santander", "s", "a"}, brand.OwnerTerms)
}

func TestMemoryStore_SearchNGram(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"bancosantander", "santanderconsumer", "acme"} {
		require.NoError(t, store.CreateBrand(ctx, &domain.BrandProfile{ID: id}))
	}

	ids, err := store.SearchNGram(ctx, ports.BrandSearchQuery{
		Term: "bancosantander", Gram: 3, MinOverlap: 0.45, Size: 30,
	})
	require.NoError(t, err)
	require.NotEmpty(t, ids)
	assert.Equal(t, "bancosantander", ids[0])
	assert.NotContains(t, ids, "acme")
}

func TestMemoryStore_SearchNGramHonorsSize(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"santander1", "santander2", "santander3"} {
		require.NoError(t, store.CreateBrand(ctx, &domain.BrandProfile{ID: id}))
	}

	ids, err := store.SearchNGram(ctx, ports.BrandSearchQuery{
		Term: "santander", Gram: 3, MinOverlap: 0.45, Size: 2,
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestMemoryStore_SearchFuzzy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateBrand(ctx, &domain.BrandProfile{ID: "bancosantander"}))

	id, err := store.SearchFuzzy(ctx, "bancosantandre")
	require.NoError(t, err)
	assert.Equal(t, "bancosantander", id)

	_, err = store.SearchFuzzy(ctx, "zzqqxx")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestMemoryStore_OmitWordsAndProviders(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.SeedOmitWords(ctx, []string{"Mail", "secure", "mail"}))
	words, err := store.ActiveWords(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mail", "secure"}, words)

	require.NoError(t, store.SeedProviders(ctx, []string{"gmail.com"}))
	personal, err := store.IsPersonal(ctx, "GMAIL.com")
	require.NoError(t, err)
	assert.True(t, personal)

	personal, err = store.IsPersonal(ctx, "acme.com")
	require.NoError(t, err)
	assert.False(t, personal)
}
