package ports

import (
	"context"
	"errors"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
)

// ErrNotFound is returned by store lookups that matched nothing
var ErrNotFound = errors.New("not found")

// BrandSearchQuery drives the coarse n-gram filter of the brand matcher.
// Term is already visually normalized (leet digits mapped, hyphens stripped).
type BrandSearchQuery struct {
	Term       string
	Gram       int     // n-gram size: 2 for short terms, 3 otherwise
	MinOverlap float64 // minimum fraction of the query's n-grams a hit must share
	Size       int     // maximum candidates returned
}

// BrandStore defines the contract for the persistent brand corpus. All three
// append operations are idempotent, commutative set-unions: concurrent writers
// enriching the same brand must never lose each other's updates.
type BrandStore interface {
	GetBrand(ctx context.Context, id string) (*domain.BrandProfile, error)
	CreateBrand(ctx context.Context, brand *domain.BrandProfile) error
	FindByKnownDomain(ctx context.Context, fqdn string) (*domain.BrandProfile, error)

	// SearchNGram returns up to Size brand ids whose indexed search term
	// shares at least MinOverlap of the query's n-grams.
	SearchNGram(ctx context.Context, q BrandSearchQuery) ([]string, error)

	// SearchFuzzy is the edit-distance-tolerant backup query; returns the
	// single best id or ErrNotFound.
	SearchFuzzy(ctx context.Context, term string) (string, error)

	AddKnownDomain(ctx context.Context, id, fqdn string) error
	AddOwnerTerms(ctx context.Context, id, ownerText string) error
	AddKeyword(ctx context.Context, id, keyword string) error
}

// OmitWordStore serves the noise words stripped during candidate extraction
type OmitWordStore interface {
	// ActiveWords returns all words currently marked active
	ActiveWords(ctx context.Context) ([]string, error)
}

// ProviderStore answers whether a domain is a personal/general mail provider
type ProviderStore interface {
	IsPersonal(ctx context.Context, fqdn string) (bool, error)
}
