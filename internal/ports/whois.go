package ports

import (
	"context"
	"errors"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
)

// Hard and soft failure modes of a WHOIS lookup. ErrUnsupportedTLD must
// propagate to the resolver's caller; the others are recoverable.
var (
	ErrUnsupportedTLD = errors.New("unsupported tld")

	// ErrNotRegistered marks the registry's "no match / not found" placeholder
	// response. It is a soft condition eligible for the bounded retry, unlike
	// transport errors which are hard failures.
	ErrNotRegistered = errors.New("domain not registered")
)

// WhoisProvider performs one WHOIS lookup and normalizes the raw response to a
// typed record at the boundary. Implementations must honor ctx deadlines.
type WhoisProvider interface {
	// Lookup queries registration data for a registrable domain. tld is the
	// last label of the domain's public suffix and selects the field adapter
	// for non-generic TLDs.
	Lookup(ctx context.Context, domain, tld string) (*domain.WhoisRecord, error)
}

// TLDRegistry classifies top-level domains and supplies the curated fallback
// data the owner resolver hops through.
type TLDRegistry interface {
	IsGeneric(tld string) bool
	IsCountryCode(tld string) bool
	IsGeoTLD(tld string) bool
	AdapterExists(tld string) bool

	// FallbackCountryCodes returns the ordered country hops for a ccTLD that
	// behaves like a generic TLD (.io, .co, ...). Empty when none are curated.
	FallbackCountryCodes(tld string) []string

	// GeoCountry returns the single designated country of a regional TLD
	// (eus -> es), or "" when no mapping exists.
	GeoCountry(tld string) string
}
