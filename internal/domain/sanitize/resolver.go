package sanitize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

// ErrOwnerNotFound is the "no usable registrant" sentinel. Callers treat it as
// a normal outcome, not a failure.
var ErrOwnerNotFound = errors.New("domain owner not found")

// maxFallbackDepth caps the cross-TLD hop chain. The chain target of each hop
// depends on the previous hop's discovered country, so depth is bounded by
// construction in practice; the cap guards against pathological registry data.
const maxFallbackDepth = 5

const (
	softRetryAttempts = 2
	softRetryBackoff  = 1500 * time.Millisecond
)

// OwnerResolver resolves the real-world registrant of a domain through a
// TLD-aware fallback chain: generic TLDs are queried directly, country-code
// TLDs go through their registered field adapter, and unresolved lookups hop
// into sibling country TLDs (registrant country first, then the curated
// fallback list, or the single designated country for regional TLDs).
type OwnerResolver struct {
	registry ports.TLDRegistry
	provider ports.WhoisProvider
	log      zerolog.Logger

	// test seam for the soft-retry backoff
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOwnerResolver creates a resolver over the given registry and provider.
func NewOwnerResolver(registry ports.TLDRegistry, provider ports.WhoisProvider, log zerolog.Logger) *OwnerResolver {
	return &OwnerResolver{
		registry: registry,
		provider: provider,
		log:      log.With().Str("component", "resolver").Logger(),
		sleep:    sleepCtx,
	}
}

// whoisTarget is one pending hop in the fallback chain.
type whoisTarget struct {
	domain string
	depth  int
}

// ResolveOwner returns the registrant display name of a domain.
//
// Returns ErrOwnerNotFound when the chain exhausts without a usable
// registrant, and ports.ErrUnsupportedTLD when a hop lands on a country-code
// TLD with no registered adapter. The recursion of the original fallback
// design is expressed as an explicit depth-first worklist with a visited set
// and a hard depth cap.
func (r *OwnerResolver) ResolveOwner(ctx context.Context, fqdn string) (string, error) {
	start := SplitDomain(fqdn).Root()

	stack := []whoisTarget{{domain: start, depth: 0}}
	visited := map[string]struct{}{}

	for len(stack) > 0 {
		target := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if target.depth > maxFallbackDepth {
			return "", fmt.Errorf("whois fallback chain for %s exceeded %d hops", start, maxFallbackDepth)
		}
		if _, seen := visited[target.domain]; seen {
			continue
		}
		visited[target.domain] = struct{}{}

		owner, next, err := r.resolveOne(ctx, target.domain)
		if err != nil {
			return "", err
		}
		if owner != "" {
			return owner, nil
		}

		// Push in reverse so the first fallback (and its own chain) is fully
		// explored before its siblings. Order within one hop is sequential by
		// design: each step's target depends on the previous step's result.
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, whoisTarget{domain: next[i], depth: target.depth + 1})
		}
	}

	return "", ErrOwnerNotFound
}

// resolveOne performs a single WHOIS lookup and returns either a usable owner
// or the ordered fallback domains to hop into next.
func (r *OwnerResolver) resolveOne(ctx context.Context, fqdn string) (owner string, next []string, err error) {
	parts := SplitDomain(fqdn)
	tld := parts.TLD()

	switch {
	case r.registry.IsGeneric(tld):
		return r.resolveGeneric(ctx, parts, tld)

	case r.registry.AdapterExists(tld):
		return r.resolveCountryCode(ctx, parts, tld)

	default:
		// Every non-generic TLD needs a field adapter. Silently defaulting to
		// a generic query would yield misparsed registrants, so this must
		// surface to the caller.
		return "", nil, fmt.Errorf("tld %q: %w", tld, ports.ErrUnsupportedTLD)
	}
}

func (r *OwnerResolver) resolveGeneric(ctx context.Context, parts DomainParts, tld string) (string, []string, error) {
	rec := r.lookup(ctx, parts.Root(), tld)
	if rec == nil {
		return "", nil, nil
	}

	if owner := usableValue(rec.Organization, rec.Name); owner != "" {
		return owner, nil, nil
	}

	// No public registrant, but the registry told us where the registrant
	// lives: try the brand's domain under that country.
	if cc := normalizeCountry(rec.CountryCode); cc != "" {
		return "", []string{parts.Label + "." + cc}, nil
	}
	return "", nil, nil
}

func (r *OwnerResolver) resolveCountryCode(ctx context.Context, parts DomainParts, tld string) (string, []string, error) {
	rec := r.lookup(ctx, parts.Root(), tld)

	if rec != nil {
		if owner := usableValue(rec.Organization, rec.Name); owner != "" {
			return owner, nil, nil
		}
	}

	// Regional TLDs map to exactly one country and never consult the generic
	// fallback list.
	if r.registry.IsGeoTLD(tld) {
		if cc := r.registry.GeoCountry(tld); cc != "" {
			return "", []string{parts.Label + "." + cc}, nil
		}
		return "", nil, nil
	}

	var next []string
	if rec != nil {
		if cc := normalizeCountry(rec.CountryCode); cc != "" {
			next = append(next, parts.Label+"."+cc)
		}
	}
	for _, cc := range r.registry.FallbackCountryCodes(tld) {
		if cc = normalizeCountry(cc); cc != "" && cc != tld {
			next = append(next, parts.Label+"."+cc)
		}
	}
	return "", next, nil
}

// lookup queries the provider with the bounded soft retry. Soft "not
// registered" placeholders are retried with a fixed backoff; hard provider
// errors are logged and degrade to an unresolved lookup.
func (r *OwnerResolver) lookup(ctx context.Context, fqdn, tld string) *domain.WhoisRecord {
	for attempt := 0; ; attempt++ {
		rec, err := r.provider.Lookup(ctx, fqdn, tld)
		if err == nil {
			return rec
		}

		if errors.Is(err, ports.ErrNotRegistered) && attempt < softRetryAttempts {
			if sleepErr := r.sleep(ctx, softRetryBackoff); sleepErr != nil {
				return nil
			}
			continue
		}

		if !errors.Is(err, ports.ErrNotRegistered) {
			r.log.Warn().Err(err).Str("domain", fqdn).Msg("whois lookup failed")
		}
		return nil
	}
}

// usableValue picks the first candidate that is non-empty and not a privacy
// redaction placeholder. Organization is preferred over the person name.
func usableValue(candidates ...string) string {
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c != "" && !isPrivacyValue(c) {
			return c
		}
	}
	return ""
}

// Substrings that mark a WHOIS value as privacy-redacted rather than a real
// registrant name.
var privacyPatterns = []string{"redacted", "privacy", "whoisguard", "protected", "gdpr"}

func isPrivacyValue(v string) bool {
	lower := strings.ToLower(v)
	for _, p := range privacyPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Country codes whose ccTLD differs from the ISO code.
var countryTLDOverrides = map[string]string{"gb": "uk"}

func normalizeCountry(cc string) string {
	cc = strings.ToLower(strings.TrimSpace(cc))
	if len(cc) != 2 {
		return ""
	}
	if tld, ok := countryTLDOverrides[cc]; ok {
		return tld
	}
	return cc
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
