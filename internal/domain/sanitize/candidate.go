package sanitize

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

// Extractor derives a brand-name candidate from a domain, stripping noise
// tokens ("mail", "secure", "login", ...) served by the omit-word store.
//
// The omit-word set is loaded once per process: concurrent first callers share
// a single load via singleflight, and a failed load degrades permanently to an
// empty set for this run rather than blocking or retrying.
type Extractor struct {
	store ports.OmitWordStore
	log   zerolog.Logger

	sf     singleflight.Group
	mu     sync.RWMutex
	words  map[string]struct{}
	loaded bool
}

// NewExtractor creates a candidate extractor backed by the given store.
func NewExtractor(store ports.OmitWordStore, log zerolog.Logger) *Extractor {
	return &Extractor{store: store, log: log.With().Str("component", "extractor").Logger()}
}

// Candidate turns a decomposed domain into a clean brand-name candidate.
// The result is never empty: when filtering removes every token, the
// registrable label (with trailing hyphenated segments dropped) is the
// fallback, and a domain with no registrable label falls back to the FQDN.
func (e *Extractor) Candidate(ctx context.Context, parts DomainParts) string {
	omit := e.omitWords(ctx)

	var tokens []string
	if parts.Subdomain != "" && parts.Subdomain != "www" {
		tokens = append(tokens, splitTokens(parts.Subdomain)...)
	}
	tokens = append(tokens, splitTokens(parts.Label)...)

	var kept []string
	for _, t := range tokens {
		if _, omitted := omit[t]; !omitted {
			kept = append(kept, t)
		}
	}

	if len(kept) == 0 {
		base := parts.Label
		if base == "" {
			base = parts.FQDN
		}
		// "acme-mail" -> "acme"
		if i := strings.Index(base, "-"); i > 0 {
			base = base[:i]
		}
		return strings.ToLower(base)
	}

	return strings.Join(kept, "-")
}

// splitTokens breaks a domain fragment on dots and hyphens.
func splitTokens(raw string) []string {
	var tokens []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == '.' || r == '-' }) {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func (e *Extractor) omitWords(ctx context.Context) map[string]struct{} {
	e.mu.RLock()
	if e.loaded {
		words := e.words
		e.mu.RUnlock()
		return words
	}
	e.mu.RUnlock()

	v, _, _ := e.sf.Do("omit-words", func() (interface{}, error) {
		e.mu.RLock()
		if e.loaded {
			words := e.words
			e.mu.RUnlock()
			return words, nil
		}
		e.mu.RUnlock()

		set := make(map[string]struct{})
		words, err := e.store.ActiveWords(ctx)
		if err != nil {
			e.log.Warn().Err(err).Msg("omit-word store unreachable, continuing with empty set")
		} else {
			for _, w := range words {
				set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
			}
		}

		e.mu.Lock()
		e.words = set
		e.loaded = true
		e.mu.Unlock()
		return set, nil
	})

	return v.(map[string]struct{})
}
