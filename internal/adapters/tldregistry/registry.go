// Package tldregistry classifies top-level domains and carries the curated
// fallback data the owner resolver hops through: which TLDs are generic,
// which regional TLDs map to which country, and which ccTLDs that are
// marketed as generic (.io, .co, ...) fall back into which countries.
package tldregistry

import (
	"strings"

	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

// Registry is a static, read-only TLD classification table.
type Registry struct {
	generic   map[string]struct{}
	adapters  map[string]struct{}
	geo       map[string]string
	fallbacks map[string][]string
}

var _ ports.TLDRegistry = (*Registry)(nil)

// New builds a registry. supportedAdapters lists the TLDs the WHOIS layer has
// field adapters for; the registry itself stays decoupled from that layer.
func New(supportedAdapters []string) *Registry {
	r := &Registry{
		generic:   make(map[string]struct{}, len(genericTLDs)),
		adapters:  make(map[string]struct{}, len(supportedAdapters)),
		geo:       geoCountries,
		fallbacks: ccFallbacks,
	}
	for _, tld := range genericTLDs {
		r.generic[tld] = struct{}{}
	}
	for _, tld := range supportedAdapters {
		r.adapters[strings.ToLower(tld)] = struct{}{}
	}
	return r
}

// IsGeneric reports whether the TLD is queried without a field adapter.
func (r *Registry) IsGeneric(tld string) bool {
	_, ok := r.generic[strings.ToLower(tld)]
	return ok
}

// IsCountryCode reports whether the TLD is a sovereign two-letter ccTLD.
func (r *Registry) IsCountryCode(tld string) bool {
	tld = strings.ToLower(tld)
	return len(tld) == 2 && !r.IsGeneric(tld)
}

// IsGeoTLD reports whether the TLD is a regional TLD with a designated
// country (eus, cat, scot, ...).
func (r *Registry) IsGeoTLD(tld string) bool {
	_, ok := r.geo[strings.ToLower(tld)]
	return ok
}

// AdapterExists reports whether the WHOIS layer can parse this TLD.
func (r *Registry) AdapterExists(tld string) bool {
	_, ok := r.adapters[strings.ToLower(tld)]
	return ok
}

// FallbackCountryCodes returns the ordered country hops curated for a ccTLD
// that behaves like a generic TLD. Nil when none are curated.
func (r *Registry) FallbackCountryCodes(tld string) []string {
	return r.fallbacks[strings.ToLower(tld)]
}

// GeoCountry returns the designated country of a regional TLD, or "".
func (r *Registry) GeoCountry(tld string) string {
	return r.geo[strings.ToLower(tld)]
}

// Generic TLDs answered by their registry without a field adapter.
var genericTLDs = []string{
	"com", "net", "org", "info", "biz", "name", "pro", "mobi",
	"app", "dev", "page", "cloud", "online", "site", "store", "tech",
	"xyz", "email", "agency", "bank", "finance", "insurance",
}

// Regional TLDs and the single country their registrants belong to. Every
// entry here must have a matching WHOIS field adapter, or the resolver
// rejects the TLD before this table is consulted.
var geoCountries = map[string]string{
	"eus":  "es",
	"cat":  "es",
	"gal":  "es",
	"bzh":  "fr",
	"scot": "uk",
}

// ccTLDs sold as if they were generic: when their registry hides the
// registrant, the owner is usually findable under one of these countries.
var ccFallbacks = map[string][]string{
	"io": {"us", "uk"},
	"co": {"us", "uk", "es"},
	"me": {"us", "uk"},
	"tv": {"us", "uk"},
	"ai": {"us", "uk"},
	"cc": {"us"},
	"ws": {"us"},
	"fm": {"us", "uk"},
	"ly": {"uk", "us"},
	"to": {"us"},
	"gg": {"uk"},
	"im": {"uk"},
	"sh": {"uk", "us"},
	"ac": {"uk", "us"},
}
