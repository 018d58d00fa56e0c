package whois

import "strings"

// FieldAdapter describes how one ccTLD registry formats its WHOIS response:
// which server answers, and which raw keys carry the registrant, the
// registrant's person name and the registrant country. Keys are matched after
// normalization (lowercase, spaces to underscores), in order.
type FieldAdapter struct {
	TLD            string
	Server         string
	RegistrantKeys []string
	NameKeys       []string
	CountryKeys    []string
}

// Registry holds the per-TLD field adapters. A ccTLD without an entry is
// unsupported: its responses cannot be parsed reliably.
type Registry struct {
	adapters map[string]FieldAdapter
}

// NewAdapterRegistry builds the registry with the built-in adapter set.
func NewAdapterRegistry() *Registry {
	r := &Registry{adapters: make(map[string]FieldAdapter)}
	for _, a := range builtinAdapters {
		r.adapters[a.TLD] = a
	}
	return r
}

// ForTLD returns the adapter for a TLD.
func (r *Registry) ForTLD(tld string) (FieldAdapter, bool) {
	a, ok := r.adapters[strings.ToLower(tld)]
	return a, ok
}

// TLDs lists every TLD with a registered adapter.
func (r *Registry) TLDs() []string {
	tlds := make([]string, 0, len(r.adapters))
	for tld := range r.adapters {
		tlds = append(tlds, tld)
	}
	return tlds
}

// The built-in adapter set covers the registries this service is asked about
// most. Field names were taken from live registry responses; several
// registries (nic.es among them) only disclose the registrant to accredited
// parties, which surfaces here as a missing field and flows into the
// country-fallback chain.
var builtinAdapters = []FieldAdapter{
	{
		TLD:            "es",
		Server:         "whois.nic.es",
		RegistrantKeys: []string{"registrant", "registrant_organization"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "fr",
		Server:         "whois.nic.fr",
		RegistrantKeys: []string{"contact", "holder_c", "registrant"},
		NameKeys:       []string{"contact_name"},
		CountryKeys:    []string{"country"},
	},
	{
		TLD:            "pt",
		Server:         "whois.dns.pt",
		RegistrantKeys: []string{"owner", "titular"},
		NameKeys:       []string{"owner_name"},
		CountryKeys:    []string{"owner_country"},
	},
	{
		TLD:            "uk",
		Server:         "whois.nic.uk",
		RegistrantKeys: []string{"registrant"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "de",
		Server:         "whois.denic.de",
		RegistrantKeys: []string{"holder", "organisation"},
		NameKeys:       []string{"name"},
		CountryKeys:    []string{"countrycode", "country"},
	},
	{
		TLD:            "it",
		Server:         "whois.nic.it",
		RegistrantKeys: []string{"registrant_organization", "organization"},
		NameKeys:       []string{"registrant_name", "name"},
		CountryKeys:    []string{"registrant_country", "country"},
	},
	{
		TLD:            "nl",
		Server:         "whois.domain-registry.nl",
		RegistrantKeys: []string{"registrar", "registrant"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "se",
		Server:         "whois.iis.se",
		RegistrantKeys: []string{"holder"},
		NameKeys:       []string{"holder_name"},
		CountryKeys:    []string{"country"},
	},
	{
		TLD:            "cl",
		Server:         "whois.nic.cl",
		RegistrantKeys: []string{"registrant_organization", "registrant_organisation"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "br",
		Server:         "whois.registro.br",
		RegistrantKeys: []string{"owner", "ownerid"},
		NameKeys:       []string{"person"},
		CountryKeys:    []string{"country"},
	},
	{
		TLD:            "mx",
		Server:         "whois.mx",
		RegistrantKeys: []string{"registrant", "organization"},
		NameKeys:       []string{"name"},
		CountryKeys:    []string{"country"},
	},
	{
		TLD:            "ar",
		Server:         "whois.nic.ar",
		RegistrantKeys: []string{"registrant", "organization"},
		NameKeys:       []string{"name"},
		CountryKeys:    []string{"country"},
	},
	{
		TLD:            "co",
		Server:         "whois.nic.co",
		RegistrantKeys: []string{"registrant_organization"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "io",
		Server:         "whois.nic.io",
		RegistrantKeys: []string{"registrant_organization", "registrant_organisation"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "me",
		Server:         "whois.nic.me",
		RegistrantKeys: []string{"registrant_organization"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "tv",
		Server:         "whois.nic.tv",
		RegistrantKeys: []string{"registrant_organization"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "us",
		Server:         "whois.nic.us",
		RegistrantKeys: []string{"registrant_organization"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "ai",
		Server:         "whois.nic.ai",
		RegistrantKeys: []string{"registrant_organization", "organization"},
		NameKeys:       []string{"registrant_name", "name"},
		CountryKeys:    []string{"registrant_country", "country"},
	},
	// Regional TLDs. Their registries publish sparse registrant data, so most
	// lookups continue into the designated country.
	{
		TLD:            "eus",
		Server:         "whois.nic.eus",
		RegistrantKeys: []string{"registrant_organization"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "cat",
		Server:         "whois.nic.cat",
		RegistrantKeys: []string{"registrant_organization"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "gal",
		Server:         "whois.nic.gal",
		RegistrantKeys: []string{"registrant_organization"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "bzh",
		Server:         "whois.nic.bzh",
		RegistrantKeys: []string{"registrant_organization"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
	{
		TLD:            "scot",
		Server:         "whois.nic.scot",
		RegistrantKeys: []string{"registrant_organization"},
		NameKeys:       []string{"registrant_name"},
		CountryKeys:    []string{"registrant_country"},
	},
}
