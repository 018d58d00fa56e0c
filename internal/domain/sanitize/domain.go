package sanitize

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DomainParts is the suffix-list-aware decomposition of an FQDN. Suffix may be
// multi-label ("com.es"); Subdomain may span several labels.
type DomainParts struct {
	FQDN      string
	Subdomain string
	Label     string // registrable label immediately left of the suffix
	Suffix    string
}

// SplitDomain decomposes a domain using the public suffix list.
func SplitDomain(fqdn string) DomainParts {
	d := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(fqdn), "."))
	suffix, _ := publicsuffix.PublicSuffix(d)

	if d == suffix || !strings.HasSuffix(d, "."+suffix) {
		return DomainParts{FQDN: d, Suffix: suffix}
	}

	rest := strings.TrimSuffix(d, "."+suffix)
	parts := DomainParts{FQDN: d, Label: rest, Suffix: suffix}
	if i := strings.LastIndex(rest, "."); i >= 0 {
		parts.Subdomain, parts.Label = rest[:i], rest[i+1:]
	}
	return parts
}

// Root returns the registrable domain (label.suffix), or the FQDN itself when
// no registrable label could be split off.
func (p DomainParts) Root() string {
	if p.Label == "" {
		return p.FQDN
	}
	return p.Label + "." + p.Suffix
}

// TLD returns the last label of the public suffix.
func (p DomainParts) TLD() string {
	if i := strings.LastIndex(p.Suffix, "."); i >= 0 {
		return p.Suffix[i+1:]
	}
	return p.Suffix
}

// Superdomain returns the immediate parent of the FQDN, or "" when the FQDN
// has no subdomain left to strip.
func (p DomainParts) Superdomain() string {
	if i := strings.Index(p.FQDN, "."); i >= 0 && p.FQDN[i+1:] != p.Suffix {
		return p.FQDN[i+1:]
	}
	return ""
}
