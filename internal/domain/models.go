package domain

import (
	"regexp"
	"strings"
)

// Verdict is the final classification of an email's sending domain
type Verdict string

const (
	VerdictValid    Verdict = "valid"
	VerdictWarning  Verdict = "warning"
	VerdictPhishing Verdict = "phishing"
)

// Well-known result labels attached to verdicts
const (
	LabelInvalidFormat   = "invalid-format"
	LabelASCIIAnomaly    = "ascii-anomaly"
	LabelGeneralSupplier = "general-supplier"
	LabelNewBrand        = "new-brand"
	LabelLegitimate      = "legitimate"
	LabelLegitimateAlias = "legitimate-alias"
	LabelOwnerMatch      = "owner-match"
	LabelOwnerMismatch   = "owner-mismatch"
	LabelSuspicious      = "suspicious"
)

// BrandProfile is the persisted notion of a company identity. It is created on
// the first sighting of an unknown root domain whose WHOIS owner resolved, and
// only ever grows: keywords, owner_terms and known_domains are set-like
// (idempotent add), never overwritten or deleted by this service.
type BrandProfile struct {
	ID           string   `json:"brand_id"`
	CountryCode  string   `json:"country_code,omitempty"` // 2-letter, may be empty
	Sector       string   `json:"sector,omitempty"`
	Keywords     []string `json:"keywords"`
	OwnerTerms   []string `json:"owner_terms"`   // ordered token bag accumulated from WHOIS text
	KnownDomains []string `json:"known_domains"` // FQDNs verified to belong to this brand
}

// HasKnownDomain reports whether the domain is already verified for this brand.
func (b *BrandProfile) HasKnownDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	for _, d := range b.KnownDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// WhoisRecord is the normalized result of a single WHOIS lookup. Every provider
// adapter maps its raw response into this shape at the boundary; nothing past
// the adapter layer sees provider-specific field names. Not persisted.
type WhoisRecord struct {
	Organization string            `json:"organization"`
	Name         string            `json:"name"`
	CountryCode  string            `json:"country_code"`
	Raw          map[string]string `json:"raw,omitempty"`
}

// Evidence is one human-auditable trace entry supporting a verdict
type Evidence struct {
	Domain string `json:"domain"`
	Owner  string `json:"owner"`
	Detail string `json:"detail"`
}

// VerdictResult is the response produced once per request. Immutable after
// creation; the "veredict" spelling is part of the public contract.
type VerdictResult struct {
	RequestID           string     `json:"request_id"`
	Email               string     `json:"email"`
	Verdict             Verdict    `json:"veredict"`
	VerdictDetail       string     `json:"veredict_detail"`
	CompanyImpersonated *string    `json:"company_impersonated"`
	CompanyDetected     *string    `json:"company_detected"`
	Confidence          float64    `json:"confidence"`
	Labels              []string   `json:"labels"`
	Evidences           []Evidence `json:"evidences"`
}

// MatchType describes how the brand matcher arrived at a brand
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchSimilarity MatchType = "similarity"
	MatchNone       MatchType = "none"
)

// BrandMatch is the brand matcher's output: the best known brand for a domain
// candidate, how it was found, and how far away it is.
type BrandMatch struct {
	BrandID    string
	Type       MatchType
	Distance   int
	Confidence float64
	Brand      *BrandProfile // nil when Type == MatchNone
}

var (
	brandIDRe    = regexp.MustCompile(`[^a-z0-9-]+`)
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// TokenizeText lowercases free text, strips punctuation and splits it into
// tokens. Used wherever WHOIS owner text is turned into a term bag.
func TokenizeText(s string) []string {
	s = nonWordRe.ReplaceAllString(strings.ToLower(s), " ")
	var tokens []string
	for _, t := range whitespaceRe.Split(s, -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// NormalizeBrandID reduces free text to a stable brand identifier: lowercase
// alphanumerics and hyphens only. Pure function of its input.
func NormalizeBrandID(s string) string {
	return brandIDRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

// ClampConfidence keeps a confidence score inside [0,1]
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
