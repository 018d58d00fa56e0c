package sanitize

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

// Engine combines extraction, matching, owner resolution and relation
// classification into a single terminal verdict per request, and enriches the
// brand store as a best-effort side effect of every owner match.
type Engine struct {
	extractor *Extractor
	matcher   *Matcher
	resolver  *OwnerResolver
	brands    ports.BrandStore
	providers ports.ProviderStore
	log       zerolog.Logger
}

// NewEngine wires the verdict engine from its collaborators.
func NewEngine(
	extractor *Extractor,
	matcher *Matcher,
	resolver *OwnerResolver,
	brands ports.BrandStore,
	providers ports.ProviderStore,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		extractor: extractor,
		matcher:   matcher,
		resolver:  resolver,
		brands:    brands,
		providers: providers,
		log:       log.With().Str("component", "engine").Logger(),
	}
}

const ownerNotFoundDisplay = "not found"

// Validate produces the verdict for one raw email address. It never returns
// an error: malformed input and collaborator outages degrade to conservative
// verdicts with explanatory detail.
func (e *Engine) Validate(ctx context.Context, rawEmail string) *domain.VerdictResult {
	addr, err := domain.ParseEmail(rawEmail)
	if err != nil {
		return e.rejectInvalid(rawEmail, err)
	}

	// Personal/general mail providers are legitimate by definition and skip
	// all brand work.
	if personal, perr := e.providers.IsPersonal(ctx, addr.Domain); perr != nil {
		e.log.Warn().Err(perr).Str("domain", addr.Domain).Msg("provider store unreachable")
	} else if personal {
		base := addr.Domain
		if i := strings.Index(base, "."); i > 0 {
			base = base[:i]
		}
		return &domain.VerdictResult{
			RequestID:     uuid.NewString(),
			Email:         rawEmail,
			Verdict:       domain.VerdictValid,
			VerdictDetail: "General-supplier's domain",
			Confidence:    1.0,
			Labels:        []string{base, domain.LabelGeneralSupplier},
			Evidences:     []domain.Evidence{},
		}
	}

	parts := SplitDomain(addr.Domain)
	candidate := e.extractor.Candidate(ctx, parts)
	match := e.matcher.Match(ctx, candidate)

	if match.Type == domain.MatchNone {
		return e.handleUnknownBrand(ctx, rawEmail, parts, candidate)
	}
	return e.judgeKnownBrand(ctx, rawEmail, parts, candidate, match)
}

func (e *Engine) rejectInvalid(rawEmail string, err error) *domain.VerdictResult {
	result := &domain.VerdictResult{
		RequestID:  uuid.NewString(),
		Email:      rawEmail,
		Verdict:    domain.VerdictPhishing,
		Confidence: 0,
		Evidences:  []domain.Evidence{},
	}
	if errors.Is(err, domain.ErrASCIIAnomaly) {
		result.VerdictDetail = "Ascii anomaly detected"
		result.Labels = []string{domain.LabelInvalidFormat, domain.LabelASCIIAnomaly}
	} else {
		result.VerdictDetail = "Invalid email format"
		result.Labels = []string{domain.LabelInvalidFormat}
	}
	return result
}

// handleUnknownBrand covers candidates no known brand matched. When the
// candidate's root domain has a resolvable owner it becomes a brand-new
// profile and the request is flagged for review; otherwise nothing ties the
// domain to any identity and the conservative verdict is phishing.
func (e *Engine) handleUnknownBrand(ctx context.Context, rawEmail string, parts DomainParts, candidate string) *domain.VerdictResult {
	detected := candidate
	brandID := domain.NormalizeBrandID(candidate)
	rootDomain := brandID + "." + parts.Suffix

	owner, err := e.resolver.ResolveOwner(ctx, rootDomain)
	if err != nil {
		if !errors.Is(err, ErrOwnerNotFound) {
			e.log.Warn().Err(err).Str("domain", rootDomain).Msg("owner resolution failed")
		}
		return &domain.VerdictResult{
			RequestID:           uuid.NewString(),
			Email:               rawEmail,
			Verdict:             domain.VerdictPhishing,
			VerdictDetail:       "Domain matches no known brand and has no resolvable owner",
			CompanyDetected:     &detected,
			CompanyImpersonated: &detected,
			Confidence:          0,
			Labels:              []string{domain.LabelSuspicious, domain.LabelOwnerMismatch},
			Evidences: []domain.Evidence{
				{Domain: rootDomain, Owner: ownerNotFoundDisplay, Detail: "candidate root domain"},
			},
		}
	}

	brand := &domain.BrandProfile{
		ID:           brandID,
		OwnerTerms:   domain.TokenizeText(owner),
		KnownDomains: []string{rootDomain},
	}
	if err := e.brands.CreateBrand(ctx, brand); err != nil {
		e.log.Warn().Err(err).Str("brand_id", brandID).Msg("brand creation failed")
	}

	return &domain.VerdictResult{
		RequestID:       uuid.NewString(),
		Email:           rawEmail,
		Verdict:         domain.VerdictWarning,
		VerdictDetail:   "First sighting of this brand, created from WHOIS owner",
		CompanyDetected: &detected,
		Confidence:      0.5,
		Labels:          []string{domain.LabelNewBrand},
		Evidences: []domain.Evidence{
			{Domain: rootDomain, Owner: owner, Detail: "newly registered brand root"},
		},
	}
}

func (e *Engine) judgeKnownBrand(ctx context.Context, rawEmail string, parts DomainParts, candidate string, match domain.BrandMatch) *domain.VerdictResult {
	brand := match.Brand
	detected := brand.ID
	rootDomain := canonicalRoot(brand, parts)

	var (
		rootOwner     = ownerNotFoundDisplay
		incomingOwner = ownerNotFoundDisplay
		ownersMatch   bool
		similarity    float64
	)

	if brand.HasKnownDomain(parts.FQDN) || brand.HasKnownDomain(parts.Root()) {
		// The domain is already verified for this brand: no WHOIS round trips.
		ownersMatch, similarity = true, 1.0
		rootOwner = strings.Join(brand.OwnerTerms, " ")
		incomingOwner = rootOwner
	} else {
		// The two resolutions are independent of each other; only the hops
		// inside each one are sequential.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			rootOwner = e.resolveOwnerSoft(gctx, rootDomain)
			return nil
		})
		g.Go(func() error {
			incomingOwner = e.resolveOwnerSoft(gctx, parts.FQDN)
			return nil
		})
		_ = g.Wait()

		if rootOwner != ownerNotFoundDisplay && incomingOwner != ownerNotFoundDisplay {
			ownersMatch, similarity = OwnersMatch(rootOwner, incomingOwner)
		}
	}

	relation := ClassifyRelation(rootDomain, parts.FQDN)
	related := relation == RelationSame || relation == RelationSubdomain

	result := &domain.VerdictResult{
		RequestID:       uuid.NewString(),
		Email:           rawEmail,
		CompanyDetected: &detected,
		Confidence:      domain.ClampConfidence(similarity),
		Evidences:       e.buildEvidence(parts, relation, rootDomain, rootOwner, incomingOwner),
	}

	switch {
	case related && ownersMatch:
		result.Verdict = domain.VerdictValid
		result.VerdictDetail = "Legitimate brand domain with matching registrant"
		result.Labels = []string{domain.LabelLegitimate, domain.LabelOwnerMatch}

	case related && !ownersMatch:
		result.Verdict = domain.VerdictWarning
		result.VerdictDetail = "Brand domain whose registrant does not match the brand owner"
		result.Labels = []string{domain.LabelOwnerMismatch}
		result.CompanyImpersonated = &detected

	case ownersMatch: // unrelated domain, same owner
		result.Verdict = domain.VerdictValid
		result.VerdictDetail = "Unrelated domain registered by the same owner"
		result.Labels = []string{domain.LabelLegitimateAlias, domain.LabelOwnerMatch}

	default:
		result.Verdict = domain.VerdictPhishing
		result.VerdictDetail = "Domain and registrant do not match the detected brand"
		result.Labels = []string{domain.LabelSuspicious, domain.LabelOwnerMismatch}
		result.CompanyImpersonated = &detected
	}

	if ownersMatch {
		e.enrichBrand(ctx, brand.ID, parts, incomingOwner, candidate)
	}

	return result
}

// resolveOwnerSoft degrades every resolution failure, including the hard
// unsupported-TLD error, to the not-found display value. The verdict continues
// with reduced confidence instead of crashing the request.
func (e *Engine) resolveOwnerSoft(ctx context.Context, fqdn string) string {
	owner, err := e.resolver.ResolveOwner(ctx, fqdn)
	if err != nil {
		switch {
		case errors.Is(err, ErrOwnerNotFound):
		case errors.Is(err, ports.ErrUnsupportedTLD):
			e.log.Info().Err(err).Str("domain", fqdn).Msg("owner unresolved, tld unsupported")
		default:
			e.log.Warn().Err(err).Str("domain", fqdn).Msg("owner resolution failed")
		}
		return ownerNotFoundDisplay
	}
	return owner
}

// enrichBrand appends what this request learned to the matched profile.
// Failures are logged and swallowed: enrichment never changes a verdict.
func (e *Engine) enrichBrand(ctx context.Context, brandID string, parts DomainParts, owner, keyword string) {
	if err := e.brands.AddKnownDomain(ctx, brandID, parts.Root()); err != nil {
		e.log.Warn().Err(err).Str("brand_id", brandID).Msg("known-domain enrichment failed")
	}
	if owner != ownerNotFoundDisplay {
		if err := e.brands.AddOwnerTerms(ctx, brandID, owner); err != nil {
			e.log.Warn().Err(err).Str("brand_id", brandID).Msg("owner-term enrichment failed")
		}
	}
	if keyword != "" {
		if err := e.brands.AddKeyword(ctx, brandID, keyword); err != nil {
			e.log.Warn().Err(err).Str("brand_id", brandID).Msg("keyword enrichment failed")
		}
	}
}

// buildEvidence always includes the brand root; the incoming domain is added
// when it differs from the root, and its immediate superdomain when the
// incoming FQDN sits below the root.
func (e *Engine) buildEvidence(parts DomainParts, relation Relation, rootDomain, rootOwner, incomingOwner string) []domain.Evidence {
	evidences := []domain.Evidence{
		{Domain: rootDomain, Owner: rootOwner, Detail: "brand root domain"},
	}
	if relation != RelationSame {
		evidences = append(evidences, domain.Evidence{
			Domain: parts.FQDN, Owner: incomingOwner, Detail: "incoming domain",
		})
	}
	if relation == RelationSubdomain {
		if super := parts.Superdomain(); super != "" && super != rootDomain {
			evidences = append(evidences, domain.Evidence{
				Domain: super, Owner: rootOwner, Detail: "immediate superdomain",
			})
		}
	}
	return evidences
}

// canonicalRoot picks the brand's root domain for comparison: a known domain
// sharing the incoming suffix if one exists, else the first known domain,
// else the brand id under the incoming suffix.
func canonicalRoot(brand *domain.BrandProfile, parts DomainParts) string {
	for _, d := range brand.KnownDomains {
		if strings.HasSuffix(d, "."+parts.Suffix) {
			return d
		}
	}
	if len(brand.KnownDomains) > 0 {
		return brand.KnownDomains[0]
	}
	return brand.ID + "." + parts.Suffix
}
