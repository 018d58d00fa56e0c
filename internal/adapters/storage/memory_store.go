package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
	"github.com/sentinelmail/domain-sanitizer/internal/domain/sanitize"
	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

// MemoryStore is an in-memory implementation of the brand, omit-word and
// mail-provider stores. It backs tests and the degraded mode the process
// falls into when Postgres is unreachable at startup. The n-gram search is
// the exact overlap computation the persistent index approximates.
type MemoryStore struct {
	mu        sync.RWMutex
	brands    map[string]*domain.BrandProfile
	search    map[string]string // brand id -> visually normalized search term
	omitWords map[string]bool   // word -> active
	providers map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		brands:    make(map[string]*domain.BrandProfile),
		search:    make(map[string]string),
		omitWords: make(map[string]bool),
		providers: make(map[string]struct{}),
	}
}

var (
	_ ports.BrandStore    = (*MemoryStore)(nil)
	_ ports.OmitWordStore = (*MemoryStore)(nil)
	_ ports.ProviderStore = (*MemoryStore)(nil)
)

// GetBrand returns a copy of the stored profile.
func (s *MemoryStore) GetBrand(ctx context.Context, id string) (*domain.BrandProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	brand, ok := s.brands[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return copyBrand(brand), nil
}

// CreateBrand stores a new profile; an existing id is left untouched.
func (s *MemoryStore) CreateBrand(ctx context.Context, brand *domain.BrandProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.brands[brand.ID]; exists {
		return nil
	}
	s.brands[brand.ID] = copyBrand(brand)
	s.search[brand.ID] = searchTerm(brand.ID)
	return nil
}

// FindByKnownDomain returns the brand owning an exact known-domain entry.
func (s *MemoryStore) FindByKnownDomain(ctx context.Context, fqdn string) (*domain.BrandProfile, error) {
	fqdn = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(fqdn), "."))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, brand := range s.brands {
		if brand.HasKnownDomain(fqdn) {
			return copyBrand(brand), nil
		}
	}
	return nil, ports.ErrNotFound
}

// SearchNGram ranks brands by the fraction of the query's n-grams their
// search term contains, keeping those at or above the requested overlap.
func (s *MemoryStore) SearchNGram(ctx context.Context, q ports.BrandSearchQuery) ([]string, error) {
	queryGrams := ngrams(q.Term, q.Gram)
	if len(queryGrams) == 0 {
		return nil, nil
	}

	type scored struct {
		id      string
		overlap float64
	}

	s.mu.RLock()
	var hits []scored
	for id, term := range s.search {
		grams := make(map[string]struct{})
		for _, g := range ngrams(term, q.Gram) {
			grams[g] = struct{}{}
		}
		shared := 0
		for _, g := range queryGrams {
			if _, ok := grams[g]; ok {
				shared++
			}
		}
		if overlap := float64(shared) / float64(len(queryGrams)); overlap >= q.MinOverlap {
			hits = append(hits, scored{id: id, overlap: overlap})
		}
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].overlap != hits[j].overlap {
			return hits[i].overlap > hits[j].overlap
		}
		return hits[i].id < hits[j].id
	})

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if q.Size > 0 && len(ids) >= q.Size {
			break
		}
		ids = append(ids, h.id)
	}
	return ids, nil
}

// fuzzyMaxDistance bounds the backup search the way an auto-fuzziness text
// query would: short terms tolerate one edit, longer ones two.
func fuzzyMaxDistance(term string) int {
	if len(term) <= 5 {
		return 1
	}
	return 2
}

// SearchFuzzy returns the single closest search term within the edit
// tolerance, or ErrNotFound.
func (s *MemoryStore) SearchFuzzy(ctx context.Context, term string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best, bestDist := "", -1
	for id, t := range s.search {
		if dist := sanitize.EditDistance(term, t); bestDist < 0 || dist < bestDist {
			best, bestDist = id, dist
		}
	}
	if best == "" || bestDist > fuzzyMaxDistance(term) {
		return "", ports.ErrNotFound
	}
	return best, nil
}

// AddKnownDomain appends a domain to the brand's set; idempotent.
func (s *MemoryStore) AddKnownDomain(ctx context.Context, id, fqdn string) error {
	fqdn = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(fqdn), "."))

	s.mu.Lock()
	defer s.mu.Unlock()

	brand, ok := s.brands[id]
	if !ok {
		return ports.ErrNotFound
	}
	brand.KnownDomains = appendMissing(brand.KnownDomains, fqdn)
	return nil
}

// AddOwnerTerms merges the owner text's tokens into the brand's term bag,
// old tokens first, without duplicates.
func (s *MemoryStore) AddOwnerTerms(ctx context.Context, id, ownerText string) error {
	tokens := domain.TokenizeText(ownerText)
	if len(tokens) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	brand, ok := s.brands[id]
	if !ok {
		return ports.ErrNotFound
	}
	for _, t := range tokens {
		brand.OwnerTerms = appendMissing(brand.OwnerTerms, t)
	}
	return nil
}

// AddKeyword appends a keyword token to the brand; idempotent.
func (s *MemoryStore) AddKeyword(ctx context.Context, id, keyword string) error {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	brand, ok := s.brands[id]
	if !ok {
		return ports.ErrNotFound
	}
	brand.Keywords = appendMissing(brand.Keywords, keyword)
	return nil
}

// ActiveWords returns the active omit words.
func (s *MemoryStore) ActiveWords(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var words []string
	for w, active := range s.omitWords {
		if active {
			words = append(words, w)
		}
	}
	sort.Strings(words)
	return words, nil
}

// IsPersonal reports whether the domain is a known personal mail provider.
func (s *MemoryStore) IsPersonal(ctx context.Context, fqdn string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.providers[strings.ToLower(strings.TrimSpace(fqdn))]
	return ok, nil
}

// SeedOmitWords marks the given words active.
func (s *MemoryStore) SeedOmitWords(ctx context.Context, words []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range words {
		s.omitWords[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return nil
}

// SeedProviders registers personal mail provider domains.
func (s *MemoryStore) SeedProviders(ctx context.Context, domains []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range domains {
		s.providers[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return nil
}

func copyBrand(b *domain.BrandProfile) *domain.BrandProfile {
	dup := *b
	dup.Keywords = append([]string(nil), b.Keywords...)
	dup.OwnerTerms = append([]string(nil), b.OwnerTerms...)
	dup.KnownDomains = append([]string(nil), b.KnownDomains...)
	return &dup
}

func appendMissing(set []string, v string) []string {
	for _, existing := range set {
		if existing == v {
			return set
		}
	}
	return append(set, v)
}

// searchTerm derives the indexed search form of a brand id: hyphens stripped
// and lookalike digits mapped to letters.
func searchTerm(id string) string {
	return sanitize.NormalizeVisuals(strings.ReplaceAll(strings.ToLower(id), "-", ""))
}

// ngrams returns the fixed-length substrings of s over letters and digits.
func ngrams(s string, n int) []string {
	if n <= 0 || len(s) < n {
		return nil
	}
	out := make([]string, 0, len(s)-n+1)
	for i := 0; i+n <= len(s); i++ {
		out = append(out, s[i:i+n])
	}
	return out
}
