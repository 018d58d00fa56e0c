package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

// PostgresStore implements the brand, omit-word and mail-provider stores on
// PostgreSQL. The brand corpus's coarse fuzzy search runs on pg_trgm over a
// visually normalized search column; set-valued fields are TEXT[] columns
// mutated only through single-statement conditional appends, which keeps
// concurrent enrichment of the same brand lost-update free without explicit
// locking.
type PostgresStore struct {
	db *sql.DB
}

var (
	_ ports.BrandStore    = (*PostgresStore)(nil)
	_ ports.OmitWordStore = (*PostgresStore)(nil)
	_ ports.ProviderStore = (*PostgresStore)(nil)
)

// NewPostgresStore connects and verifies the database.
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// InitSchema creates tables and indexes if they don't exist. Schema migration
// tooling is deliberately out of scope; the inline DDL keeps local setup to a
// single binary.
func (s *PostgresStore) InitSchema() error {
	schema := `
	CREATE EXTENSION IF NOT EXISTS pg_trgm;

	-- The brand corpus. search_norm is the indexed search form of the id:
	-- hyphens stripped, lookalike digits mapped to letters. The three array
	-- columns are append-only sets.
	CREATE TABLE IF NOT EXISTS brands (
		id TEXT PRIMARY KEY,
		country_code VARCHAR(2) NOT NULL DEFAULT '',
		sector TEXT NOT NULL DEFAULT '',
		keywords TEXT[] NOT NULL DEFAULT '{}',
		owner_terms TEXT[] NOT NULL DEFAULT '{}',
		known_domains TEXT[] NOT NULL DEFAULT '{}',
		search_norm TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_brands_search_trgm
		ON brands USING gin (search_norm gin_trgm_ops);
	CREATE INDEX IF NOT EXISTS idx_brands_known_domains
		ON brands USING gin (known_domains);

	-- Noise words stripped during candidate extraction. Deactivate instead of
	-- deleting so curation mistakes are reversible.
	CREATE TABLE IF NOT EXISTS omit_words (
		word TEXT PRIMARY KEY,
		lang TEXT NOT NULL DEFAULT 'mixed',
		scope TEXT NOT NULL DEFAULT 'domain',
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	-- Personal/general mail providers (gmail.com, outlook.com, ...).
	CREATE TABLE IF NOT EXISTS mail_providers (
		domain TEXT PRIMARY KEY,
		base_name TEXT NOT NULL,
		tags TEXT[] NOT NULL DEFAULT '{}'
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// GetBrand fetches one profile by id.
func (s *PostgresStore) GetBrand(ctx context.Context, id string) (*domain.BrandProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, country_code, sector, keywords, owner_terms, known_domains
		FROM brands WHERE id = $1`, id)
	return scanBrand(row)
}

// CreateBrand inserts a new profile; an already existing id is left as is.
func (s *PostgresStore) CreateBrand(ctx context.Context, brand *domain.BrandProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO brands (id, country_code, sector, keywords, owner_terms, known_domains, search_norm)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		brand.ID,
		brand.CountryCode,
		brand.Sector,
		pq.Array(orEmpty(brand.Keywords)),
		pq.Array(orEmpty(brand.OwnerTerms)),
		pq.Array(orEmpty(brand.KnownDomains)),
		searchTerm(brand.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to create brand %s: %w", brand.ID, err)
	}
	return nil
}

// FindByKnownDomain returns the brand holding an exact known-domain entry.
func (s *PostgresStore) FindByKnownDomain(ctx context.Context, fqdn string) (*domain.BrandProfile, error) {
	fqdn = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(fqdn), "."))
	row := s.db.QueryRowContext(ctx, `
		SELECT id, country_code, sector, keywords, owner_terms, known_domains
		FROM brands WHERE $1 = ANY(known_domains) LIMIT 1`, fqdn)
	return scanBrand(row)
}

// SearchNGram runs the coarse candidate filter. pg_trgm only indexes
// trigrams, so the bigram granularity requested for short terms is served by
// word_similarity, which is the more permissive measure and safe to
// over-return: the caller re-ranks by exact edit distance anyway.
func (s *PostgresStore) SearchNGram(ctx context.Context, q ports.BrandSearchQuery) ([]string, error) {
	measure := "similarity(search_norm, $1)"
	if q.Gram <= 2 {
		measure = "word_similarity($1, search_norm)"
	}

	query := fmt.Sprintf(`
		SELECT id FROM brands
		WHERE %s >= $2
		ORDER BY %s DESC, id
		LIMIT $3`, measure, measure)

	rows, err := s.db.QueryContext(ctx, query, q.Term, q.MinOverlap, q.Size)
	if err != nil {
		return nil, fmt.Errorf("n-gram search failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SearchFuzzy is the broader backup query with a low fixed threshold.
func (s *PostgresStore) SearchFuzzy(ctx context.Context, term string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM brands
		WHERE similarity(search_norm, $1) >= 0.3
		ORDER BY similarity(search_norm, $1) DESC, id
		LIMIT 1`, term).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ports.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("fuzzy search failed: %w", err)
	}
	return id, nil
}

// AddKnownDomain appends the domain unless already present. The guard and the
// append happen in one statement, so concurrent writers cannot lose updates.
func (s *PostgresStore) AddKnownDomain(ctx context.Context, id, fqdn string) error {
	fqdn = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(fqdn), "."))
	return s.appendToSet(ctx, "known_domains", id, fqdn)
}

// AddOwnerTerms tokenizes the owner text and appends each unseen token,
// preserving the order in which tokens were first observed.
func (s *PostgresStore) AddOwnerTerms(ctx context.Context, id, ownerText string) error {
	for _, token := range domain.TokenizeText(ownerText) {
		if err := s.appendToSet(ctx, "owner_terms", id, token); err != nil {
			return err
		}
	}
	return nil
}

// AddKeyword appends one keyword unless already present.
func (s *PostgresStore) AddKeyword(ctx context.Context, id, keyword string) error {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}
	return s.appendToSet(ctx, "keywords", id, keyword)
}

func (s *PostgresStore) appendToSet(ctx context.Context, column, id, value string) error {
	query := fmt.Sprintf(`
		UPDATE brands
		SET %s = array_append(%s, $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(%s))`, column, column, column)
	if _, err := s.db.ExecContext(ctx, query, id, value); err != nil {
		return fmt.Errorf("failed to append to %s of brand %s: %w", column, id, err)
	}
	return nil
}

// ActiveWords returns the active omit words.
func (s *PostgresStore) ActiveWords(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT word FROM omit_words WHERE active ORDER BY word`)
	if err != nil {
		return nil, fmt.Errorf("failed to load omit words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// IsPersonal reports whether the domain is a known personal mail provider.
func (s *PostgresStore) IsPersonal(ctx context.Context, fqdn string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM mail_providers WHERE domain = $1)`,
		strings.ToLower(strings.TrimSpace(fqdn)),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("provider lookup failed: %w", err)
	}
	return exists, nil
}

// SeedOmitWords inserts words as active, skipping those already present.
func (s *PostgresStore) SeedOmitWords(ctx context.Context, words []string) error {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO omit_words (word) VALUES ($1)
			ON CONFLICT (word) DO NOTHING`, w); err != nil {
			return fmt.Errorf("failed to seed omit word %q: %w", w, err)
		}
	}
	return nil
}

// SeedProviders inserts personal mail provider domains.
func (s *PostgresStore) SeedProviders(ctx context.Context, domains []string) error {
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		base := d
		if i := strings.Index(d, "."); i > 0 {
			base = d[:i]
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO mail_providers (domain, base_name, tags)
			VALUES ($1, $2, $3)
			ON CONFLICT (domain) DO NOTHING`,
			d, base, pq.Array([]string{"general-supplier", "personal-mail"})); err != nil {
			return fmt.Errorf("failed to seed provider %q: %w", d, err)
		}
	}
	return nil
}

func scanBrand(row *sql.Row) (*domain.BrandProfile, error) {
	var brand domain.BrandProfile
	err := row.Scan(
		&brand.ID,
		&brand.CountryCode,
		&brand.Sector,
		pq.Array(&brand.Keywords),
		pq.Array(&brand.OwnerTerms),
		pq.Array(&brand.KnownDomains),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan brand: %w", err)
	}
	return &brand, nil
}

func orEmpty(set []string) []string {
	if set == nil {
		return []string{}
	}
	return set
}
