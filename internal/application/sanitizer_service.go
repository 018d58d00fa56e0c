// Package application wires the verdict engine into a service the transport
// layer can call, and owns process-level concerns around it: seeding the
// reference data the engine expects and exposing the single Validate entry
// point.
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
	"github.com/sentinelmail/domain-sanitizer/internal/domain/sanitize"
)

// DefaultOmitWords are the noise tokens stripped during candidate extraction.
// They are seeded into the omit-word store on startup and editable there
// afterwards.
var DefaultOmitWords = []string{
	"mail", "email", "webmail", "correo",
	"secure", "security", "login", "signin", "account", "accounts",
	"verify", "verification", "update", "support", "help", "service",
	"online", "portal", "cloud", "app", "web", "info", "news",
	"noreply", "no-reply", "notifications", "alerts",
}

// DefaultMailProviders are the personal/general mail domains whose senders are
// legitimate by definition.
var DefaultMailProviders = []string{
	"gmail.com", "outlook.com", "hotmail.com", "live.com",
	"yahoo.com", "ymail.com",
	"icloud.com", "me.com", "mac.com",
	"proton.me", "protonmail.com",
	"zoho.com", "zohomail.com",
	"aol.com", "gmx.com", "mail.com",
}

// Seeder is implemented by stores that accept reference-data seeding.
type Seeder interface {
	SeedOmitWords(ctx context.Context, words []string) error
	SeedProviders(ctx context.Context, domains []string) error
}

// SanitizerService is the application facade over the verdict engine.
type SanitizerService struct {
	engine *sanitize.Engine
	log    zerolog.Logger
}

// NewSanitizerService creates the service around a wired engine.
func NewSanitizerService(engine *sanitize.Engine, log zerolog.Logger) *SanitizerService {
	return &SanitizerService{
		engine: engine,
		log:    log.With().Str("component", "service").Logger(),
	}
}

// Validate classifies one email address. It never returns an error: every
// failure mode inside the pipeline degrades to a conservative verdict.
func (s *SanitizerService) Validate(ctx context.Context, email string) *domain.VerdictResult {
	result := s.engine.Validate(ctx, email)

	s.log.Info().
		Str("request_id", result.RequestID).
		Str("verdict", string(result.Verdict)).
		Float64("confidence", result.Confidence).
		Msg("email validated")

	return result
}

// SeedReferenceData loads the default omit words and mail providers into the
// store. Seeding is idempotent and best-effort: a failure is logged, never
// fatal, because the extractor and provider check both degrade gracefully.
func SeedReferenceData(ctx context.Context, seeder Seeder, log zerolog.Logger) {
	if err := seeder.SeedOmitWords(ctx, DefaultOmitWords); err != nil {
		log.Warn().Err(err).Msg("omit-word seeding failed")
	}
	if err := seeder.SeedProviders(ctx, DefaultMailProviders); err != nil {
		log.Warn().Err(err).Msg("mail-provider seeding failed")
	}
}
