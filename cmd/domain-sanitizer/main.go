package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sentinelmail/domain-sanitizer/internal/adapters/httpapi"
	"github.com/sentinelmail/domain-sanitizer/internal/adapters/storage"
	"github.com/sentinelmail/domain-sanitizer/internal/adapters/tldregistry"
	"github.com/sentinelmail/domain-sanitizer/internal/adapters/whois"
	"github.com/sentinelmail/domain-sanitizer/internal/application"
	"github.com/sentinelmail/domain-sanitizer/internal/config"
	"github.com/sentinelmail/domain-sanitizer/internal/domain/sanitize"
	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

const shutdownGrace = 15 * time.Second

// stores groups the three reference-data ports a backend must provide.
type stores struct {
	brands    ports.BrandStore
	omitWords ports.OmitWordStore
	providers ports.ProviderStore
	seeder    application.Seeder
	close     func() error
}

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "domain-sanitizer").Logger()

	log.Info().Str("port", cfg.Port).Msg("starting domain sanitizer")

	ctx := context.Background()

	st := openStores(cfg, log)
	defer func() {
		if err := st.close(); err != nil {
			log.Warn().Err(err).Msg("store close failed")
		}
	}()
	application.SeedReferenceData(ctx, st.seeder, log)

	// WHOIS chain: raw client -> optional redis cache -> circuit breaker.
	adapters := whois.NewAdapterRegistry()
	var provider ports.WhoisProvider = whois.NewClient(adapters, cfg.WhoisTimeout, log)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, whois cache disabled")
		} else {
			provider = whois.NewRecordCache(provider, rdb, cfg.WhoisCacheTTL, log)
		}
	}
	provider = whois.NewBreaker(provider, log)

	registry := tldregistry.New(adapters.TLDs())

	engine := sanitize.NewEngine(
		sanitize.NewExtractor(st.omitWords, log),
		sanitize.NewMatcher(st.brands, log),
		sanitize.NewOwnerResolver(registry, provider, log),
		st.brands,
		st.providers,
		log,
	)
	service := application.NewSanitizerService(engine, log)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpapi.NewServer(service, log).Handler(),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Msg("listening")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}

// openStores connects to Postgres when configured and falls back to the
// in-memory backend otherwise. A store outage at startup must not keep the
// service from answering: verdicts degrade, they do not disappear.
func openStores(cfg config.Config, log zerolog.Logger) stores {
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresStore(cfg.DatabaseURL)
		if err == nil {
			if err := pg.InitSchema(); err != nil {
				log.Error().Err(err).Msg("schema init failed")
			}
			log.Info().Msg("connected to postgres")
			return stores{brands: pg, omitWords: pg, providers: pg, seeder: pg, close: pg.Close}
		}
		log.Error().Err(err).Msg("postgres unreachable, falling back to in-memory stores")
	}

	mem := storage.NewMemoryStore()
	return stores{brands: mem, omitWords: mem, providers: mem, seeder: mem, close: func() error { return nil }}
}
