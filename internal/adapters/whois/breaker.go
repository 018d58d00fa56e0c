package whois

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

// Breaker shields the pipeline from a misbehaving WHOIS path. Repeated
// transport failures open the circuit and subsequent lookups fail fast; the
// resolver already treats those as unresolved owners, so a registry outage
// costs latency on a handful of requests instead of every request.
//
// Not-registered and unsupported-TLD results are valid answers, not failures,
// and do not count against the circuit.
type Breaker struct {
	next ports.WhoisProvider
	cb   *gobreaker.CircuitBreaker
}

var _ ports.WhoisProvider = (*Breaker)(nil)

// NewBreaker wraps a provider with a circuit breaker.
func NewBreaker(next ports.WhoisProvider, log zerolog.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:    "whois",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("whois circuit state changed")
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Lookup delegates through the circuit breaker.
func (b *Breaker) Lookup(ctx context.Context, fqdn, tld string) (*domain.WhoisRecord, error) {
	var softErr error

	result, err := b.cb.Execute(func() (interface{}, error) {
		rec, lookupErr := b.next.Lookup(ctx, fqdn, tld)
		if lookupErr != nil {
			if errors.Is(lookupErr, ports.ErrNotRegistered) || errors.Is(lookupErr, ports.ErrUnsupportedTLD) {
				softErr = lookupErr
				return nil, nil
			}
			return nil, lookupErr
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	if softErr != nil {
		return nil, softErr
	}
	return result.(*domain.WhoisRecord), nil
}
