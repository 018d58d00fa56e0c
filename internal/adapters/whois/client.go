// Package whois implements the WHOIS provider: a raw port-43 client, the
// per-TLD field adapters that normalize registry responses into typed
// records, and the cache/breaker decorators wrapped around it.
package whois

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

const (
	whoisPort  = "43"
	ianaServer = "whois.iana.org"

	maxResponseBytes = 64 << 10
)

// Generic registry keys tried for gTLD responses, in preference order.
var (
	genericOrgKeys     = []string{"registrant_organization", "registrant_organisation", "org", "organization"}
	genericNameKeys    = []string{"registrant_name", "name"}
	genericCountryKeys = []string{"registrant_country", "country"}
)

// Placeholder phrases registries answer with for unregistered domains.
// Matching one of these is the soft not-registered condition, distinct from a
// transport failure.
var notRegisteredMarkers = []string{
	"no match",
	"not found",
	"no entries found",
	"no data found",
	"status: available",
	"domain not registered",
	"the queried object does not exist",
}

// Client is the network WHOIS provider. Generic TLDs are queried through an
// IANA referral (cached per TLD); ccTLDs go to their adapter's server and are
// parsed with the adapter's field mapping.
type Client struct {
	adapters *Registry
	timeout  time.Duration
	log      zerolog.Logger

	mu       sync.RWMutex
	referral map[string]string // gTLD -> authoritative server

	// test seam
	dial func(ctx context.Context, addr string) (net.Conn, error)
}

var _ ports.WhoisProvider = (*Client)(nil)

// NewClient creates a WHOIS client with the given per-call timeout.
func NewClient(adapters *Registry, timeout time.Duration, log zerolog.Logger) *Client {
	c := &Client{
		adapters: adapters,
		timeout:  timeout,
		log:      log.With().Str("component", "whois").Logger(),
		referral: make(map[string]string),
	}
	c.dial = func(ctx context.Context, addr string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}
	return c
}

// Lookup queries registration data for a domain and normalizes the response.
func (c *Client) Lookup(ctx context.Context, fqdn, tld string) (*domain.WhoisRecord, error) {
	if adapter, ok := c.adapters.ForTLD(tld); ok {
		return c.lookupWithAdapter(ctx, fqdn, adapter)
	}
	return c.lookupGeneric(ctx, fqdn, tld)
}

func (c *Client) lookupWithAdapter(ctx context.Context, fqdn string, adapter FieldAdapter) (*domain.WhoisRecord, error) {
	raw, err := c.query(ctx, adapter.Server, fqdn)
	if err != nil {
		return nil, err
	}

	fields := parseResponse(raw)
	return &domain.WhoisRecord{
		Organization: firstField(fields, adapter.RegistrantKeys),
		Name:         firstField(fields, adapter.NameKeys),
		CountryCode:  firstField(fields, adapter.CountryKeys),
		Raw:          fields,
	}, nil
}

func (c *Client) lookupGeneric(ctx context.Context, fqdn, tld string) (*domain.WhoisRecord, error) {
	server, err := c.authoritativeServer(ctx, tld)
	if err != nil {
		return nil, err
	}

	raw, err := c.query(ctx, server, fqdn)
	if err != nil {
		return nil, err
	}
	fields := parseResponse(raw)

	// Thin registries point at the registrar's server for contact data.
	if registrar := fields["registrar_whois_server"]; registrar != "" && registrar != server {
		if deeper, err := c.query(ctx, registrar, fqdn); err == nil {
			for k, v := range parseResponse(deeper) {
				if _, exists := fields[k]; !exists {
					fields[k] = v
				}
			}
		}
	}

	return &domain.WhoisRecord{
		Organization: firstField(fields, genericOrgKeys),
		Name:         firstField(fields, genericNameKeys),
		CountryCode:  firstField(fields, genericCountryKeys),
		Raw:          fields,
	}, nil
}

// authoritativeServer discovers (and caches) the WHOIS server for a generic
// TLD via IANA's registry of registries.
func (c *Client) authoritativeServer(ctx context.Context, tld string) (string, error) {
	c.mu.RLock()
	server, ok := c.referral[tld]
	c.mu.RUnlock()
	if ok {
		return server, nil
	}

	raw, err := c.query(ctx, ianaServer, tld)
	if err != nil {
		return "", fmt.Errorf("iana referral for %q failed: %w", tld, err)
	}

	server = parseResponse(raw)["refer"]
	if server == "" {
		return "", fmt.Errorf("no whois referral for tld %q", tld)
	}

	c.mu.Lock()
	c.referral[tld] = server
	c.mu.Unlock()
	return server, nil
}

// query performs one raw WHOIS exchange and checks for not-registered
// placeholder responses.
func (c *Client) query(ctx context.Context, server, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(ctx, net.JoinHostPort(server, whoisPort))
	if err != nil {
		return "", fmt.Errorf("whois dial %s: %w", server, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := fmt.Fprintf(conn, "%s\r\n", target); err != nil {
		return "", fmt.Errorf("whois write %s: %w", server, err)
	}

	var sb strings.Builder
	reader := bufio.NewReader(conn)
	buf := make([]byte, 4096)
	for sb.Len() < maxResponseBytes {
		n, err := reader.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}

	text := sb.String()
	lower := strings.ToLower(text)
	for _, marker := range notRegisteredMarkers {
		if strings.Contains(lower, marker) {
			return "", fmt.Errorf("%s on %s: %w", target, server, ports.ErrNotRegistered)
		}
	}
	return text, nil
}

// parseResponse turns a key: value WHOIS body into a normalized field map.
// Keys are lowercased with spaces and slashes collapsed to underscores; the
// first occurrence of a key wins, matching how registries order their output
// (registrant blocks precede admin/tech contacts).
func parseResponse(raw string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		key = strings.ReplaceAll(key, " ", "_")
		key = strings.ReplaceAll(key, "/", "_")
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		if _, exists := fields[key]; !exists {
			fields[key] = value
		}
	}
	return fields
}

func firstField(fields map[string]string, keys []string) string {
	for _, k := range keys {
		if v := fields[k]; v != "" {
			return v
		}
	}
	return ""
}
