package whois

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelmail/domain-sanitizer/internal/ports"
)

// fakeRegistries wires the client's dial seam to scripted per-server
// responses. Each connection reads the query line and answers with the
// server's canned body.
func fakeRegistries(responses map[string]string) func(ctx context.Context, addr string) (net.Conn, error) {
	return func(ctx context.Context, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		body, ok := responses[host]
		if !ok {
			return nil, &net.DNSError{Err: "no such host", Name: host}
		}

		client, server := net.Pipe()
		go func() {
			defer server.Close()
			_, _ = bufio.NewReader(server).ReadString('\n')
			_, _ = server.Write([]byte(body))
		}()
		return client, nil
	}
}

func newTestClient(responses map[string]string) *Client {
	c := NewClient(NewAdapterRegistry(), 2*time.Second, zerolog.Nop())
	c.dial = fakeRegistries(responses)
	return c
}

func TestClient_AdapterLookup(t *testing.T) {
	client := newTestClient(map[string]string{
		"whois.nic.es": "" +
			"% Spanish registry response\n" +
			"Domain: santander.es\n" +
			"Registrant: Banco Santander SA\n" +
			"Registrant Country: ES\n",
	})

	rec, err := client.Lookup(context.Background(), "santander.es", "es")
	require.NoError(t, err)
	assert.Equal(t, "Banco Santander SA", rec.Organization)
	assert.Equal(t, "ES", rec.CountryCode)
}

func TestClient_GenericLookupFollowsIANAReferral(t *testing.T) {
	client := newTestClient(map[string]string{
		"whois.iana.org": "refer: whois.example-registry.com\n",
		"whois.example-registry.com": "" +
			"Domain Name: acme.com\n" +
			"Registrant Organization: Acme Corporation\n" +
			"Registrant Country: US\n",
	})

	rec, err := client.Lookup(context.Background(), "acme.com", "com")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corporation", rec.Organization)
	assert.Equal(t, "US", rec.CountryCode)
}

func TestClient_ReferralIsCachedPerTLD(t *testing.T) {
	ianaHits := 0
	client := NewClient(NewAdapterRegistry(), 2*time.Second, zerolog.Nop())
	inner := fakeRegistries(map[string]string{
		"whois.iana.org":             "refer: whois.example-registry.com\n",
		"whois.example-registry.com": "Registrant Organization: Acme Corporation\n",
	})
	client.dial = func(ctx context.Context, addr string) (net.Conn, error) {
		if host, _, _ := net.SplitHostPort(addr); host == "whois.iana.org" {
			ianaHits++
		}
		return inner(ctx, addr)
	}

	for i := 0; i < 3; i++ {
		_, err := client.Lookup(context.Background(), "acme.com", "com")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, ianaHits)
}

func TestClient_RegistrarServerFollowUp(t *testing.T) {
	client := newTestClient(map[string]string{
		"whois.iana.org": "refer: whois.thin-registry.com\n",
		"whois.thin-registry.com": "" +
			"Domain Name: acme.com\n" +
			"Registrar WHOIS Server: whois.some-registrar.com\n",
		"whois.some-registrar.com": "" +
			"Registrant Organization: Acme Corporation\n" +
			"Registrant Country: US\n",
	})

	rec, err := client.Lookup(context.Background(), "acme.com", "com")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corporation", rec.Organization)
}

func TestClient_NotRegistered(t *testing.T) {
	client := newTestClient(map[string]string{
		"whois.iana.org":             "refer: whois.example-registry.com\n",
		"whois.example-registry.com": "No match for domain \"ZZQQ.COM\".\n",
	})

	_, err := client.Lookup(context.Background(), "zzqq.com", "com")
	assert.ErrorIs(t, err, ports.ErrNotRegistered)
}

func TestClient_DialFailure(t *testing.T) {
	client := newTestClient(map[string]string{})

	_, err := client.Lookup(context.Background(), "santander.es", "es")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrNotRegistered)
}

func TestParseResponse(t *testing.T) {
	raw := "" +
		"% comment line\n" +
		"# another comment\n" +
		"Domain Name: acme.com\n" +
		"Registrant Organization: Acme Corporation\n" +
		"Registrant Organization: Later Duplicate Ignored\n" +
		"Admin/Tech Contact: someone\n" +
		"  Padded Key:  padded value  \n" +
		"no colon line\n" +
		"Empty Value:\n"

	fields := parseResponse(raw)
	assert.Equal(t, "acme.com", fields["domain_name"])
	assert.Equal(t, "Acme Corporation", fields["registrant_organization"])
	assert.Equal(t, "someone", fields["admin_tech_contact"])
	assert.Equal(t, "padded value", fields["padded_key"])
	assert.NotContains(t, fields, "empty_value")
}

func TestFirstField(t *testing.T) {
	fields := map[string]string{"name": "John Smith", "registrant_name": "Acme Holder"}
	assert.Equal(t, "Acme Holder", firstField(fields, []string{"registrant_name", "name"}))
	assert.Equal(t, "John Smith", firstField(fields, []string{"missing", "name"}))
	assert.Equal(t, "", firstField(fields, []string{"missing"}))
}

func TestAdapterRegistry(t *testing.T) {
	registry := NewAdapterRegistry()

	adapter, ok := registry.ForTLD("ES")
	require.True(t, ok)
	assert.Equal(t, "whois.nic.es", adapter.Server)

	_, ok = registry.ForTLD("ng")
	assert.False(t, ok)

	assert.Contains(t, registry.TLDs(), "uk")
	assert.Contains(t, registry.TLDs(), "eus")
}
