package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmail_Valid(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantDomain string
	}{
		{
			name:       "plain address",
			raw:        "john.doe@santander.es",
			wantDomain: "santander.es",
		},
		{
			name:       "uppercase and surrounding whitespace",
			raw:        "  John.Doe@Santander.ES ",
			wantDomain: "santander.es",
		},
		{
			name:       "subdomain sender",
			raw:        "billing@mail.acme.com",
			wantDomain: "mail.acme.com",
		},
		{
			name:       "plus tag in local part",
			raw:        "user+tag@acme.com",
			wantDomain: "acme.com",
		},
		{
			name:       "no-reply sender with odd local part",
			raw:        "no-reply!alerts@acme.com",
			wantDomain: "acme.com",
		},
		{
			name:       "internationalized TLD is punycoded",
			raw:        "user@acme.中国",
			wantDomain: "acme.xn--fiqs8s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseEmail(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDomain, addr.Domain)
			assert.Equal(t, tt.raw, addr.Raw)
		})
	}
}

func TestParseEmail_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"no at sign", "not-an-email", ErrInvalidEmail},
		{"empty local part", "@acme.com", ErrInvalidEmail},
		{"empty domain", "user@", ErrInvalidEmail},
		{"domain without dot", "user@localhost", ErrInvalidEmail},
		{"empty label in domain", "user@acme..com", ErrInvalidEmail},
		{"space in local part", "john doe@acme.com", ErrInvalidEmail},
		{"unicode local part", "jöhn@acme.com", ErrASCIIAnomaly},
		{"unicode in brand label", "user@pаypal.com", ErrASCIIAnomaly}, // cyrillic а
		{"unicode in subdomain", "user@sécurité.acme.com", ErrASCIIAnomaly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseEmail(tt.raw)
			assert.Nil(t, addr)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
