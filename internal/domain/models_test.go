package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeText(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Banco Santander, S.A.", []string{"banco", "santander", "s", "a"}},
		{"ACME Corporation", []string{"acme", "corporation"}},
		{"  spaced   out  ", []string{"spaced", "out"}},
		{"", nil},
		{"...", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, TokenizeText(tt.input))
		})
	}
}

func TestNormalizeBrandID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Banco Santander", "bancosantander"},
		{"acme-mail", "acme-mail"},
		{"  ACME Corp.  ", "acmecorp"},
		{"b4nc0", "b4nc0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, NormalizeBrandID(tt.input))
	}
}

func TestBrandProfile_HasKnownDomain(t *testing.T) {
	brand := &BrandProfile{
		ID:           "santander",
		KnownDomains: []string{"santander.es", "santander.com"},
	}

	assert.True(t, brand.HasKnownDomain("santander.es"))
	assert.True(t, brand.HasKnownDomain("SANTANDER.COM."))
	assert.False(t, brand.HasKnownDomain("mail.santander.es"))
	assert.False(t, brand.HasKnownDomain("santanderes.es"))
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.3))
	assert.Equal(t, 0.55, ClampConfidence(0.55))
	assert.Equal(t, 1.0, ClampConfidence(1.7))
}
