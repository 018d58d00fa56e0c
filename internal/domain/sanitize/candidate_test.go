package sanitize

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubOmitWords struct {
	words []string
	err   error
	calls int
}

func (s *stubOmitWords) ActiveWords(ctx context.Context) ([]string, error) {
	s.calls++
	return s.words, s.err
}

func TestExtractor_Candidate(t *testing.T) {
	tests := []struct {
		name     string
		fqdn     string
		expected string
	}{
		{"plain root domain", "santander.es", "santander"},
		{"www is never a candidate source", "www.santander.es", "santander"},
		{"noise subdomain stripped", "mail.santander.es", "santander"},
		{"noise tokens inside label", "secure-login.acme.com", "acme"},
		{"hyphenated label keeps brand part", "acme-mail.com", "acme"},
		{"multi token candidate joined with hyphens", "banco.santander.es", "banco-santander"},
		{"all tokens omitted falls back to first label segment", "secure-mail.com", "secure"},
	}

	extractor := NewExtractor(&stubOmitWords{words: []string{"mail", "secure", "login"}}, zerolog.Nop())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractor.Candidate(context.Background(), SplitDomain(tt.fqdn))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractor_StoreFailureDegradesToEmptySet(t *testing.T) {
	store := &stubOmitWords{err: errors.New("connection refused")}
	extractor := NewExtractor(store, zerolog.Nop())

	got := extractor.Candidate(context.Background(), SplitDomain("mail.santander.es"))
	assert.Equal(t, "mail-santander", got)

	// The failed load is not retried on the next request.
	extractor.Candidate(context.Background(), SplitDomain("acme.com"))
	assert.Equal(t, 1, store.calls)
}

func TestExtractor_LoadsWordsOnce(t *testing.T) {
	store := &stubOmitWords{words: []string{"mail"}}
	extractor := NewExtractor(store, zerolog.Nop())

	for i := 0; i < 3; i++ {
		extractor.Candidate(context.Background(), SplitDomain("mail.acme.com"))
	}
	assert.Equal(t, 1, store.calls)
}
