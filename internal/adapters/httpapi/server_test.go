package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelmail/domain-sanitizer/internal/domain"
)

type stubValidator struct {
	lastEmail string
	result    *domain.VerdictResult
}

func (s *stubValidator) Validate(ctx context.Context, email string) *domain.VerdictResult {
	s.lastEmail = email
	return s.result
}

func newTestServer(result *domain.VerdictResult) (*stubValidator, http.Handler) {
	v := &stubValidator{result: result}
	return v, NewServer(v, zerolog.Nop()).Handler()
}

func TestServer_Validate(t *testing.T) {
	validator, handler := newTestServer(&domain.VerdictResult{
		RequestID:     "req-1",
		Email:         "info@santander.es",
		Verdict:       domain.VerdictValid,
		VerdictDetail: "Legitimate brand domain with matching registrant",
		Confidence:    1.0,
		Labels:        []string{domain.LabelLegitimate},
		Evidences:     []domain.Evidence{},
	})

	req := httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(`{"email":"info@santander.es"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "info@santander.es", validator.lastEmail)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "valid", body["veredict"])
	assert.Equal(t, "req-1", body["request_id"])
	assert.Contains(t, body, "veredict_detail")
	assert.Contains(t, body, "evidences")
}

func TestServer_ValidateRejectsMissingEmail(t *testing.T) {
	_, handler := newTestServer(nil)

	req := httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(`{"email":"  "}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email is required")
}

func TestServer_ValidateRejectsMalformedBody(t *testing.T) {
	_, handler := newTestServer(nil)

	req := httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Health(t *testing.T) {
	_, handler := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
