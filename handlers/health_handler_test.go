package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/providers"
)

type availabilityProvider struct {
	available bool
}

func (p *availabilityProvider) Name() string                         { return "stub" }
func (p *availabilityProvider) IsAvailable(ctx context.Context) bool { return p.available }
func (p *availabilityProvider) StreamChat(ctx context.Context, req *providers.ChatRequest) (providers.Stream, error) {
	return nil, nil
}

func TestHandleHealth(t *testing.T) {
	h := NewHealthHandler(nil, &availabilityProvider{available: true}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Data.Status)
}

func TestHandleReadinessHealthy(t *testing.T) {
	h := NewHealthHandler(nil, &availabilityProvider{available: true}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Data.Status)
	assert.Equal(t, "healthy", body.Data.Checks["provider"])
	assert.Equal(t, "healthy", body.Data.Checks["database"], "nil database passes the check")
}

func TestHandleReadinessProviderDown(t *testing.T) {
	h := NewHealthHandler(nil, &availabilityProvider{available: false}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Data.Status)
	assert.Equal(t, "unhealthy", body.Data.Checks["provider"])
}
