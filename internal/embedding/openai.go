package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Config holds the embedding provider configuration.
type Config struct {
	// BaseURL of an OpenAI-compatible embeddings endpoint.
	BaseURL string

	// APIKey for authentication.
	APIKey string

	// Model is the embedding model identifier.
	Model string

	// Timeout for a single HTTP request.
	Timeout time.Duration

	// MaxRetries bounds retry attempts on transient failures. Failures
	// beyond this bound propagate to the caller; they are never swallowed.
	MaxRetries int
}

// OpenAIEmbedder implements Embedder against an OpenAI-compatible
// embeddings API (GitHub Models in the default deployment).
type OpenAIEmbedder struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewOpenAIEmbedder creates a new embedder.
func NewOpenAIEmbedder(cfg Config, logger *zap.Logger) *OpenAIEmbedder {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "multilingual-e5-large"
	}
	return &OpenAIEmbedder{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed implements Embedder. Transient failures (connection errors, 429,
// 5xx) are retried up to MaxRetries with linear backoff.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.config.Model, Input: []string{text}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
			e.logger.Debug("retrying embedding request", zap.Int("attempt", attempt))
		}

		vector, retryable, err := e.embedOnce(ctx, body)
		if err == nil {
			return vector, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return nil, fmt.Errorf("embedding failed after retries: %w", lastErr)
}

func (e *OpenAIEmbedder) embedOnce(ctx context.Context, body []byte) (vector []float32, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.config.APIKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, respBody)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, false, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, false, fmt.Errorf("embedding endpoint returned no vector")
	}

	return parsed.Data[0].Embedding, false, nil
}

// Compile-time check that OpenAIEmbedder implements Embedder.
var _ Embedder = (*OpenAIEmbedder)(nil)
