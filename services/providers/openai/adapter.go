package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/providers"
)

const (
	defaultBaseURL    = "https://models.inference.ai.azure.com"
	defaultTimeout    = 120 * time.Second
	defaultMaxRetries = 2
	defaultRetryDelay = 500 * time.Millisecond

	// SSE payloads for tool-heavy completions can get large.
	maxScanTokenSize = 1024 * 1024
)

// Config holds connection settings for an OpenAI-compatible endpoint.
// The zero value plus an API key targets GitHub Models.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Adapter implements providers.Provider against any OpenAI-compatible
// chat completions API (GitHub Models, Azure OpenAI, OpenAI proper).
type Adapter struct {
	config     Config
	httpClient *http.Client
}

// New creates an adapter with defaults filled in.
func New(config Config) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaultMaxRetries
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = defaultRetryDelay
	}

	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name.
func (a *Adapter) Name() string {
	return "openai"
}

// IsAvailable reports whether the adapter has credentials configured.
// A network probe is deliberately avoided here; readiness should not
// burn rate-limited requests.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	return a.config.APIKey != ""
}

// StreamChat opens a streaming chat completion. Connection errors and
// retryable status codes (429, 5xx) are retried with linear backoff up
// to MaxRetries; once the stream is established, failures surface
// through Recv.
func (a *Adapter) StreamChat(ctx context.Context, req *providers.ChatRequest) (providers.Stream, error) {
	body, err := json.Marshal(a.buildRequest(req))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "failed to marshal request", 0, false, err)
	}

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(a.config.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, providers.NewProviderError(a.Name(), "request cancelled", 0, false, ctx.Err())
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, providers.NewProviderError(a.Name(), "failed to create request", 0, false, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "text/event-stream")
		httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

		resp, lastErr = a.httpClient.Do(httpReq)
		if lastErr != nil {
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return newChatStream(resp.Body), nil
		}

		apiErr := a.readError(resp)
		resp.Body.Close()
		if !apiErr.Retryable {
			return nil, apiErr
		}
		lastErr = apiErr
	}

	if pe, ok := lastErr.(*providers.ProviderError); ok {
		return nil, pe
	}
	return nil, providers.NewProviderError(a.Name(), "connection failed", 0, true, lastErr)
}

func (a *Adapter) readError(resp *http.Response) *providers.ProviderError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	message := strings.TrimSpace(string(raw))
	var apiResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &apiResp) == nil && apiResp.Error.Message != "" {
		message = apiResp.Error.Message
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
	return providers.NewProviderError(a.Name(), message, resp.StatusCode, retryable, nil)
}

// wire types for the OpenAI chat completions API

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

func (a *Adapter) buildRequest(req *providers.ChatRequest) wireRequest {
	out := wireRequest{
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	}

	for _, m := range req.Messages {
		wm := wireMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			wtc := wireToolCall{ID: tc.ID, Type: "function"}
			wtc.Function.Name = tc.Name
			wtc.Function.Arguments = tc.Arguments
			wm.ToolCalls = append(wm.ToolCalls, wtc)
		}
		out.Messages = append(out.Messages, wm)
	}

	for _, t := range req.Tools {
		wt := wireTool{Type: "function"}
		wt.Function.Name = t.Name
		wt.Function.Description = t.Description
		wt.Function.Parameters = t.Parameters
		out.Tools = append(out.Tools, wt)
	}

	return out
}

// streaming response types

type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// chatStream translates the SSE stream into providers.Chunk values.
// Tool-call fragments arrive interleaved across events keyed by index;
// they are accumulated and released as one chunk when the model
// finishes with "tool_calls".
type chatStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	calls   map[int]*providers.ToolCall
	done    bool
}

func newChatStream(body io.ReadCloser) *chatStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)
	return &chatStream{
		body:    body,
		scanner: scanner,
		calls:   make(map[int]*providers.ToolCall),
	}
}

func (s *chatStream) Recv() (*providers.Chunk, error) {
	if s.done {
		return nil, io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			s.done = true
			return nil, io.EOF
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return nil, fmt.Errorf("malformed stream event: %w", err)
		}
		if len(event.Choices) == 0 {
			continue
		}
		choice := event.Choices[0]

		for _, tc := range choice.Delta.ToolCalls {
			acc, ok := s.calls[tc.Index]
			if !ok {
				acc = &providers.ToolCall{}
				s.calls[tc.Index] = acc
			}
			if tc.ID != "" {
				acc.ID = tc.ID
			}
			if tc.Function.Name != "" {
				acc.Name = tc.Function.Name
			}
			acc.Arguments += tc.Function.Arguments
		}

		switch providers.FinishReason(choice.FinishReason) {
		case providers.FinishNone:
			if choice.Delta.Content != "" {
				return &providers.Chunk{Text: choice.Delta.Content}, nil
			}
		case providers.FinishToolCalls:
			return &providers.Chunk{
				ToolCalls:    s.drainCalls(),
				FinishReason: providers.FinishToolCalls,
			}, nil
		default:
			return &providers.Chunk{FinishReason: providers.FinishReason(choice.FinishReason)}, nil
		}
	}

	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	s.done = true
	return nil, io.EOF
}

func (s *chatStream) drainCalls() []providers.ToolCall {
	indexes := make([]int, 0, len(s.calls))
	for i := range s.calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]providers.ToolCall, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, *s.calls[i])
	}
	s.calls = make(map[int]*providers.ToolCall)
	return out
}

func (s *chatStream) Close() error {
	return s.body.Close()
}

var _ providers.Provider = (*Adapter)(nil)
