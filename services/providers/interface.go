package providers

import (
	"context"
	"errors"
	"fmt"
)

// Provider is the contract a chat-completion backend must satisfy. The
// orchestrator drives generation exclusively through this interface so
// the backing API (GitHub Models, Azure OpenAI, a local server) can be
// swapped without touching the pipeline.
type Provider interface {
	// Name returns the provider identifier used in logs and telemetry.
	Name() string

	// StreamChat opens a streaming chat completion. The returned Stream
	// must be closed by the caller. Errors returned here cover request
	// construction and connection establishment; mid-stream failures
	// surface through Stream.Recv.
	StreamChat(ctx context.Context, req *ChatRequest) (Stream, error)

	// IsAvailable reports whether the provider is reachable and
	// configured. Used by readiness probes.
	IsAvailable(ctx context.Context) bool
}

// Stream is a pull-based sequence of completion chunks. Recv blocks
// until the next chunk arrives, the stream ends (io.EOF), or the
// context given to StreamChat is cancelled.
type Stream interface {
	Recv() (*Chunk, error)
	Close() error
}

// FinishReason explains why the model stopped emitting tokens.
type FinishReason string

const (
	// FinishNone means the chunk is an intermediate delta.
	FinishNone FinishReason = ""
	// FinishStop means the model completed its answer normally.
	FinishStop FinishReason = "stop"
	// FinishToolCalls means the model is requesting tool invocations.
	FinishToolCalls FinishReason = "tool_calls"
	// FinishContentFilter means the upstream safety system suppressed
	// the remainder of the completion.
	FinishContentFilter FinishReason = "content_filter"
	// FinishLength means the completion hit the max token limit.
	FinishLength FinishReason = "length"
)

// Chunk is one unit of streamed output. Exactly one of the payload
// fields is meaningful: Text for intermediate deltas, ToolCalls when
// FinishReason is FinishToolCalls, neither for bare finish markers.
type Chunk struct {
	Text         string
	ToolCalls    []ToolCall
	FinishReason FinishReason
}

// ToolCall is a fully assembled tool invocation request emitted by the
// model. Arguments is the raw JSON argument object as received.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry in the chat transcript sent to the provider.
// ToolCalls is set on assistant messages that requested tools, and
// ToolCallID on tool-role messages carrying a tool result.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolDefinition describes a callable tool in the provider's wire
// format. Parameters is a JSON-schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest carries everything a provider needs for one completion.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Tools       []ToolDefinition
	MaxTokens   int
	Temperature float64
}

// ProviderError wraps failures from provider adapters with enough
// context to decide whether a retry is worthwhile.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Retryable  bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s: %s (status %d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a ProviderError.
func NewProviderError(provider, message string, statusCode int, retryable bool, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
		Retryable:  retryable,
		Err:        err,
	}
}

// IsRetryable reports whether err is a ProviderError marked retryable.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
