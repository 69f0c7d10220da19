package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/providers"
)

func sseBody(events ...string) string {
	out := ""
	for _, e := range events {
		out += "data: " + e + "\n\n"
	}
	return out + "data: [DONE]\n\n"
}

func collect(t *testing.T, stream providers.Stream) []*providers.Chunk {
	t.Helper()
	var chunks []*providers.Chunk
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			return chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
}

func TestStreamChatTextDeltas(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "gpt-4o-mini", req.Model)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(
			`{"choices":[{"delta":{"content":"Hyper"},"finish_reason":null}]}`,
			`{"choices":[{"delta":{"content":"tension"},"finish_reason":null}]}`,
			`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		))
	}))
	defer server.Close()

	adapter := New(Config{BaseURL: server.URL, APIKey: "test-token"})
	stream, err := adapter.StreamChat(context.Background(), &providers.ChatRequest{
		Model:    "gpt-4o-mini",
		Messages: []providers.Message{{Role: "user", Content: "what is hypertension?"}},
	})
	require.NoError(t, err)
	defer stream.Close()

	chunks := collect(t, stream)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Hyper", chunks[0].Text)
	assert.Equal(t, "tension", chunks[1].Text)
	assert.Equal(t, providers.FinishStop, chunks[2].FinishReason)
}

func TestStreamChatAccumulatesToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"find_hospitals","arguments":"{\"cit"}}]},"finish_reason":null}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"y\": \"Madrid\"}"}}]},"finish_reason":null}]}`,
			`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		))
	}))
	defer server.Close()

	adapter := New(Config{BaseURL: server.URL, APIKey: "test-token"})
	stream, err := adapter.StreamChat(context.Background(), &providers.ChatRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	defer stream.Close()

	chunks := collect(t, stream)
	require.Len(t, chunks, 1)
	assert.Equal(t, providers.FinishToolCalls, chunks[0].FinishReason)
	require.Len(t, chunks[0].ToolCalls, 1)
	assert.Equal(t, "call_1", chunks[0].ToolCalls[0].ID)
	assert.Equal(t, "find_hospitals", chunks[0].ToolCalls[0].Name)
	assert.JSONEq(t, `{"city": "Madrid"}`, chunks[0].ToolCalls[0].Arguments)
}

func TestStreamChatContentFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(
			`{"choices":[{"delta":{"content":"Partial"},"finish_reason":null}]}`,
			`{"choices":[{"delta":{},"finish_reason":"content_filter"}]}`,
		))
	}))
	defer server.Close()

	adapter := New(Config{BaseURL: server.URL, APIKey: "test-token"})
	stream, err := adapter.StreamChat(context.Background(), &providers.ChatRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	defer stream.Close()

	chunks := collect(t, stream)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Partial", chunks[0].Text)
	assert.Equal(t, providers.FinishContentFilter, chunks[1].FinishReason)
}

func TestStreamChatRetriesOn503(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(`{"choices":[{"delta":{},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	adapter := New(Config{BaseURL: server.URL, APIKey: "test-token", RetryDelay: time.Millisecond})
	stream, err := adapter.StreamChat(context.Background(), &providers.ChatRequest{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestStreamChatNoRetryOn401(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad credentials"}}`)
	}))
	defer server.Close()

	adapter := New(Config{BaseURL: server.URL, APIKey: "wrong", RetryDelay: time.Millisecond})
	_, err := adapter.StreamChat(context.Background(), &providers.ChatRequest{Model: "gpt-4o-mini"})
	require.Error(t, err)
	assert.False(t, providers.IsRetryable(err))
	assert.Contains(t, err.Error(), "bad credentials")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStreamChatSendsToolResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 3)
		assert.Equal(t, "assistant", req.Messages[1].Role)
		require.Len(t, req.Messages[1].ToolCalls, 1)
		assert.Equal(t, "call_1", req.Messages[1].ToolCalls[0].ID)
		assert.Equal(t, "tool", req.Messages[2].Role)
		assert.Equal(t, "call_1", req.Messages[2].ToolCallID)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "find_hospitals", req.Tools[0].Function.Name)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(`{"choices":[{"delta":{},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	adapter := New(Config{BaseURL: server.URL, APIKey: "test-token"})
	stream, err := adapter.StreamChat(context.Background(), &providers.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []providers.Message{
			{Role: "user", Content: "hospitals near me"},
			{Role: "assistant", ToolCalls: []providers.ToolCall{{ID: "call_1", Name: "find_hospitals", Arguments: `{"city":"Madrid"}`}}},
			{Role: "tool", ToolCallID: "call_1", Content: `[{"name":"Hospital La Paz"}]`},
		},
		Tools: []providers.ToolDefinition{{
			Name:        "find_hospitals",
			Description: "Find hospitals near a city",
			Parameters:  map[string]any{"type": "object"},
		}},
	})
	require.NoError(t, err)
	stream.Close()
}

func TestIsAvailable(t *testing.T) {
	assert.True(t, New(Config{APIKey: "token"}).IsAvailable(context.Background()))
	assert.False(t, New(Config{}).IsAvailable(context.Background()))
}
