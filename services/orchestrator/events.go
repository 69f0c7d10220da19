package orchestrator

import "github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/tools"

// EventType discriminates the StreamEvent union.
type EventType string

const (
	EventTokenDelta        EventType = "token_delta"
	EventToolCallRequested EventType = "tool_call_requested"
	EventContentFiltered   EventType = "content_filtered"
	EventCompleted         EventType = "completed"
	EventFailed            EventType = "failed"
)

// ErrorKind is the stable failure classification carried by a Failed
// event. Clients key retry and display behavior off these values, so
// they never change once published.
type ErrorKind string

const (
	// ErrorKindRetrieval means embedding or vector search failed.
	// Fatal for the turn: ungrounded generation is not allowed.
	ErrorKindRetrieval ErrorKind = "retrieval_error"
	// ErrorKindToolLoopExceeded means the model requested more tool
	// rounds than the configured bound allows.
	ErrorKindToolLoopExceeded ErrorKind = "tool_loop_exceeded"
	// ErrorKindToolExecution classifies tool failures in telemetry.
	// Tool errors are fed back to the model as results, so this kind
	// never terminates a session by itself.
	ErrorKindToolExecution ErrorKind = "tool_execution_error"
	// ErrorKindProviderTransport means the generation provider failed
	// with something other than a content filter.
	ErrorKindProviderTransport ErrorKind = "provider_transport_error"
	// ErrorKindInternal covers failures inside the pipeline itself,
	// such as a prompt budget too small to hold the query.
	ErrorKindInternal ErrorKind = "internal_error"
)

// StreamEvent is one unit of a session's output stream. Type selects
// which payload fields are meaningful:
//
//	EventTokenDelta        Text
//	EventToolCallRequested ToolCall
//	EventContentFiltered   Reason
//	EventCompleted         (none)
//	EventFailed            ErrorKind, Message
type StreamEvent struct {
	Type      EventType
	Text      string
	ToolCall  *tools.CallRequest
	Reason    string
	ErrorKind ErrorKind
	Message   string
}

// IsTerminal reports whether the event ends the session stream.
func (e StreamEvent) IsTerminal() bool {
	return e.Type == EventCompleted || e.Type == EventFailed
}
