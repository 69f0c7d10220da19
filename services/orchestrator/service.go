package orchestrator

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/internal/session"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/prompt"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/providers"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/retrieval"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services/tools"
)

// fallbackMessage closes out a turn the upstream safety filter cut
// short. Partial text already streamed stays visible; this is appended
// after it.
const fallbackMessage = "\n\nI can't continue with that part of the answer. " +
	"For personal medical concerns, please consult a qualified healthcare professional."

// eventBuffer smooths bursts so the session goroutine is not lockstep
// with the transport. Correctness does not depend on the size; every
// send also watches the context.
const eventBuffer = 16

// Retriever produces grounding passages for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, history []models.Turn, opts retrieval.Options) (retrieval.Result, error)
}

// TurnRecorder receives per-turn telemetry. Recording is fire-and-forget;
// a slow or failing recorder must never stall a session.
type TurnRecorder interface {
	RecordTurn(record *models.TurnRecord) error
}

// Options bounds a single turn's resource usage.
type Options struct {
	Model         string
	Temperature   float64
	MaxTokens     int
	MaxToolRounds int
	Retrieval     retrieval.Options
}

// Session is one in-flight user turn. Events are pulled from Events()
// in emission order; the channel is closed after the terminal event.
type Session struct {
	ID             uuid.UUID
	ConversationID string

	events chan StreamEvent
}

// Events returns the session's output stream. Exactly one terminal
// event (Completed or Failed) is emitted, always last, after which the
// channel is closed. If the submitting context is cancelled the channel
// closes without a terminal event.
func (s *Session) Events() <-chan StreamEvent {
	return s.events
}

// Orchestrator drives the per-turn state machine: retrieval, prompt
// assembly, streamed generation, tool interception, and completion.
// Sessions share no mutable state and run fully concurrently.
type Orchestrator struct {
	retriever Retriever
	assembler *prompt.Assembler
	registry  *tools.Registry
	invoker   *tools.Invoker
	provider  providers.Provider
	sessions  session.Store
	recorder  TurnRecorder
	opts      Options
	logger    *zap.Logger
}

// New creates an orchestrator. recorder may be nil when telemetry is
// disabled.
func New(
	retriever Retriever,
	assembler *prompt.Assembler,
	registry *tools.Registry,
	invoker *tools.Invoker,
	provider providers.Provider,
	sessions session.Store,
	recorder TurnRecorder,
	opts Options,
	logger *zap.Logger,
) *Orchestrator {
	if opts.MaxToolRounds <= 0 {
		opts.MaxToolRounds = 5
	}
	return &Orchestrator{
		retriever: retriever,
		assembler: assembler,
		registry:  registry,
		invoker:   invoker,
		provider:  provider,
		sessions:  sessions,
		recorder:  recorder,
		opts:      opts,
		logger:    logger,
	}
}

// SubmitTurn starts processing one user turn and returns immediately.
// The caller drains the session's event stream; cancelling ctx stops
// the session at its next suspension point.
func (o *Orchestrator) SubmitTurn(ctx context.Context, conversationID, query string) *Session {
	sess := &Session{
		ID:             uuid.New(),
		ConversationID: conversationID,
		events:         make(chan StreamEvent, eventBuffer),
	}
	go o.run(ctx, sess, query)
	return sess
}

// errCancelled marks a session abandoned by its consumer. It never
// surfaces as an event; the channel just closes.
var errCancelled = errors.New("session cancelled")

func (o *Orchestrator) run(ctx context.Context, sess *Session, query string) {
	defer close(sess.events)

	logger := o.logger.With(
		zap.String("session_id", sess.ID.String()),
		zap.String("conversation_id", sess.ConversationID))

	record := models.NewTurnRecord(sess.ConversationID, o.provider.Name(), o.opts.Model)
	record.MarkAsProcessing()

	logger.Info("starting generation session", zap.Int("query_length", len(query)))

	history, err := o.sessions.History(ctx, sess.ConversationID)
	if err != nil {
		// A lost history degrades answer quality but does not block
		// the turn.
		logger.Warn("failed to load conversation history", zap.Error(err))
		history = nil
	}

	// Step 1: retrieve grounding passages
	logger.Debug("step 1: retrieving passages")
	result, err := o.retriever.Retrieve(ctx, query, history, o.opts.Retrieval)
	if err != nil {
		o.fail(ctx, sess, record, ErrorKindRetrieval, "knowledge base retrieval failed", err, logger)
		return
	}
	record.PassagesRetrieved = len(result.Passages)
	logger.Debug("retrieval complete", zap.Int("passages", len(result.Passages)))

	schemas := o.registry.Schemas()
	transcript := models.CopyTurns(history)
	var answer strings.Builder
	filtered := false

generation:
	for round := 0; ; round++ {
		// Step 2: assemble the prompt plan
		logger.Debug("step 2: assembling prompt", zap.Int("round", round))
		plan, err := o.assembler.Assemble(query, transcript, result, schemas)
		if err != nil {
			o.fail(ctx, sess, record, ErrorKindInternal, "prompt assembly failed", err, logger)
			return
		}

		// Step 3: stream the completion
		logger.Debug("step 3: streaming generation", zap.Int("plan_size", plan.Size))
		stream, err := o.provider.StreamChat(ctx, o.buildRequest(plan))
		if err != nil {
			o.fail(ctx, sess, record, ErrorKindProviderTransport, "generation provider unavailable", err, logger)
			return
		}

		outcome, err := o.consume(ctx, sess, stream, &answer, record)
		stream.Close()
		switch {
		case errors.Is(err, errCancelled):
			logger.Info("session cancelled by consumer")
			return
		case err != nil:
			o.fail(ctx, sess, record, ErrorKindProviderTransport, "generation stream failed", err, logger)
			return
		}

		if outcome.filtered {
			filtered = true
			if !o.emit(ctx, sess, StreamEvent{Type: EventContentFiltered, Reason: outcome.filterReason}) {
				return
			}
			if !o.emit(ctx, sess, StreamEvent{Type: EventTokenDelta, Text: fallbackMessage}) {
				return
			}
			answer.WriteString(fallbackMessage)
			logger.Info("content filter tripped, completing with fallback",
				zap.String("reason", outcome.filterReason))
			break generation
		}

		if len(outcome.toolCalls) == 0 {
			break generation
		}

		// Step 4: run the requested tool round
		if record.ToolRounds >= o.opts.MaxToolRounds {
			o.fail(ctx, sess, record, ErrorKindToolLoopExceeded, "tool call rounds exceeded limit", nil, logger)
			return
		}
		logger.Debug("step 4: executing tool round",
			zap.Int("round", record.ToolRounds+1),
			zap.Int("calls", len(outcome.toolCalls)))
		transcript, err = o.runToolRound(ctx, sess, transcript, outcome.toolCalls, record, logger)
		if err != nil {
			logger.Info("session cancelled during tool round")
			return
		}
	}

	o.complete(ctx, sess, record, query, answer.String(), filtered, logger)
}

// streamOutcome summarizes why one provider stream ended.
type streamOutcome struct {
	toolCalls    []providers.ToolCall
	filtered     bool
	filterReason string
}

// consume drains one provider stream, forwarding text deltas as events
// in arrival order. It returns when the stream finishes, requests
// tools, trips the content filter, or fails.
func (o *Orchestrator) consume(ctx context.Context, sess *Session, stream providers.Stream, answer *strings.Builder, record *models.TurnRecord) (streamOutcome, error) {
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			return streamOutcome{}, nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return streamOutcome{}, errCancelled
			}
			return streamOutcome{}, err
		}

		if chunk.Text != "" {
			if !o.emit(ctx, sess, StreamEvent{Type: EventTokenDelta, Text: chunk.Text}) {
				return streamOutcome{}, errCancelled
			}
			answer.WriteString(chunk.Text)
			record.TokensStreamed++
		}

		switch chunk.FinishReason {
		case providers.FinishNone:
		case providers.FinishToolCalls:
			return streamOutcome{toolCalls: chunk.ToolCalls}, nil
		case providers.FinishContentFilter:
			return streamOutcome{filtered: true, filterReason: "content_filter"}, nil
		default:
			// stop, length
			return streamOutcome{}, nil
		}
	}
}

// runToolRound executes every call from one tool_calls finish and
// appends the exchange to the transcript. Tool failures become
// error-carrying results the model sees on the next round, never
// session failures.
func (o *Orchestrator) runToolRound(ctx context.Context, sess *Session, transcript []models.Turn, calls []providers.ToolCall, record *models.TurnRecord, logger *zap.Logger) ([]models.Turn, error) {
	assistant := models.Turn{Role: models.RoleAssistant}
	for _, call := range calls {
		assistant.ToolCalls = append(assistant.ToolCalls, models.ToolCall{
			ID:        call.ID,
			Name:      call.Name,
			Arguments: call.Arguments,
		})
	}
	transcript = append(transcript, assistant)

	for _, call := range calls {
		req := tools.CallRequest{ID: call.ID, Name: call.Name, Arguments: call.Arguments}
		if !o.emit(ctx, sess, StreamEvent{Type: EventToolCallRequested, ToolCall: &req}) {
			return nil, errCancelled
		}

		res := o.invoker.Invoke(ctx, req)
		if res.IsError {
			logger.Warn("tool invocation failed, feeding error back to model",
				zap.String("tool", call.Name),
				zap.String("error_kind", string(ErrorKindToolExecution)))
		}
		record.RecordTool(call.Name)

		transcript = append(transcript, models.Turn{
			Role:       models.RoleTool,
			Content:    res.Content,
			ToolCallID: call.ID,
		})
	}
	record.ToolRounds++
	return transcript, nil
}

func (o *Orchestrator) complete(ctx context.Context, sess *Session, record *models.TurnRecord, query, answer string, filtered bool, logger *zap.Logger) {
	turns := []models.Turn{
		{Role: models.RoleUser, Content: query},
		{Role: models.RoleAssistant, Content: answer},
	}
	if err := o.sessions.Append(ctx, sess.ConversationID, turns...); err != nil {
		logger.Warn("failed to persist conversation history", zap.Error(err))
	}

	record.MarkAsCompleted(filtered)
	o.recordTurn(record, logger)

	if o.emit(ctx, sess, StreamEvent{Type: EventCompleted}) {
		logger.Info("generation session completed",
			zap.Bool("filtered", filtered),
			zap.Int("tokens_streamed", record.TokensStreamed),
			zap.Int("tool_rounds", record.ToolRounds))
	}
}

func (o *Orchestrator) fail(ctx context.Context, sess *Session, record *models.TurnRecord, kind ErrorKind, message string, err error, logger *zap.Logger) {
	record.MarkAsFailed(string(kind))
	o.recordTurn(record, logger)

	logger.Error("generation session failed",
		zap.String("error_kind", string(kind)),
		zap.Error(err))

	o.emit(ctx, sess, StreamEvent{Type: EventFailed, ErrorKind: kind, Message: message})
}

func (o *Orchestrator) recordTurn(record *models.TurnRecord, logger *zap.Logger) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordTurn(record); err != nil {
		logger.Warn("failed to record turn telemetry", zap.Error(err))
	}
}

// emit sends one event unless the consumer's context is gone. A false
// return means the session should unwind without a terminal event.
func (o *Orchestrator) emit(ctx context.Context, sess *Session, event StreamEvent) bool {
	select {
	case sess.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func (o *Orchestrator) buildRequest(plan prompt.Plan) *providers.ChatRequest {
	system := plan.System
	if grounding := plan.GroundingText(); grounding != "" {
		system += "\n\n" + grounding
	}

	messages := make([]providers.Message, 0, len(plan.History)+2)
	messages = append(messages, providers.Message{Role: "system", Content: system})
	for _, turn := range plan.History {
		msg := providers.Message{
			Role:       string(turn.Role),
			Content:    turn.Content,
			ToolCallID: turn.ToolCallID,
		}
		for _, tc := range turn.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, providers.ToolCall{
				ID:        tc.ID,
				Name:      tc.Name,
				Arguments: tc.Arguments,
			})
		}
		messages = append(messages, msg)
	}
	messages = append(messages, providers.Message{Role: "user", Content: plan.Query})

	defs := make([]providers.ToolDefinition, 0, len(plan.ToolSchemas))
	for _, schema := range plan.ToolSchemas {
		defs = append(defs, providers.ToolDefinition{
			Name:        schema.Name,
			Description: schema.Description,
			Parameters:  schema.JSONSchema(),
		})
	}

	return &providers.ChatRequest{
		Model:       o.opts.Model,
		Messages:    messages,
		Tools:       defs,
		MaxTokens:   o.opts.MaxTokens,
		Temperature: o.opts.Temperature,
	}
}
