package retrieval

import (
	"context"
	"sort"
	"strings"

	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/internal/embedding"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/internal/vectorstore"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services"
	"go.uber.org/zap"
)

// Options configures a single retrieval call.
type Options struct {
	// TopK is the maximum number of passages to return.
	TopK int

	// MinScore drops passages scoring below this threshold.
	MinScore float32

	// Oversample multiplies TopK for the raw index query so filtering and
	// deduplication still leave enough candidates.
	Oversample int

	// HistoryWindow is how many recent user turns are folded into the
	// embedded query text to resolve anaphora ("it", "that symptom").
	HistoryWindow int
}

// RetrievalService produces ranked, deduplicated, relevance-filtered
// passage sets for user queries. It has no mutable state of its own; the
// embedder and index handles are shared read-only across sessions.
type RetrievalService struct {
	embedder embedding.Embedder
	index    vectorstore.VectorIndex
	logger   *zap.Logger
}

// NewRetrievalService creates a retrieval service with injected clients.
func NewRetrievalService(embedder embedding.Embedder, index vectorstore.VectorIndex, logger *zap.Logger) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// Retrieve embeds the query (fused with recent history), searches the
// index, and post-filters the hits. An empty index yields an empty Result.
// Embedding and index failures are returned, never swallowed: ungrounded
// generation changes the safety profile of the answer.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, history []models.Turn, opts Options) (Result, error) {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.Oversample < 1 {
		opts.Oversample = 2
	}

	embedText := fuseHistory(query, history, opts.HistoryWindow)

	vector, err := s.embedder.Embed(ctx, embedText)
	if err != nil {
		return Result{}, services.NewDomainError(services.ErrorTypeRetrieval, "failed to embed query", err)
	}

	topN := opts.TopK * opts.Oversample
	hits, err := s.index.Search(ctx, vector, topN)
	if err != nil {
		return Result{}, services.NewDomainError(services.ErrorTypeRetrieval, "vector index search failed", err)
	}

	result := rank(hits, opts.TopK, opts.MinScore)

	s.logger.Debug("retrieval completed",
		zap.Int("raw_hits", len(hits)),
		zap.Int("passages", len(result.Passages)),
		zap.Float32("min_score", opts.MinScore))

	return result, nil
}

// rank drops hits below minScore, deduplicates by id keeping the highest
// score, sorts by descending score, and truncates to topK.
func rank(hits []vectorstore.SearchHit, topK int, minScore float32) Result {
	best := make(map[string]vectorstore.SearchHit, len(hits))
	for _, hit := range hits {
		if hit.Score < minScore {
			continue
		}
		if prev, seen := best[hit.ID]; seen && prev.Score >= hit.Score {
			continue
		}
		best[hit.ID] = hit
	}

	passages := make([]PassageChunk, 0, len(best))
	for _, hit := range best {
		passages = append(passages, PassageChunk{
			ID:       hit.ID,
			Text:     hit.Content,
			Source:   hit.Source,
			Score:    hit.Score,
			Metadata: hit.Metadata,
		})
	}

	sort.SliceStable(passages, func(i, j int) bool {
		if passages[i].Score != passages[j].Score {
			return passages[i].Score > passages[j].Score
		}
		return passages[i].ID < passages[j].ID // deterministic tie-break
	})

	if topK < len(passages) {
		passages = passages[:topK]
	}

	return Result{Passages: passages}
}

// fuseHistory appends the most recent user turns to the query text so the
// embedding can resolve references to earlier symptoms.
func fuseHistory(query string, history []models.Turn, window int) string {
	if window <= 0 || len(history) == 0 {
		return query
	}

	var recent []string
	for i := len(history) - 1; i >= 0 && len(recent) < window; i-- {
		if history[i].Role == models.RoleUser && history[i].Content != "" {
			recent = append([]string{history[i].Content}, recent...)
		}
	}
	if len(recent) == 0 {
		return query
	}

	var sb strings.Builder
	sb.WriteString(query)
	sb.WriteString("\nEarlier in this conversation: ")
	sb.WriteString(strings.Join(recent, " "))
	return sb.String()
}
