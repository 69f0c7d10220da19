package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/internal/vectorstore"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/services"
	"go.uber.org/zap"
)

type stubEmbedder struct {
	vector []float32
	err    error
	seen   string
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.seen = text
	return s.vector, s.err
}

type stubIndex struct {
	hits []vectorstore.SearchHit
	err  error
	topN int
}

func (s *stubIndex) Search(ctx context.Context, vector []float32, topN int) ([]vectorstore.SearchHit, error) {
	s.topN = topN
	return s.hits, s.err
}

func (s *stubIndex) Close() error { return nil }

func TestRetrieveFiltersAndOrders(t *testing.T) {
	index := &stubIndex{hits: []vectorstore.SearchHit{
		{ID: "p2", Score: 0.77, Content: "cough care"},
		{ID: "p1", Score: 0.91, Content: "fever care"},
		{ID: "p3", Score: 0.40, Content: "unrelated"},
	}}
	svc := NewRetrievalService(&stubEmbedder{vector: []float32{1}}, index, zap.NewNop())

	result, err := svc.Retrieve(context.Background(), "I have a fever and cough", nil, Options{
		TopK:     7,
		MinScore: 0.5,
	})
	require.NoError(t, err)

	require.Len(t, result.Passages, 2)
	assert.Equal(t, "p1", result.Passages[0].ID)
	assert.Equal(t, "p2", result.Passages[1].ID)
}

func TestRetrieveDeduplicatesKeepingHighestScore(t *testing.T) {
	index := &stubIndex{hits: []vectorstore.SearchHit{
		{ID: "p1", Score: 0.70},
		{ID: "p1", Score: 0.95},
		{ID: "p2", Score: 0.80},
	}}
	svc := NewRetrievalService(&stubEmbedder{vector: []float32{1}}, index, zap.NewNop())

	result, err := svc.Retrieve(context.Background(), "q", nil, Options{TopK: 5, MinScore: 0.1})
	require.NoError(t, err)

	require.Len(t, result.Passages, 2)
	assert.Equal(t, "p1", result.Passages[0].ID)
	assert.InDelta(t, 0.95, result.Passages[0].Score, 1e-6)

	// Scores are non-increasing and ids unique.
	seen := map[string]bool{}
	for i, p := range result.Passages {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
		if i > 0 {
			assert.LessOrEqual(t, p.Score, result.Passages[i-1].Score)
		}
	}
}

func TestRetrieveTruncatesToTopK(t *testing.T) {
	index := &stubIndex{hits: []vectorstore.SearchHit{
		{ID: "a", Score: 0.9}, {ID: "b", Score: 0.8}, {ID: "c", Score: 0.7},
	}}
	svc := NewRetrievalService(&stubEmbedder{vector: []float32{1}}, index, zap.NewNop())

	result, err := svc.Retrieve(context.Background(), "q", nil, Options{TopK: 2, MinScore: 0, Oversample: 3})
	require.NoError(t, err)

	assert.Len(t, result.Passages, 2)
	assert.Equal(t, 6, index.topN) // oversampled index query
}

func TestRetrieveEmptyIndexIsNotAnError(t *testing.T) {
	svc := NewRetrievalService(&stubEmbedder{vector: []float32{1}}, &stubIndex{}, zap.NewNop())

	result, err := svc.Retrieve(context.Background(), "q", nil, Options{TopK: 5})
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestRetrieveEmbeddingFailureIsReported(t *testing.T) {
	svc := NewRetrievalService(&stubEmbedder{err: errors.New("model down")}, &stubIndex{}, zap.NewNop())

	_, err := svc.Retrieve(context.Background(), "q", nil, Options{TopK: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrEmbeddingFailed)
}

func TestRetrieveIndexFailureIsReported(t *testing.T) {
	svc := NewRetrievalService(
		&stubEmbedder{vector: []float32{1}},
		&stubIndex{err: errors.New("connection refused")},
		zap.NewNop(),
	)

	_, err := svc.Retrieve(context.Background(), "q", nil, Options{TopK: 5})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrIndexSearch)
}

func TestRetrieveFusesRecentUserHistory(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1}}
	svc := NewRetrievalService(embedder, &stubIndex{}, zap.NewNop())

	history := []models.Turn{
		{Role: models.RoleUser, Content: "I have had a headache for two days"},
		{Role: models.RoleAssistant, Content: "How severe is it?"},
		{Role: models.RoleUser, Content: "Quite severe"},
	}

	_, err := svc.Retrieve(context.Background(), "Is it dangerous?", history, Options{TopK: 3, HistoryWindow: 2})
	require.NoError(t, err)

	assert.Contains(t, embedder.seen, "Is it dangerous?")
	assert.Contains(t, embedder.seen, "headache for two days")
	assert.Contains(t, embedder.seen, "Quite severe")
	assert.NotContains(t, embedder.seen, "How severe is it?") // assistant turns are not fused
}
