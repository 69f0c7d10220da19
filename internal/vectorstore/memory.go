package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryIndex is an in-memory VectorIndex used in tests and local
// development. Scoring is cosine similarity.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries []memoryEntry
}

type memoryEntry struct {
	hit    SearchHit
	vector []float32
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Add inserts a passage with its embedding.
func (m *MemoryIndex) Add(id, content, source string, vector []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, memoryEntry{
		hit:    SearchHit{ID: id, Content: content, Source: source},
		vector: vector,
	})
}

// Search implements VectorIndex.
func (m *MemoryIndex) Search(ctx context.Context, vector []float32, topN int) ([]SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make([]SearchHit, 0, len(m.entries))
	for _, e := range m.entries {
		h := e.hit
		h.Score = cosineSimilarity(vector, e.vector)
		hits = append(hits, h)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if topN < len(hits) {
		hits = hits[:topN]
	}
	return hits, nil
}

// Close implements VectorIndex.
func (m *MemoryIndex) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Compile-time check that MemoryIndex implements VectorIndex.
var _ VectorIndex = (*MemoryIndex)(nil)
