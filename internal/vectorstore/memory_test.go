package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndexSearch(t *testing.T) {
	idx := NewMemoryIndex()
	idx.Add("a", "fever management", "who.pdf", []float32{1, 0, 0})
	idx.Add("b", "cough treatment", "cdc.pdf", []float32{0, 1, 0})
	idx.Add("c", "fever and cough", "nih.pdf", []float32{0.9, 0.4, 0})

	hits, err := idx.Search(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "c", hits[1].ID)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
}

func TestMemoryIndexEmpty(t *testing.T) {
	idx := NewMemoryIndex()

	hits, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryIndexCancelledContext(t *testing.T) {
	idx := NewMemoryIndex()
	idx.Add("a", "text", "src", []float32{1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Search(ctx, []float32{1}, 1)
	assert.Error(t, err)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2}, []float32{1, 2}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"mismatched lengths", []float32{1}, []float32{1, 2}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}
