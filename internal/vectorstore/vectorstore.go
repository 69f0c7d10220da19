package vectorstore

import "context"

// VectorIndex is a technology-agnostic contract over a vector similarity
// search provider. Implementations must be safe for concurrent read-only
// use; generation sessions share a single connection.
type VectorIndex interface {
	// Search returns up to topN nearest neighbors for the given embedding,
	// ordered by descending similarity. An empty index yields an empty
	// slice, not an error. Recently ingested documents may not appear
	// immediately; callers must treat absence as normal.
	Search(ctx context.Context, vector []float32, topN int) ([]SearchHit, error)

	// Close releases any resources held by the index client.
	Close() error
}

// SearchHit is a single scored match from the index.
type SearchHit struct {
	// ID is the stable identifier assigned at ingestion time.
	ID string

	// Score is the similarity score (higher is more similar).
	Score float32

	// Content is the passage text stored alongside the vector.
	Content string

	// Source identifies the originating document.
	Source string

	// Metadata carries any additional payload fields.
	Metadata map[string]any
}
