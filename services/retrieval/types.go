package retrieval

// PassageChunk is a single grounding passage retrieved from the knowledge
// base. Chunks are immutable once produced.
type PassageChunk struct {
	// ID is the stable identifier assigned at ingestion time.
	ID string `json:"id"`

	// Text is the passage content.
	Text string `json:"text"`

	// Source identifies the originating document.
	Source string `json:"source"`

	// Score is the similarity score against the query embedding.
	Score float32 `json:"score"`

	// Metadata carries additional payload fields from the index.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Result is an ordered set of passages for one query: deduplicated by id,
// sorted by descending score, truncated to top-K above the minimum score.
type Result struct {
	Passages []PassageChunk `json:"passages"`
}

// Empty reports whether retrieval produced no usable passages.
func (r Result) Empty() bool {
	return len(r.Passages) == 0
}
