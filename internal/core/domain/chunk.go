package domain

import "time"

// EmbeddingChunk is one indexed window of a record's derived text.
// Chunks are never mutated in place: an update deletes every chunk for the
// owning (content type, reference id) pair and re-creates the full set.
type EmbeddingChunk struct {
	Text        string            `json:"text"`
	ContentType ContentType       `json:"content_type"`
	ReferenceID string            `json:"reference_id"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Vector      []float32         `json:"-"`
	ChunkIndex  int               `json:"chunk_index"`
	ChunkCount  int               `json:"chunk_count"`
	CreatedAt   time.Time         `json:"created_at"`
}

// IngestOutcome separates the owning record's validity from the secondary
// embedding refresh, which is best-effort and must not fail record writes.
type IngestOutcome struct {
	ContentType ContentType `json:"content_type"`
	ReferenceID string      `json:"reference_id"`
	ChunkCount  int         `json:"chunk_count"`
	Refreshed   bool        `json:"refreshed"`
	// FailureStage names the step that failed ("evict", "embed", "store")
	// when Refreshed is false. The record stays retrievable by structured
	// lookup either way.
	FailureStage string `json:"failure_stage,omitempty"`
}
