package domain

import "time"

// RetrievalResult is the common shape produced by both semantic and
// structured retrieval and consumed by fusion. Scores are heuristics, not
// probabilities: vector search yields similarity scores, structured lookups
// assign fixed constants tuned to outrank them for exact or broad matches.
type RetrievalResult struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score"`
}

type SearchFilter struct {
	ContentType ContentType
}

// QueryIntent is derived from the current message text only, never persisted.
type QueryIntent struct {
	Types    []ContentType `json:"types"`
	Keywords []string      `json:"keywords"`
	Broad    bool          `json:"broad"`
}

func (i QueryIntent) HasType(t ContentType) bool {
	for _, hinted := range i.Types {
		if hinted == t {
			return true
		}
	}
	return false
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RetrievalStats describes one chat request's retrieval work for logging
// and metrics.
type RetrievalStats struct {
	SemanticResults   int  `json:"semantic_results"`
	StructuredResults int  `json:"structured_results"`
	FusedResults      int  `json:"fused_results"`
	SemanticDegraded  bool `json:"semantic_degraded"`
}

type RecordOp string

const (
	OpUpsert RecordOp = "upsert"
	OpDelete RecordOp = "delete"
)

// RecordEvent is published by record-write collaborators whenever a domain
// record changes and consumed by the ingestion worker.
type RecordEvent struct {
	ContentType ContentType `json:"content_type"`
	ReferenceID string      `json:"reference_id"`
	Op          RecordOp    `json:"op"`
	OccurredAt  time.Time   `json:"occurred_at"`
}
