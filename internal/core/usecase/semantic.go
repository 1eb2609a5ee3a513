package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
	"github.com/avelichkin/portfolio-assistant/internal/core/ports"
)

const (
	defaultSemanticTopK = 8
	// The ANN index is asked for materially more candidates than we keep
	// so it recalls well; the floor keeps small k values honest.
	defaultCandidateFloor = 100
	candidateMultiplier   = 20

	// Fixed neutral score for lexical fallback matches.
	lexicalFallbackScore = 0.5
	lexicalScanLimit     = 500
	minFallbackTokenLen  = 3
)

// SemanticRetriever embeds the raw user message and searches the vector
// store. When the index is unavailable it degrades to a case-insensitive
// substring scan over stored chunk text instead of failing.
type SemanticRetriever struct {
	embedder       ports.Embedder
	vectors        ports.VectorStore
	candidateFloor int
}

func NewSemanticRetriever(embedder ports.Embedder, vectors ports.VectorStore, candidateFloor int) *SemanticRetriever {
	if candidateFloor <= 0 {
		candidateFloor = defaultCandidateFloor
	}
	return &SemanticRetriever{
		embedder:       embedder,
		vectors:        vectors,
		candidateFloor: candidateFloor,
	}
}

// Retrieve returns up to k scored chunks and whether the degraded lexical
// path was taken. It never returns an error: the worst case is an empty
// result list.
func (r *SemanticRetriever) Retrieve(ctx context.Context, message string, k int) ([]domain.RetrievalResult, bool) {
	if k <= 0 {
		k = defaultSemanticTopK
	}

	queryVector, err := r.embedder.EmbedQuery(ctx, message)
	if err != nil {
		slog.Warn("semantic_retrieval_degraded", "stage", "embed", "error", err)
		return r.lexicalFallback(ctx, message, k), true
	}

	limit := candidateMultiplier * k
	if limit < r.candidateFloor {
		limit = r.candidateFloor
	}

	results, err := r.vectors.Search(ctx, queryVector, limit, domain.SearchFilter{})
	if err != nil {
		slog.Warn("semantic_retrieval_degraded", "stage", "search", "error", err)
		return r.lexicalFallback(ctx, message, k), true
	}

	// The store's own ranking is trusted; no minimum-score filtering.
	if len(results) > k {
		results = results[:k]
	}
	return results, false
}

func (r *SemanticRetriever) lexicalFallback(ctx context.Context, message string, k int) []domain.RetrievalResult {
	stored, err := r.vectors.ScrollText(ctx, lexicalScanLimit)
	if err != nil {
		slog.Warn("semantic_retrieval_fallback_failed", "error", err)
		return nil
	}

	tokens := fallbackTokens(message)
	if len(tokens) == 0 {
		return nil
	}

	out := make([]domain.RetrievalResult, 0, k)
	for _, chunk := range stored {
		if !containsAnyKeyword(strings.ToLower(chunk.Content), tokens) {
			continue
		}
		chunk.Score = lexicalFallbackScore
		out = append(out, chunk)
		if len(out) == k {
			break
		}
	}
	return out
}

func fallbackTokens(message string) []string {
	fields := strings.Fields(strings.ToLower(message))
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		field = strings.Trim(field, ".,!?\"'()")
		if len(field) >= minFallbackTokenLen {
			tokens = append(tokens, field)
		}
	}
	return tokens
}
