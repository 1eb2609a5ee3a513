package ports

import (
	"context"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
)

// RecordIngestor is the inbound contract for keeping the embedding store
// consistent with the source-of-truth records.
type RecordIngestor interface {
	UpsertRecord(ctx context.Context, contentType domain.ContentType, referenceID string) (domain.IngestOutcome, error)
	DeleteRecord(ctx context.Context, contentType domain.ContentType, referenceID string) error
	CountChunks(ctx context.Context, contentType domain.ContentType, referenceID string) (int, error)
}

// ChatService is the inbound contract for grounded streamed answers.
type ChatService interface {
	Respond(ctx context.Context, message string, history []domain.ChatMessage) (TokenStream, *domain.RetrievalStats, error)
}
