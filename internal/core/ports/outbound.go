package ports

import (
	"context"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
)

// Embedder builds vectors for chunk and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits derived record text into overlapping windows.
type Chunker interface {
	Split(text string) []string
}

// VectorStore persists embedding chunks and performs nearest-neighbor
// search. Mutations are insert and delete-by-reference only; chunks are
// never updated in place.
type VectorStore interface {
	Insert(ctx context.Context, chunks []domain.EmbeddingChunk) error
	DeleteByReference(ctx context.Context, contentType domain.ContentType, referenceID string) error
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievalResult, error)
	// ScrollText pages stored chunk text without vectors, used by the
	// degraded lexical fallback when nearest-neighbor search is down.
	ScrollText(ctx context.Context, limit int) ([]domain.RetrievalResult, error)
	Count(ctx context.Context, contentType domain.ContentType, referenceID string) (int, error)
}

// RecordStore reads domain records owned by the admin CRUD layer.
type RecordStore interface {
	ListExperiences(ctx context.Context) ([]domain.Experience, error)
	ListProjects(ctx context.Context, featuredOnly bool, limit int) ([]domain.Project, error)
	ListEducation(ctx context.Context) ([]domain.Education, error)
	ListSkills(ctx context.Context) ([]domain.Skill, error)
	ListCertifications(ctx context.Context) ([]domain.Certification, error)
	ListAwards(ctx context.Context) ([]domain.Award, error)

	GetExperience(ctx context.Context, id string) (*domain.Experience, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	GetEducation(ctx context.Context, id string) (*domain.Education, error)
	GetSkill(ctx context.Context, id string) (*domain.Skill, error)
	GetCertification(ctx context.Context, id string) (*domain.Certification, error)
	GetAward(ctx context.Context, id string) (*domain.Award, error)
}

// MessageQueue publishes/consumes record-change events.
type MessageQueue interface {
	PublishRecordChanged(ctx context.Context, event domain.RecordEvent) error
	SubscribeRecordChanged(ctx context.Context, handler func(context.Context, domain.RecordEvent) error) error
	Close()
}

// TokenStream is a finite, forward-only sequence of generated text
// fragments. Recv returns io.EOF when the stream ends; Close releases the
// underlying connection and must be called by the consumer.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// ChatStreamer sends a full prompt to the generation capability and
// returns an incrementally produced response.
type ChatStreamer interface {
	StreamChat(ctx context.Context, messages []domain.ChatMessage) (TokenStream, error)
}
