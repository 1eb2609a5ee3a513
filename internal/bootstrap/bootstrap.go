package bootstrap

import (
	"fmt"

	"github.com/avelichkin/portfolio-assistant/internal/config"
	"github.com/avelichkin/portfolio-assistant/internal/core/ports"
	"github.com/avelichkin/portfolio-assistant/internal/core/usecase"
	"github.com/avelichkin/portfolio-assistant/internal/infrastructure/chunking"
	"github.com/avelichkin/portfolio-assistant/internal/infrastructure/llm/ollama"
	"github.com/avelichkin/portfolio-assistant/internal/infrastructure/queue/nats"
	"github.com/avelichkin/portfolio-assistant/internal/infrastructure/repository/postgres"
	"github.com/avelichkin/portfolio-assistant/internal/infrastructure/resilience"
	"github.com/avelichkin/portfolio-assistant/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Ingestor ports.RecordIngestor
	Chat     ports.ChatService

	closeFn func()
}

func New(cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	records := postgres.NewRecordStore(db)

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	streamer := ollama.NewStreamer(ollamaClient)

	vectors := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	classifier := usecase.NewIntentClassifier(cfg.KeywordHints)
	structured := usecase.NewStructuredRetriever(records)
	semantic := usecase.NewSemanticRetriever(embedder, vectors, cfg.SemanticCandidateFloor)

	ingestor := usecase.NewIngestRecordUseCase(records, chunker, embedder, vectors)
	chat := usecase.NewChatUseCase(classifier, structured, semantic, streamer, usecase.ChatConfig{
		SemanticTopK:  cfg.SemanticTopK,
		ContextBudget: cfg.ChatContextBudget,
		HistoryTurns:  cfg.ChatHistoryTurns,
	})

	return &App{
		Config:   cfg,
		Queue:    queue,
		Ingestor: ingestor,
		Chat:     chat,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
