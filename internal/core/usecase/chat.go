package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
	"github.com/avelichkin/portfolio-assistant/internal/core/ports"
)

const (
	defaultHistoryTurns = 6

	personaPrompt = "You are the portfolio owner's assistant on their personal website. " +
		"Answer visitor questions about their professional background, projects, and skills " +
		"on their behalf, in a friendly and concise tone."

	contextPreamble = "Use the following background information to answer. " +
		"Prefer it over general knowledge and say so when it does not cover the question."

	fallbackAnswer = "I'm sorry, I'm having trouble answering right now. Please try again in a moment."
)

type ChatConfig struct {
	SemanticTopK  int
	ContextBudget int
	HistoryTurns  int
}

// ChatUseCase runs the full query-time pipeline: intent classification,
// concurrent structured and semantic retrieval, fusion, context assembly,
// and the streamed generation call.
type ChatUseCase struct {
	classifier *IntentClassifier
	structured *StructuredRetriever
	semantic   *SemanticRetriever
	streamer   ports.ChatStreamer
	cfg        ChatConfig
}

func NewChatUseCase(
	classifier *IntentClassifier,
	structured *StructuredRetriever,
	semantic *SemanticRetriever,
	streamer ports.ChatStreamer,
	cfg ChatConfig,
) *ChatUseCase {
	if cfg.SemanticTopK <= 0 {
		cfg.SemanticTopK = defaultSemanticTopK
	}
	if cfg.ContextBudget <= 0 {
		cfg.ContextBudget = defaultContextBudget
	}
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = defaultHistoryTurns
	}
	return &ChatUseCase{
		classifier: classifier,
		structured: structured,
		semantic:   semantic,
		streamer:   streamer,
		cfg:        cfg,
	}
}

// Respond returns a finite, single-consumer token stream. Retrieval
// failures degrade to an ungrounded answer; a generation failure before
// the first token yields a one-fragment fallback stream. The request
// itself only fails on invalid input.
func (uc *ChatUseCase) Respond(ctx context.Context, message string, history []domain.ChatMessage) (ports.TokenStream, *domain.RetrievalStats, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "chat respond", errors.New("message is required"))
	}

	intent := uc.classifier.Classify(message)

	var (
		semanticResults   []domain.RetrievalResult
		structuredResults []domain.RetrievalResult
		degraded          bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		semanticResults, degraded = uc.semantic.Retrieve(gctx, message, uc.cfg.SemanticTopK)
		return nil
	})
	g.Go(func() error {
		structuredResults = uc.structured.Retrieve(gctx, message, intent)
		return nil
	})
	_ = g.Wait()

	fused := FuseResults(semanticResults, structuredResults, uc.cfg.ContextBudget)
	contextBlock := FormatContext(fused)

	stats := &domain.RetrievalStats{
		SemanticResults:   len(semanticResults),
		StructuredResults: len(structuredResults),
		FusedResults:      len(fused),
		SemanticDegraded:  degraded,
	}

	messages := buildPromptMessages(contextBlock, trimHistory(history, uc.cfg.HistoryTurns), message)

	stream, err := uc.streamer.StreamChat(ctx, messages)
	if err != nil {
		slog.Error("chat_stream_start_failed", "error", err)
		return newStaticStream(fallbackAnswer), stats, nil
	}
	return stream, stats, nil
}

func buildPromptMessages(contextBlock string, history []domain.ChatMessage, message string) []domain.ChatMessage {
	system := personaPrompt
	// An empty context block means ungrounded general behavior; the
	// context clause is omitted entirely rather than sent empty.
	if contextBlock != "" {
		system = personaPrompt + "\n\n" + contextPreamble + "\n\n" + contextBlock
	}

	messages := make([]domain.ChatMessage, 0, len(history)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: system})
	messages = append(messages, history...)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: message})
	return messages
}

// trimHistory keeps the most recent turns, dropping anything that is not a
// plain user or assistant message.
func trimHistory(history []domain.ChatMessage, maxTurns int) []domain.ChatMessage {
	trimmed := make([]domain.ChatMessage, 0, len(history))
	for _, turn := range history {
		if turn.Role != domain.RoleUser && turn.Role != domain.RoleAssistant {
			continue
		}
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		trimmed = append(trimmed, turn)
	}
	if len(trimmed) > maxTurns {
		trimmed = trimmed[len(trimmed)-maxTurns:]
	}
	return trimmed
}

// staticStream serves a prebuilt answer as a one-fragment stream, used as
// the user-facing fallback when generation cannot start.
type staticStream struct {
	fragments []string
	pos       int
}

func newStaticStream(fragments ...string) *staticStream {
	return &staticStream{fragments: fragments}
}

func (s *staticStream) Recv() (string, error) {
	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}
	fragment := s.fragments[s.pos]
	s.pos++
	return fragment, nil
}

func (s *staticStream) Close() error { return nil }
