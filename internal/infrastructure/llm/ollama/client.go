package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
	"github.com/avelichkin/portfolio-assistant/internal/core/ports"
	"github.com/avelichkin/portfolio-assistant/internal/infrastructure/resilience"
)

const streamScannerBuffer = 1 << 20

type Client struct {
	baseURL    string
	chatModel  string
	embedModel string
	httpClient *http.Client
	// Streaming responses can outlive any sensible request timeout; the
	// caller's context bounds them instead.
	streamClient *http.Client
	executor     *resilience.Executor
}

func New(baseURL, chatModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		chatModel:    chatModel,
		embedModel:   embedModel,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		streamClient: &http.Client{},
		executor:     executor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	call := func(ctx context.Context) error {
		return e.client.postJSON(ctx, "/api/embed", request, &response, "embed")
	}

	var err error
	if e.client.executor != nil {
		err = e.client.executor.Execute(ctx, "ollama.embed", call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("ollama embed", err)
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

// Streamer starts chat completions and exposes them as a token stream.
// Start failures go through the error classifier; mid-stream failures are
// the consumer's to handle.
type Streamer struct {
	client *Client
}

func NewStreamer(client *Client) *Streamer {
	return &Streamer{client: client}
}

func (s *Streamer) StreamChat(ctx context.Context, messages []domain.ChatMessage) (ports.TokenStream, error) {
	type chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	payload := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		payload = append(payload, chatMessage{Role: m.Role, Content: m.Content})
	}

	request := map[string]any{
		"model":    s.client.chatModel,
		"messages": payload,
		"stream":   true,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.baseURL+"/api/chat", strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.streamClient.Do(req)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("ollama chat", fmt.Errorf("ollama chat request: %w", err))
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, wrapTemporaryIfNeeded("ollama chat", statusError("chat", resp))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), streamScannerBuffer)
	return &chatStream{body: resp.Body, scanner: scanner}, nil
}

// chatStream decodes the newline-delimited JSON chat response one message
// at a time. Single consumer; not safe for concurrent Recv.
type chatStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func (s *chatStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}

		var event struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			Done  bool   `json:"done"`
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			return "", fmt.Errorf("decode chat event: %w", err)
		}
		if event.Error != "" {
			return "", fmt.Errorf("ollama chat: %s", event.Error)
		}
		if event.Done {
			s.done = true
			if event.Message.Content != "" {
				return event.Message.Content, nil
			}
			return "", io.EOF
		}
		return event.Message.Content, nil
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("read chat stream: %w", err)
	}
	return "", io.EOF
}

func (s *chatStream) Close() error {
	return s.body.Close()
}
