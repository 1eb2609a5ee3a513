package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avelichkin/portfolio-assistant/internal/config"
	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
	"github.com/avelichkin/portfolio-assistant/internal/core/ports"
	"github.com/avelichkin/portfolio-assistant/internal/observability/metrics"
)

type Router struct {
	chat     ports.ChatService
	ingestor ports.RecordIngestor
	queue    ports.MessageQueue
	metrics  *metrics.APIMetrics
	cfg      config.Config
}

func NewRouter(
	chat ports.ChatService,
	ingestor ports.RecordIngestor,
	queue ports.MessageQueue,
	apiMetrics *metrics.APIMetrics,
	cfg config.Config,
) *Router {
	return &Router{
		chat:     chat,
		ingestor: ingestor,
		queue:    queue,
		metrics:  apiMetrics,
		cfg:      cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/chat", rt.chatStream)
	mux.HandleFunc("/v1/ingest", rt.triggerIngest)
	mux.HandleFunc("/v1/records/chunks", rt.recordChunks)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, time.Duration(rt.cfg.APIBackpressureWait)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Message string `json:"message"`
	History []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"history"`
}

// chatStream answers a visitor question as a server-sent event stream of
// content fragments terminated by a [DONE] marker. Errors after the first
// fragment can only truncate the stream.
func (rt *Router) chatStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	history := make([]domain.ChatMessage, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, domain.ChatMessage{Role: turn.Role, Content: turn.Content})
	}

	start := time.Now()
	stream, stats, err := rt.chat.Respond(r.Context(), req.Message, history)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	defer stream.Close()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming is not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			slog.Warn("chat_stream_truncated",
				"request_id", requestIDFromContext(r.Context()),
				"error", err,
			)
			break
		}
		if fragment == "" {
			continue
		}

		payload, err := json.Marshal(map[string]string{"content": fragment})
		if err != nil {
			break
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			break
		}
		flusher.Flush()
	}

	_, _ = io.WriteString(w, "data: [DONE]\n\n")
	flusher.Flush()

	if rt.metrics != nil && stats != nil {
		dropped := stats.SemanticResults + stats.StructuredResults - stats.FusedResults
		rt.metrics.RecordChatObservation("api", stats.FusedResults, dropped, stats.SemanticDegraded, time.Since(start))
	}
	slog.Info("chat_stream",
		"request_id", requestIDFromContext(r.Context()),
		"semantic_results", stats.SemanticResults,
		"structured_results", stats.StructuredResults,
		"fused_results", stats.FusedResults,
		"semantic_degraded", stats.SemanticDegraded,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
}

type ingestRequest struct {
	ContentType string `json:"content_type"`
	ReferenceID string `json:"reference_id"`
	Op          string `json:"op"`
}

// triggerIngest publishes a record-changed event for the worker to pick
// up. The 202 only acknowledges the publish, not the ingestion itself.
func (rt *Router) triggerIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	contentType := domain.ContentType(strings.TrimSpace(req.ContentType))
	if !contentType.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown content type %q", req.ContentType)})
		return
	}
	if strings.TrimSpace(req.ReferenceID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reference_id is required"})
		return
	}

	op := domain.RecordOp(req.Op)
	if op == "" {
		op = domain.OpUpsert
	}
	if op != domain.OpUpsert && op != domain.OpDelete {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown op %q", req.Op)})
		return
	}

	event := domain.RecordEvent{
		ContentType: contentType,
		ReferenceID: strings.TrimSpace(req.ReferenceID),
		Op:          op,
		OccurredAt:  time.Now().UTC(),
	}
	if err := rt.queue.PublishRecordChanged(r.Context(), event); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// recordChunks reports how many chunks are stored for one record, used to
// spot records left stale by a failed ingestion.
func (rt *Router) recordChunks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	contentType := domain.ContentType(r.URL.Query().Get("content_type"))
	referenceID := r.URL.Query().Get("reference_id")
	if !contentType.Valid() || referenceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "content_type and reference_id are required"})
		return
	}

	count, err := rt.ingestor.CountChunks(r.Context(), contentType, referenceID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"content_type": contentType,
		"reference_id": referenceID,
		"chunk_count":  count,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
