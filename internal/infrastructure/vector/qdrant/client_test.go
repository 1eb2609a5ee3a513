package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
)

func sampleChunks() []domain.EmbeddingChunk {
	now := time.Now().UTC()
	return []domain.EmbeddingChunk{
		{
			Text:        "Built Trail Tracker",
			ContentType: domain.TypeProject,
			ReferenceID: "p1",
			Metadata:    map[string]string{"project": "Trail Tracker"},
			Vector:      []float32{0.1, 0.2},
			ChunkIndex:  0,
			ChunkCount:  2,
			CreatedAt:   now,
		},
		{
			Text:        "with offline maps",
			ContentType: domain.TypeProject,
			ReferenceID: "p1",
			Metadata:    map[string]string{"project": "Trail Tracker"},
			Vector:      []float32{0.3, 0.4},
			ChunkIndex:  1,
			ChunkCount:  2,
			CreatedAt:   now,
		},
	}
}

func TestInsertEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/portfolio":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/portfolio/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "portfolio")
	if err := client.Insert(context.Background(), sampleChunks()); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	if err := client.Insert(context.Background(), sampleChunks()); err != nil {
		t.Fatalf("second Insert() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestInsertSendsMetadataAsPrefixedPayload(t *testing.T) {
	var upsertBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/portfolio":
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/portfolio/points":
			_ = json.NewDecoder(r.Body).Decode(&upsertBody)
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "portfolio")
	if err := client.Insert(context.Background(), sampleChunks()[:1]); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	points := upsertBody["points"].([]any)
	payload := points[0].(map[string]any)["payload"].(map[string]any)
	if payload["content_type"] != "project" || payload["reference_id"] != "p1" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if payload["meta_project"] != "Trail Tracker" {
		t.Fatalf("expected prefixed metadata key, got %v", payload)
	}
}

func TestDeleteByReferenceToleratesMissingCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "portfolio")
	if err := client.DeleteByReference(context.Background(), domain.TypeProject, "p1"); err != nil {
		t.Fatalf("expected 404 treated as already deleted, got %v", err)
	}
}

func TestSearchAppliesContentTypeFilterAndDecodesResults(t *testing.T) {
	var searchBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/collections/portfolio/points/search" {
			_ = json.NewDecoder(r.Body).Decode(&searchBody)
			_, _ = w.Write([]byte(`{"result":[{"score":0.87,"payload":{"text":"Built Trail Tracker","meta_project":"Trail Tracker","content_type":"project"}}]}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "portfolio")
	results, err := client.Search(context.Background(), []float32{0.1, 0.2}, 10, domain.SearchFilter{ContentType: domain.TypeProject})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if searchBody["filter"] == nil {
		t.Fatalf("expected content_type filter in search body")
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Content != "Built Trail Tracker" || results[0].Score != 0.87 {
		t.Fatalf("unexpected result: %+v", results[0])
	}
	if results[0].Metadata["project"] != "Trail Tracker" {
		t.Fatalf("expected unprefixed metadata, got %v", results[0].Metadata)
	}
}

func TestCountMissingCollectionIsZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "portfolio")
	n, err := client.Count(context.Background(), domain.TypeProject, "p1")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/portfolio" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "portfolio")
	err := client.Insert(context.Background(), sampleChunks()[:1])
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}
