package chunking

import (
	"strings"
	"testing"
)

func TestSplitShortTextReturnsSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)
	chunks := s.Split("hello world")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "hello world" {
		t.Fatalf("expected whole text, got %q", chunks[0])
	}
}

func TestSplitEmptyTextReturnsNil(t *testing.T) {
	s := NewSplitter(1000, 200)
	if chunks := s.Split(""); chunks != nil {
		t.Fatalf("expected nil for empty input, got %v", chunks)
	}
}

func TestSplitExactBoundaryAdvancesByStep(t *testing.T) {
	s := NewSplitter(1000, 200)
	text := strings.Repeat("a", 1000) + strings.Repeat("b", 1000)
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks[:len(chunks)-1] {
		if len(chunk) != 1000 {
			t.Fatalf("chunk %d: expected 1000 chars, got %d", i, len(chunk))
		}
	}
	// Each window starts chunkSize-overlap runes after the previous one.
	runes := []rune(text)
	for i, chunk := range chunks {
		start := i * 800
		end := start + 1000
		if end > len(runes) {
			end = len(runes)
		}
		if chunk != string(runes[start:end]) {
			t.Fatalf("chunk %d does not start at offset %d", i, start)
		}
	}
}

func TestSplitCoversEveryRune(t *testing.T) {
	cases := []struct {
		chunkSize int
		overlap   int
		textLen   int
	}{
		{10, 3, 95},
		{7, 0, 50},
		{5, 4, 23},
		{100, 99, 250},
	}

	for _, tc := range cases {
		s := NewSplitter(tc.chunkSize, tc.overlap)
		text := buildDistinctText(tc.textLen)
		chunks := s.Split(text)

		covered := make([]bool, tc.textLen)
		offset := 0
		step := s.ChunkSize - s.Overlap
		for i, chunk := range chunks {
			for j := range []rune(chunk) {
				if offset+j < tc.textLen {
					covered[offset+j] = true
				}
			}
			if i < len(chunks)-1 {
				offset += step
			}
		}
		for idx, ok := range covered {
			if !ok {
				t.Fatalf("chunkSize=%d overlap=%d: rune %d not covered", tc.chunkSize, tc.overlap, idx)
			}
		}

		bound := tc.textLen/step + 2
		if len(chunks) > bound {
			t.Fatalf("chunkSize=%d overlap=%d: %d chunks exceeds bound %d", tc.chunkSize, tc.overlap, len(chunks), bound)
		}
	}
}

func TestSplitClampsOverlapBelowChunkSize(t *testing.T) {
	s := NewSplitter(5, 50)
	if s.Overlap >= s.ChunkSize {
		t.Fatalf("overlap %d not clamped below chunk size %d", s.Overlap, s.ChunkSize)
	}
	chunks := s.Split(buildDistinctText(40))
	if len(chunks) == 0 {
		t.Fatalf("expected chunks despite degenerate overlap")
	}
}

func buildDistinctText(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteRune(rune('a' + i%26))
	}
	return b.String()
}

func TestSplitSafetyCapEmitsRemainder(t *testing.T) {
	s := NewSplitter(2, 1)
	textLen := maxChunks + 500
	text := strings.Repeat("x", textLen)
	chunks := s.Split(text)

	if len(chunks) != maxChunks+1 {
		t.Fatalf("expected %d chunks, got %d", maxChunks+1, len(chunks))
	}
	last := chunks[len(chunks)-1]
	if len(last) != textLen-maxChunks {
		t.Fatalf("expected remainder of %d chars, got %d", textLen-maxChunks, len(last))
	}
}
