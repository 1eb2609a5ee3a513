package usecase

import (
	"strings"
	"testing"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
)

func TestFuseResultsSortsByScoreDescending(t *testing.T) {
	semantic := []domain.RetrievalResult{
		{Content: "semantic low", Score: 0.4},
		{Content: "semantic high", Score: 0.9},
	}
	structured := []domain.RetrievalResult{
		{Content: "structured mid", Score: 0.7},
	}

	fused := FuseResults(semantic, structured, 12)

	if len(fused) != 3 {
		t.Fatalf("expected 3 results, got %d", len(fused))
	}
	for i := 1; i < len(fused); i++ {
		if fused[i].Score > fused[i-1].Score {
			t.Fatalf("results out of order at %d: %v", i, fused)
		}
	}
}

func TestFuseResultsDedupKeepsHigherScore(t *testing.T) {
	shared := "The same chunk of portfolio text appears in both sources"
	semantic := []domain.RetrievalResult{{Content: shared, Score: 0.6}}
	structured := []domain.RetrievalResult{{Content: shared, Score: 0.95}}

	fused := FuseResults(semantic, structured, 12)

	if len(fused) != 1 {
		t.Fatalf("expected duplicate collapsed to 1, got %d", len(fused))
	}
	if fused[0].Score != 0.95 {
		t.Fatalf("expected higher-scored copy to survive, got %.2f", fused[0].Score)
	}
}

func TestFuseResultsDedupComparesPrefixOnly(t *testing.T) {
	prefix := strings.Repeat("x", dedupPrefixRunes)
	semantic := []domain.RetrievalResult{{Content: prefix + " tail one", Score: 0.8}}
	structured := []domain.RetrievalResult{{Content: prefix + " tail two", Score: 0.7}}

	fused := FuseResults(semantic, structured, 12)

	if len(fused) != 1 {
		t.Fatalf("expected shared prefix to collapse results, got %d", len(fused))
	}
	if fused[0].Score != 0.8 {
		t.Fatalf("expected higher-scored copy, got %.2f", fused[0].Score)
	}
}

func TestFuseResultsEnforcesBudget(t *testing.T) {
	semantic := make([]domain.RetrievalResult, 10)
	for i := range semantic {
		semantic[i] = domain.RetrievalResult{Content: strings.Repeat("a", i+1), Score: float64(10-i) / 10}
	}

	fused := FuseResults(semantic, nil, 4)

	if len(fused) != 4 {
		t.Fatalf("expected budget of 4, got %d", len(fused))
	}
	if fused[0].Score != 1.0 {
		t.Fatalf("expected best result kept, got %.2f", fused[0].Score)
	}
}

func TestFuseResultsEmptyInputs(t *testing.T) {
	if fused := FuseResults(nil, nil, 12); len(fused) != 0 {
		t.Fatalf("expected empty fusion, got %d", len(fused))
	}
}
