package usecase

import (
	"sort"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
)

const (
	defaultContextBudget = 12
	// Dedup compares a fixed-length content prefix. Two distinct items
	// sharing a long common opening are merged; that heuristic is kept
	// as-is because a smarter measure would change retrieval behavior.
	dedupPrefixRunes = 200
)

// FuseResults merges semantic and structured results into one ranked,
// deduplicated list capped at budget items. Sorting happens before dedup
// so the highest-scored copy of duplicated content wins.
func FuseResults(semantic, structured []domain.RetrievalResult, budget int) []domain.RetrievalResult {
	if budget <= 0 {
		budget = defaultContextBudget
	}

	merged := make([]domain.RetrievalResult, 0, len(semantic)+len(structured))
	merged = append(merged, semantic...)
	merged = append(merged, structured...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	seen := make(map[string]struct{}, len(merged))
	out := make([]domain.RetrievalResult, 0, len(merged))
	for _, result := range merged {
		key := contentPrefix(result.Content)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, result)
		if len(out) == budget {
			break
		}
	}
	return out
}

func contentPrefix(content string) string {
	runes := []rune(content)
	if len(runes) <= dedupPrefixRunes {
		return content
	}
	return string(runes[:dedupPrefixRunes])
}
