package usecase

import (
	"strings"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
)

const contextSeparator = "\n---\n"

// headerFields lists identifying metadata in fixed priority order; a field
// contributes to the header only when present.
var headerFields = []struct {
	key   string
	label string
}{
	{"company", "Company"},
	{"role", "Role"},
	{"title", "Title"},
	{"project", "Project"},
	{"category", "Category"},
	{"institution", "Institution"},
	{"type", "Type"},
}

// FormatContext renders fused retrieval results into the single grounded
// context block embedded in the generation prompt.
func FormatContext(results []domain.RetrievalResult) string {
	if len(results) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(results))
	for _, result := range results {
		parts := make([]string, 0, len(headerFields))
		for _, field := range headerFields {
			if value := result.Metadata[field.key]; value != "" {
				parts = append(parts, field.label+": "+value)
			}
		}

		if len(parts) == 0 {
			blocks = append(blocks, result.Content)
			continue
		}
		blocks = append(blocks, strings.Join(parts, " | ")+"\n"+result.Content)
	}

	return strings.Join(blocks, contextSeparator)
}
