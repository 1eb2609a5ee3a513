package usecase

import (
	"strings"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
)

// contentTypeTriggers maps each record type to its trigger substrings.
// Kept as an ordered table so classification output is deterministic and
// the rule set can grow without touching control flow. The matching is
// intentionally permissive: a false positive only costs an extra
// structured lookup, never a wrong answer.
var contentTypeTriggers = []struct {
	contentType domain.ContentType
	triggers    []string
}{
	{domain.TypeExperience, []string{"experience", "work", "job", "company"}},
	{domain.TypeProject, []string{"project", "built", "created", "developed"}},
	{domain.TypeSkill, []string{"skill", "technolog", "stack", "language"}},
	{domain.TypeEducation, []string{"education", "degree", "university", "college"}},
	{domain.TypeCertification, []string{"certif", "license"}},
	{domain.TypeAward, []string{"award", "achievement", "recognition"}},
}

var broadPhrases = []string{
	"tell me about",
	"what do you",
	"what are your",
	"overview",
	"summary",
	"all",
	"featured",
	"main",
	"best",
}

// IntentClassifier derives retrieval hints from a user message with plain
// substring rules. No model call, pure and recomputed per request.
type IntentClassifier struct {
	keywords []string
}

// NewIntentClassifier takes the corpus-specific proper-noun fragments
// (company/organization names, lowercase) to surface as keyword hints.
func NewIntentClassifier(keywordHints []string) *IntentClassifier {
	keywords := make([]string, 0, len(keywordHints))
	for _, hint := range keywordHints {
		hint = strings.ToLower(strings.TrimSpace(hint))
		if hint != "" {
			keywords = append(keywords, hint)
		}
	}
	return &IntentClassifier{keywords: keywords}
}

func (c *IntentClassifier) Classify(message string) domain.QueryIntent {
	lower := strings.ToLower(message)

	intent := domain.QueryIntent{
		Types:    []domain.ContentType{},
		Keywords: []string{},
	}

	for _, rule := range contentTypeTriggers {
		for _, trigger := range rule.triggers {
			if strings.Contains(lower, trigger) {
				intent.Types = append(intent.Types, rule.contentType)
				break
			}
		}
	}

	for _, keyword := range c.keywords {
		if strings.Contains(lower, keyword) {
			intent.Keywords = append(intent.Keywords, keyword)
		}
	}

	for _, phrase := range broadPhrases {
		if strings.Contains(lower, phrase) {
			intent.Broad = true
			break
		}
	}

	return intent
}
