package usecase

import (
	"testing"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
)

func TestClassifyExperienceWithKeywordAndBroadPhrase(t *testing.T) {
	classifier := NewIntentClassifier([]string{"acme"})

	intent := classifier.Classify("Tell me about your experience at Acme")

	if len(intent.Types) != 1 || intent.Types[0] != domain.TypeExperience {
		t.Fatalf("expected [experience], got %v", intent.Types)
	}
	if len(intent.Keywords) != 1 || intent.Keywords[0] != "acme" {
		t.Fatalf("expected keywords [acme], got %v", intent.Keywords)
	}
	if !intent.Broad {
		t.Fatalf("expected broad flag for 'tell me about' phrase")
	}
}

func TestClassifyMultipleTypeHints(t *testing.T) {
	classifier := NewIntentClassifier(nil)

	intent := classifier.Classify("What projects did you build and what skills did they use?")

	if !intent.HasType(domain.TypeProject) {
		t.Fatalf("expected project hint, got %v", intent.Types)
	}
	if !intent.HasType(domain.TypeSkill) {
		t.Fatalf("expected skill hint, got %v", intent.Types)
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	classifier := NewIntentClassifier([]string{"globex"})

	intent := classifier.Classify("DO YOU HAVE ANY CERTIFICATIONS FROM GLOBEX?")

	if !intent.HasType(domain.TypeCertification) {
		t.Fatalf("expected certification hint, got %v", intent.Types)
	}
	if len(intent.Keywords) != 1 || intent.Keywords[0] != "globex" {
		t.Fatalf("expected keywords [globex], got %v", intent.Keywords)
	}
}

func TestClassifyNoHints(t *testing.T) {
	classifier := NewIntentClassifier([]string{"acme"})

	intent := classifier.Classify("hi there")

	if len(intent.Types) != 0 {
		t.Fatalf("expected no type hints, got %v", intent.Types)
	}
	if len(intent.Keywords) != 0 {
		t.Fatalf("expected no keywords, got %v", intent.Keywords)
	}
	if intent.Broad {
		t.Fatalf("expected broad=false")
	}
}

func TestClassifyBroadPhrases(t *testing.T) {
	classifier := NewIntentClassifier(nil)

	for _, message := range []string{
		"give me an overview",
		"what are your featured projects",
		"summary please",
	} {
		if intent := classifier.Classify(message); !intent.Broad {
			t.Fatalf("expected broad flag for %q", message)
		}
	}
}
