package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
	"github.com/avelichkin/portfolio-assistant/internal/core/ports"
)

// Hand-tuned structured-lookup scores. They deliberately outrank vector
// similarity scores for exact and broad matches; kept as named constants,
// not derived.
const (
	scoreProjectList     = 0.98
	scoreExperienceMatch = 0.95
	scoreFeaturedProject = 0.90
	scoreProject         = 0.85
	scoreEducation       = 0.85
	scoreSkillCategory   = 0.80
)

const (
	allProjectsLimit      = 20
	featuredProjectsLimit = 5
)

var wantAllPhrases = []string{"all", "personal", "list", "show me"}

// StructuredRetriever pulls records straight from the source-of-truth
// store, bypassing vectors, for the branches a query intent implies. Each
// branch degrades to an empty contribution on store errors; retrieval
// never fails the request.
type StructuredRetriever struct {
	records ports.RecordStore
}

func NewStructuredRetriever(records ports.RecordStore) *StructuredRetriever {
	return &StructuredRetriever{records: records}
}

func (r *StructuredRetriever) Retrieve(ctx context.Context, message string, intent domain.QueryIntent) []domain.RetrievalResult {
	lower := strings.ToLower(message)

	var (
		experienceResults []domain.RetrievalResult
		projectResults    []domain.RetrievalResult
		educationResults  []domain.RetrievalResult
		skillResults      []domain.RetrievalResult
	)

	g, gctx := errgroup.WithContext(ctx)

	if intent.HasType(domain.TypeExperience) || len(intent.Keywords) > 0 {
		g.Go(func() error {
			experienceResults = r.retrieveExperiences(gctx, intent.Keywords)
			return nil
		})
	}
	if intent.HasType(domain.TypeProject) || intent.Broad {
		g.Go(func() error {
			projectResults = r.retrieveProjects(gctx, lower)
			return nil
		})
	}
	if intent.HasType(domain.TypeEducation) {
		g.Go(func() error {
			educationResults = r.retrieveEducation(gctx)
			return nil
		})
	}
	if intent.HasType(domain.TypeSkill) {
		g.Go(func() error {
			skillResults = r.retrieveSkillGroups(gctx)
			return nil
		})
	}

	_ = g.Wait()

	out := make([]domain.RetrievalResult, 0,
		len(experienceResults)+len(projectResults)+len(educationResults)+len(skillResults))
	out = append(out, experienceResults...)
	out = append(out, projectResults...)
	out = append(out, educationResults...)
	out = append(out, skillResults...)
	return out
}

func (r *StructuredRetriever) retrieveExperiences(ctx context.Context, keywords []string) []domain.RetrievalResult {
	experiences, err := r.records.ListExperiences(ctx)
	if err != nil {
		slog.Warn("structured_retrieval_branch_failed", "branch", "experience", "error", err)
		return nil
	}

	out := make([]domain.RetrievalResult, 0, len(experiences))
	for _, exp := range experiences {
		text, metadata := deriveExperience(exp)
		if len(keywords) > 0 && !containsAnyKeyword(strings.ToLower(text), keywords) {
			continue
		}
		out = append(out, domain.RetrievalResult{
			Content:  text,
			Metadata: metadata,
			Score:    scoreExperienceMatch,
		})
	}
	return out
}

func (r *StructuredRetriever) retrieveProjects(ctx context.Context, lowerMessage string) []domain.RetrievalResult {
	wantAll := containsAnyKeyword(lowerMessage, wantAllPhrases)

	featuredOnly := !wantAll
	limit := featuredProjectsLimit
	if wantAll {
		limit = allProjectsLimit
	}

	projects, err := r.records.ListProjects(ctx, featuredOnly, limit)
	if err != nil {
		slog.Warn("structured_retrieval_branch_failed", "branch", "project", "error", err)
		return nil
	}

	out := make([]domain.RetrievalResult, 0, len(projects)+1)
	if wantAll && len(projects) > 0 {
		out = append(out, domain.RetrievalResult{
			Content: renderProjectList(projects),
			Metadata: map[string]string{
				"type":  string(domain.TypeProject),
				"title": "All Projects",
			},
			Score: scoreProjectList,
		})
	}

	for _, proj := range projects {
		text, metadata := deriveProject(proj)
		score := scoreProject
		if proj.Featured {
			score = scoreFeaturedProject
		}
		out = append(out, domain.RetrievalResult{
			Content:  text,
			Metadata: metadata,
			Score:    score,
		})
	}
	return out
}

func (r *StructuredRetriever) retrieveEducation(ctx context.Context) []domain.RetrievalResult {
	education, err := r.records.ListEducation(ctx)
	if err != nil {
		slog.Warn("structured_retrieval_branch_failed", "branch", "education", "error", err)
		return nil
	}

	out := make([]domain.RetrievalResult, 0, len(education))
	for _, edu := range education {
		text, metadata := deriveEducation(edu)
		out = append(out, domain.RetrievalResult{
			Content:  text,
			Metadata: metadata,
			Score:    scoreEducation,
		})
	}
	return out
}

func (r *StructuredRetriever) retrieveSkillGroups(ctx context.Context) []domain.RetrievalResult {
	skills, err := r.records.ListSkills(ctx)
	if err != nil {
		slog.Warn("structured_retrieval_branch_failed", "branch", "skill", "error", err)
		return nil
	}

	grouped := make(map[string][]string)
	for _, skill := range skills {
		category := skill.Category
		if category == "" {
			category = "Other"
		}
		grouped[category] = append(grouped[category], skill.Name)
	}

	categories := make([]string, 0, len(grouped))
	for category := range grouped {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	out := make([]domain.RetrievalResult, 0, len(categories))
	for _, category := range categories {
		out = append(out, domain.RetrievalResult{
			Content: fmt.Sprintf("%s skills: %s", category, strings.Join(grouped[category], ", ")),
			Metadata: map[string]string{
				"type":     string(domain.TypeSkill),
				"category": category,
			},
			Score: scoreSkillCategory,
		})
	}
	return out
}

func renderProjectList(projects []domain.Project) string {
	var b strings.Builder
	b.WriteString("Projects:\n")
	for _, proj := range projects {
		if proj.Featured {
			fmt.Fprintf(&b, "- %s (Featured)\n", proj.Title)
			continue
		}
		fmt.Fprintf(&b, "- %s\n", proj.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}

func containsAnyKeyword(haystack string, keywords []string) bool {
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}
