package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
)

// The derivations below flatten each record type into the text/metadata
// shape shared by embedded chunks and structured retrieval results.

func deriveExperience(exp domain.Experience) (string, map[string]string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", exp.Company)
	fmt.Fprintf(&b, "Position: %s\n", exp.Position)
	if exp.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", exp.Location)
	}
	fmt.Fprintf(&b, "Period: %s\n", formatDateRange(exp.StartDate, exp.EndDate))
	if len(exp.Technologies) > 0 {
		fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(exp.Technologies, ", "))
	}
	for _, proj := range exp.Projects {
		fmt.Fprintf(&b, "Project: %s\n", proj.Name)
		if proj.Description != "" {
			fmt.Fprintf(&b, "  %s\n", proj.Description)
		}
		if proj.Metrics != "" {
			fmt.Fprintf(&b, "  Metrics: %s\n", proj.Metrics)
		}
		if len(proj.Technologies) > 0 {
			fmt.Fprintf(&b, "  Technologies: %s\n", strings.Join(proj.Technologies, ", "))
		}
	}

	return strings.TrimRight(b.String(), "\n"), map[string]string{
		"type":    string(domain.TypeExperience),
		"company": exp.Company,
		"role":    exp.Position,
	}
}

func deriveProject(proj domain.Project) (string, map[string]string) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", proj.Title)
	if proj.Description != "" {
		fmt.Fprintf(&b, "%s\n", proj.Description)
	}
	if len(proj.TechStack) > 0 {
		fmt.Fprintf(&b, "Tech stack: %s\n", strings.Join(proj.TechStack, ", "))
	}
	if len(proj.Achievements) > 0 {
		fmt.Fprintf(&b, "Achievements: %s\n", strings.Join(proj.Achievements, "; "))
	}
	if proj.Metrics != "" {
		fmt.Fprintf(&b, "Metrics: %s\n", proj.Metrics)
	}
	if proj.DemoURL != "" {
		fmt.Fprintf(&b, "Demo: %s\n", proj.DemoURL)
	}
	if proj.GithubURL != "" {
		fmt.Fprintf(&b, "GitHub: %s\n", proj.GithubURL)
	}

	return strings.TrimRight(b.String(), "\n"), map[string]string{
		"type":    string(domain.TypeProject),
		"project": proj.Title,
	}
}

func deriveEducation(edu domain.Education) (string, map[string]string) {
	var b strings.Builder
	degree := edu.Degree
	if edu.Field != "" {
		degree = fmt.Sprintf("%s in %s", edu.Degree, edu.Field)
	}
	fmt.Fprintf(&b, "%s, %s\n", degree, edu.Institution)
	if edu.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", edu.Location)
	}
	fmt.Fprintf(&b, "Period: %s\n", formatDateRange(edu.StartDate, edu.EndDate))
	if edu.GPA != "" {
		fmt.Fprintf(&b, "GPA: %s\n", edu.GPA)
	}
	if len(edu.Courses) > 0 {
		fmt.Fprintf(&b, "Courses: %s\n", strings.Join(edu.Courses, ", "))
	}
	if edu.Honors != "" {
		fmt.Fprintf(&b, "Honors: %s\n", edu.Honors)
	}

	return strings.TrimRight(b.String(), "\n"), map[string]string{
		"type":        string(domain.TypeEducation),
		"institution": edu.Institution,
	}
}

func deriveSkill(skill domain.Skill) (string, map[string]string) {
	text := fmt.Sprintf("%s (%s)", skill.Name, skill.Category)
	if skill.Level != "" {
		text = fmt.Sprintf("%s, %s level", text, skill.Level)
	}
	return text, map[string]string{
		"type":     string(domain.TypeSkill),
		"category": skill.Category,
	}
}

func deriveCertification(cert domain.Certification) (string, map[string]string) {
	text := fmt.Sprintf("%s, issued by %s in %s", cert.Name, cert.Issuer, cert.IssueDate.Format("January 2006"))
	if cert.CredentialID != "" {
		text = fmt.Sprintf("%s (credential %s)", text, cert.CredentialID)
	}
	return text, map[string]string{
		"type":  string(domain.TypeCertification),
		"title": cert.Name,
	}
}

func deriveAward(award domain.Award) (string, map[string]string) {
	text := award.Title
	if award.Issuer != "" {
		text = fmt.Sprintf("%s, awarded by %s", text, award.Issuer)
	}
	text = fmt.Sprintf("%s in %s", text, award.AwardedAt.Format("January 2006"))
	if award.Description != "" {
		text = fmt.Sprintf("%s. %s", text, award.Description)
	}
	return text, map[string]string{
		"type":  string(domain.TypeAward),
		"title": award.Title,
	}
}

// formatDateRange renders an open-ended range with "Present" to signal an
// ongoing record.
func formatDateRange(start time.Time, end *time.Time) string {
	from := start.Format("Jan 2006")
	if end == nil {
		return from + " - Present"
	}
	return from + " - " + end.Format("Jan 2006")
}
