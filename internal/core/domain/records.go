package domain

import "time"

// ContentType tags every domain record and every embedding chunk derived
// from it. The CRUD layer owns the records; this service only reads them.
type ContentType string

const (
	TypeProject       ContentType = "project"
	TypeExperience    ContentType = "experience"
	TypeEducation     ContentType = "education"
	TypeSkill         ContentType = "skill"
	TypeCertification ContentType = "certification"
	TypeAward         ContentType = "award"
)

func (t ContentType) Valid() bool {
	switch t {
	case TypeProject, TypeExperience, TypeEducation, TypeSkill, TypeCertification, TypeAward:
		return true
	default:
		return false
	}
}

type Experience struct {
	ID           string              `json:"id"`
	Company      string              `json:"company"`
	Position     string              `json:"position"`
	Location     string              `json:"location,omitempty"`
	StartDate    time.Time           `json:"start_date"`
	EndDate      *time.Time          `json:"end_date,omitempty"`
	Technologies []string            `json:"technologies,omitempty"`
	Projects     []ExperienceProject `json:"projects,omitempty"`
}

type ExperienceProject struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Metrics      string   `json:"metrics,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
}

type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	TechStack    []string  `json:"tech_stack,omitempty"`
	Achievements []string  `json:"achievements,omitempty"`
	Metrics      string    `json:"metrics,omitempty"`
	DemoURL      string    `json:"demo_url,omitempty"`
	GithubURL    string    `json:"github_url,omitempty"`
	Featured     bool      `json:"featured"`
	CreatedAt    time.Time `json:"created_at"`
}

type Education struct {
	ID          string     `json:"id"`
	Degree      string     `json:"degree"`
	Field       string     `json:"field,omitempty"`
	Institution string     `json:"institution"`
	Location    string     `json:"location,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	GPA         string     `json:"gpa,omitempty"`
	Courses     []string   `json:"courses,omitempty"`
	Honors      string     `json:"honors,omitempty"`
}

type Skill struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Level    string `json:"level,omitempty"`
}

type Certification struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Issuer       string    `json:"issuer"`
	IssueDate    time.Time `json:"issue_date"`
	CredentialID string    `json:"credential_id,omitempty"`
}

type Award struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Issuer      string    `json:"issuer,omitempty"`
	Description string    `json:"description,omitempty"`
	AwardedAt   time.Time `json:"awarded_at"`
}
