package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
)

// RecordStore reads portfolio records from the database owned by the site's
// CRUD service. This service never writes to these tables and does not
// manage their schema.
type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RecordStore) ListExperiences(ctx context.Context) ([]domain.Experience, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, company, position, location, start_date, end_date, technologies, projects
FROM experiences
ORDER BY start_date DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}
	defer rows.Close()

	var out []domain.Experience
	for rows.Next() {
		exp, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *exp)
	}
	return out, rows.Err()
}

func (r *RecordStore) GetExperience(ctx context.Context, id string) (*domain.Experience, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, company, position, location, start_date, end_date, technologies, projects
FROM experiences
WHERE id = $1
`, id)
	exp, err := scanExperience(row)
	if err != nil {
		return nil, notFoundOr(err, "experience", id)
	}
	return exp, nil
}

func (r *RecordStore) ListProjects(ctx context.Context, featuredOnly bool, limit int) ([]domain.Project, error) {
	query := `
SELECT id, title, description, tech_stack, achievements, metrics, demo_url, github_url, featured, created_at
FROM projects
`
	if featuredOnly {
		query += "WHERE featured = TRUE\n"
	}
	query += "ORDER BY featured DESC, created_at DESC\nLIMIT $1"

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *proj)
	}
	return out, rows.Err()
}

func (r *RecordStore) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, description, tech_stack, achievements, metrics, demo_url, github_url, featured, created_at
FROM projects
WHERE id = $1
`, id)
	proj, err := scanProject(row)
	if err != nil {
		return nil, notFoundOr(err, "project", id)
	}
	return proj, nil
}

func (r *RecordStore) ListEducation(ctx context.Context) ([]domain.Education, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, degree, field, institution, location, start_date, end_date, gpa, courses, honors
FROM education
ORDER BY start_date DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list education: %w", err)
	}
	defer rows.Close()

	var out []domain.Education
	for rows.Next() {
		edu, err := scanEducation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *edu)
	}
	return out, rows.Err()
}

func (r *RecordStore) GetEducation(ctx context.Context, id string) (*domain.Education, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, degree, field, institution, location, start_date, end_date, gpa, courses, honors
FROM education
WHERE id = $1
`, id)
	edu, err := scanEducation(row)
	if err != nil {
		return nil, notFoundOr(err, "education", id)
	}
	return edu, nil
}

func (r *RecordStore) ListSkills(ctx context.Context) ([]domain.Skill, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, category, level
FROM skills
ORDER BY category, name
`)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	var out []domain.Skill
	for rows.Next() {
		var skill domain.Skill
		var level sql.NullString
		if err := rows.Scan(&skill.ID, &skill.Name, &skill.Category, &level); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skill.Level = level.String
		out = append(out, skill)
	}
	return out, rows.Err()
}

func (r *RecordStore) GetSkill(ctx context.Context, id string) (*domain.Skill, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, category, level
FROM skills
WHERE id = $1
`, id)

	var skill domain.Skill
	var level sql.NullString
	if err := row.Scan(&skill.ID, &skill.Name, &skill.Category, &level); err != nil {
		return nil, notFoundOr(fmt.Errorf("scan skill: %w", err), "skill", id)
	}
	skill.Level = level.String
	return &skill, nil
}

func (r *RecordStore) ListCertifications(ctx context.Context) ([]domain.Certification, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, issuer, issue_date, credential_id
FROM certifications
ORDER BY issue_date DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list certifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Certification
	for rows.Next() {
		cert, err := scanCertification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cert)
	}
	return out, rows.Err()
}

func (r *RecordStore) GetCertification(ctx context.Context, id string) (*domain.Certification, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, issuer, issue_date, credential_id
FROM certifications
WHERE id = $1
`, id)
	cert, err := scanCertification(row)
	if err != nil {
		return nil, notFoundOr(err, "certification", id)
	}
	return cert, nil
}

func (r *RecordStore) ListAwards(ctx context.Context) ([]domain.Award, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, issuer, description, awarded_at
FROM awards
ORDER BY awarded_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list awards: %w", err)
	}
	defer rows.Close()

	var out []domain.Award
	for rows.Next() {
		award, err := scanAward(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *award)
	}
	return out, rows.Err()
}

func (r *RecordStore) GetAward(ctx context.Context, id string) (*domain.Award, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, issuer, description, awarded_at
FROM awards
WHERE id = $1
`, id)
	award, err := scanAward(row)
	if err != nil {
		return nil, notFoundOr(err, "award", id)
	}
	return award, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperience(row rowScanner) (*domain.Experience, error) {
	var exp domain.Experience
	var location sql.NullString
	var endDate sql.NullTime
	var techRaw, projectsRaw []byte

	err := row.Scan(&exp.ID, &exp.Company, &exp.Position, &location, &exp.StartDate, &endDate, &techRaw, &projectsRaw)
	if err != nil {
		return nil, fmt.Errorf("scan experience: %w", err)
	}
	exp.Location = location.String
	if endDate.Valid {
		exp.EndDate = &endDate.Time
	}
	if err := unmarshalJSONColumn(techRaw, &exp.Technologies); err != nil {
		return nil, fmt.Errorf("unmarshal experience technologies: %w", err)
	}
	if err := unmarshalJSONColumn(projectsRaw, &exp.Projects); err != nil {
		return nil, fmt.Errorf("unmarshal experience projects: %w", err)
	}
	return &exp, nil
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var proj domain.Project
	var description, metrics, demoURL, githubURL sql.NullString
	var stackRaw, achievementsRaw []byte

	err := row.Scan(&proj.ID, &proj.Title, &description, &stackRaw, &achievementsRaw, &metrics, &demoURL, &githubURL, &proj.Featured, &proj.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}
	proj.Description = description.String
	proj.Metrics = metrics.String
	proj.DemoURL = demoURL.String
	proj.GithubURL = githubURL.String
	if err := unmarshalJSONColumn(stackRaw, &proj.TechStack); err != nil {
		return nil, fmt.Errorf("unmarshal project tech stack: %w", err)
	}
	if err := unmarshalJSONColumn(achievementsRaw, &proj.Achievements); err != nil {
		return nil, fmt.Errorf("unmarshal project achievements: %w", err)
	}
	return &proj, nil
}

func scanEducation(row rowScanner) (*domain.Education, error) {
	var edu domain.Education
	var field, location, gpa, honors sql.NullString
	var endDate sql.NullTime
	var coursesRaw []byte

	err := row.Scan(&edu.ID, &edu.Degree, &field, &edu.Institution, &location, &edu.StartDate, &endDate, &gpa, &coursesRaw, &honors)
	if err != nil {
		return nil, fmt.Errorf("scan education: %w", err)
	}
	edu.Field = field.String
	edu.Location = location.String
	edu.GPA = gpa.String
	edu.Honors = honors.String
	if endDate.Valid {
		edu.EndDate = &endDate.Time
	}
	if err := unmarshalJSONColumn(coursesRaw, &edu.Courses); err != nil {
		return nil, fmt.Errorf("unmarshal education courses: %w", err)
	}
	return &edu, nil
}

func scanCertification(row rowScanner) (*domain.Certification, error) {
	var cert domain.Certification
	var credentialID sql.NullString

	err := row.Scan(&cert.ID, &cert.Name, &cert.Issuer, &cert.IssueDate, &credentialID)
	if err != nil {
		return nil, fmt.Errorf("scan certification: %w", err)
	}
	cert.CredentialID = credentialID.String
	return &cert, nil
}

func scanAward(row rowScanner) (*domain.Award, error) {
	var award domain.Award
	var issuer, description sql.NullString

	err := row.Scan(&award.ID, &award.Title, &issuer, &description, &award.AwardedAt)
	if err != nil {
		return nil, fmt.Errorf("scan award: %w", err)
	}
	award.Issuer = issuer.String
	award.Description = description.String
	return &award, nil
}

func unmarshalJSONColumn(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func notFoundOr(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.ErrRecordNotFound, "get "+kind, fmt.Errorf("%s %s", kind, id))
	}
	return err
}
