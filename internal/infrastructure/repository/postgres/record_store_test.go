package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
)

func newStoreWithMock(t *testing.T) (*RecordStore, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &RecordStore{db: db}, mock, func() { _ = db.Close() }
}

func TestGetProjectReturnsDomainNotFound(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, title, description, tech_stack").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetProject(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetExperienceScansJSONColumns(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "company", "position", "location", "start_date", "end_date", "technologies", "projects"}).
		AddRow("e1", "Acme Corp", "Engineer", "Berlin", start, nil,
			[]byte(`["Go","PostgreSQL"]`),
			[]byte(`[{"name":"Billing pipeline","metrics":"cut latency by 40%"}]`))

	mock.ExpectQuery("SELECT id, company, position, location").
		WithArgs("e1").
		WillReturnRows(rows)

	exp, err := store.GetExperience(context.Background(), "e1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp.Company != "Acme Corp" || exp.Location != "Berlin" {
		t.Fatalf("unexpected experience: %+v", exp)
	}
	if exp.EndDate != nil {
		t.Fatalf("expected open-ended experience")
	}
	if len(exp.Technologies) != 2 || exp.Technologies[0] != "Go" {
		t.Fatalf("unexpected technologies: %v", exp.Technologies)
	}
	if len(exp.Projects) != 1 || exp.Projects[0].Name != "Billing pipeline" {
		t.Fatalf("unexpected projects: %v", exp.Projects)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListProjectsFeaturedOnlyAddsPredicate(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "title", "description", "tech_stack", "achievements", "metrics", "demo_url", "github_url", "featured", "created_at"}).
		AddRow("p1", "Trail Tracker", "planner", []byte(`["Go"]`), []byte(`[]`), nil, nil, nil, true, time.Now())

	mock.ExpectQuery("FROM projects\\s+WHERE featured = TRUE").
		WithArgs(5).
		WillReturnRows(rows)

	projects, err := store.ListProjects(context.Background(), true, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(projects) != 1 || !projects[0].Featured {
		t.Fatalf("unexpected projects: %+v", projects)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListSkillsTreatsNullLevelAsEmpty(t *testing.T) {
	store, mock, done := newStoreWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "name", "category", "level"}).
		AddRow("s1", "Go", "Backend", nil)

	mock.ExpectQuery("SELECT id, name, category, level").
		WillReturnRows(rows)

	skills, err := store.ListSkills(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(skills) != 1 || skills[0].Level != "" {
		t.Fatalf("unexpected skills: %+v", skills)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
