package usecase

import (
	"context"
	"io"

	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
	"github.com/avelichkin/portfolio-assistant/internal/core/ports"
)

// stubRecordStore implements ports.RecordStore with overridable funcs;
// unset methods return empty results.
type stubRecordStore struct {
	listExperiences    func(ctx context.Context) ([]domain.Experience, error)
	listProjects       func(ctx context.Context, featuredOnly bool, limit int) ([]domain.Project, error)
	listEducation      func(ctx context.Context) ([]domain.Education, error)
	listSkills         func(ctx context.Context) ([]domain.Skill, error)
	listCertifications func(ctx context.Context) ([]domain.Certification, error)
	listAwards         func(ctx context.Context) ([]domain.Award, error)

	getExperience    func(ctx context.Context, id string) (*domain.Experience, error)
	getProject       func(ctx context.Context, id string) (*domain.Project, error)
	getEducation     func(ctx context.Context, id string) (*domain.Education, error)
	getSkill         func(ctx context.Context, id string) (*domain.Skill, error)
	getCertification func(ctx context.Context, id string) (*domain.Certification, error)
	getAward         func(ctx context.Context, id string) (*domain.Award, error)
}

func (s *stubRecordStore) ListExperiences(ctx context.Context) ([]domain.Experience, error) {
	if s.listExperiences != nil {
		return s.listExperiences(ctx)
	}
	return nil, nil
}

func (s *stubRecordStore) ListProjects(ctx context.Context, featuredOnly bool, limit int) ([]domain.Project, error) {
	if s.listProjects != nil {
		return s.listProjects(ctx, featuredOnly, limit)
	}
	return nil, nil
}

func (s *stubRecordStore) ListEducation(ctx context.Context) ([]domain.Education, error) {
	if s.listEducation != nil {
		return s.listEducation(ctx)
	}
	return nil, nil
}

func (s *stubRecordStore) ListSkills(ctx context.Context) ([]domain.Skill, error) {
	if s.listSkills != nil {
		return s.listSkills(ctx)
	}
	return nil, nil
}

func (s *stubRecordStore) ListCertifications(ctx context.Context) ([]domain.Certification, error) {
	if s.listCertifications != nil {
		return s.listCertifications(ctx)
	}
	return nil, nil
}

func (s *stubRecordStore) ListAwards(ctx context.Context) ([]domain.Award, error) {
	if s.listAwards != nil {
		return s.listAwards(ctx)
	}
	return nil, nil
}

func (s *stubRecordStore) GetExperience(ctx context.Context, id string) (*domain.Experience, error) {
	if s.getExperience != nil {
		return s.getExperience(ctx, id)
	}
	return nil, domain.ErrRecordNotFound
}

func (s *stubRecordStore) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	if s.getProject != nil {
		return s.getProject(ctx, id)
	}
	return nil, domain.ErrRecordNotFound
}

func (s *stubRecordStore) GetEducation(ctx context.Context, id string) (*domain.Education, error) {
	if s.getEducation != nil {
		return s.getEducation(ctx, id)
	}
	return nil, domain.ErrRecordNotFound
}

func (s *stubRecordStore) GetSkill(ctx context.Context, id string) (*domain.Skill, error) {
	if s.getSkill != nil {
		return s.getSkill(ctx, id)
	}
	return nil, domain.ErrRecordNotFound
}

func (s *stubRecordStore) GetCertification(ctx context.Context, id string) (*domain.Certification, error) {
	if s.getCertification != nil {
		return s.getCertification(ctx, id)
	}
	return nil, domain.ErrRecordNotFound
}

func (s *stubRecordStore) GetAward(ctx context.Context, id string) (*domain.Award, error) {
	if s.getAward != nil {
		return s.getAward(ctx, id)
	}
	return nil, domain.ErrRecordNotFound
}

type stubEmbedder struct {
	embed      func(ctx context.Context, texts []string) ([][]float32, error)
	embedQuery func(ctx context.Context, text string) ([]float32, error)
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.embed != nil {
		return s.embed(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.embedQuery != nil {
		return s.embedQuery(ctx, text)
	}
	return []float32{0.1, 0.2}, nil
}

type stubVectorStore struct {
	insert            func(ctx context.Context, chunks []domain.EmbeddingChunk) error
	deleteByReference func(ctx context.Context, contentType domain.ContentType, referenceID string) error
	search            func(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievalResult, error)
	scrollText        func(ctx context.Context, limit int) ([]domain.RetrievalResult, error)
	count             func(ctx context.Context, contentType domain.ContentType, referenceID string) (int, error)
}

func (s *stubVectorStore) Insert(ctx context.Context, chunks []domain.EmbeddingChunk) error {
	if s.insert != nil {
		return s.insert(ctx, chunks)
	}
	return nil
}

func (s *stubVectorStore) DeleteByReference(ctx context.Context, contentType domain.ContentType, referenceID string) error {
	if s.deleteByReference != nil {
		return s.deleteByReference(ctx, contentType, referenceID)
	}
	return nil
}

func (s *stubVectorStore) Search(ctx context.Context, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievalResult, error) {
	if s.search != nil {
		return s.search(ctx, queryVector, limit, filter)
	}
	return nil, nil
}

func (s *stubVectorStore) ScrollText(ctx context.Context, limit int) ([]domain.RetrievalResult, error) {
	if s.scrollText != nil {
		return s.scrollText(ctx, limit)
	}
	return nil, nil
}

func (s *stubVectorStore) Count(ctx context.Context, contentType domain.ContentType, referenceID string) (int, error) {
	if s.count != nil {
		return s.count(ctx, contentType, referenceID)
	}
	return 0, nil
}

type recordedStream struct {
	fragments []string
	pos       int
	closed    bool
}

func (s *recordedStream) Recv() (string, error) {
	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}
	fragment := s.fragments[s.pos]
	s.pos++
	return fragment, nil
}

func (s *recordedStream) Close() error {
	s.closed = true
	return nil
}

type stubStreamer struct {
	messages []domain.ChatMessage
	stream   *recordedStream
	err      error
}

func (s *stubStreamer) StreamChat(_ context.Context, messages []domain.ChatMessage) (ports.TokenStream, error) {
	s.messages = messages
	if s.err != nil {
		return nil, s.err
	}
	if s.stream == nil {
		s.stream = &recordedStream{fragments: []string{"ok"}}
	}
	return s.stream, nil
}
