package questionnaire

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateProcessed(ctx context.Context, p *Processed) error {
	if p.SubjectID == uuid.Nil {
		return fmt.Errorf("subject_id is required")
	}
	if len(p.Responses) == 0 {
		return fmt.Errorf("responses is required")
	}
	for i := range p.Responses {
		if p.Responses[i].QuestionID == "" {
			return fmt.Errorf("responses[%d].question_id is required", i)
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CompletedAt.IsZero() {
		p.CompletedAt = time.Now().UTC()
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetProcessed(ctx context.Context, id uuid.UUID) (*Processed, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetLatestForSubject(ctx context.Context, subjectID uuid.UUID) (*Processed, error) {
	if subjectID == uuid.Nil {
		return nil, fmt.Errorf("subject_id is required")
	}
	return s.repo.GetLatestBySubject(ctx, subjectID)
}

func (s *Service) ListForSubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*Processed, int, error) {
	if subjectID == uuid.Nil {
		return nil, 0, fmt.Errorf("subject_id is required")
	}
	return s.repo.ListBySubject(ctx, subjectID, limit, offset)
}
