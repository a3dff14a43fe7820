package questionnaire

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines storage for processed questionnaire snapshots. Snapshots
// are written once by the intake collaborator and never updated.
type Repository interface {
	Create(ctx context.Context, p *Processed) error
	GetByID(ctx context.Context, id uuid.UUID) (*Processed, error)
	GetLatestBySubject(ctx context.Context, subjectID uuid.UUID) (*Processed, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*Processed, int, error)
}
