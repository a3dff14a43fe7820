package temporal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository stores append-only risk history. Append must be safe under
// concurrent writers for different subjects.
type Repository interface {
	Append(ctx context.Context, subjectID uuid.UUID, condition string, p DataPoint) error
	// ListSince returns all of the subject's series with points at or after
	// the cutoff, ordered by time ascending within each series.
	ListSince(ctx context.Context, subjectID uuid.UUID, since time.Time) ([]Series, error)
}
