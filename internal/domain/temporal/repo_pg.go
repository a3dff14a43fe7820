package temporal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hra/hra/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed risk history repository. Rows are
// insert-only; no update path exists.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *repoPG) Append(ctx context.Context, subjectID uuid.UUID, condition string, p DataPoint) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO risk_history (id, subject_id, condition, score, recorded_at)
		VALUES ($1,$2,$3,$4,$5)`,
		uuid.New(), subjectID, condition, p.Score, p.At)
	return err
}

func (r *repoPG) ListSince(ctx context.Context, subjectID uuid.UUID, since time.Time) ([]Series, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT condition, score, recorded_at FROM risk_history
		WHERE subject_id = $1 AND recorded_at >= $2
		ORDER BY condition, recorded_at`, subjectID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Series
	for rows.Next() {
		var condition string
		var p DataPoint
		if err := rows.Scan(&condition, &p.Score, &p.At); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].Condition != condition {
			out = append(out, Series{SubjectID: subjectID, Condition: condition})
		}
		out[len(out)-1].Points = append(out[len(out)-1].Points, p)
	}
	return out, rows.Err()
}
