package questionnaire

import (
	"context"
	"encoding/json"
	"fmt"
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

// NewRepoPG returns a Postgres-backed questionnaire repository.
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

const questionnaireCols = `id, subject_id, questionnaire_id, responses,
	symptoms, risk_factors, emergency_flags, completed_at, created_at`

func (r *repoPG) scan(row pgx.Row) (*Processed, error) {
	var p Processed
	var responses []byte
	err := row.Scan(&p.ID, &p.SubjectID, &p.QuestionnaireID, &responses,
		&p.Symptoms, &p.RiskFactors, &p.EmergencyFlags, &p.CompletedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(responses, &p.Responses); err != nil {
		return nil, fmt.Errorf("decode responses: %w", err)
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Processed) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CompletedAt.IsZero() {
		p.CompletedAt = time.Now().UTC()
	}
	responses, err := json.Marshal(p.Responses)
	if err != nil {
		return fmt.Errorf("encode responses: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO processed_questionnaire (id, subject_id, questionnaire_id, responses,
			symptoms, risk_factors, emergency_flags, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.SubjectID, p.QuestionnaireID, responses,
		p.Symptoms, p.RiskFactors, p.EmergencyFlags, p.CompletedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Processed, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+questionnaireCols+` FROM processed_questionnaire WHERE id = $1`, id))
}

func (r *repoPG) GetLatestBySubject(ctx context.Context, subjectID uuid.UUID) (*Processed, error) {
	return r.scan(r.conn(ctx).QueryRow(ctx,
		`SELECT `+questionnaireCols+` FROM processed_questionnaire
		 WHERE subject_id = $1 ORDER BY completed_at DESC LIMIT 1`, subjectID))
}

func (r *repoPG) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*Processed, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM processed_questionnaire WHERE subject_id = $1`, subjectID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+questionnaireCols+` FROM processed_questionnaire
		 WHERE subject_id = $1 ORDER BY completed_at DESC LIMIT $2 OFFSET $3`,
		subjectID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Processed
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, nil
}
