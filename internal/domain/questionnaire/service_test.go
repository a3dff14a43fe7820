package questionnaire

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock repository --

type mockRepo struct {
	items map[uuid.UUID]*Processed
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Processed)}
}

func (m *mockRepo) Create(_ context.Context, p *Processed) error {
	m.items[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Processed, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockRepo) GetLatestBySubject(_ context.Context, subjectID uuid.UUID) (*Processed, error) {
	var latest *Processed
	for _, p := range m.items {
		if p.SubjectID != subjectID {
			continue
		}
		if latest == nil || p.CompletedAt.After(latest.CompletedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("not found")
	}
	return latest, nil
}

func (m *mockRepo) ListBySubject(_ context.Context, subjectID uuid.UUID, limit, offset int) ([]*Processed, int, error) {
	var out []*Processed
	for _, p := range m.items {
		if p.SubjectID == subjectID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func validProcessed(subjectID uuid.UUID) *Processed {
	return &Processed{
		SubjectID: subjectID,
		Responses: []Response{
			{QuestionID: "excessive_thirst", Answer: true, Type: AnswerBoolean},
		},
	}
}

func TestService_CreateProcessed(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	p := validProcessed(uuid.New())
	if err := svc.CreateProcessed(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("ID should be assigned")
	}
	if p.CompletedAt.IsZero() {
		t.Error("CompletedAt should be defaulted")
	}
	if _, ok := repo.items[p.ID]; !ok {
		t.Error("snapshot should be stored")
	}
}

func TestService_CreateProcessed_Validation(t *testing.T) {
	svc := NewService(newMockRepo())

	if err := svc.CreateProcessed(context.Background(), &Processed{
		Responses: []Response{{QuestionID: "q"}},
	}); err == nil {
		t.Error("expected error for missing subject_id")
	}

	if err := svc.CreateProcessed(context.Background(), &Processed{
		SubjectID: uuid.New(),
	}); err == nil {
		t.Error("expected error for empty responses")
	}

	if err := svc.CreateProcessed(context.Background(), &Processed{
		SubjectID: uuid.New(),
		Responses: []Response{{Answer: true}},
	}); err == nil {
		t.Error("expected error for response without question_id")
	}
}

func TestService_CreateProcessed_PreservesExplicitFields(t *testing.T) {
	svc := NewService(newMockRepo())

	id := uuid.New()
	completed := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	p := validProcessed(uuid.New())
	p.ID = id
	p.CompletedAt = completed

	if err := svc.CreateProcessed(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != id {
		t.Error("explicit ID should be preserved")
	}
	if !p.CompletedAt.Equal(completed) {
		t.Error("explicit CompletedAt should be preserved")
	}
}

func TestService_GetLatestForSubject(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	subject := uuid.New()
	older := validProcessed(subject)
	older.ID = uuid.New()
	older.CompletedAt = time.Now().Add(-48 * time.Hour)
	newer := validProcessed(subject)
	newer.ID = uuid.New()
	newer.CompletedAt = time.Now().Add(-1 * time.Hour)
	repo.items[older.ID] = older
	repo.items[newer.ID] = newer

	got, err := svc.GetLatestForSubject(context.Background(), subject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != newer.ID {
		t.Errorf("latest = %s, want %s", got.ID, newer.ID)
	}

	if _, err := svc.GetLatestForSubject(context.Background(), uuid.Nil); err == nil {
		t.Error("expected error for nil subject")
	}
}

func TestService_ListForSubject(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)

	subject := uuid.New()
	for i := 0; i < 5; i++ {
		p := validProcessed(subject)
		p.ID = uuid.New()
		p.CompletedAt = time.Now().Add(-time.Duration(i) * time.Hour)
		repo.items[p.ID] = p
	}

	items, total, err := svc.ListForSubject(context.Background(), subject, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(items) != 3 {
		t.Errorf("items = %d, want 3", len(items))
	}

	if _, _, err := svc.ListForSubject(context.Background(), uuid.Nil, 10, 0); err == nil {
		t.Error("expected error for nil subject")
	}
}
