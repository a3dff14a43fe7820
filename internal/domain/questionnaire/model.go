package questionnaire

import (
	"time"

	"github.com/google/uuid"
)

// AnswerType declares how a response's answer value should be interpreted.
type AnswerType string

const (
	AnswerBoolean AnswerType = "boolean"
	AnswerNumeric AnswerType = "numeric"
	AnswerScale   AnswerType = "scale"
	AnswerText    AnswerType = "text"
)

// Relevance annotates a response with its clinical weight: which condition
// domains it feeds, how strongly, and under which clinical category.
type Relevance struct {
	Conditions []string `json:"conditions"`
	Weight     float64  `json:"weight"`
	Category   string   `json:"category,omitempty"`
}

// Response is a single answered question. Immutable once recorded.
type Response struct {
	QuestionID   string      `json:"question_id"`
	QuestionText string      `json:"question_text,omitempty"`
	Answer       interface{} `json:"answer"`
	Type         AnswerType  `json:"type"`
	Relevance    Relevance   `json:"relevance"`
	AnsweredAt   time.Time   `json:"answered_at"`
}

// RelevantTo reports whether the response is tagged with the given condition.
func (r *Response) RelevantTo(condition string) bool {
	for _, c := range r.Relevance.Conditions {
		if c == condition {
			return true
		}
	}
	return false
}

// Bool returns the response answer as a boolean. Accepts native bools and the
// affirmative strings an intake form may record.
func (r *Response) Bool() (bool, bool) {
	switch v := r.Answer.(type) {
	case bool:
		return v, true
	case string:
		switch v {
		case "yes", "true", "sim":
			return true, true
		case "no", "false", "nao", "não":
			return false, true
		}
	}
	return false, false
}

// Number returns the response answer as a float64. JSON decoding produces
// float64 for all numbers; native ints are accepted for callers that build
// questionnaires in code.
func (r *Response) Number() (float64, bool) {
	switch v := r.Answer.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Scale returns the response answer as an integer scale value.
func (r *Response) Scale() (int, bool) {
	n, ok := r.Number()
	if !ok {
		return 0, false
	}
	return int(n), true
}

// Processed is a fully-formed questionnaire snapshot produced by the intake
// collaborator. The assessment engine treats it as read-only input.
type Processed struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	SubjectID       uuid.UUID  `db:"subject_id" json:"subject_id"`
	QuestionnaireID string     `db:"questionnaire_id" json:"questionnaire_id"`
	Responses       []Response `db:"responses" json:"responses"`
	Symptoms        []string   `db:"symptoms" json:"symptoms,omitempty"`
	RiskFactors     []string   `db:"risk_factors" json:"risk_factors,omitempty"`
	EmergencyFlags  []string   `db:"emergency_flags" json:"emergency_flags,omitempty"`
	CompletedAt     time.Time  `db:"completed_at" json:"completed_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Find returns the response for the given question identifier, or nil.
func (p *Processed) Find(questionID string) *Response {
	if p == nil {
		return nil
	}
	for i := range p.Responses {
		if p.Responses[i].QuestionID == questionID {
			return &p.Responses[i]
		}
	}
	return nil
}

// Affirmative reports whether the given question was answered and the answer
// is an affirmative boolean.
func (p *Processed) Affirmative(questionID string) bool {
	r := p.Find(questionID)
	if r == nil {
		return false
	}
	yes, ok := r.Bool()
	return ok && yes
}

// TaggedFor returns all responses annotated with the given condition tag.
func (p *Processed) TaggedFor(condition string) []*Response {
	if p == nil {
		return nil
	}
	var out []*Response
	for i := range p.Responses {
		if p.Responses[i].RelevantTo(condition) {
			out = append(out, &p.Responses[i])
		}
	}
	return out
}
