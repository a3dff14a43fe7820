package assessment

import (
	"testing"

	"github.com/google/uuid"

	"github.com/hra/hra/internal/domain/questionnaire"
)

// -- Test questionnaire builders --

func boolResp(id string, yes bool, weight float64, conds ...string) questionnaire.Response {
	return questionnaire.Response{
		QuestionID: id,
		Answer:     yes,
		Type:       questionnaire.AnswerBoolean,
		Relevance:  questionnaire.Relevance{Conditions: conds, Weight: weight},
	}
}

func numResp(id string, v float64, weight float64, conds ...string) questionnaire.Response {
	return questionnaire.Response{
		QuestionID: id,
		Answer:     v,
		Type:       questionnaire.AnswerNumeric,
		Relevance:  questionnaire.Relevance{Conditions: conds, Weight: weight},
	}
}

func scaleResp(id string, v int, weight float64, conds ...string) questionnaire.Response {
	return questionnaire.Response{
		QuestionID: id,
		Answer:     float64(v),
		Type:       questionnaire.AnswerScale,
		Relevance:  questionnaire.Relevance{Conditions: conds, Weight: weight},
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

func newQ(subjectID uuid.UUID, responses ...questionnaire.Response) *questionnaire.Processed {
	return &questionnaire.Processed{
		ID:        uuid.New(),
		SubjectID: subjectID,
		Responses: responses,
	}
}

func TestScoreAll_ReturnsAllFourConditions(t *testing.T) {
	q := newQ(uuid.New(),
		boolResp(QExcessiveThirst, true, 10, "diabetes"),
		boolResp(QSmoker, true, 8, "cardiovascular"),
	)
	out := ScoreAll(q)
	if len(out) != 4 {
		t.Fatalf("expected 4 condition assessments, got %d", len(out))
	}
	for _, cond := range ScoredConditions() {
		a := out[cond]
		if a == nil {
			t.Fatalf("missing assessment for %s", cond)
		}
		if a.Condition != cond {
			t.Errorf("assessment condition = %s, want %s", a.Condition, cond)
		}
		if a.Score < 0 || a.Score > 100 {
			t.Errorf("%s score %g out of [0,100]", cond, a.Score)
		}
	}
}

func TestScoreAll_NilQuestionnaire(t *testing.T) {
	out := ScoreAll(nil)
	if len(out) != 4 {
		t.Fatalf("expected 4 assessments for nil questionnaire, got %d", len(out))
	}
	for cond, a := range out {
		if a.Score != 0 {
			t.Errorf("%s score = %g, want 0", cond, a.Score)
		}
		if a.RiskLevel != RiskLow {
			t.Errorf("%s level = %s, want low", cond, a.RiskLevel)
		}
		if len(a.EmergencyIndicators) != 0 {
			t.Errorf("%s has unexpected indicators %v", cond, a.EmergencyIndicators)
		}
	}
}

func TestScore_UnknownCondition(t *testing.T) {
	a := Score(Condition("podiatry"), newQ(uuid.New()))
	if a.RiskLevel != RiskLow {
		t.Errorf("level = %s, want low", a.RiskLevel)
	}
	if a.Score != 0 {
		t.Errorf("score = %g, want 0", a.Score)
	}
}

func TestDefaultEscalationHours(t *testing.T) {
	cases := []struct {
		level RiskLevel
		want  float64
	}{
		{RiskCritical, 12},
		{RiskVeryHigh, 24},
		{RiskHigh, 48},
		{RiskModerate, 24 * 7},
		{RiskIntermediate, 24 * 7},
		{RiskLow, 24 * 30},
	}
	for _, tc := range cases {
		if got := defaultEscalationHours(tc.level); got != tc.want {
			t.Errorf("defaultEscalationHours(%s) = %g, want %g", tc.level, got, tc.want)
		}
	}
}

func TestWeightedSymptomTotal(t *testing.T) {
	q := newQ(uuid.New(),
		boolResp("symptom_a", true, 10, "diabetes"),
		boolResp("symptom_b", false, 10, "diabetes"),
		numResp(QFastingGlucose, 130, 12, "diabetes"),
		scaleResp("symptom_c", 2, 6, "diabetes"),
		boolResp("other_domain", true, 50, "respiratory"),
	)
	// 10 (bool yes) + 12 (glucose over cutoff) + 6*2/3 (scale) = 26
	got := weightedSymptomTotal(q, ConditionDiabetes, diabetesNumericCutoffs)
	if got != 26 {
		t.Errorf("weightedSymptomTotal = %g, want 26", got)
	}
}

func TestWeightedSymptomTotal_NumericBelowCutoff(t *testing.T) {
	q := newQ(uuid.New(), numResp(QFastingGlucose, 120, 12, "diabetes"))
	if got := weightedSymptomTotal(q, ConditionDiabetes, diabetesNumericCutoffs); got != 0 {
		t.Errorf("weightedSymptomTotal = %g, want 0 for glucose below cutoff", got)
	}
}

func TestRiskLevelOrdering(t *testing.T) {
	if !RiskCritical.AtLeast(RiskHigh) {
		t.Error("critical should be at least high")
	}
	if !RiskVeryHigh.AtLeast(RiskHigh) {
		t.Error("very_high should be at least high")
	}
	if RiskModerate.AtLeast(RiskHigh) {
		t.Error("moderate should not be at least high")
	}
	if RiskIntermediate.Rank() != RiskModerate.Rank() {
		t.Error("intermediate and moderate should share a rank")
	}
}

func TestLevelForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskLow},
		{34.9, RiskLow},
		{35, RiskModerate},
		{59.9, RiskModerate},
		{60, RiskHigh},
		{79.9, RiskHigh},
		{80, RiskCritical},
		{100, RiskCritical},
	}
	for _, tc := range cases {
		if got := levelForScore(tc.score); got != tc.want {
			t.Errorf("levelForScore(%g) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if clamp(-5) != 0 {
		t.Error("clamp(-5) should be 0")
	}
	if clamp(150) != 100 {
		t.Error("clamp(150) should be 100")
	}
	if clamp(42.5) != 42.5 {
		t.Error("clamp(42.5) should pass through")
	}
}
