package assessment

import (
	"sync"

	"github.com/hra/hra/internal/domain/questionnaire"
)

// scoreFunc is a pure, total condition scorer: it never fails and performs
// no I/O. A questionnaire with no relevant responses yields the domain
// minimum.
type scoreFunc func(*questionnaire.Processed) *ConditionRiskAssessment

// scorers is the closed strategy table. Condition behavior is fixed, not
// user-extensible.
var scorers = map[Condition]scoreFunc{
	ConditionDiabetes:       scoreDiabetes,
	ConditionCardiovascular: scoreCardiovascular,
	ConditionMentalHealth:   scoreMentalHealth,
	ConditionRespiratory:    scoreRespiratory,
}

// ScoreAll runs the four condition scorers concurrently and returns their
// assessments keyed by condition. The scorers have no data dependency on
// each other; results are joined before aggregation.
func ScoreAll(q *questionnaire.Processed) map[Condition]*ConditionRiskAssessment {
	out := make(map[Condition]*ConditionRiskAssessment, len(scorers))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for cond, score := range scorers {
		wg.Add(1)
		go func(cond Condition, score scoreFunc) {
			defer wg.Done()
			a := score(q)
			mu.Lock()
			out[cond] = a
			mu.Unlock()
		}(cond, score)
	}
	wg.Wait()
	return out
}

// Score runs a single condition scorer. Unknown conditions yield a low
// baseline assessment rather than an error.
func Score(cond Condition, q *questionnaire.Processed) *ConditionRiskAssessment {
	if fn, ok := scorers[cond]; ok {
		return fn(q)
	}
	return &ConditionRiskAssessment{Condition: cond, RiskLevel: RiskLow, TimeToEscalation: defaultEscalationHours(RiskLow)}
}

// defaultEscalationHours is the escalation ceiling for a band when no
// emergency rule has tightened it.
func defaultEscalationHours(level RiskLevel) float64 {
	switch level {
	case RiskCritical:
		return 12
	case RiskVeryHigh:
		return 24
	case RiskHigh:
		return 48
	case RiskModerate, RiskIntermediate:
		return 24 * 7
	default:
		return 24 * 30
	}
}
