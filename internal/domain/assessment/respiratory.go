package assessment

import "github.com/hra/hra/internal/domain/questionnaire"

const (
	stopBangHighThreshold = 6
	asthmaEscalationHours = 0.5
)

// scoreRespiratory evaluates the respiratory domain: the STOP-BANG
// sleep-apnea checklist and the severe asthma exacerbation rule.
func scoreRespiratory(q *questionnaire.Processed) *ConditionRiskAssessment {
	out := &ConditionRiskAssessment{
		Condition:   ConditionRespiratory,
		RiskLevel:   RiskLow,
		Respiratory: &RespiratoryIndices{},
	}
	if q == nil {
		return out
	}

	index := stopBangIndex(q)
	out.Respiratory.SleepApneaIndex = index

	total := weightedSymptomTotal(q, ConditionRespiratory, nil)
	out.Score = clamp(total + float64(index)*6)
	out.RiskLevel = levelForScore(out.Score)
	out.TimeToEscalation = defaultEscalationHours(out.RiskLevel)

	if index >= stopBangHighThreshold {
		out.RiskLevel = maxLevel(out.RiskLevel, RiskHigh)
		if out.TimeToEscalation > 48 {
			out.TimeToEscalation = 48
		}
	}

	// Acute asthma presentation: all four together indicate a
	// life-threatening exacerbation regardless of the checklist.
	if q.Affirmative(QWheezing) && q.Affirmative(QSevereDyspnea) &&
		q.Affirmative(QSpeechDifficulty) && q.Affirmative(QRapidOnset) {
		out.EmergencyIndicators = append(out.EmergencyIndicators, IndicatorSevereAsthma)
		out.RiskLevel = RiskCritical
		out.EscalationRequired = true
		out.TimeToEscalation = asthmaEscalationHours
		out.Score = clamp(out.Score + 25)
	}

	return out
}

// stopBangIndex counts the eight STOP-BANG items. Snoring, tiredness,
// observed apnea, and pressure come from booleans; BMI, age, neck
// circumference, and gender from their numeric/boolean answers.
func stopBangIndex(q *questionnaire.Processed) int {
	index := 0
	for _, id := range []string{QSnoring, QDaytimeFatigue, QObservedApnea, QHypertension, QSexMale} {
		if q.Affirmative(id) {
			index++
		}
	}
	if r := q.Find(QBMI); r != nil {
		if v, ok := r.Number(); ok && v > 35 {
			index++
		}
	}
	if r := q.Find(QAge); r != nil {
		if v, ok := r.Number(); ok && v > 50 {
			index++
		}
	}
	if r := q.Find(QNeckCircumference); r != nil {
		if v, ok := r.Number(); ok && v > 40 {
			index++
		}
	}
	return index
}
