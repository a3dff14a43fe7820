package assessment

import "github.com/hra/hra/internal/domain/questionnaire"

// Framingham-style point contributions. Age buckets follow the published
// table shape; comorbidity points reflect the high diabetes-cardiac overlap.
const (
	cvPointsSmoker       = 4
	cvPointsHypertension = 2
	cvPointsDiabetes     = 3
	cvPointsMale         = 1

	acsEscalationHours = 0.5
)

var cardioNumericCutoffs = map[string]float64{
	QAge: 45,
}

// scoreCardiovascular evaluates the cardiovascular domain: a point-based
// band from classic risk factors plus the acute coronary syndrome rule.
func scoreCardiovascular(q *questionnaire.Processed) *ConditionRiskAssessment {
	out := &ConditionRiskAssessment{
		Condition: ConditionCardiovascular,
		RiskLevel: RiskLow,
		Cardiac:   &CardiacIndices{PointBand: RiskLow},
	}
	if q == nil {
		return out
	}

	points := agePoints(q)
	if q.Affirmative(QSexMale) {
		points += cvPointsMale
	}
	if q.Affirmative(QSmoker) {
		points += cvPointsSmoker
	}
	if q.Affirmative(QHypertension) {
		points += cvPointsHypertension
	}
	if q.Affirmative(QDiabetesDiagnosed) {
		points += cvPointsDiabetes
	}

	out.Cardiac.FraminghamPoints = points
	out.Cardiac.PointBand = framinghamBand(points)

	total := weightedSymptomTotal(q, ConditionCardiovascular, cardioNumericCutoffs)
	// Anchor the score on the point band so a loaded risk-factor profile
	// cannot be drowned out by sparse symptom tagging.
	out.Score = clamp(total + float64(points)*4)
	out.RiskLevel = maxLevel(levelForScore(out.Score), out.Cardiac.PointBand)
	out.TimeToEscalation = defaultEscalationHours(out.RiskLevel)

	// Chest pain at rest with dyspnea overrides everything point-based.
	if q.Affirmative(QChestPainRest) && q.Affirmative(QShortnessOfBreath) {
		out.EmergencyIndicators = append(out.EmergencyIndicators, IndicatorAcuteCoronary)
		out.RiskLevel = RiskCritical
		out.EscalationRequired = true
		out.TimeToEscalation = acsEscalationHours
		out.Score = clamp(out.Score + 25)
	}

	return out
}

func agePoints(q *questionnaire.Processed) int {
	r := q.Find(QAge)
	if r == nil {
		return 0
	}
	age, ok := r.Number()
	if !ok {
		return 0
	}
	switch {
	case age >= 75:
		return 6
	case age >= 65:
		return 5
	case age >= 55:
		return 3
	case age >= 45:
		return 2
	case age >= 35:
		return 1
	default:
		return 0
	}
}

// framinghamBand maps the point total to the cardiovascular band.
func framinghamBand(points int) RiskLevel {
	switch {
	case points >= 14:
		return RiskVeryHigh
	case points >= 10:
		return RiskHigh
	case points >= 5:
		return RiskIntermediate
	default:
		return RiskLow
	}
}

func maxLevel(a, b RiskLevel) RiskLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}
