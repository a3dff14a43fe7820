package assessment

import "github.com/hra/hra/internal/domain/questionnaire"

// Ketoacidosis risk contributions. The percentage crosses the escalation
// threshold only when weight loss or vomiting accompanies the triad.
const (
	ketoWeightLossPct = 40.0
	ketoVomitingPct   = 30.0
	ketoTriadPct      = 20.0
	ketoThresholdPct  = 60.0

	ketoacidosisEscalationHours = 12
)

var diabetesNumericCutoffs = map[string]float64{
	QFastingGlucose: 125, // mg/dL, diabetic range
}

var diabetesTriad = []string{QExcessiveThirst, QExcessiveHunger, QFrequentUrination}

// scoreDiabetes evaluates the diabetes domain: weighted tagged responses,
// the classic symptom triad, and ketoacidosis risk.
func scoreDiabetes(q *questionnaire.Processed) *ConditionRiskAssessment {
	out := &ConditionRiskAssessment{
		Condition: ConditionDiabetes,
		RiskLevel: RiskLow,
		Diabetes:  &DiabetesIndices{},
	}
	if q == nil {
		return out
	}

	total := weightedSymptomTotal(q, ConditionDiabetes, diabetesNumericCutoffs)

	// Triad: each symptom is evaluated individually; triadScore is the sum
	// of the affirmative symptoms' configured weights.
	affirmed := 0
	var triadScore float64
	for _, id := range diabetesTriad {
		r := q.Find(id)
		if r == nil {
			continue
		}
		if yes, ok := r.Bool(); ok && yes {
			affirmed++
			triadScore += r.Relevance.Weight
		}
	}
	out.Diabetes.TriadScore = triadScore
	out.Diabetes.TriadComplete = affirmed == len(diabetesTriad)
	if out.Diabetes.TriadComplete {
		// Joint presence is far more specific than the individual symptoms.
		total += triadScore * 0.5
	}

	// Ketoacidosis risk percentage.
	var keto float64
	if q.Affirmative(QRapidWeightLoss) {
		keto += ketoWeightLossPct
	}
	if q.Affirmative(QNauseaVomiting) {
		keto += ketoVomitingPct
	}
	if out.Diabetes.TriadComplete {
		keto += ketoTriadPct
	}
	out.Diabetes.KetoacidosisRisk = clamp(keto)

	out.Score = clamp(total)
	out.RiskLevel = levelForScore(out.Score)
	out.TimeToEscalation = defaultEscalationHours(out.RiskLevel)

	if out.Diabetes.KetoacidosisRisk >= ketoThresholdPct {
		out.EmergencyIndicators = append(out.EmergencyIndicators, IndicatorKetoacidosisRisk)
		out.RiskLevel = RiskCritical
		out.EscalationRequired = true
		out.TimeToEscalation = ketoacidosisEscalationHours
	}

	return out
}
