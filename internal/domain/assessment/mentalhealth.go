package assessment

import (
	"fmt"

	"github.com/hra/hra/internal/domain/questionnaire"
)

// Suicide risk bands for the mental-health sub-record.
const (
	SuicideBandLow      = "low"
	SuicideBandModerate = "moderate"
	SuicideBandHigh     = "high"
	SuicideBandImminent = "imminent"
)

const suicidePlanEscalationHours = 2

// scoreMentalHealth evaluates the mental-health domain: PHQ-9 depression,
// GAD-7 anxiety, and the suicide-risk sub-scorer.
func scoreMentalHealth(q *questionnaire.Processed) *ConditionRiskAssessment {
	out := &ConditionRiskAssessment{
		Condition:    ConditionMentalHealth,
		RiskLevel:    RiskLow,
		MentalHealth: &MentalHealthIndices{Suicide: SuicideRisk{Band: SuicideBandLow}},
	}
	if q == nil {
		return out
	}

	depression := scaleSum(q, QPHQPrefix, 9)
	anxiety := scaleSum(q, QGADPrefix, 7)
	out.MentalHealth.DepressionIndex = depression
	out.MentalHealth.AnxietyIndex = anxiety

	// PHQ-9 item 9 is the passive ideation screen.
	ideation := false
	if r := q.Find(fmt.Sprintf("%s%d", QPHQPrefix, 9)); r != nil {
		if v, ok := r.Scale(); ok && v > 0 {
			ideation = true
		}
	}
	hasPlan := q.Affirmative(QSuicidePlan)
	hopeless := q.Affirmative(QHopelessness)
	protective := q.Affirmative(QProtectiveFactor)

	out.MentalHealth.Suicide = suicideRisk(ideation, hasPlan, hopeless, protective)

	// PHQ-9 max 27 and GAD-7 max 21 map onto the shared 0-100 scale with
	// depression carrying the larger share.
	total := float64(depression)*100/27*0.6 + float64(anxiety)*100/21*0.3
	total += weightedSymptomTotal(q, ConditionMentalHealth, nil) * 0.1
	out.Score = clamp(total)
	out.RiskLevel = levelForScore(out.Score)
	out.TimeToEscalation = defaultEscalationHours(out.RiskLevel)

	switch out.MentalHealth.Suicide.Band {
	case SuicideBandImminent:
		out.EmergencyIndicators = append(out.EmergencyIndicators, IndicatorSuicideRisk)
		out.RiskLevel = RiskCritical
		out.EscalationRequired = true
		out.TimeToEscalation = 1
		out.Score = clamp(out.Score + 30)
	case SuicideBandHigh:
		out.RiskLevel = maxLevel(out.RiskLevel, RiskHigh)
		out.EscalationRequired = true
		if out.TimeToEscalation > suicidePlanEscalationHours {
			out.TimeToEscalation = suicidePlanEscalationHours
		}
		out.Score = clamp(out.Score + 15)
	}
	if out.MentalHealth.Suicide.ImmediateIntervention && out.TimeToEscalation > suicidePlanEscalationHours {
		out.TimeToEscalation = suicidePlanEscalationHours
	}

	return out
}

// suicideRisk combines ideation, plan, hopelessness, and protective factors.
// A concrete plan alone forces at least the high band.
func suicideRisk(ideation, plan, hopeless, protective bool) SuicideRisk {
	switch {
	case plan && ideation:
		return SuicideRisk{Band: SuicideBandImminent, ImmediateIntervention: true}
	case plan:
		// Plan without screened ideation is still an immediate-intervention
		// presentation; protective factors do not downgrade it.
		return SuicideRisk{Band: SuicideBandHigh, ImmediateIntervention: true}
	case ideation && hopeless && !protective:
		return SuicideRisk{Band: SuicideBandHigh, ImmediateIntervention: false}
	case ideation:
		return SuicideRisk{Band: SuicideBandModerate}
	default:
		return SuicideRisk{Band: SuicideBandLow}
	}
}

// scaleSum totals a numbered scale instrument (items 1..n, each 0-3).
func scaleSum(q *questionnaire.Processed, prefix string, n int) int {
	var sum int
	for i := 1; i <= n; i++ {
		r := q.Find(fmt.Sprintf("%s%d", prefix, i))
		if r == nil {
			continue
		}
		if v, ok := r.Scale(); ok {
			if v < 0 {
				v = 0
			}
			if v > 3 {
				v = 3
			}
			sum += v
		}
	}
	return sum
}
