package assessment

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// conditionPair is an unordered pair key into the correlation matrix.
type conditionPair struct {
	a, b Condition
}

func pairKey(a, b Condition) conditionPair {
	if a > b {
		a, b = b, a
	}
	return conditionPair{a: a, b: b}
}

// AggregatorConfig carries the heuristic coefficients of the compound model.
// The values are configurable rather than fixed constants; the bounds and
// monotonicity guarantees are enforced in Aggregate regardless of what is
// configured here.
type AggregatorConfig struct {
	// PresenceThreshold is the score above which a condition counts as
	// present for pairwise interaction.
	PresenceThreshold float64
	// Correlations maps condition pairs to coefficients in [0,1].
	Correlations map[conditionPair]float64
	// InteractionScale converts a pair's correlated overlap into composite
	// score points.
	InteractionScale float64
	// SocioMultiplierMin/Max bound the socioeconomic and access-to-care
	// adjustment.
	SocioMultiplierMin float64
	SocioMultiplierMax float64
}

// DefaultAggregatorConfig returns the default compound-model coefficients.
// Diabetes and cardiovascular disease carry the strongest documented
// comorbidity correlation.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		PresenceThreshold: 40,
		Correlations: map[conditionPair]float64{
			pairKey(ConditionDiabetes, ConditionCardiovascular): 0.85,
			pairKey(ConditionDiabetes, ConditionRespiratory):    0.40,
			pairKey(ConditionDiabetes, ConditionMentalHealth):   0.35,
			pairKey(ConditionCardiovascular, ConditionRespiratory): 0.60,
			pairKey(ConditionCardiovascular, ConditionMentalHealth): 0.45,
			pairKey(ConditionMentalHealth, ConditionRespiratory):    0.30,
		},
		InteractionScale:   0.25,
		SocioMultiplierMin: 0.8,
		SocioMultiplierMax: 1.5,
	}
}

// interactionType classifies a pair's synergy for recommendation text.
func interactionType(correlation float64) string {
	switch {
	case correlation >= 0.7:
		return "exponential"
	case correlation >= 0.4:
		return "multiplicative"
	default:
		return "additive"
	}
}

// Aggregate combines the four condition assessments into one composite.
// Comorbidity can only raise aggregate risk: the returned score is always at
// least the maximum individual score and at most 100.
func Aggregate(cfg AggregatorConfig, conditions map[Condition]*ConditionRiskAssessment, subjectID uuid.UUID, profile *SubjectProfile) *CompositeRiskAssessment {
	out := &CompositeRiskAssessment{
		ID:                      uuid.New(),
		SubjectID:               subjectID,
		MultiConditionPenalty:   1,
		SynergyFactor:           1,
		AgeAdjustment:           1,
		GenderAdjustment:        1,
		SocioeconomicAdjustment: 1,
		AccessToCareAdjustment:  1,
		AssessedAt:              time.Now().UTC(),
	}

	var maxScore float64
	present := 0
	for _, cond := range ScoredConditions() {
		a := conditions[cond]
		if a == nil {
			continue
		}
		if a.Score > maxScore {
			maxScore = a.Score
		}
		if a.Score >= cfg.PresenceThreshold {
			present++
		}
	}

	// Pairwise correlation-weighted interaction for co-present conditions.
	var boost float64
	scored := ScoredConditions()
	for i := 0; i < len(scored); i++ {
		for j := i + 1; j < len(scored); j++ {
			a, b := conditions[scored[i]], conditions[scored[j]]
			if a == nil || b == nil {
				continue
			}
			if a.Score < cfg.PresenceThreshold || b.Score < cfg.PresenceThreshold {
				continue
			}
			corr := cfg.Correlations[pairKey(scored[i], scored[j])]
			if corr <= 0 {
				continue
			}
			overlap := a.Score
			if b.Score < overlap {
				overlap = b.Score
			}
			boost += corr * overlap * cfg.InteractionScale
			out.Synergies = append(out.Synergies, SynergyRecord{
				ConditionA:      scored[i],
				ConditionB:      scored[j],
				Correlation:     corr,
				InteractionType: interactionType(corr),
			})
		}
	}
	if boost > 0 && maxScore > 0 {
		out.SynergyFactor = (maxScore + boost) / maxScore
	}
	if present > 1 {
		out.MultiConditionPenalty = 1 + 0.1*float64(present-1)
	}

	score := maxScore + boost
	// The interaction term must raise the composite above the worst single
	// condition whenever any correlated pair is present, but a perfect
	// individual score leaves no headroom.
	if len(out.Synergies) > 0 && score <= maxScore && maxScore < 100 {
		score = maxScore + 1
	}
	score = clamp(score)

	// Demographic and socioeconomic adjustments.
	if profile != nil {
		out.AgeAdjustment = ageMultiplier(profile.Age)
		out.GenderAdjustment = 1.0
		out.SocioeconomicAdjustment = socioMultiplier(cfg, profile.SocioeconomicTier)
		out.AccessToCareAdjustment = accessMultiplier(cfg, profile.AccessToCare)
		score = clamp(score * out.AgeAdjustment * out.SocioeconomicAdjustment * out.AccessToCareAdjustment)
	}

	// Comorbidity never lowers aggregate risk below the worst condition.
	if score < maxScore {
		score = maxScore
	}
	out.Score = clamp(score)
	out.RiskLevel = levelForScore(out.Score)
	out.PrioritizedConditions = prioritize(conditions)

	out.EmergencyEscalation = out.RiskLevel == RiskCritical || anyEscalationRequired(conditions)
	out.UrgentEscalation = !out.EmergencyEscalation && out.RiskLevel.AtLeast(RiskHigh)
	out.RoutineFollowup = !out.EmergencyEscalation && !out.UrgentEscalation

	return out
}

// ageMultiplier reflects age-related risk amplification, bounded so it can
// never dominate the clinical signal.
func ageMultiplier(age int) float64 {
	switch {
	case age >= 75:
		return 1.2
	case age >= 60:
		return 1.1
	case age > 0 && age < 30:
		return 0.95
	default:
		return 1.0
	}
}

// socioMultiplier maps the socioeconomic tier into the configured bounds.
// The output always lies within [SocioMultiplierMin, SocioMultiplierMax].
func socioMultiplier(cfg AggregatorConfig, tier string) float64 {
	var m float64
	switch tier {
	case "low":
		m = 1.25
	case "medium":
		m = 1.0
	case "high":
		m = 0.9
	default:
		m = 1.0
	}
	return clampMultiplier(cfg, m)
}

// accessMultiplier reflects access-to-care disparities, same bounds.
func accessMultiplier(cfg AggregatorConfig, access string) float64 {
	var m float64
	switch access {
	case "poor":
		m = 1.3
	case "limited":
		m = 1.15
	case "adequate":
		m = 1.0
	default:
		m = 1.0
	}
	return clampMultiplier(cfg, m)
}

func clampMultiplier(cfg AggregatorConfig, m float64) float64 {
	min, max := cfg.SocioMultiplierMin, cfg.SocioMultiplierMax
	if min == 0 && max == 0 {
		min, max = 0.8, 1.5
	}
	if m < min {
		return min
	}
	if m > max {
		return max
	}
	return m
}

// prioritize ranks the four domains by score descending. Ties keep the
// canonical evaluation order so output is deterministic.
func prioritize(conditions map[Condition]*ConditionRiskAssessment) []Condition {
	ranked := ScoredConditions()
	sort.SliceStable(ranked, func(i, j int) bool {
		var si, sj float64
		if a := conditions[ranked[i]]; a != nil {
			si = a.Score
		}
		if a := conditions[ranked[j]]; a != nil {
			sj = a.Score
		}
		return si > sj
	})
	return ranked
}

func anyEscalationRequired(conditions map[Condition]*ConditionRiskAssessment) bool {
	for _, a := range conditions {
		if a != nil && a.EscalationRequired {
			return true
		}
	}
	return false
}
