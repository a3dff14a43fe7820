package assessment

import (
	"time"

	"github.com/google/uuid"
)

// Condition identifies one of the scored clinical domains. ConditionComposite
// tags outputs derived from the cross-condition aggregate rather than a
// single domain.
type Condition string

const (
	ConditionDiabetes       Condition = "diabetes"
	ConditionCardiovascular Condition = "cardiovascular"
	ConditionMentalHealth   Condition = "mental_health"
	ConditionRespiratory    Condition = "respiratory"
	ConditionComposite      Condition = "composite"
)

// ScoredConditions returns the four condition domains in evaluation order.
func ScoredConditions() []Condition {
	return []Condition{
		ConditionDiabetes,
		ConditionCardiovascular,
		ConditionMentalHealth,
		ConditionRespiratory,
	}
}

// RiskLevel is an ordered severity band. Intermediate and very_high are
// cardiovascular-specific bands sitting between the shared ones.
type RiskLevel string

const (
	RiskLow          RiskLevel = "low"
	RiskModerate     RiskLevel = "moderate"
	RiskIntermediate RiskLevel = "intermediate"
	RiskHigh         RiskLevel = "high"
	RiskVeryHigh     RiskLevel = "very_high"
	RiskCritical     RiskLevel = "critical"
)

var riskLevelRank = map[RiskLevel]int{
	RiskLow:          0,
	RiskModerate:     1,
	RiskIntermediate: 1,
	RiskHigh:         2,
	RiskVeryHigh:     3,
	RiskCritical:     4,
}

// Rank returns the ordering position of the level. Unknown levels rank lowest.
func (l RiskLevel) Rank() int {
	return riskLevelRank[l]
}

// AtLeast reports whether l is at least as severe as other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank()
}

// Emergency indicator names emitted by the condition scorers and detector.
const (
	IndicatorKetoacidosisRisk   = "DIABETIC_KETOACIDOSIS_RISK"
	IndicatorAcuteCoronary      = "ACUTE_CORONARY_SYNDROME_SUSPECTED"
	IndicatorSuicideRisk        = "SUICIDE_RISK_IMMINENT"
	IndicatorSevereAsthma       = "SEVERE_ASTHMA_EXACERBATION"
	IndicatorCompositeCritical  = "COMPOSITE_RISK_CRITICAL"
	IndicatorAssessmentFailure  = "ASSESSMENT_SYSTEM_ERROR"
)

// DiabetesIndices carries the diabetes-specific sub-indices.
type DiabetesIndices struct {
	TriadComplete    bool    `json:"triad_complete"`
	TriadScore       float64 `json:"triad_score"`
	KetoacidosisRisk float64 `json:"ketoacidosis_risk_pct"`
}

// CardiacIndices carries the Framingham-style point total and its band.
type CardiacIndices struct {
	FraminghamPoints int       `json:"framingham_points"`
	PointBand        RiskLevel `json:"point_band"`
}

// SuicideRisk is the mental-health suicide sub-record.
type SuicideRisk struct {
	Band                  string `json:"band"` // low, moderate, high, imminent
	ImmediateIntervention bool   `json:"immediate_intervention"`
}

// MentalHealthIndices carries depression, anxiety, and suicide sub-indices.
type MentalHealthIndices struct {
	DepressionIndex int         `json:"depression_index"` // PHQ-9, 0-27
	AnxietyIndex    int         `json:"anxiety_index"`    // GAD-7, 0-21
	Suicide         SuicideRisk `json:"suicide"`
}

// RespiratoryIndices carries the STOP-BANG sleep-apnea index.
type RespiratoryIndices struct {
	SleepApneaIndex int `json:"sleep_apnea_index"` // 0-8
}

// ConditionRiskAssessment is the output of a single condition scorer.
// Exactly one of the sub-index pointers is set, matching Condition.
type ConditionRiskAssessment struct {
	Condition           Condition            `json:"condition"`
	Score               float64              `json:"score"` // 0-100
	RiskLevel           RiskLevel            `json:"risk_level"`
	EmergencyIndicators []string             `json:"emergency_indicators,omitempty"`
	EscalationRequired  bool                 `json:"escalation_required"`
	TimeToEscalation    float64              `json:"time_to_escalation_hours"`
	Diabetes            *DiabetesIndices     `json:"diabetes,omitempty"`
	Cardiac             *CardiacIndices      `json:"cardiac,omitempty"`
	MentalHealth        *MentalHealthIndices `json:"mental_health,omitempty"`
	Respiratory         *RespiratoryIndices  `json:"respiratory,omitempty"`
}

// SynergyRecord classifies the interaction between one pair of co-present
// conditions.
type SynergyRecord struct {
	ConditionA      Condition `json:"condition_a"`
	ConditionB      Condition `json:"condition_b"`
	Correlation     float64   `json:"correlation"`
	InteractionType string    `json:"interaction_type"` // exponential, multiplicative, additive
}

// CompositeRiskAssessment is the cross-condition aggregate.
type CompositeRiskAssessment struct {
	ID                      uuid.UUID       `json:"id"`
	SubjectID               uuid.UUID       `json:"subject_id"`
	Score                   float64         `json:"score"` // 0-100
	RiskLevel               RiskLevel       `json:"risk_level"`
	MultiConditionPenalty   float64         `json:"multi_condition_penalty"`
	SynergyFactor           float64         `json:"synergy_factor"`
	Synergies               []SynergyRecord `json:"synergies,omitempty"`
	AgeAdjustment           float64         `json:"age_adjustment"`
	GenderAdjustment        float64         `json:"gender_adjustment"`
	SocioeconomicAdjustment float64         `json:"socioeconomic_adjustment"`
	AccessToCareAdjustment  float64         `json:"access_to_care_adjustment"`
	PrioritizedConditions   []Condition     `json:"prioritized_conditions"`
	EmergencyEscalation     bool            `json:"emergency_escalation"`
	UrgentEscalation        bool            `json:"urgent_escalation"`
	RoutineFollowup         bool            `json:"routine_followup"`
	AssessedAt              time.Time       `json:"assessed_at"`
}

// AlertSeverity is the ordered alert tier.
type AlertSeverity string

const (
	SeverityImmediate AlertSeverity = "immediate"
	SeverityCritical  AlertSeverity = "critical"
	SeverityHigh      AlertSeverity = "high"
)

var severityRank = map[AlertSeverity]int{
	SeverityImmediate: 2,
	SeverityCritical:  1,
	SeverityHigh:      0,
}

// Rank returns the ordering position of the severity (higher is worse).
func (s AlertSeverity) Rank() int {
	return severityRank[s]
}

// EmergencyAlert is a single prioritized safety signal.
type EmergencyAlert struct {
	Source            Condition     `json:"source"` // originating condition, or composite
	Indicator         string        `json:"indicator"`
	Severity          AlertSeverity `json:"severity"`
	TimeToActionMins  int           `json:"time_to_action_minutes"`
	Description       string        `json:"description"`
	Confidence        float64       `json:"confidence"` // 0-1
}

// EscalationLevel is the tier of response required.
type EscalationLevel string

const (
	EscalationAIOnly            EscalationLevel = "ai_only"
	EscalationHumanReview       EscalationLevel = "human_review"
	EscalationEmergencyDispatch EscalationLevel = "emergency_dispatch"
)

// EscalationProtocol tells the dispatch collaborator what response the
// assessment requires.
type EscalationProtocol struct {
	Immediate        bool            `json:"immediate"`
	Urgent           bool            `json:"urgent"`
	TimeToEscalation float64         `json:"time_to_escalation_hours"`
	Level            EscalationLevel `json:"level"`
	Channels         []string        `json:"channels"`
	AutoSchedule     bool            `json:"auto_schedule"`
}

// SubjectProfile carries optional demographic and socioeconomic context used
// by the aggregator's adjustment multipliers.
type SubjectProfile struct {
	Age               int    `json:"age,omitempty"`
	Gender            string `json:"gender,omitempty"`             // male, female, other
	SocioeconomicTier string `json:"socioeconomic_tier,omitempty"` // low, medium, high
	AccessToCare      string `json:"access_to_care,omitempty"`     // poor, limited, adequate
}

// Result is the full output of one assessment run.
type Result struct {
	Composite  *CompositeRiskAssessment              `json:"composite"`
	Conditions map[Condition]*ConditionRiskAssessment `json:"conditions"`
	Alerts     []EmergencyAlert                      `json:"alerts"`
	Protocol   EscalationProtocol                    `json:"protocol"`
}

// BulkItem is one subject's questionnaire in a bulk assessment request.
type BulkItem struct {
	SubjectID       uuid.UUID       `json:"subject_id"`
	QuestionnaireID uuid.UUID       `json:"questionnaire_id,omitempty"`
	Profile         *SubjectProfile `json:"profile,omitempty"`
}

// Bulk item statuses.
const (
	BulkCompleted = "completed"
	BulkFailed    = "failed"
)

// BulkResult reports the outcome for a single subject in a bulk run.
type BulkResult struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Result    *Result   `json:"result,omitempty"`
}

// EmergencyEvaluation is the abbreviated output of an emergency
// re-assessment from ad-hoc symptom strings.
type EmergencyEvaluation struct {
	SubjectID         uuid.UUID        `json:"subject_id"`
	Alerts            []EmergencyAlert `json:"alerts"`
	Protocol          EscalationProtocol `json:"protocol"`
	RecommendedAction string           `json:"recommended_action"`
	EvaluatedAt       time.Time        `json:"evaluated_at"`
}

// clamp bounds a score to [0,100].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// levelForScore maps a 0-100 score to the shared band thresholds.
func levelForScore(score float64) RiskLevel {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 35:
		return RiskModerate
	default:
		return RiskLow
	}
}
