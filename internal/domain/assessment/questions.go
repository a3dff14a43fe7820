package assessment

import "github.com/hra/hra/internal/domain/questionnaire"

// Canonical question identifiers the scorers look for. The intake
// collaborator normalizes raw form fields to these IDs.
const (
	// Diabetes
	QExcessiveThirst   = "excessive_thirst"
	QExcessiveHunger   = "excessive_hunger"
	QFrequentUrination = "frequent_urination"
	QRapidWeightLoss   = "rapid_weight_loss"
	QNauseaVomiting    = "nausea_vomiting"
	QBlurredVision     = "blurred_vision"
	QFastingGlucose    = "fasting_glucose" // mg/dL

	// Cardiovascular
	QAge               = "age" // years
	QSexMale           = "sex_male"
	QSmoker            = "current_smoker"
	QHypertension      = "hypertension_diagnosed"
	QDiabetesDiagnosed = "diabetes_diagnosed"
	QChestPainRest     = "chest_pain_at_rest"
	QShortnessOfBreath = "shortness_of_breath"
	QPalpitations      = "palpitations"

	// Mental health. PHQ-9 items are scale 0-3; item 9 is the
	// self-harm/ideation item. GAD-7 items are scale 0-3.
	QPHQPrefix        = "phq9_item_" // phq9_item_1 .. phq9_item_9
	QGADPrefix        = "gad7_item_" // gad7_item_1 .. gad7_item_7
	QSuicidePlan      = "suicide_plan"
	QHopelessness     = "hopelessness"
	QProtectiveFactor = "protective_factors" // family support, treatment engagement

	// Respiratory / STOP-BANG
	QSnoring           = "loud_snoring"
	QDaytimeFatigue    = "daytime_fatigue"
	QObservedApnea     = "observed_apnea"
	QBMI               = "bmi"
	QNeckCircumference = "neck_circumference_cm"
	QWheezing          = "wheezing"
	QSevereDyspnea     = "severe_dyspnea"
	QSpeechDifficulty  = "speech_difficulty"
	QRapidOnset        = "rapid_symptom_onset"
)

// weightedSymptomTotal sums the relevance weight of every response tagged for
// the condition whose answer satisfies its type's affirmative predicate:
// boolean yes, numeric above the configured cutoff, or a scale value scaled
// into its bucket fraction.
func weightedSymptomTotal(q *questionnaire.Processed, condition Condition, numericCutoffs map[string]float64) float64 {
	var total float64
	for _, r := range q.TaggedFor(string(condition)) {
		switch r.Type {
		case questionnaire.AnswerBoolean:
			if yes, ok := r.Bool(); ok && yes {
				total += r.Relevance.Weight
			}
		case questionnaire.AnswerNumeric:
			n, ok := r.Number()
			if !ok {
				continue
			}
			cutoff, has := numericCutoffs[r.QuestionID]
			if has && n > cutoff {
				total += r.Relevance.Weight
			}
		case questionnaire.AnswerScale:
			// Scales contribute proportionally: a 2/3 answer on a weight-6
			// question adds 4 points.
			if v, ok := r.Scale(); ok && v > 0 {
				total += r.Relevance.Weight * float64(v) / 3.0
			}
		}
	}
	return total
}
