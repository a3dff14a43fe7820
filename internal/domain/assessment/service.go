package assessment

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hra/hra/internal/domain/questionnaire"
)

// HistoryRecorder receives finalized scores for trend tracking. Recording
// happens off the scoring path and must never block or fail an assessment.
type HistoryRecorder interface {
	Record(ctx context.Context, subjectID uuid.UUID, condition string, score float64, at time.Time) error
}

const defaultBulkWorkers = 8

type Service struct {
	questionnaires questionnaire.Repository
	history        HistoryRecorder
	cfg            AggregatorConfig
	workers        int
	logger         zerolog.Logger
}

func NewService(questionnaires questionnaire.Repository, history HistoryRecorder, cfg AggregatorConfig, workers int, logger zerolog.Logger) *Service {
	if workers <= 0 {
		workers = defaultBulkWorkers
	}
	return &Service{
		questionnaires: questionnaires,
		history:        history,
		cfg:            cfg,
		workers:        workers,
		logger:         logger,
	}
}

// Assess runs the full pipeline on an in-hand questionnaire snapshot: the
// four condition scorers in parallel, the compound aggregator, then emergency
// detection. The scoring path itself performs no I/O; history recording is
// handed off after the result is final.
func (s *Service) Assess(ctx context.Context, q *questionnaire.Processed, profile *SubjectProfile) (*Result, error) {
	if q == nil {
		return nil, fmt.Errorf("questionnaire is required")
	}
	if q.SubjectID == uuid.Nil {
		return nil, fmt.Errorf("subject_id is required")
	}

	conditions := ScoreAll(q)
	composite := Aggregate(s.cfg, conditions, q.SubjectID, profile)
	alerts, protocol := Detect(composite, conditions)

	result := &Result{
		Composite:  composite,
		Conditions: conditions,
		Alerts:     alerts,
		Protocol:   protocol,
	}
	s.recordHistory(q.SubjectID, result)
	return result, nil
}

// AssessStored resolves the questionnaire from storage (by explicit ID, or
// the subject's most recent snapshot) and assesses it.
func (s *Service) AssessStored(ctx context.Context, item BulkItem) (*Result, error) {
	if item.SubjectID == uuid.Nil {
		return nil, fmt.Errorf("subject_id is required")
	}
	var (
		q   *questionnaire.Processed
		err error
	)
	if item.QuestionnaireID != uuid.Nil {
		q, err = s.questionnaires.GetByID(ctx, item.QuestionnaireID)
	} else {
		q, err = s.questionnaires.GetLatestBySubject(ctx, item.SubjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("load questionnaire: %w", err)
	}
	if q.SubjectID != item.SubjectID {
		return nil, fmt.Errorf("questionnaire %s does not belong to subject %s", q.ID, item.SubjectID)
	}
	return s.Assess(ctx, q, item.Profile)
}

// BulkAssess runs assessments for a batch of subjects on a capped worker
// pool. One subject's failure (including a panic inside its scorers) never
// affects the others; the output always has one entry per input, in input
// order.
func (s *Service) BulkAssess(ctx context.Context, items []BulkItem) []BulkResult {
	results := make([]BulkResult, len(items))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.assessOne(ctx, items[i])
		}(i)
	}
	wg.Wait()
	return results
}

func (s *Service) assessOne(ctx context.Context, item BulkItem) (br BulkResult) {
	br.SubjectID = item.SubjectID
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("subject_id", item.SubjectID.String()).
				Interface("panic", r).
				Msg("assessment panicked")
			br.Status = BulkFailed
			br.Error = fmt.Sprintf("assessment panicked: %v", r)
			br.Result = nil
		}
	}()

	result, err := s.AssessStored(ctx, item)
	if err != nil {
		br.Status = BulkFailed
		br.Error = err.Error()
		return br
	}
	br.Status = BulkCompleted
	br.Result = result
	return br
}

// symptomIndicators maps free-text symptom keywords reported during an
// emergency re-assessment to the indicator they suggest. Matching is
// case-insensitive substring.
var symptomIndicators = []struct {
	keywords  []string
	indicator string
	source    Condition
}{
	{[]string{"chest pain", "chest pressure", "chest tightness"}, IndicatorAcuteCoronary, ConditionCardiovascular},
	{[]string{"suicid", "self-harm", "self harm", "end my life", "kill myself"}, IndicatorSuicideRisk, ConditionMentalHealth},
	{[]string{"can't breathe", "cannot breathe", "gasping", "severe wheez"}, IndicatorSevereAsthma, ConditionRespiratory},
	{[]string{"fruity breath", "ketone", "vomiting with thirst"}, IndicatorKetoacidosisRisk, ConditionDiabetes},
}

// EmergencyReassess evaluates ad-hoc reported symptoms against the emergency
// keyword table without requiring a stored questionnaire. It is the fast
// path for "symptoms changed, is this now an emergency".
func (s *Service) EmergencyReassess(ctx context.Context, subjectID uuid.UUID, symptoms []string) (*EmergencyEvaluation, error) {
	if subjectID == uuid.Nil {
		return nil, fmt.Errorf("subject_id is required")
	}
	if len(symptoms) == 0 {
		return nil, fmt.Errorf("at least one symptom is required")
	}

	var alerts []EmergencyAlert
	seen := make(map[string]bool)
	for _, raw := range symptoms {
		symptom := strings.ToLower(strings.TrimSpace(raw))
		if symptom == "" {
			continue
		}
		for _, entry := range symptomIndicators {
			if seen[entry.indicator] {
				continue
			}
			for _, kw := range entry.keywords {
				if strings.Contains(symptom, kw) {
					seen[entry.indicator] = true
					severity := indicatorSeverity[entry.indicator]
					alerts = append(alerts, EmergencyAlert{
						Source:           entry.source,
						Indicator:        entry.indicator,
						Severity:         severity,
						TimeToActionMins: timeToActionMins(severity, 0),
						Description:      indicatorDescription[entry.indicator],
						Confidence:       0.7,
					})
					break
				}
			}
		}
	}
	sortAlerts(alerts)
	protocol := protocolFor(alerts)

	eval := &EmergencyEvaluation{
		SubjectID:         subjectID,
		Alerts:            alerts,
		Protocol:          protocol,
		RecommendedAction: recommendedAction(protocol),
		EvaluatedAt:       time.Now().UTC(),
	}
	return eval, nil
}

func recommendedAction(p EscalationProtocol) string {
	switch p.Level {
	case EscalationEmergencyDispatch:
		return "contact emergency services immediately"
	case EscalationHumanReview:
		if p.Urgent {
			return "urgent clinician review required"
		}
		return "schedule clinician review"
	default:
		return "continue routine monitoring"
	}
}

// recordHistory forwards the finalized scores to the trend tracker in the
// background. Failures are logged and dropped; the assessment result is
// already final.
func (s *Service) recordHistory(subjectID uuid.UUID, result *Result) {
	if s.history == nil {
		return
	}
	at := result.Composite.AssessedAt
	points := make(map[string]float64, len(result.Conditions)+1)
	for cond, a := range result.Conditions {
		points[string(cond)] = a.Score
	}
	points[string(ConditionComposite)] = result.Composite.Score

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for cond, score := range points {
			if err := s.history.Record(ctx, subjectID, cond, score, at); err != nil {
				s.logger.Warn().
					Err(err).
					Str("subject_id", subjectID.String()).
					Str("condition", cond).
					Msg("risk history record failed")
			}
		}
	}()
}
