package assessment

import "sort"

// indicatorSeverity is the fixed indicator-to-tier table.
var indicatorSeverity = map[string]AlertSeverity{
	IndicatorAcuteCoronary:     SeverityImmediate,
	IndicatorSuicideRisk:       SeverityImmediate,
	IndicatorSevereAsthma:      SeverityImmediate,
	IndicatorKetoacidosisRisk:  SeverityCritical,
	IndicatorCompositeCritical: SeverityCritical,
	IndicatorAssessmentFailure: SeverityHigh,
}

var indicatorDescription = map[string]string{
	IndicatorAcuteCoronary:     "Chest pain at rest with shortness of breath: suspected acute coronary syndrome",
	IndicatorSuicideRisk:       "Suicidal ideation with concrete plan: imminent self-harm risk",
	IndicatorSevereAsthma:      "Wheezing, severe dyspnea, speech difficulty with rapid onset: severe asthma exacerbation",
	IndicatorKetoacidosisRisk:  "Symptom pattern consistent with diabetic ketoacidosis",
	IndicatorCompositeCritical: "Combined multi-condition risk in the critical band",
	IndicatorAssessmentFailure: "Risk evaluation could not complete; manual review required",
}

// Disjoint time-to-action bands per tier, in minutes. Clamping into these
// bands keeps immediate alerts strictly ahead of critical, and critical of
// high, whatever escalation ceiling the scorer reported.
const (
	immediateActionMaxMins = 30
	criticalActionMaxMins  = 240
	highActionMaxMins      = 1440
)

func timeToActionMins(severity AlertSeverity, escalationHours float64) int {
	mins := int(escalationHours * 60)
	var lo, hi int
	switch severity {
	case SeverityImmediate:
		lo, hi = 5, immediateActionMaxMins
	case SeverityCritical:
		lo, hi = immediateActionMaxMins+1, criticalActionMaxMins
	default:
		lo, hi = criticalActionMaxMins+1, highActionMaxMins
	}
	if mins < lo {
		return lo
	}
	if mins > hi {
		return hi
	}
	return mins
}

// failSafeAlerts is the detector's guaranteed output when its own logic
// cannot complete: a downstream consumer must never be starved of a signal.
func failSafeAlerts() []EmergencyAlert {
	return []EmergencyAlert{{
		Source:           ConditionComposite,
		Indicator:        IndicatorAssessmentFailure,
		Severity:         SeverityHigh,
		TimeToActionMins: timeToActionMins(SeverityHigh, 24),
		Description:      indicatorDescription[IndicatorAssessmentFailure],
		Confidence:       1,
	}}
}

// Detect scans the composite and condition assessments for emergency
// indicators and derives the prioritized alert list plus the escalation
// protocol. It never returns an error: an internal fault yields exactly one
// synthetic high-severity alert instead.
func Detect(composite *CompositeRiskAssessment, conditions map[Condition]*ConditionRiskAssessment) (alerts []EmergencyAlert, protocol EscalationProtocol) {
	defer func() {
		if r := recover(); r != nil {
			alerts = failSafeAlerts()
			protocol = protocolFor(alerts)
		}
	}()

	alerts = collectAlerts(composite, conditions)
	sortAlerts(alerts)
	protocol = protocolFor(alerts)
	return alerts, protocol
}

func collectAlerts(composite *CompositeRiskAssessment, conditions map[Condition]*ConditionRiskAssessment) []EmergencyAlert {
	var alerts []EmergencyAlert
	for _, cond := range ScoredConditions() {
		a := conditions[cond]
		if a == nil {
			continue
		}
		for _, ind := range a.EmergencyIndicators {
			severity, known := indicatorSeverity[ind]
			if !known {
				severity = SeverityHigh
			}
			alerts = append(alerts, EmergencyAlert{
				Source:           cond,
				Indicator:        ind,
				Severity:         severity,
				TimeToActionMins: timeToActionMins(severity, a.TimeToEscalation),
				Description:      indicatorDescription[ind],
				Confidence:       confidenceFor(a),
			})
		}
	}

	// A critical composite with no condition-level indicator is itself a
	// safety signal: combined risk crossed into the critical band.
	if composite.RiskLevel == RiskCritical && len(alerts) == 0 {
		alerts = append(alerts, EmergencyAlert{
			Source:           ConditionComposite,
			Indicator:        IndicatorCompositeCritical,
			Severity:         SeverityCritical,
			TimeToActionMins: timeToActionMins(SeverityCritical, 12),
			Description:      indicatorDescription[IndicatorCompositeCritical],
			Confidence:       0.8,
		})
	}
	return alerts
}

// confidenceFor grades an alert by how far the originating condition's score
// sits into its band.
func confidenceFor(a *ConditionRiskAssessment) float64 {
	c := 0.6 + a.Score/250
	if c > 1 {
		c = 1
	}
	return c
}

// sortAlerts orders by severity descending, then time-to-action ascending.
func sortAlerts(alerts []EmergencyAlert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Severity.Rank() != alerts[j].Severity.Rank() {
			return alerts[i].Severity.Rank() > alerts[j].Severity.Rank()
		}
		return alerts[i].TimeToActionMins < alerts[j].TimeToActionMins
	})
}

// protocolFor derives the escalation protocol from the worst alert present.
func protocolFor(alerts []EmergencyAlert) EscalationProtocol {
	if len(alerts) == 0 {
		return EscalationProtocol{
			Level:            EscalationAIOnly,
			TimeToEscalation: 24 * 7,
			Channels:         []string{"app"},
			AutoSchedule:     false,
		}
	}
	worst := alerts[0]
	tte := float64(worst.TimeToActionMins) / 60
	switch worst.Severity {
	case SeverityImmediate:
		return EscalationProtocol{
			Immediate:        true,
			Urgent:           true,
			TimeToEscalation: tte,
			Level:            EscalationEmergencyDispatch,
			Channels:         []string{"phone", "sms", "emergency_services"},
			AutoSchedule:     false,
		}
	case SeverityCritical:
		return EscalationProtocol{
			Urgent:           true,
			TimeToEscalation: tte,
			Level:            EscalationHumanReview,
			Channels:         []string{"phone", "sms", "email"},
			AutoSchedule:     true,
		}
	default:
		return EscalationProtocol{
			TimeToEscalation: tte,
			Level:            EscalationHumanReview,
			Channels:         []string{"email", "app"},
			AutoSchedule:     true,
		}
	}
}
