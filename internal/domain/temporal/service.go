package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// stabilityBand is the score delta within which a trend counts as stable.
const stabilityBand = 5.0

// projectionHorizonDays is the short-horizon forecast length.
const projectionHorizonDays = 30

// Service derives trend reports from append-only risk history.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one score observation. History is never mutated after
// write; a correction is a new data point.
func (s *Service) Record(ctx context.Context, subjectID uuid.UUID, condition string, score float64, at time.Time) error {
	if subjectID == uuid.Nil {
		return fmt.Errorf("subject_id is required")
	}
	if condition == "" {
		return fmt.Errorf("condition is required")
	}
	if score < 0 || score > 100 {
		return fmt.Errorf("score must be in [0,100], got %g", score)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return s.repo.Append(ctx, subjectID, condition, DataPoint{At: at, Score: score})
}

// History returns the raw series inside the window, newest-last.
func (s *Service) History(ctx context.Context, subjectID uuid.UUID, window Window) ([]Series, error) {
	if subjectID == uuid.Nil {
		return nil, fmt.Errorf("subject_id is required")
	}
	lookback, err := window.Duration()
	if err != nil {
		return nil, err
	}
	return s.repo.ListSince(ctx, subjectID, time.Now().UTC().Add(-lookback))
}

// Report classifies each stored series over the window: the mean of the most
// recent third of the window is compared against the mean of the earliest
// third, with a stability band between them.
func (s *Service) Report(ctx context.Context, subjectID uuid.UUID, window Window) (*TrendReport, error) {
	if subjectID == uuid.Nil {
		return nil, fmt.Errorf("subject_id is required")
	}
	lookback, err := window.Duration()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	since := now.Add(-lookback)
	series, err := s.repo.ListSince(ctx, subjectID, since)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	report := &TrendReport{
		SubjectID:   subjectID,
		Window:      window,
		GeneratedAt: now,
	}
	third := lookback / 3
	for _, sr := range series {
		report.Trends = append(report.Trends, classify(sr, since, third))
	}
	return report, nil
}

func classify(sr Series, since time.Time, third time.Duration) ConditionTrend {
	ct := ConditionTrend{
		Condition:  sr.Condition,
		Trend:      TrendStable,
		DataPoints: len(sr.Points),
	}
	if len(sr.Points) == 0 {
		return ct
	}
	latest := sr.Points[len(sr.Points)-1]
	ct.Latest = &latest

	earlierEnd := since.Add(third)
	recentStart := since.Add(2 * third)
	var earlierSum, recentSum float64
	var earlierN, recentN int
	for _, p := range sr.Points {
		if p.At.Before(earlierEnd) {
			earlierSum += p.Score
			earlierN++
		}
		if !p.At.Before(recentStart) {
			recentSum += p.Score
			recentN++
		}
	}

	if recentN > 0 {
		ct.RecentAvg = recentSum / float64(recentN)
	} else {
		ct.RecentAvg = latest.Score
	}
	if earlierN > 0 {
		ct.EarlierAvg = earlierSum / float64(earlierN)
	} else {
		// Not enough spread to compare sub-windows; single-point series
		// read as stable.
		ct.EarlierAvg = ct.RecentAvg
	}

	switch delta := ct.RecentAvg - ct.EarlierAvg; {
	case delta > stabilityBand:
		ct.Trend = TrendWorsening
	case delta < -stabilityBand:
		ct.Trend = TrendImproving
	}

	if proj := project(sr.Points); proj != nil {
		ct.Projection = proj
	}
	return ct
}

// project fits a least-squares line through the series and extends it a
// short horizon forward. Fewer than three points is too little signal.
func project(points []DataPoint) *Projection {
	if len(points) < 3 {
		return nil
	}
	t0 := points[0].At
	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		x := p.At.Sub(t0).Hours() / 24
		sumX += x
		sumY += p.Score
		sumXY += x * p.Score
		sumXX += x * x
	}
	n := float64(len(points))
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return nil
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	lastX := points[len(points)-1].At.Sub(t0).Hours() / 24
	predicted := intercept + slope*(lastX+projectionHorizonDays)
	if predicted < 0 {
		predicted = 0
	}
	if predicted > 100 {
		predicted = 100
	}
	return &Projection{
		HorizonDays: projectionHorizonDays,
		Score:       predicted,
		SlopePerDay: slope,
	}
}
