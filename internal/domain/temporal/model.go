package temporal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Window is a caller-supplied lookback label.
type Window string

const (
	Window90Days  Window = "90d"
	Window180Days Window = "180d"
	Window1Year   Window = "1y"
)

// Duration resolves the window label to its lookback length.
func (w Window) Duration() (time.Duration, error) {
	switch w {
	case Window90Days:
		return 90 * 24 * time.Hour, nil
	case Window180Days:
		return 180 * 24 * time.Hour, nil
	case Window1Year:
		return 365 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unknown window: %s", w)
}

// DataPoint is one (timestamp, score) observation. History is append-only;
// corrections are new points, never edits.
type DataPoint struct {
	At    time.Time `db:"recorded_at" json:"at"`
	Score float64   `db:"score" json:"score"`
}

// Series is the ordered history for one subject and condition (or the
// composite).
type Series struct {
	SubjectID uuid.UUID   `json:"subject_id"`
	Condition string      `json:"condition"`
	Points    []DataPoint `json:"points"`
}

// Trend classifications.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendWorsening Trend = "worsening"
)

// Projection is an optional linear short-horizon forecast.
type Projection struct {
	HorizonDays int     `json:"horizon_days"`
	Score       float64 `json:"score"`
	SlopePerDay float64 `json:"slope_per_day"`
}

// ConditionTrend is the derived trend for one condition within a report.
type ConditionTrend struct {
	Condition  string      `json:"condition"`
	Trend      Trend       `json:"trend"`
	RecentAvg  float64     `json:"recent_avg"`
	EarlierAvg float64     `json:"earlier_avg"`
	Latest     *DataPoint  `json:"latest,omitempty"`
	DataPoints int         `json:"data_points"`
	Projection *Projection `json:"projection,omitempty"`
}

// TrendReport is the full temporal report for a subject over a window.
type TrendReport struct {
	SubjectID   uuid.UUID        `json:"subject_id"`
	Window      Window           `json:"window"`
	Trends      []ConditionTrend `json:"trends"`
	GeneratedAt time.Time        `json:"generated_at"`
}
