package tide

import (
	"log/slog"
	"time"

	"github.com/relabs-tech/nmea_depth/internal/geo"
)

// exactMatchNM is the distance below which a station is taken to be at
// the query point and its sample is used as is.
const exactMatchNM = 1e-9

// Estimate is the result of one water level query.
type Estimate struct {
	LevelCM  float64 // weighted mean level in centimeters
	Stations int     // stations that had a sample for the bucket
	Exact    bool    // a station coincided with the query point
}

// Meters returns the level in meters.
func (e Estimate) Meters() float64 { return e.LevelCM / 100.0 }

// Stats counts corrected and uncorrected queries since the last Report.
type Stats struct {
	Corrected   int
	Uncorrected int
}

// Percent returns the share of corrected queries, 0 when there were none.
func (s Stats) Percent() float64 {
	total := s.Corrected + s.Uncorrected
	if total == 0 {
		return 0
	}
	return 100 * float64(s.Corrected) / float64(total)
}

// Estimator interpolates water levels between stations by inverse
// distance weighting. It is not safe for concurrent use.
type Estimator struct {
	reg    *Registry
	stats  Stats
	logger *slog.Logger
}

// NewEstimator returns an estimator over reg. A nil registry behaves like
// an empty one.
func NewEstimator(reg *Registry, logger *slog.Logger) *Estimator {
	if reg == nil {
		reg = NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{reg: reg, logger: logger}
}

// Estimate returns the weighted level for bucket b at p. ok is false when
// no station has a sample for b; the level is then 0.
func (e *Estimator) Estimate(b Bucket, p geo.Point) (Estimate, bool) {
	var (
		sum, weights   float64
		exactSum       float64
		exact, samples int
	)
	for _, st := range e.reg.Stations() {
		cm, ok := st.Level(b)
		if !ok {
			continue
		}
		samples++
		d := st.DistanceNM(p)
		if d < exactMatchNM {
			exactSum += float64(cm)
			exact++
			continue
		}
		w := 1 / d
		sum += float64(cm) * w
		weights += w
	}

	if samples == 0 {
		e.stats.Uncorrected++
		return Estimate{}, false
	}
	e.stats.Corrected++
	if exact > 0 {
		return Estimate{LevelCM: exactSum / float64(exact), Stations: samples, Exact: true}, true
	}
	return Estimate{LevelCM: sum / weights, Stations: samples}, true
}

// WaterLevel returns the estimated level in meters at time t and point p,
// or 0 when no station covers t.
func (e *Estimator) WaterLevel(t time.Time, p geo.Point) float64 {
	est, _ := e.Estimate(BucketOf(t), p)
	return est.Meters()
}

// Stats returns the counters without resetting them.
func (e *Estimator) Stats() Stats { return e.stats }

// Report logs the corrected share, resets the counters and returns the
// values they had.
func (e *Estimator) Report() Stats {
	s := e.stats
	e.stats = Stats{}
	e.logger.Info("waypoints corrected with tidal data",
		"percent", s.Percent(),
		"corrected", s.Corrected,
		"uncorrected", s.Uncorrected,
	)
	return s
}

// Constant is a water level that does not vary in time or space, in meters.
type Constant float64

// WaterLevel returns the constant level.
func (c Constant) WaterLevel(time.Time, geo.Point) float64 { return float64(c) }
