package assemble

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/relabs-tech/nmea_depth/internal/gps"
	"github.com/relabs-tech/nmea_depth/internal/trace"
)

// TrackOptions configures a track pass.
type TrackOptions struct {
	Decoder   gps.Decoder
	Window    gps.Window
	IntervalM float64 // minimum spacing between track points
	JumpM     float64 // displacement treated as a discontinuity
	Source    string  // log file name, for log lines only
	Logger    *slog.Logger
}

// TrackPoint is one decimated position of a track.
type TrackPoint struct {
	Latitude  float64
	Longitude float64
	Key       gps.TimeKey
}

// Timestamp returns the point time as YYYY-MM-DDThh:mm:ssZ.
func (p TrackPoint) Timestamp() string { return p.Key.Format() }

// Day returns the point date as YYYY-MM-DD.
func (p TrackPoint) Day() string { return p.Key.Day() }

// Track runs one pass over r and calls emit for every decimated fix, in
// input order. An error from emit aborts the pass.
func Track(r io.Reader, opts TrackOptions, emit func(TrackPoint) error) (Counts, error) {
	var counts Counts
	dec, err := trace.NewDecimator(opts.IntervalM, opts.JumpM)
	if err != nil {
		return counts, err
	}
	logger := loggerOrDefault(opts.Logger)

	err = fold(r, opts.Decoder, logger, opts.Source, &counts, func(s gps.Sentence) error {
		if s.Kind != gps.KindFix || !opts.Window.Contains(s.Fix.Key) {
			return nil
		}
		counts.Fixes++
		if !dec.Offer(s.Fix.Point()) {
			return nil
		}
		counts.Emitted++
		return emit(TrackPoint{Latitude: s.Fix.Latitude, Longitude: s.Fix.Longitude, Key: s.Fix.Key})
	})
	if err != nil {
		return counts, fmt.Errorf("track %s: %w", opts.Source, err)
	}
	logger.Info("track pass done",
		"source", opts.Source,
		"trackpoints", counts.Emitted,
		"rmc", counts.Fixes,
		"skipped", counts.Skipped,
	)
	return counts, nil
}
