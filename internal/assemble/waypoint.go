package assemble

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/relabs-tech/nmea_depth/internal/geo"
	"github.com/relabs-tech/nmea_depth/internal/gps"
	"github.com/relabs-tech/nmea_depth/internal/trace"
)

// WaterLevel gives the water level above chart datum in meters.
type WaterLevel interface {
	WaterLevel(at time.Time, p geo.Point) float64
}

// WaypointOptions configures a depth waypoint pass.
type WaypointOptions struct {
	Decoder   gps.Decoder
	Window    gps.Window
	IntervalM float64
	JumpM     float64
	Source    string
	Logger    *slog.Logger
}

// Waypoint is a tide corrected sounding at the position of the fix that
// preceded it.
type Waypoint struct {
	Latitude  float64
	Longitude float64
	Key       gps.TimeKey
	RawDepth  float64 // meters below transducer
	Level     float64 // water level subtracted, meters
	Depth     float64 // corrected depth, rounded to 0.1 m
	Symbol    string
	ScaleMin  int
	Index     int
}

// waypointFold is the accumulator threaded through a waypoint pass.
type waypointFold struct {
	window gps.Window
	dec    *trace.Decimator
	tides  WaterLevel
	logger *slog.Logger
	source string

	seenFix bool
	last    *gps.Fix // latest fix, nil until one lies inside the window
	index   int
	counts  *Counts
	emit    func(Waypoint) error
}

func (f *waypointFold) step(s gps.Sentence) error {
	switch s.Kind {
	case gps.KindFix:
		f.seenFix = true
		if !f.window.Contains(s.Fix.Key) {
			f.last = nil
			return nil
		}
		fix := s.Fix
		f.last = &fix
		f.counts.Fixes++
		return nil

	case gps.KindDepth:
		if f.last == nil {
			if !f.seenFix {
				f.counts.Orphans++
				f.logger.Debug("depth skipped", "source", f.source, "error", ErrNoFix)
			}
			return nil
		}
		f.counts.Depths++
		if !f.dec.Offer(f.last.Point()) {
			return nil
		}
		return f.emitDepth(*f.last, s.Depth)
	}
	return nil
}

func (f *waypointFold) emitDepth(fix gps.Fix, d gps.Depth) error {
	level := f.tides.WaterLevel(fix.Key.Time(), fix.Point())
	depth := Round1(d.Meters - level)
	wp := Waypoint{
		Latitude:  fix.Latitude,
		Longitude: fix.Longitude,
		Key:       fix.Key,
		RawDepth:  d.Meters,
		Level:     level,
		Depth:     depth,
		Symbol:    DepthSymbol(depth),
		ScaleMin:  ScaleMin(f.index),
		Index:     f.index,
	}
	f.index++
	f.counts.Emitted++
	return f.emit(wp)
}

// Waypoints runs one pass over r and calls emit for every decimated depth
// sounding, in input order. A nil tides applies no correction.
func Waypoints(r io.Reader, opts WaypointOptions, tides WaterLevel, emit func(Waypoint) error) (Counts, error) {
	var counts Counts
	dec, err := trace.NewDecimator(opts.IntervalM, opts.JumpM)
	if err != nil {
		return counts, err
	}
	if tides == nil {
		tides = noTide{}
	}
	logger := loggerOrDefault(opts.Logger)

	f := &waypointFold{
		window: opts.Window,
		dec:    dec,
		tides:  tides,
		logger: logger,
		source: opts.Source,
		counts: &counts,
		emit:   emit,
	}
	if err := fold(r, opts.Decoder, logger, opts.Source, &counts, f.step); err != nil {
		return counts, fmt.Errorf("waypoints %s: %w", opts.Source, err)
	}
	logger.Info("waypoint pass done",
		"source", opts.Source,
		"waypoints", counts.Emitted,
		"rmc", counts.Fixes,
		"dpt", counts.Depths,
		"orphans", counts.Orphans,
		"skipped", counts.Skipped,
	)
	return counts, nil
}

type noTide struct{}

func (noTide) WaterLevel(time.Time, geo.Point) float64 { return 0 }
