package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/relabs-tech/nmea_depth/internal/assemble"
	"github.com/relabs-tech/nmea_depth/internal/config"
	"github.com/relabs-tech/nmea_depth/internal/gps"
	"github.com/relabs-tech/nmea_depth/internal/gpx"
	"github.com/relabs-tech/nmea_depth/internal/tide"
)

// DepthResult summarizes one depth layer run.
type DepthResult struct {
	Output  string
	Summary assemble.Summary
	Counts  assemble.Counts
	Tide    tide.Stats
}

// RunDepthProcessor builds the tide corrected depth waypoint layer from the
// configured echo sounder log.
func RunDepthProcessor() error {
	cfg := config.Get()
	logger := SetupLogging(cfg.LogLevel)

	res, err := ProcessDepth(cfg, logger)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d waypoints (%d RMC, %d DPT)\n",
		res.Output, res.Counts.Emitted, res.Summary.Fixes, res.Summary.Depths)
	return nil
}

// ProcessDepth reads cfg.Depth.Input twice: once to find the time and
// depth range, once to emit waypoints into the output GPX file.
func ProcessDepth(cfg *config.Config, logger *slog.Logger) (DepthResult, error) {
	var res DepthResult
	dec := gps.Decoder{VerifyChecksum: cfg.NMEA.VerifyChecksum}

	summary, err := scanLog(cfg.Depth.Input, dec)
	if err != nil {
		return res, err
	}
	res.Summary = summary
	logger.Info("log loaded",
		"file", cfg.Depth.Input,
		"lines", summary.Lines,
		"rmc", summary.Fixes,
		"dpt", summary.Depths,
		"first", summary.MinDate+summary.MinTime,
		"last", summary.MaxDate+summary.MaxTime,
		"min_depth", summary.MinDepth,
		"max_depth", summary.MaxDepth,
	)

	window, err := summary.Window(cfg.Depth.StartTime, cfg.Depth.EndTime)
	if err != nil {
		return res, err
	}
	if summary.SpansMonths() {
		logger.Warn("log spans more than one month, DDMMYY dates do not sort in calendar order",
			"first_date", summary.MinDate, "last_date", summary.MaxDate)
	}
	if window.Empty() {
		logger.Warn("time window is empty, no waypoints will be written",
			"from", window.From, "to", window.To)
	}

	levels, est, err := waterLevels(cfg, logger)
	if err != nil {
		return res, err
	}

	res.Output = cfg.Depth.Output
	if cfg.Depth.DateStamp {
		res.Output = dateStamped(cfg.Depth.Output, summary.FirstDay())
	}

	in, err := os.Open(cfg.Depth.Input)
	if err != nil {
		return res, err
	}
	defer in.Close()

	out, err := os.Create(res.Output)
	if err != nil {
		return res, err
	}
	ww, err := gpx.NewWaypointWriter(out)
	if err != nil {
		out.Close()
		return res, err
	}
	defer ww.Close()

	opts := assemble.WaypointOptions{
		Decoder:   dec,
		Window:    window,
		IntervalM: cfg.Depth.IntervalM,
		JumpM:     cfg.Depth.JumpM,
		Source:    filepath.Base(cfg.Depth.Input),
		Logger:    logger,
	}
	res.Counts, err = assemble.Waypoints(in, opts, levels, func(w assemble.Waypoint) error {
		return ww.Write(w.Latitude, w.Longitude, w.Symbol, w.ScaleMin)
	})
	if err != nil {
		return res, err
	}
	if err := ww.Close(); err != nil {
		return res, err
	}
	if est != nil {
		res.Tide = est.Report()
	}
	return res, nil
}

func scanLog(path string, dec gps.Decoder) (assemble.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return assemble.Summary{}, err
	}
	defer f.Close()
	return assemble.Scan(f, dec)
}

// waterLevels picks the tide correction source. The estimator is nil
// unless station data is used.
func waterLevels(cfg *config.Config, logger *slog.Logger) (assemble.WaterLevel, *tide.Estimator, error) {
	switch cfg.Depth.Tide.Source {
	case config.TideManual:
		level := (cfg.Depth.Tide.StartM + cfg.Depth.Tide.EndM) / 2
		logger.Info("manual tide correction", "level_m", level)
		return tide.Constant(level), nil, nil
	case config.TideNone:
		return tide.Constant(0), nil, nil
	}

	reg, err := tide.LoadRegistry(tide.LoadOptions{
		ManifestPath: cfg.Tide.StationsFile,
		DataDir:      cfg.Tide.DataDir,
		Zone:         cfg.Zone(),
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, err
	}
	est := tide.NewEstimator(reg, logger)
	return est, est, nil
}

// dateStamped inserts -YYYY-MM-DD before the extension of name.
func dateStamped(name, day string) string {
	if day == "" {
		return name
	}
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + day + ext
}
