package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/relabs-tech/nmea_depth/internal/assemble"
	"github.com/relabs-tech/nmea_depth/internal/config"
	"github.com/relabs-tech/nmea_depth/internal/gps"
	"github.com/relabs-tech/nmea_depth/internal/gpx"
)

// RunTrackGenerator converts every log in the source directory into daily
// GPX tracks, archives the processed logs and prints the resulting track
// files as JSON: {"files": [...]}.
func RunTrackGenerator() error {
	cfg := config.Get()
	logger := SetupLogging(cfg.LogLevel)

	files, err := GenerateTracks(cfg, logger)
	if err != nil {
		return err
	}

	out, err := json.Marshal(struct {
		Files []string `json:"files"`
	}{Files: files})
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// GenerateTracks processes all logs in cfg.Track.SourceDir and returns
// every .gpx file in the target directory afterwards.
func GenerateTracks(cfg *config.Config, logger *slog.Logger) ([]string, error) {
	for _, dir := range []string{cfg.Track.SourceDir, cfg.Track.TargetDir, cfg.Track.ArchiveDir} {
		if err := checkDir(dir); err != nil {
			return nil, err
		}
	}
	window, err := parseWindow(cfg.Track.From, cfg.Track.To)
	if err != nil {
		return nil, err
	}
	if window.Empty() {
		logger.Warn("time window is empty, no track points will be written",
			"from", window.From, "to", window.To)
	}

	inputs, err := filepath.Glob(filepath.Join(cfg.Track.SourceDir, "*.*"))
	if err != nil {
		return nil, err
	}
	sort.Strings(inputs)

	for _, in := range inputs {
		if fi, err := os.Stat(in); err != nil || !fi.Mode().IsRegular() {
			continue
		}
		logger.Info("processing NMEA file", "file", in)
		if err := generateTrackFile(in, cfg, window, logger); err != nil {
			return nil, err
		}
		dest := filepath.Join(cfg.Track.ArchiveDir, filepath.Base(in))
		if err := os.Rename(in, dest); err != nil {
			return nil, fmt.Errorf("archive %s: %w", in, err)
		}
	}

	return filepath.Glob(filepath.Join(cfg.Track.TargetDir, "*.gpx"))
}

func generateTrackFile(path string, cfg *config.Config, window gps.Window, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	tracks := gpx.NewDailyTracks(cfg.Track.TargetDir, logger)
	defer tracks.Close()

	opts := assemble.TrackOptions{
		Decoder:   gps.Decoder{VerifyChecksum: cfg.NMEA.VerifyChecksum},
		Window:    window,
		IntervalM: cfg.Track.IntervalM,
		JumpM:     cfg.Track.JumpM,
		Source:    filepath.Base(path),
		Logger:    logger,
	}
	_, err = assemble.Track(f, opts, func(p assemble.TrackPoint) error {
		return tracks.Write(p.Day(), p.Latitude, p.Longitude, p.Timestamp())
	})
	if err != nil {
		return err
	}
	return tracks.Close()
}

func checkDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%s is not a directory: %w", dir, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

func parseWindow(from, to string) (gps.Window, error) {
	var w gps.Window
	var err error
	if from != "" {
		if w.From, err = gps.ParseTimeKey(from); err != nil {
			return w, fmt.Errorf("window start: %w", err)
		}
	}
	if to != "" {
		if w.To, err = gps.ParseTimeKey(to); err != nil {
			return w, fmt.Errorf("window end: %w", err)
		}
	}
	return w, nil
}
