package tide

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Registry is the read-only catalog of tidal stations, ordered by name.
type Registry struct {
	stations []*Station
}

// NewRegistry builds a registry. A later station replaces an earlier one
// with the same name.
func NewRegistry(stations ...*Station) *Registry {
	byName := make(map[string]*Station, len(stations))
	for _, s := range stations {
		byName[s.Name] = s
	}
	r := &Registry{stations: make([]*Station, 0, len(byName))}
	for _, s := range byName {
		r.stations = append(r.stations, s)
	}
	sort.Slice(r.stations, func(i, j int) bool {
		return r.stations[i].Name < r.stations[j].Name
	})
	return r
}

// Stations returns the stations ordered by name.
func (r *Registry) Stations() []*Station { return r.stations }

// Len returns the number of stations.
func (r *Registry) Len() int { return len(r.stations) }

// Station looks a station up by name.
func (r *Registry) Station(name string) (*Station, bool) {
	for _, s := range r.stations {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// LoadOptions controls LoadRegistry.
type LoadOptions struct {
	ManifestPath string
	DataDir      string
	Zone         *time.Location // local zone of the observation files
	Logger       *slog.Logger
}

// LoadRegistry reads the station manifest and every station's observation
// files. A missing manifest is not an error: the registry is empty and all
// later water level queries are uncorrected.
func LoadRegistry(opts LoadOptions) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	zone := opts.Zone
	if zone == nil {
		zone = DefaultZone
	}

	f, err := os.Open(opts.ManifestPath)
	if err != nil {
		logger.Warn("could not load station manifest, tidal correction disabled",
			"path", opts.ManifestPath,
			"error", err,
		)
		return NewRegistry(), nil
	}
	defer f.Close()

	stations, err := ReadManifest(f, logger)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", opts.ManifestPath, err)
	}

	for _, st := range stations {
		LoadObservations(st, opts.DataDir, zone, logger)
	}
	reg := NewRegistry(stations...)
	logger.Info("tidal stations loaded", "stations", reg.Len())
	return reg, nil
}

// ReadManifest parses a tab separated manifest:
//
//	name  kind  file-glob  latitude  longitude  source-url
//
// Rows that cannot be parsed are logged and skipped.
func ReadManifest(r io.Reader, logger *slog.Logger) ([]*Station, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var out []*Station
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			logger.Warn("manifest row skipped", "line", perr.Line, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}

		st, err := parseManifestRow(row)
		if err != nil {
			line, _ := cr.FieldPos(0)
			logger.Warn("manifest row skipped", "line", line, "row", row, "error", err)
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func parseManifestRow(row []string) (*Station, error) {
	if len(row) < 6 {
		return nil, fmt.Errorf("want 6 fields, got %d", len(row))
	}
	name := strings.TrimSpace(row[0])
	if name == "" {
		return nil, errors.New("empty station name")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("position %v,%v out of range", lat, lon)
	}
	return NewStation(name, strings.TrimSpace(row[1]), strings.TrimSpace(row[2]),
		lat, lon, strings.TrimSpace(row[5])), nil
}

// LoadObservations reads every file in dataDir matching the station's
// FilePattern, in name order so later files win for duplicate buckets.
// It returns the number of files read.
func LoadObservations(st *Station, dataDir string, zone *time.Location, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}
	files, err := filepath.Glob(filepath.Join(dataDir, st.FilePattern))
	if err != nil {
		logger.Warn("bad observation file pattern", "station", st.Name, "pattern", st.FilePattern, "error", err)
		return 0
	}
	sort.Strings(files)

	n := 0
	for _, path := range files {
		count, err := loadObservationFile(st, path, zone, logger)
		if err != nil {
			logger.Warn("observation file skipped", "station", st.Name, "file", path, "error", err)
			continue
		}
		logger.Info("observation file read", "station", st.Name, "file", path, "levels", count)
		n++
	}
	if n == 0 {
		logger.Warn("no observation files, fetch station data first",
			"station", st.Name,
			"pattern", filepath.Join(dataDir, st.FilePattern),
		)
	}
	return n
}

func loadObservationFile(st *Station, path string, zone *time.Location, logger *slog.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReadObservations(f, st, zone, logger.With("file", path))
}

// ReadObservations parses a semicolon separated observation file with a
// header row into st. Columns: 0 local date D-M-YYYY, 1 local time H:M:S,
// 4 water level in centimeters. Rows with an empty level are ignored and
// unparsable rows are logged and skipped.
func ReadObservations(r io.Reader, st *Station, zone *time.Location, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		var perr *csv.ParseError
		if !errors.As(err, &perr) {
			return 0, err
		}
	}

	n := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			logger.Warn("observation row skipped", "station", st.Name, "line", perr.Line, "error", err)
			continue
		}
		if err != nil {
			return n, err
		}

		b, cm, ok, err := parseObservationRow(row, zone)
		if err != nil {
			line, _ := cr.FieldPos(0)
			logger.Warn("observation row skipped", "station", st.Name, "line", line, "row", row, "error", err)
			continue
		}
		if !ok {
			continue
		}
		st.Set(b, cm)
		n++
	}
	return n, nil
}

// parseObservationRow returns ok=false for a row without a level sample.
func parseObservationRow(row []string, zone *time.Location) (Bucket, int, bool, error) {
	if len(row) < 5 {
		return "", 0, false, fmt.Errorf("want at least 5 fields, got %d", len(row))
	}
	local, err := time.ParseInLocation("2-1-2006 15:4:5",
		strings.TrimSpace(row[0])+" "+strings.TrimSpace(row[1]), zone)
	if err != nil {
		return "", 0, false, fmt.Errorf("timestamp: %w", err)
	}
	level := strings.TrimSpace(row[4])
	if level == "" {
		return "", 0, false, nil
	}
	cm, err := strconv.Atoi(level)
	if err != nil {
		return "", 0, false, fmt.Errorf("level %q: %w", level, err)
	}
	return BucketOf(local), cm, true, nil
}
