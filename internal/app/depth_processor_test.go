package app

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/nmea_depth/internal/config"
)

func depthConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Depth.Input = filepath.Join(dir, "vdr.txt")
	cfg.Depth.Output = filepath.Join(dir, "dieptes.gpx")
	cfg.Tide.StationsFile = filepath.Join(dir, "tidalstations.conf")
	cfg.Tide.DataDir = filepath.Join(dir, "data")

	writeLines(t, cfg.Depth.Input,
		rmcNorth("130223060000", 0),
		dptLine(3.0),
		rmcNorth("130223060005", 20),
		dptLine(3.0),
		rmcNorth("130223060010", 40),
		dptLine(3.0),
		rmcNorth("130223060015", 60),
		dptLine(3.0),
	)
	return cfg
}

func TestProcessDepth_ManualTide(t *testing.T) {
	cfg := depthConfig(t)
	cfg.Depth.Tide = config.DepthTideConfig{Source: config.TideManual, StartM: 0.2, EndM: 0.4}

	res, err := ProcessDepth(cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, cfg.Depth.Output, res.Output)
	assert.Equal(t, 4, res.Summary.Fixes)
	assert.Equal(t, 3, res.Counts.Emitted)

	out := readString(t, res.Output)
	assert.Equal(t, 3, strings.Count(out, "<wpt "))
	assert.Equal(t, 3, strings.Count(out, "<sym>depth_2-7</sym>"))
	assert.Contains(t, out, `ScaleMin="25600"`)
	assert.Contains(t, out, `ScaleMin="800"`)
	assert.Contains(t, out, `ScaleMin="1600"`)
	assert.True(t, strings.HasSuffix(out, "</gpx>"))
}

func TestProcessDepth_StationTide(t *testing.T) {
	cfg := depthConfig(t)
	require.NoError(t, os.WriteFile(cfg.Tide.StationsFile,
		[]byte("Harlingen\trws\tharlingen*.csv\t53.175\t5.409\thttps://example.invalid/harlingen\n"), 0o644))
	// 07:00 in UTC+1 is the 06:00 UTC bucket of the fixes.
	writeLines(t, filepath.Join(cfg.Tide.DataDir, "harlingen-2023.csv"),
		"Datum;Tijd;Parameter;Locatie;Meting",
		"13-2-2023;7:00:00;WATHTE;HARL;50",
	)

	res, err := ProcessDepth(cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Tide.Corrected)
	assert.Zero(t, res.Tide.Uncorrected)
	assert.Equal(t, 3, strings.Count(readString(t, res.Output), "<sym>depth_2-5</sym>"))
}

func TestProcessDepth_MissingManifestIsUncorrected(t *testing.T) {
	cfg := depthConfig(t)
	cfg.Depth.DateStamp = true

	res, err := ProcessDepth(cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(cfg.Depth.Output), "dieptes-2023-02-13.gpx"), res.Output)
	assert.Equal(t, 3, res.Tide.Uncorrected)
	assert.Equal(t, 3, strings.Count(readString(t, res.Output), "<sym>depth_3-0</sym>"))
}

func TestProcessDepth_TimeWindow(t *testing.T) {
	cfg := depthConfig(t)
	cfg.Depth.Tide.Source = config.TideNone
	cfg.Depth.StartTime = "060004"

	res, err := ProcessDepth(cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Counts.Emitted, "fix at 06:00:05 anchors")
}

func TestProcessDepth_WarnsOnEmptyWindow(t *testing.T) {
	cfg := depthConfig(t)
	cfg.Depth.Tide.Source = config.TideNone
	cfg.Depth.StartTime = "070000"
	cfg.Depth.EndTime = "060000"

	var logs bytes.Buffer
	res, err := ProcessDepth(cfg, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)
	assert.Zero(t, res.Counts.Emitted)
	assert.Contains(t, logs.String(), "time window is empty")
}

func TestProcessDepth_WarnsWhenLogSpansMonths(t *testing.T) {
	cfg := depthConfig(t)
	cfg.Depth.Tide.Source = config.TideNone
	writeLines(t, cfg.Depth.Input,
		rmcNorth("310123235950", 0),
		dptLine(3.0),
		rmcNorth("010223000010", 40),
		dptLine(3.0),
	)

	var logs bytes.Buffer
	_, err := ProcessDepth(cfg, slog.New(slog.NewTextHandler(&logs, nil)))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "log spans more than one month")
}

func TestProcessDepth_MissingInput(t *testing.T) {
	cfg := depthConfig(t)
	cfg.Depth.Input = filepath.Join(t.TempDir(), "absent.txt")

	_, err := ProcessDepth(cfg, quietLogger())
	assert.Error(t, err)
}

func TestDateStamped(t *testing.T) {
	assert.Equal(t, "out/dieptes-2023-02-13.gpx", dateStamped("out/dieptes.gpx", "2023-02-13"))
	assert.Equal(t, "layer-2023-02-13", dateStamped("layer", "2023-02-13"))
	assert.Equal(t, "dieptes.gpx", dateStamped("dieptes.gpx", ""))
}
