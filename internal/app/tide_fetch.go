package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/relabs-tech/nmea_depth/internal/config"
	"github.com/relabs-tech/nmea_depth/internal/tide"
)

// RunTideFetch downloads today's observation file for every station in the
// manifest into the tide data directory.
func RunTideFetch(ctx context.Context) error {
	cfg := config.Get()
	logger := SetupLogging(cfg.LogLevel)

	saved, err := FetchTides(ctx, cfg, http.DefaultClient, logger)
	if err != nil {
		return err
	}
	for _, p := range saved {
		fmt.Println(p)
	}
	return nil
}

// FetchTides reads the station manifest and downloads every station that
// has a source URL. Per station failures are logged, not returned.
func FetchTides(ctx context.Context, cfg *config.Config, client *http.Client, logger *slog.Logger) ([]string, error) {
	f, err := os.Open(cfg.Tide.StationsFile)
	if err != nil {
		return nil, fmt.Errorf("open station manifest: %w", err)
	}
	defer f.Close()

	stations, err := tide.ReadManifest(f, logger)
	if err != nil {
		return nil, err
	}
	if len(stations) == 0 {
		return nil, errors.New("station manifest lists no stations")
	}
	if err := os.MkdirAll(cfg.Tide.DataDir, 0o755); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Tide.FetchTimeout)
	defer cancel()

	fetcher := &tide.Fetcher{
		Client:  client,
		DataDir: cfg.Tide.DataDir,
		Logger:  logger,
	}
	return fetcher.Fetch(ctx, stations), nil
}
