package app

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogging installs a text slog handler on stderr at the given level
// (debug, info, warn, error) as the process default.
func SetupLogging(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
