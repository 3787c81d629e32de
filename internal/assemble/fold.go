package assemble

import (
	"errors"
	"io"
	"log/slog"

	"github.com/relabs-tech/nmea_depth/internal/gps"
)

// ErrNoFix marks a depth sentence seen before any position fix.
var ErrNoFix = errors.New("assemble: depth before any fix")

// Counts is the per-pass accounting.
type Counts struct {
	Lines   int // lines read
	Fixes   int // fix sentences inside the time window
	Depths  int // depth sentences attached to an in-window fix
	Orphans int // depth sentences before the first fix
	Skipped int // malformed fix/depth lines
	Emitted int // points written
}

// fold decodes every line of r and hands decoded sentences to step.
// Malformed lines are logged and skipped; only a read error or an error
// from step ends the pass early.
func fold(r io.Reader, dec gps.Decoder, logger *slog.Logger, source string, counts *Counts, step func(gps.Sentence) error) error {
	sc := gps.NewScanner(r, dec)
	for sc.Scan() {
		l := sc.Line()
		counts.Lines++
		switch {
		case errors.Is(l.Err, gps.ErrNotMatched):
			continue
		case l.Err != nil:
			counts.Skipped++
			logger.Warn("line skipped", "source", source, "line", l.Num, "text", l.Text, "error", l.Err)
			continue
		}
		if err := step(l.Sentence); err != nil {
			return err
		}
	}
	return sc.Err()
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
