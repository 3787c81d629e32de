package assemble

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/relabs-tech/nmea_depth/internal/gps"
)

// Summary describes a log: sentence counts and the ranges of dates, times
// and raw depths it covers. Dates and times are compared as strings, like
// TimeKeys.
type Summary struct {
	Lines    int
	Fixes    int
	Depths   int
	MinDate  string // DDMMYY
	MaxDate  string
	MinTime  string // hhmmss
	MaxTime  string
	MinDepth float64
	MaxDepth float64
}

// Scan reads the whole log and summarizes it. Malformed lines are ignored.
func Scan(r io.Reader, dec gps.Decoder) (Summary, error) {
	s := Summary{MinDepth: math.Inf(1), MaxDepth: math.Inf(-1)}
	sc := gps.NewScanner(r, dec)
	for sc.Scan() {
		s.Lines++
		l := sc.Line()
		if !l.OK() {
			continue
		}
		switch l.Sentence.Kind {
		case gps.KindFix:
			s.Fixes++
			date, clock := l.Sentence.Fix.Key.Date(), l.Sentence.Fix.Key.Clock()
			s.MinDate = minString(s.MinDate, date)
			s.MaxDate = maxString(s.MaxDate, date)
			s.MinTime = minString(s.MinTime, clock)
			s.MaxTime = maxString(s.MaxTime, clock)
		case gps.KindDepth:
			s.Depths++
			s.MinDepth = math.Min(s.MinDepth, l.Sentence.Depth.Meters)
			s.MaxDepth = math.Max(s.MaxDepth, l.Sentence.Depth.Meters)
		}
	}
	if s.Depths == 0 {
		s.MinDepth, s.MaxDepth = 0, 0
	}
	return s, sc.Err()
}

// Window builds the time window from the first date plus startClock to
// the last date plus endClock. Empty clocks default to the first and last
// time seen in the log.
func (s Summary) Window(startClock, endClock string) (gps.Window, error) {
	if s.Fixes == 0 {
		return gps.Window{}, errors.New("assemble: log has no fixes")
	}
	if startClock == "" {
		startClock = s.MinTime
	}
	if endClock == "" {
		endClock = s.MaxTime
	}
	from, err := gps.NewTimeKey(s.MinDate, startClock)
	if err != nil {
		return gps.Window{}, fmt.Errorf("window start: %w", err)
	}
	to, err := gps.NewTimeKey(s.MaxDate, endClock)
	if err != nil {
		return gps.Window{}, fmt.Errorf("window end: %w", err)
	}
	return gps.Window{From: from, To: to}, nil
}

// SpansMonths reports whether the fixes cover more than one month. Dates
// compare as DDMMYY text, so such a log sorts out of calendar order.
func (s Summary) SpansMonths() bool {
	return s.Fixes > 0 && s.MinDate[2:] != s.MaxDate[2:]
}

// FirstDay returns the earliest date as YYYY-MM-DD, or "" without fixes.
func (s Summary) FirstDay() string {
	if s.MinDate == "" {
		return ""
	}
	return "20" + s.MinDate[4:6] + "-" + s.MinDate[2:4] + "-" + s.MinDate[0:2]
}

func minString(cur, v string) string {
	if cur == "" || v < cur {
		return v
	}
	return cur
}

func maxString(cur, v string) string {
	if v > cur {
		return v
	}
	return cur
}
