package gps

import (
	"fmt"
	"strings"
	"time"

	nmea "github.com/adrianmo/go-nmea"
)

// TimeKey is a fix timestamp in the fixed-width form DDMMYYhhmmss.
//
// Keys are compared as strings. That only works because every field is
// two zero-padded digits, so a TimeKey must be built with NewTimeKey or
// ParseTimeKey, never by hand.
type TimeKey string

const timeKeyLen = 12

// NewTimeKey joins an NMEA date (DDMMYY) and clock (hhmmss) into a key.
func NewTimeKey(date, clock string) (TimeKey, error) {
	if len(date) != 6 || !allDigits(date) {
		return "", fmt.Errorf("date %q: want 6 digits DDMMYY", date)
	}
	if len(clock) != 6 || !allDigits(clock) {
		return "", fmt.Errorf("time %q: want 6 digits hhmmss", clock)
	}

	d, err := nmea.ParseDate(date)
	if err != nil {
		return "", fmt.Errorf("date %q: %w", date, err)
	}
	if d.DD < 1 || d.DD > 31 || d.MM < 1 || d.MM > 12 {
		return "", fmt.Errorf("date %q: day or month out of range", date)
	}
	if time.Date(2000+d.YY, time.Month(d.MM), d.DD, 0, 0, 0, 0, time.UTC).Day() != d.DD {
		return "", fmt.Errorf("date %q: no day %d in month %d", date, d.DD, d.MM)
	}
	t, err := nmea.ParseTime(clock)
	if err != nil {
		return "", fmt.Errorf("time %q: %w", clock, err)
	}
	if t.Hour > 23 || t.Minute > 59 || t.Second > 60 {
		return "", fmt.Errorf("time %q: out of range", clock)
	}

	return TimeKey(date + clock), nil
}

// ParseTimeKey validates a 12 digit DDMMYYhhmmss string.
func ParseTimeKey(s string) (TimeKey, error) {
	s = strings.TrimSpace(s)
	if len(s) != timeKeyLen {
		return "", fmt.Errorf("time key %q: want %d digits DDMMYYhhmmss", s, timeKeyLen)
	}
	return NewTimeKey(s[:6], s[6:])
}

// Date returns the DDMMYY part.
func (k TimeKey) Date() string { return string(k)[:6] }

// Clock returns the hhmmss part.
func (k TimeKey) Clock() string { return string(k)[6:] }

// Compare orders keys lexicographically, like strings.Compare.
func (k TimeKey) Compare(o TimeKey) int {
	return strings.Compare(string(k), string(o))
}

// Time returns the key as a UTC instant. The century is always 20xx.
func (k TimeKey) Time() time.Time {
	s := string(k)
	return time.Date(
		2000+atoi2(s[4:6]), time.Month(atoi2(s[2:4])), atoi2(s[0:2]),
		atoi2(s[6:8]), atoi2(s[8:10]), atoi2(s[10:12]), 0, time.UTC,
	)
}

// Format renders the key as YYYY-MM-DDThh:mm:ssZ, e.g. 130223060009 →
// 2023-02-13T06:00:09Z. Valid for the years 2000-2099 only.
func (k TimeKey) Format() string {
	s := string(k)
	return "20" + s[4:6] + "-" + s[2:4] + "-" + s[0:2] +
		"T" + s[6:8] + ":" + s[8:10] + ":" + s[10:12] + "Z"
}

// Day returns the calendar date as YYYY-MM-DD.
func (k TimeKey) Day() string {
	return k.Format()[:10]
}

// Window is an inclusive TimeKey range. An empty bound is open.
type Window struct {
	From TimeKey
	To   TimeKey
}

// Contains reports whether k lies inside the window.
func (w Window) Contains(k TimeKey) bool {
	if w.From != "" && k.Compare(w.From) < 0 {
		return false
	}
	if w.To != "" && k.Compare(w.To) > 0 {
		return false
	}
	return true
}

// Empty reports whether both bounds are set and From sorts after To, so
// that no key can be contained.
func (w Window) Empty() bool {
	return w.From != "" && w.To != "" && w.From.Compare(w.To) > 0
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// atoi2 converts two ASCII digits already checked by NewTimeKey.
func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}
