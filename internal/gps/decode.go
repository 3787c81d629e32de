package gps

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

var (
	// ErrNotMatched marks a line that is not an RMC or DPT sentence.
	// Such lines are skipped without logging.
	ErrNotMatched = errors.New("gps: not a fix or depth sentence")

	// ErrChecksum marks a sentence whose *hh suffix does not match.
	ErrChecksum = errors.New("gps: checksum mismatch")
)

// sentencePattern matches any talker ID followed by a consumed sentence code.
var sentencePattern = regexp.MustCompile(`^\$[A-Z]{2}(` + nmea.TypeRMC + `|` + nmea.TypeDPT + `)$`)

// Decoder turns single log lines into Sentences.
type Decoder struct {
	// VerifyChecksum rejects sentences whose trailing *hh checksum is wrong.
	// Lines without a checksum are always accepted.
	VerifyChecksum bool
}

// Decode parses one line. It returns ErrNotMatched for lines of any other
// sentence family and a descriptive error for malformed RMC/DPT lines.
func (d Decoder) Decode(line string) (Sentence, error) {
	line = strings.TrimSpace(line)

	body := line
	if star := strings.LastIndexByte(line, '*'); star != -1 {
		body = line[:star]
		if d.VerifyChecksum && strings.HasPrefix(body, "$") {
			want := strings.ToUpper(strings.TrimSpace(line[star+1:]))
			if got := nmea.Checksum(body[1:]); want != got {
				if !sentencePattern.MatchString(firstField(body)) {
					return Sentence{}, ErrNotMatched
				}
				return Sentence{}, fmt.Errorf("%w: got %s, want %s", ErrChecksum, got, want)
			}
		}
	}

	fields := strings.Split(body, ",")
	m := sentencePattern.FindStringSubmatch(fields[0])
	if m == nil {
		return Sentence{}, ErrNotMatched
	}

	switch m[1] {
	case nmea.TypeRMC:
		fix, err := decodeRMC(fields)
		if err != nil {
			return Sentence{}, fmt.Errorf("rmc: %w", err)
		}
		return Sentence{Kind: KindFix, Fix: fix}, nil
	default:
		depth, err := decodeDPT(fields)
		if err != nil {
			return Sentence{}, fmt.Errorf("dpt: %w", err)
		}
		return Sentence{Kind: KindDepth, Depth: depth}, nil
	}
}

// RMC fields used here (0-indexed):
//
//	1: time (hhmmss.sss)
//	3: latitude (ddmm.mmmm)
//	4: N/S
//	5: longitude (dddmm.mmmm)
//	6: E/W
//	9: date (ddmmyy)
func decodeRMC(f []string) (Fix, error) {
	if len(f) < 10 {
		return Fix{}, fmt.Errorf("want at least 10 fields, got %d", len(f))
	}
	clock := strings.TrimSpace(f[1])
	if len(clock) < 6 {
		return Fix{}, fmt.Errorf("short time field %q", clock)
	}
	key, err := NewTimeKey(strings.TrimSpace(f[9]), clock[:6])
	if err != nil {
		return Fix{}, err
	}

	lat, err := ConvertLatLon(f[3])
	if err != nil {
		return Fix{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := ConvertLatLon(f[5])
	if err != nil {
		return Fix{}, fmt.Errorf("longitude: %w", err)
	}
	if strings.EqualFold(strings.TrimSpace(f[4]), "S") {
		lat = -lat
	}
	if strings.EqualFold(strings.TrimSpace(f[6]), "W") {
		lon = -lon
	}

	return Fix{Key: key, Latitude: lat, Longitude: lon}, nil
}

// DPT field 1 is the depth below the transducer in meters.
func decodeDPT(f []string) (Depth, error) {
	if len(f) < 2 {
		return Depth{}, fmt.Errorf("want at least 2 fields, got %d", len(f))
	}
	v, err := parseDecimal(strings.TrimSpace(f[1]), true)
	if err != nil {
		return Depth{}, fmt.Errorf("depth: %w", err)
	}
	return Depth{Meters: v}, nil
}

// ConvertLatLon converts an NMEA coordinate field to decimal degrees.
//
// The field is read as three degree digits followed by minutes. A field
// with its decimal point at index 4 (ddmm.mmmm) has only two degree
// digits, so it is padded with a leading zero first:
//
//	"5312.300"  → 053 + 12.300/60 = 53.205
//	"00512.300" → 005 + 12.300/60 = 5.205
func ConvertLatLon(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if len(s) < 5 {
		return 0, fmt.Errorf("coordinate %q too short", s)
	}
	if s[4] == '.' {
		s = "0" + s
	}
	if !allDigits(s[:3]) {
		return 0, fmt.Errorf("coordinate %q: degrees not numeric", s)
	}
	deg, err := strconv.ParseFloat(s[:3], 64)
	if err != nil {
		return 0, fmt.Errorf("coordinate %q: degrees: %w", s, err)
	}
	mins, err := parseDecimal(s[3:], false)
	if err != nil {
		return 0, fmt.Errorf("coordinate %q: minutes: %w", s, err)
	}
	return deg + mins/60.0, nil
}

// parseDecimal accepts only plain decimal notation: digits with at most
// one '.', and a leading sign when signed is set. strconv.ParseFloat on
// its own would also take NaN, Inf, exponents and hex floats.
func parseDecimal(s string, signed bool) (float64, error) {
	body := s
	if signed && body != "" && (body[0] == '-' || body[0] == '+') {
		body = body[1:]
	}
	digits, dots := 0, 0
	for i := 0; i < len(body); i++ {
		switch c := body[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return 0, fmt.Errorf("%q is not a decimal number", s)
		}
	}
	if digits == 0 || dots > 1 {
		return 0, fmt.Errorf("%q is not a decimal number", s)
	}
	return strconv.ParseFloat(s, 64)
}

func firstField(s string) string {
	if i := strings.IndexByte(s, ','); i != -1 {
		return s[:i]
	}
	return s
}
