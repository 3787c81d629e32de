package app

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/stretchr/testify/require"
)

const baseLat, baseLon = 53.2, 5.4

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func nmeaCoord(v float64, degDigits int) string {
	deg := math.Floor(v)
	return fmt.Sprintf("%0*d%07.4f", degDigits, int(deg), (v-deg)*60)
}

func withChecksum(body string) string {
	return "$" + body + "*" + nmea.Checksum(body)
}

// rmcNorth renders a checksummed RMC sentence for key (DDMMYYhhmmss), m
// meters due north of the base point.
func rmcNorth(key string, m float64) string {
	lat := baseLat + m/1852.0/60.0
	return withChecksum(fmt.Sprintf("GPRMC,%s.00,A,%s,N,%s,E,3.1,0.0,%s,,,A",
		key[6:], nmeaCoord(lat, 2), nmeaCoord(baseLon, 3), key[:6]))
}

func dptLine(m float64) string {
	return withChecksum(fmt.Sprintf("SDDPT,%.1f,0.0", m))
}

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\r\n")+"\r\n"), 0o644))
}

func readString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
