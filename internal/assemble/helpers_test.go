package assemble

import (
	"fmt"
	"math"
	"strings"

	"github.com/relabs-tech/nmea_depth/internal/geo"
)

var start = geo.Point{Lat: 53.2, Lon: 5.4}

// north returns the point m meters due north of start.
func north(m float64) geo.Point {
	return geo.Point{Lat: start.Lat + m/geo.MetersPerNauticalMile/60.0, Lon: start.Lon}
}

func nmeaCoord(v float64, degDigits int) string {
	deg := math.Floor(v)
	mins := (v - deg) * 60
	return fmt.Sprintf("%0*d%07.4f", degDigits, int(deg), mins)
}

// rmc renders an RMC sentence for key (DDMMYYhhmmss) at p.
func rmc(key string, p geo.Point) string {
	return fmt.Sprintf("$GPRMC,%s.00,A,%s,N,%s,E,3.1,0.0,%s,,,A",
		key[6:], nmeaCoord(p.Lat, 2), nmeaCoord(p.Lon, 3), key[:6])
}

func dpt(m float64) string {
	return fmt.Sprintf("$SDDPT,%.1f,0.0", m)
}

func joinLines(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\r\n") + "\r\n")
}
