package tide

import (
	"time"

	"github.com/relabs-tech/nmea_depth/internal/geo"
)

// BucketInterval is the width of an observation time bucket.
const BucketInterval = 10 * time.Minute

const bucketLayout = "2006-01-02T15:04:05"

// DefaultZone is the fixed offset of the station observation files
// (Etc/GMT-1, i.e. UTC+1 all year).
var DefaultZone = time.FixedZone("Etc/GMT-1", 60*60)

// Bucket is a UTC timestamp with seconds zeroed and minutes floored to
// BucketInterval, formatted as 2006-01-02T15:04:05. Observations and
// queries must both go through BucketOf or lookups miss.
type Bucket string

// BucketOf returns the bucket containing t.
func BucketOf(t time.Time) Bucket {
	return Bucket(t.UTC().Truncate(BucketInterval).Format(bucketLayout))
}

// Station is a tidal reference station and its water level samples.
type Station struct {
	Name        string
	Kind        string
	FilePattern string
	Latitude    float64
	Longitude   float64
	SourceURL   string

	levels map[Bucket]int // centimeters
}

// NewStation returns a station with an empty observation table.
func NewStation(name, kind, pattern string, lat, lon float64, url string) *Station {
	return &Station{
		Name:        name,
		Kind:        kind,
		FilePattern: pattern,
		Latitude:    lat,
		Longitude:   lon,
		SourceURL:   url,
		levels:      make(map[Bucket]int),
	}
}

// Point returns the station position.
func (s *Station) Point() geo.Point {
	return geo.Point{Lat: s.Latitude, Lon: s.Longitude}
}

// Set stores a sample, replacing any earlier sample for the same bucket.
func (s *Station) Set(b Bucket, cm int) {
	if s.levels == nil {
		s.levels = make(map[Bucket]int)
	}
	s.levels[b] = cm
}

// Level returns the sample for b, if any.
func (s *Station) Level(b Bucket) (int, bool) {
	v, ok := s.levels[b]
	return v, ok
}

// Samples returns the number of buckets with a sample.
func (s *Station) Samples() int { return len(s.levels) }

// DistanceNM returns the distance from p to the station in nautical miles.
func (s *Station) DistanceNM(p geo.Point) float64 {
	return geo.NauticalMiles(p, s.Point())
}
