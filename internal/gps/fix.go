package gps

import "github.com/relabs-tech/nmea_depth/internal/geo"

// Kind tells which sentence family a decoded line belongs to.
type Kind int

const (
	KindFix Kind = iota + 1
	KindDepth
)

func (k Kind) String() string {
	switch k {
	case KindFix:
		return "fix"
	case KindDepth:
		return "depth"
	default:
		return "unknown"
	}
}

// Fix is a timestamped position decoded from an RMC sentence.
type Fix struct {
	Key       TimeKey `json:"key"` // DDMMYYhhmmss
	Latitude  float64 `json:"lat"` // decimal degrees
	Longitude float64 `json:"lon"` // decimal degrees
}

// Point returns the fix position.
func (f Fix) Point() geo.Point {
	return geo.Point{Lat: f.Latitude, Lon: f.Longitude}
}

// Depth is a raw sounding decoded from a DPT sentence. It carries no
// position; it belongs to the most recent Fix of the same stream.
type Depth struct {
	Meters float64 `json:"meters"`
}

// Sentence is the decoded form of one log line. Exactly one of Fix and
// Depth is meaningful, selected by Kind.
type Sentence struct {
	Kind  Kind  `json:"kind"`
	Fix   Fix   `json:"fix"`
	Depth Depth `json:"depth"`
}
