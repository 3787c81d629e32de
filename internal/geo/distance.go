// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package geo

import "math"

// MetersPerNauticalMile converts nautical miles to meters.
const MetersPerNauticalMile = 1852.0

// Point is a position in signed decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NauticalMiles returns the equirectangular distance between p and q.
//
// The longitude difference is scaled by cos(p.Lat), so p should be the
// current (vessel) position. This is a flat-earth approximation that is
// good enough inside a single estuary; it is not valid for long distances
// or near the poles.
//
//	d = sqrt((Δlon·cos(lat))² + Δlat²) · 60
func NauticalMiles(p, q Point) float64 {
	dLon := (q.Lon - p.Lon) * math.Cos(p.Lat*math.Pi/180.0)
	dLat := q.Lat - p.Lat
	return math.Sqrt(dLon*dLon+dLat*dLat) * 60.0
}

// Meters is NauticalMiles expressed in meters.
func Meters(p, q Point) float64 {
	return NauticalMiles(p, q) * MetersPerNauticalMile
}
