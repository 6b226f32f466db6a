package core

import (
	"fmt"
	"math"
)

const (
	DefaultProximityLonKm     = 71.5
	DefaultProximityLatKm     = 111.3
	DefaultProximityThreshold = 0.5
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinates) IsValid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// HasZeroCoords reports the 0/0 sentinel used for "no coordinates given".
func (c Coordinates) HasZeroCoords() bool {
	return c.Lat == 0 && c.Lon == 0
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%v,%v", c.Lat, c.Lon)
}

func coordinatesPresent(c *Coordinates) bool {
	return c != nil && !c.HasZeroCoords()
}

// Proximity is a planar small-area approximation of distance in kilometres:
// one degree of longitude is taken as LonKm and one degree of latitude as
// LatKm. It is not geodesic and degrades near the poles and across large
// longitude spans; it is only meant to answer "within a few hundred metres".
// The default threshold of 0.5 has no documented derivation.
type Proximity struct {
	LonKm     float64 `koanf:"lon_km" mapstructure:"lon_km"`
	LatKm     float64 `koanf:"lat_km" mapstructure:"lat_km"`
	Threshold float64 `koanf:"threshold" mapstructure:"threshold"`
}

func DefaultProximity() Proximity {
	return Proximity{
		LonKm:     DefaultProximityLonKm,
		LatKm:     DefaultProximityLatKm,
		Threshold: DefaultProximityThreshold,
	}
}

func (p Proximity) normalized() Proximity {
	defaults := DefaultProximity()
	if p.LonKm <= 0 {
		p.LonKm = defaults.LonKm
	}
	if p.LatKm <= 0 {
		p.LatKm = defaults.LatKm
	}
	if p.Threshold <= 0 {
		p.Threshold = defaults.Threshold
	}
	return p
}

func (p Proximity) Distance(a, b Coordinates) float64 {
	p = p.normalized()
	dLon := p.LonKm * (a.Lon - b.Lon)
	dLat := p.LatKm * (a.Lat - b.Lat)
	return math.Sqrt(dLon*dLon + dLat*dLat)
}

func (p Proximity) Nearby(a, b Coordinates) bool {
	p = p.normalized()
	return p.Distance(a, b) < p.Threshold
}

// BoundingBox returns the lat/lon window outside of which Nearby is always
// false. SQL adapters use it as an index-friendly prefilter.
func (p Proximity) BoundingBox(c Coordinates) (minLat, maxLat, minLon, maxLon float64) {
	p = p.normalized()
	dLat := p.Threshold / p.LatKm
	dLon := p.Threshold / p.LonKm
	return c.Lat - dLat, c.Lat + dLat, c.Lon - dLon, c.Lon + dLon
}
