// Package geo holds the distance math used for check-in verification and
// route deviation detection.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius.
const EarthRadiusMeters = 6371008.8

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Within reports whether a and b are at most radius meters apart.
func Within(a, b Point, radius float64) bool {
	return Haversine(a, b) <= radius
}

// DistanceToSegment returns the distance in meters from p to the segment ab.
// Coordinates are projected onto a local equirectangular plane centred on p,
// which is accurate to well under a percent at route-corridor scale.
func DistanceToSegment(p, a, b Point) float64 {
	ax, ay := project(p, a)
	bx, by := project(p, b)

	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Haversine(p, a)
	}
	// p is the origin of the plane, so the projection parameter is -a·d/|d|².
	t := -(ax*dx + ay*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	cx, cy := ax+t*dx, ay+t*dy
	return math.Hypot(cx, cy)
}

// DistanceToRoute returns the distance in meters from p to the nearest
// segment of the polyline route. A single-point route degenerates to the
// haversine distance. ok is false for an empty route.
func DistanceToRoute(p Point, route []Point) (dist float64, ok bool) {
	switch len(route) {
	case 0:
		return 0, false
	case 1:
		return Haversine(p, route[0]), true
	}
	dist = math.Inf(1)
	for i := 1; i < len(route); i++ {
		dist = math.Min(dist, DistanceToSegment(p, route[i-1], route[i]))
	}
	return dist, true
}

func project(origin, q Point) (x, y float64) {
	x = radians(wrapLng(q.Lng-origin.Lng)) * math.Cos(radians(origin.Lat)) * EarthRadiusMeters
	y = radians(q.Lat-origin.Lat) * EarthRadiusMeters
	return x, y
}

// wrapLng maps a longitude difference into [-180, 180).
func wrapLng(d float64) float64 {
	d = math.Mod(d+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
