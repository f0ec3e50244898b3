package geo

import "math"

const earthRadiusM = 6371000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlanarPoint is a point projected to local planar meters.
type PlanarPoint struct {
	X float64
	Y float64
}

// DistanceM returns the great-circle distance between two points in meters,
// using the haversine formula on a spherical earth.
func DistanceM(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	// floating rounding can push h a hair outside [0,1] for antipodal or
	// identical inputs, which would make Sqrt/Asin return NaN
	if h < 0 {
		h = 0
	}
	if h > 1 {
		h = 1
	}

	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// ProjectEquirectangular converts a small-extent ring of coordinates to local
// planar meters, anchored at the first point's latitude. Only valid for
// polygons spanning a few kilometers; callers must not use it for global
// distances.
func ProjectEquirectangular(points []Point) []PlanarPoint {
	if len(points) == 0 {
		return nil
	}
	cosLat0 := math.Cos(points[0].Lat * math.Pi / 180)
	projected := make([]PlanarPoint, len(points))
	for i, p := range points {
		projected[i] = PlanarPoint{
			X: p.Lng * 111320 * cosLat0,
			Y: p.Lat * 110540,
		}
	}
	return projected
}

// PolygonAreaM2 returns the enclosed area in square meters via the shoelace
// formula over the equirectangular projection. Returns 0 for fewer than 3
// points.
func PolygonAreaM2(points []Point) float64 {
	if len(points) < 3 {
		return 0
	}
	pts := ProjectEquirectangular(points)
	sum := 0.0
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// PolygonPerimeterM returns the perimeter of the closed ring in meters,
// including the closing edge from the last vertex back to the first.
func PolygonPerimeterM(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}
	total := 0.0
	n := len(points)
	for i := 0; i < n; i++ {
		total += DistanceM(points[i], points[(i+1)%n])
	}
	return total
}
