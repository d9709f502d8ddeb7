package osm2sidewalk

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// ErrDegenerateGeometry is returned by geometric helpers when the input
// collapses to a point or to parallel/coincident lines.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

const (
	pi180    = math.Pi / 180.0
	pi180Rev = 180.0 / math.Pi

	earthRadiusKm = 6371.0
)

// planarDistance returns distance between two points assuming they are Euclidean (Lon == X, Lat == Y)
func planarDistance(p, q orb.Point) float64 {
	dx := p[0] - q[0]
	dy := p[1] - q[1]
	return math.Sqrt(dx*dx + dy*dy)
}

// greatCircleDistance returns distance between two geo-points (kilometers)
func greatCircleDistance(p, q orb.Point) float64 {
	lat1 := p[1] * pi180
	lon1 := p[0] * pi180
	lat2 := q[1] * pi180
	lon2 := q[0] * pi180
	diffLat := lat2 - lat1
	diffLon := lon2 - lon1
	a := math.Pow(math.Sin(diffLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(diffLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return c * earthRadiusKm
}

// vectorTo returns vector p -> q, optionally normalized to unit length.
// Zero-length vectors are returned as is.
func vectorTo(p, q orb.Point, normalize bool) orb.Point {
	v := orb.Point{q[0] - p[0], q[1] - p[1]}
	if normalize {
		l := math.Sqrt(v[0]*v[0] + v[1]*v[1])
		if l != 0 {
			v[0] /= l
			v[1] /= l
		}
	}
	return v
}

func dot(a, b orb.Point) float64 {
	return a[0]*b[0] + a[1]*b[1]
}

func cross(a, b orb.Point) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// angleDegrees returns bearing of vector p -> q in degrees, measured
// counter-clockwise from the positive X (east) axis, in (-180, 180].
func angleDegrees(p, q orb.Point) float64 {
	return math.Atan2(q[1]-p[1], q[0]-p[0]) * pi180Rev
}

// intersectLines returns the intersection point of two infinite lines given
// by segments (p1, p2) and (p3, p4).
// Note: Euclidean space
func intersectLines(p1, p2, p3, p4 orb.Point) (orb.Point, error) {
	// Coefficients of the two linear equations
	a1 := p2[1] - p1[1]
	b1 := p1[0] - p2[0]
	c1 := a1*p1[0] + b1*p1[1]
	a2 := p4[1] - p3[1]
	b2 := p3[0] - p4[0]
	c2 := a2*p3[0] + b2*p3[1]

	det := a1*b2 - a2*b1
	if math.Abs(det) < 1e-12 {
		return orb.Point{}, errors.Wrap(ErrDegenerateGeometry, "lines are parallel")
	}

	x := (b2*c1 - b1*c2) / det
	y := (a1*c2 - a2*c1) / det
	return orb.Point{x, y}, nil
}

// pointSegmentDistance returns distance from point p to segment (a, b).
func pointSegmentDistance(p, a, b orb.Point) float64 {
	ab := vectorTo(a, b, false)
	l2 := dot(ab, ab)
	if l2 == 0 {
		return planarDistance(p, a)
	}
	t := dot(vectorTo(a, p, false), ab) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := orb.Point{a[0] + t*ab[0], a[1] + t*ab[1]}
	return planarDistance(p, closest)
}

func segmentsIntersect(a1, a2, b1, b2 orb.Point) bool {
	d1 := cross(vectorTo(b1, b2, false), vectorTo(b1, a1, false))
	d2 := cross(vectorTo(b1, b2, false), vectorTo(b1, a2, false))
	d3 := cross(vectorTo(a1, a2, false), vectorTo(a1, b1, false))
	d4 := cross(vectorTo(a1, a2, false), vectorTo(a1, b2, false))
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	onSegment := func(p, q, r orb.Point) bool {
		return math.Min(p[0], r[0]) <= q[0] && q[0] <= math.Max(p[0], r[0]) &&
			math.Min(p[1], r[1]) <= q[1] && q[1] <= math.Max(p[1], r[1])
	}
	if d1 == 0 && onSegment(b1, a1, b2) {
		return true
	}
	if d2 == 0 && onSegment(b1, a2, b2) {
		return true
	}
	if d3 == 0 && onSegment(a1, b1, a2) {
		return true
	}
	if d4 == 0 && onSegment(a1, b2, a2) {
		return true
	}
	return false
}

// segmentsDistance returns the smallest distance between segments (a1, a2)
// and (b1, b2). Intersecting segments have zero distance.
func segmentsDistance(a1, a2, b1, b2 orb.Point) float64 {
	if segmentsIntersect(a1, a2, b1, b2) {
		return 0
	}
	d := pointSegmentDistance(a1, b1, b2)
	if v := pointSegmentDistance(a2, b1, b2); v < d {
		d = v
	}
	if v := pointSegmentDistance(b1, a1, a2); v < d {
		d = v
	}
	if v := pointSegmentDistance(b2, a1, a2); v < d {
		d = v
	}
	return d
}

// triangleArea returns the area of the triangle (a, b, c).
func triangleArea(a, b, c orb.Point) float64 {
	return math.Abs(cross(vectorTo(a, b, false), vectorTo(a, c, false))) / 2.0
}

// quadsIntersect reports whether two convex quadrilaterals overlap.
// Separating axis test over the edge normals of both quads.
func quadsIntersect(a, b [4]orb.Point) bool {
	quads := [2][4]orb.Point{a, b}
	for _, quad := range quads {
		for i := 0; i < 4; i++ {
			p1 := quad[i]
			p2 := quad[(i+1)%4]
			axis := orb.Point{p1[1] - p2[1], p2[0] - p1[0]}

			minA, maxA := projectQuad(a, axis)
			minB, maxB := projectQuad(b, axis)
			if maxA < minB || maxB < minA {
				return false
			}
		}
	}
	return true
}

func projectQuad(quad [4]orb.Point, axis orb.Point) (float64, float64) {
	min := dot(quad[0], axis)
	max := min
	for i := 1; i < 4; i++ {
		p := dot(quad[i], axis)
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	return min, max
}
