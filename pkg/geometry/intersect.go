package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	parallelEps = 1e-12
	// overlapEps is the shortest in-box run that counts as an obstruction
	overlapEps = 1e-6
)

func components(v r3.Vec) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func axis(i int, sign float64) r3.Vec {
	switch i {
	case 0:
		return r3.Vec{X: sign}
	case 1:
		return r3.Vec{Y: sign}
	}
	return r3.Vec{Z: sign}
}

// IntersectBox clips the ray origin + t*dir, t in [0, maxDist], against box using the slab method.
// It returns the entry and exit parameters and the outward normal of the entry face.
// The normal is zero when the ray starts inside the box.
func IntersectBox(origin, dir r3.Vec, box r3.Box, maxDist float64) (tEnter, tExit float64, normal r3.Vec, ok bool) {
	o := components(origin)
	d := components(dir)
	lo := components(box.Min)
	hi := components(box.Max)

	tEnter, tExit = 0, maxDist
	enterAxis, enterSign := -1, 0.0
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < parallelEps {
			if o[i] < lo[i] || o[i] > hi[i] {
				return 0, 0, r3.Vec{}, false
			}
			continue
		}
		inv := 1 / d[i]
		t1 := (lo[i] - o[i]) * inv
		t2 := (hi[i] - o[i]) * inv
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tEnter {
			tEnter = t1
			enterAxis, enterSign = i, sign
		}
		if t2 < tExit {
			tExit = t2
		}
		if tEnter > tExit {
			return 0, 0, r3.Vec{}, false
		}
	}
	if enterAxis >= 0 {
		normal = axis(enterAxis, enterSign)
	}
	return tEnter, tExit, normal, true
}

// SegmentCrossesBox reports whether the segment a-b runs through the interior of box
// and returns the entry point.
func SegmentCrossesBox(a, b r3.Vec, box r3.Box) (bool, r3.Vec) {
	delta := r3.Sub(b, a)
	length := r3.Norm(delta)
	if length < parallelEps {
		return false, r3.Vec{}
	}
	dir := r3.Scale(1/length, delta)
	tEnter, tExit, _, ok := IntersectBox(a, dir, box, length)
	if !ok || tExit-tEnter <= overlapEps {
		return false, r3.Vec{}
	}
	// runs lying on a face or along an edge only touch the box
	if !strictlyInside(r3.Add(a, r3.Scale((tEnter+tExit)/2, dir)), box) {
		return false, r3.Vec{}
	}
	return true, r3.Add(a, r3.Scale(tEnter, dir))
}

func strictlyInside(p r3.Vec, box r3.Box) bool {
	const eps = 1e-9
	return p.X > box.Min.X+eps && p.X < box.Max.X-eps &&
		p.Y > box.Min.Y+eps && p.Y < box.Max.Y-eps &&
		p.Z > box.Min.Z+eps && p.Z < box.Max.Z-eps
}

// ClosestPoints returns the closest points between segments p1-q1 and p2-q2
// and their parameters along each segment.
func ClosestPoints(p1, q1, p2, q2 r3.Vec) (s, t float64, c1, c2 r3.Vec) {
	d1 := r3.Sub(q1, p1)
	d2 := r3.Sub(q2, p2)
	r := r3.Sub(p1, p2)
	a := r3.Dot(d1, d1)
	e := r3.Dot(d2, d2)
	f := r3.Dot(d2, r)

	switch {
	case a <= parallelEps && e <= parallelEps:
		return 0, 0, p1, p2
	case a <= parallelEps:
		s = 0
		t = clamp01(f / e)
	default:
		c := r3.Dot(d1, r)
		if e <= parallelEps {
			t = 0
			s = clamp01(-c / a)
		} else {
			b := r3.Dot(d1, d2)
			denom := a*e - b*b
			if denom > parallelEps {
				s = clamp01((b*f - c*e) / denom)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = clamp01((b - c) / a)
			}
		}
	}
	c1 = r3.Add(p1, r3.Scale(s, d1))
	c2 = r3.Add(p2, r3.Scale(t, d2))
	return s, t, c1, c2
}

// PointToBoxDistance returns the Euclidean distance from p to box, zero inside
func PointToBoxDistance(p r3.Vec, box r3.Box) float64 {
	dx := math.Max(0, math.Max(box.Min.X-p.X, p.X-box.Max.X))
	dy := math.Max(0, math.Max(box.Min.Y-p.Y, p.Y-box.Max.Y))
	dz := math.Max(0, math.Max(box.Min.Z-p.Z, p.Z-box.Max.Z))
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
