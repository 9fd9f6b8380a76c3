package geometry

import (
	"math"

	"github.com/nfvri/ran-propagation/pkg/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Surface is a planar rectangular face of an obstacle
type Surface struct {
	Center r3.Vec
	// Normal is the outward unit normal
	Normal r3.Vec
	// U and V are orthonormal in-plane axes with half extents HalfU and HalfV
	U, V         r3.Vec
	HalfU, HalfV float64
	Obstacle     model.Obstacle
}

// SignedDistance returns the distance of p from the surface plane, positive in front
func (s Surface) SignedDistance(p r3.Vec) float64 {
	return r3.Dot(r3.Sub(p, s.Center), s.Normal)
}

// Mirror reflects p across the surface plane
func (s Surface) Mirror(p r3.Vec) r3.Vec {
	return r3.Sub(p, r3.Scale(2*s.SignedDistance(p), s.Normal))
}

// Contains reports whether p lies on the surface rectangle within margin
func (s Surface) Contains(p r3.Vec, margin float64) bool {
	d := r3.Sub(p, s.Center)
	return math.Abs(r3.Dot(d, s.U)) <= s.HalfU+margin &&
		math.Abs(r3.Dot(d, s.V)) <= s.HalfV+margin &&
		math.Abs(r3.Dot(d, s.Normal)) <= margin+1e-6
}

// Clamp projects p onto the surface plane and clamps it into the rectangle
func (s Surface) Clamp(p r3.Vec) r3.Vec {
	d := r3.Sub(p, s.Center)
	u := math.Max(-s.HalfU, math.Min(s.HalfU, r3.Dot(d, s.U)))
	v := math.Max(-s.HalfV, math.Min(s.HalfV, r3.Dot(d, s.V)))
	return r3.Add(s.Center, r3.Add(r3.Scale(u, s.U), r3.Scale(v, s.V)))
}

// PlaneIntersection returns the point where segment a-b crosses the surface plane
func (s Surface) PlaneIntersection(a, b r3.Vec) (r3.Vec, bool) {
	da := s.SignedDistance(a)
	db := s.SignedDistance(b)
	if math.Abs(da-db) < parallelEps {
		return r3.Vec{}, false
	}
	t := da / (da - db)
	if t <= 0 || t >= 1 {
		return r3.Vec{}, false
	}
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a))), true
}

// Walls returns the four vertical faces of the obstacle
func Walls(o model.Obstacle) []Surface {
	lo, hi := o.Bounds.Min, o.Bounds.Max
	c := o.Center()
	halfX := (hi.X - lo.X) / 2
	halfY := (hi.Y - lo.Y) / 2
	halfZ := (hi.Z - lo.Z) / 2
	up := r3.Vec{Z: 1}
	return []Surface{
		{Center: r3.Vec{X: hi.X, Y: c.Y, Z: c.Z}, Normal: r3.Vec{X: 1}, U: r3.Vec{Y: 1}, V: up, HalfU: halfY, HalfV: halfZ, Obstacle: o},
		{Center: r3.Vec{X: lo.X, Y: c.Y, Z: c.Z}, Normal: r3.Vec{X: -1}, U: r3.Vec{Y: 1}, V: up, HalfU: halfY, HalfV: halfZ, Obstacle: o},
		{Center: r3.Vec{X: c.X, Y: hi.Y, Z: c.Z}, Normal: r3.Vec{Y: 1}, U: r3.Vec{X: 1}, V: up, HalfU: halfX, HalfV: halfZ, Obstacle: o},
		{Center: r3.Vec{X: c.X, Y: lo.Y, Z: c.Z}, Normal: r3.Vec{Y: -1}, U: r3.Vec{X: 1}, V: up, HalfU: halfX, HalfV: halfZ, Obstacle: o},
	}
}

// Roof returns the top face of the obstacle
func Roof(o model.Obstacle) Surface {
	lo, hi := o.Bounds.Min, o.Bounds.Max
	c := o.Center()
	return Surface{
		Center:   r3.Vec{X: c.X, Y: c.Y, Z: hi.Z},
		Normal:   r3.Vec{Z: 1},
		U:        r3.Vec{X: 1},
		V:        r3.Vec{Y: 1},
		HalfU:    (hi.X - lo.X) / 2,
		HalfV:    (hi.Y - lo.Y) / 2,
		Obstacle: o,
	}
}

// EdgeKind distinguishes diffracting edges
type EdgeKind int

const (
	RooftopEdge EdgeKind = iota
	VerticalEdge
)

// BoxExteriorAngle is the exterior wedge angle of a right-angle box edge
const BoxExteriorAngle = 3 * math.Pi / 2

// Edge is a straight diffracting wedge edge of an obstacle
type Edge struct {
	A, B r3.Vec
	Kind EdgeKind
	// Outward is the unit bisector of the two faces, pointing away from the obstacle
	Outward       r3.Vec
	ExteriorAngle float64
	Obstacle      model.Obstacle
}

// RooftopEdges returns the four horizontal edges of the roof
func RooftopEdges(o model.Obstacle) []Edge {
	lo, hi := o.Bounds.Min, o.Bounds.Max
	z := hi.Z
	s := 1 / math.Sqrt2
	edge := func(a, b, out r3.Vec) Edge {
		return Edge{A: a, B: b, Kind: RooftopEdge, Outward: out, ExteriorAngle: BoxExteriorAngle, Obstacle: o}
	}
	return []Edge{
		edge(r3.Vec{X: hi.X, Y: lo.Y, Z: z}, r3.Vec{X: hi.X, Y: hi.Y, Z: z}, r3.Vec{X: s, Z: s}),
		edge(r3.Vec{X: lo.X, Y: lo.Y, Z: z}, r3.Vec{X: lo.X, Y: hi.Y, Z: z}, r3.Vec{X: -s, Z: s}),
		edge(r3.Vec{X: lo.X, Y: hi.Y, Z: z}, r3.Vec{X: hi.X, Y: hi.Y, Z: z}, r3.Vec{Y: s, Z: s}),
		edge(r3.Vec{X: lo.X, Y: lo.Y, Z: z}, r3.Vec{X: hi.X, Y: lo.Y, Z: z}, r3.Vec{Y: -s, Z: s}),
	}
}

// CornerEdges returns the four vertical corner edges
func CornerEdges(o model.Obstacle) []Edge {
	lo, hi := o.Bounds.Min, o.Bounds.Max
	s := 1 / math.Sqrt2
	var edges []Edge
	for _, x := range []float64{lo.X, hi.X} {
		for _, y := range []float64{lo.Y, hi.Y} {
			out := r3.Vec{X: s, Y: s}
			if x == lo.X {
				out.X = -s
			}
			if y == lo.Y {
				out.Y = -s
			}
			edges = append(edges, Edge{
				A:             r3.Vec{X: x, Y: y, Z: lo.Z},
				B:             r3.Vec{X: x, Y: y, Z: hi.Z},
				Kind:          VerticalEdge,
				Outward:       out,
				ExteriorAngle: BoxExteriorAngle,
				Obstacle:      o,
			})
		}
	}
	return edges
}

// Edges returns all rooftop and vertical edges of the obstacle
func Edges(o model.Obstacle) []Edge {
	return append(RooftopEdges(o), CornerEdges(o)...)
}
