package raytrace

import (
	"math"

	"github.com/nfvri/ran-propagation/pkg/geometry"
	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/nfvri/ran-propagation/pkg/signal"
	"github.com/nfvri/ran-propagation/pkg/utils"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

const planParallelEps = 1e-9

// traceDiffractions finds single-edge paths around obstacles that cross the direct line
func (m *Model) traceDiffractions(pc *model.PropagationContext, obstacles []model.Obstacle) []model.PathContribution {
	tx, rx := pc.Transmitter, pc.Receiver
	wavelength := signal.Wavelength(pc.FrequencyMHz)
	var paths []model.PathContribution

	for _, o := range obstacles {
		if crosses, _ := geometry.SegmentCrossesBox(tx, rx, o.Bounds); !crosses {
			continue
		}
		for _, edge := range geometry.Edges(o) {
			if len(paths) >= pc.MaxDiffractions {
				return paths
			}
			onEdge, clearance, ok := edgeClearance(tx, rx, edge)
			if !ok || clearance <= 0 {
				continue
			}

			apex := r3.Add(onEdge, r3.Scale(m.config.SurfaceOffset, edge.Outward))
			if m.blocked(tx, apex) || m.blocked(apex, rx) {
				continue
			}
			d1 := r3.Norm(r3.Sub(apex, tx))
			d2 := r3.Norm(r3.Sub(rx, apex))
			if d1 < minSegment || d2 < minSegment {
				continue
			}

			var extra float64
			if m.config.UseUTD {
				phiI, phiD := wedgeAngles(edge, onEdge, tx, rx)
				coefficient := signal.UTDDiffractionCoefficient(edge.ExteriorAngle, phiI, phiD, wavelength, false)
				extra = signal.UTDExtraLoss(coefficient, d1, d2)
			} else {
				v := signal.FresnelKirchhoffParameter(clearance, d1, d2, wavelength)
				extra = signal.KnifeEdgeLoss(v)
			}
			if math.IsInf(extra, 1) || math.IsNaN(extra) {
				continue
			}

			loss := signal.FreeSpacePathLoss(d1+d2, pc.FrequencyMHz) + extra
			paths = append(paths, model.PathContribution{
				Kind:       model.Diffraction,
				LossDB:     loss,
				LengthM:    d1 + d2,
				ExtraPhase: -math.Pi / 4,
			})
			m.sink.DrawPath(tx, onEdge, utils.ColorDiffraction, model.Diffraction.String())
			m.sink.DrawPath(onEdge, rx, utils.ColorDiffraction, model.Diffraction.String())
			log.Debugf("diffraction on %s edge at %v: %.2f dB (extra %.2f dB)", o.ID, onEdge, loss, extra)
		}
	}
	return paths
}

// edgeClearance returns the diffraction point on the edge and how far the edge stands out of the
// direct line. Rooftop edges use the point above the line in plan view and a vertical clearance.
// Vertical edges use the closest point to the line and a horizontal clearance.
func edgeClearance(tx, rx r3.Vec, edge geometry.Edge) (r3.Vec, float64, bool) {
	switch edge.Kind {
	case geometry.RooftopEdge:
		s, u, ok := planCrossing(tx, rx, edge.A, edge.B)
		if !ok || s <= 0 || s >= 1 {
			return r3.Vec{}, 0, false
		}
		onLine := r3.Add(tx, r3.Scale(s, r3.Sub(rx, tx)))
		onEdge := r3.Add(edge.A, r3.Scale(u, r3.Sub(edge.B, edge.A)))
		return onEdge, onEdge.Z - onLine.Z, true
	case geometry.VerticalEdge:
		s, _, onLine, onEdge := geometry.ClosestPoints(tx, rx, edge.A, edge.B)
		if s <= 0 || s >= 1 {
			return r3.Vec{}, 0, false
		}
		return onEdge, math.Hypot(onEdge.X-onLine.X, onEdge.Y-onLine.Y), true
	}
	return r3.Vec{}, 0, false
}

// planCrossing intersects the XY projections of segments p-q and a-b, returning the
// parameters along each
func planCrossing(p, q, a, b r3.Vec) (s, u float64, ok bool) {
	rX, rY := q.X-p.X, q.Y-p.Y
	eX, eY := b.X-a.X, b.Y-a.Y
	denom := rX*eY - rY*eX
	if math.Abs(denom) < planParallelEps {
		return 0, 0, false
	}
	wX, wY := a.X-p.X, a.Y-p.Y
	s = (wX*eY - wY*eX) / denom
	u = (wX*rY - wY*rX) / denom
	if u < 0 || u > 1 {
		return 0, 0, false
	}
	return s, u, true
}

// wedgeAngles returns the incidence and diffraction angles around the edge, measured in the
// plane normal to the edge from the face lit by the transmitter
func wedgeAngles(edge geometry.Edge, onEdge, tx, rx r3.Vec) (phiI, phiD float64) {
	n1, n2 := faceNormals(edge.Outward)
	axis := r3.Unit(r3.Sub(edge.B, edge.A))
	project := func(p r3.Vec) r3.Vec {
		d := r3.Sub(p, onEdge)
		return r3.Sub(d, r3.Scale(r3.Dot(d, axis), axis))
	}
	toTx, toRx := project(tx), project(rx)

	lit, other := n1, n2
	if r3.Dot(toTx, n2) > r3.Dot(toTx, n1) {
		lit, other = n2, n1
	}
	// the lit face runs from the edge along -other
	tangent := r3.Scale(-1, other)
	angle := func(v r3.Vec) float64 {
		a := math.Atan2(r3.Dot(v, lit), r3.Dot(v, tangent))
		if a < 0 {
			a += 2 * math.Pi
		}
		// points behind a face of the wedge see it at grazing
		return math.Min(a, edge.ExteriorAngle)
	}
	return angle(toTx), angle(toRx)
}

// faceNormals splits an axis-aligned edge bisector into the normals of its two faces
func faceNormals(outward r3.Vec) (r3.Vec, r3.Vec) {
	var normals []r3.Vec
	if outward.X != 0 {
		normals = append(normals, r3.Vec{X: math.Copysign(1, outward.X)})
	}
	if outward.Y != 0 {
		normals = append(normals, r3.Vec{Y: math.Copysign(1, outward.Y)})
	}
	if outward.Z != 0 {
		normals = append(normals, r3.Vec{Z: math.Copysign(1, outward.Z)})
	}
	if len(normals) < 2 {
		return r3.Vec{Z: 1}, r3.Vec{X: 1}
	}
	return normals[0], normals[1]
}
