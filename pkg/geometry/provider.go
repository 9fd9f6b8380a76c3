package geometry

import (
	"github.com/nfvri/ran-propagation/pkg/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Hit describes the first obstacle surface struck by a ray
type Hit struct {
	Point    r3.Vec
	Distance float64
	Normal   r3.Vec
	Obstacle model.Obstacle
}

// Provider answers obstacle queries for the propagation models.
// Implementations must be safe for concurrent readers.
type Provider interface {
	// SegmentBlocked reports whether the segment a-b passes through an obstacle and where it first enters one
	SegmentBlocked(a, b r3.Vec) (bool, r3.Vec)
	// ObstaclesNear returns the obstacles within extent meters of center
	ObstaclesNear(center r3.Vec, extent float64) []model.Obstacle
	// Raycast returns the first obstacle hit along dir within maxDist
	Raycast(origin, dir r3.Vec, maxDist float64) (Hit, bool)
}
