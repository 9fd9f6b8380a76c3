package geometry

import (
	"math"
	"sort"

	"github.com/nfvri/ran-propagation/pkg/model"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultCellSize is the side of a grid cell in meters
const DefaultCellSize = 50.0

type cellKey struct {
	i, j int
}

// Scene is an in-memory obstacle index bucketing obstacle footprints on a uniform XY grid.
// A Scene is immutable after construction and safe for concurrent use.
type Scene struct {
	cellSize  float64
	obstacles []model.Obstacle
	cells     map[cellKey][]int
}

// NewScene indexes the obstacles on a grid of the given cell size
func NewScene(obstacles []model.Obstacle, cellSize float64) *Scene {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	s := &Scene{
		cellSize:  cellSize,
		obstacles: append([]model.Obstacle(nil), obstacles...),
		cells:     make(map[cellKey][]int),
	}
	for idx, o := range s.obstacles {
		imin, jmin := s.cellOf(o.Bounds.Min.X, o.Bounds.Min.Y)
		imax, jmax := s.cellOf(o.Bounds.Max.X, o.Bounds.Max.Y)
		for i := imin; i <= imax; i++ {
			for j := jmin; j <= jmax; j++ {
				key := cellKey{i, j}
				s.cells[key] = append(s.cells[key], idx)
			}
		}
	}
	log.Debugf("indexed %d obstacles in %d grid cells of %vm", len(s.obstacles), len(s.cells), cellSize)
	return s
}

// Obstacles returns all indexed obstacles
func (s *Scene) Obstacles() []model.Obstacle {
	return s.obstacles
}

// Len returns the number of indexed obstacles
func (s *Scene) Len() int {
	return len(s.obstacles)
}

func (s *Scene) cellOf(x, y float64) (int, int) {
	return int(math.Floor(x / s.cellSize)), int(math.Floor(y / s.cellSize))
}

// candidates returns the indices of obstacles whose footprint shares a cell with the XY rectangle
func (s *Scene) candidates(minX, minY, maxX, maxY float64) []int {
	imin, jmin := s.cellOf(minX, minY)
	imax, jmax := s.cellOf(maxX, maxY)
	if (imax-imin+1)*(jmax-jmin+1) > len(s.cells) {
		all := make([]int, len(s.obstacles))
		for i := range all {
			all[i] = i
		}
		return all
	}
	seen := make(map[int]bool)
	var found []int
	for i := imin; i <= imax; i++ {
		for j := jmin; j <= jmax; j++ {
			for _, idx := range s.cells[cellKey{i, j}] {
				if !seen[idx] {
					seen[idx] = true
					found = append(found, idx)
				}
			}
		}
	}
	sort.Ints(found)
	return found
}

func (s *Scene) segmentCandidates(a, b r3.Vec) []int {
	return s.candidates(math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Max(a.X, b.X), math.Max(a.Y, b.Y))
}

// SegmentBlocked reports whether a-b passes through any obstacle and the nearest entry point
func (s *Scene) SegmentBlocked(a, b r3.Vec) (bool, r3.Vec) {
	blocked := false
	var nearest r3.Vec
	best := math.Inf(1)
	for _, idx := range s.segmentCandidates(a, b) {
		crosses, entry := SegmentCrossesBox(a, b, s.obstacles[idx].Bounds)
		if !crosses {
			continue
		}
		if d := r3.Norm(r3.Sub(entry, a)); d < best {
			best, nearest, blocked = d, entry, true
		}
	}
	return blocked, nearest
}

// Crossings returns the obstacles the segment a-b passes through
func (s *Scene) Crossings(a, b r3.Vec) []model.Obstacle {
	var crossed []model.Obstacle
	for _, idx := range s.segmentCandidates(a, b) {
		if ok, _ := SegmentCrossesBox(a, b, s.obstacles[idx].Bounds); ok {
			crossed = append(crossed, s.obstacles[idx])
		}
	}
	return crossed
}

// ObstaclesNear returns the obstacles within extent of center, ordered by distance then ID
func (s *Scene) ObstaclesNear(center r3.Vec, extent float64) []model.Obstacle {
	type near struct {
		o model.Obstacle
		d float64
	}
	var found []near
	for _, idx := range s.candidates(center.X-extent, center.Y-extent, center.X+extent, center.Y+extent) {
		o := s.obstacles[idx]
		if d := PointToBoxDistance(center, o.Bounds); d <= extent {
			found = append(found, near{o, d})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].d != found[j].d {
			return found[i].d < found[j].d
		}
		return found[i].o.ID < found[j].o.ID
	})
	obstacles := make([]model.Obstacle, len(found))
	for i, n := range found {
		obstacles[i] = n.o
	}
	return obstacles
}

// Raycast returns the first obstacle face hit along dir within maxDist
func (s *Scene) Raycast(origin, dir r3.Vec, maxDist float64) (Hit, bool) {
	n := r3.Norm(dir)
	if n < parallelEps || maxDist <= 0 {
		return Hit{}, false
	}
	unit := r3.Scale(1/n, dir)
	end := r3.Add(origin, r3.Scale(maxDist, unit))

	var hit Hit
	found := false
	for _, idx := range s.segmentCandidates(origin, end) {
		o := s.obstacles[idx]
		tEnter, _, normal, ok := IntersectBox(origin, unit, o.Bounds, maxDist)
		if !ok {
			continue
		}
		if !found || tEnter < hit.Distance {
			hit = Hit{
				Point:    r3.Add(origin, r3.Scale(tEnter, unit)),
				Distance: tEnter,
				Normal:   normal,
				Obstacle: o,
			}
			found = true
		}
	}
	return hit, found
}

// BuildingDensity returns the fraction of a samples x samples ground grid within radius of
// center that falls inside obstacle footprints
func (s *Scene) BuildingDensity(center r3.Vec, radius float64, samples int) float64 {
	if samples < 2 || radius <= 0 {
		return 0
	}
	footprints := s.candidates(center.X-radius, center.Y-radius, center.X+radius, center.Y+radius)
	if len(footprints) == 0 {
		return 0
	}
	step := 2 * radius / float64(samples-1)
	inside, total := 0, 0
	for i := 0; i < samples; i++ {
		for j := 0; j < samples; j++ {
			x := center.X - radius + float64(i)*step
			y := center.Y - radius + float64(j)*step
			if math.Hypot(x-center.X, y-center.Y) > radius {
				continue
			}
			total++
			for _, idx := range footprints {
				b := s.obstacles[idx].Bounds
				if x >= b.Min.X && x <= b.Max.X && y >= b.Min.Y && y <= b.Max.Y {
					inside++
					break
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(inside) / float64(total)
}
