package geometry

import (
	"math"
	"testing"

	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func building(id string, min, max r3.Vec) model.Obstacle {
	return model.Obstacle{ID: id, Bounds: model.NewBox(min, max), Material: model.DefaultMaterial()}
}

func testScene() *Scene {
	return NewScene([]model.Obstacle{
		building("b1", r3.Vec{X: 40, Y: -10, Z: 0}, r3.Vec{X: 60, Y: 10, Z: 30}),
		building("b2", r3.Vec{X: 100, Y: 20, Z: 0}, r3.Vec{X: 130, Y: 50, Z: 20}),
		building("b3", r3.Vec{X: -50, Y: -50, Z: 0}, r3.Vec{X: -30, Y: -30, Z: 12}),
	}, 25)
}

func TestIntersectBox(t *testing.T) {
	box := model.NewBox(r3.Vec{X: 10, Y: -5, Z: 0}, r3.Vec{X: 20, Y: 5, Z: 10})

	tEnter, tExit, normal, ok := IntersectBox(r3.Vec{X: 0, Y: 0, Z: 5}, r3.Vec{X: 1}, box, 100)
	require.True(t, ok)
	assert.InDelta(t, 10, tEnter, 1e-9)
	assert.InDelta(t, 20, tExit, 1e-9)
	assert.Equal(t, r3.Vec{X: -1}, normal)

	tEnter, _, normal, ok = IntersectBox(r3.Vec{X: 30, Y: 0, Z: 5}, r3.Vec{X: -1}, box, 100)
	require.True(t, ok)
	assert.InDelta(t, 10, tEnter, 1e-9)
	assert.Equal(t, r3.Vec{X: 1}, normal)

	_, _, _, ok = IntersectBox(r3.Vec{X: 0, Y: 0, Z: 15}, r3.Vec{X: 1}, box, 100)
	assert.False(t, ok, "ray passes above the box")

	_, _, _, ok = IntersectBox(r3.Vec{X: 0, Y: 0, Z: 5}, r3.Vec{X: 1}, box, 5)
	assert.False(t, ok, "box is beyond max distance")

	tEnter, _, normal, ok = IntersectBox(r3.Vec{X: 15, Y: 0, Z: 5}, r3.Vec{X: 1}, box, 100)
	require.True(t, ok)
	assert.Equal(t, 0.0, tEnter)
	assert.Equal(t, r3.Vec{}, normal)
}

func TestSegmentCrossesBox(t *testing.T) {
	box := model.NewBox(r3.Vec{X: 10, Y: -5, Z: 0}, r3.Vec{X: 20, Y: 5, Z: 10})

	ok, entry := SegmentCrossesBox(r3.Vec{X: 0, Y: 0, Z: 5}, r3.Vec{X: 30, Y: 0, Z: 5}, box)
	assert.True(t, ok)
	assert.InDelta(t, 10, entry.X, 1e-9)

	ok, _ = SegmentCrossesBox(r3.Vec{X: 0, Y: 0, Z: 5}, r3.Vec{X: 10, Y: 0, Z: 5}, box)
	assert.False(t, ok, "segment ending on the face does not cross")

	ok, _ = SegmentCrossesBox(r3.Vec{X: 0, Y: 5, Z: 10}, r3.Vec{X: 30, Y: 5, Z: 10}, box)
	assert.False(t, ok, "segment grazing an edge does not cross")

	ok, _ = SegmentCrossesBox(r3.Vec{X: 1, Y: 1, Z: 1}, r3.Vec{X: 1, Y: 1, Z: 1}, box)
	assert.False(t, ok, "degenerate segment")
}

func TestClosestPoints(t *testing.T) {
	s, u, c1, c2 := ClosestPoints(
		r3.Vec{X: 0, Y: 0, Z: 0}, r3.Vec{X: 10, Y: 0, Z: 0},
		r3.Vec{X: 4, Y: -5, Z: 3}, r3.Vec{X: 4, Y: 5, Z: 3},
	)
	assert.InDelta(t, 0.4, s, 1e-9)
	assert.InDelta(t, 0.5, u, 1e-9)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(c1, r3.Vec{X: 4})), 1e-9)
	assert.InDelta(t, 0, r3.Norm(r3.Sub(c2, r3.Vec{X: 4, Z: 3})), 1e-9)

	// parallel segments
	_, _, c1, c2 = ClosestPoints(
		r3.Vec{X: 0}, r3.Vec{X: 10},
		r3.Vec{X: 0, Y: 2}, r3.Vec{X: 10, Y: 2},
	)
	assert.InDelta(t, 2, r3.Norm(r3.Sub(c1, c2)), 1e-9)
}

func TestSurfaces(t *testing.T) {
	o := building("b", r3.Vec{X: 0, Y: 0, Z: 0}, r3.Vec{X: 10, Y: 20, Z: 30})
	walls := Walls(o)
	require.Len(t, walls, 4)

	east := walls[0]
	assert.Equal(t, r3.Vec{X: 10, Y: 10, Z: 15}, east.Center)
	assert.Equal(t, 10.0, east.HalfU)
	assert.Equal(t, 15.0, east.HalfV)
	assert.InDelta(t, 5, east.SignedDistance(r3.Vec{X: 15, Y: 3, Z: 1}), 1e-9)
	assert.Equal(t, r3.Vec{X: 5, Y: 3, Z: 1}, east.Mirror(r3.Vec{X: 15, Y: 3, Z: 1}))
	assert.True(t, east.Contains(r3.Vec{X: 10, Y: 19, Z: 29}, 0))
	assert.False(t, east.Contains(r3.Vec{X: 10, Y: 21, Z: 29}, 0))
	assert.Equal(t, r3.Vec{X: 10, Y: 20, Z: 0}, east.Clamp(r3.Vec{X: 40, Y: 50, Z: -3}))

	p, ok := east.PlaneIntersection(r3.Vec{X: 20, Y: 5, Z: 5}, r3.Vec{X: 0, Y: 5, Z: 5})
	assert.True(t, ok)
	assert.InDelta(t, 10, p.X, 1e-9)
	_, ok = east.PlaneIntersection(r3.Vec{X: 20, Y: 5, Z: 5}, r3.Vec{X: 15, Y: 5, Z: 5})
	assert.False(t, ok)

	for _, w := range walls {
		assert.InDelta(t, 0, w.Normal.Z, 1e-12, "walls are vertical")
		assert.InDelta(t, 0, r3.Dot(w.Normal, w.U), 1e-12)
	}

	roof := Roof(o)
	assert.Equal(t, 30.0, roof.Center.Z)
	assert.Equal(t, r3.Vec{Z: 1}, roof.Normal)
}

func TestEdges(t *testing.T) {
	o := building("b", r3.Vec{X: 0, Y: 0, Z: 0}, r3.Vec{X: 10, Y: 20, Z: 30})
	edges := Edges(o)
	require.Len(t, edges, 8)

	rooftop, vertical := 0, 0
	for _, e := range edges {
		assert.InDelta(t, 1, r3.Norm(e.Outward), 1e-12)
		assert.Equal(t, BoxExteriorAngle, e.ExteriorAngle)
		// outward bisector points away from the obstacle center
		mid := r3.Scale(0.5, r3.Add(e.A, e.B))
		assert.Greater(t, r3.Dot(r3.Sub(mid, o.Center()), e.Outward), 0.0)
		switch e.Kind {
		case RooftopEdge:
			rooftop++
			assert.Equal(t, 30.0, e.A.Z)
			assert.Equal(t, 30.0, e.B.Z)
		case VerticalEdge:
			vertical++
			assert.Equal(t, 30.0, math.Abs(e.B.Z-e.A.Z))
		}
	}
	assert.Equal(t, 4, rooftop)
	assert.Equal(t, 4, vertical)
}

func TestSceneSegmentBlocked(t *testing.T) {
	scene := testScene()
	assert.Equal(t, 3, scene.Len())

	blocked, hit := scene.SegmentBlocked(r3.Vec{X: 0, Y: 0, Z: 10}, r3.Vec{X: 100, Y: 0, Z: 10})
	assert.True(t, blocked)
	assert.InDelta(t, 40, hit.X, 1e-9)

	blocked, _ = scene.SegmentBlocked(r3.Vec{X: 0, Y: 0, Z: 40}, r3.Vec{X: 100, Y: 0, Z: 40})
	assert.False(t, blocked, "segment passes over the roof")

	blocked, _ = scene.SegmentBlocked(r3.Vec{X: 0, Y: 15, Z: 10}, r3.Vec{X: 90, Y: 15, Z: 10})
	assert.False(t, blocked)

	crossed := scene.Crossings(r3.Vec{X: 30, Y: 0, Z: 5}, r3.Vec{X: 115, Y: 35, Z: 5})
	ids := []string{}
	for _, o := range crossed {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"b1", "b2"}, ids)
}

func TestSceneObstaclesNear(t *testing.T) {
	scene := testScene()

	near := scene.ObstaclesNear(r3.Vec{X: 0, Y: 0, Z: 0}, 45)
	require.Len(t, near, 2)
	assert.Equal(t, "b1", near[0].ID)
	assert.Equal(t, "b3", near[1].ID)

	assert.Len(t, scene.ObstaclesNear(r3.Vec{X: 0, Y: 0, Z: 0}, 500), 3)
	assert.Empty(t, scene.ObstaclesNear(r3.Vec{X: 500, Y: 500, Z: 0}, 10))
}

func TestSceneRaycast(t *testing.T) {
	scene := testScene()

	hit, ok := scene.Raycast(r3.Vec{X: 0, Y: 0, Z: 10}, r3.Vec{X: 2}, 200)
	require.True(t, ok)
	assert.Equal(t, "b1", hit.Obstacle.ID)
	assert.InDelta(t, 40, hit.Distance, 1e-9)
	assert.Equal(t, r3.Vec{X: -1}, hit.Normal)

	_, ok = scene.Raycast(r3.Vec{X: 0, Y: 0, Z: 10}, r3.Vec{X: 1}, 30)
	assert.False(t, ok)

	_, ok = scene.Raycast(r3.Vec{X: 0, Y: 0, Z: 10}, r3.Vec{}, 30)
	assert.False(t, ok)
}

func TestSceneBuildingDensity(t *testing.T) {
	empty := NewScene(nil, 0)
	assert.Equal(t, 0.0, empty.BuildingDensity(r3.Vec{}, 100, 9))

	covered := NewScene([]model.Obstacle{
		building("block", r3.Vec{X: -500, Y: -500, Z: 0}, r3.Vec{X: 500, Y: 500, Z: 10}),
	}, 100)
	assert.Equal(t, 1.0, covered.BuildingDensity(r3.Vec{}, 100, 9))

	half := NewScene([]model.Obstacle{
		building("half", r3.Vec{X: 0.5, Y: -500, Z: 0}, r3.Vec{X: 500, Y: 500, Z: 10}),
	}, 100)
	density := half.BuildingDensity(r3.Vec{}, 100, 9)
	assert.Greater(t, density, 0.3)
	assert.Less(t, density, 0.6)
}
