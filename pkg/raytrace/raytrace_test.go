package raytrace

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nfvri/ran-propagation/pkg/geometry"
	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/nfvri/ran-propagation/pkg/signal"
	"github.com/nfvri/ran-propagation/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func box(id string, min, max r3.Vec, material model.Material) model.Obstacle {
	return model.Obstacle{ID: id, Bounds: model.NewBox(min, max), Material: material}
}

func link(reflections, diffractions, scattering int) *model.PropagationContext {
	return &model.PropagationContext{
		Transmitter:     r3.Vec{X: 0, Y: 0, Z: 10},
		Receiver:        r3.Vec{X: 100, Y: 0, Z: 10},
		FrequencyMHz:    2400,
		TxPowerDbm:      30,
		Environment:     model.EnvUrban,
		Model:           model.ModelRayTracing,
		MaxReflections:  reflections,
		MaxDiffractions: diffractions,
		MaxScattering:   scattering,
		HasObstacles:    true,
	}
}

// side wall south of the link, parallel to it
func sideWallScene(material model.Material) *geometry.Scene {
	return geometry.NewScene([]model.Obstacle{
		box("side", r3.Vec{X: 20, Y: 20, Z: 0}, r3.Vec{X: 80, Y: 40, Z: 30}, material),
	}, 0)
}

// thin screen across the link, taller than both ends
func screenScene() *geometry.Scene {
	return geometry.NewScene([]model.Obstacle{
		box("screen", r3.Vec{X: 49.95, Y: -50, Z: 0}, r3.Vec{X: 50.05, Y: 50, Z: 20}, model.DefaultMaterial()),
	}, 0)
}

func TestFreeSpaceOnly(t *testing.T) {
	m := NewModel(geometry.NewScene(nil, 0), nil, DefaultConfig())
	pc := link(4, 4, 2)

	paths := m.Trace(pc)
	require.Len(t, paths, 1)
	assert.Equal(t, model.LOS, paths[0].Kind)
	assert.Equal(t, 0.0, paths[0].ExtraPhase)
	assert.InDelta(t, 100, paths[0].LengthM, 1e-9)

	pathLoss, err := m.PathLoss(pc)
	require.NoError(t, err)
	assert.Equal(t, signal.FreeSpacePathLoss(100, 2400), pathLoss)
	assert.Equal(t, model.ModelRayTracing, m.Type())
}

func TestNilProviderTracesLOSOnly(t *testing.T) {
	m := NewModel(nil, nil, Config{})
	paths := m.Trace(link(4, 4, 2))
	require.Len(t, paths, 1)
	assert.Equal(t, model.LOS, paths[0].Kind)
}

func TestDegenerateLink(t *testing.T) {
	m := NewModel(sideWallScene(model.DefaultMaterial()), nil, DefaultConfig())
	pc := link(4, 4, 2)
	pc.Receiver = pc.Transmitter

	assert.Empty(t, m.Trace(pc))
	pathLoss, err := m.PathLoss(pc)
	require.NoError(t, err)
	assert.True(t, math.IsInf(pathLoss, 1))
}

func TestBlockedWithoutOtherMechanisms(t *testing.T) {
	m := NewModel(screenScene(), nil, DefaultConfig())
	pc := link(0, 0, 0)

	assert.Empty(t, m.Trace(pc))
	pathLoss, err := m.PathLoss(pc)
	require.NoError(t, err)
	assert.True(t, math.IsInf(pathLoss, 1))
}

func TestSpecularReflection(t *testing.T) {
	concrete := model.DefaultMaterial()
	m := NewModel(sideWallScene(concrete), nil, DefaultConfig())
	pc := link(1, 0, 0)

	paths := m.Trace(pc)
	require.Len(t, paths, 2)
	assert.Equal(t, model.LOS, paths[0].Kind)

	reflection := paths[1]
	assert.Equal(t, model.Reflection, reflection.Kind)
	assert.Equal(t, math.Pi, reflection.ExtraPhase)

	// image method puts the bounce at (50, 20, 10)
	leg := math.Hypot(50, 20)
	assert.InDelta(t, 2*leg, reflection.LengthM, 1e-9)
	cosIncidence := 20 / leg
	gamma := signal.ReflectionCoefficient(concrete, 2400, cosIncidence)
	rough := signal.RoughnessFactor(concrete.RoughnessRMS, 2400, cosIncidence)
	expected := signal.FreeSpacePathLoss(2*leg, 2400) - 20*math.Log10(gamma*rough)
	assert.InDelta(t, expected, reflection.LossDB, 1e-9)
	assert.Greater(t, reflection.LossDB, paths[0].LossDB)

	pathLoss, err := m.PathLoss(pc)
	require.NoError(t, err)
	assert.InDelta(t, signal.CombinePaths(paths, signal.Wavelength(2400)), pathLoss, 1e-12)
	assert.NotEqual(t, paths[0].LossDB, pathLoss)
}

func TestRoughSurfaceSkipsReflection(t *testing.T) {
	rough := model.DefaultMaterial()
	rough.RoughnessRMS = 0.5
	m := NewModel(sideWallScene(rough), nil, DefaultConfig())

	paths := m.Trace(link(4, 0, 0))
	require.Len(t, paths, 1)
	assert.Equal(t, model.LOS, paths[0].Kind)
}

func TestStageLimits(t *testing.T) {
	m := NewModel(sideWallScene(model.DefaultMaterial()), nil, DefaultConfig())

	assert.Len(t, m.Trace(link(0, 0, 0)), 1)
	assert.Len(t, m.Trace(link(4, 4, 4)), 3)
}

func TestKnifeEdgeDiffraction(t *testing.T) {
	m := NewModel(screenScene(), nil, DefaultConfig())
	pc := link(0, 4, 0)
	wavelength := signal.Wavelength(2400)

	paths := m.Trace(pc)
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.Equal(t, model.Diffraction, p.Kind)
		assert.Equal(t, -math.Pi/4, p.ExtraPhase)
		assert.Greater(t, p.LossDB, signal.FreeSpacePathLoss(p.LengthM, 2400))
	}

	// far rooftop edge comes first
	apex := r3.Vec{X: 50.05 + 0.05/math.Sqrt2, Z: 20 + 0.05/math.Sqrt2}
	d1 := r3.Norm(r3.Sub(apex, pc.Transmitter))
	d2 := r3.Norm(r3.Sub(pc.Receiver, apex))
	v := signal.FresnelKirchhoffParameter(10, d1, d2, wavelength)
	expected := signal.FreeSpacePathLoss(d1+d2, 2400) + signal.KnifeEdgeLoss(v)
	assert.InDelta(t, expected, paths[0].LossDB, 1e-9)

	assert.Len(t, m.Trace(link(0, 1, 0)), 1)

	pathLoss, err := m.PathLoss(pc)
	require.NoError(t, err)
	assert.False(t, math.IsInf(pathLoss, 0))
}

func TestUTDDiffraction(t *testing.T) {
	config := DefaultConfig()
	config.UseUTD = true
	m := NewModel(screenScene(), nil, config)

	paths := m.Trace(link(0, 4, 0))
	require.NotEmpty(t, paths)
	for _, p := range paths {
		assert.Equal(t, model.Diffraction, p.Kind)
		assert.False(t, math.IsInf(p.LossDB, 0) || math.IsNaN(p.LossDB))
		assert.GreaterOrEqual(t, p.LossDB, signal.FreeSpacePathLoss(p.LengthM, 2400))
	}
}

func TestDiffuseScattering(t *testing.T) {
	concrete := model.DefaultMaterial()
	m := NewModel(sideWallScene(concrete), nil, DefaultConfig())

	paths := m.Trace(link(0, 0, 2))
	require.Len(t, paths, 2)
	scattered := paths[1]
	assert.Equal(t, model.Scattering, scattered.Kind)
	assert.Equal(t, 0.0, scattered.ExtraPhase)

	leg := math.Hypot(50, 20)
	cos := 20 / leg
	gamma := signal.ReflectionCoefficient(concrete, 2400, cos)
	rough := signal.RoughnessFactor(concrete.RoughnessRMS, 2400, cos)
	s := signal.ScatteringCoefficient(gamma, rough)
	expected := 2*signal.FreeSpacePathLoss(leg, 2400) - 20*math.Log10(s*cos)
	assert.InDelta(t, expected, scattered.LossDB, 1e-9)
}

func TestWedgeAngles(t *testing.T) {
	edge := geometry.CornerEdges(box("b", r3.Vec{}, r3.Vec{X: 10, Y: 10, Z: 10}, model.DefaultMaterial()))[3]
	require.Equal(t, r3.Vec{X: 10, Y: 10, Z: 0}, edge.A)
	onEdge := r3.Vec{X: 10, Y: 10, Z: 5}

	// transmitter straight out of the +X face, receiver straight out of the +Y face
	phiI, phiD := wedgeAngles(edge, onEdge, r3.Vec{X: 20, Y: 10, Z: 5}, r3.Vec{X: 10, Y: 20, Z: 5})
	assert.InDelta(t, math.Pi/2, phiI, 1e-12)
	assert.InDelta(t, math.Pi, phiD, 1e-12)

	_, phiD = wedgeAngles(edge, onEdge, r3.Vec{X: 20, Y: 10, Z: 5}, r3.Vec{X: 5, Y: 5, Z: 5})
	assert.Equal(t, geometry.BoxExteriorAngle, phiD)
}

func TestTraceIsDeterministic(t *testing.T) {
	scene := geometry.NewScene([]model.Obstacle{
		box("side", r3.Vec{X: 20, Y: 20, Z: 0}, r3.Vec{X: 80, Y: 40, Z: 30}, model.DefaultMaterial()),
		box("screen", r3.Vec{X: 49.95, Y: -50, Z: 0}, r3.Vec{X: 50.05, Y: 15, Z: 20}, model.DefaultMaterials()[model.MaterialGlass]),
	}, 25)
	m := NewModel(scene, nil, DefaultConfig())
	pc := link(4, 4, 2)

	first := m.Trace(pc)
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, m.Trace(pc)); diff != "" {
			t.Fatalf("trace changed between runs (-first +now):\n%s", diff)
		}
	}
}

func TestRecorderSink(t *testing.T) {
	recorder := &Recorder{}
	m := NewModel(sideWallScene(model.DefaultMaterial()), recorder, DefaultConfig())
	m.Trace(link(1, 0, 0))

	segments := recorder.Segments()
	require.Len(t, segments, 3)
	assert.Equal(t, utils.ColorLOS, segments[0].Color)
	assert.Equal(t, "los", segments[0].Label)
	assert.Equal(t, utils.ColorReflection, segments[1].Color)
	assert.Equal(t, segments[1].B, segments[2].A)

	recorder.Reset()
	NewModel(screenScene(), recorder, DefaultConfig()).Trace(link(0, 0, 0))
	segments = recorder.Segments()
	require.Len(t, segments, 1)
	assert.Equal(t, utils.ColorBlocked, segments[0].Color)
	assert.InDelta(t, 49.95, segments[0].B.X, 1e-9)
}
