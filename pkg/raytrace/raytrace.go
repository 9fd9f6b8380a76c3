package raytrace

import (
	"github.com/nfvri/ran-propagation/pkg/geometry"
	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/nfvri/ran-propagation/pkg/signal"
	"github.com/nfvri/ran-propagation/pkg/utils"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// minSegment is the shortest path leg in meters; shorter legs are degenerate
const minSegment = 1e-3

// Config tunes the ray tracer
type Config struct {
	// SurfaceOffset lifts interaction points off obstacle surfaces before visibility checks
	SurfaceOffset float64
	// SearchMargin widens the obstacle search around the link beyond half its length
	SearchMargin float64
	// MinSpecularRoughness is the roughness factor below which a specular reflection is skipped
	MinSpecularRoughness float64
	// MinScattering is the scattering coefficient below which a scattered path is skipped
	MinScattering float64
	// HitTolerance is the allowed mismatch between a raycast hit and the expected reflection point
	HitTolerance float64
	// UseUTD replaces knife-edge diffraction with the UTD wedge coefficient
	UseUTD bool
}

// DefaultConfig returns the default ray tracer settings
func DefaultConfig() Config {
	return Config{
		SurfaceOffset:        0.05,
		SearchMargin:         50,
		MinSpecularRoughness: 0.1,
		MinScattering:        0.05,
		HitTolerance:         0.01,
	}
}

// Model is a multipath ray tracer over box obstacles combining LOS, single specular
// reflections, single edge diffractions and single diffuse scattering paths
type Model struct {
	provider geometry.Provider
	sink     Sink
	config   Config
}

// NewModel returns a ray tracer over the provider's obstacles. A nil sink discards paths.
func NewModel(provider geometry.Provider, sink Sink, config Config) *Model {
	if sink == nil {
		sink = NopSink{}
	}
	defaults := DefaultConfig()
	if config.SurfaceOffset <= 0 {
		config.SurfaceOffset = defaults.SurfaceOffset
	}
	if config.SearchMargin <= 0 {
		config.SearchMargin = defaults.SearchMargin
	}
	if config.MinSpecularRoughness <= 0 {
		config.MinSpecularRoughness = defaults.MinSpecularRoughness
	}
	if config.MinScattering <= 0 {
		config.MinScattering = defaults.MinScattering
	}
	if config.HitTolerance <= 0 {
		config.HitTolerance = defaults.HitTolerance
	}
	return &Model{provider: provider, sink: sink, config: config}
}

func (m *Model) Type() model.ModelType {
	return model.ModelRayTracing
}

// PathLoss traces every path of the link and combines them coherently
func (m *Model) PathLoss(pc *model.PropagationContext) (float64, error) {
	paths := m.Trace(pc)
	pathLoss := signal.CombinePaths(paths, signal.Wavelength(pc.FrequencyMHz))
	log.Debugf("ray tracing combined %d paths into %.2f dB", len(paths), pathLoss)
	return pathLoss, nil
}

// Trace returns the contributions of LOS, reflection, diffraction and scattering paths in that order.
// Stages whose maximum count is zero are skipped.
func (m *Model) Trace(pc *model.PropagationContext) []model.PathContribution {
	tx, rx := pc.Transmitter, pc.Receiver
	if r3.Norm(r3.Sub(rx, tx)) < minSegment {
		log.Debugf("degenerate link: transmitter and receiver coincide")
		return nil
	}

	var paths []model.PathContribution
	if p, ok := m.traceLOS(pc); ok {
		paths = append(paths, p)
	}
	if m.provider == nil || (pc.MaxReflections == 0 && pc.MaxDiffractions == 0 && pc.MaxScattering == 0) {
		return paths
	}

	nearby := m.nearbyObstacles(tx, rx)
	if pc.MaxReflections > 0 {
		paths = append(paths, m.traceReflections(pc, nearby)...)
	}
	if pc.MaxDiffractions > 0 {
		paths = append(paths, m.traceDiffractions(pc, nearby)...)
	}
	if pc.MaxScattering > 0 {
		paths = append(paths, m.traceScattering(pc, nearby)...)
	}
	return paths
}

func (m *Model) nearbyObstacles(tx, rx r3.Vec) []model.Obstacle {
	mid := r3.Scale(0.5, r3.Add(tx, rx))
	extent := r3.Norm(r3.Sub(rx, tx))/2 + m.config.SearchMargin
	return m.provider.ObstaclesNear(mid, extent)
}

func (m *Model) blocked(a, b r3.Vec) bool {
	if m.provider == nil {
		return false
	}
	blocked, _ := m.provider.SegmentBlocked(a, b)
	return blocked
}

func (m *Model) traceLOS(pc *model.PropagationContext) (model.PathContribution, bool) {
	tx, rx := pc.Transmitter, pc.Receiver
	if m.provider != nil {
		if blocked, hit := m.provider.SegmentBlocked(tx, rx); blocked {
			m.sink.DrawPath(tx, hit, utils.ColorBlocked, "los blocked")
			return model.PathContribution{}, false
		}
	}
	length := r3.Norm(r3.Sub(rx, tx))
	m.sink.DrawPath(tx, rx, utils.ColorLOS, model.LOS.String())
	return model.PathContribution{
		Kind:    model.LOS,
		LossDB:  signal.FreeSpacePathLoss(length, pc.FrequencyMHz),
		LengthM: length,
	}, true
}
