package propagation

import (
	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/nfvri/ran-propagation/pkg/signal"
)

const (
	// FreeSpaceMaxDistance is the distance under which links are treated as free space
	FreeSpaceMaxDistance = 100.0
	// DefaultMaxRayTracingDistance bounds ray tracing when it is preferred
	DefaultMaxRayTracingDistance = 2000.0
)

// Selector picks a path loss model for a link. It holds configuration only.
type Selector struct {
	PreferRayTracing      bool
	MaxRayTracingDistance float64
}

// NewSelector returns a selector with the default ray tracing range
func NewSelector(preferRayTracing bool) Selector {
	return Selector{PreferRayTracing: preferRayTracing, MaxRayTracingDistance: DefaultMaxRayTracingDistance}
}

// Select returns the model for a link of the given distance, frequency and environment.
// Indoor links never use the macro cell models.
func (s Selector) Select(distanceM, frequencyMHz float64, env model.Environment) model.ModelType {
	maxRayTracing := s.MaxRayTracingDistance
	if maxRayTracing <= 0 {
		maxRayTracing = DefaultMaxRayTracingDistance
	}

	switch {
	case distanceM < FreeSpaceMaxDistance:
		return model.ModelFreeSpace
	case env != model.EnvIndoor && signal.HataEnvelope.Contains(frequencyMHz, distanceM):
		return model.ModelHata
	case env != model.EnvIndoor && signal.Cost231Envelope.Contains(frequencyMHz, distanceM):
		return model.ModelCost231Hata
	case s.PreferRayTracing && distanceM <= maxRayTracing:
		return model.ModelRayTracing
	}
	return model.ModelLogDistance
}
