package propagation

import (
	"math"

	"github.com/nfvri/ran-propagation/pkg/geometry"
	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/nfvri/ran-propagation/pkg/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	densitySamples       = 9
	minDensityRadius     = 25.0
	maxDensityRadius     = 250.0
	densityRadiusFactor  = 0.25
	maxEnvironmentLossDB = 20.0
)

// DensitySampler returns the fraction of the ground within radius of center covered by buildings
type DensitySampler interface {
	BuildingDensity(center r3.Vec, radius float64, samples int) float64
}

// PenetrationEstimator returns the extra loss of walls crossed by the direct path
type PenetrationEstimator interface {
	PenetrationLoss(pc *model.PropagationContext) float64
}

// clutterLoss returns the loss in dB of a fully built-up area at 1 GHz
func clutterLoss(env model.Environment) float64 {
	switch env {
	case model.EnvRural:
		return 1
	case model.EnvSuburban:
		return 3
	case model.EnvUrban:
		return 5
	case model.EnvDenseUrban:
		return 8
	}
	return 0
}

// DensityRadius returns the sampling radius around the link midpoint
func DensityRadius(distanceM float64) float64 {
	return utils.Clamp(densityRadiusFactor*distanceM, minDensityRadius, maxDensityRadius)
}

// EnvironmentCorrection returns the clutter loss of the area around the link: building density
// times the environment clutter loss, growing with the square root of frequency, capped at 20 dB
func EnvironmentCorrection(sampler DensitySampler, pc *model.PropagationContext) float64 {
	if sampler == nil {
		return 0
	}
	clutter := clutterLoss(pc.Environment)
	if clutter == 0 {
		return 0
	}
	mid := r3.Scale(0.5, r3.Add(pc.Transmitter, pc.Receiver))
	density := sampler.BuildingDensity(mid, DensityRadius(pc.Distance()), densitySamples)
	return math.Min(density*clutter*math.Sqrt(pc.FrequencyMHz/1000), maxEnvironmentLossDB)
}

// WallPenetration sums the penetration loss of every obstacle the direct path crosses
type WallPenetration struct {
	Scene *geometry.Scene
	// MaxLossDB caps the total; zero means uncapped
	MaxLossDB float64
}

func (w WallPenetration) PenetrationLoss(pc *model.PropagationContext) float64 {
	if w.Scene == nil {
		return 0
	}
	var loss float64
	for _, o := range w.Scene.Crossings(pc.Transmitter, pc.Receiver) {
		loss += o.Material.PenetrationLossDB
	}
	if w.MaxLossDB > 0 {
		loss = math.Min(loss, w.MaxLossDB)
	}
	return loss
}
