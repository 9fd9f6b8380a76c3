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

// traceScattering finds single diffuse paths off walls facing both ends, scattering at the wall
// point nearest the link midpoint
func (m *Model) traceScattering(pc *model.PropagationContext, obstacles []model.Obstacle) []model.PathContribution {
	tx, rx := pc.Transmitter, pc.Receiver
	mid := r3.Scale(0.5, r3.Add(tx, rx))
	var paths []model.PathContribution

	for _, o := range obstacles {
		for _, wall := range geometry.Walls(o) {
			if len(paths) >= pc.MaxScattering {
				return paths
			}
			if wall.SignedDistance(tx) <= 0 || wall.SignedDistance(rx) <= 0 {
				continue
			}
			point := wall.Clamp(mid)
			lifted := r3.Add(point, r3.Scale(m.config.SurfaceOffset, wall.Normal))
			if m.blocked(tx, lifted) || m.blocked(lifted, rx) {
				continue
			}

			d1 := r3.Norm(r3.Sub(point, tx))
			d2 := r3.Norm(r3.Sub(rx, point))
			if d1 < minSegment || d2 < minSegment {
				continue
			}
			cosIncidence := math.Abs(r3.Dot(r3.Unit(r3.Sub(point, tx)), wall.Normal))
			cosScatter := math.Abs(r3.Dot(r3.Unit(r3.Sub(rx, point)), wall.Normal))
			lobe := math.Sqrt(cosIncidence * cosScatter)

			gamma := signal.ReflectionCoefficient(o.Material, pc.FrequencyMHz, cosIncidence)
			rough := signal.RoughnessFactor(o.Material.RoughnessRMS, pc.FrequencyMHz, cosIncidence)
			scattering := signal.ScatteringCoefficient(gamma, rough)
			if scattering < m.config.MinScattering || lobe <= 0 {
				continue
			}

			amplitude := scattering * lobe
			loss := signal.FreeSpacePathLoss(d1, pc.FrequencyMHz) +
				signal.FreeSpacePathLoss(d2, pc.FrequencyMHz) -
				utils.LinearToDb(amplitude*amplitude)
			paths = append(paths, model.PathContribution{
				Kind:    model.Scattering,
				LossDB:  loss,
				LengthM: d1 + d2,
			})
			m.sink.DrawPath(tx, point, utils.ColorScattering, model.Scattering.String())
			m.sink.DrawPath(point, rx, utils.ColorScattering, model.Scattering.String())
			log.Debugf("scattering off %s at %v: %.2f dB", o.ID, point, loss)
		}
	}
	return paths
}
