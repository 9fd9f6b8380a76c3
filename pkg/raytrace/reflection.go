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

// traceReflections finds single-bounce specular paths off obstacle walls with the image method
func (m *Model) traceReflections(pc *model.PropagationContext, obstacles []model.Obstacle) []model.PathContribution {
	tx, rx := pc.Transmitter, pc.Receiver
	var paths []model.PathContribution

	for _, o := range obstacles {
		for _, wall := range geometry.Walls(o) {
			if len(paths) >= pc.MaxReflections {
				return paths
			}
			if wall.SignedDistance(tx) <= 0 || wall.SignedDistance(rx) <= 0 {
				continue
			}
			point, ok := wall.PlaneIntersection(tx, wall.Mirror(rx))
			if !ok || !wall.Contains(point, 0) {
				continue
			}

			d1 := r3.Norm(r3.Sub(point, tx))
			d2 := r3.Norm(r3.Sub(rx, point))
			if d1 < minSegment || d2 < minSegment {
				continue
			}
			hit, ok := m.provider.Raycast(tx, r3.Sub(point, tx), d1+m.config.SurfaceOffset)
			if !ok || hit.Obstacle.ID != o.ID || math.Abs(hit.Distance-d1) > m.config.HitTolerance {
				continue
			}
			lifted := r3.Add(point, r3.Scale(m.config.SurfaceOffset, wall.Normal))
			if m.blocked(tx, lifted) || m.blocked(lifted, rx) {
				continue
			}

			// grazing angle sine equals the incidence angle cosine
			cosIncidence := math.Abs(r3.Dot(r3.Unit(r3.Sub(point, tx)), wall.Normal))
			gamma := signal.ReflectionCoefficient(o.Material, pc.FrequencyMHz, cosIncidence)
			rough := signal.RoughnessFactor(o.Material.RoughnessRMS, pc.FrequencyMHz, cosIncidence)
			if rough < m.config.MinSpecularRoughness {
				log.Debugf("skipping reflection off %s: surface too rough (%.3f)", o.ID, rough)
				continue
			}
			effective := gamma * rough
			if effective <= 0 {
				continue
			}

			loss := signal.FreeSpacePathLoss(d1+d2, pc.FrequencyMHz) - utils.LinearToDb(effective*effective)
			paths = append(paths, model.PathContribution{
				Kind:       model.Reflection,
				LossDB:     loss,
				LengthM:    d1 + d2,
				ExtraPhase: math.Pi,
			})
			m.sink.DrawPath(tx, point, utils.ColorReflection, model.Reflection.String())
			m.sink.DrawPath(point, rx, utils.ColorReflection, model.Reflection.String())
			log.Debugf("reflection off %s at %v: %.2f dB", o.ID, point, loss)
		}
	}
	return paths
}
