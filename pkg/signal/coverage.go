package signal

import (
	"math"

	"github.com/davidkleiven/gononlin/nonlin"
	"github.com/nfvri/ran-propagation/pkg/model"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// CoverageRadius runs a Newton Krylov solver for the distance along the TX->RX bearing of pc
// at which the received power drops to sensitivityDbm. The solve runs on log10(distance).
func CoverageRadius(m Model, pc *model.PropagationContext, sensitivityDbm float64, guessM float64) (float64, bool) {
	bearing := r3.Sub(pc.Receiver, pc.Transmitter)
	if r3.Norm(bearing) < model.MinDistance {
		bearing = r3.Vec{X: 1}
	}
	bearing = r3.Unit(bearing)
	trial := pc.Clone()

	problem := nonlin.Problem{
		F: func(out, x []float64) {
			d := math.Pow(10, x[0])
			trial.Receiver = r3.Add(pc.Transmitter, r3.Scale(d, bearing))
			pathLoss, err := m.PathLoss(trial)
			if err != nil || !HasSignal(pathLoss) {
				out[0] = math.MaxFloat64
				return
			}
			out[0] = ReceivedPower(trial, pathLoss) - sensitivityDbm
		},
	}

	solver := nonlin.NewtonKrylov{
		// Maximum number of Newton iterations
		Maxiter: 50,

		// Stepsize used to approximate jacobian with finite differences
		StepSize: 1e-4,

		// Tolerance for the solution
		Tol: 1e-7,
	}

	if guessM <= 0 {
		guessM = 1000
	}
	res, err := solver.Solve(problem, []float64{math.Log10(guessM)})
	if err != nil {
		log.Warnf("coverage radius for %v failed: %v", m.Type(), err)
		return 0, false
	}
	log.Debugf("coverage solve for %v: %v", m.Type(), res)
	if !res.Converged {
		log.Warnf("coverage radius for %v did not converge", m.Type())
		return 0, false
	}
	radius := math.Pow(10, res.X[0])
	if math.IsNaN(radius) || math.IsInf(radius, 0) {
		return 0, false
	}
	return radius, true
}
