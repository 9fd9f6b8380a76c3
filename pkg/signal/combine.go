package signal

import (
	"math"
	"math/cmplx"

	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/nfvri/ran-propagation/pkg/utils"
)

// PathAmplitude returns the linear field amplitude of a path loss in dB
func PathAmplitude(lossDB float64) float64 {
	return math.Sqrt(utils.DbToLinear(-lossDB))
}

// PathPhase returns the propagation phase of a path of the given length plus its extra phase
func PathPhase(p model.PathContribution, wavelength float64) float64 {
	return 2*math.Pi*p.LengthM/wavelength + p.ExtraPhase
}

// CombinePaths sums the path phasors coherently and returns the resulting loss in dB.
// No paths yield NoSignal and a single path yields its own loss.
func CombinePaths(paths []model.PathContribution, wavelength float64) float64 {
	switch len(paths) {
	case 0:
		return NoSignal
	case 1:
		return paths[0].LossDB
	}
	var sum complex128
	for _, p := range paths {
		if math.IsInf(p.LossDB, 1) || math.IsNaN(p.LossDB) {
			continue
		}
		sum += cmplx.Rect(PathAmplitude(p.LossDB), PathPhase(p, wavelength))
	}
	power := real(sum)*real(sum) + imag(sum)*imag(sum)
	if power <= 0 {
		return NoSignal
	}
	return -utils.LinearToDb(power)
}
