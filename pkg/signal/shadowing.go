package signal

import (
	"math"
	"math/rand"

	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/nfvri/ran-propagation/pkg/utils"
)

// ShadowingSigma returns the log-normal shadowing standard deviation in dB
func ShadowingSigma(env model.Environment, los bool) float64 {
	switch {
	case los:
		return 4.0
	case env.IsUrban():
		return 6.0
	}
	return 8.0
}

// NormalBoxMuller draws a standard normal variate from rng with the Box-Muller transform
func NormalBoxMuller(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	for u1 <= math.SmallestNonzeroFloat64 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// ShadowingSample draws a zero-mean shadowing term with standard deviation sigma,
// clamped to +/-MaxShadowingDB
func ShadowingSample(rng *rand.Rand, sigma float64) float64 {
	return utils.Clamp(sigma*NormalBoxMuller(rng), -MaxShadowingDB, MaxShadowingDB)
}
