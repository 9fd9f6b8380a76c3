package signal

import (
	"math"
	"math/cmplx"
)

// knifeEdgeThreshold is the Fresnel-Kirchhoff parameter below which knife-edge loss vanishes
const knifeEdgeThreshold = -0.78

// FresnelKirchhoffParameter returns v = h*sqrt(2(d1+d2)/(lambda*d1*d2)) for an obstruction of
// height h above the direct path at distances d1 and d2 from the ends
func FresnelKirchhoffParameter(h, d1, d2, wavelength float64) float64 {
	if d1 <= 0 || d2 <= 0 || wavelength <= 0 {
		return math.Inf(-1)
	}
	return h * math.Sqrt(2*(d1+d2)/(wavelength*d1*d2))
}

// KnifeEdgeLoss returns the ITU-R P.526 single knife-edge diffraction loss J(v) in dB
func KnifeEdgeLoss(v float64) float64 {
	if v <= knifeEdgeThreshold {
		return 0
	}
	return 6.9 + 20*math.Log10(math.Sqrt((v-0.1)*(v-0.1)+1)+v-0.1)
}

// cotCap bounds the cotangent terms near the shadow and reflection boundaries
const cotCap = 1e3

func cappedCot(x float64) float64 {
	s := math.Sin(x)
	if math.Abs(s) < 1/cotCap {
		return math.Copysign(cotCap, s*math.Cos(x))
	}
	return math.Cos(x) / s
}

// UTDDiffractionCoefficient returns the uniform theory of diffraction coefficient of a perfectly
// conducting wedge with exterior angle exteriorAngle, for incidence angle phiI and diffraction
// angle phiD measured from the illuminated face. Transition functions are taken as unity.
// soft selects the soft (TE) polarization, otherwise the hard (TM) one.
func UTDDiffractionCoefficient(exteriorAngle, phiI, phiD, wavelength float64, soft bool) complex128 {
	n := exteriorAngle / math.Pi
	k := 2 * math.Pi / wavelength
	minus := phiD - phiI
	plus := phiD + phiI

	incident := cappedCot((math.Pi+minus)/(2*n)) + cappedCot((math.Pi-minus)/(2*n))
	reflected := cappedCot((math.Pi+plus)/(2*n)) + cappedCot((math.Pi-plus)/(2*n))
	sum := incident + reflected
	if soft {
		sum = incident - reflected
	}
	factor := -cmplx.Exp(complex(0, -math.Pi/4)) / complex(2*n*math.Sqrt(2*math.Pi*k), 0)
	return factor * complex(sum, 0)
}

// UTDExtraLoss returns the diffraction loss in dB relative to free space over s1+s2 for a
// spherical wave diffracted with coefficient d at distances s1 and s2 from the edge
func UTDExtraLoss(d complex128, s1, s2 float64) float64 {
	if s1 <= 0 || s2 <= 0 {
		return math.Inf(1)
	}
	amplitude := cmplx.Abs(d) * math.Sqrt((s1+s2)/(s1*s2))
	if amplitude <= 0 {
		return math.Inf(1)
	}
	return math.Max(0, -20*math.Log10(amplitude))
}
