package signal

import (
	"math"
	"math/cmplx"

	"github.com/nfvri/ran-propagation/pkg/model"
)

// vacuum permittivity in F/m
const epsilon0 = 8.8541878128e-12

// Wavelength returns the wavelength in meters of a frequency in MHz
func Wavelength(frequencyMHz float64) float64 {
	return model.SpeedOfLight / (frequencyMHz * 1e6)
}

// ComplexPermittivity returns the relative complex permittivity er - j*sigma/(w*e0) of the material
func ComplexPermittivity(m model.Material, frequencyMHz float64) complex128 {
	omega := 2 * math.Pi * frequencyMHz * 1e6
	return complex(m.RelativePermittivity, -m.Conductivity(frequencyMHz)/(omega*epsilon0))
}

// ReflectionCoefficient returns the mean of the TE and TM Fresnel reflection magnitudes for
// an incidence angle cosIncidence (measured from the surface normal). Materials without a
// permittivity fall back to their baseline reflection coefficient.
func ReflectionCoefficient(m model.Material, frequencyMHz, cosIncidence float64) float64 {
	if m.RelativePermittivity <= 0 {
		return clampUnit(m.BaselineReflection)
	}
	cosI := clampUnit(math.Abs(cosIncidence))
	sin2 := 1 - cosI*cosI
	eps := ComplexPermittivity(m, frequencyMHz)
	root := cmplx.Sqrt(eps - complex(sin2, 0))
	c := complex(cosI, 0)

	te := (c - root) / (c + root)
	tm := (eps*c - root) / (eps*c + root)
	gamma := (cmplx.Abs(te) + cmplx.Abs(tm)) / 2
	if math.IsNaN(gamma) {
		return clampUnit(m.BaselineReflection)
	}
	return clampUnit(gamma)
}

// RoughnessFactor returns the Rayleigh roughness attenuation exp(-2(k0*sigmaH*sin(psi))^2)
// of the specular component for grazing angle psi
func RoughnessFactor(roughnessRMS, frequencyMHz, sinGrazing float64) float64 {
	if roughnessRMS <= 0 {
		return 1
	}
	k0 := 2 * math.Pi / Wavelength(frequencyMHz)
	g := k0 * roughnessRMS * math.Abs(sinGrazing)
	return clampUnit(math.Exp(-2 * g * g))
}

// ScatteringCoefficient returns S = 1 - |Gamma|*rho, the share of energy not reflected specularly
func ScatteringCoefficient(gamma, roughness float64) float64 {
	return clampUnit(1 - clampUnit(gamma)*clampUnit(roughness))
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
