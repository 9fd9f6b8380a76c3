package signal

import (
	"math"
	"testing"

	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestWavelength(t *testing.T) {
	assert.InDelta(t, 0.1249, Wavelength(2400), 1e-4)
	assert.InDelta(t, 0.3331, Wavelength(900), 1e-4)
}

func TestComplexPermittivity(t *testing.T) {
	concrete := model.DefaultMaterials()[model.MaterialConcrete]
	eps := ComplexPermittivity(concrete, 2400)
	assert.Equal(t, 5.24, real(eps))
	assert.Less(t, imag(eps), 0.0)
}

func TestReflectionCoefficient(t *testing.T) {
	materials := model.DefaultMaterials()

	concrete := materials[model.MaterialConcrete]
	assert.InDelta(t, 0.395, ReflectionCoefficient(concrete, 2400, 1), 0.01)
	assert.Greater(t, ReflectionCoefficient(concrete, 2400, 0.01), 0.95, "grazing incidence reflects almost fully")

	metal := materials[model.MaterialMetal]
	assert.Greater(t, ReflectionCoefficient(metal, 2400, 0.7), 0.99)

	baseline := model.Material{BaselineReflection: 0.55}
	assert.Equal(t, 0.55, ReflectionCoefficient(baseline, 2400, 0.3))
	assert.Equal(t, 1.0, ReflectionCoefficient(model.Material{BaselineReflection: 3}, 2400, 0.3))

	for _, m := range materials {
		for _, f := range []float64{150, 900, 2400, 28000} {
			for c := 0.0; c <= 1.0; c += 0.05 {
				gamma := ReflectionCoefficient(m, f, c)
				assert.GreaterOrEqual(t, gamma, 0.0, "%s f=%v cos=%v", m.Name, f, c)
				assert.LessOrEqual(t, gamma, 1.0, "%s f=%v cos=%v", m.Name, f, c)
			}
		}
	}
}

func TestRoughnessFactor(t *testing.T) {
	assert.Equal(t, 1.0, RoughnessFactor(0, 2400, 0.5))
	assert.InDelta(t, 0.8812, RoughnessFactor(0.01, 2400, 0.5), 1e-4)

	prev := 1.0
	for _, h := range []float64{0.001, 0.005, 0.01, 0.05, 0.1} {
		rho := RoughnessFactor(h, 2400, 0.7)
		assert.GreaterOrEqual(t, rho, 0.0)
		assert.LessOrEqual(t, rho, prev, "rougher surfaces reflect less")
		prev = rho
	}
	assert.InDelta(t, 1.0, RoughnessFactor(0.1, 2400, 0), 1e-12, "no attenuation at zero grazing angle")
}

func TestScatteringCoefficient(t *testing.T) {
	assert.Equal(t, 1.0, ScatteringCoefficient(0, 1))
	assert.InDelta(t, 0.5, ScatteringCoefficient(0.5, 1), 1e-12)
	assert.Equal(t, 0.0, ScatteringCoefficient(1, 1))
	for g := 0.0; g <= 1.0; g += 0.1 {
		for r := 0.0; r <= 1.0; r += 0.1 {
			s := ScatteringCoefficient(g, r)
			assert.True(t, s >= 0 && s <= 1 && !math.IsNaN(s))
		}
	}
}
