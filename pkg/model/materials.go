package model

// Material names of the built-in library
const (
	MaterialConcrete = "concrete"
	MaterialBrick    = "brick"
	MaterialWood     = "wood"
	MaterialGlass    = "glass"
	MaterialMetal    = "metal"
)

// DefaultMaterials returns the built-in material library.
// Permittivity and conductivity parameters follow ITU-R P.2040 Table 3.
func DefaultMaterials() map[string]Material {
	return map[string]Material{
		MaterialConcrete: {
			Name:                 MaterialConcrete,
			RelativePermittivity: 5.24,
			ConductivityCoeff:    0.0462,
			ConductivityExponent: 0.7822,
			RoughnessRMS:         0.002,
			BaselineReflection:   0.6,
			PenetrationLossDB:    15,
		},
		MaterialBrick: {
			Name:                 MaterialBrick,
			RelativePermittivity: 3.91,
			ConductivityCoeff:    0.0238,
			ConductivityExponent: 0.16,
			RoughnessRMS:         0.003,
			BaselineReflection:   0.5,
			PenetrationLossDB:    10,
		},
		MaterialWood: {
			Name:                 MaterialWood,
			RelativePermittivity: 1.99,
			ConductivityCoeff:    0.0047,
			ConductivityExponent: 1.0718,
			RoughnessRMS:         0.001,
			BaselineReflection:   0.3,
			PenetrationLossDB:    5,
		},
		MaterialGlass: {
			Name:                 MaterialGlass,
			RelativePermittivity: 6.31,
			ConductivityCoeff:    0.0036,
			ConductivityExponent: 1.3394,
			RoughnessRMS:         0.0001,
			BaselineReflection:   0.4,
			PenetrationLossDB:    3,
		},
		MaterialMetal: {
			Name:                 MaterialMetal,
			RelativePermittivity: 1,
			ConductivityCoeff:    1e7,
			ConductivityExponent: 0,
			RoughnessRMS:         0.0005,
			BaselineReflection:   0.95,
			PenetrationLossDB:    30,
		},
	}
}

// DefaultMaterial is used for obstacles without a resolvable material
func DefaultMaterial() Material {
	return DefaultMaterials()[MaterialConcrete]
}
