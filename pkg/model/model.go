// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// MinDistance is the smallest TX-RX separation in meters used by the models
const MinDistance = 0.001

// Environment classifies the propagation surroundings of a link
type Environment string

const (
	EnvFreeSpace  Environment = "freespace"
	EnvRural      Environment = "rural"
	EnvSuburban   Environment = "suburban"
	EnvUrban      Environment = "urban"
	EnvDenseUrban Environment = "denseurban"
	EnvIndoor     Environment = "indoor"
)

// IsKnown reports whether env is one of the supported environments
func (env Environment) IsKnown() bool {
	switch env {
	case EnvFreeSpace, EnvRural, EnvSuburban, EnvUrban, EnvDenseUrban, EnvIndoor:
		return true
	}
	return false
}

// IsUrban reports whether env is a built-up (large city) environment
func (env Environment) IsUrban() bool {
	return env == EnvUrban || env == EnvDenseUrban
}

// ModelType identifies a path loss model
type ModelType int

const (
	ModelAuto ModelType = iota
	ModelFreeSpace
	ModelLogDistance
	ModelLogDistanceShadowing
	ModelHata
	ModelCost231Hata
	ModelRayTracing
)

var modelNames = map[ModelType]string{
	ModelAuto:                 "auto",
	ModelFreeSpace:            "freespace",
	ModelLogDistance:          "logdistance",
	ModelLogDistanceShadowing: "logdistanceshadowing",
	ModelHata:                 "hata",
	ModelCost231Hata:          "cost231hata",
	ModelRayTracing:           "raytracing",
}

func (m ModelType) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("model(%d)", int(m))
}

// ParseModelType returns the model type with the given name
func ParseModelType(name string) (ModelType, error) {
	if name == "" {
		return ModelAuto, nil
	}
	for m, n := range modelNames {
		if n == name {
			return m, nil
		}
	}
	return ModelAuto, fmt.Errorf("unknown path loss model %q", name)
}

// PropagationContext carries everything needed to evaluate one TX-RX link
type PropagationContext struct {
	Transmitter    r3.Vec
	Receiver       r3.Vec
	FrequencyMHz   float64
	TxPowerDbm     float64
	AntennaGainDbi float64
	// TxHeight and RxHeight are effective antenna heights above ground; zero means use the Z coordinate
	TxHeight    float64
	RxHeight    float64
	Environment Environment
	Model       ModelType

	MaxReflections  int
	MaxDiffractions int
	MaxScattering   int

	// ObstacleLayer names the obstacle set the link is evaluated against
	ObstacleLayer string
	HasObstacles  bool
	LineOfSight   bool
}

// Clone returns an independent copy of the context
func (pc *PropagationContext) Clone() *PropagationContext {
	clone := *pc
	return &clone
}

// Distance returns the 3D TX-RX distance in meters, never below MinDistance
func (pc *PropagationContext) Distance() float64 {
	return math.Max(r3.Norm(r3.Sub(pc.Receiver, pc.Transmitter)), MinDistance)
}

// EffectiveTxHeight returns the transmitter antenna height
func (pc *PropagationContext) EffectiveTxHeight() float64 {
	if pc.TxHeight > 0 {
		return pc.TxHeight
	}
	return pc.Transmitter.Z
}

// EffectiveRxHeight returns the receiver antenna height
func (pc *PropagationContext) EffectiveRxHeight() float64 {
	if pc.RxHeight > 0 {
		return pc.RxHeight
	}
	return pc.Receiver.Z
}

// Validate checks the context invariants
func (pc *PropagationContext) Validate() ModelValidityStatus {
	switch {
	case pc == nil:
		return Invalid("missing propagation context")
	case !(pc.FrequencyMHz > 0) || math.IsInf(pc.FrequencyMHz, 0):
		return Invalid(fmt.Sprintf("frequency must be positive, got %v MHz", pc.FrequencyMHz))
	case !(pc.TxPowerDbm > 0) || math.IsInf(pc.TxPowerDbm, 0):
		return Invalid(fmt.Sprintf("transmit power must be positive, got %v dBm", pc.TxPowerDbm))
	case !isFinite(pc.AntennaGainDbi):
		return Invalid(fmt.Sprintf("antenna gain must be finite, got %v dBi", pc.AntennaGainDbi))
	case !vecFinite(pc.Transmitter):
		return Invalid("transmitter position is not finite")
	case !vecFinite(pc.Receiver):
		return Invalid("receiver position is not finite")
	case pc.MaxReflections < 0 || pc.MaxDiffractions < 0 || pc.MaxScattering < 0:
		return Invalid("maximum path counts must not be negative")
	case pc.Environment != "" && !pc.Environment.IsKnown():
		return Invalid(fmt.Sprintf("unknown environment %q", pc.Environment))
	}
	return Valid()
}

// SpeedOfLight in m/s
const SpeedOfLight = 299792458.0

// ModelValidityStatus reports whether a context can be evaluated and why not
type ModelValidityStatus struct {
	IsValid bool
	Reason  string
}

func Valid() ModelValidityStatus {
	return ModelValidityStatus{IsValid: true}
}

func Invalid(reason string) ModelValidityStatus {
	return ModelValidityStatus{Reason: reason}
}

// MechanismKind names the propagation mechanism of a traced path
type MechanismKind int

const (
	LOS MechanismKind = iota
	Reflection
	Diffraction
	Scattering
)

func (k MechanismKind) String() string {
	switch k {
	case LOS:
		return "los"
	case Reflection:
		return "reflection"
	case Diffraction:
		return "diffraction"
	case Scattering:
		return "scattering"
	}
	return "unknown"
}

// PathContribution is a single traced propagation path
type PathContribution struct {
	Kind       MechanismKind
	LossDB     float64
	LengthM    float64
	ExtraPhase float64
}

// Material describes the electromagnetic properties of an obstacle surface
type Material struct {
	Name                 string  `yaml:"name"`
	RelativePermittivity float64 `yaml:"permittivity"`
	ConductivityCoeff    float64 `yaml:"conductivity"`
	ConductivityExponent float64 `yaml:"conductivityExponent"`
	RoughnessRMS         float64 `yaml:"roughness"`
	BaselineReflection   float64 `yaml:"reflection"`
	PenetrationLossDB    float64 `yaml:"penetrationLoss"`
}

// Conductivity returns the conductivity in S/m at the given frequency
func (m Material) Conductivity(frequencyMHz float64) float64 {
	return m.ConductivityCoeff * math.Pow(frequencyMHz/1000, m.ConductivityExponent)
}

// Obstacle is an axis-aligned box (building) with a surface material
type Obstacle struct {
	ID       string
	Bounds   r3.Box
	Material Material
}

// NewBox returns the box spanned by two opposite corners
func NewBox(a, b r3.Vec) r3.Box {
	return r3.Box{
		Min: r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)},
		Max: r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)},
	}
}

// Center returns the center point of the obstacle
func (o Obstacle) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(o.Bounds.Min, o.Bounds.Max))
}

// Contains reports whether p lies inside or on the obstacle
func (o Obstacle) Contains(p r3.Vec) bool {
	return p.X >= o.Bounds.Min.X && p.X <= o.Bounds.Max.X &&
		p.Y >= o.Bounds.Min.Y && p.Y <= o.Bounds.Max.Y &&
		p.Z >= o.Bounds.Min.Z && p.Z <= o.Bounds.Max.Z
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func vecFinite(v r3.Vec) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}
