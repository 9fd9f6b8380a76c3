// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"os"
	"sort"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v2"
)

// Scenario is a propagation scene with transmitters, receivers and buildings
type Scenario struct {
	Settings     Settings            `yaml:"settings"`
	Materials    map[string]Material `yaml:"materials"`
	Buildings    []Building          `yaml:"buildings"`
	Transmitters []Node              `yaml:"transmitters"`
	Receivers    []Node              `yaml:"receivers"`
}

// Settings are the link parameters shared by every TX-RX pair of a scenario
type Settings struct {
	FrequencyMHz          float64 `yaml:"frequency"`
	TxPowerDbm            float64 `yaml:"txPower"`
	AntennaGainDbi        float64 `yaml:"antennaGain"`
	Environment           string  `yaml:"environment"`
	Model                 string  `yaml:"model"`
	MaxReflections        int     `yaml:"maxReflections"`
	MaxDiffractions       int     `yaml:"maxDiffractions"`
	MaxScattering         int     `yaml:"maxScattering"`
	PreferRayTracing      bool    `yaml:"preferRayTracing"`
	MaxRayTracingDistance float64 `yaml:"maxRayTracingDistance"`
	CacheCapacity         int     `yaml:"cacheCapacity"`
	SensitivityDbm        float64 `yaml:"sensitivity"`
	Workers               int     `yaml:"workers"`
	Penetration           bool    `yaml:"penetration"`
	UseUTD                bool    `yaml:"useUTD"`
}

// Point is a scenario position in meters, Z up
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Vec converts the point to a vector
func (p Point) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// Building is an axis-aligned box obstacle
type Building struct {
	ID       string `yaml:"id"`
	Min      Point  `yaml:"min"`
	Max      Point  `yaml:"max"`
	Material string `yaml:"material"`
}

// Node is a transmitter or receiver
type Node struct {
	ID       string  `yaml:"id"`
	Position Point   `yaml:"position"`
	Height   float64 `yaml:"height"`
}

// LoadConfig reads the named scenario configuration from the usual config locations.
// Viper only locates the file: its YAML map decoding turns the bare key y into a boolean.
func LoadConfig(scenario *Scenario, configname string) error {
	v := viper.New()
	v.SetConfigName(configname)
	v.AddConfigPath("/etc/propsim/config/")
	v.AddConfigPath(".")
	v.AddConfigPath("./model/")
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	loaded, err := LoadScenario(v.ConfigFileUsed())
	if err != nil {
		return err
	}
	*scenario = *loaded
	return nil
}

// LoadScenario reads a scenario from the given file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NewNotFound("scenario file %s: %v", path, err)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %v", path, err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario document
func ParseScenario(data []byte) (*Scenario, error) {
	scenario := &Scenario{}
	if err := yaml.Unmarshal(data, scenario); err != nil {
		return nil, errors.NewInvalid("failed to parse scenario: %v", err)
	}
	return scenario, nil
}

// MaterialByName resolves a material from the scenario library, then the built-in one
func (s *Scenario) MaterialByName(name string) (Material, bool) {
	if m, ok := s.Materials[name]; ok {
		if m.Name == "" {
			m.Name = name
		}
		return m, true
	}
	m, ok := DefaultMaterials()[name]
	return m, ok
}

// Obstacles converts the scenario buildings into obstacles. Buildings with an unknown
// material get the default material; their IDs are returned in unresolved.
func (s *Scenario) Obstacles() (obstacles []Obstacle, unresolved []string) {
	for i, b := range s.Buildings {
		id := b.ID
		if id == "" {
			id = fmt.Sprintf("building-%d", i)
		}
		material, ok := s.MaterialByName(b.Material)
		if !ok {
			material = DefaultMaterial()
			unresolved = append(unresolved, id)
		}
		box := NewBox(b.Min.Vec(), b.Max.Vec())
		obstacles = append(obstacles, Obstacle{ID: id, Bounds: box, Material: material})
	}
	sort.Slice(obstacles, func(i, j int) bool { return obstacles[i].ID < obstacles[j].ID })
	return obstacles, unresolved
}

// NewContext builds the propagation context of a TX-RX pair under the scenario settings
func (s *Scenario) NewContext(tx, rx Node) (*PropagationContext, error) {
	modelType, err := ParseModelType(s.Settings.Model)
	if err != nil {
		return nil, errors.NewInvalid("%v", err)
	}
	env := Environment(s.Settings.Environment)
	if env == "" {
		env = EnvUrban
	}
	return &PropagationContext{
		Transmitter:     tx.Position.Vec(),
		Receiver:        rx.Position.Vec(),
		FrequencyMHz:    s.Settings.FrequencyMHz,
		TxPowerDbm:      s.Settings.TxPowerDbm,
		AntennaGainDbi:  s.Settings.AntennaGainDbi,
		TxHeight:        tx.Height,
		RxHeight:        rx.Height,
		Environment:     env,
		Model:           modelType,
		MaxReflections:  s.Settings.MaxReflections,
		MaxDiffractions: s.Settings.MaxDiffractions,
		MaxScattering:   s.Settings.MaxScattering,
		ObstacleLayer:   "buildings",
		HasObstacles:    len(s.Buildings) > 0,
	}, nil
}
