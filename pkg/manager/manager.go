// SPDX-FileCopyrightText: 2020-present Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package manager

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/nfvri/ran-propagation/pkg/geometry"
	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/nfvri/ran-propagation/pkg/propagation"
	"github.com/nfvri/ran-propagation/pkg/raytrace"
	"github.com/nfvri/ran-propagation/pkg/signal"
	links "github.com/nfvri/ran-propagation/pkg/store/redis"
	"github.com/nfvri/ran-propagation/pkg/utils"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	"github.com/onosproject/onos-lib-go/pkg/logging"
	"github.com/redis/go-redis/v9"
)

var log = logging.GetLogger()

const (
	defaultSensitivityDbm = -100
	defaultCoverageGuessM = 1000
	redisConnectRetries   = 5
)

// Config is a manager configuration
type Config struct {
	// ScenarioPath is a scenario file; when empty ScenarioName is looked up in the config paths
	ScenarioPath string
	ScenarioName string
	RedisEnabled bool
	// Store overrides the redis store
	Store    links.Store
	Sink     raytrace.Sink
	Consumer propagation.LinkConsumer
}

// Snapshot is one computed link matrix
type Snapshot struct {
	ID      string
	Results []propagation.LinkResult
}

// Manager loads a scenario and evaluates its link matrix
type Manager struct {
	config     Config
	scenario   *model.Scenario
	scene      *geometry.Scene
	calculator *propagation.Calculator
	store      links.Store
	rdbClient  *redis.Client
}

// NewManager creates a new manager
func NewManager(config *Config) (*Manager, error) {
	log.Info("Creating Manager")
	if config.ScenarioPath == "" && config.ScenarioName == "" {
		return nil, errors.NewInvalid("no scenario configured")
	}
	return &Manager{config: *config}, nil
}

// Run starts the manager and computes the scenario link matrix once
func (m *Manager) Run(ctx context.Context) {
	log.Info("Running Manager")
	if err := m.Start(ctx); err != nil {
		log.Error("Unable to run Manager:", err)
		return
	}
	snapshot, err := m.ComputeLinkMatrix(ctx)
	if err != nil {
		log.Error("Unable to compute link matrix:", err)
		return
	}
	log.Infof("Computed %d links in snapshot %s", len(snapshot.Results), snapshot.ID)
}

// Start loads the scenario and builds the obstacle scene, the calculator and the store
func (m *Manager) Start(ctx context.Context) error {
	scenario, err := m.loadScenario()
	if err != nil {
		log.Error(err)
		return err
	}
	m.scenario = scenario

	m.initScene()
	m.initCalculator()

	if err := m.initStore(ctx); err != nil {
		return err
	}
	return nil
}

// Close releases the redis connection
func (m *Manager) Close() {
	log.Info("Closing Manager")
	if m.rdbClient != nil {
		if err := m.rdbClient.Close(); err != nil {
			log.Warn(err)
		}
	}
}

func (m *Manager) loadScenario() (*model.Scenario, error) {
	if m.config.ScenarioPath != "" {
		return model.LoadScenario(m.config.ScenarioPath)
	}
	scenario := &model.Scenario{}
	if err := model.LoadConfig(scenario, m.config.ScenarioName); err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %v", m.config.ScenarioName, err)
	}
	return scenario, nil
}

func (m *Manager) initScene() {
	obstacles, unresolved := m.scenario.Obstacles()
	for _, id := range unresolved {
		log.Warnf("building %s has an unknown material, using %s", id, model.DefaultMaterial().Name)
	}
	m.scene = geometry.NewScene(obstacles, geometry.DefaultCellSize)
	log.Infof("Loaded %d buildings, %d transmitters, %d receivers", m.scene.Len(), len(m.scenario.Transmitters), len(m.scenario.Receivers))
}

func (m *Manager) initCalculator() {
	settings := m.scenario.Settings
	selector := propagation.NewSelector(settings.PreferRayTracing)
	if settings.MaxRayTracingDistance > 0 {
		selector.MaxRayTracingDistance = settings.MaxRayTracingDistance
	}
	rtConfig := raytrace.DefaultConfig()
	rtConfig.UseUTD = settings.UseUTD

	config := propagation.Config{
		Selector:      selector,
		CacheCapacity: settings.CacheCapacity,
		RayTracing:    rtConfig,
		Sink:          m.config.Sink,
	}
	if settings.Penetration {
		config.Penetration = propagation.WallPenetration{Scene: m.scene}
	}
	m.calculator = propagation.NewCalculator(m.scene, config)
}

func (m *Manager) initStore(ctx context.Context) error {
	if m.config.Store != nil {
		m.store = m.config.Store
		return nil
	}
	if !m.config.RedisEnabled {
		return nil
	}
	redisHost := utils.GetEnv("REDIS_HOST", "localhost")
	redisPort := utils.GetEnv("REDIS_PORT", "6379")
	rdbClient, err := links.InitClient(ctx, redisHost, redisPort,
		utils.GetEnv("REDIS_DB", "0"),
		utils.GetEnv("REDIS_USERNAME", ""),
		utils.GetEnv("REDIS_PASSWORD", ""),
		redisConnectRetries)
	if err != nil {
		log.Error(err)
		return err
	}
	m.rdbClient = rdbClient
	m.store = &links.RedisStore{LinkDB: rdbClient}
	return nil
}

// Scenario returns the loaded scenario
func (m *Manager) Scenario() *model.Scenario {
	return m.scenario
}

// Calculator returns the scenario path loss calculator
func (m *Manager) Calculator() *propagation.Calculator {
	return m.calculator
}

// Store returns the link matrix store, nil when persistence is disabled
func (m *Manager) Store() links.Store {
	return m.store
}

// Links returns every transmitter-receiver pair of the scenario
func (m *Manager) Links() ([]propagation.Link, error) {
	if m.scenario == nil {
		return nil, errors.NewInvalid("manager not started")
	}
	var result []propagation.Link
	for _, tx := range m.scenario.Transmitters {
		for _, rx := range m.scenario.Receivers {
			pc, err := m.scenario.NewContext(tx, rx)
			if err != nil {
				return nil, err
			}
			result = append(result, propagation.Link{TxID: tx.ID, RxID: rx.ID, Context: pc})
		}
	}
	return result, nil
}

// ComputeLinkMatrix evaluates every link of the scenario and stores the results when a store is configured
func (m *Manager) ComputeLinkMatrix(ctx context.Context) (*Snapshot, error) {
	pairs, err := m.Links()
	if err != nil {
		return nil, err
	}
	batch := propagation.NewBatchCalculator(m.calculator, m.scenario.Settings.Workers, m.config.Consumer)
	results, err := batch.Compute(ctx, pairs)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Err != nil {
			log.Warnf("link %s -> %s: %v", r.TxID, r.RxID, r.Err)
		}
	}

	snapshot := &Snapshot{ID: uuid.New().String(), Results: results}
	if m.store != nil {
		name := m.config.ScenarioName
		if name == "" {
			name = m.config.ScenarioPath
		}
		if err := m.store.AddLinkMatrix(ctx, snapshot.ID, links.NewLinkMatrix(name, results)); err != nil {
			return nil, fmt.Errorf("failed to store link matrix %s: %v", snapshot.ID, err)
		}
		log.Infof("Stored link matrix %s", snapshot.ID)
	}
	return snapshot, nil
}

// coverageModel returns a deterministic model for the coverage solve. Automatic selection,
// ray tracing and shadowing are approximated by the log-distance model.
func coverageModel(t model.ModelType, los bool) signal.Model {
	switch t {
	case model.ModelFreeSpace:
		if los {
			return signal.FreeSpace{}
		}
	case model.ModelHata:
		return signal.Hata{}
	case model.ModelCost231Hata:
		return signal.Cost231Hata{}
	}
	return signal.LogDistance{}
}

// CoverageRadii returns the distance at which each transmitter's received power drops to the
// scenario sensitivity, along the bearing of its first receiver. Transmitters whose solve
// does not converge are left out.
func (m *Manager) CoverageRadii() (map[string]float64, error) {
	if m.scenario == nil {
		return nil, errors.NewInvalid("manager not started")
	}
	sensitivity := m.scenario.Settings.SensitivityDbm
	if sensitivity == 0 {
		sensitivity = defaultSensitivityDbm
	}

	radii := make(map[string]float64)
	for _, tx := range m.scenario.Transmitters {
		rx := model.Node{ID: "bearing", Position: tx.Position}
		rx.Position.X++
		if len(m.scenario.Receivers) > 0 {
			rx = m.scenario.Receivers[0]
		}
		pc, err := m.scenario.NewContext(tx, rx)
		if err != nil {
			return nil, err
		}
		blocked, _ := m.scene.SegmentBlocked(pc.Transmitter, pc.Receiver)
		pc.LineOfSight = !blocked

		radius, ok := signal.CoverageRadius(coverageModel(pc.Model, pc.LineOfSight), pc, sensitivity, defaultCoverageGuessM)
		if !ok {
			log.Warnf("no coverage radius for transmitter %s", tx.ID)
			continue
		}
		log.Infof("Transmitter %s covers %v m", tx.ID, utils.RoundToDecimal(radius, 1))
		radii[tx.ID] = radius
	}
	return radii, nil
}

// TransmitterIDs returns the sorted transmitter ids of the scenario
func (m *Manager) TransmitterIDs() []string {
	if m.scenario == nil {
		return nil
	}
	ids := make([]string, 0, len(m.scenario.Transmitters))
	for _, tx := range m.scenario.Transmitters {
		ids = append(ids, tx.ID)
	}
	sort.Strings(ids)
	return ids
}
