package propagation

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/nfvri/ran-propagation/pkg/geometry"
	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/nfvri/ran-propagation/pkg/raytrace"
	"github.com/nfvri/ran-propagation/pkg/signal"
	"github.com/onosproject/onos-lib-go/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config assembles a Calculator
type Config struct {
	Selector      Selector
	CacheCapacity int
	// DisableFallback reports failed model evaluations as no signal instead of using free space
	DisableFallback bool
	RayTracing      raytrace.Config
	Sink            raytrace.Sink
	// ShadowingSource seeds the shadowing model; nil seeds from the clock
	ShadowingSource rand.Source
	Penetration     PenetrationEstimator
}

// Estimate is the outcome of one link evaluation
type Estimate struct {
	PathLossDB       float64
	ReceivedPowerDbm float64
	Model            model.ModelType
	LineOfSight      bool
	Cached           bool
}

// Calculator resolves, evaluates and caches path loss for propagation contexts.
// It is safe for concurrent use.
type Calculator struct {
	provider    geometry.Provider
	density     DensitySampler
	selector    Selector
	cache       *Cache
	penetration PenetrationEstimator
	fallback    bool

	mu     sync.RWMutex
	models map[model.ModelType]signal.Model
}

// NewCalculator returns a calculator over the obstacles of provider, which may be nil
func NewCalculator(provider geometry.Provider, config Config) *Calculator {
	c := &Calculator{
		provider:    provider,
		selector:    config.Selector,
		cache:       NewCache(config.CacheCapacity),
		penetration: config.Penetration,
		fallback:    !config.DisableFallback,
		models:      make(map[model.ModelType]signal.Model),
	}
	if sampler, ok := provider.(DensitySampler); ok {
		c.density = sampler
	}
	for _, t := range []model.ModelType{
		model.ModelFreeSpace,
		model.ModelLogDistance,
		model.ModelLogDistanceShadowing,
		model.ModelHata,
		model.ModelCost231Hata,
	} {
		m, _ := signal.NewModel(t, config.ShadowingSource)
		c.models[t] = m
	}
	c.models[model.ModelRayTracing] = raytrace.NewModel(provider, config.Sink, config.RayTracing)
	return c
}

// RegisterModel replaces the model evaluated for its type
func (c *Calculator) RegisterModel(m signal.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[m.Type()] = m
}

func (c *Calculator) model(t model.ModelType) (signal.Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[t]
	return m, ok
}

// Cache returns the calculator's result cache
func (c *Calculator) Cache() *Cache {
	return c.cache
}

// prepare validates pc and returns a copy with the line of sight flag resolved
func (c *Calculator) prepare(pc *model.PropagationContext) (*model.PropagationContext, error) {
	if status := pc.Validate(); !status.IsValid {
		return nil, errors.NewInvalid("invalid propagation context: %s", status.Reason)
	}
	work := pc.Clone()
	if work.Environment == "" {
		work.Environment = model.EnvUrban
	}
	if c.provider != nil {
		blocked, _ := c.provider.SegmentBlocked(work.Transmitter, work.Receiver)
		work.LineOfSight = !blocked
	} else if !work.HasObstacles {
		work.LineOfSight = true
	}
	return work, nil
}

// resolve returns the model type evaluated for a prepared context. Automatically selected
// free space links without line of sight use the log-distance model.
func (c *Calculator) resolve(pc *model.PropagationContext) model.ModelType {
	if pc.Model != model.ModelAuto {
		return pc.Model
	}
	selected := c.selector.Select(pc.Distance(), pc.FrequencyMHz, pc.Environment)
	if selected == model.ModelFreeSpace && !pc.LineOfSight {
		log.Debugf("free space link without line of sight, using %s", model.ModelLogDistance)
		return model.ModelLogDistance
	}
	return selected
}

// Fingerprint returns the cache key of pc
func (c *Calculator) Fingerprint(pc *model.PropagationContext) (Fingerprint, error) {
	work, err := c.prepare(pc)
	if err != nil {
		return Fingerprint{}, err
	}
	return NewFingerprint(work, c.resolve(work)), nil
}

// PathLoss returns the total path loss of the link in dB; +Inf means no signal
func (c *Calculator) PathLoss(pc *model.PropagationContext) (float64, error) {
	estimate, err := c.Estimate(pc)
	if err != nil {
		return 0, err
	}
	return estimate.PathLossDB, nil
}

// ReceivedPower returns the received power of the link in dBm; -Inf means no signal
func (c *Calculator) ReceivedPower(pc *model.PropagationContext) (float64, error) {
	estimate, err := c.Estimate(pc)
	if err != nil {
		return 0, err
	}
	return estimate.ReceivedPowerDbm, nil
}

// Estimate evaluates the link: validation, model resolution, cache lookup, model evaluation,
// environment and penetration corrections, then caching of the total
func (c *Calculator) Estimate(pc *model.PropagationContext) (Estimate, error) {
	work, err := c.prepare(pc)
	if err != nil {
		return Estimate{}, err
	}
	modelType := c.resolve(work)
	m, ok := c.model(modelType)
	if !ok {
		return Estimate{}, errors.NewInvalid("unsupported path loss model %s", modelType)
	}

	estimate := Estimate{Model: modelType, LineOfSight: work.LineOfSight}
	key := NewFingerprint(work, modelType)
	if loss, ok := c.cache.TryGet(key); ok {
		estimate.PathLossDB = loss
		estimate.ReceivedPowerDbm = signal.ReceivedPower(work, loss)
		estimate.Cached = true
		return estimate, nil
	}

	loss := c.evaluate(m, work)
	if modelType != model.ModelRayTracing && signal.HasSignal(loss) {
		loss += EnvironmentCorrection(c.density, work)
		if c.penetration != nil {
			loss += c.penetration.PenetrationLoss(work)
		}
	}
	c.cache.Store(key, loss)

	estimate.PathLossDB = loss
	estimate.ReceivedPowerDbm = signal.ReceivedPower(work, loss)
	return estimate, nil
}

// evaluate runs the model, replacing panics, errors and NaN results with the fallback loss
func (c *Calculator) evaluate(m signal.Model, pc *model.PropagationContext) (loss float64) {
	name := m.Type().String()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("path loss model %s failed: %v", name, r)
			loss = c.fallbackLoss(pc, name)
		}
		evaluationSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	evaluationsTotal.WithLabelValues(name).Inc()
	var err error
	loss, err = m.PathLoss(pc)
	if err != nil {
		log.Errorf("path loss model %s failed: %v", name, err)
		return c.fallbackLoss(pc, name)
	}
	if math.IsNaN(loss) {
		log.Errorf("path loss model %s returned NaN", name)
		return c.fallbackLoss(pc, name)
	}
	return loss
}

func (c *Calculator) fallbackLoss(pc *model.PropagationContext, name string) float64 {
	fallbacksTotal.WithLabelValues(name).Inc()
	if !c.fallback {
		return signal.NoSignal
	}
	return signal.FreeSpacePathLoss(pc.Distance(), pc.FrequencyMHz)
}
