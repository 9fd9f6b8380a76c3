package signal

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/nfvri/ran-propagation/pkg/model"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
)

// NoSignal is the path loss of a link without any propagation path
var NoSignal = math.Inf(1)

// 32.44 is the constant value of 20 * log10(4*pi / c) with distance in km and frequency in MHz
const fsplConstant = 32.44

// Model evaluates the path loss of a propagation context in dB
type Model interface {
	Type() model.ModelType
	PathLoss(pc *model.PropagationContext) (float64, error)
}

// FreeSpacePathLoss returns the Friis free space loss for a distance in meters and a frequency in MHz
func FreeSpacePathLoss(distanceM, frequencyMHz float64) float64 {
	distanceKM := math.Max(distanceM, model.MinDistance) / 1000
	return fsplConstant + 20*math.Log10(distanceKM) + 20*math.Log10(frequencyMHz)
}

// FreeSpace is the Friis model; it only applies to line of sight links
type FreeSpace struct{}

func (FreeSpace) Type() model.ModelType {
	return model.ModelFreeSpace
}

// PathLoss returns NoSignal for obstructed links
func (FreeSpace) PathLoss(pc *model.PropagationContext) (float64, error) {
	if !pc.LineOfSight {
		return NoSignal, nil
	}
	pathLoss := FreeSpacePathLoss(pc.Distance(), pc.FrequencyMHz)
	if math.IsNaN(pathLoss) || math.IsInf(pathLoss, 0) {
		return NoSignal, nil
	}
	return pathLoss, nil
}

// ReferenceDistance returns the log-distance reference distance for the environment
func ReferenceDistance(env model.Environment) float64 {
	switch env {
	case model.EnvRural, model.EnvSuburban:
		return 100
	default:
		return 1
	}
}

// PathLossExponent returns the log-distance exponent for the environment and LOS condition
func PathLossExponent(env model.Environment, los bool) float64 {
	switch env {
	case model.EnvFreeSpace:
		return 2.0
	case model.EnvIndoor:
		if los {
			return 1.8
		}
		return 3.0
	case model.EnvRural:
		if los {
			return 2.3
		}
		return 3.0
	case model.EnvSuburban:
		if los {
			return 2.7
		}
		return 3.5
	case model.EnvDenseUrban:
		if los {
			return 3.5
		}
		return 4.5
	default:
		if los {
			return 3.0
		}
		return 4.0
	}
}

// LogDistance extends free space loss at a reference distance with an environment exponent
type LogDistance struct {
	// ReferenceDistance overrides the per environment reference distance when positive
	ReferenceDistance float64
}

func (LogDistance) Type() model.ModelType {
	return model.ModelLogDistance
}

func (m LogDistance) referenceDistance(env model.Environment) float64 {
	if m.ReferenceDistance > 0 {
		return m.ReferenceDistance
	}
	return ReferenceDistance(env)
}

// PathLoss evaluates the deterministic log-distance loss
func (m LogDistance) PathLoss(pc *model.PropagationContext) (float64, error) {
	dRef := m.referenceDistance(pc.Environment)

	ref := pc.Clone()
	dir := r3.Sub(pc.Receiver, pc.Transmitter)
	if r3.Norm(dir) < model.MinDistance {
		dir = r3.Vec{X: 1}
	}
	ref.Receiver = r3.Add(pc.Transmitter, r3.Scale(dRef, r3.Unit(dir)))
	ref.LineOfSight = true

	refLoss, err := FreeSpace{}.PathLoss(ref)
	if err != nil {
		return NoSignal, err
	}
	n := PathLossExponent(pc.Environment, pc.LineOfSight)
	return refLoss + 10*n*math.Log10(pc.Distance()/dRef), nil
}

// MaxShadowingDB bounds the magnitude of a shadowing sample
const MaxShadowingDB = 15.0

// LogDistanceShadowing adds zero-mean log-normal shadowing to the log-distance loss
type LogDistanceShadowing struct {
	LogDistance
	// Sigma overrides the per environment standard deviation when positive
	Sigma float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLogDistanceShadowing returns a shadowing model drawing from src; a nil src is seeded from the clock
func NewLogDistanceShadowing(src rand.Source, sigma float64) *LogDistanceShadowing {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &LogDistanceShadowing{Sigma: sigma, rng: rand.New(src)}
}

func (*LogDistanceShadowing) Type() model.ModelType {
	return model.ModelLogDistanceShadowing
}

// PathLoss evaluates the log-distance loss plus a shadowing sample
func (m *LogDistanceShadowing) PathLoss(pc *model.PropagationContext) (float64, error) {
	pathLoss, err := m.LogDistance.PathLoss(pc)
	if err != nil {
		return NoSignal, err
	}
	sigma := m.Sigma
	if sigma <= 0 {
		sigma = ShadowingSigma(pc.Environment, pc.LineOfSight)
	}
	m.mu.Lock()
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(1))
	}
	sample := ShadowingSample(m.rng, sigma)
	m.mu.Unlock()
	return pathLoss + sample, nil
}

// hataMobileCorrection returns the mobile antenna height correction a(hre)
func hataMobileCorrection(env model.Environment, frequencyMHz, hre float64) float64 {
	if env.IsUrban() {
		if frequencyMHz <= 200 {
			return 8.29*math.Pow(math.Log10(1.54*hre), 2) - 1.1
		}
		return 3.2*math.Pow(math.Log10(11.75*hre), 2) - 4.97
	}
	logF := math.Log10(frequencyMHz)
	return (1.1*logF-0.7)*hre - (1.56*logF - 0.8)
}

// Envelope is the validity range of an empirical model
type Envelope struct {
	MinFrequencyMHz, MaxFrequencyMHz float64
	MinDistanceKM, MaxDistanceKM     float64
	MinTxHeight, MaxTxHeight         float64
	MinRxHeight, MaxRxHeight         float64
}

// Contains reports whether frequency and distance are within the envelope
func (e Envelope) Contains(frequencyMHz, distanceM float64) bool {
	distanceKM := distanceM / 1000
	return frequencyMHz >= e.MinFrequencyMHz && frequencyMHz <= e.MaxFrequencyMHz &&
		distanceKM >= e.MinDistanceKM && distanceKM <= e.MaxDistanceKM
}

// Check returns the reasons pc falls outside the envelope
func (e Envelope) Check(pc *model.PropagationContext) []string {
	var reasons []string
	f := pc.FrequencyMHz
	dKM := pc.Distance() / 1000
	hte := pc.EffectiveTxHeight()
	hre := pc.EffectiveRxHeight()
	if f < e.MinFrequencyMHz || f > e.MaxFrequencyMHz {
		reasons = append(reasons, "frequency")
	}
	if dKM < e.MinDistanceKM || dKM > e.MaxDistanceKM {
		reasons = append(reasons, "distance")
	}
	if hte < e.MinTxHeight || hte > e.MaxTxHeight {
		reasons = append(reasons, "transmitter height")
	}
	if hre < e.MinRxHeight || hre > e.MaxRxHeight {
		reasons = append(reasons, "receiver height")
	}
	return reasons
}

var (
	HataEnvelope = Envelope{
		MinFrequencyMHz: 150, MaxFrequencyMHz: 1500,
		MinDistanceKM: 1, MaxDistanceKM: 20,
		MinTxHeight: 30, MaxTxHeight: 200,
		MinRxHeight: 1, MaxRxHeight: 10,
	}
	Cost231Envelope = Envelope{
		MinFrequencyMHz: 1500, MaxFrequencyMHz: 2000,
		MinDistanceKM: 1, MaxDistanceKM: 20,
		MinTxHeight: 30, MaxTxHeight: 200,
		MinRxHeight: 1, MaxRxHeight: 10,
	}
)

func hataHeights(pc *model.PropagationContext) (float64, float64) {
	hte := pc.EffectiveTxHeight()
	hre := pc.EffectiveRxHeight()
	if hte < 1 {
		hte = 1
	}
	if hre < 1 {
		hre = 1
	}
	return hte, hre
}

// Hata is the Okumura-Hata model for 150-1500 MHz macro cells
type Hata struct{}

func (Hata) Type() model.ModelType {
	return model.ModelHata
}

// PathLoss evaluates the Hata formula; inputs outside the validity envelope are logged, not rejected
func (Hata) PathLoss(pc *model.PropagationContext) (float64, error) {
	if reasons := HataEnvelope.Check(pc); len(reasons) > 0 {
		log.Warnf("Hata model evaluated outside its validity range: %v (f=%vMHz d=%vm)", reasons, pc.FrequencyMHz, pc.Distance())
	}
	f := pc.FrequencyMHz
	hte, hre := hataHeights(pc)
	dKM := pc.Distance() / 1000

	pathLoss := 69.55 + 26.16*math.Log10(f) - 13.82*math.Log10(hte) - hataMobileCorrection(pc.Environment, f, hre) +
		(44.9-6.55*math.Log10(hte))*math.Log10(dKM)
	return pathLoss, nil
}

// Cost231Hata extends Hata to 1500-2000 MHz
type Cost231Hata struct{}

func (Cost231Hata) Type() model.ModelType {
	return model.ModelCost231Hata
}

// PathLoss evaluates the COST-231 Hata formula with a 3 dB metropolitan correction
func (Cost231Hata) PathLoss(pc *model.PropagationContext) (float64, error) {
	if reasons := Cost231Envelope.Check(pc); len(reasons) > 0 {
		log.Warnf("COST-231 Hata model evaluated outside its validity range: %v (f=%vMHz d=%vm)", reasons, pc.FrequencyMHz, pc.Distance())
	}
	f := pc.FrequencyMHz
	hte, hre := hataHeights(pc)
	dKM := pc.Distance() / 1000

	cm := 0.0
	if pc.Environment.IsUrban() {
		cm = 3.0
	}
	pathLoss := 46.3 + 33.9*math.Log10(f) - 13.82*math.Log10(hte) - hataMobileCorrection(pc.Environment, f, hre) +
		(44.9-6.55*math.Log10(hte))*math.Log10(dKM) + cm
	return pathLoss, nil
}

// NewModel returns the empirical model of the given type; shadowing draws from src
func NewModel(modelType model.ModelType, src rand.Source) (Model, bool) {
	switch modelType {
	case model.ModelFreeSpace:
		return FreeSpace{}, true
	case model.ModelLogDistance:
		return LogDistance{}, true
	case model.ModelLogDistanceShadowing:
		return NewLogDistanceShadowing(src, 0), true
	case model.ModelHata:
		return Hata{}, true
	case model.ModelCost231Hata:
		return Cost231Hata{}, true
	}
	return nil, false
}
