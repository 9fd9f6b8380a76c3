package statistics

import (
	"math"
	"sort"
	"strings"

	"github.com/nfvri/ran-propagation/pkg/propagation"
	"github.com/nfvri/ran-propagation/pkg/signal"
	"github.com/nfvri/ran-propagation/pkg/utils"
	"gonum.org/v1/gonum/stat"
)

// DefaultThresholds are the coverage thresholds in dBm
var DefaultThresholds = []float64{-95, -100, -110}

const (
	BuildingsOn      = "ON"
	BuildingsOff     = "OFF"
	BuildingsUnknown = "unknown"
)

// Sample is one received power measurement of a simulation run
type Sample struct {
	DistanceM    float64
	FrequencyMHz float64
	RxPowerDbm   float64
	PathLossDB   float64
	Model        string
	Buildings    string
}

// FreeSpaceReference returns the free space loss with distances floored at 1 mm
func FreeSpaceReference(distanceM, frequencyMHz float64) float64 {
	return signal.FreeSpacePathLoss(distanceM, frequencyMHz)
}

// ExcessPathLoss returns the path loss above free space
func (s Sample) ExcessPathLoss() float64 {
	return s.PathLossDB - FreeSpaceReference(s.DistanceM, s.FrequencyMHz)
}

// BuildingsLabel returns the building flag label
func BuildingsLabel(on bool) string {
	return utils.If(on, BuildingsOn, BuildingsOff)
}

// NormalizeBuildings maps the usual spellings of the building flag to ON and OFF
func NormalizeBuildings(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return BuildingsOn
	case "0", "false", "off", "no":
		return BuildingsOff
	case "":
		return BuildingsUnknown
	}
	return v
}

// FromLinkResults converts successful link results into samples
func FromLinkResults(results []propagation.LinkResult, buildings bool) []Sample {
	var samples []Sample
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		samples = append(samples, Sample{
			DistanceM:    r.DistanceM,
			FrequencyMHz: r.FrequencyMHz,
			RxPowerDbm:   r.ReceivedPowerDbm,
			PathLossDB:   r.PathLossDB,
			Model:        r.Model,
			Buildings:    BuildingsLabel(buildings),
		})
	}
	return samples
}

// CoveragePercent returns the percentage of powers at or above threshold
func CoveragePercent(powers []float64, thresholdDbm float64) float64 {
	if len(powers) == 0 {
		return 0
	}
	covered := 0
	for _, p := range powers {
		if p >= thresholdDbm {
			covered++
		}
	}
	return 100 * float64(covered) / float64(len(powers))
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// ErrorReport compares simulated received power with the analytic free space prediction
type ErrorReport struct {
	Model    string
	Samples  int
	RMSE     float64
	MeanBias float64
}

// ErrorMetrics returns the RMSE and mean bias of the samples' received power against
// txPowerDbm minus free space loss. Samples without signal are ignored.
func ErrorMetrics(samples []Sample, txPowerDbm float64) ErrorReport {
	var diffs, squared []float64
	for _, s := range samples {
		if math.IsNaN(s.RxPowerDbm) || math.IsInf(s.RxPowerDbm, 0) {
			continue
		}
		d := s.RxPowerDbm - (txPowerDbm - FreeSpaceReference(s.DistanceM, s.FrequencyMHz))
		diffs = append(diffs, d)
		squared = append(squared, d*d)
	}
	report := ErrorReport{Samples: len(diffs)}
	if len(diffs) == 0 {
		report.RMSE, report.MeanBias = math.NaN(), math.NaN()
		return report
	}
	report.RMSE = math.Sqrt(stat.Mean(squared, nil))
	report.MeanBias = stat.Mean(diffs, nil)
	return report
}

// ErrorMetricsByModel returns one error report per model, ordered by model
func ErrorMetricsByModel(samples []Sample, txPowerDbm float64) []ErrorReport {
	byModel := make(map[string][]Sample)
	for _, s := range samples {
		byModel[s.Model] = append(byModel[s.Model], s)
	}
	var reports []ErrorReport
	for name, group := range byModel {
		r := ErrorMetrics(group, txPowerDbm)
		r.Model = name
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Model < reports[j].Model })
	return reports
}

// Group identifies samples of one model with buildings on or off
type Group struct {
	Model     string
	Buildings string
}

// Label returns the display label of the group
func (g Group) Label() string {
	return g.Model + " (Bld " + g.Buildings + ")"
}

// GroupSamples splits samples by model and building flag; groups are ordered by model then flag
func GroupSamples(samples []Sample) ([]Group, map[Group][]Sample) {
	groups := make(map[Group][]Sample)
	for _, s := range samples {
		g := Group{Model: s.Model, Buildings: s.Buildings}
		groups[g] = append(groups[g], s)
	}
	keys := make([]Group, 0, len(groups))
	for g := range groups {
		keys = append(keys, g)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Model != keys[j].Model {
			return keys[i].Model < keys[j].Model
		}
		return keys[i].Buildings < keys[j].Buildings
	})
	return keys, groups
}

// Summary describes one group of samples
type Summary struct {
	Group
	Samples     int
	MeanRSRPDbm float64
	MeanEPLDB   float64
	StdEPLDB    float64
	// Coverage holds the coverage percentage for each threshold
	Coverage []float64
}

// Summarize returns per group statistics. Means and deviations skip samples without signal;
// coverage counts them as not covered.
func Summarize(samples []Sample, thresholds []float64) []Summary {
	keys, groups := GroupSamples(samples)
	summaries := make([]Summary, 0, len(keys))
	for _, g := range keys {
		group := groups[g]
		powers := make([]float64, len(group))
		epl := make([]float64, len(group))
		for i, s := range group {
			powers[i] = s.RxPowerDbm
			epl[i] = s.ExcessPathLoss()
		}

		summary := Summary{Group: g, Samples: len(group), MeanRSRPDbm: math.NaN(), MeanEPLDB: math.NaN(), StdEPLDB: math.NaN()}
		if p := finite(powers); len(p) > 0 {
			summary.MeanRSRPDbm = stat.Mean(p, nil)
		}
		if e := finite(epl); len(e) > 0 {
			summary.MeanEPLDB, summary.StdEPLDB = stat.PopMeanStdDev(e, nil)
		}
		for _, thr := range thresholds {
			summary.Coverage = append(summary.Coverage, CoveragePercent(powers, thr))
		}
		summaries = append(summaries, summary)
	}
	return summaries
}
