package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/onosproject/onos-lib-go/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// PlotPowerDistance saves received power against distance, one line per group.
// The output format follows the file extension.
func PlotPowerDistance(samples []Sample, title, file string) error {
	keys, groups := GroupSamples(samples)
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Distance (m)"
	p.Y.Label.Text = "Received power (dBm)"
	p.Legend.Top = true

	drawn := 0
	for i, g := range keys {
		group := append([]Sample(nil), groups[g]...)
		sort.Slice(group, func(a, b int) bool { return group[a].DistanceM < group[b].DistanceM })

		pts := make(plotter.XYs, 0, len(group))
		for _, s := range group {
			if math.IsNaN(s.RxPowerDbm) || math.IsInf(s.RxPowerDbm, 0) {
				continue
			}
			pts = append(pts, plotter.XY{X: s.DistanceM, Y: s.RxPowerDbm})
		}
		if len(pts) == 0 {
			log.Debugf("group %s has no finite samples, skipping", g.Label())
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(g.Label(), line)
		drawn++
	}
	if drawn == 0 {
		return errors.NewInvalid("no finite samples to plot")
	}
	p.Add(plotter.NewGrid())
	return p.Save(plotWidth, plotHeight, file)
}

// PlotExcessPathLoss saves a box plot of the excess path loss of every group
func PlotExcessPathLoss(samples []Sample, title, file string) error {
	keys, groups := GroupSamples(samples)
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Excess path loss (dB)"

	var names []string
	for _, g := range keys {
		var values plotter.Values
		for _, s := range groups[g] {
			if epl := s.ExcessPathLoss(); !math.IsNaN(epl) && !math.IsInf(epl, 0) {
				values = append(values, epl)
			}
		}
		if len(values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(len(names)), values)
		if err != nil {
			return err
		}
		p.Add(box)
		names = append(names, g.Label())
	}
	if len(names) == 0 {
		return errors.NewInvalid("no finite samples to plot")
	}
	p.NominalX(names...)
	return p.Save(plotWidth, plotHeight, file)
}

// PlotCoverage saves grouped bars of the coverage percentage per threshold
func PlotCoverage(summaries []Summary, thresholds []float64, title, file string) error {
	if len(summaries) == 0 || len(thresholds) == 0 {
		return errors.NewInvalid("nothing to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Coverage (%)"
	p.Legend.Top = true

	barWidth := vg.Points(12)
	for i, thr := range thresholds {
		values := make(plotter.Values, len(summaries))
		for j, s := range summaries {
			if i < len(s.Coverage) {
				values[j] = s.Coverage[i]
			}
		}
		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return err
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(float64(i)-float64(len(thresholds)-1)/2) * barWidth
		p.Add(bars)
		p.Legend.Add(fmt.Sprintf(">= %g dBm", thr), bars)
	}

	names := make([]string, len(summaries))
	for i, s := range summaries {
		names[i] = s.Label()
	}
	p.NominalX(names...)
	return p.Save(plotWidth, plotHeight, file)
}
