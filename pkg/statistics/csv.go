package statistics

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/onosproject/onos-lib-go/pkg/errors"
)

// DefaultFrequencyMHz is used for rows without a frequency column
const DefaultFrequencyMHz = 2100

var sampleHeader = []string{"distance_m", "frequency_mhz", "rx_power_dbm", "path_loss_db", "model", "buildings"}

// accepted column names, in order of preference
var columnAliases = map[string][]string{
	"distance":  {"distance_m", "distance", "dist_m"},
	"frequency": {"frequency_mhz", "freq_mhz", "frequency"},
	"power":     {"rx_power_dbm", "rsrp_dbm", "received_power_dbm", "rx_power"},
	"pathloss":  {"path_loss_db", "pathloss_db", "pl_db"},
	"model":     {"model", "propagation_model"},
	"buildings": {"buildings", "buildings_on", "bld"},
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes samples with a header row
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(sampleHeader); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{
			formatFloat(s.DistanceM),
			formatFloat(s.FrequencyMHz),
			formatFloat(s.RxPowerDbm),
			formatFloat(s.PathLossDB),
			s.Model,
			s.Buildings,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func pickColumn(index map[string]int, concern string) (int, bool) {
	for _, name := range columnAliases[concern] {
		if i, ok := index[name]; ok {
			return i, true
		}
	}
	return -1, false
}

// ReadCSV reads samples written by WriteCSV or exported by other tools. Distance and received
// power columns are required. A missing path loss is filled with the free space reference and a
// missing frequency with DefaultFrequencyMHz.
func ReadCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewInvalid("empty csv input")
	}
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	distCol, ok := pickColumn(index, "distance")
	if !ok {
		return nil, errors.NewInvalid("csv has no distance column, expected one of %v", columnAliases["distance"])
	}
	powerCol, ok := pickColumn(index, "power")
	if !ok {
		return nil, errors.NewInvalid("csv has no received power column, expected one of %v", columnAliases["power"])
	}
	freqCol, hasFreq := pickColumn(index, "frequency")
	plCol, hasPL := pickColumn(index, "pathloss")
	modelCol, hasModel := pickColumn(index, "model")
	bldCol, hasBld := pickColumn(index, "buildings")

	field := func(row []string, col int) string {
		if col < 0 || col >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[col])
	}
	number := func(row []string, col int, line int) (float64, error) {
		v := field(row, col)
		if v == "" {
			return math.NaN(), nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, errors.NewInvalid("line %d: invalid number %q", line, v)
		}
		return f, nil
	}

	var samples []Sample
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		s := Sample{FrequencyMHz: DefaultFrequencyMHz, PathLossDB: math.NaN(), Model: "unknown", Buildings: BuildingsUnknown}
		if s.DistanceM, err = number(row, distCol, line); err != nil {
			return nil, err
		}
		if s.RxPowerDbm, err = number(row, powerCol, line); err != nil {
			return nil, err
		}
		if hasFreq {
			f, err := number(row, freqCol, line)
			if err != nil {
				return nil, err
			}
			if !math.IsNaN(f) {
				s.FrequencyMHz = f
			}
		}
		if hasPL {
			if s.PathLossDB, err = number(row, plCol, line); err != nil {
				return nil, err
			}
		}
		if math.IsNaN(s.PathLossDB) {
			s.PathLossDB = FreeSpaceReference(s.DistanceM, s.FrequencyMHz)
		}
		if hasModel && field(row, modelCol) != "" {
			s.Model = field(row, modelCol)
		}
		if hasBld {
			s.Buildings = NormalizeBuildings(field(row, bldCol))
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// WriteSummaryCSV writes one row per summary with a coverage column per threshold
func WriteSummaryCSV(w io.Writer, summaries []Summary, thresholds []float64) error {
	cw := csv.NewWriter(w)
	header := []string{"model", "buildings", "n_samples", "mean_rsrp_dbm", "mean_epl_db", "std_epl_db"}
	for _, thr := range thresholds {
		header = append(header, fmt.Sprintf("coverage_ge_%d_pct", int(thr)))
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range summaries {
		row := []string{
			s.Model,
			s.Buildings,
			strconv.Itoa(s.Samples),
			formatFloat(s.MeanRSRPDbm),
			formatFloat(s.MeanEPLDB),
			formatFloat(s.StdEPLDB),
		}
		for i := range thresholds {
			v := math.NaN()
			if i < len(s.Coverage) {
				v = s.Coverage[i]
			}
			row = append(row, formatFloat(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
