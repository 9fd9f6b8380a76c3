package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nfvri/ran-propagation/pkg/statistics"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newAnalyzeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize link samples from a CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, v)
		},
	}
	flags := cmd.Flags()
	flags.String("input", "", "CSV file of link samples")
	flags.Float64("tx-power", 30, "transmit power in dBm of the free space reference")
	flags.Float64Slice("thresholds", statistics.DefaultThresholds, "coverage thresholds in dBm")
	flags.String("summary", "", "write the group summary to this CSV file")
	flags.String("plots", "", "write PNG plots to this directory")
	return cmd
}

func runAnalyze(cmd *cobra.Command, v *viper.Viper) error {
	input := v.GetString("input")
	if input == "" {
		return fmt.Errorf("--input is required")
	}
	thresholds, err := cmd.Flags().GetFloat64Slice("thresholds")
	if err != nil {
		return err
	}

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	samples, err := statistics.ReadCSV(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to read %s: %v", input, err)
	}
	log.Infof("loaded %d samples from %s", len(samples), input)

	summaries := statistics.Summarize(samples, thresholds)
	headers := []interface{}{"Model", "Buildings", "Samples", "Mean RSRP (dBm)", "Mean EPL (dB)", "Std EPL (dB)"}
	for _, thr := range thresholds {
		headers = append(headers, fmt.Sprintf(">= %g dBm (%%)", thr))
	}
	tbl := newTable(cmd, headers...)
	for _, s := range summaries {
		row := []interface{}{s.Model, s.Buildings, s.Samples, formatDB(s.MeanRSRPDbm), formatDB(s.MeanEPLDB), formatDB(s.StdEPLDB)}
		for _, c := range s.Coverage {
			row = append(row, fmt.Sprintf("%.1f", c))
		}
		tbl.AddRow(row...)
	}
	tbl.Print()

	fmt.Fprintln(cmd.OutOrStdout())
	errorsTbl := newTable(cmd, "Model", "Samples", "RMSE (dB)", "Mean bias (dB)")
	for _, r := range statistics.ErrorMetricsByModel(samples, v.GetFloat64("tx-power")) {
		errorsTbl.AddRow(r.Model, r.Samples, formatDB(r.RMSE), formatDB(r.MeanBias))
	}
	errorsTbl.Print()

	if file := v.GetString("summary"); file != "" {
		out, err := os.Create(file)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := statistics.WriteSummaryCSV(out, summaries, thresholds); err != nil {
			return fmt.Errorf("failed to write %s: %v", file, err)
		}
	}

	if dir := v.GetString("plots"); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		if err := statistics.PlotPowerDistance(samples, "Received power vs distance", filepath.Join(dir, "power_vs_distance.png")); err != nil {
			return err
		}
		if err := statistics.PlotExcessPathLoss(samples, "Excess path loss", filepath.Join(dir, "excess_path_loss.png")); err != nil {
			return err
		}
		if err := statistics.PlotCoverage(summaries, thresholds, "Coverage", filepath.Join(dir, "coverage.png")); err != nil {
			return err
		}
	}
	return nil
}
