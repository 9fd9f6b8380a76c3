package main

import (
	"fmt"
	"os"

	"github.com/nfvri/ran-propagation/pkg/manager"
	"github.com/nfvri/ran-propagation/pkg/statistics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newMatrixCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Evaluate every transmitter-receiver link of a scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrix(cmd, v)
		},
	}
	flags := cmd.Flags()
	flags.String("scenario", "", "scenario file")
	flags.Bool("redis", false, "store the link matrix in redis (REDIS_HOST, REDIS_PORT)")
	flags.String("csv", "", "write the link samples to this CSV file")
	flags.Bool("coverage", true, "report the coverage radius of each transmitter")
	return cmd
}

func runMatrix(cmd *cobra.Command, v *viper.Viper) error {
	path := v.GetString("scenario")
	if path == "" {
		return fmt.Errorf("--scenario is required")
	}
	mgr, err := manager.NewManager(&manager.Config{ScenarioPath: path, RedisEnabled: v.GetBool("redis")})
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer mgr.Close()

	snapshot, err := mgr.ComputeLinkMatrix(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "snapshot %s\n\n", snapshot.ID)
	tbl := newTable(cmd, "TX", "RX", "Distance (m)", "Model", "LOS", "Path loss (dB)", "Rx power (dBm)")
	for _, r := range snapshot.Results {
		if r.Err != nil {
			tbl.AddRow(r.TxID, r.RxID, "-", "-", "-", r.Err.Error(), "-")
			continue
		}
		tbl.AddRow(r.TxID, r.RxID, fmt.Sprintf("%.2f", r.DistanceM), r.Model, r.LineOfSight,
			formatDB(r.PathLossDB), formatDB(r.ReceivedPowerDbm))
	}
	tbl.Print()

	if v.GetBool("coverage") {
		radii, err := mgr.CoverageRadii()
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		coverage := newTable(cmd, "TX", "Coverage radius (m)")
		for _, id := range mgr.TransmitterIDs() {
			if radius, ok := radii[id]; ok {
				coverage.AddRow(id, fmt.Sprintf("%.1f", radius))
			} else {
				coverage.AddRow(id, "-")
			}
		}
		coverage.Print()
	}

	if file := v.GetString("csv"); file != "" {
		f, err := os.Create(file)
		if err != nil {
			return err
		}
		defer f.Close()
		buildings := len(mgr.Scenario().Buildings) > 0
		if err := statistics.WriteCSV(f, statistics.FromLinkResults(snapshot.Results, buildings)); err != nil {
			return fmt.Errorf("failed to write %s: %v", file, err)
		}
	}
	return nil
}
