package main

import (
	"fmt"

	"github.com/nfvri/ran-propagation/pkg/geometry"
	"github.com/nfvri/ran-propagation/pkg/model"
	"github.com/nfvri/ran-propagation/pkg/propagation"
	"github.com/nfvri/ran-propagation/pkg/raytrace"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newLinkCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Estimate the path loss of a single link",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(cmd, v)
		},
	}
	flags := cmd.Flags()
	flags.String("tx", "0,0,10", "transmitter position x,y,z in meters")
	flags.String("rx", "100,0,1.5", "receiver position x,y,z in meters")
	flags.Float64("frequency", 2400, "carrier frequency in MHz")
	flags.Float64("tx-power", 30, "transmit power in dBm")
	flags.Float64("antenna-gain", 0, "antenna gain in dBi")
	flags.String("environment", string(model.EnvUrban), "propagation environment")
	flags.String("model", "auto", "path loss model, auto selects by distance and frequency")
	flags.String("scenario", "", "scenario file providing the buildings")
	flags.Int("reflections", 4, "maximum reflected paths")
	flags.Int("diffractions", 4, "maximum diffracted paths")
	flags.Int("scattering", 2, "maximum scattered paths")
	flags.Bool("prefer-raytracing", true, "select ray tracing when no empirical model applies")
	flags.Bool("utd", false, "use the UTD wedge coefficient for diffraction")
	flags.Bool("trace", false, "print the traced ray segments")
	return cmd
}

func runLink(cmd *cobra.Command, v *viper.Viper) error {
	tx, err := parsePoint(v.GetString("tx"))
	if err != nil {
		return err
	}
	rx, err := parsePoint(v.GetString("rx"))
	if err != nil {
		return err
	}
	modelType, err := model.ParseModelType(v.GetString("model"))
	if err != nil {
		return err
	}

	pc := &model.PropagationContext{
		Transmitter:     tx,
		Receiver:        rx,
		FrequencyMHz:    v.GetFloat64("frequency"),
		TxPowerDbm:      v.GetFloat64("tx-power"),
		AntennaGainDbi:  v.GetFloat64("antenna-gain"),
		Environment:     model.Environment(v.GetString("environment")),
		Model:           modelType,
		MaxReflections:  v.GetInt("reflections"),
		MaxDiffractions: v.GetInt("diffractions"),
		MaxScattering:   v.GetInt("scattering"),
	}

	// the provider stays a nil interface without a scenario
	var provider geometry.Provider
	if path := v.GetString("scenario"); path != "" {
		scenario, err := model.LoadScenario(path)
		if err != nil {
			return err
		}
		obstacles, unresolved := scenario.Obstacles()
		if len(unresolved) > 0 {
			log.Warnf("buildings with unknown materials: %v", unresolved)
		}
		provider = geometry.NewScene(obstacles, geometry.DefaultCellSize)
		pc.ObstacleLayer = path
		pc.HasObstacles = len(obstacles) > 0
	}

	rtConfig := raytrace.DefaultConfig()
	rtConfig.UseUTD = v.GetBool("utd")
	recorder := &raytrace.Recorder{}
	config := propagation.Config{
		Selector:   propagation.NewSelector(v.GetBool("prefer-raytracing")),
		RayTracing: rtConfig,
	}
	if v.GetBool("trace") {
		config.Sink = recorder
	}

	estimate, err := propagation.NewCalculator(provider, config).Estimate(pc)
	if err != nil {
		return err
	}

	tbl := newTable(cmd, "Model", "LOS", "Distance (m)", "Path loss (dB)", "Rx power (dBm)")
	tbl.AddRow(estimate.Model, estimate.LineOfSight, fmt.Sprintf("%.2f", pc.Distance()),
		formatDB(estimate.PathLossDB), formatDB(estimate.ReceivedPowerDbm))
	tbl.Print()

	if segments := recorder.Segments(); len(segments) > 0 {
		fmt.Fprintln(cmd.OutOrStdout())
		rays := newTable(cmd, "Ray", "Color", "From", "To")
		for _, s := range segments {
			rays.AddRow(s.Label, s.Color,
				fmt.Sprintf("(%.2f, %.2f, %.2f)", s.A.X, s.A.Y, s.A.Z),
				fmt.Sprintf("(%.2f, %.2f, %.2f)", s.B.X, s.B.Y, s.B.Z))
		}
		rays.Print()
	}
	return nil
}
