// Package main provides propsim, a command line front end of the propagation engine.
package main

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"
)

const envPrefix = "PROPSIM"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "propsim",
		Short:        "Radio path loss estimation over 3D building scenes",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			level, err := log.ParseLevel(v.GetString("log-level"))
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
	}
	root.PersistentFlags().String("log-level", "warning", "log level (debug, info, warning, error)")

	root.AddCommand(newLinkCommand(v), newMatrixCommand(v), newAnalyzeCommand(v))
	return root
}

// parsePoint reads an "x,y,z" position in meters
func parsePoint(s string) (r3.Vec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return r3.Vec{}, fmt.Errorf("invalid position %q, expected x,y,z", s)
	}
	var c [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("invalid position %q: %v", s, err)
		}
		c[i] = f
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

func formatDB(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "no signal"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func newTable(cmd *cobra.Command, headers ...interface{}) table.Table {
	tbl := table.New(headers...)
	tbl.WithHeaderFormatter(color.New(color.FgGreen, color.Underline).SprintfFunc())
	tbl.WithFirstColumnFormatter(color.New(color.FgYellow).SprintfFunc())
	tbl.WithWriter(cmd.OutOrStdout())
	return tbl
}
