package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("1.5, -2,30")
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 1.5, Y: -2, Z: 30}, p)

	_, err = parsePoint("1,2")
	assert.Error(t, err)
	_, err = parsePoint("1,2,up")
	assert.Error(t, err)
}

func TestLinkCommand(t *testing.T) {
	out := execute(t, "link", "--tx", "0,0,10", "--rx", "50,0,10")
	assert.Contains(t, out, "freespace")
	// 32.44 + 20 log10(0.05 km) + 20 log10(2400 MHz)
	assert.Contains(t, out, "74.02")
	assert.Contains(t, out, "-44.02")
}

func TestMatrixAndAnalyzeCommands(t *testing.T) {
	dir := t.TempDir()
	samples := filepath.Join(dir, "links.csv")

	out := execute(t, "matrix", "--scenario", "../../pkg/model/test.yaml", "--csv", samples, "--coverage=false")
	assert.Contains(t, out, "snapshot")
	assert.Contains(t, out, "rx2")
	data, err := os.ReadFile(samples)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "distance_m,frequency_mhz,rx_power_dbm,path_loss_db,model,buildings"))

	input := filepath.Join(dir, "run.csv")
	csv := "distance_m,frequency_mhz,rx_power_dbm,path_loss_db,model,buildings\n" +
		"100,2400,-50,80.04,freespace,OFF\n" +
		"200,2400,-56,86.06,freespace,OFF\n"
	require.NoError(t, os.WriteFile(input, []byte(csv), 0644))
	summary := filepath.Join(dir, "summary.csv")
	plots := filepath.Join(dir, "plots")

	out = execute(t, "analyze", "--input", input, "--summary", summary, "--plots", plots)
	assert.Contains(t, out, "freespace")
	assert.Contains(t, out, "100.0")
	for _, file := range []string{summary, filepath.Join(plots, "power_vs_distance.png"), filepath.Join(plots, "excess_path_loss.png"), filepath.Join(plots, "coverage.png")} {
		_, err := os.Stat(file)
		assert.NoError(t, err, file)
	}
}
