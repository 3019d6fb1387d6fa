package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chenzhuyu2004/greensplit/internal/app"
	"github.com/chenzhuyu2004/greensplit/internal/calculator"
	"github.com/chenzhuyu2004/greensplit/pkg"
)

const ResultsCSVName = "results_summary.csv"

var resultsHeader = []string{
	"source", "scenario", "flow_total_vph", "flow_NS_vph", "flow_EO_vph",
	"g_NS_baseline", "g_EO_baseline", "delay_baseline_sveh",
	"g_NS_LP", "g_EO_LP", "delay_LP_sveh", "improvement_pct",
}

// WriteResultsCSV writes one row per successful scenario. Oversaturated delays are written
// as the legacy sentinel and an undefined improvement as an empty cell.
func WriteResultsCSV(w io.Writer, results []app.ScenarioResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultsHeader); err != nil {
		return err
	}
	for _, r := range results {
		if r.Failed() {
			continue
		}
		improvement := ""
		if r.ImprovementPct != nil {
			improvement = formatFloat(*r.ImprovementPct)
		}
		row := []string{
			r.Source,
			r.Scenario,
			formatFloat(r.FlowTotalVPH),
			formatFloat(r.FlowNSVPH),
			formatFloat(r.FlowEOVPH),
			formatFloat(r.Baseline.GreenNS),
			formatFloat(r.Baseline.GreenEO),
			csvDelay(r.Baseline.Weighted),
			formatFloat(r.Optimized.GreenNS),
			formatFloat(r.Optimized.GreenEO),
			csvDelay(r.Optimized.Weighted),
			improvement,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultsCSVFile writes results_summary.csv into dir and returns its path.
func WriteResultsCSVFile(dir string, results []app.ScenarioResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, ResultsCSVName)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteResultsCSV(file, results); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

func csvDelay(d calculator.Delay) string {
	seconds, ok := d.Value()
	if !ok {
		return formatFloat(pkg.OversaturationSentinel)
	}
	return formatFloat(seconds)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(round4(v), 'f', -1, 64)
}
