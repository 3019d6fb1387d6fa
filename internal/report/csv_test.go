package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResultsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResultsCSV(&buf, sampleOutput().Results))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus two successful scenarios")

	assert.Equal(t, resultsHeader, rows[0])
	assert.Equal(t, []string{"toy", "toy_medium", "1200", "720", "480", "45", "45", "43.39", "50", "40", "32.94", "24.08"}, rows[1])
	assert.Equal(t, "1000000000", rows[2][7])
	assert.Equal(t, "", rows[2][11])
}

func TestWriteResultsCSVFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")

	path, err := WriteResultsCSVFile(dir, sampleOutput().Results)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ResultsCSVName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "delay_LP_sveh")
}

func TestWriteDelayChart(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteDelayChart(dir, sampleOutput().Results)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DelayChartName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), data[:8])
}

func TestDelayChartAllOversaturated(t *testing.T) {
	results := sampleOutput().Results[1:]
	p, err := DelayChart(results)
	require.NoError(t, err)
	assert.NotNil(t, p)
}
