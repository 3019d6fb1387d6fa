package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chenzhuyu2004/greensplit/internal/app"
	"github.com/chenzhuyu2004/greensplit/internal/config"
	gserrors "github.com/chenzhuyu2004/greensplit/internal/errors"
	"github.com/chenzhuyu2004/greensplit/internal/report"
)

var allEnvKeys = []string{
	config.EnvConfigPath, config.EnvCycle, config.EnvSaturationNS, config.EnvSaturationEO,
	config.EnvGMin, config.EnvGMax, config.EnvNSShare, config.EnvEOShare, config.EnvXMax,
	config.EnvSolver, config.EnvDataset, config.EnvDatasetHours, config.EnvTimeColumn,
	config.EnvVolumeColumn, config.EnvCacheDir, config.EnvCacheTTL, config.EnvTimeout,
	config.EnvWorkers, config.EnvOutput, config.EnvLogLevel, config.EnvLogFormat, config.EnvAddr,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvKeys {
		t.Setenv(key, "")
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := &cli{stderr: io.Discard}
	root := newRootCommand(c)

	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

type evaluationJSON struct {
	SchemaVersion string `json:"schema_version"`
	app.EvaluateOutput
}

func decodeEvaluation(t *testing.T, raw string) evaluationJSON {
	t.Helper()
	var doc evaluationJSON
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("decode evaluation output: %v\n%s", err, raw)
	}
	return doc
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "volume.csv")
	content := "date_time,traffic_volume\n" +
		"2012-10-02 08:00:00,900\n" +
		"2012-10-03 08:00:00,1100\n" +
		"2012-10-02 12:00:00,1400\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return path
}

func TestEvaluateToyScenariosJSON(t *testing.T) {
	clearEnv(t)

	out, err := executeCommand(t, "evaluate", "--output", "json", "--workers", "2")
	if err != nil {
		t.Fatalf("evaluate unexpected error: %v", err)
	}

	doc := decodeEvaluation(t, out)
	if doc.SchemaVersion != "v1" {
		t.Fatalf("schema_version = %q, expected v1", doc.SchemaVersion)
	}
	if len(doc.Results) != 3 || doc.Failed != 0 {
		t.Fatalf("results = %d failed = %d, expected 3 and 0", len(doc.Results), doc.Failed)
	}
	names := []string{doc.Results[0].Scenario, doc.Results[1].Scenario, doc.Results[2].Scenario}
	if strings.Join(names, ",") != "toy_low,toy_medium,toy_high" {
		t.Fatalf("scenario order = %v", names)
	}
	medium := doc.Results[1]
	if math.Abs(medium.Optimized.GreenNS-50) > 1e-9 || math.Abs(medium.Optimized.GreenEO-40) > 1e-9 {
		t.Fatalf("toy_medium split = %v/%v, expected 50/40", medium.Optimized.GreenNS, medium.Optimized.GreenEO)
	}
	if !doc.Results[2].BoundsFallback {
		t.Fatalf("toy_high should fall back to global bounds")
	}
}

func TestEvaluateSimplexMatchesClosedForm(t *testing.T) {
	clearEnv(t)

	closedOut, err := executeCommand(t, "evaluate", "--output", "json")
	if err != nil {
		t.Fatalf("closed-form evaluate error: %v", err)
	}
	simplexOut, err := executeCommand(t, "evaluate", "--output", "json", "--solver", "simplex")
	if err != nil {
		t.Fatalf("simplex evaluate error: %v", err)
	}

	closed := decodeEvaluation(t, closedOut)
	simplex := decodeEvaluation(t, simplexOut)
	for i := range closed.Results {
		a, b := closed.Results[i].Optimized, simplex.Results[i].Optimized
		if diff := a.GreenNS - b.GreenNS; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("%s: closed-form g_ns %v, simplex g_ns %v", closed.Results[i].Scenario, a.GreenNS, b.GreenNS)
		}
	}
}

func TestEvaluateDatasetScenarios(t *testing.T) {
	clearEnv(t)
	dataset := writeDataset(t)

	out, err := executeCommand(t, "evaluate", "--output", "json", "--no-toy",
		"--dataset", dataset, "--hours", "8,12,17", "--cache-dir", t.TempDir())
	if err != nil {
		t.Fatalf("evaluate unexpected error: %v", err)
	}

	doc := decodeEvaluation(t, out)
	if len(doc.Results) != 2 {
		t.Fatalf("results = %d, expected 2 (hour 17 is absent)", len(doc.Results))
	}
	first := doc.Results[0]
	if first.Source != "kaggle" || first.Scenario != "kaggle_hour_08" {
		t.Fatalf("first scenario = %s/%s", first.Source, first.Scenario)
	}
	if first.FlowTotalVPH != 1000 {
		t.Fatalf("kaggle_hour_08 flow = %v, expected the hourly mean 1000", first.FlowTotalVPH)
	}
}

func TestEvaluateMissingDatasetIsSkipped(t *testing.T) {
	clearEnv(t)
	missing := filepath.Join(t.TempDir(), "absent.csv")

	out, err := executeCommand(t, "evaluate", "--output", "json", "--dataset", missing, "--cache-ttl", "0")
	if err != nil {
		t.Fatalf("evaluate unexpected error: %v", err)
	}
	if doc := decodeEvaluation(t, out); len(doc.Results) != 3 {
		t.Fatalf("results = %d, expected only the toy scenarios", len(doc.Results))
	}
}

func TestEvaluateWithoutScenariosIsInputError(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "evaluate", "--no-toy")
	if err == nil {
		t.Fatalf("expected error without any scenario source")
	}
	if code := gserrors.GetCode(err); code != gserrors.InputError {
		t.Fatalf("exit code = %d, expected %d", code, gserrors.InputError)
	}
}

func TestEvaluateMalformedDatasetReturnsDatasetCode(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("date_time,volume\n2012-10-02 08:00:00,900\n"), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	_, err := executeCommand(t, "evaluate", "--dataset", path, "--cache-ttl", "0")
	if err == nil {
		t.Fatalf("expected dataset error for missing volume column")
	}
	if code := gserrors.GetCode(err); code != gserrors.DatasetError {
		t.Fatalf("exit code = %d, expected %d", code, gserrors.DatasetError)
	}
}

func TestEvaluateInfeasibleBoundsReturnsDedicatedCode(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "evaluate", "--g-min", "50", "--g-max", "60")
	if err == nil {
		t.Fatalf("expected infeasible bounds error")
	}
	if code := gserrors.GetCode(err); code != gserrors.InfeasibleBounds {
		t.Fatalf("exit code = %d, expected %d", code, gserrors.InfeasibleBounds)
	}
}

func TestEvaluateWritesArtifacts(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "out")

	if _, err := executeCommand(t, "evaluate", "--out-dir", dir); err != nil {
		t.Fatalf("evaluate unexpected error: %v", err)
	}
	for _, name := range []string{report.ResultsCSVName, report.DelayChartName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s in output dir: %v", name, err)
		}
	}
}

func TestEvaluateTextReport(t *testing.T) {
	clearEnv(t)

	out, err := executeCommand(t, "evaluate")
	if err != nil {
		t.Fatalf("evaluate unexpected error: %v", err)
	}
	for _, want := range []string{"Signal Timing Report", "toy_medium", "toy_high*"} {
		if !strings.Contains(out, want) {
			t.Fatalf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestBoundsJSON(t *testing.T) {
	clearEnv(t)

	out, err := executeCommand(t, "bounds", "--output", "json", "--cycle", "90", "--g-min", "40", "--g-max", "60")
	if err != nil {
		t.Fatalf("bounds unexpected error: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode bounds output: %v", err)
	}
	if doc["lower"] != 40.0 || doc["upper"] != 50.0 || doc["midpoint"] != 45.0 {
		t.Fatalf("bounds = %v", doc)
	}
}

func TestBoundsInfeasible(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "bounds", "--g-min", "50", "--g-max", "60")
	if err == nil {
		t.Fatalf("expected infeasible bounds error")
	}
	if code := gserrors.GetCode(err); code != gserrors.InfeasibleBounds {
		t.Fatalf("exit code = %d, expected %d", code, gserrors.InfeasibleBounds)
	}
}

func TestDelayJSON(t *testing.T) {
	clearEnv(t)

	out, err := executeCommand(t, "delay", "--output", "json", "--flow", "300", "--green", "30", "--saturation", "0.5", "--cycle", "90")
	if err != nil {
		t.Fatalf("delay unexpected error: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode delay output: %v", err)
	}
	delay, ok := doc["delay"].(float64)
	if !ok || math.Abs(delay-40) > 1e-9 {
		t.Fatalf("delay = %v, expected 40", doc["delay"])
	}
}

func TestDelayOversaturatedRendersNull(t *testing.T) {
	clearEnv(t)

	out, err := executeCommand(t, "delay", "--output", "json", "--flow", "3600", "--green", "30")
	if err != nil {
		t.Fatalf("delay unexpected error: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode delay output: %v", err)
	}
	if v, ok := doc["delay"]; !ok || v != nil {
		t.Fatalf("delay = %v, expected null", v)
	}
}

func TestDelayRequiresGreen(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "delay", "--flow", "300")
	if code := gserrors.GetCode(err); err == nil || code != gserrors.InputError {
		t.Fatalf("err = %v code = %d, expected input error", err, code)
	}
}

func TestAllocateFavoursHeavierPhase(t *testing.T) {
	clearEnv(t)

	for _, solver := range []string{config.SolverClosedForm, config.SolverSimplex} {
		out, err := executeCommand(t, "allocate", "--output", "json", "--flow-a", "720", "--flow-b", "480", "--solver", solver)
		if err != nil {
			t.Fatalf("%s: allocate unexpected error: %v", solver, err)
		}
		var doc struct {
			Result struct {
				Split struct {
					A float64 `json:"g_a"`
					B float64 `json:"g_b"`
				} `json:"split"`
			} `json:"result"`
		}
		if err := json.Unmarshal([]byte(out), &doc); err != nil {
			t.Fatalf("%s: decode allocate output: %v", solver, err)
		}
		if diff := doc.Result.Split.A - 65; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("%s: g_a = %v, expected 65", solver, doc.Result.Split.A)
		}
		if diff := doc.Result.Split.A + doc.Result.Split.B - 90; diff > 1e-6 || diff < -1e-6 {
			t.Fatalf("%s: split does not fill the cycle: %+v", solver, doc.Result.Split)
		}
	}
}

func TestUnknownSolverIsInputError(t *testing.T) {
	clearEnv(t)

	_, err := executeCommand(t, "evaluate", "--solver", "glpk")
	if code := gserrors.GetCode(err); err == nil || code != gserrors.InputError {
		t.Fatalf("err = %v code = %d, expected input error", err, code)
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "greensplit.json")
	if err := os.WriteFile(path, []byte(`{"cycle": 120, "g_min": 30, "g_max": 80, "output": "json"}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := executeCommand(t, "bounds", "--config", path, "--g-max", "70")
	if err != nil {
		t.Fatalf("bounds unexpected error: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("config output json was not applied: %v", err)
	}
	if doc["cycle"] != 120.0 || doc["lower"] != 50.0 || doc["upper"] != 70.0 {
		t.Fatalf("bounds = %v", doc)
	}
}

func TestEnvFileIsLoaded(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(config.EnvCycle)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte(config.EnvCycle+"=100\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	out, err := executeCommand(t, "bounds", "--env-file", path, "--output", "json")
	if err != nil {
		t.Fatalf("bounds unexpected error: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode bounds output: %v", err)
	}
	if doc["cycle"] != 100.0 {
		t.Fatalf("cycle = %v, expected 100 from env file", doc["cycle"])
	}
}

func TestVersion(t *testing.T) {
	clearEnv(t)

	out, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "greensplit "+Version) {
		t.Fatalf("version output = %q", out)
	}
}

func TestDetectJSONOutput(t *testing.T) {
	clearEnv(t)

	cases := []struct {
		args []string
		want bool
	}{
		{[]string{"evaluate", "--output", "json"}, true},
		{[]string{"evaluate", "--output=json"}, true},
		{[]string{"evaluate", "--output", "text"}, false},
		{[]string{"evaluate", "--output"}, false},
	}
	for _, tc := range cases {
		if got := detectJSONOutput(tc.args); got != tc.want {
			t.Fatalf("detectJSONOutput(%v) = %v, expected %v", tc.args, got, tc.want)
		}
	}
}

func TestDetectJSONOutputFromEnvDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvOutput, "json")

	if !detectJSONOutput([]string{"evaluate"}) {
		t.Fatalf("expected json output from %s", config.EnvOutput)
	}
}
