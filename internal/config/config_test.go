package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

var allEnvKeys = []string{
	EnvConfigPath, EnvCycle, EnvSaturationNS, EnvSaturationEO, EnvGMin, EnvGMax,
	EnvNSShare, EnvEOShare, EnvXMax, EnvSolver, EnvDataset, EnvDatasetHours,
	EnvTimeColumn, EnvVolumeColumn, EnvCacheDir, EnvCacheTTL, EnvTimeout,
	EnvWorkers, EnvOutput, EnvLogLevel, EnvLogFormat, EnvAddr,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvKeys {
		t.Setenv(key, "")
	}
}

func TestResolveDefaults(t *testing.T) {
	clearEnv(t)

	got, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}

	want := Defaults()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Resolve() = %+v, expected %+v", got, want)
	}
	if got.Cycle != 90 || got.GMin != 25 || got.GMax != 65 {
		t.Fatalf("unexpected signal defaults: %+v", got)
	}
	if !reflect.DeepEqual(got.DatasetHours, []int{3, 6, 8, 12, 17}) {
		t.Fatalf("DatasetHours = %v", got.DatasetHours)
	}
}

func TestResolveConfigAndEnvOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "greensplit.json")
	content := `{
  "cycle": 120,
  "g_min": 0,
  "cache_ttl": "15m",
  "timeout": "45s",
  "output": "json",
  "dataset_hours": [7, 8],
  "workers": 4
}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvCacheTTL, "20m")
	t.Setenv(EnvOutput, "text")
	t.Setenv(EnvGMax, "80")
	t.Setenv(EnvSolver, SolverSimplex)

	got, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}

	if got.ConfigPath != path {
		t.Fatalf("ConfigPath = %q, expected %q", got.ConfigPath, path)
	}
	if got.Cycle != 120 {
		t.Fatalf("Cycle = %v, expected 120", got.Cycle)
	}
	if got.GMin != 0 {
		t.Fatalf("GMin = %v, expected explicit 0 from file", got.GMin)
	}
	if got.GMax != 80 {
		t.Fatalf("GMax = %v, expected 80 from env", got.GMax)
	}
	if got.CacheTTL != 20*time.Minute {
		t.Fatalf("CacheTTL = %s, expected 20m", got.CacheTTL)
	}
	if got.Timeout != 45*time.Second {
		t.Fatalf("Timeout = %s, expected 45s", got.Timeout)
	}
	if got.Output != "text" {
		t.Fatalf("Output = %q, expected %q", got.Output, "text")
	}
	if got.Solver != SolverSimplex {
		t.Fatalf("Solver = %q, expected %q", got.Solver, SolverSimplex)
	}
	if !reflect.DeepEqual(got.DatasetHours, []int{7, 8}) || got.Workers != 4 {
		t.Fatalf("unexpected hours/workers: %v %d", got.DatasetHours, got.Workers)
	}
}

func TestResolveExplicitConfigPathBeatsEnvPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	fileA := filepath.Join(dir, "a.json")
	if err := os.WriteFile(fileA, []byte(`{"cycle":100}`), 0o644); err != nil {
		t.Fatalf("WriteFile(a) error: %v", err)
	}

	fileB := filepath.Join(dir, "b.json")
	if err := os.WriteFile(fileB, []byte(`{"cycle":110}`), 0o644); err != nil {
		t.Fatalf("WriteFile(b) error: %v", err)
	}

	t.Setenv(EnvConfigPath, fileA)
	got, err := Resolve(fileB)
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got.ConfigPath != fileB {
		t.Fatalf("ConfigPath = %q, expected %q", got.ConfigPath, fileB)
	}
	if got.Cycle != 110 {
		t.Fatalf("Cycle = %v, expected 110", got.Cycle)
	}
}

func TestResolveRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	unknown := filepath.Join(dir, "unknown.json")
	if err := os.WriteFile(unknown, []byte(`{"zones":["NS"]}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	badTTL := filepath.Join(dir, "ttl.json")
	if err := os.WriteFile(badTTL, []byte(`{"cache_ttl":"soon"}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	tests := []struct {
		name string
		path string
		env  map[string]string
		want string
	}{
		{name: "unknown field", path: unknown, want: "unknown field"},
		{name: "missing file", path: filepath.Join(dir, "none.json"), want: "read config file"},
		{name: "bad ttl", path: badTTL, want: "invalid cache_ttl"},
		{name: "bad float", env: map[string]string{EnvCycle: "ninety"}, want: EnvCycle},
		{name: "bad workers", env: map[string]string{EnvWorkers: "many"}, want: EnvWorkers},
		{name: "bad hours", env: map[string]string{EnvDatasetHours: "3,25"}, want: "out of range"},
		{name: "bad solver", env: map[string]string{EnvSolver: "glpk"}, want: "solver must be one of"},
		{name: "bad output", env: map[string]string{EnvOutput: "yaml"}, want: "output must be one of"},
		{name: "bad timeout", env: map[string]string{EnvTimeout: "0s"}, want: "timeout must be > 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Resolve(tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Resolve() error = %v, expected to contain %q", err, tt.want)
			}
		})
	}
}

func TestParseHours(t *testing.T) {
	got, err := ParseHours(" 3, 6,,17 ")
	if err != nil {
		t.Fatalf("ParseHours() unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []int{3, 6, 17}) {
		t.Fatalf("ParseHours() = %v", got)
	}
	if _, err := ParseHours(","); err == nil {
		t.Fatal("expected error for empty list")
	}
	if _, err := ParseHours("x"); err == nil {
		t.Fatal("expected error for non-numeric hour")
	}
}

func TestLoadEnvFileDoesNotOverrideExisting(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	content := EnvCycle + "=75\n" + EnvOutput + "=json\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	t.Setenv(EnvOutput, "text")
	// godotenv only fills unset variables; an empty value counts as set.
	os.Unsetenv(EnvCycle)
	t.Cleanup(func() { os.Unsetenv(EnvCycle) })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() unexpected error: %v", err)
	}

	got, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve() unexpected error: %v", err)
	}
	if got.Cycle != 75 {
		t.Fatalf("Cycle = %v, expected 75 from env file", got.Cycle)
	}
	if got.Output != "text" {
		t.Fatalf("Output = %q, expected existing env to win", got.Output)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err == nil {
		t.Fatal("expected error for explicit missing env file")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/cache")
	if err != nil {
		t.Fatalf("ExpandPath() unexpected error: %v", err)
	}
	if got != filepath.Join(home, "cache") {
		t.Fatalf("ExpandPath() = %q", got)
	}
}
