package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/chenzhuyu2004/greensplit/pkg"
	"github.com/chenzhuyu2004/greensplit/pkg/models"
)

const (
	EnvConfigPath   = "GREENSPLIT_CONFIG"
	EnvCycle        = "GREENSPLIT_CYCLE"
	EnvSaturationNS = "GREENSPLIT_SATURATION_NS"
	EnvSaturationEO = "GREENSPLIT_SATURATION_EO"
	EnvGMin         = "GREENSPLIT_G_MIN"
	EnvGMax         = "GREENSPLIT_G_MAX"
	EnvNSShare      = "GREENSPLIT_NS_SHARE"
	EnvEOShare      = "GREENSPLIT_EO_SHARE"
	EnvXMax         = "GREENSPLIT_X_MAX"
	EnvSolver       = "GREENSPLIT_SOLVER"
	EnvDataset      = "GREENSPLIT_DATASET"
	EnvDatasetHours = "GREENSPLIT_DATASET_HOURS"
	EnvTimeColumn   = "GREENSPLIT_TIME_COLUMN"
	EnvVolumeColumn = "GREENSPLIT_VOLUME_COLUMN"
	EnvCacheDir     = "GREENSPLIT_CACHE_DIR"
	EnvCacheTTL     = "GREENSPLIT_CACHE_TTL"
	EnvTimeout      = "GREENSPLIT_TIMEOUT"
	EnvWorkers      = "GREENSPLIT_WORKERS"
	EnvOutput       = "GREENSPLIT_OUTPUT"
	EnvLogLevel     = "GREENSPLIT_LOG_LEVEL"
	EnvLogFormat    = "GREENSPLIT_LOG_FORMAT"
	EnvAddr         = "GREENSPLIT_ADDR"
)

const (
	SolverClosedForm = "closed-form"
	SolverSimplex    = "simplex"

	DefaultSolver       = SolverClosedForm
	DefaultTimeColumn   = "date_time"
	DefaultVolumeColumn = "traffic_volume"
	DefaultCacheDir     = "~/.greensplit"
	DefaultCacheTTL     = 24 * time.Hour
	DefaultTimeout      = 30 * time.Second
	DefaultOutput       = "text"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultAddr         = ":8080"
)

// Settings is the resolved configuration: defaults, then the JSON file, then the environment.
// Settings 为合并后的配置：默认值 → JSON 文件 → 环境变量。
type Settings struct {
	ConfigPath string

	Cycle        float64
	SaturationNS float64
	SaturationEO float64
	GMin         float64
	GMax         float64
	NSShare      float64
	EOShare      float64
	XMax         float64

	Solver       string
	Dataset      string
	DatasetHours []int
	TimeColumn   string
	VolumeColumn string
	CacheDir     string
	CacheTTL     time.Duration
	Timeout      time.Duration
	// Workers <= 0 means one worker per CPU.
	Workers int

	Output    string
	LogLevel  string
	LogFormat string
	Addr      string
}

// fileConfig uses pointers so an explicit zero in the file still overrides the default.
type fileConfig struct {
	Cycle        *float64 `json:"cycle"`
	SaturationNS *float64 `json:"saturation_ns"`
	SaturationEO *float64 `json:"saturation_eo"`
	GMin         *float64 `json:"g_min"`
	GMax         *float64 `json:"g_max"`
	NSShare      *float64 `json:"ns_share"`
	EOShare      *float64 `json:"eo_share"`
	XMax         *float64 `json:"x_max"`
	Solver       string   `json:"solver"`
	Dataset      string   `json:"dataset"`
	DatasetHours []int    `json:"dataset_hours"`
	TimeColumn   string   `json:"time_column"`
	VolumeColumn string   `json:"volume_column"`
	CacheDir     string   `json:"cache_dir"`
	CacheTTL     string   `json:"cache_ttl"`
	Timeout      string   `json:"timeout"`
	Workers      *int     `json:"workers"`
	Output       string   `json:"output"`
	LogLevel     string   `json:"log_level"`
	LogFormat    string   `json:"log_format"`
	Addr         string   `json:"addr"`
}

func Defaults() Settings {
	return Settings{
		Cycle:        pkg.DefaultCycleSeconds,
		SaturationNS: pkg.DefaultSaturationVehSec,
		SaturationEO: pkg.DefaultSaturationVehSec,
		GMin:         pkg.DefaultGreenMinSeconds,
		GMax:         pkg.DefaultGreenMaxSeconds,
		NSShare:      pkg.DefaultNSShare,
		EOShare:      pkg.DefaultEOShare,
		XMax:         pkg.DefaultXMax,
		Solver:       DefaultSolver,
		DatasetHours: append([]int(nil), models.DefaultDatasetHours...),
		TimeColumn:   DefaultTimeColumn,
		VolumeColumn: DefaultVolumeColumn,
		CacheDir:     DefaultCacheDir,
		CacheTTL:     DefaultCacheTTL,
		Timeout:      DefaultTimeout,
		Output:       DefaultOutput,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		Addr:         DefaultAddr,
	}
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment without overriding
// variables that are already set. An empty path loads ./.env when it exists.
func LoadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	expanded, err := expandHomeDir(path)
	if err != nil {
		return err
	}
	if err := godotenv.Load(expanded); err != nil {
		return fmt.Errorf("load env file %q: %w", path, err)
	}
	return nil
}

func Resolve(rawConfigPath string) (Settings, error) {
	cfg := Defaults()

	configPath := strings.TrimSpace(rawConfigPath)
	if configPath == "" {
		configPath = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}

	if configPath != "" {
		expanded, err := expandHomeDir(configPath)
		if err != nil {
			return Settings{}, err
		}
		fileCfg, err := loadFileConfig(expanded)
		if err != nil {
			return Settings{}, err
		}
		cfg.ConfigPath = configPath
		if err := cfg.applyFile(fileCfg); err != nil {
			return Settings{}, fmt.Errorf("config file %q: %w", configPath, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Settings{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

func (s *Settings) applyFile(f fileConfig) error {
	floats := []struct {
		src *float64
		dst *float64
	}{
		{f.Cycle, &s.Cycle},
		{f.SaturationNS, &s.SaturationNS},
		{f.SaturationEO, &s.SaturationEO},
		{f.GMin, &s.GMin},
		{f.GMax, &s.GMax},
		{f.NSShare, &s.NSShare},
		{f.EOShare, &s.EOShare},
		{f.XMax, &s.XMax},
	}
	for _, v := range floats {
		if v.src != nil {
			*v.dst = *v.src
		}
	}

	strs := []struct {
		src string
		dst *string
	}{
		{f.Solver, &s.Solver},
		{f.Dataset, &s.Dataset},
		{f.TimeColumn, &s.TimeColumn},
		{f.VolumeColumn, &s.VolumeColumn},
		{f.CacheDir, &s.CacheDir},
		{f.Output, &s.Output},
		{f.LogLevel, &s.LogLevel},
		{f.LogFormat, &s.LogFormat},
		{f.Addr, &s.Addr},
	}
	for _, v := range strs {
		if v.src != "" {
			*v.dst = v.src
		}
	}

	if f.DatasetHours != nil {
		s.DatasetHours = append([]int(nil), f.DatasetHours...)
	}
	if f.Workers != nil {
		s.Workers = *f.Workers
	}
	if f.CacheTTL != "" {
		d, err := time.ParseDuration(f.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache_ttl: %w", err)
		}
		s.CacheTTL = d
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		s.Timeout = d
	}
	return nil
}

func (s *Settings) applyEnv() error {
	floats := []struct {
		key string
		dst *float64
	}{
		{EnvCycle, &s.Cycle},
		{EnvSaturationNS, &s.SaturationNS},
		{EnvSaturationEO, &s.SaturationEO},
		{EnvGMin, &s.GMin},
		{EnvGMax, &s.GMax},
		{EnvNSShare, &s.NSShare},
		{EnvEOShare, &s.EOShare},
		{EnvXMax, &s.XMax},
	}
	for _, v := range floats {
		raw := strings.TrimSpace(os.Getenv(v.key))
		if raw == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", v.key, raw, err)
		}
		*v.dst = parsed
	}

	strs := []struct {
		key string
		dst *string
	}{
		{EnvSolver, &s.Solver},
		{EnvDataset, &s.Dataset},
		{EnvTimeColumn, &s.TimeColumn},
		{EnvVolumeColumn, &s.VolumeColumn},
		{EnvCacheDir, &s.CacheDir},
		{EnvOutput, &s.Output},
		{EnvLogLevel, &s.LogLevel},
		{EnvLogFormat, &s.LogFormat},
		{EnvAddr, &s.Addr},
	}
	for _, v := range strs {
		if raw := strings.TrimSpace(os.Getenv(v.key)); raw != "" {
			*v.dst = raw
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvCacheTTL, &s.CacheTTL},
		{EnvTimeout, &s.Timeout},
	}
	for _, v := range durations {
		raw := strings.TrimSpace(os.Getenv(v.key))
		if raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", v.key, raw, err)
		}
		*v.dst = parsed
	}

	if raw := strings.TrimSpace(os.Getenv(EnvWorkers)); raw != "" {
		workers, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, raw, err)
		}
		s.Workers = workers
	}
	if raw := strings.TrimSpace(os.Getenv(EnvDatasetHours)); raw != "" {
		hours, err := ParseHours(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDatasetHours, err)
		}
		s.DatasetHours = hours
	}
	return nil
}

// Validate checks the settings that are not intersection parameters; those are
// validated by the evaluator.
func (s Settings) Validate() error {
	switch s.Solver {
	case SolverClosedForm, SolverSimplex:
	default:
		return fmt.Errorf("solver must be one of %s|%s, got %q", SolverClosedForm, SolverSimplex, s.Solver)
	}
	if err := validateOneOf("output", s.Output, "text", "json"); err != nil {
		return err
	}
	if err := validateOneOf("log_format", s.LogFormat, "text", "json"); err != nil {
		return err
	}
	if err := validateOneOf("log_level", strings.ToLower(s.LogLevel), "debug", "info", "warn", "error"); err != nil {
		return err
	}
	if s.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must be >= 0")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	for _, h := range s.DatasetHours {
		if h < 0 || h > 23 {
			return fmt.Errorf("dataset hour %d out of range 0-23", h)
		}
	}
	return nil
}

func validateOneOf(name string, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, "|"), value)
}

// ParseHours parses a comma-separated list of hours of day, e.g. "3,6,8".
func ParseHours(raw string) ([]int, error) {
	var hours []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid hour %q", part)
		}
		if h < 0 || h > 23 {
			return nil, fmt.Errorf("hour %d out of range 0-23", h)
		}
		hours = append(hours, h)
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("no hours in %q", raw)
	}
	return hours, nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	return expandHomeDir(path)
}

func loadFileConfig(path string) (fileConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file %q: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()

	var cfg fileConfig
	if err := decoder.Decode(&cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file %q: %w", path, err)
	}
	return cfg, nil
}

func expandHomeDir(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
