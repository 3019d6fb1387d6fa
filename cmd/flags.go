package cmd

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/chenzhuyu2004/greensplit/internal/app"
	"github.com/chenzhuyu2004/greensplit/internal/config"
)

// paramFlags are the intersection parameters shared by evaluate, bounds, allocate and serve.
// Only flags the user actually set override the resolved settings.
type paramFlags struct {
	cycle        float64
	saturationNS float64
	saturationEO float64
	gMin         float64
	gMax         float64
	nsShare      float64
	eoShare      float64
	xMax         float64
	solver       string
}

func addParamFlags(cmd *cobra.Command, p *paramFlags) {
	d := config.Defaults()
	fs := cmd.Flags()
	fs.Float64Var(&p.cycle, "cycle", d.Cycle, "cycle length C in seconds")
	fs.Float64Var(&p.saturationNS, "saturation-ns", d.SaturationNS, "North-South saturation flow in veh/s")
	fs.Float64Var(&p.saturationEO, "saturation-eo", d.SaturationEO, "East-West saturation flow in veh/s")
	fs.Float64Var(&p.gMin, "g-min", d.GMin, "minimum green per phase in seconds")
	fs.Float64Var(&p.gMax, "g-max", d.GMax, "maximum green per phase in seconds")
	fs.Float64Var(&p.nsShare, "ns-share", d.NSShare, "share of total demand on North-South")
	fs.Float64Var(&p.eoShare, "eo-share", d.EOShare, "share of total demand on East-West")
	fs.Float64Var(&p.xMax, "x-max", d.XMax, "target maximum degree of saturation")
	fs.StringVar(&p.solver, "solver", d.Solver, "LP backend: "+config.SolverClosedForm+"|"+config.SolverSimplex)
}

func (p *paramFlags) apply(cmd *cobra.Command, s *config.Settings) error {
	fs := cmd.Flags()
	overrides := []struct {
		name   string
		target *float64
		value  float64
	}{
		{"cycle", &s.Cycle, p.cycle},
		{"saturation-ns", &s.SaturationNS, p.saturationNS},
		{"saturation-eo", &s.SaturationEO, p.saturationEO},
		{"g-min", &s.GMin, p.gMin},
		{"g-max", &s.GMax, p.gMax},
		{"ns-share", &s.NSShare, p.nsShare},
		{"eo-share", &s.EOShare, p.eoShare},
		{"x-max", &s.XMax, p.xMax},
	}
	for _, o := range overrides {
		if fs.Changed(o.name) {
			*o.target = o.value
		}
	}
	if fs.Changed("solver") {
		s.Solver = p.solver
	}
	return s.Validate()
}

func paramsFromSettings(s config.Settings) app.Params {
	return app.Params{
		Cycle:        s.Cycle,
		SaturationNS: s.SaturationNS,
		SaturationEO: s.SaturationEO,
		GMin:         s.GMin,
		GMax:         s.GMax,
		NSShare:      s.NSShare,
		EOShare:      s.EOShare,
		XMax:         s.XMax,
	}
}

// runFlags control batch execution.
type runFlags struct {
	workers int
	timeout time.Duration
}

func addRunFlags(cmd *cobra.Command, r *runFlags) {
	d := config.Defaults()
	fs := cmd.Flags()
	fs.IntVar(&r.workers, "workers", d.Workers, "concurrent scenario workers (0 = one per CPU)")
	fs.DurationVar(&r.timeout, "timeout", d.Timeout, "overall evaluation timeout")
}

func (r *runFlags) apply(cmd *cobra.Command, s *config.Settings) error {
	fs := cmd.Flags()
	if fs.Changed("workers") {
		s.Workers = r.workers
	}
	if fs.Changed("timeout") {
		s.Timeout = r.timeout
	}
	return s.Validate()
}

// datasetFlags select the optional CSV scenario source.
type datasetFlags struct {
	path         string
	hours        string
	label        string
	timeColumn   string
	volumeColumn string
	cacheDir     string
	cacheTTL     time.Duration
	noToy        bool
}

func addDatasetFlags(cmd *cobra.Command, f *datasetFlags) {
	d := config.Defaults()
	fs := cmd.Flags()
	fs.StringVar(&f.path, "dataset", "", "hourly traffic volume CSV; skipped with a warning when missing")
	fs.StringVar(&f.hours, "hours", formatHours(d.DatasetHours), "comma-separated hours of day sampled from the dataset")
	fs.StringVar(&f.label, "label", defaultDatasetLabel, "scenario source label for dataset scenarios")
	fs.StringVar(&f.timeColumn, "time-column", d.TimeColumn, "dataset timestamp column")
	fs.StringVar(&f.volumeColumn, "volume-column", d.VolumeColumn, "dataset volume column")
	fs.StringVar(&f.cacheDir, "cache-dir", d.CacheDir, "hourly profile cache directory")
	fs.DurationVar(&f.cacheTTL, "cache-ttl", d.CacheTTL, "hourly profile cache TTL (0 disables caching)")
	fs.BoolVar(&f.noToy, "no-toy", false, "skip the built-in toy scenarios")
}

func (f *datasetFlags) apply(cmd *cobra.Command, s *config.Settings) error {
	fs := cmd.Flags()
	if fs.Changed("dataset") {
		s.Dataset = f.path
	}
	if fs.Changed("hours") {
		hours, err := config.ParseHours(f.hours)
		if err != nil {
			return err
		}
		s.DatasetHours = hours
	}
	if fs.Changed("time-column") {
		s.TimeColumn = f.timeColumn
	}
	if fs.Changed("volume-column") {
		s.VolumeColumn = f.volumeColumn
	}
	if fs.Changed("cache-dir") {
		s.CacheDir = f.cacheDir
	}
	if fs.Changed("cache-ttl") {
		s.CacheTTL = f.cacheTTL
	}
	return s.Validate()
}

func formatHours(hours []int) string {
	return strings.Join(lo.Map(hours, func(h int, _ int) string {
		return strconv.Itoa(h)
	}), ",")
}
