package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"

	"github.com/chenzhuyu2004/greensplit/internal/app"
	"github.com/chenzhuyu2004/greensplit/internal/calculator"
	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
	"github.com/chenzhuyu2004/greensplit/pkg"
	"github.com/chenzhuyu2004/greensplit/pkg/models"
)

const divider = "-----------------------------------------------------------------------------------"

type BuildOptions struct {
	// Color enables ANSI colours in text output.
	Color bool
}

type palette struct {
	good  *color.Color
	bad   *color.Color
	muted *color.Color
	title *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		good:  color.New(color.FgGreen),
		bad:   color.New(color.FgRed),
		muted: color.New(color.FgYellow),
		title: color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.good, p.bad, p.muted, p.title} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

type evaluationDocument struct {
	SchemaVersion string `json:"schema_version"`
	app.EvaluateOutput
}

// BuildEvaluation renders a batch evaluation as a text table or a JSON document.
func BuildEvaluation(out app.EvaluateOutput, asJSON bool, opts BuildOptions) string {
	if asJSON {
		return marshalDocument(evaluationDocument{SchemaVersion: pkg.JSONSchemaVersion, EvaluateOutput: out})
	}

	p := newPalette(opts.Color)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n%s\n", divider, p.title.Sprint("Signal Timing Report"), divider)
	fmt.Fprintf(&b, "Run: %s\n", out.RunID)
	fmt.Fprintf(&b, "Cycle: %gs  Green bounds: [%g, %g]s  Saturation NS/EO: %g/%g veh/s  x_max: %g\n",
		out.Params.Cycle, out.Params.GMin, out.Params.GMax, out.Params.SaturationNS, out.Params.SaturationEO, out.Params.XMax)
	fmt.Fprintf(&b, "Phases: NS = %s (%.0f%%), EO = %s (%.0f%%)\n",
		models.PhaseNames["NS"], out.Params.NSShare*100, models.PhaseNames["EO"], out.Params.EOShare*100)
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "%-18s %8s %13s %14s %13s %14s  %s\n",
		"scenario", "veh/h", "base NS/EO", "base delay", "opt NS/EO", "opt delay", "improvement")

	for _, r := range out.Results {
		if r.Failed() {
			fmt.Fprintf(&b, "%-18s %8.0f  %s\n", r.Scenario, r.FlowTotalVPH, p.bad.Sprintf("failed (%s): %s", r.ErrorKind, r.Error))
			continue
		}
		scenario := r.Scenario
		if r.BoundsFallback {
			scenario += "*"
		}
		fmt.Fprintf(&b, "%-18s %8.0f %13s %14s %13s %14s  %s\n",
			scenario,
			r.FlowTotalVPH,
			formatSplit(r.Baseline.GreenNS, r.Baseline.GreenEO),
			formatDelay(r.Baseline.Weighted),
			formatSplit(r.Optimized.GreenNS, r.Optimized.GreenEO),
			formatDelay(r.Optimized.Weighted),
			formatImprovement(p, r.ImprovementPct),
		)
	}

	b.WriteString(divider + "\n")
	if fallbackCount(out.Results) > 0 {
		b.WriteString("* stability bounds infeasible, global bounds used\n")
	}
	if out.Failed > 0 {
		b.WriteString(p.bad.Sprintf("Failed scenarios: %d of %d", out.Failed, len(out.Results)) + "\n")
	}
	return b.String()
}

func BuildDelay(in app.DelayInput, out app.DelayOutput, asJSON bool) string {
	if asJSON {
		return marshalDocument(map[string]any{
			"schema_version":     pkg.JSONSchemaVersion,
			"input":              in,
			"delay":              out.Delay,
			"volume_to_capacity": out.VolumeToCapacity,
		})
	}

	x := "n/a (no capacity)"
	if out.VolumeToCapacity != nil {
		x = fmt.Sprintf("%.4f", *out.VolumeToCapacity)
	}
	return fmt.Sprintf("Flow: %g veh/h  Saturation: %g veh/s  Green: %gs  Cycle: %gs\nVolume/Capacity: %s\nUniform delay: %s\n",
		in.FlowVPH, in.Saturation, in.Green, in.Cycle, x, formatDelay(out.Delay))
}

func BuildBounds(cfg signal.CycleConfig, interval signal.Interval, asJSON bool) string {
	if asJSON {
		return marshalDocument(map[string]any{
			"schema_version": pkg.JSONSchemaVersion,
			"cycle":          cfg.Cycle,
			"g_min":          cfg.GMin,
			"g_max":          cfg.GMax,
			"lower":          round4(interval.Lower),
			"upper":          round4(interval.Upper),
			"midpoint":       round4(interval.Mid()),
		})
	}
	return fmt.Sprintf("Feasible green for phase A: [%.2f, %.2f]s (midpoint %.2fs)\n", interval.Lower, interval.Upper, interval.Mid())
}

func BuildAllocation(in app.AllocateInput, out app.AllocateOutput, asJSON bool, opts BuildOptions) string {
	if asJSON {
		return marshalDocument(map[string]any{
			"schema_version": pkg.JSONSchemaVersion,
			"input":          in,
			"result":         out.Result,
			"baseline":       out.Baseline,
		})
	}

	p := newPalette(opts.Color)
	var pct *float64
	if base, ok := out.Baseline.Weighted.Value(); ok && base > 0 {
		if opt, ok := out.Result.Weighted.Value(); ok {
			v := 100 * (base - opt) / base
			pct = &v
		}
	}
	return fmt.Sprintf(
		"%s\nGreen split: A %.2fs, B %.2fs (feasible A: [%.2f, %.2f]s)\nDelay A: %s  Delay B: %s\nWeighted delay: %s (equal split: %s)\nImprovement: %s\n%s\n",
		divider,
		out.Result.Split.A, out.Result.Split.B, out.Result.Bounds.Lower, out.Result.Bounds.Upper,
		formatDelay(out.Result.DelayA), formatDelay(out.Result.DelayB),
		formatDelay(out.Result.Weighted), formatDelay(out.Baseline.Weighted),
		formatImprovement(p, pct),
		divider,
	)
}

func marshalDocument(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\n  \"schema_version\": %q,\n  \"error\": %q\n}\n", pkg.JSONSchemaVersion, err.Error())
	}
	return string(data) + "\n"
}

func formatSplit(ns float64, eo float64) string {
	return fmt.Sprintf("%.1f/%.1f", ns, eo)
}

func formatDelay(d calculator.Delay) string {
	seconds, ok := d.Value()
	if !ok {
		return "oversaturated"
	}
	return fmt.Sprintf("%.2f s/veh", seconds)
}

func formatImprovement(p palette, pct *float64) string {
	if pct == nil {
		return p.muted.Sprint("n/a")
	}
	text := fmt.Sprintf("%+.2f%%", round2(*pct))
	if *pct >= 0 {
		return p.good.Sprint(text)
	}
	return p.bad.Sprint(text)
}

func fallbackCount(results []app.ScenarioResult) int {
	return lo.CountBy(results, func(r app.ScenarioResult) bool {
		return r.BoundsFallback && !r.Failed()
	})
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
