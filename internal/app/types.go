package app

import (
	"time"

	"github.com/chenzhuyu2004/greensplit/internal/calculator"
	"github.com/chenzhuyu2004/greensplit/internal/domain/signal"
	"github.com/chenzhuyu2004/greensplit/internal/flows"
)

// Params are the intersection parameters shared by every scenario of a run.
// Params 为一次评估中所有场景共享的路口参数。
type Params struct {
	Cycle        float64 `json:"cycle"`
	SaturationNS float64 `json:"saturation_ns"`
	SaturationEO float64 `json:"saturation_eo"`
	GMin         float64 `json:"g_min"`
	GMax         float64 `json:"g_max"`
	NSShare      float64 `json:"ns_share"`
	EOShare      float64 `json:"eo_share"`
	// XMax is the highest volume-to-capacity ratio accepted when deriving per-phase minimum greens.
	// XMax 为推导各相位最小绿灯时允许的最大饱和度。
	XMax float64 `json:"x_max"`
}

func (p Params) CycleConfig() signal.CycleConfig {
	return signal.CycleConfig{Cycle: p.Cycle, GMin: p.GMin, GMax: p.GMax}
}

type EvaluateInput struct {
	// RunID identifies the run in logs and output; empty generates a UUID.
	RunID     string
	Params    Params
	Scenarios []flows.Scenario
	// Workers bounds scenario parallelism; <=0 uses runtime.NumCPU().
	Workers int
	// Timeout bounds the whole batch; <=0 disables it.
	Timeout time.Duration
	// Observer is called once per finished scenario, serialised.
	Observer func(ScenarioResult)
}

// SplitResult is a green split for NS/EO with the delays it produces.
type SplitResult struct {
	GreenNS  float64          `json:"g_ns"`
	GreenEO  float64          `json:"g_eo"`
	DelayNS  calculator.Delay `json:"delay_ns"`
	DelayEO  calculator.Delay `json:"delay_eo"`
	Weighted calculator.Delay `json:"delay"`
}

type ScenarioResult struct {
	Source       string  `json:"source"`
	Scenario     string  `json:"scenario"`
	FlowTotalVPH float64 `json:"flow_total_vph"`
	FlowNSVPH    float64 `json:"flow_ns_vph"`
	FlowEOVPH    float64 `json:"flow_eo_vph"`

	Baseline  SplitResult     `json:"baseline"`
	Optimized SplitResult     `json:"optimized"`
	Bounds    signal.Interval `json:"bounds"`
	// StabilityMinNS/EO are the minimum greens that keep each phase under XMax.
	// StabilityMinNS/EO 为使各相位饱和度不超过 XMax 所需的最小绿灯时间。
	StabilityMinNS float64 `json:"stability_min_ns"`
	StabilityMinEO float64 `json:"stability_min_eo"`
	BoundsFallback bool    `json:"bounds_fallback"`
	// ImprovementPct is nil when the comparison is undefined (oversaturated or zero baseline).
	// ImprovementPct 在无法比较时（过饱和或基线为零）为 nil。
	ImprovementPct *float64 `json:"improvement_pct"`

	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

func (r ScenarioResult) Failed() bool {
	return r.Error != ""
}

type EvaluateOutput struct {
	RunID      string           `json:"run_id"`
	Params     Params           `json:"params"`
	StartedAt  time.Time        `json:"started_at"`
	DurationMS int64            `json:"duration_ms"`
	Results    []ScenarioResult `json:"results"`
	Failed     int              `json:"failed"`
}

type DelayInput struct {
	FlowVPH    float64 `json:"flow_vph"`
	Saturation float64 `json:"saturation"`
	Green      float64 `json:"green"`
	Cycle      float64 `json:"cycle"`
}

type DelayOutput struct {
	Delay calculator.Delay `json:"delay"`
	// VolumeToCapacity is nil when the phase has no capacity.
	VolumeToCapacity *float64 `json:"volume_to_capacity"`
}

type AllocateInput struct {
	FlowAVPH    float64 `json:"flow_a_vph"`
	FlowBVPH    float64 `json:"flow_b_vph"`
	SaturationA float64 `json:"saturation_a"`
	SaturationB float64 `json:"saturation_b"`
	Cycle       float64 `json:"cycle"`
	GMin        float64 `json:"g_min"`
	GMax        float64 `json:"g_max"`
}

type AllocateOutput struct {
	Result   signal.OptimizationResult `json:"result"`
	Baseline SplitResult               `json:"baseline"`
}
