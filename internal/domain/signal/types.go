package signal

import "github.com/chenzhuyu2004/greensplit/internal/calculator"

// SignalPhase is one movement served by the signal.
// SignalPhase 表示信号灯服务的一个相位。
type SignalPhase struct {
	Name       string
	Flow       float64 // veh/s
	Saturation float64 // veh/s
}

// CycleConfig holds the cycle length and the global green bounds applied to each phase.
// CycleConfig 保存周期长度以及对每个相位生效的全局绿灯上下限。
type CycleConfig struct {
	Cycle float64
	GMin  float64
	GMax  float64
}

// Interval is a closed range of green times in seconds.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

func (i Interval) Mid() float64 {
	return 0.5 * (i.Lower + i.Upper)
}

func (i Interval) Contains(g float64) bool {
	return g >= i.Lower && g <= i.Upper
}

// GreenSplit assigns green time to phases A and B; A + B equals the cycle length.
// GreenSplit 为 A、B 两相位分配绿灯时间，二者之和等于周期长度。
type GreenSplit struct {
	A float64 `json:"g_a"`
	B float64 `json:"g_b"`
}

func EqualSplit(cycle float64) GreenSplit {
	return GreenSplit{A: cycle / 2, B: cycle - cycle/2}
}

// OptimizationResult is the chosen split with the resulting per-phase and weighted delays.
type OptimizationResult struct {
	Split    GreenSplit       `json:"split"`
	Bounds   Interval         `json:"bounds"`
	DelayA   calculator.Delay `json:"delay_a"`
	DelayB   calculator.Delay `json:"delay_b"`
	Weighted calculator.Delay `json:"weighted_delay"`
}

// Evaluate computes phase delays and the flow-weighted delay for a split.
func Evaluate(phaseA SignalPhase, phaseB SignalPhase, split GreenSplit, cycle float64) (calculator.Delay, calculator.Delay, calculator.Delay) {
	delayA := calculator.WebsterDelay(phaseA.Flow, phaseA.Saturation, split.A, cycle)
	delayB := calculator.WebsterDelay(phaseB.Flow, phaseB.Saturation, split.B, cycle)
	return delayA, delayB, calculator.FlowWeightedDelay(phaseA.Flow, delayA, phaseB.Flow, delayB)
}
