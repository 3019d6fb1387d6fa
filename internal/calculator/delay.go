package calculator

import (
	"encoding/json"
	"fmt"
	"math"
)

// capacityEpsilon is the smallest effective capacity (veh/s) treated as non-zero.
const capacityEpsilon = 1e-12

// Delay is a per-vehicle delay in seconds, or the oversaturated state when the phase
// cannot stably serve its flow.
type Delay struct {
	Seconds       float64
	Oversaturated bool
}

func Finite(seconds float64) Delay {
	return Delay{Seconds: seconds}
}

func Oversaturated() Delay {
	return Delay{Oversaturated: true}
}

// Value returns the delay in seconds and whether it is finite.
func (d Delay) Value() (float64, bool) {
	if d.Oversaturated {
		return 0, false
	}
	return d.Seconds, true
}

func (d Delay) String() string {
	if d.Oversaturated {
		return "oversaturated"
	}
	return fmt.Sprintf("%.2f s/veh", d.Seconds)
}

func (d Delay) MarshalJSON() ([]byte, error) {
	if d.Oversaturated {
		return []byte("null"), nil
	}
	return json.Marshal(d.Seconds)
}

func (d *Delay) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Oversaturated()
		return nil
	}
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return err
	}
	*d = Finite(seconds)
	return nil
}

// WebsterDelay returns the uniform-delay term of Webster's formula for one phase.
// flow and saturation are in veh/s, green and cycle in seconds.
//
// The stochastic overflow term is not included, so the result is a delay proxy.
func WebsterDelay(flow float64, saturation float64, green float64, cycle float64) Delay {
	if cycle <= 0 || green >= cycle {
		return Oversaturated()
	}

	gRatio := green / cycle
	capacity := saturation * gRatio
	if !(capacity > capacityEpsilon) {
		return Oversaturated()
	}

	x := flow / capacity
	if !(x < 1) {
		return Oversaturated()
	}

	return Finite(cycle * (1 - gRatio) * (1 - gRatio) / (2 * (1 - x)))
}

// VolumeToCapacity returns x = flow / (saturation * green / cycle), +Inf when capacity is zero.
func VolumeToCapacity(flow float64, saturation float64, green float64, cycle float64) float64 {
	if cycle <= 0 {
		return math.Inf(1)
	}
	capacity := saturation * green / cycle
	if !(capacity > capacityEpsilon) {
		return math.Inf(1)
	}
	return flow / capacity
}

// FlowWeightedDelay averages two phase delays weighted by their flows.
// Zero-flow phases do not contribute; a loaded oversaturated phase makes the average oversaturated.
func FlowWeightedDelay(flowA float64, delayA Delay, flowB float64, delayB Delay) Delay {
	total := flowA + flowB
	if total <= capacityEpsilon {
		return Finite(0)
	}

	sum := 0.0
	for _, p := range []struct {
		flow  float64
		delay Delay
	}{{flowA, delayA}, {flowB, delayB}} {
		if p.flow <= 0 {
			continue
		}
		seconds, ok := p.delay.Value()
		if !ok {
			return Oversaturated()
		}
		sum += p.flow * seconds
	}
	return Finite(sum / total)
}

// ValidateDelayInputs reports the first precondition of WebsterDelay that does not hold.
func ValidateDelayInputs(flow float64, saturation float64, green float64, cycle float64) error {
	inputs := []struct {
		name  string
		value float64
	}{{"flow", flow}, {"saturation", saturation}, {"green", green}, {"cycle", cycle}}
	for _, in := range inputs {
		if math.IsNaN(in.value) || math.IsInf(in.value, 0) {
			return fmt.Errorf("%s must be finite", in.name)
		}
	}
	switch {
	case cycle <= 0:
		return fmt.Errorf("cycle must be > 0")
	case flow < 0:
		return fmt.Errorf("flow must be >= 0")
	case saturation <= 0:
		return fmt.Errorf("saturation must be > 0")
	case green < 0:
		return fmt.Errorf("green must be >= 0")
	}
	return nil
}
