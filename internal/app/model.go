package app

import "github.com/chenzhuyu2004/greensplit/pkg"

func DefaultParams() Params {
	return Params{
		Cycle:        pkg.DefaultCycleSeconds,
		SaturationNS: pkg.DefaultSaturationVehSec,
		SaturationEO: pkg.DefaultSaturationVehSec,
		GMin:         pkg.DefaultGreenMinSeconds,
		GMax:         pkg.DefaultGreenMaxSeconds,
		NSShare:      pkg.DefaultNSShare,
		EOShare:      pkg.DefaultEOShare,
		XMax:         pkg.DefaultXMax,
	}
}

// normalizeParams fills a zero-valued Params with defaults and validates the result.
func normalizeParams(p Params) (Params, error) {
	if p == (Params{}) {
		p = DefaultParams()
	}
	if err := validateParams(p); err != nil {
		return Params{}, err
	}
	return p, nil
}

func vphToVehPerSecond(flowVPH float64) float64 {
	return flowVPH / pkg.SecondsPerHour
}
