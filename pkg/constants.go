package pkg

const (
	JSONSchemaVersion = "v1"

	SecondsPerHour = 3600.0

	DefaultCycleSeconds     = 90.0
	DefaultSaturationVehSec = 0.5
	DefaultGreenMinSeconds  = 25.0
	DefaultGreenMaxSeconds  = 65.0
	DefaultXMax             = 0.90

	DefaultNSShare = 0.6
	DefaultEOShare = 0.4

	// OversaturationSentinel is the legacy rendering of an oversaturated delay in CSV output.
	OversaturationSentinel = 1e9
)
