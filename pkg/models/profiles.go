package models

// DemandProfile is a named total intersection demand in vehicles per hour.
type DemandProfile struct {
	Name         string
	TotalFlowVPH float64
}

var ToyDemandProfiles = []DemandProfile{
	{Name: "toy_low", TotalFlowVPH: 600},
	{Name: "toy_medium", TotalFlowVPH: 1200},
	{Name: "toy_high", TotalFlowVPH: 1800},
}

// DefaultDatasetHours are the hours of day sampled from a traffic volume dataset.
var DefaultDatasetHours = []int{3, 6, 8, 12, 17}

var PhaseNames = map[string]string{
	"NS": "North-South",
	"EO": "East-West",
}
