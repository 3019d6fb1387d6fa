package errors

const (
	Success            = 0
	InputError         = 1
	InfeasibleBounds   = 2
	SolverFailure      = 3
	DatasetError       = 4
	Timeout            = 12
	AllScenariosFailed = 20
)

var codeNames = map[int]string{
	Success:            "ok",
	InputError:         "input",
	InfeasibleBounds:   "infeasible",
	SolverFailure:      "solver",
	DatasetError:       "dataset",
	Timeout:            "timeout",
	AllScenariosFailed: "all_scenarios_failed",
}

// CodeName returns the short machine name of an exit code, "unknown" for codes outside the table.
func CodeName(code int) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return "unknown"
}
