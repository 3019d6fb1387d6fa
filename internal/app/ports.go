package app

import (
	"context"

	"github.com/chenzhuyu2004/greensplit/internal/flows"
)

// ScenarioSource supplies the demand scenarios of a run.
type ScenarioSource interface {
	Scenarios(ctx context.Context) ([]flows.Scenario, error)
}
