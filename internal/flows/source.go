// Package flows supplies the demand scenarios an evaluation runs over.
package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chenzhuyu2004/greensplit/pkg/models"
)

// Scenario is one total intersection demand to evaluate, in vehicles per hour.
type Scenario struct {
	Source       string  `json:"source"`
	Name         string  `json:"scenario"`
	TotalFlowVPH float64 `json:"flow_total_vph"`
}

type Source interface {
	Scenarios(ctx context.Context) ([]Scenario, error)
}

type SourceFunc func(ctx context.Context) ([]Scenario, error)

func (f SourceFunc) Scenarios(ctx context.Context) ([]Scenario, error) {
	return f(ctx)
}

// Static returns a fixed scenario list.
func Static(scenarios ...Scenario) Source {
	return SourceFunc(func(context.Context) ([]Scenario, error) {
		return append([]Scenario(nil), scenarios...), nil
	})
}

// Toy serves the built-in demand presets.
type Toy struct {
	Profiles []models.DemandProfile
}

func (t Toy) Scenarios(ctx context.Context) ([]Scenario, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	profiles := t.Profiles
	if profiles == nil {
		profiles = models.ToyDemandProfiles
	}

	out := make([]Scenario, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, Scenario{Source: "toy", Name: p.Name, TotalFlowVPH: p.TotalFlowVPH})
	}
	return out, nil
}

// Multi concatenates the scenarios of every source in order.
func Multi(sources ...Source) Source {
	return SourceFunc(func(ctx context.Context) ([]Scenario, error) {
		var out []Scenario
		for _, s := range sources {
			if s == nil {
				continue
			}
			scenarios, err := s.Scenarios(ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, scenarios...)
		}
		return out, nil
	})
}

// Optional drops a source whose backing file does not exist, logging a warning instead
// of failing the whole run.
func Optional(inner Source, logger *slog.Logger) Source {
	return SourceFunc(func(ctx context.Context) ([]Scenario, error) {
		scenarios, err := inner.Scenarios(ctx)
		if err == nil {
			return scenarios, nil
		}
		if !IsKind(err, ErrorKindNotFound) {
			return nil, err
		}
		if logger != nil {
			logger.WarnContext(ctx, "dataset not found, skipping", "error", err)
		}
		return nil, nil
	})
}

func (s Scenario) Validate() error {
	if s.Name == "" {
		return errors.New("scenario name must not be empty")
	}
	if s.TotalFlowVPH < 0 {
		return fmt.Errorf("scenario %s: total flow must be >= 0", s.Name)
	}
	return nil
}
