package flows

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// VolumePoint is one observation of traffic volume (veh/h) at a timestamp.
type VolumePoint struct {
	Timestamp time.Time
	Volume    float64
}

// HourStat summarises the observations falling in one hour of day.
type HourStat struct {
	Hour    int     `json:"hour"`
	Mean    float64 `json:"mean"`
	Samples int     `json:"samples"`
}

// HourlyProfile holds one HourStat per observed hour of day, sorted by hour.
type HourlyProfile []HourStat

// ProfileSource produces an hourly demand profile and a key identifying its inputs.
type ProfileSource interface {
	HourlyProfile(ctx context.Context) (HourlyProfile, error)
	CacheKey() (string, error)
}

// GroupByHour averages volumes by the wall-clock hour of their timestamps.
func GroupByHour(points []VolumePoint) HourlyProfile {
	groups := lo.GroupBy(points, func(p VolumePoint) int {
		return p.Timestamp.Hour()
	})

	hours := lo.Keys(groups)
	sort.Ints(hours)

	profile := make(HourlyProfile, 0, len(hours))
	for _, hour := range hours {
		volumes := lo.Map(groups[hour], func(p VolumePoint, _ int) float64 {
			return p.Volume
		})
		profile = append(profile, HourStat{
			Hour:    hour,
			Mean:    stat.Mean(volumes, nil),
			Samples: len(volumes),
		})
	}
	return profile
}

func (p HourlyProfile) Lookup(hour int) (HourStat, bool) {
	return lo.Find(p, func(s HourStat) bool {
		return s.Hour == hour
	})
}

// HourlyScenarios turns selected hours of a profile into scenarios named <label>_hour_HH.
// Hours absent from the profile are skipped.
type HourlyScenarios struct {
	Profile ProfileSource
	Hours   []int
	Label   string
}

func (h HourlyScenarios) Scenarios(ctx context.Context) ([]Scenario, error) {
	if h.Profile == nil {
		return nil, fmt.Errorf("hourly scenarios have no profile source")
	}
	profile, err := h.Profile.HourlyProfile(ctx)
	if err != nil {
		return nil, err
	}

	label := h.Label
	if label == "" {
		label = "dataset"
	}

	out := make([]Scenario, 0, len(h.Hours))
	for _, hour := range lo.Uniq(h.Hours) {
		s, ok := profile.Lookup(hour)
		if !ok {
			continue
		}
		out = append(out, Scenario{
			Source:       label,
			Name:         fmt.Sprintf("%s_hour_%02d", label, hour),
			TotalFlowVPH: s.Mean,
		})
	}
	return out, nil
}
