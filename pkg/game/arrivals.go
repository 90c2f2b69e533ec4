package game

import (
	"math"
	"math/rand"

	"github.com/shiftline/emergency/pkg/game/types"
)

// ScheduleSource supplies the 24-hour arrivals schedule for a session. The
// turn engine treats generated and pregenerated schedules identically.
type ScheduleSource interface {
	Schedule() [24]types.HourArrivals
}

// FixedSchedule is a pregenerated schedule supplied externally.
type FixedSchedule [24]types.HourArrivals

func (s FixedSchedule) Schedule() [24]types.HourArrivals {
	return [24]types.HourArrivals(s)
}

// ScheduleGenerator samples a stochastic arrivals schedule from the
// configured daily volumes and hourly weight curves. It is a pregame setup
// tool; determinism is not required, but an rng is injected so callers that
// want reproducible schedules can seed one.
type ScheduleGenerator struct {
	params *types.GameParameters
	rng    *rand.Rand
}

func NewScheduleGenerator(params *types.GameParameters, rng *rand.Rand) *ScheduleGenerator {
	return &ScheduleGenerator{
		params: params,
		rng:    rng,
	}
}

// Schedule samples one 24-hour schedule. For each hour the total arrival
// count is Poisson with mean totalDailyVolume * hourlyWeight[hour]; the
// count is then split across types by multinomial sampling with each
// type's share of the daily volume as its probability. Zero-count hours
// are valid output.
func (g *ScheduleGenerator) Schedule() [24]types.HourArrivals {
	var schedule [24]types.HourArrivals

	totalVolume := g.params.DailyVolume.Total()
	if totalVolume == 0 {
		return schedule
	}

	if g.params.PerTypeWeights != nil {
		// Per-type weight curves replace the multinomial split: each type
		// gets its own Poisson draw against its own curve.
		for hour := 0; hour < 24; hour++ {
			for _, t := range types.PatientTypes {
				weights := g.params.PerTypeWeights[t]
				mean := float64(g.params.DailyVolume.Get(t)) * weights[hour]
				schedule[hour].Add(t, poisson(g.rng, mean))
			}
		}
		return schedule
	}

	shares := map[types.PatientType]float64{}
	for _, t := range types.PatientTypes {
		shares[t] = float64(g.params.DailyVolume.Get(t)) / float64(totalVolume)
	}

	for hour := 0; hour < 24; hour++ {
		mean := float64(totalVolume) * g.params.HourlyWeights[hour]
		count := poisson(g.rng, mean)
		for i := 0; i < count; i++ {
			schedule[hour].Add(g.sampleType(shares), 1)
		}
	}

	return schedule
}

func (g *ScheduleGenerator) sampleType(shares map[types.PatientType]float64) types.PatientType {
	u := g.rng.Float64()
	for _, t := range types.PatientTypes {
		u -= shares[t]
		if u < 0 {
			return t
		}
	}
	// Floating rounding can leave a sliver above the last share.
	return types.PatientTypes[len(types.PatientTypes)-1]
}

// poisson samples a Poisson-distributed count via Knuth's method.
func poisson(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}
	l := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}
