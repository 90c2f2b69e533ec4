package game

import (
	"math/rand"
	"testing"

	"github.com/shiftline/emergency/pkg/game/types"
	"github.com/stretchr/testify/assert"
)

func TestFixedSchedule(t *testing.T) {
	var fixed FixedSchedule
	fixed[0] = types.HourArrivals{A: 1, B: 2, C: 3}
	fixed[23] = types.HourArrivals{C: 5}

	schedule := fixed.Schedule()
	assert.Equal(t, types.HourArrivals{A: 1, B: 2, C: 3}, schedule[0])
	assert.Equal(t, types.HourArrivals{C: 5}, schedule[23])
	assert.Equal(t, types.HourArrivals{}, schedule[12])
}

func TestScheduleGenerator(t *testing.T) {
	params := types.DefaultGameParameters()
	generator := NewScheduleGenerator(params, rand.New(rand.NewSource(42)))

	schedule := generator.Schedule()

	var total types.TypeCounts
	for _, hour := range schedule {
		assert.GreaterOrEqual(t, hour.A, 0)
		assert.GreaterOrEqual(t, hour.B, 0)
		assert.GreaterOrEqual(t, hour.C, 0)
		total.Add(types.PatientTypeA, hour.A)
		total.Add(types.PatientTypeB, hour.B)
		total.Add(types.PatientTypeC, hour.C)
	}

	// Daily total is Poisson around the configured volume. A wide band keeps
	// the test deterministic across rng sequences without pinning the seed's
	// exact output.
	assert.Greater(t, total.Total(), 0)
	assert.Less(t, total.Total(), 4*params.DailyVolume.Total())
}

func TestScheduleGeneratorZeroVolume(t *testing.T) {
	params := types.DefaultGameParameters()
	params.DailyVolume = types.TypeCounts{}
	generator := NewScheduleGenerator(params, rand.New(rand.NewSource(42)))

	schedule := generator.Schedule()
	for _, hour := range schedule {
		assert.Equal(t, types.HourArrivals{}, hour)
	}
}

func TestScheduleGeneratorPerTypeWeights(t *testing.T) {
	params := types.DefaultGameParameters()
	params.DailyVolume = types.TypeCounts{A: 24, B: 24, C: 24}

	// Concentrate every type into a single distinct hour.
	var aWeights, bWeights, cWeights [24]float64
	aWeights[3] = 1.0
	bWeights[7] = 1.0
	cWeights[11] = 1.0
	params.PerTypeWeights = map[types.PatientType][24]float64{
		types.PatientTypeA: aWeights,
		types.PatientTypeB: bWeights,
		types.PatientTypeC: cWeights,
	}

	generator := NewScheduleGenerator(params, rand.New(rand.NewSource(42)))
	schedule := generator.Schedule()

	for hour, arrivals := range schedule {
		if hour != 3 {
			assert.Zero(t, arrivals.A, "hour %d", hour)
		}
		if hour != 7 {
			assert.Zero(t, arrivals.B, "hour %d", hour)
		}
		if hour != 11 {
			assert.Zero(t, arrivals.C, "hour %d", hour)
		}
	}
}

func TestPoisson(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	assert.Equal(t, 0, poisson(rng, 0))
	assert.Equal(t, 0, poisson(rng, -1))

	sum := 0
	for i := 0; i < 1000; i++ {
		sum += poisson(rng, 2.0)
	}
	mean := float64(sum) / 1000.0
	assert.InDelta(t, 2.0, mean, 0.3)
}
