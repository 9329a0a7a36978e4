package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simpulse/racesim/internal/car"
	"github.com/simpulse/racesim/internal/events"
	"github.com/simpulse/racesim/internal/physics"
	"github.com/simpulse/racesim/internal/track"
	"github.com/simpulse/racesim/internal/weather"
)

func straightLoop(t *testing.T, length float64) *track.Track {
	t.Helper()
	trk, err := track.New([]track.Segment{
		{Kind: track.KindStraight, Length: length, GripMultiplier: 1, IdealSpeed: physics.MaxSpeed},
	})
	require.NoError(t, err)
	return trk
}

func testDrivers(n int) []car.Driver {
	roster := car.DefaultRoster()
	return roster[:n]
}

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Events.CrashBaseProbability = 0
	return cfg
}

func TestNewValidatesConfig(t *testing.T) {
	trk := straightLoop(t, 1000)

	cfg := DefaultConfig()
	cfg.DT = 0
	_, err := New(trk, testDrivers(2), cfg)
	var badConfig *BadConfigError
	require.ErrorAs(t, err, &badConfig)

	_, err = New(trk, nil, DefaultConfig())
	require.ErrorAs(t, err, &badConfig)
}

func TestGridDefaultsToDriverOrder(t *testing.T) {
	trk := straightLoop(t, 1000)
	sim, err := New(trk, testDrivers(4), DefaultConfig())
	require.NoError(t, err)

	for i, c := range sim.state.Cars {
		assert.Equal(t, i+1, c.Position)
	}
	// Road order matches rank order: earlier grid slots sit further ahead.
	assert.Greater(t, sim.state.Car(0).LapDistance, sim.state.Car(3).LapDistance)
}

func TestInjectStartingGrid(t *testing.T) {
	trk := straightLoop(t, 1000)

	t.Run("reorders before the first tick", func(t *testing.T) {
		sim, err := New(trk, testDrivers(3), DefaultConfig())
		require.NoError(t, err)

		require.NoError(t, sim.InjectStartingGrid([]int{2, 0, 1}))
		assert.Equal(t, 1, sim.state.Car(2).Position)
		assert.Equal(t, 2, sim.state.Car(0).Position)
		assert.Equal(t, 3, sim.state.Car(1).Position)
		assert.Greater(t, sim.state.Car(2).LapDistance, sim.state.Car(0).LapDistance)
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		sim, err := New(trk, testDrivers(3), DefaultConfig())
		require.NoError(t, err)
		var badGrid *BadGridError
		require.ErrorAs(t, sim.InjectStartingGrid([]int{0, 1}), &badGrid)
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		sim, err := New(trk, testDrivers(3), DefaultConfig())
		require.NoError(t, err)
		var badGrid *BadGridError
		require.ErrorAs(t, sim.InjectStartingGrid([]int{0, 1, 1}), &badGrid)
	})

	t.Run("rejects unknown ids", func(t *testing.T) {
		sim, err := New(trk, testDrivers(3), DefaultConfig())
		require.NoError(t, err)
		var badGrid *BadGridError
		require.ErrorAs(t, sim.InjectStartingGrid([]int{0, 1, 7}), &badGrid)
	})

	t.Run("rejects after the first tick", func(t *testing.T) {
		sim, err := New(trk, testDrivers(3), DefaultConfig())
		require.NoError(t, err)
		require.NoError(t, sim.Tick())
		var badGrid *BadGridError
		require.ErrorAs(t, sim.InjectStartingGrid([]int{0, 1, 2}), &badGrid)
	})
}

func TestZeroLapRaceFinishesOnTheGrid(t *testing.T) {
	trk := straightLoop(t, 1000)
	cfg := DefaultConfig()
	cfg.NumLaps = 0

	sim, err := New(trk, testDrivers(3), cfg)
	require.NoError(t, err)

	assert.True(t, sim.Finished())
	require.NoError(t, sim.Tick())
	assert.Equal(t, 0, sim.state.StepIndex)

	snap := sim.Snapshot()
	require.Len(t, snap.Standings.Entries, 3)
	for i, entry := range snap.Standings.Entries {
		assert.Equal(t, i+1, entry.Position)
		assert.Equal(t, i, entry.CarID)
	}
}

func TestDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebugChecks = true

	run := func() ([][]float64, []events.Event, []ReplayEntry) {
		sim, err := New(track.StreetCircuit(), testDrivers(6), cfg)
		require.NoError(t, err)

		var vectors [][]float64
		var stream []events.Event
		for i := 0; i < 300; i++ {
			require.NoError(t, sim.Tick())
			for _, c := range sim.state.Cars {
				vectors = append(vectors, c.ToVector())
			}
		}
		snap := sim.Snapshot()
		stream = append(stream, snap.Events...)
		return vectors, stream, sim.ReplayLog()
	}

	vecA, evA, repA := run()
	vecB, evB, repB := run()

	// Bit-identical agent vectors at every tick, element-wise equal events.
	require.Equal(t, len(vecA), len(vecB))
	for i := range vecA {
		require.Equal(t, vecA[i], vecB[i], "vector %d diverged", i)
	}
	assert.Equal(t, evA, evB)
	assert.Equal(t, repA, repB)
}

func TestLapCompletionWrapsAndBooksTime(t *testing.T) {
	trk := straightLoop(t, 2500)
	sim, err := New(trk, testDrivers(1), quietConfig())
	require.NoError(t, err)

	c := sim.state.Car(0)
	c.LapDistance = 2499.8
	c.VX = 50
	c.LapStartTime = 0

	require.NoError(t, sim.Tick())

	assert.Equal(t, 1, c.CurrentLap)
	assert.Less(t, c.LapDistance, 1.0)

	snap := sim.Snapshot()
	require.NotEmpty(t, snap.Events)
	lap := snap.Events[0]
	assert.Equal(t, events.KindLapComplete, lap.Kind)
	assert.Equal(t, 0, lap.Subject)
	assert.Equal(t, 1, lap.Lap)
	assert.InDelta(t, sim.cfg.DT, lap.LapTime, 1e-9)
}

func TestAllRetiredTerminates(t *testing.T) {
	trk := straightLoop(t, 1000)
	sim, err := New(trk, testDrivers(3), DefaultConfig())
	require.NoError(t, err)

	for _, c := range sim.state.Cars {
		c.Retire(car.DNFCrash)
	}
	require.NoError(t, sim.Tick())
	assert.True(t, sim.Finished())
}

func TestBlowupRollsBackAndLatches(t *testing.T) {
	trk := straightLoop(t, 1000)
	sim, err := New(trk, testDrivers(2), DefaultConfig())
	require.NoError(t, err)

	sim.state.Car(1).VX = math.NaN()

	err = sim.Tick()
	var blowup *BlowupError
	require.ErrorAs(t, err, &blowup)
	assert.Equal(t, 1, blowup.CarID)

	// The tick was rolled back wholesale.
	assert.Equal(t, 0.0, sim.state.T)
	assert.Equal(t, 0, sim.state.StepIndex)

	// Latched until acknowledged.
	require.ErrorAs(t, sim.Tick(), &blowup)
	sim.AcknowledgeFailure()

	// The corrupt value is still there, so the next tick trips again.
	require.ErrorAs(t, sim.Tick(), &blowup)
}

func TestOvertakeOnStraight(t *testing.T) {
	trk := straightLoop(t, 2000)
	drivers := []car.Driver{
		{Name: "Fast", Skill: 0.9, Aggression: 0.9, Consistency: 1},
		{Name: "Slow", Skill: 0.4, Aggression: 0.1, Consistency: 1},
	}
	cfg := quietConfig()
	cfg.NumLaps = 5

	sim, err := New(trk, drivers, cfg)
	require.NoError(t, err)
	// Slow car starts from pole.
	require.NoError(t, sim.InjectStartingGrid([]int{1, 0}))

	var overtake *events.Event
	for i := 0; i < 4000 && overtake == nil; i++ {
		require.NoError(t, sim.Tick())
		if i%200 == 199 {
			for _, ev := range sim.Snapshot().Events {
				if ev.Kind == events.KindOvertake {
					overtake = &ev
					break
				}
			}
		}
	}

	require.NotNil(t, overtake, "the faster car must convert the pass")
	assert.Equal(t, 0, overtake.Subject)
	assert.Equal(t, 1, overtake.Defender)
	assert.Equal(t, 1, sim.state.Car(0).Position)
	assert.Equal(t, 1, sim.state.Car(1).OvertakesReceived)
}

func TestAttackModeIgnition(t *testing.T) {
	// Two straights; the second is an attack-mode activation zone.
	trk, err := track.New([]track.Segment{
		{Kind: track.KindStraight, Length: 500, GripMultiplier: 1, IdealSpeed: physics.MaxSpeed},
		{Kind: track.KindStraight, Length: 500, GripMultiplier: 1, IdealSpeed: physics.MaxSpeed, InAttackZone: true},
	})
	require.NoError(t, err)

	cfg := quietConfig()
	cfg.NumLaps = 10
	cfg.Seed = 42
	drivers := []car.Driver{
		{Name: "Lead", Skill: 0.7, Aggression: 0.5, Consistency: 1},
		{Name: "Chase", Skill: 0.7, Aggression: 0.5, Consistency: 1},
	}
	sim, err := New(trk, drivers, cfg)
	require.NoError(t, err)

	// Deep into the race, chasing close: the policy conditions hold
	// whenever the car crosses the activation zone.
	for _, c := range sim.state.Cars {
		c.CurrentLap = 8
	}

	var activate *events.Event
	for i := 0; i < 20000 && activate == nil; i++ {
		require.NoError(t, sim.Tick())
		if i%200 == 199 {
			for _, ev := range sim.Snapshot().Events {
				if ev.Kind == events.KindAttackActivate {
					activate = &ev
					break
				}
			}
		}
		if sim.Finished() {
			break
		}
	}

	require.NotNil(t, activate, "attack mode must ignite inside the zone")
	boosted := sim.state.Car(activate.Subject)
	assert.Equal(t, 1, boosted.AttackUsesLeft)
	assert.InDelta(t, physics.AttackDuration, activate.Remaining, 1e-9)
}

func TestWeatherSwapTakesEffectNextTick(t *testing.T) {
	trk := straightLoop(t, 1000)
	sim, err := New(trk, testDrivers(1), DefaultConfig())
	require.NoError(t, err)

	storm := weather.View{Temperature: 18, RainIntensity: 0.9, GripMultiplier: 0.7}
	sim.SetWeather(storm)
	assert.Equal(t, weather.Dry(), sim.weatherView, "swap is deferred to the next tick")

	require.NoError(t, sim.Tick())
	assert.Equal(t, storm, sim.weatherView)
}

func TestMaxTicksFailSafe(t *testing.T) {
	trk := straightLoop(t, 1000)
	cfg := DefaultConfig()
	cfg.MaxTicks = 10

	sim, err := New(trk, testDrivers(2), cfg)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, sim.Tick())
	}
	assert.True(t, sim.Finished())
	assert.Equal(t, 10, sim.state.StepIndex)
}

func TestSnapshotDrainsEventsOnce(t *testing.T) {
	trk := straightLoop(t, 2500)
	sim, err := New(trk, testDrivers(1), quietConfig())
	require.NoError(t, err)

	c := sim.state.Car(0)
	c.LapDistance = 2499.5
	c.VX = 60

	require.NoError(t, sim.Tick())

	first := sim.Snapshot()
	require.NotEmpty(t, first.Events)
	second := sim.Snapshot()
	assert.Empty(t, second.Events)
}

func TestReplayMatchesEventStream(t *testing.T) {
	cfg := quietConfig()
	sim, err := New(track.StreetCircuit(), testDrivers(4), cfg)
	require.NoError(t, err)

	var drained []events.Event
	for i := 0; i < 2000; i++ {
		require.NoError(t, sim.Tick())
		if i%500 == 499 {
			drained = append(drained, sim.Snapshot().Events...)
		}
	}
	drained = append(drained, sim.Snapshot().Events...)

	replay := sim.ReplayLog()
	require.Len(t, replay, len(drained))
	for i, entry := range replay {
		assert.Equal(t, drained[i].Kind, entry.Kind)
		assert.Equal(t, drained[i].Subject, entry.Subject)
	}
}

func TestInvariantsHoldOverARace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebugChecks = true
	cfg.NumLaps = 1

	sim, err := New(track.StreetCircuit(), testDrivers(8), cfg)
	require.NoError(t, err)

	// DebugChecks turn any invariant breach into a tick error.
	for i := 0; i < 5000 && !sim.Finished(); i++ {
		require.NoError(t, sim.Tick())
	}
}
