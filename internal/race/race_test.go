package race

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simpulse/racesim/internal/car"
)

const eCap = 51 * 3.6e6

func testState(n int) *State {
	drivers := make([]car.Driver, n)
	for i := range drivers {
		drivers[i] = car.Driver{Name: "D", Skill: 0.5, Aggression: 0.5, Consistency: 0.9}
	}
	s := New(drivers, eCap, 1.2, 70, 40)
	for _, c := range s.Cars {
		c.VX = 50
	}
	return s
}

func TestUpdatePositionsOrdersByRaceDistance(t *testing.T) {
	s := testState(4)
	s.Cars[0].CurrentLap, s.Cars[0].LapDistance = 2, 100
	s.Cars[1].CurrentLap, s.Cars[1].LapDistance = 3, 50
	s.Cars[2].CurrentLap, s.Cars[2].LapDistance = 2, 900
	s.Cars[3].CurrentLap, s.Cars[3].LapDistance = 1, 1200

	s.UpdatePositions()

	assert.Equal(t, 1, s.Cars[1].Position)
	assert.Equal(t, 2, s.Cars[2].Position)
	assert.Equal(t, 3, s.Cars[0].Position)
	assert.Equal(t, 4, s.Cars[3].Position)

	leader := s.Leader()
	require.NotNil(t, leader)
	assert.Equal(t, 1, leader.ID)
	assert.Equal(t, 3, s.LeaderLap())
}

func TestPositionsArePermutationOfActive(t *testing.T) {
	s := testState(6)
	s.Cars[2].Retire(car.DNFCrash)
	s.Cars[4].Retire(car.DNFEnergyEmpty)
	for i, c := range s.Cars {
		c.LapDistance = float64(100 * i)
	}

	s.UpdatePositions()

	seen := map[int]bool{}
	for _, c := range s.Cars {
		if c.Active {
			assert.False(t, seen[c.Position])
			seen[c.Position] = true
		}
	}
	for rank := 1; rank <= s.ActiveCount(); rank++ {
		assert.True(t, seen[rank], "missing rank %d", rank)
	}
}

func TestRetiredCarKeepsItsPosition(t *testing.T) {
	s := testState(3)
	for i, c := range s.Cars {
		c.LapDistance = float64(100 * (3 - i))
	}
	s.UpdatePositions()
	require.Equal(t, 3, s.Cars[2].Position)

	s.Cars[2].Retire(car.DNFMechanical)
	s.Cars[2].LapDistance = 0
	s.UpdatePositions()

	assert.Equal(t, 3, s.Cars[2].Position)
	assert.Equal(t, 2, s.ActiveCount())
}

func TestComputeGaps(t *testing.T) {
	s := testState(3)
	s.Cars[0].TotalDistance = 1000
	s.Cars[0].LapDistance = 1000
	s.Cars[1].TotalDistance = 900
	s.Cars[1].LapDistance = 900
	s.Cars[2].TotalDistance = 850
	s.Cars[2].LapDistance = 850

	s.UpdatePositions()
	s.ComputeGaps()

	assert.Equal(t, 0.0, s.Cars[0].GapToLeader)
	assert.InDelta(t, 2, s.Cars[1].GapToLeader, 1e-9) // 100 m at 50 m/s
	assert.InDelta(t, 2, s.Cars[1].GapToAhead, 1e-9)
	assert.InDelta(t, 3, s.Cars[2].GapToLeader, 1e-9)
	assert.InDelta(t, 1, s.Cars[2].GapToAhead, 1e-9)
}

func TestStandings(t *testing.T) {
	s := testState(3)
	s.Cars[1].TotalDistance, s.Cars[1].LapDistance = 500, 500
	s.Cars[1].BestLapTime = 92.5
	s.Cars[0].BestLapTime = 94.0
	s.Cars[2].Retire(car.DNFCrash)

	s.UpdatePositions()
	s.ComputeGaps()
	snap := Standings(s, eCap)

	require.Len(t, snap.Entries, 3)
	assert.Equal(t, 1, snap.Entries[0].Position)
	assert.Equal(t, 1, snap.Entries[0].CarID)
	assert.True(t, snap.Entries[0].Running)

	// Retired cars sort behind the field.
	last := snap.Entries[2]
	assert.False(t, last.Running)
	assert.Equal(t, "crash", last.DNFReason)

	assert.Equal(t, 92.5, snap.FastestLap)
}
