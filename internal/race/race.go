// Package race owns the ordered collection of cars, the global clock, and
// the standings bookkeeping derived from them.
package race

import (
	"math"
	"sort"

	"github.com/simpulse/racesim/internal/car"
)

// State is the shared race record. Cars are indexed by id and mutated only
// through the integrator's per-tick sequence.
type State struct {
	T         float64 `json:"t"`
	StepIndex int     `json:"step_index"`

	Cars []*car.State `json:"cars"`

	SafetyCarActive bool    `json:"safety_car_active"`
	SafetyCarUntil  float64 `json:"safety_car_until"`
}

// New builds the race state with one car per driver, full batteries, and
// grid order by id.
func New(drivers []car.Driver, batteryCapacity, gripMax, tireTemp, batteryTemp float64) *State {
	s := &State{Cars: make([]*car.State, len(drivers))}
	for i, d := range drivers {
		s.Cars[i] = car.New(i, d, batteryCapacity, gripMax, tireTemp, batteryTemp)
	}
	return s
}

// Car returns the car with the given id.
func (s *State) Car(id int) *car.State { return s.Cars[id] }

// ActiveCount returns the number of cars still racing.
func (s *State) ActiveCount() int {
	n := 0
	for _, c := range s.Cars {
		if c.Active {
			n++
		}
	}
	return n
}

// Leader returns the active car holding position 1, or nil once the field
// is empty.
func (s *State) Leader() *car.State {
	for _, c := range s.Cars {
		if c.Active && c.Position == 1 {
			return c
		}
	}
	return nil
}

// LeaderLap returns the leading active car's lap count, 0 with no leader.
func (s *State) LeaderLap() int {
	lap := 0
	for _, c := range s.Cars {
		if c.Active && c.CurrentLap > lap {
			lap = c.CurrentLap
		}
	}
	return lap
}

// byRoadPosition orders active cars ahead of inactive ones, then by race
// distance descending. The sort is stable so equal distances keep id order.
func byRoadPosition(cars []*car.State) []*car.State {
	sorted := make([]*car.State, len(cars))
	copy(sorted, cars)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Active != b.Active {
			return a.Active
		}
		if a.CurrentLap != b.CurrentLap {
			return a.CurrentLap > b.CurrentLap
		}
		return a.LapDistance > b.LapDistance
	})
	return sorted
}

// UpdatePositions recomputes ranks 1..K over the active cars from their
// race distance. Inactive cars keep the rank they held when they retired.
func (s *State) UpdatePositions() {
	rank := 1
	for _, c := range byRoadPosition(s.Cars) {
		if !c.Active {
			continue
		}
		c.Position = rank
		rank++
	}
}

// ComputeGaps refreshes the time-based gap to the leader and to the car
// ahead for every active car, estimated from distance deltas at current
// speed. Retired cars carry the sentinel -1.
func (s *State) ComputeGaps() {
	ordered := byRoadPosition(s.Cars)
	if len(ordered) == 0 || !ordered[0].Active {
		return
	}
	leader := ordered[0]
	leader.GapToLeader = 0
	leader.GapToAhead = 0

	for i := 1; i < len(ordered); i++ {
		c := ordered[i]
		if !c.Active {
			// Sentinel: retired cars have no meaningful gap.
			c.GapToLeader = -1
			c.GapToAhead = -1
			continue
		}
		speed := math.Max(c.Speed(), 1)
		c.GapToLeader = (leader.TotalDistance - c.TotalDistance) / speed
		ahead := ordered[i-1]
		if ahead.Active {
			c.GapToAhead = (ahead.TotalDistance - c.TotalDistance) / speed
		} else {
			c.GapToAhead = c.GapToLeader
		}
	}
}
