// Package engine implements the race integrator.
//
// The simulation advances in fixed timesteps. Each tick runs a deterministic
// sequence over the cars in ascending id order:
//
//  1. Controller pass - every car's driver model synthesises throttle,
//     brake, steering, and an attack-mode request from the track ahead and
//     the race situation.
//
//  2. Physics pass - the force balance, energy, tire, and thermal models
//     advance the car, wrapping lap distance and firing lap completions.
//
//  3. Field pass - positions are recomputed, the stochastic event models run
//     in fixed order (overtakes, crashes, safety car, mechanical), and the
//     derived race metrics are refreshed.
//
// Any NaN or Inf produced during a tick rolls the whole tick back and
// surfaces a BlowupError; no partial state is ever observable.
package engine

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/simpulse/racesim/internal/car"
	"github.com/simpulse/racesim/internal/driver"
	"github.com/simpulse/racesim/internal/events"
	"github.com/simpulse/racesim/internal/physics"
	"github.com/simpulse/racesim/internal/race"
	"github.com/simpulse/racesim/internal/rng"
	"github.com/simpulse/racesim/internal/track"
	"github.com/simpulse/racesim/internal/weather"
)

// gridSpacing is the longitudinal stagger applied to the starting grid so
// the position ordering invariant holds before the first tick.
const gridSpacing = 0.5 // metres

// vectorFields names the canonical vector components for blowup reports.
var vectorFields = [car.VectorLen]string{
	"x", "y", "vx", "vy", "battery_energy", "battery_temperature",
	"tire_wear", "grip_coefficient", "attack_active", "attack_remaining",
	"current_lap", "lap_distance", "long_acc", "steering", "throttle",
	"brake", "active", "position", "gap_to_leader", "total_distance",
}

// ReplayEntry records one fired event by tick index; together with the
// config and seed it is sufficient to reconstruct the event ordering of a
// run.
type ReplayEntry struct {
	Step    int         `json:"step"`
	Kind    events.Kind `json:"kind"`
	Subject int         `json:"subject"`
}

// Snapshot is the consistent between-ticks view handed to external
// consumers. Events are drained into it: each event is delivered exactly
// once, in canonical order.
type Snapshot struct {
	RunID     string                 `json:"run_id"`
	T         float64                `json:"t"`
	StepIndex int                    `json:"step_index"`
	Cars      []car.State            `json:"cars"`
	Standings race.StandingsSnapshot `json:"standings"`
	Events    []events.Event         `json:"events"`
	Finished  bool                   `json:"finished"`
}

// Simulation owns the race state and drives it tick by tick. A single mutex
// guards the state: consumers may snapshot from their own goroutine, but
// never observe a tick in progress.
type Simulation struct {
	mu sync.Mutex

	cfg    Config
	trk    *track.Track
	rngSvc *rng.Service
	state  *race.State
	evts   *events.Engine

	weatherView    weather.View
	pendingWeather *weather.View

	buffer []events.Event
	replay []ReplayEntry

	runID    string
	maxTicks int
	started  bool
	finished bool
	failure  error
}

// New validates the configuration and assembles a simulation on the given
// track with one car per driver, gridded in driver order.
func New(trk *track.Track, drivers []car.Driver, cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(drivers) == 0 {
		return nil, &BadConfigError{Field: "drivers", Reason: "at least one driver required"}
	}

	s := &Simulation{
		cfg:         cfg,
		trk:         trk,
		rngSvc:      rng.NewService(cfg.Seed, len(drivers)),
		state:       race.New(drivers, physics.BatteryCapacity, physics.MuMax, 70, 40),
		weatherView: weather.Dry(),
		runID:       uuid.NewString(),
		maxTicks:    cfg.maxTicks(cfg.NumLaps),
	}
	s.evts = events.NewEngine(cfg.Events, s.rngSvc, cfg.SafetyCarEnabled, cfg.MechanicalFailures, cfg.SafetyCarDuration)

	s.applyGrid(identityGrid(len(drivers)))

	// A zero-lap race is decided on the grid.
	if cfg.NumLaps == 0 {
		s.finished = true
	}
	return s, nil
}

func identityGrid(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// applyGrid sets positions from the id ordering and staggers cars
// longitudinally so road order matches rank order.
func (s *Simulation) applyGrid(ids []int) {
	n := len(ids)
	for rank, id := range ids {
		c := s.state.Car(id)
		c.Position = rank + 1
		c.LapDistance = float64(n-1-rank) * gridSpacing
	}
	s.state.UpdatePositions()
	s.state.ComputeGaps()
}

// RunID identifies this run in exported logs and snapshots.
func (s *Simulation) RunID() string { return s.runID }

// Track returns the shared, read-only circuit descriptor.
func (s *Simulation) Track() *track.Track { return s.trk }

// Finished reports whether the race has terminated.
func (s *Simulation) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// InjectStartingGrid reorders the grid before the first tick. The ids must
// be a permutation of the car ids.
func (s *Simulation) InjectStartingGrid(ids []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return &BadGridError{Reason: "grid can only be set before the first tick"}
	}
	if len(ids) != len(s.state.Cars) {
		return &BadGridError{Reason: fmt.Sprintf("%d ids for %d cars", len(ids), len(s.state.Cars))}
	}
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if id < 0 || id >= len(s.state.Cars) {
			return &BadGridError{Reason: fmt.Sprintf("unknown car id %d", id)}
		}
		if seen[id] {
			return &BadGridError{Reason: fmt.Sprintf("car id %d appears twice", id)}
		}
		seen[id] = true
	}

	s.applyGrid(ids)
	return nil
}

// SetWeather swaps the environment view; it takes effect from the next
// tick.
func (s *Simulation) SetWeather(v weather.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := v
	s.pendingWeather = &pending
}

// AcknowledgeFailure clears a latched per-tick error so the simulation can
// be resumed.
func (s *Simulation) AcknowledgeFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure = nil
}

// Tick advances the race by one timestep. On a numerical failure the tick
// is rolled back, the error is latched, and every further Tick returns it
// until the caller acknowledges.
func (s *Simulation) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickLocked()
}

func (s *Simulation) tickLocked() error {
	if s.failure != nil {
		return s.failure
	}
	if s.finished {
		return nil
	}
	s.started = true

	if s.pendingWeather != nil {
		s.weatherView = *s.pendingWeather
		s.pendingWeather = nil
	}

	// Restore points for whole-tick rollback.
	backup := make([]car.State, len(s.state.Cars))
	for i, c := range s.state.Cars {
		backup[i] = *c
	}
	prevT, prevStep := s.state.T, s.state.StepIndex
	prevSC, prevSCUntil := s.state.SafetyCarActive, s.state.SafetyCarUntil
	mark := s.evts.Mark()

	rollback := func() {
		for i, c := range s.state.Cars {
			*c = backup[i]
		}
		s.state.T, s.state.StepIndex = prevT, prevStep
		s.state.SafetyCarActive, s.state.SafetyCarUntil = prevSC, prevSCUntil
		s.evts.Rewind(mark)
	}

	s.state.T += s.cfg.DT
	s.state.StepIndex++

	var batch []events.Event

	// Per-car controller and physics pass, ascending id.
	for _, c := range s.state.Cars {
		if !c.Active {
			continue
		}
		stream := s.rngSvc.Car(c.ID)
		sit := s.situation(c)
		controls := driver.Decide(c, s.trk, sit, s.weatherView, &s.cfg.Controller, stream)

		if controls.RequestAttack && s.trk.InAttackZone(c.LapDistance) && c.ActivateAttack(physics.AttackDuration) {
			batch = append(batch, events.Event{
				T:         s.state.T,
				Kind:      events.KindAttackActivate,
				Subject:   c.ID,
				Remaining: c.AttackRemaining,
			})
		}

		env := physics.Env{T: s.state.T, DT: s.cfg.DT, Weather: s.weatherView}
		outcome := physics.Step(c, controls.Throttle, controls.Brake, controls.Steering, env, s.trk, &s.cfg.Physics, stream)

		if outcome.LapCompleted {
			batch = append(batch, events.Event{
				T:       s.state.T,
				Kind:    events.KindLapComplete,
				Subject: c.ID,
				Lap:     c.CurrentLap,
				LapTime: outcome.LapTime,
			})
		}
		if outcome.AttackExpired {
			batch = append(batch, events.Event{T: s.state.T, Kind: events.KindAttackExpire, Subject: c.ID})
		}
	}

	s.state.UpdatePositions()
	batch = append(batch, s.evts.Tick(s.state, s.trk, s.cfg.DT)...)

	// Derived metrics.
	s.state.ComputeGaps()
	for _, c := range s.state.Cars {
		c.PerfIndex = c.PerformanceIndex(physics.MaxSpeed, physics.MaxBrakeDecel, physics.BatteryCapacity)
	}

	if err := s.scanForBlowup(); err != nil {
		rollback()
		s.failure = err
		return err
	}
	if s.cfg.DebugChecks {
		if err := s.checkInvariants(); err != nil {
			rollback()
			s.failure = err
			return err
		}
	}

	events.SortBatch(batch)
	s.buffer = append(s.buffer, batch...)
	for _, ev := range batch {
		s.replay = append(s.replay, ReplayEntry{Step: s.state.StepIndex, Kind: ev.Kind, Subject: ev.Subject})
	}

	s.checkTermination()
	return nil
}

// situation assembles the race context for one car's controller.
func (s *Simulation) situation(c *car.State) driver.Situation {
	progress := 0.0
	if s.cfg.NumLaps > 0 {
		progress = (float64(c.CurrentLap) + c.LapDistance/s.trk.TotalLength()) / float64(s.cfg.NumLaps)
	}
	return driver.Situation{
		Position:       c.Position,
		GapToAhead:     c.GapToAhead,
		LapsRemaining:  s.cfg.NumLaps - c.CurrentLap,
		RaceProgress:   math.Min(progress, 1),
		SafetyCar:      s.state.SafetyCarActive,
		SafetyCarSpeed: s.cfg.SafetyCarSpeed,
	}
}

// scanForBlowup looks for NaN or Inf in every car's canonical vector.
func (s *Simulation) scanForBlowup() error {
	for _, c := range s.state.Cars {
		for i, v := range c.ToVector() {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &BlowupError{Step: s.state.StepIndex, CarID: c.ID, Field: vectorFields[i]}
			}
		}
	}
	return nil
}

// checkInvariants asserts the documented state invariants; it only runs
// with DebugChecks enabled.
func (s *Simulation) checkInvariants() error {
	fail := func(format string, args ...any) error {
		return &InvariantError{Step: s.state.StepIndex, Reason: fmt.Sprintf(format, args...)}
	}

	seen := make(map[int]bool)
	active := 0
	for _, c := range s.state.Cars {
		if c.LapDistance < 0 || c.LapDistance >= s.trk.TotalLength() {
			return fail("car %d lap distance %.3f outside [0, %.3f)", c.ID, c.LapDistance, s.trk.TotalLength())
		}
		if c.BatteryEnergy < 0 || c.BatteryEnergy > physics.BatteryCapacity {
			return fail("car %d battery %.1f outside [0, capacity]", c.ID, c.BatteryEnergy)
		}
		if c.TireWear < 0 || c.TireWear > 1 {
			return fail("car %d tire wear %.4f outside [0, 1]", c.ID, c.TireWear)
		}
		if want := physics.MuMax - (physics.MuMax-physics.MuMin)*c.TireWear; c.Grip != want {
			return fail("car %d grip %.6f does not match wear %.6f", c.ID, c.Grip, c.TireWear)
		}
		if c.AttackActive && c.AttackRemaining <= 0 {
			return fail("car %d attack active with no time remaining", c.ID)
		}
		if c.VX < 0 || c.VX > physics.MaxSpeed {
			return fail("car %d speed %.2f outside [0, vmax]", c.ID, c.VX)
		}
		if c.Active {
			active++
			if seen[c.Position] {
				return fail("duplicate position %d", c.Position)
			}
			seen[c.Position] = true
		}
	}
	for rank := 1; rank <= active; rank++ {
		if !seen[rank] {
			return fail("positions of %d active cars are missing rank %d", active, rank)
		}
	}
	return nil
}

// checkTermination ends the race when the leader has the distance, the
// field is empty, or the tick budget is spent.
func (s *Simulation) checkTermination() {
	if s.state.ActiveCount() == 0 {
		s.finished = true
		return
	}
	if leader := s.state.Leader(); leader != nil && leader.CurrentLap >= s.cfg.NumLaps {
		s.finished = true
		return
	}
	if s.state.StepIndex >= s.maxTicks {
		s.finished = true
	}
}

// Run drives the simulation to termination, checking the context between
// ticks. Neither mechanism can observe a partial tick.
func (s *Simulation) Run(ctx context.Context) error {
	for {
		s.mu.Lock()
		done := s.finished
		s.mu.Unlock()
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.Tick(); err != nil {
			return err
		}
	}
}

// Snapshot returns the consistent between-ticks view and drains the event
// buffer; callers must process the events in order.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	cars := make([]car.State, len(s.state.Cars))
	for i, c := range s.state.Cars {
		cars[i] = *c
	}
	drained := s.buffer
	s.buffer = nil

	return Snapshot{
		RunID:     s.runID,
		T:         s.state.T,
		StepIndex: s.state.StepIndex,
		Cars:      cars,
		Standings: race.Standings(s.state, physics.BatteryCapacity),
		Events:    drained,
		Finished:  s.finished,
	}
}

// Standings returns the current leaderboard without draining events.
func (s *Simulation) Standings() race.StandingsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return race.Standings(s.state, physics.BatteryCapacity)
}

// ReplayLog returns the deterministic replay record: every fired event by
// tick index.
func (s *Simulation) ReplayLog() []ReplayEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ReplayEntry, len(s.replay))
	copy(out, s.replay)
	return out
}
