package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/simpulse/racesim/internal/car"
	"github.com/simpulse/racesim/internal/track"
)

// Build assembles a Simulation from a SimulationInput, filling in the
// bundled circuit and roster where the input leaves them out.
func Build(input SimulationInput) (*Simulation, error) {
	var trk *track.Track
	if len(input.Track) > 0 {
		var err error
		trk, err = track.New(input.Track)
		if err != nil {
			return nil, fmt.Errorf("building track: %w", err)
		}
	} else {
		trk = track.StreetCircuit()
	}

	drivers := input.Drivers
	if len(drivers) == 0 {
		drivers = car.DefaultRoster()
	}

	sim, err := New(trk, drivers, input.Config)
	if err != nil {
		return nil, err
	}

	if len(input.Grid) > 0 {
		if err := sim.InjectStartingGrid(input.Grid); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

// Run executes a complete race from a SimulationInput and returns the log.
func Run(ctx context.Context, input SimulationInput) (*RaceLog, error) {
	sim, err := Build(input)
	if err != nil {
		return nil, err
	}

	logEvery := input.LogEvery
	if logEvery <= 0 {
		logEvery = 100
	}

	raceLog := &RaceLog{
		RunID:       sim.RunID(),
		TrackLength: sim.Track().TotalLength(),
		NumLaps:     sim.cfg.NumLaps,
		DT:          sim.cfg.DT,
		Seed:        sim.cfg.Seed,
	}

	for !sim.Finished() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if err := sim.Tick(); err != nil {
			return nil, fmt.Errorf("at t=%.2f: %w", sim.state.T, err)
		}

		if sim.state.StepIndex%logEvery == 0 || sim.Finished() {
			snap := sim.Snapshot()
			raceLog.Events = append(raceLog.Events, snap.Events...)
			raceLog.Rows = append(raceLog.Rows, LogRow{
				T:         snap.T,
				StepIndex: snap.StepIndex,
				Cars:      snap.Cars,
				Events:    snap.Events,
			})
		}
	}

	final := sim.Snapshot()
	raceLog.Events = append(raceLog.Events, final.Events...)
	raceLog.RaceTime = final.T
	raceLog.Standings = final.Standings
	raceLog.Replay = sim.ReplayLog()
	return raceLog, nil
}

// RunJSON is the primary entry point for the CLI and WASM targets. It
// accepts a JSON-encoded SimulationInput, runs the race, and returns the
// JSON-encoded RaceLog.
func RunJSON(jsonInput string) (string, error) {
	input := SimulationInput{Config: DefaultConfig()}
	if err := json.Unmarshal([]byte(jsonInput), &input); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}

	raceLog, err := Run(context.Background(), input)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(raceLog)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
