package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simpulse/racesim/internal/car"
	"github.com/simpulse/racesim/internal/track"
)

func sprintInput() SimulationInput {
	cfg := DefaultConfig()
	cfg.NumLaps = 1
	cfg.Events.CrashBaseProbability = 0

	return SimulationInput{
		Config: cfg,
		Track: []track.Segment{
			{Kind: track.KindStraight, Length: 1000, GripMultiplier: 1, IdealSpeed: 89},
		},
		Drivers: []car.Driver{
			{Name: "A", Skill: 0.9, Aggression: 0.7, Consistency: 0.95},
			{Name: "B", Skill: 0.5, Aggression: 0.5, Consistency: 0.9},
		},
		LogEvery: 200,
	}
}

func TestRunProducesCompleteLog(t *testing.T) {
	raceLog, err := Run(context.Background(), sprintInput())
	require.NoError(t, err)

	assert.NotEmpty(t, raceLog.RunID)
	assert.Equal(t, 1000.0, raceLog.TrackLength)
	assert.Equal(t, 1, raceLog.NumLaps)
	assert.Greater(t, raceLog.RaceTime, 0.0)
	assert.NotEmpty(t, raceLog.Rows)

	// The winner crossed the line: one lap completion per finisher at most,
	// at least one overall.
	laps := 0
	for _, ev := range raceLog.Events {
		if ev.Kind == "lap_complete" {
			laps++
		}
	}
	assert.GreaterOrEqual(t, laps, 1)

	require.Len(t, raceLog.Standings.Entries, 2)
	assert.Equal(t, 1, raceLog.Standings.Entries[0].Position)

	// Replay mirrors the event log one to one.
	assert.Len(t, raceLog.Replay, len(raceLog.Events))
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, sprintInput())
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuildRejectsBadTrack(t *testing.T) {
	input := sprintInput()
	input.Track = []track.Segment{
		{Kind: track.KindLeftCorner, Length: 10, Radius: 40, GripMultiplier: 1},
	}
	_, err := Build(input)
	var badTrack *track.BadTrackError
	require.ErrorAs(t, err, &badTrack)
}

func TestBuildDefaultsTrackAndRoster(t *testing.T) {
	sim, err := Build(SimulationInput{Config: DefaultConfig()})
	require.NoError(t, err)

	assert.InDelta(t, 2980, sim.Track().TotalLength(), 1)
	assert.Len(t, sim.state.Cars, 24)
}

func TestRunJSON(t *testing.T) {
	input := sprintInput()
	data, err := json.Marshal(input)
	require.NoError(t, err)

	out, err := RunJSON(string(data))
	require.NoError(t, err)

	var raceLog RaceLog
	require.NoError(t, json.Unmarshal([]byte(out), &raceLog))
	assert.Equal(t, 1, raceLog.NumLaps)
	assert.Len(t, raceLog.Standings.Entries, 2)

	_, err = RunJSON("{not json")
	require.Error(t, err)
}
