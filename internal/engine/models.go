package engine

import (
	"github.com/simpulse/racesim/internal/car"
	"github.com/simpulse/racesim/internal/events"
	"github.com/simpulse/racesim/internal/race"
	"github.com/simpulse/racesim/internal/track"
)

// SimulationInput is the JSON-serialisable description of a complete run.
// An empty track uses the bundled street circuit; an empty driver list uses
// the default roster; an empty grid starts in driver order.
type SimulationInput struct {
	Config   Config          `json:"config"`
	Track    []track.Segment `json:"track,omitempty"`
	Drivers  []car.Driver    `json:"drivers,omitempty"`
	Grid     []int           `json:"grid,omitempty"`
	LogEvery int             `json:"log_every,omitempty"` // ticks between log rows; 0 = 100
}

// LogRow is the state of the field at one sampled timestep.
type LogRow struct {
	T         float64        `json:"t"`
	StepIndex int            `json:"step_index"`
	Cars      []car.State    `json:"cars"`
	Events    []events.Event `json:"events,omitempty"`
}

// RaceLog is the complete output of a run: sampled state history, the full
// event log, the final standings, and the replay record.
type RaceLog struct {
	RunID       string                 `json:"run_id"`
	TrackLength float64                `json:"track_length"`
	NumLaps     int                    `json:"num_laps"`
	DT          float64                `json:"dt"`
	Seed        uint64                 `json:"seed"`
	RaceTime    float64                `json:"race_time"`
	Rows        []LogRow               `json:"rows"`
	Events      []events.Event         `json:"events"`
	Standings   race.StandingsSnapshot `json:"final_standings"`
	Replay      []ReplayEntry          `json:"replay"`
}
