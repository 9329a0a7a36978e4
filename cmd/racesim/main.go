// Command racesim reads a SimulationInput JSON from a file argument (or
// stdin), runs the race to completion, and writes the RaceLog JSON to
// stdout. Progress and the final podium go to stderr.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/simpulse/racesim/internal/engine"
)

func main() {
	var (
		laps  = flag.Int("laps", 0, "override the number of laps")
		seed  = flag.Uint64("seed", 0, "override the master seed")
		quiet = flag.Bool("quiet", false, "suppress progress logging")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "racesim"})
	if *quiet {
		logger.SetLevel(log.ErrorLevel)
	}

	input, err := readInput(flag.Arg(0))
	if err != nil {
		logger.Fatal("reading input", "err", err)
	}
	if *laps > 0 {
		input.Config.NumLaps = *laps
	}
	if *seed > 0 {
		input.Config.Seed = *seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("starting race",
		"laps", input.Config.NumLaps,
		"seed", input.Config.Seed,
		"dt", input.Config.DT,
	)

	raceLog, err := engine.Run(ctx, input)
	if err != nil {
		logger.Fatal("simulation failed", "err", err)
	}

	logger.Info("race finished",
		"run_id", raceLog.RunID,
		"race_time", fmt.Sprintf("%.1fs", raceLog.RaceTime),
		"events", len(raceLog.Events),
	)
	for _, entry := range raceLog.Standings.Entries {
		if entry.Position > 3 {
			break
		}
		logger.Info("podium",
			"pos", entry.Position,
			"driver", entry.Driver,
			"best_lap", fmt.Sprintf("%.3fs", entry.BestLapTime),
		)
	}

	out, err := json.Marshal(raceLog)
	if err != nil {
		logger.Fatal("marshaling output", "err", err)
	}
	fmt.Println(string(out))
}

// readInput loads the SimulationInput from a file path, or stdin when the
// path is empty. Missing fields keep their calibrated defaults.
func readInput(path string) (engine.SimulationInput, error) {
	input := engine.SimulationInput{Config: engine.DefaultConfig()}

	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return input, err
	}
	if len(data) == 0 {
		return input, nil
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return input, fmt.Errorf("parsing input JSON: %w", err)
	}
	return input, nil
}
