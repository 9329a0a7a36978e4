package engine

import (
	"fmt"

	"github.com/simpulse/racesim/internal/driver"
	"github.com/simpulse/racesim/internal/events"
	"github.com/simpulse/racesim/internal/physics"
)

// Config is the single tunable surface of a simulation run: timing, seed,
// feature flags, and the coefficient groups of the physics, controller, and
// event models. Zero-value fields are not meaningful; start from
// DefaultConfig.
type Config struct {
	DT       float64 `json:"dt"`        // seconds per tick
	NumLaps  int     `json:"num_laps"`  // race distance; 0 finishes on the grid
	Seed     uint64  `json:"seed"`      // master seed for every sub-stream
	MaxTicks int     `json:"max_ticks"` // fail-safe budget; 0 derives one from the race length

	SafetyCarEnabled   bool `json:"safety_car_enabled"`
	MechanicalFailures bool `json:"mechanical_failures"`

	SafetyCarSpeed    float64 `json:"safety_car_speed"`    // m/s cap while deployed
	SafetyCarDuration float64 `json:"safety_car_duration"` // seconds

	// DebugChecks validates the state invariants after every tick.
	DebugChecks bool `json:"debug_checks"`

	Physics    physics.Params `json:"physics"`
	Controller driver.Params  `json:"controller"`
	Events     events.Coeffs  `json:"events"`
}

// DefaultConfig returns the calibrated run configuration.
func DefaultConfig() Config {
	return Config{
		DT:                0.01,
		NumLaps:           10,
		Seed:              42,
		SafetyCarEnabled:  true,
		SafetyCarSpeed:    80.0 / 3.6,
		SafetyCarDuration: 180,
		Physics:           physics.DefaultParams(),
		Controller:        driver.DefaultParams(),
		Events:            events.DefaultCoeffs(),
	}
}

// Validate rejects out-of-range parameters with a BadConfigError.
func (c Config) Validate() error {
	check := func(ok bool, field, format string, args ...any) error {
		if ok {
			return nil
		}
		return &BadConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
	}

	if err := check(c.DT > 0, "dt", "must be positive, got %g", c.DT); err != nil {
		return err
	}
	if err := check(c.NumLaps >= 0, "num_laps", "must be non-negative, got %d", c.NumLaps); err != nil {
		return err
	}
	if err := check(c.MaxTicks >= 0, "max_ticks", "must be non-negative, got %d", c.MaxTicks); err != nil {
		return err
	}
	if err := check(c.SafetyCarSpeed > 0, "safety_car_speed", "must be positive, got %g", c.SafetyCarSpeed); err != nil {
		return err
	}
	if err := check(c.SafetyCarDuration > 0, "safety_car_duration", "must be positive, got %g", c.SafetyCarDuration); err != nil {
		return err
	}

	n := c.Physics.Noise
	for _, sigma := range []struct {
		name string
		v    float64
	}{
		{"noise.vx", n.VX}, {"noise.vy", n.VY}, {"noise.x", n.X}, {"noise.y", n.Y},
		{"noise.long_acc", n.LongAcc}, {"noise.tire_temp", n.TireTemp}, {"noise.battery_temp", n.BatteryTemp},
		{"wear_noise_frac", c.Physics.WearNoiseFrac},
		{"throttle_noise", c.Controller.ThrottleNoise},
		{"brake_noise", c.Controller.BrakeNoise},
		{"steering_noise", c.Controller.SteeringNoise},
	} {
		if err := check(sigma.v >= 0, sigma.name, "standard deviation must be non-negative, got %g", sigma.v); err != nil {
			return err
		}
	}

	w := c.Physics.TireWear
	for _, coeff := range []struct {
		name string
		v    float64
	}{
		{"tire_wear.base", w.Base}, {"tire_wear.temp", w.Temp}, {"tire_wear.speed", w.Speed},
		{"tire_wear.lat", w.Lat}, {"tire_wear.lock", w.Lock},
	} {
		if err := check(coeff.v >= 0, coeff.name, "must be non-negative, got %g", coeff.v); err != nil {
			return err
		}
	}

	if err := check(c.Controller.LookaheadTime >= 0, "lookahead_time", "must be non-negative, got %g", c.Controller.LookaheadTime); err != nil {
		return err
	}
	if err := check(c.Controller.AttackProbability >= 0 && c.Controller.AttackProbability <= 1,
		"attack_probability", "must be in [0,1], got %g", c.Controller.AttackProbability); err != nil {
		return err
	}
	if err := check(c.Events.NominalLapTime > 0, "nominal_lap_time", "must be positive, got %g", c.Events.NominalLapTime); err != nil {
		return err
	}
	if err := check(c.Events.WeibullScale > 0, "weibull_scale", "must be positive, got %g", c.Events.WeibullScale); err != nil {
		return err
	}
	return nil
}

// maxTicks returns the configured fail-safe budget, deriving a generous one
// from the race length when unset: 120 nominal seconds per lap plus slack
// for a safety-car period.
func (c Config) maxTicks(numLaps int) int {
	if c.MaxTicks > 0 {
		return c.MaxTicks
	}
	seconds := float64(numLaps)*120 + 600
	return int(seconds / c.DT)
}
