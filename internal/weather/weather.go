// Package weather supplies the environment vector consumed by the
// simulation core and an optional dynamic weather system that evolves it.
//
// The core only ever reads an immutable View; the System is an external
// collaborator that a caller may step alongside the race and feed back in
// through the engine's SetWeather.
package weather

import (
	"math"

	"github.com/simpulse/racesim/internal/rng"
)

// View is the immutable environment record consumed read-only each tick.
// GripMultiplier composes multiplicatively with segment grip.
type View struct {
	Temperature    float64 `json:"temperature"`     // Celsius
	Humidity       float64 `json:"humidity"`        // 0-1
	RainIntensity  float64 `json:"rain_intensity"`  // 0 = dry, 1 = heavy rain
	WindSpeed      float64 `json:"wind_speed"`      // m/s
	WindDir        float64 `json:"wind_dir"`        // radians
	TrackWetness   float64 `json:"track_wetness"`   // 0 = dry, 1 = soaked
	GripMultiplier float64 `json:"grip_multiplier"` // composes with segment grip
}

// Dry returns standard dry-race conditions.
func Dry() View {
	return View{
		Temperature:    25,
		Humidity:       0.6,
		GripMultiplier: 1,
	}
}

// System evolves weather over time: slow temperature drift, stochastic rain
// onset and clearing, wind wander, and track wetness that lags rainfall.
type System struct {
	state  View
	stream *rng.Stream

	rainStartProb float64 // per second
	rainClearProb float64 // per second
}

// NewSystem starts a weather system from the given initial conditions.
func NewSystem(initial View, stream *rng.Stream) *System {
	initial.GripMultiplier = gripMultiplier(initial.RainIntensity, initial.TrackWetness)
	return &System{
		state:         initial,
		stream:        stream,
		rainStartProb: 0.001,
		rainClearProb: 0.002,
	}
}

// View returns the current environment vector.
func (w *System) View() View { return w.state }

// Step advances the weather by dt seconds and returns the new view.
func (w *System) Step(dt float64) View {
	s := &w.state

	// Rain onset and clearing are memoryless per-second hazards.
	if s.RainIntensity == 0 {
		if w.stream.Bernoulli(w.rainStartProb * dt) {
			s.RainIntensity = 0.1 + 0.2*w.stream.Uniform01()
		}
	} else {
		if w.stream.Bernoulli(w.rainClearProb * dt) {
			s.RainIntensity = 0
		} else {
			s.RainIntensity = clamp(s.RainIntensity+w.stream.Gauss(0, 0.01*dt), 0.05, 1)
		}
	}

	s.Temperature = clamp(s.Temperature+w.stream.Gauss(0, 0.01*dt/60), 10, 45)

	if s.RainIntensity > 0 {
		s.Humidity = math.Min(1, s.Humidity+0.01*dt)
	} else {
		s.Humidity = clamp(s.Humidity+w.stream.Gauss(0, 0.001*dt), 0.3, 0.95)
	}

	s.WindSpeed = clamp(s.WindSpeed+w.stream.Gauss(0, 0.1*dt), 0, 15)
	s.WindDir = math.Mod(s.WindDir+w.stream.Gauss(0, 0.1*dt)+2*math.Pi, 2*math.Pi)

	// Track wetness builds under rain and dries off slowly without it.
	if s.RainIntensity > 0 {
		s.TrackWetness = math.Min(1, s.TrackWetness+0.002*s.RainIntensity*dt)
	} else {
		s.TrackWetness = math.Max(0, s.TrackWetness-0.001*dt)
	}

	s.GripMultiplier = gripMultiplier(s.RainIntensity, s.TrackWetness)
	return *s
}

// gripMultiplier maps rain and standing water to a surface grip factor.
func gripMultiplier(rain, wetness float64) float64 {
	return clamp(1-0.25*rain-0.15*wetness, 0.6, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
