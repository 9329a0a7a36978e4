package events

import (
	"math"

	"github.com/simpulse/racesim/internal/car"
	"github.com/simpulse/racesim/internal/physics"
	"github.com/simpulse/racesim/internal/race"
	"github.com/simpulse/racesim/internal/rng"
	"github.com/simpulse/racesim/internal/track"
)

// Coeffs are the event-model coefficients. Start from DefaultCoeffs.
type Coeffs struct {
	// Overtake logistic weights over the candidate pair's deltas.
	OvertakeSpeedWeight   float64 `json:"overtake_speed_weight"`
	OvertakeEnergyWeight  float64 `json:"overtake_energy_weight"`
	OvertakeAttackBonus   float64 `json:"overtake_attack_bonus"`
	OvertakeAttackPenalty float64 `json:"overtake_attack_penalty"`
	OvertakeTireWeight    float64 `json:"overtake_tire_weight"`
	OvertakePerTickScale  float64 `json:"overtake_per_tick_scale"`
	OvertakeWindow        float64 `json:"overtake_window"` // metres

	// Crash model.
	CrashBaseProbability float64 `json:"crash_base_probability"` // per tick
	CrashRiskScale       float64 `json:"crash_risk_scale"`
	CrashProximityRange  float64 `json:"crash_proximity_range"` // metres

	// Safety car.
	SafetyCarRate     float64 `json:"safety_car_rate"`     // deployments per leader lap
	SafetyCarCooldown int     `json:"safety_car_cooldown"` // laps since previous deployment
	NominalLapTime    float64 `json:"nominal_lap_time"`    // seconds, rate conversion only

	// Weibull mechanical hazard.
	WeibullShape float64 `json:"weibull_shape"`
	WeibullScale float64 `json:"weibull_scale"` // seconds
}

// DefaultCoeffs returns the calibrated event coefficients.
func DefaultCoeffs() Coeffs {
	return Coeffs{
		OvertakeSpeedWeight:   0.5,
		OvertakeEnergyWeight:  0.02,
		OvertakeAttackBonus:   0.3,
		OvertakeAttackPenalty: 0.2,
		OvertakeTireWeight:    0.4,
		OvertakePerTickScale:  0.1,
		OvertakeWindow:        10,

		CrashBaseProbability: 1e-7,
		CrashRiskScale:       50,
		CrashProximityRange:  20,

		SafetyCarRate:     0.1,
		SafetyCarCooldown: 5,
		NominalLapTime:    90,

		WeibullShape: 2.5,
		WeibullScale: 5000,
	}
}

// segmentFactor is the overtaking difficulty of the segment the attacker is
// on: straights invite moves, corners resist them.
func segmentFactor(kind track.Kind) float64 {
	switch kind {
	case track.KindStraight:
		return 0.8
	case track.KindChicane:
		return 0.5
	default:
		return 0.3
	}
}

// Engine evaluates the stochastic event models once per tick, after physics
// and positions have been updated. It owns the global event streams and the
// cross-tick bookkeeping the models need.
type Engine struct {
	coeffs Coeffs

	crashStream *rng.Stream
	passStream  *rng.Stream
	scStream    *rng.Stream
	mechStream  *rng.Stream

	mechanicalEnabled bool
	safetyCarEnabled  bool
	safetyCarDuration float64

	lastSafetyCarLap int
	crashLaps        []int // leader lap at each crash, for the SC rate boost
}

// NewEngine wires the event models to their dedicated noise streams.
func NewEngine(coeffs Coeffs, svc *rng.Service, safetyCarEnabled, mechanicalEnabled bool, safetyCarDuration float64) *Engine {
	return &Engine{
		coeffs:            coeffs,
		crashStream:       svc.Crash(),
		passStream:        svc.Overtake(),
		scStream:          svc.SafetyCar(),
		mechStream:        svc.Mechanical(),
		mechanicalEnabled: mechanicalEnabled,
		safetyCarEnabled:  safetyCarEnabled,
		safetyCarDuration: safetyCarDuration,
		lastSafetyCarLap:  math.MinInt32,
	}
}

// Tick runs the event models in their fixed order: overtakes, crashes,
// safety car, mechanical failures. It mutates the race state (position
// swaps, retirements, safety-car flags) and returns the tick's events,
// unsorted; the integrator orders the batch.
func (e *Engine) Tick(rs *race.State, trk *track.Track, dt float64) []Event {
	var batch []Event
	batch = e.overtakes(rs, trk, batch)
	batch = e.crashes(rs, trk, batch)
	batch = e.safetyCar(rs, dt, batch)
	batch = e.mechanical(rs, dt, batch)
	return batch
}

// overtakes examines every ordered pair of active cars within the proximity
// window where the attacker is ahead on the road but behind in rank, and
// swaps their positions with logistic probability. Candidates iterate in
// ascending id order so the draw sequence is deterministic. No overtakes
// are admitted behind the safety car.
func (e *Engine) overtakes(rs *race.State, trk *track.Track, batch []Event) []Event {
	if rs.SafetyCarActive {
		return batch
	}
	c := e.coeffs
	for _, attacker := range rs.Cars {
		if !attacker.Active {
			continue
		}
		for _, defender := range rs.Cars {
			if defender.ID == attacker.ID || !defender.Active {
				continue
			}
			gap := attacker.TotalDistance - defender.TotalDistance
			if gap <= 0 || gap >= c.OvertakeWindow {
				continue
			}
			if attacker.Position <= defender.Position {
				continue
			}

			seg, _ := trk.SegmentAt(attacker.LapDistance)
			z := c.OvertakeSpeedWeight*(attacker.Speed()-defender.Speed()) +
				c.OvertakeEnergyWeight*(attacker.BatteryPct(physics.BatteryCapacity)-defender.BatteryPct(physics.BatteryCapacity)) +
				c.OvertakeTireWeight*(defender.TireWear-attacker.TireWear) +
				segmentFactor(seg.Kind)
			if attacker.AttackActive {
				z += c.OvertakeAttackBonus
			}
			if defender.AttackActive {
				z -= c.OvertakeAttackPenalty
			}

			if e.passStream.Uniform01() < sigmoid(z)*c.OvertakePerTickScale {
				attacker.Position, defender.Position = defender.Position, attacker.Position
				attacker.OvertakesMade++
				defender.OvertakesReceived++
				batch = append(batch, Event{
					T:        rs.T,
					Kind:     KindOvertake,
					Subject:  attacker.ID,
					Defender: defender.ID,
					AtS:      attacker.LapDistance,
				})
			}
		}
	}
	return batch
}

// CrashRisk combines speed, tire state, aggression, traffic, and energy
// stress into the normalised risk factor R.
func (e *Engine) CrashRisk(st *car.State, nearby int) float64 {
	c := e.coeffs
	speedRisk := st.Speed() / physics.MaxSpeed
	proximityRisk := math.Min(float64(nearby)/5, 1)
	energyStress := math.Max(0, 1-st.BatteryPct(physics.BatteryCapacity)/100)

	return 0.30*speedRisk +
		0.25*st.TireWear +
		0.20*st.Driver.Aggression +
		0.15*proximityRisk +
		0.10*energyStress
}

func (e *Engine) crashes(rs *race.State, trk *track.Track, batch []Event) []Event {
	c := e.coeffs
	total := trk.TotalLength()
	for _, st := range rs.Cars {
		if !st.Active {
			continue
		}
		nearby := 0
		for _, other := range rs.Cars {
			if other.ID == st.ID || !other.Active {
				continue
			}
			d := math.Abs(other.TotalDistance - st.TotalDistance)
			d = math.Min(math.Mod(d, total), total-math.Mod(d, total))
			if d < c.CrashProximityRange {
				nearby++
			}
		}

		risk := e.CrashRisk(st, nearby)
		p := c.CrashBaseProbability * (1 + c.CrashRiskScale*risk)
		if e.crashStream.Uniform01() < p {
			st.Retire(car.DNFCrash)
			e.crashLaps = append(e.crashLaps, rs.LeaderLap())
			batch = append(batch, Event{T: rs.T, Kind: KindCrash, Subject: st.ID, Risk: risk})
		}
	}
	return batch
}

// safetyCar deploys via a per-tick Poisson conversion of a per-lap rate that
// rises with recent crashes. Deployment is suppressed on the opening lap and
// within the cooldown of the previous deployment.
func (e *Engine) safetyCar(rs *race.State, dt float64, batch []Event) []Event {
	if !e.safetyCarEnabled {
		return batch
	}
	c := e.coeffs

	if rs.SafetyCarActive {
		if rs.T >= rs.SafetyCarUntil {
			rs.SafetyCarActive = false
			batch = append(batch, Event{T: rs.T, Kind: KindSafetyCarWithdraw, Subject: -1})
		}
		return batch
	}

	leaderLap := rs.LeaderLap()
	if leaderLap < 1 || leaderLap-e.lastSafetyCarLap < c.SafetyCarCooldown {
		return batch
	}

	recent := 0
	for _, lap := range e.crashLaps {
		if leaderLap-lap < 2 {
			recent++
		}
	}
	lambda := c.SafetyCarRate * (1 + 0.5*float64(recent))
	p := 1 - math.Exp(-lambda*dt/c.NominalLapTime)
	if e.scStream.Uniform01() < p {
		rs.SafetyCarActive = true
		rs.SafetyCarUntil = rs.T + e.safetyCarDuration
		e.lastSafetyCarLap = leaderLap
		batch = append(batch, Event{T: rs.T, Kind: KindSafetyCarDeploy, Subject: -1, Reason: "incident"})
	}
	return batch
}

// mechanical applies the Weibull wear-out hazard to each active car, with
// stress from tire wear and energy depletion accelerating effective age.
func (e *Engine) mechanical(rs *race.State, dt float64, batch []Event) []Event {
	if !e.mechanicalEnabled {
		return batch
	}
	c := e.coeffs
	for _, st := range rs.Cars {
		if !st.Active {
			continue
		}
		stress := 0.5*st.TireWear + 0.5*math.Max(0, 1-st.BatteryPct(physics.BatteryCapacity)/100)
		age := rs.T * (1 + stress)
		if age <= 0 {
			continue
		}
		hazard := (c.WeibullShape / c.WeibullScale) * math.Pow(age/c.WeibullScale, c.WeibullShape-1)
		if e.mechStream.Uniform01() < hazard*dt {
			st.Retire(car.DNFMechanical)
			batch = append(batch, Event{T: rs.T, Kind: KindMechanicalFailure, Subject: st.ID, Cause: "drivetrain"})
		}
	}
	return batch
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

// Mark captures the engine's cross-tick bookkeeping so a rolled-back tick
// can restore it.
type Mark struct {
	lastSafetyCarLap int
	crashCount       int
}

// Mark returns a restore point taken before a tick's event evaluation.
func (e *Engine) Mark() Mark {
	return Mark{lastSafetyCarLap: e.lastSafetyCarLap, crashCount: len(e.crashLaps)}
}

// Rewind restores the bookkeeping captured by Mark.
func (e *Engine) Rewind(m Mark) {
	e.lastSafetyCarLap = m.lastSafetyCarLap
	e.crashLaps = e.crashLaps[:m.crashCount]
}
