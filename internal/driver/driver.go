// Package driver synthesises control inputs for one car each tick: a target
// speed built from the track and race situation, lookahead braking, steering
// from segment geometry, and the attack-mode request policy. Decide is a
// pure function of its inputs plus the car's own noise stream.
package driver

import (
	"math"

	"github.com/simpulse/racesim/internal/car"
	"github.com/simpulse/racesim/internal/physics"
	"github.com/simpulse/racesim/internal/rng"
	"github.com/simpulse/racesim/internal/track"
	"github.com/simpulse/racesim/internal/weather"
)

// Controls is the controller's output for one tick.
type Controls struct {
	Throttle      float64
	Brake         float64
	Steering      float64
	RequestAttack bool
}

// Situation is the race context the controller reacts to.
type Situation struct {
	Position       int
	GapToAhead     float64 // seconds; leader carries 0
	LapsRemaining  int
	RaceProgress   float64 // 0 at lights out, 1 at the flag
	SafetyCar      bool
	SafetyCarSpeed float64 // m/s cap while the safety car runs
}

// Params are the controller gains. Start from DefaultParams.
type Params struct {
	LookaheadTime float64 `json:"lookahead_time"` // seconds
	Deadband      float64 `json:"deadband"`       // m/s

	ThrottleGain       float64 `json:"throttle_gain"`        // Δv divisor when accelerating
	CornerThrottleCut  float64 `json:"corner_throttle_cut"`  // throttle factor mid-corner
	CruiseThrottle     float64 `json:"cruise_throttle"`      // hold throttle inside the deadband
	CornerBrakeGain    float64 `json:"corner_brake_gain"`    // Δv divisor braking for a corner
	StraightBrakeGain  float64 `json:"straight_brake_gain"`  // Δv divisor braking on a straight
	PanicBrakeOverrun  float64 `json:"panic_brake_overrun"`  // m/s over target forcing full brake in a corner
	AttackProbability  float64 `json:"attack_probability"`   // per tick once the policy conditions hold
	ChicaneSteerPeriod float64 `json:"chicane_steer_period"` // metres per steering reversal phase

	// Control execution noise, scaled by (1 - consistency).
	ThrottleNoise float64 `json:"throttle_noise"`
	BrakeNoise    float64 `json:"brake_noise"`
	SteeringNoise float64 `json:"steering_noise"`
}

// DefaultParams returns the calibrated controller gains.
func DefaultParams() Params {
	return Params{
		LookaheadTime:      2.0,
		Deadband:           1.0,
		ThrottleGain:       15,
		CornerThrottleCut:  0.5,
		CruiseThrottle:     0.3,
		CornerBrakeGain:    30,
		StraightBrakeGain:  50,
		PanicBrakeOverrun:  20,
		AttackProbability:  0.05,
		ChicaneSteerPeriod: 10,
		ThrottleNoise:      0.02,
		BrakeNoise:         0.02,
		SteeringNoise:      0.005,
	}
}

// Decide computes this tick's control inputs for one car.
func Decide(st *car.State, trk *track.Track, sit Situation, w weather.View, p *Params, stream *rng.Stream) Controls {
	drv := st.Driver
	v := st.VX
	seg, localS := trk.SegmentAt(st.LapDistance)

	target := targetSpeed(st, trk, seg, sit, w, p)
	steering := steer(st, seg, localS, drv, p, stream)
	throttle, brake := pedals(v, target, seg, drv, p)

	c := Controls{
		Throttle:      throttle,
		Brake:         brake,
		Steering:      steering,
		RequestAttack: wantsAttack(st, seg, sit, p, stream),
	}

	// Execution noise: the gap between intended and applied inputs.
	slop := 1 - drv.Consistency
	c.Throttle = clamp(c.Throttle+stream.Gauss(0, p.ThrottleNoise*slop), 0, 1)
	c.Brake = clamp(c.Brake+stream.Gauss(0, p.BrakeNoise*slop), 0, 1)
	c.Steering = clamp(c.Steering+stream.Gauss(0, p.SteeringNoise*slop), -physics.MaxSteering, physics.MaxSteering)
	return c
}

// baseline is the raw speed budget for a segment: the corner limit for
// corners and chicanes, flat out on straights.
func baseline(st *car.State, seg track.Segment, weatherGrip, v float64) float64 {
	if !seg.IsCorner() {
		return physics.MaxSpeed
	}
	muEff := physics.MuEff(st.Grip, seg.GripMultiplier, weatherGrip, v)
	return physics.CornerLimit(seg, muEff)
}

// targetSpeed runs the synthesis chain: segment baseline, lookahead,
// driver scaling, race situation, resource conservation, weather, and the
// safety-car cap.
func targetSpeed(st *car.State, trk *track.Track, seg track.Segment, sit Situation, w weather.View, p *Params) float64 {
	drv := st.Driver
	v := st.VX

	target := baseline(st, seg, w.GripMultiplier, v)

	// Look ahead so braking for a slower segment starts early.
	ahead, _ := trk.SegmentAt(st.LapDistance + v*p.LookaheadTime)
	if lookahead := baseline(st, ahead, w.GripMultiplier, v); lookahead < target {
		target = lookahead
	}

	target *= 0.95 + 0.10*drv.Skill
	mult := 0.92 + 0.06*drv.Aggression

	// Race situation: push when chasing, back off when cruising in front.
	if sit.Position > 1 && sit.GapToAhead < 1.5 {
		mult += 0.05
	} else if sit.Position == 1 && sit.GapToAhead > 5 {
		mult -= 0.05
	}

	// Resource conservation.
	switch ePct := st.BatteryPct(physics.BatteryCapacity); {
	case ePct < 15:
		mult *= 0.92
	case ePct < 30:
		mult *= 0.95
	}
	if st.TireWear > 0.7 {
		mult *= 0.95
	}

	mult *= 1 - 0.2*w.RainIntensity

	// Strategy tag: a flat bias on top of the situational chain.
	switch drv.Policy {
	case car.PolicyAggressive:
		mult *= 1.02
	case car.PolicyConservative:
		mult *= 0.97
	}

	target *= mult

	if sit.SafetyCar {
		target = math.Min(target, sit.SafetyCarSpeed)
	}
	return math.Min(target, physics.MaxSpeed)
}

// steer returns the steering angle: near zero with consistency jitter on
// straights, the bicycle-model angle with skill jitter in corners.
// Chicanes alternate sign along the segment.
func steer(st *car.State, seg track.Segment, localS float64, drv car.Driver, p *Params, stream *rng.Stream) float64 {
	if !seg.IsCorner() {
		return stream.Gauss(0, (1-drv.Consistency)*0.01)
	}

	base := math.Atan(physics.Wheelbase / seg.Radius)
	switch seg.Kind {
	case track.KindRightCorner:
		base = -base
	case track.KindChicane:
		base *= math.Sin(localS / p.ChicaneSteerPeriod)
	}
	base += stream.Gauss(0, (1-drv.Skill)*0.03)
	return clamp(base, -physics.MaxSteering, physics.MaxSteering)
}

// pedals converts the speed error into throttle and brake with a deadband.
func pedals(v, target float64, seg track.Segment, drv car.Driver, p *Params) (throttle, brake float64) {
	dv := target - v
	inCorner := seg.IsCorner()

	switch {
	case dv > p.Deadband:
		throttle = math.Min(dv/p.ThrottleGain, 1) * (0.7 + 0.3*drv.Aggression)
		if inCorner {
			throttle *= p.CornerThrottleCut
		}
	case dv < -p.Deadband:
		over := -dv
		if inCorner {
			if over > p.PanicBrakeOverrun {
				brake = 1
			} else {
				brake = math.Min(over/p.CornerBrakeGain, 1)
			}
		} else {
			brake = math.Min(over/p.StraightBrakeGain, 1)
		}
	default:
		throttle = p.CruiseThrottle
	}
	return throttle, brake
}

// wantsAttack implements the activation policy: with uses in hand, no boost
// running, and battery above 40%, at least two strategic conditions must
// hold, and even then the request fires with a small per-tick probability
// so activations spread out.
func wantsAttack(st *car.State, seg track.Segment, sit Situation, p *Params, stream *rng.Stream) bool {
	if st.AttackUsesLeft <= 0 || st.AttackActive {
		return false
	}
	ePct := st.BatteryPct(physics.BatteryCapacity)
	if ePct < 40 {
		return false
	}

	onStraight := !seg.IsCorner()
	closeBattle := math.Abs(sit.GapToAhead) < 2 && onStraight
	conditions := 0
	if sit.RaceProgress > 0.7 {
		conditions++
	}
	if closeBattle {
		conditions++
	}
	if sit.Position >= 2 && sit.Position <= 6 && closeBattle {
		conditions++
	}
	if ePct > 60 && sit.LapsRemaining <= 3 {
		conditions++
	}

	needed := 2
	prob := p.AttackProbability
	switch st.Driver.Policy {
	case car.PolicyAggressive:
		prob = math.Min(1, prob*1.5)
	case car.PolicyConservative:
		needed = 3
	}
	if conditions < needed {
		return false
	}
	return stream.Bernoulli(prob)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
