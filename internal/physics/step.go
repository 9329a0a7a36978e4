package physics

import (
	"math"

	"github.com/simpulse/racesim/internal/car"
	"github.com/simpulse/racesim/internal/rng"
	"github.com/simpulse/racesim/internal/track"
	"github.com/simpulse/racesim/internal/weather"
)

// Env is the per-tick environment a car is stepped against.
type Env struct {
	T       float64 // race clock after the tick's advance, seconds
	DT      float64
	Weather weather.View
}

// Outcome reports the discrete transitions a step produced; the integrator
// turns them into events.
type Outcome struct {
	LapCompleted   bool
	LapTime        float64
	AttackExpired  bool
	EnergyDepleted bool
}

// MuEff is the effective friction coefficient: tire grip composed with the
// segment surface, the weather surface, and a mild downforce term that adds
// up to 5% with speed.
func MuEff(grip, segmentGrip, weatherGrip, v float64) float64 {
	speedFactor := 1 + 0.05*math.Min(v/80, 1)
	return grip * segmentGrip * weatherGrip * speedFactor
}

// CornerLimit returns the cornering speed cap for a segment under the given
// effective friction.
func CornerLimit(seg track.Segment, muEff float64) float64 {
	return track.CornerSpeedLimit(seg.Radius, muEff, seg.Banking, Gravity, MaxSpeed)
}

// BrakingDistance returns the distance needed to slow from v to targetV at
// the car's maximum braking rate.
func BrakingDistance(v, targetV float64) float64 {
	if v <= targetV {
		return 0
	}
	return (v*v - targetV*targetV) / (2 * MaxBrakeDecel)
}

// Step advances one car by one tick: force balance, longitudinal
// integration, corner cap, lateral dynamics, tire wear and temperature, energy and
// battery thermal state, the attack timer, and process noise, in that
// order. Throttle, brake, and steering are the controller's outputs for
// this tick; they are recorded on the state as applied.
func Step(st *car.State, throttle, brake, steering float64, env Env, trk *track.Track, p *Params, stream *rng.Stream) Outcome {
	var out Outcome
	dt := env.DT
	v := st.VX
	vSafe := math.Max(v, minForceSpeed)

	seg, _ := trk.SegmentAt(st.LapDistance)
	muEff := MuEff(st.Grip, seg.GripMultiplier, env.Weather.GripMultiplier, v)

	// Motor force from requested power, soft-capped by the traction circle
	// using the previous tick's lateral load.
	power := MaxPower
	if st.AttackActive {
		power += AttackPowerBoost
	}
	power *= throttle
	if st.BatteryEnergy <= 0 {
		power = 0
	}
	fMotor := power * MotorEfficiency / vSafe
	aLongAvail := muEff * Gravity
	if headroom := aLongAvail*aLongAvail - st.LatAcc*st.LatAcc; headroom > 0 {
		fMotor = math.Min(fMotor, Mass*math.Sqrt(headroom))
	} else {
		fMotor = 0
	}

	// Resistive forces.
	fDrag := 0.5 * AirDensity * DragCoeff * FrontalArea * v * v
	fDown := 0.5 * AirDensity * DownforceCoeff * FrontalArea * v * v
	fRoll := RollingResistance * (Mass*Gravity + fDown)
	fGrad := Mass * Gravity * math.Sin(seg.GradientAngle())

	// Braking and regeneration. Up to 70% of brake force recovers energy,
	// limited by the regen power ceiling and battery headroom.
	fBrake := brake * Mass * MaxBrakeDecel
	eRegen := 0.0
	if brake > 0 {
		fRegen := math.Min(0.7*fBrake, MaxRegenPower/vSafe)
		eRegen = fRegen * v * RegenEfficiency * dt
		eRegen = math.Min(eRegen, math.Max(0, BatteryCapacity-st.BatteryEnergy))
	}

	// Longitudinal integration.
	a := (fMotor - fDrag - fRoll - fBrake - fGrad) / Mass
	newV := clamp(v+a*dt, 0, MaxSpeed)
	ds := math.Max(0, v*dt+0.5*a*dt*dt)

	newLapDistance := st.LapDistance + ds
	if newLapDistance >= trk.TotalLength() {
		newLapDistance -= trk.TotalLength()
		st.CurrentLap++
		out.LapCompleted = true
		out.LapTime = env.T - st.LapStartTime
		st.LapStartTime = env.T
		st.LastLapTime = out.LapTime
		if st.BestLapTime == 0 || out.LapTime < st.BestLapTime {
			st.BestLapTime = out.LapTime
		}
	}
	st.LapDistance = newLapDistance
	st.TotalDistance += ds

	// Hard corner cap at the post-integration position. The lookahead
	// controller brakes early, so this binds only when the car arrives hot.
	capSeg, _ := trk.SegmentAt(st.LapDistance)
	if p.HardCornerCap && capSeg.IsCorner() {
		if vCorner := CornerLimit(capSeg, MuEff(st.Grip, capSeg.GripMultiplier, env.Weather.GripMultiplier, newV)); newV > vCorner {
			newV = vCorner
		}
	}

	// Lateral dynamics: bicycle-model lateral acceleration bounded by grip.
	aLat := 0.0
	if math.Abs(steering) > 1e-3 {
		aLat = clamp(newV*newV*math.Tan(steering)/Wheelbase, -muEff*Gravity, muEff*Gravity)
		st.VY = clamp(st.VY+aLat*dt, -MaxLateralVel, MaxLateralVel)
	} else {
		st.VY *= 0.9
	}

	st.VX = newV
	st.LongAcc = a
	st.LatAcc = aLat
	st.Steering = steering
	st.Throttle = throttle
	st.Brake = brake

	geom := trk.GeometryAt(st.LapDistance)
	st.X = geom.X
	st.Y = geom.Y

	if speed := st.Speed(); speed > st.MaxSpeed {
		st.MaxSpeed = speed
	}

	stepTires(st, a, aLat, brake, newV, env, p, stream)
	depleted := stepEnergy(st, power, eRegen, env, p, stream)
	if depleted {
		out.EnergyDepleted = true
	}
	out.AttackExpired = st.TickAttack(dt)

	applyProcessNoise(st, env, p, stream)
	return out
}

// stepTires advances wear, grip, and tire temperature.
func stepTires(st *car.State, a, aLat, brake, v float64, env Env, p *Params, stream *rng.Stream) {
	dt := env.DT
	w := p.TireWear

	wear := w.Base + w.Temp*math.Abs(st.TireTemp-TireOptTemp) + w.Speed*v*v + w.Lat*aLat*aLat
	if brake > 0.95 && v > 20 {
		wear += w.Lock
	}
	wear *= dt

	tempFactor := 1 + (st.TireTemp-70)/100
	wear += stream.Gauss(0, p.WearNoiseFrac*wear*tempFactor)
	st.TireWear = clamp(st.TireWear+math.Max(0, wear), 0, 1)
	st.Grip = MuMax - (MuMax-MuMin)*st.TireWear

	heat := p.TireHeatGain * (0.5*math.Abs(aLat) + 0.3*math.Abs(a))
	cool := p.TireCoolRate * (st.TireTemp - env.Weather.Temperature)
	st.TireTemp = clamp(st.TireTemp+(heat-cool)*dt, env.Weather.Temperature, TireMaxTemp)
}

// stepEnergy books consumption and regeneration against the battery and
// advances battery temperature. It reports whether the pack ran dry.
func stepEnergy(st *car.State, power, eRegen float64, env Env, p *Params, stream *rng.Stream) bool {
	dt := env.DT

	eUsed := power / MotorEfficiency * dt
	if st.AttackActive {
		eUsed *= AttackEnergyMultiplier
	}
	if eUsed > 0 {
		std := (p.EnergyNoiseBase + p.EnergyNoiseTempCoeff*math.Abs(st.BatteryTemp-BatteryOptTemp)) * eUsed
		eUsed = math.Max(0, eUsed+stream.Gauss(0, std))
	}

	st.BatteryEnergy = clamp(st.BatteryEnergy+eRegen-eUsed, 0, BatteryCapacity)
	st.EnergyUsed += eUsed
	st.EnergyRegenerated += eRegen

	// Ohmic heating from the net electrical flow, active cooling above the
	// optimum, passive cooling towards ambient.
	heat := (1 - MotorEfficiency) * math.Abs(eUsed-eRegen) / (p.BatteryThermalMass * p.BatteryHeatCapacity)
	st.BatteryTemp += heat
	if st.BatteryTemp > BatteryOptTemp {
		st.BatteryTemp -= (st.BatteryTemp - BatteryOptTemp) * p.BatteryActiveCooling * dt
	}
	st.BatteryTemp -= (st.BatteryTemp - env.Weather.Temperature) * p.BatteryPassiveCooling * dt
	st.BatteryTemp = clamp(st.BatteryTemp, BatteryMinTemp, BatteryMaxTemp)

	if st.BatteryEnergy <= 0 && st.Active {
		st.Retire(car.DNFEnergyEmpty)
		return true
	}
	return false
}

// applyProcessNoise adds the sqrt(dt)-scaled Gaussian process noise to the
// kinematic and thermal state, then restores the physical bounds.
func applyProcessNoise(st *car.State, env Env, p *Params, stream *rng.Stream) {
	dt := env.DT
	scale := math.Sqrt(dt)
	inconsistency := 1 - st.Driver.Consistency

	st.VX = clamp(st.VX+stream.Gauss(0, p.Noise.VX*inconsistency*scale), 0, MaxSpeed)
	st.VY = clamp(st.VY+stream.Gauss(0, p.Noise.VY*inconsistency*scale), -MaxLateralVel, MaxLateralVel)
	st.X += stream.Gauss(0, p.Noise.X*scale)
	st.Y += stream.Gauss(0, p.Noise.Y*scale)
	st.LongAcc += stream.Gauss(0, p.Noise.LongAcc*inconsistency*scale)
	st.TireTemp = clamp(st.TireTemp+stream.Gauss(0, p.Noise.TireTemp*scale), env.Weather.Temperature, TireMaxTemp)
	st.BatteryTemp = clamp(st.BatteryTemp+stream.Gauss(0, p.Noise.BatteryTemp*scale), BatteryMinTemp, BatteryMaxTemp)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
