// Package physics implements the per-car force balance, energy, thermal,
// and tire models advanced once per tick, plus the physical constants that
// the rest of the simulator treats as the single source of truth.
package physics

// Gen3-era car and environment constants, SI units throughout.
const (
	Gravity    = 9.81  // m/s^2
	AirDensity = 1.225 // kg/m^3

	DragCoeff      = 0.32
	DownforceCoeff = 1.8
	FrontalArea    = 1.5 // m^2

	Mass              = 920.0 // kg, car plus driver
	RollingResistance = 0.015
	Wheelbase         = 2.97 // m

	MaxPower         = 350e3 // W, race mode
	AttackPowerBoost = 50e3  // W on top of MaxPower while attack mode runs
	MotorEfficiency  = 0.97
	MaxRegenPower    = 600e3 // W
	RegenEfficiency  = 0.40

	BatteryCapacity = 51 * 3.6e6 // J (51 kWh)

	MaxSpeed      = 322.0 / 3.6 // m/s
	MaxSteering   = 0.52        // rad
	MaxBrakeDecel = 5.5         // m/s^2
	MaxLateralVel = 20.0        // m/s, slip bound

	MuMax = 1.2 // new tires
	MuMin = 0.9 // fully worn

	TireOptTemp    = 90.0 // Celsius
	TireMaxTemp    = 130.0
	BatteryOptTemp = 40.0
	BatteryMinTemp = 20.0
	BatteryMaxTemp = 60.0

	AttackEnergyMultiplier = 1.3
	AttackDuration         = 240.0 // seconds per activation

	// Below this speed the power-to-force conversion is held to avoid a
	// divide-by-zero launch singularity.
	minForceSpeed = 1.0
)
