package physics

// TireWearCoeffs are the wear-rate contributions per second. The defaults
// are the corrected calibration: an earlier published set was three orders
// of magnitude larger and wore tires out in seconds.
type TireWearCoeffs struct {
	Base  float64 `json:"base"`  // constant wear per second
	Temp  float64 `json:"temp"`  // per degree away from optimum
	Speed float64 `json:"speed"` // per (m/s)^2
	Lat   float64 `json:"lat"`   // per (m/s^2)^2 of lateral load
	Lock  float64 `json:"lock"`  // spike while braking near lockup
}

// NoiseSigmas is the process-noise schedule: component-wise standard
// deviations applied as sqrt(dt)-scaled Gaussian perturbations each tick.
// Velocity and acceleration noise additionally scale with driver
// inconsistency.
type NoiseSigmas struct {
	VX          float64 `json:"vx"`
	VY          float64 `json:"vy"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	LongAcc     float64 `json:"long_acc"`
	TireTemp    float64 `json:"tire_temp"`
	BatteryTemp float64 `json:"battery_temp"`
}

// Params groups the tunable physics coefficients. Zero values are not
// meaningful; start from DefaultParams.
type Params struct {
	TireWear TireWearCoeffs `json:"tire_wear"`
	// WearNoiseFrac scales stochastic wear: std = frac * wear * tempFactor.
	WearNoiseFrac float64 `json:"wear_noise_frac"`

	// Tire thermal model: friction heating gain and convective cooling rate.
	TireHeatGain float64 `json:"tire_heat_gain"`
	TireCoolRate float64 `json:"tire_cool_rate"`

	// Battery thermal model.
	BatteryThermalMass    float64 `json:"battery_thermal_mass"`    // kg
	BatteryHeatCapacity   float64 `json:"battery_heat_capacity"`   // J/(kg K)
	BatteryActiveCooling  float64 `json:"battery_active_cooling"`  // 1/s above optimum
	BatteryPassiveCooling float64 `json:"battery_passive_cooling"` // 1/s towards ambient

	// Energy consumption noise: std = (base + tempCoeff*|T - opt|) * E_used.
	EnergyNoiseBase      float64 `json:"energy_noise_base"`
	EnergyNoiseTempCoeff float64 `json:"energy_noise_temp_coeff"`

	Noise NoiseSigmas `json:"noise"`

	// HardCornerCap clamps speed to the corner limit after integration.
	// The controller brakes early via lookahead, so the clamp is rarely
	// binding in normal racing.
	HardCornerCap bool `json:"hard_corner_cap"`
}

// DefaultParams returns the calibrated physics coefficients.
func DefaultParams() Params {
	return Params{
		TireWear: TireWearCoeffs{
			Base:  2e-6,
			Temp:  5e-8,
			Speed: 3e-8,
			Lat:   4e-7,
			Lock:  1e-5,
		},
		WearNoiseFrac: 0.15,

		TireHeatGain: 1.0,
		TireCoolRate: 0.1,

		BatteryThermalMass:    200,
		BatteryHeatCapacity:   850,
		BatteryActiveCooling:  0.8,
		BatteryPassiveCooling: 0.05,

		EnergyNoiseBase:      0.02,
		EnergyNoiseTempCoeff: 0.001,

		Noise: NoiseSigmas{
			VX:          0.15,
			VY:          0.075,
			X:           0.05,
			Y:           0.05,
			LongAcc:     0.08,
			TireTemp:    0.5,
			BatteryTemp: 0.3,
		},

		HardCornerCap: true,
	}
}
