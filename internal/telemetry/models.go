package telemetry

// Engine-running detection constants. Different simulator gateways populate
// different N1 fields: some report a percentage, some report the raw RPM scale
// where 16384 == 100%.
const (
	n1RunningThresholdPct = 15.0
	n1RawRPMScale         = 163.84
)

// Snapshot is an immutable record of aircraft instrument values sampled at one
// point in time. Each polling cycle produces a new one; nothing mutates a
// snapshot after it has been read from the gateway.
type Snapshot struct {
	// Core flight state
	SimOnGround       bool    `json:"sim_on_ground"`
	AltitudeAGL       float64 `json:"altitude_agl"`   // feet above ground
	AltitudeMSL       float64 `json:"altitude_msl"`   // feet MSL
	VerticalSpeed     float64 `json:"vertical_speed"` // feet/min
	IndicatedAirspeed float64 `json:"indicated_airspeed"`
	GroundVelocity    float64 `json:"ground_velocity"` // knots

	// Controls & configuration
	GearHandleDown bool    `json:"gear_handle_position"` // true = down
	FlapsPercent   float64 `json:"flaps_percent"`
	SpoilersArmed  bool    `json:"spoilers_armed"`
	ParkingBrake   bool    `json:"parking_brake"`

	// Engines
	Eng1Combustion bool    `json:"eng1_combustion"`
	Eng2Combustion bool    `json:"eng2_combustion"`
	Eng1N1         float64 `json:"eng1_n1"`     // percent scale
	Eng2N1         float64 `json:"eng2_n1"`     // percent scale
	Eng1N1RPM      float64 `json:"eng1_n1_rpm"` // raw RPM scale
	Eng2N1RPM      float64 `json:"eng2_n1_rpm"` // raw RPM scale

	// Lights
	LightBeacon  bool `json:"light_beacon"`
	LightNav     bool `json:"light_nav"`
	LightLanding bool `json:"light_landing"`
	LightTaxi    bool `json:"light_taxi"`
	LightStrobe  bool `json:"light_strobe"`

	// Systems
	TransponderState int  `json:"transponder_state"` // 0=off, 1=standby, 2=test, 3=on, 4=alt
	AutopilotMaster  bool `json:"autopilot_master"`

	// Cabin signs
	SeatbeltSign  bool `json:"seatbelt_sign"`
	NoSmokingSign bool `json:"no_smoking_sign"`

	// APU
	APUPctRPM    float64 `json:"apu_pct_rpm"`
	APUGenSwitch bool    `json:"apu_gen_switch"`

	// Trim
	RudderTrimPct float64 `json:"rudder_trim_pct"`
	ElevatorTrim  float64 `json:"elevator_trim"`

	// Electrical
	MasterBattery bool `json:"master_battery"`

	// Fuel & instruments
	FuelTotalKg  float64 `json:"fuel_total_kg"`
	AltimeterHPa int     `json:"altimeter_hpa"`
}

// EngineRunning reports whether the given engine (1 or 2) is running. An
// engine counts as running if either N1 reading exceeds the threshold after
// normalizing the raw RPM scale, or the combustion flag is set. The OR of all
// three signals tolerates gateways that only populate one of the fields.
func (s *Snapshot) EngineRunning(engine int) bool {
	var n1Pct, n1RPM float64
	var combustion bool
	if engine == 1 {
		n1Pct, n1RPM, combustion = s.Eng1N1, s.Eng1N1RPM, s.Eng1Combustion
	} else {
		n1Pct, n1RPM, combustion = s.Eng2N1, s.Eng2N1RPM, s.Eng2Combustion
	}
	n1 := n1Pct
	if normalized := n1RPM / n1RawRPMScale; normalized > n1 {
		n1 = normalized
	}
	return n1 > n1RunningThresholdPct || combustion
}

// AnyEngineRunning reports whether at least one engine is running
func (s *Snapshot) AnyEngineRunning() bool {
	return s.EngineRunning(1) || s.EngineRunning(2)
}

// BothEnginesRunning reports whether both engines are running
func (s *Snapshot) BothEnginesRunning() bool {
	return s.EngineRunning(1) && s.EngineRunning(2)
}

// ValueKind discriminates the type of a telemetry variable value
type ValueKind int

const (
	KindBool ValueKind = iota
	KindNumber
)

// Value is a single telemetry variable value as exposed to checklist
// verification. It is a closed tagged union of the types a rule can compare
// against.
type Value struct {
	kind ValueKind
	b    bool
	n    float64
}

// BoolValue creates a boolean value
func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// NumberValue creates a numeric value
func NumberValue(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

// Kind returns the value's discriminator
func (v Value) Kind() ValueKind { return v.kind }

// Bool returns the boolean payload (only meaningful when Kind is KindBool)
func (v Value) Bool() bool { return v.b }

// Number returns the numeric payload (only meaningful when Kind is KindNumber)
func (v Value) Number() float64 { return v.n }

// Equals compares two values with type-sensitive semantics: booleans only
// equal booleans, numbers only equal numbers.
func (v Value) Equals(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	if v.kind == KindBool {
		return v.b == other.b
	}
	return v.n == other.n
}

// Variable returns the value of a named telemetry variable from this snapshot.
// Names follow the simulator gateway's convention. The second return is false
// for variables this snapshot cannot produce; verification treats those as
// unknown for the cycle.
func (s *Snapshot) Variable(name string) (Value, bool) {
	switch name {
	case "BRAKE_PARKING_POSITION":
		return BoolValue(s.ParkingBrake), true
	case "LIGHT_BEACON":
		return BoolValue(s.LightBeacon), true
	case "LIGHT_NAV":
		return BoolValue(s.LightNav), true
	case "LIGHT_LANDING":
		return BoolValue(s.LightLanding), true
	case "LIGHT_TAXI":
		return BoolValue(s.LightTaxi), true
	case "LIGHT_STROBE":
		return BoolValue(s.LightStrobe), true
	case "TRAILING_EDGE_FLAPS_LEFT_PERCENT":
		return NumberValue(s.FlapsPercent), true
	case "SPOILERS_ARMED":
		return BoolValue(s.SpoilersArmed), true
	case "GEAR_HANDLE_POSITION":
		return BoolValue(s.GearHandleDown), true
	case "TRANSPONDER_STATE":
		return NumberValue(float64(s.TransponderState)), true
	case "CABIN_SEATBELTS_ALERT_SWITCH":
		return BoolValue(s.SeatbeltSign), true
	case "CABIN_NO_SMOKING_ALERT_SWITCH":
		return BoolValue(s.NoSmokingSign), true
	case "APU_SWITCH":
		// No direct switch variable exists; the APU is considered on while
		// its turbine is spinning.
		return BoolValue(s.APUPctRPM > 0), true
	case "APU_GENERATOR_SWITCH":
		return BoolValue(s.APUGenSwitch), true
	case "RUDDER_TRIM_PCT":
		return NumberValue(s.RudderTrimPct), true
	case "ELEVATOR_TRIM_POSITION":
		return NumberValue(s.ElevatorTrim), true
	case "ENG_COMBUSTION":
		return BoolValue(s.BothEnginesRunning()), true
	case "ENG_COMBUSTION_ANY":
		return BoolValue(s.AnyEngineRunning()), true
	case "ELECTRICAL_MASTER_BATTERY":
		return BoolValue(s.MasterBattery), true
	case "AUTOPILOT_MASTER":
		return BoolValue(s.AutopilotMaster), true
	case "FUEL_TOTAL_QUANTITY":
		return NumberValue(s.FuelTotalKg), true
	case "KOHLSMAN_SETTING_MB":
		return NumberValue(float64(s.AltimeterHPa)), true
	}
	return Value{}, false
}
