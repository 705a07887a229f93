package flightphase

import (
	"github.com/yegors/co-pilot/internal/telemetry"
	"github.com/yegors/co-pilot/pkg/logger"
)

// Detection thresholds. These are fixed constants of the design, not
// configuration.
const (
	taxiSpeedThresholdKt     = 10.0
	cruiseAltitudeFt         = 10000.0
	levelOffVerticalSpeedFpm = 500.0
	approachAGLThresholdFt   = 1000.0
	landingRolloutSpeedKt    = 30.0
	parkingSpeedThresholdKt  = 5.0
)

// Detector derives the current flight phase from telemetry snapshots. It is a
// strict forward-only automaton: each Detect call advances at most one phase,
// and only when the guard for the current phase is satisfied. The detector
// never moves backward except through Reset or SyncTo.
type Detector struct {
	current Phase
	logger  *logger.Logger
}

// NewDetector creates a detector starting at cockpit preparation
func NewDetector(logger *logger.Logger) *Detector {
	return &Detector{
		current: CockpitPreparation,
		logger:  logger.Named("phase-detector"),
	}
}

// Current returns the detector's current phase
func (d *Detector) Current() Phase {
	return d.current
}

// Detect evaluates the advance guard for the current phase against the given
// snapshot and returns the (possibly unchanged) next phase. The returned
// phase is never earlier in the canonical ordering than the current one.
func (d *Detector) Detect(s *telemetry.Snapshot) Phase {
	next := d.current

	switch d.current {
	case CockpitPreparation:
		if s.LightBeacon {
			next = BeforeStart
		}
	case BeforeStart:
		if s.AnyEngineRunning() {
			next = AfterStart
		}
	case AfterStart:
		if s.GroundVelocity >= taxiSpeedThresholdKt {
			next = Taxi
		}
	case Taxi:
		if s.LightLanding {
			next = LineUp
		}
	case LineUp:
		if !s.SimOnGround {
			next = AfterTakeoff
		}
	case AfterTakeoff:
		if s.AltitudeMSL > cruiseAltitudeFt && abs(s.VerticalSpeed) < levelOffVerticalSpeedFpm {
			next = Cruise
		}
	case Cruise:
		if s.VerticalSpeed < -levelOffVerticalSpeedFpm && s.AltitudeMSL > cruiseAltitudeFt {
			next = Descent
		}
	case Descent:
		// Strictly positive altitude rejects glitched or zeroed readings
		if s.AltitudeMSL > 0 && s.AltitudeMSL < cruiseAltitudeFt {
			next = Approach
		}
	case Approach:
		if s.AltitudeAGL < approachAGLThresholdFt {
			next = Landing
		}
	case Landing:
		if s.SimOnGround && s.GroundVelocity < landingRolloutSpeedKt {
			next = AfterLanding
		}
	case AfterLanding:
		if s.GroundVelocity < parkingSpeedThresholdKt && !s.AnyEngineRunning() {
			next = Parking
		}
	case Parking:
		// Manual advance only
	case Securing:
		// Terminal
	}

	if next != d.current {
		d.logger.Info("Phase advanced",
			logger.String("from", d.current.String()),
			logger.String("to", next.String()),
		)
		d.current = next
	}

	return d.current
}

// Reset returns the detector to the initial phase
func (d *Detector) Reset() {
	d.current = CockpitPreparation
}

// SyncTo forcibly pins the detector's internal phase. Used only when the
// coordinator overrides automatic detection with a pilot-selected phase.
func (d *Detector) SyncTo(p Phase) {
	d.current = p
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
