package flightphase

import (
	"encoding/json"
	"fmt"
)

// Phase is one stage of the flight lifecycle. The declaration order is the
// canonical ordering; all monotonicity and next/prev comparisons go through
// Index, never through string comparison.
type Phase int

const (
	CockpitPreparation Phase = iota
	BeforeStart
	AfterStart
	Taxi
	LineUp
	AfterTakeoff
	Cruise
	Descent
	Approach
	Landing
	AfterLanding
	Parking
	Securing
)

// phaseIDs maps phases to their wire identifiers
var phaseIDs = map[Phase]string{
	CockpitPreparation: "cockpit_preparation",
	BeforeStart:        "before_start",
	AfterStart:         "after_start",
	Taxi:               "taxi",
	LineUp:             "line_up",
	AfterTakeoff:       "after_takeoff",
	Cruise:             "cruise",
	Descent:            "descent",
	Approach:           "approach",
	Landing:            "landing",
	AfterLanding:       "after_landing",
	Parking:            "parking",
	Securing:           "securing",
}

// phaseDisplay maps phases to their cockpit display names
var phaseDisplay = map[Phase]string{
	CockpitPreparation: "COCKPIT PREP",
	BeforeStart:        "BEFORE START",
	AfterStart:         "AFTER START",
	Taxi:               "TAXI",
	LineUp:             "LINE-UP",
	AfterTakeoff:       "AFTER TAKEOFF",
	Cruise:             "CRUISE",
	Descent:            "DESCENT",
	Approach:           "APPROACH",
	Landing:            "LANDING",
	AfterLanding:       "AFTER LANDING",
	Parking:            "PARKING",
	Securing:           "SECURING",
}

// checklistPhases is the ordered subset of phases that carry a checklist.
// After-takeoff, cruise and descent exist only as detection waypoints.
var checklistPhases = []Phase{
	CockpitPreparation,
	BeforeStart,
	AfterStart,
	Taxi,
	LineUp,
	Approach,
	Landing,
	AfterLanding,
	Parking,
	Securing,
}

// String returns the phase's wire identifier
func (p Phase) String() string {
	if id, ok := phaseIDs[p]; ok {
		return id
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// DisplayName returns the phase's cockpit display name
func (p Phase) DisplayName() string {
	if name, ok := phaseDisplay[p]; ok {
		return name
	}
	return p.String()
}

// Index returns the phase's position in the canonical ordering
func (p Phase) Index() int {
	return int(p)
}

// HasChecklist reports whether the phase carries a checklist
func (p Phase) HasChecklist() bool {
	for _, cp := range checklistPhases {
		if cp == p {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the phase as its wire identifier
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a phase from its wire identifier
func (p *Phase) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	parsed, err := Parse(id)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Parse resolves a wire identifier to a phase
func Parse(id string) (Phase, error) {
	for p, pid := range phaseIDs {
		if pid == id {
			return p, nil
		}
	}
	return CockpitPreparation, fmt.Errorf("unknown phase: %q", id)
}

// ChecklistPhases returns the ordered checklist-phase subset
func ChecklistPhases() []Phase {
	out := make([]Phase, len(checklistPhases))
	copy(out, checklistPhases)
	return out
}

// NextChecklistPhase returns the checklist phase after the given one. The
// second return is false at the end of the ordering or when the given phase
// carries no checklist.
func NextChecklistPhase(p Phase) (Phase, bool) {
	for i, cp := range checklistPhases {
		if cp == p {
			if i+1 < len(checklistPhases) {
				return checklistPhases[i+1], true
			}
			return p, false
		}
	}
	return p, false
}

// PrevChecklistPhase returns the checklist phase before the given one. The
// second return is false at the start of the ordering or when the given phase
// carries no checklist.
func PrevChecklistPhase(p Phase) (Phase, bool) {
	for i, cp := range checklistPhases {
		if cp == p {
			if i > 0 {
				return checklistPhases[i-1], true
			}
			return p, false
		}
	}
	return p, false
}
