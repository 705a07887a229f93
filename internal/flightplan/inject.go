package flightplan

import (
	"fmt"
	"strconv"

	"github.com/yegors/co-pilot/internal/checklist"
)

// Injection item ids. These match the item ids used in the checklist content
// files for values the flight plan can pre-fill.
const (
	itemBlockFuel      = "fuel"
	itemBaroRef        = "baro_ref"
	itemBaroRefLanding = "baro_ref_ldg"
	itemPitchTrim      = "pitch_trim"
)

// Injections builds the per-item substitution set for a flight plan. Values
// the plan does not carry are omitted so the corresponding items keep their
// templates.
func Injections(plan *FlightPlan) map[string]checklist.PlanInjection {
	if plan == nil {
		return nil
	}

	injections := make(map[string]checklist.PlanInjection)

	if plan.FuelBlock > 0 {
		injections[itemBlockFuel] = checklist.PlanInjection{
			Display: styled(groupThousands(plan.FuelBlock) + " "),
			Raw:     strconv.Itoa(plan.FuelBlock),
			Type:    "fuel",
		}
	}
	if plan.OriginQNH > 0 {
		injections[itemBaroRef] = checklist.PlanInjection{
			Display: styled(fmt.Sprintf("%d ", plan.OriginQNH)),
			Raw:     strconv.Itoa(plan.OriginQNH),
			Type:    "baro",
		}
	}
	if plan.DestQNH > 0 {
		injections[itemBaroRefLanding] = checklist.PlanInjection{
			Display: styled(fmt.Sprintf("%d ", plan.DestQNH)),
			Raw:     strconv.Itoa(plan.DestQNH),
			Type:    "baro",
		}
	}
	if plan.TrimPercent != 0 {
		injections[itemPitchTrim] = checklist.PlanInjection{
			Display: styled(fmt.Sprintf("%.1f", plan.TrimPercent)),
			Raw:     fmt.Sprintf("%.1f", plan.TrimPercent),
			Type:    "trim",
		}
	}

	return injections
}

// styled wraps an injected value for frontend highlighting
func styled(value string) string {
	return fmt.Sprintf(`<span class="plan-value">%s</span>`, value)
}

// groupThousands formats an integer with comma digit grouping
func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
