package checklist

import (
	"fmt"
	"strings"

	"github.com/yegors/co-pilot/internal/telemetry"
)

// Mode controls whether the active phase follows automatic detection or stays
// pinned to a pilot-chosen phase
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
)

// CompareOp is a closed set of comparison operators for verification rules.
// Definitions carry operator names as strings; they are resolved to this
// tagged form at load time so evaluation is exhaustive at compile time.
type CompareOp int

const (
	OpEquals CompareOp = iota
	OpGreaterOrEqual
	OpLessOrEqual
	OpGreater
	OpLess
)

// parseCompareOp resolves a definition-file operator name
func parseCompareOp(name string) (CompareOp, error) {
	switch name {
	case "eq":
		return OpEquals, nil
	case "gte":
		return OpGreaterOrEqual, nil
	case "lte":
		return OpLessOrEqual, nil
	case "gt":
		return OpGreater, nil
	case "lt":
		return OpLess, nil
	}
	return OpEquals, fmt.Errorf("unknown verify condition: %q", name)
}

// VerifyRule compares a telemetry variable against an expected value. Rules
// are stateless and re-evaluated on every relevant telemetry update.
type VerifyRule struct {
	Variable string
	Op       CompareOp
	Expected telemetry.Value
}

// Evaluate applies the rule's operator to the given telemetry value. The
// second return is false when the operand types cannot be compared (ordering
// operators require numeric operands); such evaluations leave the item's
// verified state untouched.
func (r *VerifyRule) Evaluate(v telemetry.Value) (bool, bool) {
	switch r.Op {
	case OpEquals:
		return v.Equals(r.Expected), true
	case OpGreaterOrEqual, OpLessOrEqual, OpGreater, OpLess:
		if v.Kind() != telemetry.KindNumber || r.Expected.Kind() != telemetry.KindNumber {
			return false, false
		}
		a, b := v.Number(), r.Expected.Number()
		switch r.Op {
		case OpGreaterOrEqual:
			return a >= b, true
		case OpLessOrEqual:
			return a <= b, true
		case OpGreater:
			return a > b, true
		default:
			return a < b, true
		}
	}
	return false, false
}

// placeholderMarker is the substring in response templates that plan injection
// replaces with a formatted value
const placeholderMarker = "___"

// Item is a single challenge/response line of a checklist.
//
// Checked is only ever set by explicit pilot or voice action; Verified is only
// ever set by telemetry evaluation. The two never write each other.
type Item struct {
	ID               string
	Challenge        string
	Response         string // current response, possibly with injected values
	ResponseTemplate string // immutable original with placeholder markers
	Verify           *VerifyRule
	Checked          bool
	Verified         *bool // nil = unknown / not verifiable

	// Raw plan value retained for cross-checking against live telemetry
	PlanValue string
	PlanType  string
}

// Reset clears the item back to its loaded defaults
func (i *Item) Reset() {
	i.Checked = false
	i.Verified = nil
	i.Response = i.ResponseTemplate
	i.PlanValue = ""
	i.PlanType = ""
}

// HasPlaceholder reports whether the item's template accepts plan injection
func (i *Item) HasPlaceholder() bool {
	return strings.Contains(i.ResponseTemplate, placeholderMarker)
}

// Checklist is an ordered sequence of items for one checklist phase
type Checklist struct {
	ID      string
	Title   string
	Trigger string
	Items   []*Item
}

// GetItem returns the item with the given id, or nil
func (c *Checklist) GetItem(itemID string) *Item {
	for _, item := range c.Items {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}

// Reset clears all item state in this checklist
func (c *Checklist) Reset() {
	for _, item := range c.Items {
		item.Reset()
	}
}

// IsComplete reports whether every item has been acknowledged
func (c *Checklist) IsComplete() bool {
	for _, item := range c.Items {
		if !item.Checked {
			return false
		}
	}
	return true
}

// ItemState is the read model for a single item
type ItemState struct {
	ID        string `json:"id"`
	Challenge string `json:"challenge"`
	Response  string `json:"response"`
	Checked   bool   `json:"checked"`
	Verified  *bool  `json:"verified"`
	PlanValue string `json:"plan_value,omitempty"`
	PlanType  string `json:"plan_type,omitempty"`
}

// ChecklistState is the read model for one checklist
type ChecklistState struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Trigger string      `json:"trigger,omitempty"`
	Items   []ItemState `json:"items"`
}

// StateSnapshot is the read model relayed to clients after any mutation and
// on every telemetry sample
type StateSnapshot struct {
	Phase        string          `json:"phase"`
	PhaseDisplay string          `json:"phase_display"`
	Mode         Mode            `json:"phase_mode"`
	Checklist    *ChecklistState `json:"checklist"`
	History      []string        `json:"phase_history"`
}

// view builds a deep copy safe to serialize outside the store's lock
func (c *Checklist) view() *ChecklistState {
	state := &ChecklistState{
		ID:      c.ID,
		Title:   c.Title,
		Trigger: c.Trigger,
		Items:   make([]ItemState, 0, len(c.Items)),
	}
	for _, item := range c.Items {
		var verified *bool
		if item.Verified != nil {
			v := *item.Verified
			verified = &v
		}
		state.Items = append(state.Items, ItemState{
			ID:        item.ID,
			Challenge: item.Challenge,
			Response:  item.Response,
			Checked:   item.Checked,
			Verified:  verified,
			PlanValue: item.PlanValue,
			PlanType:  item.PlanType,
		})
	}
	return state
}

// PlanInjection is one externally supplied value to substitute into an item's
// response template
type PlanInjection struct {
	Display string // formatted text replacing the placeholder
	Raw     string // raw value retained for cross-checking
	Type    string // value category: "fuel", "baro", "trim"
}
