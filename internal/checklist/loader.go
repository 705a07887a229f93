package checklist

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yegors/co-pilot/internal/flightphase"
	"github.com/yegors/co-pilot/internal/telemetry"
)

// Definition-file shapes. Checklists are grouped by flight segment in the
// content files; the grouping is purely organizational and flattens into one
// map keyed by phase id.
type definitionFile struct {
	Phases map[string][]checklistDef `json:"phases"`
}

type checklistDef struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Trigger string    `json:"trigger"`
	Items   []itemDef `json:"items"`
}

type itemDef struct {
	ID        string     `json:"id"`
	Challenge string     `json:"challenge"`
	Response  string     `json:"response"`
	Verify    *verifyDef `json:"verify,omitempty"`
}

type verifyDef struct {
	Var       string          `json:"var"`
	Condition string          `json:"condition"`
	Value     json.RawMessage `json:"value"`
}

// LoadFile loads checklist definitions from a JSON content file. A missing or
// malformed file is fatal to startup: the store cannot operate without
// definitions.
func LoadFile(path string) (map[string]*Checklist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checklist file %s: %w", path, err)
	}

	var file definitionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse checklist file %s: %w", path, err)
	}

	checklists := make(map[string]*Checklist)
	for group, defs := range file.Phases {
		for _, def := range defs {
			cl, err := buildChecklist(def)
			if err != nil {
				return nil, fmt.Errorf("checklist %q in group %q: %w", def.ID, group, err)
			}
			if _, exists := checklists[cl.ID]; exists {
				return nil, fmt.Errorf("duplicate checklist id %q", cl.ID)
			}
			checklists[cl.ID] = cl
		}
	}

	if len(checklists) == 0 {
		return nil, fmt.Errorf("checklist file %s contains no checklists", path)
	}

	return checklists, nil
}

// buildChecklist validates one definition and converts it to the runtime model
func buildChecklist(def checklistDef) (*Checklist, error) {
	if def.ID == "" {
		return nil, fmt.Errorf("missing id")
	}

	phase, err := flightphase.Parse(def.ID)
	if err != nil {
		return nil, err
	}
	if !phase.HasChecklist() {
		return nil, fmt.Errorf("phase %q does not carry a checklist", def.ID)
	}

	if len(def.Items) == 0 {
		return nil, fmt.Errorf("no items")
	}

	cl := &Checklist{
		ID:      def.ID,
		Title:   def.Title,
		Trigger: def.Trigger,
		Items:   make([]*Item, 0, len(def.Items)),
	}

	for _, itemDef := range def.Items {
		if itemDef.ID == "" {
			return nil, fmt.Errorf("item with empty id")
		}
		item := &Item{
			ID:               itemDef.ID,
			Challenge:        itemDef.Challenge,
			Response:         itemDef.Response,
			ResponseTemplate: itemDef.Response,
		}
		if itemDef.Verify != nil {
			rule, err := buildVerifyRule(itemDef.Verify)
			if err != nil {
				return nil, fmt.Errorf("item %q: %w", itemDef.ID, err)
			}
			item.Verify = rule
		}
		cl.Items = append(cl.Items, item)
	}

	return cl, nil
}

// buildVerifyRule converts a verify definition into its tagged runtime form
func buildVerifyRule(def *verifyDef) (*VerifyRule, error) {
	if def.Var == "" {
		return nil, fmt.Errorf("verify rule missing var")
	}

	op, err := parseCompareOp(def.Condition)
	if err != nil {
		return nil, err
	}

	expected, err := parseExpectedValue(def.Value)
	if err != nil {
		return nil, fmt.Errorf("verify rule for %s: %w", def.Var, err)
	}

	return &VerifyRule{
		Variable: def.Var,
		Op:       op,
		Expected: expected,
	}, nil
}

// parseExpectedValue decodes a rule operand as either a boolean or a number
func parseExpectedValue(raw json.RawMessage) (telemetry.Value, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return telemetry.BoolValue(b), nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return telemetry.NumberValue(n), nil
	}
	return telemetry.Value{}, fmt.Errorf("expected value must be a boolean or a number, got %s", string(raw))
}
