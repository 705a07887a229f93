package checklist

import (
	"sort"
	"strings"

	"github.com/yegors/co-pilot/internal/flightphase"
	"github.com/yegors/co-pilot/internal/telemetry"
	"github.com/yegors/co-pilot/pkg/logger"
)

// Store owns all checklist entities and their mutable item state, plus the
// active-phase pointer, mode flag and forward-visit history. It is not safe
// for concurrent use on its own; the coordinating Service serializes access.
type Store struct {
	checklists  map[string]*Checklist
	activePhase flightphase.Phase
	mode        Mode
	history     []string
	logger      *logger.Logger
}

// NewStore creates a store over the given loaded checklists, starting at the
// first checklist phase in auto mode with empty history
func NewStore(checklists map[string]*Checklist, logger *logger.Logger) *Store {
	return &Store{
		checklists:  checklists,
		activePhase: flightphase.CockpitPreparation,
		mode:        ModeAuto,
		history:     []string{},
		logger:      logger.Named("checklist-store"),
	}
}

// GetChecklist returns the checklist for a checklist phase. The second return
// is false when the phase carries no checklist or the id is unknown.
func (s *Store) GetChecklist(phaseID string) (*Checklist, bool) {
	cl, ok := s.checklists[phaseID]
	return cl, ok
}

// ActiveChecklist returns the checklist for the active phase, or nil when the
// content file defines none for it
func (s *Store) ActiveChecklist() *Checklist {
	return s.checklists[s.activePhase.String()]
}

// ActivePhase returns the active-phase pointer
func (s *Store) ActivePhase() flightphase.Phase {
	return s.activePhase
}

// Mode returns the current phase mode
func (s *Store) Mode() Mode {
	return s.mode
}

// SetMode sets the phase mode with no side effect on the pointer
func (s *Store) SetMode(mode Mode) {
	s.mode = mode
}

// History returns the forward-visit phase history
func (s *Store) History() []string {
	out := make([]string, len(s.history))
	copy(out, s.history)
	return out
}

// SetActivePhase moves the active-phase pointer. When the phase actually
// changes and recordHistory is set, the previous phase is appended to history
// unless already present; callers suppress recording for backward moves so
// backward navigation never pollutes the forward-visit history.
func (s *Store) SetActivePhase(phase flightphase.Phase, recordHistory bool) {
	if s.activePhase == phase {
		return
	}
	if recordHistory && !s.historyContains(s.activePhase.String()) {
		s.history = append(s.history, s.activePhase.String())
	}
	s.logger.Info("Active phase changed",
		logger.String("from", s.activePhase.String()),
		logger.String("to", phase.String()),
	)
	s.activePhase = phase
}

func (s *Store) historyContains(phaseID string) bool {
	for _, id := range s.history {
		if id == phaseID {
			return true
		}
	}
	return false
}

// CheckItem marks an item as acknowledged. Returns false when the checklist
// or item does not exist.
func (s *Store) CheckItem(phaseID, itemID string) bool {
	return s.setChecked(phaseID, itemID, func(item *Item) { item.Checked = true })
}

// UncheckItem clears an item's acknowledgment. Returns false when the
// checklist or item does not exist.
func (s *Store) UncheckItem(phaseID, itemID string) bool {
	return s.setChecked(phaseID, itemID, func(item *Item) { item.Checked = false })
}

// ToggleItem flips an item's acknowledgment. Returns false when the checklist
// or item does not exist.
func (s *Store) ToggleItem(phaseID, itemID string) bool {
	return s.setChecked(phaseID, itemID, func(item *Item) { item.Checked = !item.Checked })
}

func (s *Store) setChecked(phaseID, itemID string, mutate func(*Item)) bool {
	cl, ok := s.checklists[phaseID]
	if !ok {
		return false
	}
	item := cl.GetItem(itemID)
	if item == nil {
		return false
	}
	mutate(item)
	return true
}

// UpdateVerification evaluates every rule referencing the given variable and
// sets the owning item's verified state. All checklists are scanned, not only
// the active one, so pre-staged future items verify too.
func (s *Store) UpdateVerification(variable string, value telemetry.Value) {
	for _, cl := range s.checklists {
		for _, item := range cl.Items {
			if item.Verify == nil || item.Verify.Variable != variable {
				continue
			}
			result, ok := item.Verify.Evaluate(value)
			if !ok {
				continue
			}
			item.Verified = &result
		}
	}
}

// VerifiableVariableNames returns the sorted set of telemetry variable names
// referenced by any loaded verification rule
func (s *Store) VerifiableVariableNames() []string {
	seen := make(map[string]struct{})
	for _, cl := range s.checklists {
		for _, item := range cl.Items {
			if item.Verify != nil {
				seen[item.Verify.Variable] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResetAll clears every item across every checklist, returns the pointer to
// the first checklist phase, clears mode to auto and empties history
func (s *Store) ResetAll() {
	for _, cl := range s.checklists {
		cl.Reset()
	}
	s.activePhase = flightphase.CockpitPreparation
	s.mode = ModeAuto
	s.history = []string{}
	s.logger.Info("All checklists reset")
}

// ReplaceChecklists swaps in a freshly loaded definition set and reinitializes
// all progress state
func (s *Store) ReplaceChecklists(checklists map[string]*Checklist) {
	s.checklists = checklists
	s.activePhase = flightphase.CockpitPreparation
	s.mode = ModeAuto
	s.history = []string{}
}

// ApplyPlanInjections substitutes plan values into item responses. Only items
// whose template contains a placeholder and for which an injection exists are
// touched; the raw value and type are retained for cross-checking.
func (s *Store) ApplyPlanInjections(injections map[string]PlanInjection) {
	for _, cl := range s.checklists {
		for _, item := range cl.Items {
			if !item.HasPlaceholder() {
				continue
			}
			inj, ok := injections[item.ID]
			if !ok || inj.Display == "" {
				continue
			}
			item.Response = strings.ReplaceAll(item.ResponseTemplate, placeholderMarker, inj.Display)
			item.PlanValue = inj.Raw
			item.PlanType = inj.Type
		}
	}
}

// ClearPlanInjections restores every item's response to its original template
// and discards stored raw values
func (s *Store) ClearPlanInjections() {
	for _, cl := range s.checklists {
		for _, item := range cl.Items {
			item.Response = item.ResponseTemplate
			item.PlanValue = ""
			item.PlanType = ""
		}
	}
}

// State builds the read model for the current store state
func (s *Store) State() *StateSnapshot {
	snapshot := &StateSnapshot{
		Phase:        s.activePhase.String(),
		PhaseDisplay: s.activePhase.DisplayName(),
		Mode:         s.mode,
		History:      s.History(),
	}
	if cl := s.ActiveChecklist(); cl != nil {
		snapshot.Checklist = cl.view()
	}
	return snapshot
}

// AllChecklistStates builds read models for every loaded checklist, keyed by
// phase id
func (s *Store) AllChecklistStates() map[string]*ChecklistState {
	out := make(map[string]*ChecklistState, len(s.checklists))
	for id, cl := range s.checklists {
		out[id] = cl.view()
	}
	return out
}
