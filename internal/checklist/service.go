package checklist

import (
	"fmt"
	"sync"
	"time"

	"github.com/yegors/co-pilot/internal/config"
	"github.com/yegors/co-pilot/internal/flightphase"
	"github.com/yegors/co-pilot/internal/telemetry"
	"github.com/yegors/co-pilot/pkg/logger"
)

// SnapshotProvider returns the most recent telemetry snapshot, or nil when
// the simulator is not connected
type SnapshotProvider func() *telemetry.Snapshot

// PhaseChange describes one movement of the active-phase pointer
type PhaseChange struct {
	From      flightphase.Phase
	To        flightphase.Phase
	Mode      Mode
	Automatic bool
	Time      time.Time
}

// PhaseChangeFunc is notified after a phase change has been committed. It is
// always invoked outside the service lock, so implementations may block.
type PhaseChangeFunc func(PhaseChange)

// Service binds the phase detector and the checklist store together and
// resolves the auto/manual duality. A single mutex serializes the telemetry
// loop against pilot-initiated requests; every operation inside it is a
// short in-memory update.
type Service struct {
	mu       sync.Mutex
	store    *Store
	detector *flightphase.Detector

	cfg            *config.ChecklistsConfig
	autoTransition bool
	trainingMode   bool

	snapshotFn    SnapshotProvider
	onPhaseChange PhaseChangeFunc

	logger *logger.Logger
}

// NewService loads checklist definitions and creates the coordinating
// service. A definition load failure is fatal.
func NewService(cfg *config.ChecklistsConfig, trainingMode bool, autoTransition bool, log *logger.Logger) (*Service, error) {
	checklists, err := LoadFile(definitionFileFor(cfg, trainingMode))
	if err != nil {
		return nil, err
	}

	svcLogger := log.Named("checklist-svc")
	svcLogger.Info("Loaded checklists",
		logger.Int("count", len(checklists)),
		logger.Bool("training_mode", trainingMode),
	)

	return &Service{
		store:          NewStore(checklists, log),
		detector:       flightphase.NewDetector(log),
		cfg:            cfg,
		autoTransition: autoTransition,
		trainingMode:   trainingMode,
		logger:         svcLogger,
	}, nil
}

func definitionFileFor(cfg *config.ChecklistsConfig, trainingMode bool) string {
	if trainingMode {
		return cfg.TrainingFile
	}
	return cfg.NormalFile
}

// SetSnapshotProvider wires the telemetry read model used by the phase
// reconciliation paths. Must be called before requests are served.
func (s *Service) SetSnapshotProvider(fn SnapshotProvider) {
	s.snapshotFn = fn
}

// SetPhaseChangeCallback wires the collaborator notified on phase changes
func (s *Service) SetPhaseChangeCallback(fn PhaseChangeFunc) {
	s.onPhaseChange = fn
}

// ApplyTelemetry processes one telemetry sample: verification evaluation and
// phase detection both observe this same snapshot under one lock hold, so a
// newer sample can never race into the middle of an evaluation.
func (s *Service) ApplyTelemetry(snapshot *telemetry.Snapshot) {
	var change *PhaseChange

	s.mu.Lock()
	for _, name := range s.store.VerifiableVariableNames() {
		if value, ok := snapshot.Variable(name); ok {
			s.store.UpdateVerification(name, value)
		}
	}

	if s.store.Mode() == ModeAuto && s.autoTransition {
		detected := s.detector.Detect(snapshot)
		// Detection waypoints without checklists never surface as the
		// store's active phase
		if detected.HasChecklist() && detected != s.store.ActivePhase() {
			change = &PhaseChange{
				From:      s.store.ActivePhase(),
				To:        detected,
				Mode:      ModeAuto,
				Automatic: true,
				Time:      time.Now().UTC(),
			}
			s.store.SetActivePhase(detected, true)
		}
	}
	s.mu.Unlock()

	s.notifyPhaseChange(change)
}

// CheckItem marks an item as acknowledged
func (s *Service) CheckItem(phaseID, itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.CheckItem(phaseID, itemID)
}

// UncheckItem clears an item's acknowledgment
func (s *Service) UncheckItem(phaseID, itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.UncheckItem(phaseID, itemID)
}

// ToggleItem flips an item's acknowledgment
func (s *Service) ToggleItem(phaseID, itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ToggleItem(phaseID, itemID)
}

// ExpectedResponse returns the current response text for an item, for
// readback matching
func (s *Service) ExpectedResponse(phaseID, itemID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.store.GetChecklist(phaseID)
	if !ok {
		return "", false
	}
	item := cl.GetItem(itemID)
	if item == nil {
		return "", false
	}
	return item.Response, true
}

// SetPhase pins the active phase to a pilot-selected one. The detector is
// resynchronized to the selected phase first, then detection is re-run once
// against current telemetry: when the freshly detected phase equals the
// selection, the pilot has caught up to automatic detection and mode reverts
// to auto; otherwise mode stays manual. The resync and re-detect happen as
// one atomic operation under the service lock.
func (s *Service) SetPhase(phaseID string) error {
	phase, err := flightphase.Parse(phaseID)
	if err != nil {
		return err
	}
	if !phase.HasChecklist() {
		return fmt.Errorf("phase %q has no checklist", phaseID)
	}

	var change *PhaseChange

	s.mu.Lock()
	if from := s.store.ActivePhase(); from != phase {
		change = &PhaseChange{From: from, To: phase, Time: time.Now().UTC()}
	}
	s.store.SetActivePhase(phase, true)
	s.detector.SyncTo(phase)
	s.store.SetMode(s.reconcileMode(phase))
	if change != nil {
		change.Mode = s.store.Mode()
	}
	s.mu.Unlock()

	s.notifyPhaseChange(change)
	return nil
}

// NextPhase steps the active phase forward along the checklist-phase
// ordering. Stepping re-runs detection without resyncing the detector first,
// so a pilot can step ahead of where detection currently sits without the
// detector instantly overriding the step.
func (s *Service) NextPhase() (flightphase.Phase, bool) {
	return s.stepPhase(flightphase.NextChecklistPhase, true)
}

// PrevPhase steps the active phase backward. Backward navigation never
// records history.
func (s *Service) PrevPhase() (flightphase.Phase, bool) {
	return s.stepPhase(flightphase.PrevChecklistPhase, false)
}

func (s *Service) stepPhase(step func(flightphase.Phase) (flightphase.Phase, bool), recordHistory bool) (flightphase.Phase, bool) {
	var change *PhaseChange

	s.mu.Lock()
	from := s.store.ActivePhase()
	target, ok := step(from)
	if !ok {
		s.mu.Unlock()
		return from, false
	}

	s.store.SetActivePhase(target, recordHistory)
	s.store.SetMode(s.reconcileMode(target))
	change = &PhaseChange{
		From: from,
		To:   target,
		Mode: s.store.Mode(),
		Time: time.Now().UTC(),
	}
	s.mu.Unlock()

	s.notifyPhaseChange(change)
	return target, true
}

// reconcileMode re-runs detection against current telemetry and returns auto
// when the detected phase coincides with the pilot's target, manual
// otherwise. Callers hold the lock. With no telemetry available the step
// cannot be confirmed, so the mode stays manual.
func (s *Service) reconcileMode(target flightphase.Phase) Mode {
	if s.snapshotFn == nil {
		return ModeManual
	}
	snapshot := s.snapshotFn()
	if snapshot == nil {
		return ModeManual
	}
	if s.detector.Detect(snapshot) == target {
		return ModeAuto
	}
	return ModeManual
}

// SetMode accepts an explicit mode request with no side effect on the pointer
func (s *Service) SetMode(mode string) error {
	switch Mode(mode) {
	case ModeAuto, ModeManual:
	default:
		return fmt.Errorf("invalid mode: %q", mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.SetMode(Mode(mode))
	return nil
}

// Reset reinitializes the store, the detector and the mode back to the first
// checklist phase in auto mode
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.ResetAll()
	s.detector.Reset()
}

// TrainingMode reports which rule-set is loaded
func (s *Service) TrainingMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trainingMode
}

// SetTrainingMode switches between the normal and training rule-sets,
// reloading definitions and resetting all progress. A no-op when the mode is
// unchanged.
func (s *Service) SetTrainingMode(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.trainingMode == enabled {
		return nil
	}

	checklists, err := LoadFile(definitionFileFor(s.cfg, enabled))
	if err != nil {
		return fmt.Errorf("failed to load checklists: %w", err)
	}

	s.trainingMode = enabled
	s.store.ReplaceChecklists(checklists)
	s.detector.Reset()
	s.logger.Info("Switched checklist rule-set",
		logger.Bool("training_mode", enabled),
		logger.Int("count", len(checklists)),
	)
	return nil
}

// Reload re-reads the current rule-set's definition file, resetting all
// progress. Used by the definition file watcher.
func (s *Service) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	checklists, err := LoadFile(definitionFileFor(s.cfg, s.trainingMode))
	if err != nil {
		return fmt.Errorf("failed to reload checklists: %w", err)
	}

	s.store.ReplaceChecklists(checklists)
	s.detector.Reset()
	s.logger.Info("Reloaded checklist definitions", logger.Int("count", len(checklists)))
	return nil
}

// ApplyPlanInjections substitutes flight plan values into item responses
func (s *Service) ApplyPlanInjections(injections map[string]PlanInjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.ApplyPlanInjections(injections)
	s.logger.Info("Flight plan values injected", logger.Int("count", len(injections)))
}

// ClearPlanInjections restores all item responses to their templates
func (s *Service) ClearPlanInjections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.ClearPlanInjections()
}

// State returns the read model for broadcast and API responses
func (s *Service) State() *StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.State()
}

// AllChecklists returns read models for every loaded checklist
func (s *Service) AllChecklists() map[string]*ChecklistState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.AllChecklistStates()
}

// VerifiableVariableNames returns the telemetry variables referenced by any
// loaded verification rule, so the acquisition side knows which variables
// matter
func (s *Service) VerifiableVariableNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.VerifiableVariableNames()
}

func (s *Service) notifyPhaseChange(change *PhaseChange) {
	if change != nil && s.onPhaseChange != nil {
		s.onPhaseChange(*change)
	}
}
