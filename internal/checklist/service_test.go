package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/co-pilot/internal/config"
	"github.com/yegors/co-pilot/internal/flightphase"
	"github.com/yegors/co-pilot/internal/telemetry"
)

const serviceDefinitions = `{
  "phases": {
    "departure": [
      {
        "id": "cockpit_preparation",
        "title": "COCKPIT PREPARATION",
        "items": [
          {
            "id": "parking_brake",
            "challenge": "PARKING BRAKE",
            "response": "ON",
            "verify": {"var": "BRAKE_PARKING_POSITION", "condition": "eq", "value": true}
          }
        ]
      },
      {
        "id": "before_start",
        "title": "BEFORE START",
        "items": [
          {
            "id": "beacon",
            "challenge": "BEACON",
            "response": "ON",
            "verify": {"var": "LIGHT_BEACON", "condition": "eq", "value": true}
          }
        ]
      },
      {
        "id": "after_start",
        "title": "AFTER START",
        "items": [{"id": "ecam", "challenge": "ECAM STATUS", "response": "CHECKED"}]
      }
    ]
  }
}`

const trainingDefinitions = `{
  "phases": {
    "departure": [
      {
        "id": "cockpit_preparation",
        "title": "COCKPIT PREPARATION (TRAINING)",
        "items": [{"id": "fuel", "challenge": "FUEL QUANTITY", "response": "___ KG"}]
      }
    ]
  }
}`

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := &config.ChecklistsConfig{
		NormalFile:   writeDefinitionFile(t, serviceDefinitions),
		TrainingFile: writeDefinitionFile(t, trainingDefinitions),
	}
	svc, err := NewService(cfg, false, true, testLogger(t))
	require.NoError(t, err)
	return svc
}

func withSnapshot(svc *Service, s *telemetry.Snapshot) {
	svc.SetSnapshotProvider(func() *telemetry.Snapshot { return s })
}

func TestServiceSetPhaseRevertsToAutoWhenDetectionAgrees(t *testing.T) {
	svc := newTestService(t)
	// Beacon on: detection lands exactly on before_start
	withSnapshot(svc, &telemetry.Snapshot{SimOnGround: true, LightBeacon: true})

	require.NoError(t, svc.SetPhase("before_start"))

	state := svc.State()
	assert.Equal(t, "before_start", state.Phase)
	assert.Equal(t, ModeAuto, state.Mode)
}

func TestServiceSetPhaseStaysManualWhenDetectionDisagrees(t *testing.T) {
	svc := newTestService(t)
	// Engines running: from before_start detection immediately advances past
	// the pilot's selection
	withSnapshot(svc, &telemetry.Snapshot{SimOnGround: true, Eng1Combustion: true})

	require.NoError(t, svc.SetPhase("before_start"))

	state := svc.State()
	assert.Equal(t, "before_start", state.Phase)
	assert.Equal(t, ModeManual, state.Mode)
}

func TestServiceSetPhaseManualWithoutTelemetry(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.SetPhase("before_start"))
	assert.Equal(t, ModeManual, svc.State().Mode)
}

func TestServiceSetPhaseRejectsInvalid(t *testing.T) {
	svc := newTestService(t)

	assert.Error(t, svc.SetPhase("warp_speed"))
	// Detection waypoints are not selectable
	assert.Error(t, svc.SetPhase("cruise"))
	assert.Equal(t, "cockpit_preparation", svc.State().Phase)
}

func TestServiceNextPhaseConfirmsStepWithoutResync(t *testing.T) {
	svc := newTestService(t)
	// The detector sits at cockpit preparation; the beacon guard fires on the
	// reconciliation detect and confirms the step
	withSnapshot(svc, &telemetry.Snapshot{SimOnGround: true, LightBeacon: true})

	phase, ok := svc.NextPhase()
	require.True(t, ok)
	assert.Equal(t, flightphase.BeforeStart, phase)
	assert.Equal(t, ModeAuto, svc.State().Mode)
}

func TestServiceNextPhaseUnconfirmedStaysManual(t *testing.T) {
	svc := newTestService(t)
	withSnapshot(svc, &telemetry.Snapshot{SimOnGround: true})

	phase, ok := svc.NextPhase()
	require.True(t, ok)
	assert.Equal(t, flightphase.BeforeStart, phase)
	assert.Equal(t, ModeManual, svc.State().Mode)
}

func TestServicePrevPhaseNeverRecordsHistory(t *testing.T) {
	svc := newTestService(t)
	withSnapshot(svc, &telemetry.Snapshot{SimOnGround: true})

	_, ok := svc.NextPhase()
	require.True(t, ok)
	_, ok = svc.PrevPhase()
	require.True(t, ok)

	state := svc.State()
	assert.Equal(t, "cockpit_preparation", state.Phase)
	// Only the forward move left a trace
	assert.Equal(t, []string{"cockpit_preparation"}, state.History)
}

func TestServicePrevPhaseAtStart(t *testing.T) {
	svc := newTestService(t)

	phase, ok := svc.PrevPhase()
	assert.False(t, ok)
	assert.Equal(t, flightphase.CockpitPreparation, phase)
}

func TestServiceApplyTelemetryAdvancesInAutoMode(t *testing.T) {
	svc := newTestService(t)

	var changes []PhaseChange
	svc.SetPhaseChangeCallback(func(c PhaseChange) { changes = append(changes, c) })

	svc.ApplyTelemetry(&telemetry.Snapshot{SimOnGround: true, LightBeacon: true})

	state := svc.State()
	assert.Equal(t, "before_start", state.Phase)
	assert.Equal(t, ModeAuto, state.Mode)
	assert.Equal(t, []string{"cockpit_preparation"}, state.History)

	require.Len(t, changes, 1)
	assert.Equal(t, flightphase.CockpitPreparation, changes[0].From)
	assert.Equal(t, flightphase.BeforeStart, changes[0].To)
	assert.True(t, changes[0].Automatic)
}

func TestServiceApplyTelemetryIgnoredInManualMode(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.SetMode("manual"))

	svc.ApplyTelemetry(&telemetry.Snapshot{SimOnGround: true, LightBeacon: true})

	assert.Equal(t, "cockpit_preparation", svc.State().Phase)
}

func TestServiceApplyTelemetryUpdatesVerification(t *testing.T) {
	svc := newTestService(t)

	svc.ApplyTelemetry(&telemetry.Snapshot{SimOnGround: true, ParkingBrake: true})

	state := svc.State()
	require.NotNil(t, state.Checklist)
	require.Len(t, state.Checklist.Items, 1)
	require.NotNil(t, state.Checklist.Items[0].Verified)
	assert.True(t, *state.Checklist.Items[0].Verified)
}

func TestServiceExpectedResponse(t *testing.T) {
	svc := newTestService(t)

	response, ok := svc.ExpectedResponse("before_start", "beacon")
	require.True(t, ok)
	assert.Equal(t, "ON", response)

	_, ok = svc.ExpectedResponse("before_start", "no_such_item")
	assert.False(t, ok)
}

func TestServiceSetModeValidation(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.SetMode("manual"))
	assert.Equal(t, ModeManual, svc.State().Mode)
	assert.Error(t, svc.SetMode("autopilot"))
}

func TestServiceReset(t *testing.T) {
	svc := newTestService(t)
	withSnapshot(svc, &telemetry.Snapshot{SimOnGround: true})

	svc.CheckItem("cockpit_preparation", "parking_brake")
	_, ok := svc.NextPhase()
	require.True(t, ok)

	svc.Reset()

	state := svc.State()
	assert.Equal(t, "cockpit_preparation", state.Phase)
	assert.Equal(t, ModeAuto, state.Mode)
	assert.Empty(t, state.History)
	assert.False(t, state.Checklist.Items[0].Checked)
}

func TestServiceSetTrainingModeSwapsRuleSet(t *testing.T) {
	svc := newTestService(t)
	svc.CheckItem("cockpit_preparation", "parking_brake")

	require.NoError(t, svc.SetTrainingMode(true))
	assert.True(t, svc.TrainingMode())

	all := svc.AllChecklists()
	require.Len(t, all, 1)
	assert.Equal(t, "COCKPIT PREPARATION (TRAINING)", all["cockpit_preparation"].Title)

	// No-op when unchanged
	require.NoError(t, svc.SetTrainingMode(true))

	require.NoError(t, svc.SetTrainingMode(false))
	all = svc.AllChecklists()
	require.Len(t, all, 3)
	// Progress does not survive a rule-set swap
	assert.False(t, all["cockpit_preparation"].Items[0].Checked)
}

func TestServiceReload(t *testing.T) {
	svc := newTestService(t)
	svc.CheckItem("cockpit_preparation", "parking_brake")

	require.NoError(t, svc.Reload())

	all := svc.AllChecklists()
	assert.False(t, all["cockpit_preparation"].Items[0].Checked)
}

func TestServicePlanInjectionLifecycle(t *testing.T) {
	svc := newTestService(t)
	require.NoError(t, svc.SetTrainingMode(true))

	svc.ApplyPlanInjections(map[string]PlanInjection{
		"fuel": {Display: "6,500", Raw: "6500", Type: "fuel"},
	})

	all := svc.AllChecklists()
	assert.Equal(t, "6,500 KG", all["cockpit_preparation"].Items[0].Response)

	svc.ClearPlanInjections()
	all = svc.AllChecklists()
	assert.Equal(t, "___ KG", all["cockpit_preparation"].Items[0].Response)
}

func TestServiceVerifiableVariableNames(t *testing.T) {
	svc := newTestService(t)

	assert.Equal(t, []string{"BRAKE_PARKING_POSITION", "LIGHT_BEACON"}, svc.VerifiableVariableNames())
}
