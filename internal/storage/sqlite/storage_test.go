package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/co-pilot/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	require.NoError(t, err)
	return log
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSettingsLoadDefaults(t *testing.T) {
	db := openTestDB(t)
	storage, err := NewSettingsStorage(db, testLogger(t))
	require.NoError(t, err)

	settings, err := storage.Load()
	require.NoError(t, err)
	assert.Empty(t, settings.SimBriefUsername)
	assert.False(t, settings.DarkMode)
	assert.False(t, settings.TrainingMode)
}

func TestSettingsSaveAndLoad(t *testing.T) {
	db := openTestDB(t)
	storage, err := NewSettingsStorage(db, testLogger(t))
	require.NoError(t, err)

	require.NoError(t, storage.Save(&Settings{
		SimBriefUsername: "testpilot",
		DarkMode:         true,
		TrainingMode:     true,
	}))

	settings, err := storage.Load()
	require.NoError(t, err)
	assert.Equal(t, "testpilot", settings.SimBriefUsername)
	assert.True(t, settings.DarkMode)
	assert.True(t, settings.TrainingMode)

	// Saving again overwrites the single row
	require.NoError(t, storage.Save(&Settings{SimBriefUsername: "other"}))
	settings, err = storage.Load()
	require.NoError(t, err)
	assert.Equal(t, "other", settings.SimBriefUsername)
	assert.False(t, settings.TrainingMode)
}

func TestPhaseLogStoreAndQuery(t *testing.T) {
	db := openTestDB(t)
	storage, err := NewPhaseLogStorage(db, testLogger(t))
	require.NoError(t, err)

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	events := []*PhaseEvent{
		{FromPhase: "cockpit_preparation", ToPhase: "before_start", Mode: "auto", Automatic: true, Timestamp: base},
		{FromPhase: "before_start", ToPhase: "after_start", Mode: "auto", Automatic: true, Timestamp: base.Add(time.Minute)},
		{FromPhase: "after_start", ToPhase: "taxi", Mode: "manual", Automatic: false, Timestamp: base.Add(2 * time.Minute)},
	}
	for _, e := range events {
		id, err := storage.StoreEvent(e)
		require.NoError(t, err)
		assert.Positive(t, id)
	}

	got, err := storage.GetRecentEvents(10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first
	assert.Equal(t, "taxi", got[0].ToPhase)
	assert.False(t, got[0].Automatic)
	assert.Equal(t, "manual", got[0].Mode)
	assert.Equal(t, base.Add(2*time.Minute), got[0].Timestamp)
	assert.Equal(t, "before_start", got[2].ToPhase)
}

func TestPhaseLogLimit(t *testing.T) {
	db := openTestDB(t)
	storage, err := NewPhaseLogStorage(db, testLogger(t))
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		_, err := storage.StoreEvent(&PhaseEvent{
			FromPhase: "taxi",
			ToPhase:   "line_up",
			Mode:      "auto",
			Automatic: true,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	got, err := storage.GetRecentEvents(2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
