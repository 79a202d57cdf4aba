package workers

import (
	"testing"
	"time"

	"autoresponder/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerDueRespectsTenantInterval(t *testing.T) {
	db := testDB(t)
	settings := models.NewSettings("t1")
	settings.FetchIntervalMinutes = 5
	require.NoError(t, db.Create(settings).Error)

	s := &Scheduler{DB: db, lastRuns: make(map[string]time.Time)}

	now := time.Now()
	// primeiro tick sempre roda
	assert.True(t, s.due("t1", now))

	s.markRun("t1", now)
	assert.False(t, s.due("t1", now.Add(4*time.Minute)))
	assert.True(t, s.due("t1", now.Add(5*time.Minute)))
}

func TestSchedulerIntervalDefaultsAndFloor(t *testing.T) {
	db := testDB(t)
	s := &Scheduler{DB: db, lastRuns: make(map[string]time.Time)}

	// sem settings: 3 minutos
	assert.Equal(t, 3*time.Minute, s.fetchInterval("ghost"))

	bad := models.NewSettings("t2")
	bad.FetchIntervalMinutes = 0.25
	require.NoError(t, db.Create(bad).Error)
	// piso de 1 minuto
	assert.Equal(t, time.Minute, s.fetchInterval("t2"))
}

func TestRenderTemplate(t *testing.T) {
	assert.Equal(t, "Hi Ana!", RenderTemplate("Hi {name}!", "Ana"))
	assert.Equal(t, "Hi there!", RenderTemplate("Hi {name}!", ""))
	assert.Equal(t, "no placeholder", RenderTemplate("no placeholder", "Ana"))
}
