package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expert-sys/positive-edge/internal/logger"
)

func TestScheduler_Lifecycle(t *testing.T) {
	s := NewScheduler(nil, logger.NewSilentLogger())

	// Nothing scheduled yet.
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())

	require.NoError(t, s.ScheduleGameLogSync("0 9 * * *"))
	require.NoError(t, s.ScheduleTeamStatsRefresh("30 9 * * *"))
	assert.Len(t, s.Entries(), 2)

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start(), "double start must fail")

	next := s.GetNextRun()
	assert.False(t, next.IsZero())
	assert.True(t, next.After(time.Now().UTC().Add(-time.Minute)))

	// Running schedulers reject new jobs.
	assert.Error(t, s.ScheduleGameLogSync("0 10 * * *"))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop(), "double stop is a no-op")
}

func TestScheduler_RejectsInvalidExpression(t *testing.T) {
	s := NewScheduler(nil, logger.NewSilentLogger())
	assert.Error(t, s.ScheduleGameLogSync("not a cron line"))
	assert.Empty(t, s.Entries())
}
