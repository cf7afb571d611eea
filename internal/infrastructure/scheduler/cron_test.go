package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronSchedulerRejectsBadExpression(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("not a cron", nil, nil)
	err := s.Start(context.Background(), func(time.Time) {})
	require.Error(t, err)
	assert.NoError(t, s.Stop(context.Background()))
}

func TestCronSchedulerRejectsNilJob(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("0 6 * * *", time.UTC, nil)
	assert.Error(t, s.Start(context.Background(), nil))
}

func TestCronSchedulerStartStop(t *testing.T) {
	t.Parallel()

	s := NewCronScheduler("0 6 * * *", time.UTC, nil)
	require.NoError(t, s.Start(context.Background(), func(time.Time) {}))
	require.NoError(t, s.Start(context.Background(), func(time.Time) {}))
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
}
