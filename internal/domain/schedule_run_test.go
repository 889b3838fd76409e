package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRun_MarkFailed(t *testing.T) {
	run := &ScheduleRun{ID: 3, Status: ScheduleRunStatusPending}
	at := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)

	run.MarkFailed(errors.New("无法投递排课任务"), at)

	assert.Equal(t, ScheduleRunStatusFailed, run.Status)
	assert.Equal(t, "无法投递排课任务", run.ErrorMessage)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, at, *run.FinishedAt)
}

func TestScheduleRunKeys(t *testing.T) {
	assert.Equal(t, "schedule_run_progress_12", ScheduleRunProgressKey(12))
	assert.Equal(t, "schedule_run_lock_12", ScheduleRunLockKey(12))
}
