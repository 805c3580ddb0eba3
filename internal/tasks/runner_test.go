package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rez_app_echo/internal/models"
	"rez_app_echo/internal/services"
)

var testNow = time.Date(2025, 3, 14, 11, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, services.AutoMigrate(db))
	return db
}

func newTestRunner(db *gorm.DB, registry *Registry) *Runner {
	runner := NewRunner(db, registry)
	runner.now = func() time.Time { return testNow }
	return runner
}

func createTask(t *testing.T, db *gorm.DB, name string, due time.Time, taskType models.ScheduledTaskType, rule *string, maxAttempt int) models.ScheduledTask {
	t.Helper()
	task, err := BuildScheduledTask(name, map[string]interface{}{"n": 1}, due, rule, taskType, maxAttempt)
	require.NoError(t, err)
	require.NoError(t, db.Create(task).Error)
	return *task
}

func reload(t *testing.T, db *gorm.DB, id uint) models.ScheduledTask {
	t.Helper()
	var task models.ScheduledTask
	require.NoError(t, db.First(&task, id).Error)
	return task
}

func history(t *testing.T, db *gorm.DB, id uint) []models.ScheduledTaskHistory {
	t.Helper()
	var rows []models.ScheduledTaskHistory
	require.NoError(t, db.Where("scheduled_task_id = ?", id).Order("attempt_number").Find(&rows).Error)
	return rows
}

func TestProcessDueRunsOnlyDueTasks(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry()
	var ran []string
	registry.Register("echo", func(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
		ran = append(ran, task.TaskName)
		return map[string]interface{}{"ok": true}, nil
	})

	due := createTask(t, db, "echo", testNow.Add(-time.Minute), models.ScheduledTaskTypeOneTime, nil, 1)
	future := createTask(t, db, "echo", testNow.Add(time.Hour), models.ScheduledTaskTypeOneTime, nil, 1)

	n, err := newTestRunner(db, registry).ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"echo"}, ran)

	done := reload(t, db, due.ID)
	assert.Equal(t, models.ScheduledTaskStatusDone, done.Status)
	require.NotNil(t, done.LastRun)
	assert.Equal(t, models.ScheduledTaskStatusActive, reload(t, db, future.ID).Status)

	rows := history(t, db, due.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, RunStatusSuccess, rows[0].Status)
	assert.Equal(t, true, rows[0].Result["ok"])
	assert.Equal(t, float64(1), rows[0].Arguments["n"])
}

func TestExecuteRetriesUpToMaxAttempt(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry()
	calls := 0
	registry.Register("flaky", func(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("smtp timeout")
		}
		return map[string]interface{}{"status": "success"}, nil
	})
	registry.Register("broken", func(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
		return nil, errors.New("always fails")
	})
	runner := newTestRunner(db, registry)

	flaky := createTask(t, db, "flaky", testNow, models.ScheduledTaskTypeOneTime, nil, 3)
	assert.Equal(t, RunStatusSuccess, runner.Execute(context.Background(), flaky))
	rows := history(t, db, flaky.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, RunStatusFailure, rows[0].Status)
	assert.Equal(t, "smtp timeout", rows[0].Result["error"])
	assert.Equal(t, RunStatusSuccess, rows[1].Status)
	assert.Equal(t, models.ScheduledTaskStatusDone, reload(t, db, flaky.ID).Status)

	broken := createTask(t, db, "broken", testNow, models.ScheduledTaskTypeOneTime, nil, 0)
	assert.Equal(t, RunStatusFailure, runner.Execute(context.Background(), broken))
	assert.Len(t, history(t, db, broken.ID), 1, "max attempt below one still runs once")
	assert.Equal(t, models.ScheduledTaskStatusFailure, reload(t, db, broken.ID).Status)
}

func TestExecuteWithoutHandler(t *testing.T) {
	db := newTestDB(t)
	task := createTask(t, db, "missing", testNow, models.ScheduledTaskTypeOneTime, nil, 3)

	status := newTestRunner(db, NewRegistry()).Execute(context.Background(), task)
	assert.Equal(t, RunStatusHandlerNotFound, status)
	assert.Equal(t, models.ScheduledTaskStatusFailure, reload(t, db, task.ID).Status)

	rows := history(t, db, task.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, RunStatusHandlerNotFound, rows[0].Status)
}

func TestRecurringTaskAdvances(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry()
	fail := false
	registry.Register("hourly", func(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
		if fail {
			return nil, errors.New("provider unavailable")
		}
		return nil, nil
	})
	runner := newTestRunner(db, registry)
	rule := "FREQ=HOURLY"

	task := createTask(t, db, "hourly", testNow.Add(-time.Hour), models.ScheduledTaskTypeRecurring, &rule, 1)
	assert.Equal(t, RunStatusSuccess, runner.Execute(context.Background(), task))
	after := reload(t, db, task.ID)
	assert.Equal(t, models.ScheduledTaskStatusActive, after.Status)
	assert.True(t, after.Due.Equal(testNow.Add(time.Hour)), "due %s", after.Due)

	// a failed run still waits for the next occurrence
	fail = true
	runner.now = func() time.Time { return testNow.Add(time.Hour) }
	assert.Equal(t, RunStatusFailure, runner.Execute(context.Background(), after))
	after = reload(t, db, task.ID)
	assert.Equal(t, models.ScheduledTaskStatusActive, after.Status)
	assert.True(t, after.Due.Equal(testNow.Add(2*time.Hour)), "due %s", after.Due)
}

func TestEnsureRecurring(t *testing.T) {
	db := newTestDB(t)
	def := &ReconcileCheckoutSessionsTaskDef{}

	task, err := def.CreateTask(testNow)
	require.NoError(t, err)
	assert.Equal(t, "reconcile_checkout_sessions", task.TaskName)
	assert.Equal(t, models.ScheduledTaskTypeRecurring, task.TaskType)
	require.NotNil(t, task.RecurringInterval)

	created, err := EnsureRecurring(context.Background(), db, task)
	require.NoError(t, err)
	assert.True(t, created)

	again, err := def.CreateTask(testNow)
	require.NoError(t, err)
	created, err = EnsureRecurring(context.Background(), db, again)
	require.NoError(t, err)
	assert.False(t, created)
}
