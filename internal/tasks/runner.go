package tasks

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"rez_app_echo/internal/metrics"
	"rez_app_echo/internal/models"
)

// Run history statuses
const (
	RunStatusSuccess         = "success"
	RunStatusFailure         = "failure"
	RunStatusHandlerNotFound = "handler_not_found"
)

// Runner executes due scheduled tasks and records their history
type Runner struct {
	db       *gorm.DB
	registry *Registry
	now      func() time.Time
}

func NewRunner(db *gorm.DB, registry *Registry) *Runner {
	return &Runner{db: db, registry: registry, now: time.Now}
}

// ProcessDue runs every active task whose due time has passed and returns how many ran
func (r *Runner) ProcessDue(ctx context.Context) (int, error) {
	var pending []models.ScheduledTask
	err := r.db.WithContext(ctx).
		Where("status = ? AND due <= ?", models.ScheduledTaskStatusActive, r.now()).
		Order("due").
		Find(&pending).Error
	if err != nil {
		return 0, err
	}

	if len(pending) == 0 {
		slog.DebugContext(ctx, "No pending tasks found")
		return 0, nil
	}
	slog.InfoContext(ctx, "Found pending tasks", "count", len(pending))

	ran := 0
	for _, task := range pending {
		if ctx.Err() != nil {
			return ran, ctx.Err()
		}
		r.Execute(ctx, task)
		ran++
	}
	return ran, nil
}

// Execute runs one task, retrying up to MaxAttempt times, then moves it to its next state
func (r *Runner) Execute(ctx context.Context, task models.ScheduledTask) string {
	log := slog.With("task", task.TaskName, "task_id", task.ID)

	handler, found := r.registry.Get(task.TaskName)
	if !found {
		log.WarnContext(ctx, "Task handler not found, marking as failure")
		now := r.now()
		r.db.WithContext(ctx).Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           now,
			Status:          RunStatusHandlerNotFound,
			AttemptNumber:   1,
			Arguments:       task.Arguments,
			Result:          map[string]interface{}{"error": "Handler not found"},
		})
		r.db.WithContext(ctx).Model(&task).Updates(map[string]interface{}{
			"status":   models.ScheduledTaskStatusFailure,
			"last_run": &now,
		})
		metrics.TaskRunsTotal.WithLabelValues(task.TaskName, RunStatusHandlerNotFound).Inc()
		return RunStatusHandlerNotFound
	}

	maxAttempt := task.MaxAttempt
	if maxAttempt < 1 {
		maxAttempt = 1
	}

	status := RunStatusFailure
	var startTime time.Time
	for attempt := 1; attempt <= maxAttempt; attempt++ {
		startTime = r.now()
		result, err := handler(ctx, task)
		runtime := time.Since(startTime)

		resultData := result
		status = RunStatusSuccess
		if err != nil {
			status = RunStatusFailure
			if resultData == nil {
				resultData = map[string]interface{}{}
			}
			resultData["error"] = err.Error()
			log.WarnContext(ctx, "Task attempt failed", "attempt", attempt, "error", err)
		}

		r.db.WithContext(ctx).Create(&models.ScheduledTaskHistory{
			ScheduledTaskID: task.ID,
			TaskName:        task.TaskName,
			RunAt:           startTime,
			RuntimeMs:       int(runtime.Milliseconds()),
			Status:          status,
			AttemptNumber:   attempt,
			Arguments:       task.Arguments,
			Result:          resultData,
		})
		metrics.TaskRunsTotal.WithLabelValues(task.TaskName, status).Inc()

		if status == RunStatusSuccess || ctx.Err() != nil {
			break
		}
	}

	updates := map[string]interface{}{"last_run": &startTime}
	switch {
	case task.TaskType == models.ScheduledTaskTypeRecurring:
		// a failed run of a recurring task waits for its next occurrence
		nextDue := task.NextDue(r.now())
		if nextDue.After(task.Due) {
			updates["status"] = models.ScheduledTaskStatusActive
			updates["due"] = nextDue
		} else if status == RunStatusSuccess {
			updates["status"] = models.ScheduledTaskStatusDone
		} else {
			updates["status"] = models.ScheduledTaskStatusFailure
		}
	case status == RunStatusSuccess:
		updates["status"] = models.ScheduledTaskStatusDone
	default:
		updates["status"] = models.ScheduledTaskStatusFailure
	}
	r.db.WithContext(ctx).Model(&task).Updates(updates)

	log.InfoContext(ctx, "Task finished", "status", status)
	return status
}
