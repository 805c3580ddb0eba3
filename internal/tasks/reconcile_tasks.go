package tasks

import (
	"context"
	"time"

	"rez_app_echo/internal/models"
	"rez_app_echo/internal/services"
)

const (
	defaultReconcileLookback = 48 * time.Hour
	defaultReconcileLimit    = 500
	reconcileRule            = "FREQ=HOURLY"
)

// ReconcileArgs defines the optional arguments of a reconciliation run
type ReconcileArgs struct {
	LookbackHours int `json:"lookback_hours,omitempty"`
	Limit         int `json:"limit,omitempty"`
}

// Reconciler is the part of the payment event processor used by the task
type Reconciler interface {
	Reconcile(ctx context.Context, since time.Time, limit int) (services.ReconcileReport, error)
}

// ReconcileCheckoutSessionsTaskDef credits paid checkout sessions whose webhook never succeeded
type ReconcileCheckoutSessionsTaskDef struct {
	Reconciler Reconciler
	Now        func() time.Time
}

// TaskID returns the unique identifier for this task
func (t *ReconcileCheckoutSessionsTaskDef) TaskID() string {
	return "reconcile_checkout_sessions"
}

// CreateTask builds the hourly recurring task starting at due
func (t *ReconcileCheckoutSessionsTaskDef) CreateTask(due time.Time) (*models.ScheduledTask, error) {
	rule := reconcileRule
	return BuildScheduledTask(t.TaskID(), ReconcileArgs{}, due, &rule, models.ScheduledTaskTypeRecurring, 1)
}

// HandleExecution runs one reconciliation pass
func (t *ReconcileCheckoutSessionsTaskDef) HandleExecution(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
	var args ReconcileArgs
	if err := decodeArgs(task, &args); err != nil {
		return nil, err
	}

	lookback := defaultReconcileLookback
	if args.LookbackHours > 0 {
		lookback = time.Duration(args.LookbackHours) * time.Hour
	}
	limit := defaultReconcileLimit
	if args.Limit > 0 {
		limit = args.Limit
	}

	now := time.Now
	if t.Now != nil {
		now = t.Now
	}

	report, err := t.Reconciler.Reconcile(ctx, now().Add(-lookback), limit)
	result := map[string]interface{}{
		"checked":  report.Checked,
		"granted":  report.Granted,
		"skipped":  report.Skipped,
		"rejected": report.Rejected,
		"failed":   report.Failed,
	}
	return result, err
}
