package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rez_app_echo/internal/models"
	"rez_app_echo/internal/tasks"
)

func scheduleCmd() *cobra.Command {
	var (
		argsStr    string
		dueStr     string
		taskType   string
		recurring  string
		maxAttempt int
	)

	cmd := &cobra.Command{
		Use:   "schedule <task_name>",
		Short: "Create a scheduled task for the worker",
		Example: `  rez-admin schedule send_credit_receipt --arguments '{"clerk_id":"user_abc","email":"a@b.c","session_id":"cs_1","credits":300}'
  rez-admin schedule reconcile_checkout_sessions --tasktype recurring --recurring FREQ=HOURLY --due "2026-01-01 00:00"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var taskArgs map[string]interface{}
			if err := json.Unmarshal([]byte(argsStr), &taskArgs); err != nil {
				return fmt.Errorf("invalid JSON arguments: %w", err)
			}

			due, err := parseDue(dueStr)
			if err != nil {
				return err
			}

			var recurringPtr *string
			if recurring != "" {
				recurringPtr = &recurring
			}

			task, err := tasks.BuildScheduledTask(args[0], taskArgs, due, recurringPtr, models.ScheduledTaskType(taskType), maxAttempt)
			if err != nil {
				return err
			}
			if task.TaskType == models.ScheduledTaskTypeRecurring && recurringPtr == nil {
				return fmt.Errorf("recurring tasks need --recurring")
			}

			_, db, err := openDB()
			if err != nil {
				return err
			}
			if err := db.Create(task).Error; err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Successfully created task ID: %d\n", task.ID)
			fmt.Fprintf(out, "Task: %s\nDue: %s\nType: %s\n", task.TaskName, task.Due, task.TaskType)
			return nil
		},
	}

	cmd.Flags().StringVar(&argsStr, "arguments", "{}", "JSON arguments for the task")
	cmd.Flags().StringVar(&dueStr, "due", "", "due date (2006-01-02 15:04 local, or RFC3339); defaults to now")
	cmd.Flags().StringVar(&taskType, "tasktype", string(models.ScheduledTaskTypeOneTime), "task type (onetime, recurring)")
	cmd.Flags().StringVar(&recurring, "recurring", "", "recurrence rule (RFC 5545 RRULE)")
	cmd.Flags().IntVar(&maxAttempt, "max_attempt", 3, "max attempts")

	return cmd
}

// parseDue accepts RFC3339 or "2006-01-02 15:04" in local time; empty means now
func parseDue(value string) (time.Time, error) {
	if value == "" {
		return time.Now(), nil
	}
	if due, err := time.Parse(time.RFC3339, value); err == nil {
		return due, nil
	}
	due, err := time.ParseInLocation("2006-01-02 15:04", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date format, use '2006-01-02 15:04' (local) or RFC3339: %w", err)
	}
	return due, nil
}
