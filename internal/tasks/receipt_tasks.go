package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"rez_app_echo/internal/models"
	"rez_app_echo/internal/services"
)

// SendCreditReceiptArgs defines the arguments for a receipt task
type SendCreditReceiptArgs struct {
	AuthID    string    `json:"clerk_id"`
	Email     string    `json:"email"`
	SessionID string    `json:"session_id"`
	Credits   int64     `json:"credits"`
	GrantedAt time.Time `json:"granted_at"`
}

// SendCreditReceiptTaskDef emails a purchase confirmation after credits were granted
type SendCreditReceiptTaskDef struct {
	DB     *gorm.DB
	Mailer services.Mailer
}

// TaskID returns the unique identifier for this task
func (t *SendCreditReceiptTaskDef) TaskID() string {
	return "send_credit_receipt"
}

// CreateTask builds a ScheduledTask record for this task
func (t *SendCreditReceiptTaskDef) CreateTask(args SendCreditReceiptArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// Enqueue stores a receipt task for the worker. It matches services.GrantHook.
func (t *SendCreditReceiptTaskDef) Enqueue(ctx context.Context, user *models.User, grant services.GrantRequest, email string) {
	if email == "" {
		email = user.PrimaryEmail()
	}
	if email == "" {
		slog.InfoContext(ctx, "No email for credit receipt", "clerk_id", user.AuthID)
		return
	}

	task, err := t.CreateTask(SendCreditReceiptArgs{
		AuthID:    user.AuthID,
		Email:     email,
		SessionID: grant.SessionID,
		Credits:   grant.Credits,
		GrantedAt: time.Now(),
	})
	if err == nil {
		err = t.DB.WithContext(ctx).Create(task).Error
	}
	if err != nil {
		// the grant already succeeded; a missing receipt is not worth a redelivery
		slog.WarnContext(ctx, "Failed to enqueue credit receipt", "session_id", grant.SessionID, "error", err)
	}
}

// HandleExecution sends the receipt with the balance at send time
func (t *SendCreditReceiptTaskDef) HandleExecution(ctx context.Context, task models.ScheduledTask) (map[string]interface{}, error) {
	var args SendCreditReceiptArgs
	if err := decodeArgs(task, &args); err != nil {
		return nil, err
	}
	if args.Email == "" {
		return nil, fmt.Errorf("email is missing")
	}

	var user models.User
	if err := t.DB.WithContext(ctx).Where("auth_id = ?", args.AuthID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch account %s: %w", args.AuthID, err)
	}

	receipt := services.CreditReceipt{
		Name:      user.FullName,
		SessionID: args.SessionID,
		Credits:   args.Credits,
		Balance:   user.Credits,
		GrantedAt: args.GrantedAt,
	}
	if err := t.Mailer.SendEmail([]string{args.Email}, receipt.Subject(), receipt.Body()); err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status":     "success",
		"email":      args.Email,
		"session_id": args.SessionID,
	}, nil
}
