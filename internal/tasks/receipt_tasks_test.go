package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"rez_app_echo/internal/models"
	"rez_app_echo/internal/services"
)

type sentEmail struct {
	to      []string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentEmail
	err  error
}

func (m *fakeMailer) SendEmail(to []string, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func createAccount(t *testing.T, db *gorm.DB, authID string, credits int64) *models.User {
	t.Helper()
	user := &models.User{
		AuthID:   authID,
		FullName: "Asha Rao",
		Emails:   []models.EmailAddress{{Email: "asha@example.com"}},
		Role:     models.UserRoleMember,
		Credits:  credits,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCreditReceiptEnqueueAndSend(t *testing.T) {
	db := newTestDB(t)
	user := createAccount(t, db, "user_abc", 310)
	mailer := &fakeMailer{}
	def := &SendCreditReceiptTaskDef{DB: db, Mailer: mailer}
	ctx := context.Background()

	def.Enqueue(ctx, user, services.GrantRequest{AuthID: "user_abc", Credits: 300, SessionID: "cs_test_001"}, "")

	var task models.ScheduledTask
	require.NoError(t, db.Where("task_name = ?", def.TaskID()).First(&task).Error)
	assert.Equal(t, models.ScheduledTaskTypeOneTime, task.TaskType)
	assert.Equal(t, 3, task.MaxAttempt)
	assert.Equal(t, "asha@example.com", task.Arguments["email"], "falls back to the account email")

	result, err := def.HandleExecution(ctx, task)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_001", result["session_id"])

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"asha@example.com"}, mailer.sent[0].to)
	assert.Equal(t, "Rez AI: 300 credits added to your account", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "Hi Asha Rao,")
	assert.Contains(t, mailer.sent[0].body, "Current balance: 310 credits")
}

func TestCreditReceiptSkipsAccountsWithoutEmail(t *testing.T) {
	db := newTestDB(t)
	def := &SendCreditReceiptTaskDef{DB: db, Mailer: &fakeMailer{}}

	def.Enqueue(context.Background(), &models.User{AuthID: "user_abc"}, services.GrantRequest{SessionID: "cs_test_001", Credits: 300}, "")

	var count int64
	require.NoError(t, db.Model(&models.ScheduledTask{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreditReceiptFailures(t *testing.T) {
	db := newTestDB(t)
	createAccount(t, db, "user_abc", 310)
	mailer := &fakeMailer{err: errors.New("connection refused")}
	def := &SendCreditReceiptTaskDef{DB: db, Mailer: mailer}

	task, err := def.CreateTask(SendCreditReceiptArgs{AuthID: "user_abc", Email: "asha@example.com", SessionID: "cs_test_001", Credits: 300, GrantedAt: testNow})
	require.NoError(t, err)
	_, err = def.HandleExecution(context.Background(), *task)
	assert.EqualError(t, err, "connection refused")

	task, err = def.CreateTask(SendCreditReceiptArgs{AuthID: "user_ghost", Email: "ghost@example.com", Credits: 300})
	require.NoError(t, err)
	_, err = def.HandleExecution(context.Background(), *task)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

type fakeReconciler struct {
	since time.Time
	limit int
	err   error
}

func (f *fakeReconciler) Reconcile(ctx context.Context, since time.Time, limit int) (services.ReconcileReport, error) {
	f.since, f.limit = since, limit
	return services.ReconcileReport{Checked: 4, Granted: 1, Skipped: 3}, f.err
}

func TestReconcileTaskArguments(t *testing.T) {
	reconciler := &fakeReconciler{}
	def := &ReconcileCheckoutSessionsTaskDef{Reconciler: reconciler, Now: func() time.Time { return testNow }}

	task, err := def.CreateTask(testNow)
	require.NoError(t, err)
	result, err := def.HandleExecution(context.Background(), *task)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(-48*time.Hour), reconciler.since)
	assert.Equal(t, 500, reconciler.limit)
	assert.Equal(t, 1, result["granted"])

	task.Arguments = map[string]interface{}{"lookback_hours": 6, "limit": 20}
	_, err = def.HandleExecution(context.Background(), *task)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(-6*time.Hour), reconciler.since)
	assert.Equal(t, 20, reconciler.limit)

	reconciler.err = services.ErrProvider
	result, err = def.HandleExecution(context.Background(), *task)
	assert.ErrorIs(t, err, services.ErrProvider)
	assert.Equal(t, 4, result["checked"])
}

func TestDefineTasks(t *testing.T) {
	registry := NewRegistry()
	DefineTasks(registry, Deps{Mailer: &fakeMailer{}, Reconciler: &fakeReconciler{}})
	assert.Equal(t, []string{"reconcile_checkout_sessions", "send_credit_receipt"}, registry.Names())
}
