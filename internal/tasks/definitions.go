package tasks

import (
	"gorm.io/gorm"

	"rez_app_echo/internal/services"
)

// Deps are the collaborators task handlers need
type Deps struct {
	DB         *gorm.DB
	Mailer     services.Mailer
	Reconciler Reconciler
}

// DefineTasks registers all available tasks
func DefineTasks(r *Registry, deps Deps) {
	receipt := &SendCreditReceiptTaskDef{DB: deps.DB, Mailer: deps.Mailer}
	r.Register(receipt.TaskID(), receipt.HandleExecution)

	reconcile := &ReconcileCheckoutSessionsTaskDef{Reconciler: deps.Reconciler}
	r.Register(reconcile.TaskID(), reconcile.HandleExecution)
}
