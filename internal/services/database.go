package services

import (
	"errors"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"rez_app_echo/internal/models"
)

// InitDB initializes the database connection with connection pooling
func InitDB(dsn string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	slog.Info("Database connection established")
	return db, nil
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	slog.Info("Running database migrations")

	err := db.AutoMigrate(
		&models.User{},
		&models.Template{},
		&models.Resume{},
		&models.Education{},
		&models.Experience{},
		&models.Project{},
		&models.Certification{},
		&models.Publication{},
		&models.Achievement{},
		&models.Responsibility{},
		&models.Interest{},
		&models.Language{},
		&models.SkillSet{},
		&models.CheckoutRecord{},
		&models.PaymentEvent{},
		&models.CreditGrant{},
		&models.ScheduledTask{},
		&models.ScheduledTaskHistory{},
	)
	if err != nil {
		return err
	}

	slog.Info("Database migrations completed")
	return nil
}

// SeedTemplates inserts the default gallery templates that are not present yet
func SeedTemplates(db *gorm.DB) (int64, error) {
	templates := make([]models.Template, len(models.DefaultTemplates))
	copy(templates, models.DefaultTemplates)

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&templates)
	return res.RowsAffected, res.Error
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
