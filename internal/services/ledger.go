package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rez_app_echo/internal/metrics"
	"rez_app_echo/internal/models"
)

// Grant sources
const (
	GrantSourceWebhook   = "webhook"
	GrantSourceReconcile = "reconcile"
	GrantSourceAdmin     = "admin"
)

// GrantRequest describes one credit increment tied to a checkout session
type GrantRequest struct {
	AuthID    string
	Credits   int64
	SessionID string
	EventID   string
	Source    string
}

// Ledger owns every change to account balances
type Ledger struct {
	db    *gorm.DB
	cache *RedisCache
}

func NewLedger(db *gorm.DB, cache *RedisCache) *Ledger {
	return &Ledger{db: db, cache: cache}
}

// Credits returns the current balance of an account, or 0 when the account is unknown
func (l *Ledger) Credits(ctx context.Context, authID string) (int64, error) {
	if authID == "" {
		return 0, nil
	}

	var user models.User
	err := l.db.WithContext(ctx).Select("credits").Where("auth_id = ?", authID).First(&user).Error
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return user.Credits, nil
}

// Grant atomically records the grant and increments the balance.
// A session can only be credited once: a second call returns ErrDuplicateGrant.
// ErrAccountNotFound leaves nothing behind. Store failures are wrapped in ErrLedgerUnavailable.
func (l *Ledger) Grant(ctx context.Context, req GrantRequest) (*models.User, error) {
	if req.Credits <= 0 {
		return nil, ErrInvalidCredits
	}
	if req.AuthID == "" {
		return nil, ErrAccountNotFound
	}

	var user models.User
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		grant := models.CreditGrant{
			SessionID:       req.SessionID,
			AuthID:          req.AuthID,
			Credits:         req.Credits,
			ProviderEventID: req.EventID,
			Source:          req.Source,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoNothing: true,
		}).Create(&grant)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateGrant
		}

		res = tx.Model(&models.User{}).
			Where("auth_id = ?", req.AuthID).
			Update("credits", gorm.Expr("credits + ?", req.Credits))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAccountNotFound
		}

		return tx.Where("auth_id = ?", req.AuthID).First(&user).Error
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateGrant) || errors.Is(err, ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	metrics.CreditsGranted.WithLabelValues(req.Source).Add(float64(req.Credits))
	_ = l.cache.Delete(ctx, profileCacheKey(req.AuthID))

	slog.InfoContext(ctx, "User credits updated",
		"clerk_id", req.AuthID,
		"session_id", req.SessionID,
		"credits_added", req.Credits,
		"credits", user.Credits,
		"source", req.Source,
	)
	return &user, nil
}

// IsGranted reports whether a checkout session has already been credited
func (l *Ledger) IsGranted(ctx context.Context, sessionID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.CreditGrant{}).Where("session_id = ?", sessionID).Count(&count).Error
	return count > 0, err
}

// ProvisionAccount creates the account on first login, starting with signupCredits,
// and refreshes the profile fields from the identity provider on later logins.
func (l *Ledger) ProvisionAccount(ctx context.Context, id Identity, signupCredits int64, admin bool) (*models.User, bool, error) {
	if id.UID == "" {
		return nil, false, ErrAccountNotFound
	}

	var existing models.User
	err := l.db.WithContext(ctx).Where("auth_id = ?", id.UID).First(&existing).Error
	if err != nil && !isNotFound(err) {
		return nil, false, err
	}
	created := isNotFound(err)

	user := models.User{
		AuthID:   id.UID,
		FullName: id.Name,
		Username: usernameFromEmail(id.Email),
		Avatar:   id.Picture,
		Role:     models.UserRoleMember,
		Credits:  signupCredits,
	}
	if id.Email != "" {
		user.Emails = []models.EmailAddress{{Email: id.Email, OAuth: id.Provider}}
	}
	if admin {
		user.Role = models.UserRoleAdmin
	}

	// credits are only written on insert
	err = l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "auth_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"emails", "full_name", "username", "avatar", "role", "updated_at"}),
	}).Create(&user).Error
	if err != nil {
		return nil, false, err
	}

	var stored models.User
	if err := l.db.WithContext(ctx).Where("auth_id = ?", id.UID).First(&stored).Error; err != nil {
		return nil, false, err
	}
	_ = l.cache.Delete(ctx, profileCacheKey(id.UID))

	if created {
		slog.InfoContext(ctx, "Account provisioned", "clerk_id", id.UID, "credits", stored.Credits)
	}
	return &stored, created, nil
}

// Account loads an account without its profile sections
func (l *Ledger) Account(ctx context.Context, authID string) (*models.User, error) {
	var user models.User
	if err := l.db.WithContext(ctx).Where("auth_id = ?", authID).First(&user).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &user, nil
}

// DeleteAccount removes the account together with every row it owns
func (l *Ledger) DeleteAccount(ctx context.Context, authID string) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := []interface{}{
			&models.Education{}, &models.Experience{}, &models.Project{},
			&models.Certification{}, &models.Publication{}, &models.Achievement{},
			&models.Responsibility{}, &models.Interest{}, &models.Language{},
			&models.SkillSet{}, &models.Resume{},
		}
		for _, m := range owned {
			if err := tx.Where("owner_id = ?", authID).Delete(m).Error; err != nil {
				return err
			}
		}

		res := tx.Where("auth_id = ?", authID).Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAccountNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	_ = l.cache.Delete(ctx, profileCacheKey(authID))
	return nil
}

func usernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return ""
}
