package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"rez_app_echo/internal/models"
)

// SectionStore is CRUD for one profile section, always scoped to an owner
type SectionStore interface {
	List(ctx context.Context, ownerID string) (any, error)
	Create(ctx context.Context, ownerID string, body []byte) (models.Section, error)
	Update(ctx context.Context, ownerID string, id uint, body []byte) (models.Section, error)
	Delete(ctx context.Context, ownerID string, id uint) error
}

// sectionPtr lets the generic store allocate *T and call Section methods on it
type sectionPtr[T any] interface {
	*T
	models.Section
}

type sectionStore[T any, P sectionPtr[T]] struct {
	db *gorm.DB
}

func (s sectionStore[T, P]) List(ctx context.Context, ownerID string) (any, error) {
	var rows []T
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&rows).Error
	return rows, err
}

func (s sectionStore[T, P]) Create(ctx context.Context, ownerID string, body []byte) (models.Section, error) {
	row := P(new(T))
	if err := json.Unmarshal(body, row); err != nil {
		return nil, malformedBody(err)
	}

	// ownership always comes from the session, never from the body
	row.SetOwner(ownerID)
	if row.PrimaryKey() != 0 {
		return nil, models.ValidationErrors{{Field: "id", Message: "id is assigned by the server"}}
	}
	if err := row.Validate(); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (s sectionStore[T, P]) Update(ctx context.Context, ownerID string, id uint, body []byte) (models.Section, error) {
	row := P(new(T))
	err := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(row).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(body, row); err != nil {
		return nil, malformedBody(err)
	}
	if row.PrimaryKey() != id || row.Owner() != ownerID {
		return nil, ErrNotFound
	}
	if err := row.Validate(); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (s sectionStore[T, P]) Delete(ctx context.Context, ownerID string, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(P(new(T)))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func malformedBody(err error) error {
	return models.ValidationErrors{{Field: "body", Message: "Malformed request body: " + err.Error()}}
}

// ProfileService manages profile sections, resumes and the template gallery
type ProfileService struct {
	db       *gorm.DB
	cache    *RedisCache
	sections map[string]SectionStore
}

func NewProfileService(db *gorm.DB, cache *RedisCache) *ProfileService {
	return &ProfileService{
		db:    db,
		cache: cache,
		sections: map[string]SectionStore{
			"education":      sectionStore[models.Education, *models.Education]{db},
			"experience":     sectionStore[models.Experience, *models.Experience]{db},
			"project":        sectionStore[models.Project, *models.Project]{db},
			"certification":  sectionStore[models.Certification, *models.Certification]{db},
			"publication":    sectionStore[models.Publication, *models.Publication]{db},
			"achievement":    sectionStore[models.Achievement, *models.Achievement]{db},
			"responsibility": sectionStore[models.Responsibility, *models.Responsibility]{db},
			"interest":       sectionStore[models.Interest, *models.Interest]{db},
			"language":       sectionStore[models.Language, *models.Language]{db},
			"skills":         sectionStore[models.SkillSet, *models.SkillSet]{db},
		},
	}
}

// SectionNames lists the registered section names in order
func (s *ProfileService) SectionNames() []string {
	names := make([]string, 0, len(s.sections))
	for name := range s.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *ProfileService) section(name string) (SectionStore, error) {
	store, ok := s.sections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	return store, nil
}

func (s *ProfileService) ListSection(ctx context.Context, name, ownerID string) (any, error) {
	store, err := s.section(name)
	if err != nil {
		return nil, err
	}
	return store.List(ctx, ownerID)
}

func (s *ProfileService) CreateSection(ctx context.Context, name, ownerID string, body []byte) (models.Section, error) {
	store, err := s.section(name)
	if err != nil {
		return nil, err
	}
	row, err := store.Create(ctx, ownerID, body)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return row, nil
}

func (s *ProfileService) UpdateSection(ctx context.Context, name, ownerID string, id uint, body []byte) (models.Section, error) {
	store, err := s.section(name)
	if err != nil {
		return nil, err
	}
	row, err := store.Update(ctx, ownerID, id, body)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return row, nil
}

func (s *ProfileService) DeleteSection(ctx context.Context, name, ownerID string, id uint) error {
	store, err := s.section(name)
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.invalidate(ctx, ownerID)
	return nil
}

// FetchProfile returns the account with every section and resume loaded
func (s *ProfileService) FetchProfile(ctx context.Context, authID string) (*models.User, error) {
	user, err := GetOrSet(ctx, s.cache, profileCacheKey(authID), profileCacheTTL, func() (*models.User, error) {
		var user models.User
		err := s.db.WithContext(ctx).
			Preload("Educations").
			Preload("Experiences").
			Preload("Projects").
			Preload("Certifications").
			Preload("Publications").
			Preload("Achievements").
			Preload("Responsibilities").
			Preload("Interests").
			Preload("Languages").
			Preload("Skills").
			Preload("Resumes.Template").
			Where("auth_id = ?", authID).
			First(&user).Error
		if err != nil {
			if isNotFound(err) {
				return nil, ErrAccountNotFound
			}
			return nil, err
		}
		return &user, nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Templates returns the template gallery
func (s *ProfileService) Templates(ctx context.Context) ([]models.Template, error) {
	return GetOrSet(ctx, s.cache, templatesCacheKey, templatesCacheTTL, func() ([]models.Template, error) {
		var templates []models.Template
		err := s.db.WithContext(ctx).Order("id").Find(&templates).Error
		return templates, err
	})
}

// CreateResume starts a resume for ownerID from a gallery template
func (s *ProfileService) CreateResume(ctx context.Context, ownerID string, templateID uint) (*models.Resume, error) {
	var template models.Template
	if err := s.db.WithContext(ctx).First(&template, templateID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	resume := models.Resume{OwnerID: ownerID, TemplateID: template.ID}
	if err := s.db.WithContext(ctx).Omit("Template").Create(&resume).Error; err != nil {
		return nil, err
	}
	resume.Template = template
	s.invalidate(ctx, ownerID)
	return &resume, nil
}

// DeleteResume removes one of ownerID's resumes
func (s *ProfileService) DeleteResume(ctx context.Context, ownerID string, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Resume{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *ProfileService) invalidate(ctx context.Context, ownerID string) {
	_ = s.cache.Delete(ctx, profileCacheKey(ownerID))
}
