package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"annlin/logger"
	"annlin/models"
)

type CategoryService struct {
	db        *gorm.DB
	audit     *Auditor
	validator *Validator
	log       *logger.Logger
}

func NewCategoryService(db *gorm.DB, audit *Auditor, validator *Validator, log *logger.Logger) *CategoryService {
	return &CategoryService{db: db, audit: audit, validator: validator, log: log}
}

// List returns every category ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		s.log.Op("categories.list").WithError(err).Error("could not list categories")
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) nameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check category name: %w", err)
	}
	return count > 0, nil
}

func (s *CategoryService) Create(ctx context.Context, in models.CategoryInput, actor Actor) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	verr := s.validator.Struct(in)
	if in.Name == "" {
		verr.Add("name", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	taken, err := s.nameTaken(ctx, in.Name, "")
	if err != nil {
		s.log.Op("categories.create").WithError(err).Error("could not check category name")
		return nil, err
	}
	if taken {
		return nil, ErrConflict
	}

	if in.Color == "" {
		in.Color = models.DefaultCategoryColor
	}
	category := models.Category{
		Name:        in.Name,
		Color:       in.Color,
		Description: in.Description,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&category).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, actor, models.AuditActionCategoryCreate, models.EntityCategory, category.ID, category)
	})
	if err != nil {
		s.log.Op("categories.create").WithError(err).Error("could not create category")
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &category, nil
}

// Update changes the non-empty fields of in.
func (s *CategoryService) Update(ctx context.Context, id string, in models.CategoryInput, actor Actor) (*models.Category, error) {
	var category models.Category
	err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.log.Op("categories.update").WithError(err).Error("could not load category")
		return nil, fmt.Errorf("load category: %w", err)
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.Struct(in).OrNil(); err != nil {
		return nil, err
	}

	before := category
	if in.Name != "" && in.Name != category.Name {
		taken, err := s.nameTaken(ctx, in.Name, category.ID)
		if err != nil {
			s.log.Op("categories.update").WithError(err).Error("could not check category name")
			return nil, err
		}
		if taken {
			return nil, ErrConflict
		}
		category.Name = in.Name
	}
	if in.Color != "" {
		category.Color = in.Color
	}
	if in.Description != "" {
		category.Description = in.Description
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&category).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, actor, models.AuditActionCategoryUpdate, models.EntityCategory, category.ID,
			map[string]interface{}{"before": before, "after": category})
	})
	if err != nil {
		s.log.Op("categories.update").WithError(err).Error("could not update category")
		return nil, fmt.Errorf("update category: %w", err)
	}
	return &category, nil
}

// Delete removes a category that no event refers to.
func (s *CategoryService) Delete(ctx context.Context, id string, actor Actor) error {
	var category models.Category
	err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		s.log.Op("categories.delete").WithError(err).Error("could not load category")
		return fmt.Errorf("load category: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inUse int64
		if err := tx.Model(&models.Event{}).Where("category_id = ?", category.ID).Count(&inUse).Error; err != nil {
			return err
		}
		if inUse > 0 {
			return ErrCategoryInUse
		}
		if err := tx.Delete(&category).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, actor, models.AuditActionCategoryDelete, models.EntityCategory, category.ID, category)
	})
	if errors.Is(err, ErrCategoryInUse) {
		return err
	}
	if err != nil {
		s.log.Op("categories.delete").WithError(err).Error("could not delete category")
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
