package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"annlin/logger"
	"annlin/metrics"
	"annlin/models"
)

// EventService owns every write to the events table.
type EventService struct {
	db        *gorm.DB
	audit     *Auditor
	validator *Validator
	log       *logger.Logger
	metrics   *metrics.Metrics
}

func NewEventService(db *gorm.DB, audit *Auditor, validator *Validator, log *logger.Logger, m *metrics.Metrics) *EventService {
	return &EventService{
		db:        db,
		audit:     audit,
		validator: validator,
		log:       log,
		metrics:   m,
	}
}

// FilterScope restricts a query to events whose start falls inside the
// filter bounds, optionally within one category.
func FilterScope(f models.EventFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.From != nil {
			db = db.Where("start_date >= ?", f.From.UTC())
		}
		if f.To != nil {
			db = db.Where("start_date <= ?", f.To.UTC())
		}
		if f.CategoryID != "" {
			db = db.Where("category_id = ?", f.CategoryID)
		}
		return db
	}
}

func withCategory(db *gorm.DB) *gorm.DB {
	return db.Preload("Category", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "name", "color")
	})
}

// List returns matching events ordered by start date.
func (s *EventService) List(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Scopes(FilterScope(f), withCategory).
		Order("start_date ASC").
		Find(&events).Error
	if err != nil {
		s.log.Op("events.list").WithError(err).Error("could not list events")
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).Scopes(withCategory).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.log.Op("events.get").WithError(err).Error("could not load event")
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

// checkCategory reports an unknown category as a field error.
func (s *EventService) checkCategory(ctx context.Context, verr *ValidationError, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	if count == 0 {
		verr.Add("categoryId", "unknown category")
	}
	return nil
}

func checkDates(verr *ValidationError, start time.Time, end *time.Time) {
	if start.IsZero() {
		verr.Add("startDate", "is required")
		return
	}
	if end != nil && !end.After(start) {
		verr.Add("endDate", "must be after startDate")
	}
}

func checkRecurrence(verr *ValidationError, isRecurring bool, pattern *models.RecurringPattern) {
	switch {
	case isRecurring && pattern == nil:
		verr.Add("recurringPattern", "is required when isRecurring is true")
	case !isRecurring && pattern != nil:
		verr.Add("recurringPattern", "must be empty unless isRecurring is true")
	}
}

// utc normalizes stored timestamps so range comparisons stay correct on
// drivers that compare them as text.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func optional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// Create stores a single event.
func (s *EventService) Create(ctx context.Context, in models.EventInput, actor Actor) (*models.Event, error) {
	in.Location = optional(in.Location)
	in.SermonURL = optional(in.SermonURL)
	verr := s.validator.Struct(in)
	checkDates(verr, in.StartDate, in.EndDate)
	checkRecurrence(verr, in.IsRecurring, in.RecurringPattern)
	if err := s.checkCategory(ctx, verr, in.CategoryID); err != nil {
		s.log.Op("events.create").WithError(err).Error("could not check category")
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	event := models.Event{
		Title:            in.Title,
		Description:      in.Description,
		StartDate:        in.StartDate.UTC(),
		EndDate:          utc(in.EndDate),
		Location:         optional(in.Location),
		SermonURL:        optional(in.SermonURL),
		CategoryID:       in.CategoryID,
		IsRecurring:      in.IsRecurring,
		RecurringPattern: in.RecurringPattern,
		CreatedBy:        actor.UserID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&event).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, actor, models.AuditActionEventCreate, models.EntityEvent, event.ID, event)
	})
	if err != nil {
		s.log.Op("events.create").WithError(err).Error("could not create event")
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &event, nil
}

// Update applies the non-nil fields of upd to the event.
func (s *EventService) Update(ctx context.Context, id string, upd models.EventUpdate, actor Actor) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.log.Op("events.update").WithError(err).Error("could not load event")
		return nil, fmt.Errorf("load event: %w", err)
	}
	before := event

	// A blank location or sermon URL clears the field, so only non-blank
	// values go through the field rules.
	check := upd
	check.Location = optional(upd.Location)
	check.SermonURL = optional(upd.SermonURL)
	verr := s.validator.Struct(check)
	if upd.Title != nil {
		event.Title = *upd.Title
	}
	if upd.Description != nil {
		event.Description = *upd.Description
	}
	if upd.StartDate != nil {
		event.StartDate = upd.StartDate.UTC()
	}
	if upd.EndDate != nil {
		event.EndDate = utc(upd.EndDate)
	}
	if upd.Location != nil {
		event.Location = optional(upd.Location)
	}
	if upd.SermonURL != nil {
		event.SermonURL = optional(upd.SermonURL)
	}
	if upd.CategoryID != nil && *upd.CategoryID != event.CategoryID {
		event.CategoryID = *upd.CategoryID
		if err := s.checkCategory(ctx, verr, event.CategoryID); err != nil {
			s.log.Op("events.update").WithError(err).Error("could not check category")
			return nil, err
		}
	}
	if upd.IsRecurring != nil {
		event.IsRecurring = *upd.IsRecurring
	}
	if upd.RecurringPattern != nil {
		event.RecurringPattern = upd.RecurringPattern
	}
	if !event.IsRecurring && upd.RecurringPattern == nil {
		// Turning recurrence off drops the pattern and the series link.
		event.RecurringPattern = nil
		event.SeriesID = nil
	}
	checkDates(verr, event.StartDate, event.EndDate)
	checkRecurrence(verr, event.IsRecurring, event.RecurringPattern)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(&event).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, actor, models.AuditActionEventUpdate, models.EntityEvent, event.ID,
			map[string]interface{}{"before": before, "after": event})
	})
	if err != nil {
		s.log.Op("events.update").WithError(err).Error("could not update event")
		return nil, fmt.Errorf("update event: %w", err)
	}
	return &event, nil
}

// Delete removes one event regardless of series membership.
func (s *EventService) Delete(ctx context.Context, id string, actor Actor) error {
	var event models.Event
	err := s.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		s.log.Op("events.delete").WithError(err).Error("could not load event")
		return fmt.Errorf("load event: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&event).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, actor, models.AuditActionEventDelete, models.EntityEvent, event.ID, event)
	})
	if err != nil {
		s.log.Op("events.delete").WithError(err).Error("could not delete event")
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
