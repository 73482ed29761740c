package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"annlin/models"
)

// seriesScope selects every member of the series ev belongs to. Rows written
// by GenerateSeries share a series id; older rows without one are matched on
// title, category and pattern.
func seriesScope(ev models.Event) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if ev.SeriesID != nil && *ev.SeriesID != "" {
			return db.Where("series_id = ?", *ev.SeriesID)
		}

		db = db.Where("title = ? AND category_id = ? AND is_recurring = ?", ev.Title, ev.CategoryID, true).
			Where("(series_id IS NULL OR series_id = '')")
		if ev.RecurringPattern == nil {
			return db.Where("recurring_pattern IS NULL")
		}
		return db.Where("recurring_pattern = ?", *ev.RecurringPattern)
	}
}

type seriesDeletion struct {
	Representative models.Event `json:"representative"`
	Members        int64        `json:"members"`
	Deleted        int64        `json:"deleted"`
}

// DeleteRecurringSeries removes every event in the series that eventID
// belongs to. Non-recurring events are rejected; use Delete for those.
func (s *EventService) DeleteRecurringSeries(ctx context.Context, eventID string, actor Actor) (int, error) {
	var event models.Event
	err := s.db.WithContext(ctx).First(&event, "id = ?", eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		s.log.Op("events.delete_series").WithError(err).Error("could not load event")
		return 0, fmt.Errorf("load event: %w", err)
	}
	if !event.IsRecurring {
		return 0, ErrNotRecurring
	}

	var deleted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var members int64
		if err := tx.Model(&models.Event{}).Scopes(seriesScope(event)).Count(&members).Error; err != nil {
			return err
		}

		res := tx.Scopes(seriesScope(event)).Delete(&models.Event{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected

		return s.audit.Record(tx, actor, models.AuditActionSeriesDelete, models.EntityEvent, event.ID, seriesDeletion{
			Representative: event,
			Members:        members,
			Deleted:        deleted,
		})
	})
	if err != nil {
		s.log.Op("events.delete_series").WithError(err).Error("could not delete recurring series")
		return 0, fmt.Errorf("delete recurring series: %w", err)
	}

	s.metrics.SeriesEventsDeleted.Add(float64(deleted))
	return int(deleted), nil
}
