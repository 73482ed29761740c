package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"annlin/models"
)

const (
	// DefaultMaxOccurrences caps a series when the template sets no limit:
	// one year of weekly events, whatever the pattern.
	DefaultMaxOccurrences = 52
	// MaxSeriesOccurrences is the largest cap a template may ask for. It
	// matches the max= rule on RecurringEventInput.MaxOccurrences.
	MaxSeriesOccurrences = 520
	// DefaultRecurrenceYears is how far a series runs without endRecurrence.
	DefaultRecurrenceYears = 2

	createBatchSize = 100
)

// Occurrence is one start/end pair derived from a template.
type Occurrence struct {
	Start time.Time
	End   *time.Time
}

// Step advances t by n units of pattern. Month and year steps keep the day of
// month and clamp it to the last day of a shorter month, so Jan 31 + 1 month
// is Feb 28 (or 29) and Feb 29 + 1 year is Feb 28.
func Step(t time.Time, pattern models.RecurringPattern, n int) time.Time {
	switch pattern {
	case models.PatternWeekly:
		return t.AddDate(0, 0, 7*n)
	case models.PatternMonthly:
		return addMonths(t, n)
	case models.PatternYearly:
		return addMonths(t, 12*n)
	}
	return t
}

func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// Occurrences expands a template into concrete start/end pairs. The i-th
// occurrence starts i pattern units after the template start; generation
// stops at the first start not strictly before the cutoff or once the cap is
// reached. Each occurrence keeps the template's duration.
func Occurrences(in models.RecurringEventInput) []Occurrence {
	if !in.RecurringPattern.Valid() || in.StartDate.IsZero() {
		return nil
	}

	limit := DefaultMaxOccurrences
	if in.MaxOccurrences != nil {
		limit = *in.MaxOccurrences
	}
	until := in.StartDate.AddDate(DefaultRecurrenceYears, 0, 0)
	if in.EndRecurrence != nil {
		until = *in.EndRecurrence
	}

	var duration time.Duration
	if in.EndDate != nil {
		duration = in.EndDate.Sub(in.StartDate)
	}

	var out []Occurrence
	for i := 0; len(out) < limit; i++ {
		start := Step(in.StartDate, in.RecurringPattern, i)
		if !start.Before(until) {
			break
		}
		occ := Occurrence{Start: start}
		if in.EndDate != nil {
			end := start.Add(duration)
			occ.End = &end
		}
		out = append(out, occ)
	}
	return out
}

// seriesSummary is the audit payload for a generated series.
type seriesSummary struct {
	SeriesID string                     `json:"seriesId"`
	Pattern  models.RecurringPattern    `json:"pattern"`
	Count    int                        `json:"count"`
	Template models.RecurringEventInput `json:"template"`
}

// GenerateSeries materializes a recurring template as one batch of events
// sharing a fresh series id. Either every row is written or none is.
func (s *EventService) GenerateSeries(ctx context.Context, in models.RecurringEventInput, actor Actor) (int, error) {
	verr := s.validator.Struct(in)
	checkDates(verr, in.StartDate, in.EndDate)
	if err := s.checkCategory(ctx, verr, in.CategoryID); err != nil {
		s.log.Op("events.generate").WithError(err).Error("could not check category")
		return 0, err
	}
	if err := verr.OrNil(); err != nil {
		return 0, err
	}

	occurrences := Occurrences(in)
	if len(occurrences) == 0 {
		return 0, nil
	}

	seriesID := uuid.NewString()
	pattern := in.RecurringPattern
	events := make([]models.Event, len(occurrences))
	for i, occ := range occurrences {
		events[i] = models.Event{
			Title:            in.Title,
			Description:      in.Description,
			StartDate:        occ.Start.UTC(),
			EndDate:          utc(occ.End),
			Location:         optional(&in.Location),
			SermonURL:        optional(&in.SermonURL),
			CategoryID:       in.CategoryID,
			IsRecurring:      true,
			RecurringPattern: &pattern,
			SeriesID:         &seriesID,
			CreatedBy:        actor.UserID,
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).CreateInBatches(&events, createBatchSize).Error; err != nil {
			return err
		}
		return s.audit.Record(tx, actor, models.AuditActionSeriesCreate, models.EntityEvent, events[0].ID, seriesSummary{
			SeriesID: seriesID,
			Pattern:  pattern,
			Count:    len(events),
			Template: in,
		})
	})
	if err != nil {
		s.log.Op("events.generate").WithError(err).WithField("pattern", pattern).Error("could not create recurring events")
		return 0, fmt.Errorf("create recurring events: %w", err)
	}

	s.metrics.OccurrencesGenerated.WithLabelValues(string(pattern)).Add(float64(len(events)))
	s.log.WithUserID(actor.UserID).WithFields(map[string]interface{}{
		"series_id": seriesID,
		"pattern":   pattern,
		"count":     len(events),
	}).Info("recurring events created")
	return len(events), nil
}
