package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
	"gorm.io/gorm"

	"annlin/config"
	"annlin/logger"
	"annlin/metrics"
	"annlin/models"
)

const (
	// DefaultEventDuration is used for events without an end date.
	DefaultEventDuration = time.Hour

	CalendarContentType = "text/calendar; charset=utf-8"
)

var ErrExportFailed = errors.New("could not export calendar")

// CalendarExporter renders stored events as an iCalendar document.
type CalendarExporter struct {
	db      *gorm.DB
	cal     config.CalendarConfig
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewCalendarExporter(db *gorm.DB, cal config.CalendarConfig, log *logger.Logger, m *metrics.Metrics) *CalendarExporter {
	return &CalendarExporter{
		db:      db,
		cal:     cal,
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// Export loads the events matching f and serializes them. A read failure
// yields ErrExportFailed and no document.
func (e *CalendarExporter) Export(ctx context.Context, f models.EventFilter) (string, error) {
	var events []models.Event
	err := e.db.WithContext(ctx).
		Scopes(FilterScope(f), withCategory).
		Order("start_date ASC").
		Find(&events).Error
	if err != nil {
		e.metrics.CalendarExports.WithLabelValues("error").Inc()
		e.log.Op("calendar.export").WithError(err).Error("could not load events for export")
		return "", fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	e.metrics.CalendarExports.WithLabelValues("ok").Inc()
	return e.Render(events, e.now().UTC()), nil
}

// Filename is the suggested attachment name for an export made at t.
func (e *CalendarExporter) Filename(t time.Time) string {
	return fmt.Sprintf("%s-%s.ics", e.cal.FilePrefix, t.Format("2006-01-02"))
}

// Now is the clock used for export stamps.
func (e *CalendarExporter) Now() time.Time {
	return e.now()
}

// Render builds the calendar document with CRLF line endings. stamp is
// written as CREATED and DTSTAMP on every event. Text values are escaped by
// the serializer.
func (e *CalendarExporter) Render(events []models.Event, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.cal.ProductID)
	cal.SetXWRCalName(e.cal.Name)
	cal.SetXWRCalDesc(e.cal.Description)
	cal.SetXWRTimezone(e.cal.Timezone)

	for _, ev := range events {
		vevent := cal.AddEvent(ev.ID + "@" + e.cal.UIDDomain)
		vevent.SetCreatedTime(stamp)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(ev.StartDate)
		vevent.SetEndAt(EventEnd(ev))
		vevent.SetSummary(ev.Title)
		vevent.SetDescription(ev.Description)
		if ev.Location != nil && *ev.Location != "" {
			vevent.SetLocation(*ev.Location)
		}
		if ev.SermonURL != nil && *ev.SermonURL != "" {
			vevent.SetURL(*ev.SermonURL)
		}
		if ev.Category != nil {
			vevent.SetProperty(ics.ComponentPropertyCategories, ev.Category.Name)
		}
		if ev.IsRecurring && ev.RecurringPattern != nil {
			if rule := RRule(*ev.RecurringPattern); rule != "" {
				vevent.AddRrule(rule)
			}
		}
	}

	return cal.Serialize(ics.WithNewLineWindows)
}

// EventEnd is the event's end date, or its start plus DefaultEventDuration.
func EventEnd(ev models.Event) time.Time {
	if ev.EndDate != nil {
		return *ev.EndDate
	}
	return ev.StartDate.Add(DefaultEventDuration)
}

// RRule renders an open-ended repetition rule for pattern. Series bounds are
// not encoded.
func RRule(pattern models.RecurringPattern) string {
	var freq rrule.Frequency
	switch pattern {
	case models.PatternWeekly:
		freq = rrule.WEEKLY
	case models.PatternMonthly:
		freq = rrule.MONTHLY
	case models.PatternYearly:
		freq = rrule.YEARLY
	default:
		return ""
	}
	opt := rrule.ROption{Freq: freq}
	return opt.RRuleString()
}
