package services

import (
	"time"

	"annlin/models"
)

const dateOnly = "2006-01-02"

// ParseEventFilter reads the startDate/endDate/categoryId query values. Full
// RFC 3339 timestamps are used as given. A bare date is read in loc; as a
// lower bound it means the start of that day and as an upper bound the end
// of it.
func ParseEventFilter(startDate, endDate, categoryID string, loc *time.Location) (models.EventFilter, error) {
	if loc == nil {
		loc = time.UTC
	}
	verr := &ValidationError{Message: "Invalid date filter"}
	f := models.EventFilter{CategoryID: categoryID}

	if startDate != "" {
		if t, ok := parseBound(startDate, loc, false); ok {
			f.From = &t
		} else {
			verr.Add("startDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
	}
	if endDate != "" {
		if t, ok := parseBound(endDate, loc, true); ok {
			f.To = &t
		} else {
			verr.Add("endDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		verr.Add("endDate", "must not be before startDate")
	}
	return f, verr.OrNil()
}

func parseBound(value string, loc *time.Location, upper bool) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	day, err := time.ParseInLocation(dateOnly, value, loc)
	if err != nil {
		return time.Time{}, false
	}
	if upper {
		return day.AddDate(0, 0, 1).Add(-time.Nanosecond), true
	}
	return day, true
}
