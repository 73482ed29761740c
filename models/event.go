package models

import (
	"time"
)

// RecurringPattern is the calendar step between two occurrences of a series.
type RecurringPattern string

const (
	PatternWeekly  RecurringPattern = "WEEKLY"
	PatternMonthly RecurringPattern = "MONTHLY"
	PatternYearly  RecurringPattern = "YEARLY"
)

func (p RecurringPattern) Valid() bool {
	switch p {
	case PatternWeekly, PatternMonthly, PatternYearly:
		return true
	}
	return false
}

// Event is one concrete calendar entry. Rows created together by the
// recurrence generator share a SeriesID.
type Event struct {
	ID               string            `gorm:"primaryKey;size:36" json:"id"`
	Title            string            `gorm:"not null;index:idx_event_series_shape" json:"title"`
	Description      string            `gorm:"type:text" json:"description"`
	StartDate        time.Time         `gorm:"not null;index" json:"startDate"`
	EndDate          *time.Time        `json:"endDate,omitempty"`
	Location         *string           `json:"location,omitempty"`
	SermonURL        *string           `json:"sermonUrl,omitempty"`
	CategoryID       string            `gorm:"size:36;not null;index;index:idx_event_series_shape" json:"categoryId"`
	Category         *Category         `gorm:"constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	IsRecurring      bool              `gorm:"not null;default:false" json:"isRecurring"`
	RecurringPattern *RecurringPattern `gorm:"size:10;index:idx_event_series_shape" json:"recurringPattern,omitempty"`
	SeriesID         *string           `gorm:"size:36;index" json:"seriesId,omitempty"`
	CreatedBy        string            `gorm:"size:36" json:"createdBy,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// EventInput is the body for creating a single event.
type EventInput struct {
	Title            string            `json:"title" validate:"required,max=200"`
	Description      string            `json:"description" validate:"max=5000"`
	StartDate        time.Time         `json:"startDate"`
	EndDate          *time.Time        `json:"endDate"`
	Location         *string           `json:"location" validate:"omitempty,max=200"`
	SermonURL        *string           `json:"sermonUrl" validate:"omitempty,url"`
	CategoryID       string            `json:"categoryId" validate:"required"`
	IsRecurring      bool              `json:"isRecurring"`
	RecurringPattern *RecurringPattern `json:"recurringPattern" validate:"omitempty,oneof=WEEKLY MONTHLY YEARLY"`
}

// EventUpdate carries the fields of a partial update; nil means unchanged.
type EventUpdate struct {
	Title            *string           `json:"title" validate:"omitempty,min=1,max=200"`
	Description      *string           `json:"description" validate:"omitempty,max=5000"`
	StartDate        *time.Time        `json:"startDate"`
	EndDate          *time.Time        `json:"endDate"`
	Location         *string           `json:"location" validate:"omitempty,max=200"`
	SermonURL        *string           `json:"sermonUrl" validate:"omitempty,url"`
	CategoryID       *string           `json:"categoryId" validate:"omitempty,min=1"`
	IsRecurring      *bool             `json:"isRecurring"`
	RecurringPattern *RecurringPattern `json:"recurringPattern" validate:"omitempty,oneof=WEEKLY MONTHLY YEARLY"`
}

// RecurringEventInput is the template handed to the recurrence generator.
type RecurringEventInput struct {
	Title            string           `json:"title" validate:"required,max=200"`
	Description      string           `json:"description" validate:"max=5000"`
	StartDate        time.Time        `json:"startDate"`
	EndDate          *time.Time       `json:"endDate"`
	Location         string           `json:"location" validate:"max=200"`
	CategoryID       string           `json:"categoryId" validate:"required"`
	RecurringPattern RecurringPattern `json:"recurringPattern" validate:"required,oneof=WEEKLY MONTHLY YEARLY"`
	SermonURL        string           `json:"sermonUrl" validate:"omitempty,url"`
	EndRecurrence    *time.Time       `json:"endRecurrence"`
	MaxOccurrences   *int             `json:"maxOccurrences" validate:"omitempty,min=0,max=520"`
}

// EventFilter selects events by start date and category. Both bounds are
// inclusive and apply to StartDate only.
type EventFilter struct {
	From       *time.Time
	To         *time.Time
	CategoryID string
}
