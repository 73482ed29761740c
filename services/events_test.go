package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annlin/models"
)

func TestEventService_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Erediens")
	sast := time.FixedZone("SAST", 2*60*60)

	ev, err := f.events.Create(ctx, models.EventInput{
		Title:       "Paasdiens",
		Description: "Opstandingsoggend",
		StartDate:   time.Date(2025, 4, 20, 6, 0, 0, 0, sast),
		EndDate:     ptr(time.Date(2025, 4, 20, 7, 30, 0, 0, sast)),
		Location:    ptr("Kerk"),
		SermonURL:   ptr(""),
		CategoryID:  cat.ID,
	}, f.actor)
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Nil(t, ev.SermonURL, "blank optional fields are stored as null")

	got, err := f.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paasdiens", got.Title)
	assert.True(t, got.StartDate.Equal(date(2025, 4, 20, 4, 0)))
	require.NotNil(t, got.Category)
	assert.Equal(t, "Erediens", got.Category.Name)
	assert.Equal(t, models.DefaultCategoryColor, got.Category.Color)

	logs := f.auditEntries(t, models.AuditActionEventCreate)
	require.Len(t, logs, 1)
	assert.Equal(t, ev.ID, logs[0].EntityID)
	assert.Equal(t, models.EntityEvent, logs[0].EntityType)
	assert.Equal(t, f.actor.UserID, logs[0].UserID)
}

func TestEventService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t, "Erediens")
	start := date(2025, 4, 20, 6, 0)
	weekly := models.PatternWeekly

	tests := []struct {
		name  string
		in    models.EventInput
		field string
	}{
		{"end not after start", models.EventInput{Title: "x", StartDate: start, EndDate: &start, CategoryID: cat.ID}, "endDate"},
		{"pattern without recurring", models.EventInput{Title: "x", StartDate: start, CategoryID: cat.ID, RecurringPattern: &weekly}, "recurringPattern"},
		{"recurring without pattern", models.EventInput{Title: "x", StartDate: start, CategoryID: cat.ID, IsRecurring: true}, "recurringPattern"},
		{"unknown category", models.EventInput{Title: "x", StartDate: start, CategoryID: "nope"}, "categoryId"},
		{"missing category", models.EventInput{Title: "x", StartDate: start}, "categoryId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.events.Create(context.Background(), tt.in, f.actor)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
	assert.Zero(t, f.countEvents(t))
}

func TestEventService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	worship := f.category(t, "Erediens")
	youth := f.category(t, "Jeug")

	for _, in := range []models.EventInput{
		{Title: "Derde", StartDate: date(2025, 3, 1, 9, 0), CategoryID: worship.ID},
		{Title: "Eerste", StartDate: date(2025, 1, 1, 9, 0), CategoryID: worship.ID},
		{Title: "Tweede", StartDate: date(2025, 2, 1, 9, 0), CategoryID: youth.ID},
	} {
		_, err := f.events.Create(ctx, in, f.actor)
		require.NoError(t, err)
	}

	all, err := f.events.List(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Eerste", "Tweede", "Derde"}, []string{all[0].Title, all[1].Title, all[2].Title})

	from := date(2025, 2, 1, 9, 0)
	later, err := f.events.List(ctx, models.EventFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, later, 2)

	// Bounds in another zone compare on the same instant.
	to := time.Date(2025, 2, 1, 11, 0, 0, 0, time.FixedZone("SAST", 2*60*60))
	earlier, err := f.events.List(ctx, models.EventFilter{To: &to})
	require.NoError(t, err)
	assert.Len(t, earlier, 2)

	youthOnly, err := f.events.List(ctx, models.EventFilter{CategoryID: youth.ID})
	require.NoError(t, err)
	require.Len(t, youthOnly, 1)
	assert.Equal(t, "Tweede", youthOnly[0].Title)
}

func TestEventService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Erediens")
	other := f.category(t, "Jeug")

	_, err := f.events.GenerateSeries(ctx, models.RecurringEventInput{
		Title:            "Biduur",
		StartDate:        date(2025, 1, 1, 19, 0),
		CategoryID:       cat.ID,
		RecurringPattern: models.PatternWeekly,
		MaxOccurrences:   ptr(2),
	}, f.actor)
	require.NoError(t, err)
	events, err := f.events.List(ctx, models.EventFilter{})
	require.NoError(t, err)
	target := events[1]

	updated, err := f.events.Update(ctx, target.ID, models.EventUpdate{
		Title:       ptr("Biduur (verskuif)"),
		CategoryID:  ptr(other.ID),
		IsRecurring: ptr(false),
	}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "Biduur (verskuif)", updated.Title)
	assert.Equal(t, other.ID, updated.CategoryID)
	assert.False(t, updated.IsRecurring)
	assert.Nil(t, updated.RecurringPattern)
	assert.Nil(t, updated.SeriesID, "a detached event leaves its series")

	// The rest of the series is untouched and can still be erased on its own.
	deleted, err := f.events.DeleteRecurringSeries(ctx, events[0].ID, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
	assert.EqualValues(t, 1, f.countEvents(t))

	require.Len(t, f.auditEntries(t, models.AuditActionEventUpdate), 1)
}

func TestEventService_UpdateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Erediens")

	ev, err := f.events.Create(ctx, models.EventInput{
		Title:      "Kerskonsert",
		StartDate:  date(2025, 12, 20, 18, 0),
		EndDate:    ptr(date(2025, 12, 20, 20, 0)),
		CategoryID: cat.ID,
	}, f.actor)
	require.NoError(t, err)

	_, err = f.events.Update(ctx, ev.ID, models.EventUpdate{StartDate: ptr(date(2025, 12, 20, 21, 0))}, f.actor)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "endDate", verr.Fields[0].Field)

	_, err = f.events.Update(ctx, ev.ID, models.EventUpdate{CategoryID: ptr("missing")}, f.actor)
	require.ErrorAs(t, err, &verr)

	_, err = f.events.Update(ctx, ev.ID, models.EventUpdate{IsRecurring: ptr(true)}, f.actor)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "recurringPattern", verr.Fields[0].Field)

	_, err = f.events.Update(ctx, "missing", models.EventUpdate{}, f.actor)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.events.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.True(t, got.StartDate.Equal(date(2025, 12, 20, 18, 0)))
}

func TestEventService_UpdateClearsBlankOptionalFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Erediens")

	ev, err := f.events.Create(ctx, models.EventInput{
		Title:      "Erediens",
		StartDate:  date(2025, 3, 2, 9, 0),
		Location:   ptr("Kerk"),
		SermonURL:  ptr("https://example.org/preke/7"),
		CategoryID: cat.ID,
	}, f.actor)
	require.NoError(t, err)

	updated, err := f.events.Update(ctx, ev.ID, models.EventUpdate{
		Location:  ptr(""),
		SermonURL: ptr(""),
	}, f.actor)
	require.NoError(t, err)
	assert.Nil(t, updated.Location)
	assert.Nil(t, updated.SermonURL)

	_, err = f.events.Update(ctx, ev.ID, models.EventUpdate{SermonURL: ptr("not a url")}, f.actor)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sermonUrl", verr.Fields[0].Field)
}

func TestEventService_DeleteLeavesSeriesSiblings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "Erediens")

	_, err := f.events.GenerateSeries(ctx, models.RecurringEventInput{
		Title:            "Biduur",
		StartDate:        date(2025, 1, 1, 19, 0),
		CategoryID:       cat.ID,
		RecurringPattern: models.PatternWeekly,
		MaxOccurrences:   ptr(3),
	}, f.actor)
	require.NoError(t, err)
	events, err := f.events.List(ctx, models.EventFilter{})
	require.NoError(t, err)

	require.NoError(t, f.events.Delete(ctx, events[1].ID, f.actor))
	assert.EqualValues(t, 2, f.countEvents(t))
	assert.ErrorIs(t, f.events.Delete(ctx, events[1].ID, f.actor), ErrNotFound)

	_, err = f.events.Get(ctx, events[1].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
