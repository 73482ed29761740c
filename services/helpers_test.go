package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"annlin/config"
	"annlin/database"
	"annlin/logger"
	"annlin/metrics"
	"annlin/models"
)

type fixture struct {
	db         *gorm.DB
	events     *EventService
	categories *CategoryService
	exporter   *CalendarExporter
	metrics    *metrics.Metrics
	actor      Actor
}

func testCalendar() config.CalendarConfig {
	return config.CalendarConfig{
		Name:        "Test Gemeente",
		Description: "Test calendar",
		ProductID:   "-//Test Gemeente//Kalender//AF",
		Timezone:    "UTC",
		UIDDomain:   "test.example",
		FilePrefix:  "test-kalender",
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	log := logger.Discard()
	m := metrics.New("test")
	v := NewValidator()
	audit := NewAuditor(db, log)

	return &fixture{
		db:         db,
		events:     NewEventService(db, audit, v, log, m),
		categories: NewCategoryService(db, audit, v, log),
		exporter:   NewCalendarExporter(db, testCalendar(), log, m),
		metrics:    m,
		actor:      Actor{UserID: uuid.NewString(), Username: "editor", IP: "127.0.0.1"},
	}
}

func (f *fixture) category(t *testing.T, name string) models.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), models.CategoryInput{Name: name}, f.actor)
	require.NoError(t, err)
	return *c
}

func (f *fixture) countEvents(t *testing.T, where ...interface{}) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(&models.Event{})
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (f *fixture) auditEntries(t *testing.T, action models.AuditAction) []models.AuditLog {
	t.Helper()
	var logs []models.AuditLog
	require.NoError(t, f.db.Where("action = ?", action).Order("id").Find(&logs).Error)
	return logs
}

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}
