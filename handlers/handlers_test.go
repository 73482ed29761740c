package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"annlin/config"
	"annlin/database"
	"annlin/logger"
	"annlin/metrics"
	"annlin/middleware"
	"annlin/models"
	"annlin/services"
)

type testServer struct {
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
}

func newServer(t *testing.T) *testServer {
	t.Helper()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	cfg.Calendar.Timezone = "UTC"
	cfg.Calendar.FilePrefix = "test-kalender"

	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	log := logger.Discard()
	m := metrics.New("test")
	v := services.NewValidator()
	audit := services.NewAuditor(db, log)

	h := New(Deps{
		DB:         db,
		Config:     cfg,
		Log:        log,
		Validator:  v,
		Auditor:    audit,
		Events:     services.NewEventService(db, audit, v, log, m),
		Categories: services.NewCategoryService(db, audit, v, log),
		Exporter:   services.NewCalendarExporter(db, cfg.Calendar, log, m),
	})

	app := fiber.New()
	Register(app, h)
	return &testServer{app: app, db: db, cfg: cfg}
}

func (s *testServer) user(t *testing.T, username, password string, role models.Role) (models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u := models.User{Username: username, PasswordHash: string(hash), Role: role}
	require.NoError(t, s.db.Create(&u).Error)

	tok, err := middleware.NewToken(s.cfg.JWTSecret, &u, time.Hour)
	require.NoError(t, err)
	return u, tok
}

func (s *testServer) category(t *testing.T, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Color: models.DefaultCategoryColor}
	require.NoError(t, s.db.Create(&c).Error)
	return c
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode(t *testing.T, raw []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v), string(raw))
}

func recurringBody(categoryID string) fiber.Map {
	return fiber.Map{
		"title":            "Biduur",
		"description":      "Weeklikse biduur",
		"startDate":        "2025-01-01T19:00:00Z",
		"endDate":          "2025-01-01T20:00:00Z",
		"categoryId":       categoryID,
		"recurringPattern": "WEEKLY",
		"maxOccurrences":   3,
	}
}
