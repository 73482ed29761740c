package logger

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus logger carrying the service name on every entry.
type Logger struct {
	*logrus.Entry
}

// New creates a JSON logger writing to stdout at the given level.
func New(service, level string) *Logger {
	return NewWithOutput(service, level, os.Stdout)
}

func NewWithOutput(service, level string, out io.Writer) *Logger {
	log := logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(out)

	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Entry: log.WithField("service", service)}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return NewWithOutput("test", "error", io.Discard)
}

// Op tags an entry with the operation label used for persistence failures.
func (l *Logger) Op(op string) *logrus.Entry {
	return l.WithField("op", op)
}

// WithUserID adds the acting user to the entry.
func (l *Logger) WithUserID(userID string) *logrus.Entry {
	return l.WithField("user_id", userID)
}

// Middleware logs every request once it has been handled.
func Middleware(l *Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		entry := l.WithFields(logrus.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  status,
			"latency": time.Since(start).String(),
			"ip":      c.IP(),
		})
		switch {
		case err != nil && status >= fiber.StatusInternalServerError:
			entry.WithError(err).Error("request failed")
		case status >= fiber.StatusInternalServerError:
			entry.Error("request failed")
		default:
			entry.Debug("request completed")
		}
		return err
	}
}
