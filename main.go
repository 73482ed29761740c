package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"annlin/config"
	"annlin/database"
	"annlin/handlers"
	"annlin/logger"
	"annlin/metrics"
	"annlin/services"
)

func main() {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("annlin", cfg.LogLevel)
	m := metrics.New("annlin")

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.DatabaseDriver).Fatal("failed to connect to database")
	}

	validator := services.NewValidator()
	auditor := services.NewAuditor(db, log)
	h := handlers.New(handlers.Deps{
		DB:         db,
		Config:     cfg,
		Log:        log,
		Validator:  validator,
		Auditor:    auditor,
		Events:     services.NewEventService(db, auditor, validator, log, m),
		Categories: services.NewCategoryService(db, auditor, validator, log),
		Exporter:   services.NewCalendarExporter(db, cfg.Calendar, log, m),
	})

	app := fiber.New(fiber.Config{
		AppName:      "Annlin",
		ErrorHandler: errorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.Middleware(log))
	app.Use(m.Middleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	handlers.Register(app, h)

	// Serve static files (frontend) in production
	if cfg.Production {
		app.Static("/", "./static")
		app.Get("/*", func(c *fiber.Ctx) error {
			return c.SendFile("./static/index.html")
		})
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down server")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("error shutting down")
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.WithField("addr", addr).Info("starting server")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func errorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		} else {
			log.Op("http").WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}

		return c.Status(code).JSON(fiber.Map{
			"error": message,
		})
	}
}
