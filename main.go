package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/Ananth-NQI/petjourney-backend/database"
	"github.com/Ananth-NQI/petjourney-backend/internal/config"
	"github.com/Ananth-NQI/petjourney-backend/internal/handlers"
	"github.com/Ananth-NQI/petjourney-backend/internal/jobs"
	"github.com/Ananth-NQI/petjourney-backend/internal/logger"
	"github.com/Ananth-NQI/petjourney-backend/internal/middleware"
	"github.com/Ananth-NQI/petjourney-backend/internal/routes"
	"github.com/Ananth-NQI/petjourney-backend/internal/services"
	"github.com/Ananth-NQI/petjourney-backend/internal/storage"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to optional YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config.load_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log := logger.New(cfg.Logging)

	verifier, err := middleware.NewSignatureVerifier(cfg.Line.ChannelSecret)
	if err != nil {
		log.Error("signature.init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	health := handlers.NewHealthHandler(version, cfg.Session.Backend, "memory")

	// Sessions
	var (
		sessions services.SessionStore
		sweeper  *jobs.SessionSweeper
	)
	switch cfg.Session.Backend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Error("redis.connect_failed", slog.String("addr", cfg.Redis.Addr), slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer rdb.Close()
		sessions = services.NewRedisSessionStore(rdb, cfg.Session.TTL)
		health.AddDependency("redis", handlers.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
		log.Info("sessions.redis", slog.String("addr", cfg.Redis.Addr))
	default:
		mem := services.NewMemorySessionStore(cfg.Session.TTL)
		sessions = mem
		health.ActiveSessions = mem.ActiveSessions
		sweeper = jobs.NewSessionSweeper(mem, cfg.Session.SweepInterval, logger.Component(log, "sweeper"))
		log.Warn("sessions.memory", slog.String("note", "state is lost on restart and not shared between instances"))
	}

	// Bookings
	var bookings storage.Store
	if cfg.Database.DSN != "" {
		db, err := database.Connect(cfg.Database.DSN, log)
		if err != nil {
			log.Error("database.connect_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		if err := database.Migrate(db); err != nil {
			log.Error("database.migrate_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		bookings = storage.NewDatabaseStore(db)
		health.Storage = "postgres"
		health.AddDependency("database", handlers.PingFunc(func(ctx context.Context) error {
			return database.Ping(ctx, db)
		}))
	} else {
		log.Warn("bookings.memory", slog.String("note", "DATABASE_URL not set; bookings are kept in memory"))
		bookings = storage.NewMemoryStore()
	}

	// Outbound
	renderer := services.NewRenderer()
	sender, err := services.NewLineSender(
		cfg.Line.ChannelAccessToken,
		cfg.Line.APIEndpoint,
		cfg.Outbound.RatePerSecond,
		renderer,
		logger.Component(log, "line"),
	)
	if err != nil {
		log.Error("line.init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	var admins services.MultiNotifier
	if n := services.NewLinePushNotifier(sender, cfg.Line.AdminUserID, cfg.Outbound.PushRetries, logger.Component(log, "admin_push")); n != nil {
		admins = append(admins, n)
	}
	if cfg.Twilio.Enabled() {
		tw, err := services.NewTwilioNotifier(cfg.Twilio, logger.Component(log, "twilio"))
		if err != nil {
			log.Warn("twilio.init_failed", slog.String("err", err.Error()))
		} else {
			admins = append(admins, tw)
		}
	}

	opts := []services.DispatcherOption{
		services.WithBookingStore(bookings),
		services.WithDeduper(services.NewDeduper(services.DefaultDedupeWindow)),
		services.WithReplyTimeout(cfg.Outbound.ReplyTimeout),
		services.WithBatchTimeout(cfg.Outbound.BatchTimeout),
	}
	if len(admins) > 0 {
		opts = append(opts, services.WithAdminNotifier(admins))
	}
	dispatcher := services.NewEventDispatcher(sessions, sender, logger.Component(log, "dispatcher"), opts...)

	app := fiber.New(fiber.Config{
		AppName: "Pet Journey LINE Bot v" + version,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	routes.SetupRoutes(app, routes.Deps{
		WebhookPath: cfg.Server.WebhookPath,
		AdminAPIKey: cfg.Server.AdminAPIKey,
		Verifier:    verifier,
		Webhook:     handlers.NewWebhookHandler(dispatcher, logger.Component(log, "webhook")),
		Health:      health,
		BookNow:     handlers.NewBookNowHandler(sender, renderer, logger.Component(log, "book_now")),
		Bookings:    bookings,
		Version:     version,
		Log:         log,
	})

	if sweeper != nil {
		sweeper.Start()
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("server.shutting_down")
		if sweeper != nil {
			sweeper.Stop()
		}
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	log.Info("server.starting",
		slog.String("port", cfg.Server.Port),
		slog.String("webhook", cfg.Server.WebhookPath),
		slog.String("sessions", cfg.Session.Backend),
		slog.String("storage", health.Storage),
		slog.Int("admin_channels", len(admins)),
	)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Error("server.listen_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	// pending admin notifications finish before exit
	dispatcher.Wait()
	log.Info("server.stopped")
}
