package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/areiqi/sitedb/data"
	"github.com/areiqi/sitedb/internal/auth"
	"github.com/areiqi/sitedb/internal/chat"
	"github.com/areiqi/sitedb/internal/config"
	"github.com/areiqi/sitedb/internal/database"
	"github.com/areiqi/sitedb/internal/handlers"
	"github.com/areiqi/sitedb/internal/live"
	"github.com/areiqi/sitedb/internal/localstore"
	"github.com/areiqi/sitedb/internal/media"
	"github.com/areiqi/sitedb/internal/middleware"
	"github.com/areiqi/sitedb/internal/services"
	"github.com/areiqi/sitedb/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/rs/zerolog"

	_ "github.com/areiqi/sitedb/docs/api" // Swagger docs
)

// @title SiteDB API
// @version 1.0.0
// @description Data service for the Al-Areiqi engineering site and its admin console
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://www.localnerve.com
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name areiqi_session

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to load configuration")
	}
	log := config.NewLogger(os.Stdout, cfg.LogLevel)

	opts := []store.Option{}
	if cfg.MediaS3Bucket != "" {
		publisher, err := media.NewS3Publisher(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create media publisher")
		}
		opts = append(opts, store.WithPublisher(publisher))
	}

	// Open and migrate the database
	opener := database.NewOpener(cfg)
	db, err := opener.Open()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close(db)

	st := store.New(opener, log, opts...)
	seed, err := data.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read built-in seed")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if _, err := st.InitializeDefaults(ctx, seed); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize defaults")
	}

	local := localstore.New(db)
	authService := auth.NewService(local, st, st.Bus(), st)
	assistant := chat.NewAssistant(chat.NewTranscript(local, cfg.ChatHistoryLimit), chat.Offline{})

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("sitedb")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		result := services.HealthCheck(cfg, db, log)
		if result.Status != "healthy" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(result)
		}
		return c.JSON(result)
	})

	// API routes under /api
	api := app.Group("/api",
		middleware.VersionMiddleware(),
		middleware.Session(authService, cfg.SessionCookie, log),
	)
	h := &handlers.Handlers{
		Collections: &handlers.CollectionHandler{Store: st},
		Auth:        &handlers.AuthHandler{Auth: authService, Cookie: cfg.SessionCookie},
		Site: &handlers.SiteHandler{
			Store:           st,
			Assistant:       assistant,
			Specializations: seed.Specializations,
			VisitorCookie:   handlers.DefaultVisitorCookie,
		},
	}
	h.Register(api)

	// 404 handler
	app.Use(handlers.NotFound)

	// Live feed on its own port
	feed := live.NewServer(st, authService, cfg.SessionCookie, log)
	go func() {
		if err := feed.ListenAndServe(ctx, ":"+cfg.LivePort); err != nil {
			log.Error().Err(err).Msg("live feed stopped")
			stop()
		}
	}()

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info().Msg("gracefully shutting down")
		_ = app.Shutdown()
	}()

	log.Info().Str("port", cfg.Port).Msg("starting server")
	if err := app.Listen(":" + cfg.Port); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("failed to start server")
	}
	log.Info().Msg("server stopped")
}
