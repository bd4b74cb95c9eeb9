package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tiendalink/wabot-server-go/internal/config"
	"github.com/tiendalink/wabot-server-go/internal/conversation"
	"github.com/tiendalink/wabot-server-go/internal/database"
	"github.com/tiendalink/wabot-server-go/internal/dispatch"
	"github.com/tiendalink/wabot-server-go/internal/handler"
	"github.com/tiendalink/wabot-server-go/internal/httputil"
	"github.com/tiendalink/wabot-server-go/internal/jobs"
	"github.com/tiendalink/wabot-server-go/internal/metrics"
	"github.com/tiendalink/wabot-server-go/internal/middleware"
	"github.com/tiendalink/wabot-server-go/internal/notify"
	"github.com/tiendalink/wabot-server-go/internal/ratelimit"
	redisclient "github.com/tiendalink/wabot-server-go/internal/redis"
	"github.com/tiendalink/wabot-server-go/internal/repository"
	"github.com/tiendalink/wabot-server-go/internal/session"
	"github.com/tiendalink/wabot-server-go/internal/spam"
	"github.com/tiendalink/wabot-server-go/internal/sse"
	"github.com/tiendalink/wabot-server-go/internal/waclient"
)

func main() {
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	tenantRepo := repository.NewTenantRepository(db.DB)
	orderRepo := repository.NewOrderRepository(db.DB)
	statusRepo := repository.NewStatusRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	limiter := ratelimit.New(cfg.RateLimitWindow(), cfg.RateLimitMaxMessages, config.MinMessageInterval)
	filter := spam.NewFilter()
	convStore := conversation.NewStore()

	dispatcher := dispatch.New(cfg.OutboundDelay())
	machine := conversation.NewMachine(orderRepo, dispatcher)
	router := conversation.NewRouter(machine.Routes())
	processor := conversation.NewProcessor(limiter, filter, convStore, router, dispatcher, tenantRepo)

	// Vendor adapter seam: swap the in-memory dialer for the real
	// messaging-network client in production builds.
	dialer := waclient.NewMemoryDialer()

	registry := session.NewRegistry(dialer, tenantRepo, statusRepo, broker, dispatcher, processor, session.Options{
		PairingTTL:     cfg.PairingTTL(),
		ReconnectDelay: cfg.ReconnectDelay(),
	})
	dispatcher.Bind(registry.Deliver)

	var consumer *notify.Consumer
	if cfg.NotifyEnabled() {
		consumer, err = notify.NewConsumer(context.Background(), cfg.AMQPURL, cfg.NotifyExchange, registry)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start notification consumer")
		}
		if err := consumer.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to consume notifications")
		}
		defer consumer.Close()
	} else {
		log.Warn().Msg("AMQP_URL not set, order status pushes disabled")
	}

	cleanupJob := jobs.NewCleanupJob(
		convStore, limiter, registry,
		cfg.ConversationTTL(), config.RateLimitEntryTTL, config.CleanupJobInterval,
	)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	authMiddleware := middleware.NewAuthMiddleware(tenantRepo)
	rateLimitMiddleware := middleware.NewRedisRateLimitMiddleware(redisClient.Client)
	adminMiddleware := middleware.NewAdminMiddleware(cfg.AdminTokenHash)

	tenantHandler := handler.NewTenantHandler(registry)
	statusesHandler := handler.NewStatusesHandler(registry, statusRepo)
	eventsHandler := handler.NewEventsHandler(broker)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1/tenants", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Use(rateLimitMiddleware.Handler)
		r.Mount("/", tenantHandler.Routes())
	})

	r.Route("/v1/events", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Get("/", eventsHandler.ServeHTTP)
	})

	r.Route("/v1/statuses", func(r chi.Router) {
		r.Use(adminMiddleware.Handler)
		r.Get("/", statusesHandler.List)
	})

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		// SSE streams need an unbounded write window.
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Let in-flight per-user processing finish, then drop the queues.
	registry.Shutdown(shutdownCtx)
	processor.Wait()
	dispatcher.Close()

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
