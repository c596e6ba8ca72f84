package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fixline/fixline-api/internal/config"
	"github.com/fixline/fixline-api/internal/domain/booking"
	"github.com/fixline/fixline-api/internal/domain/chat"
	"github.com/fixline/fixline-api/internal/domain/contact"
	"github.com/fixline/fixline-api/internal/domain/emergency"
	"github.com/fixline/fixline-api/internal/domain/job"
	"github.com/fixline/fixline-api/internal/domain/ledger"
	"github.com/fixline/fixline-api/internal/domain/provider"
	"github.com/fixline/fixline-api/internal/domain/tariff"
	"github.com/fixline/fixline-api/internal/middleware"
	"github.com/fixline/fixline-api/internal/pkg/database"
	"github.com/fixline/fixline-api/internal/pkg/events"
	"github.com/fixline/fixline-api/internal/pkg/jwt"
	pkgresponse "github.com/fixline/fixline-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Fixline API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	tariffCalc := tariff.NewCalculator(cfg.Tariff)

	// ---------- WebSocket hub ----------
	chatHub := chat.NewHub(redis)
	go chatHub.Run()
	defer chatHub.Shutdown()

	publisher := events.NewPublisher(chatHub)

	// ---------- Repositories ----------
	ledgerRepo := ledger.NewRepository(db)
	jobRepo := job.NewRepository(db)
	providerRepo := provider.NewRepository(db)
	contactRepo := contact.NewRepository(db, ledgerRepo)
	chatRepo := chat.NewRepository(db, ledgerRepo)

	// ---------- Services ----------
	ledgerService := ledger.NewServiceWithRepository(ledgerRepo)
	jobService := job.NewServiceWithRepository(jobRepo)
	providerService := provider.NewServiceWithRepository(providerRepo)
	bookingService := booking.NewService(jobRepo, providerRepo, ledgerService, tariffCalc, publisher, log.Logger)
	emergencyService := emergency.NewService(jobRepo, providerRepo, ledgerService, tariffCalc, publisher, log.Logger)
	contactService := contact.NewService(contactRepo, providerRepo, tariffCalc)
	chatService := chat.NewService(chatRepo, providerRepo, tariffCalc, chatHub, publisher, log.Logger)

	// ---------- Handlers ----------
	ledgerHandler := ledger.NewHandler(ledgerService)
	jobHandler := job.NewHandler(jobService)
	providerHandler := provider.NewHandler(providerService)
	bookingHandler := booking.NewHandler(bookingService)
	emergencyHandler := emergency.NewHandler(emergencyService)
	contactHandler := contact.NewHandler(contactService)
	chatHandler := chat.NewHandler(chatService, chatHub, redis, cfg.AllowedOrigins)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint (browser clients pass the token as a query param)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(chatHandler.WebSocket)).ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/credits", ledgerHandler.Routes(authMiddleware))
		r.Mount("/jobs", jobHandler.Routes(authMiddleware,
			bookingHandler.Register,
			emergencyHandler.Register,
		))
		r.Mount("/providers", providerHandler.Routes(authMiddleware,
			contactHandler.Register,
		))
		r.Mount("/chat", chatHandler.Routes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}
}
