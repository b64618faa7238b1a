package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solidum/internal/admin"
	adminhandler "solidum/internal/admin/handler"
	adminstore "solidum/internal/admin/store"
	"solidum/internal/audit"
	"solidum/internal/dedupe"
	"solidum/internal/mailer"
	"solidum/internal/platform/config"
	"solidum/internal/platform/database"
	"solidum/internal/platform/httpserver"
	"solidum/internal/platform/logger"
	"solidum/internal/platform/metrics"
	platformmw "solidum/internal/platform/middleware"
	platformredis "solidum/internal/platform/redis"
	"solidum/internal/ratelimit"
	reghandler "solidum/internal/registration/handler"
	regservice "solidum/internal/registration/service"
	regstore "solidum/internal/registration/store"
	"solidum/internal/storage"
	"solidum/internal/tinify"
	"solidum/internal/token"
	"solidum/internal/twostep"
	twostephandler "solidum/internal/twostep/handler"
	"solidum/pkg/platform/httputil"
	"solidum/pkg/platform/middleware/metadata"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)

	ctx := context.Background()

	var (
		registrations regstore.Store
		admins        adminstore.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("opening database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			log.Error("running migrations", "error", err)
			os.Exit(1)
		}
		registrations = regstore.NewPostgres(db)
		admins = adminstore.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, registrations are kept in memory")
		registrations = regstore.NewInMemoryStore()
		admins = adminstore.NewInMemoryStore()
	}

	var (
		submissions dedupe.Store
		tokens      token.Store
		limits      ratelimit.Store
	)
	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		submissions = dedupe.NewRedisStore(rdb.Client)
		tokens = token.NewRedisStore(rdb.Client)
		limits = ratelimit.NewRedisStore(rdb.Client)
	} else {
		log.Warn("REDIS_URL not set, dedupe, tokens and rate limits are kept in memory")
		submissions = dedupe.NewInMemoryStore()
		tokens = token.NewInMemoryStore()
		limits = ratelimit.NewInMemoryStore()
	}

	var objects storage.ObjectStore
	if cfg.S3.Bucket != "" {
		s3, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			log.Error("configuring object storage", "error", err)
			os.Exit(1)
		}
		objects = s3
	} else {
		log.Warn("S3_BUCKET not set, uploaded files are kept in memory")
		objects = storage.NewMemoryStore()
	}

	var mail mailer.Mailer
	if smtp, err := mailer.NewSMTP(cfg.SMTP); err != nil {
		log.Warn("email disabled", "reason", err)
	} else {
		mail = smtp
	}

	sinks := []audit.Sink{}
	fileSink, err := audit.NewFileSink(cfg.AuditLogPath)
	if err != nil {
		log.Error("opening audit log", "path", cfg.AuditLogPath, "error", err)
		os.Exit(1)
	}
	sinks = append(sinks, fileSink)
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connecting to kafka", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, kafkaSink)
	}
	auditor := audit.NewRecorder(log, sinks...)
	defer auditor.Close()

	m := metrics.New()
	limiter := ratelimit.NewLimiter(limits, ratelimit.DefaultLimit, ratelimit.DefaultWindow, log)

	intake, err := regservice.New(registrations, objects, submissions, mail, auditor, m, log, cfg.CompanyEmail)
	if err != nil {
		log.Error("wiring intake service", "error", err)
		os.Exit(1)
	}
	split, err := twostep.New(tokens, mail, m, log, cfg.CompanyEmail, cfg.FrontendURL)
	if err != nil {
		log.Error("wiring split flow service", "error", err)
		os.Exit(1)
	}
	backoffice, err := admin.New(registrations, admins, objects, m, log)
	if err != nil {
		log.Error("wiring back-office service", "error", err)
		os.Exit(1)
	}

	var compressor tinify.Compressor
	if cfg.TinifyAPIKey != "" {
		compressor = tinify.NewClient(cfg.TinifyAPIKey)
	} else {
		log.Warn("TINIFY_API_KEY not set, image compression proxy disabled")
	}

	router := chi.NewRouter()
	router.Use(platformmw.RequestID)
	router.Use(metadata.ClientMetadata)
	router.Use(platformmw.Recovery(log))
	router.Use(platformmw.Logger(log))
	router.Use(platformmw.CORS(cfg.AllowedOrigins))
	router.Use(platformmw.SecurityHeaders(cfg.Production()))

	router.Get("/", handleRoot)
	router.Get("/health", handleHealth)
	router.Handle("/metrics", promhttp.Handler())

	reghandler.New(intake, log, limiter.Middleware).Register(router)
	twostephandler.New(split, log, limiter.Middleware).Register(router)
	tinify.New(compressor, log).Register(router)

	if cfg.AdminJWTSecret != "" {
		adminTokens := admin.NewTokenService(cfg.AdminJWTSecret, "solidum")
		adminhandler.New(backoffice, adminTokens, log).Register(router)
	} else {
		log.Warn("ADMIN_JWT_SECRET not set, back-office routes disabled")
	}

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "Tinify Proxy",
	})
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "Tinify Proxy Backend",
		"message": "Servidor está rodando!",
		"endpoints": map[string]any{
			"health":   "/health",
			"compress": "POST /api/tinify/compress",
		},
	})
}
