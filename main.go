package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"time"

	"amicale-backend/internal/audit"
	"amicale-backend/internal/auth"
	duesapp "amicale-backend/internal/dues/application"
	duesrepo "amicale-backend/internal/dues/infrastructure/postgres"
	duesinterfaces "amicale-backend/internal/dues/interfaces"
	duesnotify "amicale-backend/internal/dues/notify"
	membersapp "amicale-backend/internal/members/application"
	membersrepo "amicale-backend/internal/members/infrastructure/postgres"
	membersinterfaces "amicale-backend/internal/members/interfaces"
	"amicale-backend/internal/observability/logging"
	"amicale-backend/internal/observability/metrics"
	paymentsapp "amicale-backend/internal/payments/application"
	paymentsrepo "amicale-backend/internal/payments/infrastructure/postgres"
	paymentsinterfaces "amicale-backend/internal/payments/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	logger := logging.New()
	cfg := loadConfig(logger)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("db open error", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("db ping error", "error", err)
		os.Exit(1)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	duesCfg, err := duesapp.LoadConfig()
	if err != nil {
		logger.Error("dues config error", "error", err)
		os.Exit(1)
	}

	memberRepo := membersrepo.NewMemberRepository(db)
	lineItemRepo := duesrepo.NewLineItemRepository(db)
	dueRepo := duesrepo.NewDueRepository(db)
	paymentRepo := paymentsrepo.NewPaymentRepository(db)

	memberService, err := membersapp.NewService(memberRepo, logger)
	if err != nil {
		logger.Error("member service error", "error", err)
		os.Exit(1)
	}
	directory := membersapp.NewDirectory(memberRepo)

	var notifier duesnotify.Notifier
	if duesCfg.WebhookURL != "" {
		notifier = duesnotify.NewWebhookNotifier(duesCfg.WebhookURL)
	}
	reconcileService, err := duesapp.NewReconcileService(lineItemRepo, dueRepo, directory, notifier, logger)
	if err != nil {
		logger.Error("reconcile service error", "error", err)
		os.Exit(1)
	}
	billingService, err := duesapp.NewBillingService(lineItemRepo, dueRepo, directory, logger)
	if err != nil {
		logger.Error("billing service error", "error", err)
		os.Exit(1)
	}
	paymentService, err := paymentsapp.NewService(paymentRepo, dueRepo, logger)
	if err != nil {
		logger.Error("payment service error", "error", err)
		os.Exit(1)
	}

	memberHandler, err := membersinterfaces.NewMemberHandler(memberService, []byte(cfg.JWTSecret), cfg.TokenTTL, auditRepo)
	if err != nil {
		logger.Error("member handler error", "error", err)
		os.Exit(1)
	}
	duesHandler, err := duesinterfaces.NewDuesHandler(billingService, reconcileService, auditRepo)
	if err != nil {
		logger.Error("dues handler error", "error", err)
		os.Exit(1)
	}
	exportHandler, err := duesinterfaces.NewExportHandler(billingService, directory, memberService, paymentService, duesCfg.Currency, auditRepo)
	if err != nil {
		logger.Error("export handler error", "error", err)
		os.Exit(1)
	}
	paymentHandler, err := paymentsinterfaces.NewPaymentHandler(paymentService, auditRepo)
	if err != nil {
		logger.Error("payment handler error", "error", err)
		os.Exit(1)
	}

	scheduler := duesapp.NewScheduler(reconcileService, duesCfg.Schedule.DailyAt, duesCfg.GraceMonths, logger)
	go scheduler.Start(context.Background())

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics", "/api/v1/auth/login"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/auth/login", memberHandler)
	mux.Handle("/api/v1/members", memberHandler)
	mux.Handle("/api/v1/members/", memberHandler)
	mux.Handle("/api/v1/line-items", duesHandler)
	mux.Handle("/api/v1/line-items/", duesHandler)
	mux.Handle("/api/v1/dues", duesHandler)
	mux.Handle("/api/v1/periods/bill", duesHandler)
	mux.Handle("/api/v1/reconcile", duesHandler)
	mux.Handle("/api/v1/payments", paymentHandler)
	mux.Handle("/api/v1/exports/", exportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Info("http listening", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
	TokenTTL    time.Duration
}

func loadConfig(logger *slog.Logger) config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		TokenTTL:    getenvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
	}
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL or PG_DSN is required")
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		logger.Error("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		duration := time.Since(start)
		metrics.ObserveHTTP(r.Method, resp.status, duration)
		logger.Info("http request", "method", r.Method, "path", r.URL.Path, "status", resp.status, "duration", duration)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
