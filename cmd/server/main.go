package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"donasi-be/internal/config"
	"donasi-be/internal/db"
	"donasi-be/internal/events"
	"donasi-be/internal/idempotency"
	"donasi-be/internal/logger"
	"donasi-be/internal/metrics"
	"donasi-be/internal/middleware"
	"donasi-be/internal/payment"
	"donasi-be/internal/payment/checkout"
	"donasi-be/internal/payment/webhook"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = serve
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("Server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	srv, cleanup, err := newServer(cfg, database)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.L().Info("Payment service running", zap.String("port", cfg.AppPort))
	return startServerFunc(ctx, ":"+cfg.AppPort, srv)
}

// serve blocks until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type handlers struct {
	checkout *checkout.Handler
	webhook  *webhook.Handler
	metrics  http.Handler
}

// newServer builds every dependency from cfg. The returned func closes the
// broker and cache connections.
func newServer(cfg *config.Config, database *sql.DB) (http.Handler, func(), error) {
	env, err := cfg.PaymentEnvironment()
	if err != nil {
		return nil, nil, err
	}

	opts := []payment.Option{payment.WithRedirectURL(cfg.PaymentRedirectURL)}
	if cfg.SnowflakeNode != 0 {
		node, err := snowflake.NewNode(cfg.SnowflakeNode)
		if err != nil {
			return nil, nil, fmt.Errorf("SNOWFLAKE_NODE: %w", err)
		}
		opts = append(opts, payment.WithIDNode(node))
	}

	registry, err := payment.NewRegistry(cfg.Gateways(), cfg.GatewayCredentials(), env, opts...)
	if err != nil {
		return nil, nil, err
	}
	logger.L().Info("Payment gateways enabled",
		zap.Strings("gateways", registry.Codes()),
		zap.String("env", env.String()),
	)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var store checkout.IdempotencyStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		closers = append(closers, func() { _ = client.Close() })
		store = idempotency.NewStore(client)
	} else {
		logger.L().Warn("REDIS_ADDR not set, Idempotency-Key headers are ignored")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NatsURL != "" {
		nc, err := events.Connect(cfg.NatsURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = nc.Drain() })
		publisher = events.NewNatsPublisher(nc)
	} else {
		logger.L().Warn("NATS_URL not set, payment events are dropped")
	}

	m := metrics.NewWithRuntime()
	h := handlers{
		checkout: checkout.NewCheckoutHandler(registry, store, m),
		webhook:  webhook.NewWebhookHandler(registry, webhook.NewRepository(database), publisher, m),
		metrics:  m.Handler(),
	}

	router := setupRouter(h, []byte(cfg.JWTSecret), []byte(cfg.ServiceKeyHash))
	return logger.RequestIDMiddleware(logger.LoggingMiddleware(router)), cleanup, nil
}

func setupRouter(h handlers, jwtSecret, serviceKeyHash []byte) *http.ServeMux {
	mux := http.NewServeMux()

	service := middleware.ServiceAuth(serviceKeyHash)
	admin := middleware.AdminAuth(jwtSecret)
	limit := middleware.RateLimitMiddleware

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.Handle("POST /payments", service(limit(http.HandlerFunc(h.checkout.CreatePaymentHandler))))
	mux.Handle("GET /payments/instructions", limit(http.HandlerFunc(h.checkout.InstructionsHandler)))

	mux.Handle("POST /webhook/{gateway}", limit(http.HandlerFunc(h.webhook.PaymentWebhookHandler)))
	mux.Handle("GET /metrics", service(h.metrics))

	mux.Handle("POST /admin/payments/manual", admin(limit(http.HandlerFunc(h.checkout.ManualPaymentHandler))))
	mux.Handle("POST /admin/payments/manual/confirm", admin(limit(http.HandlerFunc(h.webhook.ManualConfirmHandler))))

	return mux
}
