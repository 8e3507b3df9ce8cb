package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/relateos/internal/auth"
	"github.com/mmynk/relateos/internal/config"
	"github.com/mmynk/relateos/internal/handler"
	"github.com/mmynk/relateos/internal/middleware"
	"github.com/mmynk/relateos/internal/relay"
	"github.com/mmynk/relateos/internal/service"
	"github.com/mmynk/relateos/internal/storage/sqlite"
	"github.com/mmynk/relateos/pkg/logging"
)

func main() {
	logging.Setup()

	if err := run(config.Load()); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	// Identity
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	// Relay hub, optionally fanned out across instances through Redis
	hubOpts := []relay.HubOption{
		relay.WithInstanceID(cfg.InstanceID),
		relay.WithMetrics(relay.NewMetrics(prometheus.DefaultRegisterer)),
		relay.WithLogger(slog.Default()),
	}
	if cfg.RedisURL != "" {
		broker, err := relay.NewRedisBroker(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("initialize relay broker: %w", err)
		}
		defer broker.Close()
		hubOpts = append(hubOpts, relay.WithBroker(broker))
		slog.Info("Relay broker connected", "redis_url", redactURL(cfg.RedisURL))
	}
	hub := relay.NewHub(hubOpts...)

	hubErr := make(chan error, 1)
	go func() { hubErr <- hub.Run(ctx) }()

	wsServer := relay.NewServer(
		relay.NewRelay(hub, store, slog.Default()),
		hub,
		middleware.IdentityFromRequest(jwtManager),
		relay.ServerOptions{
			OriginPatterns:  cfg.OriginPatterns(),
			MaxMessageBytes: cfg.RelayMaxMessageBytes,
			SendBuffer:      cfg.RelaySendBuffer,
			WriteTimeout:    cfg.RelayWriteTimeout,
			JoinTimeout:     cfg.RelayJoinTimeout,
		},
		slog.Default(),
	)

	staticDir, err := filepath.Abs(cfg.StaticPath)
	if err != nil {
		return fmt.Errorf("resolve static path: %w", err)
	}
	slog.Info("Serving static files", "path", staticDir)

	api := handler.NewHandler(
		service.NewAuthService(authenticator, jwtManager, store, slog.Default()),
		service.NewGroupService(store, slog.Default()),
		store,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.CORS(cfg.CORSOrigin), middleware.RequestLogger())
	api.RegisterRoutes(router, jwtManager)
	router.GET("/ws", gin.WrapH(wsServer))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.NoRoute(handler.Fallback(staticDir))

	// h2c serves HTTP/2 without TLS; WebSocket upgrades stay on HTTP/1.1.
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cfg.Addr, "instance_id", hub.ID())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case err := <-hubErr:
		if err != nil {
			return fmt.Errorf("relay hub: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Shutdown error", "error", err)
	}
	return nil
}

// redactURL hides the password in a connection URL before logging it.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}
