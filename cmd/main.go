package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	// PostgreSQL / Redis
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	// Interne
	"github.com/jupiterclapton/cercle/config"
	"github.com/jupiterclapton/cercle/internal/adapters/primary/ws"
	"github.com/jupiterclapton/cercle/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/cercle/internal/adapters/secondary/eventbus"
	"github.com/jupiterclapton/cercle/internal/adapters/secondary/registry"
	"github.com/jupiterclapton/cercle/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/cercle/internal/adapters/secondary/security"
	"github.com/jupiterclapton/cercle/internal/core/ports"
	"github.com/jupiterclapton/cercle/internal/core/services"
)

func main() {
	// 1. Charger la Config
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Initialiser le Logger (slog JSON pour la prod, Text pour le dev)
	initLogger(cfg)
	slog.Info("🚀 Starting Cercle core", "env", cfg.Env, "port", cfg.HTTPPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialiser le Tracing (OpenTelemetry)
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		slog.Error("Failed to init tracer", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				slog.Error("Error shutting down tracer", "error", err)
			}
		}()
	}

	// 4. Infrastructure : Base de données (Postgres)
	dbConfig, err := pgxpool.ParseConfig(cfg.DBUrl)
	if err != nil {
		slog.Error("Unable to parse DB config", "error", err)
		os.Exit(1)
	}
	dbConfig.ConnConfig.Tracer = otelpgx.NewTracer()

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	// Vérification connectivité immédiate (Fail Fast)
	if err := dbPool.Ping(ctx); err != nil {
		slog.Error("Database ping failed", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Database connected")

	// 5. Infrastructure : Redis (timelines feed)
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisUrl})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("Redis ping failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.Info("✅ Redis connected")

	// 6. Infrastructure : Event Broker (Nats JetStream) — optionnel
	var publisher ports.EventPublisher
	if cfg.NatsUrl != "" {
		broker, err := eventbroker.NewNatsBroker(cfg.NatsUrl)
		if err != nil {
			slog.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		publisher = broker
		slog.Info("✅ NATS JetStream connected")
	} else {
		slog.Warn("NATS disabled (no NATS_URL), integration events will not be published")
	}

	// 7. Infrastructure : Sécurité (vérification des tokens du handshake)
	pubKeyPEM, err := os.ReadFile(cfg.RSAPublicKeyPath)
	if err != nil {
		slog.Error("Failed to read RSA public key", "error", err)
		os.Exit(1)
	}
	verifier, err := security.NewJWTVerifier(pubKeyPEM)
	if err != nil {
		slog.Error("Failed to init JWT verifier", "error", err)
		os.Exit(1)
	}

	// 8. Wiring (Injection de dépendances) — Adapters -> Services.
	// Le registre de connexions est un composant injecté, pas un global.
	connRegistry := registry.NewSharded()
	bus := eventbus.NewRegistryBus(connRegistry)

	userRepo := repository.NewUserRepo(dbPool)
	graphRepo := repository.NewGraphRepo(dbPool)
	postRepo := repository.NewPostRepo(dbPool)
	commentRepo := repository.NewCommentRepo(dbPool)
	notifRepo := repository.NewNotificationRepo(dbPool)
	feedRepo := repository.NewRedisFeedRepo(redisClient)

	notifService := services.NewNotificationService(notifRepo, bus)
	feedService := services.NewFeedService(feedRepo, graphRepo)
	gate := services.NewPermissionGate(userRepo, graphRepo)

	a := &app{
		graph: services.NewGraphService(userRepo, graphRepo, notifService, bus, publisher),
		engagement: services.NewEngagementService(
			userRepo, postRepo, commentRepo, gate, notifService, bus, feedService, publisher,
		),
		notifications: notifService,
		feed:          feedService,
		ws:            ws.NewServer(connRegistry, verifier),
	}

	// 9. Passerelle temps réel
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", a.ws.Handle)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: mux,
	}

	go func() {
		slog.Info("🚀 HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to serve", "error", err)
			os.Exit(1)
		}
	}()

	// 10. Graceful Shutdown (attente des signaux OS)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	sig := <-quit
	slog.Info("⚠️  Signal received, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("⏳ Timeout reached, forcing server stop", "error", err)
	}

	// le registre de connexions est éphémère : rien à drainer, les clients
	// se ré-enregistrent à la reconnexion
	slog.Info("👋 Service stopped")
}

// app regroupe les services câblés du binaire. Seul le temps réel est servi
// ici ; les couches transport amont (gRPC, GraphQL) se branchent sur graph,
// engagement, notifications et feed.
type app struct {
	graph         ports.GraphService
	engagement    ports.EngagementService
	notifications ports.NotificationService
	feed          ports.FeedService
	ws            *ws.Server
}

// --- HELPERS ---

func initLogger(cfg *config.Config) {
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func initTracer(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String("1.0.0"),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}
