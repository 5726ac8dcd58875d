package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	catalogapp "github.com/sweetbyte/sweetshop/internal/catalog/application"
	cataloghttp "github.com/sweetbyte/sweetshop/internal/catalog/infrastructure/http"
	catalogpg "github.com/sweetbyte/sweetshop/internal/catalog/infrastructure/postgres"
	"github.com/sweetbyte/sweetshop/internal/config"
	identityapp "github.com/sweetbyte/sweetshop/internal/identity/application"
	identityhttp "github.com/sweetbyte/sweetshop/internal/identity/infrastructure/http"
	identitypg "github.com/sweetbyte/sweetshop/internal/identity/infrastructure/postgres"
	identityredis "github.com/sweetbyte/sweetshop/internal/identity/infrastructure/redis"
	orderapp "github.com/sweetbyte/sweetshop/internal/order/application"
	orderhttp "github.com/sweetbyte/sweetshop/internal/order/infrastructure/http"
	orderkafka "github.com/sweetbyte/sweetshop/internal/order/infrastructure/kafka"
	orderpg "github.com/sweetbyte/sweetshop/internal/order/infrastructure/postgres"
	"github.com/sweetbyte/sweetshop/pkg/idempotency"
	"github.com/sweetbyte/sweetshop/pkg/logging"
	"github.com/sweetbyte/sweetshop/pkg/outbox"
	"github.com/sweetbyte/sweetshop/pkg/shutdown"
	"github.com/sweetbyte/sweetshop/pkg/tracing"
)

func main() {
	log := logging.New()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	tp, err := tracing.Init(ctx, "sweetshop", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	// Repositories
	catalogRepo := catalogpg.NewRepository(log, pool)
	orderRepo := orderpg.NewRepository(log, pool)
	buyerRepo := identitypg.NewRepository(log, pool)
	for _, ensure := range []func(context.Context) error{
		catalogRepo.EnsureSchema, orderRepo.EnsureSchema, buyerRepo.EnsureSchema,
	} {
		if err := ensure(ctx); err != nil {
			log.Error("schema setup failed", "err", err)
			os.Exit(1)
		}
	}

	// Outbox relay
	writer := orderkafka.NewWriter([]string{cfg.KafkaAddr})
	defer writer.Close()
	outboxStore := orderpg.NewOutboxStore(log, pool)
	dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
	relay := outbox.NewRelay(log, outboxStore, dispatch, "sweetshop-relay")

	// Services
	sessions := identityredis.NewSessionStore(rdb)
	identitySvc := identityapp.NewService(log, buyerRepo, sessions, cfg.SessionTTL)
	catalogSvc := catalogapp.NewService(log, catalogRepo)
	orderSvc := orderapp.NewService(log, catalogRepo, orderRepo)
	dedup := idempotency.NewStore(rdb, cfg.IdempotencyTTL)

	// Handlers
	identityHandler := identityhttp.NewHandler(log, identitySvc)
	catalogHandler := cataloghttp.NewHandler(log, catalogSvc)
	orderHandler := orderhttp.NewHandler(log, orderSvc, dedup)

	r := chi.NewRouter()
	r.Mount("/auth", identityHandler.Routes())
	r.Mount("/sweets", catalogHandler.Routes(identityHandler.RequireAdmin))
	r.Mount("/orders", orderHandler.Routes(identityHandler.RequireAuth))

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("sweetshop shutdown complete")
}
