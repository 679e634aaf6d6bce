package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	jwttoken "passgate/internal/jwt_token"
	platformconfig "passgate/internal/platform/config"
	"passgate/internal/platform/httpserver"
	"passgate/internal/platform/logger"
	platformmetrics "passgate/internal/platform/metrics"
	"passgate/internal/platform/middleware"
	platformredis "passgate/internal/platform/redis"
	policyconfig "passgate/internal/policy/config"
	"passgate/internal/policy/handler"
	policymetrics "passgate/internal/policy/metrics"
	"passgate/internal/policy/service"
	"passgate/internal/policy/store"
	"passgate/pkg/platform/audit"
	auditkafka "passgate/pkg/platform/audit/kafka"
	"passgate/pkg/platform/audit/publisher"
	auditmemory "passgate/pkg/platform/audit/store/memory"
	auditpostgres "passgate/pkg/platform/audit/store/postgres"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := platformconfig.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defaultPolicy, err := policyconfig.FromEnv()
	if err != nil {
		log.Error("invalid policy environment", "error", err)
		os.Exit(1)
	}

	// Storage: postgres when configured, in-process otherwise. The audit
	// trail shares the same database.
	var (
		policyStore store.Store = store.NewInMemory()
		auditStore  audit.Store = auditmemory.NewInMemoryStore()
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping postgres", "error", err)
			os.Exit(1)
		}
		for _, schema := range []string{store.Schema(), auditpostgres.Schema()} {
			if _, err := db.ExecContext(ctx, schema); err != nil {
				log.Error("failed to apply schema", "error", err)
				os.Exit(1)
			}
		}
		policyStore = store.NewPostgres(db)
		auditStore = auditpostgres.New(db)
	}

	// Redis cache in front of the store, plus cross-instance
	// invalidation when another instance updates the policy.
	var policyCache *store.Cache
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		policyCache = store.NewCache(policyStore, redisClient.Client, cfg.PolicyCacheTTL)
		policyStore = policyCache
	}

	// Audit pipeline: async buffered publisher, kafka sink when brokers
	// are configured.
	auditOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(1024),
	}
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := auditkafka.NewSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("failed to connect audit kafka sink", "error", err)
			os.Exit(1)
		}
		auditOpts = append(auditOpts, publisher.WithSink(sink))
	}
	auditPublisher := publisher.NewPublisher(auditStore, auditOpts...)
	defer auditPublisher.Close()

	svc, err := service.New(policyStore,
		service.WithLogger(log),
		service.WithMetrics(policymetrics.New()),
		service.WithAuditPublisher(auditPublisher),
		service.WithDefaultConfig(defaultPolicy),
	)
	if err != nil {
		log.Error("failed to build policy service", "error", err)
		os.Exit(1)
	}
	if err := svc.Load(ctx); err != nil {
		log.Error("failed to load persisted policy", "error", err)
		os.Exit(1)
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "passgate", "passgate-clients")
	httpMetrics := platformmetrics.New()

	router := chi.NewRouter()
	router.Use(middleware.LatencyMiddleware(httpMetrics))
	handler.New(svc, log, jwttoken.NewJWTServiceAdapter(jwtService), cfg.AdminToken).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting passgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// React to policy invalidations published by other instances.
	if policyCache != nil {
		group.Go(func() error {
			sub := policyCache.Subscribe(groupCtx)
			defer sub.Close()
			for {
				select {
				case <-groupCtx.Done():
					return nil
				case msg, ok := <-sub.Channel():
					if !ok {
						return nil
					}
					log.Info("policy invalidation received", "policy_id", msg.Payload)
					if err := svc.Load(groupCtx); err != nil {
						log.Warn("policy reload failed", "error", err)
					}
				}
			}
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
