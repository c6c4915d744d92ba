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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/geocoder89/marathonreg/internal/config"
	"github.com/geocoder89/marathonreg/internal/domain/pricing"
	"github.com/geocoder89/marathonreg/internal/domain/registration"
	httpx "github.com/geocoder89/marathonreg/internal/http"
	"github.com/geocoder89/marathonreg/internal/notifications"
	"github.com/geocoder89/marathonreg/internal/observability"
	"github.com/geocoder89/marathonreg/internal/repo/memory"
	"github.com/geocoder89/marathonreg/internal/repo/redisstore"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, observability.ServiceName, cfg.OTelEndpoint)
		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			if err := shutdownTracer(sctx); err != nil {
				log.Error("tracer shutdown failed", "err", err)
			}
		}()
	}

	catalog := pricing.DefaultCatalog()
	if cfg.PlanPrices != "" {
		prices, err := pricing.ParsePrices(cfg.PlanPrices)
		if err == nil {
			catalog, err = catalog.WithPrices(prices)
		}
		if err != nil {
			log.Error("invalid PLAN_PRICES", "err", err)
			os.Exit(1)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	var sessions httpx.SessionStore
	switch cfg.SessionStore {
	case "redis":
		rdb := redisstore.NewClient(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pctx, cancel := config.WithTimeout(2 * time.Second)
		err := redisstore.Ping(pctx, rdb)
		cancel()
		if err != nil {
			log.Error("redis unreachable", "addr", cfg.RedisAddr, "err", err)
			os.Exit(1)
		}
		sessions = redisstore.NewSessionsRepo(rdb, cfg.SessionTTL)
	case "memory":
		mem := memory.NewSessionsRepo(cfg.SessionTTL)
		go mem.Janitor(ctx, time.Minute)
		sessions = mem
	default:
		log.Error("unknown SESSION_STORE", "value", cfg.SessionStore)
		os.Exit(1)
	}

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{Timeout: 2 * time.Second},
	)

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Validator: registration.NewEngine(cfg.CouponCode),
		Pricer:    pricing.NewEngine(catalog, cfg.CouponCode, cfg.CouponDiscountPercent),
		Sessions:  sessions,
		Notifier:  notifier,
		Prom:      prom,
		Gatherer:  reg,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "session_store", cfg.SessionStore)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}

	log.Info("shutdown complete")
}
