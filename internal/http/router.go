package http

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/marathonreg/internal/config"
	"github.com/geocoder89/marathonreg/internal/form"
	"github.com/geocoder89/marathonreg/internal/http/handlers"
	"github.com/geocoder89/marathonreg/internal/http/middlewares"
	"github.com/geocoder89/marathonreg/internal/notifications"
	"github.com/geocoder89/marathonreg/internal/observability"
)

type SessionStore interface {
	form.Store
	Ping(ctx context.Context) error
}

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Validator form.Validator
	Pricer    handlers.Quoter
	Sessions  SessionStore
	Notifier  notifications.Notifier
	Prom      *observability.Prom
	Gatherer  prometheus.Gatherer // nil hides /metrics
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.UseJSONFieldNames()

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if cfg.OTelEnabled {
		r.Use(otelgin.Middleware(observability.ServiceName))
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(deps.Prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	health := handlers.NewHealthHandler(deps.Sessions)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	regs := handlers.NewRegistrationHandler(deps.Validator, deps.Pricer, deps.Notifier, deps.Prom, log)
	sessions := handlers.NewSessionsHandler(deps.Sessions, regs, log)

	submitLimit := middlewares.NewRateLimiter(cfg.RateLimitSubmit, cfg.RateLimitWindow).Middleware(middlewares.KeyByIP)

	r.GET("/plans", regs.ListPlans)

	r.POST("/registrations/validate", regs.Validate)
	r.POST("/registrations/quote", regs.Quote)
	r.POST("/registrations", submitLimit, regs.Submit)

	r.POST("/sessions", sessions.Create)
	r.GET("/sessions/:id", sessions.Get)
	r.PATCH("/sessions/:id/fields/:field", sessions.SetField)
	r.POST("/sessions/:id/submit", submitLimit, sessions.Submit)
	r.DELETE("/sessions/:id", sessions.Delete)

	return r
}
