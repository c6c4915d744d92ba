package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/geocoder89/marathonreg/internal/domain/registration"
)

const namespace = "marathon"

// Prom groups the service metrics. A nil *Prom is valid and records nothing.
type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	ValidationFailures *prometheus.CounterVec
	QuotesTotal        *prometheus.CounterVec
	SubmissionsTotal   *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Field validation failures by source and field.",
			},
			[]string{"source", "field"}, // source: check|submit
		),
		QuotesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quotes_total",
				Help:      "Prices computed by plan and whether the coupon applied.",
			},
			[]string{"plan", "discounted"},
		),
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Registration submissions by result.",
			},
			[]string{"result"}, // accepted|rejected
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.ValidationFailures, p.QuotesTotal, p.SubmissionsTotal)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if p == nil {
			ctx.Next()
			return
		}

		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

const (
	ValidationSourceCheck  = "check"
	ValidationSourceSubmit = "submit"
)

// ObserveValidation counts one failure per failing field. source tells live
// checks apart from rejected submissions.
func (p *Prom) ObserveValidation(source string, fields []string) {
	if p == nil {
		return
	}
	if source != ValidationSourceSubmit {
		source = ValidationSourceCheck
	}
	for _, f := range fields {
		p.ValidationFailures.WithLabelValues(source, f).Inc()
	}
}

func (p *Prom) ObserveQuote(plan string, discounted bool) {
	if p == nil {
		return
	}
	p.QuotesTotal.WithLabelValues(planLabel(plan), strconv.FormatBool(discounted)).Inc()
}

// planLabel keeps client input out of label values.
func planLabel(plan string) string {
	switch {
	case plan == "":
		return "unset"
	case !registration.Plan(plan).IsValid():
		return "unknown"
	}
	return plan
}

func (p *Prom) ObserveSubmission(accepted bool) {
	if p == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	p.SubmissionsTotal.WithLabelValues(result).Inc()
}
