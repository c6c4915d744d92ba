package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/geocoder89/marathonreg/internal/domain/pricing"
	"github.com/geocoder89/marathonreg/internal/domain/registration"
	"github.com/geocoder89/marathonreg/internal/form"
	"github.com/geocoder89/marathonreg/internal/notifications"
	"github.com/geocoder89/marathonreg/internal/observability"
)

type Quoter interface {
	form.Pricer
	Quote(plan registration.Plan, hasCoupon bool, coupon string) pricing.Quote
	Catalog() *pricing.Catalog
}

type QuoteRequest struct {
	Plan      registration.Plan `json:"plan" binding:"max=32"`
	HasCoupon bool              `json:"hasCoupon"`
	Coupon    string            `json:"coupon" binding:"max=64"`
}

type ValidationResponse struct {
	Valid  bool                `json:"valid"`
	Errors registration.Errors `json:"errors"`
}

type RegistrationHandler struct {
	validator form.Validator
	pricer    Quoter
	notifier  notifications.Notifier
	prom      *observability.Prom
	log       *slog.Logger
}

func NewRegistrationHandler(v form.Validator, p Quoter, n notifications.Notifier, prom *observability.Prom, log *slog.Logger) *RegistrationHandler {
	if log == nil {
		log = slog.Default()
	}
	return &RegistrationHandler{validator: v, pricer: p, notifier: n, prom: prom, log: log}
}

func (h *RegistrationHandler) ListPlans(ctx *gin.Context) {
	opts := h.pricer.Catalog().Options()

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items":    opts,
		"count":    len(opts),
		"currency": pricing.Currency,
	})
}

func (h *RegistrationHandler) Validate(ctx *gin.Context) {
	var rec registration.Record
	if !BindJSON(ctx, &rec) {
		return
	}

	_, span := observability.Tracer().Start(ctx.Request.Context(), "registration.validate")
	errs := h.validator.Validate(rec)
	span.SetAttributes(attribute.Int("registration.error_count", len(errs)))
	span.End()

	h.prom.ObserveValidation(observability.ValidationSourceCheck, errs.Fields())

	ctx.JSON(http.StatusOK, ValidationResponse{Valid: errs.Valid(), Errors: errs})
}

func (h *RegistrationHandler) Quote(ctx *gin.Context) {
	var req QuoteRequest
	if !BindJSON(ctx, &req) {
		return
	}

	_, span := observability.Tracer().Start(ctx.Request.Context(), "registration.quote",
		trace.WithAttributes(attribute.String("registration.plan", string(req.Plan))))
	q := h.pricer.Quote(req.Plan, req.HasCoupon, req.Coupon)
	span.End()

	h.prom.ObserveQuote(string(req.Plan), q.DiscountApplied)

	ctx.JSON(http.StatusOK, q)
}

// Submit validates a complete record in one call. Nothing is stored; a valid
// record is acknowledged and the acknowledgment is returned.
func (h *RegistrationHandler) Submit(ctx *gin.Context) {
	var rec registration.Record
	if !BindJSON(ctx, &rec) {
		return
	}

	state := form.Restore(rec, h.validator, h.pricer)
	h.submit(ctx, state)
}

func (h *RegistrationHandler) submit(ctx *gin.Context, state *form.State) bool {
	rctx, span := observability.Tracer().Start(ctx.Request.Context(), "registration.submit")
	defer span.End()

	ack, err := state.Submit()
	if err != nil {
		var errs registration.Errors
		if !errors.As(err, &errs) {
			RespondInternal(ctx, "Could not submit registration")
			return false
		}

		span.SetAttributes(attribute.Bool("registration.accepted", false))
		h.prom.ObserveSubmission(false)
		h.prom.ObserveValidation(observability.ValidationSourceSubmit, errs.Fields())
		h.log.InfoContext(rctx, "registration_rejected", "fields", errs.Fields(), "request_id", requestIDFrom(ctx))

		RespondValidationFailed(ctx, errs)
		return false
	}

	span.SetAttributes(attribute.Bool("registration.accepted", true))
	h.prom.ObserveSubmission(true)
	h.acknowledge(rctx, requestIDFrom(ctx), state.Record(), ack)

	ctx.JSON(http.StatusOK, ack)
	return true
}

func (h *RegistrationHandler) acknowledge(ctx context.Context, requestID string, rec registration.Record, ack form.Acknowledgment) {
	if h.notifier == nil {
		return
	}

	err := h.notifier.SendAcknowledgment(ctx, notifications.AcknowledgmentInput{
		Email:     rec.Email,
		Name:      rec.FirstName + " " + rec.LastName,
		Plan:      string(ack.Plan),
		Total:     ack.Total,
		Message:   ack.Message,
		RequestID: requestID,
	})
	if err != nil {
		// the acknowledgment is already in the response body
		h.log.WarnContext(ctx, "acknowledgment_failed", "err", err)
	}
}
