package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/geocoder89/marathonreg/internal/form"
	"github.com/geocoder89/marathonreg/internal/http/middlewares"
)

type SetFieldRequest struct {
	Value any `json:"value"`
}

type SessionResponse struct {
	ID string `json:"id"`
	form.Snapshot
}

// SessionsHandler serves the live form: one FormState per session, edited a field at a time.
type SessionsHandler struct {
	store form.Store
	regs  *RegistrationHandler
	log   *slog.Logger
}

func NewSessionsHandler(store form.Store, regs *RegistrationHandler, log *slog.Logger) *SessionsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SessionsHandler{store: store, regs: regs, log: log}
}

func (h *SessionsHandler) state(s form.Session) *form.State {
	return form.Restore(s.Record, h.regs.validator, h.regs.pricer)
}

func respondSession(ctx *gin.Context, status int, id string, st *form.State) {
	ctx.JSON(status, SessionResponse{ID: id, Snapshot: st.Snapshot()})
}

func (h *SessionsHandler) Create(ctx *gin.Context) {
	s := form.NewSession()

	if err := h.store.Create(ctx.Request.Context(), s); err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "session_create_failed", "err", err)
		RespondInternal(ctx, "Could not start registration form")
		return
	}

	ctx.Set(middlewares.CtxSessionID, s.ID)
	h.log.DebugContext(ctx.Request.Context(), "session_created", "session_id", s.ID)

	respondSession(ctx, http.StatusCreated, s.ID, h.state(s))
}

// load resolves :id and writes the error response itself when it fails.
func (h *SessionsHandler) load(ctx *gin.Context) (form.Session, bool) {
	id := ctx.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequest(ctx, "session id must be a valid UUID", nil)
		return form.Session{}, false
	}

	ctx.Set(middlewares.CtxSessionID, id)

	s, err := h.store.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, form.ErrSessionNotFound) {
			RespondNotFound(ctx, "Registration form not found or expired")
			return form.Session{}, false
		}
		h.log.ErrorContext(ctx.Request.Context(), "session_load_failed", "err", err, "session_id", id)
		RespondInternal(ctx, "Could not load registration form")
		return form.Session{}, false
	}

	return s, true
}

func (h *SessionsHandler) Get(ctx *gin.Context) {
	s, ok := h.load(ctx)
	if !ok {
		return
	}

	respondSession(ctx, http.StatusOK, s.ID, h.state(s))
}

func (h *SessionsHandler) SetField(ctx *gin.Context) {
	s, ok := h.load(ctx)
	if !ok {
		return
	}

	var req SetFieldRequest
	if !BindJSON(ctx, &req) {
		return
	}

	field := ctx.Param("field")
	st := h.state(s)

	if err := st.SetField(field, req.Value); err != nil {
		switch {
		case errors.Is(err, form.ErrUnknownField):
			RespondBadRequest(ctx, "Unknown form field", gin.H{"field": field})
		case errors.Is(err, form.ErrInvalidValue):
			RespondBadRequest(ctx, err.Error(), gin.H{"field": field})
		default:
			RespondInternal(ctx, "Could not update registration form")
		}
		return
	}

	s.Record = st.Record()
	if err := h.store.Save(ctx.Request.Context(), s); err != nil {
		if errors.Is(err, form.ErrSessionNotFound) {
			RespondNotFound(ctx, "Registration form not found or expired")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "session_save_failed", "err", err, "session_id", s.ID)
		RespondInternal(ctx, "Could not update registration form")
		return
	}

	h.log.DebugContext(ctx.Request.Context(), "session_field_updated", "session_id", s.ID, "field", field)

	respondSession(ctx, http.StatusOK, s.ID, st)
}

// Submit acknowledges the session's record and discards the session on success.
func (h *SessionsHandler) Submit(ctx *gin.Context) {
	s, ok := h.load(ctx)
	if !ok {
		return
	}

	if !h.regs.submit(ctx, h.state(s)) {
		return
	}

	if err := h.store.Delete(ctx.Request.Context(), s.ID); err != nil && !errors.Is(err, form.ErrSessionNotFound) {
		h.log.WarnContext(ctx.Request.Context(), "session_discard_failed", "err", err, "session_id", s.ID)
	}
}

func (h *SessionsHandler) Delete(ctx *gin.Context) {
	s, ok := h.load(ctx)
	if !ok {
		return
	}

	if err := h.store.Delete(ctx.Request.Context(), s.ID); err != nil && !errors.Is(err, form.ErrSessionNotFound) {
		RespondInternal(ctx, "Could not discard registration form")
		return
	}

	ctx.Status(http.StatusNoContent)
}
