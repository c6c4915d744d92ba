package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/marathonreg/internal/http/handlers"
	"github.com/geocoder89/marathonreg/internal/repo/memory"
)

func sessionsRouter(n *fakeNotifier) (*gin.Engine, *memory.SessionsRepo) {
	handlers.UseJSONFieldNames()

	store := memory.NewSessionsRepo(time.Minute)
	h := handlers.NewSessionsHandler(store, newRegistrationHandler(n), nil)

	r := gin.New()
	r.POST("/sessions", h.Create)
	r.GET("/sessions/:id", h.Get)
	r.PATCH("/sessions/:id/fields/:field", h.SetField)
	r.POST("/sessions/:id/submit", h.Submit)
	r.DELETE("/sessions/:id", h.Delete)

	return r, store
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body == "" {
		buf = &bytes.Buffer{}
	} else {
		buf = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeSession(t *testing.T, w *httptest.ResponseRecorder) handlers.SessionResponse {
	t.Helper()

	var resp handlers.SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session: %v body=%s", err, w.Body.String())
	}
	return resp
}

func createSession(t *testing.T, r http.Handler) handlers.SessionResponse {
	t.Helper()

	w := doJSON(r, http.MethodPost, "/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create got %d body=%s", w.Code, w.Body.String())
	}
	return decodeSession(t, w)
}

func setField(t *testing.T, r http.Handler, id, field, value string) handlers.SessionResponse {
	t.Helper()

	w := doJSON(r, http.MethodPatch, "/sessions/"+id+"/fields/"+field, `{"value":`+value+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set %s got %d body=%s", field, w.Code, w.Body.String())
	}
	return decodeSession(t, w)
}

func TestSessions_CreateStartsEmpty(t *testing.T) {
	r, store := sessionsRouter(nil)

	s := createSession(t, r)
	if s.ID == "" {
		t.Fatalf("expected a session id")
	}
	if s.Valid || s.Price != 0 {
		t.Fatalf("fresh form should be invalid with price 0, got %+v", s.Snapshot)
	}
	if s.Errors["plan"] != "Please select a plan" {
		t.Fatalf("unexpected errors %v", s.Errors)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one stored session, got %d", store.Len())
	}
}

func TestSessions_FieldEditsRecomputePrice(t *testing.T) {
	r, _ := sessionsRouter(nil)
	id := createSession(t, r).ID

	if got := setField(t, r, id, "plan", `"half"`).Price; got != 1000 {
		t.Fatalf("price after plan = %v, want 1000", got)
	}
	if got := setField(t, r, id, "hasCoupon", `true`).Price; got != 1000 {
		t.Fatalf("price with empty coupon = %v, want 1000", got)
	}

	s := setField(t, r, id, "coupon", `"CMU2023"`)
	if s.Price != 700 {
		t.Fatalf("price with coupon = %v, want 700", s.Price)
	}
	if _, ok := s.Errors["coupon"]; ok {
		t.Fatalf("coupon should be accepted, errors %v", s.Errors)
	}

	if got := setField(t, r, id, "plan", `null`).Price; got != 0 {
		t.Fatalf("price after clearing plan = %v, want 0", got)
	}

	// edits persist between requests
	w := doJSON(r, http.MethodGet, "/sessions/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get got %d", w.Code)
	}
	if got := decodeSession(t, w); got.Record.Coupon != "CMU2023" || got.Record.Plan != "" {
		t.Fatalf("unexpected stored record %+v", got.Record)
	}
}

func TestSessions_PasswordsAreMasked(t *testing.T) {
	r, _ := sessionsRouter(nil)
	id := createSession(t, r).ID

	s := setField(t, r, id, "password", `"secret"`)
	if s.Record.Password != "******" {
		t.Fatalf("password not masked: %q", s.Record.Password)
	}
	if s.Errors["confirmPassword"] != "Password does not match" {
		t.Fatalf("expected mismatch error, got %v", s.Errors)
	}
}

func TestSessions_Errors(t *testing.T) {
	r, _ := sessionsRouter(nil)
	id := createSession(t, r).ID
	missing := "6f1c2f54-8f5e-4c7f-9d55-0d2d1d0f0a11"

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{name: "bad id", method: http.MethodGet, path: "/sessions/nope", wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "missing session", method: http.MethodGet, path: "/sessions/" + missing, wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "unknown field", method: http.MethodPatch, path: "/sessions/" + id + "/fields/nickname", body: `{"value":"x"}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "wrong value type", method: http.MethodPatch, path: "/sessions/" + id + "/fields/acceptTermsAndConds", body: `{"value":"yes"}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "delete missing", method: http.MethodDelete, path: "/sessions/" + missing, wantStatus: http.StatusNotFound, wantCode: "not_found"},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			var resp apiErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", resp.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestSessions_SubmitInvalidKeepsSession(t *testing.T) {
	r, store := sessionsRouter(nil)
	id := createSession(t, r).ID

	w := doJSON(r, http.MethodPost, "/sessions/"+id+"/submit", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
	if store.Len() != 1 {
		t.Fatalf("rejected submission must keep the session")
	}
}

func TestSessions_SubmitValidDiscardsSession(t *testing.T) {
	n := &fakeNotifier{}
	r, store := sessionsRouter(n)
	id := createSession(t, r).ID

	fields := []struct{ name, value string }{
		{"firstName", `"Alice"`},
		{"lastName", `"Smith"`},
		{"email", `"alice@example.com"`},
		{"password", `"secret"`},
		{"confirmPassword", `"secret"`},
		{"plan", `"full"`},
		{"gender", `"female"`},
		{"acceptTermsAndConds", `true`},
	}
	for _, f := range fields {
		setField(t, r, id, f.name, f.value)
	}

	w := doJSON(r, http.MethodPost, "/sessions/"+id+"/submit", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d body=%s", w.Code, w.Body.String())
	}
	if store.Len() != 0 {
		t.Fatalf("accepted submission should discard the session")
	}
	if len(n.sent) != 1 || n.sent[0].Total != 1500 {
		t.Fatalf("unexpected notifications %+v", n.sent)
	}

	if w := doJSON(r, http.MethodGet, "/sessions/"+id, ""); w.Code != http.StatusNotFound {
		t.Fatalf("session should be gone, got %d", w.Code)
	}
}

func TestSessions_Delete(t *testing.T) {
	r, store := sessionsRouter(nil)
	id := createSession(t, r).ID

	if w := doJSON(r, http.MethodDelete, "/sessions/"+id, ""); w.Code != http.StatusNoContent {
		t.Fatalf("got %d", w.Code)
	}
	if store.Len() != 0 {
		t.Fatalf("session not deleted")
	}
}
