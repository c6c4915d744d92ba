package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/marathonreg/internal/domain/pricing"
	"github.com/geocoder89/marathonreg/internal/domain/registration"
	"github.com/geocoder89/marathonreg/internal/form"
	"github.com/geocoder89/marathonreg/internal/http/handlers"
	"github.com/geocoder89/marathonreg/internal/notifications"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeNotifier struct {
	sendFn func(ctx context.Context, in notifications.AcknowledgmentInput) error
	sent   []notifications.AcknowledgmentInput
}

func (f *fakeNotifier) SendAcknowledgment(ctx context.Context, in notifications.AcknowledgmentInput) error {
	f.sent = append(f.sent, in)
	if f.sendFn != nil {
		return f.sendFn(ctx, in)
	}
	return nil
}

func newRegistrationHandler(n notifications.Notifier) *handlers.RegistrationHandler {
	return handlers.NewRegistrationHandler(
		registration.NewEngine(""),
		pricing.NewEngine(nil, "", 0),
		n, nil, nil,
	)
}

// small helper which returns a gin engine with one handler mounted
func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	handlers.UseJSONFieldNames()

	r := gin.New()
	r.Handle(method, path, h)

	return r
}

const validBody = `{
	"firstName": "Alice",
	"lastName": "Smith",
	"email": "alice@example.com",
	"plan": "half",
	"gender": "female",
	"acceptTermsAndConds": true,
	"hasCoupon": true,
	"coupon": "CMU2023",
	"password": "secret",
	"confirmPassword": "secret"
}`

type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Details struct {
			Fields map[string]string `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func TestValidateHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantValid  bool
		wantErrors map[string]string
	}{
		{
			name:       "valid",
			body:       validBody,
			wantStatus: http.StatusOK,
			wantValid:  true,
			wantErrors: map[string]string{},
		},
		{
			name: "short first name only",
			body: `{"firstName":"Al","lastName":"Smith","email":"a@b.com","plan":"full","gender":"male",
				"acceptTermsAndConds":true,"hasCoupon":false,"coupon":"","password":"secret","confirmPassword":"secret"}`,
			wantStatus: http.StatusOK,
			wantErrors: map[string]string{"firstName": "First name must have at least 3 characters"},
		},
		{
			name: "unset selections",
			body: `{"firstName":"Alice","lastName":"Smith","email":"alice@example.com","plan":null,"gender":null,
				"acceptTermsAndConds":false,"password":"secret","confirmPassword":"secret"}`,
			wantStatus: http.StatusOK,
			wantErrors: map[string]string{
				"plan":                "Please select a plan",
				"gender":              "Please choose a gender",
				"acceptTermsAndConds": "You must accept terms and conditions",
			},
		},
		{
			name:       "bad json",
			body:       `{"firstName":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := newRegistrationHandler(nil)
			r := setupRouter(http.MethodPost, "/registrations/validate", h.Validate)

			w := postJSON(r, "/registrations/validate", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp handlers.ValidationResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Valid != tt.wantValid {
				t.Fatalf("valid = %v, want %v", resp.Valid, tt.wantValid)
			}
			if len(resp.Errors) != len(tt.wantErrors) {
				t.Fatalf("errors = %v, want %v", resp.Errors, tt.wantErrors)
			}
			for k, v := range tt.wantErrors {
				if resp.Errors[k] != v {
					t.Fatalf("errors[%s] = %q, want %q", k, resp.Errors[k], v)
				}
			}
		})
	}
}

func TestQuoteHandler(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantTotal float64
		wantDisc  bool
	}{
		{name: "half with coupon", body: `{"plan":"half","hasCoupon":true,"coupon":"CMU2023"}`, wantTotal: 700, wantDisc: true},
		{name: "full no coupon", body: `{"plan":"full","hasCoupon":false}`, wantTotal: 1500},
		{name: "coupon text without checkbox", body: `{"plan":"full","coupon":"CMU2023"}`, wantTotal: 1500},
		{name: "no plan", body: `{}`, wantTotal: 0},
		{name: "unknown plan", body: `{"plan":"ultra","hasCoupon":true,"coupon":"CMU2023"}`, wantTotal: 0, wantDisc: true},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			h := newRegistrationHandler(nil)
			r := setupRouter(http.MethodPost, "/registrations/quote", h.Quote)

			w := postJSON(r, "/registrations/quote", tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
			}

			var q pricing.Quote
			if err := json.Unmarshal(w.Body.Bytes(), &q); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if q.Total != tt.wantTotal || q.DiscountApplied != tt.wantDisc {
				t.Fatalf("got %+v, want total %v discount %v", q, tt.wantTotal, tt.wantDisc)
			}
			if q.Currency != "THB" {
				t.Fatalf("currency = %q", q.Currency)
			}
		})
	}
}

func TestSubmitHandler_Accepted(t *testing.T) {
	n := &fakeNotifier{}
	h := newRegistrationHandler(n)
	r := setupRouter(http.MethodPost, "/registrations", h.Submit)

	w := postJSON(r, "/registrations", validBody)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var ack form.Acknowledgment
	if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ack.Message != "See you at CMU Marathon" || ack.Total != 700 {
		t.Fatalf("unexpected acknowledgment %+v", ack)
	}

	if len(n.sent) != 1 || n.sent[0].Email != "alice@example.com" || n.sent[0].Name != "Alice Smith" {
		t.Fatalf("unexpected notifications %+v", n.sent)
	}
}

func TestSubmitHandler_NotifierFailureStillAcknowledges(t *testing.T) {
	n := &fakeNotifier{sendFn: func(context.Context, notifications.AcknowledgmentInput) error {
		return notifications.ErrCircuitOpen
	}}
	h := newRegistrationHandler(n)
	r := setupRouter(http.MethodPost, "/registrations", h.Submit)

	if w := postJSON(r, "/registrations", validBody); w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}

func TestSubmitHandler_Rejected(t *testing.T) {
	n := &fakeNotifier{}
	h := newRegistrationHandler(n)
	r := setupRouter(http.MethodPost, "/registrations", h.Submit)

	body := `{"firstName":"Alice","lastName":"Smith","email":"alice@example.com","plan":"half","gender":"female",
		"acceptTermsAndConds":true,"password":"abc12345678","confirmPassword":"different"}`

	w := postJSON(r, "/registrations", body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp apiErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "validation_failed" {
		t.Fatalf("code = %q", resp.Error.Code)
	}
	if len(resp.Error.Details.Fields) != 1 || resp.Error.Details.Fields["confirmPassword"] != "Password does not match" {
		t.Fatalf("unexpected fields %v", resp.Error.Details.Fields)
	}
	if len(n.sent) != 0 {
		t.Fatalf("rejected submission must not be acknowledged")
	}
}

func TestListPlansHandler_ETag(t *testing.T) {
	h := newRegistrationHandler(nil)
	r := setupRouter(http.MethodGet, "/plans", h.ListPlans)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}

	var resp struct {
		Items []pricing.PlanOption `json:"items"`
		Count int                  `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 4 || resp.Items[2].Value != registration.PlanHalf || resp.Items[2].Price != 1000 {
		t.Fatalf("unexpected plans %+v", resp)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/plans", nil)
	req.Header.Set("If-None-Match", "W/"+etag)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w2.Code)
	}
}
