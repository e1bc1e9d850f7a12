package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/octobees/hero-savings/api/internal/content"
	"github.com/octobees/hero-savings/api/internal/entity"
	"github.com/octobees/hero-savings/api/internal/leadsync"
	middlewarepkg "github.com/octobees/hero-savings/api/internal/middleware"
)

type syncerStub struct {
	mu      sync.Mutex
	leads   []entity.Lead
	ctxErrs []error
	release chan struct{}
}

func (s *syncerStub) SendLeadData(ctx context.Context, lead entity.Lead, _ entity.SavingsEstimate, _ entity.GeneratedContent) leadsync.Result {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, lead)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return leadsync.Result{Status: leadsync.StatusSynced}
}

func (s *syncerStub) calls() []entity.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.Lead(nil), s.leads...)
}

const validLeadBody = `{
	"name": "Casey Jordan",
	"email": "casey@example.com",
	"phone": "(555) 123-4567",
	"hero_role": "Teacher / Educator",
	"home_price": 300000,
	"down_payment_percent": 5,
	"wants_text": true,
	"tcpa_consent": true
}`

func postLead(t *testing.T, h *LeadHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middlewarepkg.ContextKeyRequestID, "rid-1")

	if err := h.Submit(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rec
}

func TestLeadHandler_Submit(t *testing.T) {
	syncer := &syncerStub{}
	h := NewLeadHandler(content.Fallback{}, syncer, nil)

	rec := postLead(t, h, validLeadBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Status string `json:"status"`
		Data   struct {
			Savings entity.SavingsEstimate  `json:"savings"`
			Content entity.GeneratedContent `json:"content"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Status != "success" {
		t.Fatalf("unexpected status %q", payload.Status)
	}
	want := entity.SavingsEstimate{LoanAmount: 285000, HeroCredit: 1000, MinSavings: 2100, MaxSavings: 2400}
	if payload.Data.Savings != want {
		t.Fatalf("unexpected savings: %+v", payload.Data.Savings)
	}
	if payload.Data.Content.Email.Subject != content.EmailSubject {
		t.Fatalf("unexpected subject %q", payload.Data.Content.Email.Subject)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.Wait(ctx); err != nil {
		t.Fatalf("background sync did not finish: %v", err)
	}

	calls := syncer.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one sync, got %d", len(calls))
	}
	if calls[0].Email != "casey@example.com" || !calls[0].WantsText || calls[0].HeroRole != entity.HeroRoleTeacher {
		t.Fatalf("unexpected lead passed to sync: %+v", calls[0])
	}
	if syncer.ctxErrs[0] != nil {
		t.Fatalf("sync context should outlive the request, got %v", syncer.ctxErrs[0])
	}
}

func TestLeadHandler_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"zero home price", `{"name":"C","email":"c@example.com","phone":"5551234567","home_price":0,"tcpa_consent":true}`, "home_price"},
		{"negative down payment", `{"name":"C","email":"c@example.com","phone":"5551234567","home_price":1,"down_payment_percent":-1,"tcpa_consent":true}`, "down_payment_percent"},
		{"full down payment", `{"name":"C","email":"c@example.com","phone":"5551234567","home_price":1,"down_payment_percent":100,"tcpa_consent":true}`, "down_payment_percent"},
		{"bad email", `{"name":"C","email":"nope","phone":"5551234567","home_price":1,"tcpa_consent":true}`, "email"},
		{"nbsp in email", `{"name":"C","email":"c\u00a0x@example.com","phone":"5551234567","home_price":1,"tcpa_consent":true}`, "email"},
		{"missing phone", `{"name":"C","email":"c@example.com","home_price":1,"tcpa_consent":true}`, "phone"},
		{"missing name", `{"name":"  ","email":"c@example.com","phone":"5551234567","home_price":1,"tcpa_consent":true}`, "name"},
		{"unknown role", `{"name":"C","email":"c@example.com","phone":"5551234567","hero_role":"Wizard","home_price":1,"tcpa_consent":true}`, "hero_role"},
		{"no consent", `{"name":"C","email":"c@example.com","phone":"5551234567","home_price":1}`, "tcpa_consent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &syncerStub{}
			h := NewLeadHandler(nil, syncer, nil)

			rec := postLead(t, h, tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rec.Code)
			}
			var payload APIResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if _, ok := payload.Errors[tt.field]; !ok {
				t.Fatalf("expected error for %s, got %+v", tt.field, payload.Errors)
			}
			if len(syncer.calls()) != 0 {
				t.Fatalf("sync must not start for invalid input")
			}
		})
	}
}

func TestLeadHandler_InvalidPayload(t *testing.T) {
	h := NewLeadHandler(nil, &syncerStub{}, nil)

	rec := postLead(t, h, "{")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLeadHandler_WaitHonoursDeadline(t *testing.T) {
	syncer := &syncerStub{release: make(chan struct{})}
	h := NewLeadHandler(nil, syncer, nil)

	if rec := postLead(t, h, validLeadBody); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.Wait(ctx); err == nil {
		t.Fatalf("expected wait to time out while a sync is running")
	}

	close(syncer.release)
	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLeadHandler_WithoutSyncer(t *testing.T) {
	h := NewLeadHandler(nil, nil, nil)

	if rec := postLead(t, h, validLeadBody); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLeadHandler_SyncLogCarriesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewLeadHandler(nil, &syncerStub{}, zap.New(core))

	if rec := postLead(t, h, validLeadBody); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("crm sync finished").All()
	if len(entries) != 1 {
		t.Fatalf("expected one sync log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "rid-1" || fields["status"] != string(leadsync.StatusSynced) {
		t.Fatalf("unexpected log fields: %+v", fields)
	}
}
