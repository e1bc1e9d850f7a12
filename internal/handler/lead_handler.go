package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/hero-savings/api/internal/content"
	"github.com/octobees/hero-savings/api/internal/dto"
	"github.com/octobees/hero-savings/api/internal/entity"
	"github.com/octobees/hero-savings/api/internal/leadsync"
	middlewarepkg "github.com/octobees/hero-savings/api/internal/middleware"
	"github.com/octobees/hero-savings/api/internal/service"
)

// LeadSyncer pushes a lead into the CRM.
type LeadSyncer interface {
	SendLeadData(ctx context.Context, lead entity.Lead, estimate entity.SavingsEstimate, generated entity.GeneratedContent) leadsync.Result
}

// LeadHandler serves the savings funnel submission.
type LeadHandler struct {
	generator content.Generator
	syncer    LeadSyncer
	logger    *zap.Logger
	inflight  sync.WaitGroup
}

// NewLeadHandler constructs a lead handler.
func NewLeadHandler(generator content.Generator, syncer LeadSyncer, logger *zap.Logger) *LeadHandler {
	if generator == nil {
		generator = content.Fallback{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadHandler{generator: generator, syncer: syncer, logger: logger}
}

// Submit handles POST /leads. The estimate and copy are returned right away;
// the CRM sync continues in the background.
func (h *LeadHandler) Submit(c echo.Context) error {
	var req dto.LeadRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if fields := validateLead(req); len(fields) > 0 {
		return ValidationError(c, fields)
	}

	lead := req.ToLead()
	ctx := c.Request().Context()
	estimate := service.CalculateSavings(lead.HomePrice, lead.DownPaymentPercent)
	generated := h.generator.Generate(ctx, lead, estimate)

	if h.syncer != nil {
		h.startSync(context.WithoutCancel(ctx), middlewarepkg.RequestIDFromContext(c), lead, estimate, generated)
	}

	return Success(c, http.StatusOK, "savings report ready", dto.LeadResponse{
		Savings: estimate,
		Content: generated,
	})
}

func (h *LeadHandler) startSync(ctx context.Context, requestID string, lead entity.Lead, estimate entity.SavingsEstimate, generated entity.GeneratedContent) {
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		res := h.syncer.SendLeadData(ctx, lead, estimate, generated)
		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("status", string(res.Status)),
		}
		if res.Reason != "" {
			fields = append(fields, zap.String("reason", res.Reason))
		}
		if res.Err != nil {
			fields = append(fields, zap.Error(res.Err))
		}
		h.logger.Info("crm sync finished", fields...)
	}()
}

// Wait blocks until background syncs finish or ctx is done.
func (h *LeadHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func validateLead(req dto.LeadRequest) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "name is required"
	}
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "email is required"
	} else if service.NormalizeEmail(req.Email) == "" {
		fields["email"] = "email is invalid"
	}
	if strings.TrimSpace(req.Phone) == "" {
		fields["phone"] = "phone is required"
	}
	if req.HeroRole != "" && !entity.HeroRole(req.HeroRole).Valid() {
		fields["hero_role"] = "hero_role is not supported"
	}
	if req.HomePrice <= 0 {
		fields["home_price"] = "home_price must be greater than 0"
	}
	if req.DownPaymentPercent < 0 || req.DownPaymentPercent >= 100 {
		fields["down_payment_percent"] = "down_payment_percent must be at least 0 and below 100"
	}
	if !req.TCPAConsent {
		fields["tcpa_consent"] = "consent is required"
	}
	return fields
}
