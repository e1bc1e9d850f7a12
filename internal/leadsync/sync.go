// Package leadsync reconciles funnel leads with CRM contacts and sends the
// follow-up email and SMS through the CRM.
package leadsync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/octobees/hero-savings/api/internal/config"
	"github.com/octobees/hero-savings/api/internal/entity"
	"github.com/octobees/hero-savings/api/internal/service"
)

// CRM is everything the syncer needs from the downstream API.
type CRM interface {
	ContactStore
	Messenger
}

// Syncer runs sanitize, reconcile and dispatch for one submission at a time.
// It is safe for concurrent use.
type Syncer struct {
	enabled    bool
	reconciler *Reconciler
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewSyncer wires a syncer. Sync is disabled when cfg lacks credentials.
func NewSyncer(client CRM, cfg config.CRMConfig, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		enabled:    cfg.Enabled() && client != nil,
		reconciler: NewReconciler(client, cfg, logger),
		dispatcher: NewDispatcher(client, cfg, logger),
		logger:     logger,
	}
}

// SendLeadData pushes a lead into the CRM and notifies it. It never returns an
// error; every failure ends in a logged, reported Result.
func (s *Syncer) SendLeadData(ctx context.Context, lead entity.Lead, estimate entity.SavingsEstimate, content entity.GeneratedContent) (result Result) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error("lead sync panicked", zap.Any("panic", p))
			result = Result{Status: StatusFailed, Reason: "panic", Err: fmt.Errorf("lead sync panic: %v", p)}
		}
	}()

	if !s.enabled {
		s.logger.Warn("crm credentials not configured, skipping lead sync")
		return Result{Status: StatusSkipped, Reason: "crm not configured"}
	}

	sanitized := service.SanitizeLead(lead)
	log := s.logger.With(
		zap.String("hero_role", string(sanitized.HeroRole)),
		zap.Float64("loan_amount", estimate.LoanAmount))

	contact, err := s.reconciler.Reconcile(ctx, sanitized)
	if err != nil {
		if errors.Is(err, ErrNoContactInfo) {
			log.Info("lead has no contact details, skipping crm sync")
			return Result{Status: StatusSkipped, Reason: err.Error(), Err: err}
		}
		log.Error("crm contact reconciliation failed", zap.Error(err))
		return Result{Status: StatusFailed, Reason: ErrContactUnresolved.Error(), Err: err}
	}

	dispatch := s.dispatcher.Dispatch(ctx, *contact, sanitized, content)
	log.Info("lead synced",
		zap.String("contact_id", contact.ID),
		zap.String("email", string(dispatch.Email.Status)),
		zap.String("sms", string(dispatch.SMS.Status)))

	return Result{Status: StatusSynced, Contact: contact, Dispatch: dispatch}
}
