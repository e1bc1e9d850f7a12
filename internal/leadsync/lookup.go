package leadsync

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/octobees/hero-savings/api/internal/crm"
	"github.com/octobees/hero-savings/api/internal/service"
)

// FindByPhone returns the contact whose stored phone normalizes to exactly
// the same number as phone, or nil. Search failures count as no match.
func (r *Reconciler) FindByPhone(ctx context.Context, phone string) *crm.Contact {
	canonical := service.NormalizePhoneToE164(phone)
	if canonical == "" {
		return nil
	}

	// Search accepts either form inconsistently, so try bare digits first.
	for _, query := range []string{strings.TrimPrefix(canonical, "+"), canonical} {
		contacts, err := r.store.SearchContacts(ctx, query)
		if err != nil {
			r.logger.Warn("contact search by phone failed", zap.Error(err))
			continue
		}
		for i := range contacts {
			if service.NormalizePhoneToE164(contacts[i].Phone) == canonical {
				return &contacts[i]
			}
		}
	}
	return nil
}

// FindByEmail returns the first contact whose primary or additional email
// equals email ignoring case, or nil. Search failures count as no match.
func (r *Reconciler) FindByEmail(ctx context.Context, email string) *crm.Contact {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}

	contacts, err := r.store.SearchContacts(ctx, email)
	if err != nil {
		r.logger.Warn("contact search by email failed", zap.Error(err))
		return nil
	}
	for i := range contacts {
		if contacts[i].HasEmail(email) {
			return &contacts[i]
		}
	}
	return nil
}
