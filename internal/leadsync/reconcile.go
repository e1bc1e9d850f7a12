package leadsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/octobees/hero-savings/api/internal/config"
	"github.com/octobees/hero-savings/api/internal/crm"
	"github.com/octobees/hero-savings/api/internal/entity"
)

const (
	defaultFirstName = "Lead"
	defaultLastName  = "Hero"
)

// ContactStore is the CRM surface used to find and maintain contacts.
type ContactStore interface {
	SearchContacts(ctx context.Context, query string) ([]crm.Contact, error)
	GetContact(ctx context.Context, id string) (*crm.Contact, error)
	CreateContact(ctx context.Context, req crm.CreateContactRequest) (*crm.Contact, error)
	UpdateContact(ctx context.Context, id string, req crm.UpdateContactRequest) error
	AddTags(ctx context.Context, id string, tags []string) error
}

// Reconciler maps a sanitized lead onto an existing or new CRM contact.
type Reconciler struct {
	store  ContactStore
	tag    string
	source string
	logger *zap.Logger
}

// NewReconciler builds a reconciler tagging contacts with cfg.ContactTag.
func NewReconciler(store ContactStore, cfg config.CRMConfig, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		store:  store,
		tag:    cfg.ContactTag,
		source: cfg.ContactSource,
		logger: logger,
	}
}

// Reconcile locates the lead's contact by phone, then email, and creates it
// when neither matches. The lead must already be sanitized.
func (r *Reconciler) Reconcile(ctx context.Context, lead entity.Lead) (*ReconciledContact, error) {
	if lead.Email == "" && lead.Phone == "" {
		return nil, ErrNoContactInfo
	}

	if found := r.FindByPhone(ctx, lead.Phone); found != nil {
		return r.reuse(ctx, *found, true, lead, "phone"), nil
	}
	if found := r.FindByEmail(ctx, lead.Email); found != nil {
		return r.reuse(ctx, *found, true, lead, "email"), nil
	}
	return r.create(ctx, lead)
}

func (r *Reconciler) create(ctx context.Context, lead entity.Lead) (*ReconciledContact, error) {
	first, last := splitName(lead.Name)
	req := crm.CreateContactRequest{
		FirstName: first,
		LastName:  last,
		Name:      displayName(lead.Name, first, last),
		Email:     lead.Email,
		Phone:     lead.Phone,
		Source:    r.source,
	}
	if r.tag != "" {
		req.Tags = []string{r.tag}
	}

	created, err := r.store.CreateContact(ctx, req)
	if err == nil {
		r.logger.Info("created crm contact", zap.String("contact_id", created.ID))
		email := created.Email
		if email == "" {
			email = lead.Email
		} else if lead.Email != "" && !created.HasEmail(lead.Email) {
			r.attachEmail(ctx, *created, lead.Email)
		}
		return &ReconciledContact{
			ID:          created.ID,
			Phone:       firstNonEmpty(lead.Phone, created.Phone),
			StoredPhone: firstNonEmpty(created.Phone, lead.Phone),
			Email:       email,
		}, nil
	}

	var dup *crm.DuplicateContactError
	if errors.As(err, &dup) {
		r.logger.Info("crm reported duplicate contact, reusing it",
			zap.String("contact_id", dup.ContactID),
			zap.String("matching_field", dup.MatchingField))
		return r.reuse(ctx, crm.Contact{ID: dup.ContactID}, false, lead, "duplicate"), nil
	}

	r.logger.Error("failed to create crm contact", zap.Error(err))
	if found := r.FindByEmail(ctx, lead.Email); found != nil {
		return r.reuse(ctx, *found, true, lead, "email-retry"), nil
	}
	return nil, fmt.Errorf("%w: %w", ErrContactUnresolved, err)
}

// reuse tags an existing contact and merges the submitted email into it. The
// contact is re-read first; known says whether found already reflects the
// CRM record, which decides if a failed re-read may still drive email writes.
func (r *Reconciler) reuse(ctx context.Context, found crm.Contact, known bool, lead entity.Lead, via string) *ReconciledContact {
	log := r.logger.With(zap.String("contact_id", found.ID), zap.String("matched_by", via))

	if r.tag != "" {
		if err := r.store.AddTags(ctx, found.ID, []string{r.tag}); err != nil {
			log.Warn("failed to tag crm contact", zap.Error(err))
		}
	}

	current := found
	if fresh, err := r.store.GetContact(ctx, found.ID); err != nil {
		log.Warn("failed to re-read crm contact", zap.Error(err))
	} else {
		current = *fresh
		known = true
	}

	primary := current.Email
	if lead.Email != "" && known {
		switch {
		case strings.TrimSpace(primary) == "":
			err := r.store.UpdateContact(ctx, current.ID, crm.UpdateContactRequest{Email: lead.Email})
			if err != nil {
				log.Warn("failed to backfill primary email", zap.Error(err))
			} else {
				primary = lead.Email
			}
		case !current.HasEmail(lead.Email):
			r.attachEmail(ctx, current, lead.Email)
		}
	}

	log.Info("reusing crm contact")
	return &ReconciledContact{
		ID:          current.ID,
		Phone:       firstNonEmpty(lead.Phone, current.Phone),
		StoredPhone: current.Phone,
		Email:       primary,
	}
}

// attachEmail adds email to the contact's additional emails, keeping the
// ones already there.
func (r *Reconciler) attachEmail(ctx context.Context, contact crm.Contact, email string) {
	emails := make([]crm.AdditionalEmail, 0, len(contact.AdditionalEmails)+1)
	for _, existing := range contact.AdditionalEmails {
		emails = append(emails, crm.AdditionalEmail{Email: existing})
	}
	emails = append(emails, crm.AdditionalEmail{Email: email})

	err := r.store.UpdateContact(ctx, contact.ID, crm.UpdateContactRequest{AdditionalEmails: emails})
	if err != nil {
		r.logger.Warn("failed to attach additional email",
			zap.String("contact_id", contact.ID), zap.Error(err))
	}
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return defaultFirstName, defaultLastName
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func displayName(name, first, last string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return strings.TrimSpace(first + " " + last)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
