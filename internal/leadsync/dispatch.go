package leadsync

import (
	"context"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/octobees/hero-savings/api/internal/config"
	"github.com/octobees/hero-savings/api/internal/crm"
	"github.com/octobees/hero-savings/api/internal/entity"
	"github.com/octobees/hero-savings/api/internal/service"
)

// Skip reasons reported in Outcome.Reason.
const (
	ReasonEmailSenderMissing = "email sender not configured"
	ReasonNoEmailDestination = "no email destination"
	ReasonPrimaryEmailUnset  = "primary email could not be set"
	ReasonNoTextOptIn        = "lead did not opt in to texts"
	ReasonSMSSenderMissing   = "sms sender not configured"
	ReasonMissingPhone       = "submitted or stored phone missing"
	ReasonPhoneMismatch      = "submitted phone does not match stored phone"
)

// Messenger is the CRM surface used to deliver notifications.
type Messenger interface {
	UpdateContact(ctx context.Context, id string, req crm.UpdateContactRequest) error
	SendMessage(ctx context.Context, msg crm.Message) error
}

// Dispatcher sends at most one email and one SMS for a reconciled contact.
type Dispatcher struct {
	messenger Messenger
	emailFrom string
	smsFrom   string
	logger    *zap.Logger
}

// NewDispatcher builds a dispatcher using the sender identities in cfg. An
// empty sender disables its channel.
func NewDispatcher(messenger Messenger, cfg config.CRMConfig, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		messenger: messenger,
		emailFrom: strings.TrimSpace(cfg.EmailFrom),
		smsFrom:   strings.TrimSpace(cfg.SMSFromNumber),
		logger:    logger,
	}
}

// Dispatch sends the email and SMS that pass their guards, concurrently.
// A failure on one channel never affects the other.
func (d *Dispatcher) Dispatch(ctx context.Context, contact ReconciledContact, lead entity.Lead, content entity.GeneratedContent) DispatchResult {
	log := d.logger.With(zap.String("contact_id", contact.ID))

	emailTo, emailSkip := d.emailDestination(contact, lead)
	smsTo, smsSkip := d.smsDestination(contact, lead)

	result := DispatchResult{Email: emailSkip, SMS: smsSkip}
	if emailTo == "" && smsTo == "" {
		log.Info("no message channel eligible",
			zap.String("email_reason", emailSkip.Reason),
			zap.String("sms_reason", smsSkip.Reason))
		return result
	}

	var g errgroup.Group
	if emailTo != "" {
		g.Go(func() error {
			result.Email = d.guard(crm.MessageTypeEmail, func() Outcome {
				return d.sendEmail(ctx, contact, emailTo, content.Email)
			})
			return nil
		})
	} else {
		log.Info("skipping email", zap.String("reason", emailSkip.Reason))
	}
	if smsTo != "" {
		g.Go(func() error {
			result.SMS = d.guard(crm.MessageTypeSMS, func() Outcome {
				return d.sendSMS(ctx, contact, smsTo, content.SMS)
			})
			return nil
		})
	} else {
		log.Info("skipping sms", zap.String("reason", smsSkip.Reason))
	}
	g.Wait()

	return result
}

// guard runs one channel's send and turns a panic into a failed Outcome so the
// other channel and the caller keep running.
func (d *Dispatcher) guard(channel string, send func() Outcome) (out Outcome) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Error("message send panicked", zap.String("channel", channel), zap.Any("panic", p))
			out = failed("panic", fmt.Errorf("%s send panic: %v", channel, p))
		}
	}()
	return send()
}

func (d *Dispatcher) emailDestination(contact ReconciledContact, lead entity.Lead) (string, Outcome) {
	if d.emailFrom == "" {
		return "", skipped(ReasonEmailSenderMissing)
	}
	to := strings.TrimSpace(firstNonEmpty(contact.Email, lead.Email))
	if to == "" {
		return "", skipped(ReasonNoEmailDestination)
	}
	return to, Outcome{}
}

func (d *Dispatcher) smsDestination(contact ReconciledContact, lead entity.Lead) (string, Outcome) {
	if !lead.WantsText {
		return "", skipped(ReasonNoTextOptIn)
	}
	if d.smsFrom == "" {
		return "", skipped(ReasonSMSSenderMissing)
	}
	submitted := service.NormalizePhoneToE164(lead.Phone)
	stored := service.NormalizePhoneToE164(contact.StoredPhone)
	if submitted == "" || stored == "" {
		return "", skipped(ReasonMissingPhone)
	}
	if submitted != stored {
		return "", skipped(ReasonPhoneMismatch)
	}
	return submitted, Outcome{}
}

func (d *Dispatcher) sendEmail(ctx context.Context, contact ReconciledContact, to string, content entity.EmailContent) Outcome {
	log := d.logger.With(zap.String("contact_id", contact.ID), zap.String("channel", crm.MessageTypeEmail))

	// The messaging API only delivers to the contact's primary address.
	if !strings.EqualFold(to, strings.TrimSpace(contact.Email)) {
		if err := d.messenger.UpdateContact(ctx, contact.ID, crm.UpdateContactRequest{Email: to}); err != nil {
			log.Warn("failed to set primary email, skipping email", zap.Error(err))
			out := skipped(ReasonPrimaryEmailUnset)
			out.Err = err
			return out
		}
	}

	err := d.messenger.SendMessage(ctx, crm.Message{
		Type:      crm.MessageTypeEmail,
		ContactID: contact.ID,
		EmailFrom: d.emailFrom,
		EmailTo:   to,
		Subject:   content.Subject,
		Message:   content.Body,
		HTML:      renderHTML(content.Body),
	})
	if err != nil {
		log.Error("failed to send email", zap.Error(err))
		return failed("send email", err)
	}
	log.Info("email sent")
	return sent()
}

func (d *Dispatcher) sendSMS(ctx context.Context, contact ReconciledContact, to string, content entity.SMSContent) Outcome {
	log := d.logger.With(zap.String("contact_id", contact.ID), zap.String("channel", crm.MessageTypeSMS))

	err := d.messenger.SendMessage(ctx, crm.Message{
		Type:       crm.MessageTypeSMS,
		ContactID:  contact.ID,
		FromNumber: d.smsFrom,
		ToNumber:   to,
		Message:    content.Body,
	})
	if err != nil {
		log.Error("failed to send sms", zap.Error(err))
		return failed("send sms", err)
	}
	log.Info("sms sent")
	return sent()
}

// renderHTML escapes a plain-text body and wraps each line in a paragraph;
// blank lines become line breaks.
func renderHTML(body string) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	var b strings.Builder
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			b.WriteString("<br>")
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	return b.String()
}
