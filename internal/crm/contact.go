package crm

import (
	"encoding/json"
	"strings"
)

// Contact is the CRM's view of a person.
type Contact struct {
	ID               string   `json:"id"`
	Phone            string   `json:"phone,omitempty"`
	Email            string   `json:"email,omitempty"`
	AdditionalEmails []string `json:"additionalEmails,omitempty"`
}

// HasEmail reports whether email is the contact's primary or one of its
// additional addresses, ignoring case.
func (c Contact) HasEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(c.Email), email) {
		return true
	}
	for _, extra := range c.AdditionalEmails {
		if extra == email {
			return true
		}
	}
	return false
}

// CreateContactRequest is the payload for creating a contact.
type CreateContactRequest struct {
	LocationID string   `json:"locationId"`
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	Name       string   `json:"name"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Source     string   `json:"source,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// AdditionalEmail is the wire shape of a secondary email address.
type AdditionalEmail struct {
	Email string `json:"email"`
}

// UpdateContactRequest carries only the fields to change.
type UpdateContactRequest struct {
	Email            string            `json:"email,omitempty"`
	AdditionalEmails []AdditionalEmail `json:"additionalEmails,omitempty"`
}

// contactRecord is the raw contact as returned by every read path. Some
// endpoints wrap the record in a "contact" envelope, others return it flat.
type contactRecord struct {
	ID               string            `json:"id"`
	Phone            string            `json:"phone"`
	Email            string            `json:"email"`
	AdditionalEmails []json.RawMessage `json:"additionalEmails"`
	Contact          *contactRecord    `json:"contact"`
}

// toContact flattens a raw record into a Contact. It returns false when the
// record carries no id.
func (r *contactRecord) toContact() (Contact, bool) {
	if r == nil {
		return Contact{}, false
	}
	if r.Contact != nil {
		return r.Contact.toContact()
	}
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return Contact{}, false
	}
	return Contact{
		ID:               id,
		Phone:            strings.TrimSpace(r.Phone),
		Email:            strings.TrimSpace(r.Email),
		AdditionalEmails: flattenEmails(r.AdditionalEmails),
	}, true
}

// flattenEmails accepts entries given either as plain strings or as
// {"email": "..."} objects and returns them lower-cased, trimmed and unique.
func flattenEmails(raw []json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var value string
		if err := json.Unmarshal(item, &value); err != nil {
			var obj AdditionalEmail
			if err := json.Unmarshal(item, &obj); err != nil {
				continue
			}
			value = obj.Email
		}
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseContact(data []byte) (Contact, bool) {
	var rec contactRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Contact{}, false
	}
	return rec.toContact()
}

func parseContactList(data []byte) ([]Contact, error) {
	var payload struct {
		Contacts []contactRecord `json:"contacts"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	contacts := make([]Contact, 0, len(payload.Contacts))
	for i := range payload.Contacts {
		if c, ok := payload.Contacts[i].toContact(); ok {
			contacts = append(contacts, c)
		}
	}
	return contacts, nil
}
