package leadsync

import (
	"context"
	"errors"
	"sync"

	"github.com/octobees/hero-savings/api/internal/config"
	"github.com/octobees/hero-savings/api/internal/crm"
	"github.com/octobees/hero-savings/api/internal/entity"
)

type crmCall struct {
	Op      string
	ID      string
	Query   string
	Tags    []string
	Create  crm.CreateContactRequest
	Update  crm.UpdateContactRequest
	Message crm.Message
}

// fakeCRM records every call and answers from canned data.
type fakeCRM struct {
	mu    sync.Mutex
	calls []crmCall

	search    map[string][]crm.Contact
	searchErr error
	contacts  map[string]crm.Contact
	getErr    error
	created   *crm.Contact
	createErr error
	updateErr error
	tagErr    error
	sendErr   map[string]error
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		search:   map[string][]crm.Contact{},
		contacts: map[string]crm.Contact{},
		sendErr:  map[string]error{},
	}
}

func (f *fakeCRM) record(c crmCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeCRM) SearchContacts(_ context.Context, query string) ([]crm.Contact, error) {
	f.record(crmCall{Op: "search", Query: query})
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search[query], nil
}

func (f *fakeCRM) GetContact(_ context.Context, id string) (*crm.Contact, error) {
	f.record(crmCall{Op: "get", ID: id})
	if f.getErr != nil {
		return nil, f.getErr
	}
	contact, ok := f.contacts[id]
	if !ok {
		return nil, errors.New("contact not found")
	}
	return &contact, nil
}

func (f *fakeCRM) CreateContact(_ context.Context, req crm.CreateContactRequest) (*crm.Contact, error) {
	f.record(crmCall{Op: "create", Create: req})
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.created == nil {
		return nil, errors.New("no contact configured")
	}
	created := *f.created
	return &created, nil
}

func (f *fakeCRM) UpdateContact(_ context.Context, id string, req crm.UpdateContactRequest) error {
	f.record(crmCall{Op: "update", ID: id, Update: req})
	return f.updateErr
}

func (f *fakeCRM) AddTags(_ context.Context, id string, tags []string) error {
	f.record(crmCall{Op: "tag", ID: id, Tags: tags})
	return f.tagErr
}

func (f *fakeCRM) SendMessage(_ context.Context, msg crm.Message) error {
	f.record(crmCall{Op: "send", ID: msg.ContactID, Message: msg})
	return f.sendErr[msg.Type]
}

func (f *fakeCRM) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ops := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		ops = append(ops, c.Op)
	}
	return ops
}

func (f *fakeCRM) callsFor(op string) []crmCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []crmCall
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeCRM) sends(msgType string) []crm.Message {
	var out []crm.Message
	for _, c := range f.callsFor("send") {
		if c.Message.Type == msgType {
			out = append(out, c.Message)
		}
	}
	return out
}

func testCRMConfig() config.CRMConfig {
	return config.CRMConfig{
		APIKey:        "key",
		LocationID:    "loc-1",
		SMSFromNumber: "+15559990000",
		EmailFrom:     "hello@example.com",
		ContactTag:    "KFEH-Estimator",
		ContactSource: "Hero Savings Estimator",
	}
}

func testContent() entity.GeneratedContent {
	return entity.GeneratedContent{
		Email: entity.EmailContent{Subject: "Your Hero Savings Report", Body: "Hi Casey,\n\nYou could save <big>."},
		SMS:   entity.SMSContent{Body: "Hi Casey, your savings are ready."},
	}
}
