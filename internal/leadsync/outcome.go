package leadsync

import "errors"

var (
	// ErrNoContactInfo means the lead has neither a usable email nor phone.
	ErrNoContactInfo = errors.New("lead has no usable email or phone")
	// ErrContactUnresolved means no CRM contact could be located or created.
	ErrContactUnresolved = errors.New("no crm contact could be located or created")
)

// Status is the terminal state of a sync step.
type Status string

// Sync and dispatch statuses.
const (
	StatusSynced  Status = "synced"
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome reports what happened to one message channel.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`
}

func sent() Outcome {
	return Outcome{Status: StatusSent}
}

func skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

func failed(reason string, err error) Outcome {
	return Outcome{Status: StatusFailed, Reason: reason, Err: err}
}

// DispatchResult holds the per-channel outcomes of one dispatch.
type DispatchResult struct {
	Email Outcome `json:"email"`
	SMS   Outcome `json:"sms"`
}

// ReconciledContact is the contact a submission messages against. Phone
// prefers the freshly submitted number while StoredPhone keeps what the CRM
// holds; Email is the CRM primary as last written or read.
type ReconciledContact struct {
	ID          string `json:"id"`
	Phone       string `json:"phone,omitempty"`
	StoredPhone string `json:"stored_phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Result is the outcome of SendLeadData.
type Result struct {
	Status   Status             `json:"status"`
	Reason   string             `json:"reason,omitempty"`
	Err      error              `json:"-"`
	Contact  *ReconciledContact `json:"contact,omitempty"`
	Dispatch DispatchResult     `json:"dispatch"`
}
