package crm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the CRM.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("crm responded with %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("crm responded with %d", e.StatusCode)
}

// DuplicateContactError is returned by CreateContact when the CRM refuses to
// create a contact because one already exists.
type DuplicateContactError struct {
	ContactID     string
	MatchingField string
	APIError      *APIError
}

func (e *DuplicateContactError) Error() string {
	return fmt.Sprintf("duplicate contact %s (matched on %s)", e.ContactID, e.MatchingField)
}

func (e *DuplicateContactError) Unwrap() error {
	if e.APIError == nil {
		return nil
	}
	return e.APIError
}

type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
	Meta    struct {
		ContactID     string `json:"contactId"`
		MatchingField string `json:"matchingField"`
	} `json:"meta"`
}

// decodeError turns an error response body into *APIError, or into
// *DuplicateContactError when the body names an existing contact.
func decodeError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Body: string(body)}

	var payload errorBody
	if err := json.Unmarshal(body, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	apiErr.Message = errorMessage(payload)

	if id := strings.TrimSpace(payload.Meta.ContactID); id != "" && status >= 400 && status < 500 {
		return &DuplicateContactError{
			ContactID:     id,
			MatchingField: payload.Meta.MatchingField,
			APIError:      apiErr,
		}
	}
	return apiErr
}

// errorMessage reads "message" which the CRM sends as a string or a list.
func errorMessage(payload errorBody) string {
	if len(payload.Message) > 0 {
		var single string
		if err := json.Unmarshal(payload.Message, &single); err == nil {
			return single
		}
		var many []string
		if err := json.Unmarshal(payload.Message, &many); err == nil {
			return strings.Join(many, "; ")
		}
	}
	return payload.Error
}
