// Package crm talks to the LeadConnector (GoHighLevel) contacts and
// conversations API.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL    = "https://services.leadconnectorhq.com"
	defaultAPIVersion = "2021-07-28"
	searchPageSize    = 20
	maxResponseBytes  = 1 << 20
)

// Message types accepted by SendMessage.
const (
	MessageTypeEmail = "Email"
	MessageTypeSMS   = "SMS"
)

// Message is a conversations send request. Channel-specific fields are left
// empty for the other channel.
type Message struct {
	Type       string `json:"type"`
	ContactID  string `json:"contactId"`
	EmailFrom  string `json:"emailFrom,omitempty"`
	EmailTo    string `json:"emailTo,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Message    string `json:"message,omitempty"`
	HTML       string `json:"html,omitempty"`
	FromNumber string `json:"fromNumber,omitempty"`
	ToNumber   string `json:"toNumber,omitempty"`
}

// HTTPDoer is the subset of *http.Client used by Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithAPIVersion overrides the Version header.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version != "" {
			c.version = version
		}
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// Client is a thin JSON client for the contacts and messaging endpoints,
// scoped to a single location.
type Client struct {
	http       HTTPDoer
	baseURL    string
	version    string
	apiKey     string
	locationID string
	limiter    *rate.Limiter
}

// NewClient builds a client for the given API key and location.
func NewClient(apiKey, locationID string, opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: 15 * time.Second},
		baseURL:    defaultBaseURL,
		version:    defaultAPIVersion,
		apiKey:     apiKey,
		locationID: locationID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LocationID returns the tenant the client is scoped to.
func (c *Client) LocationID() string {
	return c.locationID
}

// SearchContacts runs a free-text contact search. Matching on the CRM side is
// fuzzy, so callers must re-check the results.
func (c *Client) SearchContacts(ctx context.Context, query string) ([]Contact, error) {
	params := url.Values{}
	params.Set("locationId", c.locationID)
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(searchPageSize))

	body, err := c.do(ctx, http.MethodGet, "/contacts/?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	contacts, err := parseContactList(body)
	if err != nil {
		return nil, fmt.Errorf("decode contact search: %w", err)
	}
	return contacts, nil
}

// GetContact fetches one contact by id.
func (c *Client) GetContact(ctx context.Context, id string) (*Contact, error) {
	body, err := c.do(ctx, http.MethodGet, "/contacts/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	contact, ok := parseContact(body)
	if !ok {
		return nil, fmt.Errorf("contact %s: response carried no contact", id)
	}
	return &contact, nil
}

// CreateContact creates a contact in the client's location. A duplicate is
// reported as *DuplicateContactError.
func (c *Client) CreateContact(ctx context.Context, req CreateContactRequest) (*Contact, error) {
	if req.LocationID == "" {
		req.LocationID = c.locationID
	}
	body, err := c.do(ctx, http.MethodPost, "/contacts/", req)
	if err != nil {
		return nil, err
	}
	contact, ok := parseContact(body)
	if !ok {
		return nil, fmt.Errorf("create contact: response carried no contact id")
	}
	return &contact, nil
}

// UpdateContact applies a partial update.
func (c *Client) UpdateContact(ctx context.Context, id string, req UpdateContactRequest) error {
	_, err := c.do(ctx, http.MethodPut, "/contacts/"+url.PathEscape(id), req)
	return err
}

// AddTags appends tags to a contact.
func (c *Client) AddTags(ctx context.Context, id string, tags []string) error {
	payload := map[string][]string{"tags": tags}
	_, err := c.do(ctx, http.MethodPost, "/contacts/"+url.PathEscape(id)+"/tags/", payload)
	return err
}

// SendMessage sends an email or SMS through the conversations API.
func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	_, err := c.do(ctx, http.MethodPost, "/conversations/messages", msg)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("crm rate limit: %w", err)
		}
	}

	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create crm request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Version", c.version)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm %s %s failed: %w", method, strings.SplitN(path, "?", 2)[0], err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read crm response: %w", err)
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("crm %s %s response exceeds %d bytes", method, strings.SplitN(path, "?", 2)[0], maxResponseBytes)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, data)
	}
	return data, nil
}
