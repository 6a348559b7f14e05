// Package mailer sends transactional email through Resend.
package mailer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// DefaultBaseURL is the Resend API endpoint.
const DefaultBaseURL = "https://api.resend.com"

// Message is one outgoing email.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Sender delivers messages. *Client is the production implementation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client wraps the Resend SDK client.
type Client struct {
	rc *resend.Client
}

type options struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// New creates a new API client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	o := options{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}
	rc := resend.NewCustomClient(o.httpClient, apiKey)
	// Request paths are resolved relative to BaseURL, so it must end in a slash.
	if u, err := url.Parse(strings.TrimSuffix(o.baseURL, "/") + "/"); err == nil {
		rc.BaseURL = u
	}
	return &Client{rc: rc}
}

// Send submits msg for delivery.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if _, err := c.SendEmail(ctx, msg); err != nil {
		return err
	}
	return nil
}

// SendEmail submits msg and returns the provider's message id.
func (c *Client) SendEmail(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", fmt.Errorf("mailer.SendEmail: no recipients")
	}
	resp, err := c.rc.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return "", fmt.Errorf("mailer.SendEmail: %w", err)
	}
	return resp.Id, nil
}
