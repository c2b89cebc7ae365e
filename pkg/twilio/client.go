// Package twilio provides a minimal client for the Twilio Messages API.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.twilio.com"

// Client sends SMS messages.
type Client interface {
	SendSMS(ctx context.Context, to, from, body string) error
}

// ProviderError is returned when the API answers with a non-2xx status.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("twilio: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("twilio: status %d", e.StatusCode)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit caps outbound request rate.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

type httpClient struct {
	accountSID string
	authToken  string
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Twilio Messages API client using basic auth.
func NewClient(accountSID, authToken string, opts ...Option) Client {
	c := &httpClient{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    defaultBaseURL,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorResponse is Twilio's error body shape.
type errorResponse struct {
	Message string `json:"message"`
}

// SendSMS posts a form-encoded message to the Messages endpoint.
func (c *httpClient) SendSMS(ctx context.Context, to, from, body string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "twilio: rate limit wait")
		}
	}

	form := url.Values{
		"To":   {to},
		"From": {from},
		"Body": {body},
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		c.baseURL, url.PathEscape(c.accountSID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return eris.Wrap(err, "twilio: create request")
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "twilio: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		perr := &ProviderError{StatusCode: resp.StatusCode}
		var eresp errorResponse
		if json.Unmarshal(raw, &eresp) == nil && eresp.Message != "" {
			perr.Message = eresp.Message
		} else {
			perr.Message = http.StatusText(resp.StatusCode)
		}
		return perr
	}

	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
	return nil
}
