// Package openweather provides a minimal client for the OpenWeatherMap
// current-weather API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Conditions is the subset of a current-weather response the pipeline uses.
type Conditions struct {
	// Main is the primary weather category, e.g. "Rain", "Clouds".
	Main string
	// Description is the human-readable condition, e.g. "light rain".
	Description string
	// TempC is the current temperature in degrees Celsius (units=metric).
	TempC float64
}

// Client fetches current weather conditions by coordinate.
type Client interface {
	Current(ctx context.Context, lat, lon float64) (Conditions, error)
}

// ProviderError is returned when the API answers with a non-2xx status. It
// carries the provider's own message so callers can surface it.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("openweather: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("openweather: status %d", e.StatusCode)
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
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an OpenWeatherMap client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// currentResponse mirrors the fields of GET /weather we care about.
type currentResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// errorResponse is the provider's error body shape.
type errorResponse struct {
	Message string `json:"message"`
}

// Current fetches current conditions for a coordinate with units=metric.
func (c *httpClient) Current(ctx context.Context, lat, lon float64) (Conditions, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Conditions{}, eris.Wrap(err, "openweather: rate limit wait")
		}
	}

	params := url.Values{
		"lat":   {fmt.Sprintf("%f", lat)},
		"lon":   {fmt.Sprintf("%f", lon)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		return Conditions{}, eris.Wrap(err, "openweather: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Conditions{}, eris.Wrap(err, "openweather: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		perr := &ProviderError{StatusCode: resp.StatusCode}
		var eresp errorResponse
		if json.Unmarshal(body, &eresp) == nil && eresp.Message != "" {
			perr.Message = eresp.Message
		} else {
			perr.Message = http.StatusText(resp.StatusCode)
		}
		return Conditions{}, perr
	}

	var cur currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&cur); err != nil {
		return Conditions{}, eris.Wrap(err, "openweather: decode response")
	}

	out := Conditions{TempC: cur.Main.Temp}
	if len(cur.Weather) > 0 {
		out.Main = cur.Weather[0].Main
		out.Description = cur.Weather[0].Description
	}
	return out, nil
}
