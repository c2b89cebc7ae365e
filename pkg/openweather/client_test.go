package openweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent_Success(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"lat":   r.URL.Query().Get("lat"),
			"lon":   r.URL.Query().Get("lon"),
			"appid": r.URL.Query().Get("appid"),
			"units": r.URL.Query().Get("units"),
		}
		assert.Equal(t, "/weather", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"weather": [{"main": "Rain", "description": "light rain"}],
			"main": {"temp": 24.6}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	cond, err := c.Current(context.Background(), 12.9, 77.6)
	require.NoError(t, err)

	assert.Equal(t, "Rain", cond.Main)
	assert.Equal(t, "light rain", cond.Description)
	assert.InDelta(t, 24.6, cond.TempC, 0.001)

	assert.Equal(t, "test-key", gotQuery["appid"])
	assert.Equal(t, "metric", gotQuery["units"])
	assert.Contains(t, gotQuery["lat"], "12.9")
	assert.Contains(t, gotQuery["lon"], "77.6")
}

func TestCurrent_EmptyConditionList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"weather": [], "main": {"temp": 18.0}}`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	cond, err := c.Current(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, cond.Main)
	assert.Empty(t, cond.Description)
	assert.InDelta(t, 18.0, cond.TempC, 0.001)
}

func TestCurrent_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"cod": 401, "message": "Invalid API key"}`))
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.Current(context.Background(), 1, 1)
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
	assert.Equal(t, "Invalid API key", perr.Message)
	assert.Contains(t, perr.Error(), "Invalid API key")
}

func TestCurrent_ProviderErrorWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Current(context.Background(), 1, 1)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusBadGateway, perr.StatusCode)
	assert.Equal(t, "Bad Gateway", perr.Message)
}

func TestCurrent_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.Current(context.Background(), 1, 1)
	require.Error(t, err)

	var perr *ProviderError
	assert.False(t, errors.As(err, &perr), "transport errors must not be ProviderError")
}
