package twelvedata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{
		APIKey:          "test-key",
		BaseURL:         url,
		RequestsPerSec:  100,
		InitialInterval: 5 * time.Millisecond,
		MaxRetryTime:    time.Second,
	})
}

var (
	start = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
)

func TestMonthlyCloses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time_series", r.URL.Path)
		assert.Equal(t, "NSEI", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1month", r.URL.Query().Get("interval"))
		assert.Equal(t, "2023-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(`{"status":"ok","values":[
			{"datetime":"2023-03-01","close":"17359.75"},
			{"datetime":"2023-01-01","close":"17662.15"},
			{"datetime":"2023-02-01","close":""}
		]}`))
	}))
	defer srv.Close()

	points, err := newTestClient(srv.URL).MonthlyCloses(context.Background(), "NSEI", start, end)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), points[0].Date, "sorted oldest first")
	assert.True(t, points[0].Price.Decimal.Equal(decimal.RequireFromString("17662.15")))
	assert.False(t, points[1].Price.Valid)
	assert.True(t, points[2].Price.Valid)
}

func TestMonthlyCloses_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":400,"message":"symbol not found","status":"error"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).MonthlyCloses(context.Background(), "NOPE", start, end)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.Contains(t, err.Error(), "symbol not found")
}

func TestMonthlyCloses_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","values":[{"datetime":"2023-01-01","close":"1"}]}`))
	}))
	defer srv.Close()

	points, err := newTestClient(srv.URL).MonthlyCloses(context.Background(), "NSEI", start, end)
	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMonthlyCloses_RetriesAreRateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","values":[]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		RequestsPerSec:  10,
		InitialInterval: time.Millisecond,
		MaxRetryTime:    5 * time.Second,
	})
	began := time.Now()
	_, err := c.MonthlyCloses(context.Background(), "NSEI", start, end)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	// Three attempts at 10/s with a burst of one span at least 200ms.
	assert.GreaterOrEqual(t, time.Since(began), 150*time.Millisecond)
}

func TestMonthlyCloses_CanceledWhileWaiting(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		RequestsPerSec:  1,
		InitialInterval: time.Millisecond,
		MaxRetryTime:    5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := c.MonthlyCloses(ctx, "NSEI", start, end)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "second attempt never leaves the limiter")
}

func TestMonthlyCloses_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).MonthlyCloses(context.Background(), "NSEI", start, end)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMonthlyCloses_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).MonthlyCloses(context.Background(), "NSEI", start, end)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing JSON")
}
