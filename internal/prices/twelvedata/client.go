// Package twelvedata fetches historical closes from the Twelve Data API.
package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/cleared-dev/networth/internal/model"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.twelvedata.com"

const dateLayout = "2006-01-02"

// ClientOptions configures a Client. Zero fields take defaults.
type ClientOptions struct {
	APIKey          string
	BaseURL         string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	InitialInterval time.Duration
	MaxRetryTime    time.Duration
}

// Client is a rate-limited, retrying Twelve Data client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	opts    ClientOptions
	logger  zerolog.Logger
}

// NewClient creates a Client.
func NewClient(opts ClientOptions) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.MaxRetryTime == 0 {
		opts.MaxRetryTime = 30 * time.Second
	}

	return &Client{
		apiKey:  opts.APIKey,
		baseURL: opts.BaseURL,
		http:    &http.Client{Timeout: opts.RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		opts:    opts,
		logger:  log.With().Str("component", "twelvedata_client").Logger(),
	}
}

// StatusError is a non-200 HTTP response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return "non-200 status code: " + http.StatusText(e.StatusCode)
}

// APIError is an error payload returned with status "error".
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twelve data error %d: %s", e.Code, e.Message)
}

type timeSeriesResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Close    string `json:"close"`
	} `json:"values"`
}

// MonthlyCloses returns one close per month between start and end, oldest
// first.
func (c *Client) MonthlyCloses(ctx context.Context, symbol string, start, end time.Time) ([]model.PricePoint, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1month")
	q.Set("start_date", start.Format(dateLayout))
	q.Set("end_date", end.Format(dateLayout))
	q.Set("order", "ASC")
	q.Set("apikey", c.apiKey)

	c.logger.Debug().Str("symbol", symbol).Time("start", start).Time("end", end).Msg("Fetching monthly closes")

	body, err := c.get(ctx, c.baseURL+"/time_series?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var data timeSeriesResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Msg("Error parsing JSON")
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if data.Status == "error" {
		return nil, &APIError{Code: data.Code, Message: data.Message}
	}

	points := make([]model.PricePoint, 0, len(data.Values))
	for _, v := range data.Values {
		at, err := time.Parse(dateLayout, v.Datetime)
		if err != nil {
			return nil, fmt.Errorf("parsing datetime %q: %w", v.Datetime, err)
		}
		if v.Close == "" {
			points = append(points, model.Missing(at))
			continue
		}
		price, err := decimal.NewFromString(v.Close)
		if err != nil {
			return nil, fmt.Errorf("parsing close %q: %w", v.Close, err)
		}
		points = append(points, model.Observed(at, price))
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	c.logger.Debug().Int("count", len(points)).Msg("Fetched monthly closes")
	return points, nil
}

// get performs a GET, retrying 429 and 5xx responses. Every attempt,
// retries included, waits on the rate limiter.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			serr := &StatusError{StatusCode: resp.StatusCode}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				c.logger.Warn().Int("status", resp.StatusCode).Msg("Retrying request")
				return serr
			}
			return backoff.Permanent(serr)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialInterval
	b.MaxElapsedTime = c.opts.MaxRetryTime

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	return body, nil
}
