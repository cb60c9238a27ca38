// Package flights looks up live flight status from an upstream JSON API. The
// presentation layer polls it; the itinerary core never calls it.
package flights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultRequestTimeout = 10 * time.Second

var (
	errMissingBaseURL = errors.New("flight status base url required")
	// ErrInvalidFlightQuery rejects lookups without airline or flight number.
	ErrInvalidFlightQuery = errors.New("flights: invalid flight query")
	// ErrStatusUnavailable wraps upstream failures.
	ErrStatusUnavailable = errors.New("flights: status unavailable")
)

// Status is the upstream's view of one flight on one date.
type Status struct {
	Status          string `json:"status"`
	Gate            string `json:"gate"`
	Terminal        string `json:"terminal"`
	DelayMinutes    int    `json:"delay_minutes"`
	ActualDeparture string `json:"actual_departure"`
	ActualArrival   string `json:"actual_arrival"`
}

// ClientConfig bundles configuration required to instantiate a Client.
type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client fetches flight status over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs a client with validated configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}, nil
}

// GetFlightStatus fetches the status of airline+flightNumber on date
// (YYYY-MM-DD, optional).
func (c *Client) GetFlightStatus(ctx context.Context, airline, flightNumber, date string) (Status, error) {
	airline = strings.TrimSpace(airline)
	flightNumber = strings.TrimSpace(flightNumber)
	if airline == "" || flightNumber == "" {
		return Status{}, ErrInvalidFlightQuery
	}

	endpoint := fmt.Sprintf("%s/flights/%s/%s", c.baseURL, url.PathEscape(airline), url.PathEscape(flightNumber))
	if date != "" {
		endpoint += "?date=" + url.QueryEscape(date)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrStatusUnavailable, err)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		c.logger.Warn("flight status fetch failed",
			zap.String("airline", airline),
			zap.String("flight_number", flightNumber),
			zap.Error(err))
		return Status{}, fmt.Errorf("%w: %v", ErrStatusUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		c.logger.Warn("flight status fetch returned non-200",
			zap.String("airline", airline),
			zap.String("flight_number", flightNumber),
			zap.Int("status_code", response.StatusCode))
		return Status{}, fmt.Errorf("%w: upstream status %d", ErrStatusUnavailable, response.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(response.Body).Decode(&status); err != nil {
		return Status{}, fmt.Errorf("%w: decode: %v", ErrStatusUnavailable, err)
	}
	return status, nil
}
