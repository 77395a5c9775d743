package quandl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/sv650s/springboard/internal/contracts"
	"github.com/sv650s/springboard/pkg/config"
	"github.com/sv650s/springboard/pkg/httputil"
	"github.com/sv650s/springboard/pkg/logger"
)

// Supported response formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ErrMalformedResponse is returned when a 200 response lacks dataset_data
var ErrMalformedResponse = errors.New("malformed dataset response")

// APIError is a non-200 answer from the dataset API
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("quandl API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("quandl API error %d", e.StatusCode)
}

// Fetcher retrieves one dataset
type Fetcher interface {
	FetchDataset(ctx context.Context, req Request) (*contracts.Dataset, error)
}

// Client handles communication with the Quandl dataset API
// ⭐ SSOT: Quandl calls are made from this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
}

// NewClient creates a new Quandl client
func NewClient(httpClient *httputil.Client, cfg config.QuandlConfig, log *logger.Logger) *Client {
	perSecond := cfg.RateLimit
	if perSecond <= 0 {
		perSecond = 1
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), perSecond),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
	}
}

// DefaultRequest builds a request from the configured dataset defaults
func DefaultRequest(cfg config.QuandlConfig, startDate, endDate string) Request {
	return Request{
		Database:  cfg.Database,
		Ticker:    cfg.Ticker,
		StartDate: startDate,
		EndDate:   endDate,
		Order:     cfg.Order,
		Format:    cfg.Format,
	}
}

// FetchDataset downloads and decodes the rows of one dataset
func (c *Client) FetchDataset(ctx context.Context, req Request) (*contracts.Dataset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.httpClient.Get(ctx, req.URL(c.baseURL, c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var ds *contracts.Dataset
	switch req.Format {
	case FormatCSV:
		ds, err = parseCSV(body)
	default:
		ds, err = parseJSON(body)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s response failed: %w", req.Format, err)
	}

	ds.DatabaseCode = req.Database
	ds.TickerCode = req.Ticker
	if ds.Order == "" {
		ds.Order = req.Order
	}

	c.logger.WithFields(map[string]interface{}{
		"database": req.Database,
		"ticker":   req.Ticker,
		"count":    ds.Len(),
	}).Debug("Fetched dataset")

	return ds, nil
}

// parseJSON decodes a {"dataset_data": {...}} body
func parseJSON(body []byte) (*contracts.Dataset, error) {
	var payload struct {
		DatasetData *contracts.Dataset `json:"dataset_data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.DatasetData == nil {
		return nil, ErrMalformedResponse
	}
	if len(payload.DatasetData.ColumnNames) == 0 {
		return nil, fmt.Errorf("%w: no column names", ErrMalformedResponse)
	}
	return payload.DatasetData, nil
}

// parseAPIError decodes {"quandl_error": {"code": ..., "message": ...}} when present
func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		QuandlError struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"quandl_error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Code = payload.QuandlError.Code
		apiErr.Message = payload.QuandlError.Message
	}
	return apiErr
}
