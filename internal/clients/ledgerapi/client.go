// Package ledgerapi provides a client for the remote ledger API
package ledgerapi

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

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/moneta/internal/common"
	"github.com/bobmcallan/moneta/internal/interfaces"
	"github.com/bobmcallan/moneta/internal/models"
)

const (
	DefaultBaseURL   = "https://api.moneta.local"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second

	dateLayout = "2006-01-02"
)

// Client implements the LedgerAPIClient interface
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new ledger API client
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents a remote API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledger API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// checkToken fails fast when the bearer token is a JWT that has
// already expired, saving a doomed round trip.
func (c *Client) checkToken() error {
	if strings.Count(c.token, ".") != 2 {
		return nil // opaque token, nothing to inspect
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return common.Unauthorized("bearer token expired")
	}
	return nil
}

// do performs a rate-limited request and decodes the JSON response.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	if err := c.checkToken(); err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return common.Network("rate limit wait", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("Ledger API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return common.Network("remote ledger unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(data)),
			Endpoint:   path,
		}
		return mapStatus(apiErr)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return common.Server("failed to decode response", err)
	}
	return nil
}

// mapStatus folds HTTP status codes onto the error taxonomy.
func mapStatus(apiErr *APIError) error {
	switch {
	case apiErr.StatusCode == http.StatusNotFound:
		return &common.AppError{Code: common.ErrCodeNotFound, Message: apiErr.Message, Err: apiErr}
	case apiErr.StatusCode == http.StatusConflict:
		return &common.AppError{Code: common.ErrCodeConflict, Message: apiErr.Message, Err: apiErr}
	case apiErr.StatusCode == http.StatusBadRequest:
		return &common.AppError{Code: common.ErrCodeValidation, Message: apiErr.Message, Err: apiErr}
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return &common.AppError{Code: common.ErrCodeUnauthorized, Message: apiErr.Message, Err: apiErr}
	case apiErr.StatusCode >= 500:
		return &common.AppError{Code: common.ErrCodeServer, Message: apiErr.Message, Err: apiErr}
	default:
		return &common.AppError{Code: common.ErrCodeServer, Message: apiErr.Message, Err: apiErr}
	}
}

// wireEntry is the remote representation of a ledger entry.
type wireEntry struct {
	ID                  string          `json:"id"`
	Kind                string          `json:"kind"`
	Amount              decimal.Decimal `json:"amount"`
	Title               string          `json:"title,omitempty"`
	Description         string          `json:"description"`
	Date                string          `json:"date"`
	CategoryID          string          `json:"category_id"`
	AccountID           string          `json:"account_id,omitempty"`
	CardID              string          `json:"card_id,omitempty"`
	PaymentMethod       string          `json:"payment_method,omitempty"`
	LaunchType          string          `json:"launch_type"`
	SeriesTotal         int             `json:"series_total,omitempty"`
	SequenceIndex       int             `json:"sequence_index"`
	RecurrenceCadence   string          `json:"recurrence_cadence,omitempty"`
	ValuePerInstallment bool            `json:"value_per_installment,omitempty"`
	ParentID            string          `json:"parent_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

func (w *wireEntry) toModel() (*models.LedgerEntry, error) {
	date, err := time.Parse(dateLayout, w.Date)
	if err != nil {
		// Some deployments return full timestamps
		date, err = time.Parse(time.RFC3339, w.Date)
		if err != nil {
			return nil, common.Server(fmt.Sprintf("unparseable entry date '%s'", w.Date), err)
		}
	}
	return &models.LedgerEntry{
		ID:                  w.ID,
		Kind:                models.EntryKind(w.Kind),
		Amount:              w.Amount,
		Title:               w.Title,
		Description:         w.Description,
		Date:                date,
		CategoryID:          w.CategoryID,
		AccountID:           w.AccountID,
		CardID:              w.CardID,
		PaymentMethod:       models.PaymentMethod(w.PaymentMethod),
		LaunchType:          models.LaunchType(w.LaunchType),
		SeriesTotal:         w.SeriesTotal,
		SequenceIndex:       w.SequenceIndex,
		RecurrenceCadence:   models.Cadence(w.RecurrenceCadence),
		ValuePerInstallment: w.ValuePerInstallment,
		ParentID:            w.ParentID,
		CreatedAt:           w.CreatedAt,
		UpdatedAt:           w.UpdatedAt,
	}, nil
}

func toModels(wires []wireEntry) ([]*models.LedgerEntry, error) {
	entries := make([]*models.LedgerEntry, 0, len(wires))
	for i := range wires {
		e, err := wires[i].toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type createRequest struct {
	Kind                string          `json:"kind"`
	Amount              decimal.Decimal `json:"amount"`
	Title               string          `json:"title,omitempty"`
	Description         string          `json:"description"`
	Date                string          `json:"date"`
	CategoryID          string          `json:"category_id"`
	AccountID           string          `json:"account_id,omitempty"`
	CardID              string          `json:"card_id,omitempty"`
	PaymentMethod       string          `json:"payment_method,omitempty"`
	LaunchType          string          `json:"launch_type"`
	SeriesTotal         int             `json:"series_total,omitempty"`
	ValuePerInstallment bool            `json:"value_per_installment,omitempty"`
	RecurrenceCadence   string          `json:"recurrence_cadence,omitempty"`
}

type createResponse struct {
	CreatedEntries []wireEntry `json:"created_entries"`
}

// CreateEntries submits one transaction request; the server expands it
// and returns every created row.
func (c *Client) CreateEntries(ctx context.Context, req *models.LedgerRequest) ([]*models.LedgerEntry, error) {
	body := createRequest{
		Kind:                string(req.Kind),
		Amount:              req.Amount,
		Title:               req.Title,
		Description:         req.Description,
		Date:                req.Date.Format(dateLayout),
		CategoryID:          req.CategoryID,
		AccountID:           req.Source.AccountID,
		CardID:              req.Source.CardID,
		PaymentMethod:       string(req.PaymentMethod),
		LaunchType:          string(req.Launch.Type),
		SeriesTotal:         req.Launch.Count,
		ValuePerInstallment: req.Launch.ValuePerInstallment,
		RecurrenceCadence:   string(req.Launch.Cadence),
	}

	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/v1/entries", body, &resp); err != nil {
		return nil, err
	}
	return toModels(resp.CreatedEntries)
}

type listResponse struct {
	Entries    []wireEntry           `json:"entries"`
	Pagination interfaces.Pagination `json:"pagination"`
}

// ListEntries pages through the remote collection.
func (c *Client) ListEntries(ctx context.Context, opts interfaces.ListOptions) ([]*models.LedgerEntry, *interfaces.Pagination, error) {
	params := url.Values{}
	if opts.Page > 0 {
		params.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Kind != "" {
		params.Set("kind", string(opts.Kind))
	}
	if opts.CategoryID != "" {
		params.Set("category_id", opts.CategoryID)
	}
	if opts.AccountID != "" {
		params.Set("account_id", opts.AccountID)
	}
	if opts.CardID != "" {
		params.Set("card_id", opts.CardID)
	}
	if opts.LaunchType != "" {
		params.Set("launch_type", string(opts.LaunchType))
	}
	if opts.StartDate != "" {
		params.Set("start_date", opts.StartDate)
	}
	if opts.EndDate != "" {
		params.Set("end_date", opts.EndDate)
	}

	path := "/v1/entries"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, nil, err
	}
	entries, err := toModels(resp.Entries)
	if err != nil {
		return nil, nil, err
	}
	return entries, &resp.Pagination, nil
}

type updateRequest struct {
	*models.EntryPatch
	ApplyToWholeSeries bool `json:"apply_to_whole_series,omitempty"`
}

type updateResponse struct {
	Entry   *wireEntry  `json:"entry,omitempty"`
	Entries []wireEntry `json:"entries,omitempty"`
}

// UpdateEntry patches one entry, or the whole series when wholeSeries
// is set. The response carries the canonical rows.
func (c *Client) UpdateEntry(ctx context.Context, id string, patch *models.EntryPatch, wholeSeries bool) ([]*models.LedgerEntry, error) {
	body := updateRequest{EntryPatch: patch, ApplyToWholeSeries: wholeSeries}

	var resp updateResponse
	if err := c.do(ctx, http.MethodPut, "/v1/entries/"+url.PathEscape(id), body, &resp); err != nil {
		return nil, err
	}
	if resp.Entry != nil {
		e, err := resp.Entry.toModel()
		if err != nil {
			return nil, err
		}
		return []*models.LedgerEntry{e}, nil
	}
	return toModels(resp.Entries)
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

// DeleteEntry removes one entry, or the whole series.
func (c *Client) DeleteEntry(ctx context.Context, id string, wholeSeries bool) error {
	path := "/v1/entries/" + url.PathEscape(id)
	if wholeSeries {
		path += "?apply_to_whole_series=true"
	}

	var resp deleteResponse
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return err
	}
	if !resp.Deleted {
		return common.Server("remote delete not confirmed", nil)
	}
	return nil
}

// Ping is the lightweight liveness probe. It bypasses the token check:
// reachability is the question, not authentication.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/ping", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return common.Network("remote ledger unreachable", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return common.Server(fmt.Sprintf("ping returned status %d", resp.StatusCode), nil)
	}
	return nil
}

// Ensure Client implements LedgerAPIClient
var _ interfaces.LedgerAPIClient = (*Client)(nil)
