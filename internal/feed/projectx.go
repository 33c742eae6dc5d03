package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/chanfade/chanfade/internal/core"
	"go.uber.org/zap"
)

var errUnauthorized = errors.New("unauthorized")

const (
	// Bar unit codes in the gateway API.
	unitSecond = 1
	unitMinute = 2
	unitHour   = 3
	unitDay    = 4

	// Tokens are valid for 24h; refresh with margin to spare.
	tokenLifetime = 23 * time.Hour
)

// Recorder observes API call outcomes. Satisfied by the metrics registry.
type Recorder interface {
	RecordFeedRequest(endpoint, status string, duration float64)
}

type nopRecorder struct{}

func (nopRecorder) RecordFeedRequest(string, string, float64) {}

// ProjectXClient talks to a ProjectX-compatible futures gateway.
type ProjectXClient struct {
	client   *http.Client
	baseURL  string
	username string
	apiKey   string
	logger   *zap.Logger
	recorder Recorder

	mu          sync.Mutex
	token       string
	tokenIssued time.Time
}

// ClientOption configures a ProjectXClient.
type ClientOption func(*ProjectXClient)

// WithClientLogger sets the client logger.
func WithClientLogger(l *zap.Logger) ClientOption {
	return func(c *ProjectXClient) { c.logger = l }
}

// WithRecorder sets the API call recorder.
func WithRecorder(r Recorder) ClientOption {
	return func(c *ProjectXClient) { c.recorder = r }
}

// NewProjectXClient creates a gateway client. Authentication is lazy: the
// first request logs in.
func NewProjectXClient(baseURL, username, apiKey string, opts ...ClientOption) *ProjectXClient {
	c := &ProjectXClient{
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURL:  baseURL,
		username: username,
		apiKey:   apiKey,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loginRequest struct {
	UserName string `json:"userName"`
	APIKey   string `json:"apiKey"`
}

type loginResponse struct {
	Token        string `json:"token"`
	Success      bool   `json:"success"`
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

type retrieveBarsRequest struct {
	ContractID        string    `json:"contractId"`
	Live              bool      `json:"live"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	Unit              int       `json:"unit"`
	UnitNumber        int       `json:"unitNumber"`
	Limit             int       `json:"limit"`
	IncludePartialBar bool      `json:"includePartialBar"`
}

type apiBar struct {
	T time.Time `json:"t"`
	O float64   `json:"o"`
	H float64   `json:"h"`
	L float64   `json:"l"`
	C float64   `json:"c"`
	V int64     `json:"v"`
}

type retrieveBarsResponse struct {
	Bars         []apiBar `json:"bars"`
	Success      bool     `json:"success"`
	ErrorCode    int      `json:"errorCode"`
	ErrorMessage string   `json:"errorMessage"`
}

// ensureToken logs in when the token is missing or stale. The lock is never
// held across the login request itself.
func (c *ProjectXClient) ensureToken(ctx context.Context) error {
	c.mu.Lock()
	fresh := c.token != "" && time.Since(c.tokenIssued) < tokenLifetime
	c.mu.Unlock()
	if fresh {
		return nil
	}

	var resp loginResponse
	if err := c.post(ctx, "/api/Auth/loginKey", "", loginRequest{
		UserName: c.username,
		APIKey:   c.apiKey,
	}, &resp); err != nil {
		return core.WrapError(core.ErrFeedAuth, err)
	}
	if !resp.Success || resp.Token == "" {
		return core.WrapError(core.ErrFeedAuth,
			fmt.Errorf("login rejected: code=%d message=%s", resp.ErrorCode, resp.ErrorMessage))
	}

	c.mu.Lock()
	c.token = resp.Token
	c.tokenIssued = time.Now()
	c.mu.Unlock()
	c.logger.Info("gateway authenticated", zap.String("username", c.username))
	return nil
}

// RetrieveBars fetches completed bars for the contract over [start, end), at
// the given minute interval, oldest first.
func (c *ProjectXClient) RetrieveBars(ctx context.Context, contractID string, start, end time.Time, intervalMinutes, limit int) ([]core.Bar, error) {
	if err := c.ensureToken(ctx); err != nil {
		return nil, err
	}

	var resp retrieveBarsResponse
	err := c.post(ctx, "/api/History/retrieveBars", c.currentToken(), retrieveBarsRequest{
		ContractID:        contractID,
		Live:              false,
		StartTime:         start,
		EndTime:           end,
		Unit:              unitMinute,
		UnitNumber:        intervalMinutes,
		Limit:             limit,
		IncludePartialBar: false,
	}, &resp)
	if err != nil {
		if errors.Is(err, errUnauthorized) {
			c.clearToken()
		}
		return nil, core.WrapError(core.ErrFeedFailed, err)
	}
	if !resp.Success {
		return nil, core.WrapError(core.ErrFeedFailed,
			fmt.Errorf("retrieveBars rejected: code=%d message=%s", resp.ErrorCode, resp.ErrorMessage))
	}

	bars := make([]core.Bar, 0, len(resp.Bars))
	for _, b := range resp.Bars {
		bars = append(bars, core.Bar{
			Time:   b.T,
			Open:   b.O,
			High:   b.H,
			Low:    b.L,
			Close:  b.C,
			Volume: b.V,
			Source: "projectx",
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// Quote returns the latest traded price, derived from the current partial
// bar. The gateway has no lightweight quote endpoint.
func (c *ProjectXClient) Quote(ctx context.Context, contractID string) (Quote, error) {
	if err := c.ensureToken(ctx); err != nil {
		return Quote{}, err
	}

	now := time.Now().UTC()
	var resp retrieveBarsResponse
	err := c.post(ctx, "/api/History/retrieveBars", c.currentToken(), retrieveBarsRequest{
		ContractID:        contractID,
		Live:              true,
		StartTime:         now.Add(-5 * time.Minute),
		EndTime:           now,
		Unit:              unitMinute,
		UnitNumber:        1,
		Limit:             5,
		IncludePartialBar: true,
	}, &resp)
	if err != nil {
		if errors.Is(err, errUnauthorized) {
			c.clearToken()
		}
		return Quote{}, core.WrapError(core.ErrFeedFailed, err)
	}
	if !resp.Success || len(resp.Bars) == 0 {
		return Quote{}, core.WrapError(core.ErrNoData,
			fmt.Errorf("no quote data for %s", contractID))
	}

	latest := resp.Bars[0]
	for _, b := range resp.Bars[1:] {
		if b.T.After(latest.T) {
			latest = b
		}
	}
	return Quote{
		Symbol: contractID,
		Price:  latest.C,
		Volume: latest.V,
		Time:   latest.T,
	}, nil
}

func (c *ProjectXClient) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *ProjectXClient) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenIssued = time.Time{}
	c.mu.Unlock()
}

// post sends a JSON request and decodes the JSON response. A 401 surfaces as
// errUnauthorized; the caller drops its token so the next ensureToken
// re-authenticates. post itself never touches c.mu, so it is safe to call
// while a login is in flight.
func (c *ProjectXClient) post(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(start).Seconds()
	if err != nil {
		c.recorder.RecordFeedRequest(path, "error", duration)
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()
	c.recorder.RecordFeedRequest(path, strconv.Itoa(resp.StatusCode), duration)

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", path, errUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
