// Package client provides the HTTP client for the public drug information
// services, with quota tracking, caching, and error handling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/medimatch/medimatch/pkg/cache"
	"github.com/medimatch/medimatch/pkg/ratelimit"
)

// Prometheus metrics for upstream client operations.
var (
	upstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medimatch_upstream_requests_total",
		Help: "Total upstream requests by endpoint and status",
	}, []string{"endpoint", "status"})

	upstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medimatch_upstream_request_duration_seconds",
		Help:    "Upstream request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	upstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medimatch_upstream_errors_total",
		Help: "Total upstream errors by class",
	}, []string{"class"})

	upstreamSharedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medimatch_upstream_shared_total",
		Help: "Total calls answered by an identical in-flight request",
	})
)

// DefaultBaseURL is the base URL of the MFDS services on data.go.kr.
const DefaultBaseURL = "http://apis.data.go.kr/1471000/"

// reasonCodeLimitExceeded is the returnReasonCode for "LIMITED NUMBER OF
// SERVICE REQUESTS EXCEEDS ERROR".
const reasonCodeLimitExceeded = "22"

// Client is the upstream API client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	quota      *ratelimit.Tracker
	cache      *cache.Manager
	inflight   singleflight.Group
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the upstream services
	BaseURL string

	// ServiceKey issued by data.go.kr (REQUIRED). Both the decoded and the
	// URL-encoded form of the key are accepted.
	ServiceKey string

	// User-Agent header
	UserAgent string

	// Timeout per upstream attempt
	Timeout time.Duration

	// Cache stores successful responses; nil disables caching
	Cache *cache.Manager

	// CacheTTL is how long responses stay cached
	CacheTTL time.Duration

	// Quota gates requests on the daily allowance; nil disables the gate
	Quota *ratelimit.Tracker

	// Retry
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(serviceKey string) Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		ServiceKey: serviceKey,
		UserAgent:  "medimatch/1.0",
		Timeout:    30 * time.Second,
		CacheTTL:   cache.DefaultTTL,
		Retry:      DefaultRetryConfig(),
	}
}

// New creates a new upstream client.
func New(cfg Config) (*Client, error) {
	if cfg.ServiceKey == "" {
		return nil, fmt.Errorf("service key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	logger := log.With().Str("component", "upstream-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		quota:   cfg.Quota,
		cache:   cfg.Cache,
		config:  cfg,
		logger:  logger,
	}, nil
}

// result is an upstream response read into memory so it can be handed to
// every caller sharing one in-flight request.
type result struct {
	status int
	header http.Header
	body   []byte

	// cacheable is set for envelopes carrying a normal result code.
	cacheable bool
}

func (r *result) response() *http.Response {
	header := r.header.Clone()
	header.Set(cache.HeaderCache, "MISS")
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", r.status, http.StatusText(r.status)),
		StatusCode:    r.status,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(r.body)),
		ContentLength: int64(len(r.body)),
	}
}

// Get performs a GET request against an endpoint relative to the base URL.
// The service key is added to params. Cached responses are served without
// touching upstream; identical concurrent calls share one upstream request.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	key := cache.CacheKey{Endpoint: endpoint, Params: params}

	if c.cache != nil {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			c.logger.Debug().Str("endpoint", endpoint).Dur("age", entry.Age()).Msg("Serving cached response")
			upstreamRequestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
			return cache.EntryToResponse(entry), nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	// The shared request must outlive a caller that gives up early.
	ch := c.inflight.DoChan(key.String(), func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), endpoint, params, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			upstreamSharedTotal.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*result).response(), nil
	}
}

// fetch performs the upstream call with retries and caches a successful
// response.
func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values, key cache.CacheKey) (*result, error) {
	startTime := time.Now()
	defer func() {
		upstreamRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("cache_key", key.String()).
		Msg("Executing upstream request")

	var res *result
	err := retryWithBackoff(ctx, c.config.Retry, classifyForRetry, func() error {
		var attemptErr error
		res, attemptErr = c.attempt(ctx, endpoint, params)
		return attemptErr
	})
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("Upstream request failed")
		return nil, err
	}

	if c.cache != nil && res.cacheable {
		entry := &cache.CacheEntry{
			Data:       res.body,
			StatusCode: res.status,
			Headers:    http.Header{"Content-Type": res.header.Values("Content-Type")},
			CachedAt:   time.Now(),
			Expires:    time.Now().Add(c.config.CacheTTL),
		}
		if err := c.cache.Set(ctx, key, entry); err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Dur("ttl", c.config.CacheTTL).
				Msg("Cached response")
		}
	}

	return res, nil
}

// attempt performs one upstream request. Every failure is returned as an
// *UpstreamError.
func (c *Client) attempt(ctx context.Context, endpoint string, params url.Values) (*result, error) {
	if c.quota != nil {
		allowed, err := c.quota.Allow(ctx)
		if err != nil {
			// Redis trouble must not take the service down with it.
			c.logger.Warn().Err(err).Msg("Quota check failed, allowing request")
		} else if !allowed {
			upstreamRequestsTotal.WithLabelValues(endpoint, "quota_blocked").Inc()
			return nil, &UpstreamError{
				ErrorClass: ErrorClassRateLimit,
				Message:    "request blocked by daily quota",
				Err:        ErrQuotaExhausted,
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(endpoint, params), nil)
	if err != nil {
		return nil, &UpstreamError{ErrorClass: ErrorClassClient, Message: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		upstreamRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		return nil, &UpstreamError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	upstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 400 {
		errClass := classifyStatus(resp.StatusCode)
		upstreamErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Upstream request error")
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    snippet(body),
		}
	}

	if doc, ok := parseErrorDocument(resp.Header, body); ok {
		return nil, c.documentError(ctx, endpoint, resp.StatusCode, doc)
	}

	hdr, ok := parseResultHeader(body)
	if ok && !normalResultCode(hdr.ResultCode) {
		upstreamErrorsTotal.WithLabelValues(string(ErrorClassUpstream)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Str("result_code", hdr.ResultCode).
			Str("result_msg", hdr.ResultMsg).
			Msg("Upstream returned a non-normal result code")
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassUpstream,
			ResultCode: hdr.ResultCode,
			Message:    hdr.ResultMsg,
		}
	}

	return &result{status: resp.StatusCode, header: resp.Header.Clone(), body: body, cacheable: ok}, nil
}

// documentError converts an upstream error document into an UpstreamError.
// A "request limit exceeded" document also marks the daily quota exhausted.
func (c *Client) documentError(ctx context.Context, endpoint string, status int, doc *errorDocument) error {
	upErr := &UpstreamError{
		StatusCode: status,
		ErrorClass: ErrorClassUpstream,
		ResultCode: doc.Header.ReasonCode,
		Message:    doc.Header.AuthMsg,
	}
	if upErr.Message == "" {
		upErr.Message = doc.Header.ErrMsg
	}

	if doc.Header.ReasonCode == reasonCodeLimitExceeded {
		upErr.ErrorClass = ErrorClassRateLimit
		upErr.Err = ErrQuotaExhausted
		if c.quota != nil {
			if err := c.quota.MarkExhausted(ctx); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to record exhausted quota")
			}
		}
	}

	upstreamErrorsTotal.WithLabelValues(string(upErr.ErrorClass)).Inc()
	c.logger.Warn().
		Str("endpoint", endpoint).
		Str("reason_code", upErr.ResultCode).
		Str("error_class", string(upErr.ErrorClass)).
		Msg("Upstream returned an error document")
	return upErr
}

// requestURL joins the base URL, endpoint and query. A service key that is
// already URL-encoded is appended verbatim so it is not encoded twice.
func (c *Client) requestURL(endpoint string, params url.Values) string {
	u := c.baseURL.JoinPath(strings.TrimPrefix(endpoint, "/"))

	query := url.Values{}
	for name, values := range params {
		query[name] = append([]string(nil), values...)
	}

	key := c.config.ServiceKey
	if strings.Contains(key, "%") {
		raw := query.Encode()
		if raw != "" {
			raw += "&"
		}
		u.RawQuery = raw + "serviceKey=" + key
	} else {
		query.Set("serviceKey", key)
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// classifyStatus categorizes an HTTP error status.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// errorDocument is the XML body data.go.kr returns for gateway errors such
// as an unregistered key or an exceeded request limit.
type errorDocument struct {
	XMLName xml.Name `xml:"OpenAPI_ServiceResponse"`
	Header  struct {
		ErrMsg     string `xml:"errMsg"`
		AuthMsg    string `xml:"returnAuthMsg"`
		ReasonCode string `xml:"returnReasonCode"`
	} `xml:"cmmMsgHeader"`
}

// parseErrorDocument reports whether body is an upstream error document.
func parseErrorDocument(header http.Header, body []byte) (*errorDocument, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		if !strings.Contains(header.Get("Content-Type"), "xml") {
			return nil, false
		}
	}

	var doc errorDocument
	if err := xml.Unmarshal(trimmed, &doc); err != nil {
		return nil, false
	}
	if doc.Header.ReasonCode == "" && doc.Header.ErrMsg == "" {
		return nil, false
	}
	return &doc, true
}

// Result codes of a successful call. "03" (no data) is an empty result.
const (
	resultCodeNormal = "00"
	resultCodeNoData = "03"
)

func normalResultCode(code string) bool {
	return code == "" || code == resultCodeNormal || code == resultCodeNoData
}

// resultHeader is the header of a JSON or XML response envelope.
type resultHeader struct {
	ResultCode string `json:"resultCode" xml:"resultCode"`
	ResultMsg  string `json:"resultMsg" xml:"resultMsg"`
}

// parseResultHeader decodes the envelope header of body. It reports false
// when body is neither a JSON object nor an XML <response> document.
func parseResultHeader(body []byte) (resultHeader, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return resultHeader{}, false
	}

	switch trimmed[0] {
	case '{':
		var env struct {
			Header resultHeader `json:"header"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return resultHeader{}, false
		}
		return env.Header, true
	case '<':
		var env struct {
			XMLName xml.Name     `xml:"response"`
			Header  resultHeader `xml:"header"`
		}
		if err := xml.Unmarshal(trimmed, &env); err != nil {
			return resultHeader{}, false
		}
		return env.Header, true
	}
	return resultHeader{}, false
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

// Close closes the client and releases resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, nil when caching is disabled.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
