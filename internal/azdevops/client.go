package azdevops

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Afrawles/weekreport/internal/report"
)

const (
	DefaultBaseURL    = "https://dev.azure.com"
	DefaultAPIVersion = "7.0"
	DefaultTimeout    = 10 * time.Second

	endpointWIQL  = "wiql"
	endpointBatch = "workitemsbatch"

	maxErrorBody = 4096
)

// Client queries the Azure DevOps work item tracking API. It holds no
// credentials; every call takes the caller's Settings.
type Client struct {
	baseURL    string
	apiVersion string
	timeout    time.Duration
	limiter    *rate.Limiter
	retrier    *Retrier
	logger     *slog.Logger
	metrics    *Metrics
	now        func() time.Time
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithAPIVersion(v string) Option {
	return func(c *Client) { c.apiVersion = v }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit paces outbound requests. A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithRetrier(r *Retrier) Option {
	return func(c *Client) { c.retrier = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock overrides the clock used for the rolling active-task window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiVersion: DefaultAPIVersion,
		timeout:    DefaultTimeout,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		logger:     slog.Default(),
		metrics:    NewMetrics(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retrier == nil {
		c.retrier = NewRetrier(c.logger)
	}
	return c
}

var _ report.WorkItemSource = (*Client)(nil)

func (c *Client) Name() string {
	return "Azure DevOps"
}

// session is the short-lived outbound client of a single category fetch.
type session struct {
	settings report.Settings
	http     *http.Client
}

func (c *Client) newSession(s report.Settings) *session {
	return &session{
		settings: s,
		http: &http.Client{
			Timeout:   c.timeout,
			Transport: newTransport(),
		},
	}
}

func (s *session) close() {
	s.http.CloseIdleConnections()
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS13,
		// TLS 1.3 suites are fixed by crypto/tls; this list restricts 1.2.
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
		},
	}
	return t
}

func (c *Client) endpointURL(organization, endpoint string) string {
	return fmt.Sprintf("%s/%s/_apis/wit/%s?api-version=%s",
		c.baseURL, url.PathEscape(organization), endpoint, url.QueryEscape(c.apiVersion))
}

// postJSON sends body to endpoint through the retrier and decodes the answer
// into T. Decoding happens once, after the transport succeeded; a malformed
// body is not retried.
func postJSON[T any](ctx context.Context, c *Client, sess *session, endpoint string, body any) (T, error) {
	var out T

	data, err := retry(ctx, c.retrier, func(ctx context.Context) ([]byte, error) {
		data, err := c.post(ctx, sess, endpoint, body)
		if err != nil {
			c.metrics.FailedAttempts.WithLabelValues(endpoint).Inc()
		}
		return data, err
	})
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, endpoint, err)
	}
	return out, nil
}

// post performs a single request attempt and returns the response body.
func (c *Client) post(ctx context.Context, sess *session, endpoint string, body any) (data []byte, err error) {
	started := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
		c.metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpointURL(sess.settings.Organization, endpoint), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth("", sess.settings.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := sess.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}
