package guide

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/brickguide/internal/options"
)

// Analyzer defines the calls the application makes against the analysis
// service. It is implemented by *Client and can be faked in tests.
type Analyzer interface {
	Analyze(ctx context.Context, opts options.AnalyzeOptions, src AnalyzeSource) (*Payload, error)
	GenerateSteps(ctx context.Context, req StepsRequest) ([]Step, error)
}

// Ensure Client implements Analyzer at compile time.
var _ Analyzer = (*Client)(nil)

const defaultAttemptTimeout = 20 * time.Second

// Options tune a Client. Zero values select defaults.
type Options struct {
	HTTPClient *http.Client
	UserAgent  string
	Timeout    time.Duration // per attempt
	Retry      RetryPolicy
	Logger     *log.Logger
}

// Client talks to the guide analysis HTTP API.
type Client struct {
	baseURL *url.URL
	exec    *Executor
	retrier Retrier
	timeout time.Duration
	logger  *log.Logger
}

// NewClient builds a Client for the service rooted at baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	base, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	c := &Client{
		baseURL: base,
		exec:    NewExecutor(opts.HTTPClient, opts.UserAgent),
		timeout: timeout,
		logger:  logger,
	}
	c.retrier = Retrier{
		Policy: opts.Retry,
		OnRetry: func(ev RetryEvent) {
			c.logger.Printf("attempt %d/%d failed: %v; retrying in %s", ev.Attempt, ev.MaxAttempts, ev.Err, ev.Delay.Round(time.Millisecond))
		},
	}
	return c, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL.String()
}

// Analyze uploads an image, or references a prior analysis, and returns the
// guide payload.
func (c *Client) Analyze(ctx context.Context, opts options.AnalyzeOptions, src AnalyzeSource) (*Payload, error) {
	if c == nil {
		return nil, newError(KindClientError, 0, "client is nil", nil)
	}
	env, err := NewAnalyzeEnvelope(opts, src)
	if err != nil {
		return nil, newError(KindClientError, 0, err.Error(), err)
	}
	raw, err := c.send(ctx, env)
	if err != nil {
		return nil, err
	}
	return DecodePayload(raw)
}

// GenerateSteps turns a prior analysis into ordered construction steps.
func (c *Client) GenerateSteps(ctx context.Context, req StepsRequest) ([]Step, error) {
	if c == nil {
		return nil, newError(KindClientError, 0, "client is nil", nil)
	}
	env, err := NewStepsEnvelope(req)
	if err != nil {
		return nil, newError(KindClientError, 0, err.Error(), err)
	}
	raw, err := c.send(ctx, env)
	if err != nil {
		return nil, err
	}
	return ParseSteps(raw)
}

func (c *Client) send(ctx context.Context, env Envelope) (json.RawMessage, error) {
	target := c.baseURL.JoinPath(env.Path).String()
	started := time.Now()
	raw, err := c.retrier.Do(ctx, func(ctx context.Context) (json.RawMessage, error) {
		return c.exec.Execute(ctx, target, env, c.timeout)
	})
	if err != nil {
		if !IsCancelled(err) {
			c.logger.Printf("%s %s failed after %s: %v", env.Method, env.Path, time.Since(started).Round(time.Millisecond), err)
		}
		return nil, err
	}
	c.logger.Printf("%s %s ok in %s (%d bytes)", env.Method, env.Path, time.Since(started).Round(time.Millisecond), len(raw))
	return raw, nil
}

// ParseBaseURL validates an absolute http(s) service URL. Query and fragment
// are dropped; a path prefix is kept without its trailing slash.
func ParseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("api base url is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api base url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api base url %q has no host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
