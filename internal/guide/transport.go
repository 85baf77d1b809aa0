package guide

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/five82/brickguide/internal/loose"
)

const (
	defaultUserAgent = "brickguide/0.1"
	maxResponseBytes = 32 << 20
)

// errAttemptTimeout is the cancel cause recorded when the per-attempt timer
// fires. It is set before the abort happens and read after the call returns,
// which separates our own timeout from cancellation by the caller.
var errAttemptTimeout = errors.New("attempt timed out")

// Executor performs exactly one HTTP exchange per call and classifies the
// outcome into the closed ErrorKind set.
type Executor struct {
	http      *http.Client
	userAgent string
	newID     func() string
}

// NewExecutor wraps httpClient. The client must not carry its own Timeout;
// Execute enforces the per-attempt budget itself.
func NewExecutor(httpClient *http.Client, userAgent string) *Executor {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	return &Executor{
		http:      httpClient,
		userAgent: userAgent,
		newID:     uuid.NewString,
	}
}

// Execute sends env to target within timeout. Cancelling ctx aborts the
// exchange with KindCancelled; the timer firing aborts it with KindTimeout.
// A successful result is a syntactically valid JSON object or array.
func (e *Executor) Execute(ctx context.Context, target string, env Envelope, timeout time.Duration) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(KindCancelled, 0, "request cancelled before it was sent", err)
	}

	attemptCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if timeout > 0 {
		timer := time.AfterFunc(timeout, func() { cancel(errAttemptTimeout) })
		defer timer.Stop()
	}

	req, err := http.NewRequestWithContext(attemptCtx, env.Method, target, env.Body())
	if err != nil {
		return nil, newError(KindClientError, 0, "could not build request", err)
	}
	req.ContentLength = int64(env.Len())
	if env.ContentType != "" {
		req.Header.Set("Content-Type", env.ContentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("X-Request-ID", e.newID())

	resp, err := e.http.Do(req)
	if err != nil {
		if aborted := abortError(attemptCtx, timeout); aborted != nil {
			return nil, aborted
		}
		return nil, newError(KindNetwork, 0, "could not reach the analysis service", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if aborted := abortError(attemptCtx, timeout); aborted != nil {
		return nil, aborted
	}
	if readErr != nil {
		return nil, newError(KindNetwork, resp.StatusCode, "connection dropped while reading the response", readErr)
	}
	if len(body) > maxResponseBytes {
		return nil, newError(KindInvalidResponse, resp.StatusCode, "response body too large", nil)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, newError(KindServerError, resp.StatusCode, errorMessage(body, resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return nil, newError(KindClientError, resp.StatusCode, errorMessage(body, resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, newError(KindInvalidResponse, resp.StatusCode, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') || !json.Valid(trimmed) {
		return nil, newError(KindInvalidResponse, resp.StatusCode, "response is not valid JSON", nil)
	}
	return json.RawMessage(trimmed), nil
}

// abortError classifies a cancelled attempt context, or returns nil when the
// attempt was not aborted.
func abortError(attemptCtx context.Context, timeout time.Duration) *Error {
	if attemptCtx.Err() == nil {
		return nil
	}
	cause := context.Cause(attemptCtx)
	if errors.Is(cause, errAttemptTimeout) {
		return newError(KindTimeout, 0, fmt.Sprintf("no response within %s", timeout), cause)
	}
	return newError(KindCancelled, 0, "request cancelled", cause)
}

// errorMessage pulls a human message out of the error body shapes the
// service has used: {detail}, {detail:[{msg}]}, {message}, {error} and
// {error:{message}}.
func errorMessage(body []byte, status int) string {
	var doc any
	if err := json.Unmarshal(body, &doc); err == nil {
		if s, ok := loose.FirstString(doc, "detail", "message", "error", "error.message", "error.detail"); ok {
			return s
		}
		if items, ok := loose.FirstList(doc, "detail"); ok {
			var parts []string
			for _, item := range items {
				if s, ok := loose.FirstString(item, "msg", "message"); ok {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
	}
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return fmt.Sprintf("request failed with status %d", status)
}
