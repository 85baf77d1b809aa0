// Package guide provides the HTTP client for the brick guide analysis service.
//
// # Overview
//
// The analysis service accepts an image plus options and answers with a JSON
// guide: a summary, a mosaic of colored cells, a palette and construction
// groups. A second endpoint turns a previous analysis into ordered steps.
// This package builds those requests, sends them with bounded retries and
// normalizes every failure into one closed set of error kinds.
//
// # Architecture
//
//   - envelope.go: request bodies, including duplicated legacy field names
//   - transport.go: Executor, one timeout-bounded HTTP exchange per call
//   - retry.go: Retrier, exponential backoff with jitter for transient failures
//   - client.go: Client, the Analyzer implementation used by the app
//   - payload.go: tolerant accessors over the guide document
//   - errors.go: Error and ErrorKind, plus user-facing messages
//
// # Endpoints
//
//   - POST /api/guide/analyze: multipart form with an "image" file part or an
//     "analysisId" field, plus options
//   - POST /api/guide/steps: JSON {analysisId, brickTypes, optimize}
//
// # Request Bodies
//
// Service deployments have read options under different names over time.
// The analyze form therefore carries every value several ways:
//
//   - an "options" field holding JSON with camelCase and snake_case keys
//   - flat gridSize/grid_size, colorLimit/color_limit, brickMode/brick_mode
//   - brickTypes/brick_types as JSON arrays
//   - one brickType and one brick_type field per identifier
//
// Envelopes hold their body as bytes so a retry re-sends the same request.
//
// # Error Handling
//
// Every error returned from Executor, Retrier and Client is an *Error with
// exactly one Kind:
//
//   - NETWORK: the service could not be reached or the connection dropped
//   - TIMEOUT: the per-attempt timer fired first
//   - CANCELLED: the caller cancelled the context
//   - SERVER_ERROR: status >= 500
//   - CLIENT_ERROR: status 400-499, or a request that could not be built
//   - INVALID_RESPONSE: a success status whose body is not JSON
//
// The timer and the caller share one context. The timer cancels it with a
// private cause, which is how TIMEOUT is told apart from CANCELLED after the
// exchange returns.
//
// Error messages for 4xx/5xx are taken from {detail}, {message} or {error}
// when the body is JSON; otherwise the status text is used.
//
// # Retries
//
// Retrier retries NETWORK, TIMEOUT and SERVER_ERROR with status 502, 503 or
// 504. The wait before retry n (from 0) is min(base*2^n, max) plus up to
// 250ms of jitter, and is abandoned as soon as the context is cancelled.
// CANCELLED, CLIENT_ERROR and INVALID_RESPONSE are returned immediately.
//
// # Testing Considerations
//
// Use httptest.Server to fake the service. Retrier accepts Jitter and Sleep
// functions so backoff can be asserted without waiting.
package guide
