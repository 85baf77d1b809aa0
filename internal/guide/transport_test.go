package guide

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func stepsEnvelope(t *testing.T) Envelope {
	t.Helper()
	env, err := NewStepsEnvelope(StepsRequest{AnalysisID: "a1"})
	if err != nil {
		t.Fatalf("NewStepsEnvelope returned error: %v", err)
	}
	return env
}

func serve(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestExecutor_ClassifiesResponses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantKind    ErrorKind
		wantMessage string
	}{
		{name: "gateway html", status: 503, contentType: "text/html", body: "<html>waking up</html>", wantKind: KindServerError, wantMessage: "service unavailable"},
		{name: "internal", status: 500, contentType: "application/json", body: `{"message":"boom"}`, wantKind: KindServerError, wantMessage: "boom"},
		{name: "validation detail", status: 422, contentType: "application/json", body: `{"detail":"image too small"}`, wantKind: KindClientError, wantMessage: "image too small"},
		{name: "fastapi detail list", status: 422, contentType: "application/json", body: `{"detail":[{"msg":"field required"},{"msg":"bad grid"}]}`, wantKind: KindClientError, wantMessage: "field required; bad grid"},
		{name: "nested error", status: 400, contentType: "application/json", body: `{"error":{"message":"bad options"}}`, wantKind: KindClientError, wantMessage: "bad options"},
		{name: "html success", status: 200, contentType: "text/html", body: "<!doctype html><p>index</p>", wantKind: KindInvalidResponse},
		{name: "empty success", status: 200, contentType: "application/json", body: "", wantKind: KindInvalidResponse},
		{name: "truncated json", status: 200, contentType: "application/json", body: `{"summary":`, wantKind: KindInvalidResponse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			server := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := NewExecutor(server.Client(), "").Execute(context.Background(), server.URL+"/api/guide/steps", stepsEnvelope(t), 2*time.Second)
			gerr, ok := AsError(err)
			if !ok {
				t.Fatalf("Execute error = %v, want *Error", err)
			}
			if gerr.Kind != tc.wantKind {
				t.Fatalf("kind = %s, want %s (%v)", gerr.Kind, tc.wantKind, err)
			}
			if tc.wantMessage != "" && gerr.Message != tc.wantMessage {
				t.Fatalf("message = %q, want %q", gerr.Message, tc.wantMessage)
			}
			if tc.status >= 400 && gerr.Status != tc.status {
				t.Fatalf("status = %d, want %d", gerr.Status, tc.status)
			}
		})
	}
}

func TestExecutor_SuccessSendsHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotAccept, gotType, gotID string
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotType = r.Header.Get("Content-Type")
		gotID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("  {\"steps\":[]}\n"))
	})

	raw, err := NewExecutor(server.Client(), "brickguide-test").Execute(context.Background(), server.URL, stepsEnvelope(t), time.Second)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if string(raw) != `{"steps":[]}` {
		t.Fatalf("raw = %q, want trimmed JSON", raw)
	}
	if gotUA != "brickguide-test" || gotAccept != "application/json" || gotType != "application/json" {
		t.Fatalf("headers = ua %q accept %q type %q", gotUA, gotAccept, gotType)
	}
	if len(gotID) != 36 {
		t.Fatalf("X-Request-ID = %q, want a uuid", gotID)
	}
}

func TestExecutor_TimeoutIsNotCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	_, err := NewExecutor(server.Client(), "").Execute(context.Background(), server.URL, stepsEnvelope(t), 50*time.Millisecond)
	if KindOf(err) != KindTimeout {
		t.Fatalf("kind = %s, want TIMEOUT (%v)", KindOf(err), err)
	}
}

func TestExecutor_CallerCancellation(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	server := serve(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := NewExecutor(server.Client(), "").Execute(ctx, server.URL, stepsEnvelope(t), 5*time.Second)
	if !IsCancelled(err) {
		t.Fatalf("kind = %s, want CANCELLED (%v)", KindOf(err), err)
	}
	if UserMessage(err) != "" {
		t.Fatalf("cancellation rendered %q, want empty", UserMessage(err))
	}
}

func TestExecutor_AlreadyCancelledNeverSends(t *testing.T) {
	t.Parallel()

	hits := 0
	server := serve(t, func(w http.ResponseWriter, r *http.Request) { hits++ })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewExecutor(server.Client(), "").Execute(ctx, server.URL, stepsEnvelope(t), time.Second)
	if !IsCancelled(err) {
		t.Fatalf("kind = %s, want CANCELLED", KindOf(err))
	}
	if hits != 0 {
		t.Fatalf("server saw %d requests, want 0", hits)
	}
}

func TestExecutor_ConnectionRefusedIsNetwork(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	_, err = NewExecutor(nil, "").Execute(context.Background(), "http://"+addr, stepsEnvelope(t), time.Second)
	if KindOf(err) != KindNetwork {
		t.Fatalf("kind = %s, want NETWORK (%v)", KindOf(err), err)
	}
	if !strings.Contains(UserMessage(err), "Could not reach") {
		t.Fatalf("user message = %q", UserMessage(err))
	}
}

func TestErrorMessage_FallsBackToStatusText(t *testing.T) {
	if got := errorMessage([]byte("not json"), http.StatusBadGateway); got != "bad gateway" {
		t.Fatalf("errorMessage = %q, want bad gateway", got)
	}
	if got := errorMessage(nil, 599); got != "request failed with status 599" {
		t.Fatalf("errorMessage = %q", got)
	}
}
