package apiclient

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// RequestIDHeader carries a per-call correlation ID to the remote API.
const RequestIDHeader = "X-Request-ID"

// headerTransport stamps outgoing requests and reports the outcome to any
// callTrace found in the request context.
type headerTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request.
	out := req.Clone(req.Context())
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if t.userAgent != "" {
		out.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.base.RoundTrip(out)
	if p := traceFrom(req.Context()); p != nil {
		p.record(out.Header.Get(RequestIDHeader), resp, err)
	}
	return resp, err
}

// callTrace observes the single HTTP exchange behind a gateway call. The
// oauth2 package formats transport failures into plain strings, so the trace
// is how the token exchange learns whether the server was reached at all.
type callTrace struct {
	mu        sync.Mutex
	requestID string
	status    int
	err       error
}

func (p *callTrace) record(requestID string, resp *http.Response, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestID = requestID
	p.err = err
	if resp != nil {
		p.status = resp.StatusCode
	}
}

func (p *callTrace) result() (string, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requestID, p.status, p.err
}

type traceKey struct{}

func withTrace(ctx context.Context) (context.Context, *callTrace) {
	p := &callTrace{}
	return context.WithValue(ctx, traceKey{}, p), p
}

func traceFrom(ctx context.Context) *callTrace {
	p, _ := ctx.Value(traceKey{}).(*callTrace)
	return p
}
