// Package httputil provides shared HTTP utilities with connection pooling
// and safe response handling for the Astral crisis gateway.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize is the default maximum size for reading HTTP response bodies.
// This prevents OOM from a misbehaving downstream service.
const MaxResponseSize = 10 * 1024 * 1024 // 10MB

// Shared transport with optimized connection pooling.
// Safe for concurrent use; reusing TCP connections keeps escalation-backend
// latency predictable under load.
var sharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier defines standard timeout categories for different operation types.
type TimeoutTier int

const (
	// TierDispatch for responder dispatch calls on the crisis path (5s)
	TierDispatch TimeoutTier = iota
	// TierMedium for standard API calls like embedding requests (30s)
	TierMedium
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierDispatch: 5 * time.Second,
	TierMedium:   30 * time.Second,
}

// Singleton clients for each timeout tier - initialized once, reused everywhere.
var (
	clientDispatch *http.Client
	clientMedium   *http.Client
	clientOnce     sync.Once
)

func initClients() {
	clientDispatch = &http.Client{
		Timeout:   timeoutDurations[TierDispatch],
		Transport: sharedTransport,
	}
	clientMedium = &http.Client{
		Timeout:   timeoutDurations[TierMedium],
		Transport: sharedTransport,
	}
}

// Client returns a shared HTTP client for the given timeout tier.
// These clients share a connection pool and should be used instead of
// creating new http.Client instances per request.
//
// Usage:
//
//	client := httputil.Client(httputil.TierDispatch)
//	resp, err := client.Do(req)
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	switch tier {
	case TierDispatch:
		return clientDispatch
	default:
		return clientMedium
	}
}

// DispatchClient returns a client with 5s timeout (escalation backend calls).
// Per-attempt deadlines tighter than 5s come from the request context.
func DispatchClient() *http.Client {
	return Client(TierDispatch)
}

// MediumClient returns a client with 30s timeout (standard API calls).
func MediumClient() *http.Client {
	return Client(TierMedium)
}

// NewClient returns a client with a custom timeout on the shared transport.
// Use the tier clients unless an operator-configured timeout applies.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}

// ReadResponseBody safely reads an HTTP response body with size limits.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// ReadErrorBody reads the response body for error messages with a reasonable limit.
// Uses a smaller limit (1MB) since error messages shouldn't be large.
func ReadErrorBody(r io.Reader) ([]byte, error) {
	const maxErrorSize = 1 * 1024 * 1024 // 1MB for error messages
	return ReadResponseBody(r, maxErrorSize)
}

// DrainAndClose properly drains and closes an HTTP response body.
// This ensures connection reuse in the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
