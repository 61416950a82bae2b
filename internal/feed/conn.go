// Package feed owns the upstream connection lifecycle: dialing with capped
// exponential backoff, draining one live stream message-by-message, and
// handing qualifying events to the outbound queue.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"otakufeed/internal/wire"
)

// Conn is one live upstream stream. Next returns messages in emission order;
// it is never called concurrently. io.EOF signals a clean end of stream.
type Conn interface {
	Next(ctx context.Context) (*wire.ReleaseMessage, error)
	Close() error
}

// Dialer opens upstream connections. The context passed to Dial covers the
// whole life of the returned Conn, not just the connection attempt.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// HTTPDialer streams newline-delimited JSON wire messages from a long-lived
// HTTP response. Response compression is handled transparently by the
// transport (Accept-Encoding: gzip).
type HTTPDialer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPDialer builds a dialer for the given endpoint. dialTimeout bounds
// the connection attempt (TCP connect + response headers); it does not bound
// the stream itself, which lives until the server closes it or the context
// is canceled.
func NewHTTPDialer(endpoint string, dialTimeout time.Duration) *HTTPDialer {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: dialTimeout}).DialContext,
		ResponseHeaderTimeout: dialTimeout,
	}
	return &HTTPDialer{
		endpoint: endpoint,
		client:   &http.Client{Transport: transport},
	}
}

func (d *HTTPDialer) Dial(ctx context.Context) (Conn, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, d.endpoint)
	}

	return &httpConn{body: resp.Body, dec: json.NewDecoder(resp.Body)}, nil
}

type httpConn struct {
	body io.ReadCloser
	dec  *json.Decoder
}

// Next decodes the next message off the stream. Cancellation arrives through
// the request context: a canceled ctx aborts the underlying body read.
func (c *httpConn) Next(ctx context.Context) (*wire.ReleaseMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var msg wire.ReleaseMessage
	if err := c.dec.Decode(&msg); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("decode stream message: %w", err)
	}
	return &msg, nil
}

func (c *httpConn) Close() error { return c.body.Close() }
