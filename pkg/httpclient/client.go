// Package httpclient dispatches a single prepared probe — method, URL,
// header set, and body — against the live server and returns a response
// snapshot. It is a thin dispatcher: it does not interpret the response in
// any way, that is the comparator's job.
//
// Grounded on har_minimizer/http_client.py's HttpClient (session-per-worker,
// rate-limiter gate before every send, transport failures turned into an
// error-carrying snapshot rather than a Go error) and on the teacher's
// runner.go, which builds a *http.Transport/*http.Client pair scoped to one
// outbound target.
package httpclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/harminx/harminx/pkg/harconfig"
	"github.com/harminx/harminx/pkg/harmodel"
	"github.com/harminx/harminx/pkg/ratelimit"
)

// Client dispatches probes against the live server. One Client is shared
// across all workers; connection pooling is handled by the underlying
// http.Client's transport, which is safe for concurrent use.
type Client struct {
	http    *http.Client
	limiter *ratelimit.Limiter
}

// New builds a Client from the resolved client configuration and a shared
// rate limiter.
func New(cfg harconfig.ClientConfig, limiter *ratelimit.Limiter) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.VerifyTLS}, //nolint:gosec // user-controlled replay target
	}
	if len(cfg.Proxies) > 0 {
		proxies := cfg.Proxies
		transport.Proxy = func(req *http.Request) (*url.URL, error) {
			scheme := strings.ToLower(req.URL.Scheme)
			if raw, ok := proxies[scheme]; ok {
				return url.Parse(raw)
			}
			return nil, nil
		}
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		limiter: limiter,
	}
}

// Send issues one probe: the original request's method and URL, the given
// header set, and body (which overrides request.BodyText when non-nil).
// It always blocks on the rate limiter first. Transport failures are never
// returned as a Go error — they are captured in the snapshot per spec §4.2.
func (c *Client) Send(ctx context.Context, request harmodel.RequestData, headers []harmodel.Header, body *string) harmodel.ResponseSnapshot {
	c.limiter.Acquire()

	start := time.Now()

	effectiveBody := request.BodyText
	if body != nil {
		effectiveBody = body
	}

	var bodyReader *strings.Reader
	if effectiveBody != nil {
		bodyReader = strings.NewReader(*effectiveBody)
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, request.Method, request.URL, bodyReader)
	if err != nil {
		return transportFailure(start, err)
	}
	for _, h := range headers {
		req.Header.Add(h.Name, h.Value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportFailure(start, err)
	}
	defer resp.Body.Close()

	text, err := readAll(resp)
	if err != nil {
		return transportFailure(start, err)
	}

	status := resp.StatusCode
	respHeaders := make(map[string]string, len(resp.Header))
	for name := range resp.Header {
		respHeaders[name] = resp.Header.Get(name)
	}

	return harmodel.ResponseSnapshot{
		StatusCode: &status,
		Body:       &text,
		Headers:    respHeaders,
		Elapsed:    time.Since(start),
	}
}

func transportFailure(start time.Time, err error) harmodel.ResponseSnapshot {
	return harmodel.ResponseSnapshot{
		Headers: map[string]string{},
		Elapsed: time.Since(start),
		Error:   err.Error(),
	}
}
