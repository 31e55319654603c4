// Package httpclient is the single process-wide HTTP client builder
// (spec.md §4.2): pooled transport, DNS caching, default UA/timeout,
// transparent redirects, JSON/multipart helpers and per-host
// token-bucket limiters (LimiterFor/Wait). Do itself does not throttle.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/dnscache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/allypost/dlhub/internal/corerr"
)

// Kind classifies an HTTP-substrate failure so callers can decide what to
// retry, per spec.md §4.2.
type Kind int

const (
	KindNone Kind = iota
	KindTimeout
	KindTransport
	KindHTTPStatus
	KindDecode
)

// Error wraps a Kind with the HTTP status code (when KindHTTPStatus) and
// the underlying cause.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("httpclient: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("httpclient: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client is the shared, pooled HTTP client.
type Client struct {
	http      *http.Client
	userAgent string
	limiters  sync.Map // host -> *rate.Limiter
	log       *zap.Logger
}

// Options configures New.
type Options struct {
	UserAgent      string
	DefaultTimeout time.Duration
	// RequestsPerSecondPerHost is not read by New; requests made through
	// Do are not rate limited.
	RequestsPerSecondPerHost float64
}

// New builds the process-wide client. Called once at startup; the result
// is read-only thereafter (spec.md §9 "Global state").
func New(opts Options, log *zap.Logger) *Client {
	resolver := &dnscache.Resolver{}
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return dialer.DialContext(ctx, network, addr)
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil || len(ips) == 0 {
				return dialer.DialContext(ctx, network, addr)
			}
			var lastErr error
			for _, ip := range ips {
				conn, dialErr := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if dialErr == nil {
					return conn, nil
				}
				lastErr = dialErr
			}
			return nil, lastErr
		},
	}

	go refreshDNSCache(resolver)

	timeout := opts.DefaultTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("httpclient: stopped after 10 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		log:       log.Named("httpclient"),
	}
}

func refreshDNSCache(resolver *dnscache.Resolver) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		resolver.Refresh(true)
	}
}

// Request describes one HTTP call; zero-value Method means GET.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    io.Reader
	Timeout time.Duration // overrides the client default for this call
}

// Do issues req, merging its headers over the client defaults
// (extractor-supplied headers win), and classifies any failure into one
// of the Kind values.
func (c *Client) Do(ctx context.Context, req Request) (*http.Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, req.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("httpclient: building request: %w", err)}
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	client := c.http
	if req.Timeout > 0 {
		clone := *c.http
		clone.Timeout = req.Timeout
		client = &clone
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, corerr.Wrap(corerr.ErrCancelled, ctx.Err())
		}
		if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
			return nil, &Error{Kind: KindTimeout, Err: err}
		}
		return nil, &Error{Kind: KindTransport, Err: err}
	}

	return resp, nil
}

// DoJSON issues req and decodes the JSON response body into out.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) (*http.Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return resp, &Error{Kind: KindHTTPStatus, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp, &Error{Kind: KindDecode, Err: fmt.Errorf("httpclient: decoding JSON: %w", err)}
	}

	return resp, nil
}

// ReadAll issues req and returns the full response body, enforcing the
// status-code check every caller otherwise duplicates.
func (c *Client) ReadAll(ctx context.Context, req Request) ([]byte, *http.Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, &Error{Kind: KindTransport, Err: err}
	}

	if resp.StatusCode >= 400 {
		return body, resp, &Error{Kind: KindHTTPStatus, StatusCode: resp.StatusCode}
	}

	return body, resp, nil
}

// PostForm issues a application/x-www-form-urlencoded POST.
func (c *Client) PostForm(ctx context.Context, rawURL string, headers map[string]string, form url.Values) (*http.Response, error) {
	h := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	for k, v := range headers {
		h[k] = v
	}
	return c.Do(ctx, Request{
		Method:  http.MethodPost,
		URL:     rawURL,
		Headers: h,
		Body:    bytes.NewBufferString(form.Encode()),
	})
}

// PostJSON issues an application/json POST, marshaling body.
func (c *Client) PostJSON(ctx context.Context, rawURL string, headers map[string]string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Err: err}
	}
	h := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	return c.Do(ctx, Request{
		Method:  http.MethodPost,
		URL:     rawURL,
		Headers: h,
		Body:    bytes.NewReader(data),
	})
}

// PostMultipart streams a single-file multipart/form-data POST, suitable
// for large uploads (e.g. the OCR action, RemoveBackground's 0x0.st hop).
func (c *Client) PostMultipart(ctx context.Context, rawURL, fieldName, fileName string, file io.Reader, extraFields map[string]string) (*http.Response, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer pw.Close()
		defer mw.Close()

		for k, v := range extraFields {
			_ = mw.WriteField(k, v)
		}

		part, err := mw.CreateFormFile(fieldName, fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
	}()

	return c.Do(ctx, Request{
		Method:  http.MethodPost,
		URL:     rawURL,
		Headers: map[string]string{"Content-Type": mw.FormDataContentType()},
		Body:    pr,
	})
}

// LimiterFor returns (creating if needed) the per-host token-bucket
// limiter for host; rps <= 0 means 5 requests per second. Nothing in this
// repository calls it or Wait.
func (c *Client) LimiterFor(host string, rps float64) *rate.Limiter {
	if rps <= 0 {
		rps = 5
	}
	v, _ := c.limiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(rps), int(rps)+1))
	return v.(*rate.Limiter)
}

// Wait blocks until host's limiter admits one more request or ctx is done.
func (c *Client) Wait(ctx context.Context, host string, rps float64) error {
	return c.LimiterFor(host, rps).Wait(ctx)
}
