// Package source loads datasets from the network and from local files and
// hands them to the redraw loop.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/chess-movetable/internal/movedata"
	"github.com/valyala/fasthttp"
)

// Fetcher issues the single GET for the default dataset resource. It never
// retries.
type Fetcher struct {
	url     string
	http    *fasthttp.Client
	timeout time.Duration
}

type FetchOption func(*Fetcher)

func WithTimeout(d time.Duration) FetchOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithMaxBodySize(n int) FetchOption {
	return func(f *Fetcher) { f.http.MaxResponseBodySize = n }
}

// NewFetcher resolves path against baseURL. An absolute path URL is used
// as is.
func NewFetcher(baseURL, path string, opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		url:     resolveURL(baseURL, path),
		http:    &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 4},
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL is the resource the fetcher requests.
func (f *Fetcher) URL() string { return f.url }

// Fetch downloads and decodes the dataset. Cancelling ctx abandons the
// request immediately.
func (f *Fetcher) Fetch(ctx context.Context) (*movedata.ExperimentalDataset, error) {
	type result struct {
		body []byte
		err  error
	}
	done := make(chan result, 1)
	deadline := f.computeDeadline(ctx)

	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer func() {
			fasthttp.ReleaseRequest(req)
			fasthttp.ReleaseResponse(resp)
		}()
		req.Header.SetMethod(fasthttp.MethodGet)
		req.SetRequestURI(f.url)
		req.Header.Set("Accept", "application/json")

		if err := f.http.DoDeadline(req, resp, deadline); err != nil {
			done <- result{err: fmt.Errorf("request failed: %w", err)}
			return
		}
		if status := resp.StatusCode(); status < 200 || status >= 300 {
			done <- result{err: fmt.Errorf("fetch %s: status=%d body=%s", f.url, status, truncate(string(resp.Body()), 256))}
			return
		}
		done <- result{body: append([]byte(nil), resp.Body()...)}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return movedata.Decode(r.body)
	}
}

func (f *Fetcher) computeDeadline(ctx context.Context) time.Time {
	own := time.Now().Add(f.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(own) {
		return dl
	}
	return own
}

func resolveURL(base, path string) string {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(strings.TrimSpace(base), "/") + "/" + strings.TrimLeft(path, "/")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
