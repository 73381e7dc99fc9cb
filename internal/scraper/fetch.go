package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

const (
	DefaultJSONTimeout = 8 * time.Second
	DefaultHTMLTimeout = 10 * time.Second

	maxBodyBytes = 8 << 20
	userAgent    = "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"
)

// ErrorKind classifies a failed attempt.
type ErrorKind string

const (
	KindNetwork ErrorKind = "network"
	KindParse   ErrorKind = "parse"
)

// FetchError is returned inside a RawResponse when an endpoint could not be
// read: unreachable host, timeout or non-2xx status.
type FetchError struct {
	URL  string
	Kind ErrorKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s error for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPStatusError means the endpoint answered with a non-2xx status.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Fetcher performs one GET per call. Implementations must not retry and must
// report every failure through RawResponse rather than panicking.
type Fetcher interface {
	Fetch(ctx context.Context, mode Mode, url string) RawResponse
}

// Timeouts bounds a single attempt per transport mode.
type Timeouts struct {
	JSON time.Duration
	HTML time.Duration
}

// DefaultTimeouts matches the mirrors' typical response times.
func DefaultTimeouts() Timeouts {
	return Timeouts{JSON: DefaultJSONTimeout, HTML: DefaultHTMLTimeout}
}

func (t Timeouts) forMode(m Mode) time.Duration {
	if m == ModeHTML {
		if t.HTML > 0 {
			return t.HTML
		}
		return DefaultHTMLTimeout
	}
	if t.JSON > 0 {
		return t.JSON
	}
	return DefaultJSONTimeout
}

// HTTPFetcher is the production Fetcher.
type HTTPFetcher struct {
	client   *http.Client
	timeouts Timeouts
}

// NewHTTPFetcher creates a fetcher. A nil client gets a dedicated one; the
// per-attempt timeout is applied through the request context.
func NewHTTPFetcher(client *http.Client, timeouts Timeouts) *HTTPFetcher {
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConns:          20,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				ForceAttemptHTTP2:     true,
			},
		}
	}
	return &HTTPFetcher{client: client, timeouts: timeouts}
}

// Fetch issues a single GET bounded by the mode's timeout.
func (f *HTTPFetcher) Fetch(ctx context.Context, mode Mode, rawURL string) RawResponse {
	out := RawResponse{URL: rawURL, Mode: mode}
	fail := func(err error) RawResponse {
		out.Err = &FetchError{URL: rawURL, Kind: KindNetwork, Err: err}
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeouts.forMode(mode))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fail(err)
	}
	req.Header.Set("User-Agent", userAgent)
	if mode == ModeJSON {
		req.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.8")
	} else {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return fail(&HTTPStatusError{StatusCode: resp.StatusCode})
	}

	body, err := readBody(resp, mode)
	if err != nil {
		return fail(err)
	}

	out.Body = body
	out.OK = true
	return out
}

// readBody reads a capped body. JSON is always UTF-8. HTML is converted to
// UTF-8 only when the Content-Type or a BOM names another charset, or when
// the bytes are not valid UTF-8 (then any <meta charset> is honored).
func readBody(resp *http.Response, mode Mode) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if mode == ModeJSON {
		return raw, nil
	}

	enc, name, certain := charset.DetermineEncoding(raw, resp.Header.Get("Content-Type"))
	if certain && name == "utf-8" {
		return raw, nil
	}
	if !certain && utf8.Valid(raw) {
		return raw, nil
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		// the parsers tolerate stray bytes
		return raw, nil
	}
	return decoded, nil
}
