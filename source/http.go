package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultMaxBytes = 64 << 20
	defaultTimeout  = 30 * time.Second
)

// HTTPOptions configure an HTTP source. Zero values pick defaults.
type HTTPOptions struct {
	Client   *http.Client // nil => client with 30s timeout
	BaseURL  string       // relative urls are resolved against it
	Header   http.Header  // sent with every request
	MaxBytes int64        // 0 => 64 MiB
}

// HTTP fetches assets with GET requests.
type HTTP struct {
	client   *http.Client
	base     *url.URL
	header   http.Header
	maxBytes int64
}

var _ Source = (*HTTP)(nil)

func NewHTTP(opts HTTPOptions) (*HTTP, error) {
	h := &HTTP{
		client:   opts.Client,
		header:   opts.Header.Clone(),
		maxBytes: opts.MaxBytes,
	}
	if h.client == nil {
		h.client = &http.Client{Timeout: defaultTimeout}
	}
	if h.maxBytes <= 0 {
		h.maxBytes = defaultMaxBytes
	}
	if opts.BaseURL != "" {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("source: base url: %w", err)
		}
		h.base = u
	}
	return h, nil
}

func (h *HTTP) resolve(raw string) (string, error) {
	if h.base == nil {
		return raw, nil
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return h.base.ResolveReference(ref).String(), nil
}

func (h *HTTP) Fetch(ctx context.Context, raw string) ([]byte, error) {
	target, err := h.resolve(raw)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", raw, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", raw, err)
	}
	for k, vs := range h.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", raw, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10)) // keep the connection reusable
		return nil, &StatusError{URL: raw, Code: resp.StatusCode}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", raw, err)
	}
	if int64(len(b)) > h.maxBytes {
		return nil, fmt.Errorf("fetch %q: %w (> %d bytes)", raw, ErrTooLarge, h.maxBytes)
	}
	return b, nil
}

func (h *HTTP) Close(context.Context) error {
	h.client.CloseIdleConnections()
	return nil
}
