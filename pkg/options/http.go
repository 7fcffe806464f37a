package options

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Endpoint describes where a source's list lives and how to read it.
type Endpoint struct {
	URL        string
	Method     string
	Params     map[string]string
	Results    string // dotted path to the result array, empty for a bare array
	LabelField string
	ValueField string
	GroupField string
}

// HTTP fetches option lists from JSON endpoints. Successful responses are
// cached for the lifetime of the provider.
type HTTP struct {
	client    *http.Client
	endpoints map[string]Endpoint

	mu    sync.Mutex
	cache map[string][]Option
}

// HTTPOption configures an HTTP provider.
type HTTPOption func(*HTTP)

// WithHTTPClient overrides the client used for fetches.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		if client != nil {
			h.client = client
		}
	}
}

// WithEndpoint registers source.
func WithEndpoint(source string, endpoint Endpoint) HTTPOption {
	return func(h *HTTP) {
		h.endpoints[strings.TrimSpace(source)] = endpoint
	}
}

// NewHTTP builds a provider with no endpoints.
func NewHTTP(options ...HTTPOption) *HTTP {
	h := &HTTP{
		client:    &http.Client{Timeout: 10 * time.Second},
		endpoints: make(map[string]Endpoint),
		cache:     make(map[string][]Option),
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// FromBaseURL registers each source under base + "/" + source, expecting
// `{"data": [{"id": ..., "name": ...}]}` responses.
func FromBaseURL(base string, sources ...string) HTTPOption {
	return func(h *HTTP) {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		for _, source := range sources {
			h.endpoints[source] = Endpoint{
				URL:        base + "/" + source,
				Results:    "data",
				LabelField: "name",
				ValueField: "id",
				GroupField: "group",
			}
		}
	}
}

// Options fetches (or returns the cached) list for source.
func (h *HTTP) Options(ctx context.Context, source string) ([]Option, error) {
	endpoint, ok := h.endpoints[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}

	h.mu.Lock()
	cached, hit := h.cache[source]
	h.mu.Unlock()
	if hit {
		return append([]Option(nil), cached...), nil
	}

	opts, err := h.fetch(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("options: %s: %w", source, err)
	}

	h.mu.Lock()
	h.cache[source] = opts
	h.mu.Unlock()
	return append([]Option(nil), opts...), nil
}

func (h *HTTP) fetch(ctx context.Context, cfg Endpoint) ([]Option, error) {
	reqURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := reqURL.Query()
	for k, v := range cfg.Params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	valueField := cfg.ValueField
	if valueField == "" {
		valueField = "value"
	}
	labelField := cfg.LabelField
	if labelField == "" {
		labelField = "label"
	}

	var opts []Option
	for _, item := range extractResults(payload, cfg.Results) {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		val := pickValue(obj, valueField)
		if val == "" {
			continue
		}
		lbl := pickValue(obj, labelField)
		if lbl == "" {
			lbl = val
		}
		opts = append(opts, Option{Label: lbl, Value: val, Group: pickValue(obj, cfg.GroupField)})
	}
	return opts, nil
}

func extractResults(payload any, path string) []any {
	if payload == nil {
		return nil
	}
	cur := payload
	if path != "" {
		for _, segment := range strings.Split(path, ".") {
			node, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			cur = node[segment]
		}
	}
	items, _ := cur.([]any)
	return items
}

func pickValue(m map[string]any, path string) string {
	if path == "" {
		return ""
	}
	cur := any(m)
	for _, segment := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return ""
		}
		cur = node[segment]
	}
	if cur == nil {
		return ""
	}
	return fmt.Sprint(cur)
}
