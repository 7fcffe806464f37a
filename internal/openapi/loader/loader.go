package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"
)

// Options configures where documents are read from.
type Options struct {
	// FileSystem, when set, serves every non-URL location.
	FileSystem fs.FS
	// HTTPClient enables http(s) locations. Nil disables them.
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Loader reads raw OpenAPI documents from disk, an fs.FS, or HTTP.
type Loader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// New constructs a Loader from pre-resolved options.
func New(options Options) *Loader {
	var client *http.Client
	if options.HTTPClient != nil {
		clone := *options.HTTPClient
		if options.Timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = options.Timeout
		}
		client = &clone
	}
	return &Loader{fs: options.FileSystem, http: client, timeout: options.Timeout}
}

// Load returns the bytes stored at location.
func (l *Loader) Load(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, errors.New("openapi loader: location is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		if l.http == nil {
			return nil, errors.New("openapi loader: http support disabled")
		}
		return l.loadHTTP(ctx, location)
	case l.fs != nil:
		return fs.ReadFile(l.fs, strings.TrimPrefix(location, "/"))
	default:
		return os.ReadFile(location)
	}
}

func (l *Loader) loadHTTP(ctx context.Context, url string) ([]byte, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("openapi loader: build request: %w", err)
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openapi loader: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openapi loader: fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
