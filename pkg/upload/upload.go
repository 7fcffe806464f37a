// Package upload stores avatar images for the wizard.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrUnsupportedType is returned for content that is not an allowed image.
	ErrUnsupportedType = errors.New("upload: unsupported content type")
	// ErrTooLarge is returned when the content exceeds the store's limit.
	ErrTooLarge = errors.New("upload: file too large")
	// ErrEmpty is returned for zero-length content.
	ErrEmpty = errors.New("upload: file is empty")
)

// File is the content selected by the user.
type File struct {
	Name    string
	Content []byte
}

// Open reads a file from disk into a File.
func Open(name string) (File, error) {
	content, err := os.ReadFile(name)
	if err != nil {
		return File{}, fmt.Errorf("upload: read %s: %w", name, err)
	}
	return File{Name: filepath.Base(name), Content: content}, nil
}

// Uploader stores a file and returns the URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, file File) (string, error)
}

// UploaderFunc adapts a function into an Uploader.
type UploaderFunc func(ctx context.Context, file File) (string, error)

// Upload calls fn.
func (fn UploaderFunc) Upload(ctx context.Context, file File) (string, error) {
	return fn(ctx, file)
}

// DefaultAllowed lists the image types accepted by LocalStore.
var DefaultAllowed = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// LocalStore writes uploads into a directory named by a random uuid.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
	allowed  []string
}

// Option configures a LocalStore.
type Option func(*LocalStore)

// WithBaseURL sets the prefix of returned URLs. Defaults to "/uploads".
func WithBaseURL(base string) Option {
	return func(s *LocalStore) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithMaxBytes caps the accepted size. Defaults to 5 MiB.
func WithMaxBytes(n int64) Option {
	return func(s *LocalStore) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithAllowed replaces the accepted MIME types.
func WithAllowed(types ...string) Option {
	return func(s *LocalStore) {
		if len(types) > 0 {
			s.allowed = append([]string(nil), types...)
		}
	}
}

// NewLocalStore prepares dir for uploads, creating it when missing.
func NewLocalStore(dir string, options ...Option) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: create %s: %w", dir, err)
	}
	s := &LocalStore{
		dir:      dir,
		baseURL:  "/uploads",
		maxBytes: 5 << 20,
		allowed:  DefaultAllowed,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Upload sniffs the content type, writes the file and returns its URL.
func (s *LocalStore) Upload(ctx context.Context, file File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(file.Content) == 0 {
		return "", ErrEmpty
	}
	if int64(len(file.Content)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(file.Content))
	}

	mime := mimetype.Detect(file.Content)
	if !mimetype.EqualsAny(mime.String(), s.allowed...) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime.String())
	}

	name := uuid.NewString() + mime.Extension()
	target := filepath.Join(s.dir, name)
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("upload: create: %w", err)
	}
	if _, err := io.Copy(out, bytes.NewReader(file.Content)); err != nil {
		out.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("upload: write: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("upload: close: %w", err)
	}
	return s.baseURL + "/" + name, nil
}
