package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrEndpointRequired is returned by NewHTTP without a URL.
var ErrEndpointRequired = errors.New("submit: endpoint url is required")

// RemoteError is returned when the endpoint answers with a non-2xx status.
// Mapping is populated when the body carried an error payload.
type RemoteError struct {
	Status  int
	Message string
	Payload map[string][]string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("submit: endpoint returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("submit: endpoint returned %d", e.Status)
}

// HTTPSubmitter posts the form values as JSON.
type HTTPSubmitter struct {
	endpoint string
	method   string
	client   *http.Client
	headers  map[string]string
	logger   logrus.FieldLogger
	newKey   func() string
}

// HTTPOption customises an HTTPSubmitter.
type HTTPOption func(*HTTPSubmitter)

// WithClient overrides the HTTP client.
func WithClient(client *http.Client) HTTPOption {
	return func(s *HTTPSubmitter) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout sets the timeout on the default client.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(s *HTTPSubmitter) {
		if timeout > 0 {
			s.client = &http.Client{Timeout: timeout, Transport: s.client.Transport}
		}
	}
}

// WithMethod switches from POST, for endpoints expecting PUT.
func WithMethod(method string) HTTPOption {
	return func(s *HTTPSubmitter) {
		if trimmed := strings.ToUpper(strings.TrimSpace(method)); trimmed != "" {
			s.method = trimmed
		}
	}
}

// WithHeader adds a request header, such as an authorization token.
func WithHeader(name, value string) HTTPOption {
	return func(s *HTTPSubmitter) {
		if name = strings.TrimSpace(name); name != "" {
			s.headers[name] = value
		}
	}
}

// WithHTTPLogger attaches a logger.
func WithHTTPLogger(logger logrus.FieldLogger) HTTPOption {
	return func(s *HTTPSubmitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHTTP builds a submitter posting to endpoint.
func NewHTTP(endpoint string, options ...HTTPOption) (*HTTPSubmitter, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	s := &HTTPSubmitter{
		endpoint: endpoint,
		method:   http.MethodPost,
		client:   &http.Client{Timeout: 10 * time.Second},
		headers:  make(map[string]string),
		logger:   discardLogger(),
		newKey:   uuid.NewString,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Submit sends values and decodes the created entity. Each call carries a
// fresh Idempotency-Key header.
func (s *HTTPSubmitter) Submit(ctx context.Context, values map[string]any) (Result, error) {
	body, err := json.Marshal(values)
	if err != nil {
		return Result{}, fmt.Errorf("submit: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, s.method, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("submit: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	key := s.newKey()
	req.Header.Set("Idempotency-Key", key)
	for name, value := range s.headers {
		req.Header.Set(name, value)
	}

	log := s.logger.WithFields(logrus.Fields{"endpoint": s.endpoint, "idempotency_key": key})
	resp, err := s.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("submission request failed")
		return Result{}, fmt.Errorf("submit: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("submit: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		remote := decodeRemoteError(resp.StatusCode, raw)
		log.WithField("status", resp.StatusCode).Warn("submission rejected")
		return Result{Status: resp.StatusCode}, remote
	}

	result := Result{Status: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) == 0 {
		return result, nil
	}
	var entity map[string]any
	if err := json.Unmarshal(raw, &entity); err != nil {
		return result, fmt.Errorf("submit: decode: %w", err)
	}
	result.Entity = entity
	if id, ok := entity["id"]; ok && id != nil {
		result.ID = fmt.Sprint(id)
	}
	log.WithField("id", result.ID).Debug("submission accepted")
	return result, nil
}

// errorBody matches go-errors style responses: a message plus errors keyed
// by JSON pointer or field name, each holding one message or a list.
type errorBody struct {
	Message string                     `json:"message"`
	Error   string                     `json:"error"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

func decodeRemoteError(status int, raw []byte) *RemoteError {
	remote := &RemoteError{Status: status}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		remote.Message = strings.TrimSpace(string(raw))
		if len(remote.Message) > 200 {
			remote.Message = remote.Message[:200]
		}
		return remote
	}
	remote.Message = strings.TrimSpace(body.Message)
	if remote.Message == "" {
		remote.Message = strings.TrimSpace(body.Error)
	}
	if len(body.Errors) == 0 {
		return remote
	}
	remote.Payload = make(map[string][]string, len(body.Errors))
	for path, value := range body.Errors {
		var many []string
		if err := json.Unmarshal(value, &many); err == nil {
			remote.Payload[path] = many
			continue
		}
		var one string
		if err := json.Unmarshal(value, &one); err == nil {
			remote.Payload[path] = []string{one}
		}
	}
	return remote
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
