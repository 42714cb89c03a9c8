package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout    = 30 * time.Second
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 1 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
)

// HTTPSource is a JSON-over-HTTP classifier client. The classifier receives
// {"image_ref": ..., "model": ...} and answers with {"predictions": [...]}.
type HTTPSource struct {
	name       string
	version    string
	kind       Kind
	endpoint   string
	model      string
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// HTTPConfig captures the settings for one classifier endpoint.
type HTTPConfig struct {
	Name           string
	Version        string
	Kind           Kind
	Endpoint       string
	Model          string
	TimeoutSeconds int
}

// HTTPOption customizes the client.
type HTTPOption func(*HTTPSource)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count (defaults to 3).
func WithRetryMaxAttempts(attempts int) HTTPOption {
	return func(s *HTTPSource) {
		s.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.retryBaseDelay = baseDelay
		s.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) HTTPOption {
	return func(s *HTTPSource) {
		s.sleeper = sleeper
	}
}

// NewHTTPSource constructs a classifier client for one configured source.
func NewHTTPSource(cfg HTTPConfig, opts ...HTTPOption) *HTTPSource {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	source := &HTTPSource{
		name:             strings.TrimSpace(cfg.Name),
		version:          strings.TrimSpace(cfg.Version),
		kind:             cfg.Kind,
		endpoint:         strings.TrimSpace(cfg.Endpoint),
		model:            strings.TrimSpace(cfg.Model),
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(source)
	}
	if source.httpClient == nil {
		source.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return source
}

func (s *HTTPSource) Name() string    { return s.name }
func (s *HTTPSource) Version() string { return s.version }
func (s *HTTPSource) Kind() Kind      { return s.kind }

type predictRequest struct {
	ImageRef string `json:"image_ref"`
	Model    string `json:"model,omitempty"`
}

type predictResponse struct {
	Predictions []Prediction `json:"predictions"`
	Error       *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("predict request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Predict asks the classifier for labels or tag IDs, retrying transient
// failures with capped exponential backoff.
func (s *HTTPSource) Predict(ctx context.Context, imageRef string) ([]Prediction, error) {
	if strings.TrimSpace(imageRef) == "" {
		return nil, errors.New("predict: image ref required")
	}
	if s.endpoint == "" {
		return nil, fmt.Errorf("predict: source %q has no endpoint", s.name)
	}

	attempts := s.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		predictions, err := s.predictOnce(ctx, imageRef)
		if err == nil {
			return predictions, nil
		}

		delay, retry := s.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			return nil, err
		}
		if err := s.sleep(ctx, delay); err != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("predict: source %q failed after %d attempts: %w", s.name, attempts, lastErr)
}

func (s *HTTPSource) predictOnce(ctx context.Context, imageRef string) ([]Prediction, error) {
	encoded, err := json.Marshal(predictRequest{ImageRef: imageRef, Model: s.model})
	if err != nil {
		return nil, fmt.Errorf("predict request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("predict request: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("predict request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded predictResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("predict request: decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("predict request: api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	return decoded.Predictions, nil
}

func (s *HTTPSource) retryAttempts() int {
	if s.retryMaxAttempts <= 0 {
		return 1
	}
	return s.retryMaxAttempts
}

func (s *HTTPSource) retryDelay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil {
		return 0, false
	}
	if ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return s.backoffDelay(attempt), true
		default:
			return 0, false
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return s.backoffDelay(attempt), true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return s.backoffDelay(attempt), true
	}
	return 0, false
}

func (s *HTTPSource) backoffDelay(attempt int) time.Duration {
	base := s.retryBaseDelay
	if base < 0 {
		base = defaultRetryBaseDelay
	}
	maxDelay := s.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	delay := base << (attempt - 1)
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func (s *HTTPSource) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	if s.sleeper != nil {
		s.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
