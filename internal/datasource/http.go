package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vanderheijden86/teamboard/pkg/debug"
	"github.com/vanderheijden86/teamboard/pkg/model"
)

// ErrStatus is matched (errors.Is) by every non-2xx response error.
var ErrStatus = errors.New("unexpected HTTP status")

const maxBodyBytes = 32 << 20

// StatusError carries the status of a failed stats request.
type StatusError struct {
	Code   int
	Status string
	Body   string // first bytes of the response body
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("stats request failed: %s", e.Status)
	}
	return fmt.Sprintf("stats request failed: %s: %s", e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// HTTPSource reads GET <base>/stats.
type HTTPSource struct {
	endpoint string
	username string
	password string
	client   *http.Client
}

// NewHTTPSource creates a source for the stats endpoint under baseURL. A
// baseURL that already ends in /stats is used as is.
func NewHTTPSource(baseURL string, opts Options) *HTTPSource {
	endpoint := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasSuffix(endpoint, "/stats") {
		if joined, err := url.JoinPath(endpoint, "stats"); err == nil {
			endpoint = joined
		} else {
			endpoint += "/stats"
		}
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTPSource{
		endpoint: endpoint,
		username: opts.Username,
		password: opts.Password,
		client:   client,
	}
}

// Name returns the endpoint URL.
func (s *HTTPSource) Name() string { return s.endpoint }

// Fetch performs one request and decodes the response.
func (s *HTTPSource) Fetch(ctx context.Context) ([]model.StatRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building stats request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if s.username != "" || s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	debug.Log("datasource: GET %s id=%s", s.endpoint, reqID)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading stats response: %w", err)
	}
	return DecodeRecords(body)
}

func (s *HTTPSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
