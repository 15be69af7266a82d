// Package backend provides clients for the source registry and the ingestion endpoint.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/umputun/livefeed/pkg/domain"
)

// HTTPError is a non-200 response from the backend
type HTTPError struct {
	Code int
	Body string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// errNoRetry marks errors repeating can't fix
var errNoRetry = errors.New("not retryable")

// RegistryParams configures the registry client
type RegistryParams struct {
	Client     *http.Client
	BaseURL    string
	Path       string
	Timeout    time.Duration // per attempt
	Attempts   int
	RetryDelay time.Duration // initial backoff delay
}

// Registry lists active sources from the registry backend
type Registry struct {
	RegistryParams
}

// NewRegistry makes a registry client
func NewRegistry(params RegistryParams) *Registry {
	if params.Client == nil {
		params.Client = &http.Client{}
	}
	if params.Attempts <= 0 {
		params.Attempts = 1
	}
	if params.RetryDelay <= 0 {
		params.RetryDelay = 500 * time.Millisecond
	}
	return &Registry{RegistryParams: params}
}

// ActiveSources returns the current source list. Transport errors and 5xx responses are retried
// with backoff, 4xx responses are returned right away.
func (r *Registry) ActiveSources(ctx context.Context) ([]domain.SourceConfig, error) {
	var res []domain.SourceConfig
	retrier := repeater.NewBackoff(r.Attempts, r.RetryDelay, repeater.WithMaxDelay(10*time.Second))
	err := retrier.Do(ctx, func() error {
		sources, err := r.list(ctx)
		if err != nil {
			return err
		}
		res = sources
		return nil
	}, errNoRetry)
	if err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}
	return res, nil
}

func (r *Registry) list(ctx context.Context) ([]domain.SourceConfig, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinURL(r.BaseURL, r.Path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", errNoRetry, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get sources: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		httpErr := &HTTPError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: %w", errNoRetry, httpErr)
		}
		return nil, httpErr
	}

	var payload struct {
		Sources []json.RawMessage `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode sources: %w", errNoRetry, err)
	}
	return decodeSources(payload.Sources), nil
}

// decodeSources decodes each source on its own, a malformed entry is logged and skipped
func decodeSources(raw []json.RawMessage) []domain.SourceConfig {
	res := make([]domain.SourceConfig, 0, len(raw))
	for i, r := range raw {
		var src domain.SourceConfig
		if err := json.Unmarshal(r, &src); err != nil {
			lgr.Printf("[WARN] skip malformed source #%d %s: %v", i, sourceRef(r), err)
			continue
		}
		res = append(res, src)
	}
	return res
}

// sourceRef extracts sourceId from a raw source for logging, if it is a string
func sourceRef(r json.RawMessage) string {
	var ref struct {
		SourceID any `json:"sourceId"`
	}
	if err := json.Unmarshal(r, &ref); err != nil || ref.SourceID == nil {
		return "(no id)"
	}
	return fmt.Sprintf("%v", ref.SourceID)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
