package civitai

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

	"github.com/Mewyk/CivitaiMediaHoarder/internal/logger"
)

// sentinelProbeLimit bounds how much of a JSON body is buffered while
// looking for the user-not-found sentinel. Media payloads are never
// JSON and stream through untouched.
const sentinelProbeLimit = 1 << 20

type apiError struct {
	Error string `json:"error"`
}

// replayBody stitches the probed prefix back in front of the unread
// remainder so callers see the full body.
type replayBody struct {
	io.Reader
	io.Closer
}

// GetWithRetries performs a GET with up to maxRetries attempts.
// Transport failures and 5xx responses are retried with a linear
// backoff of attempt*backoff; other 4xx statuses are permanent. A JSON
// body carrying the API's "User not found" sentinel aborts immediately
// with ErrUserNotFound regardless of status code.
func GetWithRetries(ctx context.Context, client *http.Client, rawURL string, headers map[string]string, maxRetries int, backoff time.Duration) (*http.Response, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := attemptGet(ctx, client, rawURL, headers)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var pe *permanentError
		if errors.As(err, &pe) {
			return nil, pe.err
		}
		lastErr = err
		if attempt == maxRetries {
			break
		}
		delay := time.Duration(attempt) * backoff
		logger.Debugf(ctx, "GET %s failed (attempt %d/%d), retrying in %s: %v", rawURL, attempt, maxRetries, delay, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("GET %s: %w", rawURL, lastErr)
}

// permanentError marks failures that must not be retried.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func attemptGet(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &permanentError{err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if isJSON(resp.Header.Get("Content-Type")) {
		notFound, probeErr := probeUserNotFound(resp)
		if probeErr != nil {
			resp.Body.Close()
			return nil, probeErr
		}
		if notFound {
			resp.Body.Close()
			return nil, &permanentError{err: ErrUserNotFound}
		}
	}
	switch {
	case resp.StatusCode >= 500:
		resp.Body.Close()
		return nil, fmt.Errorf("server error: %s", resp.Status)
	case resp.StatusCode >= 400:
		resp.Body.Close()
		return nil, &permanentError{err: fmt.Errorf("GET %s: unexpected status %s", rawURL, resp.Status)}
	}
	return resp, nil
}

// probeUserNotFound buffers up to sentinelProbeLimit bytes of a JSON
// body and reports whether it is the API's user-not-found sentinel.
// The response body is replaced so the caller reads it in full.
func probeUserNotFound(resp *http.Response) (bool, error) {
	prefix, err := io.ReadAll(io.LimitReader(resp.Body, sentinelProbeLimit))
	if err != nil {
		return false, err
	}
	resp.Body = &replayBody{
		Reader: io.MultiReader(bytes.NewReader(prefix), resp.Body),
		Closer: resp.Body,
	}
	if len(prefix) == sentinelProbeLimit {
		// Too large to be the sentinel payload.
		return false, nil
	}
	var ae apiError
	if json.Unmarshal(prefix, &ae) != nil {
		return false, nil
	}
	return ae.Error == "User not found", nil
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}
