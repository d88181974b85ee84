package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// maxErrorBody bounds how much of an error payload is quoted.
const maxErrorBody = 300

// CheckStatus maps a non-2xx response to a classified error. Throttling and
// quota responses wrap domain.ErrRateLimited; everything else wraps kind.
func CheckStatus(provider string, resp *http.Response, body []byte, kind error) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg := string(body)
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrRateLimited, resp.StatusCode, msg)
	}
	return fmt.Errorf("%s: %w (status %d): %s", provider, kind, resp.StatusCode, msg)
}

// RetryAfter reads a Retry-After header given in seconds.
func RetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// TransportError wraps a failed round trip. Deadline and cancellation errors
// keep their identity so callers can tell a timeout from a backend fault.
func TransportError(provider string, err error, kind error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", provider, err)
	}
	return fmt.Errorf("%s: %w: %w", provider, kind, err)
}

// Malformed reports a payload that decoded but is unusable, or did not decode.
func Malformed(provider, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", provider, domain.ErrMalformedResponse, fmt.Sprintf(format, args...))
}
